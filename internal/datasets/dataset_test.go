package datasets

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/xrmotion/internal/motion"
)

// collect runs d over root and returns every result.
func collect(t *testing.T, d Dataset, root string) []Result {
	t.Helper()
	var out []Result
	err := d.Convert(context.Background(), root, func(r Result) error {
		out = append(out, r)
		return nil
	})
	require.NoError(t, err)
	return out
}

// recordings returns the successful recordings, failing on any error result.
func recordings(t *testing.T, results []Result) []*motion.Recording {
	t.Helper()
	var recs []*motion.Recording
	for _, r := range results {
		require.NoError(t, r.Err, "source %s", r.Source)
		recs = append(recs, r.Recording)
	}
	return recs
}

func labels(rec *motion.Recording) map[string]string {
	out := make(map[string]string)
	for _, l := range rec.Labels {
		out[l.Key] = l.Value
	}
	return out
}

// nums formats float64 values as CSV cells.
func nums(vals ...float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

func TestNames(t *testing.T) {
	want := []string{
		"boxrr23",
		"liebers_beat_saber23",
		"liebers_hand22",
		"liebers_lab_study21",
		"moore_cross_domain23",
		"rmiller_ball22",
		"vr_net",
		"who_is_alyx",
	}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	for _, name := range want {
		d, err := New(name, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}
}

func TestNew_UnknownDataset(t *testing.T) {
	_, err := New("kinect_archive", DefaultOptions())
	assert.Error(t, err)
}

func TestConvert_StopsWhenEmitFails(t *testing.T) {
	root := writeMooreFixture(t)
	stop := errors.New("stop")
	calls := 0
	err := (&MooreCrossDomain23{opts: DefaultOptions()}).Convert(context.Background(), root, func(Result) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestConvert_CancelledContext(t *testing.T) {
	root := writeMooreFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&MooreCrossDomain23{opts: DefaultOptions()}).Convert(ctx, root, func(Result) error {
		t.Fatal("emit called after cancel")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

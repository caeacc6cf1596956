package datasets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/testutil"
)

func TestLiebersHand22_Convert(t *testing.T) {
	root := t.TempDir()
	header := []string{
		"Unity.realtimeSinceStartup",
		"Unity.HeadPosition.position_x", "Unity.HeadPosition.position_y", "Unity.HeadPosition.position_z",
		"Unity.HeadPosition.rotation.quaternion_x", "Unity.HeadPosition.rotation.quaternion_y",
		"Unity.HeadPosition.rotation.quaternion_z", "Unity.HeadPosition.rotation.quaternion_w",
		"Unity.L_Wrist.position_x", "Unity.R_Wrist.position_z",
		"Unity.Finger.label",
	}
	testutil.WriteTable(t, filepath.Join(root, "PID-07_SESSION-2_XR-AR_SCENE-kitchen.tsv"), "\t", header,
		[]string{"1.5", "0.1", "1.6", "0.2", "0", "0", "0", "1", "-0.2", "0.4", "thumb"},
		[]string{"1.6", "0.1", "1.6", "0.3", "0", "0", "0", "1", "-0.2", "0.5", "thumb"},
	)

	recs := recordings(t, collect(t, &LiebersHand22{opts: DefaultOptions()}, root))
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "PID-07_SESSION-2_XR-AR_SCENE-kitchen", rec.Name)
	assert.Equal(t, []motion.Label{
		{Key: "user", Value: "7"},
		{Key: "session", Value: "2"},
		{Key: "xr", Value: "AR"},
		{Key: "scene", Value: "kitchen"},
	}, rec.Labels)

	tb := rec.Table
	assert.InDelta(t, 1500, tb.Value(motion.DeltaTimeColumn, 0), 1e-9)
	assert.InDelta(t, 1600, tb.Value(motion.DeltaTimeColumn, 1), 1e-9)
	assert.InDelta(t, -20, tb.Value("left_hand_pos_x", 0), 1e-9)
	assert.InDelta(t, -50, tb.Value("right_hand_pos_z", 1), 1e-9)
	assert.InDelta(t, -1, tb.Value("head_rot_w", 0), 1e-12)
	assert.False(t, tb.Has("Unity.Finger.label"))
}

func TestLiebersHand22_BadNames(t *testing.T) {
	root := t.TempDir()
	header := []string{"Unity.realtimeSinceStartup"}
	testutil.WriteTable(t, filepath.Join(root, "PID-x_SESSION-1_XR-VR_SCENE-a.tsv"), "\t", header, []string{"1"})
	testutil.WriteTable(t, filepath.Join(root, "PID-1_SESSION-1_XR-VR.tsv"), "\t", header, []string{"1"})
	testutil.WriteTable(t, filepath.Join(root, "notes.tsv"), "\t", header, []string{"1"})

	for _, r := range collect(t, &LiebersHand22{opts: DefaultOptions()}, root) {
		assert.ErrorIs(t, r.Err, ErrParse, r.Source)
	}
}

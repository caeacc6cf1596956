package monitoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })
	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestProgress_ReportsEveryN(t *testing.T) {
	lines := captureLogs(t)
	p := NewProgress("processing recordings", 4)
	p.Every = 2
	p.MinInterval = 0
	now := time.Unix(0, 0)
	p.now = func() time.Time { now = now.Add(time.Second); return now }

	for i := 0; i < 4; i++ {
		p.Add(1)
	}
	p.Done()

	assert.Equal(t, 4, p.Count())
	assert.Equal(t, []string{
		"processing recordings 2/4 (1s)",
		"processing recordings 4/4 (3s)",
		"processing recordings 4/4 (4s)",
	}, *lines)
}

func TestProgress_RateLimited(t *testing.T) {
	lines := captureLogs(t)
	p := NewProgress("files", 0)
	p.Every = 1
	p.MinInterval = time.Hour
	fixed := time.Unix(100, 0)
	p.now = func() time.Time { return fixed }

	p.Add(1)
	p.Add(1)
	p.Add(1)
	p.Done()

	// The first report fires because no report has happened yet.
	assert.Equal(t, []string{"files 1 (0s)", "files 3 (0s)"}, *lines)
}

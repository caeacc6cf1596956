package monitoring

import (
	"sync"
	"time"
)

// Progress logs batch progress through Logf. It reports every Every items,
// at most once per MinInterval, and always on Done.
type Progress struct {
	Label       string
	Total       int // 0 when unknown
	Every       int
	MinInterval time.Duration

	mu      sync.Mutex
	count   int
	last    time.Time
	started time.Time
	now     func() time.Time
}

// NewProgress creates a progress reporter. total may be 0 if unknown.
func NewProgress(label string, total int) *Progress {
	return &Progress{Label: label, Total: total, Every: 10, MinInterval: 5 * time.Second, now: time.Now}
}

// Add records n more processed items.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	if p.started.IsZero() {
		p.started = now
	}
	p.count += n
	if p.Every > 0 && p.count%p.Every == 0 && now.Sub(p.last) >= p.MinInterval {
		p.last = now
		p.logLocked(now)
	}
}

// Count returns the number of processed items.
func (p *Progress) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Done logs the final count.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logLocked(p.clock())
}

func (p *Progress) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

func (p *Progress) logLocked(now time.Time) {
	elapsed := time.Duration(0)
	if !p.started.IsZero() {
		elapsed = now.Sub(p.started).Round(time.Millisecond)
	}
	if p.Total > 0 {
		Logf("%s %d/%d (%s)", p.Label, p.count, p.Total, elapsed)
		return
	}
	Logf("%s %d (%s)", p.Label, p.count, elapsed)
}

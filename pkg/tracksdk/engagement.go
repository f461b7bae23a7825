package tracksdk

import (
	"math"
	"sync"
	"time"

	"lexinsights/internal/tracking"
)

// EngagementTracker accumulates scroll, click and dwell data for one
// page view. Scroll depth is monotonic: it only ever records the
// deepest point reached.
type EngagementTracker struct {
	mu         sync.Mutex
	startTime  time.Time
	maxScroll  int
	clickCount int
}

// NewEngagementTracker starts tracking a fresh page view as of now.
func NewEngagementTracker() *EngagementTracker {
	return &EngagementTracker{startTime: time.Now()}
}

// RecordScroll updates the deepest scroll position from raw viewport
// measurements. A page shorter than the viewport counts as fully read.
func (t *EngagementTracker) RecordScroll(scrollY, docHeight, viewportHeight float64) {
	scrollable := docHeight - viewportHeight

	depth := 100
	if scrollable > 0 {
		depth = int(math.Round(scrollY / scrollable * 100))
	}
	depth = tracking.ClampScrollDepth(depth)

	t.mu.Lock()
	defer t.mu.Unlock()
	if depth > t.maxScroll {
		t.maxScroll = depth
	}
}

// RecordClick counts one interaction.
func (t *EngagementTracker) RecordClick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clickCount++
}

// EngagementSnapshot is the flush payload for one finished page view.
type EngagementSnapshot struct {
	ScrollDepth int  `json:"scrollDepth"`
	TimeOnPage  int  `json:"timeOnPage"`
	ClickCount  int  `json:"clickCount"`
	IsBounce    bool `json:"isBounce"`
}

// Snapshot captures the current engagement state. The bounce flag uses
// the same rule the collector applies server-side.
func (t *EngagementTracker) Snapshot() EngagementSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := int(time.Since(t.startTime).Seconds())
	return EngagementSnapshot{
		ScrollDepth: t.maxScroll,
		TimeOnPage:  elapsed,
		ClickCount:  t.clickCount,
		IsBounce:    tracking.IsBounce(t.clickCount, elapsed),
	}
}

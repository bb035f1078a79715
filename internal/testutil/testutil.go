// Package testutil provides deterministic time and sequence sources for
// tests that assert on event ordering and timestamps.
package testutil

import (
	"fmt"
	"sync"
	"time"
)

// Epoch is the fixed starting instant used by test time sources. Every
// test that golden-files event timestamps starts here.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TimeSource hands out strictly increasing instants, advancing by a
// fixed step on every call. Safe for concurrent use.
type TimeSource struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func NewTimeSource(start time.Time, step time.Duration) *TimeSource {
	return &TimeSource{next: start.UTC(), step: step}
}

// Now returns the current instant and advances the source.
func (ts *TimeSource) Now() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := ts.next
	ts.next = ts.next.Add(ts.step)
	return t
}

// Reset rewinds the source to start so a scenario can replay from a
// known first instant.
func (ts *TimeSource) Reset(start time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.next = start.UTC()
}

// SequentialIDs returns an event ID generator producing "evt-001",
// "evt-002", ... in call order.
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

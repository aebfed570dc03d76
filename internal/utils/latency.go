package utils

import (
	"slices"
	"time"
)

// LatencyTracker keeps the most recent request durations of a run and
// answers percentile queries over them. It is not safe for concurrent use.
type LatencyTracker struct {
	samples []time.Duration
	next    int
	maxSize int
}

// NewLatencyTracker creates a tracker storing up to maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &LatencyTracker{maxSize: maxSize}
}

// Observe records a new duration, overwriting the oldest once full.
func (l *LatencyTracker) Observe(d time.Duration) {
	if len(l.samples) < l.maxSize {
		l.samples = append(l.samples, d)
		return
	}
	l.samples[l.next] = d
	l.next = (l.next + 1) % l.maxSize
}

// Percentile returns the nearest-rank duration for p in [0, 100]. Returns
// zero when nothing was observed.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	if len(l.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(l.samples)
	slices.Sort(sorted)

	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[int((p/100.0)*float64(len(sorted)-1))]
}

// Mean returns the average of the retained samples.
func (l *LatencyTracker) Mean() time.Duration {
	if len(l.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range l.samples {
		total += s
	}
	return total / time.Duration(len(l.samples))
}

// Count returns number of samples retained.
func (l *LatencyTracker) Count() int {
	return len(l.samples)
}

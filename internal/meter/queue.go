package meter

import (
	"math"
	"time"
)

// AdjustmentQueue validates adjustment magnitudes and holds accepted deltas
// until the next flush. It is not safe for concurrent use.
type AdjustmentQueue struct {
	maxAdjustment float64
	minInterval   time.Duration
	pending       []float64
	lastFlush     time.Time
}

// NewAdjustmentQueue creates an empty queue whose flush window starts at now.
func NewAdjustmentQueue(maxAdjustment float64, minInterval time.Duration, now time.Time) *AdjustmentQueue {
	return &AdjustmentQueue{
		maxAdjustment: maxAdjustment,
		minInterval:   minInterval,
		lastFlush:     now,
	}
}

// Validate rejects deltas whose magnitude exceeds the configured maximum.
// Non-finite deltas are rejected the same way.
func (q *AdjustmentQueue) Validate(delta float64) error {
	if !(math.Abs(delta) <= q.maxAdjustment) {
		return &ValidationError{Kind: AdjustmentTooLarge, Delta: delta, Max: q.maxAdjustment}
	}
	return nil
}

// Enqueue appends an accepted delta.
func (q *AdjustmentQueue) Enqueue(delta float64) {
	q.pending = append(q.pending, delta)
}

// Len reports queued deltas awaiting a flush.
func (q *AdjustmentQueue) Len() int {
	return len(q.pending)
}

// Drain sums and clears the queue when it is non-empty and at least the
// minimum update interval has passed since the previous drain.
func (q *AdjustmentQueue) Drain(now time.Time) (sum float64, batch int, ok bool) {
	if len(q.pending) == 0 {
		return 0, 0, false
	}
	if now.Sub(q.lastFlush) < q.minInterval {
		return 0, 0, false
	}
	for _, d := range q.pending {
		sum += d
	}
	batch = len(q.pending)
	q.pending = q.pending[:0]
	q.lastFlush = now
	return sum, batch, true
}

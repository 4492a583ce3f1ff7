package meter

import (
	"math/rand/v2"
	"time"
)

// Limits bound the meter value and the size and cadence of adjustments.
type Limits struct {
	Min               float64
	Max               float64
	MaxAdjustment     float64
	MinUpdateInterval time.Duration
}

// Midpoint is the value used when nothing valid has been persisted.
func (l Limits) Midpoint() float64 {
	return (l.Min + l.Max) / 2
}

// Options configures a Manager.
type Options struct {
	Limits Limits

	// FlushInterval is the cadence of the queue flush loop.
	FlushInterval time.Duration
	// FluctuationInterval is the cadence of synthetic auto adjustments. Zero disables them.
	FluctuationInterval time.Duration
	// ManualHold is how long Nudge keeps the adjusting flag raised.
	ManualHold time.Duration

	OriginID        string
	HistoryCapacity int

	// Clock and Random are injectable for tests.
	Clock  func() time.Time
	Random func() float64
}

// DefaultOptions mirrors the dashboard's stock limits.
func DefaultOptions() Options {
	return Options{
		Limits: Limits{
			Min:               0,
			Max:               100,
			MaxAdjustment:     20,
			MinUpdateInterval: 500 * time.Millisecond,
		},
		FlushInterval:       500 * time.Millisecond,
		FluctuationInterval: 5 * time.Second,
		ManualHold:          500 * time.Millisecond,
		OriginID:            "user-1",
		HistoryCapacity:     DefaultHistoryCapacity,
	}
}

func (o *Options) normalise() {
	def := DefaultOptions()
	if o.Limits.Max <= o.Limits.Min {
		o.Limits.Min, o.Limits.Max = def.Limits.Min, def.Limits.Max
	}
	if o.Limits.MaxAdjustment <= 0 {
		o.Limits.MaxAdjustment = def.Limits.MaxAdjustment
	}
	if o.Limits.MinUpdateInterval < 0 {
		o.Limits.MinUpdateInterval = 0
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = def.FlushInterval
	}
	if o.FluctuationInterval < 0 {
		o.FluctuationInterval = 0
	}
	if o.ManualHold <= 0 {
		o.ManualHold = def.ManualHold
	}
	if o.OriginID == "" {
		o.OriginID = def.OriginID
	}
	if o.HistoryCapacity <= 0 {
		o.HistoryCapacity = DefaultHistoryCapacity
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Random == nil {
		o.Random = rand.Float64
	}
}

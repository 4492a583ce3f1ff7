package meter

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/miradorstack/meterd/internal/store"
)

// ValueKey is the persistence key for the committed meter value.
const ValueKey = "meter-value"

const persistTimeout = 2 * time.Second

// BoundedValue owns the committed meter value and keeps it inside [Min, Max].
// It is not safe for concurrent use; Manager serialises access.
type BoundedValue struct {
	limits   Limits
	current  float64
	provider store.Provider
	logger   *slog.Logger
}

// NewBoundedValue seeds the value from the provider, falling back to the midpoint
// when the stored value is missing, unreadable, or not a finite number.
func NewBoundedValue(ctx context.Context, provider store.Provider, limits Limits, logger *slog.Logger) *BoundedValue {
	if logger == nil {
		logger = slog.Default()
	}
	b := &BoundedValue{
		limits:   limits,
		current:  limits.Midpoint(),
		provider: provider,
		logger:   logger,
	}
	if provider == nil {
		return b
	}

	raw, err := provider.Get(ctx, ValueKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return b
	case err != nil:
		logger.Warn("stored meter value unreadable, using default", slog.Any("error", err))
		return b
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		logger.Debug("stored meter value corrupt, using default", slog.String("raw", raw))
		return b
	}
	b.current = clamp(parsed, limits.Min, limits.Max)
	return b
}

// Value returns the committed value.
func (b *BoundedValue) Value() float64 {
	return b.current
}

// Commit applies delta clamped to range and persists the result when it changed.
func (b *BoundedValue) Commit(delta float64) float64 {
	next := clamp(b.current+delta, b.limits.Min, b.limits.Max)
	if next == b.current {
		return next
	}
	b.current = next
	b.persist()
	return next
}

func (b *BoundedValue) persist() {
	if b.provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := b.provider.Set(ctx, ValueKey, formatValue(b.current)); err != nil {
		b.logger.Warn("persist meter value failed", slog.Float64("value", b.current), slog.Any("error", err))
	}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

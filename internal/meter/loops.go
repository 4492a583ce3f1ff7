package meter

import (
	"context"
	"log/slog"
	"time"

	"github.com/miradorstack/meterd/internal/models"
)

func (m *Manager) runFlush(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.flush(m.opts.Clock())
		}
	}
}

// runFluctuation submits small random auto adjustments while nobody is adjusting.
// Lowering the adjusting flag restarts the cadence from zero.
func (m *Manager) runFluctuation(ctx context.Context) {
	defer m.wg.Done()

	interval := m.opts.FluctuationInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.resume:
			ticker.Reset(interval)
		case <-ticker.C:
			m.fluctuate()
		}
	}
}

func (m *Manager) fluctuate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.adjusting {
		return false
	}
	delta := (m.opts.Random() - 0.5) * 2
	if err := m.submitLocked(models.AdjustmentRequest{Delta: delta, Type: models.AdjustmentAuto}); err != nil {
		m.logger.Warn("auto fluctuation rejected", slog.Float64("delta", delta), slog.Any("error", err))
		return false
	}
	return true
}

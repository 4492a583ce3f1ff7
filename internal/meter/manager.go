package meter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/meterd/internal/metrics"
	"github.com/miradorstack/meterd/internal/models"
	"github.com/miradorstack/meterd/internal/store"
)

// Manager owns the meter state. Every mutation (requests, flushes, auto ticks,
// adjusting toggles) goes through mu, so the two background loops never
// interleave with callers.
type Manager struct {
	logger *slog.Logger
	opts   Options

	mu        sync.Mutex
	value     *BoundedValue
	queue     *AdjustmentQueue
	history   *History
	lastErr   error
	adjusting bool
	holdTimer *time.Timer
	closed    bool

	resume chan struct{}

	subsMu sync.Mutex
	subs   map[int]chan struct{}
	nextID int

	runMu   sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager builds a Manager seeded from provider. Background loops do not run until Start.
func NewManager(ctx context.Context, logger *slog.Logger, provider store.Provider, opts Options) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	opts.normalise()

	m := &Manager{
		logger:  logger,
		opts:    opts,
		value:   NewBoundedValue(ctx, provider, opts.Limits, logger),
		queue:   NewAdjustmentQueue(opts.Limits.MaxAdjustment, opts.Limits.MinUpdateInterval, opts.Clock()),
		history: NewHistory(opts.HistoryCapacity),
		resume:  make(chan struct{}, 1),
		subs:    make(map[int]chan struct{}),
	}
	metrics.SetMeterValue(m.value.Value())
	metrics.SetHistoryLength(0)
	logger.Info("meter initialised", slog.Float64("value", m.value.Value()))
	return m
}

// Start launches the flush and auto-fluctuation loops. They stop when ctx is
// cancelled or Close is called.
func (m *Manager) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return errors.New("meter manager closed")
	}
	if m.started {
		return errors.New("meter manager already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.started = true

	m.wg.Add(2)
	go m.runFlush(runCtx)
	go m.runFluctuation(runCtx)
	return nil
}

// Close stops both loops and any pending adjusting-release timer, then waits
// for the loops to exit. Queued deltas that were not flushed are dropped.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	if m.holdTimer != nil {
		m.holdTimer.Stop()
		m.holdTimer = nil
	}
	m.mu.Unlock()

	m.runMu.Lock()
	cancel := m.cancel
	m.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	return nil
}

// RequestAdjustment queues delta tagged with typ on behalf of the configured origin.
func (m *Manager) RequestAdjustment(delta float64, typ models.AdjustmentType) error {
	return m.Submit(models.AdjustmentRequest{Delta: delta, Type: typ})
}

// Submit validates req, records its history event and queues its delta for the
// next flush. A rejected request only updates the error slot.
func (m *Manager) Submit(req models.AdjustmentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitLocked(req)
}

// Nudge is the interactive adjust flow: it raises the adjusting flag, submits
// a manual adjustment and lowers the flag again after ManualHold.
func (m *Manager) Nudge(delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nudgeLocked(delta)
}

// Reset nudges the value back to the midpoint. It is rate limited like any other
// adjustment, so a reset from further away than MaxAdjustment is rejected.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nudgeLocked(m.opts.Limits.Midpoint() - m.value.Value())
}

// SetAdjusting raises or lowers the flag that suspends auto-fluctuation.
func (m *Manager) SetAdjusting(adjusting bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setAdjustingLocked(adjusting)
}

// Adjusting reports the adjusting flag.
func (m *Manager) Adjusting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjusting
}

// Value returns the committed meter value.
func (m *Manager) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value.Value()
}

// History returns retained events, oldest first.
func (m *Manager) History() []models.HistoryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Events()
}

// Analytics computes statistics for the current history and value.
func (m *Manager) Analytics() models.Analytics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ComputeAnalytics(m.history.Events(), m.value.Value())
}

// LastError returns the message of the most recent rejection, or "" once a later request succeeded.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return errString(m.lastErr)
}

// Snapshot returns a consistent view of the whole state.
func (m *Manager) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.history.Events()
	current := m.value.Value()
	return models.Snapshot{
		Value:     current,
		History:   events,
		Analytics: ComputeAnalytics(events, current),
		Error:     errString(m.lastErr),
		Adjusting: m.adjusting,
		Pending:   m.queue.Len(),
	}
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals coalesce: a slow reader sees at most one pending signal.
func (m *Manager) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	m.subsMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			m.subsMu.Unlock()
		})
	}
}

func (m *Manager) submitLocked(req models.AdjustmentRequest) error {
	typ, err := models.ParseAdjustmentType(string(req.Type))
	if err != nil {
		typ = models.AdjustmentManual
	}
	origin := req.OriginID
	if origin == "" {
		origin = m.opts.OriginID
	}

	if err := m.queue.Validate(req.Delta); err != nil {
		m.lastErr = err
		metrics.ObserveAdjustment(string(typ), metrics.OutcomeRejected)
		m.logger.Debug("adjustment rejected", slog.Float64("delta", req.Delta), slog.String("type", string(typ)))
		m.notify()
		return err
	}

	m.lastErr = nil
	m.queue.Enqueue(req.Delta)
	m.history.Record(models.HistoryEvent{
		ID:        uuid.NewString(),
		Value:     m.value.Value() + req.Delta,
		Timestamp: m.opts.Clock(),
		OriginID:  origin,
		Type:      typ,
		Delta:     req.Delta,
	})
	metrics.ObserveAdjustment(string(typ), metrics.OutcomeAccepted)
	metrics.SetHistoryLength(m.history.Len())
	m.notify()
	return nil
}

func (m *Manager) nudgeLocked(delta float64) error {
	m.setAdjustingLocked(true)
	err := m.submitLocked(models.AdjustmentRequest{Delta: delta, Type: models.AdjustmentManual})

	if m.holdTimer != nil {
		m.holdTimer.Stop()
		m.holdTimer = nil
	}
	if !m.closed {
		m.holdTimer = time.AfterFunc(m.opts.ManualHold, func() {
			m.SetAdjusting(false)
		})
	}
	return err
}

func (m *Manager) setAdjustingLocked(adjusting bool) {
	if m.adjusting == adjusting {
		return
	}
	m.adjusting = adjusting
	if !adjusting {
		select {
		case m.resume <- struct{}{}:
		default:
		}
	}
	m.notify()
}

// flush commits the queued net delta if the flush window allows it.
func (m *Manager) flush(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum, batch, ok := m.queue.Drain(now)
	if !ok {
		return false
	}
	before := m.value.Value()
	after := m.value.Commit(sum)

	metrics.ObserveFlush(batch)
	metrics.SetMeterValue(after)
	m.logger.Debug("flushed adjustments",
		slog.Int("batch", batch),
		slog.Float64("delta", sum),
		slog.Float64("from", before),
		slog.Float64("to", after),
	)
	m.notify()
	return true
}

func (m *Manager) notify() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package meter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/miradorstack/meterd/internal/models"
	"github.com/miradorstack/meterd/internal/store"
)

func TestRequestAdjustmentRecordsIntentBeforeFlush(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)

	if err := m.RequestAdjustment(5, models.AdjustmentManual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Value() != 50 {
		t.Fatalf("value must not change before a flush, got %v", m.Value())
	}
	history := m.History()
	if len(history) != 1 {
		t.Fatalf("expected one history event, got %d", len(history))
	}
	event := history[0]
	if event.Value != 55 || event.Delta != 5 || event.Type != models.AdjustmentManual {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.OriginID != "user-1" || event.ID == "" {
		t.Fatalf("expected default origin and an id, got %+v", event)
	}
	if !event.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected acceptance timestamp %v, got %v", clock.Now(), event.Timestamp)
	}
}

func TestBatchedFlushCommitsNetDeltaOnce(t *testing.T) {
	clock := newFakeClock()
	provider := newCountingStore()
	m := newTestManager(t, provider, clock)

	for _, d := range []float64{5, -2, 1} {
		if err := m.RequestAdjustment(d, models.AdjustmentManual); err != nil {
			t.Fatalf("request %v: %v", d, err)
		}
	}
	if got := m.Snapshot().Pending; got != 3 {
		t.Fatalf("expected 3 pending deltas, got %d", got)
	}

	if !m.flush(clock.Advance(500 * time.Millisecond)) {
		t.Fatalf("expected flush to commit")
	}
	if m.Value() != 54 {
		t.Fatalf("expected net +4 commit, got %v", m.Value())
	}
	if provider.Sets() != 1 {
		t.Fatalf("expected one persistence write, got %d", provider.Sets())
	}
	if m.Snapshot().Pending != 0 {
		t.Fatalf("expected empty queue after flush")
	}
}

func TestFlushWaitsForMinimumInterval(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)

	_ = m.RequestAdjustment(3, models.AdjustmentManual)
	if m.flush(clock.Advance(100 * time.Millisecond)) {
		t.Fatalf("flush inside the minimum interval must be skipped")
	}
	if m.Value() != 50 {
		t.Fatalf("value changed early: %v", m.Value())
	}
	if !m.flush(clock.Advance(400 * time.Millisecond)) {
		t.Fatalf("expected flush once the interval elapsed")
	}
}

func TestRejectedAdjustmentOnlySetsErrorSlot(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)
	_ = m.RequestAdjustment(2, models.AdjustmentManual)

	err := m.RequestAdjustment(25, models.AdjustmentManual)
	if !errors.Is(err, ErrAdjustmentTooLarge) {
		t.Fatalf("expected ErrAdjustmentTooLarge, got %v", err)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Max != 20 || vErr.Kind != AdjustmentTooLarge {
		t.Fatalf("expected ValidationError carrying max 20, got %#v", err)
	}

	snap := m.Snapshot()
	if snap.Error != "Maximum adjustment is ±20" {
		t.Fatalf("unexpected error slot %q", snap.Error)
	}
	if len(snap.History) != 1 || snap.Pending != 1 {
		t.Fatalf("rejection must not touch history or queue: %+v", snap)
	}

	m.flush(clock.Advance(time.Second))
	if m.Value() != 52 {
		t.Fatalf("rejected delta must never be committed, got %v", m.Value())
	}

	if err := m.RequestAdjustment(-1, models.AdjustmentSystem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.LastError() != "" {
		t.Fatalf("expected error slot cleared by an accepted request, got %q", m.LastError())
	}
}

func TestHistoryCappedAtFifty(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)

	for i := 0; i < 60; i++ {
		clock.Advance(time.Second)
		_ = m.RequestAdjustment(float64(i%5)/10, models.AdjustmentAuto)
	}

	history := m.History()
	if len(history) != 50 {
		t.Fatalf("expected 50 retained events, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Fatalf("history out of order at %d", i)
		}
	}
	if !history[0].Timestamp.Equal(time.Unix(1_700_000_000, 0).Add(11 * time.Second)) {
		t.Fatalf("expected the ten oldest events evicted, first is %v", history[0].Timestamp)
	}
}

func TestCommittedValueStaysInRange(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)

	for i := 0; i < 10; i++ {
		_ = m.RequestAdjustment(20, models.AdjustmentManual)
		_ = m.RequestAdjustment(20, models.AdjustmentManual)
		m.flush(clock.Advance(time.Second))
		if v := m.Value(); v < 0 || v > 100 {
			t.Fatalf("value escaped range: %v", v)
		}
	}
	if m.Value() != 100 {
		t.Fatalf("expected value pinned at max, got %v", m.Value())
	}

	for i := 0; i < 10; i++ {
		_ = m.RequestAdjustment(-20, models.AdjustmentManual)
		m.flush(clock.Advance(time.Second))
	}
	if m.Value() != 0 {
		t.Fatalf("expected value pinned at min, got %v", m.Value())
	}
}

func TestValueRoundTripsThroughStore(t *testing.T) {
	clock := newFakeClock()
	provider := store.NewMemoryProvider()
	m := newTestManager(t, provider, clock)

	_ = m.RequestAdjustment(12.75, models.AdjustmentManual)
	m.flush(clock.Advance(time.Second))
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded := newTestManager(t, provider, clock)
	if reloaded.Value() != 62.75 {
		t.Fatalf("expected 62.75 after reload, got %v", reloaded.Value())
	}
}

func TestSubmitDefaultsAndOrigin(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)

	_ = m.Submit(models.AdjustmentRequest{Delta: 1})
	_ = m.Submit(models.AdjustmentRequest{Delta: 1, Type: "bogus", OriginID: "did:ethr:0x1234"})

	history := m.History()
	if history[0].Type != models.AdjustmentManual {
		t.Fatalf("empty type should default to manual, got %s", history[0].Type)
	}
	if history[1].Type != models.AdjustmentManual || history[1].OriginID != "did:ethr:0x1234" {
		t.Fatalf("unexpected event %+v", history[1])
	}
	if history[1].Value != 51 {
		t.Fatalf("intent uses the committed value, not pending deltas; got %v", history[1].Value)
	}
}

func TestResetIsRateLimited(t *testing.T) {
	clock := newFakeClock()
	provider := store.NewMemoryProvider()
	_ = provider.Set(context.Background(), ValueKey, "65")
	m := newTestManager(t, provider, clock)

	if err := m.Reset(); err != nil {
		t.Fatalf("reset within range: %v", err)
	}
	m.flush(clock.Advance(time.Second))
	if m.Value() != 50 {
		t.Fatalf("expected reset to midpoint, got %v", m.Value())
	}

	_ = provider.Set(context.Background(), ValueKey, "95")
	far := newTestManager(t, provider, clock)
	if err := far.Reset(); !errors.Is(err, ErrAdjustmentTooLarge) {
		t.Fatalf("expected reset from 95 to be rejected, got %v", err)
	}
}

func TestFluctuationSuspendedWhileAdjusting(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)
	m.opts.Random = func() float64 { return 0.75 }

	m.SetAdjusting(true)
	if m.fluctuate() {
		t.Fatalf("fluctuation must not run while adjusting")
	}
	m.SetAdjusting(false)
	if !m.fluctuate() {
		t.Fatalf("expected fluctuation after adjusting ends")
	}

	history := m.History()
	if len(history) != 1 || history[0].Type != models.AdjustmentAuto || history[0].Delta != 0.5 {
		t.Fatalf("unexpected auto event %+v", history)
	}
}

func TestNudgeHoldsAdjustingFlag(t *testing.T) {
	opts := DefaultOptions()
	opts.FluctuationInterval = 0
	opts.ManualHold = 20 * time.Millisecond
	m := NewManager(context.Background(), discardLogger(), store.NewMemoryProvider(), opts)
	defer m.Close()

	if err := m.Nudge(5); err != nil {
		t.Fatalf("nudge: %v", err)
	}
	if !m.Adjusting() {
		t.Fatalf("expected adjusting flag raised")
	}
	waitFor(t, time.Second, func() bool { return !m.Adjusting() })
}

func TestStartRunsLoopsUntilClose(t *testing.T) {
	opts := DefaultOptions()
	opts.FlushInterval = 5 * time.Millisecond
	opts.Limits.MinUpdateInterval = 0
	opts.FluctuationInterval = 5 * time.Millisecond
	opts.Random = func() float64 { return 1 }
	m := NewManager(context.Background(), discardLogger(), store.NewMemoryProvider(), opts)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}

	waitFor(t, 2*time.Second, func() bool { return m.Value() > 50 })

	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	settled := m.Value()
	events := len(m.History())
	time.Sleep(30 * time.Millisecond)
	if m.Value() != settled || len(m.History()) != events {
		t.Fatalf("loops kept running after Close")
	}
	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected start after close to fail")
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	opts := DefaultOptions()
	opts.FlushInterval = time.Millisecond
	m := NewManager(context.Background(), discardLogger(), store.NewMemoryProvider(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loops did not stop after context cancellation")
	}
}

func TestSubscribeSignalsChanges(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, store.NewMemoryProvider(), clock)

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	_ = m.RequestAdjustment(1, models.AdjustmentManual)
	_ = m.RequestAdjustment(1, models.AdjustmentManual)
	select {
	case <-ch:
	default:
		t.Fatalf("expected a change signal")
	}
	select {
	case <-ch:
		t.Fatalf("signals should coalesce")
	default:
	}

	unsubscribe()
	_ = m.RequestAdjustment(1, models.AdjustmentManual)
	select {
	case <-ch:
		t.Fatalf("no signal expected after unsubscribe")
	default:
	}
}

package meter

import (
	"testing"

	"github.com/miradorstack/meterd/internal/models"
)

func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := NewHistory(DefaultHistoryCapacity)
	for i := 0; i < 51; i++ {
		h.Record(models.HistoryEvent{Delta: float64(i)})
	}

	if h.Len() != 50 {
		t.Fatalf("expected 50 events, got %d", h.Len())
	}
	events := h.Events()
	if events[0].Delta != 1 || events[49].Delta != 50 {
		t.Fatalf("unexpected window: first=%v last=%v", events[0].Delta, events[49].Delta)
	}
}

func TestHistoryEventsIsACopy(t *testing.T) {
	h := NewHistory(3)
	h.Record(models.HistoryEvent{Value: 1})

	events := h.Events()
	events[0].Value = 99
	if h.Events()[0].Value != 1 {
		t.Fatalf("mutating the returned slice must not change history")
	}
}

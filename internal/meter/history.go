package meter

import (
	"slices"

	"github.com/miradorstack/meterd/internal/models"
)

// DefaultHistoryCapacity is the number of events retained before FIFO eviction.
const DefaultHistoryCapacity = 50

// History is a capped, append-only log of accepted adjustments in acceptance order.
type History struct {
	capacity int
	events   []models.HistoryEvent
}

// NewHistory creates an empty history holding at most capacity events.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity, events: make([]models.HistoryEvent, 0, capacity)}
}

// Record appends event, evicting the oldest entries once over capacity.
func (h *History) Record(event models.HistoryEvent) {
	h.events = append(h.events, event)
	if over := len(h.events) - h.capacity; over > 0 {
		h.events = slices.Delete(h.events, 0, over)
	}
}

// Len returns the number of retained events.
func (h *History) Len() int {
	return len(h.events)
}

// Events returns a copy of retained events, oldest first.
func (h *History) Events() []models.HistoryEvent {
	return slices.Clone(h.events)
}

package livechan

import (
	"sort"

	"OpsRecon/internal/domain/models"
)

// Buffer holds the live feed: bounded, deduplicated by id, always sorted
// newest-first. Not safe for concurrent use; the Manager serializes access.
type Buffer struct {
	capacity int
	events   []models.TelemetryEvent
	ids      map[string]struct{}
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		capacity: capacity,
		ids:      make(map[string]struct{}),
	}
}

// Insert adds one event at its sorted position. Duplicate ids are ignored.
// Returns true if the event was added.
func (b *Buffer) Insert(ev models.TelemetryEvent) bool {
	if _, dup := b.ids[ev.ID]; dup {
		return false
	}
	// first index whose timestamp is not after ev keeps newest-first order
	i := sort.Search(len(b.events), func(i int) bool {
		return !b.events[i].Timestamp.After(ev.Timestamp)
	})
	b.events = append(b.events, models.TelemetryEvent{})
	copy(b.events[i+1:], b.events[i:])
	b.events[i] = ev
	b.ids[ev.ID] = struct{}{}
	b.truncate()
	return true
}

// Merge adds a batch of events, keeping sort order and capacity.
func (b *Buffer) Merge(events []models.TelemetryEvent) int {
	added := 0
	for _, ev := range events {
		if b.Insert(ev) {
			added++
		}
	}
	return added
}

// Snapshot returns a copy of the buffer contents, newest first.
func (b *Buffer) Snapshot() []models.TelemetryEvent {
	out := make([]models.TelemetryEvent, len(b.events))
	copy(out, b.events)
	return out
}

// Len returns the current event count.
func (b *Buffer) Len() int { return len(b.events) }

func (b *Buffer) truncate() {
	for len(b.events) > b.capacity {
		oldest := b.events[len(b.events)-1]
		delete(b.ids, oldest.ID)
		b.events = b.events[:len(b.events)-1]
	}
}

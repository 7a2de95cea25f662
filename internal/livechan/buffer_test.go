package livechan

import (
	"strconv"
	"testing"
	"time"

	"OpsRecon/internal/domain/models"
)

func eventAt(id string, ts time.Time) models.TelemetryEvent {
	return models.TelemetryEvent{ID: id, Timestamp: ts, Source: models.SourceAlerts}
}

func TestBufferNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	b := NewBuffer(10)

	// out-of-order arrival
	b.Insert(eventAt("b", base.Add(2*time.Minute)))
	b.Insert(eventAt("a", base.Add(1*time.Minute)))
	b.Insert(eventAt("c", base.Add(3*time.Minute)))

	snap := b.Snapshot()
	want := []string{"c", "b", "a"}
	for i, id := range want {
		if snap[i].ID != id {
			t.Errorf("snap[%d] = %s, want %s", i, snap[i].ID, id)
		}
	}
}

func TestBufferDedup(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	b := NewBuffer(10)

	if !b.Insert(eventAt("a", base)) {
		t.Fatal("first insert rejected")
	}
	if b.Insert(eventAt("a", base.Add(time.Minute))) {
		t.Error("duplicate id accepted")
	}
	if b.Len() != 1 {
		t.Errorf("Len = %d, want 1", b.Len())
	}
}

func TestBufferCapacityEvictsOldest(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	b := NewBuffer(3)

	for i := 0; i < 5; i++ {
		b.Insert(eventAt(strconv.Itoa(i), base.Add(time.Duration(i)*time.Minute)))
	}
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	snap := b.Snapshot()
	if snap[0].ID != "4" || snap[2].ID != "2" {
		t.Errorf("kept %s..%s, want newest 3 (4..2)", snap[0].ID, snap[2].ID)
	}

	// an evicted id may be reinserted later
	if !b.Insert(eventAt("3", base.Add(10*time.Minute))) {
		t.Error("evicted id should be insertable again")
	}
}

func TestBufferMerge(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	b := NewBuffer(10)
	b.Insert(eventAt("a", base))

	added := b.Merge([]models.TelemetryEvent{
		eventAt("a", base),
		eventAt("b", base.Add(time.Minute)),
		eventAt("c", base.Add(2*time.Minute)),
	})
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
	if b.Len() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}
}

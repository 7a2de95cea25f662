package aggregator

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"OpsRecon/internal/adapter"
	"OpsRecon/internal/domain/models"
	drepo "OpsRecon/internal/domain/repository"
	xlogger "OpsRecon/pkg/logger"
)

// DefaultCapacity caps the unified feed.
const DefaultCapacity = 50

// Aggregator merges a fixed ordered set of event sources into one unified,
// severity- and read-state-aware feed. Each refresh is poll-and-replace: the
// previous feed is discarded wholesale, so re-running over unchanged upstream
// data is idempotent.
type Aggregator struct {
	sources  []drepo.EventSource
	writers  map[models.SourceKind]drepo.StateWriter
	bus      drepo.EventBus
	capacity int
	log      *xlogger.Logger
	metrics  drepo.Metrics

	mu        sync.RWMutex
	feed      []models.TelemetryEvent
	published map[string]struct{}
}

type Option func(*Aggregator)

// WithCapacity overrides the feed capacity.
func WithCapacity(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.capacity = n
		}
	}
}

// WithStateWriter registers a write-back target for a source that supports
// server-side read/acknowledge state.
func WithStateWriter(kind models.SourceKind, w drepo.StateWriter) Option {
	return func(a *Aggregator) { a.writers[kind] = w }
}

// WithEventBus publishes newly observed events to the ops event bus after
// each refresh, best-effort.
func WithEventBus(bus drepo.EventBus) Option {
	return func(a *Aggregator) { a.bus = bus }
}

// New creates an Aggregator over the given sources. Source order is fixed
// and ties in the merged sort are broken by it.
func New(sources []drepo.EventSource, log *xlogger.Logger, metrics drepo.Metrics, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:   sources,
		writers:   make(map[models.SourceKind]drepo.StateWriter),
		capacity:  DefaultCapacity,
		log:       log,
		metrics:   metrics,
		published: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh invokes every source concurrently, merges the results and replaces
// the feed. A failing source contributes nothing and never fails the cycle.
func (a *Aggregator) Refresh(ctx context.Context) []models.TelemetryEvent {
	start := time.Now()
	perSource := make([][]models.TelemetryEvent, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src drepo.EventSource) {
			defer wg.Done()
			events, err := src.Fetch(ctx)
			if err != nil {
				a.metrics.RecordSourceFailure(string(src.Kind()))
				a.log.Warn("source skipped", xlogger.String("source", string(src.Kind())), xlogger.Error(err))
				return
			}
			a.metrics.RecordIngested(string(src.Kind()), len(events))
			perSource[i] = events
		}(i, src)
	}
	wg.Wait()

	merged := make([]models.TelemetryEvent, 0, a.capacity)
	for _, events := range perSource {
		merged = append(merged, events...)
	}
	// stable sort keeps fixed source order as tie-break for equal timestamps
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	merged = dedup(merged)
	if len(merged) > a.capacity {
		merged = merged[:a.capacity]
	}

	a.mu.Lock()
	a.feed = merged
	a.mu.Unlock()

	a.metrics.RecordFeedSize(len(merged))
	a.metrics.RecordLatency("aggregate", time.Since(start).Seconds())

	a.publishNew(ctx, merged)
	return a.Feed()
}

// Feed returns the current unified feed, newest first.
func (a *Aggregator) Feed() []models.TelemetryEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]models.TelemetryEvent, len(a.feed))
	copy(out, a.feed)
	return out
}

// MarkRead flips one event's read flag locally and issues a best-effort
// write-back. Local state is authoritative; a failed write-back is logged
// and never rolled back.
func (a *Aggregator) MarkRead(ctx context.Context, id string) bool {
	kind, ok := a.mutate(id, func(ev *models.TelemetryEvent) { ev.Read = true })
	if !ok {
		return false
	}
	if w, has := a.writers[kind]; has {
		if err := w.MarkRead(ctx, id); err != nil {
			a.metrics.RecordWritebackFailure("mark_read")
			a.log.Warn("mark-read write-back failed", xlogger.String("id", id), xlogger.Error(err))
		}
	}
	return true
}

// MarkAllRead flips every event's read flag and issues best-effort
// write-backs to each registered writer.
func (a *Aggregator) MarkAllRead(ctx context.Context) {
	a.mu.Lock()
	for i := range a.feed {
		a.feed[i].Read = true
	}
	a.mu.Unlock()

	for kind, w := range a.writers {
		if err := w.MarkAllRead(ctx); err != nil {
			a.metrics.RecordWritebackFailure("mark_all_read")
			a.log.Warn("mark-all-read write-back failed", xlogger.String("source", string(kind)), xlogger.Error(err))
		}
	}
}

// Acknowledge sets the acknowledged flag on an anomaly-kind event and issues
// a best-effort write-back. Events of other kinds are left untouched.
func (a *Aggregator) Acknowledge(ctx context.Context, id string) bool {
	found := false
	a.mu.Lock()
	for i := range a.feed {
		if a.feed[i].ID == id && a.feed[i].Source == models.SourceAnomalies {
			a.feed[i].Acknowledged = true
			found = true
			break
		}
	}
	a.mu.Unlock()
	if !found {
		return false
	}
	if w, has := a.writers[models.SourceAnomalies]; has {
		if err := w.Acknowledge(ctx, id); err != nil {
			a.metrics.RecordWritebackFailure("acknowledge")
			a.log.Warn("acknowledge write-back failed", xlogger.String("id", id), xlogger.Error(err))
		}
	}
	return true
}

func (a *Aggregator) mutate(id string, fn func(*models.TelemetryEvent)) (models.SourceKind, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.feed {
		if a.feed[i].ID == id {
			fn(&a.feed[i])
			return a.feed[i].Source, true
		}
	}
	return "", false
}

func (a *Aggregator) publishNew(ctx context.Context, feed []models.TelemetryEvent) {
	if a.bus == nil {
		return
	}
	var fresh []models.TelemetryEvent
	a.mu.Lock()
	// retain only ids still in the feed so the set stays bounded by the
	// feed capacity
	next := make(map[string]struct{}, len(feed))
	for _, ev := range feed {
		if _, seen := a.published[ev.ID]; !seen {
			fresh = append(fresh, ev)
		}
		next[ev.ID] = struct{}{}
	}
	a.published = next
	a.mu.Unlock()
	if len(fresh) == 0 {
		return
	}
	if err := a.bus.PublishEvents(ctx, fresh); err != nil {
		a.log.Warn("event bus publish failed", xlogger.Int("count", len(fresh)), xlogger.Error(err))
	}
}

func dedup(events []models.TelemetryEvent) []models.TelemetryEvent {
	seen := make(map[string]struct{}, len(events))
	out := events[:0]
	for _, ev := range events {
		if _, dup := seen[ev.ID]; dup {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
	}
	return out
}

// ComplianceSeverity promotes compliance entries whose status or severity
// text mentions a failure to error severity.
func ComplianceSeverity(raw map[string]any) models.Severity {
	text := strings.ToLower(firstString(raw, "status", "severity", "result"))
	for _, marker := range []string{"fail", "error", "violation"} {
		if strings.Contains(text, marker) {
			return models.SeverityError
		}
	}
	return models.ParseSeverity(text)
}

// AuditSeverity promotes audit entries whose success flag is false to
// warning; successful entries stay info.
func AuditSeverity(raw map[string]any) models.Severity {
	if v, ok := raw["success"]; ok {
		if b, isBool := v.(bool); isBool && !b {
			return models.SeverityWarning
		}
	}
	return models.SeverityInfo
}

// rule funcs double as adapter.SeverityRule
var (
	_ adapter.SeverityRule = ComplianceSeverity
	_ adapter.SeverityRule = AuditSeverity
)

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, isStr := v.(string); isStr {
				return s
			}
		}
	}
	return ""
}

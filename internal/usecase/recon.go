package usecase

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"OpsRecon/internal/aggregator"
	"OpsRecon/internal/domain/models"
	drepo "OpsRecon/internal/domain/repository"
	"OpsRecon/internal/fusion"
	"OpsRecon/internal/history"
	"OpsRecon/internal/livechan"
	icache "OpsRecon/internal/service/cache"
	xlogger "OpsRecon/pkg/logger"
	"OpsRecon/pkg/util"
)

// ReconService ties the reconciliation pipelines together for the HTTP
// surface and the refresh scheduler. It owns the liveness flag: refresh
// results arriving after Shutdown are discarded, not applied.
type ReconService struct {
	agg     *aggregator.Aggregator
	eng     *fusion.Engine
	live    *livechan.Manager
	regimes *history.Ring
	archive drepo.Archive // optional
	cache   icache.BytesCache
	log     *xlogger.Logger

	heatmapTTL time.Duration
	alive      atomic.Bool
}

// NewReconService creates the reconciliation service. archive may be nil.
func NewReconService(
	agg *aggregator.Aggregator,
	eng *fusion.Engine,
	live *livechan.Manager,
	regimes *history.Ring,
	archive drepo.Archive,
	cache icache.BytesCache,
	log *xlogger.Logger,
) *ReconService {
	s := &ReconService{
		agg:        agg,
		eng:        eng,
		live:       live,
		regimes:    regimes,
		archive:    archive,
		cache:      cache,
		log:        log,
		heatmapTTL: 5 * time.Second,
	}
	s.alive.Store(true)
	return s
}

// RefreshFeed runs one aggregation cycle and archives the result.
func (s *ReconService) RefreshFeed(ctx context.Context) {
	events := s.agg.Refresh(ctx)
	if !s.alive.Load() {
		return // torn down while sources were in flight
	}
	if s.archive != nil && len(events) > 0 {
		if err := s.archive.StoreEvents(ctx, events); err != nil {
			s.log.Warn("event archive failed", xlogger.Error(err))
		}
	}
}

// Feed returns the current unified feed, optionally filtered by source,
// capped at limit.
func (s *ReconService) Feed(source string, limit int) []models.TelemetryEvent {
	events := s.agg.Feed()
	if source != "" {
		filtered := events[:0]
		for _, ev := range events {
			if string(ev.Source) == source {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

// MarkRead marks one feed event read.
func (s *ReconService) MarkRead(ctx context.Context, id string) bool {
	return s.agg.MarkRead(ctx, id)
}

// MarkAllRead marks the whole feed read.
func (s *ReconService) MarkAllRead(ctx context.Context) {
	s.agg.MarkAllRead(ctx)
}

// Acknowledge acknowledges one anomaly event.
func (s *ReconService) Acknowledge(ctx context.Context, id string) bool {
	return s.agg.Acknowledge(ctx, id)
}

// Heatmap builds (or serves from short-TTL cache) the execution fusion
// matrix for the given request.
func (s *ReconService) Heatmap(ctx context.Context, req *models.HeatmapRequest) *models.FusionResult {
	key := "heatmap:" + req.Venue + ":" + req.Symbol + ":" + req.Window + ":" + req.From + ":" + req.To
	if s.cache != nil {
		if b, ok, _ := s.cache.GetBytes(key); ok {
			var cached models.FusionResult
			if err := json.Unmarshal(b, &cached); err == nil {
				return &cached
			}
		}
	}

	result := s.eng.Build(ctx, fusionParams(req))
	if !s.alive.Load() {
		return result
	}

	if s.cache != nil {
		if b, err := json.Marshal(result); err == nil {
			_ = s.cache.SetBytes(key, b, s.heatmapTTL)
		}
	}
	if s.archive != nil && result.DiscrepantCount > 0 {
		var discrepant []*models.MergedCell
		for _, row := range result.Rows {
			for _, cell := range row.Cells {
				if cell.Discrepant {
					discrepant = append(discrepant, cell)
				}
			}
		}
		if err := s.archive.StoreCells(ctx, discrepant); err != nil {
			s.log.Warn("cell archive failed", xlogger.Error(err))
		}
	}
	return result
}

// RefreshHeatmap runs one unfiltered fusion cycle for the scheduler so the
// default view stays warm.
func (s *ReconService) RefreshHeatmap(ctx context.Context) {
	s.Heatmap(ctx, &models.HeatmapRequest{Window: "1h"})
}

// LiveState reports the live channel's current mode, cursor and depth.
func (s *ReconService) LiveState() livechan.State {
	return s.live.State()
}

// LiveSnapshot returns the breach feed buffer, newest first.
func (s *ReconService) LiveSnapshot() []models.TelemetryEvent {
	return s.live.Snapshot()
}

// RecordRegime appends one regime snapshot to the persisted timeline.
func (s *ReconService) RecordRegime(ctx context.Context, snap models.RegimeSnapshot) error {
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = time.Now()
	}
	return s.regimes.Append(ctx, snap)
}

// RegimeHistory lists the persisted regime timeline.
func (s *ReconService) RegimeHistory(ctx context.Context, limit int) ([]models.RegimeSnapshot, error) {
	return s.regimes.List(ctx, limit)
}

// Shutdown flips the liveness flag; late refresh completions become no-ops.
func (s *ReconService) Shutdown() {
	s.alive.Store(false)
}

func fusionParams(req *models.HeatmapRequest) fusion.Params {
	p := fusion.Params{
		Venue:  req.Venue,
		Symbol: req.Symbol,
		Window: models.TimeWindow{Named: req.Window},
	}
	// explicit range wins over the named window when both parse
	if from, ok := util.ParseTime(req.From); ok {
		if to, ok2 := util.ParseTime(req.To); ok2 {
			p.Window.From = &from
			p.Window.To = &to
		}
	}
	return p
}

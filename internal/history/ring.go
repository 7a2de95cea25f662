package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"OpsRecon/internal/domain/models"
	"OpsRecon/pkg/cache"
)

// DefaultCapacity bounds the regime timeline.
const DefaultCapacity = 20

// Ring is a bounded regime-history buffer persisted through an injected
// key-value store, so the timeline survives restarts when the store is
// Redis-backed and degrades to process-local memory otherwise.
type Ring struct {
	store    cache.Service
	key      string
	capacity int

	mu sync.Mutex
}

// NewRing creates a ring over the given store. capacity <= 0 selects the
// default.
func NewRing(store cache.Service, key string, capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{store: store, key: key, capacity: capacity}
}

// Append adds a snapshot, evicting the oldest entry beyond capacity.
func (r *Ring) Append(ctx context.Context, snap models.RegimeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return err
	}
	entries = append(entries, snap)
	if len(entries) > r.capacity {
		entries = entries[len(entries)-r.capacity:]
	}
	return r.save(ctx, entries)
}

// List returns up to limit snapshots, newest last. limit <= 0 returns all.
func (r *Ring) List(ctx context.Context, limit int) ([]models.RegimeSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (r *Ring) load(ctx context.Context) ([]models.RegimeSnapshot, error) {
	var raw string
	if err := r.store.Get(ctx, r.key, &raw); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("history load: %w", err)
	}
	var entries []models.RegimeSnapshot
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// a corrupt record resets the timeline rather than wedging it
		return nil, nil
	}
	return entries, nil
}

func (r *Ring) save(ctx context.Context, entries []models.RegimeSnapshot) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("history encode: %w", err)
	}
	if err := r.store.Set(ctx, r.key, string(data), 0); err != nil {
		return fmt.Errorf("history save: %w", err)
	}
	return nil
}

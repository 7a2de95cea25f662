package adapter

import (
	"context"
	"fmt"

	drepo "OpsRecon/internal/domain/repository"
	"OpsRecon/internal/service/ratelimit"
	xhttp "OpsRecon/pkg/http"
	xlogger "OpsRecon/pkg/logger"
)

// Fetcher retrieves one logical feed from an ordered list of candidate paths,
// first success wins. Endpoints moved more than once in production; the list
// is configuration, not a single hardcoded path.
type Fetcher struct {
	name    string
	base    string
	paths   []string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	log     *xlogger.Logger
	metrics drepo.Metrics
}

type FetcherOption func(*Fetcher)

// WithLimiter rate-limits outbound fetches for this feed.
func WithLimiter(l *ratelimit.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithLogger sets the fetcher logger.
func WithLogger(log *xlogger.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = log }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m drepo.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// NewFetcher creates a Fetcher for one logical feed.
func NewFetcher(name, base string, paths []string, client *xhttp.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		name:   name,
		base:   base,
		paths:  paths,
		client: client,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the logical feed name.
func (f *Fetcher) Name() string { return f.name }

// Objects fetches the feed and decodes it into normalizable objects.
// Candidate paths are tried in order; any network or parse failure moves on
// to the next path. If every candidate fails the result is empty — a broken
// source never raises to the caller.
func (f *Fetcher) Objects(ctx context.Context, query map[string][]string) []map[string]any {
	if f.limiter != nil && !f.limiter.Allow(f.name, 5, 2) {
		return nil
	}

	var lastErr error
	for _, path := range f.paths {
		var body []byte
		err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         f.base + path,
			QueryParams: query,
		}, &body)
		if err != nil {
			lastErr = err
			continue
		}
		objs, err := DecodeObjects(body)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", path, err)
			continue
		}
		return objs
	}

	if f.metrics != nil {
		f.metrics.RecordSourceFailure(f.name)
	}
	if f.log != nil && lastErr != nil {
		f.log.Warn("feed unavailable", xlogger.String("feed", f.name), xlogger.Error(lastErr))
	}
	return nil
}

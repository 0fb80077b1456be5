package service

import (
	"context"
	"net/http"
	"time"

	"github.com/openpheno/phenoserve/internal/analytics"
	"github.com/openpheno/phenoserve/internal/query"
	"github.com/openpheno/phenoserve/internal/sim"
	"github.com/openpheno/phenoserve/internal/sim/simcache"
	"github.com/openpheno/phenoserve/pkg/config"
	"github.com/openpheno/phenoserve/pkg/errors"
	"github.com/openpheno/phenoserve/pkg/logger"
	"github.com/openpheno/phenoserve/pkg/metrics"
)

// Service exposes the typed operations that an embedding transport maps its
// requests onto: term and gene lookups, and similarity ranking.
type Service struct {
	data      *Data
	assembler *query.Assembler
	builder   *sim.Builder
	cache     *simcache.Cache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	search    config.SearchConfig
}

// Options carries the optional collaborators of a Service.
type Options struct {
	// Scorer is the external similarity capability. When nil, Similarity
	// reports unavailable for every request.
	Scorer sim.Scorer
	// Cache enables read-through caching of similarity results.
	Cache *simcache.Cache
	// Collector receives query telemetry events.
	Collector *analytics.Collector
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// New assembles a Service over loaded Data.
func New(data *Data, cfg *config.Config, opts Options) *Service {
	var builder *sim.Builder
	if opts.Scorer != nil {
		builder = sim.NewBuilder(opts.Scorer, cfg.Similarity.MaxConcurrency, opts.Metrics)
	}
	return &Service{
		data:      data,
		assembler: query.New(data.Terms, data.Index, data.Xrefs, opts.Metrics),
		builder:   builder,
		cache:     opts.Cache,
		collector: opts.Collector,
		metrics:   opts.Metrics,
		search:    cfg.Search,
	}
}

// Data returns the immutable snapshot the service was built over.
func (s *Service) Data() *Data {
	return s.data
}

// LookupTerms resolves a term lookup request, applying the configured
// default and maximum result limits.
func (s *Service) LookupTerms(ctx context.Context, q query.TermQuery) (*query.TermResolution, error) {
	start := time.Now()
	q.Limit = s.clampLimit(q.Limit)

	res, err := s.assembler.ResolveTerms(ctx, q)
	s.observeLookup(q.Mode.String(), start, res, err)
	if err != nil {
		return nil, err
	}
	s.track(analytics.LookupEvent{
		Type:      analytics.EventTermLookup,
		Query:     q.Text,
		Mode:      q.Mode.String(),
		Requested: len(q.IDs),
		Resolved:  len(res.Terms),
		Warnings:  len(res.Warnings),
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
	return res, nil
}

// LookupGenes resolves gene identifiers given in either namespace.
func (s *Service) LookupGenes(ctx context.Context, q query.GeneQuery) (*query.GeneResolution, error) {
	start := time.Now()
	res, err := s.assembler.ResolveGenes(ctx, q)
	if err != nil {
		return nil, err
	}
	s.track(analytics.LookupEvent{
		Type:      analytics.EventGeneLookup,
		Requested: len(q.IDs),
		Resolved:  len(res.Genes),
		Warnings:  len(res.Warnings),
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
	return res, nil
}

// Similarity ranks the request's candidates against its query term set,
// read-through caching the result when a cache is configured.
func (s *Service) Similarity(ctx context.Context, req sim.Request) (*sim.Result, error) {
	if s.builder == nil {
		return nil, errors.New(errors.ErrUnavailable, http.StatusServiceUnavailable,
			"no similarity scorer configured")
	}
	start := time.Now()

	var (
		result   *sim.Result
		cacheHit bool
		err      error
	)
	if s.cache != nil {
		result, cacheHit, err = s.cache.GetOrCompute(ctx, req, func() (*sim.Result, error) {
			return s.builder.Rank(ctx, req)
		})
	} else {
		result, err = s.builder.Rank(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.track(analytics.SimilarityEvent{
		Type:       analytics.EventSimilarity,
		QueryTerms: len(req.Query),
		Candidates: len(req.Candidates),
		Returned:   len(result.Entries),
		Method:     string(req.Config.Method),
		Combiner:   string(req.Config.Combiner),
		CacheHit:   cacheHit,
		LatencyMs:  time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
		RequestID:  logger.RequestID(ctx),
	})
	return result, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.search.DefaultLimit
	}
	if s.search.MaxResults > 0 && limit > s.search.MaxResults {
		limit = s.search.MaxResults
	}
	return limit
}

func (s *Service) observeLookup(mode string, start time.Time, res *query.TermResolution, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case len(res.Terms) == 0:
		outcome = "zero_result"
	}
	s.metrics.LookupsTotal.WithLabelValues(mode, outcome).Inc()
	s.metrics.LookupLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		s.metrics.LookupResultsCount.Observe(float64(len(res.Terms)))
	}
}

func (s *Service) track(event any) {
	if s.collector != nil {
		s.collector.Track(event)
	}
}

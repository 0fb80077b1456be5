package sim

import (
	"context"
	stderrors "errors"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openpheno/phenoserve/pkg/errors"
	"github.com/openpheno/phenoserve/pkg/logger"
	"github.com/openpheno/phenoserve/pkg/metrics"
)

// Scorer is the external similarity capability: a pure, possibly expensive
// set-to-set similarity function over a bounded numeric range. Nothing is
// cached across calls here; caching is layered on by simcache.
type Scorer interface {
	Score(ctx context.Context, query, candidate []string, cfg Config) (float64, error)
}

// DetailScorer is optionally implemented by scorers that can report per-term
// contributions alongside the combined score.
type DetailScorer interface {
	ScoreDetailed(ctx context.Context, query, candidate []string, cfg Config) (float64, []TermDetail, error)
}

// Builder runs the per-candidate scoring pass for a similarity request.
type Builder struct {
	scorer         Scorer
	maxConcurrency int
	metrics        *metrics.Metrics
}

// NewBuilder creates a Builder. maxConcurrency <= 0 means sequential
// scoring; metrics may be nil.
func NewBuilder(scorer Scorer, maxConcurrency int, m *metrics.Metrics) *Builder {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Builder{scorer: scorer, maxConcurrency: maxConcurrency, metrics: m}
}

// Rank scores every candidate against the query term set and returns the
// entries sorted by descending score, ties broken by ascending candidate
// identifier, truncated to req.Limit.
//
// A scorer fault aborts the whole request: partially scored result sets are
// never returned.
func (b *Builder) Rank(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if len(req.Query) == 0 {
		return nil, errors.New(errors.ErrInvalidQuery, http.StatusBadRequest,
			"similarity request carries an empty query term set")
	}

	entries := make([]ResultEntry, len(req.Candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.maxConcurrency)
	for i, cand := range req.Candidates {
		i, cand := i, cand
		g.Go(func() error {
			entry, err := b.scoreOne(gctx, req, cand)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.countRequest("error")
		if stderrors.Is(err, errors.ErrScoring) {
			return nil, err
		}
		return nil, errors.Newf(errors.ErrScoring, http.StatusInternalServerError,
			"scoring aborted: %v", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	b.countRequest("ok")
	if b.metrics != nil {
		b.metrics.SimilarityLatency.Observe(time.Since(start).Seconds())
		b.metrics.CandidatesScored.Observe(float64(len(req.Candidates)))
	}
	logger.FromContext(ctx).Debug("similarity ranked",
		"query_terms", len(req.Query),
		"candidates", len(req.Candidates),
		"returned", len(entries),
		"method", req.Config.Method,
		"combiner", req.Config.Combiner,
	)
	return &Result{
		Config:  req.Config,
		Query:   req.Query,
		Entries: entries,
	}, nil
}

func (b *Builder) scoreOne(ctx context.Context, req Request, cand Candidate) (ResultEntry, error) {
	if ds, ok := b.scorer.(DetailScorer); ok {
		score, details, err := ds.ScoreDetailed(ctx, req.Query, cand.Terms, req.Config)
		if err != nil {
			return ResultEntry{}, err
		}
		return ResultEntry{ID: cand.ID, Name: cand.Name, Score: score, Details: details}, nil
	}
	score, err := b.scorer.Score(ctx, req.Query, cand.Terms, req.Config)
	if err != nil {
		return ResultEntry{}, err
	}
	return ResultEntry{ID: cand.ID, Name: cand.Name, Score: score}, nil
}

func (b *Builder) countRequest(status string) {
	if b.metrics == nil {
		return
	}
	b.metrics.SimilarityRequestsTotal.WithLabelValues(status).Inc()
}

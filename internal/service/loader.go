// Package service wires the loaded ontology snapshot, full-text index, and
// cross-reference table into the typed operations mirrored by the request
// boundary. All shared state is built once during startup and is immutable
// afterwards; request handling reads it concurrently without locking.
package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/openpheno/phenoserve/internal/index"
	"github.com/openpheno/phenoserve/internal/ontology"
	"github.com/openpheno/phenoserve/internal/xref"
	"github.com/openpheno/phenoserve/pkg/config"
	"github.com/openpheno/phenoserve/pkg/errors"
	"github.com/openpheno/phenoserve/pkg/logger"
	"github.com/openpheno/phenoserve/pkg/metrics"
	"github.com/openpheno/phenoserve/pkg/postgres"
	"github.com/openpheno/phenoserve/pkg/resilience"
)

// Data is the process-wide immutable snapshot handed to all request
// handlers by reference.
type Data struct {
	Terms *ontology.Terms
	Index *index.Index
	Xrefs *xref.Table
}

// Load builds Data from the configured sources, logging per-phase timings.
// Any failure is fatal: serving with a partially built snapshot would
// silently miss terms.
func Load(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Data, error) {
	log := logger.WithComponent("loader")

	log.Info("loading ontology document", "path", cfg.Ontology.OBOPath())
	start := time.Now()
	f, err := os.Open(cfg.Ontology.OBOPath())
	if err != nil {
		return nil, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
			"opening ontology document: %v", err)
	}
	terms, err := ontology.LoadOBO(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	log.Info("ontology document loaded", "terms", terms.Len(), "elapsed", time.Since(start))

	log.Info("building full-text index")
	start = time.Now()
	ix := index.New(terms, index.Options{MaxFanOut: cfg.Search.MaxFanOut})
	log.Info("full-text index built", "fields", ix.NumFields(), "elapsed", time.Since(start))

	start = time.Now()
	table, warnings, err := loadXrefs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn("cross-reference entry skipped", "reason", w)
	}
	log.Info("cross-reference table loaded",
		"source", cfg.Ontology.XrefSource,
		"entries", table.Len(),
		"skipped", len(warnings),
		"elapsed", time.Since(start),
	)

	if m != nil {
		m.IndexedTerms.Set(float64(terms.Len()))
		m.IndexedFields.Set(float64(ix.NumFields()))
		m.XrefEntries.Set(float64(table.Len()))
	}
	return &Data{Terms: terms, Index: ix, Xrefs: table}, nil
}

func loadXrefs(ctx context.Context, cfg *config.Config) (*xref.Table, []string, error) {
	switch cfg.Ontology.XrefSource {
	case config.XrefSourcePostgres:
		var client *postgres.Client
		err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{}, func() error {
			var err error
			client, err = postgres.New(cfg.Postgres)
			return err
		})
		if err != nil {
			return nil, nil, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
				"connecting to postgres: %v", err)
		}
		defer client.Close()
		return xref.LoadPostgres(ctx, client, cfg.Ontology.XrefTable)
	default:
		f, err := os.Open(cfg.Ontology.XlinkPath())
		if err != nil {
			return nil, nil, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
				"opening cross-reference file: %v", err)
		}
		defer f.Close()
		return xref.LoadTSV(f)
	}
}

// SanityCheck verifies the round-trip property on the loaded snapshot: an
// arbitrary term must be reachable via exact search on its own name. Used by
// the readiness probe.
func (d *Data) SanityCheck() error {
	ids := d.Terms.IDs()
	if len(ids) == 0 {
		return fmt.Errorf("no terms loaded")
	}
	term := d.Terms.Get(ids[0])
	found, err := d.Index.Search(term.Name, index.MatchExact)
	if err != nil {
		return fmt.Errorf("probing index: %w", err)
	}
	for _, id := range found {
		if id == term.ID {
			return nil
		}
	}
	return fmt.Errorf("term %s not reachable via its own name", term.ID)
}

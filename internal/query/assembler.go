// Package query turns heterogeneous requests (explicit identifier lists,
// free-text fragments, gene identifiers in either namespace) into canonical
// deduplicated identifier sets, accumulating non-fatal warnings instead of
// failing whole batches.
package query

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openpheno/phenoserve/internal/index"
	"github.com/openpheno/phenoserve/internal/ontology"
	"github.com/openpheno/phenoserve/internal/xref"
	"github.com/openpheno/phenoserve/pkg/errors"
	"github.com/openpheno/phenoserve/pkg/logger"
	"github.com/openpheno/phenoserve/pkg/metrics"
)

// TermQuery is a lookup request for ontology terms. IDs and Text may both be
// set; explicit identifiers resolve first.
type TermQuery struct {
	// IDs are explicit term identifiers.
	IDs []string
	// Text is a free-text query matched against the full-text index.
	Text string
	// Mode selects the match semantics for Text.
	Mode index.Match
	// Limit truncates the resolved set; zero means no truncation.
	Limit int
}

// TermResult is the display record for one resolved term.
type TermResult struct {
	TermID string `json:"term_id"`
	Name   string `json:"name"`
}

// TermResolution is the outcome of ResolveTerms: a deduplicated ordered term
// set plus the warnings accumulated while building it. Warnings are never
// silently dropped, so callers can distinguish "found nothing" from "found
// some, skipped some".
type TermResolution struct {
	Terms    []TermResult `json:"terms"`
	Warnings []string     `json:"warnings,omitempty"`
}

// GeneQuery is a lookup request for genes by identifier in either the NCBI
// or HGNC namespace.
type GeneQuery struct {
	IDs []string
}

// GeneResolution is the outcome of ResolveGenes.
type GeneResolution struct {
	Genes    []xref.Gene `json:"genes"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Assembler resolves requests against the immutable ontology snapshot,
// full-text index, and cross-reference table.
type Assembler struct {
	terms   *ontology.Terms
	index   *index.Index
	xrefs   *xref.Table
	metrics *metrics.Metrics
}

// New creates an Assembler. metrics may be nil.
func New(terms *ontology.Terms, ix *index.Index, xrefs *xref.Table, m *metrics.Metrics) *Assembler {
	return &Assembler{terms: terms, index: ix, xrefs: xrefs, metrics: m}
}

// ResolveTerms resolves a TermQuery into a canonical term set.
//
// Unknown explicit identifiers are dropped with a per-item warning; one bad
// identifier in a batch must not void the whole query. An empty free-text
// result set is a valid outcome, not an error. The output is deduplicated
// preserving first-seen order so that a term reached both explicitly and via
// free text is not double-counted downstream.
func (a *Assembler) ResolveTerms(ctx context.Context, q TermQuery) (*TermResolution, error) {
	if len(q.IDs) == 0 && q.Text == "" {
		return nil, errors.New(errors.ErrInvalidQuery, http.StatusBadRequest,
			"request carries neither term identifiers nor query text")
	}

	res := &TermResolution{}
	seen := make(map[string]struct{})
	add := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		res.Terms = append(res.Terms, TermResult{
			TermID: id,
			Name:   a.terms.Get(id).Name,
		})
	}

	for _, id := range q.IDs {
		if !a.terms.Has(id) {
			res.warn(fmt.Sprintf("term %q not found in loaded ontology", id))
			continue
		}
		add(id)
	}

	if q.Text != "" {
		ids, err := a.index.Search(q.Text, q.Mode)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			add(id)
		}
	}

	if q.Limit > 0 && len(res.Terms) > q.Limit {
		res.Terms = res.Terms[:q.Limit]
	}

	a.countWarnings(len(res.Warnings))
	logger.FromContext(ctx).Debug("terms resolved",
		"ids", len(q.IDs),
		"text", q.Text,
		"mode", q.Mode.String(),
		"resolved", len(res.Terms),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// ResolveGenes resolves gene identifiers given in either namespace into full
// gene records. Unresolvable genes are dropped with a warning, mirroring the
// term identifier policy. The output is deduplicated by NCBI gene ID
// preserving first-seen order.
func (a *Assembler) ResolveGenes(ctx context.Context, q GeneQuery) (*GeneResolution, error) {
	if len(q.IDs) == 0 {
		return nil, errors.New(errors.ErrInvalidQuery, http.StatusBadRequest,
			"request carries no gene identifiers")
	}

	res := &GeneResolution{}
	seen := make(map[string]struct{})
	for _, id := range q.IDs {
		gene, ok := a.xrefs.GeneByNCBI(id)
		if !ok {
			gene, ok = a.xrefs.GeneByHGNC(id)
		}
		if !ok {
			res.warn(fmt.Sprintf("gene %q has no cross-reference entry", id))
			continue
		}
		if _, dup := seen[gene.NCBIGeneID]; dup {
			continue
		}
		seen[gene.NCBIGeneID] = struct{}{}
		res.Genes = append(res.Genes, gene)
	}

	a.countWarnings(len(res.Warnings))
	logger.FromContext(ctx).Debug("genes resolved",
		"ids", len(q.IDs),
		"resolved", len(res.Genes),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// TermIDs returns just the identifiers of a resolution, in order.
func (r *TermResolution) TermIDs() []string {
	ids := make([]string, len(r.Terms))
	for i, t := range r.Terms {
		ids[i] = t.TermID
	}
	return ids
}

func (r *TermResolution) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *GeneResolution) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (a *Assembler) countWarnings(n int) {
	if a.metrics == nil || n == 0 {
		return
	}
	a.metrics.ResolutionWarningsTotal.Add(float64(n))
}

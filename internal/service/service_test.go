package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openpheno/phenoserve/internal/index"
	"github.com/openpheno/phenoserve/internal/query"
	"github.com/openpheno/phenoserve/internal/sim"
	"github.com/openpheno/phenoserve/pkg/config"
	pkgerrors "github.com/openpheno/phenoserve/pkg/errors"
)

const serviceOBO = `format-version: 1.2

[Term]
id: HP:0000001
name: Abnormal gait

[Term]
id: HP:0000002
name: Abnormality of the eye
`

const serviceTSV = "ncbi_gene_id\thgnc_id\tgene_symbol\n1234\tHGNC:5678\tFBN1\n"

func writeFixtures(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hp.obo"), []byte(serviceOBO), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hgnc_xlink.tsv"), []byte(serviceTSV), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Ontology.Dir = dir
	cfg.Search.DefaultLimit = 10
	cfg.Search.MaxResults = 20
	return cfg
}

type unitScorer struct{}

func (unitScorer) Score(context.Context, []string, []string, sim.Config) (float64, error) {
	return 1, nil
}

func TestLoadAndSanityCheck(t *testing.T) {
	cfg := writeFixtures(t)
	data, err := Load(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data.Terms.Len() != 2 {
		t.Errorf("loaded %d terms, want 2", data.Terms.Len())
	}
	if data.Xrefs.Len() != 1 {
		t.Errorf("loaded %d xref entries, want 1", data.Xrefs.Len())
	}
	if err := data.SanityCheck(); err != nil {
		t.Errorf("SanityCheck failed: %v", err)
	}
}

func TestLoadMissingOntology(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.Ontology.OBOFile = "nope.obo"
	if _, err := Load(context.Background(), cfg, nil); !errors.Is(err, pkgerrors.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestServiceLookupTerms(t *testing.T) {
	cfg := writeFixtures(t)
	data, err := Load(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	svc := New(data, cfg, Options{})

	res, err := svc.LookupTerms(context.Background(), query.TermQuery{
		Text: "abnormal",
		Mode: index.MatchPrefix,
	})
	if err != nil {
		t.Fatalf("LookupTerms failed: %v", err)
	}
	if len(res.Terms) != 2 {
		t.Errorf("resolved %d terms, want 2", len(res.Terms))
	}
}

func TestServiceLookupGenes(t *testing.T) {
	cfg := writeFixtures(t)
	data, err := Load(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	svc := New(data, cfg, Options{})

	res, err := svc.LookupGenes(context.Background(), query.GeneQuery{IDs: []string{"1234", "404"}})
	if err != nil {
		t.Fatalf("LookupGenes failed: %v", err)
	}
	if len(res.Genes) != 1 || res.Genes[0].HGNCID != "HGNC:5678" {
		t.Errorf("resolved genes = %v", res.Genes)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestServiceSimilarity(t *testing.T) {
	cfg := writeFixtures(t)
	data, err := Load(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Without a scorer the operation is unavailable.
	svc := New(data, cfg, Options{})
	req := sim.Request{
		Config:     sim.DefaultConfig(),
		Query:      []string{"HP:0000001"},
		Candidates: []sim.Candidate{{ID: "1234", Terms: []string{"HP:0000001"}}},
	}
	if _, err := svc.Similarity(context.Background(), req); !errors.Is(err, pkgerrors.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable without scorer, got %v", err)
	}

	svc = New(data, cfg, Options{Scorer: unitScorer{}})
	res, err := svc.Similarity(context.Background(), req)
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Score != 1 {
		t.Errorf("entries = %v", res.Entries)
	}
}

func TestClampLimit(t *testing.T) {
	cfg := writeFixtures(t)
	data, err := Load(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	svc := New(data, cfg, Options{})

	tests := []struct{ in, want int }{
		{0, 10},
		{-1, 10},
		{15, 15},
		{50, 20},
	}
	for _, tt := range tests {
		if got := svc.clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

package sim

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	pkgerrors "github.com/openpheno/phenoserve/pkg/errors"
)

// overlapScorer is a deterministic stand-in for the external similarity
// collaborator: Jaccard overlap of the two term sets.
type overlapScorer struct{}

func (overlapScorer) Score(_ context.Context, query, candidate []string, _ Config) (float64, error) {
	qset := make(map[string]struct{}, len(query))
	for _, id := range query {
		qset[id] = struct{}{}
	}
	both := 0
	for _, id := range candidate {
		if _, ok := qset[id]; ok {
			both++
		}
	}
	union := len(qset) + len(candidate) - both
	if union == 0 {
		return 0, nil
	}
	return float64(both) / float64(union), nil
}

type faultyScorer struct{}

func (faultyScorer) Score(context.Context, []string, []string, Config) (float64, error) {
	return 0, fmt.Errorf("information content unavailable for loaded snapshot")
}

type detailScorer struct{ overlapScorer }

func (d detailScorer) ScoreDetailed(ctx context.Context, query, candidate []string, cfg Config) (float64, []TermDetail, error) {
	score, err := d.Score(ctx, query, candidate, cfg)
	if err != nil {
		return 0, nil, err
	}
	details := make([]TermDetail, len(query))
	for i, id := range query {
		details[i] = TermDetail{TermID: id, Score: score}
	}
	return score, details, nil
}

func TestRankOrdersByScoreThenID(t *testing.T) {
	b := NewBuilder(overlapScorer{}, 4, nil)

	// One candidate identical to the query, one disjoint: the identical
	// candidate ranks first at the score maximum, the disjoint one last at
	// the minimum.
	res, err := b.Rank(context.Background(), Request{
		Config: DefaultConfig(),
		Query:  []string{"HP:0000001"},
		Candidates: []Candidate{
			{ID: "7157", Terms: []string{"HP:0000099"}},
			{ID: "1234", Terms: []string{"HP:0000001"}},
		},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
	if res.Entries[0].ID != "1234" || res.Entries[0].Score != 1.0 {
		t.Errorf("top entry = %+v, want identical candidate at score 1", res.Entries[0])
	}
	if res.Entries[1].ID != "7157" || res.Entries[1].Score != 0.0 {
		t.Errorf("bottom entry = %+v, want disjoint candidate at score 0", res.Entries[1])
	}
}

func TestRankTieBreak(t *testing.T) {
	b := NewBuilder(overlapScorer{}, 1, nil)

	res, err := b.Rank(context.Background(), Request{
		Config: DefaultConfig(),
		Query:  []string{"HP:0000001"},
		Candidates: []Candidate{
			{ID: "30", Terms: []string{"HP:0000001"}},
			{ID: "10", Terms: []string{"HP:0000001"}},
			{ID: "20", Terms: []string{"HP:0000001"}},
		},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	var ids []string
	for _, e := range res.Entries {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []string{"10", "20", "30"}) {
		t.Errorf("tied entries = %v, want ascending candidate IDs", ids)
	}
}

func TestRankLimit(t *testing.T) {
	b := NewBuilder(overlapScorer{}, 2, nil)

	candidates := make([]Candidate, 10)
	for i := range candidates {
		candidates[i] = Candidate{ID: fmt.Sprintf("%02d", i), Terms: []string{"HP:0000001"}}
	}
	res, err := b.Rank(context.Background(), Request{
		Config:     DefaultConfig(),
		Query:      []string{"HP:0000001"},
		Candidates: candidates,
		Limit:      3,
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(res.Entries) != 3 {
		t.Errorf("expected 3 entries after truncation, got %d", len(res.Entries))
	}
}

func TestRankScorerFaultAbortsRequest(t *testing.T) {
	b := NewBuilder(faultyScorer{}, 4, nil)

	_, err := b.Rank(context.Background(), Request{
		Config: DefaultConfig(),
		Query:  []string{"HP:0000001"},
		Candidates: []Candidate{
			{ID: "1234", Terms: []string{"HP:0000001"}},
		},
	})
	if !errors.Is(err, pkgerrors.ErrScoring) {
		t.Fatalf("expected ErrScoring, got %v", err)
	}
}

func TestRankEmptyQuerySet(t *testing.T) {
	b := NewBuilder(overlapScorer{}, 4, nil)
	_, err := b.Rank(context.Background(), Request{
		Config:     DefaultConfig(),
		Candidates: []Candidate{{ID: "1234"}},
	})
	if !errors.Is(err, pkgerrors.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestRankInvalidConfig(t *testing.T) {
	b := NewBuilder(overlapScorer{}, 4, nil)
	cfg := DefaultConfig()
	cfg.Combiner = "geometric-mean"
	_, err := b.Rank(context.Background(), Request{
		Config: cfg,
		Query:  []string{"HP:0000001"},
	})
	if !errors.Is(err, pkgerrors.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestRankNoCandidates(t *testing.T) {
	b := NewBuilder(overlapScorer{}, 4, nil)
	res, err := b.Rank(context.Background(), Request{
		Config: DefaultConfig(),
		Query:  []string{"HP:0000001"},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(res.Entries) != 0 {
		t.Errorf("expected empty entries, got %v", res.Entries)
	}
}

func TestRankDetailScorer(t *testing.T) {
	b := NewBuilder(detailScorer{}, 4, nil)
	res, err := b.Rank(context.Background(), Request{
		Config: DefaultConfig(),
		Query:  []string{"HP:0000001", "HP:0000002"},
		Candidates: []Candidate{
			{ID: "1234", Name: "FBN1", Terms: []string{"HP:0000001", "HP:0000002"}},
		},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	entry := res.Entries[0]
	if entry.Name != "FBN1" {
		t.Errorf("candidate name not echoed: %+v", entry)
	}
	if len(entry.Details) != 2 || entry.Details[0].TermID != "HP:0000001" {
		t.Errorf("per-term details = %v", entry.Details)
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseICBasis("omim"); err != nil {
		t.Errorf("ParseICBasis(omim) failed: %v", err)
	}
	if _, err := ParseICBasis("tfidf"); !errors.Is(err, pkgerrors.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for unknown basis, got %v", err)
	}
	if m, err := ParseMethod("jc"); err != nil || m != MethodJiangConrath {
		t.Errorf("ParseMethod(jc) = %v, %v", m, err)
	}
	if _, err := ParseMethod("cosine"); !errors.Is(err, pkgerrors.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for unknown method, got %v", err)
	}
	if c, err := ParseCombiner(""); err != nil || c != CombinerFunSimAvg {
		t.Errorf("ParseCombiner default = %v, %v", c, err)
	}
	if _, err := ParseCombiner("median"); !errors.Is(err, pkgerrors.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for unknown combiner, got %v", err)
	}
}

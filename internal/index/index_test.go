package index

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/openpheno/phenoserve/internal/ontology"
	pkgerrors "github.com/openpheno/phenoserve/pkg/errors"
)

const indexOBO = `format-version: 1.2

[Term]
id: HP:0000001
name: Abnormal gait

[Term]
id: HP:0000002
name: Abnormality of the eye
def: "An abnormality of the eye." []
synonym: "Eye disease" EXACT []

[Term]
id: HP:0000003
name: An abnormality

[Term]
id: HP:0000004
name: Gait disturbance
synonym: "Abnormal walking pattern" EXACT []
`

func buildIndex(t testing.TB, opts Options) (*ontology.Terms, *Index) {
	t.Helper()
	terms, err := ontology.LoadOBO(strings.NewReader(indexOBO))
	if err != nil {
		t.Fatalf("loading fixture ontology: %v", err)
	}
	return terms, New(terms, opts)
}

func search(t *testing.T, ix *Index, text string, mode Match) []string {
	t.Helper()
	ids, err := ix.Search(text, mode)
	if err != nil {
		t.Fatalf("Search(%q, %s) failed: %v", text, mode, err)
	}
	return ids
}

func TestSearchExact(t *testing.T) {
	_, ix := buildIndex(t, Options{})

	if got := search(t, ix, "abnormal gait", MatchExact); !reflect.DeepEqual(got, []string{"HP:0000001"}) {
		t.Errorf("exact name match = %v", got)
	}
	// Query normalization mirrors build normalization.
	if got := search(t, ix, "  Abnormal   GAIT ", MatchExact); !reflect.DeepEqual(got, []string{"HP:0000001"}) {
		t.Errorf("normalized exact match = %v", got)
	}
	// Synonyms and definitions are searchable fields too.
	if got := search(t, ix, "eye disease", MatchExact); !reflect.DeepEqual(got, []string{"HP:0000002"}) {
		t.Errorf("exact synonym match = %v", got)
	}
	if got := search(t, ix, "An abnormality of the eye.", MatchExact); !reflect.DeepEqual(got, []string{"HP:0000002"}) {
		t.Errorf("exact definition match = %v", got)
	}
	if got := search(t, ix, "abnormal", MatchExact); len(got) != 0 {
		t.Errorf("partial text must not match exact, got %v", got)
	}
}

func TestSearchPrefix(t *testing.T) {
	_, ix := buildIndex(t, Options{})

	// Anchored at the whole field value: "an abnormality" does not start
	// with "abnormal".
	want := []string{"HP:0000001", "HP:0000002", "HP:0000004"}
	if got := search(t, ix, "abnormal", MatchPrefix); !reflect.DeepEqual(got, want) {
		t.Errorf("prefix match = %v, want %v", got, want)
	}
	// A field is its own prefix.
	if got := search(t, ix, "abnormal gait", MatchPrefix); !reflect.DeepEqual(got, []string{"HP:0000001"}) {
		t.Errorf("full-field prefix match = %v", got)
	}
}

func TestSearchSuffix(t *testing.T) {
	_, ix := buildIndex(t, Options{})

	if got := search(t, ix, "gait", MatchSuffix); !reflect.DeepEqual(got, []string{"HP:0000001"}) {
		t.Errorf("suffix match = %v, want [HP:0000001]", got)
	}
	if got := search(t, ix, "abnormal", MatchSuffix); len(got) != 0 {
		t.Errorf("suffix match on a leading word = %v, want none", got)
	}
	// A field is its own suffix.
	if got := search(t, ix, "gait disturbance", MatchSuffix); !reflect.DeepEqual(got, []string{"HP:0000004"}) {
		t.Errorf("full-field suffix match = %v", got)
	}
}

func TestSearchContains(t *testing.T) {
	_, ix := buildIndex(t, Options{})

	// Completeness: every field containing the substring qualifies.
	want := []string{"HP:0000001", "HP:0000002", "HP:0000003", "HP:0000004"}
	if got := search(t, ix, "abnormal", MatchContains); !reflect.DeepEqual(got, want) {
		t.Errorf("contains match = %v, want %v", got, want)
	}
	// Substrings crossing token boundaries are found.
	if got := search(t, ix, "y of the e", MatchContains); !reflect.DeepEqual(got, []string{"HP:0000002"}) {
		t.Errorf("cross-token contains match = %v", got)
	}
	// Queries below the trigram width fall back to the scan path.
	if got := search(t, ix, "ga", MatchContains); !reflect.DeepEqual(got, []string{"HP:0000001", "HP:0000004"}) {
		t.Errorf("short contains match = %v", got)
	}
	if got := search(t, ix, "zebrafish", MatchContains); len(got) != 0 {
		t.Errorf("no-hit contains = %v, want none", got)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	_, ix := buildIndex(t, Options{})
	for _, mode := range []Match{MatchExact, MatchPrefix, MatchSuffix, MatchContains} {
		if _, err := ix.Search("", mode); !errors.Is(err, pkgerrors.ErrInvalidQuery) {
			t.Errorf("mode %s: expected ErrInvalidQuery for empty query, got %v", mode, err)
		}
		if _, err := ix.Search("   ", mode); !errors.Is(err, pkgerrors.ErrInvalidQuery) {
			t.Errorf("mode %s: expected ErrInvalidQuery for blank query, got %v", mode, err)
		}
	}
}

func TestSearchIdempotent(t *testing.T) {
	_, ix := buildIndex(t, Options{})
	for _, mode := range []Match{MatchExact, MatchPrefix, MatchSuffix, MatchContains} {
		first := search(t, ix, "abnormal", mode)
		second := search(t, ix, "abnormal", mode)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("mode %s: repeated query differs: %v vs %v", mode, first, second)
		}
	}
}

func TestSearchRoundTrip(t *testing.T) {
	terms, ix := buildIndex(t, Options{})
	for _, id := range terms.IDs() {
		got := search(t, ix, terms.Get(id).Name, MatchExact)
		found := false
		for _, g := range got {
			if g == id {
				found = true
			}
		}
		if !found {
			t.Errorf("term %s not reachable via exact search on its own name", id)
		}
	}
}

func TestSearchFanOutCap(t *testing.T) {
	_, ix := buildIndex(t, Options{MaxFanOut: 2})
	got := search(t, ix, "abnormal", MatchContains)
	// The cap truncates the sorted result set, so it stays deterministic.
	if !reflect.DeepEqual(got, []string{"HP:0000001", "HP:0000002"}) {
		t.Errorf("capped contains match = %v", got)
	}
}

func TestParseMatch(t *testing.T) {
	tests := []struct {
		in      string
		want    Match
		wantErr bool
	}{
		{"exact", MatchExact, false},
		{"", MatchExact, false},
		{"Prefix", MatchPrefix, false},
		{"SUFFIX", MatchSuffix, false},
		{"contains", MatchContains, false},
		{"fuzzy", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMatch(tt.in)
		if tt.wantErr {
			if !errors.Is(err, pkgerrors.ErrInvalidQuery) {
				t.Errorf("ParseMatch(%q): expected ErrInvalidQuery, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMatch(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Abnormal Gait", "abnormal gait"},
		{"  spaced \t out  ", "spaced out"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func syntheticTerms(b *testing.B, n int) *ontology.Terms {
	b.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[Term]\nid: HP:%07d\nname: Abnormality of region %d\n", i+1, i)
		fmt.Fprintf(&sb, "synonym: \"Anomaly of region %d\" EXACT []\n\n", i)
	}
	terms, err := ontology.LoadOBO(strings.NewReader(sb.String()))
	if err != nil {
		b.Fatal(err)
	}
	return terms
}

// BenchmarkIndexBuild measures full index construction over 10 000 terms.
func BenchmarkIndexBuild(b *testing.B) {
	terms := syntheticTerms(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix := New(terms, Options{})
		_ = ix
	}
}

// BenchmarkSearch measures lookup latency per mode over 10 000 terms.
func BenchmarkSearch(b *testing.B) {
	terms := syntheticTerms(b, 10000)
	ix := New(terms, Options{})
	for _, bench := range []struct {
		name  string
		query string
		mode  Match
	}{
		{"exact", "abnormality of region 5000", MatchExact},
		{"prefix", "abnormality of region 50", MatchPrefix},
		{"suffix", "region 5000", MatchSuffix},
		{"contains", "of region 50", MatchContains},
	} {
		b.Run(bench.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := ix.Search(bench.query, bench.mode); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Package index builds the full-text index over ontology term names,
// synonyms, and definitions, and answers point lookups under four match
// semantics (exact, prefix, suffix, contains).
//
// Prefix and suffix matching anchor at whole normalized field values, not at
// token boundaries: HPO term names are typically multi-word, and field-level
// anchoring avoids the false positives of token-level prefix indexes. The
// index is built once against a single ontology snapshot and never mutated;
// concurrent reads need no locking.
package index

import (
	"net/http"
	"sort"
	"strings"

	"github.com/openpheno/phenoserve/internal/ontology"
	"github.com/openpheno/phenoserve/pkg/errors"
)

const trigramWidth = 3

// DefaultMaxFanOut bounds the matched term identifiers considered per query
// when Options leaves it unset. A fan-out cap keeps pathological contains
// queries (very short, very common substrings) deterministic without
// wall-clock timeouts.
const DefaultMaxFanOut = 10000

// Options configures index construction.
type Options struct {
	// MaxFanOut caps the number of distinct term identifiers a single query
	// may return. Zero means DefaultMaxFanOut.
	MaxFanOut int
}

type fieldEntry struct {
	text   string
	termID string
}

// Index answers "which term identifiers match string S under mode M".
type Index struct {
	// exact maps a normalized field value to the sorted term IDs having it.
	exact map[string][]string
	// fields is sorted by (text, termID); prefix queries binary-search it.
	fields []fieldEntry
	// rev[i] holds the rune-reversed text of fields[byRev[i]]; both slices
	// are ordered by the reversed text, for suffix queries.
	rev   []string
	byRev []int
	// trigrams maps a 3-rune window to ascending indexes into fields.
	trigrams map[string][]int

	maxFanOut int
}

// New builds the index over every searchable field (name, each synonym,
// definition) of every term in the snapshot.
func New(terms *ontology.Terms, opts Options) *Index {
	ix := &Index{
		exact:     make(map[string][]string),
		trigrams:  make(map[string][]int),
		maxFanOut: opts.MaxFanOut,
	}
	if ix.maxFanOut <= 0 {
		ix.maxFanOut = DefaultMaxFanOut
	}

	for _, id := range terms.IDs() {
		term := terms.Get(id)
		ix.addField(term.Name, id)
		for _, syn := range term.Synonyms {
			ix.addField(syn, id)
		}
		ix.addField(term.Definition, id)
	}

	sort.Slice(ix.fields, func(i, j int) bool {
		if ix.fields[i].text != ix.fields[j].text {
			return ix.fields[i].text < ix.fields[j].text
		}
		return ix.fields[i].termID < ix.fields[j].termID
	})

	for i, f := range ix.fields {
		ids := ix.exact[f.text]
		if len(ids) == 0 || ids[len(ids)-1] != f.termID {
			ix.exact[f.text] = append(ids, f.termID)
		}
		seen := make(map[string]struct{})
		for _, gram := range trigramsOf(f.text) {
			if _, dup := seen[gram]; dup {
				continue
			}
			seen[gram] = struct{}{}
			ix.trigrams[gram] = append(ix.trigrams[gram], i)
		}
	}

	ix.rev = make([]string, len(ix.fields))
	ix.byRev = make([]int, len(ix.fields))
	for i := range ix.fields {
		ix.byRev[i] = i
	}
	reversed := make([]string, len(ix.fields))
	for i, f := range ix.fields {
		reversed[i] = reverse(f.text)
	}
	sort.Slice(ix.byRev, func(i, j int) bool {
		a, b := reversed[ix.byRev[i]], reversed[ix.byRev[j]]
		if a != b {
			return a < b
		}
		return ix.fields[ix.byRev[i]].termID < ix.fields[ix.byRev[j]].termID
	})
	for i, fi := range ix.byRev {
		ix.rev[i] = reversed[fi]
	}

	return ix
}

func (ix *Index) addField(text, termID string) {
	norm := Normalize(text)
	if norm == "" {
		return
	}
	ix.fields = append(ix.fields, fieldEntry{text: norm, termID: termID})
}

// NumFields returns the number of indexed searchable fields.
func (ix *Index) NumFields() int {
	return len(ix.fields)
}

// Search returns the identifiers of all terms with a field matching text
// under the given mode, sorted ascending for determinism, capped at the
// configured fan-out. Empty query text is rejected: an unconstrained
// wildcard would force a full index scan.
func (ix *Index) Search(text string, mode Match) ([]string, error) {
	norm := Normalize(text)
	if norm == "" {
		return nil, errors.New(errors.ErrInvalidQuery, http.StatusBadRequest,
			"empty query text")
	}

	set := make(map[string]struct{})
	switch mode {
	case MatchExact:
		for _, id := range ix.exact[norm] {
			set[id] = struct{}{}
		}
	case MatchPrefix:
		ix.collectPrefix(norm, set)
	case MatchSuffix:
		ix.collectSuffix(norm, set)
	case MatchContains:
		ix.collectContains(norm, set)
	default:
		return nil, errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown match mode %d", mode)
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > ix.maxFanOut {
		ids = ids[:ix.maxFanOut]
	}
	return ids, nil
}

func (ix *Index) collectPrefix(norm string, set map[string]struct{}) {
	start := sort.Search(len(ix.fields), func(i int) bool {
		return ix.fields[i].text >= norm
	})
	for i := start; i < len(ix.fields); i++ {
		if !strings.HasPrefix(ix.fields[i].text, norm) {
			break
		}
		set[ix.fields[i].termID] = struct{}{}
	}
}

func (ix *Index) collectSuffix(norm string, set map[string]struct{}) {
	rq := reverse(norm)
	start := sort.Search(len(ix.rev), func(i int) bool {
		return ix.rev[i] >= rq
	})
	for i := start; i < len(ix.rev); i++ {
		if !strings.HasPrefix(ix.rev[i], rq) {
			break
		}
		set[ix.fields[ix.byRev[i]].termID] = struct{}{}
	}
}

func (ix *Index) collectContains(norm string, set map[string]struct{}) {
	grams := trigramsOf(norm)
	if len(grams) == 0 {
		// Query shorter than the trigram width: deterministic scan of the
		// sorted field slice.
		for _, f := range ix.fields {
			if strings.Contains(f.text, norm) {
				set[f.termID] = struct{}{}
			}
		}
		return
	}

	candidates := ix.trigrams[grams[0]]
	for _, gram := range grams[1:] {
		if len(candidates) == 0 {
			return
		}
		candidates = intersectSorted(candidates, ix.trigrams[gram])
	}
	// Trigram co-occurrence does not imply contiguity; verify each hit.
	for _, fi := range candidates {
		if strings.Contains(ix.fields[fi].text, norm) {
			set[ix.fields[fi].termID] = struct{}{}
		}
	}
}

// Normalize case-folds and trims field or query text, collapsing internal
// whitespace runs. Build-time and query-time normalization are identical by
// construction.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func trigramsOf(s string) []string {
	runes := []rune(s)
	if len(runes) < trigramWidth {
		return nil
	}
	grams := make([]string, 0, len(runes)-trigramWidth+1)
	for i := 0; i+trigramWidth <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+trigramWidth]))
	}
	return grams
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func intersectSorted(a, b []int) []int {
	out := a[:0:0]
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

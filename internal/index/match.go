package index

import (
	"net/http"
	"strings"

	"github.com/openpheno/phenoserve/pkg/errors"
)

// Match selects the string-matching semantics of a lookup. It is a
// request-scoped parameter, dispatched once per query.
type Match int

const (
	// MatchExact requires a full normalized-field match.
	MatchExact Match = iota
	// MatchPrefix anchors the query at the start of the whole field value.
	MatchPrefix
	// MatchSuffix anchors the query at the end of the whole field value.
	MatchSuffix
	// MatchContains requires the query as a contiguous substring anywhere
	// in the field.
	MatchContains
)

// String returns the wire name of the match mode.
func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchSuffix:
		return "suffix"
	case MatchContains:
		return "contains"
	default:
		return "unknown"
	}
}

// ParseMatch converts a wire name into a Match. Unknown names are an
// invalid-query error, not a default.
func ParseMatch(s string) (Match, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "prefix":
		return MatchPrefix, nil
	case "suffix":
		return MatchSuffix, nil
	case "contains":
		return MatchContains, nil
	default:
		return 0, errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown match mode %q", s)
	}
}

// Package sim assembles similarity requests and reshapes the external
// scorer's output into ranked result records. The graph-theoretic similarity
// formulas themselves live behind the Scorer interface and are not owned
// here.
package sim

import (
	"net/http"
	"strings"

	"github.com/openpheno/phenoserve/pkg/errors"
)

// ICBasis selects the statistical source used to weight term specificity.
type ICBasis string

const (
	// ICBasisGene weights terms by gene-annotation frequency.
	ICBasisGene ICBasis = "gene"
	// ICBasisOMIM weights terms by disease-annotation frequency.
	ICBasisOMIM ICBasis = "omim"
)

// Method selects the pairwise term-similarity formula.
type Method string

const (
	MethodResnik                 Method = "resnik"
	MethodLin                    Method = "lin"
	MethodJiangConrath           Method = "jiang-conrath"
	MethodRelevance              Method = "relevance"
	MethodInformationCoefficient Method = "information-coefficient"
)

// Combiner selects how pairwise term similarities aggregate into one
// set-to-set value.
type Combiner string

const (
	CombinerFunSimAvg Combiner = "fun-sim-avg"
	CombinerFunSimMax Combiner = "fun-sim-max"
	CombinerBMA       Combiner = "bma"
)

// Config is the {IC basis, method, combiner} triple of a similarity request.
type Config struct {
	ICBasis  ICBasis  `json:"ic_basis"`
	Method   Method   `json:"method"`
	Combiner Combiner `json:"combiner"`
}

// DefaultConfig returns the configuration used when a request leaves the
// triple unset.
func DefaultConfig() Config {
	return Config{
		ICBasis:  ICBasisGene,
		Method:   MethodResnik,
		Combiner: CombinerFunSimAvg,
	}
}

// Validate rejects unknown enum values before any candidate is scored; a
// mixed-configuration result set would be numerically misleading.
func (c Config) Validate() error {
	switch c.ICBasis {
	case ICBasisGene, ICBasisOMIM:
	default:
		return errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown information-content basis %q", c.ICBasis)
	}
	switch c.Method {
	case MethodResnik, MethodLin, MethodJiangConrath, MethodRelevance, MethodInformationCoefficient:
	default:
		return errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown similarity method %q", c.Method)
	}
	switch c.Combiner {
	case CombinerFunSimAvg, CombinerFunSimMax, CombinerBMA:
	default:
		return errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown score combiner %q", c.Combiner)
	}
	return nil
}

// ParseICBasis converts a wire name into an ICBasis.
func ParseICBasis(s string) (ICBasis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gene":
		return ICBasisGene, nil
	case "omim":
		return ICBasisOMIM, nil
	default:
		return "", errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown information-content basis %q", s)
	}
}

// ParseMethod converts a wire name into a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "resnik":
		return MethodResnik, nil
	case "lin":
		return MethodLin, nil
	case "jiang-conrath", "jc":
		return MethodJiangConrath, nil
	case "relevance":
		return MethodRelevance, nil
	case "information-coefficient":
		return MethodInformationCoefficient, nil
	default:
		return "", errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown similarity method %q", s)
	}
}

// ParseCombiner converts a wire name into a Combiner.
func ParseCombiner(s string) (Combiner, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fun-sim-avg":
		return CombinerFunSimAvg, nil
	case "fun-sim-max":
		return CombinerFunSimMax, nil
	case "bma":
		return CombinerBMA, nil
	default:
		return "", errors.Newf(errors.ErrInvalidQuery, http.StatusBadRequest,
			"unknown score combiner %q", s)
	}
}

// Candidate is one scoring target: a gene or disease identifier with its
// annotated term set.
type Candidate struct {
	// ID is the candidate identifier (NCBI gene ID, OMIM ID).
	ID string `json:"id"`
	// Name is optional display metadata echoed into results.
	Name string `json:"name,omitempty"`
	// Terms is the candidate's annotated term identifier set.
	Terms []string `json:"terms"`
}

// Request packages everything the ranking pass needs. It is constructed per
// request and passed by value.
type Request struct {
	Config Config `json:"config"`
	// Query is the resolved query term identifier set.
	Query []string `json:"query"`
	// Candidates are the scoring targets.
	Candidates []Candidate `json:"candidates"`
	// Limit truncates the ranked results; zero means no truncation.
	Limit int `json:"limit"`
}

// TermDetail is an optional per-term score contribution.
type TermDetail struct {
	TermID string  `json:"term_id"`
	Score  float64 `json:"score"`
}

// ResultEntry is one ranked candidate.
type ResultEntry struct {
	ID      string       `json:"id"`
	Name    string       `json:"name,omitempty"`
	Score   float64      `json:"score"`
	Details []TermDetail `json:"details,omitempty"`
}

// Result is the ranked outcome of a similarity request, ordered by
// descending score with ties broken by ascending candidate identifier.
type Result struct {
	Config  Config        `json:"config"`
	Query   []string      `json:"query"`
	Entries []ResultEntry `json:"entries"`
}

package ontology

import (
	"bufio"
	"io"
	"net/http"
	"strings"

	"github.com/openpheno/phenoserve/pkg/errors"
)

const scannerBufferSize = 1 << 20

// LoadOBO parses an OBO-format ontology document into a Terms collection.
//
// A [Term] stanza without an id line, and a duplicate id across stanzas, are
// both fatal: a partially built collection would silently drop terms from
// the full-text index. Obsolete terms are skipped. Non-Term stanzas
// (Typedef, Instance) are ignored.
func LoadOBO(r io.Reader) (*Terms, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	terms := &Terms{
		byID: make(map[string]*Term, 1<<14),
	}

	inTerm := false
	stanza := 0
	var cur *Term
	obsolete := false

	flush := func() error {
		if !inTerm {
			return nil
		}
		if obsolete {
			return nil
		}
		if cur.ID == "" {
			return errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
				"term stanza %d has no id", stanza)
		}
		if _, dup := terms.byID[cur.ID]; dup {
			return errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
				"duplicate term id %s", cur.ID)
		}
		terms.byID[cur.ID] = cur
		terms.ids = append(terms.ids, cur.ID)
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.HasPrefix(line, "[") {
			if err := flush(); err != nil {
				return nil, err
			}
			inTerm = line == "[Term]"
			if inTerm {
				stanza++
				cur = &Term{}
				obsolete = false
			}
			continue
		}
		if !inTerm || line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "id":
			cur.ID = val
		case "name":
			cur.Name = val
		case "def":
			cur.Definition = parseQuoted(val)
		case "synonym":
			if s := parseQuoted(val); s != "" {
				cur.Synonyms = append(cur.Synonyms, s)
			}
		case "xref":
			// Trailing xref descriptions ("UMLS:C4025901 {...}") are noise.
			if id, _, _ := strings.Cut(val, " "); id != "" {
				cur.Xrefs = append(cur.Xrefs, id)
			}
		case "is_obsolete":
			obsolete = val == "true"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
			"reading ontology document: %v", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(terms.ids) == 0 {
		return nil, errors.New(errors.ErrLoad, http.StatusInternalServerError,
			"ontology document contains no terms")
	}
	return terms, nil
}

// parseQuoted extracts the text between the first pair of double quotes,
// honouring backslash escapes. OBO def and synonym values carry their
// payload quoted, followed by scope markers and trailing xref lists.
func parseQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s[start+1:] {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '"':
			return b.String()
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

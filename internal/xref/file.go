package xref

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openpheno/phenoserve/pkg/errors"
)

// LoadTSV reads the cross-reference table from tab-delimited text with the
// columns ncbi_gene_id, hgnc_id and an optional gene_symbol. A header line is
// detected and skipped.
//
// Malformed lines and duplicate identifiers are skipped and reported as
// warnings rather than failing the load: cross-reference coverage is
// expected to be partial, and a gene with no entry is still valid. Only an
// unreadable source is fatal.
func LoadTSV(r io.Reader) (*Table, []string, error) {
	table := newTable()
	var warnings []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if lineNo == 1 && strings.HasPrefix(line, "ncbi_gene_id") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			warnings = append(warnings,
				fmt.Sprintf("line %d: expected at least 2 fields, got %d", lineNo, len(fields)))
			continue
		}
		ncbi := strings.TrimSpace(fields[0])
		hgnc := strings.TrimSpace(fields[1])
		if ncbi == "" || hgnc == "" {
			warnings = append(warnings,
				fmt.Sprintf("line %d: empty identifier", lineNo))
			continue
		}
		symbol := ""
		if len(fields) > 2 {
			symbol = strings.TrimSpace(fields[2])
		}
		if !table.add(ncbi, hgnc, symbol) {
			warnings = append(warnings,
				fmt.Sprintf("line %d: duplicate mapping for %s/%s", lineNo, ncbi, hgnc))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
			"reading cross-reference source: %v", err)
	}
	return table, warnings, nil
}

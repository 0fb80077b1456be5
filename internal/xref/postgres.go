package xref

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openpheno/phenoserve/pkg/errors"
	"github.com/openpheno/phenoserve/pkg/postgres"
)

// LoadPostgres reads the cross-reference table from a database table with
// the columns ncbi_gene_id, hgnc_id and gene_symbol. Duplicate rows surface
// as warnings, mirroring the TSV loader.
func LoadPostgres(ctx context.Context, client *postgres.Client, tableName string) (*Table, []string, error) {
	query := fmt.Sprintf(
		"SELECT ncbi_gene_id, hgnc_id, COALESCE(gene_symbol, '') FROM %s ORDER BY ncbi_gene_id",
		tableName,
	)
	rows, err := client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
			"querying cross-reference table %s: %v", tableName, err)
	}
	defer rows.Close()

	table := newTable()
	var warnings []string
	for rows.Next() {
		var ncbi, hgnc, symbol string
		if err := rows.Scan(&ncbi, &hgnc, &symbol); err != nil {
			return nil, warnings, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
				"scanning cross-reference row: %v", err)
		}
		if ncbi == "" || hgnc == "" {
			warnings = append(warnings, fmt.Sprintf("row with empty identifier (%q, %q)", ncbi, hgnc))
			continue
		}
		if !table.add(ncbi, hgnc, symbol) {
			warnings = append(warnings, fmt.Sprintf("duplicate mapping for %s/%s", ncbi, hgnc))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, warnings, errors.Newf(errors.ErrLoad, http.StatusInternalServerError,
			"iterating cross-reference rows: %v", err)
	}
	return table, warnings, nil
}

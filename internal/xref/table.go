// Package xref loads and serves the bidirectional mapping between NCBI and
// HGNC gene identifier namespaces. The table is built once at startup and is
// read-only afterwards.
package xref

// Gene is the display metadata carried for one cross-referenced gene.
type Gene struct {
	// NCBIGeneID is the NCBI Gene identifier, e.g. "2200".
	NCBIGeneID string `json:"ncbi_gene_id"`
	// Symbol is the gene symbol, e.g. "FBN1", or "" when unknown.
	Symbol string `json:"gene_symbol,omitempty"`
	// HGNCID is the HGNC identifier, e.g. "HGNC:3603".
	HGNCID string `json:"hgnc_id"`
}

// Table holds both directional mappings. Every pair present in one direction
// has its mirror in the other.
type Table struct {
	ncbiToHGNC map[string]string
	hgncToNCBI map[string]string
	symbols    map[string]string // keyed by NCBI gene ID
}

func newTable() *Table {
	return &Table{
		ncbiToHGNC: make(map[string]string),
		hgncToNCBI: make(map[string]string),
		symbols:    make(map[string]string),
	}
}

func (t *Table) add(ncbi, hgnc, symbol string) bool {
	if _, seen := t.ncbiToHGNC[ncbi]; seen {
		return false
	}
	if _, seen := t.hgncToNCBI[hgnc]; seen {
		return false
	}
	t.ncbiToHGNC[ncbi] = hgnc
	t.hgncToNCBI[hgnc] = ncbi
	if symbol != "" {
		t.symbols[ncbi] = symbol
	}
	return true
}

// HGNCForNCBI resolves an NCBI gene ID toward the HGNC namespace.
func (t *Table) HGNCForNCBI(id string) (string, bool) {
	hgnc, ok := t.ncbiToHGNC[id]
	return hgnc, ok
}

// NCBIForHGNC resolves an HGNC ID toward the NCBI namespace.
func (t *Table) NCBIForHGNC(id string) (string, bool) {
	ncbi, ok := t.hgncToNCBI[id]
	return ncbi, ok
}

// GeneByNCBI returns the full gene record for an NCBI gene ID.
func (t *Table) GeneByNCBI(id string) (Gene, bool) {
	hgnc, ok := t.ncbiToHGNC[id]
	if !ok {
		return Gene{}, false
	}
	return Gene{NCBIGeneID: id, Symbol: t.symbols[id], HGNCID: hgnc}, true
}

// GeneByHGNC returns the full gene record for an HGNC ID.
func (t *Table) GeneByHGNC(id string) (Gene, bool) {
	ncbi, ok := t.hgncToNCBI[id]
	if !ok {
		return Gene{}, false
	}
	return Gene{NCBIGeneID: ncbi, Symbol: t.symbols[ncbi], HGNCID: id}, true
}

// Len returns the number of loaded cross-reference pairs.
func (t *Table) Len() int {
	return len(t.ncbiToHGNC)
}

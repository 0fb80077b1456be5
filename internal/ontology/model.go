// Package ontology loads the HPO OBO document into an immutable in-memory
// term collection. The collection is built once at startup and shared
// read-only by all request handlers.
package ontology

// Term is a single ontology term. Terms are never mutated after load.
type Term struct {
	// ID is the stable primary identifier, e.g. "HP:0000118".
	ID string
	// Name is the display name.
	Name string
	// Synonyms holds the synonym strings (scope markers stripped).
	Synonyms []string
	// Definition is the free-text definition, or "".
	Definition string
	// Xrefs holds cross-reference identifiers into other namespaces.
	Xrefs []string
}

// Terms is the loaded term collection keyed by identifier.
type Terms struct {
	byID map[string]*Term
	ids  []string
}

// Get returns the term with the given identifier, or nil.
func (t *Terms) Get(id string) *Term {
	return t.byID[id]
}

// Has reports whether id names a loaded term.
func (t *Terms) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// Len returns the number of loaded terms.
func (t *Terms) Len() int {
	return len(t.ids)
}

// IDs returns all term identifiers in document order. The returned slice is
// shared; callers must not modify it.
func (t *Terms) IDs() []string {
	return t.ids
}

package models

// QueryTemplate is one pre-authored SQL query in a batch request. The key is
// unique within its batch; the SQL text may embed {{name}} placeholders.
type QueryTemplate struct {
	Key        string          `json:"key"`
	SQL        string          `json:"sql"`
	FilterMeta []FilterBinding `json:"filter_meta,omitempty"`

	// IsLookup marks queries that populate filter-option lists. Lookup
	// queries always execute unmodified so a filter can never narrow the
	// choices it was picked from.
	IsLookup bool `json:"is_lookup,omitempty"`
}

// ParameterizedQuery is SQL with positional markers ($1, $2, ...) and the
// ordered values bound out-of-band. Values are never concatenated into the
// text; the marker count always equals len(Params).
type ParameterizedQuery struct {
	SQL    string
	Params []any
}

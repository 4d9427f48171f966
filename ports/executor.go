package ports

import "context"

// QueryResult carries the rows returned by the data source. Row values are
// loosely typed; 64-bit aggregates commonly arrive as strings and are coerced
// at the result-shaping boundary, never inside handler logic.
type QueryResult struct {
	Rows     []map[string]any
	RowCount int
}

// QueryExecutor is the single collaborator the analysis core depends on.
// Implementations run the query against an external relational data source
// and surface driver failures unchanged; the core never retries.
type QueryExecutor interface {
	Execute(ctx context.Context, query string, args ...any) (*QueryResult, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"statquery/domain/core"
	"statquery/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// executor implements the QueryExecutor port on top of PostgreSQL
type executor struct {
	db *sqlx.DB
}

// NewExecutor creates a PostgreSQL-backed query executor
func NewExecutor(db *sqlx.DB) ports.QueryExecutor {
	return &executor{db: db}
}

// Execute runs a query and materializes every row as a loosely typed map.
func (e *executor) Execute(ctx context.Context, query string, args ...any) (*ports.QueryResult, error) {
	rows, err := e.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewExecutorError(friendlyError(err))
	}
	defer rows.Close()

	result := &ports.QueryResult{}
	for rows.Next() {
		record := map[string]any{}
		if err := rows.MapScan(record); err != nil {
			return nil, core.NewExecutorError(fmt.Errorf("failed to scan row: %w", err))
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewExecutorError(friendlyError(err))
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// friendlyError rewrites known unfriendly driver messages into something a
// caller can act on. Everything else passes through unchanged.
func friendlyError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		msg := pqErr.Message
		switch {
		case strings.Contains(msg, "cannot call") && strings.Contains(msg, "array"):
			return fmt.Errorf("aggregate does not accept array-typed columns: %s", msg)
		case pqErr.Code.Name() == "undefined_column":
			return fmt.Errorf("undefined column: %s", msg)
		case pqErr.Code.Name() == "undefined_table":
			return fmt.Errorf("undefined table: %s", msg)
		case pqErr.Code.Name() == "insufficient_privilege":
			return fmt.Errorf("permission denied: %s", msg)
		}
		return pqErr
	}
	return err
}

package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	domain "statquery/domain/analysis"
	"statquery/internal/schema"
	"statquery/ports"
)

// handlerBase carries the two collaborators every handler needs.
type handlerBase struct {
	exec   ports.QueryExecutor
	schema *schema.Validator
}

func newHandlerBase(exec ports.QueryExecutor) handlerBase {
	return handlerBase{exec: exec, schema: schema.NewValidator(exec)}
}

// distinctGroupKeys enumerates the group-by column's distinct values in
// ascending order, for handlers that re-query once per group.
func (b handlerBase) distinctGroupKeys(ctx context.Context, req *domain.Request) ([]any, error) {
	groupCol := quoteIdent(req.GroupBy)
	query := fmt.Sprintf("SELECT DISTINCT %s AS group_key FROM %s%s ORDER BY 1",
		groupCol, tableRef(req), whereClause(req.Where, fmt.Sprintf("%s IS NOT NULL", groupCol)))
	result, err := b.exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	keys := make([]any, 0, result.RowCount)
	for _, row := range result.Rows {
		keys = append(keys, row["group_key"])
	}
	return keys, nil
}

func quoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

// tableRef renders a schema-qualified, quoted table reference.
func tableRef(req *domain.Request) string {
	schemaName, tableName := req.QualifiedTable()
	return quoteIdent(schemaName) + "." + quoteIdent(tableName)
}

// whereClause joins non-empty predicates with AND. Caller-supplied filters
// are parenthesized so embedded ORs cannot leak across predicates.
func whereClause(predicates ...string) string {
	var kept []string
	for _, p := range predicates {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, "("+p+")")
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(kept, " AND ")
}

// aggregateExpr renders one of the supported aggregation functions over a
// column. The aggregation name is canonical by the time it gets here.
func aggregateExpr(aggregation, column string) string {
	if aggregation == "count" {
		if column == "" {
			return "COUNT(*)"
		}
		return fmt.Sprintf("COUNT(%s)", quoteIdent(column))
	}
	return fmt.Sprintf("%s(%s)", strings.ToUpper(aggregation), quoteIdent(column))
}

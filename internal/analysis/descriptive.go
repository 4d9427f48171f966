package analysis

import (
	"context"
	"fmt"

	domain "statquery/domain/analysis"
	"statquery/internal/request"
	"statquery/ports"
)

// DescriptiveHandler computes summary statistics for one numeric column,
// optionally split by a grouping column.
type DescriptiveHandler struct {
	handlerBase
}

// NewDescriptiveHandler creates a descriptive statistics handler
func NewDescriptiveHandler(exec ports.QueryExecutor) *DescriptiveHandler {
	return &DescriptiveHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a descriptive analysis.
func (h *DescriptiveHandler) Run(ctx context.Context, raw map[string]any) (*domain.DescriptiveReport, error) {
	req, err := request.Normalize(domain.KindDescriptive, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.Column); err != nil {
		return nil, err
	}

	report := &domain.DescriptiveReport{Table: req.Table, Column: req.Column}
	col := quoteIdent(req.Column)
	aggregates := fmt.Sprintf(
		`COUNT(*) AS total_rows, COUNT(%[1]s) AS non_null, COUNT(*) - COUNT(%[1]s) AS null_count, `+
			`COUNT(DISTINCT %[1]s) AS distinct_count, AVG(%[1]s) AS mean, STDDEV(%[1]s) AS std_dev, `+
			`MIN(%[1]s) AS min_val, MAX(%[1]s) AS max_val`, col)

	if req.GroupBy == "" {
		query := fmt.Sprintf("SELECT %s FROM %s%s", aggregates, tableRef(req), whereClause(req.Where))
		result, err := h.exec.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		if result.RowCount == 0 {
			return report, nil
		}
		stats := shapeDescriptiveRow(result.Rows[0])
		report.Stats = &stats
		return report, nil
	}

	if err := h.schema.ValidateColumnExists(ctx, req.Schema, req.Table, req.GroupBy); err != nil {
		return nil, err
	}
	groupCol := quoteIdent(req.GroupBy)
	query := fmt.Sprintf("SELECT %s AS group_key, %s FROM %s%s GROUP BY %s",
		groupCol, aggregates, tableRef(req), whereClause(req.Where), groupCol)
	result, err := h.exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, row := range result.Rows {
		report.Groups = append(report.Groups, domain.Grouped[domain.DescriptiveStats]{
			GroupKey: GroupKey(row["group_key"]),
			Result:   shapeDescriptiveRow(row),
		})
	}
	return report, nil
}

func shapeDescriptiveRow(row map[string]any) domain.DescriptiveStats {
	return domain.DescriptiveStats{
		TotalRows:     ToInt64(row["total_rows"]),
		Count:         ToInt64(row["non_null"]),
		NullCount:     ToInt64(row["null_count"]),
		DistinctCount: ToInt64(row["distinct_count"]),
		Mean:          ToFloat(row["mean"]),
		StdDev:        ToFloat(row["std_dev"]),
		Min:           ToFloat(row["min_val"]),
		Max:           ToFloat(row["max_val"]),
	}
}

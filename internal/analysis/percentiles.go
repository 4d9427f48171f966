package analysis

import (
	"context"
	"fmt"
	"strings"

	domain "statquery/domain/analysis"
	"statquery/internal/request"
	"statquery/ports"
)

// PercentileHandler computes PERCENTILE_CONT values for one numeric column.
type PercentileHandler struct {
	handlerBase
}

// NewPercentileHandler creates a percentile handler
func NewPercentileHandler(exec ports.QueryExecutor) *PercentileHandler {
	return &PercentileHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a percentile analysis.
func (h *PercentileHandler) Run(ctx context.Context, raw map[string]any) (*domain.PercentileReport, error) {
	req, err := request.Normalize(domain.KindPercentiles, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.Column); err != nil {
		return nil, err
	}

	report := &domain.PercentileReport{Table: req.Table, Column: req.Column}
	col := quoteIdent(req.Column)

	exprs := make([]string, len(req.Percentiles))
	aliases := make([]string, len(req.Percentiles))
	for i, p := range req.Percentiles {
		aliases[i] = percentileAlias(p)
		exprs[i] = fmt.Sprintf("PERCENTILE_CONT(%g) WITHIN GROUP (ORDER BY %s) AS %s", p/100, col, aliases[i])
	}
	selectList := strings.Join(exprs, ", ")

	if req.GroupBy == "" {
		query := fmt.Sprintf("SELECT %s FROM %s%s", selectList, tableRef(req), whereClause(req.Where))
		result, err := h.exec.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		if result.RowCount > 0 {
			report.Percentiles = shapePercentileRow(result.Rows[0], req.Percentiles, aliases)
		}
		return report, nil
	}

	if err := h.schema.ValidateColumnExists(ctx, req.Schema, req.Table, req.GroupBy); err != nil {
		return nil, err
	}
	groupCol := quoteIdent(req.GroupBy)
	query := fmt.Sprintf("SELECT %s AS group_key, %s FROM %s%s GROUP BY %s",
		groupCol, selectList, tableRef(req), whereClause(req.Where), groupCol)
	result, err := h.exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, row := range result.Rows {
		report.Groups = append(report.Groups, domain.Grouped[[]domain.PercentileValue]{
			GroupKey: GroupKey(row["group_key"]),
			Result:   shapePercentileRow(row, req.Percentiles, aliases),
		})
	}
	return report, nil
}

// percentileAlias renders a column alias for one percentile, e.g. p_99_9.
func percentileAlias(p float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", p), "0"), ".")
	return "p_" + strings.ReplaceAll(s, ".", "_")
}

func shapePercentileRow(row map[string]any, percentiles []float64, aliases []string) []domain.PercentileValue {
	out := make([]domain.PercentileValue, len(percentiles))
	for i, p := range percentiles {
		out[i] = domain.PercentileValue{Percentile: p, Value: ToFloat(row[aliases[i]])}
	}
	return out
}

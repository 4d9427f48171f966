package analysis

import (
	"context"
	"fmt"

	domain "statquery/domain/analysis"
	"statquery/internal/request"
	"statquery/ports"
)

// RegressionHandler delegates simple linear regression to the data source's
// REGR_* aggregates. Column is the independent variable (x), ColumnY the
// dependent one (y).
type RegressionHandler struct {
	handlerBase
}

// NewRegressionHandler creates a linear regression handler
func NewRegressionHandler(exec ports.QueryExecutor) *RegressionHandler {
	return &RegressionHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a regression analysis.
func (h *RegressionHandler) Run(ctx context.Context, raw map[string]any) (*domain.RegressionReport, error) {
	req, err := request.Normalize(domain.KindRegression, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.Column); err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.ColumnY); err != nil {
		return nil, err
	}

	report := &domain.RegressionReport{Table: req.Table, ColumnX: req.Column, ColumnY: req.ColumnY}
	colX := quoteIdent(req.Column)
	colY := quoteIdent(req.ColumnY)
	aggregates := fmt.Sprintf(
		"REGR_SLOPE(%[2]s, %[1]s) AS slope, REGR_INTERCEPT(%[2]s, %[1]s) AS intercept, "+
			"REGR_R2(%[2]s, %[1]s) AS r_squared, REGR_COUNT(%[2]s, %[1]s) AS sample_size",
		colX, colY)

	if req.GroupBy == "" {
		query := fmt.Sprintf("SELECT %s FROM %s%s", aggregates, tableRef(req), whereClause(req.Where))
		result, err := h.exec.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		if result.RowCount > 0 {
			stats := shapeRegressionRow(result.Rows[0])
			report.Stats = &stats
		}
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
		report.Groups = append(report.Groups, domain.Grouped[domain.RegressionStats]{
			GroupKey: GroupKey(row["group_key"]),
			Result:   shapeRegressionRow(row),
		})
	}
	return report, nil
}

func shapeRegressionRow(row map[string]any) domain.RegressionStats {
	stats := domain.RegressionStats{
		Slope:      ToFloat(row["slope"]),
		Intercept:  ToFloat(row["intercept"]),
		RSquared:   ToFloat(row["r_squared"]),
		SampleSize: ToInt64(row["sample_size"]),
	}
	if stats.Slope != nil && stats.Intercept != nil {
		stats.Equation = regressionEquation(*stats.Slope, *stats.Intercept)
	}
	return stats
}

// regressionEquation renders the fitted line, folding the intercept sign
// into the operator ("y = 3.00x - 5.00", never "y = 3.00x + -5.00").
func regressionEquation(slope, intercept float64) string {
	if intercept < 0 {
		return fmt.Sprintf("y = %.2fx - %.2f", slope, -intercept)
	}
	return fmt.Sprintf("y = %.2fx + %.2f", slope, intercept)
}

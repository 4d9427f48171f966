package analysis

import (
	"context"
	"fmt"
	"math"

	domain "statquery/domain/analysis"
	"statquery/internal/request"
	"statquery/ports"
)

// CorrelationHandler delegates Pearson correlation to the data source's
// CORR aggregate and interprets the magnitude.
type CorrelationHandler struct {
	handlerBase
}

// NewCorrelationHandler creates a correlation handler
func NewCorrelationHandler(exec ports.QueryExecutor) *CorrelationHandler {
	return &CorrelationHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a correlation analysis.
func (h *CorrelationHandler) Run(ctx context.Context, raw map[string]any) (*domain.CorrelationReport, error) {
	req, err := request.Normalize(domain.KindCorrelation, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.Column); err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.ColumnY); err != nil {
		return nil, err
	}

	report := &domain.CorrelationReport{Table: req.Table, ColumnX: req.Column, ColumnY: req.ColumnY}
	colX := quoteIdent(req.Column)
	colY := quoteIdent(req.ColumnY)
	aggregates := fmt.Sprintf("CORR(%s, %s) AS coefficient, COUNT(*) AS sample_size", colX, colY)
	bothPresent := fmt.Sprintf("%s IS NOT NULL AND %s IS NOT NULL", colX, colY)

	if req.GroupBy == "" {
		query := fmt.Sprintf("SELECT %s FROM %s%s", aggregates, tableRef(req), whereClause(bothPresent, req.Where))
		result, err := h.exec.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		if result.RowCount > 0 {
			stats := shapeCorrelationRow(result.Rows[0])
			report.Stats = &stats
		}
		return report, nil
	}

	if err := h.schema.ValidateColumnExists(ctx, req.Schema, req.Table, req.GroupBy); err != nil {
		return nil, err
	}
	groupCol := quoteIdent(req.GroupBy)
	query := fmt.Sprintf("SELECT %s AS group_key, %s FROM %s%s GROUP BY %s",
		groupCol, aggregates, tableRef(req), whereClause(bothPresent, req.Where), groupCol)
	result, err := h.exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, row := range result.Rows {
		report.Groups = append(report.Groups, domain.Grouped[domain.CorrelationStats]{
			GroupKey: GroupKey(row["group_key"]),
			Result:   shapeCorrelationRow(row),
		})
	}
	return report, nil
}

func shapeCorrelationRow(row map[string]any) domain.CorrelationStats {
	coefficient := ToFloat(row["coefficient"])
	return domain.CorrelationStats{
		Coefficient:    coefficient,
		SampleSize:     ToInt64(row["sample_size"]),
		Interpretation: interpretCorrelation(coefficient),
	}
}

// interpretCorrelation maps the coefficient magnitude onto strength bands
// with sign-aware wording.
func interpretCorrelation(r *float64) string {
	if r == nil {
		return "no correlation (insufficient data)"
	}

	magnitude := math.Abs(*r)
	var strength string
	switch {
	case magnitude >= 0.9:
		strength = "very strong"
	case magnitude >= 0.7:
		strength = "strong"
	case magnitude >= 0.5:
		strength = "moderate"
	case magnitude >= 0.3:
		strength = "weak"
	default:
		strength = "very weak"
	}

	direction := "positive"
	if *r < 0 {
		direction = "negative"
	}
	return fmt.Sprintf("%s %s correlation", strength, direction)
}

package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	domain "statquery/domain/analysis"
	"statquery/internal/numerics"
	"statquery/internal/request"
	"statquery/ports"
)

// HypothesisHandler runs a one-sample t-test or z-test against a
// hypothesized mean. The sample aggregates come from one query; the p-value
// is computed here because the data source has no distribution functions.
type HypothesisHandler struct {
	handlerBase
}

// NewHypothesisHandler creates a hypothesis test handler
func NewHypothesisHandler(exec ports.QueryExecutor) *HypothesisHandler {
	return &HypothesisHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a hypothesis test.
func (h *HypothesisHandler) Run(ctx context.Context, raw map[string]any) (*domain.HypothesisReport, error) {
	req, err := request.Normalize(domain.KindHypothesis, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.Column); err != nil {
		return nil, err
	}

	report := &domain.HypothesisReport{Table: req.Table, Column: req.Column}
	col := quoteIdent(req.Column)
	aggregates := fmt.Sprintf(
		"COUNT(%[1]s) AS sample_size, AVG(%[1]s) AS sample_mean, STDDEV(%[1]s) AS sample_std_dev", col)

	if req.GroupBy == "" {
		query := fmt.Sprintf("SELECT %s FROM %s%s", aggregates, tableRef(req), whereClause(req.Where))
		result, err := h.exec.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		var row map[string]any
		if result.RowCount > 0 {
			row = result.Rows[0]
		}
		testResult := computeHypothesisResult(req, row)
		report.Result = &testResult
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
	// Per-group computation errors stay inline so one degenerate group does
	// not abort the whole request.
	for _, row := range result.Rows {
		report.Groups = append(report.Groups, domain.Grouped[domain.HypothesisResult]{
			GroupKey: GroupKey(row["group_key"]),
			Result:   computeHypothesisResult(req, row),
		})
	}
	return report, nil
}

// computeHypothesisResult turns one row of sample aggregates into a test
// outcome. Insufficient data and zero variance are legitimate analytical
// outcomes returned inline, not raised as errors.
func computeHypothesisResult(req *domain.Request, row map[string]any) domain.HypothesisResult {
	out := domain.HypothesisResult{
		TestType:         req.TestType,
		HypothesizedMean: req.HypothesizedMean,
		PopulationStdDev: req.PopulationStdDev,
	}

	n := ToInt64(row["sample_size"])
	out.SampleSize = n
	if n < 2 {
		out.Error = "Insufficient sample size: need at least 2 non-null values"
		return out
	}

	mean := ToFloat(row["sample_mean"])
	stdDev := ToFloat(row["sample_std_dev"])
	if mean == nil || stdDev == nil {
		out.Error = "Insufficient sample size: need at least 2 non-null values"
		return out
	}
	out.SampleMean = *mean
	out.SampleStdDev = *stdDev
	if *stdDev == 0 {
		out.Error = "Zero variance in sample; test statistic is undefined"
		return out
	}

	var notes []string
	stdDevUsed := *stdDev
	if req.TestType == "z_test" {
		if req.PopulationStdDev != nil {
			stdDevUsed = *req.PopulationStdDev
		} else {
			notes = append(notes, "Population standard deviation not provided; using sample standard deviation (reduced accuracy)")
		}
	}

	out.StandardError = stdDevUsed / math.Sqrt(float64(n))
	out.TestStatistic = (out.SampleMean - req.HypothesizedMean) / out.StandardError

	if req.TestType == "t_test" {
		df := n - 1
		out.DegreesOfFreedom = &df
		out.PValue = numerics.TTestPValue(out.TestStatistic, float64(df))
	} else {
		out.PValue = numerics.ZTestPValue(out.TestStatistic)
	}
	out.Interpretation = fmt.Sprintf("Result is %s (p = %.6f)", significanceBand(out.PValue), out.PValue)

	if n < 30 {
		notes = append(notes, "Small sample size (n < 30); results may be unreliable")
	}
	out.Note = strings.Join(notes, "; ")
	return out
}

// significanceBand maps a p-value onto the conventional significance
// wording. The thresholds and strings are a user-facing contract.
func significanceBand(p float64) string {
	switch {
	case p < 0.001:
		return "highly significant"
	case p < 0.01:
		return "very significant"
	case p < 0.05:
		return "significant"
	case p < 0.1:
		return "marginally significant"
	default:
		return "not significant"
	}
}

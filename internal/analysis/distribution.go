package analysis

import (
	"context"
	"fmt"

	domain "statquery/domain/analysis"
	"statquery/internal/request"
	"statquery/ports"
)

const noDataError = "No data or all nulls in column"

// DistributionHandler computes distribution shape (moments plus an
// equal-width histogram) for one numeric column. Per-group analysis
// re-queries once per distinct group key, because each group needs its own
// exact min/max bounds for binning.
type DistributionHandler struct {
	handlerBase
}

// NewDistributionHandler creates a distribution handler
func NewDistributionHandler(exec ports.QueryExecutor) *DistributionHandler {
	return &DistributionHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a distribution analysis.
func (h *DistributionHandler) Run(ctx context.Context, raw map[string]any) (*domain.DistributionReport, error) {
	req, err := request.Normalize(domain.KindDistribution, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.Column); err != nil {
		return nil, err
	}

	report := &domain.DistributionReport{Table: req.Table, Column: req.Column, NumBuckets: req.NumBuckets}

	if req.GroupBy == "" {
		stats, err := h.analyzeSlice(ctx, req, "", nil)
		if err != nil {
			return nil, err
		}
		report.Stats = &stats
		return report, nil
	}

	if err := h.schema.ValidateColumnExists(ctx, req.Schema, req.Table, req.GroupBy); err != nil {
		return nil, err
	}
	keys, err := h.distinctGroupKeys(ctx, req)
	if err != nil {
		return nil, err
	}
	groupCol := quoteIdent(req.GroupBy)
	for _, key := range keys {
		stats, err := h.analyzeSlice(ctx, req, fmt.Sprintf("%s = $1", groupCol), []any{key})
		if err != nil {
			return nil, err
		}
		report.Groups = append(report.Groups, domain.Grouped[domain.DistributionStats]{
			GroupKey: GroupKey(key),
			Result:   stats,
		})
	}
	return report, nil
}

// analyzeSlice runs the full distribution analysis over one slice of the
// table: the whole table, or a single group.
func (h *DistributionHandler) analyzeSlice(ctx context.Context, req *domain.Request, slicePredicate string, sliceArgs []any) (domain.DistributionStats, error) {
	col := quoteIdent(req.Column)
	where := whereClause(slicePredicate, req.Where)

	query := fmt.Sprintf(
		"SELECT MIN(%[1]s) AS min_val, MAX(%[1]s) AS max_val, AVG(%[1]s) AS mean, "+
			"STDDEV_POP(%[1]s) AS std_dev, COUNT(%[1]s) AS sample_size FROM %[2]s%[3]s",
		col, tableRef(req), where)
	result, err := h.exec.Execute(ctx, query, sliceArgs...)
	if err != nil {
		return domain.DistributionStats{}, err
	}

	var row map[string]any
	if result.RowCount > 0 {
		row = result.Rows[0]
	}
	stats := domain.DistributionStats{}
	if row != nil {
		stats.SampleSize = ToInt64(row["sample_size"])
	}

	minVal := ToFloat(row["min_val"])
	maxVal := ToFloat(row["max_val"])
	if stats.SampleSize == 0 || minVal == nil || maxVal == nil {
		stats.Error = noDataError
		return stats, nil
	}

	moments := domain.MomentSummary{
		MinVal: minVal,
		MaxVal: maxVal,
		Mean:   ToFloat(row["mean"]),
		StdDev: ToFloat(row["std_dev"]),
	}

	// Standardized moments need sigma > 0 and enough observations: n > 2 for
	// skewness, n > 3 for kurtosis.
	n := stats.SampleSize
	if moments.Mean != nil && moments.StdDev != nil && *moments.StdDev > 0 && n > 2 {
		skew, kurt, err := h.standardizedMoments(ctx, req, where, sliceArgs, *moments.Mean, *moments.StdDev)
		if err != nil {
			return domain.DistributionStats{}, err
		}
		moments.Skewness = skew
		if n > 3 {
			moments.Kurtosis = kurt
		}
	}
	stats.Moments = &moments

	histogram, err := h.histogram(ctx, req, slicePredicate, sliceArgs, *minVal, *maxVal)
	if err != nil {
		return domain.DistributionStats{}, err
	}
	stats.Histogram = histogram
	return stats, nil
}

// standardizedMoments computes skewness and excess kurtosis with a second
// aggregate query, plugging the already-computed mean and sigma in as
// parameters.
func (h *DistributionHandler) standardizedMoments(ctx context.Context, req *domain.Request, where string, sliceArgs []any, mean, sigma float64) (*float64, *float64, error) {
	col := quoteIdent(req.Column)
	meanParam := fmt.Sprintf("$%d", len(sliceArgs)+1)
	sigmaParam := fmt.Sprintf("$%d", len(sliceArgs)+2)
	query := fmt.Sprintf(
		"SELECT AVG(POWER((%[1]s - %[2]s) / %[3]s, 3)) AS skewness, "+
			"AVG(POWER((%[1]s - %[2]s) / %[3]s, 4)) - 3 AS kurtosis FROM %[4]s%[5]s",
		col, meanParam, sigmaParam, tableRef(req), where)

	args := append(append([]any{}, sliceArgs...), mean, sigma)
	result, err := h.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	if result.RowCount == 0 {
		return nil, nil, nil
	}
	return ToFloat(result.Rows[0]["skewness"]), ToFloat(result.Rows[0]["kurtosis"]), nil
}

// histogram bins the column into equal-width buckets spanning
// [min, max + epsilon]; the epsilon keeps the max value inside the last bin.
func (h *DistributionHandler) histogram(ctx context.Context, req *domain.Request, slicePredicate string, sliceArgs []any, minVal, maxVal float64) ([]domain.HistogramBin, error) {
	span := maxVal - minVal
	epsilon := span * 1e-9
	if span == 0 {
		epsilon = 1
	}
	upper := maxVal + epsilon

	col := quoteIdent(req.Column)
	where := whereClause(slicePredicate, fmt.Sprintf("%s IS NOT NULL", col), req.Where)
	p := len(sliceArgs)
	query := fmt.Sprintf(
		"SELECT WIDTH_BUCKET(%s, $%d, $%d, $%d) AS bucket, COUNT(*) AS frequency FROM %s%s GROUP BY 1 ORDER BY 1",
		col, p+1, p+2, p+3, tableRef(req), where)

	args := append(append([]any{}, sliceArgs...), minVal, upper, req.NumBuckets)
	result, err := h.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	frequencies := map[int]int64{}
	for _, row := range result.Rows {
		frequencies[int(ToInt64(row["bucket"]))] = ToInt64(row["frequency"])
	}

	width := (upper - minVal) / float64(req.NumBuckets)
	bins := make([]domain.HistogramBin, req.NumBuckets)
	for i := range bins {
		bucket := i + 1
		bins[i] = domain.HistogramBin{
			Bucket:    bucket,
			Frequency: frequencies[bucket],
			RangeMin:  minVal + float64(i)*width,
			RangeMax:  minVal + float64(bucket)*width,
		}
	}
	return bins, nil
}

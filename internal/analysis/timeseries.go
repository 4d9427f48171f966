package analysis

import (
	"context"
	"fmt"

	domain "statquery/domain/analysis"
	"statquery/internal/request"
	"statquery/ports"
)

// TimeSeriesHandler buckets a temporal column with DATE_TRUNC and aggregates
// a value column per bucket.
type TimeSeriesHandler struct {
	handlerBase
}

// NewTimeSeriesHandler creates a time-series handler
func NewTimeSeriesHandler(exec ports.QueryExecutor) *TimeSeriesHandler {
	return &TimeSeriesHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a time-series analysis.
func (h *TimeSeriesHandler) Run(ctx context.Context, raw map[string]any) (*domain.TimeSeriesReport, error) {
	req, err := request.Normalize(domain.KindTimeSeries, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateTemporalColumn(ctx, req.Schema, req.Table, req.TimeColumn); err != nil {
		return nil, err
	}
	if req.Column != "" {
		if err := h.schema.ValidateNumericColumn(ctx, req.Schema, req.Table, req.Column); err != nil {
			return nil, err
		}
	}

	report := &domain.TimeSeriesReport{
		Table:       req.Table,
		TimeColumn:  req.TimeColumn,
		Column:      req.Column,
		Interval:    req.Interval,
		Aggregation: req.Aggregation,
	}

	// The canonical interval is one of a fixed unit set, so interpolating it
	// into DATE_TRUNC is safe.
	bucketExpr := fmt.Sprintf("DATE_TRUNC('%s', %s)", req.Interval, quoteIdent(req.TimeColumn))
	valueExpr := aggregateExpr(req.Aggregation, req.Column)

	// nil limit means the default cap; an explicit 0 means unlimited.
	limit := domain.DefaultLimit
	implicitLimit := req.Limit == nil
	if req.Limit != nil {
		limit = *req.Limit
	}
	limitClause := ""
	if limit > 0 {
		limitClause = fmt.Sprintf(" LIMIT %d", limit)
	}

	if req.GroupBy == "" {
		query := fmt.Sprintf(
			"SELECT %s AS time_bucket, %s AS value, COUNT(*) AS bucket_count FROM %s%s GROUP BY 1 ORDER BY 1%s",
			bucketExpr, valueExpr, tableRef(req), whereClause(req.Where), limitClause)
		result, err := h.exec.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		report.Buckets = shapeBuckets(result.Rows)

		// Report truncation only when the implicit default cap was hit.
		if implicitLimit && len(report.Buckets) == domain.DefaultLimit {
			total, err := h.countBuckets(ctx, req, bucketExpr)
			if err != nil {
				return nil, err
			}
			report.Truncated = true
			report.TotalBuckets = &total
			report.Note = fmt.Sprintf("Result truncated to the default limit of %d buckets; pass limit=0 for all buckets", domain.DefaultLimit)
		}
		return report, nil
	}

	if err := h.schema.ValidateColumnExists(ctx, req.Schema, req.Table, req.GroupBy); err != nil {
		return nil, err
	}
	groupCol := quoteIdent(req.GroupBy)
	query := fmt.Sprintf(
		"SELECT %s AS group_key, %s AS time_bucket, %s AS value, COUNT(*) AS bucket_count FROM %s%s GROUP BY 1, 2 ORDER BY 2%s",
		groupCol, bucketExpr, valueExpr, tableRef(req), whereClause(req.Where), limitClause)
	result, err := h.exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	// Partition client-side, preserving first-occurrence order of group keys.
	index := map[any]int{}
	for _, row := range result.Rows {
		key := GroupKey(row["group_key"])
		i, seen := index[key]
		if !seen {
			i = len(report.Groups)
			index[key] = i
			report.Groups = append(report.Groups, domain.Grouped[[]domain.Bucket]{GroupKey: key})
		}
		if bucket, ok := shapeBucket(row); ok {
			report.Groups[i].Result = append(report.Groups[i].Result, bucket)
		}
	}
	return report, nil
}

// countBuckets counts the distinct buckets the query would produce without a
// limit, for truncation reporting.
func (h *TimeSeriesHandler) countBuckets(ctx context.Context, req *domain.Request, bucketExpr string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(DISTINCT %s) AS total FROM %s%s", bucketExpr, tableRef(req), whereClause(req.Where))
	result, err := h.exec.Execute(ctx, query)
	if err != nil {
		return 0, err
	}
	if result.RowCount == 0 {
		return 0, nil
	}
	return ToInt64(result.Rows[0]["total"]), nil
}

func shapeBuckets(rows []map[string]any) []domain.Bucket {
	out := make([]domain.Bucket, 0, len(rows))
	for _, row := range rows {
		if bucket, ok := shapeBucket(row); ok {
			out = append(out, bucket)
		}
	}
	return out
}

func shapeBucket(row map[string]any) (domain.Bucket, bool) {
	ts, ok := ToTime(row["time_bucket"])
	if !ok {
		return domain.Bucket{}, false
	}
	return domain.Bucket{
		TimeBucket: ts,
		Value:      ToFloat(row["value"]),
		Count:      ToInt64(row["bucket_count"]),
	}, true
}

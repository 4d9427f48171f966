package analysis

import (
	"context"
	"fmt"
	"strings"

	domain "statquery/domain/analysis"
	"statquery/internal/request"
	"statquery/ports"
)

// SamplingHandler returns a random subset of rows, either with an exact
// count (ORDER BY RANDOM) or an approximate percentage (TABLESAMPLE).
type SamplingHandler struct {
	handlerBase
}

// NewSamplingHandler creates a sampling handler
func NewSamplingHandler(exec ports.QueryExecutor) *SamplingHandler {
	return &SamplingHandler{newHandlerBase(exec)}
}

// Run normalizes, validates and executes a sampling request.
func (h *SamplingHandler) Run(ctx context.Context, raw map[string]any) (*domain.SamplingReport, error) {
	req, err := request.Normalize(domain.KindSampling, raw)
	if err != nil {
		return nil, err
	}
	if err := h.schema.ValidateTableExists(ctx, req.Schema, req.Table); err != nil {
		return nil, err
	}

	report := &domain.SamplingReport{Table: req.Table, Method: req.Method}

	if req.GroupBy == "" {
		sample, err := h.sampleSlice(ctx, req, report, "", nil)
		if err != nil {
			return nil, err
		}
		report.Sample = sample
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
		sample, err := h.sampleSlice(ctx, req, report, fmt.Sprintf("%s = $1", groupCol), []any{key})
		if err != nil {
			return nil, err
		}
		report.Groups = append(report.Groups, domain.Grouped[domain.SampleSet]{
			GroupKey: GroupKey(key),
			Result:   *sample,
		})
	}
	return report, nil
}

// sampleSlice samples one slice of the table (whole table or one group) and
// records the sampling policy note on the report.
func (h *SamplingHandler) sampleSlice(ctx context.Context, req *domain.Request, report *domain.SamplingReport, slicePredicate string, sliceArgs []any) (*domain.SampleSet, error) {
	projection := "*"
	if len(req.Columns) > 0 {
		quoted := make([]string, len(req.Columns))
		for i, c := range req.Columns {
			quoted[i] = quoteIdent(c)
		}
		projection = strings.Join(quoted, ", ")
	}

	var query string
	switch {
	case req.SampleSize != nil:
		// An exact count was requested. Percentage-based TABLESAMPLE methods
		// cannot guarantee exact counts, so random ordering always wins here.
		if req.Method != "random" {
			report.Note = fmt.Sprintf("Requested method %q ignored: an exact sample size requires random ordering, TABLESAMPLE counts are approximate", req.Method)
			report.Method = "random"
		} else {
			report.Note = "Returning an exact sample via random ordering"
		}
		query = fmt.Sprintf("SELECT %s FROM %s%s ORDER BY RANDOM() LIMIT %d",
			projection, tableRef(req), whereClause(slicePredicate, req.Where), *req.SampleSize)

	case req.Method == "bernoulli" || req.Method == "system":
		percentage := domain.DefaultSamplePercentage
		if req.Percentage != nil {
			percentage = *req.Percentage
		}
		report.Note = fmt.Sprintf("TABLESAMPLE %s(%g) returns an approximate fraction of rows, not an exact count", strings.ToUpper(req.Method), percentage)
		query = fmt.Sprintf("SELECT %s FROM %s TABLESAMPLE %s(%g)%s",
			projection, tableRef(req), strings.ToUpper(req.Method), percentage, whereClause(slicePredicate, req.Where))

	default:
		report.Note = fmt.Sprintf("No sample size given; returning up to %d rows", domain.DefaultLimit)
		query = fmt.Sprintf("SELECT %s FROM %s%s ORDER BY RANDOM() LIMIT %d",
			projection, tableRef(req), whereClause(slicePredicate, req.Where), domain.DefaultLimit)
	}

	result, err := h.exec.Execute(ctx, query, sliceArgs...)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, len(result.Rows))
	for i, row := range result.Rows {
		shaped := make(map[string]any, len(row))
		for k, v := range row {
			shaped[k] = GroupKey(v)
		}
		rows[i] = shaped
	}
	return &domain.SampleSet{Rows: rows, RowCount: len(rows)}, nil
}

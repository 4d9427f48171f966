package request

import (
	"fmt"
	"strconv"
	"strings"

	"statquery/domain/analysis"
	"statquery/domain/core"
)

// Canonical field keys. Alias tables below map every accepted synonym onto
// one of these, which keeps the synonym set auditable in one place.
const (
	fieldTable            = "table"
	fieldSchema           = "schema"
	fieldColumn           = "column"
	fieldColumnY          = "column_y"
	fieldWhere            = "where"
	fieldGroupBy          = "group_by"
	fieldTimeColumn       = "time_column"
	fieldInterval         = "interval"
	fieldAggregation      = "aggregation"
	fieldLimit            = "limit"
	fieldPercentiles      = "percentiles"
	fieldNumBuckets       = "num_buckets"
	fieldTestType         = "test_type"
	fieldHypothesizedMean = "hypothesized_mean"
	fieldPopulationStdDev = "population_std_dev"
	fieldSampleSize       = "sample_size"
	fieldMethod           = "method"
	fieldPercentage       = "percentage"
	fieldColumns          = "columns"
)

// commonAliases apply to every analysis kind.
var commonAliases = map[string]string{
	"table":     fieldTable,
	"tableName": fieldTable,
	"table_name": fieldTable,
	"schema":    fieldSchema,
	"where":     fieldWhere,
	"filter":    fieldWhere,
	"groupBy":   fieldGroupBy,
	"group_by":  fieldGroupBy,
	"group":     fieldGroupBy,
}

// columnAliases name the single target column.
var columnAliases = map[string]string{
	"column":      fieldColumn,
	"col":         fieldColumn,
	"columnName":  fieldColumn,
	"column_name": fieldColumn,
}

var kindAliases = map[analysis.Kind]map[string]string{
	analysis.KindDescriptive: columnAliases,
	analysis.KindPercentiles: merge(columnAliases, map[string]string{
		"percentiles": fieldPercentiles,
		"quantiles":   fieldPercentiles,
	}),
	analysis.KindCorrelation: {
		"column":   fieldColumn,
		"columnX":  fieldColumn,
		"column_x": fieldColumn,
		"col1":     fieldColumn,
		"x":        fieldColumn,
		"columnY":  fieldColumnY,
		"column_y": fieldColumnY,
		"col2":     fieldColumnY,
		"y":        fieldColumnY,
	},
	analysis.KindRegression: {
		"column":      fieldColumn,
		"columnX":     fieldColumn,
		"column_x":    fieldColumn,
		"independent": fieldColumn,
		"x":           fieldColumn,
		"columnY":     fieldColumnY,
		"column_y":    fieldColumnY,
		"dependent":   fieldColumnY,
		"y":           fieldColumnY,
	},
	analysis.KindTimeSeries: merge(columnAliases, map[string]string{
		"value":       fieldColumn,
		"timeColumn":  fieldTimeColumn,
		"time_column": fieldTimeColumn,
		"time":        fieldTimeColumn,
		"timestamp":   fieldTimeColumn,
		"interval":    fieldInterval,
		"bucket":      fieldInterval,
		"aggregation": fieldAggregation,
		"agg":         fieldAggregation,
		"fn":          fieldAggregation,
		"limit":       fieldLimit,
	}),
	analysis.KindDistribution: merge(columnAliases, map[string]string{
		"numBuckets":  fieldNumBuckets,
		"num_buckets": fieldNumBuckets,
		"buckets":     fieldNumBuckets,
		"bins":        fieldNumBuckets,
	}),
	analysis.KindHypothesis: merge(columnAliases, map[string]string{
		"testType":           fieldTestType,
		"test_type":          fieldTestType,
		"test":               fieldTestType,
		"hypothesizedMean":   fieldHypothesizedMean,
		"hypothesized_mean":  fieldHypothesizedMean,
		"mean":               fieldHypothesizedMean,
		"expected":           fieldHypothesizedMean,
		"mu":                 fieldHypothesizedMean,
		"populationStdDev":   fieldPopulationStdDev,
		"population_std_dev": fieldPopulationStdDev,
		"sigma":              fieldPopulationStdDev,
	}),
	analysis.KindSampling: {
		"columns":     fieldColumns,
		"select":      fieldColumns,
		"sampleSize":  fieldSampleSize,
		"sample_size": fieldSampleSize,
		"size":        fieldSampleSize,
		"n":           fieldSampleSize,
		"method":      fieldMethod,
		"percentage":  fieldPercentage,
		"percent":     fieldPercentage,
	},
}

func merge(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Normalize absorbs caller sloppiness and produces a canonical, fully typed
// request, or a validation error naming the missing/invalid field.
func Normalize(kind analysis.Kind, raw map[string]any) (*analysis.Request, error) {
	fields := resolveAliases(kind, raw)

	req := &analysis.Request{Kind: kind}
	req.Table = asString(fields[fieldTable])
	if req.Table == "" {
		return nil, core.NewMissingFieldError("table")
	}
	req.Schema = asString(fields[fieldSchema])

	// An embedded schema.table identifier wins over an explicit schema field.
	if before, after, found := strings.Cut(req.Table, "."); found {
		req.Schema = before
		req.Table = after
		if req.Table == "" {
			return nil, core.NewValidationError("table", "empty table name after schema split")
		}
	}
	if req.Schema == "" {
		req.Schema = "public"
	}

	req.Where = asString(fields[fieldWhere])
	req.GroupBy = asString(fields[fieldGroupBy])
	req.Column = asString(fields[fieldColumn])
	req.ColumnY = asString(fields[fieldColumnY])

	switch kind {
	case analysis.KindDescriptive:
		if req.Column == "" {
			return nil, core.NewMissingFieldError("column")
		}

	case analysis.KindPercentiles:
		if req.Column == "" {
			return nil, core.NewMissingFieldError("column")
		}
		pcts, err := asFloatSlice(fields[fieldPercentiles])
		if err != nil {
			return nil, core.NewValidationError("percentiles", err.Error())
		}
		if len(pcts) == 0 {
			pcts = []float64{25, 50, 75, 90, 95, 99}
		}
		for _, p := range pcts {
			if p <= 0 || p >= 100 {
				return nil, core.NewValidationError("percentiles", fmt.Sprintf("percentile %v out of range (0, 100)", p))
			}
		}
		req.Percentiles = pcts

	case analysis.KindCorrelation, analysis.KindRegression:
		if req.Column == "" {
			return nil, core.NewMissingFieldError("column_x")
		}
		if req.ColumnY == "" {
			return nil, core.NewMissingFieldError("column_y")
		}

	case analysis.KindTimeSeries:
		req.TimeColumn = asString(fields[fieldTimeColumn])
		if req.TimeColumn == "" {
			return nil, core.NewMissingFieldError("time_column")
		}
		interval, err := CanonicalInterval(asString(fields[fieldInterval]))
		if err != nil {
			return nil, err
		}
		req.Interval = interval
		agg, err := canonicalAggregation(asString(fields[fieldAggregation]), req.Column)
		if err != nil {
			return nil, err
		}
		req.Aggregation = agg
		if agg != "count" && req.Column == "" {
			return nil, core.NewMissingFieldError("column")
		}
		if v, ok := fields[fieldLimit]; ok {
			limit, err := asInt(v)
			if err != nil {
				return nil, core.NewValidationError("limit", err.Error())
			}
			if limit < 0 {
				return nil, core.NewValidationError("limit", "must not be negative")
			}
			req.Limit = &limit
		}

	case analysis.KindDistribution:
		if req.Column == "" {
			return nil, core.NewMissingFieldError("column")
		}
		req.NumBuckets = analysis.DefaultBucketCount
		if v, ok := fields[fieldNumBuckets]; ok {
			n, err := asInt(v)
			if err != nil {
				return nil, core.NewValidationError("num_buckets", err.Error())
			}
			if n < 1 {
				return nil, core.NewValidationError("num_buckets", "must be at least 1")
			}
			req.NumBuckets = n
		}

	case analysis.KindHypothesis:
		if req.Column == "" {
			return nil, core.NewMissingFieldError("column")
		}
		if v, ok := fields[fieldPopulationStdDev]; ok {
			sigma, err := asFloat(v)
			if err != nil {
				return nil, core.NewValidationError("population_std_dev", err.Error())
			}
			if sigma <= 0 {
				return nil, core.NewValidationError("population_std_dev", "must be positive")
			}
			req.PopulationStdDev = &sigma
		}
		testType, err := CanonicalTestType(asString(fields[fieldTestType]), req.PopulationStdDev != nil)
		if err != nil {
			return nil, err
		}
		req.TestType = testType
		// 0 is a legal hypothesized mean; only a truly absent field defaults.
		if v, ok := fields[fieldHypothesizedMean]; ok {
			mean, err := asFloat(v)
			if err != nil {
				return nil, core.NewValidationError("hypothesized_mean", err.Error())
			}
			req.HypothesizedMean = mean
		}

	case analysis.KindSampling:
		req.Columns = asStringSlice(fields[fieldColumns])
		method, err := canonicalSamplingMethod(asString(fields[fieldMethod]))
		if err != nil {
			return nil, err
		}
		req.Method = method
		if v, ok := fields[fieldSampleSize]; ok {
			size, err := asInt(v)
			if err != nil {
				return nil, core.NewValidationError("sample_size", err.Error())
			}
			if size < 1 {
				return nil, core.NewValidationError("sample_size", "must be at least 1")
			}
			req.SampleSize = &size
		}
		if v, ok := fields[fieldPercentage]; ok {
			pct, err := asFloat(v)
			if err != nil {
				return nil, core.NewValidationError("percentage", err.Error())
			}
			if pct <= 0 || pct > 100 {
				return nil, core.NewValidationError("percentage", "must be in (0, 100]")
			}
			req.Percentage = &pct
		}

	default:
		return nil, core.NewValidationError("kind", fmt.Sprintf("unknown analysis kind %q", kind))
	}

	return req, nil
}

// resolveAliases folds synonym keys onto canonical ones. A value already
// present under the canonical key is never overwritten by a synonym.
func resolveAliases(kind analysis.Kind, raw map[string]any) map[string]any {
	aliases := merge(commonAliases, kindAliases[kind])
	out := map[string]any{}

	// canonical keys first
	for key, value := range raw {
		if canonical, ok := aliases[key]; ok && canonical == key && value != nil {
			out[key] = value
		}
	}
	for key, value := range raw {
		canonical, ok := aliases[key]
		if !ok || value == nil {
			continue
		}
		if _, taken := out[canonical]; !taken {
			out[canonical] = value
		}
	}
	return out
}

var intervalShorthand = map[string]string{
	"secondly": "second",
	"minutely": "minute",
	"hourly":   "hour",
	"daily":    "day",
	"weekly":   "week",
	"monthly":  "month",
	"yearly":   "year",
	"annually": "year",
}

var validIntervals = map[string]bool{
	"second": true,
	"minute": true,
	"hour":   true,
	"day":    true,
	"week":   true,
	"month":  true,
	"year":   true,
}

// CanonicalInterval folds a loosely specified bucket interval onto one of
// the supported DATE_TRUNC units. Accepts shorthand ("daily"), PostgreSQL
// style phrases ("2 hours", "1 day") and plural forms; defaults to "day".
func CanonicalInterval(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "day", nil
	}
	if unit, ok := intervalShorthand[s]; ok {
		return unit, nil
	}

	// strip a leading multiplier: "2 hours" -> "hours"
	if parts := strings.Fields(s); len(parts) == 2 {
		if _, err := strconv.Atoi(parts[0]); err == nil {
			s = parts[1]
		}
	}
	if len(s) > 1 {
		s = strings.TrimSuffix(s, "s")
	}

	if validIntervals[s] {
		return s, nil
	}
	return "", core.NewValidationError("interval", fmt.Sprintf("unsupported interval %q (valid units: second, minute, hour, day, week, month, year)", raw))
}

// CanonicalTestType folds testType synonyms onto "t_test"/"z_test". When the
// caller did not choose, a supplied population standard deviation selects the
// z-test, otherwise the t-test.
func CanonicalTestType(raw string, hasPopulationStdDev bool) (string, error) {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch s {
	case "":
		if hasPopulationStdDev {
			return "z_test", nil
		}
		return "t_test", nil
	case "t", "ttest", "t_test":
		return "t_test", nil
	case "z", "ztest", "z_test":
		return "z_test", nil
	}
	return "", core.NewValidationError("test_type", fmt.Sprintf("unsupported test type %q (use t_test or z_test)", raw))
}

var validAggregations = map[string]bool{
	"sum":   true,
	"avg":   true,
	"min":   true,
	"max":   true,
	"count": true,
}

func canonicalAggregation(raw, column string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		if column == "" {
			return "count", nil
		}
		return "avg", nil
	}
	if s == "average" || s == "mean" {
		s = "avg"
	}
	if validAggregations[s] {
		return s, nil
	}
	return "", core.NewValidationError("aggregation", fmt.Sprintf("unsupported aggregation %q (valid: sum, avg, min, max, count)", raw))
}

func canonicalSamplingMethod(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return "random", nil
	case "random", "bernoulli", "system":
		return s, nil
	}
	return "", core.NewValidationError("method", fmt.Sprintf("unsupported sampling method %q (valid: random, bernoulli, system)", raw))
}

// Loose value coercion helpers. Callers hand us JSON-ish maps, so values may
// be float64, int, json.Number-like strings, or real strings.

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot interpret %T as a number", v)
}

func asInt(v any) (int, error) {
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("expected an integer, got %v", f)
	}
	return n, nil
}

func asFloatSlice(v any) ([]float64, error) {
	if v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []float64:
		return list, nil
	case []any:
		out := make([]float64, 0, len(list))
		for _, item := range list {
			f, err := asFloat(item)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	case string:
		// shorthand enumeration: "25,50,75"
		var out []float64
		for _, part := range strings.Split(list, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as a number", part)
			}
			out = append(out, f)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot interpret %T as a numeric list", v)
}

func asStringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(list, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

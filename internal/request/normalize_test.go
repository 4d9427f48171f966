package request

import (
	"testing"

	"statquery/domain/analysis"
	"statquery/domain/core"
)

func TestNormalizeRequiresTable(t *testing.T) {
	_, err := Normalize(analysis.KindDescriptive, map[string]any{"column": "value"})
	if err == nil {
		t.Fatal("expected an error for a request without a table")
	}
	if !core.IsValidationError(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestNormalizeTableAliases(t *testing.T) {
	for _, key := range []string{"table", "tableName", "table_name"} {
		req, err := Normalize(analysis.KindDescriptive, map[string]any{key: "orders", "col": "total"})
		if err != nil {
			t.Fatalf("alias %q: %v", key, err)
		}
		if req.Table != "orders" {
			t.Fatalf("alias %q: table = %q, want orders", key, req.Table)
		}
	}
}

func TestNormalizeEmbeddedSchemaWins(t *testing.T) {
	req, err := Normalize(analysis.KindDescriptive, map[string]any{
		"table":  "sales.orders",
		"schema": "public",
		"column": "total",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Schema != "sales" || req.Table != "orders" {
		t.Fatalf("got %s.%s, want sales.orders", req.Schema, req.Table)
	}
}

func TestNormalizeDefaultSchema(t *testing.T) {
	req, err := Normalize(analysis.KindDescriptive, map[string]any{"table": "orders", "column": "total"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Schema != "public" {
		t.Fatalf("schema = %q, want public", req.Schema)
	}
}

func TestNormalizeFilterAlias(t *testing.T) {
	req, err := Normalize(analysis.KindDescriptive, map[string]any{
		"table":  "orders",
		"column": "total",
		"filter": "status = 'paid'",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Where != "status = 'paid'" {
		t.Fatalf("where = %q", req.Where)
	}
}

func TestCanonicalInterval(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "day"},
		{"day", "day"},
		{"DAY", "day"},
		{"days", "day"},
		{"daily", "day"},
		{"1 day", "day"},
		{"2 hours", "hour"},
		{"hourly", "hour"},
		{"Weekly", "week"},
		{"3 months", "month"},
		{"minutes", "minute"},
		{"annually", "year"},
		{"seconds", "second"},
	}
	for _, c := range cases {
		got, err := CanonicalInterval(c.in)
		if err != nil {
			t.Fatalf("CanonicalInterval(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("CanonicalInterval(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	if _, err := CanonicalInterval("fortnight"); err == nil {
		t.Fatal("expected an error for an unsupported interval")
	}
}

func TestCanonicalTestType(t *testing.T) {
	for _, in := range []string{"t", "ttest", "t-test", "t_test", "T_TEST", "TTest"} {
		got, err := CanonicalTestType(in, false)
		if err != nil {
			t.Fatalf("CanonicalTestType(%q): %v", in, err)
		}
		if got != "t_test" {
			t.Fatalf("CanonicalTestType(%q) = %q, want t_test", in, got)
		}
	}
	for _, in := range []string{"z", "ztest", "z-test", "Z_TEST"} {
		got, err := CanonicalTestType(in, true)
		if err != nil {
			t.Fatalf("CanonicalTestType(%q): %v", in, err)
		}
		if got != "z_test" {
			t.Fatalf("CanonicalTestType(%q) = %q, want z_test", in, got)
		}
	}

	// default depends on whether a population stddev was supplied
	if got, _ := CanonicalTestType("", true); got != "z_test" {
		t.Fatalf("default with sigma = %q, want z_test", got)
	}
	if got, _ := CanonicalTestType("", false); got != "t_test" {
		t.Fatalf("default without sigma = %q, want t_test", got)
	}

	if _, err := CanonicalTestType("chi", false); err == nil {
		t.Fatal("expected an error for an unsupported test type")
	}
}

func TestNormalizeHypothesisDefaults(t *testing.T) {
	req, err := Normalize(analysis.KindHypothesis, map[string]any{
		"table":  "scores",
		"column": "value",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.TestType != "t_test" {
		t.Fatalf("test type = %q, want t_test", req.TestType)
	}
	if req.HypothesizedMean != 0 {
		t.Fatalf("hypothesized mean = %v, want 0", req.HypothesizedMean)
	}

	// zero is a legal explicit value, and sigma flips the default test
	req, err = Normalize(analysis.KindHypothesis, map[string]any{
		"table":    "scores",
		"column":   "value",
		"expected": 0,
		"sigma":    12.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.TestType != "z_test" {
		t.Fatalf("test type = %q, want z_test", req.TestType)
	}
	if req.PopulationStdDev == nil || *req.PopulationStdDev != 12.5 {
		t.Fatalf("population stddev = %v, want 12.5", req.PopulationStdDev)
	}
}

func TestNormalizeHypothesisMeanAliases(t *testing.T) {
	for _, key := range []string{"mean", "expected", "hypothesizedMean", "mu"} {
		req, err := Normalize(analysis.KindHypothesis, map[string]any{
			"table":  "scores",
			"column": "value",
			key:      95,
		})
		if err != nil {
			t.Fatalf("alias %q: %v", key, err)
		}
		if req.HypothesizedMean != 95 {
			t.Fatalf("alias %q: mean = %v, want 95", key, req.HypothesizedMean)
		}
	}
}

func TestNormalizeTimeSeries(t *testing.T) {
	req, err := Normalize(analysis.KindTimeSeries, map[string]any{
		"table":  "events",
		"time":   "created_at",
		"value":  "amount",
		"bucket": "1 day",
		"agg":    "sum",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.TimeColumn != "created_at" {
		t.Fatalf("time column = %q", req.TimeColumn)
	}
	if req.Interval != "day" {
		t.Fatalf("interval = %q, want day", req.Interval)
	}
	if req.Aggregation != "sum" {
		t.Fatalf("aggregation = %q, want sum", req.Aggregation)
	}

	// no value column defaults the aggregation to count
	req, err = Normalize(analysis.KindTimeSeries, map[string]any{
		"table": "events",
		"time":  "created_at",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Aggregation != "count" {
		t.Fatalf("aggregation = %q, want count", req.Aggregation)
	}

	if _, err := Normalize(analysis.KindTimeSeries, map[string]any{"table": "events"}); err == nil {
		t.Fatal("expected an error without a time column")
	}
}

func TestNormalizeCorrelationColumns(t *testing.T) {
	req, err := Normalize(analysis.KindCorrelation, map[string]any{
		"table": "ads",
		"x":     "spend",
		"y":     "clicks",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Column != "spend" || req.ColumnY != "clicks" {
		t.Fatalf("columns = %q, %q", req.Column, req.ColumnY)
	}

	if _, err := Normalize(analysis.KindCorrelation, map[string]any{"table": "ads", "x": "spend"}); err == nil {
		t.Fatal("expected an error without a second column")
	}
}

func TestNormalizePercentileShorthand(t *testing.T) {
	req, err := Normalize(analysis.KindPercentiles, map[string]any{
		"table":     "orders",
		"column":    "total",
		"quantiles": "25, 50, 75",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Percentiles) != 3 || req.Percentiles[1] != 50 {
		t.Fatalf("percentiles = %v", req.Percentiles)
	}

	// default set when omitted
	req, err = Normalize(analysis.KindPercentiles, map[string]any{"table": "orders", "column": "total"})
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Percentiles) != 6 {
		t.Fatalf("default percentiles = %v", req.Percentiles)
	}
}

func TestNormalizeSampling(t *testing.T) {
	req, err := Normalize(analysis.KindSampling, map[string]any{
		"table":  "orders",
		"size":   10,
		"method": "BERNOULLI",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != "bernoulli" {
		t.Fatalf("method = %q", req.Method)
	}
	if req.SampleSize == nil || *req.SampleSize != 10 {
		t.Fatalf("sample size = %v", req.SampleSize)
	}

	req, err = Normalize(analysis.KindSampling, map[string]any{
		"table":  "orders",
		"select": "id, total",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != "random" {
		t.Fatalf("default method = %q", req.Method)
	}
	if len(req.Columns) != 2 || req.Columns[0] != "id" {
		t.Fatalf("columns = %v", req.Columns)
	}
}

package analysis

import (
	"context"
	"strings"
	"testing"

	"statquery/internal/testkit"
)

func samplingCatalog() *testkit.FakeExecutor {
	return testkit.NewFakeExecutor().
		Script("information_schema.tables", []map[string]any{{"?column?": 1}}).
		Script("information_schema.columns", []map[string]any{{"data_type": "text"}})
}

func TestSamplingExactSizeOverridesMethod(t *testing.T) {
	exec := samplingCatalog().
		Script("order by random", []map[string]any{
			{"id": int64(1)}, {"id": int64(2)},
		})

	report, err := NewSamplingHandler(exec).Run(context.Background(), map[string]any{
		"table":      "orders",
		"sampleSize": 10,
		"method":     "bernoulli",
	})
	if err != nil {
		t.Fatal(err)
	}

	query := exec.LastQuery()
	if strings.Contains(strings.ToUpper(query), "TABLESAMPLE") {
		t.Fatalf("exact-count sampling must not use TABLESAMPLE: %s", query)
	}
	if !strings.Contains(strings.ToUpper(query), "ORDER BY RANDOM() LIMIT 10") {
		t.Fatalf("expected exact-count random ordering: %s", query)
	}
	if !strings.Contains(strings.ToLower(report.Note), "exact") {
		t.Fatalf("note should mention the exact-count override: %q", report.Note)
	}
	if report.Method != "random" {
		t.Fatalf("effective method = %q, want random", report.Method)
	}
	if report.Sample.RowCount != 2 {
		t.Fatalf("row count = %d, want 2", report.Sample.RowCount)
	}
}

func TestSamplingBernoulliPercentage(t *testing.T) {
	exec := samplingCatalog().
		Script("tablesample", []map[string]any{{"id": int64(1)}})

	report, err := NewSamplingHandler(exec).Run(context.Background(), map[string]any{
		"table":  "orders",
		"method": "bernoulli",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(exec.LastQuery(), "TABLESAMPLE BERNOULLI(10)") {
		t.Fatalf("expected the default 10%% bernoulli sample: %s", exec.LastQuery())
	}
	if !strings.Contains(report.Note, "approximate") {
		t.Fatalf("note should flag the approximate count: %q", report.Note)
	}
}

func TestSamplingDefaultCap(t *testing.T) {
	exec := samplingCatalog().
		Script("order by random", []map[string]any{{"id": int64(1)}})

	_, err := NewSamplingHandler(exec).Run(context.Background(), map[string]any{
		"table": "orders",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(exec.LastQuery(), "LIMIT 100") {
		t.Fatalf("expected the default cap of 100 rows: %s", exec.LastQuery())
	}
}

func TestSamplingProjection(t *testing.T) {
	exec := samplingCatalog().
		Script("order by random", nil)

	_, err := NewSamplingHandler(exec).Run(context.Background(), map[string]any{
		"table":  "orders",
		"select": "id, total",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(exec.LastQuery(), `SELECT "id", "total" FROM`) {
		t.Fatalf("expected a quoted projection: %s", exec.LastQuery())
	}
}

func TestSamplingGrouped(t *testing.T) {
	exec := samplingCatalog().
		Script("select distinct", []map[string]any{
			{"group_key": "east"}, {"group_key": "west"},
		}).
		Script("order by random", []map[string]any{{"id": int64(1)}})

	report, err := NewSamplingHandler(exec).Run(context.Background(), map[string]any{
		"table":      "orders",
		"groupBy":    "region",
		"sampleSize": 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(report.Groups))
	}
	if report.Groups[0].GroupKey != "east" || report.Groups[1].GroupKey != "west" {
		t.Fatalf("groups should follow ascending key order: %+v", report.Groups)
	}
	perGroup := exec.QueriesMatching("order by random")
	if len(perGroup) != 2 {
		t.Fatalf("expected one sampling query per group, got %d", len(perGroup))
	}
}

func TestSamplingMissingTable(t *testing.T) {
	exec := testkit.NewFakeExecutor().
		Script("information_schema.tables", nil)

	_, err := NewSamplingHandler(exec).Run(context.Background(), map[string]any{"table": "ghosts"})
	if err == nil {
		t.Fatal("expected a table-not-found error")
	}
	if !strings.Contains(err.Error(), "ghosts") {
		t.Fatalf("error should name the table: %v", err)
	}
}

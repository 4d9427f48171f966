package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	domain "statquery/domain/analysis"
	"statquery/internal/testkit"
)

func timeSeriesCatalog() *testkit.FakeExecutor {
	return testkit.NewFakeExecutor().
		ScriptArg("information_schema.columns", "created_at", []map[string]any{{"data_type": "timestamp with time zone"}}).
		ScriptArg("information_schema.columns", "amount", []map[string]any{{"data_type": "double precision"}}).
		ScriptArg("information_schema.columns", "region", []map[string]any{{"data_type": "text"}})
}

func TestTimeSeriesIntervalCanonicalization(t *testing.T) {
	for _, interval := range []string{"1 day", "days", "DAY", "daily"} {
		exec := timeSeriesCatalog().
			Script("date_trunc", []map[string]any{
				{"time_bucket": time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "value": 42.0, "bucket_count": int64(3)},
			})

		report, err := NewTimeSeriesHandler(exec).Run(context.Background(), map[string]any{
			"table":    "events",
			"time":     "created_at",
			"column":   "amount",
			"interval": interval,
		})
		if err != nil {
			t.Fatalf("interval %q: %v", interval, err)
		}
		if report.Interval != "day" {
			t.Fatalf("interval %q canonicalized to %q, want day", interval, report.Interval)
		}
		if !strings.Contains(exec.LastQuery(), "DATE_TRUNC('day'") {
			t.Fatalf("interval %q: query should truncate to day: %s", interval, exec.LastQuery())
		}
	}
}

func TestTimeSeriesBucketShaping(t *testing.T) {
	bucketTime := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	exec := timeSeriesCatalog().
		Script("date_trunc", []map[string]any{
			{"time_bucket": bucketTime, "value": "123.5", "bucket_count": "7"},
		})

	report, err := NewTimeSeriesHandler(exec).Run(context.Background(), map[string]any{
		"table":  "events",
		"time":   "created_at",
		"column": "amount",
		"agg":    "sum",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(report.Buckets))
	}
	b := report.Buckets[0]
	if !b.TimeBucket.Equal(bucketTime) {
		t.Fatalf("time bucket = %v, want %v", b.TimeBucket, bucketTime)
	}
	// numeric-as-string driver values are coerced at the shaping boundary
	if b.Value == nil || *b.Value != 123.5 {
		t.Fatalf("value = %v, want 123.5", b.Value)
	}
	if b.Count != 7 {
		t.Fatalf("count = %d, want 7", b.Count)
	}
}

func TestTimeSeriesDefaultLimitTruncation(t *testing.T) {
	rows := make([]map[string]any, domain.DefaultLimit)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = map[string]any{
			"time_bucket":  base.AddDate(0, 0, i),
			"value":        1.0,
			"bucket_count": int64(1),
		}
	}
	exec := timeSeriesCatalog().
		Script("count(distinct date_trunc", []map[string]any{{"total": "250"}}).
		Script("date_trunc", rows)

	report, err := NewTimeSeriesHandler(exec).Run(context.Background(), map[string]any{
		"table":  "events",
		"time":   "created_at",
		"column": "amount",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(exec.QueriesMatching("group by")[0], fmt.Sprintf("LIMIT %d", domain.DefaultLimit)) {
		t.Fatalf("implicit default limit missing: %s", exec.QueriesMatching("group by")[0])
	}
	if !report.Truncated {
		t.Fatal("expected the truncated flag when the implicit cap is hit")
	}
	if report.TotalBuckets == nil || *report.TotalBuckets != 250 {
		t.Fatalf("total buckets = %v, want 250", report.TotalBuckets)
	}
}

func TestTimeSeriesExplicitLimitNoTruncationReport(t *testing.T) {
	exec := timeSeriesCatalog().
		Script("date_trunc", []map[string]any{
			{"time_bucket": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "value": 1.0, "bucket_count": int64(1)},
		})

	report, err := NewTimeSeriesHandler(exec).Run(context.Background(), map[string]any{
		"table":  "events",
		"time":   "created_at",
		"column": "amount",
		"limit":  1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Truncated {
		t.Fatal("an explicit limit must not be reported as truncation")
	}
}

func TestTimeSeriesUnlimitedWithZeroLimit(t *testing.T) {
	exec := timeSeriesCatalog().
		Script("date_trunc", nil)

	_, err := NewTimeSeriesHandler(exec).Run(context.Background(), map[string]any{
		"table":  "events",
		"time":   "created_at",
		"column": "amount",
		"limit":  0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(exec.LastQuery(), "LIMIT") {
		t.Fatalf("limit=0 means unlimited: %s", exec.LastQuery())
	}
}

func TestTimeSeriesGroupedPartitioning(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	exec := timeSeriesCatalog().
		Script("date_trunc", []map[string]any{
			{"group_key": "west", "time_bucket": base, "value": 1.0, "bucket_count": int64(1)},
			{"group_key": "east", "time_bucket": base, "value": 2.0, "bucket_count": int64(2)},
			{"group_key": "west", "time_bucket": base.AddDate(0, 0, 1), "value": 3.0, "bucket_count": int64(1)},
		})

	report, err := NewTimeSeriesHandler(exec).Run(context.Background(), map[string]any{
		"table":   "events",
		"time":    "created_at",
		"column":  "amount",
		"groupBy": "region",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(report.Groups))
	}
	// first-occurrence order of keys in the row stream
	if report.Groups[0].GroupKey != "west" || report.Groups[1].GroupKey != "east" {
		t.Fatalf("group order should follow first occurrence: %v, %v", report.Groups[0].GroupKey, report.Groups[1].GroupKey)
	}
	if len(report.Groups[0].Result) != 2 || len(report.Groups[1].Result) != 1 {
		t.Fatalf("bucket partitioning wrong: %d, %d", len(report.Groups[0].Result), len(report.Groups[1].Result))
	}
}

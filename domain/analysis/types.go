package analysis

import "time"

// Kind identifies one of the supported analysis operations.
type Kind string

const (
	KindDescriptive  Kind = "descriptive"
	KindPercentiles  Kind = "percentiles"
	KindCorrelation  Kind = "correlation"
	KindRegression   Kind = "regression"
	KindTimeSeries   Kind = "timeseries"
	KindDistribution Kind = "distribution"
	KindHypothesis   Kind = "hypothesis"
	KindSampling     Kind = "sampling"
)

// Default limits shared by handlers and tests. Tests assert against these
// symbols rather than repeating the literals.
const (
	DefaultLimit            = 100
	DefaultBucketCount      = 10
	DefaultSamplePercentage = 10.0
)

// Request is a fully normalized analysis request. Produced once by the
// request normalizer and treated as immutable afterwards.
type Request struct {
	Kind    Kind   `json:"kind"`
	Table   string `json:"table"`
	Schema  string `json:"schema"` // defaults to "public"
	Column  string `json:"column,omitempty"`
	ColumnY string `json:"column_y,omitempty"` // second column for correlation/regression
	Where   string `json:"where,omitempty"`    // raw SQL predicate, appended verbatim
	GroupBy string `json:"group_by,omitempty"`

	// Time series
	TimeColumn  string `json:"time_column,omitempty"`
	Interval    string `json:"interval,omitempty"` // canonical unit: second..year
	Aggregation string `json:"aggregation,omitempty"`
	Limit       *int   `json:"limit,omitempty"` // nil = default cap, 0 = unlimited

	// Percentiles
	Percentiles []float64 `json:"percentiles,omitempty"`

	// Distribution
	NumBuckets int `json:"num_buckets,omitempty"`

	// Hypothesis test
	TestType         string   `json:"test_type,omitempty"` // "t_test" or "z_test"
	HypothesizedMean float64  `json:"hypothesized_mean"`
	PopulationStdDev *float64 `json:"population_std_dev,omitempty"`

	// Sampling
	SampleSize *int     `json:"sample_size,omitempty"`
	Method     string   `json:"method,omitempty"` // random, bernoulli, system
	Percentage *float64 `json:"percentage,omitempty"`
	Columns    []string `json:"columns,omitempty"` // projection for sampling, empty = *
}

// QualifiedTable returns the schema-qualified table identifier parts.
func (r *Request) QualifiedTable() (schema, table string) {
	if r.Schema == "" {
		return "public", r.Table
	}
	return r.Schema, r.Table
}

// Grouped pairs one group key with the analysis payload computed for it.
type Grouped[T any] struct {
	GroupKey any `json:"group_key"`
	Result   T   `json:"result"`
}

// DescriptiveStats summarizes a single numeric column.
type DescriptiveStats struct {
	TotalRows     int64    `json:"total_rows"`
	Count         int64    `json:"count"` // non-null values
	NullCount     int64    `json:"null_count"`
	DistinctCount int64    `json:"distinct_count"`
	Mean          *float64 `json:"mean"`
	StdDev        *float64 `json:"std_dev"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
}

// DescriptiveReport is the descriptive handler result.
type DescriptiveReport struct {
	Table  string                     `json:"table"`
	Column string                     `json:"column"`
	Stats  *DescriptiveStats          `json:"stats,omitempty"`
	Groups []Grouped[DescriptiveStats] `json:"groups,omitempty"`
}

// PercentileValue is one computed percentile.
type PercentileValue struct {
	Percentile float64  `json:"percentile"`
	Value      *float64 `json:"value"`
}

// PercentileReport is the percentile handler result.
type PercentileReport struct {
	Table       string                        `json:"table"`
	Column      string                        `json:"column"`
	Percentiles []PercentileValue             `json:"percentiles,omitempty"`
	Groups      []Grouped[[]PercentileValue]  `json:"groups,omitempty"`
}

// CorrelationStats holds one Pearson correlation measurement.
type CorrelationStats struct {
	Coefficient    *float64 `json:"coefficient"`
	SampleSize     int64    `json:"sample_size"`
	Interpretation string   `json:"interpretation"`
}

// CorrelationReport is the correlation handler result.
type CorrelationReport struct {
	Table   string                       `json:"table"`
	ColumnX string                       `json:"column_x"`
	ColumnY string                       `json:"column_y"`
	Stats   *CorrelationStats            `json:"stats,omitempty"`
	Groups  []Grouped[CorrelationStats]  `json:"groups,omitempty"`
}

// RegressionStats holds one simple linear regression fit.
type RegressionStats struct {
	Slope      *float64 `json:"slope"`
	Intercept  *float64 `json:"intercept"`
	RSquared   *float64 `json:"r_squared"`
	SampleSize int64    `json:"sample_size"`
	Equation   string   `json:"equation,omitempty"`
}

// RegressionReport is the regression handler result.
type RegressionReport struct {
	Table   string                      `json:"table"`
	ColumnX string                      `json:"column_x"` // independent
	ColumnY string                      `json:"column_y"` // dependent
	Stats   *RegressionStats            `json:"stats,omitempty"`
	Groups  []Grouped[RegressionStats]  `json:"groups,omitempty"`
}

// Bucket is one time-series bucket.
type Bucket struct {
	TimeBucket time.Time `json:"time_bucket"`
	Value      *float64  `json:"value"`
	Count      int64     `json:"count"`
}

// TimeSeriesReport is the time-series handler result.
type TimeSeriesReport struct {
	Table       string              `json:"table"`
	TimeColumn  string              `json:"time_column"`
	Column      string              `json:"column,omitempty"`
	Interval    string              `json:"interval"`
	Aggregation string              `json:"aggregation"`
	Buckets     []Bucket            `json:"buckets,omitempty"`
	Groups      []Grouped[[]Bucket] `json:"groups,omitempty"`
	Truncated   bool                `json:"truncated,omitempty"`
	TotalBuckets *int64             `json:"total_buckets,omitempty"`
	Note        string              `json:"note,omitempty"`
}

// HistogramBin is one equal-width histogram bin.
type HistogramBin struct {
	Bucket    int     `json:"bucket"`
	Frequency int64   `json:"frequency"`
	RangeMin  float64 `json:"range_min"`
	RangeMax  float64 `json:"range_max"`
}

// MomentSummary captures distribution shape. Skewness and kurtosis are nil
// when the sample is too small (n<=2 resp. n<=3) or has zero variance.
type MomentSummary struct {
	MinVal   *float64 `json:"min_val"`
	MaxVal   *float64 `json:"max_val"`
	Mean     *float64 `json:"mean"`
	StdDev   *float64 `json:"std_dev"` // population standard deviation
	Skewness *float64 `json:"skewness"`
	Kurtosis *float64 `json:"kurtosis"` // excess kurtosis
}

// DistributionStats is the per-column (or per-group) distribution analysis.
type DistributionStats struct {
	SampleSize int64          `json:"sample_size"`
	Moments    *MomentSummary `json:"moments,omitempty"`
	Histogram  []HistogramBin `json:"histogram,omitempty"`
	Error      string         `json:"error,omitempty"` // e.g. no data / all nulls
}

// DistributionReport is the distribution handler result.
type DistributionReport struct {
	Table      string                        `json:"table"`
	Column     string                        `json:"column"`
	NumBuckets int                           `json:"num_buckets"`
	Stats      *DistributionStats            `json:"stats,omitempty"`
	Groups     []Grouped[DistributionStats]  `json:"groups,omitempty"`
}

// HypothesisResult is one t-test or z-test outcome. When the sample is too
// small or has zero variance, Error is set and the statistic fields are
// zero-valued; this is a legitimate analytical outcome, not a failure.
type HypothesisResult struct {
	TestType         string   `json:"test_type"`
	SampleSize       int64    `json:"sample_size"`
	SampleMean       float64  `json:"sample_mean,omitempty"`
	SampleStdDev     float64  `json:"sample_std_dev,omitempty"`
	PopulationStdDev *float64 `json:"population_std_dev,omitempty"`
	HypothesizedMean float64  `json:"hypothesized_mean"`
	StandardError    float64  `json:"standard_error,omitempty"`
	TestStatistic    float64  `json:"test_statistic,omitempty"`
	PValue           float64  `json:"p_value,omitempty"`
	DegreesOfFreedom *int64   `json:"degrees_of_freedom,omitempty"` // t-test only
	Interpretation   string   `json:"interpretation,omitempty"`
	Note             string   `json:"note,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// HypothesisReport is the hypothesis handler result.
type HypothesisReport struct {
	Table  string                       `json:"table"`
	Column string                       `json:"column"`
	Result *HypothesisResult            `json:"result,omitempty"`
	Groups []Grouped[HypothesisResult]  `json:"groups,omitempty"`
}

// SampleSet is one batch of sampled rows.
type SampleSet struct {
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// SamplingReport is the sampling handler result.
type SamplingReport struct {
	Table  string               `json:"table"`
	Method string               `json:"method"`
	Sample *SampleSet           `json:"sample,omitempty"`
	Groups []Grouped[SampleSet] `json:"groups,omitempty"`
	Note   string               `json:"note,omitempty"`
}

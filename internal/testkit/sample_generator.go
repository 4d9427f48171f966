package testkit

import (
	"math/rand"

	"github.com/montanaflynn/stats"
)

// SampleConfig configures the deterministic sample generator
type SampleConfig struct {
	Rows   int     `json:"rows"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Seed   int64   `json:"seed"`
}

// DefaultSampleConfig returns sensible defaults for generated samples
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		Rows:   200,
		Mean:   100,
		StdDev: 15,
		Seed:   42,
	}
}

// SampleSummary holds reference statistics for a generated sample, computed
// with an independent statistics library so handler tests have an oracle.
type SampleSummary struct {
	Count  int
	Mean   float64
	StdDev float64 // sample standard deviation
	Min    float64
	Max    float64
	Median float64
}

// GenerateSample produces a seeded, normally distributed sample.
func GenerateSample(cfg SampleConfig) []float64 {
	rng := rand.New(rand.NewSource(cfg.Seed))
	values := make([]float64, cfg.Rows)
	for i := range values {
		values[i] = cfg.Mean + cfg.StdDev*rng.NormFloat64()
	}
	return values
}

// Summarize computes reference statistics for a sample.
func Summarize(values []float64) SampleSummary {
	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviationSample(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	median, _ := stats.Median(values)
	return SampleSummary{
		Count:  len(values),
		Mean:   mean,
		StdDev: sd,
		Min:    min,
		Max:    max,
		Median: median,
	}
}

// Percentile exposes the reference percentile implementation for tests.
func Percentile(values []float64, p float64) float64 {
	v, _ := stats.Percentile(values, p)
	return v
}

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"statquery/adapters/postgres"
	"statquery/app"
	domain "statquery/domain/analysis"
	"statquery/internal/config"
	"statquery/internal/errors"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statquery",
		Short: "Statistical analysis over PostgreSQL tables",
	}

	rootCmd.AddCommand(
		newAnalysisCmd("describe", domain.KindDescriptive, "Descriptive statistics for a numeric column"),
		newAnalysisCmd("percentiles", domain.KindPercentiles, "Percentile values for a numeric column"),
		newAnalysisCmd("correlation", domain.KindCorrelation, "Pearson correlation between two numeric columns"),
		newAnalysisCmd("regression", domain.KindRegression, "Simple linear regression between two numeric columns"),
		newAnalysisCmd("timeseries", domain.KindTimeSeries, "Time-bucketed aggregation over a temporal column"),
		newAnalysisCmd("distribution", domain.KindDistribution, "Distribution shape: moments and histogram"),
		newAnalysisCmd("hypothesis", domain.KindHypothesis, "One-sample t-test or z-test against a hypothesized mean"),
		newAnalysisCmd("sample", domain.KindSampling, "Random row sampling"),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// analysisFlags collects the union of request fields; empty values are left
// out of the raw request so the normalizer applies its defaults.
type analysisFlags struct {
	table      string
	schema     string
	column     string
	columnY    string
	timeColumn string
	where      string
	groupBy    string
	interval   string
	agg        string
	limit      int
	buckets    int
	testType   string
	mean       float64
	sigma      float64
	size       int
	method     string
	percentage float64
	columns    string
	pcts       string
}

func newAnalysisCmd(use string, kind domain.Kind, short string) *cobra.Command {
	flags := &analysisFlags{}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, kind, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.table, "table", "t", "", "table name, optionally schema-qualified (required)")
	cmd.Flags().StringVar(&flags.schema, "schema", "", "schema name (default public)")
	cmd.Flags().StringVarP(&flags.column, "column", "c", "", "target column")
	cmd.Flags().StringVar(&flags.where, "where", "", "raw SQL filter predicate")
	cmd.Flags().StringVarP(&flags.groupBy, "group-by", "g", "", "grouping column")
	_ = cmd.MarkFlagRequired("table")

	switch kind {
	case domain.KindPercentiles:
		cmd.Flags().StringVar(&flags.pcts, "percentiles", "", "comma-separated percentiles, e.g. 25,50,75")
	case domain.KindCorrelation, domain.KindRegression:
		cmd.Flags().StringVarP(&flags.columnY, "column-y", "y", "", "second column (dependent variable for regression)")
	case domain.KindTimeSeries:
		cmd.Flags().StringVar(&flags.timeColumn, "time-column", "", "temporal column (required)")
		cmd.Flags().StringVar(&flags.interval, "interval", "", "bucket interval (default day)")
		cmd.Flags().StringVar(&flags.agg, "aggregation", "", "sum, avg, min, max or count")
		cmd.Flags().IntVar(&flags.limit, "limit", -1, "bucket cap, 0 for unlimited")
	case domain.KindDistribution:
		cmd.Flags().IntVar(&flags.buckets, "buckets", 0, "number of histogram bins")
	case domain.KindHypothesis:
		cmd.Flags().StringVar(&flags.testType, "test-type", "", "t_test or z_test")
		cmd.Flags().Float64Var(&flags.mean, "mean", 0, "hypothesized mean")
		cmd.Flags().Float64Var(&flags.sigma, "sigma", 0, "population standard deviation (z-test)")
	case domain.KindSampling:
		cmd.Flags().IntVar(&flags.size, "size", 0, "exact sample size")
		cmd.Flags().StringVar(&flags.method, "method", "", "random, bernoulli or system")
		cmd.Flags().Float64Var(&flags.percentage, "percentage", 0, "sample percentage for bernoulli/system")
		cmd.Flags().StringVar(&flags.columns, "columns", "", "comma-separated projection")
	}

	return cmd
}

func runAnalysis(cmd *cobra.Command, kind domain.Kind, flags *analysisFlags) error {
	raw := buildRawRequest(cmd, kind, flags)

	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	service := app.NewAnalysisService(postgres.NewExecutor(db))
	result, err := service.Run(cmd.Context(), kind, raw)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	fmt.Println(string(encoded))
	return nil
}

func buildRawRequest(cmd *cobra.Command, kind domain.Kind, flags *analysisFlags) map[string]any {
	raw := map[string]any{"table": flags.table}
	putString(raw, "schema", flags.schema)
	putString(raw, "column", flags.column)
	putString(raw, "where", flags.where)
	putString(raw, "groupBy", flags.groupBy)

	switch kind {
	case domain.KindPercentiles:
		putString(raw, "percentiles", flags.pcts)
	case domain.KindCorrelation, domain.KindRegression:
		putString(raw, "column_y", flags.columnY)
	case domain.KindTimeSeries:
		putString(raw, "time_column", flags.timeColumn)
		putString(raw, "interval", flags.interval)
		putString(raw, "aggregation", flags.agg)
		if flags.limit >= 0 {
			raw["limit"] = flags.limit
		}
	case domain.KindDistribution:
		if flags.buckets > 0 {
			raw["num_buckets"] = flags.buckets
		}
	case domain.KindHypothesis:
		putString(raw, "test_type", flags.testType)
		if cmd.Flags().Changed("mean") {
			raw["hypothesized_mean"] = flags.mean
		}
		if cmd.Flags().Changed("sigma") {
			raw["population_std_dev"] = flags.sigma
		}
	case domain.KindSampling:
		putString(raw, "method", flags.method)
		putString(raw, "columns", flags.columns)
		if flags.size > 0 {
			raw["sample_size"] = flags.size
		}
		if flags.percentage > 0 {
			raw["percentage"] = flags.percentage
		}
	}
	return raw
}

func putString(raw map[string]any, key, value string) {
	if value != "" {
		raw[key] = value
	}
}

// connect loads .env when present and opens the configured database.
func connect() (*sqlx.DB, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	return db, nil
}

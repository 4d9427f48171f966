package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	domain "statquery/domain/analysis"
	"statquery/domain/core"
	"statquery/internal"
	"statquery/internal/analysis"
	"statquery/ports"
)

// AnalysisService dispatches a loosely shaped request to the handler for its
// analysis kind. This is the seam an outer tool-dispatch layer calls into.
type AnalysisService struct {
	descriptive  *analysis.DescriptiveHandler
	percentiles  *analysis.PercentileHandler
	correlation  *analysis.CorrelationHandler
	regression   *analysis.RegressionHandler
	timeSeries   *analysis.TimeSeriesHandler
	distribution *analysis.DistributionHandler
	hypothesis   *analysis.HypothesisHandler
	sampling     *analysis.SamplingHandler
}

// NewAnalysisService wires every handler to the given executor
func NewAnalysisService(exec ports.QueryExecutor) *AnalysisService {
	return &AnalysisService{
		descriptive:  analysis.NewDescriptiveHandler(exec),
		percentiles:  analysis.NewPercentileHandler(exec),
		correlation:  analysis.NewCorrelationHandler(exec),
		regression:   analysis.NewRegressionHandler(exec),
		timeSeries:   analysis.NewTimeSeriesHandler(exec),
		distribution: analysis.NewDistributionHandler(exec),
		hypothesis:   analysis.NewHypothesisHandler(exec),
		sampling:     analysis.NewSamplingHandler(exec),
	}
}

// Run executes one analysis and returns its kind-specific, JSON-serializable
// report. Each call is an independent unit of work; concurrent callers need
// no coordination.
func (s *AnalysisService) Run(ctx context.Context, kind domain.Kind, raw map[string]any) (any, error) {
	requestID := uuid.NewString()[:8]
	started := time.Now()
	internal.DefaultLogger.Info("[%s] %s analysis started", requestID, kind)

	result, err := s.dispatch(ctx, kind, raw)
	if err != nil {
		internal.DefaultLogger.Error("[%s] %s analysis failed after %s: %v", requestID, kind, time.Since(started).Round(time.Millisecond), err)
		return nil, err
	}
	internal.DefaultLogger.Info("[%s] %s analysis done in %s", requestID, kind, time.Since(started).Round(time.Millisecond))
	return result, nil
}

func (s *AnalysisService) dispatch(ctx context.Context, kind domain.Kind, raw map[string]any) (any, error) {
	switch kind {
	case domain.KindDescriptive:
		return s.descriptive.Run(ctx, raw)
	case domain.KindPercentiles:
		return s.percentiles.Run(ctx, raw)
	case domain.KindCorrelation:
		return s.correlation.Run(ctx, raw)
	case domain.KindRegression:
		return s.regression.Run(ctx, raw)
	case domain.KindTimeSeries:
		return s.timeSeries.Run(ctx, raw)
	case domain.KindDistribution:
		return s.distribution.Run(ctx, raw)
	case domain.KindHypothesis:
		return s.hypothesis.Run(ctx, raw)
	case domain.KindSampling:
		return s.sampling.Run(ctx, raw)
	}
	return nil, core.NewValidationError("kind", "unknown analysis kind "+string(kind))
}

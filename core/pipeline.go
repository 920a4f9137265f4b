package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mapfoundry/cityprint/internal/logging"
	"github.com/mapfoundry/cityprint/internal/observability"
	"github.com/mapfoundry/cityprint/model"
)

// Pipeline runs the full synchronous chain for one region selection:
// projection, classification, clipping, scale planning, and model assembly.
// Every stage is a pure or near-pure function over immutable inputs; the
// pipeline owns no state between runs.
type Pipeline struct {
	Log     logging.Logger
	Metrics *observability.PipelineCollector

	// TargetSizeMM is the target horizontal model size in millimetres, the
	// single runtime-configurable parameter of the core.
	TargetSizeMM float64
}

// NewPipeline returns a pipeline with the default target size.
func NewPipeline(log logging.Logger, metrics *observability.PipelineCollector) *Pipeline {
	if log == nil {
		log = logging.Noop()
	}
	return &Pipeline{
		Log:          log,
		Metrics:      metrics,
		TargetSizeMM: model.DefaultTargetSizeMM,
	}
}

// Run builds one model from a resolved region. A degenerate boundary window
// fails the whole build; no partial model is produced.
func (p *Pipeline) Run(ctx context.Context, region *Region) (*model.Model, *BuildStats, error) {
	tracer := otel.Tracer("cityprint/core")
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	ctx, log := logging.WithBuildLogger(ctx, p.Log)
	start := time.Now()

	window := WindowFromBound(region.Bound)
	if window.Degenerate() {
		return nil, nil, fmt.Errorf("pipeline: %w", ErrDegenerateWindow)
	}

	features, heightStats := p.classifyStage(ctx, tracer, region)
	plan := PlanScale(window, p.TargetSizeMM)

	buildCtx, buildSpan := tracer.Start(ctx, "pipeline.build")
	builder := NewBuilder(log)
	m, stats, err := builder.Build(buildCtx, features, window, heightStats, plan)
	buildSpan.End()
	if err != nil {
		return nil, nil, err
	}

	p.recordMetrics(stats, time.Since(start))

	log.Info(ctx, "pipeline run complete",
		logging.Int("elements", len(region.Elements)),
		logging.Int("pieces", stats.Pieces),
		logging.Any("horizontal_scale", plan.HorizontalScale),
	)
	return m, stats, nil
}

func (p *Pipeline) classifyStage(ctx context.Context, tracer trace.Tracer, region *Region) ([]model.ClassifiedFeature, model.HeightStats) {
	_, span := tracer.Start(ctx, "pipeline.classify",
		trace.WithAttributes(attribute.Int("elements", len(region.Elements))))
	defer span.End()
	return Classify(region.Elements, region.Bound.Center())
}

func (p *Pipeline) recordMetrics(stats *BuildStats, elapsed time.Duration) {
	if p.Metrics == nil {
		return
	}
	for category, n := range stats.FeatureCounts {
		p.Metrics.FeaturesClassified.WithLabelValues(string(category)).Add(float64(n))
	}
	p.Metrics.FeaturesSkipped.WithLabelValues(observability.SkipDegeneratePolygon).
		Add(float64(stats.SkippedDegeneratePolygons))
	p.Metrics.FeaturesSkipped.WithLabelValues(observability.SkipDegeneratePolyline).
		Add(float64(stats.SkippedDegenerateSegments))
	p.Metrics.FeaturesSkipped.WithLabelValues(observability.SkipShortSegment).
		Add(float64(stats.SkippedShortSegments))
	p.Metrics.BuildsTotal.Inc()
	p.Metrics.BuildDuration.Observe(elapsed.Seconds())
	p.Metrics.ModelPieces.Set(float64(stats.Pieces))
	p.Metrics.ModelTriangles.Set(float64(stats.Triangles))
}

package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons for the features_skipped_total counter.
const (
	SkipDegeneratePolygon  = "degenerate_polygon"
	SkipDegeneratePolyline = "degenerate_polyline"
	SkipShortSegment       = "short_segment"
)

// PipelineCollector bundles Prometheus metrics for the geometry pipeline and
// provides an HTTP handler to expose them.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	FeaturesClassified *prometheus.CounterVec
	FeaturesSkipped    *prometheus.CounterVec
	BuildsTotal        prometheus.Counter
	BuildDuration      prometheus.Histogram
	ExportBytes        prometheus.Counter

	ModelPieces    prometheus.Gauge
	ModelTriangles prometheus.Gauge
}

// NewPipelineCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	classified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_features_classified_total",
		Help: "Total classified input features, labeled by category.",
	}, []string{"category"})
	classified, err := registerCounterVec(reg, classified, "pipeline_features_classified_total")
	if err != nil {
		return nil, err
	}

	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_features_skipped_total",
		Help: "Features dropped as degenerate after clipping, labeled by reason.",
	}, []string{"reason"})
	skipped, err = registerCounterVec(reg, skipped, "pipeline_features_skipped_total")
	if err != nil {
		return nil, err
	}

	builds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_builds_total",
		Help: "Total completed model builds.",
	}), "pipeline_builds_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_build_duration_seconds",
		Help:    "Wall time of one region build, classification through model assembly.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
	duration, err = registerHistogram(reg, duration, "pipeline_build_duration_seconds")
	if err != nil {
		return nil, err
	}

	exportBytes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_export_bytes_total",
		Help: "Total bytes of serialized 3MF packages produced.",
	}), "pipeline_export_bytes_total")
	if err != nil {
		return nil, err
	}

	pieces, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "model_pieces",
		Help: "Solid pieces in the current model.",
	}), "model_pieces")
	if err != nil {
		return nil, err
	}
	triangles, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "model_triangles",
		Help: "Triangles in the current model.",
	}), "model_triangles")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:           gatherer,
		FeaturesClassified: classified,
		FeaturesSkipped:    skipped,
		BuildsTotal:        builds,
		BuildDuration:      duration,
		ExportBytes:        exportBytes,
		ModelPieces:        pieces,
		ModelTriangles:     triangles,
	}, nil
}

// Handler exposes the collector's metrics over HTTP.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mapfoundry/cityprint/internal/observability"
	"github.com/mapfoundry/cityprint/model"
)

func TestPipeline_RunFromOverpassDocument(t *testing.T) {
	region, err := LoadRegion(strings.NewReader(overpassFixture), orb.Bound{})
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}

	p := NewPipeline(nil, collector)
	m, stats, err := p.Run(context.Background(), region)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if m.Window.Degenerate() {
		t.Fatal("built model has a degenerate window")
	}
	if m.Plan.HorizontalScale <= 0 {
		t.Errorf("HorizontalScale = %v, want > 0", m.Plan.HorizontalScale)
	}

	// The fixture carries one tagged building way, one highway way, and one
	// water relation; base and water pieces come regardless.
	if stats.FeatureCounts[model.CategoryBuilding] != 1 {
		t.Errorf("building count = %d, want 1", stats.FeatureCounts[model.CategoryBuilding])
	}
	if stats.FeatureCounts[model.CategoryHighway] != 1 {
		t.Errorf("highway count = %d, want 1", stats.FeatureCounts[model.CategoryHighway])
	}
	if stats.FeatureCounts[model.CategoryWater] != 1 {
		t.Errorf("water count = %d, want 1", stats.FeatureCounts[model.CategoryWater])
	}
	if stats.Pieces < 3 {
		t.Errorf("got %d pieces, want at least base, water, and one feature", stats.Pieces)
	}
	if stats.Triangles == 0 {
		t.Error("built model has no triangles")
	}

	// The whole model survives export.
	if _, err := Export(m); err != nil {
		t.Fatalf("Export of pipeline output: %v", err)
	}

	if got := testutil.ToFloat64(collector.BuildsTotal); got != 1 {
		t.Errorf("builds_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ModelPieces); got != float64(stats.Pieces) {
		t.Errorf("model_pieces = %v, want %d", got, stats.Pieces)
	}
}

func TestPipeline_DegenerateBoundFails(t *testing.T) {
	p := NewPipeline(nil, nil)
	region := &Region{Bound: orb.Bound{
		Min: orb.Point{13.4, 52.5},
		Max: orb.Point{13.4, 52.6},
	}}

	_, _, err := p.Run(context.Background(), region)
	if !errors.Is(err, ErrDegenerateWindow) {
		t.Fatalf("err = %v, want ErrDegenerateWindow", err)
	}
}

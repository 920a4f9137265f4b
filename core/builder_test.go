package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mapfoundry/cityprint/model"
)

func buildPlan(w model.BoundaryWindow) model.ScalePlan {
	return PlanScale(w, 100)
}

func polygonFeature(id int64, cat model.Category, realHeightM float64, pts ...model.Vec3) model.ClassifiedFeature {
	return model.ClassifiedFeature{
		ID:          id,
		Kind:        model.ElementWay,
		Category:    cat,
		Points:      pts,
		RealHeightM: realHeightM,
	}
}

func unitSquare(cx, cz float64) []model.Vec3 {
	return []model.Vec3{
		{X: cx, Z: cz},
		{X: cx + 1, Z: cz},
		{X: cx + 1, Z: cz + 1},
		{X: cx, Z: cz + 1},
	}
}

func piecesOnLayer(m *model.Model, kind model.LayerKind) []model.SolidPiece {
	var out []model.SolidPiece
	for _, p := range m.Pieces {
		if p.Layer == kind {
			out = append(out, p)
		}
	}
	return out
}

func geometryBounds(m *model.Model, p model.SolidPiece) (min, max model.Vec3) {
	verts := m.Geometries[p.Geometry].Vertices
	min, max = verts[0], verts[0]
	for _, v := range verts {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	return min, max
}

func TestBuild_DegenerateWindowFails(t *testing.T) {
	w := model.NewBoundaryWindow(model.Vec3{X: 5, Z: 5}, model.Vec3{X: 5, Z: 40})

	_, _, err := NewBuilder(nil).Build(context.Background(), nil, w, model.NewHeightStats(), model.ScalePlan{})
	if !errors.Is(err, ErrDegenerateWindow) {
		t.Fatalf("err = %v, want ErrDegenerateWindow", err)
	}
}

func TestBuild_BaseSlabAndSingleWaterPlane(t *testing.T) {
	w := testWindow()
	m, _, err := NewBuilder(nil).Build(context.Background(), nil, w, model.NewHeightStats(), buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	base := piecesOnLayer(m, model.LayerBase)
	if len(base) != 1 {
		t.Fatalf("got %d base pieces, want 1", len(base))
	}
	water := piecesOnLayer(m, model.LayerWater)
	if len(water) != 1 {
		t.Fatalf("got %d water pieces, want exactly 1 full-window plane", len(water))
	}

	// Base spans the full window; water sits directly on top of it.
	minB, maxB := geometryBounds(m, base[0])
	if minB.X != w.MinX() || maxB.X != w.MaxX() || minB.Z != w.MinZ() || maxB.Z != w.MaxZ() {
		t.Errorf("base slab bounds [%+v, %+v] do not span the window", minB, maxB)
	}
	minW, _ := geometryBounds(m, water[0])
	if !almostEqual(minW.Y, maxB.Y, 1e-9) {
		t.Errorf("water plane starts at %v, want top of base %v", minW.Y, maxB.Y)
	}

	if len(m.Layers) != 5 {
		t.Errorf("got %d layers, want 5", len(m.Layers))
	}
}

func TestBuild_SingleBuildingDegenerateRange(t *testing.T) {
	w := testWindow()
	stats := model.NewHeightStats()
	stats.Observe(12)

	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryBuilding, 12, unitSquare(0, 0)...),
	}
	m, _, err := NewBuilder(nil).Build(context.Background(), features, w, stats, buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	buildings := piecesOnLayer(m, model.LayerBuilding)
	if len(buildings) != 1 {
		t.Fatalf("got %d building pieces, want 1", len(buildings))
	}
	if got := buildings[0].RealHeightMM; got != model.MinPrintHeightMM {
		t.Errorf("canonical height = %v mm, want %v (degenerate range)", got, model.MinPrintHeightMM)
	}
}

func TestBuild_TwoBuildingsMapToPrintBounds(t *testing.T) {
	w := testWindow()
	stats := model.NewHeightStats()
	stats.Observe(3)
	stats.Observe(30)

	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryBuilding, 3, unitSquare(-10, -10)...),
		polygonFeature(2, model.CategoryBuilding, 30, unitSquare(10, 10)...),
	}
	m, _, err := NewBuilder(nil).Build(context.Background(), features, w, stats, buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	buildings := piecesOnLayer(m, model.LayerBuilding)
	if len(buildings) != 2 {
		t.Fatalf("got %d building pieces, want 2", len(buildings))
	}
	if got := buildings[0].RealHeightMM; got != model.MinPrintHeightMM {
		t.Errorf("short building = %v mm, want %v", got, model.MinPrintHeightMM)
	}
	if got := buildings[1].RealHeightMM; got != model.MaxPrintHeightMM {
		t.Errorf("tall building = %v mm, want %v", got, model.MaxPrintHeightMM)
	}

	// Vertical extent in preview space is the print height times the
	// display exaggeration, starting at the top of the base slab.
	plan := buildPlan(w)
	min0, max0 := geometryBounds(m, buildings[0])
	wantBase := model.BaseHeightMM * plan.DisplayVerticalScale
	if !almostEqual(min0.Y, wantBase, 1e-9) {
		t.Errorf("building rises from %v, want base top %v", min0.Y, wantBase)
	}
	if got := max0.Y - min0.Y; !almostEqual(got, model.MinPrintHeightMM*plan.DisplayVerticalScale, 1e-9) {
		t.Errorf("building preview extent = %v, want %v", got, model.MinPrintHeightMM*plan.DisplayVerticalScale)
	}
}

func TestBuild_BuildingOutsideWindowSkipped(t *testing.T) {
	w := testWindow()
	stats := model.NewHeightStats()
	stats.Observe(10)

	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryBuilding, 10, unitSquare(200, 200)...),
	}
	m, bs, err := NewBuilder(nil).Build(context.Background(), features, w, stats, buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := len(piecesOnLayer(m, model.LayerBuilding)); got != 0 {
		t.Errorf("got %d building pieces, want 0", got)
	}
	if bs.SkippedDegeneratePolygons != 1 {
		t.Errorf("SkippedDegeneratePolygons = %d, want 1", bs.SkippedDegeneratePolygons)
	}
}

func TestBuild_RoadSegmentBox(t *testing.T) {
	w := testWindow()
	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryHighway, 0,
			model.Vec3{X: -10, Z: 0}, model.Vec3{X: 10, Z: 0}),
	}
	m, _, err := NewBuilder(nil).Build(context.Background(), features, w, model.NewHeightStats(), buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	roads := piecesOnLayer(m, model.LayerRoad)
	if len(roads) != 1 {
		t.Fatalf("got %d road pieces, want 1", len(roads))
	}
	if roads[0].RealHeightMM != model.RoadHeightMM {
		t.Errorf("road canonical height = %v, want %v", roads[0].RealHeightMM, model.RoadHeightMM)
	}

	// Box aligned with the segment: long axis on X, fixed width across Z.
	min, max := geometryBounds(m, roads[0])
	if !almostEqual(min.X, -10, 1e-6) || !almostEqual(max.X, 10, 1e-6) {
		t.Errorf("road box X span [%v, %v], want [-10, 10]", min.X, max.X)
	}
	if got := max.Z - min.Z; !almostEqual(got, model.RoadWidthM, 1e-6) {
		t.Errorf("road box width = %v, want %v", got, model.RoadWidthM)
	}
}

func TestBuild_RoadCrossingBoundarySplits(t *testing.T) {
	w := testWindow()
	// Leaves and re-enters: two disjoint sub-paths, one box each.
	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryHighway, 0,
			model.Vec3{X: 0, Z: 0},
			model.Vec3{X: 80, Z: 0},
			model.Vec3{X: 80, Z: 30},
			model.Vec3{X: 0, Z: 30}),
	}
	m, _, err := NewBuilder(nil).Build(context.Background(), features, w, model.NewHeightStats(), buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	roads := piecesOnLayer(m, model.LayerRoad)
	if len(roads) != 2 {
		t.Fatalf("got %d road pieces, want 2 (one per sub-path)", len(roads))
	}
}

func TestBuild_ShortRoadSegmentSkipped(t *testing.T) {
	w := testWindow()
	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryHighway, 0,
			model.Vec3{X: 0, Z: 0}, model.Vec3{X: 0.3, Z: 0}),
	}
	m, bs, err := NewBuilder(nil).Build(context.Background(), features, w, model.NewHeightStats(), buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := len(piecesOnLayer(m, model.LayerRoad)); got != 0 {
		t.Errorf("got %d road pieces, want 0", got)
	}
	if bs.SkippedShortSegments != 1 {
		t.Errorf("SkippedShortSegments = %d, want 1", bs.SkippedShortSegments)
	}
}

func TestBuild_RoadFullyOutsideCounted(t *testing.T) {
	w := testWindow()
	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryHighway, 0,
			model.Vec3{X: 100, Z: -80}, model.Vec3{X: 100, Z: 80}),
	}
	_, bs, err := NewBuilder(nil).Build(context.Background(), features, w, model.NewHeightStats(), buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bs.SkippedDegenerateSegments != 1 {
		t.Errorf("SkippedDegenerateSegments = %d, want 1", bs.SkippedDegenerateSegments)
	}
}

func TestBuild_ParkAndSandGetDistinctMaterialsAndHeights(t *testing.T) {
	w := testWindow()
	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryPark, 0, unitSquare(-5, -5)...),
		polygonFeature(2, model.CategorySand, 0, unitSquare(5, 5)...),
	}
	m, _, err := NewBuilder(nil).Build(context.Background(), features, w, model.NewHeightStats(), buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	greenery := piecesOnLayer(m, model.LayerGreenery)
	if len(greenery) != 2 {
		t.Fatalf("got %d greenery pieces, want 2", len(greenery))
	}
	if greenery[0].RealHeightMM == greenery[1].RealHeightMM {
		t.Errorf("park and sand share height %v, want distinct", greenery[0].RealHeightMM)
	}
	if greenery[0].Material == greenery[1].Material {
		t.Errorf("park and sand share material %d, want distinct", greenery[0].Material)
	}
}

func TestBuild_WaterFeatureNotExtrudedPerFeature(t *testing.T) {
	w := testWindow()
	features := []model.ClassifiedFeature{
		polygonFeature(1, model.CategoryWater, 0, unitSquare(0, 0)...),
	}
	m, bs, err := NewBuilder(nil).Build(context.Background(), features, w, model.NewHeightStats(), buildPlan(w))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := len(piecesOnLayer(m, model.LayerWater)); got != 1 {
		t.Errorf("got %d water pieces, want only the global plane", got)
	}
	if bs.FeatureCounts[model.CategoryWater] != 1 {
		t.Errorf("water feature count = %d, want 1", bs.FeatureCounts[model.CategoryWater])
	}
}

package core

import (
	"context"
	"fmt"

	libtess2 "github.com/hajimehoshi/go-libtess2"

	"github.com/mapfoundry/cityprint/internal/logging"
	"github.com/mapfoundry/cityprint/model"
)

// BuildStats summarises one model build. Degenerate-geometry skips are
// counted here so callers and tests can observe how many features were
// dropped without the build failing.
type BuildStats struct {
	FeatureCounts map[model.Category]int

	SkippedDegeneratePolygons int
	SkippedDegenerateSegments int
	SkippedShortSegments      int

	Pieces    int
	Triangles int
}

// Builder turns classified, height-annotated features into a layered solid
// model. It is synchronous and stateless between runs; every Build call
// produces a fresh Model.
type Builder struct {
	log logging.Logger
}

// NewBuilder returns a Builder logging through log. A nil logger is
// replaced with a noop logger.
func NewBuilder(log logging.Logger) *Builder {
	if log == nil {
		log = logging.Noop()
	}
	return &Builder{log: log}
}

// Build emits the base slab, the single full-window water plane, and one or
// more solid pieces per clipped feature. Every piece carries its canonical
// real-world millimetre height so export can rescale it independently of the
// preview exaggeration baked into the emitted vertices.
func (b *Builder) Build(
	ctx context.Context,
	features []model.ClassifiedFeature,
	window model.BoundaryWindow,
	heightStats model.HeightStats,
	plan model.ScalePlan,
) (*model.Model, *BuildStats, error) {
	if window.Degenerate() {
		return nil, nil, fmt.Errorf("build: %w", ErrDegenerateWindow)
	}

	vs := plan.DisplayVerticalScale
	baseTop := model.BaseHeightMM * vs
	waterTop := baseTop + model.WaterHeightMM*vs
	greenTop := waterTop + model.ParkHeightMM*vs

	m := &model.Model{
		Window: window,
		Plan:   plan,
		Layers: []model.Layer{
			{Kind: model.LayerBase, Color: model.ColorBase, RealWorldHeightMM: model.BaseHeightMM, VerticalOffset: 0},
			{Kind: model.LayerWater, Color: model.ColorWater, RealWorldHeightMM: model.WaterHeightMM, VerticalOffset: baseTop},
			{Kind: model.LayerGreenery, Color: model.ColorPark, RealWorldHeightMM: model.ParkHeightMM, VerticalOffset: waterTop},
			{Kind: model.LayerRoad, Color: model.ColorRoad, RealWorldHeightMM: model.RoadHeightMM, VerticalOffset: greenTop},
			{Kind: model.LayerBuilding, Color: model.ColorBuilding, RealWorldHeightMM: 0, VerticalOffset: baseTop},
		},
	}

	stats := &BuildStats{FeatureCounts: make(map[model.Category]int)}

	matBase := m.AddMaterial(model.Material{Name: "base", Color: model.ColorBase, Alpha: 1})
	matWater := m.AddMaterial(model.Material{Name: "water", Color: model.ColorWater, Alpha: 1})
	matPark := m.AddMaterial(model.Material{Name: "park", Color: model.ColorPark, Alpha: 1})
	matSand := m.AddMaterial(model.Material{Name: "sand", Color: model.ColorSand, Alpha: 1})
	matRoad := m.AddMaterial(model.Material{Name: "road", Color: model.ColorRoad, Alpha: 1})
	matBuilding := m.AddMaterial(model.Material{Name: "building", Color: model.ColorBuilding, Alpha: 1})

	windowLoop := window.Corners[:]

	// Base slab spanning the full window.
	b.emitExtrusion(m, stats, windowLoop, 0, model.BaseHeightMM*vs,
		model.LayerBase, matBase, model.BaseHeightMM)

	// Exactly one water plane covering the window, above the base and below
	// the greenery band. Individual water features are classified but not
	// extruded per-feature.
	b.emitExtrusion(m, stats, windowLoop, baseTop, model.WaterHeightMM*vs,
		model.LayerWater, matWater, model.WaterHeightMM)

	for _, f := range features {
		stats.FeatureCounts[f.Category]++

		switch f.Category {
		case model.CategoryBuilding:
			printMM := BuildingPrintHeightMM(heightStats, f.RealHeightM)
			b.emitClippedPolygon(m, stats, f, window, baseTop, printMM*vs,
				model.LayerBuilding, matBuilding, printMM)

		case model.CategoryPark:
			b.emitClippedPolygon(m, stats, f, window, waterTop, model.ParkHeightMM*vs,
				model.LayerGreenery, matPark, model.ParkHeightMM)

		case model.CategorySand:
			b.emitClippedPolygon(m, stats, f, window, waterTop, model.SandHeightMM*vs,
				model.LayerGreenery, matSand, model.SandHeightMM)

		case model.CategoryHighway:
			b.emitRoad(m, stats, f, window, greenTop, model.RoadHeightMM*vs, matRoad)
		}
	}

	stats.Pieces = len(m.Pieces)
	stats.Triangles = m.TriangleCount()

	b.log.Info(ctx, "model built",
		logging.Int("pieces", stats.Pieces),
		logging.Int("triangles", stats.Triangles),
		logging.Int("skipped_polygons", stats.SkippedDegeneratePolygons),
		logging.Int("skipped_segments", stats.SkippedDegenerateSegments),
	)
	return m, stats, nil
}

// emitClippedPolygon clips the feature's ring against the window and
// extrudes the surviving loop. Degenerate results (fewer than 3 points) are
// counted and skipped; the build continues.
func (b *Builder) emitClippedPolygon(
	m *model.Model, stats *BuildStats,
	f model.ClassifiedFeature, window model.BoundaryWindow,
	yBottom, depth float64,
	layer model.LayerKind, mat model.MaterialID, realHeightMM float64,
) {
	loop := ClipPolygon(f.Points, window)
	if len(loop) < 3 {
		stats.SkippedDegeneratePolygons++
		return
	}
	b.emitExtrusion(m, stats, loop, yBottom, depth, layer, mat, realHeightMM)
}

// emitRoad clips the feature's node chain and emits one oriented box per
// surviving sub-segment longer than the minimum threshold.
func (b *Builder) emitRoad(
	m *model.Model, stats *BuildStats,
	f model.ClassifiedFeature, window model.BoundaryWindow,
	yBottom, depth float64, mat model.MaterialID,
) {
	paths := ClipPolyline(f.Points, window)
	if len(paths) == 0 {
		stats.SkippedDegenerateSegments++
		return
	}
	for _, path := range paths {
		for i := 0; i+1 < len(path); i++ {
			a, c := path[i], path[i+1]
			if a.PlanarDistanceTo(c) <= model.MinRoadSegmentM {
				stats.SkippedShortSegments++
				continue
			}
			loop := roadSegmentLoop(a, c, model.RoadWidthM)
			b.emitExtrusion(m, stats, loop, yBottom, depth,
				model.LayerRoad, mat, model.RoadHeightMM)
		}
	}
}

// roadSegmentLoop returns the footprint rectangle of one road sub-segment:
// centred on the segment midpoint, long axis aligned with the normalised
// segment direction, width fixed.
func roadSegmentLoop(a, b model.Vec3, width float64) []model.Vec3 {
	mid := a.Add(b).Scale(0.5)
	length := a.PlanarDistanceTo(b)
	dir := model.Vec3{X: (b.X - a.X) / length, Z: (b.Z - a.Z) / length}
	perp := model.Vec3{X: dir.Z, Z: -dir.X}

	along := dir.Scale(length / 2)
	across := perp.Scale(width / 2)

	return []model.Vec3{
		mid.Sub(along).Sub(across),
		mid.Add(along).Sub(across),
		mid.Add(along).Add(across),
		mid.Sub(along).Add(across),
	}
}

// emitExtrusion sweeps a flat closed loop vertically from yBottom by depth
// and appends the resulting piece. The caps are tessellated; the walls are
// one quad per loop edge. Loops the tessellator rejects count as degenerate.
func (b *Builder) emitExtrusion(
	m *model.Model, stats *BuildStats,
	loop []model.Vec3, yBottom, depth float64,
	layer model.LayerKind, mat model.MaterialID, realHeightMM float64,
) {
	soup, err := extrudeLoop(loop, yBottom, depth)
	if err != nil {
		stats.SkippedDegeneratePolygons++
		return
	}
	gid := m.AddGeometry(model.Geometry{Vertices: soup})
	m.Pieces = append(m.Pieces, model.SolidPiece{
		Layer:        layer,
		Geometry:     gid,
		Material:     mat,
		RealHeightMM: realHeightMM,
	})
}

// extrudeLoop builds a flat triangle soup for the solid swept from a closed
// footprint loop. Caps come from tessellating the footprint, so non-convex
// loops are handled; walls are two triangles per edge.
func extrudeLoop(loop []model.Vec3, yBottom, depth float64) ([]model.Vec3, error) {
	if len(loop) < 3 {
		return nil, fmt.Errorf("extrude: loop has %d points", len(loop))
	}

	contour := make(libtess2.Contour, len(loop))
	for i, p := range loop {
		contour[i] = libtess2.Vertex{X: float32(p.X), Y: float32(p.Z)}
	}
	elements, verts, err := libtess2.Tesselate([]libtess2.Contour{contour}, libtess2.WindingRuleOdd)
	if err != nil {
		return nil, fmt.Errorf("extrude: %w", err)
	}
	if len(elements) < 3 {
		return nil, fmt.Errorf("extrude: tessellation produced no triangles")
	}

	yTop := yBottom + depth
	capAt := func(y float64, i int) model.Vec3 {
		return model.Vec3{X: float64(verts[i].X), Y: y, Z: float64(verts[i].Y)}
	}

	var soup []model.Vec3
	for i := 0; i+2 < len(elements); i += 3 {
		// Top cap.
		soup = append(soup,
			capAt(yTop, elements[i]),
			capAt(yTop, elements[i+1]),
			capAt(yTop, elements[i+2]),
		)
		// Bottom cap, reversed winding.
		soup = append(soup,
			capAt(yBottom, elements[i+2]),
			capAt(yBottom, elements[i+1]),
			capAt(yBottom, elements[i]),
		)
	}

	// Walls, one quad per footprint edge.
	for i := range loop {
		a := loop[i]
		b := loop[(i+1)%len(loop)]
		ab := model.Vec3{X: a.X, Y: yBottom, Z: a.Z}
		bb := model.Vec3{X: b.X, Y: yBottom, Z: b.Z}
		at := model.Vec3{X: a.X, Y: yTop, Z: a.Z}
		bt := model.Vec3{X: b.X, Y: yTop, Z: b.Z}
		soup = append(soup, ab, bb, bt, ab, bt, at)
	}

	return soup, nil
}

package model

import "fmt"

// Color is an opaque sRGB color.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as "#RRGGBBAA" with full alpha, the form 3MF
// displaycolor attributes expect.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02XFF", c.R, c.G, c.B)
}

// LayerKind names one of the five fixed vertical bands of the model.
type LayerKind string

const (
	LayerBase     LayerKind = "base"
	LayerWater    LayerKind = "water"
	LayerGreenery LayerKind = "greenery"
	LayerRoad     LayerKind = "road"
	LayerBuilding LayerKind = "building"
)

// Layer describes one vertical band: its color, its canonical print height,
// and the preview-space offset its pieces start at. Offsets stack so bands
// never overlap: base lowest, then water, then greenery, then roads;
// buildings rise from the top of the base slab.
type Layer struct {
	Kind              LayerKind
	Color             Color
	RealWorldHeightMM float64
	// VerticalOffset is where the band starts in preview space (metres,
	// already multiplied by the display vertical scale).
	VerticalOffset float64
}

// Fixed policy constants of the core. Only the target horizontal model size
// is runtime-configurable; everything else is deliberately baked in.
const (
	// Building height estimation.
	DefaultBuildingHeightM = 5.0
	MetersPerLevel         = 3.0

	// Print-height bounds for the nonlinear building height mapping.
	MinPrintHeightMM = 0.8
	MaxPrintHeightMM = 8.0

	// Canonical layer heights, millimetres of printed plastic.
	BaseHeightMM  = 2.0
	WaterHeightMM = 0.3
	ParkHeightMM  = 0.5
	SandHeightMM  = 0.4
	RoadHeightMM  = 0.6

	// Road geometry.
	RoadWidthM          = 8.0
	MinRoadSegmentM     = 0.5
	DefaultTargetSizeMM = 100.0

	// Divisor for the preview-only vertical exaggeration.
	DisplayVerticalDivisor = 50.0
)

// Layer colors, one material per band.
var (
	ColorBase     = Color{R: 0x8A, G: 0x8A, B: 0x8A}
	ColorWater    = Color{R: 0x2E, G: 0x6A, B: 0xD6}
	ColorPark     = Color{R: 0x4C, G: 0xAF, B: 0x50}
	ColorSand     = Color{R: 0xED, G: 0xC9, B: 0x92}
	ColorRoad     = Color{R: 0x44, G: 0x44, B: 0x44}
	ColorBuilding = Color{R: 0xDB, G: 0xDB, B: 0xDB}
)

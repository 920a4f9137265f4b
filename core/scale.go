package core

import (
	"github.com/mapfoundry/cityprint/model"
)

// PlanScale derives the two scale factors for a window. HorizontalScale is
// metres per millimetre: the larger window extent divided by the target
// horizontal model size. DisplayVerticalScale exaggerates thin layers during
// interactive preview and is never applied at export time.
func PlanScale(window model.BoundaryWindow, targetSizeMM float64) model.ScalePlan {
	extent := window.Width()
	if window.Depth() > extent {
		extent = window.Depth()
	}
	return model.ScalePlan{
		HorizontalScale:      extent / targetSizeMM,
		DisplayVerticalScale: extent / model.DisplayVerticalDivisor,
	}
}

// BuildingPrintHeightMM maps a building's real-world height onto the bounded
// print range by linear interpolation over the observed height range. With a
// degenerate range (zero or one distinct building height) every building
// gets exactly the minimum print height; there is no division by zero path.
func BuildingPrintHeightMM(stats model.HeightStats, realHeightM float64) float64 {
	if stats.Degenerate() {
		return model.MinPrintHeightMM
	}
	ratio := (realHeightM - stats.MinBuildingHeightM) /
		(stats.MaxBuildingHeightM - stats.MinBuildingHeightM)
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	return model.MinPrintHeightMM + ratio*(model.MaxPrintHeightMM-model.MinPrintHeightMM)
}

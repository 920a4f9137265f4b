package model

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// ElementKind identifies the raw OSM element type an Element was built from.
type ElementKind string

const (
	ElementWay      ElementKind = "way"
	ElementRelation ElementKind = "relation"
)

// Element is one resolved input feature: a way (or a relation's outer way)
// with its tags and ordered geographic vertices. Dangling node references
// have already been filtered out by the region loader.
type Element struct {
	ID     int64
	Kind   ElementKind
	Tags   osm.Tags
	Points []orb.Point // lon/lat, in way order
}

// Category is the semantic bucket a feature lands in after classification.
type Category string

const (
	CategoryBuilding Category = "building"
	CategoryHighway  Category = "highway"
	CategoryPark     Category = "park"
	CategoryWater    Category = "water"
	CategorySand     Category = "sand"
	CategoryIgnored  Category = "ignored"
)

// ClassifiedFeature is an Element annotated with its category, its projected
// planar geometry, and (for buildings) the estimated real-world height.
type ClassifiedFeature struct {
	ID       int64
	Kind     ElementKind
	Category Category

	// Points is the element geometry projected into the local planar frame.
	// A closed ring for area features, an open chain for highways.
	Points []Vec3

	// RealHeightM is the estimated real-world height in metres.
	// Only meaningful for buildings.
	RealHeightM float64
}

// HeightStats is the observed range of positive building heights, used as
// the normalisation range for print-height mapping. It is computed once per
// region and never mutated afterwards.
type HeightStats struct {
	MinBuildingHeightM float64
	MaxBuildingHeightM float64
}

// NewHeightStats returns an empty range: min at +Inf, max at -Inf.
// With no qualifying building the range stays degenerate and the height
// mapping collapses to the minimum print height.
func NewHeightStats() HeightStats {
	return HeightStats{
		MinBuildingHeightM: math.Inf(1),
		MaxBuildingHeightM: math.Inf(-1),
	}
}

// Observe widens the range to include h. Non-positive heights are ignored;
// they do not participate in normalisation.
func (s *HeightStats) Observe(h float64) {
	if h <= 0 {
		return
	}
	if h < s.MinBuildingHeightM {
		s.MinBuildingHeightM = h
	}
	if h > s.MaxBuildingHeightM {
		s.MaxBuildingHeightM = h
	}
}

// Degenerate reports whether the range cannot be used for normalisation:
// no building observed, or all observed buildings share one height.
func (s HeightStats) Degenerate() bool {
	return math.IsInf(s.MinBuildingHeightM, 1) ||
		s.MaxBuildingHeightM == s.MinBuildingHeightM
}

package core

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/mapfoundry/cityprint/model"
)

// Metres per degree of latitude/longitude at the equator for the local
// equirectangular approximation. Valid for regions on the order of city
// blocks to small districts; curvature is ignored.
const (
	metersPerDegreeLat = 110574.0
	metersPerDegreeLon = 111320.0
)

// Project maps a geographic coordinate to the local planar frame centred on
// (centerLat, centerLon). Both axes are negated relative to the raw signed
// differences so the frame comes out north-up, east-right on screen. Y is
// always 0; height is applied later as an extrusion depth.
func Project(lat, lon, centerLat, centerLon float64) model.Vec3 {
	return model.Vec3{
		X: -(lon - centerLon) * metersPerDegreeLon * math.Cos(centerLat*math.Pi/180),
		Z: -(lat - centerLat) * metersPerDegreeLat,
	}
}

// ProjectPoint is Project for an orb lon/lat point.
func ProjectPoint(p orb.Point, center orb.Point) model.Vec3 {
	return Project(p.Lat(), p.Lon(), center.Lat(), center.Lon())
}

// ProjectRing projects an ordered chain of geographic points.
func ProjectRing(points []orb.Point, center orb.Point) []model.Vec3 {
	out := make([]model.Vec3, len(points))
	for i, p := range points {
		out[i] = ProjectPoint(p, center)
	}
	return out
}

// WindowFromBound projects the corners of a geographic bound and returns the
// boundary window spanning them.
func WindowFromBound(bound orb.Bound) model.BoundaryWindow {
	center := bound.Center()
	a := ProjectPoint(bound.Min, center)
	b := ProjectPoint(bound.Max, center)
	return model.NewBoundaryWindow(a, b)
}

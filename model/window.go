package model

import "math"

// BoundaryWindow is the axis-aligned rectangle bounding the selected region
// in projected space. Corners are stored as an ordered closed loop and serve
// as the clip window for both clipping algorithms.
type BoundaryWindow struct {
	// Corners runs counter-clockwise in the X/Z plane:
	// (minX,minZ), (maxX,minZ), (maxX,maxZ), (minX,maxZ).
	Corners [4]Vec3
}

// NewBoundaryWindow builds a window from two opposite corners in projected
// space, in any order.
func NewBoundaryWindow(a, b Vec3) BoundaryWindow {
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X, b.X)
	minZ := math.Min(a.Z, b.Z)
	maxZ := math.Max(a.Z, b.Z)
	return BoundaryWindow{
		Corners: [4]Vec3{
			{X: minX, Z: minZ},
			{X: maxX, Z: minZ},
			{X: maxX, Z: maxZ},
			{X: minX, Z: maxZ},
		},
	}
}

func (w BoundaryWindow) MinX() float64 { return w.Corners[0].X }
func (w BoundaryWindow) MaxX() float64 { return w.Corners[2].X }
func (w BoundaryWindow) MinZ() float64 { return w.Corners[0].Z }
func (w BoundaryWindow) MaxZ() float64 { return w.Corners[2].Z }

// Width is the window extent along X, metres.
func (w BoundaryWindow) Width() float64 { return w.MaxX() - w.MinX() }

// Depth is the window extent along Z, metres.
func (w BoundaryWindow) Depth() float64 { return w.MaxZ() - w.MinZ() }

// Center returns the window midpoint at ground level.
func (w BoundaryWindow) Center() Vec3 {
	return Vec3{
		X: (w.MinX() + w.MaxX()) / 2,
		Z: (w.MinZ() + w.MaxZ()) / 2,
	}
}

// Degenerate reports whether the window has zero width or depth. A
// degenerate window aborts the whole build before any geometry is emitted.
func (w BoundaryWindow) Degenerate() bool {
	return w.Width() <= 0 || w.Depth() <= 0
}

// Contains reports whether p lies inside or on the window boundary.
func (w BoundaryWindow) Contains(p Vec3) bool {
	return p.X >= w.MinX() && p.X <= w.MaxX() &&
		p.Z >= w.MinZ() && p.Z <= w.MaxZ()
}

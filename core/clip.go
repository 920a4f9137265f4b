package core

import (
	"math"

	"github.com/mapfoundry/cityprint/model"
)

// Clipping against the boundary window. Two independent algorithms share the
// same rectangular window: Sutherland–Hodgman for closed polygons and
// Cohen–Sutherland for polylines. Only axis-aligned rectangular windows are
// supported.

// ClipPolygon clips a closed subject loop against the window using
// Sutherland–Hodgman. The result is a closed loop; fewer than 3 points means
// the feature lies entirely outside the window and the caller must skip it.
func ClipPolygon(subject []model.Vec3, window model.BoundaryWindow) []model.Vec3 {
	output := subject
	for i := 0; i < 4; i++ {
		edgeStart := window.Corners[i]
		edgeEnd := window.Corners[(i+1)%4]

		input := output
		output = nil
		if len(input) == 0 {
			break
		}

		prev := input[len(input)-1]
		for _, cur := range input {
			curIn := insideEdge(edgeStart, edgeEnd, cur)
			prevIn := insideEdge(edgeStart, edgeEnd, prev)
			switch {
			case curIn && prevIn:
				output = append(output, cur)
			case curIn && !prevIn:
				output = append(output, lineIntersection(edgeStart, edgeEnd, prev, cur), cur)
			case !curIn && prevIn:
				output = append(output, lineIntersection(edgeStart, edgeEnd, prev, cur))
			}
			prev = cur
		}
	}
	return output
}

// insideEdge classifies p against the half-plane left of the directed window
// edge, using the cross-product sign test in the X/Z plane. The window loop
// is counter-clockwise, so "left of every edge" is inside.
func insideEdge(edgeStart, edgeEnd, p model.Vec3) bool {
	return (edgeEnd.X-edgeStart.X)*(p.Z-edgeStart.Z)-
		(edgeEnd.Z-edgeStart.Z)*(p.X-edgeStart.X) > 0
}

// lineIntersection returns the intersection of the infinite line through
// a-b (a window edge) with the line through p-q.
func lineIntersection(a, b, p, q model.Vec3) model.Vec3 {
	a1 := b.Z - a.Z
	b1 := a.X - b.X
	c1 := a1*a.X + b1*a.Z

	a2 := q.Z - p.Z
	b2 := p.X - q.X
	c2 := a2*p.X + b2*p.Z

	det := a1*b2 - a2*b1
	if det == 0 {
		// Parallel segment on the edge line; either endpoint serves.
		return p
	}
	return model.Vec3{
		X: (b2*c1 - b1*c2) / det,
		Z: (a1*c2 - a2*c1) / det,
	}
}

// Cohen–Sutherland outcodes.
const (
	codeInside = 0
	codeLeft   = 1
	codeRight  = 2
	codeBottom = 4
	codeTop    = 8
)

func outcode(p model.Vec3, w model.BoundaryWindow) int {
	code := codeInside
	switch {
	case p.X < w.MinX():
		code |= codeLeft
	case p.X > w.MaxX():
		code |= codeRight
	}
	switch {
	case p.Z < w.MinZ():
		code |= codeBottom
	case p.Z > w.MaxZ():
		code |= codeTop
	}
	return code
}

// clipSegment clips one segment with Cohen–Sutherland. ok is false when the
// segment lies entirely outside the window.
func clipSegment(p1, p2 model.Vec3, w model.BoundaryWindow) (a, b model.Vec3, ok bool) {
	c1 := outcode(p1, w)
	c2 := outcode(p2, w)

	for {
		switch {
		case c1|c2 == 0:
			// Both endpoints inside: trivial accept.
			return p1, p2, true
		case c1&c2 != 0:
			// Both endpoints outside on the same side: trivial reject.
			return p1, p2, false
		}

		// Push the outside endpoint onto the nearest violated boundary.
		out := c1
		if out == 0 {
			out = c2
		}

		var p model.Vec3
		switch {
		case out&codeTop != 0:
			p.X = p1.X + (p2.X-p1.X)*(w.MaxZ()-p1.Z)/(p2.Z-p1.Z)
			p.Z = w.MaxZ()
		case out&codeBottom != 0:
			p.X = p1.X + (p2.X-p1.X)*(w.MinZ()-p1.Z)/(p2.Z-p1.Z)
			p.Z = w.MinZ()
		case out&codeRight != 0:
			p.Z = p1.Z + (p2.Z-p1.Z)*(w.MaxX()-p1.X)/(p2.X-p1.X)
			p.X = w.MaxX()
		case out&codeLeft != 0:
			p.Z = p1.Z + (p2.Z-p1.Z)*(w.MinX()-p1.X)/(p2.X-p1.X)
			p.X = w.MinX()
		}

		if out == c1 {
			p1 = p
			c1 = outcode(p1, w)
		} else {
			p2 = p
			c2 = outcode(p2, w)
		}
	}
}

// ClipPolyline clips an ordered point chain against the window using
// Cohen–Sutherland on each consecutive segment. Adjacent accepted segments
// sharing an endpoint merge into one continuous polyline; a rejected segment
// or a non-matching endpoint starts a new one. A chain crossing the boundary
// several times therefore yields several disjoint sub-polylines, each of
// which must be extruded independently downstream.
func ClipPolyline(points []model.Vec3, w model.BoundaryWindow) [][]model.Vec3 {
	var out [][]model.Vec3
	var current []model.Vec3

	flush := func() {
		if len(current) >= 2 {
			out = append(out, current)
		}
		current = nil
	}

	for i := 0; i+1 < len(points); i++ {
		a, b, ok := clipSegment(points[i], points[i+1], w)
		if !ok {
			flush()
			continue
		}
		if len(current) > 0 && samePoint(current[len(current)-1], a) {
			current = append(current, b)
		} else {
			flush()
			current = []model.Vec3{a, b}
		}
	}
	flush()
	return out
}

func samePoint(a, b model.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Z-b.Z) < eps
}

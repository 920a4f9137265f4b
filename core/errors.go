package core

import "errors"

var (
	// ErrDegenerateWindow aborts a build: the boundary window has zero
	// width or depth, so no geometry can be generated.
	ErrDegenerateWindow = errors.New("boundary window has zero width or depth")

	// ErrMissingGeometry aborts an export: a piece references no usable
	// position data. There is no partial export.
	ErrMissingGeometry = errors.New("piece has no geometry data")
)

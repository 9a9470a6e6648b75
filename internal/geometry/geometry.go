package geometry

import (
	"fmt"
	"math"
)

// Viewport describes how the timeline is currently projected onto pixels.
// Zoom is pixels per second. The engine never owns these values; the host
// passes in whatever the view is showing.
type Viewport struct {
	Zoom    float64
	ScrollX float64
	ScrollY float64
}

// PixelToTime converts a horizontal pixel offset to seconds
func (v Viewport) PixelToTime(px float64) float64 {
	v.mustBeValid(px)
	return px / v.Zoom
}

// TimeToPixel converts seconds to a horizontal pixel offset
func (v Viewport) TimeToPixel(t float64) float64 {
	v.mustBeValid(t)
	return t * v.Zoom
}

// PointerToTime maps a pointer x coordinate to the timeline time of the
// dragged clip's leading edge, clamped to zero.
func (v Viewport) PointerToTime(pointerX, grabOffsetX float64) float64 {
	return math.Max(0, v.PixelToTime(pointerX-grabOffsetX+v.ScrollX))
}

// TimeThreshold converts a fixed pixel radius into seconds at the current
// zoom, so tolerances feel the same at every zoom level.
func (v Viewport) TimeThreshold(px float64) float64 {
	return v.PixelToTime(px)
}

// mustBeValid panics on inputs that are host programming errors.
func (v Viewport) mustBeValid(x float64) {
	if !(v.Zoom > 0) || math.IsInf(v.Zoom, 0) {
		panic(fmt.Sprintf("geometry: invalid zoom %v", v.Zoom))
	}
	if math.IsNaN(x) {
		panic("geometry: NaN coordinate")
	}
}

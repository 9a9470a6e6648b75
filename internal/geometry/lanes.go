package geometry

// Lanes is the vertical layout of the track list, top to bottom.
type Lanes struct {
	tops    []float64
	heights []float64
}

// NewLanes builds a layout from ordered lane heights
func NewLanes(heights []float64) Lanes {
	l := Lanes{
		tops:    make([]float64, len(heights)),
		heights: make([]float64, len(heights)),
	}
	y := 0.0
	for i, h := range heights {
		l.tops[i] = y
		l.heights[i] = h
		y += h
	}
	return l
}

// Top returns the y coordinate of the top of lane i
func (l Lanes) Top(i int) float64 {
	return l.tops[i]
}

// Bottom returns the y coordinate of the bottom of lane i
func (l Lanes) Bottom(i int) float64 {
	return l.tops[i] + l.heights[i]
}

// Center returns the vertical middle of lane i
func (l Lanes) Center(i int) float64 {
	return l.tops[i] + l.heights[i]/2
}

// LaneAt returns the lane under content coordinate y. Coordinates above the
// first lane resolve to it, and coordinates past the last lane to the last.
// Returns -1 when there are no lanes.
func (l Lanes) LaneAt(y float64) int {
	if len(l.tops) == 0 {
		return -1
	}
	for i := range l.tops {
		if y < l.Bottom(i) {
			return i
		}
	}
	return len(l.tops) - 1
}

// LaneAtPointer resolves a viewport-relative pointer y, accounting for vertical scroll
func (l Lanes) LaneAtPointer(v Viewport, pointerY float64) int {
	return l.LaneAt(pointerY + v.ScrollY)
}

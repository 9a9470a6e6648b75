package timeline

import "math"

// TrackType is the kind of media a lane carries
type TrackType string

const (
	TrackVideo TrackType = "video"
	TrackAudio TrackType = "audio"
)

// Valid reports whether t is a known track type
func (t TrackType) Valid() bool {
	return t == TrackVideo || t == TrackAudio
}

// Track is one lane of the timeline
type Track struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name,omitempty"`
	Type          TrackType `yaml:"type"`
	Height        float64   `yaml:"height,omitempty"`
	Muted         bool      `yaml:"muted,omitempty"`
	Visible       bool      `yaml:"visible"`
	Solo          bool      `yaml:"solo,omitempty"`
	ParentTrackID string    `yaml:"parent_track_id,omitempty"`
}

// DefaultTrackHeight is used when a track is added without a height
const DefaultTrackHeight = 48

// Transform is the 2D placement of a clip inside the frame
type Transform struct {
	X        float64 `yaml:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty"`
	Scale    float64 `yaml:"scale,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty"`
	Opacity  float64 `yaml:"opacity,omitempty"`
}

// IdentityTransform leaves a clip untouched
func IdentityTransform() Transform {
	return Transform{Scale: 1, Opacity: 1}
}

// Effect is an opaque reference to a renderer effect
type Effect struct {
	ID     string             `yaml:"id"`
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Point is a mask vertex in normalized frame coordinates
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Mask is a closed shape limiting where a clip is visible
type Mask struct {
	ID       string  `yaml:"id"`
	Inverted bool    `yaml:"inverted,omitempty"`
	Feather  float64 `yaml:"feather,omitempty"`
	Vertices []Point `yaml:"vertices"`
}

// Clip is a placed, trimmed reference to a media source on a track.
// Keyframe times are relative to StartTime.
type Clip struct {
	ID             string     `yaml:"id"`
	Name           string     `yaml:"name,omitempty"`
	TrackID        string     `yaml:"track"`
	StartTime      float64    `yaml:"start"`
	Duration       float64    `yaml:"duration"`
	InPoint        float64    `yaml:"in,omitempty"`
	OutPoint       float64    `yaml:"out,omitempty"`
	SourceDuration float64    `yaml:"source_duration,omitempty"`
	SourcePath     string     `yaml:"source,omitempty"`
	LinkedClipID   string     `yaml:"linked_clip,omitempty"`
	LinkedGroupID  string     `yaml:"linked_group,omitempty"`
	ParentClipID   string     `yaml:"parent_clip,omitempty"`
	CompositionID  string     `yaml:"composition,omitempty"`
	Transform      Transform  `yaml:"transform,omitempty"`
	Effects        []Effect   `yaml:"effects,omitempty"`
	Masks          []Mask     `yaml:"masks,omitempty"`
	Keyframes      []Keyframe `yaml:"keyframes,omitempty"`
}

// End returns the exclusive end time of the clip
func (c Clip) End() float64 {
	return c.StartTime + c.Duration
}

// Overlaps reports whether the clip intersects the half-open range [start, end)
func (c Clip) Overlaps(start, end float64) bool {
	return Overlap(c.StartTime, c.End(), start, end)
}

// IsComposition reports whether the clip is a nested composition
func (c Clip) IsComposition() bool {
	return c.CompositionID != ""
}

func (c Clip) clone() Clip {
	out := c
	out.Effects = append([]Effect(nil), c.Effects...)
	out.Keyframes = append([]Keyframe(nil), c.Keyframes...)
	if c.Masks != nil {
		out.Masks = make([]Mask, len(c.Masks))
		for i, m := range c.Masks {
			m.Vertices = append([]Point(nil), m.Vertices...)
			out.Masks[i] = m
		}
	}
	return out
}

// Transition lets two adjacent clips on one track overlap by up to Duration
// at their shared boundary.
type Transition struct {
	ID         string  `yaml:"id"`
	TrackID    string  `yaml:"track"`
	FromClipID string  `yaml:"from"`
	ToClipID   string  `yaml:"to"`
	Duration   float64 `yaml:"duration"`
}

// Joins reports whether the transition sits between clips a and b
func (t Transition) Joins(a, b string) bool {
	return (t.FromClipID == a && t.ToClipID == b) || (t.FromClipID == b && t.ToClipID == a)
}

// Epsilon absorbs floating point noise when comparing clip edges
const Epsilon = 1e-9

// Overlap reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching edges do not overlap.
func Overlap(aStart, aEnd, bStart, bEnd float64) bool {
	return aStart < bEnd-Epsilon && bStart < aEnd-Epsilon
}

// OverlapAmount returns the length of the intersection of two ranges
func OverlapAmount(aStart, aEnd, bStart, bEnd float64) float64 {
	return math.Max(0, math.Min(aEnd, bEnd)-math.Max(aStart, bStart))
}

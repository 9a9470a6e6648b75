package timeline

import (
	"math"
	"sort"
)

// Easing names the curve used from a keyframe to the next one
type Easing string

const (
	EaseLinear Easing = "linear"
	EaseIn     Easing = "ease-in"
	EaseOut    Easing = "ease-out"
	EaseInOut  Easing = "ease-in-out"
)

// PropertyOpacity is the keyframed property written by fade handles
const PropertyOpacity = "opacity"

// Keyframe is one animated value of a clip property. Time is clip-relative.
type Keyframe struct {
	ID       string  `yaml:"id"`
	Property string  `yaml:"property"`
	Time     float64 `yaml:"time"`
	Value    float64 `yaml:"value"`
	Easing   Easing  `yaml:"easing,omitempty"`
}

// Apply maps linear progress t in [0,1] through the easing curve
func (e Easing) Apply(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch e {
	case EaseIn:
		return t * t * t
	case EaseOut:
		return 1 - math.Pow(1-t, 3)
	case EaseInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - math.Pow(-2*t+2, 3)/2
	default:
		return t
	}
}

// SortKeyframes orders keyframes by time, keeping insertion order for ties
func SortKeyframes(kfs []Keyframe) {
	sort.SliceStable(kfs, func(i, j int) bool {
		return kfs[i].Time < kfs[j].Time
	})
}

// PropertyKeyframes returns the keyframes of one property in time order
func PropertyKeyframes(kfs []Keyframe, property string) []Keyframe {
	out := make([]Keyframe, 0, len(kfs))
	for _, kf := range kfs {
		if kf.Property == property {
			out = append(out, kf)
		}
	}
	SortKeyframes(out)
	return out
}

// ValueAt evaluates a property at clip-relative time t. The easing of the
// earlier keyframe shapes each segment. ok is false when the property has no
// keyframes.
func ValueAt(kfs []Keyframe, property string, t float64) (value float64, ok bool) {
	frames := PropertyKeyframes(kfs, property)
	if len(frames) == 0 {
		return 0, false
	}

	if t <= frames[0].Time {
		return frames[0].Value, true
	}
	last := frames[len(frames)-1]
	if t >= last.Time {
		return last.Value, true
	}

	for i := 0; i < len(frames)-1; i++ {
		prev, next := frames[i], frames[i+1]
		if t < prev.Time || t >= next.Time {
			continue
		}
		span := next.Time - prev.Time
		if span <= 0 {
			return next.Value, true
		}
		p := prev.Easing.Apply((t - prev.Time) / span)
		return prev.Value + (next.Value-prev.Value)*p, true
	}
	return last.Value, true
}

// trimKeyframes keeps keyframes inside [from, to] and rebases them so that
// from becomes zero.
func trimKeyframes(kfs []Keyframe, from, to float64) []Keyframe {
	out := kfs[:0:0]
	for _, kf := range kfs {
		if kf.Time < from-Epsilon || kf.Time > to+Epsilon {
			continue
		}
		kf.Time = math.Max(0, kf.Time-from)
		out = append(out, kf)
	}
	return out
}

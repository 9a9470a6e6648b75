package fade

import (
	"errors"
	"fmt"
	"math"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/rs/zerolog"
)

// Edge is the clip boundary a fade handle sits on
type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

// Valid reports whether e names a clip edge
func (e Edge) Valid() bool {
	return e == EdgeLeft || e == EdgeRight
}

// ErrInvalidEdge is returned for an unknown handle edge
var ErrInvalidEdge = errors.New("invalid fade edge")

// Keyframes is the keyframe collaborator
type Keyframes interface {
	AddKeyframe(clipID string, kf timeline.Keyframe) (string, error)
	RemoveKeyframe(clipID, keyframeID string) error
	ClipKeyframes(clipID string) []timeline.Keyframe
}

// Options pick the easings used when a fade is created from scratch
type Options struct {
	// InEasing shapes a new fade-in, set on its boundary keyframe.
	InEasing timeline.Easing
	// OutEasing shapes a new fade-out, set on its inner keyframe.
	OutEasing timeline.Easing
}

// DefaultOptions returns the stock fade easings
func DefaultOptions() Options {
	return Options{InEasing: timeline.EaseOut, OutEasing: timeline.EaseIn}
}

// Deps are the collaborators a Controller talks to
type Deps struct {
	State     drag.Accessor
	Keyframes Keyframes
	// Source may be nil when the host feeds Move and End itself.
	Source drag.PointerSource
}

// Session is the ephemeral state of one fade handle drag
type Session struct {
	ClipID               string
	Edge                 Edge
	StartPointerX        float64
	ClipDuration         float64
	OriginalFadeDuration float64
	FadeDuration         float64
	// BoundaryEasing is the easing of the keyframe that sat on the clip
	// boundary when the session began, if there was one.
	BoundaryEasing timeline.Easing

	owned []string
}

// Controller turns fade handle drags into a pair of opacity keyframes
type Controller struct {
	logger zerolog.Logger
	opts   Options
	deps   Deps

	active  bool
	session Session
	release func()
}

// New creates an idle fade controller
func New(logger zerolog.Logger, opts Options, deps Deps) *Controller {
	if opts.InEasing == "" {
		opts.InEasing = timeline.EaseOut
	}
	if opts.OutEasing == "" {
		opts.OutEasing = timeline.EaseIn
	}
	return &Controller{
		logger: logger.With().Str("component", "fade").Logger(),
		opts:   opts,
		deps:   deps,
	}
}

// Session returns a copy of the live session, if any
func (c *Controller) Session() (Session, bool) {
	if !c.active {
		return Session{}, false
	}
	s := c.session
	s.owned = append([]string(nil), s.owned...)
	return s, true
}

// Begin starts a fade session on one edge of a clip. The existing fade and
// the easing on the boundary keyframe are read once, here.
func (c *Controller) Begin(clipID string, edge Edge, pointerX float64) error {
	if !edge.Valid() {
		return fmt.Errorf("fade %s edge %q: %w", clipID, edge, ErrInvalidEdge)
	}
	env := c.deps.State.Current()
	clip, ok := env.Timeline.Clip(clipID)
	if !ok {
		return fmt.Errorf("fade %s: %w", clipID, timeline.ErrClipNotFound)
	}
	if c.active {
		c.End()
	}

	frames := timeline.PropertyKeyframes(c.deps.Keyframes.ClipKeyframes(clipID), timeline.PropertyOpacity)
	owned := half(frames, edge, clip.Duration)

	s := Session{
		ClipID:        clipID,
		Edge:          edge,
		StartPointerX: pointerX,
		ClipDuration:  clip.Duration,
	}
	boundary := 0.0
	if edge == EdgeRight {
		boundary = clip.Duration
	}
	for _, kf := range owned {
		if math.Abs(kf.Time-boundary) < timeline.Epsilon {
			s.BoundaryEasing = kf.Easing
		}
	}
	s.OriginalFadeDuration = fadeLength(owned, edge, clip.Duration)
	s.FadeDuration = s.OriginalFadeDuration
	for _, kf := range owned {
		s.owned = append(s.owned, kf.ID)
	}

	c.session = s
	c.active = true
	if c.deps.Source != nil {
		c.release = c.deps.Source.Listen(
			func(ev drag.PointerEvent) { c.Move(ev.X) },
			func(drag.PointerEvent) { c.End() },
		)
	}

	c.logger.Debug().
		Str("clip", clipID).
		Str("edge", string(edge)).
		Float64("fade", s.OriginalFadeDuration).
		Str("boundary_easing", string(s.BoundaryEasing)).
		Msg("fade started")
	return nil
}

// Move recomputes the fade from the horizontal pointer displacement and
// rewrites the edge's keyframe pair. It returns the new fade duration.
func (c *Controller) Move(pointerX float64) float64 {
	if !c.active {
		return 0
	}
	env := c.deps.State.Current()
	s := c.session

	dt := env.Viewport.PixelToTime(pointerX - s.StartPointerX)
	d := s.OriginalFadeDuration + dt
	if s.Edge == EdgeRight {
		d = s.OriginalFadeDuration - dt
	}
	d = math.Max(0, math.Min(s.ClipDuration/2, d))

	for _, id := range s.owned {
		if err := c.deps.Keyframes.RemoveKeyframe(s.ClipID, id); err != nil && !errors.Is(err, timeline.ErrKeyframeNotFound) {
			c.logger.Error().Err(err).Str("clip", s.ClipID).Msg("removing fade keyframe")
		}
	}
	s.owned = nil

	if d > timeline.Epsilon {
		for _, kf := range c.pair(s, d) {
			id, err := c.deps.Keyframes.AddKeyframe(s.ClipID, kf)
			if err != nil {
				c.logger.Error().Err(err).Str("clip", s.ClipID).Msg("writing fade keyframe")
				continue
			}
			s.owned = append(s.owned, id)
		}
	}

	s.FadeDuration = d
	c.session = s
	c.logger.Debug().Str("clip", s.ClipID).Str("edge", string(s.Edge)).Float64("fade", d).Msg("fade moved")
	return d
}

// End closes the session and detaches listeners. The keyframes written by
// the last Move stay.
func (c *Controller) End() (Session, bool) {
	if !c.active {
		return Session{}, false
	}
	s, _ := c.Session()
	if c.release != nil {
		c.release()
		c.release = nil
	}
	c.active = false
	c.session = Session{}
	c.logger.Info().
		Str("clip", s.ClipID).
		Str("edge", string(s.Edge)).
		Float64("from", s.OriginalFadeDuration).
		Float64("to", s.FadeDuration).
		Msg("fade committed")
	return s, true
}

// pair builds the boundary and inner keyframes for a fade of length d
func (c *Controller) pair(s Session, d float64) []timeline.Keyframe {
	if s.Edge == EdgeLeft {
		easing := s.BoundaryEasing
		if easing == "" {
			easing = c.opts.InEasing
		}
		return []timeline.Keyframe{
			{Property: timeline.PropertyOpacity, Time: 0, Value: 0, Easing: easing},
			{Property: timeline.PropertyOpacity, Time: d, Value: 1, Easing: timeline.EaseLinear},
		}
	}
	easing := s.BoundaryEasing
	if easing == "" {
		easing = timeline.EaseLinear
	}
	return []timeline.Keyframe{
		{Property: timeline.PropertyOpacity, Time: s.ClipDuration - d, Value: 1, Easing: c.opts.OutEasing},
		{Property: timeline.PropertyOpacity, Time: s.ClipDuration, Value: 0, Easing: easing},
	}
}

// half returns the opacity keyframes belonging to one edge's fade. The left
// fade owns [0, mid] and the right fade [mid, D]. When two keyframes sit
// exactly on mid each edge takes one, the earlier going left. A lone
// keyframe on mid stays with the opposite edge when it is the only thing
// completing that edge's fade.
func half(frames []timeline.Keyframe, edge Edge, duration float64) []timeline.Keyframe {
	mid := duration / 2
	var left, right, onMid []timeline.Keyframe
	for _, kf := range frames {
		switch {
		case math.Abs(kf.Time-mid) < timeline.Epsilon:
			onMid = append(onMid, kf)
		case kf.Time < mid:
			left = append(left, kf)
		default:
			right = append(right, kf)
		}
	}

	own, other, otherBoundary := left, right, duration
	if edge == EdgeRight {
		own, other, otherBoundary = right, left, 0
	}
	out := append([]timeline.Keyframe(nil), own...)

	switch {
	case len(onMid) > 1 && edge == EdgeLeft:
		out = append(out, onMid[0])
	case len(onMid) > 1:
		out = append(out, onMid[len(onMid)-1])
	case len(onMid) == 1:
		needed := len(other) == 1 && math.Abs(other[0].Time-otherBoundary) < timeline.Epsilon
		if !needed {
			out = append(out, onMid[0])
		}
	}
	timeline.SortKeyframes(out)
	return out
}

// fadeLength measures the existing fade from the boundary keyframe to the
// nearest keyframe inside the clip. No boundary keyframe means no fade.
func fadeLength(owned []timeline.Keyframe, edge Edge, duration float64) float64 {
	if len(owned) < 2 {
		return 0
	}
	if edge == EdgeLeft {
		if owned[0].Time > timeline.Epsilon {
			return 0
		}
		return math.Min(duration/2, owned[1].Time)
	}
	n := len(owned)
	if math.Abs(owned[n-1].Time-duration) > timeline.Epsilon {
		return 0
	}
	return math.Min(duration/2, duration-owned[n-2].Time)
}

package drag

import (
	"math"

	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/rs/zerolog"
)

// Deps are the collaborators a Controller talks to
type Deps struct {
	State    Accessor
	Selector Selector
	Mover    Mover
	// Opener may be nil when nested compositions are not supported.
	Opener CompositionOpener
	// Source may be nil when the host feeds PointerMove and PointerUp itself.
	Source PointerSource
}

// Controller owns the clip drag state machine. Pointer-move only ever
// writes the session; the clip model is written once, on pointer-up.
//
// Controller is not safe for concurrent use.
type Controller struct {
	logger zerolog.Logger
	opts   Options
	deps   Deps

	state   State
	session Session
	release func()

	subs    map[int]func(Preview)
	nextSub int
}

// New creates an idle controller
func New(logger zerolog.Logger, opts Options, deps Deps) *Controller {
	def := DefaultOptions()
	if opts.TrackChangeDelay < 0 {
		opts.TrackChangeDelay = def.TrackChangeDelay
	}
	if opts.TrackChangeDistancePx <= 0 {
		opts.TrackChangeDistancePx = def.TrackChangeDistancePx
	}
	if opts.SnapRadiusPx <= 0 {
		opts.SnapRadiusPx = def.SnapRadiusPx
	}
	if opts.MaxConstraintPasses <= 0 {
		opts.MaxConstraintPasses = def.MaxConstraintPasses
	}
	return &Controller{
		logger: logger.With().Str("component", "drag").Logger(),
		opts:   opts,
		deps:   deps,
		subs:   make(map[int]func(Preview)),
	}
}

// State returns where the state machine is
func (c *Controller) State() State {
	return c.state
}

// Session returns a copy of the live session, if dragging
func (c *Controller) Session() (Session, bool) {
	if c.state != Dragging {
		return Session{}, false
	}
	return c.session, true
}

// Subscribe registers a preview listener. Listeners only read; they never
// drive the state machine.
func (c *Controller) Subscribe(fn func(Preview)) (unsubscribe func()) {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() { delete(c.subs, id) }
}

// PointerDown starts a drag on a clip. Shift-click only toggles selection.
// It reports whether a session started.
func (c *Controller) PointerDown(clipID string, ev PointerEvent) bool {
	env := c.deps.State.Current()
	clip, ok := env.Timeline.Clip(clipID)
	if !ok {
		c.logger.Debug().Str("clip", clipID).Msg("pointer down on unknown clip")
		return false
	}

	if c.state == Dragging {
		c.logger.Warn().Str("clip", c.session.ClipID).Msg("stale session dropped")
		c.end()
	}

	sel := c.deps.Selector
	if ev.Shift {
		sel.SelectClip(clipID, true, false)
		return false
	}
	if sel.IsSelected(clipID) {
		sel.SelectClip(clipID, false, true)
	} else {
		sel.SelectClip(clipID, false, false)
	}

	var others []string
	if ids := sel.SelectedIDs(); len(ids) > 1 {
		for _, id := range ids {
			if id != clipID {
				others = append(others, id)
			}
		}
	}

	v := env.Viewport
	c.session = Session{
		ClipID:             clipID,
		OriginalStartTime:  clip.StartTime,
		OriginalTrackID:    clip.TrackID,
		GrabOffsetX:        ev.X + v.ScrollX - v.TimeToPixel(clip.StartTime),
		GrabY:              ev.Y,
		CurrentPointerX:    ev.X,
		CurrentTrackID:     clip.TrackID,
		StartTime:          clip.StartTime,
		AltKeyPressed:      ev.Alt,
		DragStart:          ev.At,
		MultiSelectClipIDs: others,
		Moving:             movingSet(env.Timeline, clipID, others, ev.Alt),
	}
	c.state = Dragging

	if c.deps.Source != nil {
		c.release = c.deps.Source.Listen(c.PointerMove, func(ev PointerEvent) { c.PointerUp(ev) })
	}

	c.logger.Debug().
		Str("clip", clipID).
		Str("track", clip.TrackID).
		Float64("start", clip.StartTime).
		Strs("moving", c.session.Moving).
		Msg("drag started")
	c.notify(env.Timeline)
	return true
}

// PointerMove resolves the pointer into a new preview position. The clip
// model is read fresh from the accessor and never written.
func (c *Controller) PointerMove(ev PointerEvent) {
	if c.state != Dragging {
		return
	}
	env := c.deps.State.Current()
	s, ok := c.resolve(env, c.session, ev)
	if !ok {
		return
	}
	c.session = s
	c.notify(env.Timeline)
}

// PointerUp commits the last resolved position and ends the session. The
// position is not re-resolved from the release coordinates. It reports
// whether the model changed.
func (c *Controller) PointerUp(ev PointerEvent) (Commit, bool) {
	if c.state != Dragging {
		return Commit{}, false
	}
	s := c.session
	defer c.end()

	env := c.deps.State.Current()
	delta := s.Delta()
	if math.Abs(delta) < timeline.Epsilon && s.CurrentTrackID == s.OriginalTrackID {
		c.logger.Debug().Str("clip", s.ClipID).Msg("drag released in place")
		return Commit{}, false
	}

	moved, err := c.deps.Mover.MoveClip(timeline.MoveRequest{
		ClipID:     s.ClipID,
		StartTime:  s.StartTime,
		TrackID:    s.CurrentTrackID,
		SkipLinked: s.AltKeyPressed,
		SkipGroup:  s.AltKeyPressed,
		ExcludeIDs: s.Moving,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("clip", s.ClipID).Msg("commit failed")
		return Commit{}, false
	}

	done := make(map[string]bool, len(s.Moving))
	for _, id := range moved {
		done[id] = true
	}
	for _, id := range s.Moving {
		if done[id] {
			continue
		}
		m, ok := env.Timeline.Clip(id)
		if !ok {
			continue
		}
		ids, err := c.deps.Mover.MoveClip(timeline.MoveRequest{
			ClipID:     id,
			StartTime:  m.StartTime + delta,
			SkipLinked: true,
			SkipGroup:  true,
			ExcludeIDs: s.Moving,
		})
		if err != nil {
			c.logger.Error().Err(err).Str("clip", id).Msg("group member commit failed")
			continue
		}
		for _, mid := range ids {
			done[mid] = true
		}
		moved = append(moved, ids...)
	}

	commit := Commit{
		ClipID:    s.ClipID,
		TrackID:   s.CurrentTrackID,
		StartTime: s.StartTime,
		Delta:     delta,
		Moved:     moved,
	}
	c.logger.Info().
		Str("clip", s.ClipID).
		Str("track", s.CurrentTrackID).
		Float64("start", s.StartTime).
		Float64("delta", delta).
		Bool("forced", s.ForcingOverlap).
		Int("moved", len(moved)).
		Msg("drag committed")
	return commit, true
}

// DoubleClick opens a nested composition clip in its own tab. It reports
// whether a tab was requested.
func (c *Controller) DoubleClick(clipID string) bool {
	env := c.deps.State.Current()
	clip, ok := env.Timeline.Clip(clipID)
	if !ok || !clip.IsComposition() || c.deps.Opener == nil {
		return false
	}
	c.deps.Opener.OpenCompositionTab(clip.CompositionID)
	c.logger.Debug().Str("clip", clipID).Str("composition", clip.CompositionID).Msg("composition opened")
	return true
}

// Close tears the controller down, detaching listeners without committing
func (c *Controller) Close() {
	if c.state == Dragging {
		c.logger.Debug().Str("clip", c.session.ClipID).Msg("session torn down")
		c.end()
	}
}

func (c *Controller) end() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
	c.state = Idle
	c.session = Session{}
	c.notify(nil)
}

func (c *Controller) notify(tl *timeline.Snapshot) {
	if len(c.subs) == 0 {
		return
	}
	p := Preview{}
	if c.state == Dragging && tl != nil {
		p = Preview{Active: true, Session: c.session, Ghosts: ghosts(tl, c.session)}
	}
	for _, fn := range c.subs {
		fn(p)
	}
}

// ghosts places every moving clip at the session delta
func ghosts(tl *timeline.Snapshot, s Session) []Ghost {
	delta := s.Delta()
	out := make([]Ghost, 0, len(s.Moving))
	for _, id := range s.Moving {
		m, ok := tl.Clip(id)
		if !ok {
			continue
		}
		g := Ghost{ClipID: id, TrackID: m.TrackID, StartTime: math.Max(0, m.StartTime+delta), Duration: m.Duration}
		if id == s.ClipID {
			g.TrackID = s.CurrentTrackID
			g.StartTime = s.StartTime
		}
		out = append(out, g)
	}
	return out
}

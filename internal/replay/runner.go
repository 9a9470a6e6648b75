package replay

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/fade"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/preview"
	"github.com/keagan/clipdeck/internal/timeline"
)

// epoch is the clock origin of every script, so replays are deterministic
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Options configure a Runner
type Options struct {
	Viewport        geometry.Viewport
	SnappingEnabled bool
	Drag            drag.Options
	Fade            fade.Options

	// Preview, when set together with PreviewOut, draws a frame for every
	// drag preview.
	Preview    *preview.Renderer
	PreviewOut io.Writer
}

// Result collects what a replay changed
type Result struct {
	Commits []drag.Commit
	Fades   []fade.Session
	Opened  []string
	Steps   int
}

// Runner plays pointer scripts against a store through the drag and fade
// controllers, the same way an interactive host does
type Runner struct {
	logger zerolog.Logger
	store  *timeline.Store
	opts   Options

	drag   *drag.Controller
	fade   *fade.Controller
	detach func()

	clock  time.Time
	result Result
}

// NewRunner wires both controllers to the store
func NewRunner(logger zerolog.Logger, store *timeline.Store, opts Options) *Runner {
	r := &Runner{
		logger: logger.With().Str("component", "replay").Logger(),
		store:  store,
		opts:   opts,
		clock:  epoch,
	}
	r.drag = drag.New(logger, opts.Drag, drag.Deps{
		State:    r,
		Selector: store.Selection(),
		Mover:    store,
		Opener:   r,
	})
	r.fade = fade.New(logger, opts.Fade, fade.Deps{
		State:     r,
		Keyframes: store,
	})
	if opts.Preview != nil && opts.PreviewOut != nil {
		r.detach = opts.Preview.Attach(r.drag, r, opts.PreviewOut)
	}
	return r
}

// Current returns the live editor state
func (r *Runner) Current() drag.Env {
	return drag.Env{
		Timeline:        r.store.Snapshot(),
		Viewport:        r.opts.Viewport,
		SnappingEnabled: r.opts.SnappingEnabled,
	}
}

// OpenCompositionTab records the composition a double-click asked for
func (r *Runner) OpenCompositionTab(compositionID string) {
	r.result.Opened = append(r.result.Opened, compositionID)
	r.logger.Info().Str("composition", compositionID).Msg("composition tab requested")
}

// Close drops any open session without committing it
func (r *Runner) Close() {
	r.drag.Close()
	r.fade.End()
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
}

// Run plays every step of a script in order
func (r *Runner) Run(ctx context.Context, script *Script) (Result, error) {
	r.logger.Info().Str("script", script.Name).Int("steps", len(script.Steps)).Msg("replay started")
	base := r.clock

	for i, st := range script.Steps {
		if err := ctx.Err(); err != nil {
			r.Close()
			return r.result, err
		}
		if at := base.Add(st.At); at.After(r.clock) {
			r.clock = at
		}
		if err := r.step(st); err != nil {
			r.Close()
			return r.result, fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
		r.result.Steps++
	}

	r.logger.Info().
		Int("commits", len(r.result.Commits)).
		Int("fades", len(r.result.Fades)).
		Msg("replay finished")
	return r.result, nil
}

func (r *Runner) step(st Step) error {
	ev := drag.PointerEvent{
		X:         st.X,
		Y:         st.Y,
		At:        r.clock,
		Modifiers: drag.Modifiers{Shift: st.Shift, Alt: st.Alt, Force: st.Force},
	}

	switch st.Action {
	case ActionDown:
		if !r.drag.PointerDown(st.Clip, ev) {
			r.logger.Debug().Str("clip", st.Clip).Msg("pointer down started no drag")
		}
	case ActionMove:
		r.drag.PointerMove(ev)
	case ActionUp:
		if c, ok := r.drag.PointerUp(ev); ok {
			r.result.Commits = append(r.result.Commits, c)
		}
	case ActionDoubleClick:
		r.drag.DoubleClick(st.Clip)
	case ActionFadeBegin:
		return r.fade.Begin(st.Clip, fade.Edge(st.Edge), st.X)
	case ActionFadeMove:
		r.fade.Move(st.X)
	case ActionFadeEnd:
		if s, ok := r.fade.End(); ok {
			r.result.Fades = append(r.result.Fades, s)
		}
	case ActionDrag:
		_, _, err := r.DragTo(st.Clip, st.Time, st.Track, ev.Modifiers)
		return err
	case ActionFade:
		_, err := r.FadeTo(st.Clip, fade.Edge(st.Edge), st.Time)
		return err
	default:
		return fmt.Errorf("%q: %w", st.Action, ErrUnknownAction)
	}
	return nil
}

// DragTo performs a whole drag gesture that aims the clip at start on
// trackID. An empty trackID keeps the clip's track. The resolvers still
// apply, so the committed position may differ from the one asked for.
func (r *Runner) DragTo(clipID string, start float64, trackID string, mods drag.Modifiers) (drag.Commit, bool, error) {
	env := r.Current()
	clip, ok := env.Timeline.Clip(clipID)
	if !ok {
		return drag.Commit{}, false, fmt.Errorf("drag %s: %w", clipID, timeline.ErrClipNotFound)
	}
	if trackID == "" {
		trackID = clip.TrackID
	}
	if env.Timeline.TrackIndex(trackID) < 0 {
		return drag.Commit{}, false, fmt.Errorf("drag %s to %s: %w", clipID, trackID, timeline.ErrTrackNotFound)
	}

	from, fromY := r.pointerAt(env, clip.StartTime, clip.TrackID)
	to, toY := r.pointerAt(env, start, trackID)

	down := drag.PointerEvent{X: from, Y: fromY, At: r.clock, Modifiers: drag.Modifiers{Alt: mods.Alt}}
	if !r.drag.PointerDown(clipID, down) {
		return drag.Commit{}, false, nil
	}

	// Past the hysteresis delay so the track change is allowed.
	r.clock = r.clock.Add(r.trackChangeDelay() + time.Millisecond)
	move := drag.PointerEvent{X: to, Y: toY, At: r.clock, Modifiers: mods}
	r.drag.PointerMove(move)
	commit, ok := r.drag.PointerUp(move)
	if ok {
		r.result.Commits = append(r.result.Commits, commit)
	}
	return commit, ok, nil
}

// FadeTo drags one fade handle of a clip until the fade lasts seconds
func (r *Runner) FadeTo(clipID string, edge fade.Edge, seconds float64) (fade.Session, error) {
	env := r.Current()
	if err := r.fade.Begin(clipID, edge, 0); err != nil {
		return fade.Session{}, err
	}
	s, _ := r.fade.Session()
	dt := seconds - s.OriginalFadeDuration
	if edge == fade.EdgeRight {
		dt = -dt
	}
	r.fade.Move(env.Viewport.TimeToPixel(dt))
	s, _ = r.fade.End()
	r.result.Fades = append(r.result.Fades, s)
	return s, nil
}

// pointerAt returns viewport coordinates just inside the leading edge of a
// clip placed at start, vertically centred on the track's lane
func (r *Runner) pointerAt(env drag.Env, start float64, trackID string) (x, y float64) {
	v := env.Viewport
	lanes := geometry.NewLanes(env.Timeline.LaneHeights())
	x = v.TimeToPixel(start) - v.ScrollX + 1
	y = lanes.Center(env.Timeline.TrackIndex(trackID)) - v.ScrollY
	return x, y
}

func (r *Runner) trackChangeDelay() time.Duration {
	if r.opts.Drag.TrackChangeDelay > 0 {
		return r.opts.Drag.TrackChangeDelay
	}
	return drag.DefaultOptions().TrackChangeDelay
}

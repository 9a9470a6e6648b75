package gui

import (
	"image/color"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/fade"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/timeline"
)

var (
	colorLane     = color.NRGBA{R: 0x1a, G: 0x1b, B: 0x26, A: 0xff}
	colorLaneAlt  = color.NRGBA{R: 0x24, G: 0x28, B: 0x3b, A: 0xff}
	colorClip     = color.NRGBA{R: 0x7a, G: 0xa2, B: 0xf7, A: 0xff}
	colorSelected = color.NRGBA{R: 0x9e, G: 0xce, B: 0x6a, A: 0xff}
	colorGhost    = color.NRGBA{R: 0xbb, G: 0x9a, B: 0xf7, A: 0x90}
	colorForced   = color.NRGBA{R: 0xf7, G: 0x76, B: 0x8e, A: 0x90}
	colorHandle   = color.NRGBA{R: 0xc0, G: 0xca, B: 0xf5, A: 0xff}
	colorHead     = color.NRGBA{R: 0xe0, G: 0xaf, B: 0x68, A: 0xff}
	colorText     = color.NRGBA{R: 0x1a, G: 0x1b, B: 0x26, A: 0xff}
)

// handlePx is the size of the fade handle square in each top corner of a clip
const handlePx = 8

type gesture int

const (
	gestureNone gesture = iota
	gestureClip
	gestureFade
)

// Timeline is a fyne widget that draws the track lanes and drives the drag
// and fade controllers from mouse input
type Timeline struct {
	widget.BaseWidget

	logger   zerolog.Logger
	opts     Options
	store    *timeline.Store
	viewport geometry.Viewport
	snapping bool

	drag *drag.Controller
	fade *fade.Controller

	preview drag.Preview
	gesture gesture
	// mods are latched at mouse-down; drag events carry no modifier state.
	mods drag.Modifiers
	last drag.PointerEvent

	// OnChange is called after every committed edit
	OnChange func()
	// OnOpenComposition is called when a composition clip is double-clicked
	OnOpenComposition func(compositionID string)
}

var (
	_ desktop.Mouseable   = (*Timeline)(nil)
	_ fyne.Draggable      = (*Timeline)(nil)
	_ fyne.DoubleTappable = (*Timeline)(nil)
	_ fyne.Scrollable     = (*Timeline)(nil)
)

// NewTimeline creates a timeline widget over store
func NewTimeline(logger zerolog.Logger, store *timeline.Store, opts Options) *Timeline {
	t := &Timeline{
		logger:   logger.With().Str("component", "gui").Logger(),
		opts:     opts,
		viewport: opts.Viewport,
		snapping: opts.SnappingEnabled,
	}
	t.wire(store)
	t.ExtendBaseWidget(t)
	return t
}

// wire points both controllers at store
func (t *Timeline) wire(store *timeline.Store) {
	t.store = store
	t.drag = drag.New(t.logger, t.opts.Drag, drag.Deps{
		State:    t,
		Selector: store.Selection(),
		Mover:    store,
		Opener:   t,
	})
	t.fade = fade.New(t.logger, t.opts.Fade, fade.Deps{
		State:     t,
		Keyframes: store,
	})
	t.drag.Subscribe(func(p drag.Preview) {
		t.preview = p
		t.Refresh()
	})
}

// Current returns the live editor state
func (t *Timeline) Current() drag.Env {
	return drag.Env{
		Timeline:        t.store.Snapshot(),
		Viewport:        t.viewport,
		SnappingEnabled: t.snapping,
	}
}

// Store returns the timeline being edited
func (t *Timeline) Store() *timeline.Store {
	return t.store
}

// SetStore swaps in a newly loaded timeline, dropping any open gesture
func (t *Timeline) SetStore(store *timeline.Store) {
	t.drag.Close()
	t.fade.End()
	t.gesture = gestureNone
	t.preview = drag.Preview{}
	t.wire(store)
	t.Refresh()
}

// SetZoom changes the horizontal scale in pixels per second
func (t *Timeline) SetZoom(zoom float64) {
	if !(zoom > 0) {
		return
	}
	t.viewport.Zoom = zoom
	t.Refresh()
}

// SetSnapping toggles snapping for subsequent drags
func (t *Timeline) SetSnapping(on bool) {
	t.snapping = on
}

// OpenCompositionTab forwards a composition double-click to the host
func (t *Timeline) OpenCompositionTab(compositionID string) {
	if t.OnOpenComposition != nil {
		t.OnOpenComposition(compositionID)
	}
}

// MouseDown starts a clip drag or a fade handle drag
func (t *Timeline) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	t.mods = modifiers(ev.Modifier)
	t.last = t.pointer(ev.PointEvent)

	clipID, edge := hit(t.Current(), t.last.X, t.last.Y)
	switch {
	case clipID == "":
		t.store.Selection().Clear()
		t.Refresh()
	case edge != "":
		if err := t.fade.Begin(clipID, edge, t.last.X); err != nil {
			t.logger.Error().Err(err).Str("clip", clipID).Msg("fade handle")
			return
		}
		t.gesture = gestureFade
	default:
		if t.drag.PointerDown(clipID, t.last) {
			t.gesture = gestureClip
		}
		t.Refresh()
	}
}

// MouseUp ends a gesture that never moved
func (t *Timeline) MouseUp(*desktop.MouseEvent) {
	t.finish()
}

// Dragged feeds pointer motion to the active controller
func (t *Timeline) Dragged(ev *fyne.DragEvent) {
	t.last = t.pointer(ev.PointEvent)
	switch t.gesture {
	case gestureClip:
		t.drag.PointerMove(t.last)
	case gestureFade:
		t.fade.Move(t.last.X)
		t.Refresh()
	}
}

// DragEnd commits the gesture at its last resolved position
func (t *Timeline) DragEnd() {
	t.finish()
}

// DoubleTapped opens a nested composition
func (t *Timeline) DoubleTapped(ev *fyne.PointEvent) {
	p := t.pointer(*ev)
	if clipID, _ := hit(t.Current(), p.X, p.Y); clipID != "" {
		t.drag.DoubleClick(clipID)
	}
}

// Scrolled pans the viewport
func (t *Timeline) Scrolled(ev *fyne.ScrollEvent) {
	t.viewport.ScrollX = math.Max(0, t.viewport.ScrollX-float64(ev.Scrolled.DX))
	t.viewport.ScrollY = math.Max(0, t.viewport.ScrollY-float64(ev.Scrolled.DY))
	t.Refresh()
}

func (t *Timeline) finish() {
	g := t.gesture
	t.gesture = gestureNone
	switch g {
	case gestureClip:
		if _, ok := t.drag.PointerUp(t.last); !ok {
			return
		}
	case gestureFade:
		if _, ok := t.fade.End(); !ok {
			return
		}
	default:
		return
	}
	t.Refresh()
	if t.OnChange != nil {
		t.OnChange()
	}
}

func (t *Timeline) pointer(p fyne.PointEvent) drag.PointerEvent {
	return drag.PointerEvent{
		X:         float64(p.Position.X),
		Y:         float64(p.Position.Y),
		At:        time.Now(),
		Modifiers: t.mods,
	}
}

func modifiers(m fyne.KeyModifier) drag.Modifiers {
	return drag.Modifiers{
		Shift: m&fyne.KeyModifierShift != 0,
		Alt:   m&fyne.KeyModifierAlt != 0,
		Force: m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0,
	}
}

// hit finds the clip under a viewport point and, when the point is on one
// of its fade handles, which edge
func hit(env drag.Env, x, y float64) (string, fade.Edge) {
	tl := env.Timeline
	v := env.Viewport
	lanes := geometry.NewLanes(tl.LaneHeights())
	i := lanes.LaneAtPointer(v, y)
	if i < 0 {
		return "", ""
	}
	contentY := y + v.ScrollY
	if contentY < lanes.Top(i) || contentY >= lanes.Bottom(i) {
		return "", ""
	}

	at := v.PixelToTime(x + v.ScrollX)
	for _, c := range tl.ClipsOnTrack(tl.Tracks()[i].ID) {
		if at < c.StartTime || at >= c.End() {
			continue
		}
		if contentY-lanes.Top(i) < handlePx {
			left := x + v.ScrollX - v.TimeToPixel(c.StartTime)
			right := v.TimeToPixel(c.End()) - x - v.ScrollX
			switch {
			case left < handlePx:
				return c.ID, fade.EdgeLeft
			case right <= handlePx:
				return c.ID, fade.EdgeRight
			}
		}
		return c.ID, ""
	}
	return "", ""
}

// CreateRenderer is part of fyne.Widget
func (t *Timeline) CreateRenderer() fyne.WidgetRenderer {
	r := &timelineRenderer{t: t}
	r.build(t.Size())
	return r
}

type timelineRenderer struct {
	t       *Timeline
	objects []fyne.CanvasObject
}

func (r *timelineRenderer) Layout(size fyne.Size) {
	r.build(size)
}

func (r *timelineRenderer) MinSize() fyne.Size {
	h := 0.0
	for _, lh := range r.t.store.Snapshot().LaneHeights() {
		h += lh
	}
	return fyne.NewSize(320, float32(h))
}

func (r *timelineRenderer) Refresh() {
	r.build(r.t.Size())
	canvas.Refresh(r.t)
}

func (r *timelineRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *timelineRenderer) Destroy() {}

func (r *timelineRenderer) build(size fyne.Size) {
	env := r.t.Current()
	tl, v := env.Timeline, env.Viewport
	lanes := geometry.NewLanes(tl.LaneHeights())
	sel := r.t.store.Selection()
	objs := make([]fyne.CanvasObject, 0, 4*len(tl.Clips())+len(tl.Tracks())+1)

	moving := map[string]bool{}
	if r.t.preview.Active {
		for _, id := range r.t.preview.Session.Moving {
			moving[id] = true
		}
	}

	box := func(fill color.Color, x, y, w, h float64) *canvas.Rectangle {
		rect := canvas.NewRectangle(fill)
		rect.Move(fyne.NewPos(float32(x), float32(y)))
		rect.Resize(fyne.NewSize(float32(w), float32(h)))
		objs = append(objs, rect)
		return rect
	}

	for i, track := range tl.Tracks() {
		top := lanes.Top(i) - v.ScrollY
		h := lanes.Bottom(i) - lanes.Top(i)
		fill := colorLane
		if i%2 == 1 {
			fill = colorLaneAlt
		}
		box(fill, 0, top, float64(size.Width), h)

		for _, c := range tl.ClipsOnTrack(track.ID) {
			x := v.TimeToPixel(c.StartTime) - v.ScrollX
			w := v.TimeToPixel(c.Duration)
			clipFill := colorClip
			if sel.IsSelected(c.ID) {
				clipFill = colorSelected
			}
			rect := box(clipFill, x, top+2, w, h-4)
			if moving[c.ID] {
				rect.FillColor = colorLaneAlt
				rect.StrokeColor = clipFill
				rect.StrokeWidth = 1
			}
			box(colorHandle, x, top+2, handlePx, handlePx)
			box(colorHandle, x+w-handlePx, top+2, handlePx, handlePx)

			name := c.Name
			if name == "" {
				name = c.ID
			}
			label := canvas.NewText(name, colorText)
			label.TextSize = 11
			label.Move(fyne.NewPos(float32(x+handlePx+2), float32(top+handlePx)))
			objs = append(objs, label)
		}
	}

	if r.t.preview.Active {
		fill := colorGhost
		if r.t.preview.Session.ForcingOverlap {
			fill = colorForced
		}
		for _, g := range r.t.preview.Ghosts {
			i := tl.TrackIndex(g.TrackID)
			if i < 0 {
				continue
			}
			box(fill, v.TimeToPixel(g.StartTime)-v.ScrollX, lanes.Top(i)-v.ScrollY+2,
				v.TimeToPixel(g.Duration), lanes.Bottom(i)-lanes.Top(i)-4)
		}
	}

	head := canvas.NewLine(colorHead)
	x := float32(v.TimeToPixel(tl.Playhead()) - v.ScrollX)
	head.Position1 = fyne.NewPos(x, 0)
	head.Position2 = fyne.NewPos(x, size.Height)
	head.StrokeWidth = 1
	objs = append(objs, head)

	r.objects = objs
}

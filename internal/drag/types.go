package drag

import (
	"time"

	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/timeline"
)

// Modifiers are the keyboard modifiers held during a pointer event
type Modifiers struct {
	Shift bool
	// Alt inverts snapping and moves clips independently of their links.
	Alt bool
	// Force lets the dragged clip overlap its neighbours instead of being
	// resisted; the overlap is resolved by trimming at commit.
	Force bool
}

// PointerEvent is one pointer sample in viewport coordinates
type PointerEvent struct {
	X, Y float64
	At   time.Time
	Modifiers
}

// Env is the editor state a handler reads at the start of every event
type Env struct {
	Timeline        *timeline.Snapshot
	Viewport        geometry.Viewport
	SnappingEnabled bool
}

// Accessor hands out the current editor state. Handlers call it on every
// event instead of holding on to state captured when the drag began.
type Accessor interface {
	Current() Env
}

// AccessorFunc adapts a function to Accessor
type AccessorFunc func() Env

// Current calls f
func (f AccessorFunc) Current() Env {
	return f()
}

// Selector is the selection collaborator
type Selector interface {
	SelectClip(id string, addToSelection, setPrimaryOnly bool)
	SelectedIDs() []string
	IsSelected(id string) bool
}

// Mover performs the authoritative clip move at commit
type Mover interface {
	MoveClip(req timeline.MoveRequest) ([]string, error)
}

// CompositionOpener opens a nested composition in its own tab
type CompositionOpener interface {
	OpenCompositionTab(compositionID string)
}

// PointerSource attaches global pointer listeners for the lifetime of one
// session. The returned release func detaches them.
type PointerSource interface {
	Listen(onMove, onUp func(PointerEvent)) (release func())
}

// Options tune the drag feel
type Options struct {
	// TrackChangeDelay must elapse after pointer-down before the clip may
	// leave its original track.
	TrackChangeDelay time.Duration
	// TrackChangeDistancePx is the vertical travel from the grab point
	// required before the clip may leave its original track.
	TrackChangeDistancePx float64
	// SnapRadiusPx is the snap distance in screen pixels.
	SnapRadiusPx float64
	// MaxConstraintPasses bounds the group delta search.
	MaxConstraintPasses int
}

// DefaultOptions returns the stock drag tuning
func DefaultOptions() Options {
	return Options{
		TrackChangeDelay:      300 * time.Millisecond,
		TrackChangeDistancePx: 20,
		SnapRadiusPx:          10,
		MaxConstraintPasses:   8,
	}
}

// State is the controller state machine position
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Session is the ephemeral state of one drag. It lives from pointer-down to
// pointer-up and is never written to the clip model until commit.
type Session struct {
	ClipID            string
	OriginalStartTime float64
	OriginalTrackID   string
	GrabOffsetX       float64
	GrabY             float64
	CurrentPointerX   float64
	CurrentTrackID    string
	// StartTime is the fully resolved start of the dragged clip.
	StartTime      float64
	SnappedTime    *float64
	IsSnapping     bool
	AltKeyPressed  bool
	ForcingOverlap bool
	NoFreeSpace    bool
	DragStart      time.Time
	// MultiSelectClipIDs are the other selected clips, when more than one
	// clip is selected.
	MultiSelectClipIDs []string
	// MultiSelectTimeDelta is the shared delta applied to every moving clip.
	MultiSelectTimeDelta float64
	// Moving is the dragged clip plus everything that moves with it.
	Moving []string
}

// Delta returns how far the dragged clip has moved in time
func (s Session) Delta() float64 {
	return s.StartTime - s.OriginalStartTime
}

// Ghost is where a moving clip would land if the pointer were released now
type Ghost struct {
	ClipID    string
	TrackID   string
	StartTime float64
	Duration  float64
}

// Preview is what a renderer needs to draw the live drag
type Preview struct {
	Active  bool
	Session Session
	Ghosts  []Ghost
}

// Commit reports what pointer-up wrote to the model
type Commit struct {
	ClipID    string
	TrackID   string
	StartTime float64
	Delta     float64
	Moved     []string
}

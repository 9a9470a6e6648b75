package replay

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/fade"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/preview"
	"github.com/keagan/clipdeck/internal/timeline"
)

const fixture = `
name: demo
tracks:
  - id: v1
    type: video
  - id: v2
    type: video
  - id: a1
    type: audio
clips:
  - id: a
    track: v1
    start: 0
    duration: 2
    linked_clip: aa
  - id: aa
    track: a1
    start: 0
    duration: 2
    linked_clip: a
  - id: b
    track: v1
    start: 5
    duration: 3
  - id: comp
    track: v2
    start: 10
    duration: 4
    composition: nested-1
markers: [4]
playhead: 1
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func load(t *testing.T) *timeline.Store {
	t.Helper()
	p, err := LoadProject(writeFile(t, "project.yaml", fixture))
	if err != nil {
		t.Fatal(err)
	}
	store, err := p.Build(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func runner(store *timeline.Store) *Runner {
	return NewRunner(zerolog.Nop(), store, Options{
		Viewport: geometry.Viewport{Zoom: 100},
		Drag:     drag.DefaultOptions(),
		Fade:     fade.DefaultOptions(),
	})
}

func start(t *testing.T, store *timeline.Store, id string) (float64, string) {
	t.Helper()
	c, ok := store.Snapshot().Clip(id)
	if !ok {
		t.Fatalf("clip %s missing", id)
	}
	return c.StartTime, c.TrackID
}

func TestProjectBuild(t *testing.T) {
	store := load(t)
	snap := store.Snapshot()

	if len(snap.Tracks()) != 3 || len(snap.Clips()) != 4 {
		t.Fatalf("got %d tracks and %d clips", len(snap.Tracks()), len(snap.Clips()))
	}
	if l, ok := snap.Linked("a"); !ok || l.ID != "aa" {
		t.Error("link a <-> aa not loaded")
	}
	if snap.Playhead() != 1 || len(snap.Markers()) != 1 {
		t.Error("playhead or markers not loaded")
	}
}

func TestProjectBuildRejectsOverlap(t *testing.T) {
	body := `
name: broken
tracks:
  - id: v1
    type: video
clips:
  - id: a
    track: v1
    duration: 4
  - id: b
    track: v1
    start: 2
    duration: 4
`
	p, err := LoadProject(writeFile(t, "broken.yaml", body))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Build(zerolog.Nop()); !errors.Is(err, timeline.ErrOverlap) {
		t.Errorf("expected ErrOverlap, got %v", err)
	}
}

func TestFromSnapshotRoundTrip(t *testing.T) {
	store := load(t)
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := FromSnapshot("demo", store.Snapshot(), []string{"b"}).Save(path); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProject(path)
	if err != nil {
		t.Fatal(err)
	}
	again, err := p.Build(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Snapshot().Clips()) != 4 || !again.Selection().IsSelected("b") {
		t.Error("saved project lost clips or selection")
	}
}

func TestDragStepMovesLinkedPair(t *testing.T) {
	store := load(t)
	r := runner(store)

	script, err := ParseScript([]byte(`
name: nudge
steps:
  - action: drag
    clip: a
    time: 2.5
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Run(context.Background(), script)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Commits) != 1 || math.Abs(res.Commits[0].Delta-2.5) > 1e-9 {
		t.Fatalf("commits %+v", res.Commits)
	}
	if s, _ := start(t, store, "a"); s != 2.5 {
		t.Errorf("a starts at %v, want 2.5", s)
	}
	if s, _ := start(t, store, "aa"); s != 2.5 {
		t.Errorf("linked partner starts at %v, want 2.5", s)
	}
}

func TestLowLevelStepsChangeTrack(t *testing.T) {
	store := load(t)
	r := runner(store)

	// b on v1 (lane 0..48) moved to v2 (lane 48..96) at 1s.
	script, err := ParseScript([]byte(`
steps:
  - action: down
    clip: b
    x: 510
    y: 20
  - action: move
    x: 110
    y: 30
    at: 50ms
  - action: move
    x: 110
    y: 70
    at: 400ms
  - action: up
    x: 110
    y: 70
    at: 450ms
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Run(context.Background(), script)
	if err != nil {
		t.Fatal(err)
	}
	if res.Steps != 4 || len(res.Commits) != 1 {
		t.Fatalf("result %+v", res)
	}
	if s, track := start(t, store, "b"); s != 1 || track != "v2" {
		t.Errorf("b at %v on %s, want 1 on v2", s, track)
	}
}

func TestFadeAndDoubleClickSteps(t *testing.T) {
	store := load(t)
	r := runner(store)

	script, err := ParseScript([]byte(`
steps:
  - action: fade
    clip: b
    edge: right
    time: 1
  - action: double-click
    clip: comp
  - action: double-click
    clip: b
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Run(context.Background(), script)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Fades) != 1 || res.Fades[0].FadeDuration != 1 {
		t.Fatalf("fades %+v", res.Fades)
	}
	kfs := timeline.PropertyKeyframes(store.ClipKeyframes("b"), timeline.PropertyOpacity)
	if len(kfs) != 2 || kfs[0].Time != 2 || kfs[1].Time != 3 {
		t.Errorf("fade keyframes %+v", kfs)
	}
	if len(res.Opened) != 1 || res.Opened[0] != "nested-1" {
		t.Errorf("opened %v", res.Opened)
	}
}

func TestParseScriptRejectsUnknownAction(t *testing.T) {
	_, err := ParseScript([]byte("steps:\n  - action: wiggle\n"))
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	store := load(t)
	r := runner(store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, &Script{Steps: []Step{{Action: ActionDrag, Clip: "b", Time: 9}}})
	if !errors.Is(err, context.Canceled) || res.Steps != 0 {
		t.Errorf("got %+v, %v", res, err)
	}
	if s, _ := start(t, store, "b"); s != 5 {
		t.Error("cancelled replay must not move clips")
	}
}

func TestRunFailsOnBadFadeEdge(t *testing.T) {
	r := runner(load(t))
	_, err := r.Run(context.Background(), &Script{Steps: []Step{{Action: ActionFadeBegin, Clip: "b", Edge: "top"}}})
	if !errors.Is(err, fade.ErrInvalidEdge) {
		t.Errorf("expected ErrInvalidEdge, got %v", err)
	}
}

func TestPreviewFramesWritten(t *testing.T) {
	store := load(t)
	var out bytes.Buffer
	r := NewRunner(zerolog.Nop(), store, Options{
		Viewport:   geometry.Viewport{Zoom: 100},
		Preview:    preview.New(preview.Options{SecondsPerCell: 1, Width: 16, NoColor: true}),
		PreviewOut: &out,
	})
	defer r.Close()

	if _, ok, err := r.DragTo("b", 9, "", drag.Modifiers{}); err != nil || !ok {
		t.Fatalf("drag: %v %v", ok, err)
	}
	if !strings.Contains(out.String(), "drag b -> v1") {
		t.Errorf("no preview frame in %q", out.String())
	}
}

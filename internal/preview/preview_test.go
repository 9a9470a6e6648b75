package preview

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/rs/zerolog"
)

func fixture(t *testing.T) *timeline.Store {
	t.Helper()
	s := timeline.NewStore(zerolog.Nop())
	for _, tr := range []timeline.Track{
		{ID: "v1", Type: timeline.TrackVideo},
		{ID: "v2", Type: timeline.TrackVideo},
	} {
		if err := s.AddTrack(tr); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range []timeline.Clip{
		{ID: "A", TrackID: "v1", StartTime: 0, Duration: 2, Keyframes: []timeline.Keyframe{
			{ID: "k0", Property: timeline.PropertyOpacity, Time: 0, Value: 0, Easing: timeline.EaseLinear},
			{ID: "k1", Property: timeline.PropertyOpacity, Time: 2, Value: 1, Easing: timeline.EaseLinear},
		}},
		{ID: "B", TrackID: "v1", StartTime: 4, Duration: 1},
	} {
		if _, err := s.AddClip(c); err != nil {
			t.Fatal(err)
		}
	}
	s.SetPlayhead(5.5)
	return s
}

func lines(frame string) []string {
	out := strings.Split(frame, "\n")
	for i := range out {
		out[i] = strings.TrimRight(out[i], " ")
	}
	return out
}

func TestFrameStatic(t *testing.T) {
	s := fixture(t)
	r := New(Options{SecondsPerCell: 0.5, Width: 12, NoColor: true})

	got := lines(r.Frame(s.Snapshot(), drag.Preview{}))
	if len(got) != 3 {
		t.Fatalf("expected axis and two tracks, got %q", got)
	}
	if got[1] != "v1      .++#    ## |" {
		t.Errorf("v1 row %q", got[1])
	}
	if got[2] != "v2                 |" {
		t.Errorf("v2 row %q", got[2])
	}
	if !strings.HasPrefix(got[0], "        |0        |5") {
		t.Errorf("axis %q", got[0])
	}
}

func TestFrameWithGhosts(t *testing.T) {
	s := fixture(t)
	r := New(Options{SecondsPerCell: 0.5, Width: 12, NoColor: true})

	p := drag.Preview{
		Active: true,
		Session: drag.Session{
			ClipID:            "A",
			OriginalStartTime: 0,
			StartTime:         3.5,
			CurrentTrackID:    "v1",
			ForcingOverlap:    true,
			Moving:            []string{"A"},
		},
		Ghosts: []drag.Ghost{{ClipID: "A", TrackID: "v1", StartTime: 3.5, Duration: 1}},
	}
	got := lines(r.Frame(s.Snapshot(), p))
	if got[1] != "v1      ::::   =X# |" {
		t.Errorf("v1 row %q", got[1])
	}
	status := got[len(got)-1]
	if !strings.Contains(status, "drag A -> v1 @ 00:00:03.500") || !strings.Contains(status, "forcing overlap") {
		t.Errorf("status %q", status)
	}
}

func TestAttachDrawsLiveDrag(t *testing.T) {
	s := fixture(t)
	state := drag.AccessorFunc(func() drag.Env {
		return drag.Env{Timeline: s.Snapshot(), Viewport: geometry.Viewport{Zoom: 100}}
	})
	ctrl := drag.New(zerolog.Nop(), drag.DefaultOptions(), drag.Deps{
		State:    state,
		Selector: s.Selection(),
		Mover:    s,
	})

	var buf bytes.Buffer
	r := New(Options{SecondsPerCell: 0.5, Width: 16, NoColor: true})
	detach := r.Attach(ctrl, state, &buf)
	defer detach()

	t0 := time.Now()
	ctrl.PointerDown("B", drag.PointerEvent{X: 410, Y: 10, At: t0})
	ctrl.PointerMove(drag.PointerEvent{X: 610, Y: 10, At: t0.Add(50 * time.Millisecond)})
	ctrl.PointerUp(drag.PointerEvent{})

	out := buf.String()
	if strings.Count(out, "drag B -> v1") != 2 {
		t.Fatalf("expected a frame for down and move, got:\n%s", out)
	}
	if !strings.Contains(out, "@ 00:00:06.000") {
		t.Errorf("move frame missing:\n%s", out)
	}
}

package snap

import (
	"math"
	"testing"

	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/rs/zerolog"
)

func fixture(t *testing.T) *timeline.Store {
	t.Helper()
	s := timeline.NewStore(zerolog.Nop())
	_ = s.AddTrack(timeline.Track{ID: "v1", Type: timeline.TrackVideo})
	_ = s.AddTrack(timeline.Track{ID: "v2", Type: timeline.TrackVideo})
	for _, c := range []timeline.Clip{
		{ID: "drag", TrackID: "v1", StartTime: 0, Duration: 5},
		{ID: "b", TrackID: "v1", StartTime: 10, Duration: 5},
		{ID: "c", TrackID: "v2", StartTime: 10, Duration: 2},
	} {
		if _, err := s.AddClip(c); err != nil {
			t.Fatalf("add %s: %v", c.ID, err)
		}
	}
	s.AddMarker(22)
	s.SetPlayhead(30)
	return s
}

func TestShouldSnapXor(t *testing.T) {
	cases := []struct{ enabled, alt, want bool }{
		{true, false, true},
		{true, true, false},
		{false, true, true},
		{false, false, false},
	}
	for _, c := range cases {
		if got := ShouldSnap(c.enabled, c.alt); got != c.want {
			t.Errorf("ShouldSnap(%v, %v) = %v", c.enabled, c.alt, got)
		}
	}
}

func TestSnapsToEdgesMarkersAndPlayhead(t *testing.T) {
	s := fixture(t)
	// 10px radius at 10px/s is one second.
	r := NewResolver(s.Snapshot(), geometry.Viewport{Zoom: 10}, 10)

	cases := []struct {
		name    string
		raw     float64
		want    float64
		snapped bool
		kind    TargetKind
	}{
		{"start to clip end", 15.4, 15, true, TargetClipEnd},
		{"end to clip start", 5.3, 5, true, TargetClipStart},
		{"start to marker", 21.5, 22, true, TargetMarker},
		{"start to playhead", 29.2, 30, true, TargetPlayhead},
		{"too far", 18.5, 18.5, false, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := r.SnappedPosition(Request{ClipID: "drag", RawTime: c.raw, TrackID: "v1", Duration: 5})
			if got.Snapped != c.snapped || math.Abs(got.StartTime-c.want) > 1e-9 {
				t.Fatalf("raw %v: got %+v, want %v snapped=%v", c.raw, got, c.want, c.snapped)
			}
			if c.snapped && got.Target.Kind != c.kind {
				t.Errorf("target kind %s, want %s", got.Target.Kind, c.kind)
			}
		})
	}
}

func TestNeverSnapsToItself(t *testing.T) {
	s := fixture(t)
	r := NewResolver(s.Snapshot(), geometry.Viewport{Zoom: 10}, 10)

	for _, tg := range r.Targets("drag", nil) {
		if tg.ClipID == "drag" {
			t.Fatalf("own edge offered as target: %+v", tg)
		}
	}

	got := r.SnappedPosition(Request{ClipID: "b", RawTime: 10.5, TrackID: "v1", Duration: 5, Exclude: []string{"c"}})
	if got.Snapped && got.Target.ClipID == "b" {
		t.Fatalf("snapped to own original edge: %+v", got)
	}
}

func TestSnapIdempotent(t *testing.T) {
	s := fixture(t)
	r := NewResolver(s.Snapshot(), geometry.Viewport{Zoom: 25}, 10)

	first := r.SnappedPosition(Request{ClipID: "drag", RawTime: 15.1, TrackID: "v1", Duration: 5})
	second := r.SnappedPosition(Request{ClipID: "drag", RawTime: first.StartTime, TrackID: "v1", Duration: 5})
	if !second.Snapped || second.StartTime != first.StartTime {
		t.Fatalf("snapping an already snapped position moved it: %v -> %v", first.StartTime, second.StartTime)
	}
}

func TestRadiusScalesWithZoom(t *testing.T) {
	s := fixture(t)
	req := Request{ClipID: "drag", RawTime: 15.5, TrackID: "v1", Duration: 5}

	if got := NewResolver(s.Snapshot(), geometry.Viewport{Zoom: 10}, 10).SnappedPosition(req); !got.Snapped {
		t.Error("0.5s is 5px at zoom 10 and should snap")
	}
	if got := NewResolver(s.Snapshot(), geometry.Viewport{Zoom: 100}, 10).SnappedPosition(req); got.Snapped {
		t.Error("0.5s is 50px at zoom 100 and should not snap")
	}
}

func TestSameTrackWinsTies(t *testing.T) {
	s := fixture(t)
	r := NewResolver(s.Snapshot(), geometry.Viewport{Zoom: 10}, 10)

	got := r.SnappedPosition(Request{ClipID: "drag", RawTime: 10.2, TrackID: "v2", Duration: 5})
	if !got.Snapped || got.Target.TrackID != "v2" {
		t.Fatalf("expected tie broken toward v2, got %+v", got)
	}
}

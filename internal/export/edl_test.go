package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/rs/zerolog"
)

func buildTimeline(t *testing.T) *timeline.Store {
	t.Helper()
	s := timeline.NewStore(zerolog.Nop())
	if err := s.AddTrack(timeline.Track{ID: "v1", Type: timeline.TrackVideo}); err != nil {
		t.Fatal(err)
	}
	for _, c := range []timeline.Clip{
		{ID: "a", Name: "Intro", TrackID: "v1", StartTime: 0, Duration: 2, SourcePath: "/media/intro.mp4"},
		{ID: "b", Name: "Clip B", TrackID: "v1", StartTime: 1.5, Duration: 1.5, InPoint: 10, OutPoint: 11.5},
		{ID: "c", TrackID: "v1", StartTime: 5, Duration: 1},
	} {
		if _, err := s.AddClip(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddTransition(timeline.Transition{ID: "x", TrackID: "v1", FromClipID: "a", ToClipID: "b", Duration: 0.5}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGenerateEDL(t *testing.T) {
	s := buildTimeline(t)

	edl, err := GenerateEDL(s.Snapshot(), "v1", "Project One", 30)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"TITLE: Project One",
		"FCM: NON-DROP FRAME",
		"001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00",
		"* FROM CLIP NAME:  Intro",
		"* MEDIA PATH:  /media/intro.mp4",
		"002  AX       V     D    015 00:00:10:00 00:00:11:15 00:00:01:15 00:00:03:00",
		"003  AX       V     C        00:00:00:00 00:00:01:00 00:00:05:00 00:00:06:00",
		"* FROM CLIP NAME:  c",
	} {
		if !strings.Contains(edl, want) {
			t.Errorf("missing %q in:\n%s", want, edl)
		}
	}
}

func TestGenerateEDLDropFrame(t *testing.T) {
	s := buildTimeline(t)
	edl, err := GenerateEDL(s.Snapshot(), "v1", "Drop", 29.97)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"FCM: DROP FRAME",
		"001  AX       V     C        00:00:00;00 00:00:02;00 00:00:00;00 00:00:02;00",
		"002  AX       V     D    015 00:00:10;00 00:00:11;15 00:00:01;15 00:00:03;00",
	} {
		if !strings.Contains(edl, want) {
			t.Errorf("missing %q in:\n%s", want, edl)
		}
	}
	if strings.Contains(edl, ":00:00:00 ") {
		t.Errorf("drop frame EDL carries non-drop timecode:\n%s", edl)
	}
}

func TestEventsUnknownTrack(t *testing.T) {
	s := buildTimeline(t)
	if _, err := Events(s.Snapshot(), "nope", 30); !errors.Is(err, timeline.ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	if got := SanitizeName("a/b\x00c: d", 0); got != "a_bc_ d" {
		t.Errorf("got %q", got)
	}
	if got := SanitizeName("abcdef", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
}

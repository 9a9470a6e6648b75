package collision

import (
	"math"
	"testing"

	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/rs/zerolog"
)

func buildSnapshot(t *testing.T, clips ...timeline.Clip) *timeline.Snapshot {
	t.Helper()
	s := timeline.NewStore(zerolog.Nop())
	_ = s.AddTrack(timeline.Track{ID: "t1", Type: timeline.TrackVideo})
	_ = s.AddTrack(timeline.Track{ID: "t2", Type: timeline.TrackVideo})
	for _, c := range clips {
		if _, err := s.AddClip(c); err != nil {
			t.Fatalf("add %s: %v", c.ID, err)
		}
	}
	return s.Snapshot()
}

func TestScenarioA_PushesAgainstObstacle(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "A", TrackID: "t1", StartTime: 0, Duration: 5},
		timeline.Clip{ID: "B", TrackID: "t1", StartTime: 7, Duration: 3},
	)
	r := NewResolver(snap)

	got := r.PositionWithResistance(Request{ClipID: "A", Candidate: 6, TrackID: "t1", Duration: 5, Origin: 0})
	if got.StartTime != 2 || got.ForcingOverlap || got.NoFreeSpace {
		t.Fatalf("expected A to butt B at 2, got %+v", got)
	}
	if got.Blocker != "B" {
		t.Errorf("expected blocker B, got %q", got.Blocker)
	}
}

func TestFreeCandidateUnchanged(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "A", TrackID: "t1", StartTime: 0, Duration: 5},
		timeline.Clip{ID: "B", TrackID: "t1", StartTime: 7, Duration: 3},
	)
	r := NewResolver(snap)

	for _, c := range []float64{0, 1.5, 2, 10, 42} {
		got := r.PositionWithResistance(Request{ClipID: "A", Candidate: c, TrackID: "t1", Duration: 5})
		if got.StartTime != c || got.Collided() {
			t.Errorf("candidate %v should pass through, got %+v", c, got)
		}
	}
}

func TestResistanceMonotonic(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "A", TrackID: "t1", StartTime: 0, Duration: 5},
		timeline.Clip{ID: "B", TrackID: "t1", StartTime: 7, Duration: 6},
	)
	r := NewResolver(snap)

	// Pushing further into B must never move A toward B's far edge at 13.
	prev := math.Inf(1)
	for c := 2.25; c < 13; c += 0.25 {
		got := r.PositionWithResistance(Request{ClipID: "A", Candidate: c, TrackID: "t1", Duration: 5, Origin: 0})
		if got.StartTime+5 > 7+timeline.Epsilon {
			t.Fatalf("candidate %v pushed through obstacle: %+v", c, got)
		}
		if got.StartTime > prev+timeline.Epsilon {
			t.Fatalf("candidate %v moved toward the far edge: %v > %v", c, got.StartTime, prev)
		}
		prev = got.StartTime
	}
}

func TestMovingLeftButtsTrailingEdge(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "A", TrackID: "t1", StartTime: 0, Duration: 4},
		timeline.Clip{ID: "B", TrackID: "t1", StartTime: 10, Duration: 3},
	)
	r := NewResolver(snap)

	got := r.PositionWithResistance(Request{ClipID: "B", Candidate: 2, TrackID: "t1", Duration: 3, Origin: 10})
	if got.StartTime != 4 || got.Blocker != "A" {
		t.Fatalf("expected B to stop at 4, got %+v", got)
	}
}

func TestForceOverlapReturnsLiteralCandidate(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "A", TrackID: "t1", StartTime: 0, Duration: 5},
		timeline.Clip{ID: "B", TrackID: "t1", StartTime: 7, Duration: 3},
	)
	r := NewResolver(snap)

	got := r.PositionWithResistance(Request{ClipID: "A", Candidate: 6, TrackID: "t1", Duration: 5, ForceOverlap: true})
	if got.StartTime != 6 || !got.ForcingOverlap {
		t.Fatalf("expected forced overlap at 6, got %+v", got)
	}

	got = r.PositionWithResistance(Request{ClipID: "A", Candidate: 1, TrackID: "t1", Duration: 5, ForceOverlap: true})
	if got.ForcingOverlap {
		t.Fatal("a free candidate is not a forced overlap")
	}
}

func TestExcludedClipsDoNotBlock(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "A", TrackID: "t1", StartTime: 0, Duration: 5},
		timeline.Clip{ID: "B", TrackID: "t1", StartTime: 5, Duration: 5},
	)
	r := NewResolver(snap)

	got := r.PositionWithResistance(Request{ClipID: "A", Candidate: 3, TrackID: "t1", Duration: 5, Exclude: []string{"B"}})
	if got.StartTime != 3 || got.Collided() {
		t.Fatalf("group member B must not block A, got %+v", got)
	}
	if r.FreeAt("A", "t1", 3, 5, nil) {
		t.Fatal("without exclusion B occupies [5,10)")
	}
	if !r.FreeAt("A", "t1", 3, 5, []string{"B"}) {
		t.Fatal("with exclusion the range is free")
	}
}

func TestNoFreeSpaceBetweenTightNeighbours(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "X", TrackID: "t1", StartTime: 0, Duration: 4},
		timeline.Clip{ID: "Y", TrackID: "t1", StartTime: 6, Duration: 4},
		timeline.Clip{ID: "Z", TrackID: "t1", StartTime: 12, Duration: 4},
		timeline.Clip{ID: "M", TrackID: "t2", StartTime: 0, Duration: 5},
	)
	r := NewResolver(snap)

	// M lands over Y coming from the left; neither [4,6) nor [10,12) fits 5s.
	got := r.PositionWithResistance(Request{ClipID: "M", Candidate: 5, TrackID: "t1", Duration: 5, Origin: 0})
	if !got.NoFreeSpace {
		t.Fatalf("expected no free space, got %+v", got)
	}
	if got.StartTime != 16 {
		t.Errorf("fallback should be the first valid start, got %v", got.StartTime)
	}
	if !r.FreeAt("M", "t1", got.StartTime, 5, nil) {
		t.Error("fallback start must itself be free")
	}
}

func TestStationaryCandidatePicksNearerEdge(t *testing.T) {
	snap := buildSnapshot(t,
		timeline.Clip{ID: "B", TrackID: "t1", StartTime: 10, Duration: 4},
		timeline.Clip{ID: "M", TrackID: "t2", StartTime: 12.5, Duration: 2},
	)
	r := NewResolver(snap)

	got := r.PositionWithResistance(Request{ClipID: "M", Candidate: 12.5, TrackID: "t1", Duration: 2, Origin: 12.5})
	if got.StartTime != 14 {
		t.Fatalf("expected nearer trailing edge 14, got %+v", got)
	}
}

package collision

import (
	"math"

	"github.com/keagan/clipdeck/internal/timeline"
)

// Request describes where a clip wants to go
type Request struct {
	ClipID    string
	Candidate float64
	TrackID   string
	Duration  float64
	// Exclude lists clips that never block, typically the rest of the
	// moving group.
	Exclude []string
	// Origin is where the motion started; Candidate relative to Origin gives
	// the direction the clip is pushing in.
	Origin float64
	// ForceOverlap returns the literal candidate even when it collides.
	ForceOverlap bool
}

// Result is the resolved placement
type Result struct {
	StartTime      float64
	ForcingOverlap bool
	// NoFreeSpace means no gap next to the obstacle the clip ran into can
	// hold it. StartTime then holds the nearest valid start on the near side
	// of the obstacles, or the far side if the near side has none.
	NoFreeSpace bool
	// Blocker is the clip the candidate collided with, if any
	Blocker string
}

// Collided reports whether the candidate had to be changed or forced
func (r Result) Collided() bool {
	return r.Blocker != ""
}

// Resolver finds non-overlapping positions on a track
type Resolver struct {
	snap *timeline.Snapshot
}

// NewResolver creates a resolver over one timeline snapshot
func NewResolver(snap *timeline.Snapshot) *Resolver {
	return &Resolver{snap: snap}
}

// Blocking returns the clips on a track that may stop clipID, ordered by start
func (r *Resolver) Blocking(clipID, trackID string, exclude []string) []timeline.Clip {
	skip := make(map[string]bool, len(exclude)+1)
	skip[clipID] = true
	for _, id := range exclude {
		skip[id] = true
	}

	var out []timeline.Clip
	for _, c := range r.snap.ClipsOnTrack(trackID) {
		if !skip[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// FreeAt reports whether [start, start+duration) is clear of blocking clips
func (r *Resolver) FreeAt(clipID, trackID string, start, duration float64, exclude []string) bool {
	return start >= 0 && len(hits(r.Blocking(clipID, trackID, exclude), start, duration)) == 0
}

// PositionWithResistance resolves a candidate start time against the clips
// already on the track. A colliding clip is pushed back against the edge of
// the obstacle it ran into instead of jumping past it.
func (r *Resolver) PositionWithResistance(req Request) Result {
	candidate := math.Max(0, req.Candidate)
	blockers := r.Blocking(req.ClipID, req.TrackID, req.Exclude)

	hit := hits(blockers, candidate, req.Duration)
	if len(hit) == 0 {
		return Result{StartTime: candidate}
	}
	res := Result{Blocker: hit[0].ID}

	if req.ForceOverlap {
		res.StartTime = candidate
		res.ForcingOverlap = true
		return res
	}

	before := hit[0].StartTime - req.Duration
	after := hit[0].End()
	for _, c := range hit[1:] {
		after = math.Max(after, c.End())
	}
	valid := func(start float64) bool {
		return start >= 0 && len(hits(blockers, start, req.Duration)) == 0
	}

	switch {
	case candidate > req.Origin:
		if valid(before) {
			res.StartTime = before
			return res
		}
	case candidate < req.Origin:
		res.Blocker = hit[len(hit)-1].ID
		if valid(after) {
			res.StartTime = after
			return res
		}
	default:
		okBefore, okAfter := valid(before), valid(after)
		switch {
		case okBefore && (!okAfter || candidate-before <= after-candidate):
			res.StartTime = before
			return res
		case okAfter:
			res.StartTime = after
			return res
		}
	}

	res.NoFreeSpace = true
	res.StartTime = nearestValid(blockers, candidate, req.Duration, candidate >= req.Origin)
	return res
}

// hits returns the blockers intersecting [start, start+duration)
func hits(blockers []timeline.Clip, start, duration float64) []timeline.Clip {
	var out []timeline.Clip
	for _, c := range blockers {
		if c.Overlaps(start, start+duration) {
			out = append(out, c)
		}
	}
	return out
}

// span is a closed range of valid start times; hi may be +Inf
type span struct {
	lo, hi float64
}

// validSpans lists every range of start times at which a clip of the given
// duration fits between blockers.
func validSpans(blockers []timeline.Clip, duration float64) []span {
	var out []span
	prev := 0.0
	for _, b := range blockers {
		if b.StartTime-prev >= duration-timeline.Epsilon {
			out = append(out, span{lo: prev, hi: math.Max(prev, b.StartTime-duration)})
		}
		prev = math.Max(prev, b.End())
	}
	return append(out, span{lo: prev, hi: math.Inf(1)})
}

// nearestValid finds the valid start closest to candidate, looking first on
// the side the clip is coming from.
func nearestValid(blockers []timeline.Clip, candidate, duration float64, movingRight bool) float64 {
	spans := validSpans(blockers, duration)

	below := math.Inf(-1)
	above := math.Inf(1)
	for _, s := range spans {
		if s.lo <= candidate {
			below = math.Max(below, math.Min(s.hi, candidate))
		}
		if s.hi >= candidate {
			above = math.Min(above, math.Max(s.lo, candidate))
		}
	}

	if movingRight {
		if !math.IsInf(below, -1) {
			return below
		}
		return above
	}
	if !math.IsInf(above, 1) {
		return above
	}
	return below
}

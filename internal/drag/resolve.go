package drag

import (
	"math"
	"sort"

	"github.com/keagan/clipdeck/internal/collision"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/snap"
	"github.com/keagan/clipdeck/internal/timeline"
)

// resolve runs one pointer sample through the move pipeline: track
// hysteresis, raw time, snap, resistance, fallback track search and group
// constraint. It works on a copy of the session.
func (c *Controller) resolve(env Env, s Session, ev PointerEvent) (Session, bool) {
	tl := env.Timeline
	primary, ok := tl.Clip(s.ClipID)
	if !ok {
		c.logger.Warn().Str("clip", s.ClipID).Msg("dragged clip vanished")
		return s, false
	}

	s.CurrentPointerX = ev.X
	s.AltKeyPressed = ev.Alt
	s.MultiSelectClipIDs = existing(tl, s.MultiSelectClipIDs)
	s.Moving = movingSet(tl, s.ClipID, s.MultiSelectClipIDs, ev.Alt)

	trackID := c.candidateTrack(env, s, ev)
	raw := env.Viewport.PointerToTime(ev.X, s.GrabOffsetX)

	candidate := raw
	var snapped *float64
	if snap.ShouldSnap(env.SnappingEnabled, ev.Alt) {
		r := snap.NewResolver(tl, env.Viewport, c.opts.SnapRadiusPx).SnappedPosition(snap.Request{
			ClipID:   s.ClipID,
			RawTime:  raw,
			TrackID:  trackID,
			Duration: primary.Duration,
			Exclude:  s.Moving,
		})
		if r.Snapped {
			t := r.StartTime
			snapped = &t
			candidate = t
		}
	}

	col := collision.NewResolver(tl)
	req := collision.Request{
		ClipID:       s.ClipID,
		Candidate:    candidate,
		TrackID:      trackID,
		Duration:     primary.Duration,
		Exclude:      s.Moving,
		Origin:       s.StartTime,
		ForceOverlap: ev.Force,
	}
	res := col.PositionWithResistance(req)
	if res.Collided() {
		c.logger.Debug().Str("clip", s.ClipID).Str("blocker", res.Blocker).Float64("start", res.StartTime).Msg("resisted by clip")
	}
	noFreeSpace := res.NoFreeSpace || peerOverlap(tl, s, trackID)

	if noFreeSpace && trackID != s.OriginalTrackID {
		found := false
		if t, ok := tl.Track(trackID); ok {
			for _, sib := range tl.SiblingTracks(trackID, t.Type) {
				if sib.ID == s.OriginalTrackID || peerOverlap(tl, s, sib.ID) {
					continue
				}
				req.TrackID = sib.ID
				if r := col.PositionWithResistance(req); !r.NoFreeSpace {
					c.logger.Debug().Str("from", trackID).Str("to", sib.ID).Msg("fell back to sibling track")
					trackID, res, found = sib.ID, r, true
					break
				}
			}
		}
		if !found {
			trackID = s.OriginalTrackID
			res = collision.Result{StartTime: s.OriginalStartTime}
		}
	}

	delta := res.StartTime - s.OriginalStartTime
	// Every moving clip takes the same delta, so no member may be pushed
	// below zero even when overlap is forced.
	delta = math.Max(delta, -earliestStart(tl, s.Moving))
	if !res.ForcingOverlap && len(s.Moving) > 1 {
		delta = c.groupDelta(col, tl, s, trackID, delta)
	}

	start := s.OriginalStartTime + delta
	free := col.FreeAt(s.ClipID, trackID, start, primary.Duration, s.Moving)
	if peerOverlap(tl, s, trackID) || (!res.ForcingOverlap && !free) {
		// A zero group delta on a foreign track can still land on a clip.
		trackID = s.OriginalTrackID
		start = s.OriginalStartTime
		delta = 0
		free = true
	}

	s.CurrentTrackID = trackID
	s.StartTime = start
	s.SnappedTime = snapped
	s.IsSnapping = snapped != nil && math.Abs(*snapped-start) < timeline.Epsilon
	s.ForcingOverlap = res.ForcingOverlap && !free
	s.NoFreeSpace = noFreeSpace
	s.MultiSelectTimeDelta = 0
	if len(s.Moving) > 1 {
		s.MultiSelectTimeDelta = delta
	}

	c.logger.Debug().
		Str("clip", s.ClipID).
		Str("track", trackID).
		Float64("raw", raw).
		Float64("start", start).
		Bool("snapping", s.IsSnapping).
		Bool("forcing", s.ForcingOverlap).
		Bool("no_free_space", noFreeSpace).
		Msg("drag resolved")
	return s, true
}

// candidateTrack picks the lane under the pointer, gated by hysteresis.
// The original track is always accepted; any other lane of the same type
// needs both the delay and the vertical distance.
func (c *Controller) candidateTrack(env Env, s Session, ev PointerEvent) string {
	tl := env.Timeline
	current := s.CurrentTrackID
	if _, ok := tl.Track(current); !ok {
		current = s.OriginalTrackID
	}

	tracks := tl.Tracks()
	i := geometry.NewLanes(tl.LaneHeights()).LaneAtPointer(env.Viewport, ev.Y)
	if i < 0 {
		return current
	}
	lane := tracks[i]
	if lane.ID == s.OriginalTrackID {
		return lane.ID
	}

	orig, ok := tl.Track(s.OriginalTrackID)
	if !ok || lane.Type != orig.Type {
		return current
	}
	if ev.At.Sub(s.DragStart) < c.opts.TrackChangeDelay {
		return current
	}
	if math.Abs(ev.Y-s.GrabY) < c.opts.TrackChangeDistancePx {
		return current
	}
	return lane.ID
}

// groupDelta shrinks the shared delta until every moving clip can take it.
// Each member is resisted on its own track at the tentative delta and the
// smallest magnitude wins; passes repeat until nothing shrinks. A member
// with no free space, or one pushed back past its start, pins the delta to
// zero.
func (c *Controller) groupDelta(col *collision.Resolver, tl *timeline.Snapshot, s Session, trackID string, delta float64) float64 {
	prev := s.Delta()

	for pass := 0; pass < c.opts.MaxConstraintPasses; pass++ {
		next := delta
		for _, id := range s.Moving {
			m, ok := tl.Clip(id)
			if !ok {
				continue
			}
			track := m.TrackID
			if id == s.ClipID {
				track = trackID
			}
			r := col.PositionWithResistance(collision.Request{
				ClipID:    id,
				Candidate: m.StartTime + next,
				TrackID:   track,
				Duration:  m.Duration,
				Exclude:   s.Moving,
				Origin:    m.StartTime + prev,
			})
			next = constrain(next, r, m.StartTime)
			if next == 0 {
				break
			}
		}

		if math.Abs(next-delta) < timeline.Epsilon {
			return next
		}
		c.logger.Debug().Int("pass", pass).Float64("from", delta).Float64("to", next).Msg("group delta constrained")
		delta = next
	}

	c.logger.Debug().Str("clip", s.ClipID).Msg("group delta did not settle")
	return 0
}

// constrain folds one member's resisted position into the wanted delta
func constrain(want float64, r collision.Result, memberStart float64) float64 {
	if r.NoFreeSpace {
		return 0
	}
	got := r.StartTime - memberStart
	if got*want < 0 || math.Abs(got) < timeline.Epsilon {
		return 0
	}
	if math.Abs(got) < math.Abs(want) {
		return got
	}
	return want
}

// peerOverlap reports whether the dragged clip would sit on top of another
// moving clip that already lives on trackID. The whole set shifts by one
// delta, so only the original spans matter and no position can fix it.
func peerOverlap(tl *timeline.Snapshot, s Session, trackID string) bool {
	if trackID == s.OriginalTrackID {
		return false
	}
	p, ok := tl.Clip(s.ClipID)
	if !ok {
		return false
	}
	for _, id := range s.Moving {
		if id == s.ClipID {
			continue
		}
		m, ok := tl.Clip(id)
		if !ok || m.TrackID != trackID {
			continue
		}
		if timeline.Overlap(s.OriginalStartTime, s.OriginalStartTime+p.Duration, m.StartTime, m.End()) {
			return true
		}
	}
	return false
}

// earliestStart is the smallest start time among the given clips
func earliestStart(tl *timeline.Snapshot, ids []string) float64 {
	lo := math.Inf(1)
	for _, id := range ids {
		if m, ok := tl.Clip(id); ok && m.StartTime < lo {
			lo = m.StartTime
		}
	}
	if math.IsInf(lo, 1) {
		return 0
	}
	return lo
}

// movingSet is the dragged clip plus every selected clip and, unless links
// are ignored, the transitive closure over linked partners and linked
// groups. The dragged clip comes first, the rest sorted by id.
func movingSet(tl *timeline.Snapshot, clipID string, selected []string, ignoreLinks bool) []string {
	seen := map[string]bool{clipID: true}
	queue := []string{clipID}
	for _, id := range selected {
		if _, ok := tl.Clip(id); ok && !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}

	for i := 0; i < len(queue) && !ignoreLinks; i++ {
		id := queue[i]
		if p, ok := tl.Linked(id); ok && !seen[p.ID] {
			seen[p.ID] = true
			queue = append(queue, p.ID)
		}
		c, _ := tl.Clip(id)
		for _, m := range tl.GroupMembers(c.LinkedGroupID) {
			if !seen[m.ID] {
				seen[m.ID] = true
				queue = append(queue, m.ID)
			}
		}
	}

	rest := queue[1:]
	sort.Strings(rest)
	return queue
}

func existing(tl *timeline.Snapshot, ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := tl.Clip(id); ok {
			out = append(out, id)
		}
	}
	return out
}

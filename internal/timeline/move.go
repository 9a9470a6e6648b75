package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// MoveRequest is the single authoritative clip mutation.
type MoveRequest struct {
	ClipID    string
	StartTime float64
	// TrackID may be empty to keep the clip on its current track.
	TrackID string
	// SkipLinked leaves the linked partner where it is.
	SkipLinked bool
	// SkipGroup leaves the other members of the linked group where they are.
	SkipGroup bool
	// SkipTrim disables trimming clips the moved clips now overlap.
	SkipTrim bool
	// ExcludeIDs are never trimmed by this move, typically because the caller
	// is about to move them too.
	ExcludeIDs []string
}

// MoveClip moves a clip and, unless skipped, its linked partner and linked
// group by the same time delta on their own tracks. Clips left overlapping
// the moved ones are trimmed, split or removed. It returns the ids it moved,
// primary first.
func (s *Store) MoveClip(req MoveRequest) ([]string, error) {
	c, ok := s.clips[req.ClipID]
	if !ok {
		return nil, fmt.Errorf("move %s: %w", req.ClipID, ErrClipNotFound)
	}

	trackID := req.TrackID
	if trackID == "" {
		trackID = c.TrackID
	}
	dest, ok := s.tracks[trackID]
	if !ok {
		return nil, fmt.Errorf("move %s to %s: %w", c.ID, trackID, ErrTrackNotFound)
	}
	if src := s.tracks[c.TrackID]; src != nil && src.Type != dest.Type {
		return nil, fmt.Errorf("move %s from %s track to %s track: %w", c.ID, src.Type, dest.Type, ErrTrackTypeMismatch)
	}

	exclude := make(map[string]bool, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		exclude[id] = true
	}

	start := math.Max(0, req.StartTime)
	delta := start - c.StartTime

	c.StartTime = start
	c.TrackID = trackID
	moved := []string{c.ID}
	seen := map[string]bool{c.ID: true}

	carry := func(id string) {
		if id == "" || seen[id] {
			return
		}
		other, ok := s.clips[id]
		if !ok {
			return
		}
		seen[id] = true
		other.StartTime = math.Max(0, other.StartTime+delta)
		moved = append(moved, id)
	}

	if !req.SkipLinked {
		if partner, ok := s.clips[c.LinkedClipID]; ok && partner.LinkedClipID == c.ID {
			carry(partner.ID)
		}
	}
	if !req.SkipGroup && c.LinkedGroupID != "" {
		ids := make([]string, 0)
		for id, other := range s.clips {
			if other.LinkedGroupID == c.LinkedGroupID {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		for _, id := range ids {
			carry(id)
		}
	}

	if !req.SkipTrim {
		protect := make(map[string]bool, len(seen)+len(exclude))
		for id := range seen {
			protect[id] = true
		}
		for id := range exclude {
			protect[id] = true
		}
		for _, id := range moved {
			s.trimUnder(id, protect)
		}
	}

	s.touch(moved...)
	s.logger.Debug().
		Str("clip", c.ID).
		Str("track", trackID).
		Float64("start", start).
		Float64("delta", delta).
		Strs("moved", moved).
		Msg("clip moved")

	return moved, nil
}

// trimUnder resolves overlaps between the clip and its track neighbours by
// cutting the neighbours back. Clips in protect are left alone, as are pairs
// joined by a transition.
func (s *Store) trimUnder(id string, protect map[string]bool) {
	m, ok := s.clips[id]
	if !ok {
		return
	}
	start, end := m.StartTime, m.End()

	var victims []*Clip
	for oid, o := range s.clips {
		if oid == id || protect[oid] || o.TrackID != m.TrackID {
			continue
		}
		if !o.Overlaps(start, end) || s.joined(id, oid) {
			continue
		}
		victims = append(victims, o)
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i].ID < victims[j].ID })

	for _, o := range victims {
		oStart, oEnd := o.StartTime, o.End()
		switch {
		case oStart >= start-Epsilon && oEnd <= end+Epsilon:
			s.logger.Debug().Str("clip", o.ID).Str("by", id).Msg("clip covered, removing")
			_ = s.RemoveClip(o.ID)

		case oStart < start && oEnd > end:
			s.split(o, start, end)

		case oStart < start:
			s.trimTail(o, start-oStart)

		default:
			s.trimHead(o, end-oStart)
		}
	}
}

func (s *Store) joined(a, b string) bool {
	for _, t := range s.transitions {
		if t.Joins(a, b) {
			return true
		}
	}
	return false
}

// trimTail shortens o to keep only its first keep seconds
func (s *Store) trimTail(o *Clip, keep float64) {
	cut := o.Duration - keep
	o.Duration = keep
	o.OutPoint -= cut
	o.Keyframes = trimKeyframes(o.Keyframes, 0, keep)
	s.mark(o.ID)
	s.logger.Debug().Str("clip", o.ID).Float64("cut", cut).Msg("tail trimmed")
}

// trimHead removes the first cut seconds of o
func (s *Store) trimHead(o *Clip, cut float64) {
	o.StartTime += cut
	o.Duration -= cut
	o.InPoint += cut
	o.Keyframes = trimKeyframes(o.Keyframes, cut, cut+o.Duration)
	s.mark(o.ID)
	s.logger.Debug().Str("clip", o.ID).Float64("cut", cut).Msg("head trimmed")
}

// split cuts the hole [start, end) out of o, leaving o as the left piece and
// adding a new clip for the right piece.
func (s *Store) split(o *Clip, start, end float64) {
	right := o.clone()
	right.ID = uuid.New().String()
	right.LinkedClipID = ""
	rightCut := end - o.StartTime
	right.StartTime = end
	right.Duration = o.Duration - rightCut
	right.InPoint = o.InPoint + rightCut
	right.Keyframes = trimKeyframes(right.Keyframes, rightCut, rightCut+right.Duration)
	s.clips[right.ID] = &right
	s.mark(right.ID)

	s.trimTail(o, start-o.StartTime)
	s.logger.Debug().Str("clip", o.ID).Str("right", right.ID).Msg("clip split around move")
}

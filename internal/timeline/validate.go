package timeline

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of the timeline and reports
// every violation it finds.
func (s *Snapshot) Validate() error {
	var errs []error

	for _, t := range s.tracks {
		if t.ParentTrackID == "" {
			continue
		}
		if _, ok := s.Track(t.ParentTrackID); !ok {
			errs = append(errs, fmt.Errorf("track %s parent %s: %w", t.ID, t.ParentTrackID, ErrTrackNotFound))
			continue
		}
		if s.trackCycle(t.ID) {
			errs = append(errs, fmt.Errorf("track %s: %w", t.ID, ErrCycle))
		}
	}

	for _, c := range s.Clips() {
		if c.StartTime < 0 || !(c.Duration > 0) {
			errs = append(errs, fmt.Errorf("clip %s spans [%v,%v): %w", c.ID, c.StartTime, c.End(), ErrInvalidClip))
		}
		if c.LinkedClipID != "" {
			if _, ok := s.Linked(c.ID); !ok {
				errs = append(errs, fmt.Errorf("clip %s link to %s: %w", c.ID, c.LinkedClipID, ErrAsymmetricLink))
			}
		}
		if c.ParentClipID != "" {
			if _, ok := s.Clip(c.ParentClipID); !ok {
				errs = append(errs, fmt.Errorf("clip %s parent %s: %w", c.ID, c.ParentClipID, ErrClipNotFound))
			} else if s.clipCycle(c.ID) {
				errs = append(errs, fmt.Errorf("clip %s: %w", c.ID, ErrCycle))
			}
		}
	}

	for _, t := range s.tracks {
		clips := s.ClipsOnTrack(t.ID)
		for i := 0; i < len(clips); i++ {
			for j := i + 1; j < len(clips); j++ {
				a, b := clips[i], clips[j]
				if b.StartTime >= a.End() {
					break
				}
				if !a.Overlaps(b.StartTime, b.End()) {
					continue
				}
				if tr, ok := s.TransitionBetween(a.ID, b.ID); ok &&
					OverlapAmount(a.StartTime, a.End(), b.StartTime, b.End()) <= tr.Duration+Epsilon {
					continue
				}
				errs = append(errs, fmt.Errorf("clips %s and %s on track %s: %w", a.ID, b.ID, t.ID, ErrOverlap))
			}
		}
	}

	return errors.Join(errs...)
}

func (s *Snapshot) trackCycle(start string) bool {
	seen := map[string]bool{}
	for id := start; id != ""; {
		if seen[id] {
			return true
		}
		seen[id] = true
		t, ok := s.Track(id)
		if !ok {
			return false
		}
		id = t.ParentTrackID
	}
	return false
}

func (s *Snapshot) clipCycle(start string) bool {
	seen := map[string]bool{}
	for id := start; id != ""; {
		if seen[id] {
			return true
		}
		seen[id] = true
		c, ok := s.Clip(id)
		if !ok {
			return false
		}
		id = c.ParentClipID
	}
	return false
}

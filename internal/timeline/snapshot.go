package timeline

import "sort"

// Snapshot is a read-only view of the timeline at one version. Callers must
// not modify slices returned from it.
type Snapshot struct {
	version     uint64
	tracks      []Track
	trackIndex  map[string]int
	clips       map[string]Clip
	byTrack     map[string][]string
	markers     []float64
	playhead    float64
	transitions []Transition
}

// Version identifies the store state this snapshot was taken from
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Tracks returns the lanes top to bottom
func (s *Snapshot) Tracks() []Track {
	return s.tracks
}

// LaneHeights returns the track heights top to bottom
func (s *Snapshot) LaneHeights() []float64 {
	out := make([]float64, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t.Height
	}
	return out
}

// Track looks up a track by id
func (s *Snapshot) Track(id string) (Track, bool) {
	i, ok := s.trackIndex[id]
	if !ok {
		return Track{}, false
	}
	return s.tracks[i], true
}

// TrackIndex returns the lane position of a track, or -1
func (s *Snapshot) TrackIndex(id string) int {
	if i, ok := s.trackIndex[id]; ok {
		return i
	}
	return -1
}

// Clip looks up a clip by id
func (s *Snapshot) Clip(id string) (Clip, bool) {
	c, ok := s.clips[id]
	return c, ok
}

// Clips returns every clip ordered by lane, then start time
func (s *Snapshot) Clips() []Clip {
	out := make([]Clip, 0, len(s.clips))
	for _, t := range s.tracks {
		out = append(out, s.ClipsOnTrack(t.ID)...)
	}
	return out
}

// ClipsOnTrack returns the clips of one lane ordered by start time
func (s *Snapshot) ClipsOnTrack(trackID string) []Clip {
	ids := s.byTrack[trackID]
	out := make([]Clip, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.clips[id])
	}
	return out
}

// Linked resolves the partner of a clip. A dangling or one-sided link is
// treated as no link.
func (s *Snapshot) Linked(id string) (Clip, bool) {
	c, ok := s.clips[id]
	if !ok || c.LinkedClipID == "" {
		return Clip{}, false
	}
	partner, ok := s.clips[c.LinkedClipID]
	if !ok || partner.LinkedClipID != id {
		return Clip{}, false
	}
	return partner, true
}

// GroupMembers returns every clip sharing a linked group id, sorted by id
func (s *Snapshot) GroupMembers(groupID string) []Clip {
	if groupID == "" {
		return nil
	}
	var out []Clip
	for _, c := range s.clips {
		if c.LinkedGroupID == groupID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SiblingTracks returns the tracks of the given type ordered by lane
// distance from the reference track, nearest first. The reference track
// itself is not included.
func (s *Snapshot) SiblingTracks(ref string, typ TrackType) []Track {
	origin := s.TrackIndex(ref)
	var out []Track
	for _, t := range s.tracks {
		if t.ID != ref && t.Type == typ {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(s.trackIndex[out[i].ID]-origin) < abs(s.trackIndex[out[j].ID]-origin)
	})
	return out
}

// Markers returns timeline marker times in ascending order
func (s *Snapshot) Markers() []float64 {
	return s.markers
}

// Playhead returns the playhead time at this version
func (s *Snapshot) Playhead() float64 {
	return s.playhead
}

// Transitions returns every transition sorted by id
func (s *Snapshot) Transitions() []Transition {
	return s.transitions
}

// TransitionBetween returns the transition joining two clips, if any
func (s *Snapshot) TransitionBetween(a, b string) (Transition, bool) {
	for _, t := range s.transitions {
		if t.Joins(a, b) {
			return t, true
		}
	}
	return Transition{}, false
}

// End returns the end time of the last clip on any track
func (s *Snapshot) End() float64 {
	end := 0.0
	for _, c := range s.clips {
		if c.End() > end {
			end = c.End()
		}
	}
	return end
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

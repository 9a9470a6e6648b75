package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the authoritative clip model. Clips and tracks live in id-indexed
// maps so a mutation only touches the entry it changes; readers get
// immutable, version-stamped snapshots.
//
// Store is not safe for concurrent use. The editor drives it from a single
// event loop.
type Store struct {
	logger zerolog.Logger

	tracks      map[string]*Track
	order       []string
	clips       map[string]*Clip
	transitions map[string]*Transition
	markers     []float64
	playhead    float64

	selection *Selection

	version uint64
	snap    *Snapshot

	// What changed since snap was built. Snapshot copies only these.
	dirty            map[string]bool
	tracksDirty      bool
	transitionsDirty bool
}

// NewStore creates an empty timeline
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		logger:      logger.With().Str("component", "timeline").Logger(),
		tracks:      make(map[string]*Track),
		clips:       make(map[string]*Clip),
		transitions: make(map[string]*Transition),
		selection:   NewSelection(),
		dirty:       make(map[string]bool),
	}
}

// Version increases on every mutation of the clip model
func (s *Store) Version() uint64 {
	return s.version
}

// touch bumps the version and marks the given clips as changed
func (s *Store) touch(clipIDs ...string) {
	s.version++
	for _, id := range clipIDs {
		s.mark(id)
	}
}

func (s *Store) mark(clipID string) {
	if clipID != "" {
		s.dirty[clipID] = true
	}
}

// AddTrack appends a lane to the bottom of the track list
func (s *Store) AddTrack(t Track) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if _, exists := s.tracks[t.ID]; exists {
		return fmt.Errorf("track %s: %w", t.ID, ErrDuplicateID)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("track %s has type %q: %w", t.ID, t.Type, ErrInvalidTrack)
	}
	if t.Height <= 0 {
		t.Height = DefaultTrackHeight
	}

	s.tracks[t.ID] = &t
	s.order = append(s.order, t.ID)
	s.tracksDirty = true
	s.touch()
	return nil
}

// AddClip places a clip. An empty id is filled with a fresh uuid, which is
// returned.
func (s *Store) AddClip(c Clip) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if _, exists := s.clips[c.ID]; exists {
		return "", fmt.Errorf("clip %s: %w", c.ID, ErrDuplicateID)
	}
	if _, ok := s.tracks[c.TrackID]; !ok {
		return "", fmt.Errorf("clip %s on track %s: %w", c.ID, c.TrackID, ErrTrackNotFound)
	}
	if !(c.Duration > 0) {
		return "", fmt.Errorf("clip %s has duration %v: %w", c.ID, c.Duration, ErrInvalidClip)
	}
	if c.OutPoint == 0 && c.InPoint == 0 {
		c.OutPoint = c.Duration
	}
	if c.InPoint < 0 || c.OutPoint <= c.InPoint {
		return "", fmt.Errorf("clip %s has in %v out %v: %w", c.ID, c.InPoint, c.OutPoint, ErrInvalidClip)
	}
	if c.SourceDuration > 0 && c.OutPoint > c.SourceDuration+Epsilon {
		return "", fmt.Errorf("clip %s out point %v past source end %v: %w", c.ID, c.OutPoint, c.SourceDuration, ErrInvalidClip)
	}
	if c.Transform == (Transform{}) {
		c.Transform = IdentityTransform()
	}
	c.StartTime = math.Max(0, c.StartTime)
	c = c.clone()
	SortKeyframes(c.Keyframes)

	s.clips[c.ID] = &c
	s.touch(c.ID)
	return c.ID, nil
}

// RemoveClip deletes a clip and drops any link pointing at it
func (s *Store) RemoveClip(id string) error {
	c, ok := s.clips[id]
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrClipNotFound)
	}
	partner := s.unlink(c)
	for tid, tr := range s.transitions {
		if tr.FromClipID == id || tr.ToClipID == id {
			delete(s.transitions, tid)
			s.transitionsDirty = true
		}
	}
	delete(s.clips, id)
	s.selection.drop(id)
	s.touch(id, partner)
	return nil
}

// Link pairs two clips symmetrically, replacing any previous partners
func (s *Store) Link(a, b string) error {
	ca, ok := s.clips[a]
	if !ok {
		return fmt.Errorf("link %s: %w", a, ErrClipNotFound)
	}
	cb, ok := s.clips[b]
	if !ok {
		return fmt.Errorf("link %s: %w", b, ErrClipNotFound)
	}
	if a == b {
		return fmt.Errorf("link %s to itself: %w", a, ErrInvalidClip)
	}
	pa := s.unlink(ca)
	pb := s.unlink(cb)
	ca.LinkedClipID = b
	cb.LinkedClipID = a
	s.touch(a, b, pa, pb)
	return nil
}

// Unlink decouples a clip from its partner
func (s *Store) Unlink(id string) error {
	c, ok := s.clips[id]
	if !ok {
		return fmt.Errorf("unlink %s: %w", id, ErrClipNotFound)
	}
	partner := s.unlink(c)
	s.touch(id, partner)
	return nil
}

// unlink clears c's link and returns the id of the partner it also
// cleared, if any
func (s *Store) unlink(c *Clip) string {
	cleared := ""
	if partner, ok := s.clips[c.LinkedClipID]; ok && partner.LinkedClipID == c.ID {
		partner.LinkedClipID = ""
		cleared = partner.ID
	}
	c.LinkedClipID = ""
	return cleared
}

// AddTransition joins two clips on the same track
func (s *Store) AddTransition(t Transition) error {
	from, ok := s.clips[t.FromClipID]
	if !ok {
		return fmt.Errorf("transition from %s: %w", t.FromClipID, ErrClipNotFound)
	}
	to, ok := s.clips[t.ToClipID]
	if !ok {
		return fmt.Errorf("transition to %s: %w", t.ToClipID, ErrClipNotFound)
	}
	if from.TrackID != to.TrackID || t.Duration <= 0 {
		return fmt.Errorf("transition %s between %s and %s: %w", t.ID, from.ID, to.ID, ErrInvalidTransition)
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.TrackID = from.TrackID
	s.transitions[t.ID] = &t
	s.transitionsDirty = true
	s.touch()
	return nil
}

// AddMarker drops a timeline marker
func (s *Store) AddMarker(at float64) {
	s.markers = append(s.markers, math.Max(0, at))
	sort.Float64s(s.markers)
	s.touch()
}

// SetPlayhead moves the playhead
func (s *Store) SetPlayhead(at float64) {
	s.playhead = math.Max(0, at)
	s.touch()
}

// Playhead returns the current playhead time
func (s *Store) Playhead() float64 {
	return s.playhead
}

// Selection returns the live selection set
func (s *Store) Selection() *Selection {
	return s.selection
}

// UpdateMaskVertex replaces a single vertex of one mask without rebuilding
// the rest of the clip list.
func (s *Store) UpdateMaskVertex(clipID, maskID string, index int, p Point) error {
	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("mask vertex on %s: %w", clipID, ErrClipNotFound)
	}
	for i := range c.Masks {
		if c.Masks[i].ID != maskID {
			continue
		}
		if index < 0 || index >= len(c.Masks[i].Vertices) {
			return fmt.Errorf("mask %s vertex %d: %w", maskID, index, ErrVertexOutOfRange)
		}
		// The snapshot may share this slice, so copy before writing.
		verts := append([]Point(nil), c.Masks[i].Vertices...)
		verts[index] = p
		c.Masks[i].Vertices = verts
		s.touch(clipID)
		return nil
	}
	return fmt.Errorf("mask %s on %s: %w", maskID, clipID, ErrMaskNotFound)
}

// Snapshot returns an immutable view of the current state. Snapshots are
// cached per version. A new snapshot shares every clip and every track
// index the previous one holds that has not changed since, so the cost of
// a rebuild follows the size of the edit, not of the timeline.
func (s *Store) Snapshot() *Snapshot {
	prev := s.snap
	if prev != nil && prev.version == s.version {
		return prev
	}

	snap := &Snapshot{
		version:  s.version,
		markers:  append([]float64(nil), s.markers...),
		playhead: s.playhead,
	}

	if prev == nil || s.tracksDirty {
		snap.trackIndex = make(map[string]int, len(s.order))
		for i, id := range s.order {
			snap.tracks = append(snap.tracks, *s.tracks[id])
			snap.trackIndex[id] = i
		}
	} else {
		snap.tracks, snap.trackIndex = prev.tracks, prev.trackIndex
	}

	if prev == nil {
		snap.clips = make(map[string]Clip, len(s.clips))
		snap.byTrack = make(map[string][]string, len(s.order))
		for id, c := range s.clips {
			snap.clips[id] = c.clone()
			snap.byTrack[c.TrackID] = append(snap.byTrack[c.TrackID], id)
		}
		for _, ids := range snap.byTrack {
			sortByStart(ids, snap.clips)
		}
	} else {
		s.patchClips(prev, snap)
	}

	if prev == nil || s.transitionsDirty {
		snap.transitions = make([]Transition, 0, len(s.transitions))
		for _, t := range s.transitions {
			snap.transitions = append(snap.transitions, *t)
		}
		sort.Slice(snap.transitions, func(i, j int) bool {
			return snap.transitions[i].ID < snap.transitions[j].ID
		})
	} else {
		snap.transitions = prev.transitions
	}

	s.snap = snap
	s.dirty = make(map[string]bool)
	s.tracksDirty = false
	s.transitionsDirty = false
	return snap
}

// patchClips fills snap from prev, cloning only the dirty clips and
// re-sorting only the tracks they left or joined
func (s *Store) patchClips(prev, snap *Snapshot) {
	snap.clips = make(map[string]Clip, len(s.clips))
	for id, c := range prev.clips {
		if !s.dirty[id] {
			snap.clips[id] = c
		}
	}

	touched := make(map[string]bool)
	for id := range s.dirty {
		if old, ok := prev.clips[id]; ok {
			touched[old.TrackID] = true
		}
		if c, ok := s.clips[id]; ok {
			snap.clips[id] = c.clone()
			touched[c.TrackID] = true
		}
	}

	snap.byTrack = make(map[string][]string, len(prev.byTrack)+len(touched))
	for tid, ids := range prev.byTrack {
		if !touched[tid] {
			snap.byTrack[tid] = ids
		}
	}
	for tid := range touched {
		var ids []string
		for _, id := range prev.byTrack[tid] {
			if c, ok := snap.clips[id]; ok && c.TrackID == tid {
				ids = append(ids, id)
			}
		}
		for id := range s.dirty {
			if old, ok := prev.clips[id]; ok && old.TrackID == tid {
				continue
			}
			if c, ok := snap.clips[id]; ok && c.TrackID == tid {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		sortByStart(ids, snap.clips)
		snap.byTrack[tid] = ids
	}
}

func sortByStart(ids []string, clips map[string]Clip) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := clips[ids[i]], clips[ids[j]]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}

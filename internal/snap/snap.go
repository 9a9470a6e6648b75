package snap

import (
	"math"

	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/timeline"
)

// DefaultRadiusPx is the snap distance in screen pixels
const DefaultRadiusPx = 10

// TargetKind says what a snap target came from
type TargetKind string

const (
	TargetClipStart TargetKind = "clip-start"
	TargetClipEnd   TargetKind = "clip-end"
	TargetPlayhead  TargetKind = "playhead"
	TargetMarker    TargetKind = "marker"
	TargetOrigin    TargetKind = "origin"
)

// Target is one candidate snap position
type Target struct {
	Time    float64
	Kind    TargetKind
	ClipID  string
	TrackID string
}

// Request describes one snap query for a dragged clip
type Request struct {
	ClipID   string
	RawTime  float64
	TrackID  string
	Duration float64
	// Exclude lists clips that move with the dragged clip and must not
	// attract it.
	Exclude []string
}

// Result is the outcome of a snap query
type Result struct {
	StartTime float64
	Snapped   bool
	Target    Target
	// Edge is "start" or "end": which edge of the dragged clip snapped
	Edge string
}

// ShouldSnap combines the global toggle with the momentary modifier: holding
// Alt inverts whatever the toggle says.
func ShouldSnap(enabled, altHeld bool) bool {
	return enabled != altHeld
}

// Resolver pulls candidate positions onto nearby meaningful boundaries
type Resolver struct {
	snap     *timeline.Snapshot
	viewport geometry.Viewport
	radiusPx float64
}

// NewResolver creates a resolver over one timeline snapshot
func NewResolver(snap *timeline.Snapshot, viewport geometry.Viewport, radiusPx float64) *Resolver {
	if radiusPx <= 0 {
		radiusPx = DefaultRadiusPx
	}
	return &Resolver{snap: snap, viewport: viewport, radiusPx: radiusPx}
}

// Targets lists every snap target for a dragged clip
func (r *Resolver) Targets(clipID string, exclude []string) []Target {
	skip := make(map[string]bool, len(exclude)+1)
	skip[clipID] = true
	for _, id := range exclude {
		skip[id] = true
	}

	targets := []Target{
		{Time: 0, Kind: TargetOrigin},
		{Time: r.snap.Playhead(), Kind: TargetPlayhead},
	}
	for _, m := range r.snap.Markers() {
		targets = append(targets, Target{Time: m, Kind: TargetMarker})
	}
	for _, c := range r.snap.Clips() {
		if skip[c.ID] {
			continue
		}
		targets = append(targets,
			Target{Time: c.StartTime, Kind: TargetClipStart, ClipID: c.ID, TrackID: c.TrackID},
			Target{Time: c.End(), Kind: TargetClipEnd, ClipID: c.ID, TrackID: c.TrackID},
		)
	}
	return targets
}

// SnappedPosition returns the nearest snapped start time within the
// zoom-scaled radius, or the raw time unchanged. Either edge of the clip may
// snap; on equal distance a target on the same track wins.
func (r *Resolver) SnappedPosition(req Request) Result {
	threshold := r.viewport.TimeThreshold(r.radiusPx)

	best := Result{StartTime: req.RawTime}
	bestDist := math.Inf(1)
	bestSameTrack := false

	consider := func(t Target, start float64, edge string, dist float64) {
		if dist > threshold {
			return
		}
		same := t.TrackID != "" && t.TrackID == req.TrackID
		if dist < bestDist || (dist == bestDist && same && !bestSameTrack) {
			best = Result{StartTime: math.Max(0, start), Snapped: true, Target: t, Edge: edge}
			bestDist = dist
			bestSameTrack = same
		}
	}

	for _, t := range r.Targets(req.ClipID, req.Exclude) {
		consider(t, t.Time, "start", math.Abs(req.RawTime-t.Time))
		if req.Duration > 0 {
			end := req.RawTime + req.Duration
			consider(t, t.Time-req.Duration, "end", math.Abs(end-t.Time))
		}
	}
	return best
}

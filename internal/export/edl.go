package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/keagan/clipdeck/pkg/util"
)

// Event is one line of a CMX3600 edit decision list. Times are seconds;
// TransitionFrames is only set for dissolves.
type Event struct {
	Number           int
	Reel             string
	Track            string
	Edit             string
	TransitionFrames int
	SourceIn         float64
	SourceOut        float64
	RecordIn         float64
	RecordOut        float64
	ClipName         string
	MediaPath        string
}

// Events lists the clips of one track in record order. A clip entered through
// a transition becomes a dissolve.
func Events(snap *timeline.Snapshot, trackID string, frameRate float64) ([]Event, error) {
	track, ok := snap.Track(trackID)
	if !ok {
		return nil, fmt.Errorf("export track %s: %w", trackID, timeline.ErrTrackNotFound)
	}
	fps := roundFPS(frameRate)

	kind := "V"
	if track.Type == timeline.TrackAudio {
		kind = "A"
	}

	var events []Event
	clips := snap.ClipsOnTrack(trackID)
	for i, c := range clips {
		ev := Event{
			Number:    i + 1,
			Reel:      "AX",
			Track:     kind,
			Edit:      "C",
			SourceIn:  c.InPoint,
			SourceOut: c.InPoint + c.Duration,
			RecordIn:  c.StartTime,
			RecordOut: c.End(),
			ClipName:  c.Name,
			MediaPath: c.SourcePath,
		}
		if ev.ClipName == "" {
			ev.ClipName = c.ID
		}
		if i > 0 {
			if tr, ok := snap.TransitionBetween(clips[i-1].ID, c.ID); ok {
				ev.Edit = "D"
				ev.TransitionFrames = int(math.Round(tr.Duration * float64(fps)))
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// GenerateEDL renders one track as a CMX3600 EDL
func GenerateEDL(snap *timeline.Snapshot, trackID, title string, frameRate float64) (string, error) {
	events, err := Events(snap, trackID, frameRate)
	if err != nil {
		return "", err
	}
	fps := roundFPS(frameRate)

	fcm := "FCM: NON-DROP FRAME"
	tc := func(sec float64) string { return util.SecondsToTimecode(sec, fps) }
	if util.IsDropFrameRate(frameRate) {
		fcm = "FCM: DROP FRAME"
		tc = func(sec float64) string { return util.SecondsToDropFrameTimecode(sec, frameRate) }
	}

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, 70)), fcm}
	lines = append(lines, "")

	for _, ev := range events {
		edit := ev.Edit
		if ev.TransitionFrames > 0 {
			edit = fmt.Sprintf("%s    %03d", ev.Edit, ev.TransitionFrames)
		}
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s %-8s %s %s %s %s", ev.Number, ev.Reel, ev.Track, edit,
				tc(ev.SourceIn), tc(ev.SourceOut), tc(ev.RecordIn), tc(ev.RecordOut)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", SanitizeName(ev.ClipName, 0)),
		)
		if ev.MediaPath != "" {
			lines = append(lines, fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n"), nil
}

func roundFPS(frameRate float64) int {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}
	return fps
}

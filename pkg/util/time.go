package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatSeconds renders timeline seconds as HH:MM:SS.mmm
func FormatSeconds(sec float64) string {
	sign := ""
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	ms := int64(math.Round(sec * 1000))
	hours := ms / 3_600_000
	minutes := ms / 60_000 % 60
	secs := float64(ms%60_000) / 1000
	return fmt.Sprintf("%s%02d:%02d:%06.3f", sign, hours, minutes, secs)
}

// ParseSeconds parses a timestamp string (HH:MM:SS.mmm or MM:SS or SS.mmm)
// into seconds
func ParseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) > 3 || s == "" {
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		total = total*60 + v
	}
	return total, nil
}

// SecondsToTimecode renders seconds as non-drop SMPTE HH:MM:SS:FF
func SecondsToTimecode(sec float64, fps int) string {
	if fps <= 0 {
		fps = 30
	}
	totalFrames := int(math.Round(math.Max(0, sec) * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, frames)
}

// IsDropFrameRate reports whether a rate is one of the NTSC rates that
// use drop-frame timecode (29.97 and 59.94)
func IsDropFrameRate(frameRate float64) bool {
	return math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01
}

// SecondsToDropFrameTimecode renders seconds as drop-frame SMPTE
// HH:MM:SS;FF. Frame labels 0 and 1 (0 to 3 at 59.94) are skipped at the
// start of every minute except each tenth minute.
func SecondsToDropFrameTimecode(sec float64, frameRate float64) string {
	nominal := int(math.Round(frameRate))
	drop := nominal / 15
	rate := float64(nominal) * 1000 / 1001
	frames := int(math.Round(math.Max(0, sec) * rate))

	perMinute := nominal*60 - drop
	perTenMinutes := perMinute*10 + drop
	tens, rem := frames/perTenMinutes, frames%perTenMinutes
	frames += 9 * drop * tens
	if rem > drop {
		frames += drop * ((rem - drop) / perMinute)
	}

	secs := frames / nominal
	return fmt.Sprintf("%02d:%02d:%02d;%02d", secs/3600, secs/60%60, secs%60, frames%nominal)
}

// ParseFrameRate parses a frame rate as a plain number ("25", "29.97") or
// a ratio ("30000/1001"). It returns 0 when the input is not a rate.
func ParseFrameRate(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), "/")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || v <= 0 {
			return 0
		}
		return v
	case 2:
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0
		}
		return num / den
	}
	return 0
}

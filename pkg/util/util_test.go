package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		0:       "00:00:00.000",
		6.5:     "00:00:06.500",
		3725.25: "01:02:05.250",
		-2:      "-00:00:02.000",
	}
	for in, want := range cases {
		if got := FormatSeconds(in); got != want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSeconds(t *testing.T) {
	cases := map[string]float64{
		"45.5":         45.5,
		"01:30":        90,
		"01:02:05.250": 3725.25,
		" 6 ":          6,
	}
	for in, want := range cases {
		got, err := ParseSeconds(in)
		if err != nil || got != want {
			t.Errorf("ParseSeconds(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "a:b", "1:2:3:4", "-3"} {
		if _, err := ParseSeconds(bad); err == nil {
			t.Errorf("ParseSeconds(%q) should fail", bad)
		}
	}
}

func TestSecondsToTimecode(t *testing.T) {
	if got := SecondsToTimecode(3661.5, 30); got != "01:01:01:15" {
		t.Errorf("got %s", got)
	}
	if got := SecondsToTimecode(2, 0); got != "00:00:02:00" {
		t.Errorf("zero fps should default to 30, got %s", got)
	}
}

func TestSecondsToDropFrameTimecode(t *testing.T) {
	cases := []struct {
		sec  float64
		rate float64
		want string
	}{
		{0, 29.97, "00:00:00;00"},
		{1.5, 29.97, "00:00:01;15"},
		// frame 1800 is the first label after the skip at minute one
		{1800 * 1001 / 30000.0, 29.97, "00:01:00;02"},
		{17982 * 1001 / 30000.0, 29.97, "00:10:00;00"},
		{3600 * 1001 / 60000.0, 59.94, "00:01:00;04"},
	}
	for _, c := range cases {
		if got := SecondsToDropFrameTimecode(c.sec, c.rate); got != c.want {
			t.Errorf("%v at %v: got %s, want %s", c.sec, c.rate, got, c.want)
		}
	}
	if !IsDropFrameRate(59.94) || IsDropFrameRate(30) {
		t.Error("drop frame rate detection")
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30000/1001"); got < 29.97 || got > 29.98 {
		t.Errorf("ratio rate %v", got)
	}
	if got := ParseFrameRate("25"); got != 25 {
		t.Errorf("plain rate %v", got)
	}
	if got := ParseFrameRate("x/0"); got != 0 {
		t.Errorf("bad rate %v", got)
	}
}

func TestWriteFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	path, err := WriteFile(dir, "out.edl", []byte("TITLE: X\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Fatal("file not written")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "TITLE: X\n" {
		t.Errorf("content %q", data)
	}
}

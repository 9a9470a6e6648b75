package gui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/fade"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/timeline"
)

func newStore(t *testing.T) *timeline.Store {
	t.Helper()
	store := timeline.NewStore(zerolog.Nop())
	for _, tr := range []timeline.Track{{ID: "v1", Type: timeline.TrackVideo}, {ID: "v2", Type: timeline.TrackVideo}} {
		if err := store.AddTrack(tr); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.AddClip(timeline.Clip{ID: "c", TrackID: "v1", StartTime: 1, Duration: 2}); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestHit(t *testing.T) {
	env := drag.Env{Timeline: newStore(t).Snapshot(), Viewport: geometry.Viewport{Zoom: 100}}

	tests := []struct {
		name string
		x, y float64
		clip string
		edge fade.Edge
	}{
		{"body", 150, 24, "c", ""},
		{"left handle", 102, 3, "c", fade.EdgeLeft},
		{"right handle", 295, 3, "c", fade.EdgeRight},
		{"below handles", 102, 20, "c", ""},
		{"empty time", 50, 24, "", ""},
		{"other lane", 150, 70, "", ""},
		{"past last lane", 150, 200, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip, edge := hit(env, tt.x, tt.y)
			if clip != tt.clip || edge != tt.edge {
				t.Errorf("hit(%v, %v) = %q %q, want %q %q", tt.x, tt.y, clip, edge, tt.clip, tt.edge)
			}
		})
	}
}

func TestModifiers(t *testing.T) {
	m := modifiers(fyne.KeyModifierAlt | fyne.KeyModifierControl)
	if m.Shift || !m.Alt || !m.Force {
		t.Errorf("modifiers %+v", m)
	}
}

func press(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func dragTo(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestWidgetDragCommits(t *testing.T) {
	test.NewApp()
	store := newStore(t)
	tl := NewTimeline(zerolog.Nop(), store, Options{Viewport: geometry.Viewport{Zoom: 100}})
	changes := 0
	tl.OnChange = func() { changes++ }

	tl.MouseDown(press(150, 24))
	tl.Dragged(dragTo(300, 24))
	tl.Dragged(dragTo(450, 24))
	if c, _ := store.Snapshot().Clip("c"); c.StartTime != 1 {
		t.Fatal("dragging must not write the model before release")
	}
	tl.DragEnd()
	tl.MouseUp(press(450, 24))

	if c, _ := store.Snapshot().Clip("c"); c.StartTime != 4 {
		t.Errorf("c starts at %v, want 4", c.StartTime)
	}
	if changes != 1 {
		t.Errorf("OnChange called %d times", changes)
	}
	if tl.preview.Active {
		t.Error("preview should be cleared after release")
	}
}

func TestWidgetFadeHandle(t *testing.T) {
	test.NewApp()
	store := newStore(t)
	tl := NewTimeline(zerolog.Nop(), store, Options{Viewport: geometry.Viewport{Zoom: 100}})

	tl.MouseDown(press(102, 3))
	tl.Dragged(dragTo(152, 3))
	tl.DragEnd()

	kfs := timeline.PropertyKeyframes(store.ClipKeyframes("c"), timeline.PropertyOpacity)
	if len(kfs) != 2 || kfs[0].Time != 0 || kfs[1].Time != 0.5 {
		t.Errorf("fade keyframes %+v", kfs)
	}
	if c, _ := store.Snapshot().Clip("c"); c.StartTime != 1 {
		t.Error("a fade drag must not move the clip")
	}
}

func TestClickOnEmptySpaceClearsSelection(t *testing.T) {
	test.NewApp()
	store := newStore(t)
	store.Selection().SelectClip("c", false, false)
	tl := NewTimeline(zerolog.Nop(), store, Options{Viewport: geometry.Viewport{Zoom: 100}})

	tl.MouseDown(press(600, 24))
	tl.MouseUp(press(600, 24))
	if store.Selection().Len() != 0 {
		t.Error("selection should be cleared")
	}
}

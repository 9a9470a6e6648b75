package gui

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/fade"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/replay"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/keagan/clipdeck/pkg/util"
)

// Options configure the editor window
type Options struct {
	Viewport        geometry.Viewport
	SnappingEnabled bool
	Drag            drag.Options
	Fade            fade.Options
}

var projectFilter = storage.NewExtensionFileFilter([]string{".yaml", ".yml"})

// RunGUI opens the editor on a project and blocks until the window closes
func RunGUI(logger zerolog.Logger, project *replay.Project, opts Options) error {
	store, err := project.Build(logger)
	if err != nil {
		return err
	}
	name := project.Name

	myApp := app.NewWithID("clipdeck")
	w := myApp.NewWindow("clipdeck - " + name)
	w.Resize(fyne.NewSize(1000, 420))

	tl := NewTimeline(logger, store, opts)
	status := widget.NewLabel("")
	showStatus := func() {
		snap := tl.Store().Snapshot()
		status.SetText(fmt.Sprintf("%s  %d clips  end %s  v%d",
			name, len(snap.Clips()), util.FormatSeconds(snap.End()), snap.Version()))
	}
	showStatus()
	tl.OnChange = showStatus
	tl.OnOpenComposition = func(id string) {
		dialog.ShowInformation("Composition", "Nested composition "+id+" opens in its own tab.", w)
	}

	zoom := widget.NewSlider(10, 400)
	zoom.Value = opts.Viewport.Zoom
	zoom.OnChanged = tl.SetZoom

	snapping := widget.NewCheck("Snap", tl.SetSnapping)
	snapping.Checked = opts.SnappingEnabled

	loadButton := widget.NewButton("Open Project", func() {
		fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			defer ur.Close()

			p, err := replay.LoadProject(ur.URI().Path())
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			s, err := p.Build(logger)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			name = p.Name
			if name == "" {
				name = filepath.Base(ur.URI().Path())
			}
			w.SetTitle("clipdeck - " + name)
			tl.SetStore(s)
			showStatus()
			logger.Info().Str("path", ur.URI().Path()).Msg("project opened")
		}, w)
		fd.SetFilter(projectFilter)
		fd.Show()
	})

	saveButton := widget.NewButton("Save Project", func() {
		fd := dialog.NewFileSave(func(uw fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uw == nil {
				return
			}
			defer uw.Close()

			if err := writeProject(uw, name, tl.Store()); err != nil {
				dialog.ShowError(err, w)
				return
			}
			logger.Info().Str("path", uw.URI().Path()).Msg("project saved")
		}, w)
		fd.SetFilter(projectFilter)
		fd.SetFileName(name + ".yaml")
		fd.Show()
	})

	w.SetContent(container.NewBorder(
		container.NewHBox(loadButton, saveButton, snapping, widget.NewLabel("Zoom"), container.NewGridWrap(fyne.NewSize(200, 36), zoom)),
		status,
		nil,
		nil,
		tl,
	))

	w.ShowAndRun()
	return nil
}

func writeProject(uw fyne.URIWriteCloser, name string, store *timeline.Store) error {
	p := replay.FromSnapshot(name, store.Snapshot(), store.Selection().SelectedIDs())
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	_, err = uw.Write(data)
	return err
}

package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/keagan/clipdeck/pkg/util"
)

var (
	colorClip   = lipgloss.Color("#7aa2f7")
	colorGhost  = lipgloss.Color("#bb9af7")
	colorForced = lipgloss.Color("#f7768e")
	colorMuted  = lipgloss.Color("#565f89")
	colorHead   = lipgloss.Color("#e0af68")
)

// Cell glyphs. Clip bodies shade with opacity so fades are visible.
const (
	glyphEmpty    = ' '
	glyphFull     = '#'
	glyphHalf     = '+'
	glyphLow      = '.'
	glyphLeft     = ':'
	glyphGhost    = '='
	glyphForced   = 'X'
	glyphPlayhead = '|'
)

const labelWidth = 8

// Options size the terminal timeline
type Options struct {
	SecondsPerCell float64
	Width          int
	NoColor        bool
}

// Renderer draws a timeline snapshot and a live drag preview as text
type Renderer struct {
	opts Options

	label  lipgloss.Style
	clip   lipgloss.Style
	ghost  lipgloss.Style
	forced lipgloss.Style
	muted  lipgloss.Style
	head   lipgloss.Style
}

// New creates a renderer
func New(opts Options) *Renderer {
	if opts.SecondsPerCell <= 0 {
		opts.SecondsPerCell = 0.5
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return &Renderer{
		opts:   opts,
		label:  lipgloss.NewStyle().Width(labelWidth).Bold(true),
		clip:   lipgloss.NewStyle().Foreground(colorClip),
		ghost:  lipgloss.NewStyle().Foreground(colorGhost),
		forced: lipgloss.NewStyle().Foreground(colorForced).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(colorMuted),
		head:   lipgloss.NewStyle().Foreground(colorHead),
	}
}

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if r.opts.NoColor {
		return s
	}
	return style.Render(s)
}

// Frame renders every track as one row of cells, with the drag ghosts laid
// over the static clips when a preview is active.
func (r *Renderer) Frame(snap *timeline.Snapshot, p drag.Preview) string {
	moving := make(map[string]bool, len(p.Ghosts))
	for _, g := range p.Ghosts {
		moving[g.ClipID] = true
	}

	rows := []string{r.axis()}
	for _, t := range snap.Tracks() {
		name := t.Name
		if name == "" {
			name = t.ID
		}
		if len(name) > labelWidth-1 {
			name = name[:labelWidth-1]
		}
		label := fmt.Sprintf("%-*s", labelWidth, name)
		rows = append(rows, r.paint(r.label, label)+r.row(snap, t.ID, p, moving))
	}
	if p.Active {
		rows = append(rows, r.status(p.Session))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (r *Renderer) axis() string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth))
	for i := 0; i < r.opts.Width; i += 10 {
		tick := fmt.Sprintf("%-10s", fmt.Sprintf("|%g", float64(i)*r.opts.SecondsPerCell))
		if i+10 > r.opts.Width {
			tick = tick[:r.opts.Width-i]
		}
		b.WriteString(tick)
	}
	return r.paint(r.muted, b.String())
}

func (r *Renderer) row(snap *timeline.Snapshot, trackID string, p drag.Preview, moving map[string]bool) string {
	var b strings.Builder
	for i := 0; i < r.opts.Width; i++ {
		from := float64(i) * r.opts.SecondsPerCell
		to := from + r.opts.SecondsPerCell
		mid := (from + to) / 2

		var static *timeline.Clip
		left := false
		for _, c := range snap.ClipsOnTrack(trackID) {
			if mid < c.StartTime || mid >= c.End() {
				continue
			}
			if moving[c.ID] {
				left = true
				continue
			}
			static = &c
		}

		ghost := false
		for _, g := range p.Ghosts {
			if g.TrackID == trackID && mid >= g.StartTime && mid < g.StartTime+g.Duration {
				ghost = true
			}
		}

		switch {
		case ghost && static != nil:
			b.WriteString(r.paint(r.forced, string(glyphForced)))
		case ghost:
			b.WriteString(r.paint(r.ghost, string(glyphGhost)))
		case static != nil:
			b.WriteString(r.paint(r.clip, string(shade(*static, mid))))
		case left:
			b.WriteString(r.paint(r.muted, string(glyphLeft)))
		case snap.Playhead() >= from && snap.Playhead() < to:
			b.WriteString(r.paint(r.head, string(glyphPlayhead)))
		default:
			b.WriteRune(glyphEmpty)
		}
	}
	return b.String()
}

// shade picks a glyph for the clip's opacity at timeline time t
func shade(c timeline.Clip, t float64) rune {
	alpha, ok := timeline.ValueAt(c.Keyframes, timeline.PropertyOpacity, t-c.StartTime)
	if !ok {
		return glyphFull
	}
	switch {
	case alpha >= 0.67:
		return glyphFull
	case alpha >= 0.34:
		return glyphHalf
	default:
		return glyphLow
	}
}

func (r *Renderer) status(s drag.Session) string {
	parts := []string{
		fmt.Sprintf("drag %s -> %s @ %s", s.ClipID, s.CurrentTrackID, util.FormatSeconds(s.StartTime)),
		fmt.Sprintf("delta %+.3fs", s.Delta()),
	}
	if s.IsSnapping {
		parts = append(parts, "snap")
	}
	if s.ForcingOverlap {
		parts = append(parts, r.paint(r.forced, "forcing overlap"))
	}
	if s.NoFreeSpace {
		parts = append(parts, "no free space")
	}
	if n := len(s.Moving); n > 1 {
		parts = append(parts, fmt.Sprintf("%d clips", n))
	}
	return strings.Join(parts, "  ")
}

// Attach redraws to out on every preview the controller publishes. Frames
// are only written while a session is active.
func (r *Renderer) Attach(ctrl *drag.Controller, state drag.Accessor, out io.Writer) (detach func()) {
	return ctrl.Subscribe(func(p drag.Preview) {
		if !p.Active {
			return
		}
		fmt.Fprintln(out, r.Frame(state.Current().Timeline, p))
		fmt.Fprintln(out)
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/export"
	"github.com/keagan/clipdeck/internal/fade"
	"github.com/keagan/clipdeck/internal/gui"
	"github.com/keagan/clipdeck/internal/logging"
	"github.com/keagan/clipdeck/internal/media"
	"github.com/keagan/clipdeck/internal/preview"
	"github.com/keagan/clipdeck/internal/replay"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/keagan/clipdeck/pkg/util"
)

var (
	cfgFile string
	verbose bool
	jsonLog bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipdeck",
	Short: "clipdeck - timeline clip arrangement engine",
	Long:  "Loads timeline projects, replays clip drags and fade handle drags against them, and exports the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.Options{Verbose: verbose, JSON: jsonLog})

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./clipdeck.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json", false, "log as JSON")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dragCmd)
	rootCmd.AddCommand(fadeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(configCmd)
}

// open loads a project file and builds its timeline
func open(path string) (*replay.Project, *timeline.Store, error) {
	p, err := replay.LoadProject(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := p.Build(log.Logger)
	if err != nil {
		return nil, nil, err
	}
	plog := logging.WithComponent("project")
	plog.Debug().
		Str("path", path).
		Str("project", p.Name).
		Int("clips", len(p.Clips)).
		Msg("project loaded")
	return p, store, nil
}

func newRunner(cfg *config.Config, store *timeline.Store, withPreview bool) *replay.Runner {
	opts := replay.Options{
		Viewport:        cfg.Viewport(),
		SnappingEnabled: cfg.Timeline.SnappingEnabled,
		Drag:            cfg.DragOptions(),
		Fade:            cfg.FadeOptions(),
	}
	if withPreview {
		opts.Preview = preview.New(cfg.PreviewOptions())
		opts.PreviewOut = os.Stdout
	}
	return replay.NewRunner(log.Logger, store, opts)
}

// finish writes the edited project to out, or draws it when out is empty
func finish(cfg *config.Config, p *replay.Project, store *timeline.Store, out string) error {
	if out == "" {
		fmt.Println(preview.New(cfg.PreviewOptions()).Frame(store.Snapshot(), drag.Preview{}))
		return nil
	}
	if err := replay.FromSnapshot(p.Name, store.Snapshot(), store.Selection().SelectedIDs()).Save(out); err != nil {
		return err
	}
	log.Info().Str("path", out).Msg("project written")
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show [project file]",
	Short: "Draw a project's timeline in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		_, store, err := open(args[0])
		if err != nil {
			return err
		}
		return finish(cfg, nil, store, "")
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [project file]",
	Short: "Check a project for overlaps, broken links and cycles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, store, err := open(args[0])
		if err != nil {
			return err
		}
		snap := store.Snapshot()
		log.Info().
			Str("project", p.Name).
			Int("tracks", len(snap.Tracks())).
			Int("clips", len(snap.Clips())).
			Str("end", util.FormatSeconds(snap.End())).
			Msg("project is valid")
		return nil
	},
}

var (
	replayOut     string
	replayPreview bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [project file] [script file]",
	Short: "Play a pointer script against a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p, store, err := open(args[0])
		if err != nil {
			return err
		}
		script, err := replay.LoadScript(args[1])
		if err != nil {
			return err
		}

		r := newRunner(cfg, store, replayPreview)
		defer r.Close()
		res, err := r.Run(cmd.Context(), script)
		if err != nil {
			return err
		}
		for _, c := range res.Commits {
			log.Info().
				Str("clip", c.ClipID).
				Str("track", c.TrackID).
				Str("start", util.FormatSeconds(c.StartTime)).
				Strs("moved", c.Moved).
				Msg("commit")
		}
		return finish(cfg, p, store, replayOut)
	},
}

var (
	dragClip  string
	dragTo    string
	dragTrack string
	dragAlt   bool
	dragForce bool
	dragOut   string
)

var dragCmd = &cobra.Command{
	Use:   "drag [project file]",
	Short: "Drag one clip to a new start time and track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		to, err := util.ParseSeconds(dragTo)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		p, store, err := open(args[0])
		if err != nil {
			return err
		}

		r := newRunner(cfg, store, false)
		defer r.Close()
		commit, ok, err := r.DragTo(dragClip, to, dragTrack, drag.Modifiers{Alt: dragAlt, Force: dragForce})
		if err != nil {
			return err
		}
		if !ok {
			log.Warn().Str("clip", dragClip).Msg("clip stayed where it was")
		} else {
			log.Info().
				Str("clip", commit.ClipID).
				Str("track", commit.TrackID).
				Str("start", util.FormatSeconds(commit.StartTime)).
				Float64("delta", commit.Delta).
				Msg("clip moved")
		}
		return finish(cfg, p, store, dragOut)
	},
}

var (
	fadeClip   string
	fadeEdge   string
	fadeLength string
	fadeOut    string
)

var fadeCmd = &cobra.Command{
	Use:   "fade [project file]",
	Short: "Set the fade-in or fade-out length of a clip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		length, err := util.ParseSeconds(fadeLength)
		if err != nil {
			return fmt.Errorf("--length: %w", err)
		}
		p, store, err := open(args[0])
		if err != nil {
			return err
		}

		r := newRunner(cfg, store, false)
		defer r.Close()
		s, err := r.FadeTo(fadeClip, fade.Edge(fadeEdge), length)
		if err != nil {
			return err
		}
		log.Info().
			Str("clip", s.ClipID).
			Str("edge", string(s.Edge)).
			Float64("fade", s.FadeDuration).
			Msg("fade set")
		return finish(cfg, p, store, fadeOut)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export commands",
}

var (
	edlTrack string
	edlFPS   string
	edlTitle string
)

var exportEDLCmd = &cobra.Command{
	Use:   "edl [project file]",
	Short: "Write a CMX 3600 edit decision list for one track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		fps := float64(cfg.Export.FrameRate)
		if edlFPS != "" {
			if fps = util.ParseFrameRate(edlFPS); fps <= 0 {
				return fmt.Errorf("--fps %q is not a frame rate", edlFPS)
			}
		}
		title := cfg.Export.Title
		if edlTitle != "" {
			title = edlTitle
		}

		p, store, err := open(args[0])
		if err != nil {
			return err
		}
		snap := store.Snapshot()
		trackID := edlTrack
		if trackID == "" && len(snap.Tracks()) > 0 {
			trackID = snap.Tracks()[0].ID
		}

		edl, err := export.GenerateEDL(snap, trackID, title, fps)
		if err != nil {
			return err
		}
		name := export.SanitizeName(p.Name, 64)
		if name == "" {
			name = "timeline"
		}
		path, err := util.WriteFile(cfg.Export.OutDir, strings.ReplaceAll(name, " ", "_")+"_"+trackID+".edl", []byte(edl))
		if err != nil {
			return err
		}
		log.Info().Str("track", trackID).Str("path", path).Msg("edl written")
		return nil
	},
}

var probeOut string

var probeCmd = &cobra.Command{
	Use:   "probe [project file]",
	Short: "Fill in missing source durations with ffprobe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := replay.LoadProject(args[0])
		if err != nil {
			return err
		}
		prober, err := media.NewProber(log.Logger)
		if err != nil {
			return err
		}
		if err := prober.FillSourceDurations(cmd.Context(), p.Clips); err != nil {
			return err
		}
		if _, err := p.Build(log.Logger); err != nil {
			return err
		}

		out := probeOut
		if out == "" {
			out = args[0]
		}
		if err := p.Save(out); err != nil {
			return err
		}
		log.Info().Str("path", out).Int("clips", len(p.Clips)).Msg("source durations recorded")
		return nil
	},
}

var guiCmd = &cobra.Command{
	Use:   "gui [project file]",
	Short: "Open a project in the timeline editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p, err := replay.LoadProject(args[0])
		if err != nil {
			return err
		}
		return gui.RunGUI(log.Logger, p, gui.Options{
			Viewport:        cfg.Viewport(),
			SnappingEnabled: cfg.Timeline.SnappingEnabled,
			Drag:            cfg.DragOptions(),
			Fade:            cfg.FadeOptions(),
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "clipdeck.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.FromContext(cmd.Context()).Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayOut, "out", "o", "", "write the edited project here instead of drawing it")
	replayCmd.Flags().BoolVar(&replayPreview, "preview", false, "draw every drag preview frame")

	dragCmd.Flags().StringVar(&dragClip, "clip", "", "clip id")
	dragCmd.Flags().StringVar(&dragTo, "to", "", "target start time (SS, MM:SS or HH:MM:SS)")
	dragCmd.Flags().StringVar(&dragTrack, "track", "", "target track id (default: the clip's track)")
	dragCmd.Flags().BoolVar(&dragAlt, "alt", false, "hold alt: invert snapping and move linked clips independently")
	dragCmd.Flags().BoolVar(&dragForce, "force", false, "force overlap; covered clips are trimmed")
	dragCmd.Flags().StringVarP(&dragOut, "out", "o", "", "write the edited project here instead of drawing it")
	_ = dragCmd.MarkFlagRequired("clip")
	_ = dragCmd.MarkFlagRequired("to")

	fadeCmd.Flags().StringVar(&fadeClip, "clip", "", "clip id")
	fadeCmd.Flags().StringVar(&fadeEdge, "edge", string(fade.EdgeLeft), "left (fade in) or right (fade out)")
	fadeCmd.Flags().StringVar(&fadeLength, "length", "", "fade length (SS, MM:SS or HH:MM:SS)")
	fadeCmd.Flags().StringVarP(&fadeOut, "out", "o", "", "write the edited project here instead of drawing it")
	_ = fadeCmd.MarkFlagRequired("clip")
	_ = fadeCmd.MarkFlagRequired("length")

	exportEDLCmd.Flags().StringVar(&edlTrack, "track", "", "track id (default: the first track)")
	exportEDLCmd.Flags().StringVar(&edlFPS, "fps", "", "frame rate, e.g. 25 or 30000/1001 (default: export.frame_rate)")
	exportEDLCmd.Flags().StringVar(&edlTitle, "title", "", "EDL title (default: export.title)")

	probeCmd.Flags().StringVarP(&probeOut, "out", "o", "", "write here instead of updating the project in place")

	exportCmd.AddCommand(exportEDLCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

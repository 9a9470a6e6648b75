package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/keagan/clipdeck/pkg/util"
)

// Info is the subset of source metadata the timeline cares about
type Info struct {
	Path     string
	Duration float64
	FPS      float64
	HasVideo bool
	HasAudio bool
}

// Prober reads source media metadata with ffprobe
type Prober struct {
	logger      zerolog.Logger
	ffprobePath string
}

// NewProber locates ffprobe on PATH
func NewProber(logger zerolog.Logger) (*Prober, error) {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &Prober{
		logger:      logger.With().Str("component", "media").Logger(),
		ffprobePath: path,
	}, nil
}

// Probe extracts metadata from a media file
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	if path == "" {
		return Info{}, fmt.Errorf("file path is required")
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	info, err := parseProbe(output)
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	info.Path = path
	p.logger.Debug().Str("path", path).Float64("duration", info.Duration).Msg("probed")
	return info, nil
}

// FillSourceDurations probes every clip whose source length is unknown and
// records it, so trims can be checked against the media. Sources are probed
// once each. Clips without a source path are left alone.
func (p *Prober) FillSourceDurations(ctx context.Context, clips []timeline.Clip) error {
	seen := map[string]Info{}
	for i := range clips {
		c := &clips[i]
		if c.SourcePath == "" || c.SourceDuration > 0 {
			continue
		}
		info, ok := seen[c.SourcePath]
		if !ok {
			var err error
			if info, err = p.Probe(ctx, c.SourcePath); err != nil {
				return fmt.Errorf("clip %s: %w", c.ID, err)
			}
			seen[c.SourcePath] = info
		}
		c.SourceDuration = info.Duration
	}
	return nil
}

// probeResult matches the ffprobe JSON fields we read
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func parseProbe(output []byte) (Info, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info Info
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.HasVideo = true
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}

package replay

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/keagan/clipdeck/internal/timeline"
)

// Project is a timeline fixture on disk
type Project struct {
	Name        string                `yaml:"name"`
	Tracks      []timeline.Track      `yaml:"tracks"`
	Clips       []timeline.Clip       `yaml:"clips"`
	Transitions []timeline.Transition `yaml:"transitions,omitempty"`
	Markers     []float64             `yaml:"markers,omitempty"`
	Playhead    float64               `yaml:"playhead,omitempty"`
	Selection   []string              `yaml:"selection,omitempty"`
}

// LoadProject reads a project fixture
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}
	return &p, nil
}

// Save writes the project as YAML
func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build loads the project into a fresh store and checks it is consistent
func (p *Project) Build(logger zerolog.Logger) (*timeline.Store, error) {
	s := timeline.NewStore(logger)
	for _, t := range p.Tracks {
		if err := s.AddTrack(t); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.Name, err)
		}
	}
	for _, c := range p.Clips {
		if _, err := s.AddClip(c); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.Name, err)
		}
	}
	for _, t := range p.Transitions {
		if err := s.AddTransition(t); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.Name, err)
		}
	}
	for _, m := range p.Markers {
		s.AddMarker(m)
	}
	s.SetPlayhead(p.Playhead)
	for _, id := range p.Selection {
		s.Selection().SelectClip(id, true, false)
	}

	if err := s.Snapshot().Validate(); err != nil {
		return nil, fmt.Errorf("project %s is inconsistent: %w", p.Name, err)
	}
	return s, nil
}

// FromSnapshot captures a timeline as a project, e.g. after a replay
func FromSnapshot(name string, snap *timeline.Snapshot, selection []string) *Project {
	return &Project{
		Name:        name,
		Tracks:      append([]timeline.Track(nil), snap.Tracks()...),
		Clips:       snap.Clips(),
		Transitions: append([]timeline.Transition(nil), snap.Transitions()...),
		Markers:     append([]float64(nil), snap.Markers()...),
		Playhead:    snap.Playhead(),
		Selection:   selection,
	}
}

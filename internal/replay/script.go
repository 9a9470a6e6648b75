package replay

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Action names one scripted pointer gesture
type Action string

const (
	ActionDown        Action = "down"
	ActionMove        Action = "move"
	ActionUp          Action = "up"
	ActionDoubleClick Action = "double-click"
	ActionFadeBegin   Action = "fade-begin"
	ActionFadeMove    Action = "fade-move"
	ActionFadeEnd     Action = "fade-end"

	// ActionDrag and ActionFade are whole gestures expressed in timeline
	// terms; the runner works out the pointer coordinates.
	ActionDrag Action = "drag"
	ActionFade Action = "fade"
)

// ErrUnknownAction is returned for a step the runner cannot play
var ErrUnknownAction = errors.New("unknown replay action")

// Step is one entry of a pointer script. X and Y are viewport pixels and At
// is the offset from the start of the script.
type Step struct {
	Action Action        `yaml:"action"`
	Clip   string        `yaml:"clip,omitempty"`
	X      float64       `yaml:"x,omitempty"`
	Y      float64       `yaml:"y,omitempty"`
	At     time.Duration `yaml:"at,omitempty"`
	Shift  bool          `yaml:"shift,omitempty"`
	Alt    bool          `yaml:"alt,omitempty"`
	Force  bool          `yaml:"force,omitempty"`
	Edge   string        `yaml:"edge,omitempty"`

	// Time and Track are the targets of drag and fade steps
	Time  float64 `yaml:"time,omitempty"`
	Track string  `yaml:"track,omitempty"`
}

// Script is an ordered list of pointer steps
type Script struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`
}

// LoadScript reads a pointer script
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript decodes a pointer script from YAML
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	for i, st := range s.Steps {
		switch st.Action {
		case ActionDown, ActionMove, ActionUp, ActionDoubleClick,
			ActionFadeBegin, ActionFadeMove, ActionFadeEnd, ActionDrag, ActionFade:
		default:
			return nil, fmt.Errorf("step %d %q: %w", i+1, st.Action, ErrUnknownAction)
		}
	}
	return &s, nil
}

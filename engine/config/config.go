// Package config holds the host's native options, loadable from YAML.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mirador-engine/mirador/engine/colors"
)

// ClearPolicy controls when the target is cleared relative to the UI pass.
type ClearPolicy string

const (
	// ClearAuto clears before the UI pass only while exactly one viewport is
	// live; with multiple viewports the early clear is skipped because it
	// does not take on some platforms (observed double-clear artifact).
	ClearAuto ClearPolicy = "auto"
	// ClearBeforeUpdate always clears before the UI pass, letting user code
	// paint between clear color and UI.
	ClearBeforeUpdate ClearPolicy = "before-update"
	// ClearAfterUpdate always clears right before painting the primitives.
	ClearAfterUpdate ClearPolicy = "after-update"
)

// Options configure the host and the root viewport.
type Options struct {
	Title         string       `yaml:"title"`
	Width         int          `yaml:"width"`  // logical points
	Height        int          `yaml:"height"` // logical points
	PositionX     *int         `yaml:"position_x"`
	PositionY     *int         `yaml:"position_y"`
	VSync         bool         `yaml:"vsync"`
	Decorations   bool         `yaml:"decorations"`
	Transparent   bool         `yaml:"transparent"`
	Multisampling int          `yaml:"multisampling"`
	ClearPolicy   ClearPolicy  `yaml:"clear_policy"`
	ClearColor    colors.Color `yaml:"clear_color"`
	IconPath      string       `yaml:"icon_path"`
}

func Default() Options {
	return Options{
		Title:       "mirador",
		Width:       1024,
		Height:      768,
		VSync:       true,
		Decorations: true,
		ClearPolicy: ClearAuto,
		ClearColor:  colors.DarkGray,
	}
}

// Load reads options from a YAML file layered over the defaults. Unknown
// keys are rejected so typos surface at startup instead of silently doing
// nothing.
func Load(path string) (Options, error) {
	opts := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read options %q: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return opts, fmt.Errorf("parse options %q: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("options %q: %w", path, err)
	}
	return opts, nil
}

func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", o.Width, o.Height)
	}
	switch o.ClearPolicy {
	case ClearAuto, ClearBeforeUpdate, ClearAfterUpdate:
	default:
		return fmt.Errorf("unknown clear_policy %q", o.ClearPolicy)
	}
	if o.Multisampling < 0 {
		return fmt.Errorf("multisampling must be >= 0, got %d", o.Multisampling)
	}
	return nil
}

package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/mirador-engine/mirador/engine/colors"
	"github.com/mirador-engine/mirador/engine/config"
	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/driver"
	glbackend "github.com/mirador-engine/mirador/engine/gfx/gl"
	"github.com/mirador-engine/mirador/engine/platform"
	"github.com/mirador-engine/mirador/engine/profiler"
	"github.com/mirador-engine/mirador/engine/ui"
)

const (
	inspectorViewport ui.ID = 2
	tooltipViewport   ui.ID = 3
)

// demo drives a root window with an animated quad, a deferred inspector
// window, and an immediate tooltip window that follows the pointer.
type demo struct {
	program *demoProgram

	showInspector bool
	showTooltip   bool
}

func (d *demo) renderRoot() {
	p := d.program
	in := p.Input()
	w := float32(in.ScreenSize[0])
	h := float32(in.ScreenSize[1])

	// Animated bar across the root window.
	p.Quad(0, h*0.45, w*p.Pulse(3), h*0.1, colors.Blue)

	if d.showInspector && p.CloseRequested(inspectorViewport) {
		d.showInspector = false
		p.DropViewport(inspectorViewport)
	}
	if d.showInspector {
		title := "inspector"
		size := [2]int{320, 240}
		p.DeferredViewport(inspectorViewport, ui.Attributes{
			Title:     &title,
			InnerSize: &size,
		}, d.renderInspector)
	}

	if d.showTooltip {
		title := "tooltip"
		size := [2]int{160, 48}
		decorations := false
		p.ImmediateViewport(tooltipViewport, ui.Attributes{
			Title:       &title,
			InnerSize:   &size,
			Decorations: &decorations,
		}, d.renderTooltip)
	}
}

func (d *demo) renderInspector() {
	p := d.program
	in := p.Input()
	p.Quad(10, 10, float32(in.ScreenSize[0]-20), 40, colors.Green)
}

func (d *demo) renderTooltip() {
	p := d.program
	in := p.Input()
	p.Quad(0, 0, float32(in.ScreenSize[0]), float32(in.ScreenSize[1]), colors.Gray)
}

func main() {
	configPath := flag.String("config", "", "path to a YAML options file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		opts = loaded
	}

	profiler.Init(1 << 10)

	plat, err := platform.New(opts, logger)
	if err != nil {
		logger.Error("platform init failed", "error", err)
		os.Exit(1)
	}
	defer plat.Terminate()

	program := newDemoProgram()
	app := &demo{program: program, showInspector: true, showTooltip: true}

	newPainter := func() (driver.Painter, error) {
		return glbackend.New(logger)
	}
	host := driver.New(opts, plat, program, app.renderRoot, newPainter, logger)
	defer host.Destroy()

	if err := core.Run(host, plat, logger); err != nil {
		logger.Error("run loop failed", "error", err)
		os.Exit(1)
	}
}

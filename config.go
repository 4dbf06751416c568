package main

import (
	"flag"
	"io"
	"strings"
	"time"

	"vk_hello_triangle/platform"
	"vk_hello_triangle/renderer"

	"github.com/cockroachdb/errors"
)

const PROGRAM_NAME = "Vulkan hello triangle"
const WINDOW_WIDTH, WINDOW_HEIGHT = 1280, 720

var VALIDATION_LAYERS = []string{
	"VK_LAYER_KHRONOS_validation",
}

// Config is everything that can be set from the command line.
type Config struct {
	Title          string
	Width, Height  int
	FramesInFlight int
	Validation     bool
	Layers         string
	VertShader     string
	FragShader     string
	FenceTimeout   time.Duration
}

// parseConfig reads the flags in args. Usage output goes to out.
func parseConfig(args []string, out io.Writer) (Config, error) {
	rc := renderer.DefaultConfig()
	var cfg Config

	fs := flag.NewFlagSet(PROGRAM_NAME, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&cfg.Title, "title", PROGRAM_NAME, "window title, also used as the Vulkan application name")
	fs.IntVar(&cfg.Width, "width", WINDOW_WIDTH, "initial window width")
	fs.IntVar(&cfg.Height, "height", WINDOW_HEIGHT, "initial window height")
	fs.IntVar(&cfg.FramesInFlight, "frames", rc.FramesInFlight, "number of frames in flight")
	fs.BoolVar(&cfg.Validation, "validation", true, "enable the validation layers")
	fs.StringVar(&cfg.Layers, "layers", strings.Join(VALIDATION_LAYERS, ","), "comma separated validation layers")
	fs.StringVar(&cfg.VertShader, "vert", rc.Shaders.Vert, "compiled SPIR-V vertex shader")
	fs.StringVar(&cfg.FragShader, "frag", rc.Shaders.Frag, "compiled SPIR-V fragment shader")
	fs.DurationVar(&cfg.FenceTimeout, "fence-timeout", 0, "how long to wait for a frame slot, 0 waits forever")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, errors.Newf("unexpected arguments %q", fs.Args())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, errors.Newf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FenceTimeout < 0 {
		return cfg, errors.Newf("negative fence timeout %s", cfg.FenceTimeout)
	}
	return cfg, cfg.rendererConfig().Validate()
}

// validationLayers is empty when validation is off.
func (c Config) validationLayers() []string {
	if !c.Validation {
		return nil
	}
	var layers []string
	for _, l := range strings.Split(c.Layers, ",") {
		if l = strings.TrimSpace(l); l != "" {
			layers = append(layers, l)
		}
	}
	return layers
}

func (c Config) windowConfig() platform.WindowConfig {
	return platform.WindowConfig{
		Title:            c.Title,
		Width:            int32(c.Width),
		Height:           int32(c.Height),
		ValidationLayers: c.validationLayers(),
	}
}

func (c Config) rendererConfig() renderer.Config {
	rc := renderer.DefaultConfig()
	rc.FramesInFlight = c.FramesInFlight
	rc.Shaders = renderer.ShaderPaths{Vert: c.VertShader, Frag: c.FragShader}
	rc.FenceTimeout = uint64(c.FenceTimeout.Nanoseconds())
	return rc
}

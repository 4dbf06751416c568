package renderer

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

const (
	DefaultFramesInFlight = 3
	MaxFramesInFlight     = 8
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid engine config")

// ShaderPaths locates the compiled SPIR-V of the triangle's two shader stages.
type ShaderPaths struct {
	Vert string
	Frag string
}

// Config is the engine side of the application config.
type Config struct {
	FramesInFlight int
	Shaders        ShaderPaths
	// FenceTimeout bounds WAIT_SLOT in nanoseconds, 0 waits forever.
	FenceTimeout uint64
	ClearColor   [4]float32
	// SurfaceFormat is tried first when selecting the chain's format.
	SurfaceFormat vk.SurfaceFormat
}

// DefaultConfig returns the settings of the plain hello triangle.
func DefaultConfig() Config {
	return Config{
		FramesInFlight: DefaultFramesInFlight,
		Shaders: ShaderPaths{
			Vert: "shaders/triangle.vert.spv",
			Frag: "shaders/triangle.frag.spv",
		},
		ClearColor:    [4]float32{0, 0, 0, 1},
		SurfaceFormat: PreferredSurfaceFormat,
	}
}

// Validate checks the frames in flight range and that both shader stages are set.
func (c Config) Validate() error {
	if c.FramesInFlight < 1 || c.FramesInFlight > MaxFramesInFlight {
		return errors.Wrapf(ErrInvalidConfig, "frames in flight %d not in [1, %d]", c.FramesInFlight, MaxFramesInFlight)
	}
	if c.Shaders.Vert == "" || c.Shaders.Frag == "" {
		return errors.Wrap(ErrInvalidConfig, "vertex and fragment shader paths are required")
	}
	return nil
}

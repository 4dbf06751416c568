package renderer

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// Build time failures. A failed Build/Rebuild leaves the chain torn down.
var (
	ErrSurfaceCreation     = errors.New("surface chain creation failed")
	ErrViewCreation        = errors.New("render target view creation failed")
	ErrFramebufferCreation = errors.New("render target framebuffer creation failed")
	ErrSlotCreation        = errors.New("frame slot creation failed")
	ErrPipelineCreation    = errors.New("pipeline creation failed")
)

// Per-cycle failures. These are fatal, the render loop is expected to stop and Close the engine.
var (
	ErrTargetAcquisition = errors.New("render target acquisition failed")
	ErrCommandRecording  = errors.New("command recording failed")
	ErrSubmission        = errors.New("command submission failed")
	ErrPresentation      = errors.New("presentation failed")
	ErrSlotWait          = errors.New("waiting for frame slot failed")
	ErrTimeout           = errors.New("timed out waiting for frame slot")
)

// Non-fatal chain conditions. They never leave DrawFrame, the scheduler only uses them to classify and log.
var (
	ErrChainStale      = errors.New("surface chain is out of date")
	ErrChainSuboptimal = errors.New("surface chain is suboptimal")
)

// stepError marks cause with kind so errors.Is(err, kind) holds, and prefixes the step that failed.
func stepError(kind error, step Step, cause error) error {
	if cause == nil {
		return errors.Wrapf(kind, "%s", step)
	}
	return errors.Wrapf(errors.Mark(cause, kind), "%s: %v", step, kind)
}

// resultError is stepError for a raw vk.Result.
func resultError(kind error, step Step, res vk.Result) error {
	cause := vk.Error(res)
	if cause == nil {
		cause = errors.Newf("vulkan result %d", res)
	}
	return stepError(kind, step, cause)
}

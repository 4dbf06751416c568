package renderer

import (
	"log"
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// Step names a stage of the engine. They show up in logs and error messages.
type Step string

const (
	StepWaitSlot      Step = "WAIT_SLOT"
	StepAcquireTarget Step = "ACQUIRE_TARGET"
	StepRecord        Step = "RECORD"
	StepSubmit        Step = "SUBMIT"
	StepPresent       Step = "PRESENT"
	StepRecover       Step = "RECOVER"
	StepDone          Step = "DONE"

	StepBuild       Step = "BUILD"
	StepCreateSlots Step = "CREATE_SLOTS"
	StepInit        Step = "INIT"
	StepClose       Step = "CLOSE"
)

// Triangle vertices are hard coded in the vertex shader.
const (
	triangleVertexCount   = 3
	triangleInstanceCount = 1
)

// FrameDevice is what a single frame cycle needs from the device.
type FrameDevice interface {
	QueueDevice
	Recorder
}

// SchedulerConfig holds the fixed objects every cycle records against.
type SchedulerConfig struct {
	RenderPass   vk.RenderPass
	Pipeline     vk.Pipeline
	Desired      vk.SurfaceFormat
	FenceTimeout uint64
	ClearColor   [4]float32
}

// Scheduler runs one present cycle per DrawFrame call:
//
//	WAIT_SLOT -> ACQUIRE_TARGET -> RECORD -> SUBMIT -> PRESENT -> DONE
//
// An out of date chain found at ACQUIRE_TARGET or PRESENT, or announced through OnResize, takes the RECOVER path,
// which waits for the device to be idle and rebuilds the SurfaceChain.
type Scheduler struct {
	dev   FrameDevice
	chain *SurfaceChain
	slots *SlotPool
	host  Host
	cfg   SchedulerConfig

	frame      uint64
	stale      bool
	suboptimal bool
	step       Step
	rebuilds   int
}

func NewScheduler(dev FrameDevice, chain *SurfaceChain, slots *SlotPool, host Host, cfg SchedulerConfig) *Scheduler {
	if cfg.FenceTimeout == 0 {
		cfg.FenceTimeout = math.MaxUint64
	}
	return &Scheduler{
		dev:   dev,
		chain: chain,
		slots: slots,
		host:  host,
		cfg:   cfg,
	}
}

// DrawFrame executes one cycle. A stale chain is recovered silently and ends the cycle early; only fatal errors
// are returned, after which the caller should stop the loop and Close.
func (s *Scheduler) DrawFrame() error {
	if s.stale || s.suboptimal {
		if err := s.recover(); err != nil {
			return err
		}
		if s.stale {
			// Still nothing to draw on, e.g. a minimized window
			return nil
		}
	}

	slotIdx := s.slots.SlotAt(s.frame)
	slot := s.slots.Slot(slotIdx)

	// Wait for the GPU to finish the last frame that used this slot
	s.step = StepWaitSlot
	switch res := s.dev.WaitForFence(slot.InFlight, s.cfg.FenceTimeout); res {
	case vk.Success:
	case vk.Timeout:
		return s.fail(stepError(ErrTimeout, s.step, errors.Newf("slot [%d] not signaled after %dns", slotIdx, s.cfg.FenceTimeout)))
	default:
		return s.fail(resultError(ErrSlotWait, s.step, res))
	}

	s.step = StepAcquireTarget
	targetIdx, res := s.dev.AcquireNextImage(s.chain.Handle, slot.ImageAcquired, math.MaxUint64)
	switch res {
	case vk.Success:
	case vk.Suboptimal:
		s.markSuboptimal()
	case vk.ErrorOutOfDate:
		log.Printf("%s: %v, recovering", s.step, ErrChainStale)
		s.stale = true
		return s.recover()
	default:
		return s.fail(resultError(ErrTargetAcquisition, s.step, res))
	}
	if int(targetIdx) >= len(s.chain.Targets) {
		return s.fail(stepError(ErrTargetAcquisition, s.step,
			errors.Newf("target index %d out of range (%d targets)", targetIdx, len(s.chain.Targets))))
	}

	// Reset the fence only now that work is guaranteed to be submitted, otherwise nothing would ever signal it
	s.step = StepRecord
	if res := s.dev.ResetFence(slot.InFlight); res != vk.Success {
		return s.fail(resultError(ErrCommandRecording, s.step, res))
	}
	if err := s.record(slot.CommandBuffer, s.chain.Targets[targetIdx].Framebuffer); err != nil {
		return s.fail(err)
	}

	s.step = StepSubmit
	res = s.dev.Submit(
		slot.CommandBuffer,
		slot.ImageAcquired,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		slot.RenderFinished,
		slot.InFlight,
	)
	if res != vk.Success {
		return s.fail(resultError(ErrSubmission, s.step, res))
	}

	s.step = StepPresent
	res = s.dev.Present(s.chain.Handle, targetIdx, slot.RenderFinished)
	s.frame++
	switch res {
	case vk.Success:
	case vk.Suboptimal:
		s.markSuboptimal()
	case vk.ErrorOutOfDate:
		log.Printf("%s: %v, recovering", s.step, ErrChainStale)
		s.stale = true
		return s.recover()
	default:
		return s.fail(resultError(ErrPresentation, s.step, res))
	}
	s.step = StepDone
	return nil
}

// OnResize marks the chain stale. The next DrawFrame recovers before it acquires a target.
func (s *Scheduler) OnResize(width, height int32) {
	log.Printf("Drawable resized to %dx%d, surface chain marked for rebuild", width, height)
	s.stale = true
}

// Frame is the frame counter. It advances once per cycle that reached PRESENT.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Step is the last step the scheduler entered.
func (s *Scheduler) Step() Step {
	return s.step
}

// Rebuilds counts successful RECOVER passes.
func (s *Scheduler) Rebuilds() int {
	return s.rebuilds
}

// NeedsRebuild reports whether a rebuild is pending for the next cycle.
func (s *Scheduler) NeedsRebuild() bool {
	return s.stale || s.suboptimal
}

func (s *Scheduler) record(cmd vk.CommandBuffer, fb vk.Framebuffer) error {
	if res := s.dev.ResetCommandBuffer(cmd); res != vk.Success {
		return resultError(ErrCommandRecording, StepRecord, res)
	}
	if res := s.dev.BeginCommandBuffer(cmd); res != vk.Success {
		return resultError(ErrCommandRecording, StepRecord, res)
	}
	extent := s.chain.Extent
	s.dev.CmdBeginRenderPass(cmd, s.cfg.RenderPass, fb, extent, s.cfg.ClearColor)
	s.dev.CmdBindPipeline(cmd, s.cfg.Pipeline)
	s.dev.CmdSetViewport(cmd, extent)
	s.dev.CmdSetScissor(cmd, extent)
	s.dev.CmdDraw(cmd, triangleVertexCount, triangleInstanceCount, 0, 0)
	s.dev.CmdEndRenderPass(cmd)
	if res := s.dev.EndCommandBuffer(cmd); res != vk.Success {
		return resultError(ErrCommandRecording, StepRecord, res)
	}
	return nil
}

// recover waits for the device to go idle and rebuilds the chain at the current drawable size. While the
// drawable is empty the chain stays stale and the rebuild is retried on the next cycle.
func (s *Scheduler) recover() error {
	s.step = StepRecover
	drawable := drawableExtent(s.host)
	if drawable.Width == 0 || drawable.Height == 0 {
		s.stale = true
		return nil
	}
	if err := s.dev.WaitIdle(); err != nil {
		return s.fail(errors.Wrapf(err, "%s: device idle", s.step))
	}
	support, err := s.chain.dev.SurfaceSupport()
	if err != nil {
		return s.fail(stepError(ErrSurfaceCreation, s.step, err))
	}
	if err := s.chain.Rebuild(support, s.cfg.Desired, drawable); err != nil {
		return s.fail(errors.Wrapf(err, "%s", s.step))
	}
	s.stale = false
	s.suboptimal = false
	s.rebuilds++
	return nil
}

func (s *Scheduler) markSuboptimal() {
	if !s.suboptimal {
		log.Printf("%s: %v, rebuilding on next cycle", s.step, ErrChainSuboptimal)
	}
	s.suboptimal = true
}

// drawableExtent is the host's drawable size, negative sizes count as 0.
func drawableExtent(host Host) vk.Extent2D {
	w, h := host.DrawableSize()
	return vk.Extent2D{Width: uint32(max(w, 0)), Height: uint32(max(h, 0))}
}

func (s *Scheduler) fail(err error) error {
	log.Printf("Fatal error in %s: %v", s.step, err)
	return err
}

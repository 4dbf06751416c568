package renderer

import (
	"log"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// ErrNotInitialized is returned by DrawFrame before a successful Init or after Close.
var ErrNotInitialized = errors.New("engine not initialized")

// Engine ties the surface chain, the frame slots and the scheduler to one device and host. It implements the
// frame handler the platform loop drives.
type Engine struct {
	dev  Device
	host Host
	cfg  Config

	format     vk.SurfaceFormat
	renderPass vk.RenderPass
	layout     vk.PipelineLayout
	pipeline   vk.Pipeline
	chain      *SurfaceChain
	slots      *SlotPool
	sched      *Scheduler

	initialized bool
}

func NewEngine(dev Device, host Host, cfg Config) *Engine {
	return &Engine{
		dev:  dev,
		host: host,
		cfg:  cfg,
	}
}

// Init creates everything the frame loop needs: render pass, surface chain, pipeline and frame slots. The steps
// run in order and the first failure stops the sequence, releasing what was already created.
func (e *Engine) Init() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	steps := []func() error{
		e.createRenderPass,
		e.buildChain,
		e.createPipeline,
		e.createSlots,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			log.Printf("Failed to initialize engine: %v", err)
			e.release()
			return err
		}
	}
	e.sched = NewScheduler(e.dev, e.chain, e.slots, e.host, SchedulerConfig{
		RenderPass:   e.renderPass,
		Pipeline:     e.pipeline,
		Desired:      e.format,
		FenceTimeout: e.cfg.FenceTimeout,
		ClearColor:   e.cfg.ClearColor,
	})
	e.initialized = true
	log.Printf("Successfully initialized engine with %d frames in flight", e.slots.Len())
	return nil
}

// DrawFrame runs one present cycle. Any returned error is fatal, the loop should stop and Close the engine.
func (e *Engine) DrawFrame() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	return e.sched.DrawFrame()
}

// OnResize marks the surface chain for a rebuild on the next cycle.
func (e *Engine) OnResize(width, height int32) {
	if e.initialized {
		e.sched.OnResize(width, height)
	}
}

// OnShutdown lets in flight frames finish, so nothing is destroyed under the GPU's feet.
func (e *Engine) OnShutdown() {
	if !e.initialized {
		return
	}
	if err := e.dev.WaitIdle(); err != nil {
		log.Printf("Failed to wait for device idle on shutdown: %v", err)
	}
}

// Close waits for the device to be idle and releases everything Init created. Calling it again does nothing.
func (e *Engine) Close() error {
	if !e.initialized {
		return nil
	}
	e.initialized = false
	var err error
	if waitErr := e.dev.WaitIdle(); waitErr != nil {
		err = errors.Wrapf(waitErr, "%s: device idle", StepClose)
	}
	e.release()
	log.Printf("Released engine after %d frames and %d surface chain rebuilds", e.sched.Frame(), e.sched.Rebuilds())
	return err
}

// Frame is the number of frames presented so far.
func (e *Engine) Frame() uint64 {
	if e.sched == nil {
		return 0
	}
	return e.sched.Frame()
}

// Rebuilds counts surface chain rebuilds.
func (e *Engine) Rebuilds() int {
	if e.sched == nil {
		return 0
	}
	return e.sched.Rebuilds()
}

func (e *Engine) createRenderPass() error {
	support, err := e.dev.SurfaceSupport()
	if err != nil {
		return stepError(ErrSurfaceCreation, StepInit, err)
	}
	if len(support.Formats) == 0 {
		return errors.Wrapf(ErrSurfaceCreation, "%s: surface offers no formats", StepInit)
	}
	// Every later Build asks for this format and refuses any other, so the pass stays compatible
	e.format = SelectSurfaceFormat(support.Formats, e.cfg.SurfaceFormat)
	renderPass, err := e.dev.CreateRenderPass(e.format.Format)
	if err != nil {
		return stepError(ErrPipelineCreation, StepInit, err)
	}
	e.renderPass = renderPass
	e.chain = NewSurfaceChain(e.dev, e.renderPass)
	e.chain.RequireFormat(e.format.Format)
	return nil
}

func (e *Engine) buildChain() error {
	support, err := e.dev.SurfaceSupport()
	if err != nil {
		return stepError(ErrSurfaceCreation, StepBuild, err)
	}
	return e.chain.Build(support, e.format, drawableExtent(e.host))
}

func (e *Engine) createPipeline() error {
	layout, pipeline, err := e.dev.CreateGraphicsPipeline(e.renderPass, e.cfg.Shaders)
	if err != nil {
		return stepError(ErrPipelineCreation, StepInit, err)
	}
	e.layout = layout
	e.pipeline = pipeline
	return nil
}

func (e *Engine) createSlots() error {
	slots, err := NewSlotPool(e.dev, e.cfg.FramesInFlight)
	if err != nil {
		return err
	}
	e.slots = slots
	return nil
}

// release destroys in reverse creation order whatever exists. The device has to be idle.
func (e *Engine) release() {
	if e.slots != nil {
		e.slots.Destroy()
		e.slots = nil
	}
	if e.pipeline != nil || e.layout != nil {
		e.dev.DestroyPipeline(e.pipeline, e.layout)
		e.pipeline = nil
		e.layout = nil
	}
	if e.chain != nil {
		e.chain.Teardown()
		e.chain = nil
	}
	if e.renderPass != nil {
		e.dev.DestroyRenderPass(e.renderPass)
		e.renderPass = nil
	}
}

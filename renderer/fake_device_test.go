package renderer

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// Fake handles point into a static arena, so they are unique, non-nil and never point into the Go heap.
var handleArena [1 << 16]byte

type fenceState struct {
	signaled bool
	pending  bool
}

// fakeDevice is an in-memory Device. It records every call, hands out unique handles, tracks which of them are
// still alive and models fences well enough to catch ordering mistakes, which it collects in violations.
type fakeDevice struct {
	next  int
	calls []string
	count map[string]int
	live  map[unsafe.Pointer]string

	support SurfaceSupport
	images  int                          // images per swapchain, 0 uses the requested MinImageCount
	failAt  map[string]int               // makes the n-th call (1-based) of an operation fail
	results map[string]map[int]vk.Result // scripts the raw vk.Result of the n-th call of an operation

	fences map[vk.Fence]*fenceState
	// cmdFence maps a command buffer to the fence of its last submission until that is observed signaled
	cmdFence map[vk.CommandBuffer]vk.Fence

	chainSize   map[vk.Swapchain]int
	acquired    uint32
	lastConfig  SwapchainConfig
	lastTimeout uint64
	draws       []drawCall
	violations  []string
}

type drawCall struct {
	vertexCount, instanceCount, firstVertex, firstInstance uint32
}

type fakeHost struct {
	width, height int32
}

func (h *fakeHost) DrawableSize() (int32, int32) {
	return h.width, h.height
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		count:     map[string]int{},
		live:      map[unsafe.Pointer]string{},
		support:   defaultSupport(),
		failAt:    map[string]int{},
		results:   map[string]map[int]vk.Result{},
		fences:    map[vk.Fence]*fenceState{},
		cmdFence:  map[vk.CommandBuffer]vk.Fence{},
		chainSize: map[vk.Swapchain]int{},
	}
}

// defaultSupport is a typical desktop surface with a fixed 800x600 extent.
func defaultSupport() SurfaceSupport {
	return SurfaceSupport{
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:    2,
			MaxImageCount:    8,
			CurrentExtent:    vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent:   vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:   vk.Extent2D{Width: 4096, Height: 4096},
			CurrentTransform: vk.SurfaceTransformIdentityBit,
		},
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			PreferredSurfaceFormat,
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
}

// script sets the result of the n-th call of op.
func (f *fakeDevice) script(op string, n int, res vk.Result) {
	if f.results[op] == nil {
		f.results[op] = map[int]vk.Result{}
	}
	f.results[op][n] = res
}

func (f *fakeDevice) record(op string) int {
	f.count[op]++
	f.calls = append(f.calls, op)
	return f.count[op]
}

func (f *fakeDevice) result(op string, n int) vk.Result {
	if res, ok := f.results[op][n]; ok {
		return res
	}
	return vk.Success
}

func (f *fakeDevice) fails(op string, n int) error {
	if f.failAt[op] == n {
		return errors.Newf("injected %s failure", op)
	}
	return nil
}

func (f *fakeDevice) handle(kind string) unsafe.Pointer {
	f.next++
	if f.next >= len(handleArena) {
		panic("fake handle arena exhausted")
	}
	p := unsafe.Pointer(&handleArena[f.next])
	f.live[p] = kind
	return p
}

func (f *fakeDevice) release(kind string, p unsafe.Pointer) {
	if got, ok := f.live[p]; !ok || got != kind {
		f.violations = append(f.violations, fmt.Sprintf("destroy of unknown %s", kind))
		return
	}
	delete(f.live, p)
}

func (f *fakeDevice) liveOf(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

// index returns the position of the n-th (1-based) call of op in the call log, or -1.
func (f *fakeDevice) index(op string, n int) int {
	seen := 0
	for i, c := range f.calls {
		if c == op {
			seen++
			if seen == n {
				return i
			}
		}
	}
	return -1
}

// ChainDevice

func (f *fakeDevice) SurfaceSupport() (SurfaceSupport, error) {
	n := f.record("SurfaceSupport")
	if err := f.fails("SurfaceSupport", n); err != nil {
		return SurfaceSupport{}, err
	}
	return f.support, nil
}

func (f *fakeDevice) CreateSwapchain(cfg SwapchainConfig) (vk.Swapchain, error) {
	n := f.record("CreateSwapchain")
	if err := f.fails("CreateSwapchain", n); err != nil {
		return nil, err
	}
	f.lastConfig = cfg
	sc := vk.Swapchain(f.handle("swapchain"))
	f.chainSize[sc] = int(cfg.MinImageCount)
	if f.images > 0 {
		f.chainSize[sc] = f.images
	}
	return sc, nil
}

func (f *fakeDevice) SwapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	n := f.record("SwapchainImages")
	if err := f.fails("SwapchainImages", n); err != nil {
		return nil, err
	}
	// Images belong to the swapchain, they are never destroyed on their own
	images := make([]vk.Image, f.chainSize[sc])
	for i := range images {
		images[i] = vk.Image(f.handle("image"))
		delete(f.live, unsafe.Pointer(images[i]))
	}
	return images, nil
}

func (f *fakeDevice) CreateImageView(img vk.Image, format vk.Format) (vk.ImageView, error) {
	n := f.record("CreateImageView")
	if err := f.fails("CreateImageView", n); err != nil {
		return nil, err
	}
	return vk.ImageView(f.handle("view")), nil
}

func (f *fakeDevice) CreateFramebuffer(renderPass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	n := f.record("CreateFramebuffer")
	if err := f.fails("CreateFramebuffer", n); err != nil {
		return nil, err
	}
	if _, ok := f.live[unsafe.Pointer(view)]; !ok {
		f.violations = append(f.violations, "framebuffer on dead view")
	}
	return vk.Framebuffer(f.handle("framebuffer")), nil
}

func (f *fakeDevice) DestroyFramebuffer(fb vk.Framebuffer) {
	f.record("DestroyFramebuffer")
	f.release("framebuffer", unsafe.Pointer(fb))
}

func (f *fakeDevice) DestroyImageView(view vk.ImageView) {
	f.record("DestroyImageView")
	f.release("view", unsafe.Pointer(view))
}

func (f *fakeDevice) DestroySwapchain(sc vk.Swapchain) {
	f.record("DestroySwapchain")
	f.release("swapchain", unsafe.Pointer(sc))
}

// SlotDevice

func (f *fakeDevice) AllocateCommandBuffers(count int) ([]vk.CommandBuffer, error) {
	n := f.record("AllocateCommandBuffers")
	if err := f.fails("AllocateCommandBuffers", n); err != nil {
		return nil, err
	}
	buffers := make([]vk.CommandBuffer, count)
	for i := range buffers {
		buffers[i] = vk.CommandBuffer(f.handle("cmd"))
	}
	return buffers, nil
}

func (f *fakeDevice) FreeCommandBuffers(buffers []vk.CommandBuffer) {
	f.record("FreeCommandBuffers")
	for i := range buffers {
		f.release("cmd", unsafe.Pointer(buffers[i]))
	}
}

func (f *fakeDevice) CreateSemaphore() (vk.Semaphore, error) {
	n := f.record("CreateSemaphore")
	if err := f.fails("CreateSemaphore", n); err != nil {
		return nil, err
	}
	return vk.Semaphore(f.handle("semaphore")), nil
}

func (f *fakeDevice) DestroySemaphore(sem vk.Semaphore) {
	f.record("DestroySemaphore")
	f.release("semaphore", unsafe.Pointer(sem))
}

func (f *fakeDevice) CreateFence(signaled bool) (vk.Fence, error) {
	n := f.record("CreateFence")
	if err := f.fails("CreateFence", n); err != nil {
		return nil, err
	}
	fence := vk.Fence(f.handle("fence"))
	f.fences[fence] = &fenceState{signaled: signaled}
	return fence, nil
}

func (f *fakeDevice) DestroyFence(fence vk.Fence) {
	f.record("DestroyFence")
	if st := f.fences[fence]; st != nil && st.pending {
		f.violations = append(f.violations, "destroy of pending fence")
	}
	delete(f.fences, fence)
	f.release("fence", unsafe.Pointer(fence))
}

// QueueDevice

func (f *fakeDevice) WaitIdle() error {
	n := f.record("WaitIdle")
	if err := f.fails("WaitIdle", n); err != nil {
		return err
	}
	for fence, st := range f.fences {
		if st.pending {
			f.signal(fence)
		}
	}
	return nil
}

// signal completes the work submitted with fence.
func (f *fakeDevice) signal(fence vk.Fence) {
	st := f.fences[fence]
	st.pending = false
	st.signaled = true
	for cmd, fc := range f.cmdFence {
		if fc == fence {
			delete(f.cmdFence, cmd)
		}
	}
}

func (f *fakeDevice) WaitForFence(fence vk.Fence, timeout uint64) vk.Result {
	n := f.record("WaitForFence")
	f.lastTimeout = timeout
	if res := f.result("WaitForFence", n); res != vk.Success {
		return res
	}
	st := f.fences[fence]
	switch {
	case st == nil:
		f.violations = append(f.violations, "wait on unknown fence")
		return vk.ErrorDeviceLost
	case st.pending:
		f.signal(fence)
	case !st.signaled:
		f.violations = append(f.violations, "wait on a fence nothing will signal")
		return vk.Timeout
	}
	return vk.Success
}

func (f *fakeDevice) ResetFence(fence vk.Fence) vk.Result {
	n := f.record("ResetFence")
	if res := f.result("ResetFence", n); res != vk.Success {
		return res
	}
	st := f.fences[fence]
	if st == nil || st.pending {
		f.violations = append(f.violations, "reset of pending fence")
		return vk.Success
	}
	st.signaled = false
	return vk.Success
}

func (f *fakeDevice) AcquireNextImage(sc vk.Swapchain, imageAcquired vk.Semaphore, timeout uint64) (uint32, vk.Result) {
	n := f.record("AcquireNextImage")
	if _, ok := f.live[unsafe.Pointer(sc)]; !ok {
		f.violations = append(f.violations, "acquire on dead swapchain")
	}
	res := f.result("AcquireNextImage", n)
	if res != vk.Success && res != vk.Suboptimal {
		return 0, res
	}
	idx := f.acquired % uint32(max(f.chainSize[sc], 1))
	f.acquired++
	return idx, res
}

func (f *fakeDevice) Submit(cmd vk.CommandBuffer, wait vk.Semaphore, waitStage vk.PipelineStageFlags, signal vk.Semaphore, fence vk.Fence) vk.Result {
	n := f.record("Submit")
	if res := f.result("Submit", n); res != vk.Success {
		return res
	}
	st := f.fences[fence]
	if st == nil || st.signaled || st.pending {
		f.violations = append(f.violations, "submit with a fence that was not reset")
	} else {
		st.pending = true
	}
	f.cmdFence[cmd] = fence
	return vk.Success
}

func (f *fakeDevice) Present(sc vk.Swapchain, imageIdx uint32, wait vk.Semaphore) vk.Result {
	n := f.record("Present")
	return f.result("Present", n)
}

// Recorder

func (f *fakeDevice) ResetCommandBuffer(cmd vk.CommandBuffer) vk.Result {
	n := f.record("ResetCommandBuffer")
	if _, inFlight := f.cmdFence[cmd]; inFlight {
		f.violations = append(f.violations, "reset of a command buffer still in flight")
	}
	return f.result("ResetCommandBuffer", n)
}

func (f *fakeDevice) BeginCommandBuffer(cmd vk.CommandBuffer) vk.Result {
	n := f.record("BeginCommandBuffer")
	return f.result("BeginCommandBuffer", n)
}

func (f *fakeDevice) CmdBeginRenderPass(cmd vk.CommandBuffer, renderPass vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clearColor [4]float32) {
	f.record("CmdBeginRenderPass")
	if _, ok := f.live[unsafe.Pointer(fb)]; !ok {
		f.violations = append(f.violations, "render pass on dead framebuffer")
	}
}

func (f *fakeDevice) CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline) {
	f.record("CmdBindPipeline")
}

func (f *fakeDevice) CmdSetViewport(cmd vk.CommandBuffer, extent vk.Extent2D) {
	f.record("CmdSetViewport")
}

func (f *fakeDevice) CmdSetScissor(cmd vk.CommandBuffer, extent vk.Extent2D) {
	f.record("CmdSetScissor")
}

func (f *fakeDevice) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.record("CmdDraw")
	f.draws = append(f.draws, drawCall{vertexCount, instanceCount, firstVertex, firstInstance})
}

func (f *fakeDevice) CmdEndRenderPass(cmd vk.CommandBuffer) {
	f.record("CmdEndRenderPass")
}

func (f *fakeDevice) EndCommandBuffer(cmd vk.CommandBuffer) vk.Result {
	n := f.record("EndCommandBuffer")
	return f.result("EndCommandBuffer", n)
}

// PipelineDevice

func (f *fakeDevice) CreateRenderPass(format vk.Format) (vk.RenderPass, error) {
	n := f.record("CreateRenderPass")
	if err := f.fails("CreateRenderPass", n); err != nil {
		return nil, err
	}
	return vk.RenderPass(f.handle("renderpass")), nil
}

func (f *fakeDevice) CreateGraphicsPipeline(renderPass vk.RenderPass, shaders ShaderPaths) (vk.PipelineLayout, vk.Pipeline, error) {
	n := f.record("CreateGraphicsPipeline")
	if err := f.fails("CreateGraphicsPipeline", n); err != nil {
		return nil, nil, err
	}
	return vk.PipelineLayout(f.handle("layout")), vk.Pipeline(f.handle("pipeline")), nil
}

func (f *fakeDevice) DestroyPipeline(pipeline vk.Pipeline, layout vk.PipelineLayout) {
	f.record("DestroyPipeline")
	f.release("pipeline", unsafe.Pointer(pipeline))
	f.release("layout", unsafe.Pointer(layout))
}

func (f *fakeDevice) DestroyRenderPass(renderPass vk.RenderPass) {
	f.record("DestroyRenderPass")
	f.release("renderpass", unsafe.Pointer(renderPass))
}

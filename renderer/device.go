package renderer

import (
	vk "github.com/goki/vulkan"
)

// The presentation engine does not talk to Vulkan directly. It consumes the narrow sets of device operations
// below, which VulkanDevice implements on top of the goki/vulkan bindings. Keeping them as interfaces allows to
// drive the engine against a recording fake in tests, without a GPU or a window.

// SurfaceSupport is the result of the capability query on a presentable surface.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapchainConfig is everything needed to create the swapchain handle of a SurfaceChain.
type SwapchainConfig struct {
	MinImageCount uint32
	Format        vk.SurfaceFormat
	PresentMode   vk.PresentMode
	Extent        vk.Extent2D
	PreTransform  vk.SurfaceTransformFlagBits
}

// ChainDevice creates and releases the resources owned by a SurfaceChain.
type ChainDevice interface {
	SurfaceSupport() (SurfaceSupport, error)
	CreateSwapchain(cfg SwapchainConfig) (vk.Swapchain, error)
	SwapchainImages(sc vk.Swapchain) ([]vk.Image, error)
	CreateImageView(img vk.Image, format vk.Format) (vk.ImageView, error)
	CreateFramebuffer(renderPass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error)
	DestroyFramebuffer(fb vk.Framebuffer)
	DestroyImageView(view vk.ImageView)
	DestroySwapchain(sc vk.Swapchain)
}

// SlotDevice creates and releases the resources owned by a SlotPool.
type SlotDevice interface {
	AllocateCommandBuffers(count int) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(buffers []vk.CommandBuffer)
	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(sem vk.Semaphore)
	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(fence vk.Fence)
}

// QueueDevice holds the blocking and queue level operations of a frame cycle. Results are returned raw, since
// vk.ErrorOutOfDate and vk.Suboptimal are part of the normal control flow.
type QueueDevice interface {
	WaitIdle() error
	WaitForFence(fence vk.Fence, timeout uint64) vk.Result
	ResetFence(fence vk.Fence) vk.Result
	AcquireNextImage(sc vk.Swapchain, imageAcquired vk.Semaphore, timeout uint64) (uint32, vk.Result)
	Submit(cmd vk.CommandBuffer, wait vk.Semaphore, waitStage vk.PipelineStageFlags, signal vk.Semaphore, fence vk.Fence) vk.Result
	Present(sc vk.Swapchain, imageIdx uint32, wait vk.Semaphore) vk.Result
}

// Recorder records the commands of a single frame.
type Recorder interface {
	ResetCommandBuffer(cmd vk.CommandBuffer) vk.Result
	BeginCommandBuffer(cmd vk.CommandBuffer) vk.Result
	CmdBeginRenderPass(cmd vk.CommandBuffer, renderPass vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clearColor [4]float32)
	CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline)
	CmdSetViewport(cmd vk.CommandBuffer, extent vk.Extent2D)
	CmdSetScissor(cmd vk.CommandBuffer, extent vk.Extent2D)
	CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdEndRenderPass(cmd vk.CommandBuffer)
	EndCommandBuffer(cmd vk.CommandBuffer) vk.Result
}

// PipelineDevice creates the fixed render pass and graphics pipeline of the triangle.
type PipelineDevice interface {
	CreateRenderPass(format vk.Format) (vk.RenderPass, error)
	CreateGraphicsPipeline(renderPass vk.RenderPass, shaders ShaderPaths) (vk.PipelineLayout, vk.Pipeline, error)
	DestroyPipeline(pipeline vk.Pipeline, layout vk.PipelineLayout)
	DestroyRenderPass(renderPass vk.RenderPass)
}

// Device is the full set of GPU services the Engine needs.
type Device interface {
	ChainDevice
	SlotDevice
	QueueDevice
	Recorder
	PipelineDevice
}

// Host is the window side collaborator. DrawableSize reports the drawable area in pixels, which may differ from
// the window size on high-DPI displays.
type Host interface {
	DrawableSize() (width, height int32)
}

package renderer

import (
	"log"

	"vk_hello_triangle/common"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// VulkanDevice implements Device on top of the goki/vulkan bindings. It owns the command pool the frame slots
// allocate from, everything else it creates is owned by the caller.
type VulkanDevice struct {
	physical  vk.PhysicalDevice
	device    vk.Device
	surface   vk.Surface
	graphicsQ vk.Queue
	presentQ  vk.Queue
	families  common.QueueFamilyIndices

	commandPool vk.CommandPool
}

var _ Device = (*VulkanDevice)(nil)

// NewVulkanDevice wraps dc for rendering to surface and creates the command pool on the graphics family.
func NewVulkanDevice(dc *common.Device, surface vk.Surface) (*VulkanDevice, error) {
	if !dc.QFamilies.IsAllQueuesFound() {
		return nil, errors.New("device has no graphics and present queue family")
	}
	d := &VulkanDevice{
		physical:  dc.PhysicalDevice,
		device:    dc.Device,
		surface:   surface,
		graphicsQ: dc.GraphicsQ,
		presentQ:  dc.PresentQ,
		families:  dc.QFamilies,
	}
	// Buffers are reset individually every time their slot comes around again
	commandPool, err := common.VKSCreateCommandPool(
		d.device,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		*d.families.GraphicsFamily,
	)
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	log.Printf("Successfully created command pool")
	d.commandPool = commandPool
	return d, nil
}

// Destroy releases the command pool. Command buffers allocated from it are freed implicitly.
func (d *VulkanDevice) Destroy() {
	if d.commandPool != nil {
		vk.DestroyCommandPool(d.device, d.commandPool, nil)
		d.commandPool = nil
	}
}

// Surface chain

func (d *VulkanDevice) SurfaceSupport() (SurfaceSupport, error) {
	caps, err := common.ReadSurfaceCapabilities(d.physical, d.surface)
	if err != nil {
		return SurfaceSupport{}, err
	}
	formats, err := common.ReadSurfaceFormats(d.physical, d.surface)
	if err != nil {
		return SurfaceSupport{}, err
	}
	modes, err := common.ReadSurfacePresentModes(d.physical, d.surface)
	if err != nil {
		return SurfaceSupport{}, err
	}
	return SurfaceSupport{Capabilities: caps, Formats: formats, PresentModes: modes}, nil
}

func (d *VulkanDevice) CreateSwapchain(cfg SwapchainConfig) (vk.Swapchain, error) {
	// Depending on whether our queue families are the same for graphics and presentation, we need to choose different
	// swap chain configurations: https://vulkan-tutorial.com/Drawing_a_triangle/Presentation/Swap_chain
	sharingMode := vk.SharingModeExclusive
	var qFamIndices []uint32
	if !d.families.IsShared() {
		sharingMode = vk.SharingModeConcurrent
		qFamIndices = d.families.UniqueIndices()
	}
	createInfo := &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               d.surface,
		MinImageCount:         cfg.MinImageCount,
		ImageFormat:           cfg.Format.Format,
		ImageColorSpace:       cfg.Format.ColorSpace,
		ImageExtent:           cfg.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(qFamIndices)),
		PQueueFamilyIndices:   qFamIndices,
		PreTransform:          cfg.PreTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           cfg.PresentMode,
		Clipped:               vk.True,
		// The previous chain is always torn down before, there is nothing to hand over
		OldSwapchain: nil,
	}
	return common.VkCreateSwapChain(d.device, createInfo)
}

func (d *VulkanDevice) SwapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	return common.ReadSwapChainImages(d.device, sc)
}

func (d *VulkanDevice) CreateImageView(img vk.Image, format vk.Format) (vk.ImageView, error) {
	return common.VKSCreate2DColorImageView(d.device, img, format)
}

func (d *VulkanDevice) CreateFramebuffer(renderPass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	return common.VkCreateFrameBuffer(d.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	})
}

func (d *VulkanDevice) DestroyFramebuffer(fb vk.Framebuffer) {
	vk.DestroyFramebuffer(d.device, fb, nil)
}

func (d *VulkanDevice) DestroyImageView(view vk.ImageView) {
	vk.DestroyImageView(d.device, view, nil)
}

func (d *VulkanDevice) DestroySwapchain(sc vk.Swapchain) {
	vk.DestroySwapchain(d.device, sc, nil)
}

// Frame slots

func (d *VulkanDevice) AllocateCommandBuffers(count int) ([]vk.CommandBuffer, error) {
	return common.VKSAllocatePrimaryCommandBuffers(d.device, d.commandPool, uint32(count))
}

func (d *VulkanDevice) FreeCommandBuffers(buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(buffers)), buffers)
}

func (d *VulkanDevice) CreateSemaphore() (vk.Semaphore, error) {
	return common.VKSCreateSemaphore(d.device)
}

func (d *VulkanDevice) DestroySemaphore(sem vk.Semaphore) {
	vk.DestroySemaphore(d.device, sem, nil)
}

func (d *VulkanDevice) CreateFence(signaled bool) (vk.Fence, error) {
	return common.VKSCreateFence(d.device, signaled)
}

func (d *VulkanDevice) DestroyFence(fence vk.Fence) {
	vk.DestroyFence(d.device, fence, nil)
}

// Queue

func (d *VulkanDevice) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.device))
}

func (d *VulkanDevice) WaitForFence(fence vk.Fence, timeout uint64) vk.Result {
	return vk.WaitForFences(d.device, 1, []vk.Fence{fence}, vk.True, timeout)
}

func (d *VulkanDevice) ResetFence(fence vk.Fence) vk.Result {
	return vk.ResetFences(d.device, 1, []vk.Fence{fence})
}

func (d *VulkanDevice) AcquireNextImage(sc vk.Swapchain, imageAcquired vk.Semaphore, timeout uint64) (uint32, vk.Result) {
	var imgIdx uint32
	res := vk.AcquireNextImage(d.device, sc, timeout, imageAcquired, nil, &imgIdx)
	return imgIdx, res
}

func (d *VulkanDevice) Submit(cmd vk.CommandBuffer, wait vk.Semaphore, waitStage vk.PipelineStageFlags, signal vk.Semaphore, fence vk.Fence) vk.Result {
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{waitStage},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
	}
	return vk.QueueSubmit(d.graphicsQ, 1, []vk.SubmitInfo{submitInfo}, fence)
}

func (d *VulkanDevice) Present(sc vk.Swapchain, imageIdx uint32, wait vk.Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc},
		PImageIndices:      []uint32{imageIdx},
	}
	return vk.QueuePresent(d.presentQ, &presentInfo)
}

// Recording

func (d *VulkanDevice) ResetCommandBuffer(cmd vk.CommandBuffer) vk.Result {
	return vk.ResetCommandBuffer(cmd, 0)
}

func (d *VulkanDevice) BeginCommandBuffer(cmd vk.CommandBuffer) vk.Result {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return vk.BeginCommandBuffer(cmd, &beginInfo)
}

func (d *VulkanDevice) CmdBeginRenderPass(cmd vk.CommandBuffer, renderPass vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clearColor [4]float32) {
	clearValues := []vk.ClearValue{
		vk.NewClearValue(clearColor[:]),
	}
	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cmd, &renderPassInfo, vk.SubpassContentsInline)
}

func (d *VulkanDevice) CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipeline)
}

func (d *VulkanDevice) CmdSetViewport(cmd vk.CommandBuffer, extent vk.Extent2D) {
	viewport := []vk.Viewport{
		{
			X:        0,
			Y:        0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1.0,
		},
	}
	vk.CmdSetViewport(cmd, 0, 1, viewport)
}

func (d *VulkanDevice) CmdSetScissor(cmd vk.CommandBuffer, extent vk.Extent2D) {
	scissor := []vk.Rect2D{
		{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
	}
	vk.CmdSetScissor(cmd, 0, 1, scissor)
}

func (d *VulkanDevice) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cmd, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *VulkanDevice) CmdEndRenderPass(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

func (d *VulkanDevice) EndCommandBuffer(cmd vk.CommandBuffer) vk.Result {
	return vk.EndCommandBuffer(cmd)
}

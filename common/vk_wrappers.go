package common

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// Utility functions wrapping the raw go bindings to provide a more go-lang style interface: handles are returned
// instead of written through out-pointers and results become errors. Custom allocators are never used, so the
// allocator argument is always nil. Beyond that the calls are passed through unchanged.

func VkCreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error) {
	var in vk.Instance
	if err := vk.Error(vk.CreateInstance(info, nil, &in)); err != nil {
		return nil, err
	}
	// Loads the instance level function pointers
	if err := vk.InitInstance(in); err != nil {
		return nil, err
	}
	return in, nil
}

func VkCreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	var d vk.Device
	res := vk.CreateDevice(pd, info, nil, &d)
	return d, vk.Error(res)
}

func VkGetDeviceQueue(device vk.Device, queueFamilyIndex *uint32) (vk.Queue, error) {
	if queueFamilyIndex == nil {
		return nil, errors.New("QueueFamily index was nil")
	}
	var q vk.Queue
	vk.GetDeviceQueue(device, *queueFamilyIndex, 0, &q)
	return q, nil
}

func VkCreateSwapChain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var sc vk.Swapchain
	res := vk.CreateSwapchain(device, info, nil, &sc)
	return sc, vk.Error(res)
}

func VkCreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var iv vk.ImageView
	res := vk.CreateImageView(device, info, nil, &iv)
	return iv, vk.Error(res)
}

func VkCreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var rp vk.RenderPass
	res := vk.CreateRenderPass(device, info, nil, &rp)
	return rp, vk.Error(res)
}

func VkCreateFrameBuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var fb vk.Framebuffer
	res := vk.CreateFramebuffer(device, info, nil, &fb)
	return fb, vk.Error(res)
}

func VkCreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var pl vk.PipelineLayout
	res := vk.CreatePipelineLayout(device, info, nil, &pl)
	return pl, vk.Error(res)
}

// VkCreateGraphicsPipeline creates exactly one pipeline without a pipeline cache.
func VkCreateGraphicsPipeline(device vk.Device, info vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(device, nil, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	return pipelines[0], vk.Error(res)
}

func VkCreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	var sm vk.ShaderModule
	res := vk.CreateShaderModule(device, info, nil, &sm)
	return sm, vk.Error(res)
}

func VkCreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	var cp vk.CommandPool
	res := vk.CreateCommandPool(device, info, nil, &cp)
	return cp, vk.Error(res)
}

func VkAllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	if err := vk.Error(vk.AllocateCommandBuffers(device, info, buffers)); err != nil {
		return nil, err
	}
	return buffers, nil
}

func VkCreateSemaphore(device vk.Device, info *vk.SemaphoreCreateInfo) (vk.Semaphore, error) {
	var s vk.Semaphore
	res := vk.CreateSemaphore(device, info, nil, &s)
	return s, vk.Error(res)
}

func VkCreateFence(device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, error) {
	var f vk.Fence
	res := vk.CreateFence(device, info, nil, &f)
	return f, vk.Error(res)
}

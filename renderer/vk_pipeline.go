package renderer

import (
	"log"

	"vk_hello_triangle/common"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// CreateRenderPass creates the single subpass render pass: one color attachment, cleared on load and left in the
// present layout. The external dependency makes the layout transition wait for the acquire semaphore.
func (d *VulkanDevice) CreateRenderPass(format vk.Format) (vk.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	colorAttachmentRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorAttachmentRef},
	}
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}
	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	renderPass, err := common.VkCreateRenderPass(d.device, &renderPassInfo)
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	log.Println("Successfully created render pass")
	return renderPass, nil
}

// CreateGraphicsPipeline creates the fixed triangle pipeline. There is no vertex input, the vertices are hard coded
// in the vertex shader. Viewport and scissor are dynamic, so the pipeline survives a surface chain rebuild.
func (d *VulkanDevice) CreateGraphicsPipeline(renderPass vk.RenderPass, shaders ShaderPaths) (vk.PipelineLayout, vk.Pipeline, error) {
	// Shader module deletion can be done right after pipeline creation
	vertShaderMod, err := LoadShaderModule(d.device, shaders.Vert)
	if err != nil {
		return nil, nil, err
	}
	defer vk.DestroyShaderModule(d.device, vertShaderMod, nil)
	fragShaderMod, err := LoadShaderModule(d.device, shaders.Frag)
	if err != nil {
		return nil, nil, err
	}
	defer vk.DestroyShaderModule(d.device, fragShaderMod, nil)
	shaderStages := []vk.PipelineShaderStageCreateInfo{
		shaderStage(vk.ShaderStageVertexBit, vertShaderMod),
		shaderStage(vk.ShaderStageFragmentBit, fragShaderMod),
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	inputAssemblyInfo := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}
	// Counts only, the actual viewport and scissor are set while recording
	viewportStateInfo := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizerInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}
	multisamplingInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}
	colorBlendAttachmentInfo := vk.PipelineColorBlendAttachmentState{
		BlendEnable:    vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlendingInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentInfo},
	}

	// No descriptors and no push constants, the layout is empty
	layout, err := common.VkCreatePipelineLayout(d.device, &vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create pipeline layout")
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssemblyInfo,
		PViewportState:      &viewportStateInfo,
		PRasterizationState: &rasterizerInfo,
		PMultisampleState:   &multisamplingInfo,
		PColorBlendState:    &colorBlendingInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              layout,
		RenderPass:          renderPass,
		Subpass:             0,
		BasePipelineIndex:   -1,
	}
	pipeline, err := common.VkCreateGraphicsPipeline(d.device, pipelineInfo)
	if err != nil {
		vk.DestroyPipelineLayout(d.device, layout, nil)
		return nil, nil, errors.Wrap(err, "create graphics pipeline")
	}
	log.Printf("Successfully created graphics pipeline")
	return layout, pipeline, nil
}

func (d *VulkanDevice) DestroyPipeline(pipeline vk.Pipeline, layout vk.PipelineLayout) {
	if pipeline != nil {
		vk.DestroyPipeline(d.device, pipeline, nil)
	}
	if layout != nil {
		vk.DestroyPipelineLayout(d.device, layout, nil)
	}
}

func (d *VulkanDevice) DestroyRenderPass(renderPass vk.RenderPass) {
	vk.DestroyRenderPass(d.device, renderPass, nil)
}

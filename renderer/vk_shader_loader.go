package renderer

import (
	"log"
	"os"

	"vk_hello_triangle/common"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// LoadShaderModule reads a '.spv' file and creates a shader module from it. The module is only a container to move
// the shader code onto the device, it can be destroyed right after the pipeline using it was created.
func LoadShaderModule(d vk.Device, path string) (vk.ShaderModule, error) {
	code, err := ReadSPIRV(path)
	if err != nil {
		return nil, err
	}
	createInfo := &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
	module, err := common.VkCreateShaderModule(d, createInfo)
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module '%s'", path)
	}
	log.Printf("Created shader module from %s", path)
	return module, nil
}

// ReadSPIRV reads a '.spv' file into the words vk.ShaderModuleCreateInfo expects. Files that are not a multiple of
// 4 bytes long or do not start with the SPIR-V magic number are rejected.
func ReadSPIRV(path string) ([]uint32, error) {
	shaderCodeB, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader file '%s'", path)
	}
	log.Printf("Read shader file (%s) of size: %dByte", path, len(shaderCodeB))
	if len(shaderCodeB) == 0 || len(shaderCodeB)%4 != 0 {
		return nil, errors.Newf("shader file '%s' has invalid size %d", path, len(shaderCodeB))
	}
	code := common.AsUint32Arr(shaderCodeB)
	if code[0] != spirvMagic {
		return nil, errors.Newf("shader file '%s' is not SPIR-V (magic %#08x)", path, code[0])
	}
	return code, nil
}

func shaderStage(stage vk.ShaderStageFlagBits, module vk.ShaderModule) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  "main\x00", // entrypoint -> function name in the shader
	}
}

package common

import (
	"log"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

const ENGINE_NAME = "No Engine"
const ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH = 1, 0, 0

// Vulkan spec go bindings = v1.0.7, as per: https://github.com/goki/vulkan = 1.3.239. The triangle only needs 1.0.
const VK_API_MAJOR, VK_API_MINOR, VK_API_PATCH = 1, 0, 0

// ErrUnsupported marks a missing instance extension or validation layer.
var ErrUnsupported = errors.New("not supported by the vulkan implementation")

// NewInstance creates the Vulkan instance after checking that every required extension and every requested
// validation layer is available. The global function pointers have to be loaded before, see vk.Init.
func NewInstance(appName string, requiredExtensions []string, validationLayers []string) (vk.Instance, error) {
	if err := checkInstanceExtensionSupport(requiredExtensions); err != nil {
		return nil, err
	}
	if len(validationLayers) > 0 {
		log.Printf("Validation enabled, checking layer support")
		if err := checkValidationLayerSupport(validationLayers); err != nil {
			return nil, err
		}
	}
	applicationInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   TerminatedStr(appName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        TerminatedStr(ENGINE_NAME),
		EngineVersion:      vk.MakeVersion(ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH),
		ApiVersion:         vk.MakeVersion(VK_API_MAJOR, VK_API_MINOR, VK_API_PATCH),
	}
	createInfo := &vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        applicationInfo,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: TerminatedStrs(requiredExtensions),
	}
	if len(validationLayers) > 0 {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = TerminatedStrs(validationLayers)
	}
	ins, err := VkCreateInstance(createInfo)
	if err != nil {
		return nil, errors.Wrap(err, "create vk instance")
	}
	log.Printf("Successfully created vk instance for \"%s\"", appName)
	return ins, nil
}

func checkInstanceExtensionSupport(requiredInstanceExt []string) error {
	supportedExtNames, err := ReadInstanceExtensionPropertyNames()
	if err != nil {
		return err
	}
	log.Printf("Required instance extensions: %v", requiredInstanceExt)
	log.Printf("Available extensions (%d): %v", len(supportedExtNames), supportedExtNames)

	if missing := Missing(requiredInstanceExt, supportedExtNames); len(missing) > 0 {
		return errors.Wrapf(ErrUnsupported, "instance extensions %v", missing)
	}
	log.Println("Success - All required instance extensions are supported")
	return nil
}

func checkValidationLayerSupport(requiredLayers []string) error {
	supportedLayerNames, err := ReadInstanceLayerPropertyNames()
	if err != nil {
		return err
	}
	log.Printf("Desired validation layers: %v", requiredLayers)
	log.Printf("Supported layers (%d): %v", len(supportedLayerNames), supportedLayerNames)

	if missing := Missing(requiredLayers, supportedLayerNames); len(missing) > 0 {
		return errors.Wrapf(ErrUnsupported, "validation layers %v", missing)
	}
	log.Println("Success - All desired validation layers are supported")
	return nil
}

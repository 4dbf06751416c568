package common

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// Read functions wrap the two-call enumeration pattern of the raw bindings (query count, then query data) and
// dereference the returned structs, so the values are usable from Go right away.

// ReadInstanceExtensionPropertyNames returns the names of all supported instance extensions.
func ReadInstanceExtensionPropertyNames() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of InstanceExtensionProperties")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, errors.Wrapf(err, "read %d InstanceExtensionProperties", count)
	}
	names := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		names[i] = vk.ToString(props[i].ExtensionName[:])
	}
	return names, nil
}

// ReadInstanceLayerPropertyNames returns the names of all available instance (validation) layers.
func ReadInstanceLayerPropertyNames() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of InstanceLayerProperties")
	}
	layers := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return nil, errors.Wrapf(err, "read %d InstanceLayerProperties", count)
	}
	names := make([]string, len(layers))
	for i := range layers {
		layers[i].Deref()
		names[i] = vk.ToString(layers[i].LayerName[:])
	}
	return names, nil
}

func ReadPhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var gpuCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of PhysicalDevices")
	}
	if gpuCount == 0 {
		return nil, errors.New("there are 0 physical devices available")
	}
	physDevices := make([]vk.PhysicalDevice, gpuCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, physDevices)); err != nil {
		return nil, errors.Wrapf(err, "read %d PhysicalDevices", gpuCount)
	}
	return physDevices, nil
}

func ReadPhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var pdProps vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &pdProps)
	pdProps.Deref()
	return pdProps
}

func ReadQueueFamilies(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	qFamilyProps := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, qFamilyProps)
	for i := range qFamilyProps {
		qFamilyProps[i].Deref()
	}
	return qFamilyProps
}

// ReadDeviceExtensionPropertyNames returns the names of all extensions pd supports.
func ReadDeviceExtensionPropertyNames(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of DeviceExtensionProperties")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, props)); err != nil {
		return nil, errors.Wrapf(err, "read %d DeviceExtensionProperties", count)
	}
	names := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		names[i] = vk.ToString(props[i].ExtensionName[:])
	}
	return names, nil
}

// ReadSurfaceCapabilities returns the capabilities of surface on pd, with all nested extents dereferenced.
func ReadSurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &caps)); err != nil {
		return caps, errors.Wrap(err, "read SurfaceCapabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func ReadSurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of SurfaceFormats")
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, formats)); err != nil {
		return nil, errors.Wrapf(err, "read %d SurfaceFormats", count)
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func ReadSurfacePresentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of PresentModes")
	}
	modes := make([]vk.PresentMode, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, modes)); err != nil {
		return nil, errors.Wrapf(err, "read %d PresentModes", count)
	}
	return modes, nil
}

func ReadSwapChainImages(device vk.Device, swapChain vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	if err := vk.Error(vk.GetSwapchainImages(device, swapChain, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of swapchain images")
	}
	imgs := make([]vk.Image, count)
	if err := vk.Error(vk.GetSwapchainImages(device, swapChain, &count, imgs)); err != nil {
		return nil, errors.Wrapf(err, "read %d swapchain images", count)
	}
	return imgs, nil
}

func ReadPhysicalDeviceFeatures(pd vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var pdFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &pdFeatures)
	pdFeatures.Deref()
	return pdFeatures
}

func ReadDeviceMemoryProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryHeapCount; i++ {
		memProps.MemoryHeaps[i].Deref()
	}
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
	}
	return memProps
}

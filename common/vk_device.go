package common

import (
	"log"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// DeviceExtensions are required on every physical device, presenting is impossible without a swapchain.
var DeviceExtensions = []string{
	"VK_KHR_swapchain",
}

// Device represents the interfacing objects between the surface, the hardware running Vulkan and the rest of the
// rendering engine. Its main purpose is to encapsulate the corresponding objects to make the initialization and
// teardown of a given application neater.
type Device struct {
	PhysicalDevice vk.PhysicalDevice
	PdProps        vk.PhysicalDeviceProperties
	PdMemoryProps  vk.PhysicalDeviceMemoryProperties
	QFamilies      QueueFamilyIndices

	Device    vk.Device
	GraphicsQ vk.Queue
	PresentQ  vk.Queue
}

// NewDevice selects the best suited physical device able to present to surface and creates the logical device
// together with its graphics and present queue. validationLayers are only passed on for older implementations
// that still distinguish device layers.
func NewDevice(instance vk.Instance, surface vk.Surface, validationLayers []string) (*Device, error) {
	dc := &Device{}
	if err := dc.selectPhysicalDevice(instance, surface); err != nil {
		return nil, errors.Wrap(err, "select physical device")
	}
	if err := dc.createLogicalDevice(validationLayers); err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}
	return dc, nil
}

// Destroy destroys the logical device. All objects created from it have to be destroyed before.
func (dc *Device) Destroy() {
	if dc.Device == nil {
		return
	}
	vk.DestroyDevice(dc.Device, nil)
	dc.Device = nil
}

// Name is the driver reported name of the selected physical device.
func (dc *Device) Name() string {
	return vk.ToString(dc.PdProps.DeviceName[:])
}

func (dc *Device) selectPhysicalDevice(in vk.Instance, su vk.Surface) error {
	availableDevices, err := ReadPhysicalDevices(in)
	if err != nil {
		return err
	}
	var pd vk.PhysicalDevice
	bestRank := -1
	for i := range availableDevices {
		ok, err := isDeviceSuitable(availableDevices[i], su)
		if err != nil {
			log.Printf("Skipping physical device [%d]: %v", i, err)
			continue
		}
		if !ok {
			continue
		}
		rank := RankDeviceType(ReadPhysicalDeviceProperties(availableDevices[i]).DeviceType)
		if rank > bestRank {
			pd = availableDevices[i]
			bestRank = rank
		}
	}
	if pd == nil {
		return errors.Newf("no suitable physical device (GPU) found among %d", len(availableDevices))
	}
	dc.PhysicalDevice = pd

	// Also set related member variables for dc.PhysicalDevice as they are needed later
	qf, err := findQueueFamilies(dc.PhysicalDevice, su)
	if err != nil {
		return errors.Wrap(err, "read queue families from selected device")
	}
	dc.QFamilies = *qf
	dc.PdProps = ReadPhysicalDeviceProperties(dc.PhysicalDevice)
	dc.PdProps.Limits.Deref()
	dc.PdMemoryProps = ReadDeviceMemoryProperties(dc.PhysicalDevice)
	log.Printf("Selected physical device: %s (%s), memory: %s",
		dc.Name(), toStringDeviceType(dc.PdProps.DeviceType), ToStringDeviceLocalMemory(dc.PdMemoryProps))
	return nil
}

// RankDeviceType orders device types by preference. Any suitable device is accepted, but a discrete GPU wins over
// an integrated one, which wins over virtual and software implementations.
func RankDeviceType(dt vk.PhysicalDeviceType) int {
	switch dt {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 4
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 3
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 1
	default:
		return 0
	}
}

func isDeviceSuitable(pd vk.PhysicalDevice, su vk.Surface) (bool, error) {
	pdProps := ReadPhysicalDeviceProperties(pd)
	pdFeatures := ReadPhysicalDeviceFeatures(pd)
	pdQueueFams := ReadQueueFamilies(pd)

	log.Printf("Physical device\n%s", ToStringPhysicalDeviceTable(pdProps, pdFeatures, pdQueueFams))

	if _, err := findQueueFamilies(pd, su); err != nil {
		log.Printf("Failed to get required queue families: %s", err)
		return false, nil
	}
	extensionsSupported, err := checkDeviceExtensionSupport(pd, DeviceExtensions)
	if err != nil || !extensionsSupported {
		return false, err
	}
	return checkSwapChainAdequacy(pd, su)
}

func (dc *Device) createLogicalDevice(validationLayers []string) error {
	queueInfos := dc.QFamilies.toQueueCreateInfos()
	deviceCreatInfo := &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(DeviceExtensions)),
		PpEnabledExtensionNames: TerminatedStrs(DeviceExtensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	if len(validationLayers) > 0 {
		deviceCreatInfo.EnabledLayerCount = uint32(len(validationLayers))
		deviceCreatInfo.PpEnabledLayerNames = TerminatedStrs(validationLayers)
	}

	var err error
	dc.Device, err = VkCreateDevice(dc.PhysicalDevice, deviceCreatInfo)
	if err != nil {
		return err
	}
	dc.GraphicsQ, err = VkGetDeviceQueue(dc.Device, dc.QFamilies.GraphicsFamily)
	if err != nil {
		dc.Destroy()
		return errors.Wrap(err, "get 'graphics' device queue")
	}
	dc.PresentQ, err = VkGetDeviceQueue(dc.Device, dc.QFamilies.PresentFamily)
	if err != nil {
		dc.Destroy()
		return errors.Wrap(err, "get 'present' device queue")
	}
	log.Printf("Successfully created logical device with %d queue(s)", len(queueInfos))
	return nil
}

func checkDeviceExtensionSupport(pd vk.PhysicalDevice, requiredDeviceExt []string) (bool, error) {
	supportedExtNames, err := ReadDeviceExtensionPropertyNames(pd)
	if err != nil {
		return false, err
	}
	log.Printf("Required device extensions: %v", requiredDeviceExt)
	log.Printf("Available device extensions (%d) [...]\n", len(supportedExtNames))
	if missing := Missing(requiredDeviceExt, supportedExtNames); len(missing) > 0 {
		log.Printf("Missing device extensions: %v", missing)
		return false, nil
	}
	return true, nil
}

func checkSwapChainAdequacy(pd vk.PhysicalDevice, surface vk.Surface) (bool, error) {
	formats, err := ReadSurfaceFormats(pd, surface)
	if err != nil {
		return false, err
	}
	modes, err := ReadSurfacePresentModes(pd, surface)
	if err != nil {
		return false, err
	}
	log.Printf("Read swap chain details: %d formats, %d present modes", len(formats), len(modes))
	return len(formats) > 0 && len(modes) > 0, nil
}

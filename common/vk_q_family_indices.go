package common

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// QueueFamilyIndices holds the queue families the presentation path runs on. Graphics and present may be the same
// family, which is the common case on desktop GPUs.
type QueueFamilyIndices struct {
	GraphicsFamily *uint32
	PresentFamily  *uint32
}

// PresentSupportFunc reports whether queue family idx can present to the surface in question.
type PresentSupportFunc func(idx uint32) bool

func findQueueFamilies(pd vk.PhysicalDevice, surf vk.Surface) (*QueueFamilyIndices, error) {
	return SelectQueueFamilies(ReadQueueFamilies(pd), func(idx uint32) bool {
		var presentSupport vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(pd, idx, surf, &presentSupport)
		return presentSupport > 0
	})
}

// SelectQueueFamilies picks the first graphics capable family and the first family able to present. A family that
// can do both is preferred, so graphics and present usually end up sharing one queue.
func SelectQueueFamilies(qFamilies []vk.QueueFamilyProperties, canPresent PresentSupportFunc) (*QueueFamilyIndices, error) {
	indices := &QueueFamilyIndices{}
	for i := range qFamilies {
		idx := uint32(i)
		graphics := isBitSet(qFamilies[i], vk.QueueGraphicsBit)
		present := canPresent(idx)
		if graphics && present {
			indices.GraphicsFamily = &idx
			indices.PresentFamily = &idx
			return indices, nil
		}
		if indices.GraphicsFamily == nil && graphics {
			indices.GraphicsFamily = &idx
		}
		if indices.PresentFamily == nil && present {
			indices.PresentFamily = &idx
		}
	}
	if indices.GraphicsFamily == nil {
		return nil, errors.New("unable to find graphics capable queue family")
	}
	if indices.PresentFamily == nil {
		return nil, errors.New("unable to find present capable queue family for given surface")
	}
	return indices, nil
}

func isBitSet(qFamily vk.QueueFamilyProperties, bit vk.QueueFlagBits) bool {
	return vk.QueueFlagBits(qFamily.QueueFlags)&bit > 0
}

// IsAllQueuesFound reports whether both families are set.
func (q *QueueFamilyIndices) IsAllQueuesFound() bool {
	return q.GraphicsFamily != nil && q.PresentFamily != nil
}

// IsShared reports whether graphics and present use the same family.
func (q *QueueFamilyIndices) IsShared() bool {
	return q.IsAllQueuesFound() && *q.GraphicsFamily == *q.PresentFamily
}

// UniqueIndices returns the distinct family indices, graphics first.
func (q *QueueFamilyIndices) UniqueIndices() []uint32 {
	var uniqIndices []uint32
	if q.GraphicsFamily != nil {
		uniqIndices = append(uniqIndices, *q.GraphicsFamily)
	}
	if q.PresentFamily != nil && !inList(*q.PresentFamily, uniqIndices) {
		uniqIndices = append(uniqIndices, *q.PresentFamily)
	}
	return uniqIndices
}

func (q *QueueFamilyIndices) toQueueCreateInfos() []vk.DeviceQueueCreateInfo {
	uniqIndices := q.UniqueIndices()
	infos := make([]vk.DeviceQueueCreateInfo, len(uniqIndices))
	for i := range uniqIndices {
		infos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uniqIndices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	return infos
}

func inList(e uint32, l []uint32) bool {
	for i := range l {
		if l[i] == e {
			return true
		}
	}
	return false
}

package renderer

import (
	"log"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// FrameSlot bundles what one frame in flight needs. InFlight is created signaled so the very first wait on it
// returns immediately.
type FrameSlot struct {
	CommandBuffer  vk.CommandBuffer
	ImageAcquired  vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       vk.Fence
}

// SlotPool is a fixed ring of frame slots. A slot must not be reset or re-recorded before its InFlight fence was
// observed signaled, which bounds how far the CPU can run ahead of the GPU to the number of slots.
type SlotPool struct {
	dev     SlotDevice
	buffers []vk.CommandBuffer
	slots   []FrameSlot
}

// NewSlotPool creates n slots. If any resource cannot be created, everything created so far is released again.
func NewSlotPool(dev SlotDevice, n int) (*SlotPool, error) {
	if n < 1 {
		return nil, errors.Wrapf(ErrSlotCreation, "invalid slot count %d", n)
	}
	p := &SlotPool{dev: dev}

	buffers, err := dev.AllocateCommandBuffers(n)
	if err != nil {
		return nil, stepError(ErrSlotCreation, StepCreateSlots, err)
	}
	p.buffers = buffers
	if len(buffers) < n {
		p.Destroy()
		return nil, errors.Wrapf(ErrSlotCreation, "allocated %d of %d command buffers", len(buffers), n)
	}

	p.slots = make([]FrameSlot, 0, n)
	for i := 0; i < n; i++ {
		slot, err := p.createSlot(buffers[i])
		if err != nil {
			p.Destroy()
			return nil, stepError(ErrSlotCreation, StepCreateSlots, errors.Wrapf(err, "slot [%d]", i))
		}
		p.slots = append(p.slots, slot)
	}
	log.Printf("Successfully created %d frame slots", len(p.slots))
	return p, nil
}

func (p *SlotPool) createSlot(cmd vk.CommandBuffer) (FrameSlot, error) {
	slot := FrameSlot{CommandBuffer: cmd}
	var err error
	if slot.ImageAcquired, err = p.dev.CreateSemaphore(); err != nil {
		return slot, err
	}
	if slot.RenderFinished, err = p.dev.CreateSemaphore(); err != nil {
		p.dev.DestroySemaphore(slot.ImageAcquired)
		return slot, err
	}
	if slot.InFlight, err = p.dev.CreateFence(true); err != nil {
		p.dev.DestroySemaphore(slot.RenderFinished)
		p.dev.DestroySemaphore(slot.ImageAcquired)
		return slot, err
	}
	return slot, nil
}

// Destroy releases every slot. No slot may still be pending on the GPU. Calling it twice does nothing.
func (p *SlotPool) Destroy() {
	for i := range p.slots {
		p.dev.DestroySemaphore(p.slots[i].ImageAcquired)
		p.dev.DestroySemaphore(p.slots[i].RenderFinished)
		p.dev.DestroyFence(p.slots[i].InFlight)
	}
	if len(p.buffers) > 0 {
		p.dev.FreeCommandBuffers(p.buffers)
	}
	p.slots = nil
	p.buffers = nil
}

// Len is the number of slots, i.e. the maximum number of frames in flight.
func (p *SlotPool) Len() int {
	return len(p.slots)
}

// SlotAt maps a frame counter onto its slot index.
func (p *SlotPool) SlotAt(frame uint64) int {
	return SlotIndex(frame, len(p.slots))
}

// Slot returns the slot at index i.
func (p *SlotPool) Slot(i int) *FrameSlot {
	return &p.slots[i]
}

// SlotIndex is frame mod n.
func SlotIndex(frame uint64, n int) int {
	return int(frame % uint64(n))
}

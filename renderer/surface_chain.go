package renderer

import (
	"log"
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// PreferredSurfaceFormat is 8 bit BGRA in the sRGB non-linear color space.
var PreferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Srgb,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// PreferredPresentMode presents on vsync and replaces queued frames instead of blocking. FIFO is the fallback
// every driver has to support.
const PreferredPresentMode = vk.PresentModeMailbox

// undefinedExtent is reported as the current extent when the surface size is decided by the swapchain.
const undefinedExtent = math.MaxUint32

// RenderTarget is one presentable image together with the view and framebuffer wrapping it.
type RenderTarget struct {
	Image       vk.Image
	View        vk.ImageView
	Framebuffer vk.Framebuffer
}

// SurfaceChain owns the swapchain and its render targets. All targets share Format and Extent. The chain is only
// mutated by Build, Teardown and Rebuild, which must never run while the GPU still references its targets.
type SurfaceChain struct {
	dev        ChainDevice
	renderPass vk.RenderPass
	// passFormat is the attachment format of renderPass, vk.FormatUndefined when not pinned
	passFormat vk.Format

	Handle      vk.Swapchain
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Targets     []RenderTarget
}

// NewSurfaceChain prepares an empty chain whose framebuffers will be compatible with renderPass. Nothing is
// allocated until Build.
func NewSurfaceChain(dev ChainDevice, renderPass vk.RenderPass) *SurfaceChain {
	return &SurfaceChain{
		dev:        dev,
		renderPass: renderPass,
	}
}

// RequireFormat pins the chain to the attachment format of its render pass. A Build that would select any other
// format fails with ErrSurfaceCreation instead of producing framebuffers the render pass cannot use.
func (sc *SurfaceChain) RequireFormat(format vk.Format) {
	sc.passFormat = format
}

// Build creates the swapchain and one RenderTarget per swapchain image. drawable is the host's drawable size,
// which is only used when the surface reports an undefined extent. On failure the partially built chain is torn
// down before the error is returned.
func (sc *SurfaceChain) Build(support SurfaceSupport, desired vk.SurfaceFormat, drawable vk.Extent2D) error {
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.Wrap(ErrSurfaceCreation, "surface offers no formats or present modes")
	}
	caps := support.Capabilities
	sc.Format = SelectSurfaceFormat(support.Formats, desired)
	if sc.passFormat != vk.FormatUndefined && sc.Format.Format != sc.passFormat {
		return errors.Wrapf(ErrSurfaceCreation, "surface no longer offers the render pass format %d, selected %d",
			sc.passFormat, sc.Format.Format)
	}
	sc.PresentMode = SelectPresentMode(support.PresentModes, PreferredPresentMode)
	sc.Extent = SelectExtent(caps, drawable)
	if sc.Extent.Width == 0 || sc.Extent.Height == 0 {
		return errors.Wrapf(ErrSurfaceCreation, "zero sized extent %dx%d", sc.Extent.Width, sc.Extent.Height)
	}

	handle, err := sc.dev.CreateSwapchain(SwapchainConfig{
		MinImageCount: ImageCount(caps),
		Format:        sc.Format,
		PresentMode:   sc.PresentMode,
		Extent:        sc.Extent,
		PreTransform:  caps.CurrentTransform,
	})
	if err != nil {
		return stepError(ErrSurfaceCreation, StepBuild, err)
	}
	sc.Handle = handle

	images, err := sc.dev.SwapchainImages(sc.Handle)
	if err == nil && len(images) == 0 {
		err = errors.New("swapchain returned no images")
	}
	if err != nil {
		sc.Teardown()
		return stepError(ErrSurfaceCreation, StepBuild, err)
	}

	sc.Targets = make([]RenderTarget, 0, len(images))
	for i, img := range images {
		view, err := sc.dev.CreateImageView(img, sc.Format.Format)
		if err != nil {
			sc.Teardown()
			return stepError(ErrViewCreation, StepBuild, errors.Wrapf(err, "target [%d]", i))
		}
		sc.Targets = append(sc.Targets, RenderTarget{Image: img, View: view})

		fb, err := sc.dev.CreateFramebuffer(sc.renderPass, view, sc.Extent)
		if err != nil {
			sc.Teardown()
			return stepError(ErrFramebufferCreation, StepBuild, errors.Wrapf(err, "target [%d]", i))
		}
		sc.Targets[i].Framebuffer = fb
	}
	log.Printf("Successfully built surface chain: %d targets, %dx%d, format %d, present mode %d",
		len(sc.Targets), sc.Extent.Width, sc.Extent.Height, sc.Format.Format, sc.PresentMode)
	return nil
}

// Teardown releases framebuffers, then views, then the swapchain. Calling it on an empty chain does nothing.
func (sc *SurfaceChain) Teardown() {
	for i := range sc.Targets {
		if sc.Targets[i].Framebuffer != nil {
			sc.dev.DestroyFramebuffer(sc.Targets[i].Framebuffer)
		}
	}
	for i := range sc.Targets {
		if sc.Targets[i].View != nil {
			sc.dev.DestroyImageView(sc.Targets[i].View)
		}
	}
	if sc.Handle != nil {
		sc.dev.DestroySwapchain(sc.Handle)
	}
	sc.Handle = nil
	sc.Targets = nil
}

// Rebuild tears the chain down and builds it again from fresh capabilities. The device has to be idle.
func (sc *SurfaceChain) Rebuild(support SurfaceSupport, desired vk.SurfaceFormat, drawable vk.Extent2D) error {
	sc.Teardown()
	return sc.Build(support, desired, drawable)
}

// Built reports whether the chain currently holds a swapchain.
func (sc *SurfaceChain) Built() bool {
	return sc.Handle != nil
}

// ImageCount asks for one image more than the minimum, so the driver does not stall us while it is still busy
// with its internal operations. A maximum of 0 means there is no upper bound.
func ImageCount(caps vk.SurfaceCapabilities) uint32 {
	imgCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imgCount > caps.MaxImageCount {
		imgCount = caps.MaxImageCount
	}
	return imgCount
}

// SelectExtent returns the surface's current extent, or the drawable size if the surface leaves the choice to us.
// Either is clamped to the supported extent range.
func SelectExtent(caps vk.SurfaceCapabilities, drawable vk.Extent2D) vk.Extent2D {
	extent := caps.CurrentExtent
	if extent.Width == undefinedExtent {
		extent = drawable
	}
	return vk.Extent2D{
		Width:  clamp(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// SelectSurfaceFormat returns desired if offered, otherwise the first format available.
func SelectSurfaceFormat(available []vk.SurfaceFormat, desired vk.SurfaceFormat) vk.SurfaceFormat {
	for _, af := range available {
		if af.Format == desired.Format && af.ColorSpace == desired.ColorSpace {
			return af
		}
	}
	fallbackFormat := available[0]
	log.Printf("Did not find prefered SurfaceFormat, selecting first one available. (%v)", fallbackFormat)
	return fallbackFormat
}

// SelectPresentMode returns desired if offered, otherwise FIFO.
func SelectPresentMode(available []vk.PresentMode, desired vk.PresentMode) vk.PresentMode {
	for _, pm := range available {
		if pm == desired {
			return pm
		}
	}
	fallbackMode := vk.PresentModeFifo
	log.Printf("Did not find prefered PresentMode, selecting FIFO. (%v)", fallbackMode)
	return fallbackMode
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

package platform

import (
	"fmt"
	"log"

	"vk_hello_triangle/common"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/veandco/go-sdl2/sdl"
)

const SDL_MAJOR, SDL_MINOR, SDL_PATCH = int(sdl.MAJOR_VERSION), int(sdl.MINOR_VERSION), int(sdl.PATCHLEVEL)

// WindowConfig describes the window to open and the instance to create for it.
type WindowConfig struct {
	Title            string
	Width, Height    int32
	ValidationLayers []string
}

// Window encapsulates all window handling components and vulkan access objects to talk, to actual draw on screen. It
// uses SDL for window management and user input, for a Vulkan application. Thus simplifying the process of getting a
// vk.Surface to draw on and interact with.
type Window struct {
	sdlVersion string

	Win  *sdl.Window
	Inst vk.Instance
	Surf vk.Surface

	state windowState
}

// NewWindow initializes SDL, opens a resizable window and creates the Vulkan instance and surface for it. On tear
// down, we need to destroy the: vk.Surface, vk.Instance and sdl.Window, which Destroy does.
func NewWindow(cfg WindowConfig) (*Window, error) {
	window := &Window{
		sdlVersion: fmt.Sprintf("v%d.%d.%d", SDL_MAJOR, SDL_MINOR, SDL_PATCH),
		state:      windowState{shouldRender: true},
	}
	if err := window.initSDLWindow(cfg.Title, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	if err := window.initVulkan(); err != nil {
		window.Destroy()
		return nil, err
	}
	inst, err := common.NewInstance(cfg.Title, window.Win.VulkanGetInstanceExtensions(), cfg.ValidationLayers)
	if err != nil {
		window.Destroy()
		return nil, err
	}
	window.Inst = inst
	if err := window.createSdlVkSurface(); err != nil {
		window.Destroy()
		return nil, err
	}
	log.Printf("Generated SDL/Vulkan window - SDL: %s", window.sdlVersion)
	return window, nil
}

// Destroy tears down whatever NewWindow managed to create, surface first and SDL last.
func (w *Window) Destroy() {
	if w.Surf != nil {
		vk.DestroySurface(w.Inst, w.Surf, nil)
		w.Surf = nil
	}
	if w.Inst != nil {
		vk.DestroyInstance(w.Inst, nil)
		w.Inst = nil
	}
	if w.Win != nil {
		if err := w.Win.Destroy(); err != nil {
			log.Printf("Failed to destroy SDL window: %v", err)
		}
		w.Win = nil
	}
	sdl.Quit()
}

// DrawableSize is the size of the window's drawable area in pixels. It can differ from the window size on
// high-DPI displays and is what the swapchain extent has to match.
func (w *Window) DrawableSize() (width, height int32) {
	return w.Win.VulkanGetDrawableSize()
}

func (w *Window) initSDLWindow(title string, width int32, height int32) error {
	// Signals are turned into quit events on the Go side, see QuitOnSignal
	sdl.SetHint(sdl.HINT_NO_SIGNAL_HANDLERS, "1")
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "initialize SDL")
	}
	log.Println("Initialized SDL")
	win, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		width,
		height,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE|sdl.WINDOW_VULKAN|sdl.WINDOW_ALLOW_HIGHDPI,
	)
	if err != nil {
		sdl.Quit()
		return errors.Wrap(err, "create SDL window for use with Vulkan")
	}
	log.Printf("Created SDL window for use with Vulkan. Title: \"%s\", Width: %d, Height: %d", title, width, height)
	w.Win = win
	return nil
}

func (w *Window) initVulkan() error {
	// Find and load Vulkan addresses to be able to call driver level functions via provided mechanism
	vk.SetGetInstanceProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "initialize Vulkan API")
	}
	return nil
}

func (w *Window) createSdlVkSurface() error {
	surfPtr, err := w.Win.VulkanCreateSurface(w.Inst)
	if err != nil {
		return errors.Wrap(err, "create SDL window's Vulkan-surface")
	}
	w.Surf = vk.SurfaceFromPointer(uintptr(surfPtr))
	return nil
}

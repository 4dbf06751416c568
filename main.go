package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"syscall"

	"vk_hello_triangle/common"
	"vk_hello_triangle/platform"
	"vk_hello_triangle/renderer"

	"github.com/cockroachdb/errors"
	units "github.com/docker/go-units"
	"github.com/xlab/closer"
)

// quitSignals end the frame loop like closing the window does.
var quitSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)
	// SDL and the Vulkan surface have to stay on the main thread
	runtime.LockOSThread()
}

func main() {
	// closer only handles the exit code, panics and aborts. Its cleanups run on another goroutine, so nothing that
	// touches the GPU or SDL is bound to it, run tears down with defers instead.
	closer.Init(closer.Config{
		ExitCodeOK:  closer.ExitCodeOK,
		ExitCodeErr: closer.ExitCodeErr,
		ExitSignals: []os.Signal{syscall.SIGABRT},
	})
	defer closer.Close()

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		closer.Fatalln(err)
	}
	log.Printf("Starting %s", cfg.Title)
	log.Printf("Using GoLang: [%s]", runtime.Version())

	if err := run(cfg); err != nil {
		closer.Fatalln(err)
	}
}

// run opens the window, brings up the device and engine and drives the frame loop until the window closes or one
// of quitSignals arrives. Everything is torn down in reverse order on this goroutine before run returns.
func run(cfg Config) (err error) {
	window, err := platform.NewWindow(cfg.windowConfig())
	if err != nil {
		return err
	}
	defer window.Destroy()

	stopSignals := platform.QuitOnSignal(quitSignals...)
	defer stopSignals()

	dc, err := common.NewDevice(window.Inst, window.Surf, cfg.validationLayers())
	if err != nil {
		return err
	}
	defer dc.Destroy()

	vkDev, err := renderer.NewVulkanDevice(dc, window.Surf)
	if err != nil {
		return err
	}
	defer vkDev.Destroy()

	engine := renderer.NewEngine(vkDev, window, cfg.rendererConfig())
	if err := engine.Init(); err != nil {
		return err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			log.Printf("Failed to close engine: %v", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()

	stats, err := window.Loop(engine)
	log.Printf("Presented %d frames in %s (%.1f fps avg), %d surface chain rebuilds",
		stats.Frames, units.HumanDuration(stats.Elapsed), stats.AvgFPS(), engine.Rebuilds())
	return err
}

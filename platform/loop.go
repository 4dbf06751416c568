package platform

import (
	"log"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// minSizeToDraw is the smallest drawable edge length, in pixels, that is still rendered to.
const minSizeToDraw = 1

// FrameHandler is what Loop drives. DrawFrame renders one frame and only returns fatal errors, OnResize forwards a
// changed window size and OnShutdown runs once when the loop exits, before Loop returns.
type FrameHandler interface {
	DrawFrame() error
	OnResize(width, height int32)
	OnShutdown()
}

// LoopStats summarizes a finished Loop.
type LoopStats struct {
	Frames  int
	Elapsed time.Duration
}

// AvgFPS is a rough frames per second over the whole run.
func (s LoopStats) AvgFPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

type windowState struct {
	close        bool
	shouldRender bool
}

// Loop this function represents the event-loop for user interaction and contains the draw call that renders each
// frame. It provides all basic functionality a well-behaved app should have: not rendering while minimized or
// hidden, close on window 'close button' and close on ESC key. The loop ends on the first error DrawFrame returns.
func (w *Window) Loop(h FrameHandler) (LoopStats, error) {
	t0 := time.Now()
	frames := 0
	defer h.OnShutdown()

	w.state.close = false
	for !w.state.close {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			w.state.handleEvent(event, h)
		}
		if w.state.close {
			break
		}
		if !w.state.shouldRender {
			// Sleep until new events change the render state
			if event := sdl.WaitEvent(); event != nil {
				w.state.handleEvent(event, h)
			}
			continue
		}
		if err := h.DrawFrame(); err != nil {
			return LoopStats{Frames: frames, Elapsed: time.Since(t0)}, err
		}
		frames++
	}
	return LoopStats{Frames: frames, Elapsed: time.Since(t0)}, nil
}

func (s *windowState) handleEvent(event sdl.Event, h FrameHandler) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		s.close = true
	case *sdl.KeyboardEvent:
		if ev.Type == sdl.KEYDOWN && ev.Keysym.Sym == sdl.K_ESCAPE {
			s.close = true
		}
	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
			h.OnResize(ev.Data1, ev.Data2)
			s.shouldRender = ev.Data1 > minSizeToDraw && ev.Data2 > minSizeToDraw
		case sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_HIDDEN:
			log.Printf("Window hidden, pausing rendering")
			s.shouldRender = false
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_SHOWN:
			s.shouldRender = true
		}
	}
}

package platform

import (
	"log"
	"os"
	"os/signal"
	"sync"

	"github.com/veandco/go-sdl2/sdl"
)

// QuitOnSignal turns sigs into an SDL quit event. Loop then returns on the main thread and the caller tears down
// in order, nothing is destroyed while a frame is being drawn. SDL's own signal handlers are disabled in NewWindow.
// The returned stop ends the forwarding, calling it more than once is fine.
func QuitOnSignal(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})
	go forwardSignals(ch, done, pushQuit)

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// forwardSignals calls quit for every signal received until done is closed.
func forwardSignals(sigs <-chan os.Signal, done <-chan struct{}, quit func() error) {
	for {
		select {
		case <-done:
			return
		case sig := <-sigs:
			log.Printf("Received %v, closing window", sig)
			if err := quit(); err != nil {
				log.Printf("Failed to push quit event: %v", err)
			}
		}
	}
}

// pushQuit is safe to call from any goroutine.
func pushQuit() error {
	_, err := sdl.PushEvent(&sdl.QuitEvent{Type: sdl.QUIT})
	return err
}

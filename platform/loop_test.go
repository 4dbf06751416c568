package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

type recordingHandler struct {
	resizes [][2]int32
}

func (r *recordingHandler) DrawFrame() error { return nil }

func (r *recordingHandler) OnResize(width, height int32) {
	r.resizes = append(r.resizes, [2]int32{width, height})
}

func (r *recordingHandler) OnShutdown() {}

func windowEvent(id uint8, data1, data2 int32) *sdl.WindowEvent {
	return &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: id, Data1: data1, Data2: data2}
}

func TestHandleEvent_Close(t *testing.T) {
	h := &recordingHandler{}

	s := windowState{shouldRender: true}
	s.handleEvent(&sdl.QuitEvent{Type: sdl.QUIT}, h)
	assert.True(t, s.close)

	s = windowState{shouldRender: true}
	s.handleEvent(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_a}}, h)
	assert.False(t, s.close)
	s.handleEvent(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, h)
	assert.True(t, s.close)
}

func TestHandleEvent_ResizeForwardsAndGatesRendering(t *testing.T) {
	h := &recordingHandler{}
	s := windowState{shouldRender: true}

	s.handleEvent(windowEvent(sdl.WINDOWEVENT_SIZE_CHANGED, 800, 600), h)
	assert.True(t, s.shouldRender)

	s.handleEvent(windowEvent(sdl.WINDOWEVENT_RESIZED, 1, 600), h)
	assert.False(t, s.shouldRender, "a drawable edge of minSizeToDraw is not rendered")

	s.handleEvent(windowEvent(sdl.WINDOWEVENT_RESIZED, 2, 2), h)
	assert.True(t, s.shouldRender)

	assert.Equal(t, [][2]int32{{800, 600}, {1, 600}, {2, 2}}, h.resizes)
}

func TestHandleEvent_MinimizeAndRestore(t *testing.T) {
	h := &recordingHandler{}
	s := windowState{shouldRender: true}

	s.handleEvent(windowEvent(sdl.WINDOWEVENT_MINIMIZED, 0, 0), h)
	assert.False(t, s.shouldRender)
	s.handleEvent(windowEvent(sdl.WINDOWEVENT_RESTORED, 0, 0), h)
	assert.True(t, s.shouldRender)

	s.handleEvent(windowEvent(sdl.WINDOWEVENT_HIDDEN, 0, 0), h)
	assert.False(t, s.shouldRender)
	s.handleEvent(windowEvent(sdl.WINDOWEVENT_SHOWN, 0, 0), h)
	assert.True(t, s.shouldRender)

	assert.Empty(t, h.resizes)
}

func TestLoopStats_AvgFPS(t *testing.T) {
	assert.InDelta(t, 60.0, LoopStats{Frames: 120, Elapsed: 2 * time.Second}.AvgFPS(), 1e-9)
	assert.Zero(t, LoopStats{Frames: 3}.AvgFPS())
}

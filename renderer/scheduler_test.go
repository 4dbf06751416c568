package renderer

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cycleCalls is the exact device traffic of an uneventful cycle.
var cycleCalls = []string{
	"WaitForFence",
	"AcquireNextImage",
	"ResetFence",
	"ResetCommandBuffer",
	"BeginCommandBuffer",
	"CmdBeginRenderPass",
	"CmdBindPipeline",
	"CmdSetViewport",
	"CmdSetScissor",
	"CmdDraw",
	"CmdEndRenderPass",
	"EndCommandBuffer",
	"Submit",
	"Present",
}

type schedulerRig struct {
	dev   *fakeDevice
	host  *fakeHost
	chain *SurfaceChain
	slots *SlotPool
	s     *Scheduler
}

// newSchedulerRig builds a chain and n slots on a fake device. The call log is cleared afterwards, so it only
// holds what the scheduler does.
func newSchedulerRig(t *testing.T, n int, cfg SchedulerConfig) *schedulerRig {
	t.Helper()
	dev := newFakeDevice()
	host := &fakeHost{width: 800, height: 600}
	rp, err := dev.CreateRenderPass(PreferredSurfaceFormat.Format)
	require.NoError(t, err)
	chain := NewSurfaceChain(dev, rp)
	require.NoError(t, chain.Build(dev.support, PreferredSurfaceFormat, drawableExtent(host)))
	slots, err := NewSlotPool(dev, n)
	require.NoError(t, err)

	cfg.RenderPass = rp
	cfg.Desired = PreferredSurfaceFormat
	dev.calls = nil
	dev.count = map[string]int{}
	return &schedulerRig{
		dev:   dev,
		host:  host,
		chain: chain,
		slots: slots,
		s:     NewScheduler(dev, chain, slots, host, cfg),
	}
}

func (r *schedulerRig) cycles(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, r.s.DrawFrame(), "cycle %d", i+1)
	}
}

func TestScheduler_TenCyclesTwoSlots(t *testing.T) {
	r := newSchedulerRig(t, 2, SchedulerConfig{})
	r.cycles(t, 10)

	assert.Equal(t, cycleCalls, r.dev.calls[:len(cycleCalls)])
	assert.Equal(t, 10, r.dev.count["Submit"])
	assert.Equal(t, 10, r.dev.count["Present"])
	assert.LessOrEqual(t, r.dev.count["WaitForFence"], 10)
	assert.Zero(t, r.dev.count["WaitIdle"])
	assert.Equal(t, uint64(10), r.s.Frame())
	assert.Equal(t, StepDone, r.s.Step())
	assert.Zero(t, r.s.Rebuilds())
	for _, d := range r.dev.draws {
		assert.Equal(t, drawCall{vertexCount: 3, instanceCount: 1}, d)
	}
	// Any slot reused before its fence was observed signaled shows up here
	assert.Empty(t, r.dev.violations)
}

func TestScheduler_DefaultFenceTimeoutIsUnbounded(t *testing.T) {
	r := newSchedulerRig(t, 2, SchedulerConfig{})
	r.cycles(t, 1)
	assert.Equal(t, uint64(math.MaxUint64), r.dev.lastTimeout)

	r = newSchedulerRig(t, 2, SchedulerConfig{FenceTimeout: 1e9})
	r.cycles(t, 1)
	assert.Equal(t, uint64(1e9), r.dev.lastTimeout)
}

func TestScheduler_StaleAcquireRecoversBeforeNextCycle(t *testing.T) {
	r := newSchedulerRig(t, 2, SchedulerConfig{})
	r.dev.script("AcquireNextImage", 3, vk.ErrorOutOfDate)

	r.cycles(t, 3)
	// Cycle 3 neither submitted nor presented and did not advance the counter
	assert.Equal(t, 2, r.dev.count["Submit"])
	assert.Equal(t, 2, r.dev.count["Present"])
	assert.Equal(t, uint64(2), r.s.Frame())
	assert.Equal(t, 1, r.s.Rebuilds())
	assert.False(t, r.s.NeedsRebuild())

	r.cycles(t, 1)
	idle := r.dev.index("WaitIdle", 1)
	rebuilt := r.dev.index("CreateSwapchain", 1)
	acquire4 := r.dev.index("AcquireNextImage", 4)
	assert.Less(t, r.dev.index("AcquireNextImage", 3), idle)
	assert.Less(t, idle, rebuilt, "device idle before the chain is rebuilt")
	assert.Less(t, rebuilt, acquire4, "rebuild before cycle 4 acquires")
	assert.Equal(t, 3, r.dev.count["Submit"])
	assert.Equal(t, uint64(3), r.s.Frame())
	assert.Equal(t, 1, r.dev.liveOf("swapchain"))
	assert.Empty(t, r.dev.violations)
}

func TestScheduler_OnResizeRecoversBeforeAcquire(t *testing.T) {
	r := newSchedulerRig(t, 2, SchedulerConfig{})
	r.cycles(t, 2)

	r.host.width, r.host.height = 1024, 768
	r.dev.support.Capabilities.CurrentExtent = vk.Extent2D{Width: 1024, Height: 768}
	r.s.OnResize(1024, 768)
	assert.True(t, r.s.NeedsRebuild())

	r.cycles(t, 1)
	assert.Less(t, r.dev.index("WaitIdle", 1), r.dev.index("CreateSwapchain", 1))
	assert.Less(t, r.dev.index("CreateSwapchain", 1), r.dev.index("AcquireNextImage", 3))
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, r.chain.Extent)
	assert.Equal(t, uint64(3), r.s.Frame())
	assert.False(t, r.s.NeedsRebuild())
	assert.Empty(t, r.dev.violations)
}

func TestScheduler_ZeroDrawableDefersRecovery(t *testing.T) {
	r := newSchedulerRig(t, 2, SchedulerConfig{})
	// The rig's own Build must not show up in the counts
	require.Empty(t, r.dev.count)
	require.Empty(t, r.dev.calls)
	r.cycles(t, 1)

	r.host.width, r.host.height = 0, 0
	r.s.OnResize(0, 0)
	r.cycles(t, 3)
	assert.Equal(t, 1, r.dev.count["AcquireNextImage"], "nothing is drawn on an empty drawable")
	assert.Zero(t, r.dev.count["CreateSwapchain"])
	assert.True(t, r.s.NeedsRebuild())
	assert.Equal(t, uint64(1), r.s.Frame())

	r.host.width, r.host.height = 800, 600
	r.cycles(t, 1)
	assert.Equal(t, 1, r.dev.count["CreateSwapchain"])
	assert.Equal(t, uint64(2), r.s.Frame())
	assert.False(t, r.s.NeedsRebuild())
	assert.Empty(t, r.dev.violations)
}

func TestScheduler_SuboptimalDefersRebuild(t *testing.T) {
	for _, op := range []string{"AcquireNextImage", "Present"} {
		t.Run(op, func(t *testing.T) {
			r := newSchedulerRig(t, 2, SchedulerConfig{})
			r.dev.script(op, 1, vk.Suboptimal)

			r.cycles(t, 1)
			// The suboptimal cycle still completes
			assert.Equal(t, 1, r.dev.count["Submit"])
			assert.Equal(t, 1, r.dev.count["Present"])
			assert.Zero(t, r.dev.count["CreateSwapchain"])
			assert.True(t, r.s.NeedsRebuild())

			r.cycles(t, 1)
			assert.Less(t, r.dev.index("CreateSwapchain", 1), r.dev.index("AcquireNextImage", 2))
			assert.Equal(t, 1, r.s.Rebuilds())
			assert.Equal(t, uint64(2), r.s.Frame())
			assert.Empty(t, r.dev.violations)
		})
	}
}

func TestScheduler_StalePresentRecoversImmediately(t *testing.T) {
	r := newSchedulerRig(t, 2, SchedulerConfig{})
	r.dev.script("Present", 2, vk.ErrorOutOfDate)

	r.cycles(t, 2)
	assert.Equal(t, uint64(2), r.s.Frame(), "the submitted frame counts")
	assert.Equal(t, 1, r.s.Rebuilds())
	assert.Less(t, r.dev.index("Present", 2), r.dev.index("WaitIdle", 1))
	assert.Less(t, r.dev.index("WaitIdle", 1), r.dev.index("CreateSwapchain", 1))

	r.cycles(t, 2)
	assert.Equal(t, uint64(4), r.s.Frame())
	assert.Equal(t, 1, r.s.Rebuilds())
	assert.Empty(t, r.dev.violations)
}

func TestScheduler_FatalErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		op     string
		result vk.Result
		kind   error
		step   Step
	}{
		{"wait lost", "WaitForFence", vk.ErrorDeviceLost, ErrSlotWait, StepWaitSlot},
		{"wait timeout", "WaitForFence", vk.Timeout, ErrTimeout, StepWaitSlot},
		{"acquire lost", "AcquireNextImage", vk.ErrorDeviceLost, ErrTargetAcquisition, StepAcquireTarget},
		{"fence reset", "ResetFence", vk.ErrorOutOfDeviceMemory, ErrCommandRecording, StepRecord},
		{"buffer reset", "ResetCommandBuffer", vk.ErrorOutOfHostMemory, ErrCommandRecording, StepRecord},
		{"begin", "BeginCommandBuffer", vk.ErrorOutOfHostMemory, ErrCommandRecording, StepRecord},
		{"end", "EndCommandBuffer", vk.ErrorOutOfDeviceMemory, ErrCommandRecording, StepRecord},
		{"submit", "Submit", vk.ErrorDeviceLost, ErrSubmission, StepSubmit},
		{"present", "Present", vk.ErrorSurfaceLost, ErrPresentation, StepPresent},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newSchedulerRig(t, 2, SchedulerConfig{FenceTimeout: 1000})
			r.dev.script(tc.op, 2, tc.result)

			r.cycles(t, 1)
			err := r.s.DrawFrame()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			assert.Equal(t, tc.step, r.s.Step())
			assert.Contains(t, err.Error(), string(tc.step))
			for _, benign := range []error{ErrChainStale, ErrChainSuboptimal} {
				assert.False(t, errors.Is(err, benign))
			}
		})
	}
}

func TestScheduler_TargetIndexOutOfRange(t *testing.T) {
	r := newSchedulerRig(t, 2, SchedulerConfig{})
	r.chain.Targets = r.chain.Targets[:1]
	r.cycles(t, 1)

	// The fake hands out indices round robin over the real image count
	err := r.s.DrawFrame()
	assert.True(t, errors.Is(err, ErrTargetAcquisition), "got %v", err)
	assert.Equal(t, 1, r.dev.count["Submit"])
}

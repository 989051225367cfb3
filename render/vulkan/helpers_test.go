package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/GymliDanny/rune-engine/core/logging/logtest"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// newTestDevice opens a device on fake without a renderer around it.
func newTestDevice(t *testing.T, fake *fakeDriver) (*Device, driver.Surface, *logtest.Recorder) {
	t.Helper()
	log := &logtest.Recorder{}

	inst, _, err := fake.CreateInstance(driver.InstanceInfo{})
	require.NoError(t, err)
	surface, _, err := inst.CreateSurface(nil)
	require.NoError(t, err)

	dev, err := CreateDevice(inst, surface, log)
	require.NoError(t, err)
	return dev, surface, log
}

// newRecordingTargets builds a device with a swapchain, render pass and
// framebuffers to record against.
func newRecordingTargets(t *testing.T) (*fakeDriver, *Device, *RenderPass, []*Framebuffer, *logtest.Recorder) {
	t.Helper()
	fake := newFakeDriver()
	dev, surface, log := newTestDevice(t, fake)
	sc, err := CreateSwapchain(dev, surface, 800, 600, 2, driver.PresentModeMailbox)
	require.NoError(t, err)
	rp, err := CreateRenderPass(dev, sc, mgl32.Vec4{0, 0, 800, 600}, mgl32.Vec4{0, 0, 0, 1}, 1, 0)
	require.NoError(t, err)
	fbs, err := createFramebuffers(dev, rp, sc)
	require.NoError(t, err)
	return fake, dev, rp, fbs, log
}

func newTestRenderer(t *testing.T, fake *fakeDriver, opts Options) (*Renderer, *logtest.Recorder) {
	t.Helper()
	log := &logtest.Recorder{}
	r, err := New(&fakeWindow{width: 800, height: 600}, fake, opts, log)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, log
}

// recoverError runs fn and returns the error it panicked with.
func recoverError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
	}()
	fn()
	return errors.New("unreachable")
}

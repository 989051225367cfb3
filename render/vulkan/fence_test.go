package vulkan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

func TestSignaledFenceSkipsNativeWait(t *testing.T) {
	fake := newFakeDriver()
	dev, _, _ := newTestDevice(t, fake)

	f, err := NewFence(dev, true)
	require.NoError(t, err)
	assert.True(t, f.Signaled())

	assert.True(t, f.Wait(driver.NoTimeout))
	assert.Equal(t, 0, fake.countEvents("wait fence"))
}

func TestFenceResetThenWait(t *testing.T) {
	fake := newFakeDriver()
	dev, _, _ := newTestDevice(t, fake)

	f, err := NewFence(dev, true)
	require.NoError(t, err)
	require.NoError(t, f.Reset())
	assert.False(t, f.Signaled())

	// Reset of an unsignaled fence does not reach the driver.
	require.NoError(t, f.Reset())
	assert.Equal(t, 1, fake.countEvents("reset fence"))

	cb, err := dev.BeginSingleUse()
	require.NoError(t, err)
	require.NoError(t, cb.End())
	submitted, err := cb.Submit(dev.Graphics, 0, 0, f.Handle)
	require.NoError(t, err)
	require.True(t, submitted)

	assert.True(t, f.Wait(time.Second))
	assert.True(t, f.Signaled())
	assert.Equal(t, 0, fake.deadlocks)
}

func TestFenceWaitFailures(t *testing.T) {
	tests := []struct {
		res     driver.Result
		level   logging.Level
		message string
	}{
		{driver.Timeout, logging.Warn, "timed out"},
		{driver.ErrorDeviceLost, logging.Error, "Lost access to host device"},
		{driver.ErrorOutOfHostMemory, logging.Error, "Out of host memory"},
		{driver.ErrorOutOfDeviceMemory, logging.Error, "Out of device memory"},
		{driver.ErrorInitializationFail, logging.Error, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.res.String(), func(t *testing.T) {
			fake := newFakeDriver()
			dev, _, log := newTestDevice(t, fake)

			f, err := NewFence(dev, false)
			require.NoError(t, err)

			fake.waitResults = []driver.Result{tt.res}
			assert.False(t, f.Wait(time.Millisecond))
			assert.False(t, f.Signaled())
			assert.True(t, log.Contains(tt.level, tt.message))
		})
	}
}

func TestFenceDestroy(t *testing.T) {
	fake := newFakeDriver()
	dev, _, _ := newTestDevice(t, fake)

	f, err := NewFence(dev, false)
	require.NoError(t, err)
	handle := f.Handle

	f.Destroy()
	f.Destroy()
	assert.Zero(t, f.Handle)
	assert.Equal(t, 1, fake.countEvents("destroy fence"))
	assert.NotContains(t, fake.liveObjects(), uint64(handle))
}

package vulkan

import (
	"time"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// Fence wraps a native fence and mirrors whether it is signaled, so a fence
// already known to be signaled is never waited on twice.
type Fence struct {
	dev      *Device
	Handle   driver.Fence
	signaled bool
}

func NewFence(dev *Device, signaled bool) (*Fence, error) {
	handle, res, err := dev.Logical.CreateFence(signaled)
	if err := check(res, err, "create fence"); err != nil {
		return nil, err
	}
	return &Fence{dev: dev, Handle: handle, signaled: signaled}, nil
}

func (f *Fence) Signaled() bool {
	return f.signaled
}

// Wait blocks until the fence is signaled or timeout passes. It reports
// whether the fence is now signaled; timeouts and device errors are logged.
func (f *Fence) Wait(timeout time.Duration) bool {
	if f.signaled {
		return true
	}

	res, err := f.dev.Logical.WaitForFence(f.Handle, timeout)
	if err != nil && res == driver.Success {
		f.dev.log.Log(logging.Error, "Vulkan fence wait failed: %v", err)
		return false
	}
	switch res {
	case driver.Success:
		f.signaled = true
		return true
	case driver.Timeout:
		f.dev.log.Log(logging.Warn, "Vulkan fence timed out")
	case driver.ErrorDeviceLost:
		f.dev.log.Log(logging.Error, "Lost access to host device")
	case driver.ErrorOutOfHostMemory:
		f.dev.log.Log(logging.Error, "Out of host memory")
	case driver.ErrorOutOfDeviceMemory:
		f.dev.log.Log(logging.Error, "Out of device memory")
	default:
		f.dev.log.Log(logging.Error, "Unknown error occurred on Vulkan fence: %s", res)
	}
	return false
}

// Reset unsignals the fence so the next submission can signal it again.
// Resetting an unsignaled fence does nothing.
func (f *Fence) Reset() error {
	if !f.signaled {
		return nil
	}
	res, err := f.dev.Logical.ResetFence(f.Handle)
	if err := check(res, err, "reset fence"); err != nil {
		return err
	}
	f.signaled = false
	return nil
}

func (f *Fence) Destroy() {
	if f.Handle != 0 {
		f.dev.Logical.DestroyFence(f.Handle)
		f.Handle = 0
	}
}

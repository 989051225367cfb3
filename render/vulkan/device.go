package vulkan

import (
	"github.com/cockroachdb/errors"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// depthFormats are tried in order by ResolveDepthFormat.
var depthFormats = []driver.Format{
	driver.FormatD32SignedFloatS8UInt,
	driver.FormatD24UnsignedNormalizedS8UInt,
	driver.FormatD32SignedFloat,
}

const swapchainExtension = "VK_KHR_swapchain"

type Queue struct {
	Family int
	Handle driver.Queue
}

// Device owns the logical device, its queues and the command pool every
// command buffer is allocated from.
type Device struct {
	log logging.Logger

	inst     driver.Instance
	Physical driver.PhysicalDevice
	Logical  driver.Device
	Name     string

	Families QueueFamilyIndices
	Graphics Queue
	Transfer Queue
	Compute  Queue
	Present  Queue

	Pool        driver.CommandPool
	DepthFormat driver.Format
}

// CreateDevice selects a physical device able to present to surface and
// opens a logical device with one queue per distinct family.
func CreateDevice(inst driver.Instance, surface driver.Surface, log logging.Logger) (*Device, error) {
	pd, families, err := selectPhysicalDevice(inst, surface, log)
	if err != nil {
		return nil, err
	}

	info := driver.DeviceInfo{Extensions: []string{swapchainExtension}}
	for _, f := range families.Unique() {
		info.Queues = append(info.Queues, driver.QueueRequest{Family: f, Priorities: []float32{1.0}})
	}

	logical, res, err := inst.CreateDevice(pd, info)
	if err := check(res, err, "create logical device"); err != nil {
		return nil, err
	}

	dev := &Device{
		log:      log,
		inst:     inst,
		Physical: pd,
		Logical:  logical,
		Name:     inst.Properties(pd).Name,
		Families: families,
	}

	for _, q := range []struct {
		dst    *Queue
		family int
	}{
		{&dev.Graphics, families.Graphics},
		{&dev.Transfer, families.Transfer},
		{&dev.Compute, families.Compute},
		{&dev.Present, families.Present},
	} {
		handle := logical.Queue(q.family, 0)
		if handle == 0 {
			logical.Destroy()
			return nil, errors.Newf("error creating required queue for family %d", q.family)
		}
		*q.dst = Queue{Family: q.family, Handle: handle}
	}

	pool, res, err := logical.CreateCommandPool(families.Graphics, true)
	if err := check(res, err, "create command pool"); err != nil {
		logical.Destroy()
		return nil, err
	}
	dev.Pool = pool

	log.Log(logging.Debug, "Initialized new logical device")
	return dev, nil
}

func (d *Device) Destroy() {
	if d.Pool != 0 {
		d.Logical.DestroyCommandPool(d.Pool)
		d.Pool = 0
	}
	d.Logical.Destroy()
	d.log.Log(logging.Debug, "Destroyed logical device")
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	res, err := d.Logical.WaitIdle()
	return check(res, err, "wait for device idle")
}

// MemoryTypeIndex finds a memory type allowed by typeBits that has every
// flag in required. A miss is logged and reported through ok.
func (d *Device) MemoryTypeIndex(typeBits uint32, required driver.MemoryPropertyFlags) (index int, ok bool) {
	for i, mt := range d.inst.MemoryTypes(d.Physical) {
		if typeBits&(1<<uint(i)) != 0 && mt.PropertyFlags&required == required {
			return i, true
		}
	}
	d.log.Log(logging.Warn, "Unable to find suitable memory type")
	return -1, false
}

// ResolveDepthFormat picks the first depth format usable as a depth stencil
// attachment with either tiling and records it in DepthFormat.
func (d *Device) ResolveDepthFormat() (driver.Format, bool) {
	for _, f := range depthFormats {
		props := d.inst.FormatProperties(d.Physical, f)
		want := driver.FormatFeatureDepthStencilAttachment
		if props.LinearTilingFeatures&want == want || props.OptimalTilingFeatures&want == want {
			d.DepthFormat = f
			return f, true
		}
	}
	return driver.FormatUndefined, false
}

// BeginSingleUse allocates a command buffer and starts recording it for a
// one-time submission.
func (d *Device) BeginSingleUse() (*CommandBuffer, error) {
	cb, err := NewCommandBuffer(d)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true, false, false); err != nil {
		cb.Free()
		return nil, err
	}
	return cb, nil
}

// EndSingleUse submits cb to q, waits for the queue to drain and frees the
// buffer.
func (d *Device) EndSingleUse(cb *CommandBuffer, q Queue) error {
	defer cb.Free()

	if err := cb.End(); err != nil {
		return err
	}
	submitted, err := cb.Submit(q, 0, 0, 0)
	if err != nil {
		return err
	}
	if !submitted {
		return errors.New("single use command buffer was not submitted")
	}
	res, err := d.Logical.QueueWaitIdle(q.Handle)
	return check(res, err, "wait for queue idle")
}

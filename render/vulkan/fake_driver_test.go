package vulkan

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

type fakePhysical struct {
	props    driver.PhysicalDeviceProperties
	families []driver.QueueFamily
	present  []bool
	// supportResult fails every surface support query when set.
	supportResult driver.Result
}

type fakeFence struct {
	signaled bool
	// pending is set while a submission that will signal the fence has not
	// finished.
	pending bool
}

// fakeDriver is an in-memory GPU. Submissions complete when their fence is
// waited on or the queue or device goes idle. Waiting on a fence nobody
// will signal counts as a deadlock and returns Timeout.
type fakeDriver struct {
	mu     sync.Mutex
	next   uint64
	events []string
	live   map[uint64]string

	layers      []string
	physical    []fakePhysical
	caps        driver.SurfaceCapabilities
	formats     []driver.SurfaceFormat
	modes       []driver.PresentMode
	formatProps map[driver.Format]driver.FormatProperties
	memTypes    []driver.MemoryType

	instanceResult  driver.Result
	deviceResult    driver.Result
	messengerResult driver.Result

	acquireOrder   []int
	acquireResults []driver.Result
	presentResults []driver.Result
	submitResults  []driver.Result
	waitResults    []driver.Result

	instanceInfo   driver.InstanceInfo
	deviceInfo     driver.DeviceInfo
	swapchainInfos []driver.SwapchainInfo
	renderPassInfo driver.RenderPassInfo
	lastBegin      driver.RenderPassBeginInfo
	messenger      *driver.DebugMessengerInfo

	fences    map[driver.Fence]*fakeFence
	images    map[driver.Swapchain]int
	cursor    int
	deadlocks int
	acquires  int
	submits   int
	releases  int
	presents  int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		live:   map[uint64]string{},
		layers: []string{"VK_LAYER_KHRONOS_validation"},
		physical: []fakePhysical{{
			props: driver.PhysicalDeviceProperties{Name: "Fake Discrete", Type: driver.DeviceTypeDiscreteGPU},
			families: []driver.QueueFamily{
				{Flags: driver.QueueGraphics | driver.QueueCompute | driver.QueueTransfer, Count: 1},
			},
			present: []bool{true},
		}},
		caps: driver.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  driver.Extent2D{Width: 800, Height: 600},
			MinImageExtent: driver.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: driver.Extent2D{Width: 4096, Height: 4096},
		},
		formats: []driver.SurfaceFormat{{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear}},
		modes:   []driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeMailbox},
		formatProps: map[driver.Format]driver.FormatProperties{
			driver.FormatD24UnsignedNormalizedS8UInt: {OptimalTilingFeatures: driver.FormatFeatureDepthStencilAttachment},
		},
		memTypes: []driver.MemoryType{
			{PropertyFlags: driver.MemoryHostVisible | driver.MemoryHostCoherent},
			{PropertyFlags: driver.MemoryDeviceLocal},
		},
		fences: map[driver.Fence]*fakeFence{},
		images: map[driver.Swapchain]int{},
	}
}

func (f *fakeDriver) record(format string, args ...any) {
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

func (f *fakeDriver) create(kind string) uint64 {
	f.next++
	f.live[f.next] = kind
	f.record("create %s %d", kind, f.next)
	return f.next
}

func (f *fakeDriver) destroy(kind string, h uint64) {
	delete(f.live, h)
	f.record("destroy %s %d", kind, h)
}

func pop(results *[]driver.Result) driver.Result {
	if len(*results) == 0 {
		return driver.Success
	}
	res := (*results)[0]
	*results = (*results)[1:]
	return res
}

func failure(res driver.Result) error {
	if res.IsError() {
		return errors.Newf("fake driver: %s", res)
	}
	return nil
}

// Events returns a copy of the event log.
func (f *fakeDriver) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.events)
}

// eventIndex is the position of the first event starting with prefix, or
// -1.
func (f *fakeDriver) eventIndex(prefix string) int {
	return slices.IndexFunc(f.Events(), func(e string) bool { return strings.HasPrefix(e, prefix) })
}

func (f *fakeDriver) lastEventIndex(prefix string) int {
	events := f.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if strings.HasPrefix(events[i], prefix) {
			return i
		}
	}
	return -1
}

func (f *fakeDriver) countEvents(prefix string) int {
	n := 0
	for _, e := range f.Events() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeDriver) liveObjects() map[uint64]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint64]string{}
	for h, k := range f.live {
		out[h] = k
	}
	return out
}

func (f *fakeDriver) clearEvents() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// Loader

func (f *fakeDriver) AvailableLayers() ([]string, error) {
	return slices.Clone(f.layers), nil
}

func (f *fakeDriver) AvailableExtensions() ([]string, error) {
	return []string{"VK_KHR_surface", debugUtilsExtension}, nil
}

func (f *fakeDriver) CreateInstance(info driver.InstanceInfo) (driver.Instance, driver.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.instanceResult != driver.Success {
		return nil, f.instanceResult, failure(f.instanceResult)
	}
	f.instanceInfo = info
	f.create("instance")
	return &fakeInstance{f}, driver.Success, nil
}

type fakeInstance struct {
	*fakeDriver
}

func (i *fakeInstance) PhysicalDevices() ([]driver.PhysicalDevice, driver.Result, error) {
	var out []driver.PhysicalDevice
	for n := range i.physical {
		out = append(out, driver.PhysicalDevice(n+1))
	}
	return out, driver.Success, nil
}

func (i *fakeInstance) phys(pd driver.PhysicalDevice) fakePhysical {
	return i.physical[pd-1]
}

func (i *fakeInstance) Properties(pd driver.PhysicalDevice) driver.PhysicalDeviceProperties {
	return i.phys(pd).props
}

func (i *fakeInstance) QueueFamilies(pd driver.PhysicalDevice) []driver.QueueFamily {
	return i.phys(pd).families
}

func (i *fakeInstance) FormatProperties(_ driver.PhysicalDevice, format driver.Format) driver.FormatProperties {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.formatProps[format]
}

func (i *fakeInstance) MemoryTypes(driver.PhysicalDevice) []driver.MemoryType {
	return i.memTypes
}

func (i *fakeInstance) CreateDebugMessenger(info driver.DebugMessengerInfo) (driver.Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.messengerResult != driver.Success {
		return i.messengerResult, failure(i.messengerResult)
	}
	i.messenger = &info
	i.record("create messenger")
	return driver.Success, nil
}

func (i *fakeInstance) DestroyDebugMessenger() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("destroy messenger")
}

func (i *fakeInstance) CreateSurface(any) (driver.Surface, driver.Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return driver.Surface(i.create("surface")), driver.Success, nil
}

func (i *fakeInstance) DestroySurface(s driver.Surface) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.destroy("surface", uint64(s))
}

func (i *fakeInstance) SurfaceSupport(pd driver.PhysicalDevice, family int, _ driver.Surface) (bool, driver.Result, error) {
	p := i.phys(pd)
	if p.supportResult != driver.Success {
		return false, p.supportResult, failure(p.supportResult)
	}
	return p.present[family], driver.Success, nil
}

func (i *fakeInstance) SurfaceCapabilities(driver.PhysicalDevice, driver.Surface) (driver.SurfaceCapabilities, driver.Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.caps, driver.Success, nil
}

func (i *fakeInstance) SurfaceFormats(driver.PhysicalDevice, driver.Surface) ([]driver.SurfaceFormat, driver.Result, error) {
	return i.formats, driver.Success, nil
}

func (i *fakeInstance) PresentModes(driver.PhysicalDevice, driver.Surface) ([]driver.PresentMode, driver.Result, error) {
	return i.modes, driver.Success, nil
}

func (i *fakeInstance) CreateDevice(_ driver.PhysicalDevice, info driver.DeviceInfo) (driver.Device, driver.Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.deviceResult != driver.Success {
		return nil, i.deviceResult, failure(i.deviceResult)
	}
	i.deviceInfo = info
	i.create("device")
	return &fakeDevice{i.fakeDriver}, driver.Success, nil
}

func (i *fakeInstance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("destroy instance")
	for h, k := range i.live {
		if k == "instance" {
			delete(i.live, h)
		}
	}
}

type fakeDevice struct {
	*fakeDriver
}

func (d *fakeDevice) Queue(family, _ int) driver.Queue {
	return driver.Queue(100 + family)
}

// finishAll completes every pending submission.
func (d *fakeDevice) finishAll() {
	for _, fence := range d.fences {
		if fence.pending {
			fence.pending = false
			fence.signaled = true
		}
	}
}

func (d *fakeDevice) WaitIdle() (driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("wait idle")
	d.finishAll()
	return driver.Success, nil
}

func (d *fakeDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("destroy device")
	for h, k := range d.live {
		if k == "device" {
			delete(d.live, h)
		}
	}
}

func (d *fakeDevice) CreateCommandPool(int, bool) (driver.CommandPool, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return driver.CommandPool(d.create("pool")), driver.Success, nil
}

func (d *fakeDevice) DestroyCommandPool(pool driver.CommandPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy("pool", uint64(pool))
}

func (d *fakeDevice) AllocateCommandBuffers(_ driver.CommandPool, count int) ([]driver.CommandBuffer, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bufs := make([]driver.CommandBuffer, count)
	for n := range bufs {
		bufs[n] = driver.CommandBuffer(d.create("cmdbuffer"))
	}
	return bufs, driver.Success, nil
}

func (d *fakeDevice) FreeCommandBuffers(_ driver.CommandPool, bufs []driver.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range bufs {
		d.destroy("cmdbuffer", uint64(b))
	}
}

func (d *fakeDevice) BeginCommandBuffer(driver.CommandBuffer, driver.CommandBufferUsage) (driver.Result, error) {
	return driver.Success, nil
}

func (d *fakeDevice) EndCommandBuffer(driver.CommandBuffer) (driver.Result, error) {
	return driver.Success, nil
}

func (d *fakeDevice) CmdBeginRenderPass(buf driver.CommandBuffer, info driver.RenderPassBeginInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastBegin = info
	d.record("begin renderpass %d", buf)
}

func (d *fakeDevice) CmdEndRenderPass(buf driver.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("end renderpass %d", buf)
}

func (d *fakeDevice) QueueSubmit(_ driver.Queue, fence driver.Fence, info driver.SubmitInfo) (driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if res := pop(&d.submitResults); res != driver.Success {
		d.record("submit failed")
		return res, failure(res)
	}
	if len(info.CommandBuffers) == 0 {
		d.releases++
		d.record("submit empty fence %d", fence)
	} else {
		d.submits++
		d.record("submit %d fence %d", info.CommandBuffers[0], fence)
	}
	if f, ok := d.fences[fence]; ok {
		f.pending = true
	}
	return driver.Success, nil
}

func (d *fakeDevice) QueueWaitIdle(driver.Queue) (driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishAll()
	return driver.Success, nil
}

func (d *fakeDevice) CreateFence(signaled bool) (driver.Fence, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := driver.Fence(d.create("fence"))
	d.fences[h] = &fakeFence{signaled: signaled}
	return h, driver.Success, nil
}

func (d *fakeDevice) DestroyFence(f driver.Fence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.fences, f)
	d.destroy("fence", uint64(f))
}

func (d *fakeDevice) WaitForFence(f driver.Fence, _ time.Duration) (driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("wait fence %d", f)
	if res := pop(&d.waitResults); res != driver.Success {
		return res, failure(res)
	}
	fence := d.fences[f]
	switch {
	case fence.signaled:
	case fence.pending:
		fence.pending = false
		fence.signaled = true
	default:
		d.deadlocks++
		return driver.Timeout, nil
	}
	return driver.Success, nil
}

func (d *fakeDevice) ResetFence(f driver.Fence) (driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("reset fence %d", f)
	d.fences[f].signaled = false
	return driver.Success, nil
}

func (d *fakeDevice) CreateSemaphore() (driver.Semaphore, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return driver.Semaphore(d.create("semaphore")), driver.Success, nil
}

func (d *fakeDevice) DestroySemaphore(s driver.Semaphore) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy("semaphore", uint64(s))
}

func (d *fakeDevice) CreateSwapchain(info driver.SwapchainInfo) (driver.Swapchain, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.swapchainInfos = append(d.swapchainInfos, info)
	sc := driver.Swapchain(d.create("swapchain"))
	d.images[sc] = info.MinImageCount
	return sc, driver.Success, nil
}

func (d *fakeDevice) DestroySwapchain(sc driver.Swapchain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.images, sc)
	d.destroy("swapchain", uint64(sc))
}

func (d *fakeDevice) SwapchainImages(sc driver.Swapchain) ([]driver.Image, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	images := make([]driver.Image, d.images[sc])
	for n := range images {
		// Swapchain images belong to the swapchain and are never destroyed
		// by the application.
		d.next++
		images[n] = driver.Image(d.next)
	}
	return images, driver.Success, nil
}

func (d *fakeDevice) AcquireNextImage(sc driver.Swapchain, _ time.Duration, sem driver.Semaphore) (int, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := pop(&d.acquireResults)
	if res != driver.Success && res != driver.Suboptimal {
		d.record("acquire failed")
		return -1, res, failure(res)
	}
	d.acquires++
	idx := d.nextImage(sc)
	d.record("acquire %d", idx)
	return idx, res, nil
}

func (d *fakeDevice) nextImage(sc driver.Swapchain) int {
	if len(d.acquireOrder) > 0 {
		idx := d.acquireOrder[0]
		d.acquireOrder = d.acquireOrder[1:]
		return idx
	}
	idx := d.cursor % d.images[sc]
	d.cursor++
	return idx
}

func (d *fakeDevice) QueuePresent(_ driver.Queue, info driver.PresentInfo) (driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := pop(&d.presentResults)
	d.presents++
	d.record("present %d", info.ImageIndices[0])
	return res, failure(res)
}

func (d *fakeDevice) CreateImage(driver.ImageInfo) (driver.Image, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return driver.Image(d.create("image")), driver.Success, nil
}

func (d *fakeDevice) DestroyImage(img driver.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy("image", uint64(img))
}

func (d *fakeDevice) ImageMemoryRequirements(driver.Image) driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: 1 << 20, MemoryTypeBits: 0b11}
}

func (d *fakeDevice) AllocateMemory(int, int) (driver.DeviceMemory, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return driver.DeviceMemory(d.create("memory")), driver.Success, nil
}

func (d *fakeDevice) FreeMemory(mem driver.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy("memory", uint64(mem))
}

func (d *fakeDevice) BindImageMemory(driver.Image, driver.DeviceMemory) (driver.Result, error) {
	return driver.Success, nil
}

func (d *fakeDevice) CreateImageView(driver.ImageViewInfo) (driver.ImageView, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return driver.ImageView(d.create("view")), driver.Success, nil
}

func (d *fakeDevice) DestroyImageView(v driver.ImageView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy("view", uint64(v))
}

func (d *fakeDevice) CreateRenderPass(info driver.RenderPassInfo) (driver.RenderPass, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renderPassInfo = info
	return driver.RenderPass(d.create("renderpass")), driver.Success, nil
}

func (d *fakeDevice) DestroyRenderPass(rp driver.RenderPass) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy("renderpass", uint64(rp))
}

func (d *fakeDevice) CreateFramebuffer(driver.FramebufferInfo) (driver.Framebuffer, driver.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return driver.Framebuffer(d.create("framebuffer")), driver.Success, nil
}

func (d *fakeDevice) DestroyFramebuffer(fb driver.Framebuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy("framebuffer", uint64(fb))
}

// fakeWindow satisfies Window.
type fakeWindow struct {
	width, height int
}

func (w *fakeWindow) NativeHandle() any            { return w }
func (w *fakeWindow) Width() int                   { return w.width }
func (w *fakeWindow) Height() int                  { return w.height }
func (w *fakeWindow) RequiredExtensions() []string { return []string{"VK_KHR_surface"} }

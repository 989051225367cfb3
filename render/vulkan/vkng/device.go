package vkng

import (
	"time"

	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

type Device struct {
	inst      *Instance
	physical  core1_0.PhysicalDevice
	driver    core1_0.CoreDeviceDriver
	swapchain khr_swapchain.ExtensionDriver

	queueIDs map[[2]int]driver.Queue
	queues   registry[core1_0.Queue]

	pools        registry[core1_0.CommandPool]
	cmdbuffers   registry[core1_0.CommandBuffer]
	fences       registry[core1_0.Fence]
	semaphores   registry[core1_0.Semaphore]
	swapchains   registry[khr_swapchain.Swapchain]
	images       registry[core1_0.Image]
	memory       registry[core1_0.DeviceMemory]
	views        registry[core1_0.ImageView]
	renderPasses registry[core1_0.RenderPass]
	framebuffers registry[core1_0.Framebuffer]

	// swapchainImages holds the image handles owned by each swapchain. They
	// leave the registry with their swapchain.
	swapchainImages map[driver.Swapchain][]driver.Image
}

func newDevice(inst *Instance, physical core1_0.PhysicalDevice, dev core1_0.CoreDeviceDriver) *Device {
	return &Device{
		inst:            inst,
		physical:        physical,
		driver:          dev,
		swapchain:       khr_swapchain.CreateExtensionDriverFromCoreDriver(dev),
		queueIDs:        map[[2]int]driver.Queue{},
		swapchainImages: map[driver.Swapchain][]driver.Image{},
	}
}

func timeout(d time.Duration) time.Duration {
	if d == driver.NoTimeout {
		return common.NoTimeout
	}
	return d
}

func (d *Device) Queue(family, index int) driver.Queue {
	key := [2]int{family, index}
	if q, ok := d.queueIDs[key]; ok {
		return q
	}
	q := driver.Queue(d.queues.add(d.driver.GetQueue(family, index)))
	d.queueIDs[key] = q
	return q
}

func (d *Device) WaitIdle() (driver.Result, error) {
	res, err := d.driver.DeviceWaitIdle()
	return result(res), err
}

func (d *Device) Destroy() {
	d.driver.DestroyDevice(nil)
}

func (d *Device) CreateCommandPool(family int, resettable bool) (driver.CommandPool, driver.Result, error) {
	info := core1_0.CommandPoolCreateInfo{QueueFamilyIndex: family}
	if resettable {
		info.Flags = core1_0.CommandPoolCreateResetBuffer
	}
	pool, res, err := d.driver.CreateCommandPool(nil, info)
	if err != nil {
		return 0, result(res), err
	}
	return driver.CommandPool(d.pools.add(pool)), result(res), nil
}

func (d *Device) DestroyCommandPool(pool driver.CommandPool) {
	if p, ok := d.pools.remove(uint64(pool)); ok {
		d.driver.DestroyCommandPool(p, nil)
	}
}

func (d *Device) AllocateCommandBuffers(pool driver.CommandPool, count int) ([]driver.CommandBuffer, driver.Result, error) {
	buffers, res, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.pools.must(uint64(pool)),
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, result(res), err
	}
	out := make([]driver.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		out = append(out, driver.CommandBuffer(d.cmdbuffers.add(b)))
	}
	return out, result(res), nil
}

// FreeCommandBuffers returns buffers to the pool they came from; vkngwrapper
// tracks the pool itself.
func (d *Device) FreeCommandBuffers(_ driver.CommandPool, bufs []driver.CommandBuffer) {
	var buffers []core1_0.CommandBuffer
	for _, b := range bufs {
		if buf, ok := d.cmdbuffers.remove(uint64(b)); ok {
			buffers = append(buffers, buf)
		}
	}
	if len(buffers) > 0 {
		d.driver.FreeCommandBuffers(buffers...)
	}
}

func (d *Device) BeginCommandBuffer(buf driver.CommandBuffer, usage driver.CommandBufferUsage) (driver.Result, error) {
	res, err := d.driver.BeginCommandBuffer(d.cmdbuffers.must(uint64(buf)), core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageFlags(usage),
	})
	return result(res), err
}

func (d *Device) EndCommandBuffer(buf driver.CommandBuffer) (driver.Result, error) {
	res, err := d.driver.EndCommandBuffer(d.cmdbuffers.must(uint64(buf)))
	return result(res), err
}

func (d *Device) CmdBeginRenderPass(buf driver.CommandBuffer, info driver.RenderPassBeginInfo) {
	c := info.ClearColor
	err := d.driver.CmdBeginRenderPass(d.cmdbuffers.must(uint64(buf)), core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  d.renderPasses.must(uint64(info.RenderPass)),
			Framebuffer: d.framebuffers.must(uint64(info.Framebuffer)),
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: info.Area.X, Y: info.Area.Y},
				Extent: core1_0.Extent2D{Width: info.Area.Width, Height: info.Area.Height},
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{c[0], c[1], c[2], c[3]},
				core1_0.ClearValueDepthStencil{Depth: info.ClearDepth, Stencil: info.ClearStencil},
			},
		})
	if err != nil {
		d.inst.log.Log(logging.Error, "Cannot begin render pass: %v", err)
	}
}

func (d *Device) CmdEndRenderPass(buf driver.CommandBuffer) {
	d.driver.CmdEndRenderPass(d.cmdbuffers.must(uint64(buf)))
}

func (d *Device) QueueSubmit(q driver.Queue, fence driver.Fence, info driver.SubmitInfo) (driver.Result, error) {
	stages := make([]core1_0.PipelineStageFlags, 0, len(info.WaitStages))
	for _, s := range info.WaitStages {
		stages = append(stages, core1_0.PipelineStageFlags(s))
	}
	submit := core1_0.SubmitInfo{
		WaitSemaphores:   all(&d.semaphores, info.WaitSemaphores),
		WaitDstStageMask: stages,
		CommandBuffers:   all(&d.cmdbuffers, info.CommandBuffers),
		SignalSemaphores: all(&d.semaphores, info.SignalSemaphores),
	}

	var f *core1_0.Fence
	if handle, ok := d.fences.get(uint64(fence)); ok {
		f = &handle
	}
	res, err := d.driver.QueueSubmit(d.queues.must(uint64(q)), f, submit)
	return result(res), err
}

func (d *Device) QueueWaitIdle(q driver.Queue) (driver.Result, error) {
	res, err := d.driver.QueueWaitIdle(d.queues.must(uint64(q)))
	return result(res), err
}

func (d *Device) CreateFence(signaled bool) (driver.Fence, driver.Result, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	fence, res, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return 0, result(res), err
	}
	return driver.Fence(d.fences.add(fence)), result(res), nil
}

func (d *Device) DestroyFence(f driver.Fence) {
	if fence, ok := d.fences.remove(uint64(f)); ok {
		d.driver.DestroyFence(fence, nil)
	}
}

func (d *Device) WaitForFence(f driver.Fence, wait time.Duration) (driver.Result, error) {
	res, err := d.driver.WaitForFences(true, timeout(wait), d.fences.must(uint64(f)))
	return result(res), err
}

func (d *Device) ResetFence(f driver.Fence) (driver.Result, error) {
	res, err := d.driver.ResetFences(d.fences.must(uint64(f)))
	return result(res), err
}

func (d *Device) CreateSemaphore() (driver.Semaphore, driver.Result, error) {
	sem, res, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return 0, result(res), err
	}
	return driver.Semaphore(d.semaphores.add(sem)), result(res), nil
}

func (d *Device) DestroySemaphore(s driver.Semaphore) {
	if sem, ok := d.semaphores.remove(uint64(s)); ok {
		d.driver.DestroySemaphore(sem, nil)
	}
}

func (d *Device) CreateSwapchain(info driver.SwapchainInfo) (driver.Swapchain, driver.Result, error) {
	surface := d.inst.surfaces.must(uint64(info.Surface))
	caps, res, err := d.inst.surface.GetPhysicalDeviceSurfaceCapabilities(surface, d.physical)
	if err != nil {
		return 0, result(res), err
	}

	sharing := core1_0.SharingModeExclusive
	var families []int
	if info.Concurrent {
		sharing = core1_0.SharingModeConcurrent
		families = info.QueueFamilies
	}

	sc, res, err := d.swapchain.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      core1_0.Format(info.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      core1_0.Extent2D{Width: info.Extent.Width, Height: info.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageFlags(info.Usage),

		ImageSharingMode:   sharing,
		QueueFamilyIndices: families,

		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        info.Clipped,
		OldSwapchain:   d.swapchains.must(uint64(info.OldSwapchain)),
	})
	if err != nil {
		return 0, result(res), err
	}
	return driver.Swapchain(d.swapchains.add(sc)), result(res), nil
}

func (d *Device) DestroySwapchain(sc driver.Swapchain) {
	for _, img := range d.swapchainImages[sc] {
		d.images.remove(uint64(img))
	}
	delete(d.swapchainImages, sc)
	if swapchain, ok := d.swapchains.remove(uint64(sc)); ok {
		d.swapchain.DestroySwapchain(swapchain, nil)
	}
}

func (d *Device) SwapchainImages(sc driver.Swapchain) ([]driver.Image, driver.Result, error) {
	if images, ok := d.swapchainImages[sc]; ok {
		return images, driver.Success, nil
	}
	images, res, err := d.swapchain.GetSwapchainImages(d.swapchains.must(uint64(sc)))
	if err != nil {
		return nil, result(res), err
	}
	out := make([]driver.Image, 0, len(images))
	for _, img := range images {
		out = append(out, driver.Image(d.images.add(img)))
	}
	d.swapchainImages[sc] = out
	return out, result(res), nil
}

func (d *Device) AcquireNextImage(sc driver.Swapchain, wait time.Duration, sem driver.Semaphore) (int, driver.Result, error) {
	semaphore := d.semaphores.must(uint64(sem))
	index, res, err := d.swapchain.AcquireNextImage(d.swapchains.must(uint64(sc)), timeout(wait), &semaphore, nil)
	return index, result(res), err
}

func (d *Device) QueuePresent(q driver.Queue, info driver.PresentInfo) (driver.Result, error) {
	res, err := d.swapchain.QueuePresent(d.queues.must(uint64(q)), khr_swapchain.PresentInfo{
		WaitSemaphores: all(&d.semaphores, info.WaitSemaphores),
		Swapchains:     all(&d.swapchains, info.Swapchains),
		ImageIndices:   info.ImageIndices,
	})
	return result(res), err
}

func (d *Device) CreateImage(info driver.ImageInfo) (driver.Image, driver.Result, error) {
	img, res, err := d.driver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        core1_0.Format(info.Format),
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         core1_0.ImageUsageFlags(info.Usage),
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return 0, result(res), err
	}
	return driver.Image(d.images.add(img)), result(res), nil
}

func (d *Device) DestroyImage(img driver.Image) {
	if image, ok := d.images.remove(uint64(img)); ok {
		d.driver.DestroyImage(image, nil)
	}
}

func (d *Device) ImageMemoryRequirements(img driver.Image) driver.MemoryRequirements {
	reqs := d.driver.GetImageMemoryRequirements(d.images.must(uint64(img)))
	if reqs == nil {
		return driver.MemoryRequirements{}
	}
	return driver.MemoryRequirements{Size: reqs.Size, MemoryTypeBits: reqs.MemoryTypeBits}
}

func (d *Device) AllocateMemory(size, typeIndex int) (driver.DeviceMemory, driver.Result, error) {
	mem, res, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: typeIndex,
	})
	if err != nil {
		return 0, result(res), err
	}
	return driver.DeviceMemory(d.memory.add(mem)), result(res), nil
}

func (d *Device) FreeMemory(mem driver.DeviceMemory) {
	if m, ok := d.memory.remove(uint64(mem)); ok {
		d.driver.FreeMemory(m, nil)
	}
}

func (d *Device) BindImageMemory(img driver.Image, mem driver.DeviceMemory) (driver.Result, error) {
	res, err := d.driver.BindImageMemory(d.images.must(uint64(img)), d.memory.must(uint64(mem)), 0)
	return result(res), err
}

func (d *Device) CreateImageView(info driver.ImageViewInfo) (driver.ImageView, driver.Result, error) {
	view, res, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    d.images.must(uint64(info.Image)),
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(info.Format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectFlags(info.Aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return 0, result(res), err
	}
	return driver.ImageView(d.views.add(view)), result(res), nil
}

func (d *Device) DestroyImageView(view driver.ImageView) {
	if v, ok := d.views.remove(uint64(view)); ok {
		d.driver.DestroyImageView(v, nil)
	}
}

func (d *Device) CreateRenderPass(info driver.RenderPassInfo) (driver.RenderPass, driver.Result, error) {
	rp, res, err := d.driver.CreateRenderPass(nil, renderPassInfo(info))
	if err != nil {
		return 0, result(res), err
	}
	return driver.RenderPass(d.renderPasses.add(rp)), result(res), nil
}

func (d *Device) DestroyRenderPass(rp driver.RenderPass) {
	if pass, ok := d.renderPasses.remove(uint64(rp)); ok {
		d.driver.DestroyRenderPass(pass, nil)
	}
}

func (d *Device) CreateFramebuffer(info driver.FramebufferInfo) (driver.Framebuffer, driver.Result, error) {
	fb, res, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  d.renderPasses.must(uint64(info.RenderPass)),
		Attachments: all(&d.views, info.Attachments),
		Width:       info.Width,
		Height:      info.Height,
		Layers:      info.Layers,
	})
	if err != nil {
		return 0, result(res), err
	}
	return driver.Framebuffer(d.framebuffers.add(fb)), result(res), nil
}

func (d *Device) DestroyFramebuffer(fb driver.Framebuffer) {
	if f, ok := d.framebuffers.remove(uint64(fb)); ok {
		d.driver.DestroyFramebuffer(f, nil)
	}
}

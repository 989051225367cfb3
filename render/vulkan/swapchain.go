package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// NoImage is returned by AcquireNextImage when no image could be acquired.
const NoImage = -1

// Swapchain owns the presentable images, one view per image and the depth
// attachment shared by all of them. It also tracks the current
// frame-in-flight slot.
type Swapchain struct {
	dev     *Device
	log     logging.Logger
	surface driver.Surface

	Handle      driver.Swapchain
	Format      driver.SurfaceFormat
	Extent      driver.Extent2D
	PresentMode driver.PresentMode
	Images      []driver.Image
	Views       []driver.ImageView
	Depth       *Image

	MaxFrames int
	frame     int
	wantMode  driver.PresentMode
	stale     bool
}

// CreateSwapchain builds a swapchain for surface sized to width x height,
// clamped to what the surface allows.
func CreateSwapchain(dev *Device, surface driver.Surface, width, height, maxFrames int, mode driver.PresentMode) (*Swapchain, error) {
	sc := &Swapchain{
		dev:       dev,
		log:       dev.log,
		surface:   surface,
		MaxFrames: maxFrames,
		wantMode:  mode,
	}
	if err := sc.build(width, height); err != nil {
		sc.release()
		return nil, err
	}
	sc.log.Log(logging.Debug, "Initialized swapchain with %d images (%dx%d)", len(sc.Images), sc.Extent.Width, sc.Extent.Height)
	return sc, nil
}

func (sc *Swapchain) build(width, height int) error {
	inst, pd := sc.dev.inst, sc.dev.Physical

	caps, res, err := inst.SurfaceCapabilities(pd, sc.surface)
	if err := check(res, err, "query surface capabilities"); err != nil {
		return err
	}
	formats, res, err := inst.SurfaceFormats(pd, sc.surface)
	if err := check(res, err, "query surface formats"); err != nil {
		return err
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}
	modes, res, err := inst.PresentModes(pd, sc.surface)
	if err := check(res, err, "query present modes"); err != nil {
		return err
	}

	sc.Format = chooseSurfaceFormat(formats)
	sc.PresentMode = choosePresentMode(modes, sc.wantMode)
	sc.Extent = chooseExtent(caps, width, height)
	if sc.Extent.Width == 0 || sc.Extent.Height == 0 {
		return errors.Newf("cannot create a swapchain with a %dx%d extent", sc.Extent.Width, sc.Extent.Height)
	}

	info := driver.SwapchainInfo{
		Surface:       sc.surface,
		MinImageCount: imageCount(caps),
		Format:        sc.Format,
		Extent:        sc.Extent,
		Usage:         driver.ImageUsageColorAttachment,
		PresentMode:   sc.PresentMode,
		Clipped:       true,
		OldSwapchain:  sc.Handle,
	}
	if gfx, pres := sc.dev.Families.Graphics, sc.dev.Families.Present; gfx != pres {
		info.Concurrent = true
		info.QueueFamilies = []int{gfx, pres}
	}

	handle, res, err := sc.dev.Logical.CreateSwapchain(info)
	if err := check(res, err, "create swapchain"); err != nil {
		return err
	}
	if sc.Handle != 0 {
		sc.dev.Logical.DestroySwapchain(sc.Handle)
	}
	sc.Handle = handle

	images, res, err := sc.dev.Logical.SwapchainImages(handle)
	if err := check(res, err, "get swapchain images"); err != nil {
		return err
	}
	sc.Images = images

	sc.Views = make([]driver.ImageView, 0, len(images))
	for _, img := range images {
		view, res, err := sc.dev.Logical.CreateImageView(driver.ImageViewInfo{
			Image:  img,
			Format: sc.Format.Format,
			Aspect: driver.ImageAspectColor,
		})
		if err := check(res, err, "create swapchain image view"); err != nil {
			return err
		}
		sc.Views = append(sc.Views, view)
	}

	depthFormat, ok := sc.dev.ResolveDepthFormat()
	if !ok {
		return ErrNoDepthFormat
	}
	depth, err := sc.dev.CreateImage(depthFormat, sc.Extent.Width, sc.Extent.Height,
		driver.ImageUsageDepthStencilAttachment, driver.MemoryDeviceLocal, driver.ImageAspectDepth, true)
	if err != nil {
		return errors.Wrap(err, "create depth attachment")
	}
	sc.Depth = depth
	sc.stale = false
	return nil
}

// imageCount asks for one image more than the minimum, bounded by the
// maximum when the surface has one.
func imageCount(caps driver.SurfaceCapabilities) int {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// chooseExtent uses the surface's current extent unless it leaves the size
// to the swapchain (negative width), then clamps to the allowed range.
func chooseExtent(caps driver.SurfaceCapabilities, width, height int) driver.Extent2D {
	extent := driver.Extent2D{Width: width, Height: height}
	if caps.CurrentExtent.Width >= 0 {
		extent = caps.CurrentExtent
	}
	extent.Width = clamp(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
	extent.Height = clamp(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height)
	return extent
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func chooseSurfaceFormat(formats []driver.SurfaceFormat) driver.SurfaceFormat {
	for _, f := range formats {
		if f.Format == driver.FormatB8G8R8A8SRGB && f.ColorSpace == driver.ColorSpaceSRGBNonlinear {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode falls back to FIFO, which every surface supports.
func choosePresentMode(modes []driver.PresentMode, want driver.PresentMode) driver.PresentMode {
	for _, m := range modes {
		if m == want {
			return m
		}
	}
	return driver.PresentModeFIFO
}

// Frame is the current frame-in-flight slot.
func (sc *Swapchain) Frame() int {
	return sc.frame
}

func (sc *Swapchain) ImageCount() int {
	return len(sc.Images)
}

// Stale reports whether the surface changed under the swapchain and it
// must be recreated before the next frame.
func (sc *Swapchain) Stale() bool {
	return sc.stale
}

func (sc *Swapchain) MarkStale() {
	sc.stale = true
}

// AcquireNextImage returns the index of the next presentable image, or
// NoImage. sem is signaled once the image is usable.
func (sc *Swapchain) AcquireNextImage(timeout time.Duration, sem driver.Semaphore) int {
	index, res, err := sc.dev.Logical.AcquireNextImage(sc.Handle, timeout, sem)
	switch res {
	case driver.Success:
		return index
	case driver.Suboptimal:
		sc.stale = true
		return index
	case driver.ErrorOutOfDate:
		sc.log.Log(logging.Warn, "Swapchain out of date on acquire")
		sc.stale = true
		return NoImage
	}
	if err != nil {
		sc.log.Log(logging.Error, "Cannot acquire swapchain image: %v", err)
	} else {
		sc.log.Log(logging.Error, "Cannot acquire swapchain image: %s", res)
	}
	return NoImage
}

// Present queues image index for presentation once wait is signaled. The
// frame slot advances whatever the outcome.
func (sc *Swapchain) Present(q Queue, wait driver.Semaphore, index int) {
	defer sc.advance()

	res, err := sc.dev.Logical.QueuePresent(q.Handle, driver.PresentInfo{
		WaitSemaphores: []driver.Semaphore{wait},
		Swapchains:     []driver.Swapchain{sc.Handle},
		ImageIndices:   []int{index},
	})
	switch {
	case res == driver.ErrorOutOfDate || res == driver.Suboptimal:
		sc.log.Log(logging.Warn, "Swapchain %s on present, recreating", res)
		sc.stale = true
	case err != nil:
		sc.log.Log(logging.Error, "Vulkan error: %v", err)
	case res != driver.Success:
		sc.log.Log(logging.Error, "Vulkan error: %s", res)
	}
}

func (sc *Swapchain) advance() {
	sc.frame = (sc.frame + 1) % sc.MaxFrames
}

// Recreate rebuilds the swapchain for a new size. The frame slot is kept.
// The caller must make sure the device is idle.
func (sc *Swapchain) Recreate(width, height int) error {
	sc.releaseImages()
	if err := sc.build(width, height); err != nil {
		return err
	}
	sc.log.Log(logging.Debug, "Recreated swapchain with %d images (%dx%d)", len(sc.Images), sc.Extent.Width, sc.Extent.Height)
	return nil
}

func (sc *Swapchain) Destroy() {
	sc.release()
	sc.log.Log(logging.Debug, "Destroyed swapchain")
}

func (sc *Swapchain) releaseImages() {
	for _, v := range sc.Views {
		sc.dev.Logical.DestroyImageView(v)
	}
	sc.Views = nil
	sc.Images = nil
	if sc.Depth != nil {
		sc.dev.DestroyImage(sc.Depth)
		sc.Depth = nil
	}
}

func (sc *Swapchain) release() {
	sc.releaseImages()
	if sc.Handle != 0 {
		sc.dev.Logical.DestroySwapchain(sc.Handle)
		sc.Handle = 0
	}
}

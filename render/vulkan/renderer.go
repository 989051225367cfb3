// Package vulkan renders frames through a Vulkan driver. A Renderer owns the
// device, swapchain, render pass, framebuffers, command buffers and the
// fences and semaphores that keep the CPU from outrunning the GPU.
package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/loov/hrtime"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// Stats counts what the renderer has done since it was created.
type Stats struct {
	ID          uuid.UUID
	Frames      uint64
	Skipped     uint64
	Recreations uint64
	LastFrame   time.Duration
}

type Renderer struct {
	id   uuid.UUID
	log  logging.Logger
	opts Options
	win  Window

	ctx          *Context
	dev          *Device
	swapchain    *Swapchain
	renderPass   *RenderPass
	framebuffers []*Framebuffer
	cmdbuffers   []*CommandBuffer
	sync         *frameSync

	// dirty is set while the swapchain dependent objects are missing or
	// out of date.
	dirty  bool
	closed bool
	stats  Stats
}

// New creates every object needed to draw to win. Any failure is logged as
// fatal, everything created so far is released and the error is returned.
func New(win Window, loader driver.Loader, opts Options, log logging.Logger) (*Renderer, error) {
	if log == nil {
		log = logging.Discard
	}
	if err := opts.validate(); err != nil {
		log.Log(logging.Fatal, "Invalid renderer options: %v", err)
		return nil, err
	}

	start := hrtime.Now()
	r := &Renderer{
		id:   uuid.New(),
		log:  log,
		opts: opts,
		win:  win,
	}
	if err := r.init(loader); err != nil {
		r.teardown()
		log.Log(logging.Fatal, "Cannot initialize Vulkan renderer: %v", err)
		return nil, err
	}

	log.Log(logging.Info, "Finished initializing Vulkan renderer %s in %s", r.id, hrtime.Since(start))
	return r, nil
}

func (r *Renderer) init(loader driver.Loader) error {
	var err error
	if r.ctx, err = createContext(loader, r.win, r.opts, r.log); err != nil {
		return err
	}
	if r.dev, err = CreateDevice(r.ctx.Instance, r.ctx.Surface, r.log); err != nil {
		return err
	}
	r.swapchain, err = CreateSwapchain(r.dev, r.ctx.Surface, r.win.Width(), r.win.Height(),
		r.opts.MaxFramesInFlight, r.opts.PresentMode)
	if err != nil {
		return err
	}
	if err := r.createTargets(); err != nil {
		return err
	}
	r.sync, err = newFrameSync(r.dev, r.opts.MaxFramesInFlight, r.swapchain.ImageCount())
	return err
}

// createTargets builds everything that depends on the swapchain images.
func (r *Renderer) createTargets() error {
	var err error
	extent := r.swapchain.Extent
	area := mgl32.Vec4{0, 0, float32(extent.Width), float32(extent.Height)}
	r.renderPass, err = CreateRenderPass(r.dev, r.swapchain, area, r.opts.ClearColor, r.opts.ClearDepth, r.opts.ClearStencil)
	if err != nil {
		return err
	}

	if r.framebuffers, err = createFramebuffers(r.dev, r.renderPass, r.swapchain); err != nil {
		return err
	}
	r.log.Log(logging.Debug, "Created %d frame buffers", len(r.framebuffers))

	for range r.swapchain.ImageCount() {
		cb, err := NewCommandBuffer(r.dev)
		if err != nil {
			return err
		}
		r.cmdbuffers = append(r.cmdbuffers, cb)
	}
	r.log.Log(logging.Debug, "Created %d command buffers", len(r.cmdbuffers))
	return nil
}

func (r *Renderer) destroyTargets() {
	for _, cb := range r.cmdbuffers {
		cb.Free()
	}
	if len(r.cmdbuffers) > 0 {
		r.log.Log(logging.Debug, "Destroyed %d command buffers", len(r.cmdbuffers))
	}
	r.cmdbuffers = nil

	destroyFramebuffers(r.framebuffers)
	if len(r.framebuffers) > 0 {
		r.log.Log(logging.Debug, "Destroyed %d frame buffers", len(r.framebuffers))
	}
	r.framebuffers = nil

	if r.renderPass != nil {
		r.renderPass.Destroy()
		r.renderPass = nil
	}
}

// Draw renders one frame. Failures are logged and the frame is skipped.
func (r *Renderer) Draw() {
	if r.closed {
		return
	}
	start := hrtime.Now()

	if r.dirty || r.swapchain.Stale() {
		if !r.recreate() {
			r.stats.Skipped++
			return
		}
	}

	if !r.drawFrame() {
		r.stats.Skipped++
		return
	}
	r.stats.Frames++
	r.stats.LastFrame = hrtime.Since(start)
}

// Clear is reserved for clearing outside the frame loop. It does nothing.
func (r *Renderer) Clear() {}

// Resized tells the renderer the surface changed size. The swapchain is
// rebuilt before the next frame.
func (r *Renderer) Resized(width, height int) {
	r.log.Log(logging.Debug, "Surface resized to %dx%d", width, height)
	r.dirty = true
}

// recreate rebuilds the swapchain and its dependents against the current
// window size. It reports whether drawing can go ahead.
func (r *Renderer) recreate() bool {
	width, height := r.win.Width(), r.win.Height()
	if width == 0 || height == 0 {
		return false
	}

	r.dirty = true
	if err := r.dev.WaitIdle(); err != nil {
		r.log.Log(logging.Error, "Cannot recreate swapchain: %v", err)
		return false
	}

	r.destroyTargets()
	if err := r.swapchain.Recreate(width, height); err != nil {
		r.log.Log(logging.Error, "Cannot recreate swapchain: %v", err)
		return false
	}
	if err := r.createTargets(); err != nil {
		r.log.Log(logging.Error, "Cannot recreate render targets: %v", err)
		r.destroyTargets()
		return false
	}
	r.sync.resetImages(r.swapchain.ImageCount())

	r.dirty = false
	r.stats.Recreations++
	r.log.Log(logging.Info, "Recreated swapchain at %dx%d", r.swapchain.Extent.Width, r.swapchain.Extent.Height)
	return true
}

func (r *Renderer) Stats() Stats {
	s := r.stats
	s.ID = r.id
	return s
}

func (r *Renderer) ID() uuid.UUID {
	return r.id
}

// Close waits for the device to go idle and destroys everything in reverse
// creation order.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	if r.dev != nil {
		if err := r.dev.WaitIdle(); err != nil {
			r.log.Log(logging.Error, "%v", errors.Wrap(err, "close renderer"))
		}
	}
	r.teardown()
	r.log.Log(logging.Info, "Closed Vulkan renderer %s", r.id)
}

func (r *Renderer) teardown() {
	r.closed = true
	if r.sync != nil {
		r.sync.destroy()
		r.sync = nil
	}
	r.destroyTargets()
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
	if r.dev != nil {
		r.dev.Destroy()
		r.dev = nil
	}
	if r.ctx != nil {
		r.ctx.Destroy()
		r.ctx = nil
	}
}

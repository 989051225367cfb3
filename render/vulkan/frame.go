package vulkan

import (
	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// frameSync holds the per-slot semaphores and fences, plus the per-image
// aliases to the fence of whichever slot last rendered to that image.
type frameSync struct {
	dev *Device

	imageAvailable []driver.Semaphore
	renderFinished []driver.Semaphore
	inFlight       []*Fence

	// imagesInFlight entries are nil or point into inFlight.
	imagesInFlight []*Fence
}

func newFrameSync(dev *Device, maxFrames, imageCount int) (*frameSync, error) {
	s := &frameSync{dev: dev}
	for range maxFrames {
		avail, res, err := dev.Logical.CreateSemaphore()
		if err := check(res, err, "create image semaphore"); err != nil {
			s.destroy()
			return nil, err
		}
		s.imageAvailable = append(s.imageAvailable, avail)

		done, res, err := dev.Logical.CreateSemaphore()
		if err := check(res, err, "create queue semaphore"); err != nil {
			s.destroy()
			return nil, err
		}
		s.renderFinished = append(s.renderFinished, done)

		fence, err := NewFence(dev, true)
		if err != nil {
			s.destroy()
			return nil, err
		}
		s.inFlight = append(s.inFlight, fence)
	}
	s.resetImages(imageCount)
	return s, nil
}

// resetImages drops every image alias and resizes the table.
func (s *frameSync) resetImages(imageCount int) {
	s.imagesInFlight = make([]*Fence, imageCount)
}

// replaceFence swaps the fence of slot for a new signaled one. It is used
// when a submission that should have signaled the old fence never
// happened.
func (s *frameSync) replaceFence(slot int) error {
	fresh, err := NewFence(s.dev, true)
	if err != nil {
		return err
	}
	old := s.inFlight[slot]
	for i, f := range s.imagesInFlight {
		if f == old {
			s.imagesInFlight[i] = nil
		}
	}
	old.Destroy()
	s.inFlight[slot] = fresh
	return nil
}

func (s *frameSync) destroy() {
	for _, sem := range s.imageAvailable {
		s.dev.Logical.DestroySemaphore(sem)
	}
	for _, sem := range s.renderFinished {
		s.dev.Logical.DestroySemaphore(sem)
	}
	for _, f := range s.inFlight {
		f.Destroy()
	}
	s.imageAvailable, s.renderFinished, s.inFlight, s.imagesInFlight = nil, nil, nil, nil
}

// drawFrame runs one frame: wait for the slot, acquire an image, wait for
// whoever still owns that image, record, submit and present. It reports
// whether the frame reached presentation. Once an image is acquired it is
// always presented, rendered or not.
func (r *Renderer) drawFrame() bool {
	sc, sync := r.swapchain, r.sync
	frame := sc.Frame()
	fence := sync.inFlight[frame]

	if !fence.Wait(r.opts.FrameTimeout) {
		r.log.Log(logging.Warn, "In-flight fence locking failure")
		return false
	}

	index := sc.AcquireNextImage(r.opts.FrameTimeout, sync.imageAvailable[frame])
	if index == NoImage {
		return false
	}

	if owner := sync.imagesInFlight[index]; owner != nil && !owner.Wait(r.opts.FrameTimeout) {
		r.log.Log(logging.Error, "Image %d is still in flight, skipping frame", index)
		r.releaseImage(frame, index)
		return false
	}

	cb := r.cmdbuffers[index]
	defer cb.Reset()

	if err := cb.Begin(false, false, false); err != nil {
		r.log.Log(logging.Error, "Cannot record frame: %v", err)
		r.releaseImage(frame, index)
		return false
	}
	r.renderPass.SetExtent(sc.Extent.Width, sc.Extent.Height)
	cb.BeginRenderPass(r.renderPass, r.framebuffers[index])
	cb.EndRenderPass()
	if err := cb.End(); err != nil {
		r.log.Log(logging.Error, "Cannot record frame: %v", err)
		r.releaseImage(frame, index)
		return false
	}

	sync.imagesInFlight[index] = fence
	if err := fence.Reset(); err != nil {
		r.log.Log(logging.Error, "Cannot reset in-flight fence: %v", err)
		return false
	}

	submitted, err := cb.Submit(r.dev.Graphics, sync.imageAvailable[frame], sync.renderFinished[frame], fence.Handle)
	if !submitted {
		if err != nil {
			r.log.Log(logging.Error, "Frame submission failed: %v", err)
		}
		if err := sync.replaceFence(frame); err != nil {
			r.log.Log(logging.Error, "Cannot replace in-flight fence: %v", err)
			return false
		}
		r.releaseImage(frame, index)
		return false
	}

	sc.Present(r.dev.Present, sync.renderFinished[frame], index)
	return true
}

// releaseImage presents an acquired image without rendering to it. An
// empty submission waits on the acquire semaphore and signals the present
// semaphore, so neither is left with a pending signal. The slot's fence
// tracks the submission like a rendered frame.
func (r *Renderer) releaseImage(frame, index int) {
	sc, sync := r.swapchain, r.sync
	fence := sync.inFlight[frame]
	if err := fence.Reset(); err != nil {
		r.log.Log(logging.Error, "Cannot release image %d: %v", index, err)
		return
	}

	res, err := r.dev.Logical.QueueSubmit(r.dev.Graphics.Handle, fence.Handle, driver.SubmitInfo{
		WaitSemaphores:   []driver.Semaphore{sync.imageAvailable[frame]},
		WaitStages:       []driver.PipelineStageFlags{driver.PipelineStageColorAttachmentOutput},
		SignalSemaphores: []driver.Semaphore{sync.renderFinished[frame]},
	})
	if err := check(res, err, "submit image release"); err != nil {
		r.log.Log(logging.Error, "Cannot release image %d: %v", index, err)
		if err := sync.replaceFence(frame); err != nil {
			r.log.Log(logging.Error, "Cannot replace in-flight fence: %v", err)
		}
		return
	}
	sync.imagesInFlight[index] = fence
	sc.Present(r.dev.Present, sync.renderFinished[frame], index)
}

package vulkan

import (
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

type Framebuffer struct {
	dev         *Device
	Handle      driver.Framebuffer
	Attachments []driver.ImageView
}

func CreateFramebuffer(dev *Device, rp *RenderPass, width, height int, attachments []driver.ImageView) (*Framebuffer, error) {
	handle, res, err := dev.Logical.CreateFramebuffer(driver.FramebufferInfo{
		RenderPass:  rp.Handle,
		Attachments: attachments,
		Width:       width,
		Height:      height,
		Layers:      1,
	})
	if err := check(res, err, "create framebuffer"); err != nil {
		return nil, err
	}
	return &Framebuffer{dev: dev, Handle: handle, Attachments: attachments}, nil
}

func (fb *Framebuffer) Destroy() {
	if fb.Handle != 0 {
		fb.dev.Logical.DestroyFramebuffer(fb.Handle)
		fb.Handle = 0
	}
}

// createFramebuffers makes one framebuffer per swapchain image, each with
// that image's view and the shared depth view.
func createFramebuffers(dev *Device, rp *RenderPass, sc *Swapchain) ([]*Framebuffer, error) {
	fbs := make([]*Framebuffer, 0, len(sc.Views))
	for _, view := range sc.Views {
		fb, err := CreateFramebuffer(dev, rp, sc.Extent.Width, sc.Extent.Height,
			[]driver.ImageView{view, sc.Depth.View})
		if err != nil {
			destroyFramebuffers(fbs)
			return nil, err
		}
		fbs = append(fbs, fb)
	}
	return fbs, nil
}

func destroyFramebuffers(fbs []*Framebuffer) {
	for _, fb := range fbs {
		fb.Destroy()
	}
}

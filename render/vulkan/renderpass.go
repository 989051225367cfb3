package vulkan

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// RenderPass draws into a color attachment followed by a depth attachment
// in a single subpass. Area and the clear values are read every time the
// pass begins, so they can track the surface size.
type RenderPass struct {
	dev    *Device
	Handle driver.RenderPass

	// Area is x, y, width, height.
	Area         mgl32.Vec4
	ClearColor   mgl32.Vec4
	ClearDepth   float32
	ClearStencil uint32
}

func CreateRenderPass(dev *Device, sc *Swapchain, area, clearColor mgl32.Vec4, clearDepth float32, clearStencil uint32) (*RenderPass, error) {
	color := driver.AttachmentDescription{
		Format:        sc.Format.Format,
		LoadOp:        driver.LoadOpClear,
		StoreOp:       driver.StoreOpStore,
		StencilLoad:   driver.LoadOpDontCare,
		StencilStore:  driver.StoreOpDontCare,
		InitialLayout: driver.ImageLayoutUndefined,
		FinalLayout:   driver.ImageLayoutPresentSrc,
	}
	depth := driver.AttachmentDescription{
		Format:        dev.DepthFormat,
		LoadOp:        driver.LoadOpClear,
		StoreOp:       driver.StoreOpStore,
		StencilLoad:   driver.LoadOpDontCare,
		StencilStore:  driver.StoreOpDontCare,
		InitialLayout: driver.ImageLayoutUndefined,
		FinalLayout:   driver.ImageLayoutDepthStencilAttachmentOptimal,
	}

	info := driver.RenderPassInfo{
		Attachments: []driver.AttachmentDescription{color, depth},
		Subpasses: []driver.SubpassDescription{{
			ColorAttachments: []driver.AttachmentReference{{Attachment: 0, Layout: driver.ImageLayoutColorAttachmentOptimal}},
			DepthAttachment:  &driver.AttachmentReference{Attachment: 1, Layout: driver.ImageLayoutDepthStencilAttachmentOptimal},
		}},
		// Hold color writes until the previous present has let go of the
		// image.
		Dependencies: []driver.SubpassDependency{{
			SrcSubpass: driver.SubpassExternal,
			DstSubpass: 0,
			SrcStage:   driver.PipelineStageColorAttachmentOutput,
			DstStage:   driver.PipelineStageColorAttachmentOutput,
			SrcAccess:  0,
			DstAccess:  driver.AccessColorAttachmentRead | driver.AccessColorAttachmentWrite,
		}},
	}

	handle, res, err := dev.Logical.CreateRenderPass(info)
	if err := check(res, err, "create render pass"); err != nil {
		return nil, err
	}

	dev.log.Log(logging.Debug, "Initialized render pass")
	return &RenderPass{
		dev:          dev,
		Handle:       handle,
		Area:         area,
		ClearColor:   clearColor,
		ClearDepth:   clearDepth,
		ClearStencil: clearStencil,
	}, nil
}

// SetExtent resizes the render area to the full surface.
func (rp *RenderPass) SetExtent(width, height int) {
	rp.Area = mgl32.Vec4{0, 0, float32(width), float32(height)}
}

func (rp *RenderPass) beginInfo(fb driver.Framebuffer) driver.RenderPassBeginInfo {
	return driver.RenderPassBeginInfo{
		RenderPass:  rp.Handle,
		Framebuffer: fb,
		Area: driver.Rect2D{
			X:      int(rp.Area.X()),
			Y:      int(rp.Area.Y()),
			Width:  int(rp.Area.Z()),
			Height: int(rp.Area.W()),
		},
		ClearColor:   [4]float32(rp.ClearColor),
		ClearDepth:   rp.ClearDepth,
		ClearStencil: rp.ClearStencil,
	}
}

func (rp *RenderPass) Destroy() {
	if rp.Handle != 0 {
		rp.dev.Logical.DestroyRenderPass(rp.Handle)
		rp.Handle = 0
	}
	rp.dev.log.Log(logging.Debug, "Destroyed render pass")
}

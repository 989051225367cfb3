package vkng

import (
	"math"

	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// renderPassInfo converts a render pass description. Every attachment is
// single sampled.
func renderPassInfo(info driver.RenderPassInfo) core1_0.RenderPassCreateInfo {
	var out core1_0.RenderPassCreateInfo
	for _, a := range info.Attachments {
		out.Attachments = append(out.Attachments, core1_0.AttachmentDescription{
			Format:         core1_0.Format(a.Format),
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOp(a.LoadOp),
			StoreOp:        core1_0.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  core1_0.AttachmentLoadOp(a.StencilLoad),
			StencilStoreOp: core1_0.AttachmentStoreOp(a.StencilStore),
			InitialLayout:  core1_0.ImageLayout(a.InitialLayout),
			FinalLayout:    core1_0.ImageLayout(a.FinalLayout),
		})
	}

	for _, s := range info.Subpasses {
		sub := core1_0.SubpassDescription{PipelineBindPoint: core1_0.PipelineBindPointGraphics}
		for _, ref := range s.ColorAttachments {
			sub.ColorAttachments = append(sub.ColorAttachments, attachmentReference(ref))
		}
		if s.DepthAttachment != nil {
			depth := attachmentReference(*s.DepthAttachment)
			sub.DepthStencilAttachment = &depth
		}
		out.Subpasses = append(out.Subpasses, sub)
	}

	for _, d := range info.Dependencies {
		out.SubpassDependencies = append(out.SubpassDependencies, core1_0.SubpassDependency{
			SrcSubpass:    subpassIndex(d.SrcSubpass),
			DstSubpass:    subpassIndex(d.DstSubpass),
			SrcStageMask:  core1_0.PipelineStageFlags(d.SrcStage),
			DstStageMask:  core1_0.PipelineStageFlags(d.DstStage),
			SrcAccessMask: core1_0.AccessFlags(d.SrcAccess),
			DstAccessMask: core1_0.AccessFlags(d.DstAccess),
		})
	}
	return out
}

func attachmentReference(ref driver.AttachmentReference) core1_0.AttachmentReference {
	return core1_0.AttachmentReference{
		Attachment: ref.Attachment,
		Layout:     core1_0.ImageLayout(ref.Layout),
	}
}

// subpassIndex maps the driver's -1 onto VK_SUBPASS_EXTERNAL, which
// vkngwrapper carries as the unsigned value.
func subpassIndex(i int) int {
	if i == driver.SubpassExternal {
		return core1_0.SubpassExternal
	}
	return i
}

func extent(e core1_0.Extent2D) driver.Extent2D {
	return driver.Extent2D{Width: e.Width, Height: e.Height}
}

// currentExtent reports a surface whose size is decided by the swapchain
// as -1 by -1. vkngwrapper hands the 0xFFFFFFFF marker through unsigned.
func currentExtent(e core1_0.Extent2D) driver.Extent2D {
	if uint32(e.Width) == math.MaxUint32 {
		return driver.Extent2D{Width: -1, Height: -1}
	}
	return extent(e)
}

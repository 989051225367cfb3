package vulkan

import (
	"github.com/cockroachdb/errors"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// Image is a device image with its own memory and an optional view.
type Image struct {
	Handle driver.Image
	Memory driver.DeviceMemory
	View   driver.ImageView
	Format driver.Format
	Width  int
	Height int
}

// CreateImage creates an image backed by memory with memFlags. A view with
// the given aspect is added when withView is set.
func (d *Device) CreateImage(format driver.Format, width, height int, usage driver.ImageUsageFlags,
	memFlags driver.MemoryPropertyFlags, aspect driver.ImageAspectFlags, withView bool) (*Image, error) {
	img := &Image{Format: format, Width: width, Height: height}

	handle, res, err := d.Logical.CreateImage(driver.ImageInfo{
		Format: format,
		Extent: driver.Extent2D{Width: width, Height: height},
		Usage:  usage,
	})
	if err := check(res, err, "create image"); err != nil {
		return nil, err
	}
	img.Handle = handle

	reqs := d.Logical.ImageMemoryRequirements(handle)
	index, ok := d.MemoryTypeIndex(reqs.MemoryTypeBits, memFlags)
	if !ok {
		d.log.Log(logging.Error, "Required memory type not found, image not valid")
		d.DestroyImage(img)
		return nil, errors.Wrapf(ErrNoMemoryType, "image %dx%d", width, height)
	}

	mem, res, err := d.Logical.AllocateMemory(reqs.Size, index)
	if err := check(res, err, "allocate image memory"); err != nil {
		d.DestroyImage(img)
		return nil, err
	}
	img.Memory = mem

	res, err = d.Logical.BindImageMemory(handle, mem)
	if err := check(res, err, "bind image memory"); err != nil {
		d.DestroyImage(img)
		return nil, err
	}

	if withView {
		view, res, err := d.Logical.CreateImageView(driver.ImageViewInfo{Image: handle, Format: format, Aspect: aspect})
		if err := check(res, err, "create image view"); err != nil {
			d.DestroyImage(img)
			return nil, err
		}
		img.View = view
	}
	return img, nil
}

// DestroyImage releases the view, memory and image that exist.
func (d *Device) DestroyImage(img *Image) {
	if img.View != 0 {
		d.Logical.DestroyImageView(img.View)
		img.View = 0
	}
	if img.Memory != 0 {
		d.Logical.FreeMemory(img.Memory)
		img.Memory = 0
	}
	if img.Handle != 0 {
		d.Logical.DestroyImage(img.Handle)
		img.Handle = 0
	}
}

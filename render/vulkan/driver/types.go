// Package driver is the seam between the renderer and a Vulkan
// implementation. Handles are opaque integers owned by the driver; zero is
// the null handle. Enum values match the Vulkan registry so implementations
// can convert them directly.
package driver

import (
	"math"
	"time"
)

type (
	PhysicalDevice uint64
	Surface        uint64
	Queue          uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Fence          uint64
	Semaphore      uint64
	Swapchain      uint64
	Image          uint64
	ImageView      uint64
	DeviceMemory   uint64
	RenderPass     uint64
	Framebuffer    uint64
)

// NoTimeout waits forever.
const NoTimeout = time.Duration(math.MaxInt64)

type Result int32

const (
	Success                  Result = 0
	NotReady                 Result = 1
	Timeout                  Result = 2
	Incomplete               Result = 5
	ErrorOutOfHostMemory     Result = -1
	ErrorOutOfDeviceMemory   Result = -2
	ErrorInitializationFail  Result = -3
	ErrorDeviceLost          Result = -4
	ErrorLayerNotPresent     Result = -6
	ErrorExtensionNotPresent Result = -7
	ErrorIncompatibleDriver  Result = -9
	ErrorSurfaceLost         Result = -1000000000
	Suboptimal               Result = 1000001003
	ErrorOutOfDate           Result = -1000001004
)

func (r Result) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case NotReady:
		return "NOT READY"
	case Timeout:
		return "TIMEOUT"
	case Incomplete:
		return "INCOMPLETE"
	case ErrorOutOfHostMemory:
		return "OUT OF HOST MEMORY"
	case ErrorOutOfDeviceMemory:
		return "OUT OF DEVICE MEMORY"
	case ErrorInitializationFail:
		return "INITIALIZATION FAILED"
	case ErrorDeviceLost:
		return "DEVICE LOST"
	case ErrorLayerNotPresent:
		return "VALIDATION LAYER NOT PRESENT"
	case ErrorExtensionNotPresent:
		return "EXTENSION NOT PRESENT"
	case ErrorIncompatibleDriver:
		return "INCOMPATIBLE DRIVER"
	case ErrorSurfaceLost:
		return "SURFACE LOST"
	case Suboptimal:
		return "SUBOPTIMAL"
	case ErrorOutOfDate:
		return "OUT OF DATE"
	default:
		return "UNKNOWN RESULT"
	}
}

// IsError reports whether r is a failure code. Timeout and Suboptimal are
// status codes, not errors.
func (r Result) IsError() bool {
	return r < 0
}

type Format int32

const (
	FormatUndefined                   Format = 0
	FormatB8G8R8A8UnsignedNormalized  Format = 44
	FormatB8G8R8A8SRGB                Format = 50
	FormatD32SignedFloat              Format = 126
	FormatD24UnsignedNormalizedS8UInt Format = 129
	FormatD32SignedFloatS8UInt        Format = 130
)

type ColorSpace int32

const ColorSpaceSRGBNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

type DeviceType int32

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

type FormatFeatureFlags uint32

const FormatFeatureDepthStencilAttachment FormatFeatureFlags = 0x200

type MemoryPropertyFlags uint32

const (
	MemoryDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryHostVisible  MemoryPropertyFlags = 0x2
	MemoryHostCoherent MemoryPropertyFlags = 0x4
)

type ImageUsageFlags uint32

const (
	ImageUsageColorAttachment        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachment ImageUsageFlags = 0x20
)

type ImageAspectFlags uint32

const (
	ImageAspectColor   ImageAspectFlags = 0x1
	ImageAspectDepth   ImageAspectFlags = 0x2
	ImageAspectStencil ImageAspectFlags = 0x4
)

type ImageLayout int32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type LoadOp int32

const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2
)

type StoreOp int32

const (
	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1
)

type PipelineStageFlags uint32

const PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400

type AccessFlags uint32

const (
	AccessColorAttachmentRead  AccessFlags = 0x80
	AccessColorAttachmentWrite AccessFlags = 0x100
)

// SubpassExternal refers to work outside the render pass in a dependency.
const SubpassExternal = -1

type CommandBufferUsage uint32

const (
	UsageOneTimeSubmit      CommandBufferUsage = 0x1
	UsageRenderPassContinue CommandBufferUsage = 0x2
	UsageSimultaneousUse    CommandBufferUsage = 0x4
)

type DebugSeverity uint32

const (
	SeverityVerbose DebugSeverity = 0x1
	SeverityInfo    DebugSeverity = 0x10
	SeverityWarning DebugSeverity = 0x100
	SeverityError   DebugSeverity = 0x1000
)

type Extent2D struct {
	Width, Height int
}

type Rect2D struct {
	X, Y          int
	Width, Height int
}

type PhysicalDeviceProperties struct {
	Name string
	Type DeviceType
}

type QueueFamily struct {
	Flags QueueFlags
	Count int
}

type SurfaceCapabilities struct {
	MinImageCount  int
	MaxImageCount  int
	// CurrentExtent is -1 by -1 when the swapchain decides the size.
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type FormatProperties struct {
	LinearTilingFeatures  FormatFeatureFlags
	OptimalTilingFeatures FormatFeatureFlags
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     int
}

type MemoryRequirements struct {
	Size           int
	MemoryTypeBits uint32
}

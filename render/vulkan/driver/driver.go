package driver

import "time"

type InstanceInfo struct {
	AppName       string
	AppVersion    uint32
	EngineName    string
	EngineVersion uint32
	APIVersion    uint32
	Extensions    []string
	Layers        []string
}

// DebugCallback receives validation messages. The return value is passed
// back to the layer; false lets the call that triggered it proceed.
type DebugCallback func(severity DebugSeverity, message string) bool

type DebugMessengerInfo struct {
	Severity DebugSeverity
	Callback DebugCallback
}

type QueueRequest struct {
	Family     int
	Priorities []float32
}

type DeviceInfo struct {
	Queues     []QueueRequest
	Extensions []string
}

type SwapchainInfo struct {
	Surface       Surface
	MinImageCount int
	Format        SurfaceFormat
	Extent        Extent2D
	Usage         ImageUsageFlags
	QueueFamilies []int
	Concurrent    bool
	PresentMode   PresentMode
	Clipped       bool
	OldSwapchain  Swapchain
}

type ImageInfo struct {
	Format Format
	Extent Extent2D
	Usage  ImageUsageFlags
}

type ImageViewInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspectFlags
}

type AttachmentDescription struct {
	Format        Format
	LoadOp        LoadOp
	StoreOp       StoreOp
	StencilLoad   LoadOp
	StencilStore  StoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

type AttachmentReference struct {
	Attachment int
	Layout     ImageLayout
}

type SubpassDescription struct {
	ColorAttachments []AttachmentReference
	// DepthAttachment is nil when the subpass has no depth target.
	DepthAttachment *AttachmentReference
}

type SubpassDependency struct {
	SrcSubpass, DstSubpass int
	SrcStage, DstStage     PipelineStageFlags
	SrcAccess, DstAccess   AccessFlags
}

type RenderPassInfo struct {
	Attachments  []AttachmentDescription
	Subpasses    []SubpassDescription
	Dependencies []SubpassDependency
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       int
	Height      int
	Layers      int
}

type RenderPassBeginInfo struct {
	RenderPass   RenderPass
	Framebuffer  Framebuffer
	Area         Rect2D
	ClearColor   [4]float32
	ClearDepth   float32
	ClearStencil uint32
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchains     []Swapchain
	ImageIndices   []int
}

// Loader is the entry point into a Vulkan implementation.
type Loader interface {
	AvailableLayers() ([]string, error)
	AvailableExtensions() ([]string, error)
	CreateInstance(info InstanceInfo) (Instance, Result, error)
}

// Instance covers instance level calls, surface queries included.
type Instance interface {
	PhysicalDevices() ([]PhysicalDevice, Result, error)
	Properties(pd PhysicalDevice) PhysicalDeviceProperties
	QueueFamilies(pd PhysicalDevice) []QueueFamily
	FormatProperties(pd PhysicalDevice, format Format) FormatProperties
	MemoryTypes(pd PhysicalDevice) []MemoryType

	CreateDebugMessenger(info DebugMessengerInfo) (Result, error)
	DestroyDebugMessenger()

	// CreateSurface builds a presentation surface for a native window
	// handle. Which handle types are accepted depends on the implementation.
	CreateSurface(native any) (Surface, Result, error)
	DestroySurface(s Surface)
	SurfaceSupport(pd PhysicalDevice, family int, s Surface) (bool, Result, error)
	SurfaceCapabilities(pd PhysicalDevice, s Surface) (SurfaceCapabilities, Result, error)
	SurfaceFormats(pd PhysicalDevice, s Surface) ([]SurfaceFormat, Result, error)
	PresentModes(pd PhysicalDevice, s Surface) ([]PresentMode, Result, error)

	CreateDevice(pd PhysicalDevice, info DeviceInfo) (Device, Result, error)
	Destroy()
}

// Device covers logical device calls. Command recording calls do not
// return results, matching the underlying API.
type Device interface {
	Queue(family, index int) Queue
	WaitIdle() (Result, error)
	Destroy()

	CreateCommandPool(family int, resettable bool) (CommandPool, Result, error)
	DestroyCommandPool(pool CommandPool)
	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, Result, error)
	FreeCommandBuffers(pool CommandPool, bufs []CommandBuffer)
	BeginCommandBuffer(buf CommandBuffer, usage CommandBufferUsage) (Result, error)
	EndCommandBuffer(buf CommandBuffer) (Result, error)
	CmdBeginRenderPass(buf CommandBuffer, info RenderPassBeginInfo)
	CmdEndRenderPass(buf CommandBuffer)
	QueueSubmit(q Queue, fence Fence, info SubmitInfo) (Result, error)
	QueueWaitIdle(q Queue) (Result, error)

	CreateFence(signaled bool) (Fence, Result, error)
	DestroyFence(f Fence)
	WaitForFence(f Fence, timeout time.Duration) (Result, error)
	ResetFence(f Fence) (Result, error)
	CreateSemaphore() (Semaphore, Result, error)
	DestroySemaphore(s Semaphore)

	CreateSwapchain(info SwapchainInfo) (Swapchain, Result, error)
	DestroySwapchain(sc Swapchain)
	SwapchainImages(sc Swapchain) ([]Image, Result, error)
	// AcquireNextImage signals sem once the returned image is usable.
	AcquireNextImage(sc Swapchain, timeout time.Duration, sem Semaphore) (int, Result, error)
	QueuePresent(q Queue, info PresentInfo) (Result, error)

	CreateImage(info ImageInfo) (Image, Result, error)
	DestroyImage(img Image)
	ImageMemoryRequirements(img Image) MemoryRequirements
	AllocateMemory(size int, typeIndex int) (DeviceMemory, Result, error)
	FreeMemory(mem DeviceMemory)
	BindImageMemory(img Image, mem DeviceMemory) (Result, error)
	CreateImageView(info ImageViewInfo) (ImageView, Result, error)
	DestroyImageView(view ImageView)

	CreateRenderPass(info RenderPassInfo) (RenderPass, Result, error)
	DestroyRenderPass(rp RenderPass)
	CreateFramebuffer(info FramebufferInfo) (Framebuffer, Result, error)
	DestroyFramebuffer(fb Framebuffer)
}

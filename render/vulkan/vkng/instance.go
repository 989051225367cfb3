// Package vkng implements the renderer's driver seam over vkngwrapper. It is
// the only package that talks to a real Vulkan loader; surfaces come from
// SDL2 windows.
package vkng

import (
	"maps"
	"slices"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

func result(res common.VkResult) driver.Result {
	return driver.Result(res)
}

// Loader is the global driver loaded from a vkGetInstanceProcAddr.
type Loader struct {
	global core1_0.GlobalDriver
	log    logging.Logger
}

// NewLoader loads Vulkan through procAddr, usually
// sdl.VulkanGetVkGetInstanceProcAddr().
func NewLoader(procAddr unsafe.Pointer, log logging.Logger) (*Loader, error) {
	if log == nil {
		log = logging.Discard
	}
	global, err := core.CreateDriverFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load Vulkan")
	}
	return &Loader{global: global, log: log}, nil
}

func (l *Loader) AvailableLayers() ([]string, error) {
	layers, _, err := l.global.AvailableLayers()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(layers)), nil
}

func (l *Loader) AvailableExtensions() ([]string, error) {
	extensions, _, err := l.global.AvailableExtensions()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(extensions)), nil
}

// CreateInstance also enables portability enumeration when the loader offers
// it, so MoltenVK devices are listed.
func (l *Loader) CreateInstance(info driver.InstanceInfo) (driver.Instance, driver.Result, error) {
	options := core1_0.InstanceCreateInfo{
		ApplicationName:       info.AppName,
		ApplicationVersion:    common.Version(info.AppVersion),
		EngineName:            info.EngineName,
		EngineVersion:         common.Version(info.EngineVersion),
		APIVersion:            common.APIVersion(info.APIVersion),
		EnabledExtensionNames: slices.Clone(info.Extensions),
		EnabledLayerNames:     slices.Clone(info.Layers),
	}

	available, err := l.AvailableExtensions()
	if err != nil {
		return nil, driver.ErrorInitializationFail, err
	}
	if slices.Contains(available, khr_portability_enumeration.ExtensionName) {
		options.EnabledExtensionNames = append(options.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		options.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	inst, res, err := l.global.CreateInstance(nil, options)
	if err != nil {
		return nil, result(res), err
	}

	i := &Instance{
		log:     l.log,
		driver:  inst,
		surface: khr_surface.CreateExtensionDriverFromCoreDriver(inst),
	}
	if slices.Contains(info.Extensions, ext_debug_utils.ExtensionName) {
		i.debug = ext_debug_utils.CreateExtensionDriverFromCoreDriver(inst)
	}
	return i, result(res), nil
}

type Instance struct {
	log     logging.Logger
	driver  core1_0.CoreInstanceDriver
	surface khr_surface.ExtensionDriver
	debug   ext_debug_utils.ExtensionDriver

	messenger    ext_debug_utils.DebugUtilsMessenger
	hasMessenger bool

	physical    registry[core1_0.PhysicalDevice]
	physicalIDs []driver.PhysicalDevice
	surfaces    registry[khr_surface.Surface]
}

// PhysicalDevices enumerates once; later calls return the same handles.
func (i *Instance) PhysicalDevices() ([]driver.PhysicalDevice, driver.Result, error) {
	if i.physicalIDs != nil {
		return slices.Clone(i.physicalIDs), driver.Success, nil
	}
	devices, res, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, result(res), err
	}
	i.physicalIDs = make([]driver.PhysicalDevice, 0, len(devices))
	for _, pd := range devices {
		i.physicalIDs = append(i.physicalIDs, driver.PhysicalDevice(i.physical.add(pd)))
	}
	return slices.Clone(i.physicalIDs), result(res), nil
}

func (i *Instance) phys(pd driver.PhysicalDevice) core1_0.PhysicalDevice {
	return i.physical.must(uint64(pd))
}

func (i *Instance) Properties(pd driver.PhysicalDevice) driver.PhysicalDeviceProperties {
	props, err := i.driver.GetPhysicalDeviceProperties(i.phys(pd))
	if err != nil {
		i.log.Log(logging.Error, "Cannot read device properties: %v", err)
		return driver.PhysicalDeviceProperties{}
	}
	return driver.PhysicalDeviceProperties{
		Name: props.DeviceName,
		Type: driver.DeviceType(props.DriverType),
	}
}

func (i *Instance) QueueFamilies(pd driver.PhysicalDevice) []driver.QueueFamily {
	var out []driver.QueueFamily
	for _, family := range i.driver.GetPhysicalDeviceQueueFamilyProperties(i.phys(pd)) {
		out = append(out, driver.QueueFamily{
			Flags: driver.QueueFlags(family.QueueFlags),
			Count: family.QueueCount,
		})
	}
	return out
}

func (i *Instance) FormatProperties(pd driver.PhysicalDevice, format driver.Format) driver.FormatProperties {
	props := i.driver.GetPhysicalDeviceFormatProperties(i.phys(pd), core1_0.Format(format))
	if props == nil {
		return driver.FormatProperties{}
	}
	return driver.FormatProperties{
		LinearTilingFeatures:  driver.FormatFeatureFlags(props.LinearTilingFeatures),
		OptimalTilingFeatures: driver.FormatFeatureFlags(props.OptimalTilingFeatures),
	}
}

func (i *Instance) MemoryTypes(pd driver.PhysicalDevice) []driver.MemoryType {
	props := i.driver.GetPhysicalDeviceMemoryProperties(i.phys(pd))
	if props == nil {
		return nil
	}
	out := make([]driver.MemoryType, 0, len(props.MemoryTypes))
	for _, t := range props.MemoryTypes {
		out = append(out, driver.MemoryType{
			PropertyFlags: driver.MemoryPropertyFlags(t.PropertyFlags),
			HeapIndex:     t.HeapIndex,
		})
	}
	return out
}

func (i *Instance) CreateDebugMessenger(info driver.DebugMessengerInfo) (driver.Result, error) {
	if i.debug == nil {
		return driver.ErrorExtensionNotPresent, errors.Newf("%s not enabled", ext_debug_utils.ExtensionName)
	}
	callback := info.Callback
	messenger, res, err := i.debug.CreateDebugUtilsMessenger(nil, ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.DebugUtilsMessageSeverityFlags(info.Severity),
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(_ ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			return callback(driver.DebugSeverity(severity), data.Message)
		},
	})
	if err != nil {
		return result(res), err
	}
	i.messenger = messenger
	i.hasMessenger = true
	return result(res), nil
}

func (i *Instance) DestroyDebugMessenger() {
	if !i.hasMessenger {
		return
	}
	i.debug.DestroyDebugUtilsMessenger(i.messenger, nil)
	i.hasMessenger = false
}

// CreateSurface accepts a *sdl.Window.
func (i *Instance) CreateSurface(native any) (driver.Surface, driver.Result, error) {
	win, ok := native.(*sdl.Window)
	if !ok {
		return 0, driver.ErrorInitializationFail, errors.Newf("cannot create a surface for %T", native)
	}
	surface, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surface, win)
	if err != nil {
		return 0, driver.ErrorInitializationFail, err
	}
	return driver.Surface(i.surfaces.add(surface)), driver.Success, nil
}

func (i *Instance) DestroySurface(s driver.Surface) {
	if surface, ok := i.surfaces.remove(uint64(s)); ok {
		i.surface.DestroySurface(surface, nil)
	}
}

func (i *Instance) SurfaceSupport(pd driver.PhysicalDevice, family int, s driver.Surface) (bool, driver.Result, error) {
	supported, res, err := i.surface.GetPhysicalDeviceSurfaceSupport(i.surfaces.must(uint64(s)), i.phys(pd), family)
	return supported, result(res), err
}

func (i *Instance) SurfaceCapabilities(pd driver.PhysicalDevice, s driver.Surface) (driver.SurfaceCapabilities, driver.Result, error) {
	caps, res, err := i.surface.GetPhysicalDeviceSurfaceCapabilities(i.surfaces.must(uint64(s)), i.phys(pd))
	if err != nil {
		return driver.SurfaceCapabilities{}, result(res), err
	}
	return driver.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  currentExtent(caps.CurrentExtent),
		MinImageExtent: extent(caps.MinImageExtent),
		MaxImageExtent: extent(caps.MaxImageExtent),
	}, result(res), nil
}

func (i *Instance) SurfaceFormats(pd driver.PhysicalDevice, s driver.Surface) ([]driver.SurfaceFormat, driver.Result, error) {
	formats, res, err := i.surface.GetPhysicalDeviceSurfaceFormats(i.surfaces.must(uint64(s)), i.phys(pd))
	if err != nil {
		return nil, result(res), err
	}
	out := make([]driver.SurfaceFormat, 0, len(formats))
	for _, f := range formats {
		out = append(out, driver.SurfaceFormat{
			Format:     driver.Format(f.Format),
			ColorSpace: driver.ColorSpace(f.ColorSpace),
		})
	}
	return out, result(res), nil
}

func (i *Instance) PresentModes(pd driver.PhysicalDevice, s driver.Surface) ([]driver.PresentMode, driver.Result, error) {
	modes, res, err := i.surface.GetPhysicalDeviceSurfacePresentModes(i.surfaces.must(uint64(s)), i.phys(pd))
	if err != nil {
		return nil, result(res), err
	}
	out := make([]driver.PresentMode, 0, len(modes))
	for _, m := range modes {
		out = append(out, driver.PresentMode(m))
	}
	return out, result(res), nil
}

// CreateDevice adds VK_KHR_portability_subset when the device reports it.
func (i *Instance) CreateDevice(pd driver.PhysicalDevice, info driver.DeviceInfo) (driver.Device, driver.Result, error) {
	physical := i.phys(pd)

	queues := make([]core1_0.DeviceQueueCreateInfo, 0, len(info.Queues))
	for _, q := range info.Queues {
		queues = append(queues, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: q.Family,
			QueuePriorities:  q.Priorities,
		})
	}

	extensionNames := slices.Clone(info.Extensions)
	extensions, res, err := i.driver.EnumerateDeviceExtensionProperties(physical)
	if err != nil {
		return nil, result(res), err
	}
	if _, ok := extensions[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	dev, res, err := i.driver.CreateDevice(physical, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queues,
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return nil, result(res), err
	}
	return newDevice(i, physical, dev), result(res), nil
}

func (i *Instance) Destroy() {
	i.driver.DestroyInstance(nil)
}

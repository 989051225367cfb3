package vulkan

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

const (
	debugUtilsExtension = "VK_EXT_debug_utils"
	apiVersion12        = 1<<22 | 2<<12
	version100          = 1 << 22
)

// Window is what the renderer needs from the window system.
type Window interface {
	// NativeHandle is passed to the driver to create the surface.
	NativeHandle() any
	Width() int
	Height() int
	RequiredExtensions() []string
}

// Context owns the instance, the optional debug messenger and the surface.
type Context struct {
	log       logging.Logger
	Instance  driver.Instance
	Surface   driver.Surface
	Layers    []string
	messenger bool
}

// probeLayers checks that every wanted layer is reported by the loader.
func probeLayers(loader driver.Loader, wanted []string, log logging.Logger) error {
	available, err := loader.AvailableLayers()
	if err != nil {
		return errors.Wrap(err, "enumerate instance layers")
	}
	for _, name := range wanted {
		log.Log(logging.Debug, "Searching for layer: %s", name)
		if !slices.Contains(available, name) {
			log.Log(logging.Warn, "Required validation layer is missing: %s", name)
			return errors.Wrapf(ErrLayerNotPresent, "layer %s", name)
		}
	}
	log.Log(logging.Info, "All prerequisite validation layers found")
	return nil
}

func createContext(loader driver.Loader, win Window, opts Options, log logging.Logger) (*Context, error) {
	log.Log(logging.Debug, "Initializing Vulkan")
	ctx := &Context{log: log}

	extensions := slices.Clone(win.RequiredExtensions())
	if opts.EnableValidation {
		err := probeLayers(loader, opts.ValidationLayers, log)
		switch {
		case err == nil:
			ctx.Layers = opts.ValidationLayers
			extensions = append(extensions, debugUtilsExtension)
		case opts.RequireValidation:
			return nil, err
		default:
			log.Log(logging.Warn, "Continuing without validation layers")
		}
	}

	inst, res, err := loader.CreateInstance(driver.InstanceInfo{
		AppName:       opts.AppName,
		AppVersion:    version100,
		EngineName:    opts.EngineName,
		EngineVersion: version100,
		APIVersion:    apiVersion12,
		Extensions:    extensions,
		Layers:        ctx.Layers,
	})
	if err := check(res, err, "create instance"); err != nil {
		return nil, err
	}
	ctx.Instance = inst

	if len(ctx.Layers) > 0 {
		log.Log(logging.Info, "Validation layers enabled")
		res, err := inst.CreateDebugMessenger(driver.DebugMessengerInfo{
			Severity: opts.DebugSeverity,
			Callback: debugCallback(log),
		})
		if err := check(res, err, "create debug messenger"); err != nil {
			log.Log(logging.Error, "Cannot create a Vulkan debug session: %v", err)
		} else {
			ctx.messenger = true
		}
	} else {
		log.Log(logging.Info, "Validation layers disabled")
	}

	surface, res, err := inst.CreateSurface(win.NativeHandle())
	if err := check(res, err, "create rendering surface"); err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.Surface = surface
	return ctx, nil
}

// debugCallback forwards validation messages at the matching log level.
func debugCallback(log logging.Logger) driver.DebugCallback {
	return func(severity driver.DebugSeverity, message string) bool {
		switch {
		case severity&driver.SeverityError != 0:
			log.Log(logging.Error, "%s", message)
		case severity&driver.SeverityWarning != 0:
			log.Log(logging.Warn, "%s", message)
		case severity&driver.SeverityInfo != 0:
			log.Log(logging.Info, "%s", message)
		case severity&driver.SeverityVerbose != 0:
			log.Log(logging.Debug, "%s", message)
		}
		return false
	}
}

func (c *Context) HasDebugMessenger() bool {
	return c.messenger
}

func (c *Context) Destroy() {
	c.log.Log(logging.Debug, "Closing Vulkan instance")
	if c.messenger {
		c.Instance.DestroyDebugMessenger()
		c.messenger = false
	}
	if c.Surface != 0 {
		c.Instance.DestroySurface(c.Surface)
		c.Surface = 0
	}
	c.Instance.Destroy()
}

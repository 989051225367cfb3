package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

// Options configures a Renderer. Start from DefaultOptions.
type Options struct {
	AppName    string
	EngineName string

	// EnableValidation asks for ValidationLayers and a debug messenger. If a
	// layer is missing the renderer continues without them, unless
	// RequireValidation is set.
	EnableValidation  bool
	RequireValidation bool
	ValidationLayers  []string
	DebugSeverity     driver.DebugSeverity

	MaxFramesInFlight int
	ClearColor        mgl32.Vec4
	ClearDepth        float32
	ClearStencil      uint32

	// FrameTimeout bounds each in-flight fence wait.
	FrameTimeout time.Duration
	PresentMode  driver.PresentMode
}

func DefaultOptions() Options {
	return Options{
		AppName:           "RuneClient",
		EngineName:        "RuneEngine",
		ValidationLayers:  []string{"VK_LAYER_KHRONOS_validation"},
		DebugSeverity:     driver.SeverityError | driver.SeverityWarning | driver.SeverityInfo | driver.SeverityVerbose,
		MaxFramesInFlight: 2,
		ClearColor:        mgl32.Vec4{0, 0, 0, 1},
		ClearDepth:        1,
		ClearStencil:      0,
		FrameTimeout:      driver.NoTimeout,
		PresentMode:       driver.PresentModeMailbox,
	}
}

func (o Options) validate() error {
	if o.MaxFramesInFlight < 1 {
		return errors.Newf("max frames in flight must be at least 1, got %d", o.MaxFramesInFlight)
	}
	if o.EnableValidation && len(o.ValidationLayers) == 0 {
		return errors.WithHint(errors.New("validation enabled without any layers"),
			"set ValidationLayers, e.g. VK_LAYER_KHRONOS_validation")
	}
	if o.FrameTimeout <= 0 {
		return errors.Newf("frame timeout must be positive, got %s", o.FrameTimeout)
	}
	return nil
}

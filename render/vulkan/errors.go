package vulkan

import (
	"github.com/cockroachdb/errors"

	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

var (
	ErrNoSuitableDevice  = errors.New("no device meets minimum requirements for rendering")
	ErrNoDepthFormat     = errors.New("failed to find a supported depth format")
	ErrNoMemoryType      = errors.New("unable to find suitable memory type")
	ErrLayerNotPresent   = errors.New("required validation layer is missing")
	ErrIllegalTransition = errors.New("illegal command buffer state transition")
)

// resultError turns a failed driver result into an error. It returns nil for
// Success.
func resultError(res driver.Result) error {
	if res == driver.Success {
		return nil
	}
	return errors.Newf("vulkan error: %s", res)
}

// check folds a driver (result, error) pair into one error. Results the
// caller treats as success, such as Suboptimal, are passed in ok.
func check(res driver.Result, err error, what string, ok ...driver.Result) error {
	if err != nil {
		return errors.Wrapf(err, "%s: %s", what, res)
	}
	if res == driver.Success {
		return nil
	}
	for _, r := range ok {
		if res == r {
			return nil
		}
	}
	return errors.Wrap(resultError(res), what)
}

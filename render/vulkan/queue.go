package vulkan

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

const (
	familyWeight   = 20
	minDeviceScore = 80
)

// QueueFamilyIndices holds the queue family used for each kind of work. A
// missing family is -1.
type QueueFamilyIndices struct {
	Graphics int
	Transfer int
	Compute  int
	Present  int
}

func noFamilies() QueueFamilyIndices {
	return QueueFamilyIndices{Graphics: -1, Transfer: -1, Compute: -1, Present: -1}
}

// Unique lists the distinct families in graphics, transfer, compute,
// present order.
func (q QueueFamilyIndices) Unique() []int {
	var out []int
	seen := map[int]bool{}
	for _, f := range []int{q.Graphics, q.Transfer, q.Compute, q.Present} {
		if f < 0 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// findQueueFamilies resolves one family per kind of work. Present prefers
// the graphics family and transfer prefers a family without graphics, so
// the common cases share as few families as possible.
func findQueueFamilies(inst driver.Instance, pd driver.PhysicalDevice, surface driver.Surface) (QueueFamilyIndices, error) {
	indices := noFamilies()
	families := inst.QueueFamilies(pd)

	for i, fam := range families {
		if fam.Count == 0 {
			continue
		}
		if indices.Graphics < 0 && fam.Flags&driver.QueueGraphics != 0 {
			indices.Graphics = i
		}
		if indices.Compute < 0 && fam.Flags&driver.QueueCompute != 0 {
			indices.Compute = i
		}
		if fam.Flags&driver.QueueTransfer != 0 {
			dedicated := fam.Flags&driver.QueueGraphics == 0
			if indices.Transfer < 0 || (dedicated && families[indices.Transfer].Flags&driver.QueueGraphics != 0) {
				indices.Transfer = i
			}
		}

		supported, res, err := inst.SurfaceSupport(pd, i, surface)
		if err := check(res, err, "query surface support"); err != nil {
			return indices, err
		}
		if supported && (indices.Present < 0 || i == indices.Graphics) {
			indices.Present = i
		}
	}
	// A graphics family also supports transfer even if the flag is not
	// reported.
	if indices.Transfer < 0 {
		indices.Transfer = indices.Graphics
	}
	return indices, nil
}

// scoreDevice rates a physical device for rendering to surface. Only
// discrete GPUs score; each available kind of queue adds familyWeight.
func scoreDevice(inst driver.Instance, pd driver.PhysicalDevice, surface driver.Surface) (int, QueueFamilyIndices, error) {
	if inst.Properties(pd).Type != driver.DeviceTypeDiscreteGPU {
		return 0, noFamilies(), nil
	}

	indices, err := findQueueFamilies(inst, pd, surface)
	if err != nil {
		return 0, indices, err
	}

	score := 0
	for _, f := range []int{indices.Graphics, indices.Compute, indices.Transfer, indices.Present} {
		if f >= 0 {
			score += familyWeight
		}
	}
	return score, indices, nil
}

// selectPhysicalDevice returns the first device in enumeration order that
// reaches minDeviceScore. Devices are scored concurrently; a device whose
// queries fail scores zero and does not stop the others from qualifying.
func selectPhysicalDevice(inst driver.Instance, surface driver.Surface, log logging.Logger) (driver.PhysicalDevice, QueueFamilyIndices, error) {
	devices, res, err := inst.PhysicalDevices()
	if err := check(res, err, "enumerate physical devices"); err != nil {
		return 0, noFamilies(), err
	}
	if len(devices) == 0 {
		return 0, noFamilies(), errors.Wrap(ErrNoSuitableDevice, "no physical devices reported")
	}

	scores := make([]int, len(devices))
	indices := make([]QueueFamilyIndices, len(devices))

	var g errgroup.Group
	for i, pd := range devices {
		g.Go(func() error {
			score, fams, err := scoreDevice(inst, pd, surface)
			if err != nil {
				log.Log(logging.Warn, "Cannot score device %q: %v", inst.Properties(pd).Name, err)
				score, fams = 0, noFamilies()
			}
			scores[i], indices[i] = score, fams
			return nil
		})
	}
	_ = g.Wait()

	for i, pd := range devices {
		name := inst.Properties(pd).Name
		log.Log(logging.Debug, "Device %q scored %d", name, scores[i])
		if scores[i] >= minDeviceScore {
			log.Log(logging.Info, "Selected device %q", name)
			return pd, indices[i], nil
		}
	}
	return 0, noFamilies(), ErrNoSuitableDevice
}

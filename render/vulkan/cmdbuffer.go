package vulkan

import (
	"github.com/cockroachdb/errors"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

type CommandBufferState int

const (
	StateInitial CommandBufferState = iota
	StateRecording
	StateInRenderPass
	StateReady
	StateSubmitted
)

func (s CommandBufferState) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateRecording:
		return "RECORDING"
	case StateInRenderPass:
		return "IN_RENDERPASS"
	case StateReady:
		return "READY"
	case StateSubmitted:
		return "SUBMITTED"
	default:
		return "UNKNOWN"
	}
}

type cbOp int

const (
	opBegin cbOp = iota
	opBeginRenderPass
	opEndRenderPass
	opEnd
	opSubmit
	opReset
)

var opNames = [...]string{"begin", "begin render pass", "end render pass", "end", "submit", "reset"}

type edge struct {
	from, to CommandBufferState
}

// edges holds the single legal edge of every operation except reset, which
// is legal from any state.
var edges = map[cbOp]edge{
	opBegin:           {StateInitial, StateRecording},
	opBeginRenderPass: {StateRecording, StateInRenderPass},
	opEndRenderPass:   {StateInRenderPass, StateRecording},
	opEnd:             {StateRecording, StateReady},
	opSubmit:          {StateReady, StateSubmitted},
}

// transition returns the state op leads to from the given state.
func transition(from CommandBufferState, op cbOp) (CommandBufferState, error) {
	if op == opReset {
		return StateInitial, nil
	}
	e := edges[op]
	if e.from != from {
		return from, errors.Mark(
			errors.AssertionFailedf("%s: command buffer is %s, want %s", opNames[op], from, e.from),
			ErrIllegalTransition)
	}
	return e.to, nil
}

// CommandBuffer tracks the recording state of a primary command buffer.
// Recording calls made in the wrong state are programming errors and
// panic; Submit in the wrong state only logs.
type CommandBuffer struct {
	dev    *Device
	Handle driver.CommandBuffer
	state  CommandBufferState
}

// NewCommandBuffer allocates a primary command buffer from the device's
// pool.
func NewCommandBuffer(dev *Device) (*CommandBuffer, error) {
	bufs, res, err := dev.Logical.AllocateCommandBuffers(dev.Pool, 1)
	if err := check(res, err, "allocate command buffer"); err != nil {
		return nil, err
	}
	return &CommandBuffer{dev: dev, Handle: bufs[0]}, nil
}

func (cb *CommandBuffer) State() CommandBufferState {
	return cb.state
}

func (cb *CommandBuffer) Free() {
	if cb.Handle == 0 {
		return
	}
	cb.dev.Logical.FreeCommandBuffers(cb.dev.Pool, []driver.CommandBuffer{cb.Handle})
	cb.Handle = 0
}

// mustTransition validates a recording call and returns the state it leads
// to. An illegal call is logged as fatal and panics.
func (cb *CommandBuffer) mustTransition(op cbOp) CommandBufferState {
	next, err := transition(cb.state, op)
	if err != nil {
		cb.dev.log.Log(logging.Fatal, "%v", err)
		panic(err)
	}
	return next
}

func (cb *CommandBuffer) Begin(singleUse, renderPassContinue, simultaneousUse bool) error {
	next := cb.mustTransition(opBegin)

	var usage driver.CommandBufferUsage
	if singleUse {
		usage |= driver.UsageOneTimeSubmit
	}
	if renderPassContinue {
		usage |= driver.UsageRenderPassContinue
	}
	if simultaneousUse {
		usage |= driver.UsageSimultaneousUse
	}

	res, err := cb.dev.Logical.BeginCommandBuffer(cb.Handle, usage)
	if err := check(res, err, "begin command buffer"); err != nil {
		return err
	}
	cb.state = next
	return nil
}

// BeginRenderPass starts rp on fb using the render pass's current area and
// clear values.
func (cb *CommandBuffer) BeginRenderPass(rp *RenderPass, fb *Framebuffer) {
	next := cb.mustTransition(opBeginRenderPass)
	cb.dev.Logical.CmdBeginRenderPass(cb.Handle, rp.beginInfo(fb.Handle))
	cb.state = next
}

func (cb *CommandBuffer) EndRenderPass() {
	next := cb.mustTransition(opEndRenderPass)
	cb.dev.Logical.CmdEndRenderPass(cb.Handle)
	cb.state = next
}

func (cb *CommandBuffer) End() error {
	next := cb.mustTransition(opEnd)
	res, err := cb.dev.Logical.EndCommandBuffer(cb.Handle)
	if err := check(res, err, "end command buffer"); err != nil {
		return err
	}
	cb.state = next
	return nil
}

// Submit queues the buffer on q. Zero semaphores or fence are left out of
// the submission. A buffer that is not READY is logged and skipped, which
// is reported as submitted == false with a nil error.
func (cb *CommandBuffer) Submit(q Queue, wait, signal driver.Semaphore, fence driver.Fence) (submitted bool, err error) {
	next, err := transition(cb.state, opSubmit)
	if err != nil {
		cb.dev.log.Log(logging.Error, "Submit skipped: %v", err)
		return false, nil
	}

	info := driver.SubmitInfo{CommandBuffers: []driver.CommandBuffer{cb.Handle}}
	if wait != 0 {
		info.WaitSemaphores = []driver.Semaphore{wait}
		info.WaitStages = []driver.PipelineStageFlags{driver.PipelineStageColorAttachmentOutput}
	}
	if signal != 0 {
		info.SignalSemaphores = []driver.Semaphore{signal}
	}

	res, err := cb.dev.Logical.QueueSubmit(q.Handle, fence, info)
	if err := check(res, err, "submit command buffer"); err != nil {
		return false, err
	}
	cb.state = next
	return true, nil
}

// Reset returns the buffer to INITIAL from any state. The native buffer is
// reset implicitly by the next Begin since the pool allows it.
func (cb *CommandBuffer) Reset() {
	cb.state, _ = transition(cb.state, opReset)
}

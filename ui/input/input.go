// Package input dispatches key events to registered hooks.
package input

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Key is a platform scancode.
type Key int

type Action int

const (
	Release Action = iota
	Press
)

func (a Action) String() string {
	if a == Press {
		return "press"
	}
	return "release"
}

// Mode selects how keyboard input is interpreted.
type Mode int

const (
	ModeRaw Mode = iota
	ModeText
)

type Hook func(key Key, action Action)

// TextHook receives composed text while the keyboard is in ModeText.
type TextHook func(text string)

// Hooks maps keys to callbacks. The zero value is ready to use, in
// ModeRaw. Key hooks run in either mode.
type Hooks struct {
	mu    sync.RWMutex
	hooks map[Key][]Hook
	text  []TextHook
	mode  Mode
}

// Register adds fn for key. Several hooks may share a key; they run in
// registration order.
func (h *Hooks) Register(key Key, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hooks == nil {
		h.hooks = make(map[Key][]Hook)
	}
	h.hooks[key] = append(h.hooks[key], fn)
}

func (h *Hooks) Unregister(key Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.hooks, key)
}

// Dispatch runs every hook registered for key and reports whether any ran.
func (h *Hooks) Dispatch(key Key, action Action) bool {
	h.mu.RLock()
	hooks := append([]Hook(nil), h.hooks[key]...)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(key, action)
	}
	return len(hooks) > 0
}

func (h *Hooks) OnText(fn TextHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.text = append(h.text, fn)
}

// DispatchText hands text to the text hooks. Outside ModeText it is
// dropped and DispatchText returns false.
func (h *Hooks) DispatchText(text string) bool {
	h.mu.RLock()
	if h.mode != ModeText {
		h.mu.RUnlock()
		return false
	}
	hooks := append([]TextHook(nil), h.text...)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(text)
	}
	return len(hooks) > 0
}

func (h *Hooks) SetMode(mode Mode) error {
	if mode != ModeRaw && mode != ModeText {
		return errors.Newf("invalid keyboard mode %d", mode)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mode = mode
	return nil
}

func (h *Hooks) Mode() Mode {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mode
}

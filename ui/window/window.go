// Package window owns the SDL2 window the renderer draws into.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/ui/input"
)

type Window struct {
	win   *sdl.Window
	title string
	log   logging.Logger

	// Keys receives every key press and release seen by Poll.
	Keys input.Hooks

	onResize  func(width, height int)
	minimized bool
}

// New initializes SDL video and opens a resizable Vulkan window.
func New(width, height int, title string, log logging.Logger) (*Window, error) {
	if log == nil {
		log = logging.Discard
	}
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "cannot initialize SDL video")
	}

	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "cannot create window")
	}

	// Keyboard starts in raw mode.
	sdl.StopTextInput()

	log.Log(logging.Debug, "Created window %q (%dx%d)", title, width, height)
	return &Window{win: win, title: title, log: log}, nil
}

// NativeHandle is handed to the renderer for surface creation.
func (w *Window) NativeHandle() any {
	return w.win
}

func (w *Window) Width() int {
	width, _ := w.win.VulkanGetDrawableSize()
	return int(width)
}

func (w *Window) Height() int {
	_, height := w.win.VulkanGetDrawableSize()
	return int(height)
}

// RequiredExtensions lists the instance extensions SDL needs to present.
func (w *Window) RequiredExtensions() []string {
	return w.win.VulkanGetInstanceExtensions()
}

func (w *Window) Minimized() bool {
	return w.minimized || w.win.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

// SetKeyboardMode switches Keys between raw keys and composed text. SDL
// only reports text input while text mode is on.
func (w *Window) SetKeyboardMode(mode input.Mode) error {
	if err := w.Keys.SetMode(mode); err != nil {
		return err
	}
	if mode == input.ModeText {
		sdl.StartTextInput()
	} else {
		sdl.StopTextInput()
	}
	return nil
}

// OnResize sets the callback run with the new drawable size after a resize.
func (w *Window) OnResize(fn func(width, height int)) {
	w.onResize = fn
}

// Poll drains the SDL event queue. It returns false once the user asked to
// close the window.
func (w *Window) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_MINIMIZED:
				w.minimized = true
			case sdl.WINDOWEVENT_RESTORED:
				w.minimized = false
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				width, height := w.win.VulkanGetDrawableSize()
				w.minimized = width == 0 || height == 0
				if w.onResize != nil {
					w.onResize(int(width), int(height))
				}
			}
		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			action := input.Release
			if e.State == sdl.PRESSED {
				action = input.Press
			}
			w.Keys.Dispatch(input.Key(e.Keysym.Scancode), action)
		case *sdl.TextInputEvent:
			w.Keys.DispatchText(e.GetText())
		}
	}
	return true
}

func (w *Window) Destroy() {
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
	sdl.Quit()
	w.log.Log(logging.Debug, "Destroyed window %q", w.title)
}

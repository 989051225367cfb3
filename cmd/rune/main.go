// Command rune opens a window and runs the Vulkan renderer until the window
// is closed or Escape is pressed.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/GymliDanny/rune-engine/core/abort"
	"github.com/GymliDanny/rune-engine/core/logging"
	"github.com/GymliDanny/rune-engine/render/vulkan"
	"github.com/GymliDanny/rune-engine/render/vulkan/vkng"
	"github.com/GymliDanny/rune-engine/ui/input"
	"github.com/GymliDanny/rune-engine/ui/window"
)

// minimizedDelay is how long the loop sleeps while there is nothing to draw.
const minimizedDelay = 10

func main() {
	// SDL and Vulkan calls must stay on the main thread.
	runtime.LockOSThread()

	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		usage(os.Stdout)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		os.Exit(2)
	}

	log := logging.New("rune")
	if cfg.debug {
		log.EnableDebug()
	}
	if !cfg.color {
		log.DisableColor()
	}

	if err := run(cfg, log); err != nil {
		abort.Abort(log, err)
	}
}

func run(cfg config, log logging.Logger) error {
	win, err := window.New(cfg.width, cfg.height, cfg.title, log)
	if err != nil {
		return err
	}
	abort.Register(win.Destroy)

	loader, err := vkng.NewLoader(sdl.VulkanGetVkGetInstanceProcAddr(), log)
	if err != nil {
		return err
	}

	opts, err := cfg.options()
	if err != nil {
		return err
	}
	r, err := vulkan.New(win, loader, opts, log)
	if err != nil {
		return errors.Wrap(err, "cannot start renderer")
	}
	abort.Register(r.Close)

	win.OnResize(r.Resized)
	quit := false
	win.Keys.Register(input.Key(sdl.SCANCODE_ESCAPE), func(_ input.Key, action input.Action) {
		if action == input.Press {
			quit = true
		}
	})

	if cfg.text {
		if err := win.SetKeyboardMode(input.ModeText); err != nil {
			return err
		}
		win.Keys.OnText(func(text string) {
			log.Log(logging.Debug, "Text input %q", text)
		})
	}

	for !quit && win.Poll() {
		if win.Minimized() {
			sdl.Delay(minimizedDelay)
			continue
		}
		r.Draw()
	}

	stats := r.Stats()
	log.Log(logging.Info, "Drew %d frames, skipped %d, recreated the swapchain %d times",
		stats.Frames, stats.Skipped, stats.Recreations)
	r.Close()
	win.Destroy()
	return nil
}

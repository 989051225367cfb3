package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/GymliDanny/rune-engine/render/vulkan"
	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

type config struct {
	width, height     int
	title             string
	validation        bool
	requireValidation bool
	debug             bool
	color             bool
	frames            int
	present           string
	clear             string
	text              bool
}

var presentModes = map[string]driver.PresentMode{
	"immediate":    driver.PresentModeImmediate,
	"mailbox":      driver.PresentModeMailbox,
	"fifo":         driver.PresentModeFIFO,
	"fifo-relaxed": driver.PresentModeFIFORelaxed,
}

func newFlagSet(cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet("rune", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.width, "width", 800, "window width")
	fs.IntVar(&cfg.height, "height", 600, "window height")
	fs.StringVar(&cfg.title, "title", "Rune", "window title")
	fs.BoolVar(&cfg.validation, "validation", false, "enable Vulkan validation layers")
	fs.BoolVar(&cfg.requireValidation, "require-validation", false, "fail when validation layers are missing")
	fs.BoolVar(&cfg.debug, "debug", false, "log debug messages")
	fs.BoolVar(&cfg.color, "color", true, "colored log output")
	fs.IntVar(&cfg.frames, "frames", 2, "frames in flight")
	fs.StringVar(&cfg.present, "present", "mailbox", "preferred present mode: immediate, mailbox, fifo or fifo-relaxed")
	fs.StringVar(&cfg.clear, "clear", "0,0,0,1", "clear color as r,g,b,a")
	fs.BoolVar(&cfg.text, "text", false, "start the keyboard in text mode")
	return fs
}

// usage writes the flag summary to w.
func usage(w io.Writer) {
	fs := newFlagSet(&config{})
	fs.SetOutput(w)
	fmt.Fprintln(w, "Usage of rune:")
	fs.PrintDefaults()
}

// parseFlags reads the command line. -h and -help return an error
// matching flag.ErrHelp.
func parseFlags(args []string) (config, error) {
	var cfg config
	fs := newFlagSet(&cfg)

	if err := fs.Parse(args); err != nil {
		return config{}, errors.Wrap(err, "bad arguments")
	}
	if cfg.width <= 0 || cfg.height <= 0 {
		return config{}, errors.Newf("window size %dx%d must be positive", cfg.width, cfg.height)
	}
	if cfg.requireValidation {
		cfg.validation = true
	}
	return cfg, nil
}

// options builds renderer options from the flags.
func (c config) options() (vulkan.Options, error) {
	opts := vulkan.DefaultOptions()
	opts.EnableValidation = c.validation
	opts.RequireValidation = c.requireValidation
	opts.MaxFramesInFlight = c.frames

	mode, ok := presentModes[c.present]
	if !ok {
		return opts, errors.WithHint(errors.Newf("unknown present mode %q", c.present),
			"use immediate, mailbox, fifo or fifo-relaxed")
	}
	opts.PresentMode = mode

	color, err := parseColor(c.clear)
	if err != nil {
		return opts, err
	}
	opts.ClearColor = color
	return opts, nil
}

func parseColor(s string) (mgl32.Vec4, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return mgl32.Vec4{}, errors.Newf("clear color %q needs four components", s)
	}
	var v mgl32.Vec4
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return mgl32.Vec4{}, errors.Wrapf(err, "clear color component %d", i)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// Package logging is the engine's leveled log sink. Messages are formatted
// and written by g3n's util/logger console writer.
package logging

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/util/logger"
)

// Level indicates how severe a message is. A Fatal message means the caller
// is about to abort.
type Level int

const (
	Fatal Level = iota
	Error
	Warn
	Info
	Debug
)

var levelNames = [...]string{"FATAL", "ERROR", "WARN", "INFO", "DEBUG"}

func (l Level) String() string {
	if l < Fatal || l > Debug {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts the names returned by Level.String, in any case.
func ParseLevel(name string) (Level, error) {
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return Level(i), nil
		}
	}
	return Info, errors.Newf("unknown log level %q", name)
}

// Logger is what the engine's subsystems log through.
type Logger interface {
	Log(level Level, format string, args ...any)
}

type discard struct{}

func (discard) Log(Level, string, ...any) {}

// Discard drops every message.
var Discard Logger = discard{}

// Log writes leveled messages to the console. Debug messages are dropped
// until EnableDebug is called.
type Log struct {
	mu      sync.Mutex
	base    *logger.Logger
	console *logger.Console
	debug   bool
	color   bool
}

// New creates a console logger. Color output starts enabled, debug output
// disabled.
func New(name string) *Log {
	l := &Log{
		base:  logger.New(name, nil),
		color: true,
	}
	l.base.SetFormat(logger.FTIME | logger.FMICROS)
	l.base.SetLevel(logger.INFO)
	l.console = logger.NewConsole(l.color)
	l.base.AddWriter(l.console)
	return l
}

func (l *Log) Log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level == Debug && !l.debug {
		return
	}
	// g3n closes its writers and panics on FATAL, so fatal messages go out
	// at ERROR with their own tag. Aborting is up to the caller.
	if level == Fatal {
		l.base.Log(logger.ERROR, fatalPrefix+format, args...)
		return
	}
	l.base.Log(toG3N(level), format, args...)
}

func (l *Log) EnableDebug() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = true
	l.base.SetLevel(logger.DEBUG)
}

func (l *Log) DisableDebug() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = false
	l.base.SetLevel(logger.INFO)
}

func (l *Log) EnableColor() {
	l.setColor(true)
}

func (l *Log) DisableColor() {
	l.setColor(false)
}

func (l *Log) setColor(color bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.color == color {
		return
	}
	l.color = color
	l.base.RemoveWriter(l.console)
	l.console = logger.NewConsole(color)
	l.base.AddWriter(l.console)
}

const fatalPrefix = "FATAL: "

func toG3N(level Level) int {
	switch level {
	case Error:
		return logger.ERROR
	case Warn:
		return logger.WARN
	case Debug:
		return logger.DEBUG
	default:
		return logger.INFO
	}
}

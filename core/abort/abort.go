// Package abort terminates the process after a fatal engine error, running
// registered cleanup callbacks first.
package abort

import (
	"os"
	"sync"

	"github.com/GymliDanny/rune-engine/core/logging"
)

var (
	mu        sync.Mutex
	callbacks []func()

	// exit is swapped out by tests.
	exit = os.Exit
)

// Register adds fn to the callbacks run by Abort. Callbacks run in reverse
// registration order.
func Register(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	callbacks = append(callbacks, fn)
}

// Abort logs err at FATAL, runs the cleanup callbacks and exits with status 1.
func Abort(log logging.Logger, err error) {
	if log == nil {
		log = logging.Discard
	}
	if err != nil {
		log.Log(logging.Fatal, "%+v", err)
	}
	log.Log(logging.Info, "Abort called, running %d cleanup callbacks", pending())

	for fn := pop(); fn != nil; fn = pop() {
		fn()
	}
	exit(1)
}

func pending() int {
	mu.Lock()
	defer mu.Unlock()
	return len(callbacks)
}

func pop() func() {
	mu.Lock()
	defer mu.Unlock()
	if len(callbacks) == 0 {
		return nil
	}
	fn := callbacks[len(callbacks)-1]
	callbacks = callbacks[:len(callbacks)-1]
	return fn
}

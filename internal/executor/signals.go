package executor

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// SignalHandler runs a registered set of cleanup callbacks, in registration
// order, the first time the process receives SIGINT or SIGTERM, then exits.
// A second signal received while cleanup is still running hard-exits
// immediately: the first signal's cleanup sequence is not interruptible by
// a second soft signal, but a second signal does force an immediate exit
// rather than waiting on cleanup that may be stuck.
type SignalHandler struct {
	log zerolog.Logger

	mu       sync.Mutex
	cleanups []func()

	sigCh chan os.Signal
	once  sync.Once
}

// NewSignalHandler builds a SignalHandler that has not yet started
// listening; call Start to subscribe to os/signal.
func NewSignalHandler(log zerolog.Logger) *SignalHandler {
	return &SignalHandler{
		log:   log.With().Str("component", "executor.signals").Logger(),
		sigCh: make(chan os.Signal, 2),
	}
}

// OnShutdown registers fn to run, in registration order, during graceful
// shutdown. Safe to call before or after Start.
func (h *SignalHandler) OnShutdown(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, fn)
}

// Start subscribes to SIGINT and SIGTERM and spawns the handling goroutine.
// Call Stop when the caller's own shutdown path (e.g. normal command
// completion) makes signal handling moot.
func (h *SignalHandler) Start() {
	signal.Notify(h.sigCh, os.Interrupt, syscall.SIGTERM)
	go h.wait()
}

// Stop unsubscribes from os/signal without running any cleanup, for the
// normal-exit path where no shutdown occurred.
func (h *SignalHandler) Stop() {
	signal.Stop(h.sigCh)
}

func (h *SignalHandler) wait() {
	sig, ok := <-h.sigCh
	if !ok {
		return
	}

	exitCode := 0
	if sig == syscall.SIGTERM {
		exitCode = 1
	}
	h.log.Info().Str("signal", sig.String()).Msg("shutdown signal received, running cleanup")

	done := make(chan struct{})
	go func() {
		h.mu.Lock()
		cleanups := append([]func(){}, h.cleanups...)
		h.mu.Unlock()
		for _, fn := range cleanups {
			fn()
		}
		close(done)
	}()

	select {
	case <-done:
		h.log.Info().Msg("cleanup complete, exiting")
		os.Exit(exitCode)
	case second := <-h.sigCh:
		h.log.Warn().Str("signal", second.String()).Msg("second signal received during cleanup, forcing exit")
		os.Exit(1)
	}
}

// Package lifecycle binds the sidecar supervisor to the host
// application's lifetime: an asynchronous auto-start when the host comes
// up and a synchronous stop when the host's shutdown signal fires.
package lifecycle

import (
	"context"

	"github.com/yallma3/yashell/internal/logging"
	"github.com/yallma3/yashell/internal/sidecar"
)

// Hook ties supervisor start/stop to the host lifetime.
type Hook struct {
	sup       *sidecar.Supervisor
	logger    *logging.Logger
	autoStart bool
}

// NewHook creates a Hook. autoStart controls whether Run spawns the
// sidecar when the host comes up.
func NewHook(sup *sidecar.Supervisor, logger *logging.Logger, autoStart bool) *Hook {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Hook{
		sup:       sup,
		logger:    logger.WithComponent("lifecycle"),
		autoStart: autoStart,
	}
}

// Run drives the supervisor for the host's lifetime. If auto-start is
// enabled the spawn happens on a background goroutine so window creation
// is never blocked; start failures are logged and swallowed. Run then
// blocks until ctx is cancelled (the host's "about to close" signal) and
// synchronously issues the stop before returning.
func (h *Hook) Run(ctx context.Context) {
	if h.autoStart {
		go func() {
			result, err := h.sup.Start(ctx)
			switch {
			case err != nil:
				h.logger.Error("sidecar auto-start failed", "error", err.Error())
			case result == sidecar.StartAlreadyRunning:
				h.logger.Info("sidecar already running")
			}
		}()
	} else {
		h.logger.Info("sidecar auto-start disabled")
	}

	<-ctx.Done()
	h.Shutdown()
}

// Shutdown synchronously issues the terminate request. It returns once
// the kill has been issued; it does not wait for the process to finish
// exiting.
func (h *Hook) Shutdown() {
	if _, err := h.sup.Stop(); err != nil {
		h.logger.Error("failed to stop sidecar on shutdown", "error", err.Error())
	}
}

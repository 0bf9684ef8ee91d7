// Package bridge exposes supervisor operations to the GUI layer as named
// actions. The GUI invokes actions by name and receives a human-readable
// status string or a descriptive error; no error crosses this boundary as
// a host-fatal fault.
package bridge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yallma3/yashell/internal/logging"
	"github.com/yallma3/yashell/internal/sidecar"
)

// Action names the GUI layer can invoke.
const (
	ActionSpawn  = "core.spawn"
	ActionKill   = "core.kill"
	ActionStatus = "core.status"
)

// Handler executes one named action and returns a status string for
// display. Handlers must be safe for concurrent invocation.
type Handler func(ctx context.Context) (string, error)

// Dispatcher routes named actions to their handlers.
type Dispatcher struct {
	logger *logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Dispatcher{
		logger:   logger.WithComponent("bridge"),
		handlers: make(map[string]Handler),
	}
}

// Register binds an action name to a handler, replacing any previous
// binding for that name.
func (d *Dispatcher) Register(action string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[action] = handler
}

// Actions returns the registered action names, sorted.
func (d *Dispatcher) Actions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named action. Unknown names and handler failures come
// back as descriptive errors for the GUI to display; they never panic or
// terminate the host.
func (d *Dispatcher) Invoke(ctx context.Context, action string) (string, error) {
	d.mu.RLock()
	handler, ok := d.handlers[action]
	d.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown action: %s", action)
	}

	result, err := handler(ctx)
	if err != nil {
		d.logger.Warn("action failed", "action", action, "error", err.Error())
		return "", err
	}
	d.logger.Debug("action completed", "action", action, "result", result)
	return result, nil
}

// RegisterSidecarActions wires the supervisor's operations to the three
// core actions the GUI invokes.
func RegisterSidecarActions(d *Dispatcher, sup *sidecar.Supervisor) {
	d.Register(ActionSpawn, func(ctx context.Context) (string, error) {
		result, err := sup.Start(ctx)
		if err != nil {
			return "", err
		}
		if result == sidecar.StartAlreadyRunning {
			return "already running", nil
		}
		return "spawned successfully", nil
	})

	d.Register(ActionKill, func(ctx context.Context) (string, error) {
		result, err := sup.Stop()
		if err != nil {
			return "", err
		}
		if result == sidecar.StopNotRunning {
			return "not running", nil
		}
		return "killed successfully", nil
	})

	d.Register(ActionStatus, func(ctx context.Context) (string, error) {
		report := sup.Status()
		switch report.Status {
		case sidecar.StatusRunning:
			return "running", nil
		case sidecar.StatusExited:
			return fmt.Sprintf("exited with status: %d", report.ExitCode), nil
		default:
			return "not running", nil
		}
	})
}

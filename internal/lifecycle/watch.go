package lifecycle

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yallma3/yashell/internal/event"
	"github.com/yallma3/yashell/internal/logging"
	"github.com/yallma3/yashell/internal/sidecar"
)

// Watcher observes the sidecar entry file in development mode and reports
// changes, optionally restarting the sidecar so a rebuilt entry takes
// effect without relaunching the host.
type Watcher struct {
	path        string
	sup         *sidecar.Supervisor
	bus         *event.Bus
	logger      *logging.Logger
	debounce    time.Duration
	autoRestart bool

	watcher *fsnotify.Watcher
}

// WatcherConfig wires a Watcher.
type WatcherConfig struct {
	// Path is the resolved entry file to observe.
	Path string
	// Supervisor is restarted on change when AutoRestart is set.
	Supervisor *sidecar.Supervisor
	// Bus receives EntryChangedEvent notifications. Optional.
	Bus *event.Bus
	// Logger receives watcher diagnostics. Defaults to a nop logger.
	Logger *logging.Logger
	// Debounce coalesces bursts of change events (default: 500ms).
	Debounce time.Duration
	// AutoRestart restarts the sidecar after a debounced change.
	AutoRestart bool
}

// NewWatcher creates a Watcher for the given entry file. The file's
// directory is watched rather than the file itself; editors and build
// tools often replace files, which drops per-file watches.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(cfg.Path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		path:        filepath.Clean(cfg.Path),
		sup:         cfg.Supervisor,
		bus:         cfg.Bus,
		logger:      logger.WithComponent("watch"),
		debounce:    debounce,
		autoRestart: cfg.AutoRestart,
		watcher:     fsw,
	}, nil
}

// Run processes file events until ctx is cancelled. It is meant to run
// on its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err.Error())

		case <-timerC:
			timer = nil
			timerC = nil
			w.onChanged(ctx)
		}
	}
}

// onChanged handles one debounced entry change.
func (w *Watcher) onChanged(ctx context.Context) {
	w.logger.Info("sidecar entry changed", "path", w.path)
	if w.bus != nil {
		w.bus.Publish(event.NewEntryChangedEvent(w.path))
	}

	if !w.autoRestart || w.sup == nil {
		return
	}
	if _, err := w.sup.Restart(ctx); err != nil {
		w.logger.Error("sidecar restart after change failed", "error", err.Error())
	}
}

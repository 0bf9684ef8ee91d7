package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yallma3/yashell/internal/bridge"
	"github.com/yallma3/yashell/internal/config"
	"github.com/yallma3/yashell/internal/event"
	"github.com/yallma3/yashell/internal/lifecycle"
	"github.com/yallma3/yashell/internal/logging"
	"github.com/yallma3/yashell/internal/sidecar"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the shell host",
	Long: `Run the shell host: spawn and supervise the core API sidecar until
interrupted. Actions (core.spawn, core.kill, core.status) are read from
stdin, one per line, the way the GUI layer invokes them.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir(), cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	bus := event.NewBus()
	sup := sidecar.NewSupervisor(sidecar.Config{
		Resolver: sidecar.NewResolver(resolverConfig(cfg)),
		LogDir:   cfg.LogDir(),
		Logger:   logger,
		Bus:      bus,
	})

	dispatcher := bridge.NewDispatcher(logger)
	bridge.RegisterSidecarActions(dispatcher, sup)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watcher := newEntryWatcher(cfg, sup, bus, logger); watcher != nil {
		go watcher.Run(ctx)
	}

	go actionLoop(ctx, dispatcher)

	logger.Info("host started",
		"mode", cfg.Sidecar.Mode,
		"strategy", cfg.Sidecar.Strategy,
		"auto_start", cfg.AutoStart(),
		"log_dir", cfg.LogDir())

	// Blocks until the shutdown signal, then kills the sidecar.
	lifecycle.NewHook(sup, logger, cfg.AutoStart()).Run(ctx)

	logger.Info("host stopped")
	return nil
}

// resolverConfig converts the loaded configuration into the resolver's
// build-time wiring.
func resolverConfig(cfg *config.Config) sidecar.ResolverConfig {
	return sidecar.ResolverConfig{
		Mode:        sidecar.ParseMode(cfg.Sidecar.Mode),
		Strategy:    sidecar.ParseStrategy(cfg.Sidecar.Strategy),
		SidecarDir:  cfg.Sidecar.Dir,
		EntryFile:   cfg.Sidecar.Entry,
		Interpreter: cfg.Sidecar.Interpreter,
		ResourceDir: cfg.Sidecar.ResourceDir,
		FallbackDir: cfg.Sidecar.FallbackDir,
	}
}

// newEntryWatcher builds the development-mode entry watcher, or nil when
// watching is disabled or not applicable to this build.
func newEntryWatcher(cfg *config.Config, sup *sidecar.Supervisor, bus *event.Bus, logger *logging.Logger) *lifecycle.Watcher {
	if !cfg.Watch.Enabled || sidecar.ParseMode(cfg.Sidecar.Mode) != sidecar.ModeDevelopment {
		return nil
	}

	resolved, err := sidecar.NewResolver(resolverConfig(cfg)).Resolve()
	if err != nil {
		logger.Warn("entry watcher disabled", "error", err.Error())
		return nil
	}

	watcher, err := lifecycle.NewWatcher(lifecycle.WatcherConfig{
		Path:        resolved.Path,
		Supervisor:  sup,
		Bus:         bus,
		Logger:      logger,
		Debounce:    time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		AutoRestart: cfg.Watch.AutoRestart,
	})
	if err != nil {
		logger.Warn("entry watcher disabled", "error", err.Error())
		return nil
	}
	return watcher
}

// actionLoop reads action names from stdin, one per line, and prints each
// result. This is the same surface the GUI layer drives; errors are
// printed, never fatal.
func actionLoop(ctx context.Context, dispatcher *bridge.Dispatcher) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		action := strings.TrimSpace(scanner.Text())
		if action == "" {
			continue
		}

		result, err := dispatcher.Invoke(ctx, action)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(result)
	}
}

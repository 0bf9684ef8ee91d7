package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yallma3/yashell/internal/sidecar"
)

// newTestSupervisor builds a supervisor whose entry is a shell script
// with the given body, run under sh from a packaged resource layout.
func newTestSupervisor(t *testing.T, script string) *sidecar.Supervisor {
	t.Helper()

	resourceDir := t.TempDir()
	dir := filepath.Join(resourceDir, "core")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "entry.sh"), []byte(script), 0644); err != nil {
		t.Fatal(err)
	}

	return sidecar.NewSupervisor(sidecar.Config{
		Resolver: sidecar.NewResolver(sidecar.ResolverConfig{
			Mode:        sidecar.ModePackaged,
			Strategy:    sidecar.StrategyScript,
			SidecarDir:  "core",
			EntryFile:   "entry.sh",
			Interpreter: "sh",
			ResourceDir: resourceDir,
		}),
		LogDir:    filepath.Join(t.TempDir(), "logs"),
		ProbeArgs: []string{"-c", "exit 0"},
	})
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHookAutoStartAndShutdown(t *testing.T) {
	sup := newTestSupervisor(t, "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewHook(sup, nil, true).Run(ctx)
		close(done)
	}()

	waitFor(t, "auto-start to spawn the sidecar", func() bool {
		return sup.Status().Status == sidecar.StatusRunning
	})

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown signal")
	}

	if report := sup.Status(); report.Status != sidecar.StatusNotRunning {
		t.Errorf("Status after shutdown = %v, want StatusNotRunning", report.Status)
	}
}

func TestHookAutoStartDisabled(t *testing.T) {
	sup := newTestSupervisor(t, "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewHook(sup, nil, false).Run(ctx)
		close(done)
	}()

	// Give a wrongly-started spawn a moment to show up.
	time.Sleep(100 * time.Millisecond)
	if report := sup.Status(); report.Status != sidecar.StatusNotRunning {
		t.Errorf("Status = %v, want StatusNotRunning with auto-start off", report.Status)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown signal")
	}
}

func TestHookShutdownIdempotent(t *testing.T) {
	sup := newTestSupervisor(t, "sleep 30\n")
	hook := NewHook(sup, nil, false)

	// Stopping an idle supervisor must be a no-op, repeatedly.
	hook.Shutdown()
	hook.Shutdown()

	if report := sup.Status(); report.Status != sidecar.StatusNotRunning {
		t.Errorf("Status = %v, want StatusNotRunning", report.Status)
	}
}

func TestHookAutoStartFailureIsSwallowed(t *testing.T) {
	sup := newTestSupervisor(t, "sleep 30\n")
	t.Setenv("PATH", t.TempDir()) // interpreter probe will fail

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewHook(sup, nil, true).Run(ctx)
		close(done)
	}()

	// The failed auto-start must leave the supervisor idle and the host alive.
	time.Sleep(100 * time.Millisecond)
	if report := sup.Status(); report.Status != sidecar.StatusNotRunning {
		t.Errorf("Status = %v, want StatusNotRunning after failed auto-start", report.Status)
	}

	cancel()
	<-done
}

package sidecar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/yallma3/yashell/internal/event"
	"github.com/yallma3/yashell/internal/logging"
)

// LogDirEnv is the well-known environment variable that tells the sidecar
// where to write its own logs, so they land next to server.log.
const LogDirEnv = "YA_API_LOG_DIR"

// Status describes the supervisor's view of the sidecar process.
type Status int

const (
	// StatusNotRunning means no process handle is held.
	StatusNotRunning Status = iota

	// StatusRunning means a handle is held and the process has not been
	// observed to exit.
	StatusRunning

	// StatusExited means a handle is still held but the process has been
	// reaped. The handle stays populated until Stop or a host shutdown;
	// see Supervisor.Status.
	StatusExited
)

// String returns a human-readable string for the status.
func (s Status) String() string {
	switch s {
	case StatusNotRunning:
		return "not running"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Report is the result of a Status call.
type Report struct {
	Status   Status
	PID      int // valid unless StatusNotRunning
	ExitCode int // valid only for StatusExited
}

// StartResult is the outcome of a Start call that returned no error.
type StartResult int

const (
	// StartAlreadyRunning means a handle already existed; nothing was spawned.
	StartAlreadyRunning StartResult = iota

	// StartSpawned means a new sidecar process was created.
	StartSpawned
)

// StopResult is the outcome of a Stop call that returned no error.
type StopResult int

const (
	// StopNotRunning means there was no handle to kill.
	StopNotRunning StopResult = iota

	// StopKilled means the terminate signal was issued.
	StopKilled
)

// defaultProbeArgs is the trivial invocation used to verify an
// interpreter is runnable before spawning.
var defaultProbeArgs = []string{"--version"}

// exitState records a reaped process's outcome.
type exitState struct {
	code int
}

// Config wires a Supervisor.
type Config struct {
	// Resolver locates the sidecar entry point on each start attempt.
	Resolver *Resolver

	// LogDir is where server.log lives. It is exported to the child via
	// LogDirEnv so the sidecar's own logging lands in the same place.
	LogDir string

	// ProbeArgs overrides the interpreter availability probe invocation.
	// Defaults to ["--version"].
	ProbeArgs []string

	// Logger receives host-side diagnostics. Defaults to a nop logger.
	Logger *logging.Logger

	// Bus receives sidecar state-change events. Optional.
	Bus *event.Bus
}

// Supervisor owns at most one live sidecar process handle. All operations
// serialize on the same mutex, so concurrent Start calls produce exactly
// one spawn and concurrent Stop calls exactly one kill. The output drains
// run outside the lock and hold only their own stream and sink writer, so
// slow log I/O never blocks callers.
//
// Construct one Supervisor at host startup and share it by reference; it
// must not be copied.
type Supervisor struct {
	resolver  *Resolver
	logDir    string
	probeArgs []string
	logger    *logging.Logger
	bus       *event.Bus

	mu   sync.Mutex
	cmd  *exec.Cmd  // nil when no handle is held
	exit *exitState // set by the waiter once the process is reaped
	sink *Sink      // open while a handle is held
}

// NewSupervisor creates a Supervisor. The resolver and log directory are
// required; everything else has defaults.
func NewSupervisor(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	probeArgs := cfg.ProbeArgs
	if len(probeArgs) == 0 {
		probeArgs = defaultProbeArgs
	}
	return &Supervisor{
		resolver:  cfg.Resolver,
		logDir:    cfg.LogDir,
		probeArgs: probeArgs,
		logger:    logger.WithComponent("supervisor"),
		bus:       cfg.Bus,
	}
}

// Start spawns the sidecar if it is not already running.
//
// Start is idempotent: if a handle is held (even a reaped one that Stop
// has not cleared), it returns StartAlreadyRunning with no error. On any
// failure the handle stays empty and the host keeps running without a
// sidecar.
func (s *Supervisor) Start(ctx context.Context) (StartResult, error) {
	s.mu.Lock()

	if s.cmd != nil {
		s.mu.Unlock()
		return StartAlreadyRunning, nil
	}

	resolved, err := s.resolver.Resolve()
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}

	if !resolved.RunDirect() {
		if err := s.probeInterpreter(ctx, resolved.Interpreter); err != nil {
			s.mu.Unlock()
			return 0, err
		}
	}

	sink, err := OpenSink(s.logDir)
	if err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	var cmd *exec.Cmd
	if resolved.RunDirect() {
		cmd = exec.Command(resolved.Path)
	} else {
		cmd = exec.Command(resolved.Interpreter, resolved.Path)
	}
	cmd.Env = append(os.Environ(), LogDirEnv+"="+s.logDir)
	cmd.SysProcAttr = sysProcAttr()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = sink.Close()
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: stdout pipe: %v", ErrSpawnFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = sink.Close()
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: stderr pipe: %v", ErrSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		_ = sink.Close()
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, resolved.Path, err)
	}

	pid := cmd.Process.Pid
	s.cmd = cmd
	s.exit = nil
	s.sink = sink
	s.mu.Unlock()

	if err := sink.WriteStartup(pid, resolved.Path); err != nil {
		s.logger.Warn("failed to write startup line", "error", err.Error())
	}

	// Detach the two drains and a waiter that reaps the process after
	// both streams close. None of them hold the supervisor lock.
	var wg sync.WaitGroup
	wg.Add(2)
	go s.drain(&wg, stdout, sink.StreamWriter(StreamStdout))
	go s.drain(&wg, stderr, sink.StreamWriter(StreamStderr))
	go s.wait(&wg, cmd, sink, pid)

	s.logger.Info("sidecar spawned",
		"pid", pid,
		"path", resolved.Path,
		"interpreter", resolved.Interpreter,
		"log_dir", s.logDir)

	if s.bus != nil {
		s.bus.Publish(event.NewSidecarSpawnedEvent(pid, resolved.Path))
	}

	return StartSpawned, nil
}

// Stop kills the sidecar if a handle is held. It is idempotent: stopping
// an idle supervisor is a no-op success.
//
// The terminate signal is forceful and fire-and-forget; Stop does not
// wait for the process to finish exiting. If the kill syscall fails the
// handle is left as found.
func (s *Supervisor) Stop() (StopResult, error) {
	s.mu.Lock()

	if s.cmd == nil {
		s.mu.Unlock()
		return StopNotRunning, nil
	}

	cmd := s.cmd
	pid := cmd.Process.Pid
	alreadyExited := s.exit != nil

	if !alreadyExited {
		if err := terminate(cmd.Process); err != nil {
			s.mu.Unlock()
			return 0, fmt.Errorf("failed to kill sidecar: %w", err)
		}
	}

	s.cmd = nil
	s.exit = nil
	s.sink = nil
	s.mu.Unlock()

	s.logger.Info("sidecar killed", "pid", pid)
	if s.bus != nil {
		s.bus.Publish(event.NewSidecarKilledEvent(pid))
	}

	return StopKilled, nil
}

// Status reports the sidecar's state without blocking.
//
// A reaped process does not clear the handle: the report says
// StatusExited until Stop is called. A later Start therefore still
// returns StartAlreadyRunning; clearing requires an explicit Stop.
func (s *Supervisor) Status() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return Report{Status: StatusNotRunning}
	}
	if s.exit != nil {
		return Report{
			Status:   StatusExited,
			PID:      s.cmd.Process.Pid,
			ExitCode: s.exit.code,
		}
	}
	return Report{Status: StatusRunning, PID: s.cmd.Process.Pid}
}

// Restart stops the sidecar if needed and starts it again.
func (s *Supervisor) Restart(ctx context.Context) (StartResult, error) {
	if _, err := s.Stop(); err != nil {
		return 0, fmt.Errorf("failed to stop sidecar for restart: %w", err)
	}
	return s.Start(ctx)
}

// LogDir returns the directory server.log is written to.
func (s *Supervisor) LogDir() string {
	return s.logDir
}

// probeInterpreter verifies the interpreter exists on the search path and
// answers a trivial invocation. Failure means Start must not spawn.
func (s *Supervisor) probeInterpreter(ctx context.Context, interpreter string) error {
	if _, err := exec.LookPath(interpreter); err != nil {
		return fmt.Errorf("%w: %s not found on PATH: %v", ErrInterpreterUnavailable, interpreter, err)
	}

	probe := exec.CommandContext(ctx, interpreter, s.probeArgs...)
	probe.Stdout = io.Discard
	probe.Stderr = io.Discard
	if err := probe.Run(); err != nil {
		return fmt.Errorf("%w: %s probe failed: %v", ErrInterpreterUnavailable, interpreter, err)
	}
	return nil
}

// drain reads one output stream line by line until it closes, writing
// each line through the sink and echoing it to the host's diagnostics.
// Sink write failures are logged and never abort the loop.
func (s *Supervisor) drain(wg *sync.WaitGroup, r io.Reader, w *StreamWriter) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	const maxScanTokenSize = 1024 * 1024 // 1MB
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()
		if err := w.WriteLine(line); err != nil {
			s.logger.Warn("failed to write server log line",
				"stream", string(w.Stream()),
				"error", err.Error())
		}
		s.logger.Debug("sidecar output", "stream", string(w.Stream()), "line", line)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("sidecar stream closed with error",
			"stream", string(w.Stream()),
			"error", err.Error())
	}
}

// wait reaps the process after both drains finish, records the exit for
// Status, closes this spawn's sink, and publishes the exit event. The
// exit is recorded only if the handle still belongs to this spawn; a
// Stop (or Stop+Start) in the meantime means there is nothing to update.
func (s *Supervisor) wait(wg *sync.WaitGroup, cmd *exec.Cmd, sink *Sink, pid int) {
	wg.Wait()

	code := -1
	if err := cmd.Wait(); err == nil {
		code = 0
	} else if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}

	_ = sink.Close()

	s.mu.Lock()
	if s.cmd == cmd {
		s.exit = &exitState{code: code}
	}
	s.mu.Unlock()

	s.logger.Info("sidecar exited", "pid", pid, "exit_code", code)
	if s.bus != nil {
		s.bus.Publish(event.NewSidecarExitedEvent(pid, code))
	}
}

// Package event defines the event types yashell components publish to
// decouple the sidecar supervisor from the GUI layer. The GUI subscribes
// to these to reflect sidecar state without polling.
package event

import "time"

// Event is the interface all published events implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "sidecar.spawned").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides the common fields. Embed it in concrete events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// SidecarSpawnedEvent is emitted when the supervisor successfully spawns
// the core API process.
type SidecarSpawnedEvent struct {
	baseEvent
	PID  int    // OS process id of the new sidecar
	Path string // Resolved entry point it was launched from
}

// NewSidecarSpawnedEvent creates a SidecarSpawnedEvent.
func NewSidecarSpawnedEvent(pid int, path string) SidecarSpawnedEvent {
	return SidecarSpawnedEvent{
		baseEvent: newBaseEvent("sidecar.spawned"),
		PID:       pid,
		Path:      path,
	}
}

// SidecarExitedEvent is emitted when the sidecar process is observed to
// have exited, whether on its own or after a kill.
type SidecarExitedEvent struct {
	baseEvent
	PID      int // OS process id of the exited sidecar
	ExitCode int // Exit code reported by the OS (-1 when killed by signal)
}

// NewSidecarExitedEvent creates a SidecarExitedEvent.
func NewSidecarExitedEvent(pid, exitCode int) SidecarExitedEvent {
	return SidecarExitedEvent{
		baseEvent: newBaseEvent("sidecar.exited"),
		PID:       pid,
		ExitCode:  exitCode,
	}
}

// SidecarKilledEvent is emitted when a caller-initiated kill has been
// issued. The corresponding SidecarExitedEvent follows once the OS
// reports the exit.
type SidecarKilledEvent struct {
	baseEvent
	PID int // OS process id the terminate signal was sent to
}

// NewSidecarKilledEvent creates a SidecarKilledEvent.
func NewSidecarKilledEvent(pid int) SidecarKilledEvent {
	return SidecarKilledEvent{
		baseEvent: newBaseEvent("sidecar.killed"),
		PID:       pid,
	}
}

// EntryChangedEvent is emitted by the development-mode watcher when the
// sidecar entry point changes on disk.
type EntryChangedEvent struct {
	baseEvent
	Path string // Entry point that changed
}

// NewEntryChangedEvent creates an EntryChangedEvent.
func NewEntryChangedEvent(path string) EntryChangedEvent {
	return EntryChangedEvent{
		baseEvent: newBaseEvent("sidecar.entry_changed"),
		Path:      path,
	}
}

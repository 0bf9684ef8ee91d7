// Package sidecar supervises the core API companion process that runs
// alongside the yashell desktop host.
//
// The package is built from three pieces:
//
//   - Resolver locates the sidecar entry point on disk for the current
//     build mode (development vs packaged) and bundle strategy
//     (interpreter script vs native binary).
//   - Sink is the append-only server.log destination that both output
//     drains write through.
//   - Supervisor owns the single process handle and exposes the
//     Start/Stop/Status operations invoked by the GUI layer.
//
// At most one sidecar process is live at any time. All supervisor
// operations serialize on the same mutex, so concurrent Start calls
// produce exactly one spawn and concurrent Stop calls exactly one kill.
package sidecar

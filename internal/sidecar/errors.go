package sidecar

import "errors"

// Common errors returned by sidecar operations.
var (
	// ErrPathUnavailable is returned when a host directory lookup
	// (resource dir, app data dir) needed for resolution fails.
	ErrPathUnavailable = errors.New("sidecar path unavailable")

	// ErrInterpreterUnavailable is returned when the resolved entry point
	// requires an interpreter that is not installed or not runnable.
	ErrInterpreterUnavailable = errors.New("sidecar interpreter unavailable")

	// ErrSpawnFailed is returned when the OS refuses to create the process.
	ErrSpawnFailed = errors.New("sidecar spawn failed")
)

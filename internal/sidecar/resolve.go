package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Mode selects the path-resolution strategy for the current build.
type Mode int

const (
	// ModeDevelopment resolves the entry point from the run-from-source
	// sibling-directory layout next to the host's working directory.
	ModeDevelopment Mode = iota

	// ModePackaged resolves the entry point from the bundled resource
	// directory of a distributable build.
	ModePackaged
)

// String returns a human-readable string for the mode.
func (m Mode) String() string {
	switch m {
	case ModeDevelopment:
		return "development"
	case ModePackaged:
		return "packaged"
	default:
		return "unknown"
	}
}

// Strategy selects how a packaged build bundles the sidecar. It is a
// build-time configuration choice: a given build uses exactly one
// strategy and never switches between them at runtime.
type Strategy int

const (
	// StrategyScript bundles the entry file as a script that runs under
	// an external interpreter (node in the shipped configuration).
	StrategyScript Strategy = iota

	// StrategyBinary bundles a platform-suffixed native executable under
	// a bin subdirectory; no interpreter is required.
	StrategyBinary
)

// String returns a human-readable string for the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyScript:
		return "script"
	case StrategyBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration string to a Mode.
// Unrecognized values default to ModeDevelopment.
func ParseMode(s string) Mode {
	if s == "packaged" {
		return ModePackaged
	}
	return ModeDevelopment
}

// ParseStrategy converts a configuration string to a Strategy.
// Unrecognized values default to StrategyScript.
func ParseStrategy(s string) Strategy {
	if s == "binary" {
		return StrategyBinary
	}
	return StrategyScript
}

// Platform-suffixed binary names used by StrategyBinary, keyed by GOOS.
// The suffixes match the target triples the packaging step produces.
var binarySuffixes = map[string]string{
	"linux":   "-x86_64-unknown-linux-gnu",
	"windows": "-x86_64-pc-windows-msvc.exe",
	"darwin":  "-x86_64-apple-darwin",
}

// ResolvedPath is the outcome of a resolution attempt: where the entry
// point lives and how to run it. It is computed fresh on every start
// attempt and never cached.
type ResolvedPath struct {
	// Path is the absolute location of the entry point.
	Path string

	// Interpreter is the external binary the entry point must run under.
	// Empty means the entry point is executed directly.
	Interpreter string
}

// RunDirect reports whether the entry point executes without an interpreter.
func (r ResolvedPath) RunDirect() bool {
	return r.Interpreter == ""
}

// Resolver locates the sidecar entry point for a particular build
// configuration. The zero value is not usable; construct one with
// NewResolver.
type Resolver struct {
	mode     Mode
	strategy Strategy

	// sidecarDir is the name of the sidecar project directory
	// (sibling of the host project in development, subdirectory of the
	// resource dir in packaged script builds).
	sidecarDir string

	// entryFile is the script file name (StrategyScript) or the stem the
	// platform suffix is appended to (StrategyBinary).
	entryFile string

	// interpreter is the external binary scripts run under.
	interpreter string

	// resourceDir is the packaged build's bundled-asset directory.
	resourceDir string

	// fallbackDir is the platform-specific extraction location some OS
	// packaging formats unpack resources to.
	fallbackDir string

	// getwd is injectable for tests; defaults to os.Getwd.
	getwd func() (string, error)

	// goos is injectable for tests; defaults to runtime.GOOS.
	goos string
}

// ResolverConfig carries the build-time configuration for a Resolver.
type ResolverConfig struct {
	Mode        Mode
	Strategy    Strategy
	SidecarDir  string
	EntryFile   string
	Interpreter string
	ResourceDir string
	FallbackDir string
}

// NewResolver creates a Resolver for the given build configuration.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		mode:        cfg.Mode,
		strategy:    cfg.Strategy,
		sidecarDir:  cfg.SidecarDir,
		entryFile:   cfg.EntryFile,
		interpreter: cfg.Interpreter,
		resourceDir: cfg.ResourceDir,
		fallbackDir: cfg.FallbackDir,
		getwd:       os.Getwd,
		goos:        runtime.GOOS,
	}
}

// Resolve produces the entry-point location for the configured build.
//
// Development mode assumes the fixed sibling-directory project layout
// and does not search further; a wrong path surfaces later as a spawn
// error. Packaged script builds try the resource directory, then the
// platform fallback directory, then fall back to the resource-directory
// path unchecked, so resolution itself never fails on a missing file.
//
// Only host directory lookups can error, reported as ErrPathUnavailable.
func (r *Resolver) Resolve() (ResolvedPath, error) {
	switch r.mode {
	case ModeDevelopment:
		return r.resolveDevelopment()
	case ModePackaged:
		if r.strategy == StrategyBinary {
			return r.resolveBinary()
		}
		return r.resolvePackagedScript()
	default:
		return ResolvedPath{}, fmt.Errorf("%w: unknown build mode %d", ErrPathUnavailable, r.mode)
	}
}

// resolveDevelopment builds <parent-of-cwd>/<sidecar-dir>/<entry-file>.
func (r *Resolver) resolveDevelopment() (ResolvedPath, error) {
	cwd, err := r.getwd()
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("%w: failed to get working directory: %v", ErrPathUnavailable, err)
	}
	parent := filepath.Dir(cwd)
	return ResolvedPath{
		Path:        filepath.Join(parent, r.sidecarDir, r.entryFile),
		Interpreter: r.interpreter,
	}, nil
}

// resolvePackagedScript tries the bundled resource path, then the
// platform fallback, then returns the bundled path unchecked.
func (r *Resolver) resolvePackagedScript() (ResolvedPath, error) {
	if r.resourceDir == "" {
		return ResolvedPath{}, fmt.Errorf("%w: resource directory not configured", ErrPathUnavailable)
	}

	bundled := filepath.Join(r.resourceDir, r.sidecarDir, r.entryFile)
	if fileExists(bundled) {
		return ResolvedPath{Path: bundled, Interpreter: r.interpreter}, nil
	}

	if r.fallbackDir != "" {
		fallback := filepath.Join(r.fallbackDir, r.sidecarDir, r.entryFile)
		if fileExists(fallback) {
			return ResolvedPath{Path: fallback, Interpreter: r.interpreter}, nil
		}
	}

	// Best effort: neither candidate exists on disk. Hand back the bundled
	// path anyway and let the spawn report the real failure.
	return ResolvedPath{Path: bundled, Interpreter: r.interpreter}, nil
}

// resolveBinary builds <resourceDir>/bin/<entry-stem><platform-suffix>.
func (r *Resolver) resolveBinary() (ResolvedPath, error) {
	if r.resourceDir == "" {
		return ResolvedPath{}, fmt.Errorf("%w: resource directory not configured", ErrPathUnavailable)
	}
	suffix, ok := binarySuffixes[r.goos]
	if !ok {
		return ResolvedPath{}, fmt.Errorf("%w: no bundled binary for platform %s", ErrPathUnavailable, r.goos)
	}
	stem := r.entryFile
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	return ResolvedPath{
		Path: filepath.Join(r.resourceDir, "bin", stem+suffix),
	}, nil
}

// fileExists reports whether path exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

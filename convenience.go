// File: lixenwraith/tvconfig/convenience.go
package tvconfig

import (
	"context"
	"os"
	"sync/atomic"
)

// DefaultPort is returned by FastReadPortOnly when the port cannot be read.
const DefaultPort = 7000

// Process-wide settings. Load claims loadCalled before doing any work, so a second
// call fails even when the first one did not succeed.
var (
	loadCalled atomic.Bool
	current    atomic.Pointer[Settings]
)

// exit terminates the process; replaced in tests.
var (
	defaultExit = os.Exit
	exit        = defaultExit
)

// Load loads the settings with l and publishes them process-wide.
// It may be called at most once per process; a second call panics with ErrAlreadyLoaded.
func Load(ctx context.Context, l *Loader, bypass bool) (*Settings, error) {
	if !loadCalled.CompareAndSwap(false, true) {
		panic(ErrAlreadyLoaded)
	}

	settings, err := l.Load(ctx, bypass)
	if err != nil {
		return nil, err
	}
	current.Store(settings)
	return settings, nil
}

// MustLoad is like Load but reports any failure through the loader's logger and exits with status 1.
func MustLoad(ctx context.Context, l *Loader, bypass bool) *Settings {
	settings, err := Load(ctx, l, bypass)
	if err != nil {
		ReportLoadError(l.logger, err)
		exit(1)
		return nil
	}
	return settings
}

// Current returns the process-wide settings. It panics with ErrNotLoaded before a successful Load.
func Current() *Settings {
	s := current.Load()
	if s == nil {
		panic(ErrNotLoaded)
	}
	return s
}

// FastReadPortOnly reads server.port from the default settings file without validation.
func FastReadPortOnly() int {
	return NewLoader().WithFileDiscovery(DefaultDiscoveryOptions()).FastReadPortOnly()
}

// FastReadPortOnly reads server.port directly from the file, returning DefaultPort on any failure.
func (l *Loader) FastReadPortOnly() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return DefaultPort
	}

	raw, err := parseDocument(l.path, data)
	if err != nil {
		return DefaultPort
	}

	server, ok := section(raw, "server")
	if !ok {
		return DefaultPort
	}
	switch port := server["port"].(type) {
	case int:
		return port
	case int64:
		return int(port)
	case uint64:
		return int(port)
	default:
		return DefaultPort
	}
}

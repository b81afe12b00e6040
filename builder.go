// File: lixenwraith/tvconfig/builder.go
package tvconfig

import (
	"net/http"
	"runtime"

	"go.uber.org/zap"
)

// DefaultSettingsFile is the settings file name used when no path is configured.
const DefaultSettingsFile = "config.yaml"

// Loader provides a fluent interface for locating, loading and saving the settings file
type Loader struct {
	path       string
	explicit   bool
	logger     *zap.Logger
	envProbe   EnvironmentProbe
	probes     Probes
	libraryDir string
}

// NewLoader creates a loader for ./config.yaml with default collaborators
func NewLoader() *Loader {
	return &Loader{
		path:     DefaultSettingsFile,
		logger:   zap.NewNop(),
		envProbe: DetectEnvironment,
	}
}

// WithPath sets the settings file path
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	l.explicit = true
	return l
}

// WithLogger sets the logger; nil disables logging
func (l *Loader) WithLogger(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l.logger = logger
	return l
}

// WithEnvironment overrides deployment environment detection
func (l *Loader) WithEnvironment(probe EnvironmentProbe) *Loader {
	l.envProbe = probe
	return l
}

// WithProbes sets the live collaborators used by strict validation.
// Unset members fall back to DefaultProbes.
func (l *Loader) WithProbes(probes Probes) *Loader {
	l.probes = probes
	return l
}

// WithLibraryDir sets the directory holding the bundled encoder binaries
func (l *Loader) WithLibraryDir(dir string) *Loader {
	l.libraryDir = dir
	return l
}

// Path returns the settings file path the loader reads and writes
func (l *Loader) Path() string {
	return l.path
}

func (l *Loader) environment() Environment {
	if l.envProbe == nil {
		return DetectEnvironment()
	}
	return l.envProbe()
}

// DefaultProbes returns the production collaborators, with encoders under libraryDir
func DefaultProbes(libraryDir string) Probes {
	return Probes{
		EDCB:         NewEDCBClient,
		HTTP:         &http.Client{Timeout: MirakurunProbeTimeout},
		Runner:       ExecRunner{},
		Listeners:    SystemListeners{},
		Self:         SelfIdentity,
		EncoderPaths: EncoderPaths(libraryDir),
		Arch:         runtime.GOARCH,
	}
}

// withDefaults fills nil members from DefaultProbes.
func (p Probes) withDefaults(libraryDir string) Probes {
	d := DefaultProbes(libraryDir)
	if p.EDCB == nil {
		p.EDCB = d.EDCB
	}
	if p.HTTP == nil {
		p.HTTP = d.HTTP
	}
	if p.Runner == nil {
		p.Runner = d.Runner
	}
	if p.Listeners == nil {
		p.Listeners = d.Listeners
	}
	if p.Self == nil {
		p.Self = d.Self
	}
	if p.EncoderPaths == nil {
		p.EncoderPaths = d.EncoderPaths
	}
	if p.Arch == "" {
		p.Arch = d.Arch
	}
	return p
}

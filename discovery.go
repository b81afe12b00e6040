// FILE: lixenwraith/tvconfig/discovery.go
package tvconfig

import (
	"os"
	"path/filepath"
)

// FileDiscoveryOptions configures automatic settings file discovery
type FileDiscoveryOptions struct {
	// Base name of settings file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for explicit path
	EnvVar string

	// Whether to search the parent of the executable's directory
	UseExecutableDir bool

	// Whether to search in current directory
	UseCurrentDir bool

	// Whether to search in XDG config directories
	UseXDG bool
}

// DefaultDiscoveryOptions returns the search order used by the server
func DefaultDiscoveryOptions() FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:             "config",
		Extensions:       []string{".yaml", ".yml", ".toml", ".json"},
		EnvVar:           "TVCONFIG_PATH",
		UseExecutableDir: true,
		UseCurrentDir:    true,
	}
}

// WithFileDiscovery locates the settings file unless a path was set explicitly.
// When nothing is found the current path is kept, so Load reports it as missing.
func (l *Loader) WithFileDiscovery(opts FileDiscoveryOptions) *Loader {
	if l.explicit {
		return l
	}

	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			l.path = path
			return l
		}
	}

	if path, ok := discoverFile(opts); ok {
		l.path = path
	}
	return l
}

// searchPaths returns the directories to search, in priority order
func searchPaths(opts FileDiscoveryOptions) []string {
	var dirs []string

	dirs = append(dirs, opts.Paths...)

	// The server binary lives one level below the settings file
	if opts.UseExecutableDir {
		if exe, err := os.Executable(); err == nil {
			dirs = append(dirs, filepath.Dir(filepath.Dir(exe)))
		}
	}

	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}

	if opts.UseXDG {
		dirs = append(dirs, getXDGConfigPaths("tvconfig")...)
	}

	return dirs
}

func discoverFile(opts FileDiscoveryOptions) (string, bool) {
	for _, dir := range searchPaths(opts) {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// getXDGConfigPaths returns XDG-compliant config search paths
func getXDGConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths, filepath.Join("/etc/xdg", appName))
	}

	return paths
}

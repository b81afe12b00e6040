// FILE: lixenwraith/tvconfig/environment.go
package tvconfig

import (
	"os"
	"runtime"
)

// Environment classifies the deployment the process runs in.
type Environment string

// Deployment environments
const (
	EnvironmentWindows     Environment = "Windows"
	EnvironmentLinux       Environment = "Linux"
	EnvironmentLinuxDocker Environment = "Linux-Docker"
	EnvironmentLinuxARM    Environment = "Linux-ARM"
)

// dockerMarker exists at the root of every Docker container filesystem
const dockerMarker = "/.dockerenv"

// EnvironmentProbe reports the current deployment environment.
type EnvironmentProbe func() Environment

// Containerized reports whether host paths are seen through DockerPathPrefix.
func (e Environment) Containerized() bool {
	return e == EnvironmentLinuxDocker
}

// DetectEnvironment is the default EnvironmentProbe.
func DetectEnvironment() Environment {
	if runtime.GOOS == "windows" {
		return EnvironmentWindows
	}
	if _, err := os.Stat(dockerMarker); err == nil {
		return EnvironmentLinuxDocker
	}
	if runtime.GOARCH == "arm64" || runtime.GOARCH == "arm" {
		return EnvironmentLinuxARM
	}
	return EnvironmentLinux
}

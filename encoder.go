// FILE: lixenwraith/tvconfig/encoder.go
package tvconfig

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// CommandRunner executes encoder binaries.
// A non-zero exit status is not an error; only failure to start the process is.
type CommandRunner interface {
	// Output returns stdout, discarding stderr.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// CombinedOutput returns stdout and stderr interleaved.
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	return stdout.Bytes(), ignoreExitStatus(ctx, err)
}

func (ExecRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return out, ignoreExitStatus(ctx, err)
}

// ignoreExitStatus drops exit status errors unless the process was killed because ctx ended.
func ignoreExitStatus(ctx context.Context, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, "command interrupted")
		}
		return nil
	}
	return err
}

var (
	versionCopyright = regexp.MustCompile(` Copyright.*$`)
	versionRigaya    = regexp.MustCompile(` by rigaya.*$`)
)

// EncoderPaths returns the bundled encoder binary locations under libraryDir.
func EncoderPaths(libraryDir string) map[string]string {
	ext := ""
	if runtime.GOOS == "windows" {
		ext = ".exe"
	}
	binary := func(name, windowsName string) string {
		if runtime.GOOS == "windows" {
			return windowsName
		}
		return name
	}
	return map[string]string{
		EncoderFFmpeg:   filepath.Join(libraryDir, "FFmpeg", "ffmpeg"+ext),
		EncoderQSVEncC:  filepath.Join(libraryDir, "QSVEncC", binary("qsvencc", "QSVEncC64")+ext),
		EncoderNVEncC:   filepath.Join(libraryDir, "NVEncC", binary("nvencc", "NVEncC64")+ext),
		EncoderVCEEncC:  filepath.Join(libraryDir, "VCEEncC", binary("vceencc", "VCEEncC64")+ext),
		EncoderRkmppenc: filepath.Join(libraryDir, "rkmppenc", "rkmppenc"+ext),
	}
}

// checkEncoderArch rejects encoder families that cannot run on arch (a GOARCH value).
func checkEncoderArch(encoder, arch string) *FieldError {
	switch {
	case (arch == "amd64" || arch == "386") && encoder == EncoderRkmppenc:
		return domainError("general.encoder",
			"rkmppenc cannot be used on the x64 architecture.",
			"Change the encoder to one of FFmpeg, QSVEncC, NVEncC or VCEEncC.")
	case arch == "arm64" && (encoder == EncoderQSVEncC || encoder == EncoderNVEncC || encoder == EncoderVCEEncC):
		return domainError("general.encoder",
			"QSVEncC, NVEncC and VCEEncC cannot be used on the arm64 architecture.",
			"Change the encoder to either FFmpeg or rkmppenc.")
	}
	return nil
}

// checkEncoder verifies the selected encoder can run here and logs its version.
func checkEncoder(ctx context.Context, encoder string, probes Probes, log *zap.Logger) *FieldError {
	if fe := checkEncoderArch(encoder, probes.Arch); fe != nil {
		return fe
	}

	binary, ok := probes.EncoderPaths[encoder]
	if !ok {
		return domainError("general.encoder",
			fmt.Sprintf("The %s binary location is unknown.", encoder),
			"Check that the bundled encoders are installed.")
	}
	notFound := domainError("general.encoder",
		fmt.Sprintf("The %s binary could not be executed (%s).", encoder, binary),
		"Check that the bundled encoders are installed.")

	ctx, cancel := context.WithTimeout(ctx, EncoderProbeTimeout)
	defer cancel()

	// Software encoding is always available, so only hardware encoders are probed
	if encoder != EncoderFFmpeg {
		out, err := probes.Runner.Output(ctx, binary, "--check-hw")
		if err != nil {
			log.Debug("encoder hardware check failed", zap.String("binary", binary), zap.Error(err))
			return notFound
		}

		report := dropReaderLines(string(out))
		if strings.Contains(report, "unavailable.") {
			return domainError("general.encoder",
				fmt.Sprintf("%s is not supported in this environment, so the server cannot start.", encoder),
				fmt.Sprintf("Choose another encoder or set up the environment %s requires.", encoder))
		}
		if !strings.Contains(report, "H.265/HEVC") {
			log.Warn(fmt.Sprintf("H.265/HEVC encoding with %s is not supported in this environment, so data saver mode is unavailable.", encoder))
		}
	}

	out, err := probes.Runner.CombinedOutput(ctx, binary, "--version")
	if err != nil {
		log.Debug("encoder version check failed", zap.String("binary", binary), zap.Error(err))
		return notFound
	}
	log.Info("Encoder: " + encoderVersion(string(out)))
	return nil
}

// dropReaderLines removes informational "reader:" lines from --check-hw output.
func dropReaderLines(out string) string {
	lines := strings.Split(out, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, "reader:") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// encoderVersion extracts a display version from the first line of --version output.
func encoderVersion(out string) string {
	first, _, _ := strings.Cut(out, "\n")
	first = strings.TrimRight(first, "\r")
	first = versionCopyright.ReplaceAllString(first, "")
	first = versionRigaya.ReplaceAllString(first, "")
	return strings.TrimSpace(strings.ReplaceAll(first, "ffmpeg", "FFmpeg"))
}

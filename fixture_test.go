// FILE: lixenwraith/tvconfig/fixture_test.go
package tvconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// settingsTemplate is a flow-style settings file; %s is the upload folder.
const settingsTemplate = `# Media server settings
{
    # General settings
    'general': {
        'backend': 'EDCB',
        'edcb_url': 'tcp://192.168.1.10:4510',
        'mirakurun_url': 'http://localhost:40772',
        'encoder': 'FFmpeg',
        'program_update_interval': 2.5,
        'debug': false,
        'debug_encoder': false,
    },

    # Listener
    'server': {
        'port': 7000,  # listen port
        'custom_https_certificate': null,
        'custom_https_private_key': null,
    },
    'tv': {
        'max_alive_time': 10,
        'debug_mode_ts_path': null,
    },
    'capture': {
        'upload_folder': '%s',
    },
    'twitter': {
        'consumer_key': null,
        'consumer_secret': null,
    },
}
`

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeSettings writes the template with an existing upload folder, applying replacements in order.
func writeSettings(t *testing.T, replacements ...string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	upload := filepath.Join(dir, "captures")
	require.NoError(t, os.Mkdir(upload, 0755))

	content := fmt.Sprintf(settingsTemplate, upload)
	content = strings.NewReplacer(replacements...).Replace(content)
	return writeFile(t, dir, "config.yaml", content), upload
}

// observedLogger returns a debug-level logger and the recorded entries.
func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// messages returns the recorded messages at level.
func messages(logs *observer.ObservedLogs, level zapcore.Level) []string {
	var out []string
	for _, entry := range logs.FilterLevelExact(level).All() {
		out = append(out, entry.Message)
	}
	return out
}

// fakeEDCB answers service enumeration with a fixed result.
type fakeEDCB struct {
	count int
	err   error
	delay time.Duration
}

func (f *fakeEDCB) EnumService(ctx context.Context) (int, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return f.count, f.err
}

// edcbDialer records dial attempts and returns client.
type edcbDialer struct {
	mu     sync.Mutex
	client EDCBClient
	dials  []string
}

func (d *edcbDialer) dial(host string, port int, timeout time.Duration) EDCBClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, fmt.Sprintf("%s:%d", host, port))
	return d.client
}

func (d *edcbDialer) calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dials...)
}

// fakeRunner returns canned output per flag and records invocations.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	err     error
	calls   []string
}

func (r *fakeRunner) run(name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.outputs[strings.Join(args, " ")]), nil
}

func (r *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.run(name, args...)
}

func (r *fakeRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.run(name, args...)
}

func (r *fakeRunner) invocations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// fakeListeners serves a fixed listener table.
type fakeListeners struct {
	listeners []Listener
	err       error
}

func (f fakeListeners) Listeners(ctx context.Context) ([]Listener, error) {
	return f.listeners, f.err
}

// testSelf is the identity used for the running process in tests.
var testSelf = ProcessIdentity{PID: 500, PPID: 100}

// testProbes returns collaborators under which the template validates.
func testProbes() (Probes, *edcbDialer, *fakeRunner) {
	dialer := &edcbDialer{client: &fakeEDCB{count: 3}}
	runner := &fakeRunner{outputs: map[string]string{
		"--version": "ffmpeg version 6.1 Copyright (c) 2000-2023 the FFmpeg developers\nbuilt with gcc\n",
	}}
	probes := Probes{
		EDCB:      dialer.dial,
		Runner:    runner,
		Listeners: fakeListeners{},
		Self:      func() ProcessIdentity { return testSelf },
		EncoderPaths: map[string]string{
			EncoderFFmpeg:   "/lib/FFmpeg/ffmpeg",
			EncoderQSVEncC:  "/lib/QSVEncC/qsvencc",
			EncoderNVEncC:   "/lib/NVEncC/nvencc",
			EncoderVCEEncC:  "/lib/VCEEncC/vceencc",
			EncoderRkmppenc: "/lib/rkmppenc/rkmppenc",
		},
		Arch: "amd64",
	}
	return probes, dialer, runner
}

// staticEnvironment returns a probe reporting env.
func staticEnvironment(env Environment) EnvironmentProbe {
	return func() Environment { return env }
}

// testLoader builds a loader for path with fakes and an observed logger.
func testLoader(path string) (*Loader, *observer.ObservedLogs) {
	log, logs := observedLogger()
	probes, _, _ := testProbes()
	return NewLoader().
		WithPath(path).
		WithLogger(log).
		WithEnvironment(staticEnvironment(EnvironmentLinux)).
		WithProbes(probes), logs
}

// resetProcessState clears the process-wide settings between tests.
func resetProcessState(t *testing.T) {
	t.Helper()
	current.Store(nil)
	loadCalled.Store(false)
	t.Cleanup(func() {
		current.Store(nil)
		loadCalled.Store(false)
	})
}

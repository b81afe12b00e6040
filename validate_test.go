// FILE: lixenwraith/tvconfig/validate_test.go
package tvconfig

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestSchemaCheck tests the full constraint and live-rule pipeline
func TestSchemaCheck(t *testing.T) {
	ctx := context.Background()
	upload := t.TempDir()

	mirakurun := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current": "3.9.0", "latest": "3.9.0"}`))
	}))
	defer mirakurun.Close()

	newRaw := func() map[string]any {
		raw := validRaw(upload)
		raw["general"].(map[string]any)["mirakurun_url"] = mirakurun.URL
		return raw
	}
	check := func(raw map[string]any, probes Probes) (*Settings, error) {
		return newSchema(probes.withDefaults(""), zap.NewNop()).check(ctx, raw)
	}

	t.Run("Valid", func(t *testing.T) {
		probes, dialer, _ := testProbes()
		s, err := check(newRaw(), probes)
		require.NoError(t, err)
		assert.Equal(t, BackendMirakurun, s.General.Backend)
		assert.Empty(t, dialer.calls(), "EDCB is not probed for the Mirakurun backend")
	})

	t.Run("ConstraintMessages", func(t *testing.T) {
		probes, _, _ := testProbes()
		raw := newRaw()
		raw["general"].(map[string]any)["backend"] = "Other"
		raw["general"].(map[string]any)["program_update_interval"] = 0.05
		raw["tv"].(map[string]any)["max_alive_time"] = 0
		raw["capture"].(map[string]any)["upload_folder"] = filepath.Join(upload, "missing")

		_, err := check(raw, probes)
		require.Error(t, err)

		byPath := make(map[string]string)
		for _, fe := range FieldErrors(err) {
			byPath[fe.Path] = fe.Message
			assert.False(t, fe.IsDomain(), fe.Path)
		}
		assert.Equal(t, "unexpected value; permitted: 'EDCB', 'Mirakurun'", byPath["general.backend"])
		assert.Equal(t, "ensure this value is greater than or equal to 0.1", byPath["general.program_update_interval"])
		assert.Equal(t, "ensure this value is greater than 0", byPath["tv.max_alive_time"])
		assert.Contains(t, byPath["capture.upload_folder"], "does not exist")
		assert.Len(t, byPath, 4)
	})

	t.Run("OptionalFileMustExist", func(t *testing.T) {
		probes, _, _ := testProbes()
		cert := filepath.Join(upload, "cert.pem")
		require.NoError(t, os.WriteFile(cert, []byte("pem"), 0600))

		raw := newRaw()
		raw["server"].(map[string]any)["custom_https_certificate"] = cert
		raw["server"].(map[string]any)["custom_https_private_key"] = filepath.Join(upload, "absent.pem")

		_, err := check(raw, probes)
		require.Error(t, err)
		assert.Equal(t, []string{"server.custom_https_private_key"}, paths(FieldErrors(err)))
	})

	t.Run("EDCBSchemeRequired", func(t *testing.T) {
		probes, dialer, _ := testProbes()
		raw := newRaw()
		raw["general"].(map[string]any)["backend"] = BackendEDCB
		raw["general"].(map[string]any)["edcb_url"] = "http://localhost:4510"

		_, err := check(raw, probes)
		require.Error(t, err)
		assert.Equal(t, []string{"general.edcb_url"}, paths(FieldErrors(err)))
		assert.Empty(t, dialer.calls(), "live rule is skipped when the shape check failed")
	})

	t.Run("RuleSkippedWhenBackendInvalid", func(t *testing.T) {
		probes, dialer, _ := testProbes()
		raw := newRaw()
		raw["general"].(map[string]any)["backend"] = "edcb"

		_, err := check(raw, probes)
		require.Error(t, err)
		assert.Equal(t, []string{"general.backend"}, paths(FieldErrors(err)))
		assert.Empty(t, dialer.calls())
	})

	t.Run("AggregatesLiveFailures", func(t *testing.T) {
		probes, _, _ := testProbes()
		probes.Arch = "arm64"
		probes.Listeners = fakeListeners{listeners: []Listener{
			{Port: 7000, ProcessIdentity: ProcessIdentity{PID: 9000, PPID: 1}},
		}}
		raw := newRaw()
		raw["general"].(map[string]any)["encoder"] = EncoderNVEncC

		_, err := check(raw, probes)
		require.Error(t, err)

		fes := FieldErrors(err)
		assert.Equal(t, []string{"general.encoder", "server.port"}, paths(fes))
		for _, fe := range fes {
			assert.True(t, fe.IsDomain(), fe.Path)
		}
	})

	t.Run("MirakurunUnreachable", func(t *testing.T) {
		probes, _, _ := testProbes()
		probes.HTTP = doerFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := check(newRaw(), probes)
		require.Error(t, err)
		fes := FieldErrors(err)
		require.Len(t, fes, 1)
		assert.Equal(t, "general.mirakurun_url", fes[0].Path)
		assert.True(t, fes[0].IsDomain())
	})

	t.Run("PortOutOfRangeSkipsScan", func(t *testing.T) {
		probes, _, _ := testProbes()
		probes.Listeners = fakeListeners{err: errors.New("must not be called")}
		raw := newRaw()
		raw["server"].(map[string]any)["port"] = 80

		_, err := check(raw, probes)
		require.Error(t, err)
		assert.Equal(t, []string{"server.port"}, paths(FieldErrors(err)))
	})
}

// doerFunc adapts a function to HTTPDoer.
type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// FILE: lixenwraith/tvconfig/errors_test.go
package tvconfig

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestFieldErrorMarker tests the domain marker on field error messages
func TestFieldErrorMarker(t *testing.T) {
	tests := []struct {
		message string
		domain  bool
	}{
		{"field required", false},
		{"ensure this value is greater than 0", false},
		{"Could not access EDCB.\nEDCB may not be running", true},
		{"first line\nsecond line.", true},
		{"Is the server running?", true},
		{"Stop!", true},
		{"設定を確認してください。", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			fe := &FieldError{Path: "general.backend", Message: tt.message}
			assert.Equal(t, tt.domain, fe.IsDomain())
		})
	}

	t.Run("GenericNeverDomain", func(t *testing.T) {
		fe := genericError("server.port", "value %d is not allowed.", 5)
		assert.Equal(t, "value 5 is not allowed", fe.Message)
		assert.False(t, fe.IsDomain())
	})

	t.Run("DomainJoinsLines", func(t *testing.T) {
		fe := domainError("server.port", "First.", "Second.")
		assert.Equal(t, "First.\nSecond.", fe.Message)
		assert.Equal(t, "server.port: First.\nSecond.", fe.Error())
	})
}

// TestValidationErrorFormat tests aggregation and rendering of field errors
func TestValidationErrorFormat(t *testing.T) {
	err := joinFieldErrors([]*FieldError{
		genericError("general.backend", "field required"),
		domainError("server.port", "Port 7000 is in use.", "Stop the other process."),
	})
	require.Error(t, err)

	expected := "2 validation errors for Settings\n" +
		"general.backend\n  field required\n" +
		"server.port\n  Port 7000 is in use.\n  Stop the other process."
	assert.Equal(t, expected, err.Error())

	fes := FieldErrors(err)
	require.Len(t, fes, 2)
	assert.Equal(t, "general.backend", fes[0].Path)
	assert.Equal(t, "server.port", fes[1].Path)

	t.Run("Single", func(t *testing.T) {
		err := joinFieldErrors([]*FieldError{genericError("tv.max_alive_time", "field required")})
		assert.Equal(t, "1 validation error for Settings\ntv.max_alive_time\n  field required", err.Error())
	})

	t.Run("Empty", func(t *testing.T) {
		assert.NoError(t, joinFieldErrors(nil))
		assert.Nil(t, FieldErrors(nil))
	})

	t.Run("Wrapped", func(t *testing.T) {
		wrapped := errors.Wrap(err, "load")
		assert.Len(t, FieldErrors(wrapped), 2)
	})
}

// TestReportLoadError tests the log lines emitted for each failure kind
func TestReportLoadError(t *testing.T) {
	t.Run("EmptyDocument", func(t *testing.T) {
		log, logs := observedLogger()
		ReportLoadError(log, errors.WithHint(errors.Wrap(ErrEmptyDocument, "'config.yaml'"), setupHint))

		assert.Equal(t, []string{
			"The settings file is empty, so the server cannot start.",
			setupHint,
		}, messages(logs, zapcore.ErrorLevel))
	})

	t.Run("ParseFailure", func(t *testing.T) {
		log, logs := observedLogger()
		ReportLoadError(log, &ParseError{Path: "config.yaml", Err: fmt.Errorf("line 3: bad indent")})

		lines := messages(logs, zapcore.ErrorLevel)
		require.Len(t, lines, 2)
		assert.Equal(t, "An error occurred while loading the settings file, so the server cannot start.", lines[0])
		assert.Equal(t, "*errors.errorString: line 3: bad indent", lines[1])
	})

	t.Run("DomainSuppressesGeneric", func(t *testing.T) {
		log, logs := observedLogger()
		err := joinFieldErrors([]*FieldError{
			genericError("tv.max_alive_time", "field required"),
			domainError("server.port", "Port 7000 is in use.", "Stop the other process."),
			domainError("general.encoder", "rkmppenc cannot be used here."),
		})
		ReportLoadError(log, err)

		assert.Equal(t, []string{
			"Port 7000 is in use.",
			"Stop the other process.",
			"rkmppenc cannot be used here.",
		}, messages(logs, zapcore.ErrorLevel))
	})

	t.Run("GenericOnly", func(t *testing.T) {
		log, logs := observedLogger()
		err := joinFieldErrors([]*FieldError{genericError("tv.max_alive_time", "field required")})
		ReportLoadError(log, err)

		lines := messages(logs, zapcore.ErrorLevel)
		require.Len(t, lines, 3)
		assert.Equal(t, "The settings are invalid, so the server cannot start.", lines[0])
		assert.Equal(t, err.Error(), lines[2])
	})

	t.Run("Unknown", func(t *testing.T) {
		log, logs := observedLogger()
		ReportLoadError(log, errors.New("boom"))
		assert.Equal(t, []string{"Failed to load settings."}, messages(logs, zapcore.ErrorLevel))
	})

	t.Run("Nil", func(t *testing.T) {
		log, logs := observedLogger()
		ReportLoadError(log, nil)
		assert.Zero(t, logs.Len())
	})
}

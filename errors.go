// FILE: lixenwraith/tvconfig/errors.go
package tvconfig

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Load failure kinds
var (
	ErrMissingFile       = errors.New("settings file not found")
	ErrEmptyDocument     = errors.New("settings file is empty")
	ErrParse             = errors.New("failed to parse settings file")
	ErrAlreadyLoaded     = errors.New("settings already loaded in this process")
	ErrNotLoaded         = errors.New("settings have not been loaded")
	ErrUnsupportedFormat = errors.New("preserving rewrite supports only YAML settings files")
)

// setupHint is attached to missing and empty file errors.
const setupHint = "Copy config.example.yaml to config.yaml and edit it to match your environment."

// ParseError wraps any failure raised while reading or parsing the settings file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s '%s': %v", ErrParse, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// FieldError is a single field-level validation failure.
// Path is "section.field", or "section" when a whole section is at fault.
type FieldError struct {
	Path    string
	Message string
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// IsDomain reports whether the message is pre-formatted for end users.
// Domain messages are written as sentences; generic schema messages are not.
func (e *FieldError) IsDomain() bool {
	return hasSentenceMarker(e.Message)
}

// hasSentenceMarker checks whether any line of msg ends with a sentence terminator.
func hasSentenceMarker(msg string) bool {
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "!") ||
			strings.HasSuffix(line, "?") || strings.HasSuffix(line, "。") {
			return true
		}
	}
	return false
}

// domainError creates an end-user actionable error. Each line must be a full sentence.
func domainError(path string, lines ...string) *FieldError {
	return &FieldError{Path: path, Message: strings.Join(lines, "\n")}
}

// genericError creates a schema error; trailing terminators are dropped so it is never domain-marked.
func genericError(path, format string, args ...any) *FieldError {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), ".!?。 ")
	return &FieldError{Path: path, Message: msg}
}

// appendFieldError adds fe to the aggregate, keeping the settings-style rendering.
func appendFieldError(errs *multierror.Error, fe *FieldError) *multierror.Error {
	errs = multierror.Append(errs, fe)
	errs.ErrorFormat = formatValidationErrors
	return errs
}

// formatValidationErrors renders an aggregated validation failure.
func formatValidationErrors(es []error) string {
	var b strings.Builder
	noun := "errors"
	if len(es) == 1 {
		noun = "error"
	}
	fmt.Fprintf(&b, "%d validation %s for Settings", len(es), noun)

	for _, err := range es {
		var fe *FieldError
		if !errors.As(err, &fe) {
			fmt.Fprintf(&b, "\n%s", err)
			continue
		}
		fmt.Fprintf(&b, "\n%s", fe.Path)
		for _, line := range strings.Split(fe.Message, "\n") {
			fmt.Fprintf(&b, "\n  %s", line)
		}
	}
	return b.String()
}

// FieldErrors extracts the field-level failures from a validation error.
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}

	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]*FieldError, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			var fe *FieldError
			if errors.As(e, &fe) {
				out = append(out, fe)
			}
		}
		return out
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return []*FieldError{fe}
	}
	return nil
}

// ReportLoadError logs a load failure the way the server reports it at startup.
// Every path emits at least one error-level line.
func ReportLoadError(log *zap.Logger, err error) {
	if err == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}

	var parseErr *ParseError
	switch {
	case errors.Is(err, ErrMissingFile):
		log.Error("The settings file is not in place, so the server cannot start.")
		logHints(log, err)

	case errors.Is(err, ErrEmptyDocument):
		log.Error("The settings file is empty, so the server cannot start.")
		logHints(log, err)

	case errors.As(err, &parseErr):
		log.Error("An error occurred while loading the settings file, so the server cannot start.")
		cause := errors.UnwrapAll(parseErr.Err)
		log.Error(fmt.Sprintf("%T: %v", cause, parseErr.Err))

	default:
		fieldErrs := FieldErrors(err)
		if len(fieldErrs) == 0 {
			log.Error("Failed to load settings.", zap.Error(err))
			return
		}

		// Domain messages already tell the user what to do; generic errors beside them are noise
		domain := false
		for _, fe := range fieldErrs {
			if !fe.IsDomain() {
				continue
			}
			domain = true
			for _, line := range strings.Split(fe.Message, "\n") {
				log.Error(line)
			}
		}
		if domain {
			return
		}

		log.Error("The settings are invalid, so the server cannot start.")
		log.Error("Use the error details below to check that config.yaml is written correctly.")
		log.Error(err.Error())
	}
}

func logHints(log *zap.Logger, err error) {
	for _, hint := range errors.GetAllHints(err) {
		log.Error(hint)
	}
}

// joinFieldErrors aggregates field errors into a single validation error, or nil.
func joinFieldErrors(fes []*FieldError) error {
	var errs *multierror.Error
	for _, fe := range fes {
		errs = appendFieldError(errs, fe)
	}
	return errs.ErrorOrNil()
}

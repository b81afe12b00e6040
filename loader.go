// FILE: lixenwraith/tvconfig/loader.go
package tvconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// parseDocument parses settings file content by format.
// A nil result with a nil error means the document is empty.
func parseDocument(path string, data []byte) (map[string]any, error) {
	switch format := detectFileFormat(path); format {
	case "yaml", "":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, nil
		}
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, errors.Newf("top-level value is %T, expected a mapping", doc)
		}
		return m, nil

	case "toml":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		doc := make(map[string]any)
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil

	case "json":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		var doc map[string]any
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&doc); err != nil {
			return nil, err
		}
		return normalizeJSONNumbers(doc).(map[string]any), nil

	default:
		return nil, errors.Newf("unsupported settings format %q", format)
	}
}

// normalizeJSONNumbers converts json.Number leaves to int64 or float64.
func normalizeJSONNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeJSONNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeJSONNumbers(val)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// readDocument reads and parses the settings file, mapping failures to the load taxonomy.
func (l *Loader) readDocument() (map[string]any, error) {
	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.WithHint(errors.Wrapf(ErrMissingFile, "'%s'", l.path), setupHint)
		}
		return nil, &ParseError{Path: l.path, Err: err}
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &ParseError{Path: l.path, Err: err}
	}

	raw, err := parseDocument(l.path, data)
	if err != nil {
		return nil, &ParseError{Path: l.path, Err: err}
	}
	if raw == nil {
		return nil, errors.WithHint(errors.Wrapf(ErrEmptyDocument, "'%s'", l.path), setupHint)
	}
	return raw, nil
}

// Load reads, normalizes and validates the settings file.
// With bypass set, the typed shape is built without constraints or live probes.
// Load does not touch process-wide state; see the package-level Load for that.
func (l *Loader) Load(ctx context.Context, bypass bool) (*Settings, error) {
	raw, err := l.readDocument()
	if err != nil {
		return nil, err
	}

	normalizeURLs(raw)
	if env := l.environment(); env.Containerized() {
		applyRootfsPrefix(raw)
		l.logger.Debug("Applied container path prefix", zap.String("prefix", DockerPathPrefix), zap.String("environment", string(env)))
	}

	if bypass {
		settings, err := decodeUnchecked(raw)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Server settings loaded (bypassed validation).")
		return settings, nil
	}

	settings, err := newSchema(l.probes.withDefaults(l.libraryDir), l.logger).check(ctx, raw)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Server settings loaded.")
	return settings, nil
}

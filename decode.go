// FILE: lixenwraith/tvconfig/decode.go
package tvconfig

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// decodeErrorPath captures the first quoted path in a mapstructure error message
var decodeErrorPath = regexp.MustCompile(`'([^']*)'`)

// newDecoder creates the decoder shared by strict and unchecked construction.
// Weak typing mirrors what users expect from a hand-edited file ("7000" is a port).
func newDecoder(target any, strict bool, md *mapstructure.Metadata) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		Metadata:         md,
	})
}

// decodeStrict maps raw onto target and reports shape problems as field errors:
// undecodable values, unknown keys, and missing non-nullable fields.
func decodeStrict(raw map[string]any, target *Settings) []*FieldError {
	md := &mapstructure.Metadata{}
	decoder, err := newDecoder(target, true, md)
	if err != nil {
		return []*FieldError{genericError("", "decoder creation failed: %v", err)}
	}

	var fieldErrs []*FieldError
	if err := decoder.Decode(raw); err != nil {
		var derr *mapstructure.Error
		if errors.As(err, &derr) {
			for _, msg := range derr.Errors {
				fieldErrs = append(fieldErrs, decodeFailure(msg)...)
			}
		} else {
			fieldErrs = append(fieldErrs, genericError("", "%v", err))
		}
	}

	nullable := nullableFields()
	nulls := nullPaths(raw, nullable)
	for _, path := range nulls {
		fieldErrs = append(fieldErrs, genericError(path, "none is not an allowed value"))
	}
	rejected := make(map[string]bool, len(nulls))
	for _, path := range nulls {
		rejected[path] = true
	}

	unset := append([]string(nil), md.Unset...)
	sort.Strings(unset)
	for _, path := range unset {
		section, _, _ := strings.Cut(path, ".")
		if nullable[path] || rejected[path] || rejected[section] {
			continue
		}
		fieldErrs = append(fieldErrs, genericError(path, "field required"))
	}

	return fieldErrs
}

// nullPaths returns the known sections and non-nullable fields that are present with a null value.
// Unknown keys are left to the decoder, which reports them as extra fields.
func nullPaths(raw map[string]any, nullable map[string]bool) []string {
	known := (&Settings{}).Document()

	var out []string
	for section, value := range raw {
		fields, ok := known[section]
		if !ok {
			continue
		}
		if value == nil {
			out = append(out, section)
			continue
		}
		values, ok := value.(map[string]any)
		if !ok {
			continue
		}
		for key, v := range values {
			path := section + "." + key
			if _, ok := fields[key]; !ok || v != nil || nullable[path] {
				continue
			}
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// decodeFailure converts one mapstructure message into field errors.
// Unknown keys are split so each one is reported at its own path.
func decodeFailure(msg string) []*FieldError {
	path := ""
	if m := decodeErrorPath.FindStringSubmatch(msg); m != nil {
		path = m[1]
	}

	if _, keys, found := strings.Cut(msg, "has invalid keys: "); found {
		var out []*FieldError
		for _, key := range strings.Split(keys, ",") {
			key = strings.TrimSpace(key)
			if path != "" {
				key = path + "." + key
			}
			out = append(out, genericError(key, "extra fields not permitted"))
		}
		return out
	}

	return []*FieldError{genericError(path, "%s", msg)}
}

// decodeUnchecked builds the typed shape from raw values without running any rule.
func decodeUnchecked(raw map[string]any) (*Settings, error) {
	settings := &Settings{}
	decoder, err := newDecoder(settings, false, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decoder creation failed")
	}
	if err := decoder.Decode(raw); err != nil {
		var derr *mapstructure.Error
		if !errors.As(err, &derr) {
			return nil, errors.Wrap(err, "decode settings")
		}
		var errs []*FieldError
		for _, msg := range derr.Errors {
			errs = append(errs, decodeFailure(msg)...)
		}
		return nil, joinFieldErrors(errs)
	}
	return settings, nil
}

// settingsValidate checks field constraints for edits; live rules only run at load.
var settingsValidate = newValidate("yaml")

// Set returns a copy of the settings with one "section.field" value replaced.
// The receiver is never modified. Unknown paths, undecodable or null values, and
// values that break the field's constraints are rejected. Other fields are not
// re-checked, so a file loaded without validation can be repaired one field at a time.
func (s *Settings) Set(path string, value any) (*Settings, error) {
	section, field, found := strings.Cut(path, ".")
	if !found || !isValidKeySegment(section) || !isValidKeySegment(field) {
		return nil, errors.Newf("invalid settings path %q, expected section.field", path)
	}

	doc := s.Document().clone()
	fields, ok := doc[section]
	if !ok {
		return nil, errors.Newf("unknown settings section %q", section)
	}
	if _, ok := fields[field]; !ok {
		return nil, errors.Newf("unknown settings field %q", path)
	}
	fields[field] = value

	updated := &Settings{}
	if fieldErrs := decodeStrict(doc.raw(), updated); len(fieldErrs) > 0 {
		return nil, joinFieldErrors(fieldErrs)
	}

	if err := settingsValidate.Struct(updated); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, errors.Wrap(err, "constraint validation")
		}
		var fieldErrs []*FieldError
		for _, ve := range verrs {
			if constraintPath(ve) == path {
				fieldErrs = append(fieldErrs, genericError(path, "%s", describeConstraint(ve)))
			}
		}
		if len(fieldErrs) > 0 {
			return nil, joinFieldErrors(fieldErrs)
		}
	}
	return updated, nil
}

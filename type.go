// File: lixenwraith/tvconfig/type.go
package tvconfig

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// formatValue renders a scalar as a flow-style literal token.
// Whole-valued floats render without a fractional part.
func formatValue(value any) (string, error) {
	if value == nil {
		return "null", nil
	}

	switch v := value.(type) {
	case string:
		return quoteString(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float32:
		return formatFloat(float64(v)), nil
	case float64:
		return formatFloat(v), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return "null", nil
		}
		return formatValue(rv.Elem().Interface())
	default:
		return "", fmt.Errorf("cannot format type %T as a settings literal", value)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// quoteString single-quotes s unless it needs escape sequences, which only double quotes support.
func quoteString(s string) string {
	if !strings.ContainsAny(s, "\\\n\r\t") {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// toSlice returns the elements of a slice or array value.
func toSlice(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if s, ok := value.([]any); ok {
		return s, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ParseValue converts a command-line string into a settings value.
// Quoted input is always a string; "null" clears a nullable field.
func ParseValue(s string) any {
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}

	// Remove quotes if present
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	return s
}

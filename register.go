// FILE: lixenwraith/tvconfig/register.go
package tvconfig

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidate builds the constraint validator used for settings structs.
// Field names in reported namespaces follow the settings file keys.
func newValidate(tagName string) *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get(tagName), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on programmer error (empty tag or nil func)
	if err := v.RegisterValidation("urlscheme", validateURLScheme); err != nil {
		panic(fmt.Sprintf("register urlscheme validation: %v", err))
	}

	return v
}

// validateURLScheme accepts a parseable URL whose scheme is one of the space-separated params.
func validateURLScheme(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	for _, scheme := range strings.Fields(fl.Param()) {
		if strings.EqualFold(u.Scheme, scheme) {
			return true
		}
	}
	return false
}

// constraintPath converts a validator namespace ("Settings.general.backend") to "general.backend".
func constraintPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

// describeConstraint renders a failed constraint tag as a generic schema message.
func describeConstraint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "oneof":
		permitted := strings.Fields(fe.Param())
		for i, p := range permitted {
			permitted[i] = "'" + p + "'"
		}
		return "unexpected value; permitted: " + strings.Join(permitted, ", ")
	case "gt":
		return "ensure this value is greater than " + fe.Param()
	case "gte":
		return "ensure this value is greater than or equal to " + fe.Param()
	case "http_url":
		return "invalid or missing URL scheme, expected http or https"
	case "urlscheme":
		return "URL scheme not permitted, expected " + fe.Param()
	case "file":
		return fmt.Sprintf("file %q does not exist", constraintValue(fe))
	case "dir":
		return fmt.Sprintf("directory %q does not exist", constraintValue(fe))
	default:
		return fmt.Sprintf("failed on the '%s' constraint", fe.Tag())
	}
}

// constraintValue renders the failing value, looking through pointers of nullable fields.
func constraintValue(fe validator.FieldError) string {
	rv := reflect.ValueOf(fe.Value())
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return ""
	}
	return fmt.Sprint(rv.Interface())
}

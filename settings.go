// FILE: lixenwraith/tvconfig/settings.go
package tvconfig

import (
	"reflect"
	"strings"
)

// Backend selector values
const (
	BackendEDCB      = "EDCB"
	BackendMirakurun = "Mirakurun"
)

// Encoder selector values
const (
	EncoderFFmpeg   = "FFmpeg"
	EncoderQSVEncC  = "QSVEncC"
	EncoderNVEncC   = "NVEncC"
	EncoderVCEEncC  = "VCEEncC"
	EncoderRkmppenc = "rkmppenc"
)

// Settings is the validated server settings document.
// Sections and fields are fixed; unknown keys are rejected during strict validation.
type Settings struct {
	General General `yaml:"general"`
	Server  Server  `yaml:"server"`
	TV      TV      `yaml:"tv"`
	Capture Capture `yaml:"capture"`
	Twitter Twitter `yaml:"twitter"`
}

// General holds backend and encoder selection.
type General struct {
	Backend               string  `yaml:"backend" validate:"oneof=EDCB Mirakurun"`
	EDCBURL               string  `yaml:"edcb_url" validate:"urlscheme=tcp"`
	MirakurunURL          string  `yaml:"mirakurun_url" validate:"http_url"`
	Encoder               string  `yaml:"encoder" validate:"oneof=FFmpeg QSVEncC NVEncC VCEEncC rkmppenc"`
	ProgramUpdateInterval float64 `yaml:"program_update_interval" validate:"gte=0.1"`
	Debug                 bool    `yaml:"debug"`
	DebugEncoder          bool    `yaml:"debug_encoder"`
}

// Server holds the listener configuration.
type Server struct {
	Port                   int     `yaml:"port" validate:"gt=0"`
	CustomHTTPSCertificate *string `yaml:"custom_https_certificate" validate:"omitempty,file"`
	CustomHTTPSPrivateKey  *string `yaml:"custom_https_private_key" validate:"omitempty,file"`
}

// TV holds streaming session settings.
type TV struct {
	MaxAliveTime    int     `yaml:"max_alive_time" validate:"gt=0"`
	DebugModeTSPath *string `yaml:"debug_mode_ts_path" validate:"omitempty,file"`
}

// Capture holds capture upload settings.
type Capture struct {
	UploadFolder string `yaml:"upload_folder" validate:"dir"`
}

// Twitter holds API credentials.
type Twitter struct {
	ConsumerKey    *string `yaml:"consumer_key"`
	ConsumerSecret *string `yaml:"consumer_secret"`
}

// Document is the plain nested form of a settings file: section -> field -> value.
// Values are scalars (string, integer, float, bool, nil) or slices of scalars.
type Document map[string]map[string]any

// Document converts the settings back into a plain nested mapping.
// Nil pointers become nil values; set pointers are dereferenced.
func (s *Settings) Document() Document {
	doc := make(Document)
	rv := reflect.ValueOf(s).Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		doc[fieldName(rt.Field(i))] = sectionValues(rv.Field(i))
	}
	return doc
}

// raw returns the document as the generic map shape produced by the parsers.
func (d Document) raw() map[string]any {
	out := make(map[string]any, len(d))
	for name, fields := range d {
		section := make(map[string]any, len(fields))
		for key, value := range fields {
			section[key] = value
		}
		out[name] = section
	}
	return out
}

// clone returns a deep copy of the two mapping levels.
func (d Document) clone() Document {
	out := make(Document, len(d))
	for name, fields := range d {
		section := make(map[string]any, len(fields))
		for key, value := range fields {
			section[key] = value
		}
		out[name] = section
	}
	return out
}

func sectionValues(v reflect.Value) map[string]any {
	t := v.Type()
	values := make(map[string]any, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		name := fieldName(t.Field(i))

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				values[name] = nil
			} else {
				values[name] = field.Elem().Interface()
			}
			continue
		}
		values[name] = field.Interface()
	}
	return values
}

// fieldName returns the settings file key of a struct field.
func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// nullableFields lists "section.field" paths whose value may be null or absent.
func nullableFields() map[string]bool {
	nullable := make(map[string]bool)
	rt := reflect.TypeOf(Settings{})

	for i := 0; i < rt.NumField(); i++ {
		section := rt.Field(i)
		st := section.Type
		for j := 0; j < st.NumField(); j++ {
			if st.Field(j).Type.Kind() == reflect.Ptr {
				nullable[fieldName(section)+"."+fieldName(st.Field(j))] = true
			}
		}
	}
	return nullable
}

// stringPtr returns a pointer to s.
func stringPtr(s string) *string { return &s }

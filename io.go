// File: lixenwraith/tvconfig/io.go
package tvconfig

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Line grammar of a settings file recognized by the preserving rewrite.
// Sections sit at 4-space indent, fields at 8, list elements at 12.
const (
	keyToken   = `'[^']*'|"[^"]*"`
	valueToken = `-?[0-9.]+|true|false|null|'(?:[^']|'')*'|"(?:[^"\\]|\\.)*"`
	tailToken  = `\s*(?:#.*)?`
)

var (
	sectionLine   = regexp.MustCompile(`^ {4}(` + keyToken + `): \{` + tailToken + `$`)
	listOpenLine  = regexp.MustCompile(`^ {8}(` + keyToken + `): \[` + tailToken + `$`)
	listCloseLine = regexp.MustCompile(`^ {8}\],` + tailToken + `$`)
	scalarLine    = regexp.MustCompile(`^( {8})(` + keyToken + `)(: )(` + valueToken + `)(,` + tailToken + `)$`)
)

// lineKind classifies one line of the settings file.
type lineKind int

const (
	lineOther lineKind = iota
	lineSection
	lineListOpen
	lineListClose
	lineScalar
)

// rewriter patches recognized value tokens line by line.
// State: the enclosing section, and whether a list block is open and being replaced.
type rewriter struct {
	doc     Document
	section string
	inList  bool
	// passList is set when the open list's field is absent from doc, so its body is kept
	passList bool
	patched  map[string]bool
	out      strings.Builder
}

func newRewriter(doc Document) *rewriter {
	return &rewriter{doc: doc, patched: make(map[string]bool)}
}

// classify matches a line (without its line ending) against the grammar in priority order.
func classify(line string) (lineKind, []string) {
	if m := sectionLine.FindStringSubmatch(line); m != nil {
		return lineSection, m
	}
	if m := listOpenLine.FindStringSubmatch(line); m != nil {
		return lineListOpen, m
	}
	if listCloseLine.MatchString(line) {
		return lineListClose, nil
	}
	if m := scalarLine.FindStringSubmatch(line); m != nil {
		return lineScalar, m
	}
	return lineOther, nil
}

// unquoteKey strips the surrounding quotes of a key token.
func unquoteKey(token string) string {
	return token[1 : len(token)-1]
}

// lookup returns the new value for key in the enclosing section.
func (r *rewriter) lookup(key string) (any, bool) {
	fields, ok := r.doc[r.section]
	if !ok {
		return nil, false
	}
	value, ok := fields[key]
	return value, ok
}

// feed processes one line; ending is its original line terminator.
func (r *rewriter) feed(line, ending string) {
	kind, m := classify(line)

	switch {
	case kind == lineListClose && r.inList:
		r.inList = false
		if r.passList {
			r.emit(line, ending)
		}
		return
	case r.inList:
		if r.passList {
			r.emit(line, ending)
		}
		return
	}

	switch kind {
	case lineSection:
		r.section = unquoteKey(m[1])
		r.emit(line, ending)

	case lineListOpen:
		key := unquoteKey(m[1])
		r.inList = true
		r.passList = true
		value, ok := r.lookup(key)
		if !ok {
			r.emit(line, ending)
			return
		}
		elems, isList := toSlice(value)
		if !isList {
			r.emit(line, ending)
			return
		}
		if err := r.emitList(m[1], elems, ending); err != nil {
			r.emit(line, ending)
			return
		}
		r.passList = false
		r.patched[r.section+"."+key] = true

	case lineScalar:
		key := unquoteKey(m[2])
		value, ok := r.lookup(key)
		if !ok {
			r.emit(line, ending)
			return
		}
		if _, isList := toSlice(value); isList {
			r.emit(line, ending)
			return
		}
		token, err := formatValue(value)
		if err != nil {
			r.emit(line, ending)
			return
		}
		r.emit(m[1]+m[2]+m[3]+token+m[5], ending)
		r.patched[r.section+"."+key] = true

	default:
		r.emit(line, ending)
	}
}

// emitList writes a regenerated list block the scanner will recognize again.
func (r *rewriter) emitList(keyTok string, elems []any, ending string) error {
	inner := ending
	if inner == "" {
		inner = "\n"
	}

	tokens := make([]string, len(elems))
	for i, elem := range elems {
		token, err := formatValue(elem)
		if err != nil {
			return err
		}
		tokens[i] = token
	}

	r.out.WriteString("        " + keyTok + ": [" + inner)
	for i, token := range tokens {
		r.out.WriteString("            " + token)
		if i < len(tokens)-1 {
			r.out.WriteString(",")
		}
		r.out.WriteString(inner)
	}
	r.out.WriteString("        ],")
	r.out.WriteString(ending)
	return nil
}

func (r *rewriter) emit(line, ending string) {
	r.out.WriteString(line)
	r.out.WriteString(ending)
}

// unpatched lists document fields with a value that no recognized line received.
func (r *rewriter) unpatched() []string {
	var missing []string
	for path, value := range flattenMap(r.doc.raw(), "") {
		if r.patched[path] || value == nil {
			continue
		}
		missing = append(missing, path)
	}
	sort.Strings(missing)
	return missing
}

// splitLine separates a line from its terminator.
func splitLine(raw string) (string, string) {
	switch {
	case strings.HasSuffix(raw, "\r\n"):
		return raw[:len(raw)-2], "\r\n"
	case strings.HasSuffix(raw, "\n"):
		return raw[:len(raw)-1], "\n"
	default:
		return raw, ""
	}
}

// rewriteDocument patches text with the values in doc and reports the fields left unpatched.
// Lines outside the recognized grammar are returned byte-identical.
func rewriteDocument(text string, doc Document) (string, []string) {
	r := newRewriter(doc)
	for _, raw := range strings.SplitAfter(text, "\n") {
		if raw == "" {
			continue
		}
		r.feed(splitLine(raw))
	}
	return r.out.String(), r.unpatched()
}

// SaveDocument rewrites the YAML settings file at path in place with the values in doc.
// The file is re-read on every call; comments, ordering and formatting are kept.
// Fields whose lines deviate from the recognized grammar are left as-is and logged.
func SaveDocument(path string, doc Document, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if detectFileFormat(path) != "yaml" {
		return errors.Wrapf(ErrUnsupportedFormat, "save %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "stat settings file '%s'", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read settings file '%s'", path)
	}

	text, unpatched := rewriteDocument(string(data), doc)
	for _, field := range unpatched {
		log.Warn("Setting was not written because its line in the settings file is not in the expected format.",
			zap.String("field", field), zap.String("path", path))
	}

	// In-place write: the file may be a single-file bind mount, which cannot be replaced by rename
	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "write settings file '%s'", path)
	}
	log.Debug("Server settings saved.", zap.String("path", path), zap.Int("unpatched", len(unpatched)))
	return nil
}

// Save writes s back to the loader's settings file.
// The process-wide settings are not modified; a restart is needed for changes to apply.
func (l *Loader) Save(s *Settings) error {
	doc := s.Document()
	if l.environment().Containerized() {
		stripRootfsPrefix(doc)
	}
	return SaveDocument(l.path, doc, l.logger)
}

package dirqueue

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// FieldType is one of the three on-disk encodings a schema field may use.
type FieldType int

const (
	// Binary fields are written and read back verbatim.
	Binary FieldType = iota
	// String fields are UTF-8 encoded text; encoding a value containing
	// surrogate halves or other non-scalar code points fails.
	String
	// Table fields are sorted key/value pairs with escaped control bytes.
	Table
)

// Field describes one schema entry: its on-disk type and modifiers.
type Field struct {
	Type FieldType
	// Optional fields may be absent both when adding and when reading
	// back an element.
	Optional bool
	// ByReference fields are handed to the caller (and accepted from the
	// caller) without an intermediate copy where the host language
	// permits it; Table fields do not support this modifier.
	ByReference bool
}

// Schema maps field name to its declared type and modifiers. Field names
// must be alphanumeric and must not be "locked", which names the
// lock-marker sub-directory.
type Schema map[string]Field

var fieldNamePattern = regexp.MustCompile(`^[0-9a-zA-Z]+$`)

// Validate checks that the schema has legal field names and at least one
// mandatory field.
func (s Schema) Validate() error {
	hasMandatory := false
	for name, field := range s {
		if name == "locked" || !fieldNamePattern.MatchString(name) {
			return fmt.Errorf("%w: field name %q", ErrInvalidOption, name)
		}
		if field.Type == Table && field.ByReference {
			return fmt.Errorf("%w: table field %q cannot be by-reference", ErrInvalidOption, name)
		}
		if !field.Optional {
			hasMandatory = true
		}
	}
	if !hasMandatory {
		return fmt.Errorf("%w: schema has no mandatory field", ErrInvalidOption)
	}
	return nil
}

// Fields is a caller-supplied or caller-received bundle of field values
// keyed by field name. Binary values are []byte, string values are
// string, and table values are map[string]string.
type Fields map[string]any

// encodeField serializes value according to field's declared type,
// returning the bytes to write to the element's field file.
func encodeField(field Field, value any) ([]byte, error) {
	switch field.Type {
	case Binary:
		data, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: expected []byte", ErrByReferenceMismatch)
		}
		return data, nil
	case String:
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string", ErrByReferenceMismatch)
		}
		return encodeString(text)
	case Table:
		table, ok := value.(map[string]string)
		if !ok {
			return nil, fmt.Errorf("%w: expected map[string]string", ErrByReferenceMismatch)
		}
		return encodeTable(table), nil
	default:
		return nil, fmt.Errorf("%w: unknown field type", ErrInvalidOption)
	}
}

// decodeField deserializes data read from an element's field file
// according to field's declared type.
func decodeField(field Field, data []byte) (any, error) {
	switch field.Type {
	case Binary:
		return data, nil
	case String:
		return decodeString(data)
	case Table:
		return decodeTable(data)
	default:
		return nil, fmt.Errorf("%w: unknown field type", ErrInvalidOption)
	}
}

// encodeString rejects any value containing surrogate halves or other
// non-Unicode-scalar code points, using the strict UTF-8 validator from
// golang.org/x/text rather than a hand-rolled scanner.
func encodeString(value string) ([]byte, error) {
	if _, _, err := transform.String(encoding.UTF8Validator, value); err != nil {
		return nil, ErrInvalidEncoding
	}
	return []byte(value), nil
}

func decodeString(data []byte) (string, error) {
	if _, _, err := transform.Bytes(encoding.UTF8Validator, data); err != nil {
		return "", ErrInvalidEncoding
	}
	return string(data), nil
}

var tableLinePattern = regexp.MustCompile(`^[^\t\n]*\t[^\t\n]*$`)

// encodeTable sorts entries lexically by key and writes
// "key\tvalue\n" lines, escaping backslash, tab, and newline in both key
// and value.
func encodeTable(table map[string]string) []byte {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		buf.WriteString(escapeTableField(key))
		buf.WriteByte('\t')
		buf.WriteString(escapeTableField(table[key]))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// decodeTable parses the sorted key/value lines written by encodeTable.
// Duplicate keys are tolerated; the last occurrence wins. Any line not
// matching key\tvalue fails with ErrMalformedTable.
func decodeTable(data []byte) (map[string]string, error) {
	table := make(map[string]string)
	if len(data) == 0 {
		return table, nil
	}
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if !tableLinePattern.MatchString(line) {
			return nil, ErrMalformedTable
		}
		tab := strings.IndexByte(line, '\t')
		key := unescapeTableField(line[:tab])
		value := unescapeTableField(line[tab+1:])
		table[key] = value
	}
	return table, nil
}

func escapeTableField(value string) string {
	var buf strings.Builder
	for _, r := range value {
		switch r {
		case '\\':
			buf.WriteString(`\\`)
		case '\t':
			buf.WriteString(`\t`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

func unescapeTableField(value string) string {
	var buf strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] == '\\' && i+1 < len(value) {
			switch value[i+1] {
			case '\\':
				buf.WriteByte('\\')
				i++
				continue
			case 't':
				buf.WriteByte('\t')
				i++
				continue
			case 'n':
				buf.WriteByte('\n')
				i++
				continue
			}
		}
		buf.WriteByte(value[i])
	}
	return buf.String()
}

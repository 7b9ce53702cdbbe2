// Package document holds the flat item payload stored per item and the
// naming rules shared by document keys and field names.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// MaxNameLen bounds field names and document keys.
const MaxNameLen = 64

var safeNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _-]{0,63}$`)

var reservedNames = map[string]bool{
	"__proto__":   true,
	"prototype":   true,
	"constructor": true,
}

// IsSafeName reports whether name may be used as a field name, a document
// key, or a sort key. Names with surrounding whitespace, dots, reserved
// names and anything outside letters/digits/space/underscore/hyphen fail.
func IsSafeName(name string) bool {
	if name == "" || strings.TrimSpace(name) != name {
		return false
	}
	if strings.Contains(name, ".") {
		return false
	}
	if !safeNameRe.MatchString(name) {
		return false
	}
	return !reservedNames[strings.ToLower(name)]
}

// Document is the flat string-keyed map stored per item. Values are
// strings, finite numbers or nil.
type Document map[string]any

// ShapeError describes why a document was rejected.
type ShapeError struct {
	Key    string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Key == "" {
		return "invalid document: " + e.Reason
	}
	return fmt.Sprintf("invalid document: key %q: %s", e.Key, e.Reason)
}

// Validate checks key safety and that every value is a primitive.
func (d Document) Validate() error {
	for _, k := range d.sortedKeys() {
		if !IsSafeName(k) {
			return &ShapeError{Key: k, Reason: "unsafe field name"}
		}
		if err := checkValue(d[k]); err != nil {
			return &ShapeError{Key: k, Reason: err.Error()}
		}
	}
	return nil
}

func checkValue(v any) error {
	switch x := v.(type) {
	case nil, string:
		return nil
	case json.Number:
		f, err := x.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("number %q is not finite", x.String())
		}
		return nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return fmt.Errorf("number is not finite")
		}
		return nil
	case float32:
		if math.IsInf(float64(x), 0) || math.IsNaN(float64(x)) {
			return fmt.Errorf("number is not finite")
		}
		return nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return fmt.Errorf("value of type %T is not a string, number or null", v)
	}
}

// Merge returns a new document with patch keys laid over d. The merge is a
// single level: a nil or empty patch value is stored as is, it does not
// remove the key.
func (d Document) Merge(patch Document) Document {
	out := make(Document, len(d)+len(patch))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Marshal serializes the document for storage. A nil document is stored as
// an empty object.
func (d Document) Marshal() (string, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parse decodes a stored document and validates its shape.
func Parse(raw string) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if m == nil {
		return nil, &ShapeError{Reason: "document is not an object"}
	}
	d := Document(m)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d Document) sortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

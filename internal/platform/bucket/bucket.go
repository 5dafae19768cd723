// Package bucket adapts an arbitrary decoded JSON/YAML document into the
// field lookup the HL7 resolver consumes. Logical field names double as
// dotted paths into nested documents, so a bucket may be flat
// ("patientId") or structured ("patient.id") at the caller's choice.
package bucket

import (
	"fmt"
	"strconv"

	"github.com/oarkflow/dipper"
)

// Bucket is one external data document.
type Bucket struct {
	data map[string]any
}

// New wraps a decoded document. A nil map yields a bucket that never
// matches.
func New(data map[string]any) *Bucket {
	return &Bucket{data: data}
}

// Lookup returns the string value at the given field name or dotted path.
// Scalar non-string leaves are rendered to their literal form; missing
// paths and non-scalar leaves report absence.
func (b *Bucket) Lookup(field string) (string, bool) {
	if b == nil || len(b.data) == 0 || field == "" {
		return "", false
	}

	v, err := dipper.Get(b.data, field)
	if err != nil {
		return "", false
	}
	return stringify(v)
}

// At returns a lookup scoped to the sub-document at the given dotted
// path. An empty path scopes to the root.
func (b *Bucket) At(path string) func(string) (string, bool) {
	if path == "" {
		return b.Lookup
	}
	return func(field string) (string, bool) {
		return b.Lookup(path + "." + field)
	}
}

// stringify renders a scalar leaf value. Maps and slices are not field
// values.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}

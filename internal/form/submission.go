package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Entry is one submitted value keyed by field name.
// Value is a string for scalar kinds, a list of strings for checkbox, select
// and list kinds, and a JSON-encoded Attachment for file kinds.
type Entry struct {
	Name  string `json:"-"`
	Label string `json:"label"`
	Type  Kind   `json:"type"`
	Value any    `json:"value"`
}

// Scalar returns the entry value as a string. Values that are not scalars
// yield an empty string.
func (e Entry) Scalar() string {
	switch v := e.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// List returns the entry value as a list of strings. The second result is
// false when the value is not a list.
func (e Entry) List() ([]string, bool) {
	switch v := e.Value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, Entry{Value: item}.Scalar())
		}
		return out, true
	default:
		return nil, false
	}
}

// Submission is an ordered set of entries for one form submission. Order is
// significant: it drives the line order of the plain-text body.
type Submission []Entry

// Get returns the entry with the given field name.
func (s Submission) Get(name string) (Entry, bool) {
	for _, e := range s {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Value returns the scalar value of the named entry, or "".
func (s Submission) Value(name string) string {
	e, ok := s.Get(name)
	if !ok {
		return ""
	}
	return e.Scalar()
}

// Clone returns a copy whose entries can be modified without touching s.
func (s Submission) Clone() Submission {
	if s == nil {
		return nil
	}
	out := make(Submission, len(s))
	copy(out, s)
	return out
}

// UnmarshalJSON decodes a JSON object of field name to entry, keeping the
// object's key order.
func (s *Submission) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read submission: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("submission must be a JSON object")
	}

	seen := make(map[string]bool)
	var out Submission
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read submission key: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected submission key %v", tok)
		}
		if seen[name] {
			return fmt.Errorf("duplicate submission field %q", name)
		}
		seen[name] = true

		var e Entry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("failed to decode field %q: %w", name, err)
		}
		e.Name = name
		out = append(out, e)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read submission: %w", err)
	}

	*s = out
	return nil
}

// MarshalJSON encodes the submission as a JSON object in entry order.
func (s Submission) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

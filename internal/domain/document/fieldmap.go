package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FieldMap is an ordered mapping of field name to scalar value. Insertion
// order is preserved through JSON round trips so that payload encoding is
// deterministic.
type FieldMap struct {
	keys   []string
	values map[string]Value
}

// NewFieldMap returns an empty field map.
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string]Value)}
}

// Set stores a value under name, appending the key on first insert.
func (m *FieldMap) Set(name string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = v
}

// Get returns the value for name and whether it is present.
func (m *FieldMap) Get(name string) (Value, bool) {
	if m == nil || m.values == nil {
		return Value{}, false
	}
	v, ok := m.values[name]
	return v, ok
}

// Has reports whether name is present.
func (m *FieldMap) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Delete removes name, preserving the order of the remaining keys.
func (m *FieldMap) Delete(name string) {
	if m == nil || m.values == nil {
		return
	}
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	for i, k := range m.keys {
		if k == name {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order.
func (m *FieldMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of fields.
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy.
func (m *FieldMap) Clone() *FieldMap {
	out := NewFieldMap()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// Equal reports whether two maps hold the same keys and values, ignoring
// order.
func (m *FieldMap) Equal(other *FieldMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, k := range m.keys {
		ov, ok := other.Get(k)
		if !ok || !m.values[k].Equal(ov) {
			return false
		}
	}
	return true
}

func (m *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *FieldMap) UnmarshalJSON(data []byte) error {
	*m = *NewFieldMap()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object", ErrInvalidValue)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: expected object key", ErrInvalidValue)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		var v Value
		if err := json.Unmarshal(raw, &v); err != nil {
			// Non-scalar values (nested lists, objects) are dropped:
			// only one level of table nesting is supported.
			if errors.Is(err, ErrInvalidValue) {
				continue
			}
			return fmt.Errorf("field %q: %w", key, err)
		}
		m.Set(key, v)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

package cric

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fields is a string-keyed map that remembers insertion order, so parsed
// sections serialize in the order they appear in the source page.
type Fields struct {
	keys   []string
	values map[string]any
}

func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// Set stores v under k. An existing key keeps its position.
func (f *Fields) Set(k string, v any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[k]; !ok {
		f.keys = append(f.keys, k)
	}
	f.values[k] = v
}

func (f *Fields) Get(k string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[k]
	return v, ok
}

// String returns the value under k when it is a string.
func (f *Fields) String(k string) string {
	v, _ := f.Get(k)
	s, _ := v.(string)
	return s
}

// Fields returns the nested Fields under k, or nil.
func (f *Fields) Fields(k string) *Fields {
	v, _ := f.Get(k)
	nested, _ := v.(*Fields)
	return nested
}

func (f *Fields) Has(k string) bool {
	_, ok := f.Get(k)
	return ok
}

func (f *Fields) Delete(k string) {
	if f == nil {
		return
	}
	if _, ok := f.values[k]; !ok {
		return
	}
	delete(f.values, k)
	for i, key := range f.keys {
		if key == k {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

func (f *Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalNoEscape(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object")
	}
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}

func decodeObject(dec *json.Decoder) (*Fields, error) {
	out := NewFields()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("fields: expected string key")
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			list := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("fields: unexpected delimiter %q", t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Package members keeps JSON object members which a Go struct does not declare,
// so that platform resources can be written back without loss.
package members

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"strings"
)

// Extra is JSON object members which are not fields of the struct.
type Extra map[string]json.RawMessage

// Unmarshal decodes b into v, and returns members of b which v does not declare.
//
// v should be a pointer to a struct type without its own UnmarshalJSON (use a local alias type).
func Unmarshal(b []byte, v any) (Extra, error) {
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range keys(reflect.TypeOf(v).Elem()) {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// Marshal encodes v with extra members. Fields of v take precedence over extra.
//
// v should be a struct value without its own MarshalJSON (use a local alias type).
func Marshal(v any, extra Extra) ([]byte, error) {
	if len(extra) == 0 {
		return json.Marshal(v)
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := out[k]; !ok {
			out[k] = raw
		}
	}
	return json.Marshal(out)
}

// Clone makes a copy of extra.
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	ret := make(Extra, len(e))
	for k, v := range e {
		ret[k] = bytes.Clone(v)
	}
	return ret
}

// Equal compares members ignoring insignificant spaces.
func (e Extra) Equal(o Extra) bool {
	return maps.EqualFunc(e, o, func(x, y json.RawMessage) bool {
		return bytes.Equal(compact(x), compact(y))
	})
}

func compact(b json.RawMessage) []byte {
	buf := new(bytes.Buffer)
	if err := json.Compact(buf, b); err != nil {
		return b
	}
	return buf.Bytes()
}

// keys lists JSON member names of fields declared by t.
func keys(t reflect.Type) []string {
	ret := []string{}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		ret = append(ret, name)
	}
	return ret
}

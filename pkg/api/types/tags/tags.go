package tags

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/opst/trainval/pkg/api/types/internal/members"
)

// ValueType is a kind of value which tags of a TagMeta can hold.
type ValueType string

const (
	None        ValueType = "none"
	AnyNumber   ValueType = "any_number"
	AnyString   ValueType = "any_string"
	OneOfString ValueType = "oneof_string"
)

func (vt *ValueType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseValueType(s)
	if err != nil {
		return err
	}
	*vt = v
	return nil
}

func ParseValueType(s string) (ValueType, error) {
	switch v := ValueType(s); v {
	case None, AnyNumber, AnyString, OneOfString:
		return v, nil
	default:
		return "", fmt.Errorf("unknown tag value type: %s", s)
	}
}

// Meta is a definition of tags in a project.
type Meta struct {
	Name      string    `json:"name"`
	ValueType ValueType `json:"value_type"`

	// "#RRGGBB" formatted color
	Color string `json:"color"`

	// candidates of values. Used only when ValueType is OneOfString.
	Values []string `json:"values,omitempty"`

	// members not listed above, like "id" or "hotkey".
	extra members.Extra
}

func (m *Meta) UnmarshalJSON(b []byte) error {
	type plain Meta
	p := plain{}
	extra, err := members.Unmarshal(b, &p)
	if err != nil {
		return err
	}
	*m = Meta(p)
	m.extra = extra
	return nil
}

func (m Meta) MarshalJSON() ([]byte, error) {
	type plain Meta
	return members.Marshal(plain(m), m.extra)
}

// Clone makes a deep copy.
func (m Meta) Clone() Meta {
	m.Values = slices.Clone(m.Values)
	m.extra = m.extra.Clone()
	return m
}

func (m Meta) Equal(o Meta) bool {
	return m.Name == o.Name &&
		m.ValueType == o.ValueType &&
		strings.EqualFold(m.Color, o.Color) &&
		reflect.DeepEqual(m.Values, o.Values) &&
		m.extra.Equal(o.extra)
}

// RGB formats the color as "#RRGGBB".
func RGB(r, g, b uint8) string {
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Tag is a tag put on an image.
type Tag struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`

	LabelerLogin string `json:"labelerLogin,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`

	// members not listed above, like "id" or "tagId".
	extra members.Extra
}

func (t *Tag) UnmarshalJSON(b []byte) error {
	type plain Tag
	p := plain{}
	extra, err := members.Unmarshal(b, &p)
	if err != nil {
		return err
	}
	*t = Tag(p)
	t.extra = extra
	return nil
}

func (t Tag) MarshalJSON() ([]byte, error) {
	type plain Tag
	return members.Marshal(plain(t), t.extra)
}

// New creates a Tag of meta without value.
func New(meta Meta) Tag {
	return Tag{Name: meta.Name}
}

func (t Tag) Equal(o Tag) bool {
	return t.Name == o.Name &&
		reflect.DeepEqual(t.Value, o.Value) &&
		t.LabelerLogin == o.LabelerLogin &&
		t.CreatedAt == o.CreatedAt &&
		t.UpdatedAt == o.UpdatedAt &&
		t.extra.Equal(o.extra)
}

func (t Tag) String() string {
	if t.Value == nil {
		return t.Name
	}
	return fmt.Sprintf("%s:%v", t.Name, t.Value)
}

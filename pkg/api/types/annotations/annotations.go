package annotations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/opst/trainval/pkg/api/types/tags"
)

const keyTags = "tags"

// Annotation is an annotation of an image.
//
// Only image level tags are interpreted.
// Other members (size, objects, description, ...) are kept as they are,
// and written back on marshalling.
type Annotation struct {
	Tags []tags.Tag

	members map[string]json.RawMessage
}

// WithTags returns a copy of the annotation whose image tags are replaced.
func (a Annotation) WithTags(t []tags.Tag) Annotation {
	return Annotation{
		Tags:    slices.Clone(t),
		members: maps.Clone(a.members),
	}
}

// Member returns a raw value of a member other than tags.
func (a Annotation) Member(key string) (json.RawMessage, bool) {
	v, ok := a.members[key]
	return v, ok
}

func (a Annotation) Equal(o Annotation) bool {
	if !slices.EqualFunc(a.Tags, o.Tags, tags.Tag.Equal) {
		return false
	}
	return maps.EqualFunc(a.members, o.members, func(x, y json.RawMessage) bool {
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

func (a *Annotation) UnmarshalJSON(b []byte) error {
	members := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &members); err != nil {
		return fmt.Errorf("annotation is not an object: %w", err)
	}

	t := []tags.Tag{}
	if raw, ok := members[keyTags]; ok {
		delete(members, keyTags)
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("annotation has broken tags: %w", err)
		}
	}
	a.Tags = t
	a.members = members
	return nil
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.members)+1)
	for k, v := range a.members {
		out[k] = v
	}
	t := a.Tags
	if t == nil {
		t = []tags.Tag{}
	}
	out[keyTags] = t
	return json.Marshal(out)
}

// Info is an annotation with the image which it belongs to.
type Info struct {
	ImageId    int        `json:"imageId"`
	ImageName  string     `json:"imageName"`
	DatasetId  int        `json:"datasetId"`
	Annotation Annotation `json:"annotation"`
}

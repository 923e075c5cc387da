package meta

import (
	"encoding/json"
	"slices"

	"github.com/opst/trainval/pkg/api/types/internal/members"
	"github.com/opst/trainval/pkg/api/types/tags"
)

// ProjectMeta is a schema of annotations in a project.
//
// Object classes and members not listed here (like "projectSettings")
// are not interpreted and kept as they are.
type ProjectMeta struct {
	Classes     json.RawMessage `json:"classes,omitempty"`
	TagMetas    []tags.Meta     `json:"tags"`
	ProjectType string          `json:"projectType,omitempty"`

	extra members.Extra
}

func (pm *ProjectMeta) UnmarshalJSON(b []byte) error {
	type plain ProjectMeta
	p := plain{}
	extra, err := members.Unmarshal(b, &p)
	if err != nil {
		return err
	}
	*pm = ProjectMeta(p)
	pm.extra = extra
	return nil
}

func (pm ProjectMeta) MarshalJSON() ([]byte, error) {
	type plain ProjectMeta
	if pm.TagMetas == nil {
		pm.TagMetas = []tags.Meta{}
	}
	return members.Marshal(plain(pm), pm.extra)
}

// TagMeta finds a tag meta by name.
func (pm ProjectMeta) TagMeta(name string) (tags.Meta, bool) {
	for _, m := range pm.TagMetas {
		if m.Name == name {
			return m, true
		}
	}
	return tags.Meta{}, false
}

// Clone makes a deep copy.
func (pm ProjectMeta) Clone() ProjectMeta {
	ret := ProjectMeta{
		Classes:     slices.Clone(pm.Classes),
		TagMetas:    make([]tags.Meta, len(pm.TagMetas)),
		ProjectType: pm.ProjectType,
		extra:       pm.extra.Clone(),
	}
	for nth, m := range pm.TagMetas {
		ret.TagMetas[nth] = m.Clone()
	}
	return ret
}

func (pm ProjectMeta) Equal(o ProjectMeta) bool {
	return members.Extra{"classes": pm.Classes}.Equal(members.Extra{"classes": o.Classes}) &&
		slices.EqualFunc(pm.TagMetas, o.TagMetas, tags.Meta.Equal) &&
		pm.ProjectType == o.ProjectType &&
		pm.extra.Equal(o.extra)
}

// WithTagMetas returns a copy of pm with additional tag metas.
//
// pm itself is not modified.
func (pm ProjectMeta) WithTagMetas(metas ...tags.Meta) ProjectMeta {
	ret := pm.Clone()
	ret.TagMetas = append(ret.TagMetas, metas...)
	return ret
}

package sandbox

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tags"
	"gopkg.in/yaml.v3"
)

// Fixture is initial entities of the sandbox.
//
// Example:
//
//	projects:
//	  - id: 10
//	    name: cats
//	    workspaceId: 2
//	    tags:
//	      - name: train
//	        valueType: none
//	        color: "#00FF00"
//	    datasets:
//	      - id: 1
//	        name: ds1
//	        customData: {camera: front}
//	        images:
//	          - {id: 101, name: a.jpg, tags: [train]}
//	        datasets:
//	          - name: nested
//	            images:
//	              - {name: b.jpg}
//
// Ids can be omitted. Then, they are issued.
type Fixture struct {
	Projects []ProjectFixture `yaml:"projects"`
}

type ProjectFixture struct {
	Id          int              `yaml:"id,omitempty"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	WorkspaceId int              `yaml:"workspaceId"`
	Tags        []TagMetaFixture `yaml:"tags,omitempty"`
	Datasets    []DatasetFixture `yaml:"datasets,omitempty"`
}

type TagMetaFixture struct {
	Name      string   `yaml:"name"`
	ValueType string   `yaml:"valueType,omitempty"`
	Color     string   `yaml:"color,omitempty"`
	Values    []string `yaml:"values,omitempty"`
}

type DatasetFixture struct {
	Id          int              `yaml:"id,omitempty"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	CustomData  map[string]any   `yaml:"customData,omitempty"`
	Images      []ImageFixture   `yaml:"images,omitempty"`
	Datasets    []DatasetFixture `yaml:"datasets,omitempty"`
}

type ImageFixture struct {
	Id   int      `yaml:"id,omitempty"`
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags,omitempty"`
}

// LoadFixture reads a fixture from a YAML file.
func LoadFixture(path string) (Fixture, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	f := Fixture{}
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return Fixture{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Seed puts entities of the fixture into the store.
//
// It stops at the first error, and entities seeded before that are left.
func (s *Store) Seed(f Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pf := range f.Projects {
		pm := meta.ProjectMeta{TagMetas: []tags.Meta{}}
		for _, tf := range pf.Tags {
			tm, err := tf.meta()
			if err != nil {
				return fmt.Errorf("project %s: %w", pf.Name, err)
			}
			pm.TagMetas = append(pm.TagMetas, tm)
		}

		id := pf.Id
		if id == 0 {
			id = s.nextId()
		} else if _, ok := s.projects[id]; ok {
			return fmt.Errorf("%w: project id %d is used", ErrConflict, id)
		}
		s.reserve(id)
		s.projects[id] = &project{
			info: projects.Info{
				Id:          id,
				Name:        pf.Name,
				Description: pf.Description,
				WorkspaceId: pf.WorkspaceId,
				Type:        projects.TypeImages,
			},
			meta: pm,
		}

		if err := s.seedDatasets(id, nil, pf.Datasets); err != nil {
			return fmt.Errorf("project %s: %w", pf.Name, err)
		}
	}
	return nil
}

func (s *Store) seedDatasets(projectId int, parentId *int, dfs []DatasetFixture) error {
	for _, df := range dfs {
		ds, err := s.createDataset(df.Id, datasets.Spec{
			ProjectId:   projectId,
			Name:        df.Name,
			Description: df.Description,
			ParentId:    parentId,
		}, df.CustomData)
		if err != nil {
			return err
		}
		for _, imf := range df.Images {
			ann, err := imf.annotation()
			if err != nil {
				return fmt.Errorf("image %s: %w", imf.Name, err)
			}
			if _, err := s.addImage(imf.Id, ds.Id, imf.Name, "", ann); err != nil {
				return err
			}
		}
		id := ds.Id
		if err := s.seedDatasets(projectId, &id, df.Datasets); err != nil {
			return err
		}
	}
	return nil
}

func (tf TagMetaFixture) meta() (tags.Meta, error) {
	vt := tags.None
	if tf.ValueType != "" {
		v, err := tags.ParseValueType(tf.ValueType)
		if err != nil {
			return tags.Meta{}, err
		}
		vt = v
	}
	color := tf.Color
	if color == "" {
		color = tags.RGB(128, 128, 128)
	}
	return tags.Meta{Name: tf.Name, ValueType: vt, Color: color, Values: tf.Values}, nil
}

func (imf ImageFixture) annotation() (annotations.Annotation, error) {
	t := []tags.Tag{}
	for _, name := range imf.Tags {
		t = append(t, tags.Tag{Name: name})
	}
	buf, err := json.Marshal(map[string]any{"description": "", "tags": t, "objects": []any{}})
	if err != nil {
		return annotations.Annotation{}, err
	}
	ann := annotations.Annotation{}
	if err := json.Unmarshal(buf, &ann); err != nil {
		return annotations.Annotation{}, err
	}
	return ann, nil
}

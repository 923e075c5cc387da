// Package sandbox is an in-memory platform serving the API methods which trainval calls.
//
// It is for local trials and end-to-end tests. Nothing is persisted.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tags"
	"github.com/opst/trainval/pkg/api/types/tasks"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid request")
)

const emptyAnnotation = `{"description":"","tags":[],"objects":[]}`

type project struct {
	info projects.Info
	meta meta.ProjectMeta
}

type image struct {
	info       images.Info
	annotation annotations.Annotation
}

// Task is what is recorded about a task.
type Task struct {
	// Fields are values set by field paths, like "data.progress".
	Fields map[string]any

	// History of field updates, in the order of calls.
	History [][]tasks.Field

	OutputProjectId   int
	OutputProjectName string

	WorkflowInputs  []int
	WorkflowOutputs []int
}

// Store holds entities of the sandbox platform.
//
// It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	lastId   int
	projects map[int]*project
	datasets map[int]*datasets.Info
	images   map[int]*image
	tasks    map[int]*Task
}

func NewStore() *Store {
	return &Store{
		projects: map[int]*project{},
		datasets: map[int]*datasets.Info{},
		images:   map[int]*image{},
		tasks:    map[int]*Task{},
	}
}

// nextId issues a new id. It should be called with s.mu locked.
func (s *Store) nextId() int {
	s.lastId += 1
	return s.lastId
}

// reserve makes ids up to id never issued. It should be called with s.mu locked.
func (s *Store) reserve(id int) {
	s.lastId = max(s.lastId, id)
}

func (s *Store) Project(id int) (projects.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectInfo(id)
}

func (s *Store) projectInfo(id int) (projects.Info, error) {
	p, ok := s.projects[id]
	if !ok {
		return projects.Info{}, fmt.Errorf("%w: project %d", ErrNotFound, id)
	}

	info := p.info
	info.ImagesCount = 0
	info.ReferenceImageUrl = ""
	for _, ds := range s.datasetsOf(id) {
		for _, img := range s.imagesOf(ds.Id) {
			info.ImagesCount += 1
			if info.ReferenceImageUrl == "" {
				info.ReferenceImageUrl = img.info.Link
			}
		}
	}
	return info, nil
}

// CreateProject creates a project.
//
// When the name is used in the workspace, the project is renamed as "<name>_001", "<name>_002", ...
// if spec.ChangeNameIfConflict is true. Otherwise, ErrConflict is returned.
func (s *Store) CreateProject(spec projects.Spec) (projects.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.Name == "" {
		return projects.Info{}, fmt.Errorf("%w: project name is empty", ErrInvalid)
	}
	used := map[string]struct{}{}
	for _, p := range s.projects {
		if p.info.WorkspaceId == spec.WorkspaceId {
			used[p.info.Name] = struct{}{}
		}
	}
	name, err := freeName(spec.Name, used, spec.ChangeNameIfConflict)
	if err != nil {
		return projects.Info{}, fmt.Errorf("project %s: %w", spec.Name, err)
	}

	typ := spec.Type
	if typ == "" {
		typ = projects.TypeImages
	}
	info := projects.Info{
		Id:          s.nextId(),
		Name:        name,
		Description: spec.Description,
		WorkspaceId: spec.WorkspaceId,
		Type:        typ,
	}
	s.projects[info.Id] = &project{info: info, meta: meta.ProjectMeta{TagMetas: []tags.Meta{}}}
	return s.projectInfo(info.Id)
}

func freeName(name string, used map[string]struct{}, changeIfConflict bool) (string, error) {
	if _, ok := used[name]; !ok {
		return name, nil
	}
	if !changeIfConflict {
		return "", fmt.Errorf("%w: name %s is already used", ErrConflict, name)
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%03d", name, n)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
}

func (s *Store) ProjectMeta(projectId int) (meta.ProjectMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectId]
	if !ok {
		return meta.ProjectMeta{}, fmt.Errorf("%w: project %d", ErrNotFound, projectId)
	}
	return p.meta.Clone(), nil
}

func (s *Store) UpdateProjectMeta(projectId int, m meta.ProjectMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectId]
	if !ok {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectId)
	}
	p.meta = m.Clone()
	return nil
}

// datasetsOf lists datasets in a project ordered by id. It should be called with s.mu locked.
func (s *Store) datasetsOf(projectId int) []datasets.Info {
	ret := []datasets.Info{}
	for _, ds := range s.datasets {
		if ds.ProjectId == projectId {
			ret = append(ret, s.datasetInfo(ds))
		}
	}
	slices.SortFunc(ret, func(a, b datasets.Info) int { return a.Id - b.Id })
	return ret
}

// datasetInfo makes a copy of ds with images count. It should be called with s.mu locked.
func (s *Store) datasetInfo(ds *datasets.Info) datasets.Info {
	info := *ds
	info.CustomData = maps.Clone(ds.CustomData)
	info.ImagesCount = len(s.imagesOf(ds.Id))
	return info
}

// ListDatasets lists datasets in a project.
//
// When recursive is false, only top level datasets are listed.
func (s *Store) ListDatasets(projectId int, recursive bool) ([]datasets.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectId]; !ok {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectId)
	}
	all := s.datasetsOf(projectId)
	if recursive {
		return all, nil
	}
	return slices.DeleteFunc(all, func(ds datasets.Info) bool { return ds.ParentId != nil }), nil
}

func (s *Store) Dataset(id int) (datasets.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.datasets[id]
	if !ok {
		return datasets.Info{}, fmt.Errorf("%w: dataset %d", ErrNotFound, id)
	}
	return s.datasetInfo(ds), nil
}

// CreateDataset creates a dataset.
//
// Names are unique among siblings.
func (s *Store) CreateDataset(spec datasets.Spec) (datasets.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createDataset(0, spec, nil)
}

// createDataset creates a dataset. When id is 0, new id is issued. It should be called with s.mu locked.
func (s *Store) createDataset(id int, spec datasets.Spec, customData map[string]any) (datasets.Info, error) {
	if _, ok := s.projects[spec.ProjectId]; !ok {
		return datasets.Info{}, fmt.Errorf("%w: project %d", ErrNotFound, spec.ProjectId)
	}
	if spec.Name == "" {
		return datasets.Info{}, fmt.Errorf("%w: dataset name is empty", ErrInvalid)
	}
	if spec.ParentId != nil {
		parent, ok := s.datasets[*spec.ParentId]
		if !ok || parent.ProjectId != spec.ProjectId {
			return datasets.Info{}, fmt.Errorf("%w: parent dataset %d in project %d", ErrNotFound, *spec.ParentId, spec.ProjectId)
		}
	}

	used := map[string]struct{}{}
	for _, ds := range s.datasets {
		if ds.ProjectId != spec.ProjectId {
			continue
		}
		if (ds.ParentId == nil && spec.ParentId == nil) ||
			(ds.ParentId != nil && spec.ParentId != nil && *ds.ParentId == *spec.ParentId) {
			used[ds.Name] = struct{}{}
		}
	}
	name, err := freeName(spec.Name, used, spec.ChangeNameIfConflict)
	if err != nil {
		return datasets.Info{}, fmt.Errorf("dataset %s: %w", spec.Name, err)
	}

	if id == 0 {
		id = s.nextId()
	} else if _, ok := s.datasets[id]; ok {
		return datasets.Info{}, fmt.Errorf("%w: dataset id %d is used", ErrConflict, id)
	}
	s.reserve(id)

	var parentId *int
	if spec.ParentId != nil {
		p := *spec.ParentId
		parentId = &p
	}
	ds := &datasets.Info{
		Id:          id,
		Name:        name,
		Description: spec.Description,
		ProjectId:   spec.ProjectId,
		ParentId:    parentId,
		CustomData:  maps.Clone(customData),
	}
	s.datasets[id] = ds
	return s.datasetInfo(ds), nil
}

func (s *Store) UpdateDatasetCustomData(id int, customData map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.datasets[id]
	if !ok {
		return fmt.Errorf("%w: dataset %d", ErrNotFound, id)
	}
	ds.CustomData = maps.Clone(customData)
	return nil
}

// imagesOf lists images in a dataset ordered by id. It should be called with s.mu locked.
func (s *Store) imagesOf(datasetId int) []*image {
	ret := []*image{}
	for _, img := range s.images {
		if img.info.DatasetId == datasetId {
			ret = append(ret, img)
		}
	}
	slices.SortFunc(ret, func(a, b *image) int { return a.info.Id - b.info.Id })
	return ret
}

// ListImages returns a page of images in a dataset. page starts from 1.
func (s *Store) ListImages(datasetId int, page int, perPage int) (images.Page[images.Info], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[datasetId]; !ok {
		return images.Page[images.Info]{}, fmt.Errorf("%w: dataset %d", ErrNotFound, datasetId)
	}
	if page < 1 || perPage < 1 {
		return images.Page[images.Info]{}, fmt.Errorf("%w: page = %d, perPage = %d", ErrInvalid, page, perPage)
	}

	all := s.imagesOf(datasetId)
	ret := images.Page[images.Info]{
		Total:      len(all),
		PagesCount: (len(all) + perPage - 1) / perPage,
		Entities:   []images.Info{},
	}
	from := min((page-1)*perPage, len(all))
	to := min(page*perPage, len(all))
	for _, img := range all[from:to] {
		ret.Entities = append(ret.Entities, img.info)
	}
	return ret, nil
}

// addImage registers an image. When id is 0, new id is issued. It should be called with s.mu locked.
func (s *Store) addImage(id int, datasetId int, name string, hash string, ann annotations.Annotation) (images.Info, error) {
	if _, ok := s.datasets[datasetId]; !ok {
		return images.Info{}, fmt.Errorf("%w: dataset %d", ErrNotFound, datasetId)
	}
	if name == "" {
		return images.Info{}, fmt.Errorf("%w: image name is empty", ErrInvalid)
	}
	if id == 0 {
		id = s.nextId()
	} else if _, ok := s.images[id]; ok {
		return images.Info{}, fmt.Errorf("%w: image id %d is used", ErrConflict, id)
	}
	s.reserve(id)

	if hash == "" {
		hash = uuid.NewString()
	}
	info := images.Info{
		Id:        id,
		Name:      name,
		DatasetId: datasetId,
		Hash:      hash,
		Link:      fmt.Sprintf("/sandbox/images/%s/%s", hash, name),
	}
	s.images[id] = &image{info: info, annotation: ann}
	return info, nil
}

// CopyImages copies images into a dataset.
//
// Copies share contents (hash) with their sources.
// Annotations are copied when withAnnotations is true. Otherwise, copies have empty annotations.
func (s *Store) CopyImages(dstDatasetId int, ids []int, withAnnotations bool) ([]images.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcs, err := s.lookupImages(ids)
	if err != nil {
		return nil, err
	}
	ret := make([]images.Info, 0, len(srcs))
	for _, src := range srcs {
		ann := emptyAnnotationValue()
		if withAnnotations {
			ann = src.annotation.WithTags(src.annotation.Tags)
		}
		copied, err := s.addImage(0, dstDatasetId, src.info.Name, src.info.Hash, ann)
		if err != nil {
			return nil, err
		}
		ret = append(ret, copied)
	}
	return ret, nil
}

// AddImagesById registers existing images into a dataset with new names. Annotations are empty.
func (s *Store) AddImagesById(datasetId int, names []string, ids []int) ([]images.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(names) != len(ids) {
		return nil, fmt.Errorf("%w: %d names for %d images", ErrInvalid, len(names), len(ids))
	}
	srcs, err := s.lookupImages(ids)
	if err != nil {
		return nil, err
	}
	ret := make([]images.Info, 0, len(srcs))
	for nth, src := range srcs {
		added, err := s.addImage(0, datasetId, names[nth], src.info.Hash, emptyAnnotationValue())
		if err != nil {
			return nil, err
		}
		ret = append(ret, added)
	}
	return ret, nil
}

// lookupImages finds images in the order of ids. It should be called with s.mu locked.
func (s *Store) lookupImages(ids []int) ([]*image, error) {
	ret := make([]*image, 0, len(ids))
	for _, id := range ids {
		img, ok := s.images[id]
		if !ok {
			return nil, fmt.Errorf("%w: image %d", ErrNotFound, id)
		}
		ret = append(ret, img)
	}
	return ret, nil
}

// Annotations returns annotations of images in a dataset, in the order of imageIds.
func (s *Store) Annotations(datasetId int, imageIds []int) ([]annotations.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	imgs, err := s.lookupImages(imageIds)
	if err != nil {
		return nil, err
	}
	ret := make([]annotations.Info, 0, len(imgs))
	for _, img := range imgs {
		if img.info.DatasetId != datasetId {
			return nil, fmt.Errorf("%w: image %d in dataset %d", ErrNotFound, img.info.Id, datasetId)
		}
		ret = append(ret, annotations.Info{
			ImageId:    img.info.Id,
			ImageName:  img.info.Name,
			DatasetId:  img.info.DatasetId,
			Annotation: img.annotation.WithTags(img.annotation.Tags),
		})
	}
	return ret, nil
}

// SetAnnotations replaces annotations of images.
//
// Nothing is updated when any of images is not found.
func (s *Store) SetAnnotations(imageIds []int, anns []annotations.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(imageIds) != len(anns) {
		return fmt.Errorf("%w: %d annotations for %d images", ErrInvalid, len(anns), len(imageIds))
	}
	imgs, err := s.lookupImages(imageIds)
	if err != nil {
		return err
	}
	for nth, img := range imgs {
		img.annotation = anns[nth].WithTags(anns[nth].Tags)
	}
	return nil
}

// task returns the task record, creating it on first access. It should be called with s.mu locked.
func (s *Store) task(id int) *Task {
	t, ok := s.tasks[id]
	if !ok {
		t = &Task{Fields: map[string]any{}}
		s.tasks[id] = t
	}
	return t
}

func (s *Store) SetTaskFields(taskId int, fields []tasks.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range fields {
		if f.Field == "" {
			return fmt.Errorf("%w: field path is empty", ErrInvalid)
		}
	}
	t := s.task(taskId)
	for _, f := range fields {
		t.Fields[f.Field] = f.Payload
	}
	t.History = append(t.History, slices.Clone(fields))
	return nil
}

func (s *Store) SetTaskOutputProject(taskId int, projectId int, projectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectId]; !ok {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectId)
	}
	t := s.task(taskId)
	t.OutputProjectId = projectId
	t.OutputProjectName = projectName
	return nil
}

func (s *Store) AddWorkflowInput(taskId int, projectId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectId]; !ok {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectId)
	}
	t := s.task(taskId)
	t.WorkflowInputs = append(t.WorkflowInputs, projectId)
	return nil
}

func (s *Store) AddWorkflowOutput(taskId int, projectId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectId]; !ok {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectId)
	}
	t := s.task(taskId)
	t.WorkflowOutputs = append(t.WorkflowOutputs, projectId)
	return nil
}

// Task returns a copy of the task record.
func (s *Store) Task(id int) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return Task{
		Fields:            maps.Clone(t.Fields),
		History:           slices.Clone(t.History),
		OutputProjectId:   t.OutputProjectId,
		OutputProjectName: t.OutputProjectName,
		WorkflowInputs:    slices.Clone(t.WorkflowInputs),
		WorkflowOutputs:   slices.Clone(t.WorkflowOutputs),
	}, true
}

func emptyAnnotationValue() annotations.Annotation {
	ann := annotations.Annotation{}
	if err := json.Unmarshal([]byte(emptyAnnotation), &ann); err != nil {
		panic(err)
	}
	return ann
}

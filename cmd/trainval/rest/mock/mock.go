package mock

import (
	"context"
	"testing"

	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tasks"
)

type UpdateProjectMetaArgs struct {
	ProjectId int
	Meta      meta.ProjectMeta
}

type ListDatasetsArgs struct {
	ProjectId int
	Recursive bool
}

type UpdateDatasetCustomDataArgs struct {
	DatasetId  int
	CustomData map[string]any
}

type CopyImagesArgs struct {
	DstDatasetId    int
	Src             []images.Info
	WithAnnotations bool
}

type UploadImagesByIdArgs struct {
	DatasetId int
	Names     []string
	Ids       []int
}

type DownloadAnnotationsArgs struct {
	DatasetId int
	ImageIds  []int
}

type UploadAnnotationsArgs struct {
	ImageIds    []int
	Annotations []annotations.Annotation
}

type SetTaskFieldsArgs struct {
	TaskId int
	Fields []tasks.Field
}

type SetTaskOutputProjectArgs struct {
	TaskId      int
	ProjectId   int
	ProjectName string
}

type WorkflowArgs struct {
	TaskId    int
	ProjectId int
}

func New(t *testing.T) *MockClient {
	return &MockClient{t: t}
}

// MockClient is a PlatformClient recording its calls.
//
// Calling a method whose Impl is not set fails the test.
type MockClient struct {
	t    *testing.T
	Impl struct {
		GetProject              func(ctx context.Context, projectId int) (projects.Info, error)
		CreateProject           func(ctx context.Context, spec projects.Spec) (projects.Info, error)
		GetProjectMeta          func(ctx context.Context, projectId int) (meta.ProjectMeta, error)
		UpdateProjectMeta       func(ctx context.Context, projectId int, m meta.ProjectMeta) error
		ListDatasets            func(ctx context.Context, projectId int, recursive bool) ([]datasets.Info, error)
		GetDataset              func(ctx context.Context, datasetId int) (datasets.Info, error)
		CreateDataset           func(ctx context.Context, spec datasets.Spec) (datasets.Info, error)
		UpdateDatasetCustomData func(ctx context.Context, datasetId int, customData map[string]any) error
		ListImages              func(ctx context.Context, datasetId int) ([]images.Info, error)
		CopyImages              func(ctx context.Context, dstDatasetId int, src []images.Info, withAnnotations bool) ([]images.Info, error)
		UploadImagesById        func(ctx context.Context, datasetId int, names []string, ids []int) ([]images.Info, error)
		DownloadAnnotations     func(ctx context.Context, datasetId int, imageIds []int) ([]annotations.Info, error)
		UploadAnnotations       func(ctx context.Context, imageIds []int, anns []annotations.Annotation) error
		SetTaskFields           func(ctx context.Context, taskId int, fields []tasks.Field) error
		SetTaskOutputProject    func(ctx context.Context, taskId int, projectId int, projectName string) error
		AddWorkflowInput        func(ctx context.Context, taskId int, projectId int) error
		AddWorkflowOutput       func(ctx context.Context, taskId int, projectId int) error
	}
	Calls struct {
		GetProject              []int
		CreateProject           []projects.Spec
		GetProjectMeta          []int
		UpdateProjectMeta       []UpdateProjectMetaArgs
		ListDatasets            []ListDatasetsArgs
		GetDataset              []int
		CreateDataset           []datasets.Spec
		UpdateDatasetCustomData []UpdateDatasetCustomDataArgs
		ListImages              []int
		CopyImages              []CopyImagesArgs
		UploadImagesById        []UploadImagesByIdArgs
		DownloadAnnotations     []DownloadAnnotationsArgs
		UploadAnnotations       []UploadAnnotationsArgs
		SetTaskFields           []SetTaskFieldsArgs
		SetTaskOutputProject    []SetTaskOutputProjectArgs
		AddWorkflowInput        []WorkflowArgs
		AddWorkflowOutput       []WorkflowArgs
	}
}

var _ rest.PlatformClient = &MockClient{}

func (m *MockClient) GetProject(ctx context.Context, projectId int) (projects.Info, error) {
	m.t.Helper()

	m.Calls.GetProject = append(m.Calls.GetProject, projectId)
	if m.Impl.GetProject == nil {
		m.t.Fatal("GetProject is not ready to be called")
	}
	return m.Impl.GetProject(ctx, projectId)
}

func (m *MockClient) CreateProject(ctx context.Context, spec projects.Spec) (projects.Info, error) {
	m.t.Helper()

	m.Calls.CreateProject = append(m.Calls.CreateProject, spec)
	if m.Impl.CreateProject == nil {
		m.t.Fatal("CreateProject is not ready to be called")
	}
	return m.Impl.CreateProject(ctx, spec)
}

func (m *MockClient) GetProjectMeta(ctx context.Context, projectId int) (meta.ProjectMeta, error) {
	m.t.Helper()

	m.Calls.GetProjectMeta = append(m.Calls.GetProjectMeta, projectId)
	if m.Impl.GetProjectMeta == nil {
		m.t.Fatal("GetProjectMeta is not ready to be called")
	}
	return m.Impl.GetProjectMeta(ctx, projectId)
}

func (m *MockClient) UpdateProjectMeta(ctx context.Context, projectId int, pm meta.ProjectMeta) error {
	m.t.Helper()

	m.Calls.UpdateProjectMeta = append(m.Calls.UpdateProjectMeta, UpdateProjectMetaArgs{ProjectId: projectId, Meta: pm})
	if m.Impl.UpdateProjectMeta == nil {
		m.t.Fatal("UpdateProjectMeta is not ready to be called")
	}
	return m.Impl.UpdateProjectMeta(ctx, projectId, pm)
}

func (m *MockClient) ListDatasets(ctx context.Context, projectId int, recursive bool) ([]datasets.Info, error) {
	m.t.Helper()

	m.Calls.ListDatasets = append(m.Calls.ListDatasets, ListDatasetsArgs{ProjectId: projectId, Recursive: recursive})
	if m.Impl.ListDatasets == nil {
		m.t.Fatal("ListDatasets is not ready to be called")
	}
	return m.Impl.ListDatasets(ctx, projectId, recursive)
}

func (m *MockClient) GetDataset(ctx context.Context, datasetId int) (datasets.Info, error) {
	m.t.Helper()

	m.Calls.GetDataset = append(m.Calls.GetDataset, datasetId)
	if m.Impl.GetDataset == nil {
		m.t.Fatal("GetDataset is not ready to be called")
	}
	return m.Impl.GetDataset(ctx, datasetId)
}

func (m *MockClient) CreateDataset(ctx context.Context, spec datasets.Spec) (datasets.Info, error) {
	m.t.Helper()

	m.Calls.CreateDataset = append(m.Calls.CreateDataset, spec)
	if m.Impl.CreateDataset == nil {
		m.t.Fatal("CreateDataset is not ready to be called")
	}
	return m.Impl.CreateDataset(ctx, spec)
}

func (m *MockClient) UpdateDatasetCustomData(ctx context.Context, datasetId int, customData map[string]any) error {
	m.t.Helper()

	m.Calls.UpdateDatasetCustomData = append(
		m.Calls.UpdateDatasetCustomData,
		UpdateDatasetCustomDataArgs{DatasetId: datasetId, CustomData: customData},
	)
	if m.Impl.UpdateDatasetCustomData == nil {
		m.t.Fatal("UpdateDatasetCustomData is not ready to be called")
	}
	return m.Impl.UpdateDatasetCustomData(ctx, datasetId, customData)
}

func (m *MockClient) ListImages(ctx context.Context, datasetId int) ([]images.Info, error) {
	m.t.Helper()

	m.Calls.ListImages = append(m.Calls.ListImages, datasetId)
	if m.Impl.ListImages == nil {
		m.t.Fatal("ListImages is not ready to be called")
	}
	return m.Impl.ListImages(ctx, datasetId)
}

func (m *MockClient) CopyImages(ctx context.Context, dstDatasetId int, src []images.Info, withAnnotations bool) ([]images.Info, error) {
	m.t.Helper()

	m.Calls.CopyImages = append(
		m.Calls.CopyImages,
		CopyImagesArgs{DstDatasetId: dstDatasetId, Src: src, WithAnnotations: withAnnotations},
	)
	if m.Impl.CopyImages == nil {
		m.t.Fatal("CopyImages is not ready to be called")
	}
	return m.Impl.CopyImages(ctx, dstDatasetId, src, withAnnotations)
}

func (m *MockClient) UploadImagesById(ctx context.Context, datasetId int, names []string, ids []int) ([]images.Info, error) {
	m.t.Helper()

	m.Calls.UploadImagesById = append(
		m.Calls.UploadImagesById,
		UploadImagesByIdArgs{DatasetId: datasetId, Names: names, Ids: ids},
	)
	if m.Impl.UploadImagesById == nil {
		m.t.Fatal("UploadImagesById is not ready to be called")
	}
	return m.Impl.UploadImagesById(ctx, datasetId, names, ids)
}

func (m *MockClient) DownloadAnnotations(ctx context.Context, datasetId int, imageIds []int) ([]annotations.Info, error) {
	m.t.Helper()

	m.Calls.DownloadAnnotations = append(
		m.Calls.DownloadAnnotations,
		DownloadAnnotationsArgs{DatasetId: datasetId, ImageIds: imageIds},
	)
	if m.Impl.DownloadAnnotations == nil {
		m.t.Fatal("DownloadAnnotations is not ready to be called")
	}
	return m.Impl.DownloadAnnotations(ctx, datasetId, imageIds)
}

func (m *MockClient) UploadAnnotations(ctx context.Context, imageIds []int, anns []annotations.Annotation) error {
	m.t.Helper()

	m.Calls.UploadAnnotations = append(
		m.Calls.UploadAnnotations,
		UploadAnnotationsArgs{ImageIds: imageIds, Annotations: anns},
	)
	if m.Impl.UploadAnnotations == nil {
		m.t.Fatal("UploadAnnotations is not ready to be called")
	}
	return m.Impl.UploadAnnotations(ctx, imageIds, anns)
}

func (m *MockClient) SetTaskFields(ctx context.Context, taskId int, fields []tasks.Field) error {
	m.t.Helper()

	m.Calls.SetTaskFields = append(m.Calls.SetTaskFields, SetTaskFieldsArgs{TaskId: taskId, Fields: fields})
	if m.Impl.SetTaskFields == nil {
		m.t.Fatal("SetTaskFields is not ready to be called")
	}
	return m.Impl.SetTaskFields(ctx, taskId, fields)
}

func (m *MockClient) SetTaskOutputProject(ctx context.Context, taskId int, projectId int, projectName string) error {
	m.t.Helper()

	m.Calls.SetTaskOutputProject = append(
		m.Calls.SetTaskOutputProject,
		SetTaskOutputProjectArgs{TaskId: taskId, ProjectId: projectId, ProjectName: projectName},
	)
	if m.Impl.SetTaskOutputProject == nil {
		m.t.Fatal("SetTaskOutputProject is not ready to be called")
	}
	return m.Impl.SetTaskOutputProject(ctx, taskId, projectId, projectName)
}

func (m *MockClient) AddWorkflowInput(ctx context.Context, taskId int, projectId int) error {
	m.t.Helper()

	m.Calls.AddWorkflowInput = append(m.Calls.AddWorkflowInput, WorkflowArgs{TaskId: taskId, ProjectId: projectId})
	if m.Impl.AddWorkflowInput == nil {
		m.t.Fatal("AddWorkflowInput is not ready to be called")
	}
	return m.Impl.AddWorkflowInput(ctx, taskId, projectId)
}

func (m *MockClient) AddWorkflowOutput(ctx context.Context, taskId int, projectId int) error {
	m.t.Helper()

	m.Calls.AddWorkflowOutput = append(m.Calls.AddWorkflowOutput, WorkflowArgs{TaskId: taskId, ProjectId: projectId})
	if m.Impl.AddWorkflowOutput == nil {
		m.t.Fatal("AddWorkflowOutput is not ready to be called")
	}
	return m.Impl.AddWorkflowOutput(ctx, taskId, projectId)
}

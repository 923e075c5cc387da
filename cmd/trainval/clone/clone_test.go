package clone_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/trainval/cmd/trainval/clone"
	"github.com/opst/trainval/cmd/trainval/progress"
	rmock "github.com/opst/trainval/cmd/trainval/rest/mock"
	"github.com/opst/trainval/cmd/trainval/subcommands/logger"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tags"
	"github.com/opst/trainval/pkg/utils/try"
)

func ptr[T any](v T) *T { return &v }

// source project 10:
//
//	1 "root-a" (custom data)
//	├ 2 "child"
//	│ └ 4 "grandchild"
//	└ 3 "child-2"
//	5 "root-b"
var sourceDatasets = []datasets.Info{
	{Id: 1, Name: "root-a", Description: "a", ProjectId: 10, ImagesCount: 1},
	{Id: 2, Name: "child", ProjectId: 10, ParentId: ptr(1), ImagesCount: 2},
	{Id: 3, Name: "child-2", ProjectId: 10, ParentId: ptr(1), ImagesCount: 0},
	{Id: 4, Name: "grandchild", ProjectId: 10, ParentId: ptr(2), ImagesCount: 1},
	{Id: 5, Name: "root-b", ProjectId: 10, ImagesCount: 1},
}

var sourceImages = map[int][]images.Info{
	1: {{Id: 101, Name: "a.jpg", DatasetId: 1}},
	2: {{Id: 201, Name: "b.jpg", DatasetId: 2}, {Id: 202, Name: "c.jpg", DatasetId: 2}},
	3: {},
	4: {{Id: 401, Name: "d.jpg", DatasetId: 4}},
	5: {{Id: 501, Name: "e.jpg", DatasetId: 5}},
}

var resultMeta = meta.ProjectMeta{
	TagMetas: []tags.Meta{{Name: "train", ValueType: tags.None, Color: "#00FF00"}},
}

func prepare(t *testing.T) *rmock.MockClient {
	client := rmock.New(t)
	client.Impl.CreateProject = func(_ context.Context, spec projects.Spec) (projects.Info, error) {
		return projects.Info{Id: 20, Name: spec.Name + " (1)", WorkspaceId: spec.WorkspaceId, Type: spec.Type}, nil
	}
	client.Impl.UpdateProjectMeta = func(context.Context, int, meta.ProjectMeta) error { return nil }
	client.Impl.ListDatasets = func(context.Context, int, bool) ([]datasets.Info, error) {
		return sourceDatasets, nil
	}
	nextId := 1000
	client.Impl.CreateDataset = func(_ context.Context, spec datasets.Spec) (datasets.Info, error) {
		nextId += 1
		return datasets.Info{
			Id: nextId, Name: spec.Name, Description: spec.Description,
			ProjectId: spec.ProjectId, ParentId: spec.ParentId,
		}, nil
	}
	client.Impl.GetDataset = func(_ context.Context, id int) (datasets.Info, error) {
		for _, ds := range sourceDatasets {
			if ds.Id != id {
				continue
			}
			if id == 1 {
				ds.CustomData = map[string]any{"origin": "camera-1"}
			}
			return ds, nil
		}
		return datasets.Info{}, errors.New("not found")
	}
	client.Impl.UpdateDatasetCustomData = func(context.Context, int, map[string]any) error { return nil }
	client.Impl.ListImages = func(_ context.Context, id int) ([]images.Info, error) {
		return sourceImages[id], nil
	}
	client.Impl.CopyImages = func(_ context.Context, dst int, src []images.Info, _ bool) ([]images.Info, error) {
		return src, nil
	}
	return client
}

func TestCopyProject(t *testing.T) {
	t.Run("it copies the whole project when no dataset is specified", func(t *testing.T) {
		ctx := context.Background()
		client := prepare(t)
		prog := try.To(progress.Begin(ctx, "Cloning project...", 5, nil)).OrFatal(t)

		got := try.To(clone.CopyProject(ctx, client, clone.Request{
			Name: "src (with train-val tags)", WorkspaceId: 3, SourceProjectId: 10,
			WithAnnotations: true, Meta: resultMeta,
		}, prog, logger.Null())).OrFatal(t)

		if got.Id != 20 || got.Name != "src (with train-val tags) (1)" {
			t.Errorf("unexpected project: %+v", got)
		}

		if diff := cmp.Diff([]projects.Spec{{
			WorkspaceId: 3, Name: "src (with train-val tags)", Type: "images",
			Description: "train/val", ChangeNameIfConflict: true,
		}}, client.Calls.CreateProject); diff != "" {
			t.Errorf("CreateProject (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(
			[]rmock.UpdateProjectMetaArgs{{ProjectId: 20, Meta: resultMeta}},
			client.Calls.UpdateProjectMeta,
		); diff != "" {
			t.Errorf("UpdateProjectMeta (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(
			[]rmock.ListDatasetsArgs{{ProjectId: 10, Recursive: true}},
			client.Calls.ListDatasets,
		); diff != "" {
			t.Errorf("ListDatasets (-want +got):\n%s", diff)
		}

		// pre-order, parents first
		wantDatasets := []datasets.Spec{
			{ProjectId: 20, Name: "root-a", Description: "a", ChangeNameIfConflict: true},
			{ProjectId: 20, Name: "child", ChangeNameIfConflict: true, ParentId: ptr(1001)},
			{ProjectId: 20, Name: "grandchild", ChangeNameIfConflict: true, ParentId: ptr(1002)},
			{ProjectId: 20, Name: "child-2", ChangeNameIfConflict: true, ParentId: ptr(1001)},
			{ProjectId: 20, Name: "root-b", ChangeNameIfConflict: true},
		}
		if diff := cmp.Diff(wantDatasets, client.Calls.CreateDataset); diff != "" {
			t.Errorf("CreateDataset (-want +got):\n%s", diff)
		}

		if diff := cmp.Diff(
			[]rmock.UpdateDatasetCustomDataArgs{{DatasetId: 1001, CustomData: map[string]any{"origin": "camera-1"}}},
			client.Calls.UpdateDatasetCustomData,
		); diff != "" {
			t.Errorf("UpdateDatasetCustomData (-want +got):\n%s", diff)
		}

		wantCopies := []rmock.CopyImagesArgs{
			{DstDatasetId: 1001, Src: sourceImages[1], WithAnnotations: true},
			{DstDatasetId: 1002, Src: sourceImages[2], WithAnnotations: true},
			{DstDatasetId: 1003, Src: sourceImages[4], WithAnnotations: true},
			{DstDatasetId: 1004, Src: sourceImages[3], WithAnnotations: true},
			{DstDatasetId: 1005, Src: sourceImages[5], WithAnnotations: true},
		}
		if diff := cmp.Diff(wantCopies, client.Calls.CopyImages); diff != "" {
			t.Errorf("CopyImages (-want +got):\n%s", diff)
		}

		if prog.Current() != 5 {
			t.Errorf("progress: %d", prog.Current())
		}
	})

	t.Run("it copies requested datasets with their ancestors", func(t *testing.T) {
		ctx := context.Background()
		client := prepare(t)

		try.To(clone.CopyProject(ctx, client, clone.Request{
			Name: "dst", WorkspaceId: 3, SourceProjectId: 10,
			DatasetIds: []int{4, 99, 2, 4},
			Meta:       resultMeta,
		}, nil, logger.Null())).OrFatal(t)

		wantDatasets := []datasets.Spec{
			{ProjectId: 20, Name: "root-a", Description: "a"},
			{ProjectId: 20, Name: "child", ParentId: ptr(1001)},
			{ProjectId: 20, Name: "grandchild", ParentId: ptr(1002)},
		}
		if diff := cmp.Diff(wantDatasets, client.Calls.CreateDataset); diff != "" {
			t.Errorf("CreateDataset (-want +got):\n%s", diff)
		}

		wantCopies := []rmock.CopyImagesArgs{
			{DstDatasetId: 1003, Src: sourceImages[4]},
			{DstDatasetId: 1002, Src: sourceImages[2]},
		}
		if diff := cmp.Diff(wantCopies, client.Calls.CopyImages); diff != "" {
			t.Errorf("CopyImages (-want +got):\n%s", diff)
		}
	})

	t.Run("it stops when the platform fails", func(t *testing.T) {
		ctx := context.Background()
		client := prepare(t)
		expectedErr := errors.New("fake")
		client.Impl.CopyImages = func(context.Context, int, []images.Info, bool) ([]images.Info, error) {
			return nil, expectedErr
		}

		_, err := clone.CopyProject(ctx, client, clone.Request{
			Name: "dst", SourceProjectId: 10, Meta: resultMeta,
		}, nil, logger.Null())
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if len(client.Calls.CopyImages) != 1 {
			t.Errorf("CopyImages is called %d times", len(client.Calls.CopyImages))
		}
	})
}

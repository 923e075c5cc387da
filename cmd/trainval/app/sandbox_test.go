package app_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/opst/trainval/cmd/trainval/app"
	kprof "github.com/opst/trainval/cmd/trainval/config/profiles"
	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/cmd/trainval/subcommands/logger"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tasks"
	"github.com/opst/trainval/pkg/sampling"
	"github.com/opst/trainval/pkg/sandbox"
	"github.com/opst/trainval/pkg/utils/try"
)

const sandboxToken = "s3cr3t"

// sandboxed starts the sandbox platform with project 10 "cats".
//
// ds1 has 3 images and its child "nested" has 2. a.jpg is tagged as train already.
func sandboxed(t *testing.T) (*sandbox.Store, rest.PlatformClient) {
	t.Helper()
	store := sandbox.NewStore()
	if err := store.Seed(sandbox.Fixture{
		Projects: []sandbox.ProjectFixture{
			{
				Id: sourceProjectId, Name: "cats", WorkspaceId: 2,
				Tags: []sandbox.TagMetaFixture{{Name: "train"}, {Name: "cute"}},
				Datasets: []sandbox.DatasetFixture{
					{
						Name:       "ds1",
						CustomData: map[string]any{"camera": "front"},
						Images: []sandbox.ImageFixture{
							{Name: "a.jpg", Tags: []string{"train", "cute"}},
							{Name: "b.jpg"},
							{Name: "c.jpg", Tags: []string{"cute"}},
						},
						Datasets: []sandbox.DatasetFixture{
							{
								Name:   "nested",
								Images: []sandbox.ImageFixture{{Name: "d.jpg"}, {Name: "e.jpg"}},
							},
						},
					},
				},
			},
		},
	}); err != nil {
		t.Fatal(err)
	}

	e := sandbox.New(store, sandboxToken)
	e.Logger.SetOutput(new(strings.Builder))
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	client := try.To(rest.NewClient(&kprof.Profile{
		ApiRoot: ts.URL + sandbox.ApiRoot,
		Token:   sandboxToken,
	})).OrFatal(t)
	return store, client
}

// splitOf counts images in a project by their split tags.
func splitOf(t *testing.T, store *sandbox.Store, projectId int) map[string]int {
	t.Helper()
	ret := map[string]int{}
	for _, ds := range try.To(store.ListDatasets(projectId, true)).OrFatal(t) {
		imgs := try.To(store.ListImages(ds.Id, 1, rest.PageSize)).OrFatal(t).Entities
		anns := try.To(store.Annotations(ds.Id, images.Ids(imgs))).OrFatal(t)
		for _, a := range anns {
			names := []string{}
			for _, tag := range a.Annotation.Tags {
				if tag.Name == sampling.Train || tag.Name == sampling.Val {
					names = append(names, tag.Name)
				}
			}
			slices.Sort(names)
			ret[strings.Join(names, "+")] += 1
		}
	}
	return ret
}

func TestSandbox_AssignTags(t *testing.T) {
	type When struct {
		mode  app.Mode
		share bool
		train int
	}
	type Then struct {
		split    map[string]int
		datasets []string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			store, client := sandboxed(t)
			appctx := app.Context{TeamId: 1, WorkspaceId: 2, ProjectId: sourceProjectId, TaskId: 7}

			session := try.To(app.Prepare(ctx, client, appctx, logger.Null())).OrFatal(t)
			if session.TotalImages != 5 {
				t.Fatalf("total images: %d", session.TotalImages)
			}

			state := session.State
			state.ShareImagesBetweenSplits = when.share
			state.Count = sampling.Counts{Total: 5, Train: when.train, Val: 5 - when.train}
			if when.share {
				state.Count.Val = 5
			}
			result := try.To(session.AssignTags(ctx, state, when.mode)).OrFatal(t)

			if result.Name != "cats (with train-val tags)" || result.ImagesCount != 5 {
				t.Errorf("result project: %+v", result)
			}
			if got := splitOf(t, store, result.Id); !equalCounts(got, then.split) {
				t.Errorf("split: got %v, want %v", got, then.split)
			}

			dsnames := []string{}
			for _, ds := range try.To(store.ListDatasets(result.Id, true)).OrFatal(t) {
				dsnames = append(dsnames, ds.Name)
			}
			slices.Sort(dsnames)
			if !slices.Equal(dsnames, then.datasets) {
				t.Errorf("datasets: got %v, want %v", dsnames, then.datasets)
			}

			m := try.To(store.ProjectMeta(result.Id)).OrFatal(t)
			metas := []string{}
			for _, tm := range m.TagMetas {
				metas = append(metas, tm.Name)
			}
			slices.Sort(metas)
			if want := []string{"cute", "train", "val"}; !slices.Equal(metas, want) {
				t.Errorf("tag metas: got %v, want %v", metas, want)
			}

			task, ok := store.Task(7)
			if !ok {
				t.Fatal("task is not updated")
			}
			if task.Fields[tasks.FieldFinished] != true || task.Fields[tasks.FieldResultProject] != result.Name {
				t.Errorf("task fields: %+v", task.Fields)
			}
			if task.Fields[tasks.FieldProgress] != float64(100) {
				t.Errorf("progress: %#v", task.Fields[tasks.FieldProgress])
			}
			if !slices.Equal(task.WorkflowInputs, []int{sourceProjectId}) || !slices.Equal(task.WorkflowOutputs, []int{result.Id}) {
				t.Errorf("workflow: %+v", task)
			}
			if task.OutputProjectId != result.Id {
				t.Errorf("output project: %+v", task)
			}

			// source project is left as it is
			if got := splitOf(t, store, sourceProjectId); !equalCounts(got, map[string]int{"": 4, "train": 1}) {
				t.Errorf("source is modified: %v", got)
			}
		}
	}

	t.Run("clone", theory(
		When{mode: app.ModeClone, train: 3},
		Then{
			split:    map[string]int{"train": 3, "val": 2},
			datasets: []string{"ds1", "nested"},
		},
	))
	t.Run("clone, sharing images", theory(
		When{mode: app.ModeClone, share: true, train: 5},
		Then{
			split:    map[string]int{"train+val": 5},
			datasets: []string{"ds1", "nested"},
		},
	))
	t.Run("extract", theory(
		When{mode: app.ModeExtract, train: 4},
		Then{
			split:    map[string]int{"train": 4, "val": 1},
			datasets: []string{"ds1", "nested"},
		},
	))
	t.Run("extract, sharing images", theory(
		When{mode: app.ModeExtract, share: true, train: 5},
		Then{
			split:    map[string]int{"train+val": 5},
			datasets: []string{"ds1", "nested"},
		},
	))
}

func TestSandbox_AssignTags_Rejected(t *testing.T) {
	ctx := context.Background()
	store, client := sandboxed(t)
	session := try.To(app.Prepare(ctx, client, app.Context{ProjectId: sourceProjectId}, logger.Null())).OrFatal(t)

	state := session.State
	state.Count = sampling.Counts{Total: 5, Train: 4, Val: 4}
	if _, err := session.AssignTags(ctx, state, app.ModeClone); !errors.Is(err, sampling.ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}

	// nothing is created: the result name is still free
	if _, err := store.CreateProject(projects.Spec{WorkspaceId: 2, Name: state.ResultProjectName}); err != nil {
		t.Errorf("result project seems to be created: %v", err)
	}
	if _, ok := store.Task(0); ok {
		t.Errorf("task is updated out of task")
	}
}

func equalCounts(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

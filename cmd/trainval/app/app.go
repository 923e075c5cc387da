// Package app is the train/val tagging application.
//
// Prepare loads the source project and builds the initial documents.
// Then, (*Session).AssignTags splits images and tags them in a new project.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/opst/trainval/cmd/trainval/clone"
	"github.com/opst/trainval/cmd/trainval/progress"
	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/cmd/trainval/tagging"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tasks"
	"github.com/opst/trainval/pkg/sampling"
	"github.com/opst/trainval/pkg/splitmeta"
)

const (
	previewWidth  = 100
	previewHeight = 100

	MessageCloning = "Cloning project..."
	MessageTagging = "Tagging..."
)

var (
	ErrInplaceUnsupported = errors.New("inplace operation is not supported yet")
	ErrUnknownMode        = errors.New("unknown mode")
)

// Mode is how the result project is made.
type Mode string

const (
	// ModeClone clones the whole source project, then tags images in the clone.
	ModeClone Mode = "clone"

	// ModeExtract creates a new project having only sampled images, tagged.
	ModeExtract Mode = "extract"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeClone, ModeExtract:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (should be %s or %s)", ErrUnknownMode, s, ModeClone, ModeExtract)
	}
}

type Session struct {
	client rest.PlatformClient
	appctx Context
	logger *log.Logger

	Project      projects.Info
	OriginalMeta meta.ProjectMeta
	ResultMeta   meta.ProjectMeta

	// TotalImages is the number of images in the source project.
	TotalImages int

	Data  Data
	State State

	// Rand is the source of randomness for sampling.
	Rand *rand.Rand

	// Reporter receives progress, in addition to the task.
	Reporter progress.Reporter
}

// Prepare loads the source project and builds the initial documents.
//
// # Args
//
// - context.Context
//
// - rest.PlatformClient
//
// - Context: where the application runs
//
// - *log.Logger
//
// # Returns
//
// - *Session: prepared session. Its Rand is seeded at random, and Reporter reports nothing.
//
// - error: errors from the platform, or splitmeta.ErrIncompatibleTagMeta
func Prepare(ctx context.Context, client rest.PlatformClient, appctx Context, logger *log.Logger) (*Session, error) {
	logger.Printf(
		"input params: %s=%d, %s=%d, %s=%d",
		EnvTeamId, appctx.TeamId, EnvWorkspaceId, appctx.WorkspaceId, EnvProjectId, appctx.ProjectId,
	)

	project, err := client.GetProject(ctx, appctx.ProjectId)
	if err != nil {
		return nil, fmt.Errorf("getting project %d: %w", appctx.ProjectId, err)
	}
	if appctx.HasTask() {
		if err := client.AddWorkflowInput(ctx, appctx.TaskId, project.Id); err != nil {
			return nil, fmt.Errorf("registering workflow input: %w", err)
		}
	}

	original, err := client.GetProjectMeta(ctx, project.Id)
	if err != nil {
		return nil, fmt.Errorf("getting meta of project %d: %w", project.Id, err)
	}
	result, err := splitmeta.Prepare(original, logger)
	if err != nil {
		return nil, err
	}

	dss, err := client.ListDatasets(ctx, project.Id, true)
	if err != nil {
		return nil, fmt.Errorf("listing datasets of project %d: %w", project.Id, err)
	}
	total := 0
	for _, ds := range dss {
		total += ds.ImagesCount
	}

	preview := PreviewUrl(project.ReferenceImageUrl, previewWidth, previewHeight)
	return &Session{
		client:       client,
		appctx:       appctx,
		logger:       logger,
		Project:      project,
		OriginalMeta: original,
		ResultMeta:   result,
		TotalImages:  total,
		Data:         initialData(project.Id, project.Name, preview, total),
		State:        initialState(project.Name, total),
		Rand:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		Reporter:     progress.Nop(),
	}, nil
}

// AssignTags splits images of the source project and tags them in a new project.
//
// # Args
//
// - context.Context
//
// - State: edited state. Count, ShareImagesBetweenSplits, Inplace and ResultProjectName are used.
//
// - Mode: how to make the result project
//
// # Returns
//
// - projects.Info: the result project
//
// - error: ErrInplaceUnsupported, sampling.ErrCountMismatch, sampling.ErrSharedSplitHasVal,
// ErrUnknownMode or errors from the platform.
func (s *Session) AssignTags(ctx context.Context, state State, mode Mode) (projects.Info, error) {
	if err := s.setFields(ctx, tasks.Field{Field: tasks.FieldStarted, Payload: true}); err != nil {
		return projects.Info{}, err
	}

	if state.Inplace {
		return projects.Info{}, ErrInplaceUnsupported
	}
	share := state.ShareImagesBetweenSplits
	if err := state.Count.Validate(s.TotalImages, share); err != nil {
		return projects.Info{}, err
	}
	if share && state.Count.Train < s.TotalImages {
		return projects.Info{}, fmt.Errorf(
			"%w: %d images are not in train", sampling.ErrSharedSplitHasVal, s.TotalImages-state.Count.Train,
		)
	}
	name := ValidateProjectName(state.ResultProjectName, s.Project.Name)

	var result projects.Info
	var err error
	switch mode {
	case ModeClone:
		result, err = s.cloneAndTag(ctx, name, state.Count.Train, share)
	case ModeExtract:
		result, err = s.extractAndTag(ctx, name, state.Count.Train, share)
	default:
		_, err = ParseMode(string(mode))
	}
	if err != nil {
		return projects.Info{}, err
	}

	// reload to get its reference image
	result, err = s.client.GetProject(ctx, result.Id)
	if err != nil {
		return projects.Info{}, fmt.Errorf("getting project %d: %w", result.Id, err)
	}
	if err := s.setFields(
		ctx,
		tasks.Field{Field: tasks.FieldResultProject, Payload: result.Name},
		tasks.Field{Field: tasks.FieldResultProjectId, Payload: result.Id},
		tasks.Field{
			Field:   tasks.FieldResultProjectPreviewUrl,
			Payload: PreviewUrl(result.ReferenceImageUrl, previewWidth, previewHeight),
		},
		tasks.Field{Field: tasks.FieldFinished, Payload: true},
	); err != nil {
		return projects.Info{}, err
	}

	if s.appctx.HasTask() {
		if err := s.client.SetTaskOutputProject(ctx, s.appctx.TaskId, result.Id, result.Name); err != nil {
			return projects.Info{}, fmt.Errorf("setting output project: %w", err)
		}
		if err := s.client.AddWorkflowOutput(ctx, s.appctx.TaskId, result.Id); err != nil {
			return projects.Info{}, fmt.Errorf("registering workflow output: %w", err)
		}
	}
	s.logger.Printf("result project: %s (id: %d)", result.Name, result.Id)
	return result, nil
}

func (s *Session) cloneAndTag(ctx context.Context, name string, trainCount int, share bool) (projects.Info, error) {
	prog, err := progress.Begin(ctx, MessageCloning, s.TotalImages, s.reporter())
	if err != nil {
		return projects.Info{}, err
	}
	created, err := clone.CopyProject(ctx, s.client, clone.Request{
		Name:            name,
		WorkspaceId:     s.appctx.WorkspaceId,
		SourceProjectId: s.Project.Id,
		WithAnnotations: true,
		Meta:            s.ResultMeta,
	}, prog, s.logger)
	prog.Finish()
	if err != nil {
		return projects.Info{}, err
	}

	imgs, err := s.listImages(ctx, created.Id)
	if err != nil {
		return projects.Info{}, err
	}
	split := sampling.Sample(imgs, trainCount, s.Rand)
	s.logger.Printf("sampled: train=%d, val=%d", split.TrainCount, split.ValCount)

	err = s.tag(ctx, split, share, func(buckets sampling.Buckets, names []string, prog *progress.Progress) error {
		return tagging.AssignInPlace(ctx, s.client, buckets, names, prog)
	})
	if err != nil {
		return projects.Info{}, err
	}
	return created, nil
}

func (s *Session) extractAndTag(ctx context.Context, name string, trainCount int, share bool) (projects.Info, error) {
	imgs, err := s.listImages(ctx, s.Project.Id)
	if err != nil {
		return projects.Info{}, err
	}
	split := sampling.Sample(imgs, trainCount, s.Rand)
	s.logger.Printf("sampled: train=%d, val=%d", split.TrainCount, split.ValCount)
	if share {
		if err := split.ValidateShared(); err != nil {
			return projects.Info{}, err
		}
	}

	created, err := s.client.CreateProject(ctx, projects.Spec{
		WorkspaceId:          s.appctx.WorkspaceId,
		Name:                 name,
		Type:                 projects.TypeImages,
		Description:          clone.Description,
		ChangeNameIfConflict: true,
	})
	if err != nil {
		return projects.Info{}, fmt.Errorf("creating project %s: %w", name, err)
	}
	if err := s.client.UpdateProjectMeta(ctx, created.Id, s.ResultMeta); err != nil {
		return projects.Info{}, fmt.Errorf("updating meta of project %d: %w", created.Id, err)
	}

	dstDatasets := map[string]datasets.Info{}
	err = s.tag(ctx, split, share, func(buckets sampling.Buckets, names []string, prog *progress.Progress) error {
		return tagging.AssignToProject(ctx, s.client, buckets, names, created, dstDatasets, prog)
	})
	if err != nil {
		return projects.Info{}, err
	}
	return created, nil
}

// tag assigns split tags with assign.
//
// When share is true, all images are expected to be in train, and they get both of train and val tags.
func (s *Session) tag(
	ctx context.Context, split sampling.Split, share bool,
	assign func(sampling.Buckets, []string, *progress.Progress) error,
) error {
	prog, err := progress.Begin(ctx, MessageTagging, s.TotalImages, s.reporter())
	if err != nil {
		return err
	}
	defer prog.Finish()

	if share {
		if err := split.ValidateShared(); err != nil {
			return err
		}
		return assign(split.Train, []string{sampling.Train, sampling.Val}, prog)
	}

	if err := assign(split.Train, []string{sampling.Train}, prog); err != nil {
		return err
	}
	return assign(split.Val, []string{sampling.Val}, prog)
}

// listImages lists images in all datasets of a project, including nested ones.
func (s *Session) listImages(ctx context.Context, projectId int) ([]images.Info, error) {
	dss, err := s.client.ListDatasets(ctx, projectId, true)
	if err != nil {
		return nil, fmt.Errorf("listing datasets of project %d: %w", projectId, err)
	}
	ret := []images.Info{}
	for _, ds := range dss {
		imgs, err := s.client.ListImages(ctx, ds.Id)
		if err != nil {
			return nil, fmt.Errorf("listing images of dataset %d: %w", ds.Id, err)
		}
		ret = append(ret, imgs...)
	}
	return ret, nil
}

func (s *Session) reporter() progress.Reporter {
	r := s.Reporter
	if r == nil {
		r = progress.Nop()
	}
	if !s.appctx.HasTask() {
		return r
	}
	return progress.Multi(progress.Task(s.client, s.appctx.TaskId), r)
}

func (s *Session) setFields(ctx context.Context, fields ...tasks.Field) error {
	if !s.appctx.HasTask() {
		return nil
	}
	if err := s.client.SetTaskFields(ctx, s.appctx.TaskId, fields); err != nil {
		return fmt.Errorf("updating task %d: %w", s.appctx.TaskId, err)
	}
	return nil
}

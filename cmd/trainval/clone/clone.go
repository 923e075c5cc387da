// Package clone copies a project, with its dataset tree, into a new project.
package clone

import (
	"context"
	"fmt"
	"log"

	"github.com/opst/trainval/cmd/trainval/progress"
	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/datasettree"
)

const Description = "train/val"

type Request struct {
	// Name of the new project. It is changed by the platform on conflict.
	Name string

	WorkspaceId     int
	SourceProjectId int

	// DatasetIds to be copied. When empty, all datasets are copied.
	DatasetIds []int

	WithAnnotations bool

	// Meta is set to the new project.
	Meta meta.ProjectMeta
}

// CopyProject creates a new project and copies datasets and images of the source project into it.
//
// # Args
//
// - context.Context
//
// - rest.PlatformClient
//
// - Request: what to copy
//
// - *progress.Progress: advanced by the number of images each time a dataset is copied. Can be nil.
//
// - *log.Logger
//
// # Returns
//
// - projects.Info: created project
//
// - error
func CopyProject(
	ctx context.Context,
	client rest.PlatformClient,
	req Request,
	prog *progress.Progress,
	logger *log.Logger,
) (projects.Info, error) {
	created, err := client.CreateProject(ctx, projects.Spec{
		WorkspaceId:          req.WorkspaceId,
		Name:                 req.Name,
		Type:                 projects.TypeImages,
		Description:          Description,
		ChangeNameIfConflict: true,
	})
	if err != nil {
		return projects.Info{}, fmt.Errorf("creating project %s: %w", req.Name, err)
	}
	if err := client.UpdateProjectMeta(ctx, created.Id, req.Meta); err != nil {
		return projects.Info{}, fmt.Errorf("updating meta of project %d: %w", created.Id, err)
	}

	srcDatasets, err := client.ListDatasets(ctx, req.SourceProjectId, true)
	if err != nil {
		return projects.Info{}, fmt.Errorf("listing datasets of project %d: %w", req.SourceProjectId, err)
	}
	forest := datasettree.Build(srcDatasets)

	c := &copier{
		client: client, dst: created, withAnnotations: req.WithAnnotations,
		progress: prog, logger: logger,
	}
	if len(req.DatasetIds) == 0 {
		err = c.copyFull(ctx, forest)
	} else {
		err = c.copyDatasets(ctx, forest, req.SourceProjectId, req.DatasetIds)
	}
	if err != nil {
		return projects.Info{}, err
	}
	return created, nil
}

type copier struct {
	client          rest.PlatformClient
	dst             projects.Info
	withAnnotations bool
	progress        *progress.Progress
	logger          *log.Logger
}

// copyFull recreates every dataset, parents first, and then copies images.
func (c *copier) copyFull(ctx context.Context, forest []*datasettree.Node) error {
	created := map[int]datasets.Info{}
	order := datasettree.Flatten(forest)

	for _, src := range order {
		var parentId *int
		if src.ParentId != nil {
			if parent, ok := created[*src.ParentId]; ok {
				parentId = &parent.Id
			}
		}
		dst, err := c.createDataset(ctx, src, parentId, true)
		if err != nil {
			return err
		}
		created[src.Id] = dst
	}

	for _, src := range order {
		if err := c.copyImages(ctx, src.Id, created[src.Id]); err != nil {
			return err
		}
	}
	return nil
}

func (c *copier) copyDatasets(ctx context.Context, forest []*datasettree.Node, srcProjectId int, ids []int) error {
	created := map[int]datasets.Info{}
	copied := map[int]struct{}{}

	for _, id := range ids {
		chain, ok := datasettree.FindChain(forest, id, true)
		if !ok || len(chain) == 0 {
			c.logger.Printf("[WARN] dataset id %d is not found in project %d. skipping.", id, srcProjectId)
			continue
		}

		var parentId *int
		for _, ds := range chain {
			if dst, ok := created[ds.Id]; ok {
				p := dst.Id
				parentId = &p
				continue
			}
			dst, err := c.createDataset(ctx, ds, parentId, false)
			if err != nil {
				return err
			}
			created[ds.Id] = dst
			p := dst.Id
			parentId = &p
		}

		if _, ok := copied[id]; ok {
			continue
		}
		if err := c.copyImages(ctx, id, created[id]); err != nil {
			return err
		}
		copied[id] = struct{}{}
	}
	return nil
}

// createDataset creates a dataset like src in the destination project, and copies its custom data.
func (c *copier) createDataset(ctx context.Context, src datasets.Info, parentId *int, changeNameIfConflict bool) (datasets.Info, error) {
	dst, err := c.client.CreateDataset(ctx, datasets.Spec{
		ProjectId:            c.dst.Id,
		Name:                 src.Name,
		Description:          src.Description,
		ChangeNameIfConflict: changeNameIfConflict,
		ParentId:             parentId,
	})
	if err != nil {
		return datasets.Info{}, fmt.Errorf("creating dataset %s: %w", src.Name, err)
	}

	info, err := c.client.GetDataset(ctx, src.Id)
	if err != nil {
		return datasets.Info{}, fmt.Errorf("getting dataset %d: %w", src.Id, err)
	}
	if len(info.CustomData) != 0 {
		if err := c.client.UpdateDatasetCustomData(ctx, dst.Id, info.CustomData); err != nil {
			return datasets.Info{}, fmt.Errorf("updating custom data of dataset %d: %w", dst.Id, err)
		}
	}
	return dst, nil
}

func (c *copier) copyImages(ctx context.Context, srcDatasetId int, dst datasets.Info) error {
	imgs, err := c.client.ListImages(ctx, srcDatasetId)
	if err != nil {
		return fmt.Errorf("listing images of dataset %d: %w", srcDatasetId, err)
	}
	if _, err := c.client.CopyImages(ctx, dst.Id, imgs, c.withAnnotations); err != nil {
		return fmt.Errorf("copying images from dataset %d to %d: %w", srcDatasetId, dst.Id, err)
	}
	c.logger.Printf("copied %d images: dataset %d -> %d", len(imgs), srcDatasetId, dst.Id)

	if c.progress != nil {
		if err := c.progress.Done(ctx, len(imgs)); err != nil {
			return err
		}
	}
	return nil
}

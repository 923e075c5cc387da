// Package tagging puts train and val tags on images.
package tagging

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/opst/trainval/cmd/trainval/progress"
	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/retag"
	"github.com/opst/trainval/pkg/sampling"
)

var ErrAnnotationMissing = errors.New("annotation is missing")

// AssignInPlace replaces split tags of images with new tags named names.
//
// Images are processed per dataset, in batches of rest.BatchSize.
// prog is advanced after each batch. It can be nil.
func AssignInPlace(
	ctx context.Context,
	client rest.PlatformClient,
	buckets sampling.Buckets,
	names []string,
	prog *progress.Progress,
) error {
	for _, b := range buckets {
		for batch := range slices.Chunk(b.Images, rest.BatchSize) {
			anns, err := retagged(ctx, client, b.DatasetId, batch, names)
			if err != nil {
				return err
			}
			if err := client.UploadAnnotations(ctx, images.Ids(batch), anns); err != nil {
				return fmt.Errorf("uploading annotations to dataset %d: %w", b.DatasetId, err)
			}
			if err := done(ctx, prog, len(batch)); err != nil {
				return err
			}
		}
	}
	return nil
}

// AssignToProject puts images into the project dst with new split tags named names.
//
// For each source dataset, a dataset having the same name is created in dst.
// created memoizes datasets in dst by name, and is updated by this function.
// Images are uploaded by id, so their contents are shared with the source.
//
// prog is advanced after each batch. It can be nil.
func AssignToProject(
	ctx context.Context,
	client rest.PlatformClient,
	buckets sampling.Buckets,
	names []string,
	dst projects.Info,
	created map[string]datasets.Info,
	prog *progress.Progress,
) error {
	for _, b := range buckets {
		src, err := client.GetDataset(ctx, b.DatasetId)
		if err != nil {
			return fmt.Errorf("getting dataset %d: %w", b.DatasetId, err)
		}
		dstDataset, ok := created[src.Name]
		if !ok {
			dstDataset, err = client.CreateDataset(ctx, datasets.Spec{
				ProjectId: dst.Id,
				Name:      src.Name,
			})
			if err != nil {
				return fmt.Errorf("creating dataset %s in project %d: %w", src.Name, dst.Id, err)
			}
			created[src.Name] = dstDataset
		}

		for batch := range slices.Chunk(b.Images, rest.BatchSize) {
			anns, err := retagged(ctx, client, b.DatasetId, batch, names)
			if err != nil {
				return err
			}
			uploaded, err := client.UploadImagesById(ctx, dstDataset.Id, images.Names(batch), images.Ids(batch))
			if err != nil {
				return fmt.Errorf("uploading images to dataset %d: %w", dstDataset.Id, err)
			}
			if err := client.UploadAnnotations(ctx, images.Ids(uploaded), anns); err != nil {
				return fmt.Errorf("uploading annotations to dataset %d: %w", dstDataset.Id, err)
			}
			if err := done(ctx, prog, len(batch)); err != nil {
				return err
			}
		}
	}
	return nil
}

// retagged downloads annotations of imgs and returns them retagged, in the order of imgs.
func retagged(
	ctx context.Context, client rest.PlatformClient, datasetId int, imgs []images.Info, names []string,
) ([]annotations.Annotation, error) {
	infos, err := client.DownloadAnnotations(ctx, datasetId, images.Ids(imgs))
	if err != nil {
		return nil, fmt.Errorf("downloading annotations from dataset %d: %w", datasetId, err)
	}
	byImage := make(map[int]annotations.Annotation, len(infos))
	for _, i := range infos {
		byImage[i.ImageId] = i.Annotation
	}

	ret := make([]annotations.Annotation, 0, len(imgs))
	for _, img := range imgs {
		ann, ok := byImage[img.Id]
		if !ok {
			return nil, fmt.Errorf("%w: image %d in dataset %d", ErrAnnotationMissing, img.Id, datasetId)
		}
		ret = append(ret, retag.Apply(ann, names...))
	}
	return ret, nil
}

func done(ctx context.Context, prog *progress.Progress, n int) error {
	if prog == nil {
		return nil
	}
	return prog.Done(ctx, n)
}

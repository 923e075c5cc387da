package rest

import (
	"context"
	"fmt"

	"github.com/opst/trainval/pkg/api/types/images"
)

func (c *client) ListImages(ctx context.Context, datasetId int) ([]images.Info, error) {
	ret := []images.Info{}
	for page := 1; ; page++ {
		res := images.Page[images.Info]{}
		if err := call(
			ctx, c, "images.list", "listing images",
			struct {
				DatasetId int `json:"datasetId"`
				Page      int `json:"page"`
				PerPage   int `json:"perPage"`
			}{DatasetId: datasetId, Page: page, PerPage: PageSize},
			&res,
		); err != nil {
			return nil, err
		}
		ret = append(ret, res.Entities...)
		if res.PagesCount <= page || len(res.Entities) == 0 {
			break
		}
	}
	return ret, nil
}

func (c *client) CopyImages(ctx context.Context, dstDatasetId int, src []images.Info, withAnnotations bool) ([]images.Info, error) {
	ret := make([]images.Info, 0, len(src))
	for _, b := range batches(src, BatchSize) {
		res := []images.Info{}
		if err := call(
			ctx, c, "images.copy", "copying images",
			struct {
				DestDatasetId   int   `json:"destDatasetId"`
				Ids             []int `json:"ids"`
				WithAnnotations bool  `json:"withAnnotations"`
			}{DestDatasetId: dstDatasetId, Ids: images.Ids(b), WithAnnotations: withAnnotations},
			&res,
		); err != nil {
			return nil, err
		}
		if len(res) != len(b) {
			return nil, fmt.Errorf(
				"%w: copying images: %d requested, but %d copied", ErrUnexpectedResponse, len(b), len(res),
			)
		}
		ret = append(ret, res...)
	}
	return ret, nil
}

type imageById struct {
	Name string `json:"name"`
	Id   int    `json:"id"`
}

func (c *client) UploadImagesById(ctx context.Context, datasetId int, names []string, ids []int) ([]images.Info, error) {
	if len(names) != len(ids) {
		return nil, fmt.Errorf("names and ids should have same length: %d != %d", len(names), len(ids))
	}

	entries := make([]imageById, len(ids))
	for nth := range ids {
		entries[nth] = imageById{Name: names[nth], Id: ids[nth]}
	}

	ret := make([]images.Info, 0, len(ids))
	for _, b := range batches(entries, BatchSize) {
		res := []images.Info{}
		if err := call(
			ctx, c, "images.bulk.add-by-id", "uploading images",
			struct {
				DatasetId int         `json:"datasetId"`
				Images    []imageById `json:"images"`
			}{DatasetId: datasetId, Images: b},
			&res,
		); err != nil {
			return nil, err
		}
		if len(res) != len(b) {
			return nil, fmt.Errorf(
				"%w: uploading images: %d requested, but %d uploaded", ErrUnexpectedResponse, len(b), len(res),
			)
		}
		ret = append(ret, res...)
	}
	return ret, nil
}

package rest

import (
	"context"
	"errors"
	"fmt"

	"github.com/opst/trainval/pkg/api/types/annotations"
)

var ErrUnexpectedResponse = errors.New("unexpected response")

func (c *client) DownloadAnnotations(ctx context.Context, datasetId int, imageIds []int) ([]annotations.Info, error) {
	res := []annotations.Info{}
	if err := call(
		ctx, c, "annotations.bulk.info", "downloading annotations",
		struct {
			DatasetId int   `json:"datasetId"`
			ImageIds  []int `json:"imageIds"`
		}{DatasetId: datasetId, ImageIds: imageIds},
		&res,
	); err != nil {
		return nil, err
	}
	if len(res) != len(imageIds) {
		return nil, fmt.Errorf(
			"%w: %d annotations requested, but %d returned", ErrUnexpectedResponse, len(imageIds), len(res),
		)
	}
	return res, nil
}

type annotationOfImage struct {
	ImageId    int                    `json:"imageId"`
	Annotation annotations.Annotation `json:"annotation"`
}

func (c *client) UploadAnnotations(ctx context.Context, imageIds []int, anns []annotations.Annotation) error {
	if len(imageIds) != len(anns) {
		return fmt.Errorf("imageIds and annotations should have same length: %d != %d", len(imageIds), len(anns))
	}
	entries := make([]annotationOfImage, len(anns))
	for nth := range anns {
		entries[nth] = annotationOfImage{ImageId: imageIds[nth], Annotation: anns[nth]}
	}

	for _, b := range batches(entries, BatchSize) {
		if err := exec(
			ctx, c, "annotations.bulk.add", "uploading annotations",
			struct {
				Annotations []annotationOfImage `json:"annotations"`
			}{Annotations: b},
		); err != nil {
			return err
		}
	}
	return nil
}

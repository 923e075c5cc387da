package rest

import (
	"context"

	"github.com/opst/trainval/pkg/api/types/datasets"
)

func (c *client) ListDatasets(ctx context.Context, projectId int, recursive bool) ([]datasets.Info, error) {
	res := struct {
		Entities []datasets.Info `json:"entities"`
	}{}
	if err := call(
		ctx, c, "datasets.list", "listing datasets",
		struct {
			ProjectId int  `json:"projectId"`
			Recursive bool `json:"recursive"`
		}{ProjectId: projectId, Recursive: recursive},
		&res,
	); err != nil {
		return nil, err
	}
	if res.Entities == nil {
		return []datasets.Info{}, nil
	}
	return res.Entities, nil
}

func (c *client) GetDataset(ctx context.Context, datasetId int) (datasets.Info, error) {
	res := datasets.Info{}
	if err := call(ctx, c, "datasets.info", "getting dataset", byId{Id: datasetId}, &res); err != nil {
		return datasets.Info{}, err
	}
	return res, nil
}

func (c *client) CreateDataset(ctx context.Context, spec datasets.Spec) (datasets.Info, error) {
	res := datasets.Info{}
	if err := call(ctx, c, "datasets.add", "creating dataset", spec, &res); err != nil {
		return datasets.Info{}, err
	}
	return res, nil
}

func (c *client) UpdateDatasetCustomData(ctx context.Context, datasetId int, customData map[string]any) error {
	return exec(
		ctx, c, "datasets.custom-data.update", "updating custom data of dataset",
		struct {
			Id         int            `json:"id"`
			CustomData map[string]any `json:"customData"`
		}{Id: datasetId, CustomData: customData},
	)
}

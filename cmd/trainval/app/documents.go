package app

import (
	"fmt"

	"github.com/opst/trainval/pkg/sampling"
)

// Data is the read-only document of the application shown to users.
type Data struct {
	ProjectId         int    `json:"projectId"`
	ProjectName       string `json:"projectName"`
	ProjectPreviewUrl string `json:"projectPreviewUrl"`

	Progress        int `json:"progress"`
	ProgressCurrent int `json:"progressCurrent"`
	ProgressTotal   int `json:"progressTotal"`

	ResultProjectId         *int   `json:"resultProjectId"`
	ResultProject           string `json:"resultProject"`
	ResultProjectPreviewUrl string `json:"resultProjectPreviewUrl"`

	Started  bool   `json:"started"`
	Message  string `json:"message"`
	Finished bool   `json:"finished"`

	TotalImagesCount int `json:"totalImagesCount"`

	Table []TableRow `json:"table"`
}

type TableRow struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// State is the document of the application which users edit.
type State struct {
	Count   sampling.Counts   `json:"count"`
	Percent sampling.Percents `json:"percent"`

	ShareImagesBetweenSplits bool `json:"shareImagesBetweenSplits"`
	SliderDisabled           bool `json:"sliderDisabled"`

	Inplace bool `json:"inplace"`

	ResultProjectName string `json:"resultProjectName"`
}

func initialData(projectId int, projectName string, previewUrl string, total int) Data {
	return Data{
		ProjectId:         projectId,
		ProjectName:       projectName,
		ProjectPreviewUrl: previewUrl,
		ProgressTotal:     total,
		TotalImagesCount:  total,
		Table: []TableRow{
			{Name: sampling.Train, Type: "success"},
			{Name: sampling.Val, Type: "primary"},
			{Name: "total", Type: "gray"},
		},
	}
}

func initialState(projectName string, total int) State {
	count, percent := sampling.DefaultCounts(total, sampling.DefaultTrainPercent)
	return State{
		Count:             count,
		Percent:           percent,
		ResultProjectName: fmt.Sprintf("%s (with train-val tags)", projectName),
	}
}

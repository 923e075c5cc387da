package datasets

import "reflect"

// Info is a dataset in a project.
//
// Datasets form a forest through ParentId. Top level datasets have nil ParentId.
type Info struct {
	Id          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ProjectId   int            `json:"projectId"`
	ParentId    *int           `json:"parentId"`
	ImagesCount int            `json:"imagesCount"`
	CustomData  map[string]any `json:"customData,omitempty"`
}

func (i Info) Equal(o Info) bool {
	if i.Id != o.Id || i.Name != o.Name || i.Description != o.Description ||
		i.ProjectId != o.ProjectId || i.ImagesCount != o.ImagesCount {
		return false
	}
	if (i.ParentId == nil) != (o.ParentId == nil) {
		return false
	}
	if i.ParentId != nil && *i.ParentId != *o.ParentId {
		return false
	}
	if len(i.CustomData) == 0 && len(o.CustomData) == 0 {
		return true
	}
	return reflect.DeepEqual(i.CustomData, o.CustomData)
}

// Spec is a request to create a dataset.
type Spec struct {
	ProjectId            int    `json:"projectId"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	ChangeNameIfConflict bool   `json:"changeNameIfConflict"`
	ParentId             *int   `json:"parentId,omitempty"`
}

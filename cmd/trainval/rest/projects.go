package rest

import (
	"context"

	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
)

type byId struct {
	Id int `json:"id"`
}

func (c *client) GetProject(ctx context.Context, projectId int) (projects.Info, error) {
	res := projects.Info{}
	if err := call(ctx, c, "projects.info", "getting project", byId{Id: projectId}, &res); err != nil {
		return projects.Info{}, err
	}
	return res, nil
}

func (c *client) CreateProject(ctx context.Context, spec projects.Spec) (projects.Info, error) {
	res := projects.Info{}
	if err := call(ctx, c, "projects.add", "creating project", spec, &res); err != nil {
		return projects.Info{}, err
	}
	return res, nil
}

func (c *client) GetProjectMeta(ctx context.Context, projectId int) (meta.ProjectMeta, error) {
	res := meta.ProjectMeta{}
	if err := call(ctx, c, "projects.meta", "getting project meta", byId{Id: projectId}, &res); err != nil {
		return meta.ProjectMeta{}, err
	}
	return res, nil
}

func (c *client) UpdateProjectMeta(ctx context.Context, projectId int, m meta.ProjectMeta) error {
	return exec(
		ctx, c, "projects.meta.update", "updating project meta",
		struct {
			Id   int              `json:"id"`
			Meta meta.ProjectMeta `json:"meta"`
		}{Id: projectId, Meta: m},
	)
}

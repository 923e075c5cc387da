package rest

import (
	"context"

	"github.com/opst/trainval/pkg/api/types/tasks"
)

const workflowItemProject = "project"

func (c *client) SetTaskFields(ctx context.Context, taskId int, fields []tasks.Field) error {
	return exec(
		ctx, c, "tasks.data.set", "updating task state",
		struct {
			TaskId int           `json:"taskId"`
			Fields []tasks.Field `json:"fields"`
		}{TaskId: taskId, Fields: fields},
	)
}

func (c *client) SetTaskOutputProject(ctx context.Context, taskId int, projectId int, projectName string) error {
	return exec(
		ctx, c, "tasks.output.set", "setting task output",
		struct {
			TaskId      int    `json:"taskId"`
			ProjectId   int    `json:"projectId"`
			ProjectName string `json:"projectName"`
		}{TaskId: taskId, ProjectId: projectId, ProjectName: projectName},
	)
}

type workflowItem struct {
	TaskId int    `json:"taskId"`
	Type   string `json:"type"`
	Id     int    `json:"id"`
}

func (c *client) AddWorkflowInput(ctx context.Context, taskId int, projectId int) error {
	return exec(
		ctx, c, "workflow.input.add", "recording workflow input",
		workflowItem{TaskId: taskId, Type: workflowItemProject, Id: projectId},
	)
}

func (c *client) AddWorkflowOutput(ctx context.Context, taskId int, projectId int) error {
	return exec(
		ctx, c, "workflow.output.add", "recording workflow output",
		workflowItem{TaskId: taskId, Type: workflowItemProject, Id: projectId},
	)
}

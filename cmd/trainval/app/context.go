package app

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	EnvTeamId      = "context.teamId"
	EnvWorkspaceId = "context.workspaceId"
	EnvProjectId   = "modal.state.slyProjectId"
	EnvTaskId      = "TASK_ID"
)

var (
	ErrMissingEnv = errors.New("environment variable is not set")
	ErrInvalidEnv = errors.New("environment variable is not an integer")
)

// Context is where the application runs.
type Context struct {
	TeamId      int
	WorkspaceId int

	// ProjectId is the id of the source project.
	ProjectId int

	// TaskId is the id of the task running this application.
	//
	// It is 0 when the application runs out of a task.
	// In that case, task state and workflow are not updated.
	TaskId int
}

// HasTask tells whether the application is running as a task.
func (c Context) HasTask() bool {
	return c.TaskId != 0
}

// ContextFromEnv reads Context from environment variables.
//
// EnvTaskId is optional. Others are required.
//
// # Args
//
// - lookup: function to look up environment variables, like os.LookupEnv
func ContextFromEnv(lookup func(string) (string, bool)) (Context, error) {
	ctx := Context{}
	for _, v := range []struct {
		name     string
		dest     *int
		required bool
	}{
		{name: EnvTeamId, dest: &ctx.TeamId, required: true},
		{name: EnvWorkspaceId, dest: &ctx.WorkspaceId, required: true},
		{name: EnvProjectId, dest: &ctx.ProjectId, required: true},
		{name: EnvTaskId, dest: &ctx.TaskId},
	} {
		raw, ok := lookup(v.name)
		if !ok || raw == "" {
			if v.required {
				return Context{}, fmt.Errorf("%w: %s", ErrMissingEnv, v.name)
			}
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Context{}, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, v.name, raw)
		}
		*v.dest = n
	}
	return ctx, nil
}

package prepare

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/opst/trainval/cmd/trainval/app"
	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/cmd/trainval/subcommands/common"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Team      int `flag:"team" metavar:"ID" help:"team id. overrides context.teamId"`
	Workspace int `flag:"workspace" metavar:"ID" help:"workspace id. overrides context.workspaceId"`
	Project   int `flag:"project" alias:"p" metavar:"ID" help:"source project id. overrides modal.state.slyProjectId"`
	Task      int `flag:"task" metavar:"ID" help:"task id. overrides TASK_ID"`
}

func (f Flags) Context() common.ContextFlags {
	return common.ContextFlags{Team: f.Team, Workspace: f.Workspace, Project: f.Project, Task: f.Task}
}

// Documents are initial documents of the application.
type Documents struct {
	Data  app.Data  `json:"data"`
	State app.State `json:"state"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show initial documents of the application for a project.",
		Flags{},
		flarc.Args{},
		common.NewTask(Task(os.LookupEnv)),
		flarc.WithDescription(`
Load the source project and print initial "data" and "state" documents as JSON.

The source project is given by the environment variable modal.state.slyProjectId or "--project".
The default split is 80% train, 20% val.
`),
	)
}

func Task(lookup func(string) (string, bool)) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client rest.PlatformClient,
		cl flarc.Commandline[Flags],
		_ []any,
	) error {
		appctx, err := common.LoadContext(cl.Flags().Context(), lookup)
		if err != nil {
			return err
		}
		session, err := app.Prepare(ctx, client, appctx, logger)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		return enc.Encode(Documents{Data: session.Data, State: session.State})
	}
}

package split

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/opst/trainval/cmd/trainval/app"
	"github.com/opst/trainval/cmd/trainval/progress"
	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/cmd/trainval/subcommands/common"
	"github.com/opst/trainval/pkg/sampling"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Team      int `flag:"team" metavar:"ID" help:"team id. overrides context.teamId"`
	Workspace int `flag:"workspace" metavar:"ID" help:"workspace id. overrides context.workspaceId"`
	Project   int `flag:"project" alias:"p" metavar:"ID" help:"source project id. overrides modal.state.slyProjectId"`
	Task      int `flag:"task" metavar:"ID" help:"task id. overrides TASK_ID"`

	Train        int    `flag:"train" metavar:"N" help:"number of train images. the rest are val. overrides --train-percent"`
	TrainPercent int    `flag:"train-percent" metavar:"P" help:"percent of train images"`
	Share        bool   `flag:"share" help:"put all images into both of train and val"`
	Name         string `flag:"name" alias:"n" metavar:"NAME" help:"name of the result project. default: \"<source> (with train-val tags)\""`
	Mode         string `flag:"mode" metavar:"clone|extract" help:"clone: tag images in a clone of the project. extract: make a project having only tagged images"`
	Seed         int    `flag:"seed" metavar:"SEED" help:"seed of sampling. 0 for random"`
	Quiet        bool   `flag:"quiet" alias:"q" help:"do not draw progress bars"`
}

func (f Flags) Context() common.ContextFlags {
	return common.ContextFlags{Team: f.Team, Workspace: f.Workspace, Project: f.Project, Task: f.Task}
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Split images of a project into train and val, and tag them.",
		Flags{
			Train:        -1,
			TrainPercent: sampling.DefaultTrainPercent,
			Mode:         string(app.ModeClone),
		},
		flarc.Args{},
		common.NewTask(Task(os.LookupEnv)),
		flarc.WithDescription(`
Split images of the source project into train and val at random,
and make a new project where images have "train" or "val" tag.

With "--mode clone" (default), the whole project is cloned, then images in the clone are tagged.
With "--mode extract", a new project has only tagged images.

With "--share", all images get both of "train" and "val" tags.

The result project is printed as JSON.
`),
	)
}

// State builds the state document from flags.
func State(flags Flags, initial app.State, total int) (app.State, error) {
	state := initial
	state.ShareImagesBetweenSplits = flags.Share
	if flags.Name != "" {
		state.ResultProjectName = flags.Name
	}

	switch {
	case flags.Share:
		state.Count = sampling.Counts{Total: total, Train: total, Val: total}
		state.Percent = sampling.Percents{Total: 100, Train: 100, Val: 100}
	case 0 <= flags.Train:
		if total < flags.Train {
			return app.State{}, fmt.Errorf(
				"%w: --train %d is more than images in the project (%d)", flarc.ErrUsage, flags.Train, total,
			)
		}
		state.Count = sampling.Counts{Total: total, Train: flags.Train, Val: total - flags.Train}
	default:
		if flags.TrainPercent < 0 || 100 < flags.TrainPercent {
			return app.State{}, fmt.Errorf(
				"%w: --train-percent should be in [0, 100], but %d", flarc.ErrUsage, flags.TrainPercent,
			)
		}
		state.Count, state.Percent = sampling.DefaultCounts(total, flags.TrainPercent)
	}
	return state, nil
}

func Task(lookup func(string) (string, bool)) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client rest.PlatformClient,
		cl flarc.Commandline[Flags],
		_ []any,
	) error {
		flags := cl.Flags()
		mode, err := app.ParseMode(flags.Mode)
		if err != nil {
			return fmt.Errorf("%w: --mode: %w", flarc.ErrUsage, err)
		}

		appctx, err := common.LoadContext(flags.Context(), lookup)
		if err != nil {
			return err
		}
		session, err := app.Prepare(ctx, client, appctx, logger)
		if err != nil {
			return err
		}
		if flags.Seed != 0 {
			seed := uint64(flags.Seed)
			session.Rand = rand.New(rand.NewPCG(seed, seed))
		}
		if !flags.Quiet {
			session.Reporter = progress.Bar(cl.Stderr())
		}

		state, err := State(flags, session.State, session.TotalImages)
		if err != nil {
			return err
		}
		result, err := session.AssignTags(ctx, state, mode)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		return enc.Encode(result)
	}
}

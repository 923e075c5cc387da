package common

import (
	"os"
	"path"
	"strconv"

	"github.com/opst/trainval/cmd/trainval/app"
)

const DefaultProfile = "default"

type CommonFlags struct {
	Profile      string `flag:"profile" help:"profile name to use"`
	ProfileStore string `flag:"profile-store" metavar:"PATH" help:"path to profile store file"`
}

type commonFlagDetection struct {
	home string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

func WithHome(home string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.home = home
		return opt
	}
}

// Flags returns default values of CommonFlags.
//
// The profile store is "~/.trainval/profile".
func Flags(opt ...CommonFlagDetectionOption) (CommonFlags, error) {
	detparam := commonFlagDetection{}
	for _, o := range opt {
		detparam = *o(&detparam)
	}

	home := detparam.home
	if home == "" {
		_home, err := os.UserHomeDir()
		if err != nil {
			_home = ""
		}
		home = _home
	}

	return CommonFlags{
		Profile:      DefaultProfile,
		ProfileStore: path.Join(home, ".trainval", "profile"),
	}, nil
}

// ContextFlags are flags to override the application context given by environment variables.
//
// Zero means "not given".
type ContextFlags struct {
	Team      int
	Workspace int
	Project   int
	Task      int
}

// LoadContext reads app.Context from environment variables, overridden by flags.
func LoadContext(flags ContextFlags, lookup func(string) (string, bool)) (app.Context, error) {
	override := map[string]int{
		app.EnvTeamId:      flags.Team,
		app.EnvWorkspaceId: flags.Workspace,
		app.EnvProjectId:   flags.Project,
		app.EnvTaskId:      flags.Task,
	}
	return app.ContextFromEnv(func(key string) (string, bool) {
		if v := override[key]; v != 0 {
			return strconv.Itoa(v), true
		}
		return lookup(key)
	})
}

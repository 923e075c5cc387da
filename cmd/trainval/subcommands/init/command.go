package init

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	prof "github.com/opst/trainval/cmd/trainval/config/profiles"
	"github.com/opst/trainval/cmd/trainval/subcommands/common"
	"github.com/youta-t/flarc"
)

const ARG_PROFILE_FILE = "PROFILE_FILE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Register a profile to connect to the platform.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_PROFILE_FILE, Required: true,
				Help: "filepath to a profile file, which has apiRoot, token and (optionally) cert.ca.",
			},
		},
		common.NewTaskWithCommonFlag(Task),
		flarc.WithDescription(`
Register a new profile into your profile store.

A profile tells where the platform is and how to authenticate.
The name of the profile is given by "--profile" ( default: "default" ).

When SERVER_ADDRESS and API_TOKEN are set, they are used instead of profiles.
`),
	)
}

func Task(
	_ context.Context,
	logger *log.Logger,
	cf common.CommonFlags,
	cl flarc.Commandline[struct{}],
	_ []any,
) error {
	profFile := cl.Args()[ARG_PROFILE_FILE][0]

	profStore, err := prof.LoadProfileStore(cf.ProfileStore)
	if errors.Is(err, prof.ErrProfileStoreNotFound) {
		// ok.
		profStore = prof.ProfileStore{}
	} else if err != nil {
		return fmt.Errorf("failed to load profile store (%s): %w", cf.ProfileStore, err)
	}

	newProf := new(prof.Profile)
	{
		content, err := os.ReadFile(profFile)
		if err != nil {
			return fmt.Errorf("failed to read profile file (%s): %w", profFile, err)
		}
		if err := yaml.Unmarshal(content, newProf); err != nil {
			return fmt.Errorf("failed to parse profile file (%s): %w", profFile, err)
		}
	}
	if err := newProf.Verify(); err != nil {
		return fmt.Errorf("%s: %w", profFile, err)
	}

	profStore[cf.Profile] = newProf
	if err := profStore.Save(cf.ProfileStore); err != nil {
		return fmt.Errorf("failed to save profile store (%s): %w", cf.ProfileStore, err)
	}
	logger.Printf("profile %s is saved to %s", cf.Profile, cf.ProfileStore)
	return nil
}

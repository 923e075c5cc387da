package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/opst/trainval/cmd/trainval/config/profiles"
	"github.com/opst/trainval/cmd/trainval/rest"
	"github.com/opst/trainval/cmd/trainval/subcommands/logger"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		return task(
			ctx,
			logger.For(cl.Stderr(), cl.Fullname()),
			commonFlag,
			cl,
			newpos,
		)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	client rest.PlatformClient,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask adapts Task to flarc.Task.
//
// When environment variables SERVER_ADDRESS and API_TOKEN are set, the client connects there.
// Otherwise, the profile given by the common flags is used.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		prof, err := ResolveProfile(commonFlag, os.LookupEnv)
		if err != nil {
			return err
		}

		client, err := rest.NewClient(prof)
		if err != nil {
			return fmt.Errorf(
				"%w: failed to create client. Your profile (%s in %s) can be broken.\n\nRemove it and try `trainval init` again",
				err, commonFlag.Profile, commonFlag.ProfileStore,
			)
		}
		return task(ctx, logger, client, cl, params)
	})
}

// ResolveProfile finds the profile to connect with.
//
// A profile from environment variables takes precedence over the profile store.
func ResolveProfile(commonFlag CommonFlags, lookup func(string) (string, bool)) (*profiles.Profile, error) {
	if prof, ok := profiles.FromEnv(lookup); ok {
		return prof, nil
	}

	store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileStoreNotFound) {
			return nil, fmt.Errorf(
				"%w: profile store (%s) is not found. Please try `trainval init` first, or set %s and %s",
				err, commonFlag.ProfileStore, profiles.EnvServerAddress, profiles.EnvApiToken,
			)
		}
		return nil, fmt.Errorf("%w: failed to load profile store (%s)", err, commonFlag.ProfileStore)
	}
	prof, ok := store[commonFlag.Profile]
	if !ok {
		return nil, fmt.Errorf(
			"profile '%s' not found in the profile store (%s)",
			commonFlag.Profile, commonFlag.ProfileStore,
		)
	}
	return prof, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/opst/trainval/cmd/trainval/subcommands/common"
	subinit "github.com/opst/trainval/cmd/trainval/subcommands/init"
	"github.com/opst/trainval/cmd/trainval/subcommands/logger"
	subprepare "github.com/opst/trainval/cmd/trainval/subcommands/prepare"
	subrandstr "github.com/opst/trainval/cmd/trainval/subcommands/randstr"
	subsplit "github.com/opst/trainval/cmd/trainval/subcommands/split"
	subver "github.com/opst/trainval/cmd/trainval/subcommands/version"
	"github.com/opst/trainval/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags()).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	prepare := try.To(subprepare.New()).OrFatal(logger)
	split := try.To(subsplit.New()).OrFatal(logger)
	randstr := try.To(subrandstr.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	trainval := try.To(
		flarc.NewCommandGroup(
			"Split images of a project into train and val, and tag them.",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("prepare", prepare),
			flarc.WithSubcommand("split", split),
			flarc.WithSubcommand("randstr", randstr),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, trainval, flarc.WithHelp(true)))
}

package randstr

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/opst/trainval/pkg/randstr"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Length int `flag:"length" alias:"l" metavar:"N" help:"length of the string"`
	Seed   int `flag:"seed" metavar:"SEED" help:"seed of randomness. 0 for random"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Print a random string of ascii letters and digits.",
		Flags{Length: randstr.DefaultLength},
		flarc.Args{},
		Task,
	)
}

func Task(_ context.Context, cl flarc.Commandline[Flags], _ []any) error {
	flags := cl.Flags()
	if flags.Length < 0 {
		return fmt.Errorf("%w: --length should not be negative", flarc.ErrUsage)
	}

	rnd := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if flags.Seed != 0 {
		seed := uint64(flags.Seed)
		rnd = rand.New(rand.NewPCG(seed, seed))
	}
	_, err := fmt.Fprintln(cl.Stdout(), randstr.Generate(flags.Length, rnd))
	return err
}

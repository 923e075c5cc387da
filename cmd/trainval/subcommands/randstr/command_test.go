package randstr_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/opst/trainval/cmd/trainval/subcommands/internal/commandline"
	subrandstr "github.com/opst/trainval/cmd/trainval/subcommands/randstr"
	"github.com/youta-t/flarc"
)

func TestRandstr(t *testing.T) {
	t.Run("it prints a string of the length", func(t *testing.T) {
		cl, stdout, _ := commandline.New("trainval randstr", subrandstr.Flags{Length: 10}, nil)
		if err := subrandstr.Task(context.Background(), cl, nil); err != nil {
			t.Fatal(err)
		}
		got := strings.TrimSuffix(stdout.String(), "\n")
		if !regexp.MustCompile(`^[A-Za-z0-9]{10}$`).MatchString(got) {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("same seed gives same string", func(t *testing.T) {
		outs := []string{}
		for range 2 {
			cl, stdout, _ := commandline.New("trainval randstr", subrandstr.Flags{Length: 16, Seed: 7}, nil)
			if err := subrandstr.Task(context.Background(), cl, nil); err != nil {
				t.Fatal(err)
			}
			outs = append(outs, stdout.String())
		}
		if outs[0] != outs[1] {
			t.Errorf("outputs differ: %q", outs)
		}
	})

	t.Run("negative length is a usage error", func(t *testing.T) {
		cl, _, _ := commandline.New("trainval randstr", subrandstr.Flags{Length: -1}, nil)
		if err := subrandstr.Task(context.Background(), cl, nil); !errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

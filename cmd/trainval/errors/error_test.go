package errors_test

import (
	"errors"
	"strings"
	"testing"

	cerr "github.com/opst/trainval/cmd/trainval/errors"
)

func TestCUIError(t *testing.T) {
	t.Run("it shows summary when no detail is given", func(t *testing.T) {
		err := cerr.New("summary")
		if got := err.Error(); got != "summary" {
			t.Errorf("unexpected message: %s", got)
		}
	})

	t.Run("it shows server message under the summary", func(t *testing.T) {
		err := cerr.New("rejected", cerr.WithMessage(`{"reason": "not found"}`))
		if got := err.Error(); got != "rejected\n{\"reason\": \"not found\"}" {
			t.Errorf("unexpected message: %s", got)
		}
	})

	t.Run("it unwraps to the cause and mentions it in verbose message", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := cerr.New("cannot reach", cerr.WithCause(cause), cerr.WithVerbose("POST projects.info"))
		if !errors.Is(err, cause) {
			t.Error("cause is not unwrapped")
		}
		v := err.Verbose()
		for _, want := range []string{"cannot reach", "POST projects.info", "connection refused"} {
			if !strings.Contains(v, want) {
				t.Errorf("verbose message does not contain %q: %s", want, v)
			}
		}
	})

	t.Run("nested CUIError is described verbosely", func(t *testing.T) {
		inner := cerr.New("inner", cerr.WithVerbose("inner detail"))
		outer := cerr.New("outer", cerr.WithCause(inner))
		if !strings.Contains(outer.Verbose(), "inner detail") {
			t.Errorf("unexpected verbose: %s", outer.Verbose())
		}
	})
}

package commandline

import (
	"bytes"
	"io"
	"strings"

	"github.com/youta-t/flarc"
)

// MockCommandline is a flarc.Commandline for tests.
type MockCommandline[T any] struct {
	Fullname_ string

	Stdin_  io.Reader
	Stdout_ io.Writer
	Stderr_ io.Writer

	Flags_ T
	Args_  map[string][]string
}

var _ flarc.Commandline[struct{}] = &MockCommandline[struct{}]{}

// New creates a MockCommandline with empty stdin.
//
// Outputs are written into returned buffers.
func New[T any](fullname string, flags T, args map[string][]string) (
	cl *MockCommandline[T], stdout *bytes.Buffer, stderr *bytes.Buffer,
) {
	stdout = new(bytes.Buffer)
	stderr = new(bytes.Buffer)
	if args == nil {
		args = map[string][]string{}
	}
	return &MockCommandline[T]{
		Fullname_: fullname,
		Stdin_:    strings.NewReader(""),
		Stdout_:   stdout,
		Stderr_:   stderr,
		Flags_:    flags,
		Args_:     args,
	}, stdout, stderr
}

func (t MockCommandline[T]) Fullname() string {
	return t.Fullname_
}

func (t MockCommandline[T]) Stdin() io.Reader {
	return t.Stdin_
}

func (t MockCommandline[T]) Stdout() io.Writer {
	return t.Stdout_
}

func (t MockCommandline[T]) Stderr() io.Writer {
	return t.Stderr_
}

func (t MockCommandline[T]) Flags() T {
	return t.Flags_
}

func (t MockCommandline[T]) Args() map[string][]string {
	return t.Args_
}

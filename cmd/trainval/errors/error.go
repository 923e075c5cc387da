package errors

import (
	"fmt"
	"strings"
)

// Verbose is something which can describe itself in detail.
type Verbose interface {
	Verbose() string
}

// CUIError is an error to be shown to users of the command line.
//
// Error() gives a summary, and Verbose() gives the summary with its causes.
type CUIError interface {
	error
	Verbose
}

type cuierror struct {
	summary string
	verbose string
	detail  func(summary string) (string, error)
	cause   error
}

func (ce *cuierror) Unwrap() error {
	return ce.cause
}

func (ce *cuierror) Error() string {
	if ce.detail == nil {
		return ce.summary
	}
	message, err := ce.detail(ce.summary)
	if err != nil {
		return fmt.Sprintf(
			"%s\n(building detailed message causes error: %s)",
			ce.summary, err.Error(),
		)
	}
	return message
}

func (ce *cuierror) Verbose() string {
	lines := []string{ce.Error()}
	if ce.verbose != "" {
		lines = append(lines, " ("+ce.verbose+") ")
	}

	switch c := ce.cause.(type) {
	case nil:
	case Verbose:
		lines = append(lines, "caused by: ", c.Verbose())
	default:
		lines = append(lines, "caused by: ", c.Error())
	}
	return strings.Join(lines, "\n")
}

type Option func(*cuierror) *cuierror

func New(summary string, options ...Option) CUIError {
	err := &cuierror{summary: summary}
	for _, o := range options {
		err = o(err)
	}
	return err
}

func WithVerbose(verbose string) Option {
	return func(ce *cuierror) *cuierror {
		ce.verbose = verbose
		return ce
	}
}

// WithDetail sets a function to build the message from the summary.
func WithDetail(printer func(summary string) (string, error)) Option {
	return func(ce *cuierror) *cuierror {
		ce.detail = printer
		return ce
	}
}

// WithMessage appends a server message under the summary.
func WithMessage(message string) Option {
	return WithDetail(func(summary string) (string, error) {
		return summary + "\n" + message, nil
	})
}

func WithCause(err error) Option {
	return func(ce *cuierror) *cuierror {
		ce.cause = err
		return ce
	}
}

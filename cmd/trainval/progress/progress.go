// Package progress counts done items and tells reporters about it.
package progress

import (
	"context"
	"errors"
	"io"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/opst/trainval/pkg/api/types/tasks"
)

// Reporter shows progress somewhere.
type Reporter interface {
	// Begin is called when a new phase starts.
	Begin(ctx context.Context, message string, total int) error

	// Update is called each time some items are done.
	Update(ctx context.Context, current int, total int) error

	// Finish is called when the phase ends.
	Finish()
}

// Progress is a counter of a phase.
type Progress struct {
	message  string
	total    int
	current  int
	reporter Reporter
}

// Begin starts a new phase and tells reporter about that.
func Begin(ctx context.Context, message string, total int, reporter Reporter) (*Progress, error) {
	if reporter == nil {
		reporter = Nop()
	}
	p := &Progress{message: message, total: total, reporter: reporter}
	if err := reporter.Begin(ctx, message, total); err != nil {
		return nil, err
	}
	return p, nil
}

// Done marks n items as done.
func (p *Progress) Done(ctx context.Context, n int) error {
	p.current += n
	return p.reporter.Update(ctx, p.current, p.total)
}

func (p *Progress) Finish() {
	p.reporter.Finish()
}

func (p *Progress) Message() string {
	return p.message
}

func (p *Progress) Current() int {
	return p.current
}

func (p *Progress) Total() int {
	return p.total
}

// Percent is current/total in integer percent. It is 0 when total is 0.
func (p *Progress) Percent() int {
	return Percent(p.current, p.total)
}

func Percent(current, total int) int {
	if total <= 0 {
		return 0
	}
	return current * 100 / total
}

type nop struct{}

func (nop) Begin(context.Context, string, int) error { return nil }
func (nop) Update(context.Context, int, int) error   { return nil }
func (nop) Finish()                                  {}

// Nop reports nothing.
func Nop() Reporter {
	return nop{}
}

type multi []Reporter

// Multi reports to all of reporters.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

func (m multi) Begin(ctx context.Context, message string, total int) error {
	errs := []error{}
	for _, r := range m {
		errs = append(errs, r.Begin(ctx, message, total))
	}
	return errors.Join(errs...)
}

func (m multi) Update(ctx context.Context, current int, total int) error {
	errs := []error{}
	for _, r := range m {
		errs = append(errs, r.Update(ctx, current, total))
	}
	return errors.Join(errs...)
}

func (m multi) Finish() {
	for _, r := range m {
		r.Finish()
	}
}

// TaskFieldSetter updates the state document of a task.
type TaskFieldSetter interface {
	SetTaskFields(ctx context.Context, taskId int, fields []tasks.Field) error
}

type taskReporter struct {
	client TaskFieldSetter
	taskId int
}

// Task reports progress into the state document of the task,
// as data.message, data.progress, data.progressCurrent and data.progressTotal.
func Task(client TaskFieldSetter, taskId int) Reporter {
	return &taskReporter{client: client, taskId: taskId}
}

func (r *taskReporter) Begin(ctx context.Context, message string, total int) error {
	return r.client.SetTaskFields(ctx, r.taskId, []tasks.Field{
		{Field: tasks.FieldMessage, Payload: message},
		{Field: tasks.FieldProgress, Payload: 0},
		{Field: tasks.FieldProgressCurrent, Payload: 0},
		{Field: tasks.FieldProgressTotal, Payload: total},
	})
}

func (r *taskReporter) Update(ctx context.Context, current int, total int) error {
	return r.client.SetTaskFields(ctx, r.taskId, []tasks.Field{
		{Field: tasks.FieldProgressCurrent, Payload: current},
		{Field: tasks.FieldProgressTotal, Payload: total},
		{Field: tasks.FieldProgress, Payload: Percent(current, total)},
	})
}

func (r *taskReporter) Finish() {}

type barReporter struct {
	out io.Writer
	bar *pb.ProgressBar
}

// Bar draws a progress bar into out.
func Bar(out io.Writer) Reporter {
	return &barReporter{out: out}
}

func (r *barReporter) Begin(_ context.Context, message string, total int) error {
	r.Finish()

	bar := pb.New(total)
	bar.SetWriter(r.out)
	bar.Set("prefix", message+" ")
	if err := bar.Err(); err != nil {
		return err
	}
	r.bar = bar.Start()
	return nil
}

func (r *barReporter) Update(_ context.Context, current int, total int) error {
	if r.bar == nil {
		return nil
	}
	r.bar.SetTotal(int64(total))
	r.bar.SetCurrent(int64(current))
	return nil
}

func (r *barReporter) Finish() {
	if r.bar == nil {
		return
	}
	r.bar.Finish()
	r.bar = nil
}

package progress_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/trainval/cmd/trainval/progress"
	rmock "github.com/opst/trainval/cmd/trainval/rest/mock"
	"github.com/opst/trainval/pkg/api/types/tasks"
	"github.com/opst/trainval/pkg/utils/try"
)

type record struct {
	calls []string
	err   error
}

func (r *record) Begin(_ context.Context, message string, total int) error {
	r.calls = append(r.calls, "begin")
	return r.err
}

func (r *record) Update(_ context.Context, current int, total int) error {
	r.calls = append(r.calls, "update")
	return r.err
}

func (r *record) Finish() {
	r.calls = append(r.calls, "finish")
}

func TestProgress(t *testing.T) {
	t.Run("it counts done items", func(t *testing.T) {
		ctx := context.Background()
		p := try.To(progress.Begin(ctx, "Cloning project...", 7, nil)).OrFatal(t)
		p.Done(ctx, 3)
		p.Done(ctx, 2)
		if p.Current() != 5 || p.Total() != 7 || p.Percent() != 71 {
			t.Errorf("unexpected progress: %d/%d (%d%%)", p.Current(), p.Total(), p.Percent())
		}
		if p.Message() != "Cloning project..." {
			t.Errorf("unexpected message: %s", p.Message())
		}
	})

	t.Run("percent of nothing is 0", func(t *testing.T) {
		if got := progress.Percent(0, 0); got != 0 {
			t.Errorf("unexpected: %d", got)
		}
	})

	t.Run("Multi tells every reporter and joins errors", func(t *testing.T) {
		expectedErr := errors.New("fake")
		a := &record{}
		b := &record{err: expectedErr}
		ctx := context.Background()

		_, err := progress.Begin(ctx, "x", 1, progress.Multi(a, b))
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}

		b.err = nil
		p := try.To(progress.Begin(ctx, "x", 1, progress.Multi(a, b))).OrFatal(t)
		if err := p.Done(ctx, 1); err != nil {
			t.Fatal(err)
		}
		p.Finish()

		want := []string{"begin", "begin", "update", "finish"}
		if diff := cmp.Diff(want, a.calls); diff != "" {
			t.Errorf("calls of a (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, b.calls); diff != "" {
			t.Errorf("calls of b (-want +got):\n%s", diff)
		}
	})
}

func TestTask(t *testing.T) {
	t.Run("it writes progress fields of the task", func(t *testing.T) {
		client := rmock.New(t)
		client.Impl.SetTaskFields = func(context.Context, int, []tasks.Field) error { return nil }
		ctx := context.Background()

		p := try.To(progress.Begin(ctx, "Tagging...", 4, progress.Task(client, 42))).OrFatal(t)
		if err := p.Done(ctx, 1); err != nil {
			t.Fatal(err)
		}

		want := []rmock.SetTaskFieldsArgs{
			{TaskId: 42, Fields: []tasks.Field{
				{Field: "data.message", Payload: "Tagging..."},
				{Field: "data.progress", Payload: 0},
				{Field: "data.progressCurrent", Payload: 0},
				{Field: "data.progressTotal", Payload: 4},
			}},
			{TaskId: 42, Fields: []tasks.Field{
				{Field: "data.progressCurrent", Payload: 1},
				{Field: "data.progressTotal", Payload: 4},
				{Field: "data.progress", Payload: 25},
			}},
		}
		if diff := cmp.Diff(want, client.Calls.SetTaskFields); diff != "" {
			t.Errorf("SetTaskFields calls (-want +got):\n%s", diff)
		}
	})
}

func TestBar(t *testing.T) {
	t.Run("it draws into the writer", func(t *testing.T) {
		out := new(bytes.Buffer)
		ctx := context.Background()
		p := try.To(progress.Begin(ctx, "Tagging...", 2, progress.Bar(out))).OrFatal(t)
		p.Done(ctx, 2)
		p.Finish()

		if out.Len() == 0 {
			t.Error("nothing is drawn")
		}
	})
}

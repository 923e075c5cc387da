package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opst/trainval/pkg/utils/retry"
)

func TestBlocking(t *testing.T) {
	type When struct {
		results []error
		times   int
	}
	type Then struct {
		calls int
		value int
		err   error
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			calls := 0
			b := retry.Limited(when.times, retry.StaticBackoff(time.Millisecond))
			got, err := retry.Blocking(context.Background(), b, func() (int, error) {
				err := when.results[calls]
				calls += 1
				return calls, err
			})

			if calls != then.calls {
				t.Errorf("calls: got %d, want %d", calls, then.calls)
			}
			if got != then.value {
				t.Errorf("value: got %d, want %d", got, then.value)
			}
			if !errors.Is(err, then.err) {
				t.Errorf("error: got %v, want %v", err, then.err)
			}
		}
	}

	fatal := errors.New("fatal")

	t.Run("success at first", theory(
		When{results: []error{nil}, times: 3},
		Then{calls: 1, value: 1},
	))
	t.Run("success after retries", theory(
		When{results: []error{retry.ErrRetry, retry.ErrRetry, nil}, times: 3},
		Then{calls: 3, value: 3},
	))
	t.Run("non-retry error stops", theory(
		When{results: []error{retry.ErrRetry, fatal}, times: 3},
		Then{calls: 2, value: 2, err: fatal},
	))
	t.Run("exhausted", theory(
		When{results: []error{retry.ErrRetry, retry.ErrRetry, retry.ErrRetry}, times: 2},
		Then{calls: 3, value: 3, err: retry.ErrExhausted},
	))
	t.Run("no retry allowed", theory(
		When{results: []error{retry.ErrRetry}, times: 0},
		Then{calls: 1, value: 1, err: retry.ErrExhausted},
	))

	t.Run("canceled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		_, err := retry.Blocking(ctx, retry.StaticBackoff(time.Hour), func() (int, error) {
			calls += 1
			return 0, retry.ErrRetry
		})
		if !errors.Is(err, context.Canceled) || calls != 1 {
			t.Errorf("got (%d, %v)", calls, err)
		}
	})
}

func TestExponentialBackoff(t *testing.T) {
	b := retry.ExponentialBackoff(5*time.Millisecond, 2)
	ctx := context.Background()

	var elapsed []time.Duration
	for range 3 {
		before := time.Now()
		if err := b(ctx); err != nil {
			t.Fatal(err)
		}
		elapsed = append(elapsed, time.Since(before))
	}
	for nth, want := range []time.Duration{5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		if elapsed[nth] < want {
			t.Errorf("#%d wait: got %s, want at least %s", nth, elapsed[nth], want)
		}
	}
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecuteStopsAfterFirstSuccess(t *testing.T) {
	var calls int32
	runner := NewRunner()

	runner.Execute(Job{
		Name:           "succeeds-immediately",
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		},
	})

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	var calls int32
	runner := NewRunner()

	runner.Execute(Job{
		Name:           "succeeds-on-third-attempt",
		MaxRetries:     5,
		InitialBackoff: time.Millisecond,
		Run: func(ctx context.Context) error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("transient failure")
			}
			return nil
		},
	})

	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExecuteGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	runner := NewRunner()

	runner.Execute(Job{
		Name:           "always-fails",
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("permanent failure")
		},
	})

	// Initial attempt plus two retries.
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	var calls int32
	runner := NewRunner()

	require.NotPanics(t, func() {
		runner.Execute(Job{
			Name:           "panics-once",
			MaxRetries:     1,
			InitialBackoff: time.Millisecond,
			Run: func(ctx context.Context) error {
				if atomic.AddInt32(&calls, 1) == 1 {
					panic("boom")
				}
				return nil
			},
		})
	})

	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExecuteHonorsJobTimeout(t *testing.T) {
	runner := NewRunner()
	var sawDeadline atomic.Bool

	runner.Execute(Job{
		Name:           "outlives-deadline",
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
		Timeout:        10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				sawDeadline.Store(true)
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		},
	})

	require.True(t, sawDeadline.Load())
}

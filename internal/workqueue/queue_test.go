package workqueue

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestQueue_RunsAllTasks(t *testing.T) {
	q := New(zerolog.Nop(), 3, 64)

	var ran atomic.Int32
	for i := 0; i < 50; i++ {
		assert.True(t, q.Submit("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	q.Close()

	assert.Equal(t, int32(50), ran.Load())
	assert.Equal(t, 0, q.Pending())
	completed, failed := q.Stats()
	assert.Equal(t, 50, completed)
	assert.Equal(t, 0, failed)
}

func TestQueue_ReportsFailures(t *testing.T) {
	q := New(zerolog.Nop(), 2, 8)

	q.Submit("ok", func(ctx context.Context) error { return nil })
	q.Submit("fails", func(ctx context.Context) error { return errors.New("boom") })
	q.Submit("panics", func(ctx context.Context) error { panic("oops") })

	q.Close()

	completed, failed := q.Stats()
	assert.Equal(t, 3, completed)
	assert.Equal(t, 2, failed)
}

func TestQueue_SubmitAfterClose(t *testing.T) {
	q := New(zerolog.Nop(), 1, 1)
	q.Close()
	q.Close()

	assert.False(t, q.Submit("late", func(ctx context.Context) error { return nil }))
}

func TestQueue_FullQueueDrops(t *testing.T) {
	q := New(zerolog.Nop(), 1, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	q.Submit("blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	// one worker busy; the dispatcher holds at most one more task while it
	// waits for a free worker, and the buffer holds one
	accepted := 0
	for i := 0; i < 10; i++ {
		if q.Submit("filler", func(ctx context.Context) error { return nil }) {
			accepted++
		}
	}
	assert.Less(t, accepted, 10)

	close(release)
	q.Close()
}

func TestQueue_StopCancelsContext(t *testing.T) {
	q := New(zerolog.Nop(), 1, 4)

	started := make(chan struct{})
	var cancelled atomic.Bool
	q.Submit("waits", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	<-started

	q.Stop()
	assert.True(t, cancelled.Load())
}

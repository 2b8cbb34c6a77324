package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingPusher struct {
	calls atomic.Int32
	err   error
}

func (p *countingPusher) Push(ctx context.Context) error {
	p.calls.Add(1)
	return p.err
}

func TestSyncWorker_Debounce(t *testing.T) {
	t.Run("Success: A burst results in one push", func(t *testing.T) {
		p := &countingPusher{}
		w := NewSyncWorker(p, 30*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w.Start(ctx)

		for range 10 {
			w.Schedule()
			time.Sleep(2 * time.Millisecond)
		}

		assert.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, int32(1), p.calls.Load())
	})

	t.Run("Success: Separate bursts push separately", func(t *testing.T) {
		p := &countingPusher{}
		w := NewSyncWorker(p, 10*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w.Start(ctx)

		w.Schedule()
		assert.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		w.Schedule()
		assert.Eventually(t, func() bool { return p.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("Success: Push errors do not stop the worker", func(t *testing.T) {
		p := &countingPusher{err: errors.New("offline")}
		w := NewSyncWorker(p, 5*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w.Start(ctx)

		w.Schedule()
		assert.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		w.Schedule()
		assert.Eventually(t, func() bool { return p.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("Success: Cancel drops the pending push", func(t *testing.T) {
		p := &countingPusher{}
		w := NewSyncWorker(p, 50*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		w.Start(ctx)

		w.Schedule()
		cancel()
		time.Sleep(100 * time.Millisecond)

		assert.Equal(t, int32(0), p.calls.Load())
	})

	t.Run("Success: Schedule never blocks without a running loop", func(t *testing.T) {
		w := NewSyncWorker(&countingPusher{}, time.Second)
		done := make(chan struct{})
		go func() {
			for range 5 {
				w.Schedule()
			}
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Schedule blocked")
		}
	})
}

package workers

import (
	"context"
	"log"
	"time"
)

type Pusher interface {
	Push(ctx context.Context) error
}

// SyncWorker debounces pushes: every Schedule restarts a single pending
// timer and only the last one in a burst results in a push.
type SyncWorker struct {
	pusher  Pusher
	delay   time.Duration
	trigger chan struct{}
}

func NewSyncWorker(pusher Pusher, delay time.Duration) *SyncWorker {
	return &SyncWorker{
		pusher:  pusher,
		delay:   delay,
		trigger: make(chan struct{}, 1),
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	go func() {
		log.Println("[WORKER] sync worker started")
		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-w.trigger:
				if timer == nil {
					timer = time.NewTimer(w.delay)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(w.delay)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				w.push(ctx)
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				log.Println("[WORKER] sync worker shutting down")
				return
			}
		}
	}()
}

// Schedule never blocks. A trigger already waiting in the channel covers
// this call too.
func (w *SyncWorker) Schedule() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *SyncWorker) push(ctx context.Context) {
	// A push that has started runs to completion even if shutdown begins.
	if err := w.pusher.Push(context.WithoutCancel(ctx)); err != nil {
		log.Printf("[WORKER] debounced push failed: %v", err)
		return
	}
	log.Println("[WORKER] debounced push done")
}

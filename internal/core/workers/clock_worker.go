package workers

import (
	"context"
	"log"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
)

type HeroSource interface {
	Hero(ctx context.Context, now time.Time) (services.HeroView, error)
}

type Publisher interface {
	Publish(evt services.Event)
}

// ClockWorker re-runs the task locator on a fixed interval and announces
// when the current block changes. It never writes state.
type ClockWorker struct {
	source   HeroSource
	events   Publisher
	interval time.Duration
	now      func() time.Time
	last     string
}

func NewClockWorker(source HeroSource, events Publisher, interval time.Duration) *ClockWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ClockWorker{
		source:   source,
		events:   events,
		interval: interval,
		now:      time.Now,
	}
}

func (w *ClockWorker) Start(ctx context.Context) {
	go func() {
		log.Println("[WORKER] clock worker started")
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.tick(ctx)
		for {
			select {
			case <-ticker.C:
				w.tick(ctx)
			case <-ctx.Done():
				log.Println("[WORKER] clock worker shutting down")
				return
			}
		}
	}()
}

func heroKey(h services.HeroView) string {
	return h.Current.ID + "|" + h.Current.Name
}

func (w *ClockWorker) tick(ctx context.Context) {
	hero, err := w.source.Hero(ctx, w.now())
	if err != nil {
		log.Printf("[WORKER] clock tick failed: %v", err)
		return
	}

	key := heroKey(hero)
	if key == w.last {
		return
	}
	w.last = key
	w.events.Publish(services.Event{Type: services.EventHeroChanged, Origin: services.OriginLocal, Payload: hero})
}

package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedHero struct {
	views []services.HeroView
	err   error
	calls int
}

func (s *scriptedHero) Hero(ctx context.Context, now time.Time) (services.HeroView, error) {
	if s.err != nil {
		return services.HeroView{}, s.err
	}
	v := s.views[s.calls%len(s.views)]
	s.calls++
	return v, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []services.Event
}

func (r *recordingPublisher) Publish(evt services.Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

func (r *recordingPublisher) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func heroOf(id, name string) services.HeroView {
	return services.HeroView{Current: services.TaskView{Task: domain.Task{ID: id, Name: name}}}
}

func TestClockWorker_Tick(t *testing.T) {
	t.Run("Success: Publishes only when the current block changes", func(t *testing.T) {
		src := &scriptedHero{views: []services.HeroView{
			heroOf("college", "College"),
			heroOf("college", "College"),
			heroOf("", domain.FreeTimeName),
			heroOf("chem-study", "Chemistry Study"),
		}}
		pub := &recordingPublisher{}
		w := NewClockWorker(src, pub, time.Minute)

		for range 4 {
			w.tick(context.Background())
		}

		require.Len(t, pub.events, 3)
		assert.Equal(t, services.EventHeroChanged, pub.events[0].Type)
		assert.Equal(t, "college", pub.events[0].Payload.(services.HeroView).Current.ID)
		assert.Equal(t, domain.FreeTimeName, pub.events[1].Payload.(services.HeroView).Current.Name)
	})

	t.Run("Fail: Locator error publishes nothing", func(t *testing.T) {
		pub := &recordingPublisher{}
		w := NewClockWorker(&scriptedHero{err: errors.New("store down")}, pub, time.Minute)

		w.tick(context.Background())

		assert.Equal(t, 0, pub.Len())
	})
}

func TestClockWorker_StartStop(t *testing.T) {
	src := &scriptedHero{views: []services.HeroView{heroOf("college", "College")}}
	pub := &recordingPublisher{}
	w := NewClockWorker(src, pub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	assert.Eventually(t, func() bool { return pub.Len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
}

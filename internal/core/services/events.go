package services

import (
	"sync"
	"time"
)

const (
	EventStateChanged = "state_changed"
	EventSyncStatus   = "sync_status"
	EventHeroChanged  = "hero_changed"
)

const (
	OriginLocal  = "local"
	OriginRemote = "remote"
)

type Event struct {
	Type      string    `json:"type"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Events fans out state notifications to in-process subscribers (the sync
// worker and the websocket hub). Subscribers run synchronously and must not block.
type Events struct {
	mu   sync.RWMutex
	subs []func(Event)
}

func NewEvents() *Events {
	return &Events{}
}

func (e *Events) Subscribe(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *Events) Publish(evt Event) {
	if e == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	e.mu.RLock()
	subs := append([]func(Event){}, e.subs...)
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(evt)
	}
}

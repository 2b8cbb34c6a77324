package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/stretchr/testify/mock"
)

// Tuesday, rotation day 1 (Chemistry), during the college block.
var baseNow = time.Date(2025, 9, 16, 10, 30, 0, 0, time.UTC)

type MemRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	failPut error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{data: make(map[string][]byte)}
}

func (m *MemRepo) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemRepo) Put(ctx context.Context, key string, value []byte) error {
	return m.PutMany(ctx, map[string][]byte{key: value})
}

func (m *MemRepo) PutMany(ctx context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	for k, v := range entries {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemRepo) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

func (m *MemRepo) Keys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemRepo) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type FakeDefaults struct{}

func defaultTree() domain.SyllabusTree {
	return domain.SyllabusTree{
		"Physics": {"Paper 1": {
			{ID: "p1", Title: "Vectors"},
			{ID: "p2", Title: "Dynamics"},
		}},
		"Math": {"Paper 1": {
			{ID: "m1", Title: "Matrices"},
		}},
	}
}

func (FakeDefaults) Syllabus(name string) (domain.SyllabusTree, error) {
	switch name {
	case "", "hsc":
		return defaultTree(), nil
	case "small":
		return domain.SyllabusTree{"ICT": {"Paper 1": {{ID: "i1", Title: "Networking"}}}}, nil
	}
	return nil, fmt.Errorf("unknown syllabus config %q", name)
}

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Fetch(ctx context.Context, token, docID string) (*domain.RemoteDocument, error) {
	args := m.Called(ctx, token, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RemoteDocument), args.Error(1)
}

func (m *MockRemote) Replace(ctx context.Context, token, docID string, doc *domain.RemoteDocument) error {
	return m.Called(ctx, token, docID, doc).Error(0)
}

func (m *MockRemote) Create(ctx context.Context, token string, doc *domain.RemoteDocument) (string, error) {
	args := m.Called(ctx, token, doc)
	return args.String(0), args.Error(1)
}

type CountingScheduler struct {
	mu    sync.Mutex
	count int
}

func (c *CountingScheduler) Schedule() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func (c *CountingScheduler) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func testRoutine() domain.RoutineTable {
	return domain.RoutineTable{
		domain.DayFriday: {
			SelfStudy: []domain.TaskDef{
				{ID: "revision", Name: domain.LiteralName("Revision (Mixed)"), Time: "8:00-9:00 PM"},
			},
		},
		domain.DaySunTueThu: {
			Morning: []domain.TaskDef{
				{ID: "college", Name: domain.LiteralName("College"), Time: "9:00-12:00 PM"},
			},
			SelfStudy: []domain.TaskDef{
				{ID: "chem-study", Name: domain.LiteralName("Chemistry Study"), Time: "6:30-7:30 PM"},
				{ID: "questions", Name: domain.TemplateName("Questions ({rotation})"), Time: "10:30-11:00 PM"},
			},
		},
		domain.DaySatMonWed: {
			Morning: []domain.TaskDef{
				{ID: "coaching", Name: domain.LiteralName("Coaching"), Time: "7:00-8:00 AM"},
			},
			SelfStudy: []domain.TaskDef{
				{ID: "questions", Name: domain.TemplateName("Questions ({rotation})"), Time: "10:30-11:00 PM"},
			},
		},
	}
}

type testEnv struct {
	repo     *MemRepo
	store    *services.StateStore
	events   *services.Events
	tracker  *services.TrackerService
	sync     *services.SyncService
	tokens   *services.TokenService
	auth     *services.AuthService
	settings *services.SettingsService
	export   *services.ExportService
	remote   *MockRemote
	now      time.Time
	received []services.Event
	evMu     sync.Mutex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:   NewMemRepo(),
		events: services.NewEvents(),
		remote: new(MockRemote),
		now:    baseNow,
	}
	clock := func() time.Time { return env.now }

	env.events.Subscribe(func(e services.Event) {
		env.evMu.Lock()
		env.received = append(env.received, e)
		env.evMu.Unlock()
	})

	env.store = services.NewStateStore(env.repo, FakeDefaults{})
	env.store.SetClock(clock)

	env.tracker = services.NewTrackerService(env.store, testRoutine(), FakeDefaults{}, env.events, services.TrackerConfig{
		RotationStart: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		DefaultRange: domain.DateRange{
			Start: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		},
		Location: time.UTC,
	})

	env.sync = services.NewSyncService(env.store, env.remote, env.events, services.SyncConfig{Device: "desktop", Location: time.UTC})
	env.sync.SetClock(clock)
	env.tracker.SetStatusProvider(env.sync)

	env.tokens = services.NewTokenService("test-secret", "syllabus-pulse", time.Hour, 24*time.Hour, env.store)
	env.auth = services.NewAuthService(env.store, env.tokens)
	env.settings = services.NewSettingsService(env.store, env.auth, env.tracker, FakeDefaults{})
	env.export = services.NewExportService(env.tracker, env.store)
	return env
}

func (e *testEnv) countEvents(typ, origin string) int {
	e.evMu.Lock()
	defer e.evMu.Unlock()
	n := 0
	for _, ev := range e.received {
		if ev.Type == typ && (origin == "" || ev.Origin == origin) {
			n++
		}
	}
	return n
}

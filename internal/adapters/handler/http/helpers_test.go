package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/repository"
	"github.com/comitanigiacomo/syllabus-pulse/internal/bundle"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Tuesday, inside the college block.
var testNow = time.Date(2025, 9, 16, 10, 30, 0, 0, time.UTC)

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

type testServer struct {
	router  *gin.Engine
	remote  *MockRemote
	store   *services.StateStore
	tracker *services.TrackerService
	auth    *services.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := bundle.New("")
	routine, err := b.Routine()
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	repo := repository.NewInMemoryStateRepository()
	events := services.NewEvents()
	remote := new(MockRemote)

	store := services.NewStateStore(repo, b)
	store.SetClock(clock)

	tracker := services.NewTrackerService(store, routine, b, events, services.TrackerConfig{
		RotationStart: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		DefaultRange: domain.DateRange{
			Start: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		},
		Location: time.UTC,
	})
	sync := services.NewSyncService(store, remote, events, services.SyncConfig{Device: domain.DeviceDesktop, Location: time.UTC})
	sync.SetClock(clock)
	tracker.SetStatusProvider(sync)

	tokens := services.NewTokenService("handler-test-secret", "syllabus-pulse", time.Hour, 24*time.Hour, store)
	auth := services.NewAuthService(store, tokens)
	settings := services.NewSettingsService(store, auth, tracker, b)
	export := services.NewExportService(tracker, store)

	trackerHandler := NewTrackerHandler(tracker, export)
	trackerHandler.SetClock(clock)

	router := NewRouter(RouterDependencies{
		AuthHandler:     NewAuthHandler(auth, settings),
		TrackerHandler:  trackerHandler,
		SyncHandler:     NewSyncHandler(sync),
		SettingsHandler: NewSettingsHandler(settings, auth, tracker),
		TokenService:    tokens,
		Store:           repo,
		StartTime:       time.Now(),
	})

	return &testServer{
		router:  router,
		remote:  remote,
		store:   store,
		tracker: tracker,
		auth:    auth,
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// setup completes first-run setup with PIN 1234 and returns a session token.
func (s *testServer) setup(t *testing.T, creds bool) string {
	t.Helper()
	body := map[string]any{"pin": "1234"}
	if creds {
		body["token"] = "ghp_token"
		body["docId"] = "abc123"
	}
	w := s.do(http.MethodPost, "/api/v1/setup", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

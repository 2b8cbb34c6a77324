package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *domain.RemoteDocument {
	return &domain.RemoteDocument{
		Chapters: domain.SyllabusTree{
			"Physics": {"Paper 1": {{ID: "phy1-1", Title: "Vectors", Done: true, Note: "revise"}}},
		},
		DailyTasks:  domain.DailyCompletion{"2025-09-16": {"college": true}},
		LastUpdated: time.Date(2025, 9, 16, 10, 30, 0, 0, time.UTC),
		Device:      domain.DeviceDesktop,
	}
}

func gistBody(t *testing.T, doc *domain.RemoteDocument) string {
	t.Helper()
	content, err := encodeDocument(doc)
	require.NoError(t, err)
	raw, err := json.Marshal(gistEnvelope{ID: "abc123", Files: map[string]gistFile{GistFileName: {Content: content}}})
	require.NoError(t, err)
	return string(raw)
}

func TestGistStore_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Decodes the tracker file", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/gists/abc123", r.URL.Path)
			assert.Equal(t, "Bearer ghp_token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
			io.WriteString(w, gistBody(t, sampleDoc()))
		}))
		defer srv.Close()

		doc, err := NewGistStore(srv.URL, time.Second).Fetch(ctx, "ghp_token", "abc123")
		require.NoError(t, err)
		assert.Equal(t, sampleDoc(), doc)
	})

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "Fail: Unauthorized", status: http.StatusUnauthorized, wantErr: domain.ErrAuth},
		{name: "Fail: Forbidden", status: http.StatusForbidden, wantErr: domain.ErrAuth},
		{name: "Fail: Unknown gist", status: http.StatusNotFound, wantErr: domain.ErrNotFound},
		{name: "Fail: Server error", status: http.StatusBadGateway, wantErr: domain.ErrNetwork},
		{name: "Fail: Tracker file missing", status: http.StatusOK, body: `{"files":{"other.json":{"content":"{}"}}}`, wantErr: domain.ErrNotFound},
		{name: "Fail: Content is not JSON", status: http.StatusOK, body: `{"files":{"hsc-study-tracker.json":{"content":"nope"}}}`, wantErr: domain.ErrDecode},
		{name: "Fail: Envelope is not JSON", status: http.StatusOK, body: `<html>`, wantErr: domain.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewGistStore(srv.URL, time.Second).Fetch(ctx, "ghp_token", "abc123")
			assert.ErrorIs(t, err, tt.wantErr)

			var syncErr *domain.SyncError
			assert.ErrorAs(t, err, &syncErr)
			assert.Equal(t, "fetch", syncErr.Op)
		})
	}

	t.Run("Fail: Missing token never reaches the server", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		_, err := NewGistStore(srv.URL, time.Second).Fetch(ctx, "", "abc123")
		assert.ErrorIs(t, err, domain.ErrAuth)
		assert.False(t, called)
	})

	t.Run("Fail: Unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewGistStore(url, time.Second).Fetch(ctx, "ghp_token", "abc123")
		assert.ErrorIs(t, err, domain.ErrNetwork)
	})
}

func TestGistStore_DocIDStaysInsideGistPath(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		io.WriteString(w, gistBody(t, sampleDoc()))
	}))
	defer srv.Close()

	store := NewGistStore(srv.URL, time.Second)
	_, _ = store.Fetch(context.Background(), "ghp_token", "../user")
	_ = store.Replace(context.Background(), "ghp_token", "a/b?c", sampleDoc())

	assert.Equal(t, []string{"/gists/..%2Fuser", "/gists/a%2Fb%3Fc"}, paths)
}

func TestGistStore_Replace(t *testing.T) {
	var got gistEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/gists/abc123", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	err := NewGistStore(srv.URL, time.Second).Replace(context.Background(), "ghp_token", "abc123", sampleDoc())
	require.NoError(t, err)

	file, ok := got.Files[GistFileName]
	require.True(t, ok)
	doc, err := decodeDocument(file.Content)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc(), doc)
	assert.Contains(t, file.Content, "\n  \"chapters\"")
	assert.Nil(t, got.Public)
}

func TestGistStore_Create(t *testing.T) {
	t.Run("Success: Private gist with description", func(t *testing.T) {
		var got gistEnvelope
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/gists", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":"f00d"}`)
		}))
		defer srv.Close()

		doc := sampleDoc()
		doc.Device = domain.DeviceInitial
		id, err := NewGistStore(srv.URL, time.Second).Create(context.Background(), "ghp_token", doc)
		require.NoError(t, err)

		assert.Equal(t, "f00d", id)
		assert.Equal(t, GistDescription, got.Description)
		require.NotNil(t, got.Public)
		assert.False(t, *got.Public)
		assert.Contains(t, got.Files[GistFileName].Content, `"device": "initial"`)
	})

	t.Run("Fail: Response without id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{}`)
		}))
		defer srv.Close()

		_, err := NewGistStore(srv.URL, time.Second).Create(context.Background(), "ghp_token", sampleDoc())
		assert.ErrorIs(t, err, domain.ErrDecode)
	})

	t.Run("Fail: Token rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewGistStore(srv.URL, time.Second).Create(context.Background(), "ghp_bad", sampleDoc())
		assert.ErrorIs(t, err, domain.ErrAuth)
	})
}

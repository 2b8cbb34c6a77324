package http

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsHandler_Get(t *testing.T) {
	srv := newTestServer(t)
	token := srv.setup(t, true)

	w := srv.do(http.MethodGet, "/api/v1/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["tokenSet"])
	assert.Equal(t, "abc123", body["docId"])
	assert.NotContains(t, w.Body.String(), "ghp_token")
}

func TestSettingsHandler_Update(t *testing.T) {
	srv := newTestServer(t)
	token := srv.setup(t, false)

	t.Run("Success: Credentials with warnings", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/settings/credentials", token, map[string]string{"token": "plain", "docId": "x"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode(t, w)["warnings"])
	})

	t.Run("Success: Date range", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/settings/date-range", token, map[string]string{"start": "2025-09-01", "end": "2026-06-30"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, decode(t, w), "totalDays")
	})

	t.Run("Fail: Inverted date range", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/settings/date-range", token, map[string]string{"start": "2026-06-30", "end": "2025-09-01"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success: Preferences", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/settings/preferences", token, map[string]any{"showTasks": false})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decode(t, w)["showTasks"])
	})

	t.Run("Fail: Unknown syllabus config", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/settings/preferences", token, map[string]any{"selectedConfig": "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: Change PIN with wrong current", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/settings/pin", token, map[string]string{"currentPin": "0000", "newPin": "5678"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Success: Change PIN", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/settings/pin", token, map[string]string{"currentPin": "1234", "newPin": "5678"})
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.NoError(t, srv.auth.VerifyPin(t.Context(), "5678"))
	})
}

func TestSettingsHandler_QR(t *testing.T) {
	srv := newTestServer(t)
	token := srv.setup(t, true)

	t.Run("Fail: Wrong PIN", func(t *testing.T) {
		w := srv.do(http.MethodPost, "/api/v1/settings/qr/export", token, map[string]string{"pin": "0000"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Success: JSON payload", func(t *testing.T) {
		w := srv.do(http.MethodPost, "/api/v1/settings/qr/export", token, map[string]string{"pin": "1234"})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "ghp_token", body["githubToken"])
		assert.Equal(t, "abc123", body["gistId"])
	})

	t.Run("Success: PNG image", func(t *testing.T) {
		w := srv.do(http.MethodPost, "/api/v1/settings/qr/export?format=png", token, map[string]string{"pin": "1234"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("Success: Import partial payload", func(t *testing.T) {
		w := srv.do(http.MethodPost, "/api/v1/settings/qr/import", token, `{"gistId":"cafe"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		creds, err := srv.store.Credentials(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "cafe", creds.DocID)
	})

	t.Run("Fail: Import garbage", func(t *testing.T) {
		w := srv.do(http.MethodPost, "/api/v1/settings/qr/import", token, `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettingsHandler_Clear(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
	}{
		{name: "Fail: Unknown target", body: map[string]string{"target": "everything", "pin": "1234"}, wantCode: http.StatusBadRequest},
		{name: "Fail: Wrong PIN", body: map[string]string{"target": "local", "pin": "0000"}, wantCode: http.StatusUnauthorized},
		{name: "Fail: Missing PIN", body: map[string]string{"target": "local"}, wantCode: http.StatusBadRequest},
		{name: "Success: Progress reset", body: map[string]string{"target": "progress", "pin": "1234"}, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			token := srv.setup(t, true)

			w := srv.do(http.MethodPost, "/api/v1/settings/clear", token, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}

	t.Run("Success: Local wipe ends the session", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.setup(t, true)

		w := srv.do(http.MethodPost, "/api/v1/settings/clear", token, map[string]string{"target": "local", "pin": "1234"})
		require.Equal(t, http.StatusNoContent, w.Code)

		w = srv.do(http.MethodGet, "/api/v1/dashboard", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = srv.do(http.MethodGet, "/api/v1/setup", "", nil)
		assert.Equal(t, false, decode(t, w)["setupCompleted"])
	})
}

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/linkquota/internal/api"
	"github.com/axellelanca/linkquota/internal/app"
	"github.com/axellelanca/linkquota/internal/config"
	"github.com/axellelanca/linkquota/internal/models"
	"github.com/axellelanca/linkquota/internal/store"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.BaseURL = "http://sho.rt"
	cfg.Database.Name = filepath.Join(t.TempDir(), "api.db")

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func do(t *testing.T, a *app.App, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func registerUser(t *testing.T, a *app.App) models.UserProfile {
	t.Helper()
	rec := do(t, a, http.MethodPost, "/api/v1/users", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[models.UserProfile](t, rec)
}

func createLink(t *testing.T, a *app.App, userID, longURL string) api.LinkResponse {
	t.Helper()
	rec := do(t, a, http.MethodPost, "/api/v1/users/"+userID+"/links", gin.H{"long_url": longURL})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.LinkResponse](t, rec)
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLinkLifecycleOverHTTP(t *testing.T) {
	a := newTestApp(t)
	user := registerUser(t, a)
	assert.Equal(t, a.Cfg.Links.DefaultClicks, user.DefaultMaxClicks)

	rec := do(t, a, http.MethodPut, "/api/v1/users/"+user.ID+"/settings", gin.H{"max_clicks": 2, "ttl_hours": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	link := createLink(t, a, user.ID, "https://example.com/docs")
	assert.Equal(t, 2, link.MaxClicks)
	assert.Equal(t, "http://sho.rt/"+link.ShortCode, link.FullShortURL)
	assert.True(t, link.Active)
	assert.Equal(t, time.Hour, link.ExpiresAt.Sub(link.CreatedAt))

	for i := 0; i < 2; i++ {
		rec = do(t, a, http.MethodGet, "/"+link.ShortCode, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://example.com/docs", rec.Header().Get("Location"))
	}

	rec = do(t, a, http.MethodGet, "/"+link.ShortCode, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "quota_exceeded", decode[errorBody](t, rec).Kind)

	rec = do(t, a, http.MethodGet, "/api/v1/links/"+link.ShortCode+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[api.LinkResponse](t, rec)
	assert.Equal(t, 2, stats.ClickCount)
	assert.False(t, stats.Active)
	assert.Zero(t, stats.RemainingClicks)

	rec = do(t, a, http.MethodGet, "/api/v1/users/"+user.ID+"/links", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Links []api.LinkResponse `json:"links"`
		Count int                `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Links, 1)
	assert.Equal(t, link.ShortCode, list.Links[0].ShortCode)
	assert.False(t, list.Links[0].Active, "exhausted link stays listed but inactive")
	assert.Equal(t, 2, list.Links[0].ClickCount)
}

func TestDeleteLinkChecksOwner(t *testing.T) {
	a := newTestApp(t)
	alice := registerUser(t, a)
	bob := registerUser(t, a)
	link := createLink(t, a, alice.ID, "https://example.com")

	rec := do(t, a, http.MethodDelete, "/api/v1/users/"+bob.ID+"/links/"+link.ShortCode, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access_denied", decode[errorBody](t, rec).Kind)

	rec = do(t, a, http.MethodDelete, "/api/v1/users/"+alice.ID+"/links/"+link.ShortCode, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, a, http.MethodDelete, "/api/v1/users/"+alice.ID+"/links/"+link.ShortCode, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, a, http.MethodGet, "/"+link.ShortCode, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpiredLinkIsGoneThenNotFound(t *testing.T) {
	a := newTestApp(t)
	user := registerUser(t, a)
	link := createLink(t, a, user.ID, "https://example.com")
	backdate(t, a, link.ShortCode)

	rec := do(t, a, http.MethodGet, "/"+link.ShortCode, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "expired", decode[errorBody](t, rec).Kind)

	rec = do(t, a, http.MethodGet, "/"+link.ShortCode, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSweepEndpoint(t *testing.T) {
	a := newTestApp(t)
	user := registerUser(t, a)
	expired := createLink(t, a, user.ID, "https://example.com/old")
	fresh := createLink(t, a, user.ID, "https://example.com/new")
	backdate(t, a, expired.ShortCode)

	rec := do(t, a, http.MethodPost, "/api/v1/admin/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":1}`, rec.Body.String())

	assert.False(t, a.Links.CodeExists(expired.ShortCode))
	assert.True(t, a.Links.CodeExists(fresh.ShortCode))
}

func TestQRCode(t *testing.T) {
	a := newTestApp(t)
	user := registerUser(t, a)
	link := createLink(t, a, user.ID, "https://example.com")

	rec := do(t, a, http.MethodGet, "/api/v1/links/"+link.ShortCode+"/qrcode", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(t, a, http.MethodGet, "/api/v1/links/nope/qrcode", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	a := newTestApp(t)
	user := registerUser(t, a)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"relative url", http.MethodPost, "/api/v1/users/" + user.ID + "/links", gin.H{"long_url": "/just/a/path"}, http.StatusBadRequest},
		{"ftp url", http.MethodPost, "/api/v1/users/" + user.ID + "/links", gin.H{"long_url": "ftp://example.com"}, http.StatusBadRequest},
		{"missing url", http.MethodPost, "/api/v1/users/" + user.ID + "/links", gin.H{}, http.StatusBadRequest},
		{"unknown owner", http.MethodPost, "/api/v1/users/" + uuid.NewString() + "/links", gin.H{"long_url": "https://example.com"}, http.StatusBadRequest},
		{"quota above max", http.MethodPut, "/api/v1/users/" + user.ID + "/settings", gin.H{"max_clicks": 5000, "ttl_hours": 1}, http.StatusBadRequest},
		{"negative ttl", http.MethodPut, "/api/v1/users/" + user.ID + "/settings", gin.H{"max_clicks": 5, "ttl_hours": -1}, http.StatusBadRequest},
		{"malformed user id", http.MethodGet, "/api/v1/users/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown user", http.MethodGet, "/api/v1/users/" + uuid.NewString(), nil, http.StatusNotFound},
		{"list for unknown user", http.MethodGet, "/api/v1/users/" + uuid.NewString() + "/links", nil, http.StatusNotFound},
		{"stats for unknown code", http.MethodGet, "/api/v1/links/zzzzzz/stats", nil, http.StatusNotFound},
		{"redirect unknown code", http.MethodGet, "/zzzzzz", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, a, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

// backdate moves the link's expiry into the past.
func backdate(t *testing.T, a *app.App, code string) {
	t.Helper()
	err := a.Links.Modify(context.Background(), code, func(l *models.Link) (store.Action, error) {
		l.ExpiresAt = time.Now().Add(-time.Minute)
		return store.Save, nil
	})
	require.NoError(t, err)
}

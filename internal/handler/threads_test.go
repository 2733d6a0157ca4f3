package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodylabs/platform/internal/model"
)

func doRequest(t *testing.T, env *testEnv, method, path, userID, role string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Test-User", userID)
	req.Header.Set("X-Test-Role", role)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func resolveThread(t *testing.T, env *testEnv, userID, role string) model.Thread {
	t.Helper()

	rec := doRequest(t, env, http.MethodPost, "/api/v1/chat/threads/resolve", userID, role, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var thread model.Thread
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
	return thread
}

func TestResolveClientThreadEndpoint(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()

	thread := resolveThread(t, env, "client-1", "client")
	assert.False(t, thread.IsGroup)
	assert.True(t, thread.HasParticipant("client-1"))
	assert.True(t, thread.HasParticipant("admin-1"))

	again := resolveThread(t, env, "client-1", "client")
	assert.Equal(t, thread.ID, again.ID)
}

func TestResolveAdminGroupThreadEndpoint(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()

	thread := resolveThread(t, env, "admin-1", "admin")
	assert.True(t, thread.IsGroup)
	assert.Equal(t, "Admin Team", thread.GroupName)
	assert.False(t, thread.HasParticipant("client-1"))
}

func TestResolveWithoutStaffConflicts(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.store.PutAccount(&model.Account{ID: "client-1", Name: "Cleo", Role: model.RoleClient})

	rec := doRequest(t, env, http.MethodPost, "/api/v1/chat/threads/resolve", "client-1", "client", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListThreads(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()
	resolveThread(t, env, "client-1", "client")

	rec := doRequest(t, env, http.MethodGet, "/api/v1/chat/threads", "admin-1", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListThreadsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	// A stranger sees nothing.
	rec = doRequest(t, env, http.MethodGet, "/api/v1/chat/threads", "client-2", "client", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
}

func TestAccountsEndpointIsStaffOnly(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()

	rec := doRequest(t, env, http.MethodGet, "/api/v1/accounts?role=admin", "client-1", "client", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, env, http.MethodGet, "/api/v1/accounts?role=admin", "admin-1", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListAccountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Amir Admin", resp.Accounts[0].Name)

	rec = doRequest(t, env, http.MethodGet, "/api/v1/accounts?role=wizard", "admin-1", "admin", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(&scriptedModel{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

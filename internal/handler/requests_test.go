package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodylabs/platform/internal/model"
)

const validRequestBody = `{
	"title": "New storefront",
	"description": "A storefront for handmade goods with checkout and order tracking",
	"features": "catalog, cart, payments, order history"
}`

func submitRequest(t *testing.T, env *testEnv, userID string) model.ProjectRequest {
	t.Helper()

	rec := doRequest(t, env, http.MethodPost, "/api/v1/requests", userID, "client", validRequestBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.ProjectRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func TestSubmitRequestEndpoint(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()

	created := submitRequest(t, env, "client-1")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, "client-1", created.UserID)
}

func TestSubmitRequestValidationFails(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()

	rec := doRequest(t, env, http.MethodPost, "/api/v1/requests", "client-1", "client",
		`{"title":"x","description":"y","features":"z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRequestsScoping(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()
	env.store.PutAccount(&model.Account{ID: "client-2", Name: "Nadia", Role: model.RoleClient})

	submitRequest(t, env, "client-1")
	submitRequest(t, env, "client-2")

	// Clients only see their own.
	rec := doRequest(t, env, http.MethodGet, "/api/v1/requests", "client-1", "client", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.ListRequestsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "client-1", resp.Requests[0].UserID)

	// ?all=1 is inert for clients.
	rec = doRequest(t, env, http.MethodGet, "/api/v1/requests?all=1", "client-1", "client", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	// Staff with ?all=1 see everything, joined with submitters.
	rec = doRequest(t, env, http.MethodGet, "/api/v1/requests?all=1", "admin-1", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	require.NotNil(t, resp.Requests[0].User)
}

func TestGetRequestVisibility(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()
	env.store.PutAccount(&model.Account{ID: "client-2", Name: "Nadia", Role: model.RoleClient})
	created := submitRequest(t, env, "client-1")

	path := "/api/v1/requests/" + created.ID

	rec := doRequest(t, env, http.MethodGet, path, "client-1", "client", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another client gets 404, not 403, so existence is not leaked.
	rec = doRequest(t, env, http.MethodGet, path, "client-2", "client", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, env, http.MethodGet, path, "admin-1", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var joined model.ProjectRequestWithUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &joined))
	require.NotNil(t, joined.User)
	assert.Equal(t, "Cleo Client", joined.User.Name)
}

func TestUpdateRequestStatus(t *testing.T) {
	env := newTestEnv(&scriptedModel{})
	env.seedAccounts()
	created := submitRequest(t, env, "client-1")

	path := fmt.Sprintf("/api/v1/requests/%s/status", created.ID)

	// Clients cannot review.
	rec := doRequest(t, env, http.MethodPut, path, "client-1", "client", `{"status":"approved"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, env, http.MethodPut, path, "admin-1", "admin", `{"status":"approved"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, env, http.MethodGet, "/api/v1/requests/"+created.ID, "admin-1", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.ProjectRequestWithUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.StatusApproved, got.Status)

	rec = doRequest(t, env, http.MethodPut, path, "admin-1", "admin", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, env, http.MethodPut,
		"/api/v1/requests/0190b6a1-0000-7000-8000-000000000000/status",
		"admin-1", "admin", `{"status":"approved"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

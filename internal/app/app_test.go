package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewflow/internal/api/handlers"
	"reviewflow/internal/api/middleware"
	"reviewflow/internal/app"
	"reviewflow/internal/config"
	"reviewflow/internal/domain"
)

const secret = "e2e-secret"

type client struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newClient(t *testing.T, server *httptest.Server, user *domain.User) *client {
	token, err := middleware.IssueToken(user, secret)
	require.NoError(t, err)
	return &client{t: t, server: server, token: token}
}

func (c *client) do(method, path string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+"/api/v1"+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func setup(t *testing.T) *httptest.Server {
	gin.SetMode(gin.TestMode)

	application, err := app.New(&config.Config{Storage: config.StorageMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	server := httptest.NewServer(handlers.NewHandler(application.Service, secret).InitRoutes())
	t.Cleanup(server.Close)
	return server
}

func groupCount(t *testing.T, c *client, name string) float64 {
	t.Helper()
	status, body := c.do(http.MethodGet, "/groups", nil)
	require.Equal(t, http.StatusOK, status)
	for _, raw := range body["groups"].([]interface{}) {
		g := raw.(map[string]interface{})
		if g["name"] == name {
			return g["incoming_request_count"].(float64)
		}
	}
	t.Fatalf("group %s not listed", name)
	return 0
}

func TestReviewRequestLifecycleOverHTTP(t *testing.T) {
	server := setup(t)

	admin := newClient(t, server, &domain.User{ID: 100, Username: "admin", Superuser: true})
	// права на редактирование выдаёт провайдер идентификации, владение их не даёт
	alice := newClient(t, server, &domain.User{
		ID:           1,
		Username:     "alice",
		Capabilities: []domain.Capability{domain.CapabilityEditReviewRequest},
	})
	bob := newClient(t, server, &domain.User{ID: 2, Username: "bob"})

	for _, u := range []map[string]interface{}{
		{"id": 100, "username": "admin"},
		{"id": 1, "username": "alice", "email": "alice@example.com"},
		{"id": 2, "username": "bob"},
	} {
		status, _ := admin.do(http.MethodPost, "/users", u)
		require.Equal(t, http.StatusOK, status)
	}

	status, body := admin.do(http.MethodPost, "/groups", map[string]interface{}{"name": "core"})
	require.Equal(t, http.StatusCreated, status)
	groupID := int64(body["group"].(map[string]interface{})["id"].(float64))

	status, _ = admin.do(http.MethodPost, fmt.Sprintf("/groups/%d/members", groupID), map[string]interface{}{"user_id": 2})
	require.Equal(t, http.StatusOK, status)

	// создание и публикация
	status, body = alice.do(http.MethodPost, "/review-requests", map[string]interface{}{})
	require.Equal(t, http.StatusCreated, status)
	rrID := int64(body["review_request"].(map[string]interface{})["internal_id"].(float64))
	rrPath := fmt.Sprintf("/review-requests/%d", rrID)

	status, _ = alice.do(http.MethodPatch, rrPath+"/draft", map[string]interface{}{
		"summary":       "Fix crash on empty diff",
		"description":   "Guard against nil files",
		"bugs_closed":   "12, 7",
		"target_groups": []string{"core"},
	})
	require.Equal(t, http.StatusOK, status)

	status, body = alice.do(http.MethodPost, rrPath+"/publish", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "changedescription")
	rr := body["review_request"].(map[string]interface{})
	assert.Equal(t, true, rr["public"])
	assert.Equal(t, []interface{}{"7", "12"}, rr["bugs_closed"])
	assert.Equal(t, float64(1), groupCount(t, admin, "core"))

	// ревью с ship it
	status, body = bob.do(http.MethodPost, rrPath+"/reviews", map[string]interface{}{
		"body_top": "Looks good",
		"ship_it":  true,
	})
	require.Equal(t, http.StatusCreated, status)
	reviewID := int64(body["review"].(map[string]interface{})["id"].(float64))

	status, _ = bob.do(http.MethodPost, fmt.Sprintf("/reviews/%d/publish", reviewID), nil)
	require.Equal(t, http.StatusOK, status)

	status, body = bob.do(http.MethodGet, rrPath, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["review_request"].(map[string]interface{})["shipit_count"])

	status, body = bob.do(http.MethodGet, rrPath+"/participants", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["participants"])

	// закрытие и повторное открытие
	status, body = alice.do(http.MethodPost, rrPath+"/close", map[string]interface{}{"type": "submitted"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "submitted", body["review_request"].(map[string]interface{})["status"])
	assert.Equal(t, float64(0), groupCount(t, admin, "core"))

	status, body = alice.do(http.MethodPost, rrPath+"/reopen", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pending", body["review_request"].(map[string]interface{})["status"])
	assert.Equal(t, float64(1), groupCount(t, admin, "core"))

	// чужой пользователь без прав не может закрыть
	status, _ = bob.do(http.MethodPost, rrPath+"/close", map[string]interface{}{"type": "discarded"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRegisterUser_OnlySelfWithoutSuperuser(t *testing.T) {
	server := setup(t)
	alice := newClient(t, server, &domain.User{ID: 1, Username: "alice"})

	status, _ := alice.do(http.MethodPost, "/users", map[string]interface{}{"id": 2, "username": "bob"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = alice.do(http.MethodPost, "/users", map[string]interface{}{"id": 1, "username": "alice"})
	assert.Equal(t, http.StatusOK, status)
}

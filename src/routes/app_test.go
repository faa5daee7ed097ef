package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/observability"
	"github.com/theleywin/talentnest-connections/src/services"
	"github.com/theleywin/talentnest-connections/src/store"
)

const testSecret = "test-secret"

type captureMailer struct {
	mu  sync.Mutex
	to  []string
	url []string
}

func (m *captureMailer) SendConnectionAccepted(_ context.Context, to, _, _, profileURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.url = append(m.url, profileURL)
	return nil
}

type testEnv struct {
	app        *fiber.App
	st         *store.MemoryStore
	dispatcher *services.Dispatcher
	mailer     *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	mailer := &captureMailer{}
	dispatcher := services.NewDispatcher(st, mailer, nil, services.LogSink{Metrics: metrics},
		services.DispatcherConfig{ClientURL: "http://localhost:5173"})

	app := NewApp(Deps{
		Store:         st,
		Connections:   services.NewConnectionService(st, dispatcher, metrics, services.Options{}),
		Notifications: services.NewNotificationService(st),
		Users:         services.NewUserService(st),
		JWTSecret:     testSecret,
		Gatherer:      reg,
	})
	return &testEnv{app: app, st: st, dispatcher: dispatcher, mailer: mailer}
}

func (e *testEnv) user(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	u := &models.User{Name: username + " name", Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, e.st.InsertUser(context.Background(), u))
	token, err := lib.GenerateJWT(u.Id, testSecret)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decodeInto[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

type requestEnvelope struct {
	Message string `json:"message"`
	Request struct {
		ID     string `json:"_id"`
		Status string `json:"status"`
	} `json:"request"`
}

func TestConnectionFlow(t *testing.T) {
	env := newTestEnv(t)
	a, tokenA := env.user(t, "alice")
	b, tokenB := env.user(t, "bob")

	status, body := env.do(t, http.MethodPost, "/api/v1/connections/request/"+b.Id.Hex(), tokenA)
	require.Equal(t, http.StatusCreated, status, string(body))
	sent := decodeInto[requestEnvelope](t, body)
	assert.Equal(t, "pending", sent.Request.Status)

	status, body = env.do(t, http.MethodGet, "/api/v1/connections/requests", tokenB)
	require.Equal(t, http.StatusOK, status)
	pending := decodeInto[[]models.PendingRequest](t, body)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Sender)
	assert.Equal(t, "alice", pending[0].Sender.Username)

	status, body = env.do(t, http.MethodGet, "/api/v1/connections/status/"+a.Id.Hex(), tokenB)
	require.Equal(t, http.StatusOK, status)
	received := decodeInto[map[string]any](t, body)
	assert.Equal(t, "received", received["status"])
	assert.Equal(t, sent.Request.ID, received["requestId"])

	status, body = env.do(t, http.MethodPut, "/api/v1/connections/accept/"+sent.Request.ID, tokenB)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "accepted", decodeInto[requestEnvelope](t, body).Request.Status)

	env.dispatcher.Wait()

	status, body = env.do(t, http.MethodGet, "/api/v1/connections/status/"+b.Id.Hex(), tokenA)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "connected"}, decodeInto[map[string]any](t, body))

	status, body = env.do(t, http.MethodGet, "/api/v1/connections", tokenB)
	require.Equal(t, http.StatusOK, status)
	connections := decodeInto[[]models.UserDto](t, body)
	require.Len(t, connections, 1)
	assert.Equal(t, a.Id, connections[0].ID)

	status, body = env.do(t, http.MethodGet, "/api/v1/notifications", tokenA)
	require.Equal(t, http.StatusOK, status)
	notifications := decodeInto[[]models.NotificationView](t, body)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeConnectionAccepted, notifications[0].Type)
	require.NotNil(t, notifications[0].RelatedUserProfile)
	assert.Equal(t, "bob", notifications[0].RelatedUserProfile.Username)

	assert.Equal(t, []string{"alice@example.com"}, env.mailer.to)
	assert.Equal(t, []string{"http://localhost:5173/profile/bob"}, env.mailer.url)

	status, _ = env.do(t, http.MethodPut, "/api/v1/connections/accept/"+sent.Request.ID, tokenB)
	assert.Equal(t, http.StatusNotFound, status, "already accepted")

	status, _ = env.do(t, http.MethodDelete, "/api/v1/connections/"+a.Id.Hex(), tokenB)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/v1/connections/status/"+b.Id.Hex(), tokenA)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "not_connected", decodeInto[map[string]any](t, body)["status"])
}

func TestRejectResponses(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.user(t, "a")
	b, tokenB := env.user(t, "b")
	_, tokenC := env.user(t, "c")

	status, body := env.do(t, http.MethodPost, "/api/v1/connections/request/"+b.Id.Hex(), tokenA)
	require.Equal(t, http.StatusCreated, status)
	requestID := decodeInto[requestEnvelope](t, body).Request.ID

	status, _ = env.do(t, http.MethodPut, "/api/v1/connections/reject/"+requestID, tokenC)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodPut, "/api/v1/connections/reject/"+requestID, tokenB)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rejected", decodeInto[requestEnvelope](t, body).Request.Status)

	status, body = env.do(t, http.MethodPut, "/api/v1/connections/reject/"+requestID, tokenB)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "This request has already been processed", decodeInto[map[string]any](t, body)["message"])

	status, _ = env.do(t, http.MethodPut, "/api/v1/connections/reject/"+b.Id.Hex(), tokenB)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMalformedIDsAndAuth(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "a")

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/connections/request/xyz"},
		{http.MethodPut, "/api/v1/connections/accept/xyz"},
		{http.MethodPut, "/api/v1/connections/reject/xyz"},
		{http.MethodDelete, "/api/v1/connections/xyz"},
		{http.MethodGet, "/api/v1/connections/status/xyz"},
		{http.MethodPut, "/api/v1/notifications/xyz/read"},
	}
	for _, tc := range cases {
		status, body := env.do(t, tc.method, tc.path, token)
		assert.Equal(t, http.StatusBadRequest, status, tc.path)
		assert.NotEmpty(t, decodeInto[map[string]any](t, body)["message"])
	}

	status, _ := env.do(t, http.MethodGet, "/api/v1/connections", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "ada")
	env.user(t, "grace")

	status, body := env.do(t, http.MethodGet, "/api/v1/users/suggestions", token)
	require.Equal(t, http.StatusOK, status)
	suggestions := decodeInto[[]models.UserDto](t, body)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "grace", suggestions[0].Username)

	status, body = env.do(t, http.MethodGet, "/api/v1/users/grace", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "grace", decodeInto[map[string]any](t, body)["username"])

	status, _ = env.do(t, http.MethodGet, "/api/v1/users/nobody", token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.user(t, "a")
	b, _ := env.user(t, "b")

	status, _ := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/connections/request/"+b.Id.Hex(), tokenA)
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `talentnest_connections_transitions_total{event="sent"} 1`)
}

func TestHealth_DatabaseDown(t *testing.T) {
	st := store.NewMemoryStore()
	app := NewApp(Deps{
		Store:         st,
		Connections:   services.NewConnectionService(st, services.NewDispatcher(st, nil, nil, services.LogSink{}, services.DispatcherConfig{}), nil, services.Options{}),
		Notifications: services.NewNotificationService(st),
		Users:         services.NewUserService(st),
		JWTSecret:     testSecret,
		Ping:          func(context.Context) error { return assert.AnError },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

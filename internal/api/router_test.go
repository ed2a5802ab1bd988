package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap/internal/api/handlers"
	"honeytrap/internal/config"
	"honeytrap/internal/domain/models"
	"honeytrap/internal/domain/services"
	"honeytrap/pkg/logger"
)

const testAPIKey = "secret-key"

type panickingTurns struct{}

func (panickingTurns) HandleTurn(context.Context, *models.IncomingRequest) (models.AgentReply, error) {
	panic("responder exploded")
}

type staticReadiness map[string]error

func (s staticReadiness) Results(context.Context) map[string]error { return s }

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		},
		Auth: config.AuthConfig{APIKey: testAPIKey},
	}
}

func newTestServer(t *testing.T, deps handlers.Dependencies) *httptest.Server {
	t.Helper()
	log := logger.NewNop()
	if deps.Turns == nil {
		svc := services.NewHoneypotService(services.HoneypotDeps{}, log)
		deps.Turns = svc
		deps.Sessions = svc
	}
	deps.Logger = log
	router := NewRouter(testConfig(), handlers.NewHandlers(deps), nil, log)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string, header map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestRouter_Root(t *testing.T) {
	srv := newTestServer(t, handlers.Dependencies{})

	resp, body := do(t, http.MethodGet, srv.URL+"/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "Honeytrap", body["service"])

	resp, body = do(t, http.MethodGet, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_Ready(t *testing.T) {
	srv := newTestServer(t, handlers.Dependencies{
		Readiness: staticReadiness{"redis": errors.New("connection refused")},
	})

	resp, body := do(t, http.MethodGet, srv.URL+"/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "not ready", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks["redis"], "connection refused")
}

func TestRouter_HoneypotTurnAndSessionAPI(t *testing.T) {
	srv := newTestServer(t, handlers.Dependencies{})
	auth := map[string]string{"X-API-Key": testAPIKey}

	turn := `{
		"sessionId": "router-1",
		"message": {"sender": "scammer", "text": "Pay to Rahul.Sharma@okaxis immediately"},
		"conversationHistory": []
	}`
	resp, body := do(t, http.MethodPost, srv.URL+"/honeypot", turn, auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["reply"])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/sessions/router-1/intelligence", "", auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "router-1", body["sessionId"])
	rec := body["intelligence"].(map[string]any)
	assert.Equal(t, []any{"rahul.sharma@okaxis"}, rec["upiIds"])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/sessions/router-1/report", "", auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["scamDetected"])
	assert.Equal(t, "upi_fraud", body["scamType"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/sessions/unknown/report", "", auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_HoneypotSoftAuth(t *testing.T) {
	srv := newTestServer(t, handlers.Dependencies{})

	for _, path := range []string{"/", "/honeypot"} {
		resp, body := do(t, http.MethodPost, srv.URL+path,
			`{"sessionId":"soft","message":"hello"}`,
			map[string]string{"X-API-Key": "wrong"})
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "success", body["status"], path)
	}
}

func TestRouter_HoneypotFallbacks(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(t, handlers.Dependencies{})
		resp, body := do(t, http.MethodPost, srv.URL+"/honeypot", `{"sessionId":`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, services.TurnFailedReply, body["reply"])
	})

	t.Run("panic", func(t *testing.T) {
		srv := newTestServer(t, handlers.Dependencies{Turns: panickingTurns{}})
		resp, body := do(t, http.MethodPost, srv.URL+"/honeypot", `{"message":"hi"}`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, services.TurnFailedReply, body["reply"])
	})
}

func TestRouter_APIRequiresKey(t *testing.T) {
	srv := newTestServer(t, handlers.Dependencies{})

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/extract", `{"text":"call 9876543210"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing API key", body["error"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/extract", `{"text":"call 9876543210"}`,
		map[string]string{"X-API-Key": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_ExtractAndMerge(t *testing.T) {
	srv := newTestServer(t, handlers.Dependencies{})
	auth := map[string]string{"X-API-Key": testAPIKey}

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/extract", `{"text":"Write to fraud.desk@gmail.com today"}`, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"fraud.desk@gmail.com"}, body["emails"])
	assert.Equal(t, []any{}, body["upiIds"])

	resp, body = do(t, http.MethodPost, srv.URL+"/api/v1/merge", `{
		"aggregate": {"emails": ["a@example.com"], "upiIds": ["x@ybl"]},
		"record": {"emails": ["a@example.com", "b@example.com"]}
	}`, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"a@example.com", "b@example.com"}, body["emails"])
	assert.Equal(t, []any{"x@ybl"}, body["upiIds"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/merge", `{"aggregate": 3}`, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

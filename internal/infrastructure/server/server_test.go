package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudeditor/hudstore/internal/adapters/repository"
	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/config"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
	"github.com/hudeditor/hudstore/internal/ports"
)

const indexPage = "<!DOCTYPE html><html><head><title>HUD Editor</title></head><body></body></html>"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexPage), 0o644))

	return &config.Config{
		App:    config.AppConfig{Name: "hudstore", Version: "test", Environment: "test"},
		Server: config.ServerConfig{Port: 8080, Host: "127.0.0.1", HandlerTimeout: 5 * time.Second, BodyLimit: "1K"},
		Static: config.StaticConfig{Dir: dir, Index: "index.html"},
		Storage: config.StorageConfig{
			Backend: "memory",
		},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, repo ports.DocumentRepository) *Server {
	t.Helper()
	if repo == nil {
		repo = repository.NewMemoryRepository()
	}
	srv, err := New(cfg, repo, NewRegistry(), logger.NewNop())
	require.NoError(t, err)
	return srv
}

func request(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestEditorWorkflow(t *testing.T) {
	srv := newTestServer(t, testConfig(t), nil)

	rec := request(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, indexPage, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")

	rec = request(srv, http.MethodGet, "/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = request(srv, http.MethodPost, "/save", `{"x":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = request(srv, http.MethodGet, "/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"x":1}`, rec.Body.String())
}

func TestErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, testConfig(t), nil)

	rec := request(srv, http.MethodPost, "/save", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, entities.ErrInvalidDocument.Error(), body["error"])
	assert.Equal(t, float64(http.StatusBadRequest), body["code"])
	assert.NotEmpty(t, body["request_id"])
	assert.Equal(t, body["request_id"], rec.Header().Get(echo.HeaderXRequestID))
}

func TestBodyLimit(t *testing.T) {
	srv := newTestServer(t, testConfig(t), nil)

	large := `{"data":"` + strings.Repeat("a", 2048) + `"}`
	rec := request(srv, http.MethodPost, "/save", large)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = request(srv, http.MethodGet, "/load", "")
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, testConfig(t), nil)

	rec := request(srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(http.StatusNotFound), decodeError(t, rec)["code"])
}

type brokenRepository struct{}

func (brokenRepository) Save(context.Context, entities.Slot, []byte) error {
	return errors.New("read-only file system")
}

func (brokenRepository) Load(context.Context, entities.Slot) ([]byte, error) {
	return nil, errors.New("read-only file system")
}

func (brokenRepository) Ping(context.Context) error { return errors.New("unreachable") }

func (brokenRepository) Close() error { return nil }

func TestHealthChecks(t *testing.T) {
	srv := newTestServer(t, testConfig(t), nil)

	rec := request(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = request(srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)

	rec = request(srv, http.MethodGet, "/health/detailed", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"memory"`)
}

func TestStorageFailures(t *testing.T) {
	srv := newTestServer(t, testConfig(t), brokenRepository{})

	rec := request(srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"not_ready"`)

	rec = request(srv, http.MethodGet, "/health/detailed", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = request(srv, http.MethodPost, "/save", `{"x":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "read-only", "internal details stay in the logs")

	rec = request(srv, http.MethodGet, "/load", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(t), nil)

	require.Equal(t, http.StatusOK, request(srv, http.MethodPost, "/save", `{}`).Code)

	rec := request(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="POST",path="/save",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	srv := newTestServer(t, cfg, nil)

	rec := request(srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimitEnabled = true
	cfg.Security.RateLimitRequests = 2
	cfg.Security.RateLimitWindow = time.Minute
	srv := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, request(srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, request(srv, http.MethodGet, "/health", "").Code)

	rec := request(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decodeError(t, rec)["error"])
}

func TestSwaggerDoc(t *testing.T) {
	srv := newTestServer(t, testConfig(t), nil)

	rec := request(srv, http.MethodGet, "/docs/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/save"`)
	assert.Contains(t, rec.Body.String(), `"/load"`)
}

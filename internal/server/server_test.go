package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgate/fsgate/internal/infrastructure/config"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Sandbox.Root = t.TempDir()
	cfg.RateLimit.Enabled = false

	s, err := New(cfg)
	require.NoError(t, err)
	return s, cfg.Sandbox.Root
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRootAndHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fsgate", decodeBody(t, w)["service"])

	w = doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestListServices(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, w.Code)

	services := decodeBody(t, w)["services"].([]interface{})
	require.Len(t, services, 1)
	def := services[0].(map[string]interface{})
	assert.Equal(t, "filesystem", def["id"])

	w = doJSON(t, s, http.MethodGet, "/services?category=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteWriteThenRead(t *testing.T) {
	s, root := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id": "filesystem.write",
		"params": map[string]interface{}{
			"path":    "note.txt",
			"content": "hello over http",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	require.Equal(t, true, body["success"], w.Body.String())

	got, err := os.ReadFile(filepath.Join(root, "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello over http", string(got))

	w = doJSON(t, s, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id": "filesystem.read",
		"params":  map[string]interface{}{"path": "note.txt"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["has_more"])
	assert.Equal(t, []interface{}{"hello over http"}, data["lines"])
}

func TestExecuteValidation(t *testing.T) {
	s, _ := newTestServer(t)

	// Missing params entirely.
	w := doJSON(t, s, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id": "filesystem.read",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown service.
	w = doJSON(t, s, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id": "ghost.read",
		"params":  map[string]interface{}{},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	// Generate some traffic first.
	doJSON(t, s, http.MethodGet, "/health", nil)

	w := doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fsgate_")
}

func TestRequestIDEchoedOnExecute(t *testing.T) {
	s, _ := newTestServer(t)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]interface{}{
		"tool_id": "filesystem.exists",
		"params":  map[string]interface{}{"path": "x"},
	}))
	req := httptest.NewRequest(http.MethodPost, "/services/execute", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "trace-me")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, "trace-me", w.Header().Get("X-Request-ID"))
}

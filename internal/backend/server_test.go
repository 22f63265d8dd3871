package backend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postCall(t *testing.T, h http.Handler, path, body string) (int, callResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp callResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestRouterDispatch(t *testing.T) {
	mock := NewMockService(64)
	router := NewRouter(mock, ServerConfig{Plugin: "ttl"})

	code, resp := postCall(t, router, "/plugins/ttl/methods/set_ttl_custom", `{"args":[90]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, "true", string(resp.Result))
	assert.Equal(t, 90, mock.TTL())

	code, resp = postCall(t, router, "/plugins/ttl/methods/get_persistent_ttl", `{"args":[]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"is_persistent": false, "ttl_value": null}`, string(resp.Result))
}

func TestRouterRejectsBadCalls(t *testing.T) {
	router := NewRouter(NewMockService(64), ServerConfig{Plugin: "ttl"})

	_, resp := postCall(t, router, "/plugins/ttl/methods/set_ttl_custom", `{"args":[]}`)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "takes 1 positional arguments but 0 were given")

	_, resp = postCall(t, router, "/plugins/ttl/methods/make_ttl_persistent", `{"args":["65"]}`)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "must be an integer")

	_, resp = postCall(t, router, "/plugins/ttl/methods/format_disk", `{"args":[]}`)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown procedure")

	code, _ := postCall(t, router, "/plugins/ttl/methods/get_current_ttl", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = postCall(t, router, "/plugins/other/methods/get_current_ttl", `{"args":[]}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouterHealth(t *testing.T) {
	router := NewRouter(NewMockService(64), ServerConfig{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

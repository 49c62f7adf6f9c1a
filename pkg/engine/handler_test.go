package engine

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmock/textmock/internal/registry"
)

func newTestHandler(t *testing.T, src string) *Handler {
	t.Helper()
	reg, err := Load("test.mock", src)
	require.NoError(t, err)
	return NewHandler(registry.NewHolder(reg))
}

func TestHandlerServesMock(t *testing.T) {
	src := strings.Join([]string{
		"GET /hello",
		"HTTP 200",
		"Content-Type: application/json",
		"`{\"message\": \"world\"}`",
		"",
	}, "\n")
	h := newTestHandler(t, src)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message": "world"}`, rec.Body.String())
}

func TestHandlerNoMatchIs404(t *testing.T) {
	h := newTestHandler(t, "GET /hello\nHTTP 200\n")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no mock matched GET /nope\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hello", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPathCapture(t *testing.T) {
	src := "GET /users/{id}\nHTTP 200\n`user {{id}}`\n"
	h := newTestHandler(t, src)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 42", rec.Body.String())
}

func TestHandlerHeaderCaptureAndEcho(t *testing.T) {
	src := strings.Join([]string{
		"GET /trace",
		"X-Request-Id: {{rid}}",
		"HTTP 200",
		"X-Echo: {{rid}}",
		"",
	}, "\n")
	h := newTestHandler(t, src)

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Echo"))

	// Without the header the predicate fails and nothing matches.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trace", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerHeaderPredicate(t *testing.T) {
	src := strings.Join([]string{
		"GET /v2",
		"Accept: application/json",
		"HTTP 200",
		"`json`",
		"",
		"GET /v2",
		"HTTP 200",
		"`fallback`",
		"",
	}, "\n")
	h := newTestHandler(t, src)

	req := httptest.NewRequest(http.MethodGet, "/v2", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "json", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2", nil))
	assert.Equal(t, "fallback", rec.Body.String())
}

func TestHandlerAssertsOnBody(t *testing.T) {
	src := strings.Join([]string{
		"POST /orders",
		"[Asserts]",
		`jsonpath "$.sku" == "ABC"`,
		"HTTP 201",
		"`created`",
		"",
	}, "\n")
	h := newTestHandler(t, src)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"sku": "ABC"}`))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"sku": "XYZ"}`))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerQueryAssert(t *testing.T) {
	src := "GET /search\n[Asserts]\nqueryparam \"q\" exists\nHTTP 200\n`found`\n"
	h := newTestHandler(t, src)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=go", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerFirstDefinedWins(t *testing.T) {
	src := strings.Join([]string{
		"GET /users/{id}",
		"HTTP 200",
		"`generic`",
		"",
		"GET /users/42",
		"HTTP 200",
		"`specific`",
		"",
	}, "\n")
	h := newTestHandler(t, src)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	assert.Equal(t, "generic", rec.Body.String())
}

func TestHandlerHealth(t *testing.T) {
	h := newTestHandler(t, "GET /a\nHTTP 200\n")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "definitions": 1}`, rec.Body.String())
}

func TestHandlerHealthShadowsMocks(t *testing.T) {
	// A mock on the reserved path never wins over the health endpoint.
	h := newTestHandler(t, "GET /__textmock/health\nHTTP 500\n")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerReloadSwapsRegistry(t *testing.T) {
	first, err := Load("t", "GET /a\nHTTP 200\n`one`\n")
	require.NoError(t, err)
	holder := registry.NewHolder(first)
	h := NewHandler(holder)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))
	assert.Equal(t, "one", rec.Body.String())

	second, err := Load("t", "GET /a\nHTTP 200\n`two`\n")
	require.NoError(t, err)
	holder.Swap(second)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))
	assert.Equal(t, "two", rec.Body.String())
}

func TestHandlerRegisterBuiltin(t *testing.T) {
	h := newTestHandler(t, "GET /a\nHTTP 200\n`v={{uuid}}`\n")
	h.RegisterBuiltin("uuid", func() string { return "fixed" })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))
	assert.Equal(t, "v=fixed", rec.Body.String())
}

func TestHandlerEmptyBodyStatusOnly(t *testing.T) {
	h := newTestHandler(t, "DELETE /users/{id}\nHTTP 204\n")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/42", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

package controller

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h *Handler) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.JSONSerializer = goJSONSerializer{}
	h.RegisterRoutes(e)
	return e
}

func get(t *testing.T, e *echo.Echo, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func loadedHandler(t *testing.T) *Handler {
	t.Helper()
	captureLogs(t)
	input := writeLog(t, "ss.log", sampleLog)
	res, err := NewParseController(testConfig(), nil).Parse(context.Background(), input)
	require.NoError(t, err)
	return NewHandler(res)
}

func TestHandlerLoading(t *testing.T) {
	e := newTestServer(t, NewHandler(nil))
	for _, path := range []string{"/api/summary", "/api/columns", "/api/rows", "/api/failures"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(t, e, path, nil), path)
	}
}

func TestHandlerSummaryAndColumns(t *testing.T) {
	e := newTestServer(t, loadedHandler(t))

	var sum Summary
	require.Equal(t, http.StatusOK, get(t, e, "/api/summary", &sum))
	assert.Equal(t, 3, sum.Parsed)
	assert.Equal(t, 1, sum.Failed)

	var cols []string
	require.Equal(t, http.StatusOK, get(t, e, "/api/columns", &cols))
	assert.Equal(t, "cwnd", cols[0])
	assert.Equal(t, "timestamp", cols[len(cols)-1])
}

func TestHandlerRowsPagination(t *testing.T) {
	e := newTestServer(t, loadedHandler(t))

	var page struct {
		Data   []map[string]any `json:"data"`
		Total  int              `json:"total"`
		Limit  int              `json:"limit"`
		Offset int              `json:"offset"`
	}
	require.Equal(t, http.StatusOK, get(t, e, "/api/rows?limit=1&offset=1", &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "ESTAB", page.Data[0]["state"])
	assert.Equal(t, 12.5, page.Data[0]["nested_bw"])
	_, hasCwnd := page.Data[0]["cwnd"]
	assert.False(t, hasCwnd)

	require.Equal(t, http.StatusOK, get(t, e, "/api/rows?offset=10", &page))
	assert.Empty(t, page.Data)
	assert.Equal(t, 100, page.Limit)
}

func TestHandlerFailures(t *testing.T) {
	e := newTestServer(t, loadedHandler(t))

	var failures []struct {
		Line  int    `json:"line"`
		Cause string `json:"cause"`
	}
	require.Equal(t, http.StatusOK, get(t, e, "/api/failures", &failures))
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Line)
	assert.Equal(t, "missing timestamp", failures[0].Cause)
}

func TestServeControllerLoadAndMetrics(t *testing.T) {
	captureLogs(t)
	input := writeLog(t, "ss.log", sampleLog)

	sc := NewServeController(testConfig(), input)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, sc.Echo(), "/api/summary", nil))

	require.NoError(t, sc.Load(context.Background()))

	var sum Summary
	require.Equal(t, http.StatusOK, get(t, sc.Echo(), "/api/summary", &sum))
	assert.Equal(t, 3, sum.Parsed)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	sc.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "sstab_lines_parsed_total 3"))
}

func TestHandlerRowsHugeLimit(t *testing.T) {
	e := newTestServer(t, loadedHandler(t))

	var page struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
		Limit int              `json:"limit"`
	}
	require.Equal(t, http.StatusOK, get(t, e, "/api/rows?limit=9223372036854775807&offset=1", &page))
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, math.MaxInt, page.Limit)
}

func TestHandlerReportsLoadFailure(t *testing.T) {
	h := NewHandler(nil)
	h.SetError(errors.New("open input ss.log: no such file"))
	e := newTestServer(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "failed", body["status"])
	assert.Contains(t, body["error"], "no such file")
}

func TestServeControllerLoadFailure(t *testing.T) {
	captureLogs(t)
	sc := NewServeController(testConfig(), filepath.Join(t.TempDir(), "missing.log"))

	require.Error(t, sc.Load(context.Background()))
	for _, path := range []string{"/api/summary", "/api/rows", "/api/failures"} {
		assert.Equal(t, http.StatusInternalServerError, get(t, sc.Echo(), path, nil), path)
	}
}

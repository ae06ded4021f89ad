package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/treecover-lookup-service/internal/adapter/http"
	"github.com/couchcryptid/treecover-lookup-service/internal/lookup"
	"github.com/couchcryptid/treecover-lookup-service/internal/observability"
	"github.com/couchcryptid/treecover-lookup-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = `{
	"mugla|fethiye": {"province_name":"Muğla","district_name":"Fethiye","has_treecover_data":true,"treecover_pct":40.5,"annual_trees_needed_capped":1500,"trees_needed_feasible":15000},
	"mugla|ula":     {"province_name":"Muğla","district_name":"Ula","has_treecover_data":true,"treecover_pct":55.0,"annual_trees_needed_capped":0},
	"igdir|merkez":  {"province_name":"Iğdır","district_name":"Merkez","has_treecover_data":false,"treecover_pct":null}
}`

type staticSource struct {
	payload string
	err     error
}

func (s staticSource) Fetch(context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.payload), nil
}

func (s staticSource) Describe() string { return "static" }

type mockReloader struct {
	allow    bool
	triggers []pipeline.Trigger
}

func (m *mockReloader) Request(trigger pipeline.Trigger) bool {
	m.triggers = append(m.triggers, trigger)
	return m.allow
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, src lookup.Source, load bool) *lookup.Service {
	t.Helper()
	svc := lookup.NewService(src, discardLogger(), observability.NewMetricsForTesting())
	if load {
		_, err := svc.Load(context.Background())
		require.NoError(t, err)
	}
	return svc
}

func newTestServer(t *testing.T, load bool) (*httpadapter.Server, *mockReloader) {
	t.Helper()
	reloader := &mockReloader{allow: true}
	svc := newService(t, staticSource{payload: testDataset}, load)
	return httpadapter.NewServer(":0", svc, reloader, discardLogger()), reloader
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WhileLoading(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "dataset is still loading", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestProvinces(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodGet, "/api/provinces", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		State     string `json:"state"`
		Provinces []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		} `json:"provinces"`
	}](t, rec)
	assert.Equal(t, "ready", body.State)
	require.Len(t, body.Provinces, 2)
	assert.Equal(t, "Iğdır", body.Provinces[0].Label)
	assert.Equal(t, "igdir", body.Provinces[0].Key)
	assert.Equal(t, "Muğla", body.Provinces[1].Label)
}

func TestProvinces_LoadingReturnsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/api/provinces", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"loading","provinces":[]}`, rec.Body.String())
}

func TestDistricts(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodGet, "/api/provinces/"+url.PathEscape("Muğla")+"/districts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"province":"mugla","districts":[{"key":"fethiye","label":"Fethiye"},{"key":"ula","label":"Ula"}]}`, rec.Body.String())
}

func TestDistricts_UnknownProvince(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodGet, "/api/provinces/atlantis/districts", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDistricts_NotLoaded(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/api/provinces/mugla/districts", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSelectionRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodGet, "/api/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"province":"igdir","district":"merkez"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/api/selection", `{"province":"MUĞLA","district":"fethiye"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]json.RawMessage](t, rec)
	assert.JSONEq(t, `{"province":"mugla","district":"fethiye"}`, string(body["selection"]))

	var result map[string]any
	require.NoError(t, json.Unmarshal(body["result"], &result))
	assert.Equal(t, "ok", result["status"])
	assert.InDelta(t, 1500, result["annual"], 0)
	assert.InDelta(t, 15000, result["total"], 0)
	assert.InDelta(t, 10, result["years"], 0)
	assert.Equal(t, "Fethiye", result["district_label"])

	rec = do(t, srv, http.MethodGet, "/api/result", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestPutSelection_RepairsInvalidDistrict(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodPut, "/api/selection", `{"province":"Muğla","district":"Merkez"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]json.RawMessage](t, rec)
	assert.JSONEq(t, `{"province":"mugla","district":"fethiye"}`, string(body["selection"]))
}

func TestPutSelection_BadBody(t *testing.T) {
	srv, _ := newTestServer(t, true)

	for _, body := range []string{"", "{", `{"province":"Muğla","extra":1}`} {
		rec := do(t, srv, http.MethodPut, "/api/selection", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestResult_LoadError(t *testing.T) {
	svc := newService(t, staticSource{err: errors.New("connection refused")}, false)
	_, err := svc.Load(context.Background())
	require.Error(t, err)
	srv := httpadapter.NewServer(":0", svc, &mockReloader{}, discardLogger())

	rec := do(t, srv, http.MethodGet, "/api/result", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "load-error", body["status"])
	assert.Contains(t, body["message"], "connection refused")

	rec = do(t, srv, http.MethodGet, "/api/status", "")
	assert.Equal(t, "load-error", decode[map[string]any](t, rec)["state"])
}

func TestLookup(t *testing.T) {
	srv, _ := newTestServer(t, true)

	tests := []struct {
		name     string
		query    string
		code     int
		expected string
	}{
		{"zero need", "province=mugla&district=ULA", http.StatusOK, "zero-need"},
		{"no coverage", "province=" + url.QueryEscape("IĞDIR") + "&district=merkez", http.StatusOK, "no-coverage-data"},
		{"missing record", "province=mugla&district=bodrum", http.StatusOK, "no-record"},
		{"missing district", "province=mugla", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/lookup?"+tt.query, "")
			require.Equal(t, tt.code, rec.Code)
			if tt.expected != "" {
				assert.Equal(t, tt.expected, decode[map[string]any](t, rec)["status"])
			}
		})
	}

	// Stateless lookups leave the selection alone.
	rec := do(t, srv, http.MethodGet, "/api/selection", "")
	assert.JSONEq(t, `{"province":"igdir","district":"merkez"}`, rec.Body.String())
}

func TestReload(t *testing.T) {
	srv, reloader := newTestServer(t, true)

	rec := do(t, srv, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	reloader.allow = false
	rec = do(t, srv, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, []pipeline.Trigger{pipeline.TriggerAPI, pipeline.TriggerAPI}, reloader.triggers)
}

func TestStatus(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[lookup.Status](t, rec)
	assert.Equal(t, lookup.StateReady, body.State)
	require.NotNil(t, body.Snapshot)
	assert.Equal(t, 3, body.Snapshot.Stats.Indexed)
	assert.Equal(t, "static", body.Snapshot.Source)
}

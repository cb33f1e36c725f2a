package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/internal/engine/enginetest"
	"github.com/signalsfoundry/groundwave/internal/observability"
	"github.com/signalsfoundry/groundwave/internal/service"
	"github.com/signalsfoundry/groundwave/internal/store"
	"github.com/signalsfoundry/groundwave/model"
)

func newTestRouter(t *testing.T, eng core.Engine, persist bool) (*gin.Engine, *observability.APICollector) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client, err := core.NewClient(eng, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	batch, err := core.NewBatchEvaluator(client, nil, core.WithDefaultWorkers(3))
	if err != nil {
		t.Fatalf("NewBatchEvaluator: %v", err)
	}

	var opts []service.Option
	if persist {
		db, err := store.Open(filepath.Join(t.TempDir(), "lfmf.db"))
		if err != nil {
			t.Fatalf("store.Open: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		opts = append(opts, service.WithStore(store.NewSweepSQLite(db)))
	}
	svc, err := service.New(client, batch, nil, opts...)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}

	metrics, err := observability.NewAPICollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	return NewHandler(svc, nil, metrics).InitRoutes(), metrics
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, enginetest.New(), false)
	w := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("response missing X-Request-ID")
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["status"] != "ok" || m["persistence"] != false {
		t.Fatalf("body = %v, want ok without persistence", m)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	r, _ := newTestRouter(t, enginetest.New(), false)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestEvaluate(t *testing.T) {
	r, metrics := newTestRouter(t, enginetest.New(), false)

	w := do(t, r, http.MethodPost, "/api/v1/evaluate", `{"frequency_mhz":15,"distance_km":1,"tx_power_w":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp evaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := model.DefaultParameters()
	p.FrequencyMHz, p.DistanceKm, p.TxPowerWatt = 15, 1, 1
	if resp.Parameters != p {
		t.Fatalf("parameters = %+v, want defaults with overrides %+v", resp.Parameters, p)
	}
	if want := enginetest.Compute(p); resp.Result != want {
		t.Fatalf("result = %+v, want %+v", resp.Result, want)
	}
	if resp.MethodName != resp.Result.Method.String() {
		t.Fatalf("method_name = %q, want %q", resp.MethodName, resp.Result.Method.String())
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/v1/evaluate", "POST", "200")); got != 1 {
		t.Fatalf("lfmf_http_requests_total = %v, want 1", got)
	}
}

func TestEvaluateErrors(t *testing.T) {
	eng := enginetest.New()
	eng.Status = func(p model.InputParameters) int {
		if p.Permittivity == 77 {
			return 4100
		}
		return 0
	}
	r, _ := newTestRouter(t, eng, false)

	tests := []struct {
		name   string
		body   string
		status int
		code   float64
		field  string
	}{
		{"validation", `{"distance_km":-5}`, http.StatusUnprocessableEntity, 1005, "distance_km"},
		{"polarization", `{"polarization":3}`, http.StatusUnprocessableEntity, 1008, "polarization"},
		{"engine status", `{"permittivity":77}`, http.StatusBadGateway, 4100, ""},
		{"bad body", `{"distance_km":`, http.StatusBadRequest, 0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/evaluate", tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.status, w.Body.String())
			}
			var m map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &m)
			if m["error"] == nil {
				t.Fatalf("body = %s, want an error message", w.Body.String())
			}
			if tc.code != 0 && m["code"] != tc.code {
				t.Fatalf("code = %v, want %v", m["code"], tc.code)
			}
			if tc.field != "" && m["field"] != tc.field {
				t.Fatalf("field = %v, want %v", m["field"], tc.field)
			}
		})
	}
}

func TestSweepWithoutPersistence(t *testing.T) {
	r, _ := newTestRouter(t, enginetest.New(), false)

	w := do(t, r, http.MethodPost, "/api/v1/sweeps", `{"dimension":"distance_km","values":[1,-5,100]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"values":[`) || !strings.Contains(w.Body.String(), "null") {
		t.Fatalf("body = %s, want a values array with null for the failed element", w.Body.String())
	}
	var resp service.SweepResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Values) != 3 || !math.IsNaN(resp.Values[1]) || math.IsNaN(resp.Values[0]) {
		t.Fatalf("values = %v, want NaN only at index 1", resp.Values)
	}
	if len(resp.Failures) != 1 || resp.Failures[0].Code != 1005 {
		t.Fatalf("failures = %+v, want one distance failure", resp.Failures)
	}

	for _, path := range []string{"/api/v1/sweeps", "/api/v1/sweeps/some-id"} {
		if w := do(t, r, http.MethodGet, path, ""); w.Code != http.StatusNotImplemented {
			t.Fatalf("GET %s status = %d, want 501", path, w.Code)
		}
	}
}

func TestSweepBadRequests(t *testing.T) {
	r, _ := newTestRouter(t, enginetest.New(), false)
	for _, body := range []string{
		`{"dimension":"altitude","values":[1]}`,
		`{"dimension":"distance_km"}`,
		`{"dimension":"distance_km","range":{"scale":"geometric","start":0,"stop":1,"count":3}}`,
		`not json`,
	} {
		if w := do(t, r, http.MethodPost, "/api/v1/sweeps", body); w.Code != http.StatusBadRequest {
			t.Fatalf("POST %s status = %d, want 400", body, w.Code)
		}
	}
}

func TestSweepLifecycleWithPersistence(t *testing.T) {
	r, _ := newTestRouter(t, enginetest.New(), true)

	w := do(t, r, http.MethodPost, "/api/v1/sweeps",
		`{"dimension":"frequency_mhz","field":"received_power_dbm","range":{"start":1,"stop":10,"count":10}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var created service.SweepResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.ID == "" || w.Header().Get("Location") != "/api/v1/sweeps/"+created.ID {
		t.Fatalf("id = %q, Location = %q", created.ID, w.Header().Get("Location"))
	}

	w = do(t, r, http.MethodGet, "/api/v1/sweeps/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	var run store.SweepRun
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	if run.Field != model.FieldReceivedPower || len(run.Results) != 10 {
		t.Fatalf("run = %+v", run)
	}

	w = do(t, r, http.MethodGet, "/api/v1/sweeps?limit=5", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), created.ID) {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, r, http.MethodGet, "/api/v1/sweeps?limit=-1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("list with bad limit status = %d, want 400", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/v1/sweeps/does-not-exist", ""); w.Code != http.StatusNotFound {
		t.Fatalf("get missing status = %d, want 404", w.Code)
	}
}

func TestClosedClientIsUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client, err := core.NewClient(enginetest.New(), nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	batch, _ := core.NewBatchEvaluator(client, nil)
	svc, _ := service.New(client, batch, nil)
	_ = client.Close()

	r := NewHandler(svc, nil, nil).InitRoutes()
	if w := do(t, r, http.MethodPost, "/api/v1/evaluate", `{}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

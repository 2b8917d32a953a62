package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/metrics"
	"github.com/inference-sim/warehouse-sim/sim/warehouse"
)

func fakeResults(seed int64) metrics.Results {
	util := 42.0
	return metrics.Results{StorageUtilization: &util, Seed: seed}
}

func waitFor(t *testing.T, reg *Registry, id string) RunStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	status, err := reg.Wait(ctx, id)
	require.NoError(t, err)
	return status
}

func TestRegistry_Submit_CompletesWithResults(t *testing.T) {
	// GIVEN a registry whose runner returns fixed results
	calls := 0
	reg := NewRegistry(WithRunner(func(cfg warehouse.Config) (metrics.Results, error) {
		calls++
		return fakeResults(9), nil
	}))

	// WHEN a valid config is submitted
	id, err := reg.Submit(context.Background(), warehouse.DefaultConfig())
	require.NoError(t, err)
	status := waitFor(t, reg, id)

	// THEN the run completed exactly once and carries the flat result map
	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 42.0, *status.Results["storage_utilization_pct"])
	assert.Nil(t, status.Results["truck_loading_mean_time"])
	require.NotNil(t, status.Seed)
	assert.Equal(t, int64(9), *status.Seed)
	assert.NotNil(t, status.FinishedAt)
}

func TestRegistry_Submit_RejectsInvalidConfigWithoutRun(t *testing.T) {
	m := NewMetrics()
	reg := NewRegistry(WithMetrics(m), WithRunner(func(warehouse.Config) (metrics.Results, error) {
		t.Fatal("runner must not be called")
		return metrics.Results{}, nil
	}))
	cfg := warehouse.DefaultConfig()
	cfg.NumLoadingDocks = 2

	id, err := reg.Submit(context.Background(), cfg)

	var cerr *sim.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Empty(t, id)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("rejected")))
}

func TestRegistry_FailedRun_RecordsErrorAndSpan(t *testing.T) {
	// GIVEN a runner that hits an invariant violation and a recording tracer
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	m := NewMetrics()
	reg := NewRegistry(WithTracerProvider(tp), WithMetrics(m), WithRunner(func(warehouse.Config) (metrics.Results, error) {
		return metrics.Results{}, &sim.InvariantViolation{Clock: 3, Message: "pool granted beyond capacity"}
	}))

	// WHEN the run executes
	id, err := reg.Submit(context.Background(), warehouse.DefaultConfig())
	require.NoError(t, err)
	status := waitFor(t, reg, id)
	reg.Close()

	// THEN the status is failed with the error text
	assert.Equal(t, StateFailed, status.State)
	assert.Contains(t, status.Error, "pool granted beyond capacity")
	assert.Nil(t, status.Results)

	// AND one span ended with an error status
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "warehouse.run", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
}

func TestRegistry_PanickingRunnerFailsRun(t *testing.T) {
	reg := NewRegistry(WithRunner(func(warehouse.Config) (metrics.Results, error) {
		panic("boom")
	}))
	id, err := reg.Submit(context.Background(), warehouse.DefaultConfig())
	require.NoError(t, err)
	status := waitFor(t, reg, id)
	assert.Equal(t, StateFailed, status.State)
	assert.Contains(t, status.Error, "boom")
}

func TestRegistry_Pending_UntilRunnerReturns(t *testing.T) {
	release := make(chan struct{})
	reg := NewRegistry(WithRunner(func(warehouse.Config) (metrics.Results, error) {
		<-release
		return fakeResults(1), nil
	}))
	id, err := reg.Submit(context.Background(), warehouse.DefaultConfig())
	require.NoError(t, err)

	status, err := reg.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatePending, status.State)

	close(release)
	assert.Equal(t, StateCompleted, waitFor(t, reg, id).State)
}

func TestRegistry_UnknownID(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Status("nope")
	assert.True(t, errors.Is(err, ErrUnknownRun))
	_, err = reg.Wait(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrUnknownRun))
}

func TestMetrics_CompletedRunSetsGauges(t *testing.T) {
	m := NewMetrics()
	reg := NewRegistry(WithMetrics(m), WithRunner(func(warehouse.Config) (metrics.Results, error) {
		return fakeResults(2), nil
	}))
	id, err := reg.Submit(context.Background(), warehouse.DefaultConfig())
	require.NoError(t, err)
	waitFor(t, reg, id)
	reg.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.LastRunMetric.WithLabelValues("storage_utilization_pct")))
}

func newTestRouter(reg *Registry, m *Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(reg, m)
}

func performRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_SubmitAndPoll(t *testing.T) {
	// GIVEN the real simulation behind the HTTP routes
	reg := NewRegistry()
	router := newTestRouter(reg, nil)

	// WHEN a short run is posted with loosely typed values
	rec := performRequest(router, http.MethodPost, "/simulations",
		`{"simulation_duration_minutes": "90", "warmup_minutes": 30, "random_seed": 11, "forklifts": 20.0}`)

	// THEN a task id is returned
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var submitted map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	id := submitted["task_id"]
	require.NotEmpty(t, id)

	// AND polling reports the completed results
	waitFor(t, reg, id)
	rec = performRequest(router, http.MethodGet, "/simulations/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "completed", status["status"])
	results, ok := status["results"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, results, len(metrics.MetricNames))
	assert.Contains(t, results, "average_forklift_utilization_pct")
	assert.Equal(t, float64(11), status["seed"])
}

func TestRouter_Submit_BadRequests(t *testing.T) {
	router := newTestRouter(NewRegistry(), nil)
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"malformed json", `{"forklifts":}`, ""},
		{"uncoercible value", `{"forklifts": "many"}`, "forklifts"},
		{"unknown field", `{"drones": 3}`, "drones"},
		{"invalid combination", `{"num_loading_docks": 3}`, "num_loading_docks"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(router, http.MethodPost, "/simulations", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if tc.field != "" {
				assert.Contains(t, rec.Body.String(), `"field":"`+tc.field+`"`)
			}
		})
	}
}

func TestRouter_UnknownRunIs404(t *testing.T) {
	router := newTestRouter(NewRegistry(), nil)
	rec := performRequest(router, http.MethodGet, "/simulations/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	m := NewMetrics()
	reg := NewRegistry(WithMetrics(m), WithRunner(func(warehouse.Config) (metrics.Results, error) {
		return fakeResults(1), nil
	}))
	router := newTestRouter(reg, m)
	id, err := reg.Submit(context.Background(), warehouse.DefaultConfig())
	require.NoError(t, err)
	waitFor(t, reg, id)
	reg.Close()

	rec := performRequest(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `warehouse_sim_runs_total{status="completed"} 1`), body)
	assert.Contains(t, body, "warehouse_sim_last_run_metric")
}

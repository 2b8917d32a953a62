// Package server runs warehouse simulations on behalf of remote callers and
// reports their status over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inference-sim/warehouse-sim/sim/metrics"
	"github.com/inference-sim/warehouse-sim/sim/warehouse"
)

// State is the lifecycle state of a submitted run.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ErrUnknownRun is returned for a run ID the registry never issued.
var ErrUnknownRun = errors.New("unknown run")

// RunStatus is a snapshot of one run.
type RunStatus struct {
	ID          string              `json:"task_id"`
	State       State               `json:"status"`
	Results     map[string]*float64 `json:"results,omitempty"`
	Error       string              `json:"error,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
	Seed        *int64              `json:"seed,omitempty"`
	Full        *metrics.Results    `json:"-"`
}

type run struct {
	status RunStatus
	done   chan struct{}
}

// Runner executes one validated config. warehouse.Run is the default.
type Runner func(cfg warehouse.Config) (metrics.Results, error)

// Registry executes every submitted config once on its own goroutine and keeps
// the outcome for status queries.
type Registry struct {
	mu      sync.RWMutex
	runs    map[string]*run
	runner  Runner
	tracer  trace.Tracer
	metrics *Metrics
	wg      sync.WaitGroup
}

// Option customizes a Registry.
type Option func(*Registry)

// WithRunner replaces the simulation entry point.
func WithRunner(r Runner) Option {
	return func(reg *Registry) { reg.runner = r }
}

// WithTracerProvider records run spans through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(reg *Registry) { reg.tracer = tp.Tracer(tracerName) }
}

// WithMetrics publishes run outcomes to m.
func WithMetrics(m *Metrics) Option {
	return func(reg *Registry) { reg.metrics = m }
}

func runWarehouse(cfg warehouse.Config) (metrics.Results, error) {
	return warehouse.Run(cfg)
}

const tracerName = "github.com/inference-sim/warehouse-sim/server"

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	reg := &Registry{
		runs:   make(map[string]*run),
		runner: runWarehouse,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Submit validates cfg and starts it in the background. A config error is
// returned immediately and no run is created.
func (reg *Registry) Submit(ctx context.Context, cfg warehouse.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		reg.metrics.observeRejected()
		return "", err
	}
	id := uuid.NewString()
	r := &run{
		status: RunStatus{ID: id, State: StatePending, SubmittedAt: time.Now()},
		done:   make(chan struct{}),
	}
	reg.mu.Lock()
	reg.runs[id] = r
	reg.mu.Unlock()

	// the run outlives the request that submitted it
	runCtx := context.WithoutCancel(ctx)
	reg.wg.Add(1)
	go func() {
		defer reg.wg.Done()
		reg.execute(runCtx, r, cfg)
	}()
	logrus.Infof("Submitted run %s", id)
	return id, nil
}

func (reg *Registry) execute(ctx context.Context, r *run, cfg warehouse.Config) {
	_, span := reg.tracer.Start(ctx, "warehouse.run", trace.WithAttributes(
		attribute.String("run.id", r.status.ID),
		attribute.Float64("run.horizon_minutes", cfg.SimulationDurationMinutes),
		attribute.Int("run.forklifts", cfg.Forklifts),
	))
	defer span.End()

	res, err := reg.safeRun(cfg)
	finished := time.Now()

	reg.mu.Lock()
	r.status.FinishedAt = &finished
	if err != nil {
		r.status.State = StateFailed
		r.status.Error = err.Error()
	} else {
		r.status.State = StateCompleted
		r.status.Results = res.Map()
		r.status.Full = &res
		seed := res.Seed
		r.status.Seed = &seed
	}
	reg.mu.Unlock()
	close(r.done)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logrus.Errorf("Run %s failed: %v", r.status.ID, err)
		reg.metrics.observeFailed()
		return
	}
	span.SetAttributes(attribute.Int64("run.seed", res.Seed))
	span.SetStatus(codes.Ok, "")
	logrus.Infof("Run %s completed", r.status.ID)
	reg.metrics.observeCompleted(res)
}

// safeRun turns a panic inside the simulation into a failed run.
func (reg *Registry) safeRun(cfg warehouse.Config) (res metrics.Results, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("simulation panicked: %v", p)
		}
	}()
	return reg.runner(cfg)
}

// Status returns a snapshot of the run.
func (reg *Registry) Status(id string) (RunStatus, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.runs[id]
	if !ok {
		return RunStatus{}, fmt.Errorf("%w %q", ErrUnknownRun, id)
	}
	return r.status, nil
}

// Wait blocks until the run finishes or ctx is done.
func (reg *Registry) Wait(ctx context.Context, id string) (RunStatus, error) {
	reg.mu.RLock()
	r, ok := reg.runs[id]
	reg.mu.RUnlock()
	if !ok {
		return RunStatus{}, fmt.Errorf("%w %q", ErrUnknownRun, id)
	}
	select {
	case <-r.done:
		return reg.Status(id)
	case <-ctx.Done():
		return RunStatus{}, ctx.Err()
	}
}

// Close waits for every run in flight.
func (reg *Registry) Close() {
	reg.wg.Wait()
}

// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/warehouse-sim/sim/trace"
)

// Simulator is the core object that holds virtual time and the event loop.
// It is single-threaded: every event executes to completion before the next
// one is popped, so state reachable only from event callbacks needs no locks.
type Simulator struct {
	// Clock is the current virtual time in minutes.
	Clock float64
	// EventQueue holds every pending wake-up, ordered by (time, insertion seq).
	EventQueue EventQueue
	// Trace is optional; nil disables event recording.
	Trace *trace.RunTrace

	seq      uint64
	nextPID  int
	executed uint64
	dumpers  []Dumper
	failure  error
}

// NewSimulator returns a simulator at time zero with an empty event queue.
func NewSimulator() *Simulator {
	return &Simulator{
		EventQueue: make(EventQueue, 0),
	}
}

// Now returns the current virtual time.
func (sim *Simulator) Now() float64 {
	return sim.Clock
}

// Executed returns the number of events processed so far.
func (sim *Simulator) Executed() uint64 {
	return sim.executed
}

// Pending returns the number of events still in the queue.
func (sim *Simulator) Pending() int {
	return len(sim.EventQueue)
}

// Schedule pushes an event into the simulator's EventQueue.
// Events in the past are an invariant violation.
func (sim *Simulator) Schedule(ev Event) {
	if ev.Timestamp() < sim.Clock {
		sim.Violation("event %s scheduled at %.4f, before now %.4f", ev.Name(), ev.Timestamp(), sim.Clock)
		return
	}
	sim.seq++
	heap.Push(&sim.EventQueue, scheduledEvent{ev: ev, seq: sim.seq})
}

// After schedules fn to run delay minutes from now.
func (sim *Simulator) After(delay float64, name string, fn func()) {
	if fn == nil {
		panic("After: fn must not be nil")
	}
	if delay < 0 {
		sim.Violation("negative delay %.4f for %s", delay, name)
		return
	}
	sim.Schedule(&CallbackEvent{time: sim.Clock + delay, label: name, fn: fn})
}

// RunUntil executes events in (time, seq) order until none remain at or before
// horizon, or until a fatal error has been recorded. On a clean finish the clock
// is advanced to horizon.
func (sim *Simulator) RunUntil(horizon float64) error {
	for len(sim.EventQueue) > 0 && sim.failure == nil {
		if sim.EventQueue[0].ev.Timestamp() > horizon {
			break
		}
		next := heap.Pop(&sim.EventQueue).(scheduledEvent)
		sim.Clock = next.ev.Timestamp()
		sim.executed++
		if logrus.IsLevelEnabled(logrus.TraceLevel) {
			logrus.Tracef("[t=%9.3f] #%d %s", sim.Clock, next.seq, next.ev.Name())
		}
		sim.Trace.RecordEvent(trace.EventRecord{Seq: next.seq, Clock: sim.Clock, Name: next.ev.Name()})
		next.ev.Execute(sim)
	}
	if sim.failure != nil {
		logrus.Errorf("[t=%9.3f] Simulation aborted: %v", sim.Clock, sim.failure)
		return sim.failure
	}
	if sim.Clock < horizon {
		sim.Clock = horizon
	}
	logrus.Infof("[t=%9.3f] Simulation ended after %d events", sim.Clock, sim.executed)
	return nil
}

// RegisterDumper adds a component to the state dump attached to invariant violations.
func (sim *Simulator) RegisterDumper(d Dumper) {
	sim.dumpers = append(sim.dumpers, d)
}

// Fail records a fatal error. The first recorded error wins; RunUntil stops
// before executing the next event.
func (sim *Simulator) Fail(err error) {
	if err == nil || sim.failure != nil {
		return
	}
	sim.failure = err
}

// Violation records an InvariantViolation carrying the state of every
// registered component.
func (sim *Simulator) Violation(format string, args ...any) {
	v := &InvariantViolation{Clock: sim.Clock, Message: fmt.Sprintf(format, args...)}
	for _, d := range sim.dumpers {
		v.Dump = append(v.Dump, d.Dump())
	}
	sim.Fail(v)
}

// Err returns the fatal error recorded so far, if any.
func (sim *Simulator) Err() error {
	return sim.failure
}

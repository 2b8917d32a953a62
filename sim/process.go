package sim

import "fmt"

// ProcessState is the lifecycle state of a Process.
type ProcessState int

const (
	StateRunnable ProcessState = iota
	StateSuspended
	StateTerminated
)

func (s ProcessState) String() string {
	switch s {
	case StateRunnable:
		return "runnable"
	case StateSuspended:
		return "suspended"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("ProcessState(%d)", int(s))
}

// SuspendReason records what a suspended process is waiting for.
type SuspendReason int

const (
	WaitNone SuspendReason = iota
	WaitTimeout
	WaitResource
	WaitJoin
)

func (r SuspendReason) String() string {
	switch r {
	case WaitNone:
		return "none"
	case WaitTimeout:
		return "timeout"
	case WaitResource:
		return "resource"
	case WaitJoin:
		return "join"
	}
	return fmt.Sprintf("SuspendReason(%d)", int(r))
}

// Process is a suspendable unit of work driven by the Simulator.
//
// A process body is written as a chain of steps. Each step either calls exactly
// one suspension primitive (Sleep, ResourcePool.Acquire, Group.Wait) passing the
// next step as a continuation, or returns without suspending, which terminates
// the process.
type Process struct {
	ID   int
	Name string

	sim       *Simulator
	state     ProcessState
	reason    SuspendReason
	suspended bool // a suspension was registered during the current step
	onExit    []func()
}

// Spawn creates a process whose first step runs at the current time, after
// every event already scheduled for now. Fire-and-forget: the caller is not
// suspended and is not notified when the child terminates unless it uses a Group.
func (sim *Simulator) Spawn(name string, body func(p *Process)) *Process {
	if body == nil {
		panic("Spawn: body must not be nil")
	}
	sim.nextPID++
	p := &Process{ID: sim.nextPID, Name: name, sim: sim, state: StateRunnable}
	sim.After(0, "start:"+name, func() { p.resume(func() { body(p) }) })
	return p
}

// Sim returns the simulator driving this process.
func (p *Process) Sim() *Simulator {
	return p.sim
}

// Now returns the current virtual time.
func (p *Process) Now() float64 {
	return p.sim.Clock
}

// State returns the lifecycle state.
func (p *Process) State() ProcessState {
	return p.state
}

// WaitingOn returns the suspension reason; WaitNone unless suspended.
func (p *Process) WaitingOn() SuspendReason {
	return p.reason
}

// Sleep suspends the process for delay minutes, then runs next.
func (p *Process) Sleep(delay float64, next func()) {
	if next == nil {
		panic("Sleep: next must not be nil")
	}
	if !p.suspend(WaitTimeout) {
		return
	}
	p.sim.After(delay, "sleep:"+p.Name, func() { p.resume(next) })
}

// Fail terminates the process and aborts the run with err.
func (p *Process) Fail(err error) {
	p.sim.Fail(err)
	p.terminate()
}

// OnExit registers fn to run when the process terminates.
func (p *Process) OnExit(fn func()) {
	if p.state == StateTerminated {
		fn()
		return
	}
	p.onExit = append(p.onExit, fn)
}

// suspend marks the process as waiting. Returns false if the process is
// terminated or has already registered a suspension in this step.
func (p *Process) suspend(reason SuspendReason) bool {
	if p.state == StateTerminated {
		p.sim.Violation("process %s (pid %d) suspended after termination", p.Name, p.ID)
		return false
	}
	if p.suspended {
		p.sim.Violation("process %s (pid %d) suspended twice in one step", p.Name, p.ID)
		return false
	}
	p.suspended = true
	p.state = StateSuspended
	p.reason = reason
	return true
}

// resume runs one step of the process. A step that does not register a new
// suspension terminates the process.
func (p *Process) resume(step func()) {
	if p.state == StateTerminated {
		return
	}
	p.state = StateRunnable
	p.reason = WaitNone
	p.suspended = false
	step()
	if !p.suspended && p.state != StateTerminated {
		p.terminate()
	}
}

func (p *Process) terminate() {
	if p.state == StateTerminated {
		return
	}
	p.state = StateTerminated
	p.reason = WaitNone
	exits := p.onExit
	p.onExit = nil
	for _, fn := range exits {
		fn()
	}
}

// Group tracks a set of processes so that another process can wait for all of
// them to terminate. Processes may be added while others are still running;
// the group completes when its live count drops to zero.
type Group struct {
	sim     *Simulator
	live    int
	waiters []func()
}

// NewGroup returns an empty group.
func NewGroup(sim *Simulator) *Group {
	return &Group{sim: sim}
}

// Go spawns a process and adds it to the group.
func (g *Group) Go(name string, body func(p *Process)) *Process {
	g.live++
	p := g.sim.Spawn(name, body)
	p.OnExit(g.done)
	return p
}

// Live returns the number of member processes that have not terminated.
func (g *Group) Live() int {
	return g.live
}

// Wait suspends p until every member of the group has terminated, then runs next.
// If the group is already empty, next runs at the current time.
func (g *Group) Wait(p *Process, next func()) {
	if next == nil {
		panic("Wait: next must not be nil")
	}
	if !p.suspend(WaitJoin) {
		return
	}
	wake := func() { g.sim.After(0, "join:"+p.Name, func() { p.resume(next) }) }
	if g.live == 0 {
		wake()
		return
	}
	g.waiters = append(g.waiters, wake)
}

func (g *Group) done() {
	g.live--
	if g.live > 0 {
		return
	}
	waiters := g.waiters
	g.waiters = nil
	for _, w := range waiters {
		w()
	}
}

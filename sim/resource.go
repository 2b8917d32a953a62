package sim

import (
	"container/heap"
	"fmt"
)

// Ticket is the capability returned by acquiring a ResourcePool unit.
// Releasing it returns the unit to the pool. A ticket may outlive the process
// that acquired it; any holder may release it exactly once.
type Ticket struct {
	ID          uint64
	Priority    Priority
	RequestedAt float64
	GrantedAt   float64

	pool     *ResourcePool
	released bool
}

// Pool returns the pool that issued the ticket.
func (t *Ticket) Pool() *ResourcePool {
	return t.pool
}

// Released reports whether the ticket has been returned.
func (t *Ticket) Released() bool {
	return t.released
}

type poolWaiter struct {
	ticket *Ticket
	proc   *Process
	next   func(*Ticket)
}

// waiterQueue orders waiters by priority, then request order.
type waiterQueue []*poolWaiter

func (q waiterQueue) Len() int { return len(q) }
func (q waiterQueue) Less(i, j int) bool {
	if q[i].ticket.Priority != q[j].ticket.Priority {
		return q[i].ticket.Priority < q[j].ticket.Priority
	}
	return q[i].ticket.ID < q[j].ticket.ID
}
func (q waiterQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *waiterQueue) Push(x any)   { *q = append(*q, x.(*poolWaiter)) }
func (q *waiterQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

// ResourcePool is a capacity-limited pool of identical units.
// Among waiters, a strictly lower Priority value is served first; equal
// priorities are served in request order.
type ResourcePool struct {
	name     string
	capacity int
	held     int
	sim      *Simulator
	waiters  waiterQueue
	requests uint64
	grants   uint64
}

// NewResourcePool creates a pool with the given capacity and registers it for
// state dumps. Capacity must be positive.
func NewResourcePool(sim *Simulator, name string, capacity int) (*ResourcePool, error) {
	if capacity <= 0 {
		return nil, NewConfigError(name, "pool capacity must be > 0, got %d", capacity)
	}
	rp := &ResourcePool{
		name:     name,
		capacity: capacity,
		sim:      sim,
		waiters:  make(waiterQueue, 0),
	}
	sim.RegisterDumper(rp)
	return rp, nil
}

// Acquire suspends p until a unit is granted, then runs next with the ticket.
// The grant is always delivered as a scheduled event, never inline.
func (rp *ResourcePool) Acquire(p *Process, prio Priority, next func(*Ticket)) {
	if next == nil {
		panic("Acquire: next must not be nil")
	}
	if !p.suspend(WaitResource) {
		return
	}
	rp.requests++
	w := &poolWaiter{
		ticket: &Ticket{ID: rp.requests, Priority: prio, RequestedAt: rp.sim.Clock, pool: rp},
		proc:   p,
		next:   next,
	}
	if rp.held < rp.capacity && len(rp.waiters) == 0 {
		rp.grant(w)
		return
	}
	heap.Push(&rp.waiters, w)
}

// Release returns the ticket's unit. If anyone is waiting, the unit passes
// directly to the best waiter in the same step.
func (rp *ResourcePool) Release(t *Ticket) {
	if t == nil {
		panic("Release: ticket must not be nil")
	}
	if t.pool != rp {
		rp.sim.Violation("ticket %d of pool %s released to pool %s", t.ID, t.pool.name, rp.name)
		return
	}
	if t.released {
		rp.sim.Violation("ticket %d of pool %s released twice", t.ID, rp.name)
		return
	}
	if rp.held <= 0 {
		rp.sim.Violation("pool %s released with no units held", rp.name)
		return
	}
	t.released = true
	rp.held--
	if len(rp.waiters) > 0 {
		rp.grant(heap.Pop(&rp.waiters).(*poolWaiter))
	}
}

func (rp *ResourcePool) grant(w *poolWaiter) {
	if rp.held >= rp.capacity {
		rp.sim.Violation("pool %s granted ticket %d with %d/%d units held", rp.name, w.ticket.ID, rp.held, rp.capacity)
		return
	}
	rp.held++
	rp.grants++
	w.ticket.GrantedAt = rp.sim.Clock
	rp.sim.After(0, "grant:"+rp.name, func() { w.proc.resume(func() { w.next(w.ticket) }) })
}

// Name returns the pool name.
func (rp *ResourcePool) Name() string {
	return rp.name
}

// Capacity returns the fixed number of units.
func (rp *ResourcePool) Capacity() int {
	return rp.capacity
}

// Held returns the number of units currently granted and not released.
func (rp *ResourcePool) Held() int {
	return rp.held
}

// Waiting returns the number of queued requests.
func (rp *ResourcePool) Waiting() int {
	return len(rp.waiters)
}

// Grants returns the total number of grants issued.
func (rp *ResourcePool) Grants() uint64 {
	return rp.grants
}

// Dump describes the pool for an InvariantViolation report.
func (rp *ResourcePool) Dump() string {
	return fmt.Sprintf("pool %s: held=%d/%d waiting=%d grants=%d", rp.name, rp.held, rp.capacity, len(rp.waiters), rp.grants)
}

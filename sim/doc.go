// Package sim provides the discrete-event kernel shared by the warehouse model.
//
// # Reading Guide
//
// Start with these files:
//   - event.go: Event interface and the (time, seq) ordered queue
//   - simulator.go: the clock, the event loop and end-of-run invariant checks
//   - process.go: continuation-style processes and join groups
//   - resource.go: counted resource pools with priority-ordered waiters
//
// A process body never blocks. Sleep, ResourcePool.Acquire and Group.Wait
// take the next step as a continuation and schedule it; a step that returns
// without suspending ends the process.
//
// # Sub-packages
//
//   - sim/storage/: rack grid, slot assignment and FIFO/LIFO retrieval
//   - sim/metrics/: warm-up filtered aggregation and the results table
//   - sim/trace/: storage and event trace recording
//   - sim/warehouse/: facility config and the receiving, assembly and shipping flows
package sim

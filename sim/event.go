package sim

// Event defines the interface for all simulation events.
// Each event carries the virtual time (in minutes) it fires at and a label
// used for logging and tracing.
type Event interface {
	Timestamp() float64
	Name() string
	Execute(*Simulator)
}

// CallbackEvent runs an arbitrary function when it fires.
// Every process wake-up and resource grant is delivered as a CallbackEvent.
type CallbackEvent struct {
	time  float64
	label string
	fn    func()
}

// Timestamp returns the scheduled time of the event.
func (e *CallbackEvent) Timestamp() float64 {
	return e.time
}

// Name returns the event label.
func (e *CallbackEvent) Name() string {
	return e.label
}

// Execute invokes the callback.
func (e *CallbackEvent) Execute(_ *Simulator) {
	e.fn()
}

// scheduledEvent pairs an event with the insertion sequence number that breaks
// timestamp ties.
type scheduledEvent struct {
	ev  Event
	seq uint64
}

// EventQueue implements heap.Interface and orders events by timestamp, then by
// insertion sequence.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []scheduledEvent

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	ti, tj := eq[i].ev.Timestamp(), eq[j].ev.Timestamp()
	if ti != tj {
		return ti < tj
	}
	return eq[i].seq < eq[j].seq
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(scheduledEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

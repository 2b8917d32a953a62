package sim

import "fmt"

// Priority orders waiters in a ResourcePool. Lower values are served first.
type Priority int

// Forklift tiers. Work that frees other resources is favored over starting new
// work: a loading transfer frees a bay and a dock, an assembly move completes an
// order, a put-away drains a dock, and an unload only adds to the staging queue.
const (
	// PriorityFIFO is the single tier used by docks and assembly bays.
	PriorityFIFO Priority = 0

	PriorityLoadTransfer Priority = 1
	PriorityAssembly     Priority = 2
	PriorityPutAway      Priority = 3
	PriorityUnload       Priority = 4
)

func (p Priority) String() string {
	switch p {
	case PriorityFIFO:
		return "fifo"
	case PriorityLoadTransfer:
		return "load-transfer"
	case PriorityAssembly:
		return "assembly"
	case PriorityPutAway:
		return "put-away"
	case PriorityUnload:
		return "unload"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

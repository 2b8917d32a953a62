// Package trace provides event and storage-decision recording for a warehouse run.
// This package has no dependencies on sim/ or its sub-packages; it stores pure data types.
package trace

// EventRecord captures one executed scheduler event.
type EventRecord struct {
	Seq   uint64
	Clock float64
	Name  string // "<kind>:<subject>", e.g. "grant:forklifts"
}

// StorageOp distinguishes the storage allocator operations that are traced.
type StorageOp string

const (
	StorageOpStore    StorageOp = "store"
	StorageOpRetrieve StorageOp = "retrieve"
	StorageOpFull     StorageOp = "full"
	StorageOpNotFound StorageOp = "not-found"
)

// StorageRecord captures a single storage allocator decision.
type StorageRecord struct {
	Clock      float64
	Op         StorageOp
	PalletType string
	PalletID   string // empty for retrievals by type
	Aisle      int    // -1 when the operation failed
	Slot       int
	Level      int
}

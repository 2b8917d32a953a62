package warehouse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inference-sim/warehouse-sim/sim/storage"
)

// Ledger tracks stocked pallets promised to orders that have not yet picked
// them. An order may reserve only what is stocked and not already promised,
// so two orders never count the same physical pallet.
type Ledger struct {
	grid     *storage.Grid
	reserved map[string]int
}

// NewLedger returns an empty ledger over grid.
func NewLedger(grid *storage.Grid) *Ledger {
	return &Ledger{grid: grid, reserved: make(map[string]int)}
}

// Unreserved returns stocked minus reserved pallets of a type.
func (l *Ledger) Unreserved(palletType string) int {
	return l.grid.Available(palletType) - l.reserved[palletType]
}

// Reserved returns the outstanding reservations of a type.
func (l *Ledger) Reserved(palletType string) int {
	return l.reserved[palletType]
}

// TryReserve reserves the order's full requirement if every type has enough
// unreserved stock. It is all-or-nothing.
func (l *Ledger) TryReserve(o *Order) bool {
	for t, n := range o.Required {
		if n > 0 && l.Unreserved(t) < n {
			return false
		}
	}
	for t, n := range o.Required {
		l.reserved[t] += n
	}
	return true
}

// Missing returns the shortfall per type for an order; empty if it could reserve now.
func (l *Ledger) Missing(o *Order) map[string]int {
	missing := make(map[string]int)
	for t, n := range o.Required {
		if short := n - l.Unreserved(t); n > 0 && short > 0 {
			missing[t] = short
		}
	}
	return missing
}

// Consume settles one reservation after the pallet has been retrieved.
func (l *Ledger) Consume(palletType string) error {
	if l.reserved[palletType] <= 0 {
		return fmt.Errorf("ledger: retrieval of %s with no outstanding reservation", palletType)
	}
	l.reserved[palletType]--
	return nil
}

// Dump describes outstanding reservations for an InvariantViolation report.
func (l *Ledger) Dump() string {
	types := make([]string, 0, len(l.reserved))
	for t := range l.reserved {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s=%d/%d", t, l.reserved[t], l.grid.Available(t)))
	}
	return "ledger reserved/stocked: " + strings.Join(parts, " ")
}

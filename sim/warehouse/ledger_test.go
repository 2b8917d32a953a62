package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/warehouse-sim/sim/storage"
)

func stockedGrid(t *testing.T, fraction float64) *storage.Grid {
	t.Helper()
	layout := storage.DefaultLayout()
	layout.Sections = 1
	g, err := storage.NewGrid(storage.GridConfig{Aisles: 2, Slots: 4, Levels: 1, Types: []string{"A", "B"}, Layout: layout})
	require.NoError(t, err)
	_, err = g.InitialFill(fraction, 0)
	require.NoError(t, err)
	return g
}

func TestLedger_TryReserve_AllOrNothing(t *testing.T) {
	// GIVEN 2 A and 2 B in stock
	l := NewLedger(stockedGrid(t, 0.5))

	// WHEN an order wants more B than exist
	ok := l.TryReserve(&Order{Required: map[string]int{"A": 1, "B": 3}})

	// THEN nothing is reserved
	assert.False(t, ok)
	assert.Equal(t, 0, l.Reserved("A"))
	assert.Equal(t, 0, l.Reserved("B"))
	assert.Equal(t, map[string]int{"B": 1}, l.Missing(&Order{Required: map[string]int{"A": 1, "B": 3}}))
}

func TestLedger_ReservedStockIsNotOfferedTwice(t *testing.T) {
	l := NewLedger(stockedGrid(t, 0.5))
	first := &Order{Required: map[string]int{"A": 2}}
	second := &Order{Required: map[string]int{"A": 1}}

	require.True(t, l.TryReserve(first))
	assert.Equal(t, 0, l.Unreserved("A"))
	assert.False(t, l.TryReserve(second))
}

func TestLedger_Consume_SettlesReservation(t *testing.T) {
	g := stockedGrid(t, 0.5)
	l := NewLedger(g)
	require.True(t, l.TryReserve(&Order{Required: map[string]int{"A": 1}}))

	// WHEN the reserved pallet is retrieved and consumed
	_, _, _, err := g.Retrieve("A", storage.FIFO)
	require.NoError(t, err)
	require.NoError(t, l.Consume("A"))

	// THEN the remaining stock is unreserved again
	assert.Equal(t, 0, l.Reserved("A"))
	assert.Equal(t, 1, l.Unreserved("A"))

	// AND consuming without a reservation is an error
	assert.Error(t, l.Consume("A"))
	assert.Contains(t, l.Dump(), "A=0/1")
}

func TestRackLeg_ManhattanPlusLift(t *testing.T) {
	rack := storage.Coordinate{X: 14, Y: 1, Z: 2}
	dock := storage.Coordinate{X: 2, Y: 5}
	// 12/3 + 4/3 + 2/5
	assert.InDelta(t, 4+4.0/3+0.4, rackLeg(rack, dock, 3, 5), 1e-9)
	assert.InDelta(t, 2.0, floorLeg(storage.Coordinate{X: 32, Y: -5}, storage.Coordinate{X: 32, Y: -11}, 3), 1e-9)
}

func TestAssemblyArea_NextUnshippedSkipsClaimed(t *testing.T) {
	claimed := &Order{ID: 1, Status: OrderWaitingForTruck, LoadingTruck: 9}
	open := &Order{ID: 2, Status: OrderWaitingForTruck}
	bay := &AssemblyArea{Capacity: 10, Fill: 4, Orders: []*Order{claimed, open}}

	assert.Same(t, open, bay.nextUnshipped())
	bay.removeOrder(open)
	assert.Nil(t, bay.nextUnshipped())
	assert.True(t, bay.canFit(5))
	assert.False(t, bay.canFit(6))
}

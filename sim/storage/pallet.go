// Package storage implements the zoned aisle/slot/level pallet grid.
//
// Every pallet type owns a fixed, contiguous, equal-size block of aisles. A
// pallet is placed by scanning its zone in aisle, slot, level order and taking
// the first empty cell; zoning is hard, so a full zone reports ErrStorageFull
// even while other zones have room.
//
// Placement is two-phase. Assign claims a cell while the forklift is still
// travelling, and Commit stocks it on arrival. Only stocked cells count as
// available inventory and only stocked cells can be retrieved, while both
// claimed and stocked cells count toward occupancy.
package storage

import "fmt"

// Strategy selects which stocked cell Retrieve takes.
type Strategy string

const (
	// FIFO scans each slot from the bottom level up.
	FIFO Strategy = "FIFO"
	// LIFO scans each slot from the top level down.
	LIFO Strategy = "LIFO"
)

// ValidStrategies is the set of recognized retrieval strategies.
var ValidStrategies = map[Strategy]bool{FIFO: true, LIFO: true}

// ParseStrategy converts a config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	if !ValidStrategies[Strategy(s)] {
		return "", fmt.Errorf("unknown retrieval strategy %q (want FIFO or LIFO)", s)
	}
	return Strategy(s), nil
}

// Location says where a pallet currently is.
type Location int

const (
	OnTruck Location = iota
	AtDock
	InTransit
	Stored
	Picked
)

func (l Location) String() string {
	switch l {
	case OnTruck:
		return "on-truck"
	case AtDock:
		return "at-dock"
	case InTransit:
		return "in-transit"
	case Stored:
		return "stored"
	case Picked:
		return "picked"
	}
	return fmt.Sprintf("Location(%d)", int(l))
}

// Pallet is the atomic, typed unit of goods.
// Cell and Coordinate are meaningful only while Location is InTransit or Stored.
type Pallet struct {
	ID         string
	Type       string
	Location   Location
	Cell       Cell
	Coordinate Coordinate
	CreatedAt  float64
	UnloadedAt float64
	StoredAt   float64
}

func (p *Pallet) String() string {
	return fmt.Sprintf("%s(%s)", p.ID, p.Type)
}

// Cell addresses one position in the grid.
type Cell struct {
	Aisle int
	Slot  int
	Level int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.Aisle, c.Slot, c.Level)
}

// Coordinate is a point in facility space. X and Y are in floor units,
// Z is the rack level.
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

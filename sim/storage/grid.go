package storage

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/inference-sim/warehouse-sim/sim"
)

var (
	// ErrStorageFull is returned by Assign when the pallet type's zone has no empty cell.
	ErrStorageFull = errors.New("storage zone full")
	// ErrNotFound is returned by Retrieve when the pallet type's zone has no stocked cell.
	ErrNotFound = errors.New("no stocked pallet")
	// ErrUnknownType is returned for a pallet type with no zone.
	ErrUnknownType = errors.New("unknown pallet type")
	// ErrNotClaimed is returned by Commit for a cell that was not claimed by Assign.
	ErrNotClaimed = errors.New("cell not claimed")
)

type cellState uint8

const (
	cellEmpty cellState = iota
	cellClaimed
	cellStocked
)

// GridConfig sizes a Grid.
type GridConfig struct {
	Aisles int
	Slots  int
	Levels int
	Types  []string
	Layout Layout
}

type zone struct {
	palletType string
	firstAisle int
	lastAisle  int // inclusive
	claimed    int
	stocked    int
}

// Grid is the aisle × slot × level pallet rack.
// It is not safe for concurrent use; a run drives it from a single goroutine.
type Grid struct {
	aisles, slots, levels int

	cells   []cellState
	pallets []*Pallet
	coords  []Coordinate

	zones    map[string]*zone
	typeList []string
	occupied int
}

// NewGrid builds an empty grid and its zoning. The number of aisles must divide
// evenly into one zone per type and into the layout's sections.
func NewGrid(cfg GridConfig) (*Grid, error) {
	switch {
	case cfg.Aisles <= 0:
		return nil, sim.NewConfigError("storage_aisles", "must be > 0, got %d", cfg.Aisles)
	case cfg.Slots <= 0:
		return nil, sim.NewConfigError("slots_per_aisle", "must be > 0, got %d", cfg.Slots)
	case cfg.Levels <= 0:
		return nil, sim.NewConfigError("levels_per_slot", "must be > 0, got %d", cfg.Levels)
	case len(cfg.Types) == 0:
		return nil, sim.NewConfigError("pallet_types", "at least one pallet type is required")
	case cfg.Aisles%len(cfg.Types) != 0:
		return nil, sim.NewConfigError("storage_aisles",
			"%d aisles cannot be zoned evenly across %d pallet types", cfg.Aisles, len(cfg.Types))
	case cfg.Layout.Sections <= 0:
		return nil, sim.NewConfigError("storage_layout.sections", "must be > 0, got %d", cfg.Layout.Sections)
	case cfg.Aisles%cfg.Layout.Sections != 0:
		return nil, sim.NewConfigError("storage_layout.sections",
			"%d aisles cannot be split evenly into %d sections", cfg.Aisles, cfg.Layout.Sections)
	}

	total := cfg.Aisles * cfg.Slots * cfg.Levels
	g := &Grid{
		aisles:   cfg.Aisles,
		slots:    cfg.Slots,
		levels:   cfg.Levels,
		cells:    make([]cellState, total),
		pallets:  make([]*Pallet, total),
		coords:   cfg.Layout.coordinates(cfg.Aisles, cfg.Slots, cfg.Levels),
		zones:    make(map[string]*zone, len(cfg.Types)),
		typeList: append([]string(nil), cfg.Types...),
	}

	zoneSize := cfg.Aisles / len(cfg.Types)
	for i, t := range cfg.Types {
		if _, dup := g.zones[t]; dup {
			return nil, sim.NewConfigError("pallet_types", "duplicate pallet type %q", t)
		}
		g.zones[t] = &zone{palletType: t, firstAisle: i * zoneSize, lastAisle: (i+1)*zoneSize - 1}
	}
	return g, nil
}

func (g *Grid) index(c Cell) int {
	return (c.Aisle*g.slots+c.Slot)*g.levels + c.Level
}

func (g *Grid) zoneFor(palletType string) (*zone, error) {
	z, ok := g.zones[palletType]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, palletType)
	}
	return z, nil
}

// Assign claims the first empty cell of the pallet's zone, scanning aisle, then
// slot, then level. The pallet moves to InTransit until Commit.
func (g *Grid) Assign(p *Pallet) (Cell, Coordinate, error) {
	z, err := g.zoneFor(p.Type)
	if err != nil {
		return Cell{}, Coordinate{}, err
	}
	for a := z.firstAisle; a <= z.lastAisle; a++ {
		for s := 0; s < g.slots; s++ {
			for l := 0; l < g.levels; l++ {
				c := Cell{Aisle: a, Slot: s, Level: l}
				i := g.index(c)
				if g.cells[i] != cellEmpty {
					continue
				}
				g.cells[i] = cellClaimed
				g.pallets[i] = p
				z.claimed++
				g.occupied++
				p.Location = InTransit
				p.Cell = c
				p.Coordinate = g.coords[i]
				return c, g.coords[i], nil
			}
		}
	}
	return Cell{}, Coordinate{}, fmt.Errorf("%w: type %s", ErrStorageFull, p.Type)
}

// Commit stocks a cell previously claimed by Assign, making its pallet
// available for retrieval.
func (g *Grid) Commit(c Cell, at float64) error {
	if !g.inBounds(c) {
		return fmt.Errorf("commit %s: out of bounds", c)
	}
	i := g.index(c)
	if g.cells[i] != cellClaimed {
		return fmt.Errorf("commit %s: %w", c, ErrNotClaimed)
	}
	p := g.pallets[i]
	z := g.zones[p.Type]
	g.cells[i] = cellStocked
	z.claimed--
	z.stocked++
	p.Location = Stored
	p.StoredAt = at
	return nil
}

// Retrieve empties the first stocked cell of the type's zone. FIFO scans each
// slot bottom-up, LIFO top-down; slots are visited in zone order either way.
func (g *Grid) Retrieve(palletType string, strategy Strategy) (Cell, Coordinate, *Pallet, error) {
	z, err := g.zoneFor(palletType)
	if err != nil {
		return Cell{}, Coordinate{}, nil, err
	}
	if !ValidStrategies[strategy] {
		return Cell{}, Coordinate{}, nil, fmt.Errorf("retrieve %s: unknown strategy %q", palletType, strategy)
	}
	for a := z.firstAisle; a <= z.lastAisle; a++ {
		for s := 0; s < g.slots; s++ {
			for k := 0; k < g.levels; k++ {
				l := k
				if strategy == LIFO {
					l = g.levels - 1 - k
				}
				c := Cell{Aisle: a, Slot: s, Level: l}
				i := g.index(c)
				if g.cells[i] != cellStocked {
					continue
				}
				p := g.pallets[i]
				g.cells[i] = cellEmpty
				g.pallets[i] = nil
				z.stocked--
				g.occupied--
				p.Location = Picked
				return c, g.coords[i], p, nil
			}
		}
	}
	return Cell{}, Coordinate{}, nil, fmt.Errorf("%w: type %s", ErrNotFound, palletType)
}

// InitialFill stocks floor(fraction × slots × levels) cells in every aisle of
// every zone, in scan order. It models a warehouse that is not empty at the
// start of a run and must be called before any Assign.
func (g *Grid) InitialFill(fraction float64, at float64) (int, error) {
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return 0, sim.NewConfigError("initial_storage", "fraction must be in [0, 1], got %v", fraction)
	}
	perAisle := int(math.Floor(fraction * float64(g.slots*g.levels)))
	placed := 0
	for _, t := range g.typeList {
		z := g.zones[t]
		for a := z.firstAisle; a <= z.lastAisle; a++ {
			n := 0
			for s := 0; s < g.slots && n < perAisle; s++ {
				for l := 0; l < g.levels && n < perAisle; l++ {
					c := Cell{Aisle: a, Slot: s, Level: l}
					i := g.index(c)
					if g.cells[i] != cellEmpty {
						continue
					}
					placed++
					g.cells[i] = cellStocked
					g.pallets[i] = &Pallet{
						ID:         fmt.Sprintf("initial-%s-%d", t, placed),
						Type:       t,
						Location:   Stored,
						Cell:       c,
						Coordinate: g.coords[i],
						CreatedAt:  at,
						StoredAt:   at,
					}
					z.stocked++
					g.occupied++
					n++
				}
			}
		}
	}
	return placed, nil
}

func (g *Grid) inBounds(c Cell) bool {
	return c.Aisle >= 0 && c.Aisle < g.aisles &&
		c.Slot >= 0 && c.Slot < g.slots &&
		c.Level >= 0 && c.Level < g.levels
}

// Available returns the number of stocked pallets of the given type.
func (g *Grid) Available(palletType string) int {
	if z, ok := g.zones[palletType]; ok {
		return z.stocked
	}
	return 0
}

// InTransit returns the number of claimed, not yet stocked, cells of the type.
func (g *Grid) InTransit(palletType string) int {
	if z, ok := g.zones[palletType]; ok {
		return z.claimed
	}
	return 0
}

// Occupied returns the number of claimed or stocked cells in the whole grid.
func (g *Grid) Occupied() int {
	return g.occupied
}

// TotalCells returns aisles × slots × levels.
func (g *Grid) TotalCells() int {
	return len(g.cells)
}

// Occupancy returns occupied cells over total cells as a percentage.
func (g *Grid) Occupancy() float64 {
	return float64(g.occupied) / float64(len(g.cells)) * 100
}

// Zone returns the inclusive aisle range of a pallet type.
func (g *Grid) Zone(palletType string) (first, last int, ok bool) {
	z, ok := g.zones[palletType]
	if !ok {
		return 0, 0, false
	}
	return z.firstAisle, z.lastAisle, true
}

// Types returns the pallet types in zone order.
func (g *Grid) Types() []string {
	return g.typeList
}

// CoordinateOf returns the fixed position of a cell.
func (g *Grid) CoordinateOf(c Cell) Coordinate {
	return g.coords[g.index(c)]
}

// PalletAt returns the pallet occupying a cell, or nil.
func (g *Grid) PalletAt(c Cell) *Pallet {
	return g.pallets[g.index(c)]
}

// Dump describes per-zone counters for an InvariantViolation report.
func (g *Grid) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "storage: occupied=%d/%d", g.occupied, len(g.cells))
	for _, t := range g.typeList {
		z := g.zones[t]
		fmt.Fprintf(&sb, " %s[aisles %d-%d stocked=%d claimed=%d]", t, z.firstAisle, z.lastAisle, z.stocked, z.claimed)
	}
	return sb.String()
}

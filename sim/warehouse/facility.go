package warehouse

import (
	"fmt"
	"math"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/storage"
)

// Floor plan of the docks and bays.
const (
	unloadingDockX      = 2
	unloadingDockStartY = 5
	unloadingDockWidth  = 5

	bayStartX = 32
	bayWidth  = 6
	bayY      = -5

	loadingDockStartX = 32
	loadingDockWidth  = 6
	loadingDockY      = -11
)

// Dock is an unloading or loading bay door. The dock pool ticket decides which
// truck may stand here; the Dock only records who does.
type Dock struct {
	ID       int
	Location storage.Coordinate
	Occupied bool
	// Staging holds unloaded pallets waiting for put-away.
	Staging sim.Queue[*storage.Pallet]

	occupiedSince float64
}

func (d *Dock) occupy(now float64) {
	d.Occupied = true
	d.occupiedSince = now
}

// vacate frees the dock and returns how long it was held.
func (d *Dock) vacate(now float64) float64 {
	d.Occupied = false
	return now - d.occupiedSince
}

// AssemblyArea is a floor bay where orders are built and wait for a truck.
type AssemblyArea struct {
	ID       int
	Location storage.Coordinate
	Capacity int
	Fill     int
	Occupied bool
	// Orders assembled here that have not shipped, in assembly order.
	Orders []*Order

	// blocked holds the bay pool ticket while the bay is too full to take
	// another order of maximum size.
	blocked *sim.Ticket
}

// canFit reports whether the bay has room for an order of the given size.
func (a *AssemblyArea) canFit(size int) bool {
	return a.Capacity-a.Fill > size
}

// nextUnshipped returns the first order waiting for a truck that no truck has claimed.
func (a *AssemblyArea) nextUnshipped() *Order {
	for _, o := range a.Orders {
		if o.Status == OrderWaitingForTruck && o.LoadingTruck == 0 {
			return o
		}
	}
	return nil
}

func (a *AssemblyArea) removeOrder(o *Order) {
	for i, x := range a.Orders {
		if x == o {
			a.Orders = append(a.Orders[:i], a.Orders[i+1:]...)
			return
		}
	}
}

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderCreated               OrderStatus = "created"
	OrderWaitingForInventory   OrderStatus = "waiting-for-inventory"
	OrderWaitingForAssemblyBay OrderStatus = "waiting-for-assembly-bay"
	OrderAssembling            OrderStatus = "assembling"
	OrderAssembled             OrderStatus = "assembled"
	OrderWaitingForTruck       OrderStatus = "waiting-for-truck"
	OrderShipped               OrderStatus = "shipped"
)

// Order is a customer request for a mix of pallet types.
type Order struct {
	ID       int
	Required map[string]int
	Total    int
	Status   OrderStatus

	CreatedAt   float64
	ReservedAt  float64
	AssembledAt float64
	ShippedAt   float64

	Bay          *AssemblyArea
	LoadingTruck int // id of the truck that claimed it; 0 if unclaimed
}

// picks expands the requirement into one pallet type per pick, in type order.
func (o *Order) picks(types []string) []string {
	out := make([]string, 0, o.Total)
	for _, t := range types {
		for i := 0; i < o.Required[t]; i++ {
			out = append(out, t)
		}
	}
	return out
}

func (o *Order) String() string {
	return fmt.Sprintf("order-%d(%d pallets)", o.ID, o.Total)
}

// TruckState is the lifecycle state of a truck.
type TruckState string

const (
	TruckArrived                  TruckState = "arrived"
	TruckWaitingForDock           TruckState = "waiting-for-dock"
	TruckUnloading                TruckState = "unloading"
	TruckWaitingForAssembledOrder TruckState = "waiting-for-assembled-order"
	TruckTransferring             TruckState = "transferring"
	TruckLoading                  TruckState = "loading"
	TruckDeparting                TruckState = "departing"
	TruckDeparted                 TruckState = "departed"
)

// UnloadingTruck delivers a manifest of pallets to an unloading dock.
type UnloadingTruck struct {
	ID       int
	Capacity int
	Manifest []*storage.Pallet
	State    TruckState
	Dock     *Dock
}

// unload removes the next pallet from the manifest.
func (t *UnloadingTruck) unload() (*storage.Pallet, bool) {
	if len(t.Manifest) == 0 {
		return nil, false
	}
	p := t.Manifest[0]
	t.Manifest = t.Manifest[1:]
	return p, true
}

// LoadingTruck collects one assembled order from a loading dock.
type LoadingTruck struct {
	ID       int
	Capacity int
	Loaded   int
	State    TruckState
	Dock     *Dock
	Order    *Order
}

// load adds pallets up to capacity and returns how many fit.
func (t *LoadingTruck) load(n int) int {
	fit := min(n, t.Capacity-t.Loaded)
	t.Loaded += fit
	return fit
}

func newUnloadingDocks(n int) []*Dock {
	docks := make([]*Dock, n)
	for i := range docks {
		docks[i] = &Dock{ID: i + 1, Location: storage.Coordinate{X: unloadingDockX, Y: unloadingDockStartY + float64(i*unloadingDockWidth)}}
	}
	return docks
}

func newLoadingDocks(n int) []*Dock {
	docks := make([]*Dock, n)
	for i := range docks {
		docks[i] = &Dock{ID: i + 1, Location: storage.Coordinate{X: loadingDockStartX + float64(i*loadingDockWidth), Y: loadingDockY}}
	}
	return docks
}

func newAssemblyAreas(n, capacity int) []*AssemblyArea {
	bays := make([]*AssemblyArea, n)
	for i := range bays {
		bays[i] = &AssemblyArea{ID: i + 1, Capacity: capacity, Location: storage.Coordinate{X: bayStartX + float64(i*bayWidth), Y: bayY}}
	}
	return bays
}

func firstFreeDock(docks []*Dock) (int, *Dock) {
	for i, d := range docks {
		if !d.Occupied {
			return i, d
		}
	}
	return -1, nil
}

func firstFreeBay(bays []*AssemblyArea) *AssemblyArea {
	for _, b := range bays {
		if !b.Occupied {
			return b
		}
	}
	return nil
}

// rackLeg is the one-way forklift time between a rack cell and a floor
// location: Manhattan distance on the floor plus the lift to the cell's level.
func rackLeg(rack, floor storage.Coordinate, speedXY, speedZ float64) float64 {
	return math.Abs(rack.X-floor.X)/speedXY + math.Abs(rack.Y-floor.Y)/speedXY + rack.Z/speedZ
}

// floorLeg is the one-way forklift time between two floor locations.
func floorLeg(a, b storage.Coordinate, speedXY float64) float64 {
	return (math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)) / speedXY
}

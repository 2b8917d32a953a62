// Package warehouse wires the kernel, storage grid and metrics into the
// receiving, storage, order assembly and shipping pipelines of one facility.
package warehouse

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/metrics"
	"github.com/inference-sim/warehouse-sim/sim/storage"
	"github.com/inference-sim/warehouse-sim/sim/trace"
)

// Simulation is a single run of a configured facility. It is driven from one
// goroutine; create a new Simulation for every run.
type Simulation struct {
	cfg      Config
	seed     int64
	sim      *sim.Simulator
	rng      *sim.PartitionedRNG
	grid     *storage.Grid
	ledger   *Ledger
	agg      *metrics.Aggregator
	strategy storage.Strategy
	trace    *trace.RunTrace

	forklifts      *sim.ResourcePool
	unloadingPool  *sim.ResourcePool
	loadingPool    *sim.ResourcePool
	bayPool        *sim.ResourcePool
	unloadingDocks []*Dock
	loadingDocks   []*Dock
	bays           []*AssemblyArea

	orders      []*Order
	nextTruckID int
	nextOrderID int
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithTrace records executed events and storage decisions into rt.
func WithTrace(rt *trace.RunTrace) Option {
	return func(s *Simulation) { s.trace = rt }
}

// New validates cfg and builds a facility ready to run. The grid is
// pre-stocked and the arrival generators and utilization sampler are
// scheduled, but no event has executed yet.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := storage.ParseStrategy(cfg.RetrievalStrategy)
	if err != nil {
		return nil, sim.NewConfigError("retrieval_strategy", "%v", err)
	}

	s := &Simulation{cfg: cfg, strategy: strategy}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.RandomSeed != nil {
		s.seed = *cfg.RandomSeed
	} else {
		s.seed = time.Now().UnixNano()
		logrus.Infof("No random_seed configured, using %d", s.seed)
	}
	s.rng = sim.NewPartitionedRNG(sim.NewSimulationKey(s.seed))

	s.sim = sim.NewSimulator()
	s.sim.Trace = s.trace

	s.grid, err = storage.NewGrid(storage.GridConfig{
		Aisles: cfg.StorageAisles,
		Slots:  cfg.SlotsPerAisle,
		Levels: cfg.LevelsPerSlot,
		Types:  cfg.PalletTypes,
		Layout: cfg.StorageLayout,
	})
	if err != nil {
		return nil, err
	}
	placed, err := s.grid.InitialFill(cfg.InitialStorage, 0)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Initial fill stocked %d of %d cells", placed, s.grid.TotalCells())
	s.ledger = NewLedger(s.grid)

	if s.forklifts, err = sim.NewResourcePool(s.sim, metrics.PoolForklifts, cfg.Forklifts); err != nil {
		return nil, err
	}
	if s.unloadingPool, err = sim.NewResourcePool(s.sim, metrics.PoolUnloadingDocks, cfg.NumUnloadingDocks); err != nil {
		return nil, err
	}
	if s.loadingPool, err = sim.NewResourcePool(s.sim, metrics.PoolLoadingDocks, cfg.NumLoadingDocks); err != nil {
		return nil, err
	}
	if s.bayPool, err = sim.NewResourcePool(s.sim, metrics.PoolAssemblyBays, cfg.NumAssemblyAreas); err != nil {
		return nil, err
	}
	s.sim.RegisterDumper(s.grid)
	s.sim.RegisterDumper(s.ledger)

	s.unloadingDocks = newUnloadingDocks(cfg.NumUnloadingDocks)
	s.loadingDocks = newLoadingDocks(cfg.NumLoadingDocks)
	s.bays = newAssemblyAreas(cfg.NumAssemblyAreas, cfg.AssemblyAreaCapacity)

	s.agg = metrics.NewAggregator(cfg.WarmupMinutes)
	s.agg.RegisterPool(metrics.PoolForklifts, cfg.Forklifts)
	s.agg.RegisterPool(metrics.PoolUnloadingDocks, cfg.NumUnloadingDocks)
	s.agg.RegisterPool(metrics.PoolLoadingDocks, cfg.NumLoadingDocks)
	s.agg.RegisterPool(metrics.PoolAssemblyBays, cfg.NumAssemblyAreas)

	s.startGenerators()
	s.startSampler()
	return s, nil
}

// Run executes a validated config to its horizon and returns the results.
func Run(cfg Config, opts ...Option) (metrics.Results, error) {
	s, err := New(cfg, opts...)
	if err != nil {
		return metrics.Results{}, err
	}
	return s.Run()
}

// Run executes the simulation to the configured duration and summarizes it.
// An InvariantViolation aborts the run and is returned as the error.
func (s *Simulation) Run() (metrics.Results, error) {
	if err := s.RunUntil(s.cfg.SimulationDurationMinutes); err != nil {
		return metrics.Results{}, err
	}
	return s.Results(), nil
}

// RunUntil advances the run to t. It may be called repeatedly with
// increasing times.
func (s *Simulation) RunUntil(t float64) error {
	if t > s.cfg.SimulationDurationMinutes {
		t = s.cfg.SimulationDurationMinutes
	}
	return s.sim.RunUntil(t)
}

// Results summarizes the run so far. Docks still occupied count as busy up to
// the current clock; that open time is not stored, so Results may be called
// between RunUntil steps.
func (s *Simulation) Results() metrics.Results {
	now := s.sim.Now()
	open := make(map[string]float64, 2)
	for _, d := range s.unloadingDocks {
		if d.Occupied {
			open[metrics.PoolUnloadingDocks] += now - d.occupiedSince
		}
	}
	for _, d := range s.loadingDocks {
		if d.Occupied {
			open[metrics.PoolLoadingDocks] += now - d.occupiedSince
		}
	}
	r := s.agg.Summarize(s.cfg.SimulationDurationMinutes, s.grid.Occupancy(), open)
	r.Seed = s.seed
	return r
}

// Seed returns the seed actually used, which differs from the config when
// none was set.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// Now returns the current virtual time.
func (s *Simulation) Now() float64 {
	return s.sim.Now()
}

// Grid exposes the storage grid for inspection.
func (s *Simulation) Grid() *storage.Grid {
	return s.grid
}

// Ledger exposes the reservation ledger for inspection.
func (s *Simulation) Ledger() *Ledger {
	return s.ledger
}

// Orders returns every order created so far, in creation order.
func (s *Simulation) Orders() []*Order {
	return s.orders
}

// UnloadingDocks returns the unloading docks.
func (s *Simulation) UnloadingDocks() []*Dock {
	return s.unloadingDocks
}

// LoadingDocks returns the loading docks.
func (s *Simulation) LoadingDocks() []*Dock {
	return s.loadingDocks
}

// AssemblyAreas returns the assembly bays, index-paired with LoadingDocks.
func (s *Simulation) AssemblyAreas() []*AssemblyArea {
	return s.bays
}

// Forklifts returns the forklift pool.
func (s *Simulation) Forklifts() *sim.ResourcePool {
	return s.forklifts
}

// AssemblyBayPool returns the pool guarding the assembly bays.
func (s *Simulation) AssemblyBayPool() *sim.ResourcePool {
	return s.bayPool
}

// Aggregator exposes the metrics collected so far.
func (s *Simulation) Aggregator() *metrics.Aggregator {
	return s.agg
}

// interval returns the time to the next arrival of a stream with the given rate.
func (s *Simulation) interval(rng *rand.Rand, perHour float64) float64 {
	mean := 60 / perHour
	if s.cfg.ArrivalProcess == ArrivalPoisson {
		return rng.ExpFloat64() * mean
	}
	return mean
}

// drawType picks a pallet type by its configured probability.
func (s *Simulation) drawType(rng *rand.Rand) string {
	u := rng.Float64()
	acc := 0.0
	for i, p := range s.cfg.PalletProbs {
		acc += p
		if u < acc {
			return s.cfg.PalletTypes[i]
		}
	}
	// rounding left a sliver above the cumulative sum
	for i := len(s.cfg.PalletProbs) - 1; i >= 0; i-- {
		if s.cfg.PalletProbs[i] > 0 {
			return s.cfg.PalletTypes[i]
		}
	}
	return s.cfg.PalletTypes[len(s.cfg.PalletTypes)-1]
}

// startGenerators schedules the three arrival streams. A rate of zero
// disables its stream.
func (s *Simulation) startGenerators() {
	unloading := s.rng.ForSubsystem(sim.SubsystemUnloading)
	s.generate("unloading-arrivals", s.cfg.UnloadingTrucksPerHour, unloading, func() {
		n := s.cfg.TruckCapacityMin + unloading.Intn(s.cfg.TruckCapacityMax-s.cfg.TruckCapacityMin+1)
		types := make([]string, n)
		for i := range types {
			types[i] = s.drawType(unloading)
		}
		s.ArriveUnloadingTruck(types)
	})

	orders := s.rng.ForSubsystem(sim.SubsystemOrders)
	s.generate("order-arrivals", s.cfg.OrdersPerHour, orders, func() {
		n := s.cfg.MinimumOrderSize + orders.Intn(s.cfg.MaximumOrderSize-s.cfg.MinimumOrderSize+1)
		required := make(map[string]int, len(s.cfg.PalletTypes))
		for i := 0; i < n; i++ {
			required[s.drawType(orders)]++
		}
		s.PlaceOrder(required)
	})

	loading := s.rng.ForSubsystem(sim.SubsystemLoading)
	s.generate("loading-arrivals", s.cfg.LoadingTrucksPerHour, loading, func() {
		s.ArriveLoadingTruck()
	})
}

func (s *Simulation) generate(name string, perHour float64, rng *rand.Rand, arrive func()) {
	if perHour <= 0 {
		return
	}
	s.sim.Spawn(name, func(p *sim.Process) {
		var loop func()
		loop = func() {
			p.Sleep(s.interval(rng, perHour), func() {
				arrive()
				loop()
			})
		}
		loop()
	})
}

// startSampler observes every pool's held count once per sample interval
// after the warm-up.
func (s *Simulation) startSampler() {
	pools := []*sim.ResourcePool{s.forklifts, s.unloadingPool, s.loadingPool, s.bayPool}
	s.sim.Spawn("sampler", func(p *sim.Process) {
		var loop func()
		loop = func() {
			p.Sleep(s.cfg.SampleInterval, func() {
				for _, pool := range pools {
					s.agg.Sample(pool.Name(), p.Now(), pool.Held())
				}
				loop()
			})
		}
		p.Sleep(s.cfg.WarmupMinutes, loop)
	})
}

func (s *Simulation) newTruckID() int {
	s.nextTruckID++
	return s.nextTruckID
}

func (s *Simulation) traceStorage(op trace.StorageOp, palletType, palletID string, c storage.Cell, ok bool) {
	rec := trace.StorageRecord{Clock: s.sim.Now(), Op: op, PalletType: palletType, PalletID: palletID, Aisle: -1, Slot: -1, Level: -1}
	if ok {
		rec.Aisle, rec.Slot, rec.Level = c.Aisle, c.Slot, c.Level
	}
	s.trace.RecordStorage(rec)
}

func palletID(truck, n int) string {
	return fmt.Sprintf("truck%d-%d", truck, n)
}

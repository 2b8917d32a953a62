// Package metrics accumulates per-operation durations and pool usage during a
// warehouse run and derives the reported results at the end.
package metrics

import (
	"github.com/sirupsen/logrus"
)

// Kind names a recorded duration series.
type Kind string

const (
	TruckUnloadTime   Kind = "truck_unloading_time"
	TruckLoadTime     Kind = "truck_loading_time"
	OrderLoadingWait  Kind = "order_loading_wait_time"
	OrderAssemblyWait Kind = "order_assembly_wait_time"
	OrderAssemblyTime Kind = "order_assembly_time"
	PalletPutTime     Kind = "pallet_put_time"
	PalletPickupTime  Kind = "pallet_pickup_time"
)

// AllKinds lists every duration series in report order.
var AllKinds = []Kind{
	TruckUnloadTime, TruckLoadTime, OrderLoadingWait, OrderAssemblyWait,
	OrderAssemblyTime, PalletPutTime, PalletPickupTime,
}

// Pool names the aggregator knows how to summarize.
const (
	PoolForklifts      = "forklifts"
	PoolUnloadingDocks = "unloading-docks"
	PoolLoadingDocks   = "loading-docks"
	PoolAssemblyBays   = "assembly-bays"
)

// Sample is one utilization observation of a pool.
type Sample struct {
	Clock float64
	Held  int
}

// Aggregator collects everything a run reports. Duration records and
// utilization samples at or before the warm-up time are discarded; busy time
// is accumulated for the whole run.
type Aggregator struct {
	warmup     float64
	durations  map[Kind][]float64
	samples    map[string][]Sample
	busy       map[string]float64
	capacities map[string]int
	counters   map[string]int
	discarded  int
}

// NewAggregator returns an empty aggregator with the given warm-up time.
func NewAggregator(warmup float64) *Aggregator {
	return &Aggregator{
		warmup:     warmup,
		durations:  make(map[Kind][]float64),
		samples:    make(map[string][]Sample),
		busy:       make(map[string]float64),
		capacities: make(map[string]int),
		counters:   make(map[string]int),
	}
}

// Warmup returns the warm-up time.
func (a *Aggregator) Warmup() float64 {
	return a.warmup
}

// RegisterPool declares a pool's capacity for utilization calculations.
func (a *Aggregator) RegisterPool(name string, capacity int) {
	a.capacities[name] = capacity
}

// Record adds a duration observed at time at. Records during warm-up are dropped.
func (a *Aggregator) Record(kind Kind, value, at float64) {
	if at <= a.warmup {
		a.discarded++
		return
	}
	a.durations[kind] = append(a.durations[kind], value)
}

// Sample records a pool's held count at time at. Samples before the end of the
// warm-up are dropped.
func (a *Aggregator) Sample(pool string, at float64, held int) {
	if at < a.warmup {
		return
	}
	a.samples[pool] = append(a.samples[pool], Sample{Clock: at, Held: held})
}

// AddBusy adds d minutes of occupancy to a pool's busy total.
func (a *Aggregator) AddBusy(pool string, d float64) {
	if d < 0 {
		logrus.Warnf("metrics: ignoring negative busy duration %.4f for %s", d, pool)
		return
	}
	a.busy[pool] += d
}

// Count increments a named counter.
func (a *Aggregator) Count(name string) {
	a.counters[name]++
}

// Counter returns a named counter.
func (a *Aggregator) Counter(name string) int {
	return a.counters[name]
}

// Values returns the recorded durations of a kind.
func (a *Aggregator) Values(kind Kind) []float64 {
	return a.durations[kind]
}

// Samples returns the recorded utilization samples of a pool.
func (a *Aggregator) Samples(pool string) []Sample {
	return a.samples[pool]
}

// Busy returns a pool's accumulated busy time.
func (a *Aggregator) Busy(pool string) float64 {
	return a.busy[pool]
}

// Discarded returns the number of duration records dropped by the warm-up filter.
func (a *Aggregator) Discarded() int {
	return a.discarded
}

// TimeWeightedUtilization returns the pool's average held fraction over
// [warm-up, horizon] as a percentage. Each sample holds until the next one and
// the last holds until the horizon. The first sample also covers the gap back
// to the warm-up boundary, so the weights always add up to the whole window.
// Nil when there are no samples, no registered capacity, or no post-warm-up
// window.
func (a *Aggregator) TimeWeightedUtilization(pool string, horizon float64) *float64 {
	samples := a.samples[pool]
	capacity := a.capacities[pool]
	window := horizon - a.warmup
	if len(samples) == 0 || capacity <= 0 || window <= 0 {
		return nil
	}
	area := 0.0
	for i, s := range samples {
		start := s.Clock
		if i == 0 {
			start = a.warmup
		}
		end := horizon
		if i+1 < len(samples) {
			end = samples[i+1].Clock
		}
		area += float64(s.Held) * (end - start)
	}
	u := area / window / float64(capacity) * 100
	return &u
}

// BusyUtilization returns busy time over (length × capacity) as a percentage.
// Nil when the pool has no registered capacity or length is not positive.
func (a *Aggregator) BusyUtilization(pool string, length float64) *float64 {
	return a.busyUtilization(pool, length, 0)
}

// busyUtilization adds open minutes that have not been recorded yet, such as
// visits still in progress, without storing them.
func (a *Aggregator) busyUtilization(pool string, length, open float64) *float64 {
	capacity := a.capacities[pool]
	if capacity <= 0 || length <= 0 {
		return nil
	}
	u := (a.busy[pool] + open) / (length * float64(capacity)) * 100
	return &u
}

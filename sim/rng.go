package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. Equal keys and equal configs
// give identical event orders and metrics.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Arrival streams. Each draws from its own source.
const (
	// SubsystemUnloading draws unloading-truck arrivals, capacities and manifests.
	// Uses master seed directly so a single-generator run matches a plain rand.New(seed).
	SubsystemUnloading = "unloading"

	// SubsystemOrders draws order arrivals, sizes and type mixes.
	SubsystemOrders = "orders"

	// SubsystemLoading draws loading-truck arrivals.
	SubsystemLoading = "loading"
)

// PartitionedRNG hands out one *rand.Rand per arrival stream, so enabling or
// disabling one generator never shifts another generator's draws. The unloading
// stream is seeded with the key itself; every other stream uses key XOR
// fnv1a64(name). Not safe for concurrent use.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the cached source for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	seed := int64(p.key)
	if name != SubsystemUnloading {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

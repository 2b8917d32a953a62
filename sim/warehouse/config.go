package warehouse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/storage"
)

// Arrival processes.
const (
	ArrivalDeterministic = "deterministic"
	ArrivalPoisson       = "poisson"
)

// ValidArrivalProcesses is the set of recognized arrival process names.
var ValidArrivalProcesses = map[string]bool{ArrivalDeterministic: true, ArrivalPoisson: true}

// Config describes a facility and its workload. Times are in minutes, rates
// per hour, distances in floor units.
type Config struct {
	Forklifts            int     `yaml:"forklifts" json:"forklifts"`
	NumUnloadingDocks    int     `yaml:"num_unloading_docks" json:"num_unloading_docks"`
	NumAssemblyAreas     int     `yaml:"num_assembly_area" json:"num_assembly_area"`
	NumLoadingDocks      int     `yaml:"num_loading_docks" json:"num_loading_docks"`
	AssemblyAreaCapacity int     `yaml:"assembly_area_capacity" json:"assembly_area_capacity"`
	ForkliftSpeedXY      float64 `yaml:"forklift_speed_xy" json:"forklift_speed_xy"`
	LeverSpeedZ          float64 `yaml:"lever_speed_z" json:"lever_speed_z"`

	// Caps on forklifts working one truck or one order at the same time.
	ForkliftsPerUnloadDock    int `yaml:"forklifts_per_unload_dock" json:"forklifts_per_unload_dock"`
	ForkliftsPerOrderAssembly int `yaml:"forklifts_per_order_assembly" json:"forklifts_per_order_assembly"`

	UnloadingTrucksPerHour float64 `yaml:"unloading_trucks_per_hour" json:"unloading_trucks_per_hour"`
	LoadingTrucksPerHour   float64 `yaml:"loading_trucks_per_hour" json:"loading_trucks_per_hour"`
	OrdersPerHour          float64 `yaml:"orders_per_hour" json:"orders_per_hour"`
	ArrivalProcess         string  `yaml:"arrival_process" json:"arrival_process"`
	TruckCapacityMin       int     `yaml:"truck_capacity_min" json:"truck_capacity_min"`
	TruckCapacityMax       int     `yaml:"truck_capacity_max" json:"truck_capacity_max"`
	MinimumOrderSize       int     `yaml:"minimum_order_size" json:"minimum_order_size"`
	MaximumOrderSize       int     `yaml:"maximum_order_size" json:"maximum_order_size"`

	StorageAisles     int            `yaml:"storage_aisles" json:"storage_aisles"`
	SlotsPerAisle     int            `yaml:"slots_per_aisle" json:"slots_per_aisle"`
	LevelsPerSlot     int            `yaml:"levels_per_slot" json:"levels_per_slot"`
	StorageLayout     storage.Layout `yaml:"storage_layout" json:"storage_layout"`
	InitialStorage    float64        `yaml:"initial_storage" json:"initial_storage"`
	RetrievalStrategy string         `yaml:"retrieval_strategy" json:"retrieval_strategy"`
	PalletTypes       []string       `yaml:"pallet_types" json:"pallet_types"`
	PalletProbs       []float64      `yaml:"pallet_probs" json:"pallet_probs"`

	SimulationDurationMinutes float64 `yaml:"simulation_duration_minutes" json:"simulation_duration_minutes"`
	WarmupMinutes             float64 `yaml:"warmup_minutes" json:"warmup_minutes"`
	SampleInterval            float64 `yaml:"sample_interval" json:"sample_interval"`
	UnloadTimePerPallet       float64 `yaml:"unload_time_per_pallet" json:"unload_time_per_pallet"`
	AssemblyTimePerPallet     float64 `yaml:"assembly_time_per_pallet" json:"assembly_time_per_pallet"`
	InventoryPollInterval     float64 `yaml:"inventory_poll_interval" json:"inventory_poll_interval"`
	RandomSeed                *int64  `yaml:"random_seed" json:"random_seed"`
}

// DefaultConfig returns the reference facility: 40 forklifts, 5 unloading
// docks, 7 assembly bays paired with 7 loading docks, and a 32 × 38 × 5 rack
// zoned across eight pallet types, simulated for one day.
func DefaultConfig() Config {
	return Config{
		Forklifts:            40,
		NumUnloadingDocks:    5,
		NumAssemblyAreas:     7,
		NumLoadingDocks:      7,
		AssemblyAreaCapacity: 1000,
		ForkliftSpeedXY:      3,
		LeverSpeedZ:          5,

		ForkliftsPerUnloadDock:    21,
		ForkliftsPerOrderAssembly: 20,

		UnloadingTrucksPerHour: 6,
		LoadingTrucksPerHour:   4,
		OrdersPerHour:          8,
		ArrivalProcess:         ArrivalDeterministic,
		TruckCapacityMin:       20,
		TruckCapacityMax:       20,
		MinimumOrderSize:       5,
		MaximumOrderSize:       12,

		StorageAisles:     32,
		SlotsPerAisle:     38,
		LevelsPerSlot:     5,
		StorageLayout:     storage.DefaultLayout(),
		InitialStorage:    0.2,
		RetrievalStrategy: string(storage.FIFO),
		PalletTypes:       []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8"},
		PalletProbs:       []float64{0.3, 0.15, 0.15, 0.08, 0.08, 0.08, 0.08, 0.08},

		SimulationDurationMinutes: 1440,
		WarmupMinutes:             120,
		SampleInterval:            0.1,
		UnloadTimePerPallet:       0.1,
		AssemblyTimePerPallet:     0.15,
		InventoryPollInterval:     1,
	}
}

// LoadConfig reads a YAML file and overlays it on DefaultConfig.
// Unknown fields are rejected so that typos surface as errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// YAML renders the config in the same shape LoadConfig reads.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every field before a run starts. It returns the first
// problem found as a *sim.ConfigError.
func (c Config) Validate() error {
	positiveInts := []struct {
		field string
		v     int
	}{
		{"forklifts", c.Forklifts},
		{"num_unloading_docks", c.NumUnloadingDocks},
		{"num_assembly_area", c.NumAssemblyAreas},
		{"num_loading_docks", c.NumLoadingDocks},
		{"assembly_area_capacity", c.AssemblyAreaCapacity},
		{"forklifts_per_unload_dock", c.ForkliftsPerUnloadDock},
		{"forklifts_per_order_assembly", c.ForkliftsPerOrderAssembly},
		{"truck_capacity_min", c.TruckCapacityMin},
		{"minimum_order_size", c.MinimumOrderSize},
		{"storage_aisles", c.StorageAisles},
		{"slots_per_aisle", c.SlotsPerAisle},
		{"levels_per_slot", c.LevelsPerSlot},
	}
	for _, f := range positiveInts {
		if f.v <= 0 {
			return sim.NewConfigError(f.field, "must be > 0, got %d", f.v)
		}
	}

	positiveFloats := []struct {
		field string
		v     float64
	}{
		{"forklift_speed_xy", c.ForkliftSpeedXY},
		{"lever_speed_z", c.LeverSpeedZ},
		{"simulation_duration_minutes", c.SimulationDurationMinutes},
		{"sample_interval", c.SampleInterval},
		{"inventory_poll_interval", c.InventoryPollInterval},
	}
	for _, f := range positiveFloats {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return sim.NewConfigError(f.field, "must be a finite number > 0, got %v", f.v)
		}
	}

	nonNegative := []struct {
		field string
		v     float64
	}{
		{"unloading_trucks_per_hour", c.UnloadingTrucksPerHour},
		{"loading_trucks_per_hour", c.LoadingTrucksPerHour},
		{"orders_per_hour", c.OrdersPerHour},
		{"warmup_minutes", c.WarmupMinutes},
		{"unload_time_per_pallet", c.UnloadTimePerPallet},
		{"assembly_time_per_pallet", c.AssemblyTimePerPallet},
	}
	for _, f := range nonNegative {
		if !(f.v >= 0) || math.IsInf(f.v, 0) {
			return sim.NewConfigError(f.field, "must be a finite number >= 0, got %v", f.v)
		}
	}

	if c.NumLoadingDocks != c.NumAssemblyAreas {
		return sim.NewConfigError("num_loading_docks",
			"must equal num_assembly_area (%d), got %d: each loading dock is paired with one bay", c.NumAssemblyAreas, c.NumLoadingDocks)
	}
	if c.TruckCapacityMax < c.TruckCapacityMin {
		return sim.NewConfigError("truck_capacity_max", "must be >= truck_capacity_min (%d), got %d", c.TruckCapacityMin, c.TruckCapacityMax)
	}
	if c.MaximumOrderSize < c.MinimumOrderSize {
		return sim.NewConfigError("maximum_order_size", "must be >= minimum_order_size (%d), got %d", c.MinimumOrderSize, c.MaximumOrderSize)
	}
	if c.MaximumOrderSize > c.AssemblyAreaCapacity {
		return sim.NewConfigError("maximum_order_size", "must fit in assembly_area_capacity (%d), got %d", c.AssemblyAreaCapacity, c.MaximumOrderSize)
	}
	if c.MaximumOrderSize > c.TruckCapacityMax {
		return sim.NewConfigError("maximum_order_size", "must fit in truck_capacity_max (%d), got %d", c.TruckCapacityMax, c.MaximumOrderSize)
	}
	if !(c.InitialStorage >= 0 && c.InitialStorage <= 1) {
		return sim.NewConfigError("initial_storage", "must be in [0, 1], got %v", c.InitialStorage)
	}
	if _, err := storage.ParseStrategy(c.RetrievalStrategy); err != nil {
		return sim.NewConfigError("retrieval_strategy", "%v", err)
	}
	if !ValidArrivalProcesses[c.ArrivalProcess] {
		return sim.NewConfigError("arrival_process", "unknown arrival process %q (want deterministic or poisson)", c.ArrivalProcess)
	}

	if len(c.PalletTypes) == 0 {
		return sim.NewConfigError("pallet_types", "at least one pallet type is required")
	}
	if len(c.PalletProbs) != len(c.PalletTypes) {
		return sim.NewConfigError("pallet_probs", "need one probability per pallet type (%d), got %d", len(c.PalletTypes), len(c.PalletProbs))
	}
	sum := 0.0
	for i, p := range c.PalletProbs {
		if !(p >= 0) {
			return sim.NewConfigError("pallet_probs", "probability for %s must be >= 0, got %v", c.PalletTypes[i], p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		return sim.NewConfigError("pallet_probs", "must sum to 1, got %v", sum)
	}
	if c.StorageAisles%len(c.PalletTypes) != 0 {
		return sim.NewConfigError("storage_aisles",
			"%d aisles cannot be zoned evenly across %d pallet types", c.StorageAisles, len(c.PalletTypes))
	}
	if c.StorageLayout.Sections <= 0 || c.StorageAisles%c.StorageLayout.Sections != 0 {
		return sim.NewConfigError("storage_layout.sections",
			"%d aisles cannot be split evenly into %d sections", c.StorageAisles, c.StorageLayout.Sections)
	}
	return nil
}

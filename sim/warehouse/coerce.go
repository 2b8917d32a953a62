package warehouse

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/inference-sim/warehouse-sim/sim"
)

type fieldSetter func(c *Config, v any) error

// coercers maps every accepted request key to a setter that converts the loose
// value to the field's declared type. Keys match the YAML names.
var coercers = map[string]fieldSetter{
	"forklifts":              intField(func(c *Config) *int { return &c.Forklifts }),
	"num_unloading_docks":    intField(func(c *Config) *int { return &c.NumUnloadingDocks }),
	"num_assembly_area":      intField(func(c *Config) *int { return &c.NumAssemblyAreas }),
	"num_loading_docks":      intField(func(c *Config) *int { return &c.NumLoadingDocks }),
	"assembly_area_capacity": intField(func(c *Config) *int { return &c.AssemblyAreaCapacity }),
	"truck_capacity_min":     intField(func(c *Config) *int { return &c.TruckCapacityMin }),
	"truck_capacity_max":     intField(func(c *Config) *int { return &c.TruckCapacityMax }),
	"minimum_order_size":     intField(func(c *Config) *int { return &c.MinimumOrderSize }),
	"maximum_order_size":     intField(func(c *Config) *int { return &c.MaximumOrderSize }),
	"storage_aisles":         intField(func(c *Config) *int { return &c.StorageAisles }),
	"slots_per_aisle":        intField(func(c *Config) *int { return &c.SlotsPerAisle }),
	"levels_per_slot":        intField(func(c *Config) *int { return &c.LevelsPerSlot }),
	"storage_sections":       intField(func(c *Config) *int { return &c.StorageLayout.Sections }),

	"forklifts_per_unload_dock":    intField(func(c *Config) *int { return &c.ForkliftsPerUnloadDock }),
	"forklifts_per_order_assembly": intField(func(c *Config) *int { return &c.ForkliftsPerOrderAssembly }),

	"forklift_speed_xy":           floatField(func(c *Config) *float64 { return &c.ForkliftSpeedXY }),
	"lever_speed_z":               floatField(func(c *Config) *float64 { return &c.LeverSpeedZ }),
	"unloading_trucks_per_hour":   floatField(func(c *Config) *float64 { return &c.UnloadingTrucksPerHour }),
	"loading_trucks_per_hour":     floatField(func(c *Config) *float64 { return &c.LoadingTrucksPerHour }),
	"orders_per_hour":             floatField(func(c *Config) *float64 { return &c.OrdersPerHour }),
	"initial_storage":             floatField(func(c *Config) *float64 { return &c.InitialStorage }),
	"simulation_duration_minutes": floatField(func(c *Config) *float64 { return &c.SimulationDurationMinutes }),
	"warmup_minutes":              floatField(func(c *Config) *float64 { return &c.WarmupMinutes }),
	"sample_interval":             floatField(func(c *Config) *float64 { return &c.SampleInterval }),
	"unload_time_per_pallet":      floatField(func(c *Config) *float64 { return &c.UnloadTimePerPallet }),
	"assembly_time_per_pallet":    floatField(func(c *Config) *float64 { return &c.AssemblyTimePerPallet }),
	"inventory_poll_interval":     floatField(func(c *Config) *float64 { return &c.InventoryPollInterval }),

	"arrival_process":    stringField(func(c *Config) *string { return &c.ArrivalProcess }),
	"retrieval_strategy": stringField(func(c *Config) *string { return &c.RetrievalStrategy }),

	"pallet_types": func(c *Config, v any) error {
		list, ok := v.([]any)
		if s, isStrings := v.([]string); isStrings {
			c.PalletTypes = append([]string(nil), s...)
			return nil
		}
		if !ok {
			return fmt.Errorf("expected a list of strings")
		}
		out := make([]string, len(list))
		for i, e := range list {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("element %d: expected string, got %T", i, e)
			}
			out[i] = s
		}
		c.PalletTypes = out
		return nil
	},
	"pallet_probs": func(c *Config, v any) error {
		if f, isFloats := v.([]float64); isFloats {
			c.PalletProbs = append([]float64(nil), f...)
			return nil
		}
		list, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected a list of numbers")
		}
		out := make([]float64, len(list))
		for i, e := range list {
			f, err := toFloat(e)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		c.PalletProbs = out
		return nil
	},
	"random_seed": func(c *Config, v any) error {
		if v == nil {
			c.RandomSeed = nil
			return nil
		}
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		c.RandomSeed = &n
		return nil
	},
}

// keyAliases maps older request keys to the keys they stand for.
var keyAliases = map[string]string{
	"storage_slots_per_aisle": "slots_per_aisle",
	"storage_levels_per_slot": "levels_per_slot",
}

// CoerceConfig converts a loose key/value request (as decoded from JSON or a
// form) into a validated Config. Missing keys keep their DefaultConfig value.
// Integer fields accept integers, integral floats and numeric strings; float
// fields accept any number or numeric string. An alias and its key may not
// both be given. The first bad value fails the whole request.
func CoerceConfig(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if canonical, ok := keyAliases[k]; ok {
			if _, both := raw[canonical]; both {
				return cfg, sim.NewConfigError(k, "conflicts with %s; give only one", canonical)
			}
			name = canonical
		}
		set, ok := coercers[name]
		if !ok {
			return cfg, sim.NewConfigError(k, "unknown field")
		}
		if err := set(&cfg, raw[k]); err != nil {
			return cfg, sim.NewConfigError(k, "invalid value %v: %v", raw[k], err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func intField(get func(*Config) *int) fieldSetter {
	return func(c *Config, v any) error {
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return fmt.Errorf("out of range")
		}
		*get(c) = int(n)
		return nil
	}
}

func floatField(get func(*Config) *float64) fieldSetter {
	return func(c *Config, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*get(c) = f
		return nil
	}
}

func stringField(get func(*Config) *string) fieldSetter {
	return func(c *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		*get(c) = s
		return nil
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("expected integer, got %v", x)
		}
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("expected finite number, got %v", x)
		}
		return x, nil
	case json.Number:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("expected number, got %q", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

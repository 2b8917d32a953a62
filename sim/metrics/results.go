package metrics

import (
	"fmt"
	"io"
)

// Results holds the final metrics of a run. A nil field means the metric is
// absent because nothing was recorded for it.
type Results struct {
	UnloadingDockUtilization *float64 `json:"unloading_dock_utilization_pct"`
	StorageUtilization       *float64 `json:"storage_utilization_pct"`
	LoadingDockUtilization   *float64 `json:"loading_dock_utilization_pct"`
	ForkliftUtilization      *float64 `json:"average_forklift_utilization_pct"`
	TruckUnloadingMeanTime   *float64 `json:"truck_unloading_mean_time"`
	TruckLoadingMeanTime     *float64 `json:"truck_loading_mean_time"`
	OrderLoadingWaitMean     *float64 `json:"order_loading_wait_mean_time"`
	OrderAssemblyWaitMean    *float64 `json:"order_assembly_wait_mean_time"`
	OrderAssemblyMeanTime    *float64 `json:"order_assembly_mean_time"`
	PalletPutMeanTime        *float64 `json:"pallet_put_mean_time"`
	PalletPickupMeanTime     *float64 `json:"pallet_pickup_mean_time"`

	// Supplementary detail; not part of Map().
	Distributions map[Kind]Distribution `json:"distributions,omitempty"`
	Counters      map[string]int        `json:"counters,omitempty"`
	Horizon       float64               `json:"horizon"`
	Warmup        float64               `json:"warmup"`
	Seed          int64                 `json:"seed"`
}

// Distribution summarizes one duration series.
type Distribution struct {
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	P50   *float64 `json:"p50"`
	P95   *float64 `json:"p95"`
	Max   *float64 `json:"max"`
}

// Summarize derives Results from everything recorded. storageOccupancy is the
// grid occupancy percentage at the end of the run. openBusy holds per-pool busy
// minutes of visits still in progress; it is counted in this summary only and
// may be nil.
func (a *Aggregator) Summarize(horizon, storageOccupancy float64, openBusy map[string]float64) Results {
	occ := storageOccupancy
	r := Results{
		UnloadingDockUtilization: a.busyUtilization(PoolUnloadingDocks, horizon, openBusy[PoolUnloadingDocks]),
		StorageUtilization:       &occ,
		LoadingDockUtilization:   a.busyUtilization(PoolLoadingDocks, horizon, openBusy[PoolLoadingDocks]),
		ForkliftUtilization:      a.TimeWeightedUtilization(PoolForklifts, horizon),
		TruckUnloadingMeanTime:   Mean(a.durations[TruckUnloadTime]),
		TruckLoadingMeanTime:     Mean(a.durations[TruckLoadTime]),
		OrderLoadingWaitMean:     Mean(a.durations[OrderLoadingWait]),
		OrderAssemblyWaitMean:    Mean(a.durations[OrderAssemblyWait]),
		OrderAssemblyMeanTime:    Mean(a.durations[OrderAssemblyTime]),
		PalletPutMeanTime:        Mean(a.durations[PalletPutTime]),
		PalletPickupMeanTime:     Mean(a.durations[PalletPickupTime]),
		Distributions:            make(map[Kind]Distribution, len(AllKinds)),
		Counters:                 make(map[string]int, len(a.counters)),
		Horizon:                  horizon,
		Warmup:                   a.warmup,
	}
	for _, k := range AllKinds {
		vals := a.durations[k]
		r.Distributions[k] = Distribution{
			Count: len(vals),
			Mean:  Mean(vals),
			P50:   Percentile(vals, 50),
			P95:   Percentile(vals, 95),
			Max:   Percentile(vals, 100),
		}
	}
	for name, n := range a.counters {
		r.Counters[name] = n
	}
	return r
}

// MetricNames lists the keys of Map() in report order.
var MetricNames = []string{
	"unloading_dock_utilization_pct",
	"storage_utilization_pct",
	"loading_dock_utilization_pct",
	"average_forklift_utilization_pct",
	"truck_unloading_mean_time",
	"truck_loading_mean_time",
	"order_loading_wait_mean_time",
	"order_assembly_wait_mean_time",
	"order_assembly_mean_time",
	"pallet_put_mean_time",
	"pallet_pickup_mean_time",
}

// Map returns the flat metric name → value mapping. Absent metrics map to nil.
func (r Results) Map() map[string]*float64 {
	vals := []*float64{
		r.UnloadingDockUtilization, r.StorageUtilization, r.LoadingDockUtilization,
		r.ForkliftUtilization, r.TruckUnloadingMeanTime, r.TruckLoadingMeanTime,
		r.OrderLoadingWaitMean, r.OrderAssemblyWaitMean, r.OrderAssemblyMeanTime,
		r.PalletPutMeanTime, r.PalletPickupMeanTime,
	}
	m := make(map[string]*float64, len(MetricNames))
	for i, name := range MetricNames {
		m[name] = vals[i]
	}
	return m
}

// Print writes a human-readable report.
func (r Results) Print(w io.Writer) {
	labels := []string{
		"Unloading Dock Utilization (%)",
		"Storage Utilization (%)",
		"Loading Dock Utilization (%)",
		"Average Forklift Utilization (%)",
		"Truck Unloading Mean Time (mins)",
		"Truck Loading Mean Time (mins)",
		"Order Loading Wait Time (mins)",
		"Order Assembly Mean Wait Time (mins)",
		"Order Assembly Mean Time (mins)",
		"Pallet Put Mean Time (mins)",
		"Pallet Pickup Mean Time (mins)",
	}
	m := r.Map()
	fmt.Fprintln(w, "=== Simulation Results ===")
	for i, name := range MetricNames {
		if v := m[name]; v != nil {
			fmt.Fprintf(w, "%-38s: %.2f\n", labels[i], *v)
		} else {
			fmt.Fprintf(w, "%-38s: n/a\n", labels[i])
		}
	}
}

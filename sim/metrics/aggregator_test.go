package metrics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean_EmptyIsAbsent(t *testing.T) {
	assert.Nil(t, Mean([]float64{}))
	m := Mean([]int{1, 2, 3, 6})
	require.NotNil(t, m)
	assert.Equal(t, 3.0, *m)
}

func TestPercentile_Interpolates(t *testing.T) {
	data := []float64{40, 10, 30, 20}
	assert.Nil(t, Percentile([]float64{}, 50))
	assert.InDelta(t, 25.0, *Percentile(data, 50), 1e-9)
	assert.InDelta(t, 40.0, *Percentile(data, 100), 1e-9)
	assert.InDelta(t, 10.0, *Percentile(data, 0), 1e-9)
	// input order untouched
	assert.Equal(t, []float64{40, 10, 30, 20}, data)
}

func TestAggregator_Record_DropsWarmup(t *testing.T) {
	// GIVEN a 120-minute warm-up
	a := NewAggregator(120)

	// WHEN durations are recorded before, at and after warm-up
	a.Record(TruckUnloadTime, 2, 100)
	a.Record(TruckUnloadTime, 2, 120)
	a.Record(TruckUnloadTime, 3, 121)

	// THEN only the post-warm-up record is kept
	assert.Equal(t, []float64{3}, a.Values(TruckUnloadTime))
	assert.Equal(t, 2, a.Discarded())
}

func TestAggregator_TimeWeightedUtilization(t *testing.T) {
	// GIVEN a capacity-4 pool sampled after a 10-minute warm-up
	a := NewAggregator(10)
	a.RegisterPool(PoolForklifts, 4)
	a.Sample(PoolForklifts, 5, 4)  // dropped: warm-up
	a.Sample(PoolForklifts, 10, 4) // kept: warm-up boundary
	a.Sample(PoolForklifts, 12, 2)
	a.Sample(PoolForklifts, 16, 4)

	// WHEN utilization is computed with a horizon of 20
	u := a.TimeWeightedUtilization(PoolForklifts, 20)

	// THEN area = 4×2 + 2×4 + 4×4 = 32 over a 10-minute window and capacity 4
	require.NotNil(t, u)
	assert.Len(t, a.Samples(PoolForklifts), 3)
	assert.InDelta(t, 80.0, *u, 1e-9)
}

func TestAggregator_TimeWeightedUtilization_FirstSampleCoversWarmupGap(t *testing.T) {
	// GIVEN a fully held pool sampled every 100 minutes after a 50-minute warm-up
	a := NewAggregator(50)
	a.RegisterPool(PoolForklifts, 1)
	for at := 150.0; at <= 650; at += 100 {
		a.Sample(PoolForklifts, at, 1)
	}

	// WHEN utilization is computed at the horizon
	u := a.TimeWeightedUtilization(PoolForklifts, 650)

	// THEN the gap between the warm-up and the first sample is not lost
	require.NotNil(t, u)
	assert.InDelta(t, 100.0, *u, 1e-9)
}

func TestAggregator_TimeWeightedUtilization_FewSamples(t *testing.T) {
	// GIVEN no samples
	a := NewAggregator(0)
	a.RegisterPool(PoolForklifts, 2)

	// THEN the metric is absent
	assert.Nil(t, a.TimeWeightedUtilization(PoolForklifts, 10))

	// WHEN exactly one sample is recorded
	a.Sample(PoolForklifts, 5, 1)

	// THEN it stands for the whole window: 1 × 10 / 10 / 2
	u := a.TimeWeightedUtilization(PoolForklifts, 10)
	require.NotNil(t, u)
	assert.InDelta(t, 50.0, *u, 1e-9)
}

func TestAggregator_TimeWeightedUtilization_NoWindow(t *testing.T) {
	a := NewAggregator(100)
	a.RegisterPool(PoolForklifts, 1)
	a.Sample(PoolForklifts, 101, 1)
	assert.Nil(t, a.TimeWeightedUtilization(PoolForklifts, 50))
	assert.Nil(t, a.TimeWeightedUtilization("unregistered", 200))
}

func TestAggregator_BusyUtilization(t *testing.T) {
	a := NewAggregator(0)
	a.RegisterPool(PoolUnloadingDocks, 2)
	a.AddBusy(PoolUnloadingDocks, 30)
	a.AddBusy(PoolUnloadingDocks, 10)
	a.AddBusy(PoolUnloadingDocks, -5) // ignored

	u := a.BusyUtilization(PoolUnloadingDocks, 100)
	require.NotNil(t, u)
	assert.InDelta(t, 20.0, *u, 1e-9)
	assert.Nil(t, a.BusyUtilization(PoolLoadingDocks, 100))
}

func TestAggregator_Summarize_OpenBusyIsNotStored(t *testing.T) {
	// GIVEN 30 recorded busy minutes on a single dock
	a := NewAggregator(0)
	a.RegisterPool(PoolUnloadingDocks, 1)
	a.AddBusy(PoolUnloadingDocks, 30)

	// WHEN a summary counts 20 more minutes of a visit still in progress
	open := map[string]float64{PoolUnloadingDocks: 20}
	r := a.Summarize(100, 0, open)

	// THEN the summary includes them but the aggregator does not keep them
	assert.InDelta(t, 50.0, *r.UnloadingDockUtilization, 1e-9)
	assert.Equal(t, 30.0, a.Busy(PoolUnloadingDocks))
	assert.InDelta(t, 30.0, *a.Summarize(100, 0, nil).UnloadingDockUtilization, 1e-9)
}

func TestAggregator_Summarize_EmptyRunHasAbsentMeans(t *testing.T) {
	// GIVEN an aggregator with registered pools but nothing recorded
	a := NewAggregator(120)
	a.RegisterPool(PoolForklifts, 40)
	a.RegisterPool(PoolUnloadingDocks, 5)
	a.RegisterPool(PoolLoadingDocks, 7)

	// WHEN summarized
	r := a.Summarize(1440, 20, nil)

	// THEN every mean is nil, busy utilizations are zero and storage is reported
	m := r.Map()
	assert.Len(t, m, 11)
	for _, name := range []string{
		"truck_unloading_mean_time", "truck_loading_mean_time", "order_loading_wait_mean_time",
		"order_assembly_wait_mean_time", "order_assembly_mean_time", "pallet_put_mean_time",
		"pallet_pickup_mean_time", "average_forklift_utilization_pct",
	} {
		assert.Nil(t, m[name], name)
	}
	require.NotNil(t, m["unloading_dock_utilization_pct"])
	assert.Equal(t, 0.0, *m["unloading_dock_utilization_pct"])
	assert.Equal(t, 20.0, *m["storage_utilization_pct"])
	assert.Equal(t, 0, r.Distributions[TruckLoadTime].Count)
}

func TestResults_JSON_AbsentIsNull(t *testing.T) {
	a := NewAggregator(0)
	a.Record(PalletPutTime, 1.5, 1)
	a.Count("trucks_unloaded")
	r := a.Summarize(10, 0, nil)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["truck_loading_mean_time"])
	assert.Equal(t, 1.5, decoded["pallet_put_mean_time"])
	assert.Equal(t, float64(1), decoded["counters"].(map[string]any)["trucks_unloaded"])
}

func TestResults_Print_MarksAbsent(t *testing.T) {
	r := NewAggregator(0).Summarize(10, 12.5, nil)
	var buf bytes.Buffer
	r.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "Storage Utilization (%)")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "n/a")
}

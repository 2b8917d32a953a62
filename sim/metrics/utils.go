package metrics

import (
	"math"
	"sort"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// Mean returns the arithmetic mean of data, or nil for an empty slice.
func Mean[T IntOrFloat64](data []T) *float64 {
	if len(data) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range data {
		sum += float64(v)
	}
	m := sum / float64(len(data))
	return &m
}

// Percentile returns the p-th percentile of data using linear interpolation
// between closest ranks. data need not be sorted; it is not modified.
// Returns nil for an empty slice.
func Percentile[T IntOrFloat64](data []T, p float64) *float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	sorted := make([]float64, n)
	for i, v := range data {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if upperIdx >= n {
		upperIdx = n - 1
	}
	var v float64
	if lowerIdx == upperIdx {
		v = sorted[lowerIdx]
	} else {
		v = sorted[lowerIdx] + (sorted[upperIdx]-sorted[lowerIdx])*(rank-float64(lowerIdx))
	}
	return &v
}

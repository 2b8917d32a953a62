package trace

import "strings"

// TraceSummary aggregates statistics from a RunTrace.
type TraceSummary struct {
	TotalEvents    int
	FirstClock     float64
	LastClock      float64
	EventKinds     map[string]int // kind prefix of EventRecord.Name → count
	Stored         int
	Retrieved      int
	FullRejections int
	NotFound       int
	StoredByType   map[string]int
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *TraceSummary {
	summary := &TraceSummary{
		EventKinds:   make(map[string]int),
		StoredByType: make(map[string]int),
	}
	if rt == nil {
		return summary
	}

	summary.TotalEvents = len(rt.Events)
	if len(rt.Events) > 0 {
		summary.FirstClock = rt.Events[0].Clock
		summary.LastClock = rt.Events[len(rt.Events)-1].Clock
	}
	for _, e := range rt.Events {
		kind, _, _ := strings.Cut(e.Name, ":")
		summary.EventKinds[kind]++
	}

	for _, s := range rt.Storage {
		switch s.Op {
		case StorageOpStore:
			summary.Stored++
			summary.StoredByType[s.PalletType]++
		case StorageOpRetrieve:
			summary.Retrieved++
		case StorageOpFull:
			summary.FullRejections++
		case StorageOpNotFound:
			summary.NotFound++
		}
	}

	return summary
}

package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	// GIVEN no trace
	// WHEN summarized
	summary := Summarize(nil)

	// THEN all counts are zero and maps are usable
	if summary.TotalEvents != 0 || summary.Stored != 0 || summary.Retrieved != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
	if summary.EventKinds == nil || summary.StoredByType == nil {
		t.Error("expected non-nil maps")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with events and storage decisions
	rt := NewRunTrace(TraceLevelEvents)
	rt.RecordEvent(EventRecord{Seq: 1, Clock: 0, Name: "start:unloading-truck-1"})
	rt.RecordEvent(EventRecord{Seq: 2, Clock: 0, Name: "grant:forklifts"})
	rt.RecordEvent(EventRecord{Seq: 3, Clock: 0.1, Name: "sleep:unload-1"})
	rt.RecordEvent(EventRecord{Seq: 4, Clock: 2.5, Name: "grant:forklifts"})
	rt.RecordStorage(StorageRecord{Op: StorageOpStore, PalletType: "T1"})
	rt.RecordStorage(StorageRecord{Op: StorageOpStore, PalletType: "T2"})
	rt.RecordStorage(StorageRecord{Op: StorageOpStore, PalletType: "T1"})
	rt.RecordStorage(StorageRecord{Op: StorageOpRetrieve, PalletType: "T1"})
	rt.RecordStorage(StorageRecord{Op: StorageOpFull, PalletType: "T3", Aisle: -1})
	rt.RecordStorage(StorageRecord{Op: StorageOpNotFound, PalletType: "T4", Aisle: -1})

	// WHEN summarized
	summary := Summarize(rt)

	// THEN counts and bounds match
	if summary.TotalEvents != 4 {
		t.Errorf("expected 4 events, got %d", summary.TotalEvents)
	}
	if summary.FirstClock != 0 || summary.LastClock != 2.5 {
		t.Errorf("expected clock range [0, 2.5], got [%v, %v]", summary.FirstClock, summary.LastClock)
	}
	if summary.EventKinds["grant"] != 2 || summary.EventKinds["start"] != 1 || summary.EventKinds["sleep"] != 1 {
		t.Errorf("unexpected event kinds %v", summary.EventKinds)
	}
	if summary.Stored != 3 || summary.Retrieved != 1 {
		t.Errorf("expected 3 stored and 1 retrieved, got %d and %d", summary.Stored, summary.Retrieved)
	}
	if summary.FullRejections != 1 || summary.NotFound != 1 {
		t.Errorf("expected 1 full and 1 not-found, got %d and %d", summary.FullRejections, summary.NotFound)
	}
	if summary.StoredByType["T1"] != 2 || summary.StoredByType["T2"] != 1 {
		t.Errorf("unexpected per-type distribution %v", summary.StoredByType)
	}
}

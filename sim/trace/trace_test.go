package trace

import (
	"testing"
)

func TestNewRunTrace_NoneLevel_ReturnsNil(t *testing.T) {
	// GIVEN tracing disabled
	// WHEN a trace is created
	rt := NewRunTrace(TraceLevelNone)

	// THEN it is nil and recording through it is a no-op
	if rt != nil {
		t.Fatalf("expected nil trace for level none, got %+v", rt)
	}
	rt.RecordEvent(EventRecord{Seq: 1, Clock: 1, Name: "sleep:x"})
	rt.RecordStorage(StorageRecord{Op: StorageOpStore})
}

func TestRunTrace_RecordEvent_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for events
	rt := NewRunTrace(TraceLevelEvents)

	// WHEN an event record is recorded
	rt.RecordEvent(EventRecord{Seq: 7, Clock: 1.5, Name: "grant:forklifts"})

	// THEN the trace contains one event record with correct data
	if len(rt.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rt.Events))
	}
	if rt.Events[0].Seq != 7 || rt.Events[0].Name != "grant:forklifts" {
		t.Errorf("unexpected record %+v", rt.Events[0])
	}
}

func TestRunTrace_StorageLevel_SkipsEvents(t *testing.T) {
	// GIVEN a trace configured for storage decisions only
	rt := NewRunTrace(TraceLevelStorage)

	// WHEN both kinds of record are recorded
	rt.RecordEvent(EventRecord{Seq: 1, Clock: 0, Name: "start:truck"})
	rt.RecordStorage(StorageRecord{Clock: 0, Op: StorageOpStore, PalletType: "T1"})

	// THEN only the storage record is kept
	if len(rt.Events) != 0 {
		t.Errorf("expected 0 events, got %d", len(rt.Events))
	}
	if len(rt.Storage) != 1 {
		t.Errorf("expected 1 storage record, got %d", len(rt.Storage))
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"", true},
		{"none", true},
		{"storage", true},
		{"events", true},
		{"decisions", false},
		{"EVENTS", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

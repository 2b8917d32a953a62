package trace

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelStorage captures storage allocator decisions only.
	TraceLevelStorage TraceLevel = "storage"
	// TraceLevelEvents captures every executed event plus storage decisions.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelStorage: true,
	TraceLevelEvents:  true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// RunTrace collects records during a single simulation run.
// A nil *RunTrace is valid and records nothing.
type RunTrace struct {
	Level   TraceLevel
	Events  []EventRecord
	Storage []StorageRecord
}

// NewRunTrace creates a RunTrace ready for recording.
// Returns nil for TraceLevelNone and the empty level.
func NewRunTrace(level TraceLevel) *RunTrace {
	if level == TraceLevelNone || level == "" {
		return nil
	}
	return &RunTrace{
		Level:   level,
		Events:  make([]EventRecord, 0),
		Storage: make([]StorageRecord, 0),
	}
}

// RecordEvent appends an event record when event tracing is enabled.
func (rt *RunTrace) RecordEvent(record EventRecord) {
	if rt == nil || rt.Level != TraceLevelEvents {
		return
	}
	rt.Events = append(rt.Events, record)
}

// RecordStorage appends a storage decision record.
func (rt *RunTrace) RecordStorage(record StorageRecord) {
	if rt == nil {
		return
	}
	rt.Storage = append(rt.Storage, record)
}

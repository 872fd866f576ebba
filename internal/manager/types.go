package manager

import "time"

// State is the lifecycle state of the model. It is materialized for
// observability only; the presence of a handle is what decides behavior.
type State string

const (
	StateUnloaded   State = "unloaded"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateGenerating State = "generating"
	StateUnloading  State = "unloading"
)

// Unload reasons reported in logs, events and metrics.
const (
	ReasonExplicit = "explicit"
	ReasonIdle     = "idle"
	ReasonShutdown = "shutdown"
)

// view mirrors the lock-guarded state for readers that must not block.
type view struct {
	state        State
	sampleRate   int
	loadedVoices []string
	loadedAt     time.Time
	idleDeadline time.Time
	lastErr      string
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State        State
	Loaded       bool
	Busy         bool
	SampleRate   int
	LoadedVoices []string
	LoadedAt     time.Time
	IdleDeadline time.Time
	Err          string
}

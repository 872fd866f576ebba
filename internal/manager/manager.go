package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"voiced/internal/engine"
	"voiced/internal/gpu"
	"voiced/internal/voices"
)

type Manager struct {
	eng       engine.Engine
	voices    *voices.Registry
	spec      engine.ModelSpec
	monitor   gpu.Monitor
	log       zerolog.Logger
	publisher EventPublisher

	idleTimeout    time.Duration
	loadTimeout    time.Duration
	releaseTimeout time.Duration
	maxQueueDepth  int
	maxWait        time.Duration

	// sem is the exclusive lock: size 1, one holder at a time.
	// queueCh bounds holders plus waiters.
	sem     chan struct{}
	queueCh chan struct{}

	// Guarded by sem.
	handle    engine.Handle
	artifacts map[string]engine.Artifact
	idle      *time.Timer
	idleGen   uint64
	closed    bool

	// Status mirrors. loaded and busy are written only inside setView so a
	// Snapshot sees them agree with state; the atomics serve lock-free reads.
	vmu     sync.RWMutex
	v       view
	loaded  atomic.Bool
	busy    atomic.Bool
	loads   atomic.Uint64
	unloads atomic.Uint64

	startTime time.Time
}

// New constructs a Manager with package defaults for every tunable.
func New(eng engine.Engine, reg *voices.Registry, spec engine.ModelSpec, idleTimeout time.Duration) (*Manager, error) {
	return NewWithConfig(ManagerConfig{
		Engine:      eng,
		Voices:      reg,
		Model:       spec,
		IdleTimeout: idleTimeout,
	})
}

// IsLoaded reports whether a model handle is present.
func (m *Manager) IsLoaded() bool { return m.loaded.Load() }

// IsBusy reports whether a synthesis is in flight.
func (m *Manager) IsBusy() bool { return m.busy.Load() }

// Voices returns the configured voice registry.
func (m *Manager) Voices() *voices.Registry { return m.voices }

// IdleTimeout returns the configured inactivity period.
func (m *Manager) IdleTimeout() time.Duration { return m.idleTimeout }

// WorkerPID returns the pid of the engine worker when the engine supervises
// a process, or 0.
func (m *Manager) WorkerPID() int {
	if p, ok := m.eng.(interface{ PID() int }); ok {
		return p.PID()
	}
	return 0
}

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.vmu.RLock()
	defer m.vmu.RUnlock()
	return Snapshot{
		State:        m.v.state,
		Loaded:       m.loaded.Load(),
		Busy:         m.busy.Load(),
		SampleRate:   m.v.sampleRate,
		LoadedVoices: append([]string(nil), m.v.loadedVoices...),
		LoadedAt:     m.v.loadedAt,
		IdleDeadline: m.v.idleDeadline,
		Err:          m.v.lastErr,
	}
}

// setView applies fn to the observability mirror.
func (m *Manager) setView(fn func(v *view)) {
	m.vmu.Lock()
	fn(&m.v)
	m.vmu.Unlock()
}

func (m *Manager) setState(s State) {
	m.setView(func(v *view) { v.state = s })
}

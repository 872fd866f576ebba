package manager

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"voiced/internal/engine"
	"voiced/internal/gpu"
	"voiced/internal/voices"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultIdleTimeout    = 15 * time.Minute
	defaultLoadTimeout    = 10 * time.Minute
	defaultReleaseTimeout = time.Minute
	defaultMaxQueueDepth  = 16
	defaultMaxWait        = 10 * time.Minute
	defaultLanguage       = "English"
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Engine engine.Engine
	Voices *voices.Registry
	Model  engine.ModelSpec
	// IdleTimeout is the inactivity period after which the model is unloaded.
	IdleTimeout time.Duration
	// LoadTimeout bounds construction plus derivation of every voice prompt.
	LoadTimeout    time.Duration
	ReleaseTimeout time.Duration
	// MaxQueueDepth bounds callers holding or waiting for the lock.
	MaxQueueDepth int
	// MaxWait bounds how long a caller waits for the lock before TooBusy.
	MaxWait time.Duration
	// Monitor defaults to gpu.Disabled.
	Monitor   gpu.Monitor
	Logger    *zerolog.Logger
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig. Engine and Voices
// are required.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.Engine == nil {
		return nil, errors.New("manager: engine is required")
	}
	if cfg.Voices == nil || cfg.Voices.Len() == 0 {
		return nil, errors.New("manager: at least one voice is required")
	}
	m := &Manager{
		eng:       cfg.Engine,
		voices:    cfg.Voices,
		spec:      cfg.Model,
		monitor:   cfg.Monitor,
		publisher: cfg.Publisher,
		startTime: time.Now(),
	}
	m.v.state = StateUnloaded
	if m.monitor == nil {
		m.monitor = gpu.Disabled
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	m.log = zerolog.Nop()
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	// Apply defaults if unset
	m.idleTimeout = orDefault(cfg.IdleTimeout, defaultIdleTimeout)
	m.loadTimeout = orDefault(cfg.LoadTimeout, defaultLoadTimeout)
	m.releaseTimeout = orDefault(cfg.ReleaseTimeout, defaultReleaseTimeout)
	m.maxWait = orDefault(cfg.MaxWait, defaultMaxWait)
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	m.sem = make(chan struct{}, 1)
	m.queueCh = make(chan struct{}, m.maxQueueDepth)
	modelLoaded.Set(0)
	modelBusy.Set(0)
	return m, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

package manager

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"voiced/internal/engine"
)

// Load constructs the model and derives a clone prompt for every configured
// voice. It is a no-op when the model is already loaded, so concurrent
// callers cause at most one construction. On failure any partially
// constructed handle is released and the manager is left unloaded.
//
// The engine work is detached from ctx cancellation and bounded by the load
// timeout instead: a caller giving up must not leave a half-built model.
func (m *Manager) Load(ctx context.Context) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return m.loadLocked(ctx)
}

// EnsureReady loads the model if needed; otherwise it only pushes the idle
// deadline out by a full timeout.
func (m *Manager) EnsureReady(ctx context.Context) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	if m.handle != "" {
		m.resetIdleTimerLocked()
		return nil
	}
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) error {
	if m.closed {
		return ErrClosed
	}
	if m.handle != "" {
		return nil
	}
	m.setState(StateLoading)
	start := time.Now()
	m.log.Info().Str("event", "load_start").Str("model", m.spec.ModelID).Str("device", m.spec.Device).Int("voices", m.voices.Len()).Msg("loading model")
	m.publish("load_start", map[string]any{"model": m.spec.ModelID})

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.loadTimeout)
	defer cancel()

	h, err := m.eng.ConstructHandle(lctx, m.spec)
	if err != nil {
		return m.failLoad(start, fmt.Errorf("construct model: %w", err))
	}
	arts := make(map[string]engine.Artifact, m.voices.Len())
	for _, v := range m.voices.List() {
		a, err := m.eng.DeriveArtifact(lctx, h, v.RefAudio, v.RefText)
		if err != nil {
			err = fmt.Errorf("derive prompt for voice %q: %w", v.Name, err)
			rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), m.releaseTimeout)
			relErr := m.eng.ReleaseHandle(rctx, h)
			rcancel()
			if relErr != nil {
				m.log.Warn().Err(relErr).Str("event", "rollback_release_failed").Msg("release after failed load")
				err = multierr.Append(err, fmt.Errorf("release partial model: %w", relErr))
			}
			return m.failLoad(start, err)
		}
		arts[v.Name] = a
	}

	m.handle = h
	m.artifacts = arts
	names := m.voices.Names()
	now := time.Now()
	m.setView(func(v *view) {
		m.loaded.Store(true)
		v.state = StateReady
		v.loadedVoices = names
		v.loadedAt = now
		v.lastErr = ""
	})
	m.resetIdleTimerLocked()

	dur := time.Since(start)
	m.loads.Add(1)
	loadsTotal.WithLabelValues("success").Inc()
	loadDurationSeconds.Observe(dur.Seconds())
	modelLoaded.Set(1)
	m.log.Info().Str("event", "load_done").Dur("dur", dur).Strs("voices", names).Msg("model loaded")
	m.publish("load_done", map[string]any{"duration_ms": dur.Milliseconds(), "voices": names})
	return nil
}

func (m *Manager) failLoad(start time.Time, err error) error {
	m.setView(func(v *view) {
		v.state = StateUnloaded
		v.lastErr = err.Error()
	})
	loadsTotal.WithLabelValues("failure").Inc()
	m.log.Error().Err(err).Str("event", "load_failed").Dur("dur", time.Since(start)).Msg("model load failed")
	m.publish("load_failed", map[string]any{"error": err.Error()})
	return ErrLoadFailure(err)
}

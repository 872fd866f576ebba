package manager

import (
	"context"
	"time"
)

// Unload releases the model and clears every derived prompt. It is a no-op
// when nothing is loaded.
func (m *Manager) Unload(ctx context.Context) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	m.unloadLocked(ctx, ReasonExplicit)
	return nil
}

// Close unloads the model and rejects later loads. It waits for any
// in-flight operation and is safe to call more than once.
func (m *Manager) Close() error {
	unlock := m.lock()
	defer unlock()
	m.unloadLocked(context.Background(), ReasonShutdown)
	m.closed = true
	return nil
}

// unloadLocked is shared by explicit unloads, the idle timer and Close.
// Release errors are logged and never surfaced: the handle is dropped either
// way. Reports whether a model was unloaded.
func (m *Manager) unloadLocked(ctx context.Context, reason string) bool {
	if m.handle == "" {
		return false
	}
	m.stopIdleTimerLocked()
	m.setState(StateUnloading)
	start := time.Now()

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.releaseTimeout)
	err := m.eng.ReleaseHandle(rctx, m.handle)
	cancel()
	if err != nil {
		m.log.Warn().Err(err).Str("event", "release_failed").Str("reason", reason).Msg("release model")
	}

	m.handle = ""
	m.artifacts = nil
	m.setView(func(v *view) {
		m.loaded.Store(false)
		v.state = StateUnloaded
		v.sampleRate = 0
		v.loadedVoices = nil
		v.loadedAt = time.Time{}
	})
	m.unloads.Add(1)
	unloadsTotal.WithLabelValues(reason).Inc()
	modelLoaded.Set(0)
	m.log.Info().Str("event", "unload").Str("reason", reason).Dur("dur", time.Since(start)).Msg("model unloaded")
	m.publish("unload", map[string]any{"reason": reason})
	return true
}

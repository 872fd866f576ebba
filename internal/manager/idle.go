package manager

import (
	"context"
	"time"
)

// resetIdleTimerLocked supersedes the current idle timer with a fresh one
// expiring a full timeout from now.
func (m *Manager) resetIdleTimerLocked() {
	m.stopIdleTimerLocked()
	gen := m.idleGen
	m.idle = time.AfterFunc(m.idleTimeout, func() { m.onIdle(gen) })
	deadline := time.Now().Add(m.idleTimeout)
	m.setView(func(v *view) { v.idleDeadline = deadline })
}

// stopIdleTimerLocked cancels the current timer. Bumping the generation also
// disarms a callback that already fired and is waiting for the lock.
func (m *Manager) stopIdleTimerLocked() {
	if m.idle != nil {
		m.idle.Stop()
		m.idle = nil
	}
	m.idleGen++
	m.setView(func(v *view) { v.idleDeadline = time.Time{} })
}

func (m *Manager) onIdle(gen uint64) {
	unlock := m.lock()
	defer unlock()
	if gen != m.idleGen || m.handle == "" {
		return
	}
	m.log.Info().Str("event", "idle_timeout").Dur("idle", m.idleTimeout).Msg("idle timeout reached")
	idleTimeoutsTotal.Inc()
	m.unloadLocked(context.Background(), ReasonIdle)
}

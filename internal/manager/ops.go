package manager

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Warmup kicks off a background EnsureReady and returns an operation ID.
// The result is logged and published as warmup_done or warmup_failed; callers
// can poll Status() to observe state transitions.
func (m *Manager) Warmup() string {
	op := uuid.NewString()
	go func(opID string) {
		// Detached: warmup outlives whatever request or startup path asked for it.
		start := time.Now()
		err := m.EnsureReady(context.Background())
		if err != nil {
			m.log.Warn().Err(err).Str("event", "warmup_failed").Str("op", opID).Msg("background warmup failed")
			m.publish("warmup_failed", map[string]any{"op": opID, "error": err.Error()})
			return
		}
		m.log.Info().Str("event", "warmup_done").Str("op", opID).Dur("dur", time.Since(start)).Msg("background warmup done")
		m.publish("warmup_done", map[string]any{"op": opID})
	}(op)
	return op
}

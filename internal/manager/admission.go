package manager

import (
	"context"
	"sync"
	"time"
)

// acquire reserves a queue slot and then the exclusive lock.
// Returns a release func to be deferred; it is safe to call more than once.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	start := time.Now()
	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()

	// Try to reserve a queue slot with timeout
	select {
	case m.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		queueRejectedTotal.Inc()
		return func() {}, ErrTooBusy(m.maxWait)
	}

	// Wait to acquire the lock
	acquired := false
	defer func() {
		if !acquired {
			<-m.queueCh
		}
	}()
	select {
	case m.sem <- struct{}{}:
		acquired = true
		lockWaitSeconds.Observe(time.Since(start).Seconds())
		var once sync.Once
		return func() { once.Do(func() { <-m.sem; <-m.queueCh }) }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		queueRejectedTotal.Inc()
		return func() {}, ErrTooBusy(m.maxWait)
	}
}

// lock takes the exclusive lock without a queue slot or deadline. It is used
// by internal paths (idle timer, Close) that must never be rejected.
func (m *Manager) lock() func() {
	m.sem <- struct{}{}
	var once sync.Once
	return func() { once.Do(func() { <-m.sem }) }
}

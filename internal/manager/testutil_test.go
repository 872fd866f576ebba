package manager

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"voiced/internal/engine"
	"voiced/internal/voices"
	"voiced/pkg/types"
)

// fakeEngine is a lightweight in-memory engine used for tests.
type fakeEngine struct {
	mu         sync.Mutex
	constructs int
	derives    int
	syntheses  int
	releases   int
	live       map[engine.Handle]bool
	next       int

	constructDelay time.Duration
	constructErr   error
	deriveFailOn   string // reference audio that fails derivation
	synthErr       error
	releaseErr     error
	sampleRate     int
	// When non-nil Synthesize signals started and blocks until gate closes.
	gate    chan struct{}
	started chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{live: map[engine.Handle]bool{}, sampleRate: 24000}
}

func (f *fakeEngine) ConstructHandle(ctx context.Context, spec engine.ModelSpec) (engine.Handle, error) {
	f.mu.Lock()
	f.constructs++
	delay, err := f.constructDelay, f.constructErr
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	h := engine.Handle("h" + strconv.Itoa(f.next))
	f.live[h] = true
	return h, nil
}

func (f *fakeEngine) DeriveArtifact(_ context.Context, h engine.Handle, refAudio, refText string) (engine.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derives++
	if !f.live[h] {
		return "", errors.New("derive on dead handle " + string(h))
	}
	if f.deriveFailOn != "" && refAudio == f.deriveFailOn {
		return "", errors.New("cannot read " + refAudio)
	}
	return engine.Artifact(string(h) + ":" + refAudio), nil
}

func (f *fakeEngine) Synthesize(ctx context.Context, h engine.Handle, a engine.Artifact, req engine.SynthesisRequest) (engine.Audio, error) {
	f.mu.Lock()
	f.syntheses++
	gate, started, err, sr := f.gate, f.started, f.synthErr, f.sampleRate
	alive := f.live[h]
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return engine.Audio{}, ctx.Err()
		}
	}
	if !alive {
		return engine.Audio{}, errors.New("synthesize on dead handle")
	}
	if err != nil {
		return engine.Audio{}, err
	}
	return engine.Audio{Samples: []float32{0, 0.25, -0.25, 0.5}, SampleRate: sr}, nil
}

func (f *fakeEngine) ReleaseHandle(_ context.Context, h engine.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	delete(f.live, h)
	return f.releaseErr
}

func (f *fakeEngine) counts() (constructs, derives, syntheses, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.constructs, f.derives, f.syntheses, f.releases
}

func (f *fakeEngine) liveHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func testVoices(t *testing.T) *voices.Registry {
	t.Helper()
	reg, err := voices.New([]types.Voice{
		{Name: "dave", RefAudio: "dave.m4a", RefText: "This is Dave."},
		{Name: "alice", RefAudio: "alice.wav", RefText: "This is Alice."},
	}, "dave")
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	return reg
}

// newTestManager builds a manager over fe with test voices. Unset idle
// timeout defaults to an hour so timers never fire unless a test asks.
func newTestManager(t *testing.T, fe *fakeEngine, cfg ManagerConfig) *Manager {
	t.Helper()
	cfg.Engine = fe
	if cfg.Voices == nil {
		cfg.Voices = testVoices(t)
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = time.Hour
	}
	if cfg.Model.ModelID == "" {
		cfg.Model = engine.ModelSpec{ModelID: "test-model", Device: "cpu"}
	}
	m, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// lockedView reads guarded state under the manager lock.
func lockedView(m *Manager) (handle engine.Handle, artifacts int) {
	unlock := m.lock()
	defer unlock()
	return m.handle, len(m.artifacts)
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

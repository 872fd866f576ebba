package engine

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeWorker is an in-memory worker API used by client tests.
type fakeWorker struct {
	mu       sync.Mutex
	handles  map[string]bool
	released []string
	lastSpec constructRequest
	failOp   string
}

func newFakeWorker() *fakeWorker { return &fakeWorker{handles: map[string]bool{}} }

func (f *fakeWorker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	switch {
	case path == "/healthz":
		w.WriteHeader(http.StatusOK)
	case path == "/v1/handles" && r.Method == http.MethodPost:
		if f.failOp == "construct" {
			http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&f.lastSpec)
		f.handles["h1"] = true
		_ = json.NewEncoder(w).Encode(constructResponse{Handle: "h1"})
	case strings.HasSuffix(path, "/prompts"):
		var req promptRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if f.failOp == "derive" {
			http.Error(w, "no such file: "+req.RefAudio, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(promptResponse{Prompt: "p-" + req.RefAudio})
	case strings.HasSuffix(path, "/synthesize"):
		var req synthesizeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		raw := make([]byte, 8)
		binary.LittleEndian.PutUint32(raw, math.Float32bits(0.5))
		binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(-0.5))
		_ = json.NewEncoder(w).Encode(synthesizeResponse{SampleRate: 24000, Samples: base64.StdEncoding.EncodeToString(raw)})
	case strings.HasPrefix(path, "/v1/handles/") && r.Method == http.MethodDelete:
		h := strings.TrimPrefix(path, "/v1/handles/")
		if !f.handles[h] {
			http.NotFound(w, r)
			return
		}
		delete(f.handles, h)
		f.released = append(f.released, h)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeWorker) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", nil, zerolog.Nop())
}

func TestClientRoundTrip(t *testing.T) {
	f := newFakeWorker()
	c := newTestClient(t, f)
	ctx := context.Background()

	h, err := c.ConstructHandle(ctx, ModelSpec{ModelID: "Qwen/Qwen3-TTS-12Hz-1.7B-Base", Device: "cuda:0", DType: "bfloat16", Attention: "eager"})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if h != "h1" {
		t.Fatalf("handle=%q", h)
	}
	if f.lastSpec.AttnImplementation != "eager" || f.lastSpec.DType != "bfloat16" {
		t.Fatalf("spec not forwarded: %+v", f.lastSpec)
	}
	a, err := c.DeriveArtifact(ctx, h, "dave.m4a", "hello")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a != "p-dave.m4a" {
		t.Fatalf("artifact=%q", a)
	}
	out, err := c.Synthesize(ctx, h, a, SynthesisRequest{Text: "hi", Language: "English"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.SampleRate != 24000 || len(out.Samples) != 2 || out.Samples[0] != 0.5 {
		t.Fatalf("audio=%+v", out)
	}
	if err := c.ReleaseHandle(ctx, h); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Releasing twice is fine: the worker answers 404.
	if err := c.ReleaseHandle(ctx, h); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if len(f.released) != 1 {
		t.Fatalf("released=%v", f.released)
	}
}

func TestClientStatusError(t *testing.T) {
	f := newFakeWorker()
	f.failOp = "construct"
	c := newTestClient(t, f)
	_, err := c.ConstructHandle(context.Background(), ModelSpec{ModelID: "m"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusInternalServerError || !strings.Contains(se.Body, "out of memory") {
		t.Fatalf("unexpected: %+v", se)
	}
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("IsStatus mismatch")
	}
}

func TestClientHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })
	c := NewClient(srv.URL, nil, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Synthesize(ctx, "h", "p", SynthesisRequest{Text: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClientHealthy(t *testing.T) {
	c := newTestClient(t, newFakeWorker())
	if !c.Healthy(context.Background(), time.Second) {
		t.Fatalf("expected healthy")
	}
	dead := NewClient("http://127.0.0.1:1", nil, zerolog.Nop())
	if dead.Healthy(context.Background(), 100*time.Millisecond) {
		t.Fatalf("expected unhealthy")
	}
}

func TestTailBufferKeepsSuffix(t *testing.T) {
	tb := newTailBuffer(4)
	_, _ = tb.Write([]byte("abc"))
	_, _ = tb.Write([]byte("def"))
	if got := tb.String(); got != "cdef" {
		t.Fatalf("tail=%q", got)
	}
}

func TestNewSpawnerRequiresCommand(t *testing.T) {
	if _, err := NewSpawner(SpawnConfig{}); err == nil {
		t.Fatalf("expected error")
	}
	s, err := NewSpawner(SpawnConfig{Command: "worker"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.cfg.Host != "127.0.0.1" || s.cfg.ReadyTimeout <= 0 || s.cfg.StopTimeout <= 0 {
		t.Fatalf("defaults not applied: %+v", s.cfg)
	}
	if _, err := s.DeriveArtifact(context.Background(), "h", "a", "b"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if err := s.ReleaseHandle(context.Background(), "h"); err != nil {
		t.Fatalf("release without worker: %v", err)
	}
	if s.PID() != 0 {
		t.Fatalf("pid=%d", s.PID())
	}
}

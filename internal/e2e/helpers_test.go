package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voiced/internal/engine"
	"voiced/internal/httpapi"
	"voiced/internal/manager"
	"voiced/internal/voices"
	"voiced/pkg/types"
)

// worker is a fake inference worker speaking the engine HTTP API.
type worker struct {
	mu        sync.Mutex
	handles   map[string]bool
	ops       map[string]int
	synthGate chan struct{}
}

func newWorker() *worker {
	return &worker{handles: map[string]bool{}, ops: map[string]int{}}
}

func (w *worker) count(op string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ops[op]
}

func (w *worker) live() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handles)
}

func (w *worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/healthz":
		rw.WriteHeader(http.StatusOK)
	case path == "/v1/handles" && r.Method == http.MethodPost:
		h := uuid.NewString()
		w.mu.Lock()
		w.ops["construct"]++
		w.handles[h] = true
		w.mu.Unlock()
		_ = json.NewEncoder(rw).Encode(map[string]string{"handle": h})
	case strings.HasSuffix(path, "/prompts"):
		w.mu.Lock()
		w.ops["derive"]++
		w.mu.Unlock()
		_ = json.NewEncoder(rw).Encode(map[string]string{"prompt": "p-" + uuid.NewString()})
	case strings.HasSuffix(path, "/synthesize"):
		w.mu.Lock()
		w.ops["synthesize"]++
		gate := w.synthGate
		w.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		raw := make([]byte, 4*3)
		for i, v := range []float32{0.25, -0.25, 0} {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"sample_rate": 24000, "samples": base64.StdEncoding.EncodeToString(raw)})
	case strings.HasPrefix(path, "/v1/handles/") && r.Method == http.MethodDelete:
		h := strings.TrimPrefix(path, "/v1/handles/")
		w.mu.Lock()
		w.ops["release"]++
		delete(w.handles, h)
		w.mu.Unlock()
		rw.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(rw, r)
	}
}

type stack struct {
	srv    *httptest.Server
	mgr    *manager.Manager
	worker *worker
	events *manager.MemoryPublisher
}

// newStack wires the HTTP API to a real manager whose engine client talks
// to a fake worker over HTTP.
func newStack(t *testing.T, cfg manager.ManagerConfig, w *worker) *stack {
	t.Helper()
	ws := httptest.NewServer(w)
	t.Cleanup(ws.Close)

	reg, err := voices.New([]types.Voice{
		{Name: "dave", RefAudio: "/voices/dave.m4a", RefText: "I am Dave."},
		{Name: "alice", RefAudio: "/voices/alice.wav", RefText: "I am Alice."},
	}, "dave")
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	events := manager.NewMemoryPublisher()
	cfg.Engine = engine.NewClient(ws.URL, nil, zerolog.Nop())
	cfg.Voices = reg
	cfg.Publisher = events
	mgr, err := manager.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return &stack{srv: srv, mgr: mgr, worker: w, events: events}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s", d)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// SpawnConfig controls how the worker process is started.
type SpawnConfig struct {
	// Command is the worker executable; Args are passed before --host/--port.
	Command string
	Args    []string
	Env     []string
	Host    string
	// Optional port range; zero picks an ephemeral port.
	PortStart int
	PortEnd   int
	// ReadyTimeout bounds the wait for /healthz after start.
	ReadyTimeout time.Duration
	// StopTimeout is the grace period between SIGTERM and SIGKILL.
	StopTimeout time.Duration
	HTTPClient  *http.Client
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Notify receives spawn_* lifecycle events. Optional.
	Notify func(name string, fields map[string]any)
}

// Spawner runs one worker process for the lifetime of a handle: the process
// is started on ConstructHandle and stopped after ReleaseHandle. Killing the
// process guarantees device memory is returned even if the worker leaks.
type Spawner struct {
	cfg SpawnConfig
	log zerolog.Logger

	mu   sync.Mutex
	proc *workerProc
	// pid mirrors the live worker for PID, which must not wait on mu while
	// a spawn or stop is in progress.
	pid atomic.Int64
}

type workerProc struct {
	cmd     *exec.Cmd
	client  *Client
	pid     int
	port    int
	stderr  *tailBuffer
	done    chan struct{}
	waitErr error
}

func (p *workerProc) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// NewSpawner validates cfg and applies defaults.
func NewSpawner(cfg SpawnConfig) (*Spawner, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("engine: spawn command is empty")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Minute
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	if cfg.Notify == nil {
		cfg.Notify = func(string, map[string]any) {}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Spawner{cfg: cfg, log: log}, nil
}

func (s *Spawner) ConstructHandle(ctx context.Context, spec ModelSpec) (Handle, error) {
	p, err := s.ensureProcess(ctx)
	if err != nil {
		return "", err
	}
	h, err := p.client.ConstructHandle(ctx, spec)
	if err != nil {
		// A worker without a model only holds a CUDA context; drop it.
		return "", multierr.Append(err, s.Stop())
	}
	return h, nil
}

func (s *Spawner) DeriveArtifact(ctx context.Context, h Handle, refAudio, refText string) (Artifact, error) {
	c, err := s.client()
	if err != nil {
		return "", err
	}
	return c.DeriveArtifact(ctx, h, refAudio, refText)
}

func (s *Spawner) Synthesize(ctx context.Context, h Handle, a Artifact, req SynthesisRequest) (Audio, error) {
	c, err := s.client()
	if err != nil {
		return Audio{}, err
	}
	return c.Synthesize(ctx, h, a, req)
}

func (s *Spawner) ReleaseHandle(ctx context.Context, h Handle) error {
	c, err := s.client()
	if errors.Is(err, ErrNotRunning) {
		return nil
	}
	var relErr error
	if err == nil {
		relErr = c.ReleaseHandle(ctx, h)
	}
	return multierr.Append(relErr, s.Stop())
}

// PID returns the live worker pid, or 0.
func (s *Spawner) PID() int { return int(s.pid.Load()) }

func (s *Spawner) client() (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return nil, ErrNotRunning
	}
	if s.proc.exited() {
		return nil, fmt.Errorf("%w: exited: %v; stderr tail: %s", ErrNotRunning, s.proc.waitErr, s.proc.stderr.String())
	}
	return s.proc.client, nil
}

// ensureProcess starts (or returns the existing) worker and waits for readiness.
func (s *Spawner) ensureProcess(ctx context.Context) (*workerProc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.proc; p != nil {
		if !p.exited() && p.client.Healthy(ctx, time.Second) {
			return p, nil
		}
		// unhealthy or dead: restart
		s.stopLocked()
	}

	host := s.cfg.Host
	var port int
	var err error
	if s.cfg.PortStart > 0 && s.cfg.PortEnd >= s.cfg.PortStart {
		port, err = pickPortInRange(host, s.cfg.PortStart, s.cfg.PortEnd)
	} else {
		port, err = pickFreePort(host)
	}
	if err != nil {
		return nil, err
	}
	baseURL := "http://" + net.JoinHostPort(host, strconv.Itoa(port))

	args := append(append([]string(nil), s.cfg.Args...), "--host", host, "--port", strconv.Itoa(port))
	cmd := exec.Command(s.cfg.Command, args...)
	cmd.Env = append(os.Environ(), s.cfg.Env...)
	stderr := newTailBuffer(bodyTailLimit)
	cmd.Stderr = stderr
	setProcessGroup(cmd)
	// Bounds how long Wait keeps reading stderr once the worker is gone.
	cmd.WaitDelay = s.cfg.StopTimeout
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	p := &workerProc{
		cmd:    cmd,
		client: NewClient(baseURL, s.cfg.HTTPClient, s.log),
		pid:    cmd.Process.Pid,
		port:   port,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	s.pid.Store(int64(p.pid))
	go func() {
		p.waitErr = cmd.Wait()
		s.pid.CompareAndSwap(int64(p.pid), 0)
		close(p.done)
	}()
	s.proc = p
	s.log.Info().Str("event", "spawn_start").Int("pid", p.pid).Str("url", baseURL).Msg("worker started")
	s.cfg.Notify("spawn_start", map[string]any{"pid": p.pid, "port": port})

	deadline := time.NewTimer(s.cfg.ReadyTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if p.client.Healthy(ctx, time.Second) {
			s.log.Info().Str("event", "spawn_ready").Int("pid", p.pid).Msg("worker ready")
			s.cfg.Notify("spawn_ready", map[string]any{"pid": p.pid, "url": baseURL})
			return p, nil
		}
		select {
		case <-p.done:
			s.proc = nil
			_ = signalGroup(p.pid, syscall.SIGKILL)
			s.log.Error().Str("event", "spawn_exit").Int("pid", p.pid).AnErr("wait_err", p.waitErr).Msg("worker exited before ready")
			s.cfg.Notify("spawn_exit", map[string]any{"pid": p.pid, "before_ready": true})
			return nil, fmt.Errorf("worker exited before ready: %v; stderr tail: %s", p.waitErr, stderr.String())
		case <-deadline.C:
			s.stopLocked()
			s.log.Error().Str("event", "spawn_timeout").Int("pid", p.pid).Msg("worker not ready in time")
			s.cfg.Notify("spawn_timeout", map[string]any{"pid": p.pid})
			return nil, fmt.Errorf("worker not ready in %s: %s", s.cfg.ReadyTimeout, baseURL)
		case <-ctx.Done():
			s.stopLocked()
			return nil, ctx.Err()
		case <-tick.C:
		}
	}
}

// Stop terminates the worker process, if any. Safe to call repeatedly.
func (s *Spawner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Spawner) stopLocked() error {
	p := s.proc
	s.proc = nil
	if p == nil {
		return nil
	}
	s.pid.CompareAndSwap(int64(p.pid), 0)
	if p.exited() {
		// Children may outlive the leader and still hold the group.
		_ = signalGroup(p.pid, syscall.SIGKILL)
		return nil
	}
	// Try to gracefully terminate first, then fall back to kill.
	var err error
	if sigErr := signalGroup(p.pid, syscall.SIGTERM); sigErr != nil {
		err = multierr.Append(err, sigErr)
	}
	select {
	case <-p.done:
		_ = signalGroup(p.pid, syscall.SIGKILL)
	case <-time.After(s.cfg.StopTimeout):
		if killErr := signalGroup(p.pid, syscall.SIGKILL); killErr != nil {
			err = multierr.Append(err, killErr)
		}
		<-p.done
	}
	s.log.Info().Str("event", "spawn_stop").Int("pid", p.pid).Msg("worker stopped")
	s.cfg.Notify("spawn_stop", map[string]any{"pid": p.pid})
	return err
}

func pickPortInRange(host string, start, end int) (int, error) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func newTailBuffer(limit int) *tailBuffer { return &tailBuffer{limit: limit} }

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	c := Config{Voices: []VoiceConfig{
		{Name: "alice", RefAudio: "/v/alice.wav", RefText: "I am Alice."},
		{Name: "dave", RefAudio: "/v/dave.m4a", RefText: "I am Dave."},
	}}
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Addr != DefaultAddr || c.Model.ID != DefaultModelID || c.Model.Device != "cuda:0" || c.Model.DType != "bfloat16" {
		t.Fatalf("defaults: %+v", c)
	}
	if c.IdleTimeout.D() != 15*time.Minute || c.LoadTimeout.D() != 10*time.Minute || c.MaxWait.D() != 10*time.Minute {
		t.Fatalf("durations: %v %v %v", c.IdleTimeout, c.LoadTimeout, c.MaxWait)
	}
	if c.MaxQueueDepth != 16 || c.Worker.URL != DefaultWorkerURL || c.LogLevel != "info" {
		t.Fatalf("defaults: %+v", c)
	}
	spawn := Config{Worker: WorkerConfig{Command: "worker"}, RateLimit: RateLimitConfig{RPS: 2}}
	spawn.ApplyDefaults()
	if spawn.Worker.URL != "" {
		t.Fatalf("spawned worker must not get a default url")
	}
	if spawn.RateLimit.Burst != 1 {
		t.Fatalf("burst=%d", spawn.RateLimit.Burst)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cases := map[string]func(c *Config){
		"no voices":        func(c *Config) { c.Voices = nil },
		"unknown default":  func(c *Config) { c.DefaultVoice = "zed" },
		"missing audio":    func(c *Config) { c.Voices[0].RefAudio = "" },
		"missing text":     func(c *Config) { c.Voices[1].RefText = " " },
		"zero idle":        func(c *Config) { c.IdleTimeout = 0 },
		"negative rps":     func(c *Config) { c.RateLimit.RPS = -1 },
		"empty port range": func(c *Config) { c.Worker.PortStart, c.Worker.PortEnd = 9000, 8000 },
		"no worker":        func(c *Config) { c.Worker.URL = "" },
	}
	for name, mutate := range cases {
		c := validConfig()
		c.Voices = append([]VoiceConfig(nil), c.Voices...)
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRegistryDefaultVoice(t *testing.T) {
	c := validConfig()
	reg, err := c.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if reg.Default() != "dave" {
		t.Fatalf("default=%s, want dave when configured", reg.Default())
	}
	c.Voices = c.Voices[:1]
	reg, err = c.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if reg.Default() != "alice" {
		t.Fatalf("default=%s, want first voice", reg.Default())
	}
}

func TestVoiceListResolvesAndMergesDir(t *testing.T) {
	root := t.TempDir()
	vdir := filepath.Join(root, "voices")
	if err := os.MkdirAll(vdir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTempFile(t, vdir, "dave.wav", "RIFF")
	writeTempFile(t, vdir, "dave.txt", "from dir")
	writeTempFile(t, vdir, "zoe.flac", "fLaC")
	writeTempFile(t, vdir, "zoe.txt", "I am Zoe.\n")
	p := writeTempFile(t, root, "voiced.yaml", `voices_dir: voices
voices:
  - name: dave
    ref_audio: refs/dave.m4a
    ref_text: from config
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	vs, err := cfg.VoiceList()
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("voices=%+v", vs)
	}
	if vs[0].Name != "dave" || vs[0].RefText != "from config" {
		t.Fatalf("config entry must win: %+v", vs[0])
	}
	if !filepath.IsAbs(vs[0].RefAudio) || !strings.HasPrefix(vs[0].RefAudio, root) {
		t.Fatalf("ref audio not resolved against config dir: %s", vs[0].RefAudio)
	}
	if vs[1].Name != "zoe" || vs[1].RefText != "I am Zoe." {
		t.Fatalf("scanned voice: %+v", vs[1])
	}
}

func TestResolveEnvOverlay(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9000\nidle_timeout: 5m\n")
	dotenv := writeTempFile(t, d, ".env", "VOICED_MAX_QUEUE_DEPTH=3\nVOICED_ADDR=:1111\n")
	t.Setenv("VOICED_ADDR", ":7777")
	t.Setenv("VOICED_IDLE_TIMEOUT", "90s")
	t.Setenv("VOICED_MODEL_DEVICE", "cpu")
	t.Setenv("VOICED_CORS_ORIGINS", "http://a,http://b")
	t.Cleanup(func() { os.Unsetenv("VOICED_MAX_QUEUE_DEPTH") })

	cfg, err := Resolve(p, dotenv, filepath.Join(d, "missing.env"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Fatalf("process env must win over file and dotenv: %s", cfg.Addr)
	}
	if cfg.IdleTimeout.D() != 90*time.Second || cfg.Model.Device != "cpu" {
		t.Fatalf("env overlay: idle=%v device=%s", cfg.IdleTimeout, cfg.Model.Device)
	}
	if cfg.MaxQueueDepth != 3 {
		t.Fatalf("dotenv not applied: %d", cfg.MaxQueueDepth)
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Fatalf("origins=%v", cfg.CORS.Origins)
	}
	if cfg.Model.ID != DefaultModelID {
		t.Fatalf("defaults not applied after overlay")
	}
}

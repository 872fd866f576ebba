package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr" envconfig:"ADDR"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" envconfig:"LOG_LEVEL"`
	LogPretty bool   `json:"log_pretty" yaml:"log_pretty" toml:"log_pretty" envconfig:"LOG_PRETTY"`

	Model  ModelConfig  `json:"model" yaml:"model" toml:"model" envconfig:"MODEL"`
	Worker WorkerConfig `json:"worker" yaml:"worker" toml:"worker" envconfig:"WORKER"`

	// IdleTimeout unloads the model after this long without use.
	IdleTimeout   Duration `json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	LoadTimeout   Duration `json:"load_timeout" yaml:"load_timeout" toml:"load_timeout" envconfig:"LOAD_TIMEOUT"`
	MaxQueueDepth int      `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" envconfig:"MAX_QUEUE_DEPTH"`
	MaxWait       Duration `json:"max_wait" yaml:"max_wait" toml:"max_wait" envconfig:"MAX_WAIT"`
	// NoWarmup skips the background load right after startup.
	NoWarmup bool `json:"no_warmup" yaml:"no_warmup" toml:"no_warmup" envconfig:"NO_WARMUP"`

	DefaultVoice string        `json:"default_voice" yaml:"default_voice" toml:"default_voice" envconfig:"DEFAULT_VOICE"`
	Voices       []VoiceConfig `json:"voices" yaml:"voices" toml:"voices" ignored:"true"`
	// VoicesDir is scanned for <name>.wav + <name>.txt pairs.
	VoicesDir string `json:"voices_dir" yaml:"voices_dir" toml:"voices_dir" envconfig:"VOICES_DIR"`
	StaticDir string `json:"static_dir" yaml:"static_dir" toml:"static_dir" envconfig:"STATIC_DIR"`

	GPU       GPUConfig       `json:"gpu" yaml:"gpu" toml:"gpu" envconfig:"GPU"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit" envconfig:"RATE_LIMIT"`
	CORS      CORSConfig      `json:"cors" yaml:"cors" toml:"cors" envconfig:"CORS"`

	// baseDir resolves relative paths; set by Load to the file's directory.
	baseDir string
}

// ModelConfig selects the model the worker constructs.
type ModelConfig struct {
	ID        string `json:"id" yaml:"id" toml:"id" envconfig:"ID"`
	Device    string `json:"device" yaml:"device" toml:"device" envconfig:"DEVICE"`
	DType     string `json:"dtype" yaml:"dtype" toml:"dtype" envconfig:"DTYPE"`
	Attention string `json:"attention" yaml:"attention" toml:"attention" envconfig:"ATTENTION"`
}

// WorkerConfig locates the inference worker. With Command set voiced spawns
// and supervises the worker; otherwise it talks to the one at URL.
type WorkerConfig struct {
	URL          string   `json:"url" yaml:"url" toml:"url" envconfig:"URL"`
	Command      string   `json:"command" yaml:"command" toml:"command" envconfig:"COMMAND"`
	Args         []string `json:"args" yaml:"args" toml:"args" envconfig:"ARGS"`
	Env          []string `json:"env" yaml:"env" toml:"env" envconfig:"ENV"`
	PortStart    int      `json:"port_start" yaml:"port_start" toml:"port_start" envconfig:"PORT_START"`
	PortEnd      int      `json:"port_end" yaml:"port_end" toml:"port_end" envconfig:"PORT_END"`
	ReadyTimeout Duration `json:"ready_timeout" yaml:"ready_timeout" toml:"ready_timeout" envconfig:"READY_TIMEOUT"`
}

// Spawn reports whether voiced supervises the worker process.
func (w WorkerConfig) Spawn() bool { return strings.TrimSpace(w.Command) != "" }

// VoiceConfig is one voice entry of the config file.
type VoiceConfig struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	RefAudio    string `json:"ref_audio" yaml:"ref_audio" toml:"ref_audio"`
	RefText     string `json:"ref_text" yaml:"ref_text" toml:"ref_text"`
	DefaultText string `json:"default_text" yaml:"default_text" toml:"default_text"`
	Avatar      string `json:"avatar" yaml:"avatar" toml:"avatar"`
}

type GPUConfig struct {
	Disabled bool `json:"disabled" yaml:"disabled" toml:"disabled" envconfig:"DISABLED"`
	Index    int  `json:"index" yaml:"index" toml:"index" envconfig:"INDEX"`
}

// RateLimitConfig limits generation requests. Zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `json:"rps" yaml:"rps" toml:"rps" envconfig:"RPS"`
	Burst int     `json:"burst" yaml:"burst" toml:"burst" envconfig:"BURST"`
}

type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled" envconfig:"ENABLED"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins" envconfig:"ORIGINS"`
}

// Duration is a time.Duration that reads "15m"-style strings, or a bare
// number of seconds, from every config source.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts both "15m" and 900.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.UnmarshalText([]byte(s))
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(n * float64(time.Second))
	return nil
}

// Defaults.
const (
	DefaultAddr          = ":8000"
	DefaultModelID       = "Qwen/Qwen3-TTS-12Hz-1.7B-Base"
	DefaultDevice        = "cuda:0"
	DefaultDType         = "bfloat16"
	DefaultAttention     = "flash_attention_2"
	DefaultWorkerURL     = "http://127.0.0.1:8001"
	DefaultIdleTimeout   = 15 * time.Minute
	DefaultLoadTimeout   = 10 * time.Minute
	DefaultMaxQueueDepth = 16
	DefaultMaxWait       = 10 * time.Minute
	DefaultLogLevel      = "info"
)

// DefaultVoice is used when default_voice is unset and a voice with this
// name is configured; otherwise the first voice is the default.
const DefaultVoice = "dave"

// ApplyDefaults fills every unspecified field.
func (c *Config) ApplyDefaults() {
	setStr := func(p *string, v string) {
		if strings.TrimSpace(*p) == "" {
			*p = v
		}
	}
	setDur := func(p *Duration, v time.Duration) {
		if *p <= 0 {
			*p = Duration(v)
		}
	}
	setStr(&c.Addr, DefaultAddr)
	setStr(&c.LogLevel, DefaultLogLevel)
	setStr(&c.Model.ID, DefaultModelID)
	setStr(&c.Model.Device, DefaultDevice)
	setStr(&c.Model.DType, DefaultDType)
	setStr(&c.Model.Attention, DefaultAttention)
	if !c.Worker.Spawn() {
		setStr(&c.Worker.URL, DefaultWorkerURL)
	}
	setDur(&c.IdleTimeout, DefaultIdleTimeout)
	setDur(&c.LoadTimeout, DefaultLoadTimeout)
	setDur(&c.MaxWait, DefaultMaxWait)
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 1
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"voiced/internal/common/fsutil"
	"voiced/internal/voices"
	"voiced/pkg/types"
)

// Validate reports the first problem that would stop the service from
// starting. It expects defaults to be applied.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: addr is empty")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("config: idle_timeout must be positive")
	}
	if c.LoadTimeout <= 0 {
		return errors.New("config: load_timeout must be positive")
	}
	if strings.TrimSpace(c.Model.ID) == "" {
		return errors.New("config: model.id is empty")
	}
	if !c.Worker.Spawn() && strings.TrimSpace(c.Worker.URL) == "" {
		return errors.New("config: worker.url or worker.command is required")
	}
	if c.Worker.PortStart > 0 && c.Worker.PortEnd < c.Worker.PortStart {
		return fmt.Errorf("config: worker port range %d-%d is empty", c.Worker.PortStart, c.Worker.PortEnd)
	}
	if c.RateLimit.RPS < 0 {
		return errors.New("config: rate_limit.rps must not be negative")
	}
	_, err := c.Registry()
	return err
}

// VoiceList returns the configured voices with paths resolved, followed by
// voices found in VoicesDir. Config entries win on a name clash.
func (c Config) VoiceList() ([]types.Voice, error) {
	out := make([]types.Voice, 0, len(c.Voices))
	for _, v := range c.Voices {
		ref, err := fsutil.ResolvePath(c.baseDir, v.RefAudio)
		if err != nil {
			return nil, fmt.Errorf("config: voice %q: %w", v.Name, err)
		}
		out = append(out, types.Voice{
			Name:        v.Name,
			RefAudio:    ref,
			RefText:     v.RefText,
			DefaultText: v.DefaultText,
			Avatar:      v.Avatar,
		})
	}
	if c.VoicesDir != "" {
		dir, err := fsutil.ResolvePath(c.baseDir, c.VoicesDir)
		if err != nil {
			return nil, fmt.Errorf("config: voices_dir: %w", err)
		}
		scanned, err := voices.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("config: voices_dir: %w", err)
		}
		out = voices.Merge(out, scanned)
	}
	return out, nil
}

// Registry builds the voice registry and checks every voice.
func (c Config) Registry() (*voices.Registry, error) {
	vs, err := c.VoiceList()
	if err != nil {
		return nil, err
	}
	def := c.DefaultVoice
	if def == "" {
		for _, v := range vs {
			if v.Name == DefaultVoice {
				def = DefaultVoice
				break
			}
		}
	}
	reg, err := voices.New(vs, def)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return reg, nil
}

// StaticPath returns StaticDir resolved against the config file directory.
func (c Config) StaticPath() (string, error) {
	if c.StaticDir == "" {
		return "", nil
	}
	return fsutil.ResolvePath(c.baseDir, c.StaticDir)
}

package manager

import (
	"context"
	"fmt"
	"time"

	"voiced/internal/audio"
	"voiced/internal/engine"
)

// Generate synthesizes text in the given voice and returns a WAV file and its
// sample rate. An empty voice selects the default and an empty language
// selects English. Generate never loads the model: it fails with NotLoaded
// when no model is present.
//
// Only a successful synthesis pushes the idle deadline out.
func (m *Manager) Generate(ctx context.Context, text, language, voice string) ([]byte, int, error) {
	if voice == "" {
		voice = m.voices.Default()
	}
	if !m.voices.Has(voice) {
		return nil, 0, ErrUnknownVoice(voice)
	}
	if language == "" {
		language = defaultLanguage
	}

	release, err := m.acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()
	if m.handle == "" {
		return nil, 0, ErrNotLoaded()
	}
	art, ok := m.artifacts[voice]
	if !ok {
		// Registry and artifacts are rebuilt together; a miss means a broken load.
		return nil, 0, ErrNotLoaded()
	}

	start := time.Now()
	out, err := m.synthesizeLocked(ctx, art, engine.SynthesisRequest{Text: text, Language: language})
	dur := time.Since(start)
	if err == nil {
		var wav []byte
		wav, err = audio.EncodeWAV(out.Samples, out.SampleRate)
		if err == nil {
			m.resetIdleTimerLocked()
			m.setView(func(v *view) { v.sampleRate = out.SampleRate })
			generateDurationSeconds.WithLabelValues("success").Observe(dur.Seconds())
			m.log.Info().Str("event", "generate_done").Str("voice", voice).Int("chars", len(text)).
				Int("samples", len(out.Samples)).Int("sample_rate", out.SampleRate).Dur("dur", dur).Msg("synthesis done")
			m.publish("generate_done", map[string]any{"voice": voice, "duration_ms": dur.Milliseconds()})
			return wav, out.SampleRate, nil
		}
		err = fmt.Errorf("encode wav: %w", err)
	}
	generateDurationSeconds.WithLabelValues("failure").Observe(dur.Seconds())
	m.log.Error().Err(err).Str("event", "generate_failed").Str("voice", voice).Dur("dur", dur).Msg("synthesis failed")
	m.publish("generate_failed", map[string]any{"voice": voice, "error": err.Error()})
	return nil, 0, ErrSynthesisFailure(err)
}

// synthesizeLocked runs one synthesis with the busy flag raised. The flag is
// cleared on every exit path, including a panicking engine.
func (m *Manager) synthesizeLocked(ctx context.Context, art engine.Artifact, req engine.SynthesisRequest) (engine.Audio, error) {
	m.setView(func(v *view) {
		m.busy.Store(true)
		v.state = StateGenerating
	})
	modelBusy.Set(1)
	defer func() {
		m.setView(func(v *view) {
			m.busy.Store(false)
			v.state = StateReady
		})
		modelBusy.Set(0)
	}()
	return m.eng.Synthesize(ctx, m.handle, art, req)
}

// Package voices holds the static set of voices whose clone prompts are
// derived every time the model is loaded.
package voices

import (
	"errors"
	"fmt"
	"strings"

	"voiced/pkg/types"
)

// Registry is an ordered, read-only set of voices with a default.
// It is safe for concurrent use because it never changes after New.
type Registry struct {
	voices []types.Voice
	index  map[string]int
	def    string
}

// New validates vs and returns a registry. The default voice must be one of
// vs; an empty defaultName selects the first voice.
func New(vs []types.Voice, defaultName string) (*Registry, error) {
	if len(vs) == 0 {
		return nil, errors.New("voices: at least one voice is required")
	}
	r := &Registry{
		voices: make([]types.Voice, 0, len(vs)),
		index:  make(map[string]int, len(vs)),
	}
	for _, v := range vs {
		v.Name = strings.TrimSpace(v.Name)
		if v.Name == "" {
			return nil, errors.New("voices: voice name is empty")
		}
		if _, dup := r.index[v.Name]; dup {
			return nil, fmt.Errorf("voices: duplicate voice %q", v.Name)
		}
		if strings.TrimSpace(v.RefAudio) == "" {
			return nil, fmt.Errorf("voices: voice %q has no reference audio", v.Name)
		}
		if strings.TrimSpace(v.RefText) == "" {
			return nil, fmt.Errorf("voices: voice %q has no reference text", v.Name)
		}
		r.index[v.Name] = len(r.voices)
		r.voices = append(r.voices, v)
	}
	if defaultName == "" {
		defaultName = r.voices[0].Name
	}
	if _, ok := r.index[defaultName]; !ok {
		return nil, fmt.Errorf("voices: default voice %q is not configured", defaultName)
	}
	r.def = defaultName
	return r, nil
}

// Get returns the voice named name.
func (r *Registry) Get(name string) (types.Voice, bool) {
	i, ok := r.index[name]
	if !ok {
		return types.Voice{}, false
	}
	return r.voices[i], true
}

// Has reports whether name is configured.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Default returns the default voice name.
func (r *Registry) Default() string { return r.def }

// Len returns the number of voices.
func (r *Registry) Len() int { return len(r.voices) }

// Names returns voice names in configuration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.voices))
	for i, v := range r.voices {
		out[i] = v.Name
	}
	return out
}

// List returns a copy of the voices in configuration order.
func (r *Registry) List() []types.Voice {
	out := make([]types.Voice, len(r.voices))
	copy(out, r.voices)
	return out
}

// Merge appends the voices of extra whose names are not already in primary.
func Merge(primary, extra []types.Voice) []types.Voice {
	seen := make(map[string]struct{}, len(primary))
	out := make([]types.Voice, 0, len(primary)+len(extra))
	for _, v := range primary {
		seen[v.Name] = struct{}{}
		out = append(out, v)
	}
	for _, v := range extra {
		if _, ok := seen[v.Name]; ok {
			continue
		}
		seen[v.Name] = struct{}{}
		out = append(out, v)
	}
	return out
}

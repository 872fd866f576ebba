// Package engine talks to the text-to-speech inference worker.
//
// The worker owns the model weights and the device; voiced only holds opaque
// ids for what the worker built:
//
//   - client.go: Client, the HTTP/JSON worker API.
//   - spawner.go: Spawner, which starts a worker process per loaded handle and
//     stops it on release so device memory is returned to the system.
//   - errors.go: StatusError and helpers.
package engine

import "context"

// Handle identifies a model loaded in the worker.
type Handle string

// Artifact identifies a voice-clone prompt derived from a Handle.
type Artifact string

// ModelSpec describes how the worker should construct the model.
type ModelSpec struct {
	ModelID   string
	Device    string
	DType     string
	Attention string
}

// SynthesisRequest is one text to speak.
type SynthesisRequest struct {
	Text     string
	Language string
}

// Audio is mono float32 PCM in [-1, 1].
type Audio struct {
	Samples    []float32
	SampleRate int
}

// Engine is the inference collaborator. All calls are blocking and may take
// seconds to minutes; they must return when ctx is done.
type Engine interface {
	ConstructHandle(ctx context.Context, spec ModelSpec) (Handle, error)
	DeriveArtifact(ctx context.Context, h Handle, refAudio, refText string) (Artifact, error)
	Synthesize(ctx context.Context, h Handle, a Artifact, req SynthesisRequest) (Audio, error)
	// ReleaseHandle frees the model and its device memory.
	ReleaseHandle(ctx context.Context, h Handle) error
}

package types

// Voice is a statically configured voice that can be cloned once the model is
// loaded. Its clone prompt is derived from the reference audio and transcript.
type Voice struct {
	// Stable identifier for the voice.
	// example: dave
	Name string `json:"name" example:"dave"`
	// Path to the reference recording on disk.
	// example: /srv/voices/DaveSample.m4a
	RefAudio string `json:"ref_audio" example:"/srv/voices/DaveSample.m4a"`
	// Transcript of the reference recording.
	RefText string `json:"ref_text"`
	// Text prefilled in the landing page for this voice.
	DefaultText string `json:"default_text,omitempty"`
	// Avatar video file served under /static.
	// example: dave.mp4
	Avatar string `json:"avatar,omitempty" example:"dave.mp4"`
}

package types

// GenerateRequest is the payload of POST /api/generate and /api/generate/json.
type GenerateRequest struct {
	// Required text to synthesize.
	// example: Hello there, this is my cloned voice.
	Text string `json:"text" example:"Hello there, this is my cloned voice."`
	// Language tag passed to the engine. Defaults to English.
	// example: English
	Language string `json:"language,omitempty" example:"English"`
	// Voice to clone. Defaults to the server default voice.
	// example: dave
	Voice string `json:"voice,omitempty" example:"dave"`
}

// GenerateJSONResponse carries base64 audio with metadata.
type GenerateJSONResponse struct {
	// Base64-encoded audio file.
	AudioBase64 string `json:"audio_base64"`
	// Sample rate of the audio in Hz.
	// example: 24000
	SampleRate int `json:"sample_rate" example:"24000"`
	// Container format.
	// example: wav
	Format string `json:"format" example:"wav"`
	// Text that was synthesized.
	Text string `json:"text"`
}

// ReadyResponse is returned by GET /api/getready.
type ReadyResponse struct {
	// example: ready
	Status      string `json:"status" example:"ready"`
	ModelLoaded bool   `json:"model_loaded" example:"true"`
}

// UnloadResponse is returned by POST /api/unload.
type UnloadResponse struct {
	// example: unloaded
	Status      string `json:"status" example:"unloaded"`
	ModelLoaded bool   `json:"model_loaded" example:"false"`
}

// MemoryInfo is a best-effort snapshot of device memory.
// When Available is false the remaining fields are zero.
type MemoryInfo struct {
	Available bool `json:"available"`
	// example: 4.12
	UsedGB float64 `json:"used_gb,omitempty" example:"4.12"`
	// example: 24
	TotalGB float64 `json:"total_gb,omitempty" example:"24"`
	// Human readable used memory.
	// example: 4.1 GB
	UsedHuman string `json:"used_human,omitempty" example:"4.1 GB"`
	// Human readable total memory.
	// example: 24 GB
	TotalHuman string `json:"total_human,omitempty" example:"24 GB"`
}

// UtilizationStats reports device utilization and whether a synthesis is running.
// Numeric fields are zero when the device cannot be queried.
type UtilizationStats struct {
	// example: 17
	VRAMUsedPct int `json:"vram_used_pct" example:"17"`
	// example: 85
	GPUUtilPct int `json:"gpu_util_pct" example:"85"`
	// example: 4.1
	VRAMUsedGB float64 `json:"vram_used_gb" example:"4.1"`
	// example: 24
	VRAMTotalGB float64 `json:"vram_total_gb" example:"24"`
	// True while a synthesis is in flight.
	IsGenerating bool `json:"is_generating"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	ModelLoaded bool `json:"model_loaded"`
	// Lifecycle state: unloaded, loading, ready, generating, unloading.
	// example: ready
	State string `json:"state" example:"ready"`
	Busy  bool   `json:"busy"`
	// Sample rate of the last successful generation, 0 when unknown.
	// example: 24000
	SampleRate int `json:"sample_rate,omitempty" example:"24000"`
	// Voices with a derived clone prompt.
	LoadedVoices []string `json:"loaded_voices"`
	// All configured voices.
	Voices []string `json:"voices"`
	// example: dave
	DefaultVoice string `json:"default_voice" example:"dave"`
	// example: 900
	IdleTimeoutSeconds int64 `json:"idle_timeout_seconds" example:"900"`
	// Seconds until the idle timer unloads the model; 0 when not armed.
	IdleRemainingSeconds int64 `json:"idle_remaining_seconds"`
	// Unix seconds of the last completed load, 0 when unloaded.
	LoadedAtUnix int64 `json:"loaded_at_unix,omitempty"`
	// Message of the last failed load, if any.
	LastError    string `json:"last_error,omitempty"`
	LoadsTotal   uint64 `json:"loads_total"`
	UnloadsTotal uint64 `json:"unloads_total"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
	// PID of the spawned engine worker, when voiced supervises one.
	WorkerPID int        `json:"worker_pid,omitempty"`
	GPU       MemoryInfo `json:"gpu"`
}

// VoiceInfo is the public view of a configured voice.
type VoiceInfo struct {
	// example: dave
	Name        string `json:"name" example:"dave"`
	DefaultText string `json:"default_text,omitempty"`
	// URL of the avatar video, if any.
	// example: /static/dave.mp4
	AvatarVideo string `json:"avatar_video,omitempty" example:"/static/dave.mp4"`
	Default     bool   `json:"default"`
}

// VoicesResponse wraps the list returned by GET /api/voices.
type VoicesResponse struct {
	Voices []VoiceInfo `json:"voices"`
	// example: dave
	DefaultVoice string `json:"default_voice" example:"dave"`
}

// Event is a lifecycle event streamed over /api/events.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Unix milliseconds.
	Time   int64          `json:"time"`
	Fields map[string]any `json:"fields,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

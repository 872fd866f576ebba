package httpapi

import (
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Default remains 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// generateTimeout bounds a generation request, load included.
// Zero means no additional timeout beyond server/connection timeouts.
var generateTimeout time.Duration

// SetGenerateTimeout sets the generation timeout (0 disables).
func SetGenerateTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	generateTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// generateLimiter throttles generation endpoints; nil disables limiting.
var generateLimiter *rate.Limiter

// SetRateLimit limits generation requests to rps with the given burst.
// A non-positive rps disables limiting.
func SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		generateLimiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	generateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// staticDir is served under /static/ when set.
var staticDir string

// SetStaticDir sets the directory served under /static/ ("" disables).
func SetStaticDir(dir string) { staticDir = dir }

// eventSource feeds /api/events; nil disables the endpoint.
var eventSource EventSource

// SetEventSource installs the lifecycle event stream for /api/events.
func SetEventSource(src EventSource) { eventSource = src }

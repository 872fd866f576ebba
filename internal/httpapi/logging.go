package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetRequestLogLevel sets the default per-request log level.
func SetRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logStart records the beginning of a generation request.
func logStart(r *http.Request, lvl LogLevel, voice string, chars int) {
	if lvl < LevelInfo {
		return
	}
	if zlog == nil {
		log.Printf("generate start path=%s voice=%s chars=%d", r.URL.Path, voice, chars)
		return
	}
	z := zlog.Info().Str("path", r.URL.Path).Str("voice", voice).Int("chars", chars)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg("generate start")
}

// logEnd records the outcome of a generation request. Errors are logged
// from LevelError up, successes from LevelInfo up.
func logEnd(r *http.Request, lvl LogLevel, status int, start time.Time, err error) {
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	if zlog == nil {
		log.Printf("generate end status=%d dur=%s err=%v", status, time.Since(start), err)
		return
	}
	z := zlog.Info()
	if err != nil {
		z = zlog.Warn().Err(err)
	}
	z = z.Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg("generate end")
}

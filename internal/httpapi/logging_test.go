package httpapi

import (
	"bytes"
	"errors"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	// query param ?log=debug
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	// legacy query param ?log=1
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("legacy query override failed: %v", got)
	}
	// header X-Log-Level
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	// default from SetRequestLogLevel
	orig := defaultLogLevel
	defer func() { defaultLogLevel = orig }()
	SetRequestLogLevel("error")
	r = httptest.NewRequest("GET", "/x", nil)
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("default level not applied: %v", got)
	}
}

func TestLogEnd_FallsBackToStdLog(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	defer log.SetOutput(orig)
	log.SetOutput(&buf)
	prev := zlog
	zlog = nil
	defer func() { zlog = prev }()

	r := httptest.NewRequest("POST", "/api/generate", nil)
	logEnd(r, LevelInfo, 503, time.Now(), errors.New("load failed"))
	if !strings.Contains(buf.String(), "status=503") || !strings.Contains(buf.String(), "load failed") {
		t.Fatalf("unexpected log: %q", buf.String())
	}
	buf.Reset()
	logEnd(r, LevelOff, 200, time.Now(), nil)
	if buf.Len() != 0 {
		t.Fatalf("logged with level off: %q", buf.String())
	}
}

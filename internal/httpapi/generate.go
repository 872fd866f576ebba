package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voiced/pkg/types"
)

const defaultLanguage = "English"

// decodeGenerate validates and decodes a generation request. It writes the
// error response itself and reports false when the request is rejected.
func (h *handlers) decodeGenerate(w http.ResponseWriter, r *http.Request) (types.GenerateRequest, bool) {
	var req types.GenerateRequest
	// Content-Type check
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return req, false
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return req, false
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}
	reg := h.svc.Voices()
	if req.Voice == "" {
		req.Voice = reg.Default()
	}
	// Rejected here so an unknown voice never triggers a model load.
	if !reg.Has(req.Voice) {
		writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown voice %q; available voices: %s", req.Voice, strings.Join(reg.Names(), ", ")))
		return req, false
	}
	return req, true
}

// synthesize chains EnsureReady and Generate: Generate never loads by itself.
func (h *handlers) synthesize(w http.ResponseWriter, r *http.Request, req types.GenerateRequest) ([]byte, int, bool) {
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, req.Voice, len(req.Text))

	ctx, cancel := workContext(r)
	defer cancel()
	if generateTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, generateTimeout)
		defer tcancel()
	}

	err := h.svc.EnsureReady(ctx)
	var (
		wav []byte
		sr  int
	)
	if err == nil {
		wav, sr, err = h.svc.Generate(ctx, req.Text, req.Language, req.Voice)
	}
	if err != nil {
		if shuttingDown(ctx) {
			writeJSONError(w, http.StatusServiceUnavailable, errShuttingDown.Error())
			logEnd(r, lvl, http.StatusServiceUnavailable, start, err)
			return nil, 0, false
		}
		// Client went away; nobody reads the response.
		if r.Context().Err() != nil {
			logEnd(r, lvl, 499, start, err)
			return nil, 0, false
		}
		status := statusFor(err)
		writeServiceError(w, err)
		logEnd(r, lvl, status, start, err)
		return nil, 0, false
	}
	logEnd(r, lvl, http.StatusOK, start, nil)
	return wav, sr, true
}

func (h *handlers) generateWAV(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}
	wav, sr, ok := h.synthesize(w, r, req)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="output.wav"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Header().Set("X-Sample-Rate", strconv.Itoa(sr))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

func (h *handlers) generateJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}
	wav, sr, ok := h.synthesize(w, r, req)
	if !ok {
		return
	}
	writeJSON(w, types.GenerateJSONResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(wav),
		SampleRate:  sr,
		Format:      "wav",
		Text:        req.Text,
	})
}

// rateLimitMiddleware rejects generation requests above the configured rate.
func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l := generateLimiter; l != nil && !l.Allow() {
			IncrementBackpressure("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

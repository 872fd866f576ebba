package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voiced/internal/voices"
	"voiced/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	EnsureReady(ctx context.Context) error
	Generate(ctx context.Context, text, language, voice string) ([]byte, int, error)
	Unload(ctx context.Context) error
	IsLoaded() bool
	Status(ctx context.Context) types.StatusResponse
	UtilizationStats(ctx context.Context) types.UtilizationStats
	Voices() *voices.Registry
}

// EventSource streams lifecycle events to /api/events subscribers.
type EventSource interface {
	Subscribe() (<-chan types.Event, func())
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON and HTML endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: orDefault(corsAllowedOrigins, []string{"*"}),
			AllowedMethods: orDefault(corsAllowedMethods, []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: orDefault(corsAllowedHeaders, []string{"Accept", "Content-Type", "X-Request-Id", "X-Log-Level"}),
			ExposedHeaders: []string{"X-Sample-Rate", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	h := &handlers{svc: svc}
	r.Group(func(r chi.Router) {
		r.Use(InflightMiddleware)

		r.Get("/", h.landing)
		if staticDir != "" {
			r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		}

		r.Route("/api", func(r chi.Router) {
			r.With(rateLimitMiddleware).Post("/generate", h.generateWAV)
			r.With(rateLimitMiddleware).Post("/generate/json", h.generateJSON)
			r.Get("/getready", h.getReady)
			r.Get("/status", h.status)
			r.Get("/gpu", h.gpu)
			r.Post("/unload", h.unload)
			r.Get("/voices", h.voices)
			r.Get("/events", h.events)
		})

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
			if svc.IsLoaded() {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ready"))
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unloaded"))
		})
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

func (h *handlers) getReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := workContext(r)
	defer cancel()
	if err := h.svc.EnsureReady(ctx); err != nil {
		if shuttingDown(ctx) {
			writeJSONError(w, http.StatusServiceUnavailable, errShuttingDown.Error())
			return
		}
		if r.Context().Err() != nil {
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, types.ReadyResponse{Status: "ready", ModelLoaded: h.svc.IsLoaded()})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status(r.Context()))
}

func (h *handlers) gpu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.UtilizationStats(r.Context()))
}

func (h *handlers) unload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unload(r.Context()); err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, types.UnloadResponse{Status: "unloaded", ModelLoaded: h.svc.IsLoaded()})
}

func (h *handlers) voices(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Voices()
	resp := types.VoicesResponse{DefaultVoice: reg.Default(), Voices: make([]types.VoiceInfo, 0, reg.Len())}
	for _, v := range reg.List() {
		resp.Voices = append(resp.Voices, types.VoiceInfo{
			Name:        v.Name,
			DefaultText: v.DefaultText,
			AvatarVideo: avatarURL(v.Avatar),
			Default:     v.Name == reg.Default(),
		})
	}
	writeJSON(w, resp)
}

// avatarURL maps a bare file name to the static mount.
func avatarURL(a string) string {
	if a == "" || strings.HasPrefix(a, "/") || strings.Contains(a, "://") {
		return a
	}
	return "/static/" + a
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// writeServiceError maps err to a status code and writes it as JSON.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("queue")
	}
	writeJSONError(w, status, err.Error())
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voiced/internal/audio"
)

// bodyTailLimit caps how much of an error body is kept in StatusError.
const bodyTailLimit = 4096

// Client calls a worker over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns a client for the worker at baseURL. A nil hc uses a client
// without a global timeout: every call is bounded by its context.
func NewClient(baseURL string, hc *http.Client, log zerolog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 0}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, log: log}
}

// BaseURL returns the worker base URL.
func (c *Client) BaseURL() string { return c.baseURL }

type constructRequest struct {
	ModelID            string `json:"model_id"`
	Device             string `json:"device,omitempty"`
	DType              string `json:"dtype,omitempty"`
	AttnImplementation string `json:"attn_implementation,omitempty"`
}

type constructResponse struct {
	Handle string `json:"handle"`
}

type promptRequest struct {
	RefAudio string `json:"ref_audio"`
	RefText  string `json:"ref_text"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

type synthesizeRequest struct {
	Prompt   string `json:"prompt"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type synthesizeResponse struct {
	SampleRate int `json:"sample_rate"`
	// Base64 of little-endian float32 samples.
	Samples string `json:"samples"`
}

func (c *Client) ConstructHandle(ctx context.Context, spec ModelSpec) (Handle, error) {
	var out constructResponse
	start := time.Now()
	err := c.do(ctx, "construct", http.MethodPost, "/v1/handles", constructRequest{
		ModelID:            spec.ModelID,
		Device:             spec.Device,
		DType:              spec.DType,
		AttnImplementation: spec.Attention,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Handle == "" {
		return "", errors.New("worker construct: empty handle")
	}
	c.log.Debug().Str("event", "worker_construct").Str("handle", out.Handle).Dur("dur", time.Since(start)).Msg("model constructed")
	return Handle(out.Handle), nil
}

func (c *Client) DeriveArtifact(ctx context.Context, h Handle, refAudio, refText string) (Artifact, error) {
	var out promptResponse
	err := c.do(ctx, "derive", http.MethodPost, "/v1/handles/"+url.PathEscape(string(h))+"/prompts",
		promptRequest{RefAudio: refAudio, RefText: refText}, &out)
	if err != nil {
		return "", err
	}
	if out.Prompt == "" {
		return "", errors.New("worker derive: empty prompt")
	}
	return Artifact(out.Prompt), nil
}

func (c *Client) Synthesize(ctx context.Context, h Handle, a Artifact, req SynthesisRequest) (Audio, error) {
	var out synthesizeResponse
	err := c.do(ctx, "synthesize", http.MethodPost, "/v1/handles/"+url.PathEscape(string(h))+"/synthesize",
		synthesizeRequest{Prompt: string(a), Text: req.Text, Language: req.Language}, &out)
	if err != nil {
		return Audio{}, err
	}
	if out.SampleRate <= 0 {
		return Audio{}, fmt.Errorf("worker synthesize: invalid sample rate %d", out.SampleRate)
	}
	raw, err := base64.StdEncoding.DecodeString(out.Samples)
	if err != nil {
		return Audio{}, fmt.Errorf("worker synthesize: decode samples: %w", err)
	}
	samples, err := audio.DecodeFloat32LE(raw)
	if err != nil {
		return Audio{}, fmt.Errorf("worker synthesize: %w", err)
	}
	return Audio{Samples: samples, SampleRate: out.SampleRate}, nil
}

func (c *Client) ReleaseHandle(ctx context.Context, h Handle) error {
	err := c.do(ctx, "release", http.MethodDelete, "/v1/handles/"+url.PathEscape(string(h)), nil, nil)
	if IsStatus(err, http.StatusNotFound) {
		// Already gone on the worker side.
		return nil
	}
	return err
}

// Healthy reports whether GET /healthz answers 2xx within timeout.
func (c *Client) Healthy(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("worker %s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("worker %s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("worker %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, bodyTailLimit))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("worker %s: decode: %w", op, err)
	}
	return nil
}

//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

type apiDoc struct{}

func (apiDoc) ReadDoc() string { return swaggerDoc }

func init() {
	swag.Register(swag.Name, apiDoc{})
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

const swaggerDoc = `{
  "swagger": "2.0",
  "info": {
    "title": "voiced API",
    "description": "Voice-clone text to speech. The model loads on demand and unloads after a period of inactivity.",
    "version": "1.0"
  },
  "basePath": "/",
  "schemes": ["http"],
  "paths": {
    "/api/generate": {
      "post": {
        "summary": "Generate speech audio",
        "consumes": ["application/json"],
        "produces": ["audio/wav"],
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}],
        "responses": {
          "200": {"description": "WAV file"},
          "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "415": {"description": "Unsupported media type", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "429": {"description": "Too busy", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "503": {"description": "Model unavailable", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/api/generate/json": {
      "post": {
        "summary": "Generate speech (base64 JSON)",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerateJSONResponse"}},
          "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/api/getready": {
      "get": {"summary": "Load the model if needed", "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ReadyResponse"}}}}
    },
    "/api/status": {
      "get": {"summary": "Service status", "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/StatusResponse"}}}}
    },
    "/api/gpu": {
      "get": {"summary": "Device utilization", "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/UtilizationStats"}}}}
    },
    "/api/unload": {
      "post": {"summary": "Unload the model", "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/UnloadResponse"}}}}
    },
    "/api/voices": {
      "get": {"summary": "Configured voices", "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/VoicesResponse"}}}}
    }
  },
  "definitions": {
    "GenerateRequest": {"type": "object", "required": ["text"], "properties": {
      "text": {"type": "string"}, "language": {"type": "string", "example": "English"}, "voice": {"type": "string", "example": "dave"}}},
    "GenerateJSONResponse": {"type": "object", "properties": {
      "audio_base64": {"type": "string"}, "sample_rate": {"type": "integer"}, "format": {"type": "string"}, "text": {"type": "string"}}},
    "ReadyResponse": {"type": "object", "properties": {"status": {"type": "string"}, "model_loaded": {"type": "boolean"}}},
    "UnloadResponse": {"type": "object", "properties": {"status": {"type": "string"}, "model_loaded": {"type": "boolean"}}},
    "MemoryInfo": {"type": "object", "properties": {
      "available": {"type": "boolean"}, "used_gb": {"type": "number"}, "total_gb": {"type": "number"},
      "used_human": {"type": "string"}, "total_human": {"type": "string"}}},
    "UtilizationStats": {"type": "object", "properties": {
      "vram_used_pct": {"type": "integer"}, "gpu_util_pct": {"type": "integer"}, "vram_used_gb": {"type": "number"},
      "vram_total_gb": {"type": "number"}, "is_generating": {"type": "boolean"}}},
    "StatusResponse": {"type": "object", "properties": {
      "model_loaded": {"type": "boolean"}, "state": {"type": "string"}, "busy": {"type": "boolean"},
      "sample_rate": {"type": "integer"}, "loaded_voices": {"type": "array", "items": {"type": "string"}},
      "voices": {"type": "array", "items": {"type": "string"}}, "default_voice": {"type": "string"},
      "idle_timeout_seconds": {"type": "integer"}, "idle_remaining_seconds": {"type": "integer"},
      "loaded_at_unix": {"type": "integer"}, "last_error": {"type": "string"},
      "loads_total": {"type": "integer"}, "unloads_total": {"type": "integer"},
      "uptime_seconds": {"type": "integer"}, "worker_pid": {"type": "integer"},
      "gpu": {"$ref": "#/definitions/MemoryInfo"}}},
    "VoiceInfo": {"type": "object", "properties": {
      "name": {"type": "string"}, "default_text": {"type": "string"}, "avatar_video": {"type": "string"}, "default": {"type": "boolean"}}},
    "VoicesResponse": {"type": "object", "properties": {
      "voices": {"type": "array", "items": {"$ref": "#/definitions/VoiceInfo"}}, "default_voice": {"type": "string"}}},
    "ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}}
  }
}`

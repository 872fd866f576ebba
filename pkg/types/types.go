// Package types holds the payloads shared between the HTTP API, the manager
// and external clients.
package types

package manager

import (
	"errors"
	"fmt"
	"time"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ waited string }

func (e tooBusyError) Error() string { return "too busy: waited " + e.waited }

// ErrTooBusy reports that no lock was obtained within waited.
func ErrTooBusy(waited time.Duration) error { return tooBusyError{waited: waited.String()} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// loadFailureError wraps whatever stopped the model from loading. The manager
// is unloaded again when this error surfaces.
type loadFailureError struct{ err error }

func (e loadFailureError) Error() string { return "load failed: " + e.err.Error() }
func (e loadFailureError) Unwrap() error { return e.err }

// ErrLoadFailure wraps cause as a load failure.
func ErrLoadFailure(cause error) error { return loadFailureError{err: cause} }

// IsLoadFailure reports whether err is a failed load.
func IsLoadFailure(err error) bool {
	var e loadFailureError
	return errors.As(err, &e)
}

// unknownVoiceError is returned for a voice that is not configured.
type unknownVoiceError struct{ name string }

func (e unknownVoiceError) Error() string { return fmt.Sprintf("unknown voice: %q", e.name) }

func ErrUnknownVoice(name string) error { return unknownVoiceError{name: name} }

// IsUnknownVoice reports whether err names a voice that is not configured.
func IsUnknownVoice(err error) bool {
	var e unknownVoiceError
	return errors.As(err, &e)
}

type notLoadedError struct{}

func (notLoadedError) Error() string { return "model not loaded" }

// ErrNotLoaded is returned by Generate when no model is loaded. Generate
// never loads implicitly; callers use EnsureReady first.
func ErrNotLoaded() error { return notLoadedError{} }

func IsNotLoaded(err error) bool {
	var e notLoadedError
	return errors.As(err, &e)
}

// synthesisFailureError wraps an engine failure during Generate. The model
// stays loaded.
type synthesisFailureError struct{ err error }

func (e synthesisFailureError) Error() string { return "synthesis failed: " + e.err.Error() }
func (e synthesisFailureError) Unwrap() error { return e.err }

func ErrSynthesisFailure(cause error) error { return synthesisFailureError{err: cause} }

func IsSynthesisFailure(err error) bool {
	var e synthesisFailureError
	return errors.As(err, &e)
}

// ErrClosed is returned by operations attempted after Close.
var ErrClosed = errors.New("manager: closed")

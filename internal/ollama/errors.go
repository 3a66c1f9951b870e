package ollama

import (
	"errors"
	"fmt"
	"time"
)

// ErrServerUnavailable indicates the liveness probe failed. Surfaced
// immediately by read operations; never retried.
var ErrServerUnavailable = errors.New("Ollama server is not running, start it to continue")

// FailureKind classifies a terminal request failure after retries.
type FailureKind string

const (
	// FailureTimeout covers per-attempt deadline expiry.
	FailureTimeout FailureKind = "timeout"
	// FailureConnection covers refused/reset connections and DNS errors.
	FailureConnection FailureKind = "connection"
	// FailureServer covers HTTP 5xx responses that survived all retries.
	FailureServer FailureKind = "server"
)

// ModelNotFoundError is returned for an HTTP 404 from the API: the model is
// not pulled or the name is misspelled. Never retried.
type ModelNotFoundError struct {
	Model  string
	Detail string
}

func (e *ModelNotFoundError) Error() string {
	msg := fmt.Sprintf("model %q not found, it may not be pulled or is misspelled", e.Model)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// RequestError is the terminal error raised when all attempts of a POST
// call failed. Kind mirrors the last observed failure; Attempts and Timeout
// carry the diagnostics callers are expected to display.
type RequestError struct {
	Kind     FailureKind
	Status   int // HTTP status of the last response, 0 for transport failures
	Attempts int
	Timeout  time.Duration
	Err      error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case FailureTimeout:
		return fmt.Sprintf("request to Ollama timed out after %s (%d attempts)", e.Timeout, e.Attempts)
	case FailureConnection:
		return fmt.Sprintf("could not connect to Ollama after %d attempts (timeout %s): %v", e.Attempts, e.Timeout, e.Err)
	default:
		return fmt.Sprintf("Ollama server error %d persisted across %d attempts (timeout %s)", e.Status, e.Attempts, e.Timeout)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

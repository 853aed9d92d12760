package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a provider is asked to continue a
// conversation it has no record of.
var ErrSessionNotFound = errors.New("session not found")

// ConfigurationError means a provider was used without the credentials it
// needs. It is raised on first use, not at startup, so a deployment with a
// single configured provider still serves.
type ConfigurationError struct {
	Provider string
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s provider not configured: %s not set", e.Provider, e.Missing)
}

// UpstreamError wraps a failed provider call. Reason is "timeout" when the
// call ran out the deadline, "api" otherwise.
type UpstreamError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream failure (%s): %v", e.Provider, e.Reason, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// upstream classifies a raw provider error into the taxonomy
func upstream(provider string, err error) error {
	reason := "api"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	return &UpstreamError{Provider: provider, Reason: reason, Err: err}
}

// Package ai defines the language model capability boundary. The concrete
// model (a hosted Gemini backend, or a test double) is always injected as a
// Provider; nothing in the pipeline looks a model up ambiently, and every
// call site must tolerate an absent provider.
package ai

import (
	"context"
	"errors"
)

// Availability reports whether the model capability can be used on this host.
type Availability int

const (
	// Unavailable means no model can be used at all.
	Unavailable Availability = iota
	// Downloadable means the model exists but requires a one-time download
	// before sessions can be created.
	Downloadable
	// Available means sessions can be created right away.
	Available
)

func (a Availability) String() string {
	switch a {
	case Downloadable:
		return "downloadable"
	case Available:
		return "available"
	default:
		return "unavailable"
	}
}

var (
	// ErrCapabilityUnavailable signals that no model capability exists on
	// this host. Non-retryable without host changes.
	ErrCapabilityUnavailable = errors.New("model capability is not available on this host")

	// ErrModelUnavailable signals that the provider reported unavailable at
	// session-creation time, racing a prior positive availability check.
	ErrModelUnavailable = errors.New("model is unavailable")
)

// SessionOptions constrain the sessions a Provider creates.
type SessionOptions struct {
	// Languages hints the expected output languages, e.g. ["es"].
	Languages []string
}

// Session is a single model conversation. Prompts within one session share
// history, which is why a session must never be reused across candidates.
type Session interface {
	Prompt(ctx context.Context, text string) (string, error)
	// Destroy releases the session. Safe to call more than once.
	Destroy()
}

// Provider brokers access to a language model backend.
type Provider interface {
	// Availability reports the current capability state. Implementations
	// fail soft: an absent backend is Unavailable, not an error.
	Availability(ctx context.Context, opts SessionOptions) (Availability, error)

	// Create opens a new session. When the model needs a download first,
	// onProgress receives values in [0,1] until the download completes.
	// onProgress may be nil.
	Create(ctx context.Context, opts SessionOptions, onProgress func(float64)) (Session, error)
}

// Package completion defines the boundary to the external text-completion
// service: a prompt goes in, a bounded continuation comes out.
package completion

import (
	"context"
	"errors"
)

// ErrCompletion wraps every backend failure (transport, status, decoding).
var ErrCompletion = errors.New("completion error")

// StopReason explains why a completion call stopped producing text.
type StopReason string

const (
	// StopLength means the MaxNewTokens bound was reached. The model may have
	// more to say.
	StopLength StopReason = "length"

	// StopEnd means the model emitted its end-of-text token and the backend
	// consumed it instead of rendering it into Text.
	StopEnd StopReason = "end"

	// StopUnknown is used when the backend does not say.
	StopUnknown StopReason = ""
)

// Sampling carries the per-model sampling parameters.
type Sampling struct {
	DoSample    bool
	TopK        int
	TopP        float64
	Temperature float64

	// Seed makes sampling reproducible on backends that support it. Nil means
	// backend default.
	Seed *int
}

// Request is a single bounded completion call.
type Request struct {
	// Model is the backend model identifier.
	Model string

	// Prompt is the full text to continue.
	Prompt string

	// MaxNewTokens bounds the continuation length.
	MaxNewTokens int

	Sampling Sampling
}

// Result is the continuation for a Request. Text never includes the prompt.
type Result struct {
	Text       string
	StopReason StopReason
}

// Service is the text-completion collaborator. Implementations must return
// only the continuation, never an echo of the prompt.
type Service interface {
	// Complete continues req.Prompt by at most req.MaxNewTokens tokens.
	Complete(ctx context.Context, req Request) (Result, error)

	// Close releases any resources held by the service.
	Close() error
}

// Lister is implemented by services that can report which models are
// available locally on the backend.
type Lister interface {
	Models(ctx context.Context) ([]string, error)
}

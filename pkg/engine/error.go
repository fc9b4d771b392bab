package engine

import "errors"

var (
	// ErrGenerationFailed wraps a completion service failure. The turn is
	// aborted and the transcript keeps its pre-call baseline.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrMalformedSession is returned when pulling from a Stream that no
	// Engine started.
	ErrMalformedSession = errors.New("malformed session: stream was not started by an engine")

	// ErrSessionActive is returned by Answer while another Stream is live.
	ErrSessionActive = errors.New("a generation session is already active")

	// ErrSessionAbandoned is returned when pulling from a Stream after it was
	// closed or the engine was reset.
	ErrSessionAbandoned = errors.New("generation session abandoned")
)

// Package engine drives incremental generation of one bot turn at a time.
//
// An Engine owns the conversation transcript. Answer appends a human turn and
// returns a Stream; every pull on the Stream performs one bounded completion
// round trip and returns the new text. When the accumulated output contains
// the end marker (or the backend reports the model stopped), the turn is
// committed to the transcript and the Stream ends with io.EOF. A Stream that
// is closed, reset or fails before that point leaves the transcript untouched.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"weak"

	"github.com/papercomputeco/leonia/pkg/completion"
	"github.com/papercomputeco/leonia/pkg/logger"
	"github.com/papercomputeco/leonia/pkg/modelconf"
	"github.com/papercomputeco/leonia/pkg/transcript"
)

// CommittedTurn describes a bot turn that became part of the transcript.
type CommittedTurn struct {
	Configuration string
	Model         string
	Human         string
	Bot           string

	// Previous is the baseline the turn was generated from.
	Previous transcript.Transcript

	// Transcript is the new baseline.
	Transcript transcript.Transcript

	Increments  int
	StopReason  string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Observer is notified after every committed turn. It is called on the
// goroutine pulling the Stream and must not block for long.
type Observer interface {
	TurnCommitted(ctx context.Context, turn CommittedTurn)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, turn CommittedTurn)

func (f ObserverFunc) TurnCommitted(ctx context.Context, turn CommittedTurn) {
	f(ctx, turn)
}

// Option configures an Engine.
type Option func(*Engine)

// WithBaseline starts the engine from a previously committed transcript
// instead of the seed preamble.
func WithBaseline(t transcript.Transcript) Option {
	return func(e *Engine) {
		e.baseline = t
	}
}

// WithLogger sets the engine logger. Defaults to logger.Nop().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithObserver registers an observer for committed turns.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine is a single conversation. It is safe to call its methods from
// multiple goroutines, but only one Stream may be active at a time.
type Engine struct {
	conf     modelconf.Configuration
	svc      completion.Service
	logger   *slog.Logger
	observer Observer
	seed     transcript.Transcript

	mu       sync.Mutex
	baseline transcript.Transcript

	// active is weak so a Stream the caller drops without closing does not
	// pin the session forever.
	active weak.Pointer[Stream]
}

// New creates an engine for conf that generates through svc.
func New(conf modelconf.Configuration, svc completion.Service, opts ...Option) (*Engine, error) {
	if svc == nil {
		return nil, errors.New("completion service is required")
	}
	if conf.TokenEnd == "" || conf.TokenHuman == "" || conf.TokenBot == "" {
		return nil, errors.New("configuration markers must not be empty")
	}
	if conf.Increment <= 0 {
		return nil, errors.New("configuration increment must be positive")
	}

	seed := transcript.Seed(conf)
	e := &Engine{
		conf:     conf,
		svc:      svc,
		logger:   logger.Nop(),
		seed:     seed,
		baseline: seed,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("configuration", conf.Name)

	return e, nil
}

// Configuration returns the engine's model configuration.
func (e *Engine) Configuration() modelconf.Configuration {
	return e.conf
}

// Transcript returns the current committed baseline.
func (e *Engine) Transcript() transcript.Transcript {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseline
}

// Active reports whether a Stream is in progress.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Value() != nil
}

// Reset abandons any active Stream and restores the seed preamble.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active.Value() != nil {
		e.logger.Debug("abandoning active session on reset")
	}
	e.active = weak.Pointer[Stream]{}
	e.baseline = e.seed
}

// Answer starts a bot turn in reply to msg. Nothing is generated until the
// returned Stream is pulled. msg is used verbatim; rejecting empty input is
// the caller's job.
func (e *Engine) Answer(msg string) (*Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active.Value() != nil {
		return nil, ErrSessionActive
	}

	previous := e.baseline
	prompt := transcript.AppendHumanTurn(previous, e.conf, msg)

	s := &Stream{
		engine:        e,
		human:         msg,
		previous:      previous,
		initialPrompt: prompt,
		prompt:        string(prompt),
		maxIncrements: e.conf.MaxIncrements(),
		startedAt:     time.Now(),
	}
	e.active = weak.Make(s)

	e.logger.Debug("generation session started",
		"prompt_bytes", len(prompt),
	)

	return s, nil
}

// AnswerText runs a full turn and returns the committed bot text.
func (e *Engine) AnswerText(ctx context.Context, msg string) (string, error) {
	s, err := e.Answer(msg)
	if err != nil {
		return "", err
	}

	var text string
	for chunk, err := range s.Chunks(ctx) {
		if err != nil {
			return "", err
		}
		text += chunk
	}
	return text, nil
}

func (e *Engine) isActive(s *Stream) bool {
	return e.active.Value() == s
}

func (e *Engine) release(s *Stream) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isActive(s) {
		e.active = weak.Pointer[Stream]{}
	}
}

// commit makes s's turn the new baseline. It reports false when the session
// was abandoned in the meantime.
func (e *Engine) commit(s *Stream, raw string) (transcript.Transcript, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isActive(s) {
		return "", false
	}

	e.baseline = transcript.CommitBotTurn(s.initialPrompt, e.conf, raw)
	e.active = weak.Pointer[Stream]{}
	return e.baseline, true
}

func (e *Engine) sampling() completion.Sampling {
	s := completion.Sampling{
		DoSample:    e.conf.DoSample,
		TopK:        e.conf.TopK,
		TopP:        e.conf.TopP,
		Temperature: e.conf.Temperature,
	}
	if e.conf.Seed != nil {
		seed := *e.conf.Seed
		s.Seed = &seed
	}
	return s
}

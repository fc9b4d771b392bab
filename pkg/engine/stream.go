package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/papercomputeco/leonia/pkg/completion"
	"github.com/papercomputeco/leonia/pkg/transcript"
)

type streamState int

const (
	stateGenerating streamState = iota
	stateDone
	stateFailed
	stateAbandoned
)

// Stream is the lazy sequence of text chunks for one bot turn. It is not
// restartable and must be used from a single goroutine. The concatenation of
// all chunks equals the committed bot text.
type Stream struct {
	engine *Engine

	human         string
	previous      transcript.Transcript
	initialPrompt transcript.Transcript

	// prompt is initialPrompt plus every increment received so far.
	prompt string

	// acc is the raw bot output accumulated across increments.
	acc strings.Builder

	// emitted is the number of bytes of acc already handed to the caller.
	emitted int

	increments    int
	maxIncrements int
	startedAt     time.Time

	state streamState
	err   error
}

// Next performs one completion round trip and returns the new chunk of bot
// text, which may be empty. After the final chunk Next returns io.EOF.
//
// Cancelling ctx abandons the session and returns the context error.
// Completion failures are returned wrapped in ErrGenerationFailed.
func (s *Stream) Next(ctx context.Context) (string, error) {
	if s == nil || s.engine == nil {
		return "", ErrMalformedSession
	}

	switch s.state {
	case stateDone:
		return "", io.EOF
	case stateFailed:
		return "", s.err
	case stateAbandoned:
		return "", ErrSessionAbandoned
	}

	e := s.engine
	e.mu.Lock()
	live := e.isActive(s)
	e.mu.Unlock()
	if !live {
		s.state = stateAbandoned
		return "", ErrSessionAbandoned
	}

	res, err := e.svc.Complete(ctx, completion.Request{
		Model:        e.conf.BackendModel(),
		Prompt:       s.prompt,
		MaxNewTokens: e.conf.Increment,
		Sampling:     e.sampling(),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.abandon()
			return "", ctxErr
		}
		return "", s.fail(err)
	}

	increment := stripEcho(s.prompt, res.Text)
	s.increments++
	s.prompt += increment
	s.acc.WriteString(increment)
	acc := s.acc.String()

	end := transcript.TurnBoundary(acc, e.conf)

	e.logger.Debug("increment received",
		"increment", s.increments,
		"bytes", len(increment),
		"stop_reason", string(res.StopReason),
		"boundary", end >= 0,
	)

	switch {
	case end >= 0:
		return s.finish(ctx, acc[:max(s.emitted, end)], "end")

	case res.StopReason == completion.StopEnd:
		return s.finish(ctx, acc, "end")

	case s.maxIncrements > 0 && s.increments >= s.maxIncrements:
		return s.finish(ctx, acc, "length")
	}

	upto := len(acc) - transcript.TurnHeldBack(acc, e.conf)
	if upto < s.emitted {
		upto = s.emitted
	}
	chunk := acc[s.emitted:upto]
	s.emitted = upto

	return chunk, nil
}

// Chunks adapts the Stream to a range-over-func sequence. The sequence ends
// after the final chunk, or after yielding an error. Breaking out of the loop
// early abandons the session.
func (s *Stream) Chunks(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer s.Close()

		for {
			chunk, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Done reports whether the turn has been committed.
func (s *Stream) Done() bool {
	return s != nil && s.state == stateDone
}

// Increments returns the number of completion round trips made so far.
func (s *Stream) Increments() int {
	if s == nil {
		return 0
	}
	return s.increments
}

// Close abandons the session if it has not completed. The transcript is left
// as it was before Answer. Close is idempotent.
func (s *Stream) Close() error {
	if s == nil || s.engine == nil {
		return nil
	}
	if s.state == stateGenerating {
		s.abandon()
	}
	return nil
}

func (s *Stream) abandon() {
	s.state = stateAbandoned
	s.engine.release(s)
	s.engine.logger.Debug("generation session abandoned",
		"increments", s.increments,
	)
}

func (s *Stream) fail(cause error) error {
	s.state = stateFailed
	s.err = fmt.Errorf("%w: %w", ErrGenerationFailed, cause)
	s.engine.release(s)
	s.engine.logger.Warn("generation failed",
		"increments", s.increments,
		"error", cause,
	)
	return s.err
}

// finish commits bot as the turn text and returns the last chunk.
func (s *Stream) finish(ctx context.Context, bot, stopReason string) (string, error) {
	e := s.engine

	chunk := bot[min(s.emitted, len(bot)):]
	s.emitted = len(bot)

	baseline, ok := e.commit(s, bot)
	if !ok {
		s.state = stateAbandoned
		return "", ErrSessionAbandoned
	}
	s.state = stateDone

	turn := CommittedTurn{
		Configuration: e.conf.Name,
		Model:         e.conf.BackendModel(),
		Human:         s.human,
		Bot:           bot,
		Previous:      s.previous,
		Transcript:    baseline,
		Increments:    s.increments,
		StopReason:    stopReason,
		StartedAt:     s.startedAt,
		CompletedAt:   time.Now(),
	}

	e.logger.Info("bot turn committed",
		"increments", turn.Increments,
		"stop_reason", stopReason,
		"bot_bytes", len(bot),
		"duration", turn.CompletedAt.Sub(turn.StartedAt),
	)

	if e.observer != nil {
		e.observer.TurnCommitted(ctx, turn)
	}

	return chunk, nil
}

// stripEcho removes a verbatim echo of prompt from the front of out.
func stripEcho(prompt, out string) string {
	if prompt == "" {
		return out
	}
	if rest, ok := strings.CutPrefix(out, prompt); ok {
		return rest
	}
	return out
}

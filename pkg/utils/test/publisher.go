package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/leonia/pkg/eventstream"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.TurnPersistedEvent
	closed bool

	// Err, when set, is returned by PublishTurn.
	Err error
}

func (r *RecordingPublisher) PublishTurn(_ context.Context, event *eventstream.TurnPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns the events published so far.
func (r *RecordingPublisher) Events() []*eventstream.TurnPersistedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.TurnPersistedEvent(nil), r.events...)
}

func (r *RecordingPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *RecordingPublisher) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

var _ eventstream.Publisher = (*RecordingPublisher)(nil)

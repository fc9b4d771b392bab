package worker

import (
	"context"
	"sync"

	"github.com/papercomputeco/leonia/pkg/engine"
	"github.com/papercomputeco/leonia/pkg/merkle"
)

// Recorder is an engine.Observer that turns committed turns into DAG nodes
// for one chat session and hands them to a Pool.
//
// A turn is linked to the previous recorded turn when it was generated from
// that turn's transcript. After a reset or a configuration switch the next
// turn starts a new root.
type Recorder struct {
	pool    *Pool
	session string

	mu   sync.Mutex
	head *merkle.Node
}

// NewRecorder creates a recorder for session. head is the turn a resumed chat
// continues from, or nil.
func NewRecorder(pool *Pool, session string, head *merkle.Node) *Recorder {
	return &Recorder{
		pool:    pool,
		session: session,
		head:    head,
	}
}

// Session returns the chat session id.
func (r *Recorder) Session() string {
	return r.session
}

// Head returns the last recorded turn.
func (r *Recorder) Head() *merkle.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.head
}

// TurnCommitted records turn.
func (r *Recorder) TurnCommitted(_ context.Context, turn engine.CommittedTurn) {
	r.mu.Lock()
	parent := r.head
	if parent != nil && parent.Transcript != turn.Previous.String() {
		parent = nil
	}

	node := merkle.NewNode(merkle.Bucket{
		Session:       r.session,
		Configuration: turn.Configuration,
		Model:         turn.Model,
		Human:         turn.Human,
		Bot:           turn.Bot,
	}, parent, merkle.NodeMeta{
		Transcript: turn.Transcript.String(),
		Increments: turn.Increments,
		StopReason: turn.StopReason,
		CreatedAt:  turn.CompletedAt,
	})
	r.head = node
	r.mu.Unlock()

	r.pool.Enqueue(Job{Node: node})
}

var _ engine.Observer = (*Recorder)(nil)

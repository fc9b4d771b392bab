package testutils

import (
	"time"

	"github.com/papercomputeco/leonia/pkg/merkle"
)

// TestSession is the session id used by NewTestBucket.
const TestSession = "test-session"

// NewTestBucket creates a simple turn bucket for testing
func NewTestBucket(human, bot string) merkle.Bucket {
	return merkle.Bucket{
		Session:       TestSession,
		Configuration: "DISTILGPT2",
		Model:         "distilgpt2",
		Human:         human,
		Bot:           bot,
	}
}

// NewTestTurn creates a turn node answering human with a fixed bot reply.
// created orders turns; nodes with later times sort after earlier ones.
func NewTestTurn(human string, parent *merkle.Node, created time.Time) *merkle.Node {
	transcript := ""
	if parent != nil {
		transcript = parent.Transcript
	}
	transcript += "<human>" + human + "<bot>ok " + human

	return merkle.NewNode(NewTestBucket(human, "ok "+human), parent, merkle.NodeMeta{
		Transcript: transcript,
		Increments: 1,
		StopReason: "end",
		CreatedAt:  created,
	})
}

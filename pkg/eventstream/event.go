package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/leonia/pkg/merkle"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnPersisted is emitted after a bot turn is persisted.
	EventTypeTurnPersisted = "leonia.turn.persisted"
)

// TurnPersistedEvent is a transport-neutral event payload for a persisted turn.
type TurnPersistedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	DAG           TurnDAGMeta `json:"dag"`
	Turn          TurnPayload `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Session       string `json:"session"`
	Configuration string `json:"configuration"`
	Model         string `json:"model"`
}

// TurnDAGMeta captures DAG-specific metadata for the persisted turn.
type TurnDAGMeta struct {
	HeadHash   string  `json:"head_hash"`
	ParentHash *string `json:"parent_hash,omitempty"`
}

// TurnPayload is the exchange itself.
type TurnPayload struct {
	Human      string    `json:"human"`
	Bot        string    `json:"bot"`
	Increments int       `json:"increments"`
	StopReason string    `json:"stop_reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewTurnPersistedEvent builds the event for a stored turn node.
func NewTurnPersistedEvent(node *merkle.Node) *TurnPersistedEvent {
	return &TurnPersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: EventSource{
			Session:       node.Bucket.Session,
			Configuration: node.Bucket.Configuration,
			Model:         node.Bucket.Model,
		},
		DAG: TurnDAGMeta{
			HeadHash:   node.Hash,
			ParentHash: node.ParentHash,
		},
		Turn: TurnPayload{
			Human:      node.Bucket.Human,
			Bot:        node.Bucket.Bot,
			Increments: node.Increments,
			StopReason: node.StopReason,
			CreatedAt:  node.CreatedAt,
		},
	}
}

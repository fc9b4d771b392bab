package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Turn holds the schema definition for the Turn entity.
// This represents a content-addressed committed turn in the Merkle DAG.
type Turn struct {
	ent.Schema
}

// Fields of the Turn.
func (Turn) Fields() []ent.Field {
	return []ent.Field{
		// id is the content-addressed identifier (SHA-256, hex-encoded)
		// This serves as the primary key
		field.String("id").
			StorageKey("hash").
			Unique().
			Immutable().
			NotEmpty(),

		// parent_hash links to the previous turn's hash, nil for roots.
		// It is not a foreign key: the worker pool may store a turn before
		// its parent.
		field.String("parent_hash").
			Optional().
			Nillable(),

		field.String("session").
			NotEmpty(),

		// configuration is the model configuration name (e.g. "DISTILGPT2")
		field.String("configuration"),

		// model is the backend model id the configuration resolved to
		field.String("model"),

		field.Text("human"),

		field.Text("bot"),

		// transcript is the full committed transcript after the turn
		field.Text("transcript"),

		// increments is the number of completion round trips the turn took
		field.Int("increments").
			Default(0),

		field.String("stop_reason").
			Default(""),

		// created_at is unix nanoseconds, so ordering survives databases
		// with microsecond timestamps.
		field.Int64("created_at").
			Immutable(),
	}
}

// Indexes of the Turn.
func (Turn) Indexes() []ent.Index {
	return []ent.Index{
		// Index on parent_hash for efficient child lookups
		index.Fields("parent_hash"),

		// Session heads are the newest turn of a session
		index.Fields("session", "created_at"),
	}
}

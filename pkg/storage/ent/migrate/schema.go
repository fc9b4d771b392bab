// Package migrate declares the SQL tables for the ent schema and creates
// them.
package migrate

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// TurnsColumns holds the columns for the "turns" table.
	TurnsColumns = []*schema.Column{
		{Name: "hash", Type: field.TypeString, Unique: true},
		{Name: "parent_hash", Type: field.TypeString, Nullable: true},
		{Name: "session", Type: field.TypeString},
		{Name: "configuration", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "human", Type: field.TypeString, Size: 2147483647},
		{Name: "bot", Type: field.TypeString, Size: 2147483647},
		{Name: "transcript", Type: field.TypeString, Size: 2147483647},
		{Name: "increments", Type: field.TypeInt, Default: 0},
		{Name: "stop_reason", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeInt64},
	}
	// TurnsTable holds the schema information for the "turns" table.
	TurnsTable = &schema.Table{
		Name:       "turns",
		Columns:    TurnsColumns,
		PrimaryKey: []*schema.Column{TurnsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "turn_parent_hash",
				Unique:  false,
				Columns: []*schema.Column{TurnsColumns[1]},
			},
			{
				Name:    "turn_session_created_at",
				Unique:  false,
				Columns: []*schema.Column{TurnsColumns[2], TurnsColumns[10]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		TurnsTable,
	}
)

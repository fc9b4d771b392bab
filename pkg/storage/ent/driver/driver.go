// Package entdriver
package entdriver

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/leonia/pkg/merkle"
	"github.com/papercomputeco/leonia/pkg/storage"
	"github.com/papercomputeco/leonia/pkg/storage/ent/migrate"
)

// columns is the scan order of scanTurn.
var columns = []string{
	"hash",
	"parent_hash",
	"session",
	"configuration",
	"model",
	"human",
	"bot",
	"transcript",
	"increments",
	"stop_reason",
	"created_at",
}

// EntDriver provides storage operations using an ent SQL driver.
// It is database-agnostic and can be embedded by specific drivers.
type EntDriver struct {
	Driver *entsql.Driver
}

// NewEntDriver wraps drv and creates or updates the turns table.
func NewEntDriver(ctx context.Context, drv *entsql.Driver) (*EntDriver, error) {
	if err := migrate.Create(ctx, drv); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &EntDriver{Driver: drv}, nil
}

// Put stores a node. Returns true if the node was newly inserted,
// false if it already existed. This is a no-op due to content-addressing.
func (ed *EntDriver) Put(ctx context.Context, n *merkle.Node) (bool, error) {
	if n == nil {
		return false, errors.New("cannot store nil node")
	}

	query, args := ed.builder().
		Insert(migrate.TurnsTable.Name).
		Columns(columns...).
		Values(
			n.Hash,
			n.ParentHash,
			n.Bucket.Session,
			n.Bucket.Configuration,
			n.Bucket.Model,
			n.Bucket.Human,
			n.Bucket.Bot,
			n.Transcript,
			n.Increments,
			n.StopReason,
			n.CreatedAt.UnixNano(),
		).
		OnConflict(entsql.ConflictColumns("hash"), entsql.DoNothing()).
		Query()

	var res stdsql.Result
	if err := ed.Driver.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("could not insert node: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return inserted > 0, nil
}

// Get retrieves a node by its hash.
func (ed *EntDriver) Get(ctx context.Context, hash string) (*merkle.Node, error) {
	nodes, err := ed.query(ctx, ed.selectTurns().Where(entsql.EQ("hash", hash)).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	if len(nodes) == 0 {
		return nil, storage.NotFoundError{Hash: hash}
	}
	return nodes[0], nil
}

// Has checks if a node exists by its hash.
func (ed *EntDriver) Has(ctx context.Context, hash string) (bool, error) {
	nodes, err := ed.query(ctx, ed.selectTurns().Where(entsql.EQ("hash", hash)).Limit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return len(nodes) > 0, nil
}

// GetByParent retrieves all nodes that have the given parent hash.
func (ed *EntDriver) GetByParent(ctx context.Context, parentHash *string) ([]*merkle.Node, error) {
	where := entsql.IsNull("parent_hash")
	if parentHash != nil {
		where = entsql.EQ("parent_hash", *parentHash)
	}
	return ed.query(ctx, ed.selectTurns().Where(where).OrderBy("created_at", "hash"))
}

// List returns all nodes in the store, oldest first.
func (ed *EntDriver) List(ctx context.Context) ([]*merkle.Node, error) {
	return ed.query(ctx, ed.selectTurns().OrderBy("created_at", "hash"))
}

// Roots returns all root nodes (nodes with no parent).
func (ed *EntDriver) Roots(ctx context.Context) ([]*merkle.Node, error) {
	return ed.GetByParent(ctx, nil)
}

// Leaves returns all leaf nodes (nodes with no children).
func (ed *EntDriver) Leaves(ctx context.Context) ([]*merkle.Node, error) {
	b := ed.builder()
	parents := b.Select("parent_hash").
		From(b.Table(migrate.TurnsTable.Name)).
		Where(entsql.NotNull("parent_hash"))

	return ed.query(ctx, ed.selectTurns().
		Where(entsql.NotIn("hash", parents)).
		OrderBy("created_at", "hash"))
}

// Ancestry returns the path from a node back to its root (node first, root last).
func (ed *EntDriver) Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error) {
	var path []*merkle.Node
	current := hash

	for {
		n, err := ed.Get(ctx, current)
		if err != nil {
			return nil, err
		}
		path = append(path, n)

		if n.ParentHash == nil {
			break
		}
		current = *n.ParentHash
	}

	return path, nil
}

// Depth returns the depth of a node (0 for roots).
func (ed *EntDriver) Depth(ctx context.Context, hash string) (int, error) {
	path, err := ed.Ancestry(ctx, hash)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

// Head returns the most recent turn of session.
func (ed *EntDriver) Head(ctx context.Context, session string) (*merkle.Node, error) {
	nodes, err := ed.query(ctx, ed.selectTurns().
		Where(entsql.EQ("session", session)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("hash")).
		Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to get session head: %w", err)
	}
	if len(nodes) == 0 {
		return nil, storage.ErrNoTurns
	}
	return nodes[0], nil
}

// Close closes the database connection.
func (ed *EntDriver) Close() error {
	return ed.Driver.Close()
}

func (ed *EntDriver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(ed.Driver.Dialect())
}

func (ed *EntDriver) selectTurns() *entsql.Selector {
	b := ed.builder()
	return b.Select(columns...).From(b.Table(migrate.TurnsTable.Name))
}

func (ed *EntDriver) query(ctx context.Context, selector *entsql.Selector) ([]*merkle.Node, error) {
	query, args := selector.Query()

	var rows entsql.Rows
	if err := ed.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*merkle.Node
	for rows.Next() {
		n, err := scanTurn(&rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	return nodes, nil
}

func scanTurn(rows *entsql.Rows) (*merkle.Node, error) {
	var (
		n       merkle.Node
		parent  stdsql.NullString
		created int64
	)
	err := rows.Scan(
		&n.Hash,
		&parent,
		&n.Bucket.Session,
		&n.Bucket.Configuration,
		&n.Bucket.Model,
		&n.Bucket.Human,
		&n.Bucket.Bot,
		&n.Transcript,
		&n.Increments,
		&n.StopReason,
		&created,
	)
	if err != nil {
		return nil, err
	}

	if parent.Valid {
		n.ParentHash = &parent.String
	}
	n.CreatedAt = time.Unix(0, created).UTC()
	return &n, nil
}

var _ storage.Driver = (*EntDriver)(nil)

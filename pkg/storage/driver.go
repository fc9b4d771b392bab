// Package storage persists committed conversation turns.
package storage

import (
	"context"

	"github.com/papercomputeco/leonia/pkg/merkle"
)

// Driver defines the interface for persisting and retrieving turn records in
// a storage backend. It handles storage, retrieval, and traversal of
// pkg/merkle nodes per the storage implementor.
type Driver interface {
	// Put stores a node. Returns true if the node was newly inserted,
	// false if it already exists. If the node already exists, this should be
	// a no-op. Put provides automatic deduplication via content-addressing in the dag.
	Put(ctx context.Context, node *merkle.Node) (bool, error)

	// Get retrieves a node by its hash.
	Get(ctx context.Context, hash string) (*merkle.Node, error)

	// Has checks if a node exists by its hash.
	Has(ctx context.Context, hash string) (bool, error)

	// GetByParent retrieves all nodes that have the given parent hash.
	// Pass nil to get root nodes.
	GetByParent(ctx context.Context, parentHash *string) ([]*merkle.Node, error)

	// List returns all nodes in the store, oldest first.
	List(ctx context.Context) ([]*merkle.Node, error)

	// Roots returns all root nodes (nodes with no parent).
	Roots(ctx context.Context) ([]*merkle.Node, error)

	// Leaves returns all leaf nodes (nodes with no children).
	Leaves(ctx context.Context) ([]*merkle.Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error)

	// Depth returns the depth of a node (0 for roots).
	Depth(ctx context.Context, hash string) (int, error)

	// Head returns the most recently created turn of a chat session, or
	// ErrNoTurns.
	Head(ctx context.Context, session string) (*merkle.Node, error)

	// Close closes the store and releases any resources.
	Close() error
}

var _ merkle.DagLoader = Driver(nil)

package merkle

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// DagLoader loads turn records from storage. storage.Driver satisfies it;
// the interface lives here so merkle does not import storage.
type DagLoader interface {
	// Get retrieves a node by its hash.
	Get(ctx context.Context, hash string) (*Node, error)

	// GetByParent retrieves all nodes that have the given parent hash.
	// Pass nil to get root nodes.
	GetByParent(ctx context.Context, parentHash *string) ([]*Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)
}

// Dag is an in-memory view of one conversation tree: a root turn and every
// turn that followed it, including alternative continuations created by
// resuming from an earlier turn.
type Dag struct {
	// Root is the first turn of the conversation.
	Root *DagNode

	// index provides O(1) lookup by node hash
	index map[string]*DagNode
}

// DagNode wraps a Node with its structural relationships.
type DagNode struct {
	*Node

	// Parent is the previous turn (nil for root)
	Parent *DagNode

	// Children are the turns that followed this one, oldest first.
	Children []*DagNode
}

func NewDag() *Dag {
	return &Dag{
		index: make(map[string]*DagNode),
	}
}

// LoadDag loads the conversation tree containing hash: every ancestor up to
// the root and every descendant down to the leaves.
func LoadDag(ctx context.Context, loader DagLoader, hash string) (*Dag, error) {
	ancestry, err := loader.Ancestry(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("getting ancestry for %s: %w", hash, err)
	}

	if len(ancestry) == 0 {
		return nil, fmt.Errorf("node %s not found", hash)
	}

	dag := NewDag()

	// ancestry is node-first, root-last
	for i := len(ancestry) - 1; i >= 0; i-- {
		if _, err := dag.addNode(ancestry[i]); err != nil {
			return nil, fmt.Errorf("adding ancestor node: %w", err)
		}
	}

	matched := dag.Get(hash)
	if matched == nil {
		return nil, fmt.Errorf("matched node %s not in DAG after adding ancestry", hash)
	}

	if err := dag.loadDescendants(ctx, loader, matched); err != nil {
		return nil, fmt.Errorf("loading descendants: %w", err)
	}

	return dag, nil
}

// Get returns the DagNode with the given hash, or nil if not found.
func (d *Dag) Get(hash string) *DagNode {
	return d.index[hash]
}

// Size returns the total number of turns in the DAG.
func (d *Dag) Size() int {
	return len(d.index)
}

// Leaves returns every turn nothing followed yet.
func (d *Dag) Leaves() []*DagNode {
	leaves := []*DagNode{}

	for _, node := range d.index {
		if len(node.Children) == 0 {
			leaves = append(leaves, node)
		}
	}

	sortByCreated(leaves)
	return leaves
}

// Walk traverses the DAG depth-first from root, calling fn for each node.
// If the provided function returns false, traversal stops.
// If the provided function errors, traversal stops and the error is propagated.
func (d *Dag) Walk(f func(*DagNode) (bool, error)) error {
	if d.Root == nil {
		return nil
	}

	_, err := walkNode(d.Root, f)
	return err
}

func walkNode(node *DagNode, f func(*DagNode) (bool, error)) (bool, error) {
	ok, err := f(node)
	if !ok || err != nil {
		return false, err
	}

	for _, child := range node.Children {
		ok, err := walkNode(child, f)
		if !ok || err != nil {
			return false, err
		}
	}

	return true, nil
}

// Ancestors returns the path from the given node up to the root
// (node first, root last). Returns nil if the hash is not found.
func (d *Dag) Ancestors(hash string) []*DagNode {
	node := d.Get(hash)
	if node == nil {
		return nil
	}

	ancestors := []*DagNode{}
	for current := node; current != nil; current = current.Parent {
		ancestors = append(ancestors, current)
	}

	return ancestors
}

// Conversation returns the turns from the root down to hash, in the order
// they were spoken. Returns nil if the hash is not found.
func (d *Dag) Conversation(hash string) []*DagNode {
	path := d.Ancestors(hash)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Descendants returns every turn below the given one in depth-first order.
// Returns nil if the hash is not found.
func (d *Dag) Descendants(hash string) []*DagNode {
	node := d.Get(hash)
	if node == nil {
		return nil
	}

	descendants := []*DagNode{}
	_, _ = walkNode(node, func(n *DagNode) (bool, error) {
		descendants = append(descendants, n.Children...)
		return true, nil
	})

	return descendants
}

// IsBranching reports whether more than one turn followed hash.
func (d *Dag) IsBranching(hash string) bool {
	node := d.Get(hash)
	if node == nil {
		return false
	}
	return len(node.Children) > 1
}

// BranchPoints returns all nodes that have more than one child.
func (d *Dag) BranchPoints() []*DagNode {
	points := []*DagNode{}
	for _, node := range d.index {
		if len(node.Children) > 1 {
			points = append(points, node)
		}
	}
	sortByCreated(points)
	return points
}

// addNode adds a node whose parent is already in the DAG, or the root.
//
// It errors when the node is nil, when its parent is not in the DAG, or when
// a second root is added. Adding a node that is already present is a no-op.
func (d *Dag) addNode(node *Node) (*DagNode, error) {
	if node == nil {
		return nil, errors.New("cannot add nil node to dag")
	}

	dagNode, ok := d.index[node.Hash]
	if ok {
		return dagNode, nil
	}

	dagNode = &DagNode{
		Node:     node,
		Children: make([]*DagNode, 0),
	}

	if node.ParentHash == nil {
		if d.Root != nil {
			return nil, errors.New("DAG already has a root node")
		}

		d.Root = dagNode
	} else {
		parent, ok := d.index[*node.ParentHash]
		if !ok {
			return nil, fmt.Errorf("parent node %s not found in dag", *node.ParentHash)
		}

		dagNode.Parent = parent
		parent.Children = append(parent.Children, dagNode)
	}

	d.index[node.Hash] = dagNode
	return dagNode, nil
}

func (d *Dag) loadDescendants(ctx context.Context, loader DagLoader, node *DagNode) error {
	children, err := loader.GetByParent(ctx, &node.Hash)
	if err != nil {
		return fmt.Errorf("getting children of %s: %w", node.Hash, err)
	}

	sort.SliceStable(children, func(i, j int) bool {
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})

	for _, child := range children {
		if d.Get(child.Hash) != nil {
			continue
		}

		childNode, err := d.addNode(child)
		if err != nil {
			return fmt.Errorf("adding child node %s: %w", child.Hash, err)
		}

		if err := d.loadDescendants(ctx, loader, childNode); err != nil {
			return err
		}
	}

	return nil
}

func sortByCreated(nodes []*DagNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
}

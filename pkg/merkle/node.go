// Package merkle stores committed conversation turns as a content-addressed
// Merkle DAG. Each node links to the turn it followed, so a conversation is
// a branch from a root turn to a leaf, and replaying an identical exchange
// lands on the same hashes.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Node represents a single committed turn in the DAG.
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous turn's hash.
	// This will be nil for the first turn after the seed preamble.
	ParentHash *string `json:"parent_hash"`

	// Bucket is the hashable content for the node.
	Bucket Bucket `json:"bucket"`

	// Transcript is the full committed transcript after this turn. It is
	// what a resumed chat starts from.
	Transcript string `json:"transcript"`

	// Increments is the number of completion round trips the turn took.
	Increments int `json:"increments,omitempty"`

	// StopReason is "end" when a boundary was found and "length" when the
	// turn budget ran out.
	StopReason string `json:"stop_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NodeMeta contains metadata for a node that is stored
// but does not affect the content-addressable hash.
type NodeMeta struct {
	Transcript string
	Increments int
	StopReason string
	CreatedAt  time.Time
}

// NewNode creates a new node with the computed hash for the provided bucket.
// The optional NodeMeta sets the fields kept outside the hashed Bucket.
func NewNode(bucket Bucket, parent *Node, metas ...NodeMeta) *Node {
	n := &Node{
		Bucket: bucket,
	}

	if parent != nil {
		hash := parent.Hash
		n.ParentHash = &hash
	}

	if len(metas) > 0 {
		n.Transcript = metas[0].Transcript
		n.Increments = metas[0].Increments
		n.StopReason = metas[0].StopReason
		n.CreatedAt = metas[0].CreatedAt
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.CreatedAt = n.CreatedAt.UTC()

	n.Hash = n.computeHash()
	return n
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentHash == nil
}

// ShortHash returns the first 12 characters of the hash.
func (n *Node) ShortHash() string {
	if len(n.Hash) <= 12 {
		return n.Hash
	}
	return n.Hash[:12]
}

// computeHash calculates the content-addressed hash for a node.
func (n *Node) computeHash() string {
	parent := ""
	if n.ParentHash != nil {
		parent = *n.ParentHash
	}

	// Struct fields marshal in declaration order and Bucket holds no maps,
	// so the encoding is stable from one run to the next.
	data, err := json.Marshal(struct {
		Parent  string `json:"parent"`
		Content Bucket `json:"content"`
	}{
		Parent:  parent,
		Content: n.Bucket,
	})
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

package merkle_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leonia/pkg/merkle"
	"github.com/papercomputeco/leonia/pkg/storage/inmemory"
)

var turnClock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// turn creates a turn node answering human, one second after the previous one
func turn(human string, parent *merkle.Node) *merkle.Node {
	turnClock = turnClock.Add(time.Second)
	return merkle.NewNode(testBucket(human), parent, merkle.NodeMeta{CreatedAt: turnClock})
}

// buildTestDag stores nodes with the in-memory driver and loads the DAG from
// loadFromHash, or from the last node when it is empty.
func buildTestDag(ctx context.Context, nodes []*merkle.Node, loadFromHash string) (*merkle.Dag, error) {
	driver := inmemory.NewDriver()
	for _, node := range nodes {
		if _, err := driver.Put(ctx, node); err != nil {
			return nil, err
		}
	}

	hash := loadFromHash
	if hash == "" && len(nodes) > 0 {
		hash = nodes[len(nodes)-1].Hash
	}

	return merkle.LoadDag(ctx, driver, hash)
}

func humans(nodes []*merkle.DagNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Bucket.Human)
	}
	return out
}

var _ = Describe("Dag", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewDag", func() {
		It("creates an empty DAG", func() {
			dag := merkle.NewDag()
			Expect(dag).NotTo(BeNil())
			Expect(dag.Root).To(BeNil())
			Expect(dag.Size()).To(Equal(0))
			Expect(dag.Leaves()).To(BeEmpty())
		})
	})

	Describe("Get and Size", func() {
		It("indexes every loaded turn", func() {
			root := turn("1", nil)
			child := turn("2", root)

			dag, err := buildTestDag(ctx, []*merkle.Node{root, child}, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(dag.Size()).To(Equal(2))
			Expect(dag.Get(child.Hash).Parent.Hash).To(Equal(root.Hash))
			Expect(dag.Get("unknown")).To(BeNil())
		})
	})

	Describe("Leaves", func() {
		It("returns the last turn of a chain", func() {
			root := turn("1", nil)
			child := turn("2", root)
			grandchild := turn("3", child)

			dag, err := buildTestDag(ctx, []*merkle.Node{root, child, grandchild}, "")
			Expect(err).NotTo(HaveOccurred())

			leaves := dag.Leaves()
			Expect(leaves).To(HaveLen(1))
			Expect(leaves[0].Hash).To(Equal(grandchild.Hash))
		})

		It("returns one leaf per continuation, oldest first", func() {
			root := turn("hello", nil)
			first := turn("first", root)
			second := turn("second", root)

			dag, err := buildTestDag(ctx, []*merkle.Node{root, second, first}, root.Hash)
			Expect(err).NotTo(HaveOccurred())

			Expect(humans(dag.Leaves())).To(Equal([]string{"first", "second"}))
		})
	})

	Describe("Walk", func() {
		var dag *merkle.Dag

		BeforeEach(func() {
			root := turn("1", nil)
			child := turn("2", root)
			grandchild := turn("3", child)

			var err error
			dag, err = buildTestDag(ctx, []*merkle.Node{root, child, grandchild}, "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("visits all nodes depth-first", func() {
			var visited []string
			err := dag.Walk(func(node *merkle.DagNode) (bool, error) {
				visited = append(visited, node.Bucket.Human)
				return true, nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(visited).To(Equal([]string{"1", "2", "3"}))
		})

		It("stops when callback returns false", func() {
			var visited []string
			err := dag.Walk(func(node *merkle.DagNode) (bool, error) {
				visited = append(visited, node.Bucket.Human)
				return node.Bucket.Human != "2", nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(visited).To(Equal([]string{"1", "2"}))
		})

		It("stops and propagates error from callback", func() {
			testErr := errors.New("test error")
			var visited []string
			err := dag.Walk(func(node *merkle.DagNode) (bool, error) {
				visited = append(visited, node.Bucket.Human)
				if node.Bucket.Human == "2" {
					return false, testErr
				}
				return true, nil
			})
			Expect(err).To(MatchError(testErr))
			Expect(visited).To(Equal([]string{"1", "2"}))
		})

		It("does nothing for empty DAG", func() {
			called := false
			err := merkle.NewDag().Walk(func(*merkle.DagNode) (bool, error) {
				called = true
				return true, nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(called).To(BeFalse())
		})
	})

	Describe("Ancestors and Conversation", func() {
		It("returns the path in both directions", func() {
			root := turn("1", nil)
			child := turn("2", root)
			grandchild := turn("3", child)

			dag, err := buildTestDag(ctx, []*merkle.Node{root, child, grandchild}, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(humans(dag.Ancestors(grandchild.Hash))).To(Equal([]string{"3", "2", "1"}))
			Expect(humans(dag.Conversation(grandchild.Hash))).To(Equal([]string{"1", "2", "3"}))
			Expect(humans(dag.Conversation(root.Hash))).To(Equal([]string{"1"}))
		})

		It("returns nil for unknown hash", func() {
			dag, err := buildTestDag(ctx, []*merkle.Node{turn("1", nil)}, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(dag.Ancestors("unknown")).To(BeNil())
			Expect(dag.Conversation("unknown")).To(BeNil())
		})
	})

	Describe("Descendants", func() {
		It("returns only turns below the given one", func() {
			root := turn("root", nil)
			left := turn("left", root)
			leftChild := turn("left child", left)
			right := turn("right", root)

			dag, err := buildTestDag(ctx, []*merkle.Node{root, left, leftChild, right}, root.Hash)
			Expect(err).NotTo(HaveOccurred())

			Expect(humans(dag.Descendants(root.Hash))).To(Equal([]string{"left", "right", "left child"}))
			Expect(humans(dag.Descendants(left.Hash))).To(Equal([]string{"left child"}))
			Expect(dag.Descendants(right.Hash)).To(BeEmpty())
			Expect(dag.Descendants("unknown")).To(BeNil())
		})
	})

	Describe("branching", func() {
		It("reports turns that were continued more than once", func() {
			root := turn("hello", nil)
			a := turn("a", root)
			b := turn("b", root)

			dag, err := buildTestDag(ctx, []*merkle.Node{root, a, b}, root.Hash)
			Expect(err).NotTo(HaveOccurred())

			Expect(dag.IsBranching(root.Hash)).To(BeTrue())
			Expect(dag.IsBranching(a.Hash)).To(BeFalse())
			Expect(dag.IsBranching("unknown")).To(BeFalse())

			points := dag.BranchPoints()
			Expect(points).To(HaveLen(1))
			Expect(points[0].Hash).To(Equal(root.Hash))
		})

		It("finds no branch points in a linear conversation", func() {
			root := turn("1", nil)
			child := turn("2", root)

			dag, err := buildTestDag(ctx, []*merkle.Node{root, child}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(dag.BranchPoints()).To(BeEmpty())
		})
	})

	Describe("LoadDag", func() {
		var driver *inmemory.Driver

		BeforeEach(func() {
			driver = inmemory.NewDriver()
		})

		put := func(nodes ...*merkle.Node) {
			for _, n := range nodes {
				_, err := driver.Put(ctx, n)
				Expect(err).NotTo(HaveOccurred())
			}
		}

		It("loads a linear chain from the middle", func() {
			root := turn("1", nil)
			child := turn("2", root)
			grandchild := turn("3", child)
			put(root, child, grandchild)

			dag, err := merkle.LoadDag(ctx, driver, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(dag.Size()).To(Equal(3))
			Expect(dag.Root.Hash).To(Equal(root.Hash))
			Expect(dag.Get(grandchild.Hash).Children).To(BeEmpty())
		})

		It("orders children by creation time", func() {
			root := turn("root", nil)
			older := turn("older", root)
			newer := turn("newer", root)
			put(newer, root, older)

			dag, err := merkle.LoadDag(ctx, driver, root.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(humans(dag.Root.Children)).To(Equal([]string{"older", "newer"}))
		})

		It("loads only the relevant branch when starting from a leaf", func() {
			root := turn("root", nil)
			child1 := turn("child1", root)
			child2 := turn("child2", root)
			put(root, child1, child2)

			dag, err := merkle.LoadDag(ctx, driver, child1.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(dag.Size()).To(Equal(2))
			Expect(dag.Get(child2.Hash)).To(BeNil())
		})

		It("returns error for non-existent hash", func() {
			_, err := merkle.LoadDag(ctx, driver, "nonexistent")
			Expect(err).To(HaveOccurred())
		})
	})
})

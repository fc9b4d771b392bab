package testutils

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leonia/pkg/merkle"
	"github.com/papercomputeco/leonia/pkg/storage"
)

// DescribeDriver declares the behaviour every storage.Driver shares.
// newDriver is called before each test; the driver is closed after it.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
		clock  time.Time
	)

	next := func(human string, parent *merkle.Node) *merkle.Node {
		clock = clock.Add(time.Second)
		return NewTestTurn(human, parent, clock)
	}

	put := func(nodes ...*merkle.Node) {
		for _, n := range nodes {
			_, err := driver.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	hashes := func(nodes []*merkle.Node) []string {
		out := make([]string, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, n.Hash)
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a turn", func() {
			root := next("hello", nil)
			child := next("again", root)
			put(root, child)

			got, err := driver.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Hash).To(Equal(child.Hash))
			Expect(got.Bucket).To(Equal(child.Bucket))
			Expect(got.ParentHash).NotTo(BeNil())
			Expect(*got.ParentHash).To(Equal(root.Hash))
			Expect(got.Transcript).To(Equal(child.Transcript))
			Expect(got.Increments).To(Equal(1))
			Expect(got.StopReason).To(Equal("end"))
			Expect(got.CreatedAt).To(BeTemporally("==", child.CreatedAt))

			got, err = driver.Get(ctx, root.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ParentHash).To(BeNil())
		})

		It("returns NotFoundError for an unknown hash", func() {
			_, err := driver.Get(ctx, "nonexistent")
			Expect(err).To(MatchError(storage.ErrNotFound))
			Expect(err).To(BeAssignableToTypeOf(storage.NotFoundError{}))
		})

		It("deduplicates identical turns", func() {
			node := next("hello", nil)

			inserted, err := driver.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())

			inserted, err = driver.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())

			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("rejects nil nodes", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Has", func() {
		It("reports stored turns", func() {
			node := next("hello", nil)
			put(node)

			ok, err := driver.Has(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = driver.Has(ctx, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("traversal", func() {
		var root, left, leftChild, right, other *merkle.Node

		BeforeEach(func() {
			root = next("root", nil)
			left = next("left", root)
			leftChild = next("left child", left)
			right = next("right", root)
			other = next("other root", nil)
			put(right, leftChild, root, other, left)
		})

		It("lists turns oldest first", func() {
			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(all)).To(Equal(hashes([]*merkle.Node{root, left, leftChild, right, other})))
		})

		It("returns children of a parent", func() {
			children, err := driver.GetByParent(ctx, &root.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(children)).To(Equal(hashes([]*merkle.Node{left, right})))
		})

		It("returns roots", func() {
			roots, err := driver.Roots(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(roots)).To(Equal(hashes([]*merkle.Node{root, other})))
		})

		It("returns leaves", func() {
			leaves, err := driver.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(leaves)).To(Equal(hashes([]*merkle.Node{leftChild, right, other})))
		})

		It("walks ancestry from a turn to its root", func() {
			path, err := driver.Ancestry(ctx, leftChild.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(path)).To(Equal(hashes([]*merkle.Node{leftChild, left, root})))

			_, err = driver.Ancestry(ctx, "nonexistent")
			Expect(err).To(MatchError(storage.ErrNotFound))
		})

		It("reports depth", func() {
			depth, err := driver.Depth(ctx, root.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(depth).To(Equal(0))

			depth, err = driver.Depth(ctx, leftChild.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(depth).To(Equal(2))
		})

		It("loads a conversation DAG", func() {
			dag, err := merkle.LoadDag(ctx, driver, left.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(dag.Size()).To(Equal(3))
			Expect(dag.Root.Hash).To(Equal(root.Hash))
			Expect(dag.Get(right.Hash)).To(BeNil())
		})
	})

	Describe("Head", func() {
		It("returns the latest turn of a session", func() {
			first := next("first", nil)
			second := next("second", first)

			elsewhere := next("elsewhere", nil)
			elsewhere.Bucket.Session = "another-session"
			elsewhere = merkle.NewNode(elsewhere.Bucket, nil, merkle.NodeMeta{CreatedAt: clock.Add(time.Hour)})

			put(second, first, elsewhere)

			head, err := driver.Head(ctx, TestSession)
			Expect(err).NotTo(HaveOccurred())
			Expect(head.Hash).To(Equal(second.Hash))
			Expect(head.Transcript).To(Equal(second.Transcript))
		})

		It("returns ErrNoTurns for an unknown session", func() {
			_, err := driver.Head(ctx, "missing")
			Expect(err).To(MatchError(storage.ErrNoTurns))
		})
	})

	Describe("Sessions", func() {
		It("summarises each session", func() {
			first := next("first", nil)
			second := next("second", first)

			elsewhere := next("elsewhere", nil)
			elsewhere = merkle.NewNode(merkle.Bucket{
				Session:       "another-session",
				Configuration: "OASST_SFT_7_STABLELM_7B_EPOCH_3",
				Human:         "elsewhere",
			}, nil, merkle.NodeMeta{CreatedAt: elsewhere.CreatedAt})

			put(first, second, elsewhere)

			sessions, err := storage.Sessions(ctx, driver)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(2))

			Expect(sessions[0].ID).To(Equal("another-session"))
			Expect(sessions[0].Configuration).To(Equal("OASST_SFT_7_STABLELM_7B_EPOCH_3"))
			Expect(sessions[0].Turns).To(Equal(1))

			Expect(sessions[1].ID).To(Equal(TestSession))
			Expect(sessions[1].Turns).To(Equal(2))
			Expect(sessions[1].Head.Hash).To(Equal(second.Hash))
			Expect(sessions[1].StartedAt).To(BeTemporally("==", first.CreatedAt))
			Expect(sessions[1].UpdatedAt).To(BeTemporally("==", second.CreatedAt))
		})
	})
}

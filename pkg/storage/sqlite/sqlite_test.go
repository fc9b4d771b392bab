package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leonia/pkg/storage"
	"github.com/papercomputeco/leonia/pkg/storage/sqlite"
	testutils "github.com/papercomputeco/leonia/pkg/utils/test"
)

var _ = Describe("SQLiteDriver", func() {
	testutils.DescribeDriver(func() storage.Driver {
		driver, err := sqlite.NewSQLiteDriver(context.Background(), ":memory:")
		Expect(err).NotTo(HaveOccurred())
		return driver
	})

	Describe("NewSQLiteDriver", func() {
		It("creates the database file and keeps turns across reopen", func() {
			ctx := context.Background()
			dbPath := filepath.Join(GinkgoT().TempDir(), "leonia.sqlite")

			s, err := sqlite.NewSQLiteDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())

			node := testutils.NewTestTurn("persist me", nil, time.Now())
			_, err = s.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Close()).To(Succeed())

			s, err = sqlite.NewSQLiteDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			head, err := s.Head(ctx, testutils.TestSession)
			Expect(err).NotTo(HaveOccurred())
			Expect(head.Hash).To(Equal(node.Hash))
			Expect(head.Bucket.Human).To(Equal("persist me"))
		})

		It("fails for a path in a missing directory", func() {
			_, err := sqlite.NewSQLiteDriver(context.Background(), filepath.Join(GinkgoT().TempDir(), "missing", "db.sqlite"))
			Expect(err).To(HaveOccurred())
		})
	})
})

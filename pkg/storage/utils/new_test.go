package storageutils_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leonia/pkg/storage/inmemory"
	"github.com/papercomputeco/leonia/pkg/storage/sqlite"
	storageutils "github.com/papercomputeco/leonia/pkg/storage/utils"
)

var _ = Describe("NewDriver", func() {
	ctx := context.Background()

	It("defaults to the in-memory driver", func() {
		d, err := storageutils.NewDriver(ctx, &storageutils.NewDriverOpts{})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("opens a sqlite database", func() {
		d, err := storageutils.NewDriver(ctx, &storageutils.NewDriverOpts{
			Provider:   "sqlite",
			SQLitePath: filepath.Join(GinkgoT().TempDir(), "turns.sqlite"),
		})
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()
		Expect(d).To(BeAssignableToTypeOf(&sqlite.SQLiteDriver{}))
	})

	DescribeTable("rejects incomplete options",
		func(o storageutils.NewDriverOpts, msg string) {
			_, err := storageutils.NewDriver(ctx, &o)
			Expect(err).To(MatchError(ContainSubstring(msg)))
		},
		Entry("sqlite without a path", storageutils.NewDriverOpts{Provider: "sqlite"}, "database path"),
		Entry("postgres without a dsn", storageutils.NewDriverOpts{Provider: "postgres"}, "connection string"),
		Entry("unknown provider", storageutils.NewDriverOpts{Provider: "redis"}, "unsupported storage provider"),
	)

	It("lists supported providers", func() {
		Expect(storageutils.SupportedProviders()).To(ConsistOf("memory", "sqlite", "postgres"))
	})
})

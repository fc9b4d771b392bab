package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
)

// Create runs ent's auto-migration for Tables. It handles append-only
// schema changes (new tables, columns, indexes).
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	migrate, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent/migrate: %w", err)
	}
	return migrate.Create(ctx, Tables...)
}

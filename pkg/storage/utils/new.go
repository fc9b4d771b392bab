// Package storageutils is the storage driver utility package
package storageutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/leonia/pkg/storage"
	"github.com/papercomputeco/leonia/pkg/storage/inmemory"
	"github.com/papercomputeco/leonia/pkg/storage/postgres"
	"github.com/papercomputeco/leonia/pkg/storage/sqlite"
)

type NewDriverOpts struct {
	// Provider is one of "memory", "sqlite" or "postgres".
	Provider    string
	SQLitePath  string
	PostgresDSN string
}

// SupportedProviders lists the provider names accepted by NewDriver.
func SupportedProviders() []string {
	return []string{"memory", "sqlite", "postgres"}
}

func NewDriver(ctx context.Context, o *NewDriverOpts) (storage.Driver, error) {
	switch o.Provider {
	case "", "memory":
		return inmemory.NewDriver(), nil
	case "sqlite":
		if o.SQLitePath == "" {
			return nil, errors.New("sqlite storage requires a database path")
		}
		return sqlite.NewSQLiteDriver(ctx, o.SQLitePath)
	case "postgres":
		if o.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires a connection string")
		}
		return postgres.NewDriver(ctx, o.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.Provider)
	}
}

// Package cmdutil holds the wiring shared by leonia subcommands: resolving
// configuration through viper and building the logger, model registry,
// completion service and transcript store from it.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/leonia/cmd/leonia/sqlitepath"
	"github.com/papercomputeco/leonia/pkg/completion"
	completionutils "github.com/papercomputeco/leonia/pkg/completion/utils"
	"github.com/papercomputeco/leonia/pkg/config"
	"github.com/papercomputeco/leonia/pkg/dotdir"
	"github.com/papercomputeco/leonia/pkg/logger"
	"github.com/papercomputeco/leonia/pkg/modelconf"
	"github.com/papercomputeco/leonia/pkg/storage"
	storageutils "github.com/papercomputeco/leonia/pkg/storage/utils"
)

// StorageFlags are the registry keys for commands that open the transcript store.
var StorageFlags = []string{
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
}

// CompletionFlags are the registry keys for commands that talk to the
// completion backend.
var CompletionFlags = []string{
	config.FlagProvider,
	config.FlagTarget,
	config.FlagAPIKey,
}

// AddFlags registers the given config.Flags entries on cmd. Values are read
// back through viper, never through the flag targets.
func AddFlags(cmd *cobra.Command, keys ...string) {
	for _, key := range keys {
		config.AddStringFlag(cmd, config.Flags, key, new(string))
	}
}

// Settings is the resolved configuration for one command invocation.
type Settings struct {
	*viper.Viper

	// ConfigDir is the --config-dir override, possibly empty.
	ConfigDir string

	Debug bool
}

// Load resolves defaults, config.toml, LEONIA_* environment variables and the
// given registered flags of cmd, in increasing order of precedence.
func Load(cmd *cobra.Command, keys ...string) (*Settings, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	return &Settings{
		Viper:     v,
		ConfigDir: configDir,
		Debug:     debug,
	}, nil
}

// NewLogger builds the command logger: pretty output on w and, when
// chat.log_file is set, JSON lines appended to that file. The returned func
// closes the log file.
func (s *Settings) NewLogger(w io.Writer) (*slog.Logger, func(), error) {
	console := logger.New(
		logger.WithDebug(s.Debug),
		logger.WithPretty(true),
		logger.WithWriter(w),
	)

	path := s.GetString("chat.log_file")
	if path == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(true),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)

	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

// Registry loads the built-in model catalog merged with model.catalog.
func (s *Settings) Registry() (*modelconf.Registry, error) {
	r, err := modelconf.LoadRegistry(s.GetString("model.catalog"))
	if err != nil {
		return nil, fmt.Errorf("loading model catalog: %w", err)
	}
	return r, nil
}

// CompletionService creates the configured completion backend client.
func (s *Settings) CompletionService() (completion.Service, error) {
	svc, err := completionutils.NewService(&completionutils.NewServiceOpts{
		ProviderType: s.GetString("completion.provider"),
		TargetURL:    s.GetString("completion.target"),
		APIKey:       s.GetString("completion.api_key"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating completion service: %w", err)
	}
	return svc, nil
}

// DotDir resolves (and creates) the .leonia/ directory.
func (s *Settings) DotDir() (string, error) {
	return dotdir.NewManager().Target(s.ConfigDir)
}

// OpenStorage opens the configured transcript store. The SQLite store
// defaults to leonia.db in the .leonia/ directory.
func (s *Settings) OpenStorage(ctx context.Context) (storage.Driver, error) {
	opts := &storageutils.NewDriverOpts{
		Provider:    s.GetString("storage.provider"),
		SQLitePath:  s.GetString("storage.sqlite_path"),
		PostgresDSN: s.GetString("storage.postgres_dsn"),
	}

	if opts.Provider == "sqlite" {
		dir, err := s.DotDir()
		if err != nil {
			return nil, err
		}

		opts.SQLitePath, err = sqlitepath.ResolveSQLitePath(opts.SQLitePath, dir)
		if err != nil {
			return nil, err
		}

		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	driver, err := storageutils.NewDriver(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("opening transcript store: %w", err)
	}
	return driver, nil
}

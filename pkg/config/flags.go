package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model
// on both "leonia chat" and "leonia models show").
type Flag struct {
	// Name is the long flag name (e.g. "model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "model.name").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag and BindRegisteredFlags to
// avoid typos or drift from one command to another.
const (
	FlagModel          = "model"
	FlagCatalog        = "catalog"
	FlagProvider       = "provider"
	FlagTarget         = "target"
	FlagAPIKey         = "api-key"
	FlagStorage        = "storage"
	FlagSQLite         = "sqlite"
	FlagPostgresDSN    = "postgres-dsn"
	FlagEventsProvider = "events-provider"
	FlagBrokers        = "brokers"
	FlagTopic          = "topic"
	FlagBotName        = "bot-name"
	FlagLogFile        = "log-file"
)

// Flags is the default registry shared by the leonia commands.
var Flags = FlagSet{
	FlagModel:          {Name: "model", Shorthand: "m", ViperKey: "model.name", Description: "Model configuration name"},
	FlagCatalog:        {Name: "catalog", ViperKey: "model.catalog", Description: "Path to a TOML model catalog merged over the built-in one"},
	FlagProvider:       {Name: "provider", Shorthand: "p", ViperKey: "completion.provider", Description: "Completion provider type (ollama, openai)"},
	FlagTarget:         {Name: "target", Shorthand: "t", ViperKey: "completion.target", Description: "Completion service URL"},
	FlagAPIKey:         {Name: "api-key", ViperKey: "completion.api_key", Description: "API key for the completion service"},
	FlagStorage:        {Name: "storage", ViperKey: "storage.provider", Description: "Transcript store provider (memory, sqlite, postgres)"},
	FlagSQLite:         {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite database"},
	FlagPostgresDSN:    {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagEventsProvider: {Name: "events-provider", ViperKey: "events.provider", Description: "Turn event publisher (none, kafka)"},
	FlagBrokers:        {Name: "brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka broker addresses"},
	FlagTopic:          {Name: "topic", ViperKey: "events.topic", Description: "Kafka topic for turn events"},
	FlagBotName:        {Name: "bot-name", ViperKey: "chat.bot_name", Description: "Name shown for the bot in chat"},
	FlagLogFile:        {Name: "log-file", ViperKey: "chat.log_file", Description: "Append chat logs to this file"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

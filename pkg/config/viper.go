package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/leonia/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LEONIA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LEONIA_MODEL_NAME, LEONIA_COMPLETION_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: LEONIA_MODEL_NAME, LEONIA_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("LEONIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.catalog", d.Model.Catalog)

	v.SetDefault("completion.provider", d.Completion.Provider)
	v.SetDefault("completion.target", d.Completion.Target)
	v.SetDefault("completion.api_key", d.Completion.APIKey)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	v.SetDefault("chat.bot_name", d.Chat.BotName)
	v.SetDefault("chat.log_file", d.Chat.LogFile)
}

// Brokers returns events.brokers from v. Values from the environment or a
// flag arrive as a single comma separated string; values from config.toml
// arrive as a list.
func Brokers(v *viper.Viper) []string {
	var out []string
	for _, b := range v.GetStringSlice("events.brokers") {
		out = append(out, SplitList(b)...)
	}
	return out
}

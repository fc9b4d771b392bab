package config

import (
	"strings"
)

// Config represents the persistent leonia configuration stored as config.toml
// in the .leonia/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Model      ModelConfig      `toml:"model"`
	Completion CompletionConfig `toml:"completion"`
	Storage    StorageConfig    `toml:"storage"`
	Events     EventsConfig     `toml:"events"`
	Chat       ChatConfig       `toml:"chat"`
}

// ModelConfig selects the model configuration used by chat.
type ModelConfig struct {
	// Name is the model configuration registry key (e.g. "DISTILGPT2").
	Name string `toml:"name,omitempty"`

	// Catalog is an optional path to a TOML model catalog merged over the
	// built-in one.
	Catalog string `toml:"catalog,omitempty"`
}

// CompletionConfig holds the text-completion backend settings.
// Target is a full URL (scheme + host + port).
type CompletionConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// StorageConfig holds transcript store settings.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig holds turn event publishing settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// ChatConfig holds settings for the interactive chat command.
type ChatConfig struct {
	// BotName overrides the persona shown in the chat prompt.
	BotName string `toml:"bot_name,omitempty"`

	// LogFile, when set, receives a copy of every log line emitted during chat.
	LogFile string `toml:"log_file,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"model.name": {
		get: func(c *Config) string { return c.Model.Name },
		set: func(c *Config, v string) error { c.Model.Name = v; return nil },
	},
	"model.catalog": {
		get: func(c *Config) string { return c.Model.Catalog },
		set: func(c *Config, v string) error { c.Model.Catalog = v; return nil },
	},
	"completion.provider": {
		get: func(c *Config) string { return c.Completion.Provider },
		set: func(c *Config, v string) error { c.Completion.Provider = v; return nil },
	},
	"completion.target": {
		get: func(c *Config) string { return c.Completion.Target },
		set: func(c *Config, v string) error { c.Completion.Target = v; return nil },
	},
	"completion.api_key": {
		get: func(c *Config) string { return c.Completion.APIKey },
		set: func(c *Config, v string) error { c.Completion.APIKey = v; return nil },
	},
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error { c.Events.Brokers = SplitList(v); return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"chat.bot_name": {
		get: func(c *Config) string { return c.Chat.BotName },
		set: func(c *Config, v string) error { c.Chat.BotName = v; return nil },
	},
	"chat.log_file": {
		get: func(c *Config) string { return c.Chat.LogFile },
		set: func(c *Config, v string) error { c.Chat.LogFile = v; return nil },
	},
}

// SplitList splits a comma separated value, trimming blanks and dropping
// empty entries. An empty string yields nil.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

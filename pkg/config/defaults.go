package config

const (
	defaultModelName = "DISTILGPT2"

	defaultCompletionProvider = "ollama"
	defaultCompletionTarget   = "http://localhost:11434"

	defaultStorageProvider = "sqlite"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "leonia.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Model: ModelConfig{
			Name: defaultModelName,
		},
		Completion: CompletionConfig{
			Provider: defaultCompletionProvider,
			Target:   defaultCompletionTarget,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}

// Package modelconf holds the static per-model parameters for leonia and the
// registry that resolves a configuration by name.
package modelconf

import (
	"fmt"
	"strings"
)

const (
	// DefaultIncrement is the number of new tokens requested per completion
	// round trip when a catalog entry does not set one.
	DefaultIncrement = 20

	// DefaultMaxLength bounds the number of new tokens spent on one bot turn.
	DefaultMaxLength = 1000

	DefaultTopK = 50
	DefaultTopP = 0.95

	// DefaultBotName is used in the seed preamble when a catalog entry does
	// not name its bot.
	DefaultBotName = "Leonia Bot"

	// TestingConfiguration is the catalog entry that only exists to exercise
	// the pipeline. It produces gibberish.
	TestingConfiguration = "DISTILGPT2"
)

// Configuration is one model configuration: sampling parameters, the three
// marker strings and the model identifiers. Values are handed out by copy so
// a resolved Configuration cannot be changed behind the registry's back.
type Configuration struct {
	// Name is the registry key (e.g. "OASST_SFT_4_PYTHIA_12B_EPOCH_3_5").
	Name string `toml:"-"`

	// Repo is the upstream model repository identifier.
	Repo string `toml:"repo"`

	// Model is the model name on the completion backend. Defaults to Repo.
	Model string `toml:"model,omitempty"`

	// Requirements is a human readable hint about resources the model needs.
	Requirements string `toml:"requirements,omitempty"`

	// MaxLength is the token budget for one bot turn.
	MaxLength int `toml:"max_length"`

	// Increment is the number of new tokens requested per round trip.
	Increment int `toml:"increment"`

	DoSample    bool    `toml:"do_sample"`
	TopK        int     `toml:"top_k"`
	TopP        float64 `toml:"top_p"`
	Temperature float64 `toml:"temperature,omitempty"`

	// Seed fixes the sampling seed on backends that honor one. Nil leaves the
	// backend to pick.
	Seed *int `toml:"seed,omitempty"`

	// Padding reports whether the backend should pad the encoded input.
	Padding bool `toml:"padding"`

	TokenEnd   string `toml:"token_end"`
	TokenHuman string `toml:"token_human"`
	TokenBot   string `toml:"token_bot"`

	// BotName is the persona named in the seed preamble.
	BotName string `toml:"bot_name,omitempty"`
}

// BackendModel returns the model identifier to send to the completion backend.
func (c Configuration) BackendModel() string {
	if c.Model != "" {
		return c.Model
	}
	return c.Repo
}

// MaxIncrements is the number of round trips a single bot turn may spend
// before it is committed without an end marker.
func (c Configuration) MaxIncrements() int {
	if c.Increment <= 0 {
		return 0
	}
	n := c.MaxLength / c.Increment
	if n < 1 {
		n = 1
	}
	return n
}

// Describe renders the configuration as "key: value" lines.
func (c Configuration) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "repo: %s\n", c.Repo)
	if c.Model != "" {
		fmt.Fprintf(&b, "model: %s\n", c.Model)
	}
	if c.Requirements != "" {
		fmt.Fprintf(&b, "requirements: %s\n", c.Requirements)
	}
	fmt.Fprintf(&b, "max_length: %d\n", c.MaxLength)
	fmt.Fprintf(&b, "increment: %d\n", c.Increment)
	fmt.Fprintf(&b, "do_sample: %t\n", c.DoSample)
	fmt.Fprintf(&b, "top_k: %d\n", c.TopK)
	fmt.Fprintf(&b, "top_p: %g\n", c.TopP)
	if c.Temperature != 0 {
		fmt.Fprintf(&b, "temperature: %g\n", c.Temperature)
	}
	if c.Seed != nil {
		fmt.Fprintf(&b, "seed: %d\n", *c.Seed)
	}
	fmt.Fprintf(&b, "padding: %t\n", c.Padding)
	fmt.Fprintf(&b, "token_end: %s\n", c.TokenEnd)
	fmt.Fprintf(&b, "token_human: %s\n", c.TokenHuman)
	fmt.Fprintf(&b, "token_bot: %s\n", c.TokenBot)
	return b.String()
}

// applyDefaults fills zero-value fields.
func (c *Configuration) applyDefaults() {
	if c.Increment == 0 {
		c.Increment = DefaultIncrement
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.TopK == 0 {
		c.TopK = DefaultTopK
	}
	if c.TopP == 0 {
		c.TopP = DefaultTopP
	}
	if c.BotName == "" {
		c.BotName = DefaultBotName
	}
}

func (c *Configuration) validate() error {
	switch {
	case c.Repo == "":
		return fmt.Errorf("configuration %q: repo is required", c.Name)
	case c.TokenEnd == "":
		return fmt.Errorf("configuration %q: token_end is required", c.Name)
	case c.TokenHuman == "":
		return fmt.Errorf("configuration %q: token_human is required", c.Name)
	case c.TokenBot == "":
		return fmt.Errorf("configuration %q: token_bot is required", c.Name)
	case c.Increment < 0:
		return fmt.Errorf("configuration %q: increment must be positive", c.Name)
	case c.MaxLength < 0:
		return fmt.Errorf("configuration %q: max_length must be positive", c.Name)
	case c.TopP < 0 || c.TopP > 1:
		return fmt.Errorf("configuration %q: top_p must be within (0, 1]", c.Name)
	case c.TopK < 0:
		return fmt.Errorf("configuration %q: top_k must not be negative", c.Name)
	}
	return nil
}

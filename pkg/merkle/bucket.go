package merkle

import "strings"

// Bucket is the hashable content of a turn record: who said what, in which
// conversation, under which model configuration.
type Bucket struct {
	// Session identifies the chat session the turn belongs to.
	Session string `json:"session"`

	// Configuration is the model configuration name (e.g. "DISTILGPT2").
	Configuration string `json:"configuration"`

	// Model is the backend model id the turn was generated with.
	Model string `json:"model"`

	// Human is the message the turn answers.
	Human string `json:"human"`

	// Bot is the committed bot text.
	Bot string `json:"bot"`
}

// Words returns the number of whitespace separated words in the bot text.
func (b *Bucket) Words() int {
	return len(strings.Fields(b.Bot))
}

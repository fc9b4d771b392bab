package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	chatFile = "chat.json"
)

// ChatState records the last chat session so it can be resumed.
type ChatState struct {
	// Session is the id shared by every stored turn of the conversation.
	Session string `json:"session"`

	// Configuration is the model configuration the session was using.
	Configuration string `json:"configuration"`

	// Head is the hash of the last committed turn. Empty when the session has
	// no turns yet.
	Head string `json:"head,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// LoadChatState loads the chat state from a target .leonia/chat.json.
// Returns nil, nil if no chat state exists.
func (m *Manager) LoadChatState(overrideDir string) (*ChatState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, chatFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading chat state: %w", err)
	}

	state := &ChatState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing chat state: %w", err)
	}

	return state, nil
}

// SaveChatState persists the chat state to a target .leonia/chat.json.
func (m *Manager) SaveChatState(state *ChatState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil chat state")
	}
	if state.Session == "" {
		return errors.New("chat state has no session")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling chat state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, chatFile), data, 0o600); err != nil {
		return fmt.Errorf("writing chat state: %w", err)
	}

	return nil
}

// ClearChatState removes the chat state file so the next chat starts a new
// session. Returns nil if the file doesn't exist.
func (m *Manager) ClearChatState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, chatFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing chat state: %w", err)
	}

	return nil
}

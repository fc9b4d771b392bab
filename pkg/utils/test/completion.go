package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/leonia/pkg/completion"
)

// MockCompletionService replays a script of results, one per Complete call,
// and records every request it receives.
type MockCompletionService struct {
	mu sync.Mutex

	// Script is consumed in order. Once exhausted, Default is returned.
	Script []completion.Result

	// Default is returned after the script runs out.
	Default completion.Result

	// Errors maps a call index (0-based) to the error returned for that call.
	Errors map[int]error

	// BlockOn makes the call with this index (0-based) wait for its context
	// to be cancelled. -1 disables blocking.
	BlockOn int

	// Requests holds every request received, in order.
	Requests []completion.Request

	closed bool
}

// NewMockCompletionService scripts one reply per text.
func NewMockCompletionService(texts ...string) *MockCompletionService {
	m := &MockCompletionService{
		Errors:  make(map[int]error),
		BlockOn: -1,
	}
	for _, t := range texts {
		m.Script = append(m.Script, completion.Result{Text: t, StopReason: completion.StopLength})
	}
	return m
}

func (m *MockCompletionService) Complete(ctx context.Context, req completion.Request) (completion.Result, error) {
	m.mu.Lock()
	call := len(m.Requests)
	m.Requests = append(m.Requests, req)
	block := m.BlockOn == call
	err := m.Errors[call]

	res := m.Default
	if call < len(m.Script) {
		res = m.Script[call]
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return completion.Result{}, ctx.Err()
	}
	if err != nil {
		return completion.Result{}, err
	}
	return res, nil
}

// Calls returns the number of Complete calls made so far.
func (m *MockCompletionService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Models reports the repos of the scripted models as available.
func (m *MockCompletionService) Models(_ context.Context) ([]string, error) {
	return []string{"distilgpt2"}, nil
}

func (m *MockCompletionService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockCompletionService) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var (
	_ completion.Service = (*MockCompletionService)(nil)
	_ completion.Lister  = (*MockCompletionService)(nil)
)

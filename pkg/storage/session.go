package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/papercomputeco/leonia/pkg/merkle"
)

// SessionSummary describes one chat session found in a store.
type SessionSummary struct {
	ID            string
	Configuration string
	Turns         int
	StartedAt     time.Time
	UpdatedAt     time.Time

	// Head is the session's most recent turn.
	Head *merkle.Node
}

// Sessions groups every stored turn by chat session, most recently updated
// session first.
func Sessions(ctx context.Context, driver Driver) ([]SessionSummary, error) {
	nodes, err := driver.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}

	byID := make(map[string]*SessionSummary)
	for _, n := range nodes {
		s, ok := byID[n.Bucket.Session]
		if !ok {
			s = &SessionSummary{
				ID:        n.Bucket.Session,
				StartedAt: n.CreatedAt,
			}
			byID[n.Bucket.Session] = s
		}

		s.Turns++
		if n.CreatedAt.Before(s.StartedAt) {
			s.StartedAt = n.CreatedAt
		}
		if s.Head == nil || !n.CreatedAt.Before(s.UpdatedAt) {
			s.Head = n
			s.UpdatedAt = n.CreatedAt
			s.Configuration = n.Bucket.Configuration
		}
	}

	out := make([]SessionSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}

// Package store persists debates, their turns and audience votes.
//
// Turns are append-only and always returned in creation order. Callers
// serialise writes for a single debate; the store only guarantees that a
// read after a write in the same goroutine sees that write.
package store

import (
	"context"
	"errors"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrDuplicateVote = errors.New("store: fingerprint already voted")
)

type Store interface {
	// InsertDebate assigns ID and CreatedAt when empty.
	InsertDebate(ctx context.Context, d models.Debate) (models.Debate, error)
	GetDebate(ctx context.Context, id string) (models.Debate, error)
	SetDebateStatus(ctx context.Context, id string, status models.Status) error

	ListTurns(ctx context.Context, debateID string) ([]models.Turn, error)
	// InsertTurn assigns ID and CreatedAt when empty.
	InsertTurn(ctx context.Context, t models.Turn) (models.Turn, error)

	InsertVote(ctx context.Context, v models.Vote) (models.Vote, error)
	VoteTally(ctx context.Context, debateID string) (models.Tally, error)

	Close() error
}

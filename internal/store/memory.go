package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

type debateRecord struct {
	debate models.Debate
	turns  []models.Turn
	votes  map[string]models.Vote // by fingerprint
}

// Memory keeps everything in process. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	debates map[string]*debateRecord
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{debates: make(map[string]*debateRecord), now: time.Now}
}

func (m *Memory) InsertDebate(_ context.Context, d models.Debate) (models.Debate, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = m.now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.debates[d.ID]; ok {
		return models.Debate{}, fmt.Errorf("store: debate %s already exists", d.ID)
	}
	m.debates[d.ID] = &debateRecord{debate: d, votes: make(map[string]models.Vote)}
	return d, nil
}

func (m *Memory) GetDebate(_ context.Context, id string) (models.Debate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.debates[id]
	if !ok {
		return models.Debate{}, ErrNotFound
	}
	return rec.debate, nil
}

func (m *Memory) SetDebateStatus(_ context.Context, id string, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.debates[id]
	if !ok {
		return ErrNotFound
	}
	rec.debate.Status = status
	return nil
}

func (m *Memory) ListTurns(_ context.Context, debateID string) ([]models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.debates[debateID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]models.Turn, len(rec.turns))
	copy(out, rec.turns)
	return out, nil
}

func (m *Memory) InsertTurn(_ context.Context, t models.Turn) (models.Turn, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.debates[t.DebateID]
	if !ok {
		return models.Turn{}, ErrNotFound
	}
	rec.turns = append(rec.turns, t)
	return t, nil
}

func (m *Memory) InsertVote(_ context.Context, v models.Vote) (models.Vote, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = m.now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.debates[v.DebateID]
	if !ok {
		return models.Vote{}, ErrNotFound
	}
	if _, dup := rec.votes[v.Fingerprint]; dup {
		return models.Vote{}, ErrDuplicateVote
	}
	rec.votes[v.Fingerprint] = v
	return v, nil
}

func (m *Memory) VoteTally(_ context.Context, debateID string) (models.Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.debates[debateID]
	if !ok {
		return models.Tally{}, ErrNotFound
	}
	var tally models.Tally
	for _, v := range rec.votes {
		tally.Add(v.Winner)
	}
	return tally, nil
}

func (m *Memory) Close() error { return nil }

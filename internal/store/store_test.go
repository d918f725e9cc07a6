package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	file, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "debates.db"))
	require.NoError(t, err)
	mem, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = file.Close()
		_ = mem.Close()
	})
	return map[string]Store{
		"memory":        NewMemory(),
		"sqlite-file":   file,
		"sqlite-memory": mem,
	}
}

func newDebate(t *testing.T, s Store) models.Debate {
	t.Helper()
	d, err := s.InsertDebate(context.Background(), models.Debate{
		Topic:    "Pineapple on pizza?",
		StyleTag: models.StyleWitty,
		Rounds:   3,
		Status:   models.StatusLive,
	})
	require.NoError(t, err)
	return d
}

func TestDebateLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := newDebate(t, s)
			assert.NotEmpty(t, d.ID)
			assert.False(t, d.CreatedAt.IsZero())

			got, err := s.GetDebate(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, d.Topic, got.Topic)
			assert.Equal(t, models.StatusLive, got.Status)
			assert.Equal(t, models.StyleWitty, got.StyleTag)
			assert.Equal(t, 3, got.Rounds)

			require.NoError(t, s.SetDebateStatus(ctx, d.ID, models.StatusFinished))
			got, err = s.GetDebate(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusFinished, got.Status)

			_, err = s.GetDebate(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.SetDebateStatus(ctx, "missing", models.StatusFinished), ErrNotFound)
		})
	}
}

func TestTurnsKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	sides := []models.Side{models.SideA, models.SideB, models.SideB, models.SideA}
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := newDebate(t, s)
			other := newDebate(t, s)

			empty, err := s.ListTurns(ctx, d.ID)
			require.NoError(t, err)
			assert.Empty(t, empty)

			for i, side := range sides {
				turn, err := s.InsertTurn(ctx, models.Turn{
					DebateID: d.ID,
					RoundNo:  i/2 + 1,
					Side:     side,
					Role:     models.RoleOpening,
					Content:  string(rune('a' + i)),
					Tokens:   1,
				})
				require.NoError(t, err)
				assert.NotEmpty(t, turn.ID)
			}
			_, err = s.InsertTurn(ctx, models.Turn{DebateID: other.ID, RoundNo: 1, Side: models.SideA, Role: models.RoleOpening, Content: "z"})
			require.NoError(t, err)

			turns, err := s.ListTurns(ctx, d.ID)
			require.NoError(t, err)
			require.Len(t, turns, len(sides))
			for i, turn := range turns {
				assert.Equal(t, sides[i], turn.Side)
				assert.Equal(t, string(rune('a'+i)), turn.Content)
				assert.Equal(t, d.ID, turn.DebateID)
			}

			_, err = s.InsertTurn(ctx, models.Turn{DebateID: "missing"})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.ListTurns(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestVotes(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := newDebate(t, s)

			for _, v := range []models.Vote{
				{DebateID: d.ID, Winner: models.SideA, Fingerprint: "fp-0001"},
				{DebateID: d.ID, Winner: models.SideA, Fingerprint: "fp-0002"},
				{DebateID: d.ID, Winner: models.SideB, Fingerprint: "fp-0003"},
			} {
				got, err := s.InsertVote(ctx, v)
				require.NoError(t, err)
				assert.NotEmpty(t, got.ID)
			}

			_, err := s.InsertVote(ctx, models.Vote{DebateID: d.ID, Winner: models.SideB, Fingerprint: "fp-0001"})
			assert.ErrorIs(t, err, ErrDuplicateVote)

			tally, err := s.VoteTally(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, models.Tally{A: 2, B: 1}, tally)

			_, err = s.InsertVote(ctx, models.Vote{DebateID: "missing", Winner: models.SideA, Fingerprint: "fp-0004"})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "debates.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	d := newDebate(t, s)
	_, err = s.InsertTurn(ctx, models.Turn{DebateID: d.ID, RoundNo: 1, Side: models.SideA, Role: models.RoleOpening, Content: "hi", Tokens: 1})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	turns, err := s.ListTurns(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hi", turns[0].Content)
}

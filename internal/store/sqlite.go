package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

// SQLite stores debates in a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One connection keeps :memory: databases shared and writes serialised.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS debates (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			style_tag TEXT NOT NULL,
			rounds INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			debate_id TEXT NOT NULL REFERENCES debates(id),
			round_no INTEGER NOT NULL,
			side TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tokens INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_debate ON turns(debate_id, seq);`,
		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			debate_id TEXT NOT NULL REFERENCES debates(id),
			winner TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_fingerprint ON votes(debate_id, fingerprint);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(input string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, input)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *SQLite) InsertDebate(ctx context.Context, d models.Debate) (models.Debate, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO debates (id, topic, style_tag, rounds, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Topic, string(d.StyleTag), d.Rounds, string(d.Status), formatTime(d.CreatedAt))
	if err != nil {
		return models.Debate{}, fmt.Errorf("store: insert debate: %w", err)
	}
	return d, nil
}

func (s *SQLite) GetDebate(ctx context.Context, id string) (models.Debate, error) {
	var (
		d         models.Debate
		style     string
		status    string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic, style_tag, rounds, status, created_at FROM debates WHERE id = ?`, id).
		Scan(&d.ID, &d.Topic, &style, &d.Rounds, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Debate{}, ErrNotFound
	}
	if err != nil {
		return models.Debate{}, fmt.Errorf("store: get debate: %w", err)
	}
	d.StyleTag = models.StyleTag(style)
	d.Status = models.Status(status)
	d.CreatedAt = parseTime(createdAt)
	return d, nil
}

func (s *SQLite) SetDebateStatus(ctx context.Context, id string, status models.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE debates SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("store: set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: set status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) exists(ctx context.Context, debateID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM debates WHERE id = ?`, debateID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *SQLite) ListTurns(ctx context.Context, debateID string) ([]models.Turn, error) {
	if err := s.exists(ctx, debateID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, debate_id, round_no, side, role, content, tokens, created_at
		FROM turns WHERE debate_id = ? ORDER BY seq ASC`, debateID)
	if err != nil {
		return nil, fmt.Errorf("store: list turns: %w", err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		var (
			t          models.Turn
			side, role string
			createdAt  string
		)
		if err := rows.Scan(&t.ID, &t.DebateID, &t.RoundNo, &side, &role, &t.Content, &t.Tokens, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan turn: %w", err)
		}
		t.Side = models.Side(side)
		t.Role = models.Role(role)
		t.CreatedAt = parseTime(createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLite) InsertTurn(ctx context.Context, t models.Turn) (models.Turn, error) {
	if err := s.exists(ctx, t.DebateID); err != nil {
		return models.Turn{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, debate_id, round_no, side, role, content, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.DebateID, t.RoundNo, string(t.Side), string(t.Role), t.Content, t.Tokens, formatTime(t.CreatedAt))
	if err != nil {
		return models.Turn{}, fmt.Errorf("store: insert turn: %w", err)
	}
	return t, nil
}

func (s *SQLite) InsertVote(ctx context.Context, v models.Vote) (models.Vote, error) {
	if err := s.exists(ctx, v.DebateID); err != nil {
		return models.Vote{}, err
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO votes (id, debate_id, winner, fingerprint, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.DebateID, string(v.Winner), v.Fingerprint, formatTime(v.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Vote{}, ErrDuplicateVote
		}
		return models.Vote{}, fmt.Errorf("store: insert vote: %w", err)
	}
	return v, nil
}

func (s *SQLite) VoteTally(ctx context.Context, debateID string) (models.Tally, error) {
	if err := s.exists(ctx, debateID); err != nil {
		return models.Tally{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT winner, COUNT(*) FROM votes WHERE debate_id = ? GROUP BY winner`, debateID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("store: tally: %w", err)
	}
	defer rows.Close()

	var tally models.Tally
	for rows.Next() {
		var (
			winner string
			n      int
		)
		if err := rows.Scan(&winner, &n); err != nil {
			return models.Tally{}, fmt.Errorf("store: scan tally: %w", err)
		}
		switch models.Side(winner) {
		case models.SideA:
			tally.A = n
		case models.SideB:
			tally.B = n
		}
	}
	return tally, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

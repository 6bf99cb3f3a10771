package scores

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/amalg/go-tetris/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id         TEXT PRIMARY KEY,
	player     TEXT NOT NULL,
	cleared    INTEGER NOT NULL,
	one_line   INTEGER NOT NULL,
	two_line   INTEGER NOT NULL,
	three_line INTEGER NOT NULL,
	four_line  INTEGER NOT NULL,
	played_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scores_by_cleared ON scores (cleared DESC, played_at ASC);
`

// Record is one finished game.
type Record struct {
	ID       string     `json:"id"`
	Player   string     `json:"player"`
	Stats    game.Stats `json:"stats"`
	PlayedAt time.Time  `json:"played_at"`
}

// NewRecord stamps the stats of a finished game with a fresh ID and the current time.
func NewRecord(player string, stats game.Stats) Record {
	return Record{
		ID:       uuid.NewString(),
		Player:   player,
		Stats:    stats,
		PlayedAt: time.Now().UTC(),
	}
}

// Worth reports whether the game cleared anything at all.
func (r Record) Worth() bool {
	return r.Stats.Cleared > 0
}

// Store persists high scores in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Printf("[SCORES] Opened %s", path)
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a record. Records with an existing ID are replaced.
func (s *Store) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		return fmt.Errorf("record has no id")
	}
	q := `
	INSERT OR REPLACE INTO scores (id, player, cleared, one_line, two_line, three_line, four_line, played_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.Player,
		r.Stats.Cleared, r.Stats.OneLine, r.Stats.TwoLine, r.Stats.ThreeLine, r.Stats.FourLine,
		r.PlayedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// Top returns the n best records, most cleared rows first. Ties go to the
// earlier game.
func (s *Store) Top(ctx context.Context, n int) ([]Record, error) {
	q := `
	SELECT id, player, cleared, one_line, two_line, three_line, four_line, played_at
	FROM scores
	ORDER BY cleared DESC, played_at ASC
	LIMIT ?;
	`
	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var playedAt int64
		if err := rows.Scan(&r.ID, &r.Player,
			&r.Stats.Cleared, &r.Stats.OneLine, &r.Stats.TwoLine, &r.Stats.ThreeLine, &r.Stats.FourLine,
			&playedAt,
		); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		r.PlayedAt = time.UnixMilli(playedAt).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}

package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"quizbot/internal/logger"
)

// Postgres stores the leaderboard in a players table. The upsert is a single
// statement, so per-key atomicity comes from Postgres row locking; concurrent
// upserts for different players do not block each other.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an already-connected database handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

const upsertQuery = `
INSERT INTO players (player_id, display_name, total_score)
VALUES ($1, $2, $3)
ON CONFLICT (player_id) DO UPDATE
SET display_name = EXCLUDED.display_name,
    total_score  = players.total_score + EXCLUDED.total_score,
    updated_at   = now()
RETURNING total_score`

// Score returns the player's total, 0 for unknown players. Backend failures
// are returned as errors, never as a fabricated zero.
func (p *Postgres) Score(ctx context.Context, playerID int64) (int, error) {
	var total int
	err := p.db.GetContext(ctx, &total,
		`SELECT total_score FROM players WHERE player_id = $1`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select score for player %d: %w", playerID, err)
	}
	return total, nil
}

// UpsertDelta applies the delta atomically and returns the new total.
func (p *Postgres) UpsertDelta(ctx context.Context, playerID int64, displayName string, delta int) (int, error) {
	if delta < 0 {
		return 0, fmt.Errorf("negative delta %d for player %d", delta, playerID)
	}
	var total int
	if err := p.db.GetContext(ctx, &total, upsertQuery, playerID, displayName, delta); err != nil {
		logger.Store.Error("upsert failed",
			slog.String("event", "store.upsert"),
			slog.Int64("player_id", playerID),
			slog.Int("delta", delta),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("upsert player %d: %w", playerID, err)
	}
	return total, nil
}

// TopK reads the ranked slice straight from SQL ordering.
func (p *Postgres) TopK(ctx context.Context, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("top-k requires k > 0, got %d", k)
	}
	var entries []Entry
	err := p.db.SelectContext(ctx, &entries,
		`SELECT display_name, total_score FROM players
		 ORDER BY total_score DESC, display_name ASC
		 LIMIT $1`, k)
	if err != nil {
		return nil, fmt.Errorf("select top %d: %w", k, err)
	}
	return entries, nil
}

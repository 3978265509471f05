// Package leaderboard stores cumulative player scores across quiz rounds.
//
// All mutation goes through UpsertDelta; totals only ever grow. Backends must
// serialize concurrent deltas for the same player so that no update is lost,
// while deltas for different players proceed independently.
package leaderboard

import (
	"context"
	"sort"
)

// Entry is one ranked leaderboard row.
type Entry struct {
	DisplayName string `db:"display_name"`
	TotalScore  int    `db:"total_score"`
}

// Store is the persistence contract for player scores.
type Store interface {
	// Score returns the player's total, 0 for unknown players.
	Score(ctx context.Context, playerID int64) (int, error)
	// UpsertDelta registers the player if absent, updates the display name
	// (last write wins) and atomically adds delta to the total. It returns
	// the new total. delta must be >= 0.
	UpsertDelta(ctx context.Context, playerID int64, displayName string, delta int) (int, error)
	// TopK returns up to k entries ordered by score descending, ties broken
	// by display name ascending.
	TopK(ctx context.Context, k int) ([]Entry, error)
}

// sortEntries orders entries by score descending, name ascending.
// Shared by backends that rank in process.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
}

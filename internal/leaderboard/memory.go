package leaderboard

import (
	"context"
	"fmt"
	"sync"
)

type record struct {
	displayName string
	totalScore  int
}

// Memory is an in-process Store implementation. Scores are lost on restart;
// it is meant for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	players map[int64]*record
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{players: make(map[int64]*record)}
}

// Score returns the player's total, 0 for unknown players.
func (m *Memory) Score(_ context.Context, playerID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.players[playerID]; ok {
		return rec.totalScore, nil
	}
	return 0, nil
}

// UpsertDelta creates or updates the player record under the store lock.
func (m *Memory) UpsertDelta(_ context.Context, playerID int64, displayName string, delta int) (int, error) {
	if delta < 0 {
		return 0, fmt.Errorf("negative delta %d for player %d", delta, playerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.players[playerID]
	if !ok {
		rec = &record{}
		m.players[playerID] = rec
	}
	rec.displayName = displayName
	rec.totalScore += delta
	return rec.totalScore, nil
}

// TopK snapshots all records and ranks them in process.
func (m *Memory) TopK(_ context.Context, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("top-k requires k > 0, got %d", k)
	}
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.players))
	for _, rec := range m.players {
		entries = append(entries, Entry{DisplayName: rec.displayName, TotalScore: rec.totalScore})
	}
	m.mu.RUnlock()

	sortEntries(entries)
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

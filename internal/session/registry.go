package session

import (
	"fmt"
	"sync"

	"quizbot/internal/quiz"
)

// Registry owns the player-to-session mapping. Each entry carries its own
// mutex, so messages from the same player are strictly serialized while
// different players run in parallel.
type Registry struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

type entry struct {
	mu    sync.Mutex
	busy  bool
	state State
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]*entry)}
}

func (r *Registry) entryFor(playerID int64) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[playerID]
	if !ok {
		e = &entry{state: State{Phase: PhaseIdle}}
		r.entries[playerID] = e
	}
	return e
}

// Do runs fn with exclusive access to the player's session state, creating
// an idle session on first contact. Overlapping mutation of one session is a
// programming-invariant violation and panics rather than being resolved
// silently.
func (r *Registry) Do(playerID int64, fn func(*State) error) error {
	e := r.entryFor(playerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		panic(fmt.Sprintf("session: concurrent mutation for player %d", playerID))
	}
	e.busy = true
	defer func() { e.busy = false }()
	return fn(&e.state)
}

// Reset returns the player's session to idle, discarding in-progress round
// data. Resetting an idle or unknown session is a no-op.
func (r *Registry) Reset(playerID int64) {
	_ = r.Do(playerID, func(st *State) error {
		st.reset()
		return nil
	})
}

// Snapshot returns a copy of the player's current state.
func (r *Registry) Snapshot(playerID int64) State {
	var snap State
	_ = r.Do(playerID, func(st *State) error {
		snap = *st
		snap.Questions = append([]quiz.Question(nil), st.Questions...)
		return nil
	})
	return snap
}

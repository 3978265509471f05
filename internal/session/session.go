// Package session drives the per-player quiz conversation: a finite state
// machine over transient per-player state, serialized per player by the
// registry. It knows nothing about Telegram; outputs are abstract prompts
// rendered by the transport layer.
package session

import "quizbot/internal/quiz"

// Phase identifies a conversation step.
type Phase string

const (
	// PhaseIdle indicates there is no active conversation with the player.
	PhaseIdle Phase = "idle"
	// PhaseAwaitingName waits for the player to introduce themselves.
	PhaseAwaitingName Phase = "awaiting_name"
	// PhaseAwaitingCategory waits for a quiz category pick.
	PhaseAwaitingCategory Phase = "awaiting_category"
	// PhaseAwaitingAnswer waits for an answer to the current question.
	PhaseAwaitingAnswer Phase = "awaiting_answer"
)

// State is the transient per-player conversation state. It is owned by the
// registry entry for its player and never shared across players.
type State struct {
	Phase          Phase
	DisplayName    string
	ActiveCategory string
	Questions      []quiz.Question
	CurrentIndex   int
	RoundScore     int
}

// reset returns the session to idle, discarding round data. The leaderboard
// is untouched: committed totals never shrink.
func (s *State) reset() {
	*s = State{Phase: PhaseIdle}
}

// InRound reports whether the player is past category selection.
func (s State) InRound() bool {
	return s.Phase == PhaseAwaitingAnswer
}

package session

import (
	"sync"
	"testing"

	"quizbot/internal/quiz"
)

func TestRegistryFirstContactIsIdle(t *testing.T) {
	r := NewRegistry()
	st := r.Snapshot(1)
	if st.Phase != PhaseIdle {
		t.Fatalf("phase = %q, want idle", st.Phase)
	}
	if st.DisplayName != "" || st.RoundScore != 0 || len(st.Questions) != 0 {
		t.Fatalf("fresh session carries data: %+v", st)
	}
}

func TestRegistryDoSerializesPerPlayer(t *testing.T) {
	r := NewRegistry()
	const workers = 16

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = r.Do(1, func(st *State) error {
					st.RoundScore++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if got := r.Snapshot(1).RoundScore; got != workers*100 {
		t.Fatalf("lost increments: %d, want %d", got, workers*100)
	}
}

func TestRegistryPlayersDoNotShareState(t *testing.T) {
	r := NewRegistry()
	_ = r.Do(1, func(st *State) error {
		st.Phase = PhaseAwaitingAnswer
		st.DisplayName = "Аня"
		return nil
	})

	if got := r.Snapshot(2).Phase; got != PhaseIdle {
		t.Fatalf("player 2 phase = %q, want idle", got)
	}
	if got := r.Snapshot(1).DisplayName; got != "Аня" {
		t.Fatalf("player 1 name = %q, want Аня", got)
	}
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	_ = r.Do(1, func(st *State) error {
		st.Phase = PhaseAwaitingAnswer
		st.DisplayName = "Аня"
		st.Questions = []quiz.Question{{Text: "q", Options: []string{"a", "b"}, Answer: "a"}}
		st.RoundScore = 2
		return nil
	})

	r.Reset(1)
	st := r.Snapshot(1)
	if st.Phase != PhaseIdle || st.DisplayName != "" || len(st.Questions) != 0 || st.RoundScore != 0 {
		t.Fatalf("reset left data: %+v", st)
	}

	// Resetting idle and unknown sessions is a no-op.
	r.Reset(1)
	r.Reset(42)
}

func TestRegistrySnapshotIsDetached(t *testing.T) {
	r := NewRegistry()
	_ = r.Do(1, func(st *State) error {
		st.Questions = []quiz.Question{{Text: "q", Options: []string{"a", "b"}, Answer: "a"}}
		return nil
	})

	snap := r.Snapshot(1)
	snap.Questions[0].Text = "mutated"

	if got := r.Snapshot(1).Questions[0].Text; got != "q" {
		t.Fatalf("snapshot shares question storage: %q", got)
	}
}

func TestRegistryDoPanicsOnOverlap(t *testing.T) {
	r := NewRegistry()
	r.entryFor(1).busy = true

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overlapping mutation")
		}
	}()
	_ = r.Do(1, func(*State) error { return nil })
}

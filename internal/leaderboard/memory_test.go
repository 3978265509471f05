package leaderboard

import (
	"context"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestMemoryUpsertDelta(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	total, err := store.UpsertDelta(ctx, 1, "Аня", 0)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if total != 0 {
		t.Fatalf("register total = %d, want 0", total)
	}

	total, err = store.UpsertDelta(ctx, 1, "Аня", 3)
	if err != nil {
		t.Fatalf("first round: %v", err)
	}
	if total != 3 {
		t.Fatalf("first round total = %d, want 3", total)
	}

	// A second round accumulates and a rename sticks.
	total, err = store.UpsertDelta(ctx, 1, "Анна", 2)
	if err != nil {
		t.Fatalf("second round: %v", err)
	}
	if total != 5 {
		t.Fatalf("second round total = %d, want 5", total)
	}

	top, err := store.TopK(ctx, 10)
	if err != nil {
		t.Fatalf("topk: %v", err)
	}
	if len(top) != 1 || top[0].DisplayName != "Анна" || top[0].TotalScore != 5 {
		t.Fatalf("unexpected top: %+v", top)
	}
}

func TestMemoryRejectsNegativeDelta(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if _, err := store.UpsertDelta(ctx, 1, "Аня", 3); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.UpsertDelta(ctx, 1, "Аня", -1); err == nil {
		t.Fatal("negative delta accepted")
	}
	total, err := store.Score(ctx, 1)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if total != 3 {
		t.Fatalf("total changed after rejected delta: %d", total)
	}
}

func TestMemoryScoreUnknownPlayer(t *testing.T) {
	store := NewMemory()
	total, err := store.Score(context.Background(), 404)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if total != 0 {
		t.Fatalf("unknown player score = %d, want 0", total)
	}
}

func TestMemoryTopKOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	seed := []struct {
		id    int64
		name  string
		score int
	}{
		{1, "Ваня", 5},
		{2, "Аня", 5},
		{3, "Борис", 7},
		{4, "Глеб", 1},
	}
	for _, s := range seed {
		if _, err := store.UpsertDelta(ctx, s.id, s.name, s.score); err != nil {
			t.Fatalf("seed %s: %v", s.name, err)
		}
	}

	top, err := store.TopK(ctx, 3)
	if err != nil {
		t.Fatalf("topk: %v", err)
	}
	want := []Entry{
		{DisplayName: "Борис", TotalScore: 7},
		{DisplayName: "Аня", TotalScore: 5},
		{DisplayName: "Ваня", TotalScore: 5},
	}
	if len(top) != len(want) {
		t.Fatalf("got %d entries, want %d", len(top), len(want))
	}
	for i := range want {
		if top[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, top[i], want[i])
		}
	}

	if _, err := store.TopK(ctx, 0); err == nil {
		t.Fatal("k=0 accepted")
	}
}

func TestMemoryConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	const (
		workers = 16
		rounds  = 50
	)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				if _, err := store.UpsertDelta(ctx, 1, "Аня", 1); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent upserts: %v", err)
	}

	total, err := store.Score(ctx, 1)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if total != workers*rounds {
		t.Fatalf("lost updates: total = %d, want %d", total, workers*rounds)
	}
}

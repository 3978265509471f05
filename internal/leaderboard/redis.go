package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	scoresKey = "quiz:lb:scores"
	namesKey  = "quiz:lb:names"
)

// Redis keeps totals in a sorted set (ZINCRBY gives per-key atomic deltas)
// and display names in a companion hash.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Score returns the player's total, 0 for unknown players.
func (r *Redis) Score(ctx context.Context, playerID int64) (int, error) {
	score, err := r.client.ZScore(ctx, scoresKey, member(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("zscore player %d: %w", playerID, err)
	}
	return int(score), nil
}

// UpsertDelta increments the member score and refreshes the display name in
// one pipeline. ZINCRBY both creates and increments, so registration and
// delta application need no read-modify-write cycle.
func (r *Redis) UpsertDelta(ctx context.Context, playerID int64, displayName string, delta int) (int, error) {
	if delta < 0 {
		return 0, fmt.Errorf("negative delta %d for player %d", delta, playerID)
	}
	pipe := r.client.TxPipeline()
	incr := pipe.ZIncrBy(ctx, scoresKey, float64(delta), member(playerID))
	pipe.HSet(ctx, namesKey, member(playerID), displayName)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("upsert player %d: %w", playerID, err)
	}
	return int(incr.Val()), nil
}

// TopK loads the full ranking and resolves ties in process: the sorted set
// orders tied members by member id, while callers expect display-name order.
func (r *Redis) TopK(ctx context.Context, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("top-k requires k > 0, got %d", k)
	}
	scored, err := r.client.ZRevRangeWithScores(ctx, scoresKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange: %w", err)
	}
	if len(scored) == 0 {
		return nil, nil
	}
	names, err := r.client.HGetAll(ctx, namesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall names: %w", err)
	}

	entries := make([]Entry, 0, len(scored))
	for _, z := range scored {
		id, _ := z.Member.(string)
		name, ok := names[id]
		if !ok {
			name = id
		}
		entries = append(entries, Entry{DisplayName: name, TotalScore: int(z.Score)})
	}
	sortEntries(entries)
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

func member(playerID int64) string {
	return strconv.FormatInt(playerID, 10)
}

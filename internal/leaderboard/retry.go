package leaderboard

import (
	"context"
	"log/slog"
	"time"

	"quizbot/internal/logger"
)

const (
	defaultCommitRetries = 3
	defaultCommitBackoff = 500 * time.Millisecond
)

// CommitWithRetry applies a round's score delta, retrying transient store
// failures with growing backoff. Losing a finished round silently is the
// worst outcome for a player, so every failure short of context cancellation
// is retried until the attempt budget runs out.
func CommitWithRetry(ctx context.Context, store Store, playerID int64, displayName string, delta int) (int, error) {
	attempts := defaultCommitRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		total, err := store.UpsertDelta(ctx, playerID, displayName, delta)
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, "leaderboard", "store.commit.retry",
					slog.Int64("player_id", playerID),
					slog.Int("attempt", attempt),
				)
			}
			return total, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		delay := defaultCommitBackoff * time.Duration(attempt)
		logger.Warn(ctx, "leaderboard", "store.commit.retry",
			slog.Int64("player_id", playerID),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("err", err.Error()),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	logger.Error(ctx, "leaderboard", "store.commit.fail",
		slog.Int64("player_id", playerID),
		slog.Int("lost_delta", delta),
		slog.Int("attempts", attempts),
		slog.String("err", lastErr.Error()),
	)
	return 0, lastErr
}

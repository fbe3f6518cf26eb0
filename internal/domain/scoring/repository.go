package scoring

import "context"

type Repository interface {
	GetStreak(ctx context.Context, userID string) (Streak, bool, error)
	UpsertStreak(ctx context.Context, streak Streak) error

	UpsertDailyScore(ctx context.Context, score DailyScore) error
	ListDailyScoresBySlate(ctx context.Context, slateID string) ([]DailyScore, error)
}

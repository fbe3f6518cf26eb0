package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pickstreak/pickstreak/internal/domain/scoring"
	qb "github.com/pickstreak/pickstreak/internal/platform/querybuilder"
)

type ScoringRepository struct {
	db *sqlx.DB
}

func NewScoringRepository(db *sqlx.DB) *ScoringRepository {
	return &ScoringRepository{db: db}
}

func (r *ScoringRepository) GetStreak(ctx context.Context, userID string) (scoring.Streak, bool, error) {
	query, args, err := qb.Select("*").From("streaks").
		Where(
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return scoring.Streak{}, false, fmt.Errorf("build select streak query: %w", err)
	}

	var row streakTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return scoring.Streak{}, false, nil
		}
		return scoring.Streak{}, false, fmt.Errorf("select streak: %w", err)
	}

	return scoring.Streak{
		UserID:         row.UserID,
		CurrentStreak:  row.CurrentStreak,
		LongestStreak:  row.LongestStreak,
		LastPlayedDate: row.LastPlayedDate,
		UpdatedAt:      row.UpdatedAt,
	}, true, nil
}

func (r *ScoringRepository) UpsertStreak(ctx context.Context, streak scoring.Streak) error {
	query, args, err := qb.InsertModel("streaks", streakInsertModel{
		UserID:         streak.UserID,
		CurrentStreak:  streak.CurrentStreak,
		LongestStreak:  streak.LongestStreak,
		LastPlayedDate: streak.LastPlayedDate,
		UpdatedAt:      streak.UpdatedAt.UTC(),
	}, `ON CONFLICT (user_id) WHERE deleted_at IS NULL
DO UPDATE SET
    current_streak = EXCLUDED.current_streak,
    longest_streak = EXCLUDED.longest_streak,
    last_played_date = EXCLUDED.last_played_date,
    updated_at = EXCLUDED.updated_at,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert streak query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert streak user=%s: %w", streak.UserID, err)
	}

	return nil
}

func (r *ScoringRepository) UpsertDailyScore(ctx context.Context, score scoring.DailyScore) error {
	query, args, err := qb.InsertModel("daily_scores", dailyScoreInsertModel{
		UserID:            score.UserID,
		SlateID:           score.SlateID,
		CorrectPicks:      score.CorrectPicks,
		TotalPicks:        score.TotalPicks,
		BasePoints:        score.BasePoints,
		PerformancePoints: score.PerformancePoints,
		PerfectBonus:      score.PerfectBonus,
		StreakBonus:       score.StreakBonus,
		TotalPoints:       score.TotalPoints,
	}, `ON CONFLICT (user_id, slate_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    correct_picks = EXCLUDED.correct_picks,
    total_picks = EXCLUDED.total_picks,
    base_points = EXCLUDED.base_points,
    performance_points = EXCLUDED.performance_points,
    perfect_bonus = EXCLUDED.perfect_bonus,
    streak_bonus = EXCLUDED.streak_bonus,
    total_points = EXCLUDED.total_points,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert daily score query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert daily score user=%s slate=%s: %w", score.UserID, score.SlateID, err)
	}

	return nil
}

func (r *ScoringRepository) ListDailyScoresBySlate(ctx context.Context, slateID string) ([]scoring.DailyScore, error) {
	query, args, err := qb.Select("*").From("daily_scores").
		Where(
			qb.Eq("slate_public_id", slateID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("total_points DESC", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select daily scores query: %w", err)
	}

	var rows []dailyScoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select daily scores by slate: %w", err)
	}

	out := make([]scoring.DailyScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoring.DailyScore{
			UserID:            row.UserID,
			SlateID:           row.SlateID,
			CorrectPicks:      row.CorrectPicks,
			TotalPicks:        row.TotalPicks,
			BasePoints:        row.BasePoints,
			PerformancePoints: row.PerformancePoints,
			PerfectBonus:      row.PerfectBonus,
			StreakBonus:       row.StreakBonus,
			TotalPoints:       row.TotalPoints,
		})
	}

	return out, nil
}

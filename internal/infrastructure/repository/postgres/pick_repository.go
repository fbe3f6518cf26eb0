package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pickstreak/pickstreak/internal/domain/pick"
	qb "github.com/pickstreak/pickstreak/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) ListBySlate(ctx context.Context, slateID string) ([]pick.Pick, error) {
	query, args, err := qb.Select("*").From("picks").
		Where(
			qb.Eq("slate_public_id", slateID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("user_id", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select picks by slate query: %w", err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select picks by slate: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pick.Pick{
			ID:        row.PublicID,
			SlateID:   row.SlateID,
			GameID:    row.GameID,
			UserID:    row.UserID,
			Picked:    row.PickedSide,
			IsCorrect: nullBoolToBoolPtr(row.IsCorrect),
			CreatedAt: row.CreatedAt,
		})
	}

	return out, nil
}

func (r *PickRepository) Upsert(ctx context.Context, p pick.Pick) error {
	query, args, err := qb.InsertModel("picks", pickInsertModel{
		PublicID:   p.ID,
		SlateID:    p.SlateID,
		GameID:     p.GameID,
		UserID:     p.UserID,
		PickedSide: p.Picked,
	}, `ON CONFLICT (user_id, game_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    picked_side = EXCLUDED.picked_side,
    slate_public_id = EXCLUDED.slate_public_id,
    is_correct = NULL,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert pick query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert pick user=%s game=%s: %w", p.UserID, p.GameID, err)
	}

	return nil
}

func (r *PickRepository) Delete(ctx context.Context, userID, gameID string) (bool, error) {
	query, args, err := qb.Update("picks").
		SetExpr("deleted_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("game_public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete pick query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete pick user=%s game=%s: %w", userID, gameID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count deleted pick rows: %w", err)
	}

	return affected > 0, nil
}

func (r *PickRepository) GradeGamePicks(ctx context.Context, gameID, winner string) (int, error) {
	builder := qb.Update("picks").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("game_public_id", gameID),
			qb.IsNull("deleted_at"),
		)
	if winner == "" {
		// No winner recorded (tie): every pick on the game grades incorrect.
		builder = builder.SetExpr("is_correct", "FALSE")
	} else {
		builder = builder.SetExpr("is_correct", "(picked_side = ?)", winner)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build grade picks query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("grade picks for game %s: %w", gameID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count graded pick rows: %w", err)
	}

	return int(affected), nil
}

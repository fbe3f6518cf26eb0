package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pickstreak/pickstreak/internal/domain/slate"
	qb "github.com/pickstreak/pickstreak/internal/platform/querybuilder"
)

type SlateRepository struct {
	db *sqlx.DB
}

func NewSlateRepository(db *sqlx.DB) *SlateRepository {
	return &SlateRepository{db: db}
}

func (r *SlateRepository) GetByID(ctx context.Context, slateID string) (slate.Slate, bool, error) {
	query, args, err := qb.Select("*").From("slates").
		Where(
			qb.Eq("public_id", slateID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return slate.Slate{}, false, fmt.Errorf("build select slate by id query: %w", err)
	}

	var row slateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return slate.Slate{}, false, nil
		}
		return slate.Slate{}, false, fmt.Errorf("select slate by id: %w", err)
	}

	return slateFromRow(row), true, nil
}

func (r *SlateRepository) GetByDate(ctx context.Context, date string) (slate.Slate, bool, error) {
	query, args, err := qb.Select("*").From("slates").
		Where(
			qb.Eq("slate_date", date),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return slate.Slate{}, false, fmt.Errorf("build select slate by date query: %w", err)
	}

	var row slateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return slate.Slate{}, false, nil
		}
		return slate.Slate{}, false, fmt.Errorf("select slate by date: %w", err)
	}

	return slateFromRow(row), true, nil
}

func (r *SlateRepository) ListUnfinalized(ctx context.Context) ([]slate.Slate, error) {
	query, args, err := qb.Select("*").From("slates").
		Where(
			qb.In("status", []any{slate.StatusOpen, slate.StatusLocked}),
			qb.IsNull("deleted_at"),
		).
		OrderBy("slate_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select unfinalized slates query: %w", err)
	}

	var rows []slateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select unfinalized slates: %w", err)
	}

	out := make([]slate.Slate, 0, len(rows))
	for _, row := range rows {
		out = append(out, slateFromRow(row))
	}

	return out, nil
}

func (r *SlateRepository) Create(ctx context.Context, s slate.Slate, games []slate.Game) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for slate create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	slateQuery, slateArgs, err := qb.InsertModel("slates", slateInsertModel{
		PublicID:  s.ID,
		SlateDate: s.Date,
		Status:    slate.NormalizeStatus(s.Status),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert slate query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, slateQuery, slateArgs...); err != nil {
		return fmt.Errorf("insert slate date=%s: %w", s.Date, err)
	}

	for _, game := range games {
		gameQuery, gameArgs, err := qb.InsertModel("games", gameInsertModel{
			PublicID:        game.ID,
			SlateID:         s.ID,
			Sport:           game.Sport,
			ExternalID:      game.ExternalID,
			HomeTeam:        game.HomeTeam,
			AwayTeam:        game.AwayTeam,
			CommenceAt:      game.CommenceAt.UTC(),
			Status:          slate.NormalizeGameStatus(game.Status),
			Competitiveness: game.Competitiveness,
		}, "")
		if err != nil {
			return fmt.Errorf("build insert game external_id=%s query: %w", game.ExternalID, err)
		}
		if _, err := tx.ExecContext(ctx, gameQuery, gameArgs...); err != nil {
			return fmt.Errorf("insert game external_id=%s: %w", game.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slate create tx: %w", err)
	}

	return nil
}

func (r *SlateRepository) UpdateStatus(ctx context.Context, slateID, from, to string) (bool, error) {
	if !slate.CanTransition(from, to) {
		return false, fmt.Errorf("invalid slate status transition %s -> %s", from, to)
	}

	query, args, err := qb.Update("slates").
		Set("status", to).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", slateID),
			qb.Eq("status", from),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update slate status query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update slate status %s -> %s: %w", from, to, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count updated slate rows: %w", err)
	}

	return affected > 0, nil
}

func (r *SlateRepository) ListGames(ctx context.Context, slateID string) ([]slate.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("slate_public_id", slateID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("commence_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games by slate query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games by slate: %w", err)
	}

	out := make([]slate.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}

	return out, nil
}

func (r *SlateRepository) UpdateGame(ctx context.Context, game slate.Game) error {
	query, args, err := qb.Update("games").
		Set("status", slate.NormalizeGameStatus(game.Status)).
		Set("home_score", nullableInt(game.HomeScore)).
		Set("away_score", nullableInt(game.AwayScore)).
		Set("winner", nullableString(game.Winner)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", game.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update game %s: %w", game.ID, err)
	}

	return nil
}

func slateFromRow(row slateTableModel) slate.Slate {
	return slate.Slate{
		ID:        row.PublicID,
		Date:      row.SlateDate,
		Status:    slate.NormalizeStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}
}

func gameFromRow(row gameTableModel) slate.Game {
	return slate.Game{
		ID:              row.PublicID,
		SlateID:         row.SlateID,
		Sport:           row.Sport,
		ExternalID:      row.ExternalID,
		HomeTeam:        row.HomeTeam,
		AwayTeam:        row.AwayTeam,
		CommenceAt:      row.CommenceAt,
		Status:          slate.NormalizeGameStatus(row.Status),
		HomeScore:       nullInt64ToIntPtr(row.HomeScore),
		AwayScore:       nullInt64ToIntPtr(row.AwayScore),
		Winner:          row.Winner.String,
		Competitiveness: row.Competitiveness,
	}
}

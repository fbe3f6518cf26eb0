package postgres

import (
	"database/sql"
	"time"
)

type pickTableModel struct {
	ID         int64        `db:"id"`
	PublicID   string       `db:"public_id"`
	SlateID    string       `db:"slate_public_id"`
	GameID     string       `db:"game_public_id"`
	UserID     string       `db:"user_id"`
	PickedSide string       `db:"picked_side"`
	IsCorrect  sql.NullBool `db:"is_correct"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
	DeletedAt  *time.Time   `db:"deleted_at"`
}

type pickInsertModel struct {
	PublicID   string `db:"public_id"`
	SlateID    string `db:"slate_public_id"`
	GameID     string `db:"game_public_id"`
	UserID     string `db:"user_id"`
	PickedSide string `db:"picked_side"`
}

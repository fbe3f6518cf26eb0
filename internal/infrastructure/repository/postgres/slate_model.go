package postgres

import (
	"database/sql"
	"time"
)

type slateTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	SlateDate string     `db:"slate_date"`
	Status    string     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type slateInsertModel struct {
	PublicID  string `db:"public_id"`
	SlateDate string `db:"slate_date"`
	Status    string `db:"status"`
}

type gameTableModel struct {
	ID              int64          `db:"id"`
	PublicID        string         `db:"public_id"`
	SlateID         string         `db:"slate_public_id"`
	Sport           string         `db:"sport"`
	ExternalID      string         `db:"external_id"`
	HomeTeam        string         `db:"home_team"`
	AwayTeam        string         `db:"away_team"`
	CommenceAt      time.Time      `db:"commence_at"`
	Status          string         `db:"status"`
	HomeScore       sql.NullInt64  `db:"home_score"`
	AwayScore       sql.NullInt64  `db:"away_score"`
	Winner          sql.NullString `db:"winner"`
	Competitiveness float64        `db:"competitiveness"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

type gameInsertModel struct {
	PublicID        string    `db:"public_id"`
	SlateID         string    `db:"slate_public_id"`
	Sport           string    `db:"sport"`
	ExternalID      string    `db:"external_id"`
	HomeTeam        string    `db:"home_team"`
	AwayTeam        string    `db:"away_team"`
	CommenceAt      time.Time `db:"commence_at"`
	Status          string    `db:"status"`
	Competitiveness float64   `db:"competitiveness"`
}

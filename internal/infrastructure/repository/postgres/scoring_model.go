package postgres

import "time"

type dailyScoreTableModel struct {
	ID                int64      `db:"id"`
	UserID            string     `db:"user_id"`
	SlateID           string     `db:"slate_public_id"`
	CorrectPicks      int        `db:"correct_picks"`
	TotalPicks        int        `db:"total_picks"`
	BasePoints        int        `db:"base_points"`
	PerformancePoints int        `db:"performance_points"`
	PerfectBonus      int        `db:"perfect_bonus"`
	StreakBonus       int        `db:"streak_bonus"`
	TotalPoints       int        `db:"total_points"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at"`
}

type dailyScoreInsertModel struct {
	UserID            string `db:"user_id"`
	SlateID           string `db:"slate_public_id"`
	CorrectPicks      int    `db:"correct_picks"`
	TotalPicks        int    `db:"total_picks"`
	BasePoints        int    `db:"base_points"`
	PerformancePoints int    `db:"performance_points"`
	PerfectBonus      int    `db:"perfect_bonus"`
	StreakBonus       int    `db:"streak_bonus"`
	TotalPoints       int    `db:"total_points"`
}

type streakTableModel struct {
	ID             int64      `db:"id"`
	UserID         string     `db:"user_id"`
	CurrentStreak  int        `db:"current_streak"`
	LongestStreak  int        `db:"longest_streak"`
	LastPlayedDate string     `db:"last_played_date"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

type streakInsertModel struct {
	UserID         string    `db:"user_id"`
	CurrentStreak  int       `db:"current_streak"`
	LongestStreak  int       `db:"longest_streak"`
	LastPlayedDate string    `db:"last_played_date"`
	UpdatedAt      time.Time `db:"updated_at"`
}

package scoring

import "time"

type DailyScore struct {
	UserID            string
	SlateID           string
	CorrectPicks      int
	TotalPicks        int
	BasePoints        int
	PerformancePoints int
	PerfectBonus      int
	StreakBonus       int
	TotalPoints       int
}

// Streak tracks consecutive played days. LastPlayedDate is YYYY-MM-DD
// in the reference timezone.
type Streak struct {
	UserID         string
	CurrentStreak  int
	LongestStreak  int
	LastPlayedDate string
	UpdatedAt      time.Time
}

package pick

import "time"

// Pick is one user's call on a single game. IsCorrect stays nil until
// the game is graded.
type Pick struct {
	ID        string
	SlateID   string
	GameID    string
	UserID    string
	Picked    string
	IsCorrect *bool
	CreatedAt time.Time
}

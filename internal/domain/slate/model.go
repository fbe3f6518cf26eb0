package slate

import (
	"strings"
	"time"
)

const (
	StatusOpen      = "open"
	StatusLocked    = "locked"
	StatusFinalized = "finalized"
)

const (
	GameStatusUpcoming = "upcoming"
	GameStatusLive     = "live"
	GameStatusFinal    = "final"
)

const (
	SideHome = "home"
	SideAway = "away"
)

// Slate is one day's board of games. Dates are YYYY-MM-DD in the
// reference timezone, one slate per date.
type Slate struct {
	ID        string
	Date      string
	Status    string
	CreatedAt time.Time
}

// Game is a single matchup on a slate. Winner stays empty until the
// game is final, and stays empty on a tie.
type Game struct {
	ID              string
	SlateID         string
	Sport           string
	ExternalID      string
	HomeTeam        string
	AwayTeam        string
	CommenceAt      time.Time
	Status          string
	HomeScore       *int
	AwayScore       *int
	Winner          string
	Competitiveness float64
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return StatusOpen
	}
	return status
}

func NormalizeGameStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return GameStatusUpcoming
	}
	return status
}

func IsFinalGameStatus(status string) bool {
	return NormalizeGameStatus(status) == GameStatusFinal
}

func IsStartedGameStatus(status string) bool {
	switch NormalizeGameStatus(status) {
	case GameStatusLive, GameStatusFinal:
		return true
	default:
		return false
	}
}

// CanTransition enforces the one-way slate lifecycle open -> locked -> finalized.
func CanTransition(from, to string) bool {
	switch NormalizeStatus(from) {
	case StatusOpen:
		return to == StatusLocked || to == StatusFinalized
	case StatusLocked:
		return to == StatusFinalized
	default:
		return false
	}
}

package usecase

import (
	"context"
	"time"
)

// ExternalEvent is an upcoming matchup as reported by the odds provider.
// Odds are decimal; zero means the market was missing.
type ExternalEvent struct {
	ExternalID string
	Sport      string
	HomeTeam   string
	AwayTeam   string
	CommenceAt time.Time
	HomeOdds   float64
	AwayOdds   float64
}

// ExternalScore is a provider score row for one event. HasScores is true
// once the provider reports any score data, which is how in-progress
// games are detected before completion.
type ExternalScore struct {
	ExternalID string
	Completed  bool
	HasScores  bool
	HomeScore  *int
	AwayScore  *int
}

type ScoreProvider interface {
	FetchUpcomingEvents(ctx context.Context, sport string, from, to time.Time) ([]ExternalEvent, error)
	FetchScores(ctx context.Context, sport string) ([]ExternalScore, error)
}

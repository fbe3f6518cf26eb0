package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pickstreak/pickstreak/internal/domain/scoring"
)

type ScoringRepository struct {
	mu      sync.RWMutex
	streaks map[string]scoring.Streak
	scores  map[string]scoring.DailyScore
}

func NewScoringRepository() *ScoringRepository {
	return &ScoringRepository{
		streaks: make(map[string]scoring.Streak),
		scores:  make(map[string]scoring.DailyScore),
	}
}

func scoreKey(userID, slateID string) string {
	return userID + "|" + slateID
}

func (r *ScoringRepository) GetStreak(_ context.Context, userID string) (scoring.Streak, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.streaks[userID]
	return item, ok, nil
}

func (r *ScoringRepository) UpsertStreak(_ context.Context, streak scoring.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.streaks[streak.UserID] = streak
	return nil
}

func (r *ScoringRepository) UpsertDailyScore(_ context.Context, score scoring.DailyScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scores[scoreKey(score.UserID, score.SlateID)] = score
	return nil
}

func (r *ScoringRepository) ListDailyScoresBySlate(_ context.Context, slateID string) ([]scoring.DailyScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scoring.DailyScore, 0, len(r.scores))
	for _, item := range r.scores {
		if item.SlateID == slateID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pickstreak/pickstreak/internal/domain/pick"
)

type PickRepository struct {
	mu    sync.RWMutex
	picks map[string]pick.Pick
}

func NewPickRepository() *PickRepository {
	return &PickRepository{picks: make(map[string]pick.Pick)}
}

func pickKey(userID, gameID string) string {
	return userID + "|" + gameID
}

func (r *PickRepository) ListBySlate(_ context.Context, slateID string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0, len(r.picks))
	for _, item := range r.picks {
		if item.SlateID == slateID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].GameID < out[j].GameID
	})
	return out, nil
}

func (r *PickRepository) Upsert(_ context.Context, p pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pickKey(p.UserID, p.GameID)
	if existing, ok := r.picks[key]; ok {
		existing.Picked = p.Picked
		existing.IsCorrect = nil
		r.picks[key] = existing
		return nil
	}
	r.picks[key] = p
	return nil
}

func (r *PickRepository) Delete(_ context.Context, userID, gameID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pickKey(userID, gameID)
	if _, ok := r.picks[key]; !ok {
		return false, nil
	}
	delete(r.picks, key)
	return true, nil
}

func (r *PickRepository) GradeGamePicks(_ context.Context, gameID, winner string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	graded := 0
	for key, item := range r.picks {
		if item.GameID != gameID {
			continue
		}
		correct := winner != "" && item.Picked == winner
		item.IsCorrect = &correct
		r.picks[key] = item
		graded++
	}
	return graded, nil
}

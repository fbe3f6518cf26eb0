package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pickstreak/pickstreak/internal/domain/slate"
)

type SlateRepository struct {
	mu           sync.RWMutex
	slatesByID   map[string]slate.Slate
	gamesBySlate map[string][]slate.Game
}

func NewSlateRepository() *SlateRepository {
	return &SlateRepository{
		slatesByID:   make(map[string]slate.Slate),
		gamesBySlate: make(map[string][]slate.Game),
	}
}

func (r *SlateRepository) GetByID(_ context.Context, slateID string) (slate.Slate, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.slatesByID[slateID]
	return item, ok, nil
}

func (r *SlateRepository) GetByDate(_ context.Context, date string) (slate.Slate, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.slatesByID {
		if item.Date == date {
			return item, true, nil
		}
	}
	return slate.Slate{}, false, nil
}

func (r *SlateRepository) ListUnfinalized(_ context.Context) ([]slate.Slate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]slate.Slate, 0, len(r.slatesByID))
	for _, item := range r.slatesByID {
		if item.Status != slate.StatusFinalized {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out, nil
}

func (r *SlateRepository) Create(_ context.Context, s slate.Slate, games []slate.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slatesByID[s.ID]; exists {
		return fmt.Errorf("slate %s already exists", s.ID)
	}
	for _, existing := range r.slatesByID {
		if existing.Date == s.Date {
			return fmt.Errorf("slate for date %s already exists", s.Date)
		}
	}

	r.slatesByID[s.ID] = s
	cloned := make([]slate.Game, len(games))
	copy(cloned, games)
	for i := range cloned {
		cloned[i].SlateID = s.ID
	}
	r.gamesBySlate[s.ID] = cloned
	return nil
}

func (r *SlateRepository) UpdateStatus(_ context.Context, slateID, from, to string) (bool, error) {
	if !slate.CanTransition(from, to) {
		return false, fmt.Errorf("invalid slate status transition %s -> %s", from, to)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.slatesByID[slateID]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	r.slatesByID[slateID] = item
	return true, nil
}

func (r *SlateRepository) ListGames(_ context.Context, slateID string) ([]slate.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.gamesBySlate[slateID]
	out := make([]slate.Game, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CommenceAt.Before(out[j].CommenceAt)
	})
	return out, nil
}

func (r *SlateRepository) UpdateGame(_ context.Context, game slate.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.gamesBySlate[game.SlateID]
	for i := range items {
		if items[i].ID == game.ID {
			items[i] = game
			return nil
		}
	}
	return fmt.Errorf("game %s not found", game.ID)
}

package cache

import (
	"context"

	"github.com/pickstreak/pickstreak/internal/domain/slate"
	basecache "github.com/pickstreak/pickstreak/internal/platform/cache"
)

// SlateRepository caches slate reads in front of the postgres repository.
// Writes pass through and drop the affected keys so pollers and readers
// never see a stale status for longer than one invalidation.
type SlateRepository struct {
	next  slate.Repository
	cache *basecache.Store
}

func NewSlateRepository(next slate.Repository, cache *basecache.Store) *SlateRepository {
	return &SlateRepository{next: next, cache: cache}
}

type cachedSlate struct {
	value  slate.Slate
	exists bool
}

func (r *SlateRepository) GetByID(ctx context.Context, slateID string) (slate.Slate, bool, error) {
	key := "slate:id:" + slateID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, slateID)
		if err != nil {
			return nil, err
		}
		return cachedSlate{value: item, exists: exists}, nil
	})
	if err != nil {
		return slate.Slate{}, false, err
	}

	cached, _ := v.(cachedSlate)
	return cached.value, cached.exists, nil
}

func (r *SlateRepository) GetByDate(ctx context.Context, date string) (slate.Slate, bool, error) {
	key := "slate:date:" + date
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		return cachedSlate{value: item, exists: exists}, nil
	})
	if err != nil {
		return slate.Slate{}, false, err
	}

	cached, _ := v.(cachedSlate)
	return cached.value, cached.exists, nil
}

// ListUnfinalized always goes to the source; the poller depends on it
// reflecting status flips immediately.
func (r *SlateRepository) ListUnfinalized(ctx context.Context) ([]slate.Slate, error) {
	return r.next.ListUnfinalized(ctx)
}

func (r *SlateRepository) Create(ctx context.Context, s slate.Slate, games []slate.Game) error {
	if err := r.next.Create(ctx, s, games); err != nil {
		return err
	}
	r.cache.Delete(ctx, "slate:date:"+s.Date)
	return nil
}

func (r *SlateRepository) UpdateStatus(ctx context.Context, slateID, from, to string) (bool, error) {
	flipped, err := r.next.UpdateStatus(ctx, slateID, from, to)
	if err != nil {
		return false, err
	}
	if flipped {
		r.invalidateSlate(ctx, slateID)
	}
	return flipped, nil
}

func (r *SlateRepository) ListGames(ctx context.Context, slateID string) ([]slate.Game, error) {
	key := "slate:games:" + slateID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListGames(ctx, slateID)
		if err != nil {
			return nil, err
		}
		return append([]slate.Game(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]slate.Game)
	return append([]slate.Game(nil), items...), nil
}

func (r *SlateRepository) UpdateGame(ctx context.Context, game slate.Game) error {
	if err := r.next.UpdateGame(ctx, game); err != nil {
		return err
	}
	r.cache.Delete(ctx, "slate:games:"+game.SlateID)
	return nil
}

func (r *SlateRepository) invalidateSlate(ctx context.Context, slateID string) {
	r.cache.Delete(ctx, "slate:id:"+slateID)
	r.cache.DeletePrefix(ctx, "slate:date:")
	r.cache.Delete(ctx, "slate:games:"+slateID)
}

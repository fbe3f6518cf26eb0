package slate

import "context"

type Repository interface {
	GetByID(ctx context.Context, slateID string) (Slate, bool, error)
	GetByDate(ctx context.Context, date string) (Slate, bool, error)
	// ListUnfinalized returns open and locked slates ordered by date ascending.
	ListUnfinalized(ctx context.Context) ([]Slate, error)
	Create(ctx context.Context, s Slate, games []Game) error
	// UpdateStatus flips the slate status only when the stored status still
	// matches from. Returns false when another writer got there first and an
	// error when from -> to is not a CanTransition move.
	UpdateStatus(ctx context.Context, slateID, from, to string) (bool, error)

	ListGames(ctx context.Context, slateID string) ([]Game, error)
	UpdateGame(ctx context.Context, game Game) error
}

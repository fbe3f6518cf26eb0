package pick

import "context"

type Repository interface {
	ListBySlate(ctx context.Context, slateID string) ([]Pick, error)
	// Upsert keeps one pick per (user, game); re-picking replaces the side.
	Upsert(ctx context.Context, p Pick) error
	// Delete withdraws the user's pick for the game. Returns false when
	// no pick exists.
	Delete(ctx context.Context, userID, gameID string) (bool, error)
	// GradeGamePicks sets is_correct on every pick for the game. An empty
	// winner grades all picks incorrect, which is how ties resolve.
	GradeGamePicks(ctx context.Context, gameID, winner string) (int, error)
}

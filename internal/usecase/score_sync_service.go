package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pickstreak/pickstreak/internal/domain/pick"
	"github.com/pickstreak/pickstreak/internal/domain/slate"
	"github.com/pickstreak/pickstreak/internal/platform/logging"
)

const defaultScoreSyncWorkers = 4

// SlateFinalizer is the slice of FinalizeService the poller needs to
// auto-finalize a slate once every game is final.
type SlateFinalizer interface {
	FinalizeSlate(ctx context.Context, slateID string, force bool) (FinalizeResult, error)
}

// ScoreSyncService polls provider scores and drives games through
// upcoming -> live -> final, grading picks as games finish.
type ScoreSyncService struct {
	slateRepo   slate.Repository
	pickRepo    pick.Repository
	provider    ScoreProvider
	finalizer   SlateFinalizer
	workerCount int
	logger      *logging.Logger
}

func NewScoreSyncService(
	slateRepo slate.Repository,
	pickRepo pick.Repository,
	provider ScoreProvider,
	finalizer SlateFinalizer,
	workerCount int,
	logger *logging.Logger,
) *ScoreSyncService {
	if workerCount <= 0 {
		workerCount = defaultScoreSyncWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ScoreSyncService{
		slateRepo:   slateRepo,
		pickRepo:    pickRepo,
		provider:    provider,
		finalizer:   finalizer,
		workerCount: workerCount,
		logger:      logger,
	}
}

type CheckScoresResult struct {
	SlatesChecked   int
	GamesUpdated    int
	PicksGraded     int
	SlatesLocked    []string
	SlatesFinalized []string
}

// CheckScores processes every unfinalized slate, oldest date first, so a
// missed day catches up before today's board is touched. A non-empty
// slateID narrows the poll to that one slate.
func (s *ScoreSyncService) CheckScores(ctx context.Context, slateID string) (CheckScoresResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoreSyncService.CheckScores")
	defer span.End()

	slates, err := s.resolveSlates(ctx, strings.TrimSpace(slateID))
	if err != nil {
		return CheckScoresResult{}, err
	}

	result := CheckScoresResult{}
	for _, current := range slates {
		outcome, err := s.syncSlate(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.WarnContext(ctx, "slate score sync failed, continuing", "slate_id", current.ID, "date", current.Date, "error", err)
			continue
		}
		result.SlatesChecked++
		result.GamesUpdated += outcome.gamesUpdated
		result.PicksGraded += outcome.picksGraded
		if outcome.locked {
			result.SlatesLocked = append(result.SlatesLocked, current.ID)
		}
		if outcome.finalized {
			result.SlatesFinalized = append(result.SlatesFinalized, current.ID)
		}
	}

	return result, nil
}

func (s *ScoreSyncService) resolveSlates(ctx context.Context, slateID string) ([]slate.Slate, error) {
	if slateID == "" {
		slates, err := s.slateRepo.ListUnfinalized(ctx)
		if err != nil {
			return nil, fmt.Errorf("list unfinalized slates: %w", err)
		}
		return slates, nil
	}

	current, found, err := s.slateRepo.GetByID(ctx, slateID)
	if err != nil {
		return nil, fmt.Errorf("get slate: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: no slate found", ErrNotFound)
	}
	if current.Status == slate.StatusFinalized {
		return nil, nil
	}
	return []slate.Slate{current}, nil
}

type slateSyncOutcome struct {
	gamesUpdated int
	picksGraded  int
	locked       bool
	finalized    bool
}

func (s *ScoreSyncService) syncSlate(ctx context.Context, current slate.Slate) (slateSyncOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoreSyncService.syncSlate")
	defer span.End()

	games, err := s.slateRepo.ListGames(ctx, current.ID)
	if err != nil {
		return slateSyncOutcome{}, fmt.Errorf("list slate games: %w", err)
	}
	if len(games) == 0 {
		return slateSyncOutcome{}, nil
	}

	pendingSports := make(map[string]struct{}, 4)
	for _, game := range games {
		if !slate.IsFinalGameStatus(game.Status) {
			pendingSports[game.Sport] = struct{}{}
		}
	}

	scores := s.fetchScoresBySport(ctx, pendingSports)

	outcome := slateSyncOutcome{}
	anyStarted := false
	allFinal := true
	for i := range games {
		game := games[i]
		if score, ok := scores[game.ExternalID]; ok {
			updated, changed, justFinal := applyScoreUpdate(game, score)
			if changed {
				if err := s.slateRepo.UpdateGame(ctx, updated); err != nil {
					return outcome, fmt.Errorf("update game %s: %w", game.ID, err)
				}
				outcome.gamesUpdated++
			}
			if justFinal {
				graded, err := s.pickRepo.GradeGamePicks(ctx, updated.ID, updated.Winner)
				if err != nil {
					return outcome, fmt.Errorf("grade picks for game %s: %w", updated.ID, err)
				}
				outcome.picksGraded += graded
			}
			game = updated
		}

		if slate.IsStartedGameStatus(game.Status) {
			anyStarted = true
		}
		if !slate.IsFinalGameStatus(game.Status) {
			allFinal = false
		}
	}

	if current.Status == slate.StatusOpen && anyStarted {
		flipped, err := s.slateRepo.UpdateStatus(ctx, current.ID, slate.StatusOpen, slate.StatusLocked)
		if err != nil {
			return outcome, fmt.Errorf("lock slate: %w", err)
		}
		outcome.locked = flipped
		if flipped {
			s.logger.InfoContext(ctx, "slate locked", "slate_id", current.ID, "date", current.Date)
		}
	}

	if allFinal {
		finalizeResult, err := s.finalizer.FinalizeSlate(ctx, current.ID, false)
		if err != nil {
			s.logger.WarnContext(ctx, "auto finalize failed", "slate_id", current.ID, "error", err)
			return outcome, nil
		}
		outcome.finalized = true
		s.logger.InfoContext(ctx, "slate auto finalized", "slate_id", current.ID, "message", finalizeResult.Message)
	}

	return outcome, nil
}

// fetchScoresBySport pulls provider scores for each sport in parallel.
// A failing sport logs and drops out; the others still apply.
func (s *ScoreSyncService) fetchScoresBySport(ctx context.Context, sports map[string]struct{}) map[string]ExternalScore {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoreSyncService.fetchScoresBySport")
	defer span.End()

	scores := make(map[string]ExternalScore, 16)
	if len(sports) == 0 {
		return scores
	}

	workers, err := ants.NewPool(s.workerCount)
	if err != nil {
		s.logger.ErrorContext(ctx, "create score fetch pool", "error", err)
		return scores
	}
	defer workers.Release()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for sport := range sports {
		sport := sport
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()

			rows, err := s.provider.FetchScores(ctx, sport)
			if err != nil {
				s.logger.WarnContext(ctx, "fetch scores failed, skipping sport", "sport", sport, "error", err)
				return
			}

			mu.Lock()
			for _, row := range rows {
				if row.ExternalID == "" {
					continue
				}
				scores[row.ExternalID] = row
			}
			mu.Unlock()
		}); err != nil {
			wg.Done()
			s.logger.WarnContext(ctx, "submit score fetch task", "sport", sport, "error", err)
		}
	}
	wg.Wait()

	return scores
}

// applyScoreUpdate maps one provider score row onto a game. It returns
// the updated game, whether anything changed, and whether the game just
// transitioned to final.
func applyScoreUpdate(game slate.Game, score ExternalScore) (slate.Game, bool, bool) {
	if slate.IsFinalGameStatus(game.Status) {
		return game, false, false
	}

	if score.Completed && score.HomeScore != nil && score.AwayScore != nil {
		home := *score.HomeScore
		away := *score.AwayScore
		game.Status = slate.GameStatusFinal
		game.HomeScore = &home
		game.AwayScore = &away
		game.Winner = winnerFromScores(home, away)
		return game, true, true
	}

	if score.HasScores {
		changed := false
		if game.Status != slate.GameStatusLive {
			game.Status = slate.GameStatusLive
			changed = true
		}
		// Live scores keep moving; persist every change until the game
		// completes.
		if score.HomeScore != nil && !sameScore(game.HomeScore, score.HomeScore) {
			home := *score.HomeScore
			game.HomeScore = &home
			changed = true
		}
		if score.AwayScore != nil && !sameScore(game.AwayScore, score.AwayScore) {
			away := *score.AwayScore
			game.AwayScore = &away
			changed = true
		}
		return game, changed, false
	}

	return game, false, false
}

func sameScore(current, next *int) bool {
	return current != nil && next != nil && *current == *next
}

// winnerFromScores leaves a tie with no winner rather than defaulting a
// side; tied games grade every pick incorrect.
func winnerFromScores(homeScore, awayScore int) string {
	switch {
	case homeScore > awayScore:
		return slate.SideHome
	case awayScore > homeScore:
		return slate.SideAway
	default:
		return ""
	}
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/pickstreak/pickstreak/internal/domain/pick"
	"github.com/pickstreak/pickstreak/internal/domain/scoring"
	"github.com/pickstreak/pickstreak/internal/domain/slate"
	"github.com/pickstreak/pickstreak/internal/platform/logging"
)

// FinalizeService closes out a finished slate: grades tallies, computes
// points, advances streaks, and flips the slate to finalized exactly once.
type FinalizeService struct {
	slateRepo slate.Repository
	pickRepo  pick.Repository
	scoreRepo scoring.Repository
	loc       *time.Location
	logger    *logging.Logger
	now       func() time.Time
}

func NewFinalizeService(
	slateRepo slate.Repository,
	pickRepo pick.Repository,
	scoreRepo scoring.Repository,
	loc *time.Location,
	logger *logging.Logger,
) *FinalizeService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &FinalizeService{
		slateRepo: slateRepo,
		pickRepo:  pickRepo,
		scoreRepo: scoreRepo,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

type FinalizeResult struct {
	SlateID string
	Message string
	Results []string
}

// FinalizeSlate finalizes the slate with the given id, or the oldest
// unfinalized slate when the id is empty. Already-finalized slates are a
// no-op; force skips the all-games-final check for a specific slate.
func (s *FinalizeService) FinalizeSlate(ctx context.Context, slateID string, force bool) (FinalizeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FinalizeService.FinalizeSlate")
	defer span.End()

	current, err := s.resolveSlate(ctx, slateID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if current.Status == slate.StatusFinalized {
		return FinalizeResult{SlateID: current.ID, Message: "slate already finalized"}, nil
	}

	games, err := s.slateRepo.ListGames(ctx, current.ID)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("list slate games: %w", err)
	}

	finalCount := 0
	for _, game := range games {
		if slate.IsFinalGameStatus(game.Status) {
			finalCount++
		}
	}
	if finalCount < len(games) && !force {
		return FinalizeResult{}, fmt.Errorf("%w: not all games final yet (%d/%d)", ErrConflict, finalCount, len(games))
	}

	picks, err := s.pickRepo.ListBySlate(ctx, current.ID)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("list slate picks: %w", err)
	}
	if len(picks) == 0 {
		flipped, err := s.markFinalized(ctx, current)
		if err != nil {
			return FinalizeResult{}, err
		}
		if !flipped {
			return FinalizeResult{SlateID: current.ID, Message: "slate already finalized"}, nil
		}
		return FinalizeResult{SlateID: current.ID, Message: "slate finalized (no picks)"}, nil
	}

	tallies, userIDs := tallyPicksByUser(picks)
	yesterday, err := previousDate(current.Date, s.loc)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("derive previous date for %s: %w", current.Date, err)
	}

	results := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		tally := tallies[userID]

		streak, found, err := s.scoreRepo.GetStreak(ctx, userID)
		if err != nil {
			return FinalizeResult{}, fmt.Errorf("get streak for %s: %w", userID, err)
		}

		currentStreak := 1
		if found && streak.LastPlayedDate == yesterday {
			currentStreak = streak.CurrentStreak + 1
		}

		points := calculatePoints(tally.correct, tally.total, currentStreak)
		if err := s.scoreRepo.UpsertDailyScore(ctx, scoring.DailyScore{
			UserID:            userID,
			SlateID:           current.ID,
			CorrectPicks:      tally.correct,
			TotalPicks:        tally.total,
			BasePoints:        points.BasePoints,
			PerformancePoints: points.PerformancePoints,
			PerfectBonus:      points.PerfectBonus,
			StreakBonus:       points.StreakBonus,
			TotalPoints:       points.TotalPoints,
		}); err != nil {
			return FinalizeResult{}, fmt.Errorf("upsert daily score for %s: %w", userID, err)
		}

		longest := streak.LongestStreak
		if currentStreak > longest {
			longest = currentStreak
		}
		if err := s.scoreRepo.UpsertStreak(ctx, scoring.Streak{
			UserID:         userID,
			CurrentStreak:  currentStreak,
			LongestStreak:  longest,
			LastPlayedDate: current.Date,
			UpdatedAt:      s.now().UTC(),
		}); err != nil {
			return FinalizeResult{}, fmt.Errorf("upsert streak for %s: %w", userID, err)
		}

		results = append(results, formatResultLine(userID, tally.correct, tally.total, points.TotalPoints, currentStreak))
	}

	flipped, err := s.markFinalized(ctx, current)
	if err != nil {
		return FinalizeResult{}, err
	}
	if !flipped {
		// Another finalizer won the status flip; score writes are
		// idempotent upserts so nothing needs undoing.
		return FinalizeResult{SlateID: current.ID, Message: "slate already finalized"}, nil
	}

	s.logger.InfoContext(ctx, "slate finalized", "slate_id", current.ID, "date", current.Date, "users_scored", len(results))

	return FinalizeResult{
		SlateID: current.ID,
		Message: fmt.Sprintf("slate finalized! %d users scored.", len(results)),
		Results: results,
	}, nil
}

func (s *FinalizeService) resolveSlate(ctx context.Context, slateID string) (slate.Slate, error) {
	if strings.TrimSpace(slateID) != "" {
		current, found, err := s.slateRepo.GetByID(ctx, slateID)
		if err != nil {
			return slate.Slate{}, fmt.Errorf("get slate: %w", err)
		}
		if !found {
			return slate.Slate{}, fmt.Errorf("%w: no slate found", ErrNotFound)
		}
		return current, nil
	}

	slates, err := s.slateRepo.ListUnfinalized(ctx)
	if err != nil {
		return slate.Slate{}, fmt.Errorf("list unfinalized slates: %w", err)
	}
	if len(slates) == 0 {
		return slate.Slate{}, fmt.Errorf("%w: no slate found", ErrNotFound)
	}
	return slates[0], nil
}

// markFinalized flips the slate to finalized conditioned on its current
// status, retrying once if the poller moved it open -> locked underneath.
func (s *FinalizeService) markFinalized(ctx context.Context, current slate.Slate) (bool, error) {
	from := current.Status
	for attempt := 0; attempt < 2; attempt++ {
		flipped, err := s.slateRepo.UpdateStatus(ctx, current.ID, from, slate.StatusFinalized)
		if err != nil {
			return false, fmt.Errorf("finalize slate status: %w", err)
		}
		if flipped {
			return true, nil
		}

		reloaded, found, err := s.slateRepo.GetByID(ctx, current.ID)
		if err != nil {
			return false, fmt.Errorf("reload slate: %w", err)
		}
		if !found || reloaded.Status == slate.StatusFinalized {
			return false, nil
		}
		from = reloaded.Status
	}
	return false, nil
}

type pickTally struct {
	correct int
	total   int
}

func tallyPicksByUser(picks []pick.Pick) (map[string]pickTally, []string) {
	tallies := make(map[string]pickTally, len(picks))
	for _, p := range picks {
		tally := tallies[p.UserID]
		tally.total++
		if p.IsCorrect != nil && *p.IsCorrect {
			tally.correct++
		}
		tallies[p.UserID] = tally
	}

	userIDs := make([]string, 0, len(tallies))
	for userID := range tallies {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	return tallies, userIDs
}

func previousDate(date string, loc *time.Location) (string, error) {
	parsed, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return "", err
	}
	return parsed.AddDate(0, 0, -1).Format(dateLayout), nil
}

func formatResultLine(userID string, correct, total, points, currentStreak int) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(userID)
	_, _ = buf.WriteString(": ")
	_, _ = buf.WriteString(strconv.Itoa(correct))
	_ = buf.WriteByte('/')
	_, _ = buf.WriteString(strconv.Itoa(total))
	_, _ = buf.WriteString(" = +")
	_, _ = buf.WriteString(strconv.Itoa(points))
	_, _ = buf.WriteString("pts (streak: ")
	_, _ = buf.WriteString(strconv.Itoa(currentStreak))
	_ = buf.WriteByte(')')

	return buf.String()
}

package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pickstreak/pickstreak/internal/domain/pick"
	"github.com/pickstreak/pickstreak/internal/domain/slate"
	idgen "github.com/pickstreak/pickstreak/internal/platform/id"
	"github.com/pickstreak/pickstreak/internal/platform/logging"
)

const dateLayout = "2006-01-02"

const (
	maxSlateGames    = 7
	maxGamesPerSport = 3

	competitivenessWeight  = 0.6
	sportPriorityWeight    = 0.2
	primeTimeBonusValue    = 0.2
	defaultCompetitiveness = 0.5

	eventFetchConcurrency = 4
)

// SlateService builds the daily slate and serves slate reads.
type SlateService struct {
	slateRepo slate.Repository
	pickRepo  pick.Repository
	provider  ScoreProvider
	idGen     idgen.Generator
	sports    []string
	loc       *time.Location
	logger    *logging.Logger
	now       func() time.Time
}

func NewSlateService(
	slateRepo slate.Repository,
	pickRepo pick.Repository,
	provider ScoreProvider,
	idGen idgen.Generator,
	sports []string,
	loc *time.Location,
	logger *logging.Logger,
) *SlateService {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &SlateService{
		slateRepo: slateRepo,
		pickRepo:  pickRepo,
		provider:  provider,
		idGen:     idGen,
		sports:    append([]string(nil), sports...),
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

type BuildSlateResult struct {
	SlateID string
	Date    string
	Games   int
	Created bool
	Message string
}

// BuildTodaySlate assembles the slate for the current reference date.
// Building is idempotent: an existing slate for the date is returned
// untouched.
func (s *SlateService) BuildTodaySlate(ctx context.Context) (BuildSlateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SlateService.BuildTodaySlate")
	defer span.End()

	date := s.now().In(s.loc).Format(dateLayout)

	existing, found, err := s.slateRepo.GetByDate(ctx, date)
	if err != nil {
		return BuildSlateResult{}, fmt.Errorf("get slate by date: %w", err)
	}
	if found {
		games, err := s.slateRepo.ListGames(ctx, existing.ID)
		if err != nil {
			return BuildSlateResult{}, fmt.Errorf("list games for existing slate: %w", err)
		}
		return BuildSlateResult{
			SlateID: existing.ID,
			Date:    date,
			Games:   len(games),
			Created: false,
			Message: "slate already exists",
		}, nil
	}

	candidates := s.fetchCandidates(ctx, date)
	if len(candidates) == 0 {
		return BuildSlateResult{}, fmt.Errorf("%w: no candidate games available for %s", ErrDependencyUnavailable, date)
	}

	rankCandidates(candidates, s.sports, s.loc)
	selected := selectSlateGames(candidates)

	slateID, err := s.idGen.NewID()
	if err != nil {
		return BuildSlateResult{}, fmt.Errorf("generate slate id: %w", err)
	}
	newSlate := slate.Slate{
		ID:        slateID,
		Date:      date,
		Status:    slate.StatusOpen,
		CreatedAt: s.now().UTC(),
	}

	games := make([]slate.Game, 0, len(selected))
	for _, candidate := range selected {
		gameID, err := s.idGen.NewID()
		if err != nil {
			return BuildSlateResult{}, fmt.Errorf("generate game id: %w", err)
		}
		games = append(games, slate.Game{
			ID:              gameID,
			SlateID:         slateID,
			Sport:           candidate.event.Sport,
			ExternalID:      candidate.event.ExternalID,
			HomeTeam:        candidate.event.HomeTeam,
			AwayTeam:        candidate.event.AwayTeam,
			CommenceAt:      candidate.event.CommenceAt,
			Status:          slate.GameStatusUpcoming,
			Competitiveness: candidate.competitiveness,
		})
	}

	if err := s.slateRepo.Create(ctx, newSlate, games); err != nil {
		return BuildSlateResult{}, fmt.Errorf("create slate: %w", err)
	}

	s.logger.InfoContext(ctx, "slate built", "slate_id", slateID, "date", date, "games", len(games))

	return BuildSlateResult{
		SlateID: slateID,
		Date:    date,
		Games:   len(games),
		Created: true,
		Message: fmt.Sprintf("slate created with %d games", len(games)),
	}, nil
}

type slateCandidate struct {
	event           ExternalEvent
	competitiveness float64
	rank            float64
}

// fetchCandidates pulls the day's events for every configured sport.
// A sport whose fetch fails is skipped; the rest of the board still builds.
func (s *SlateService) fetchCandidates(ctx context.Context, date string) []*slateCandidate {
	ctx, span := startUsecaseSpan(ctx, "usecase.SlateService.fetchCandidates")
	defer span.End()

	dayStart, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		s.logger.ErrorContext(ctx, "parse slate date", "date", date, "error", err)
		return nil
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	type sportFetch struct {
		sport  string
		events []ExternalEvent
		err    error
	}

	fetches := pool.NewWithResults[sportFetch]().WithMaxGoroutines(eventFetchConcurrency)
	for _, sport := range s.sports {
		sport := sport
		fetches.Go(func() sportFetch {
			events, err := s.provider.FetchUpcomingEvents(ctx, sport, dayStart, dayEnd)
			return sportFetch{sport: sport, events: events, err: err}
		})
	}

	candidates := make([]*slateCandidate, 0, 32)
	for _, result := range fetches.Wait() {
		if result.err != nil {
			s.logger.WarnContext(ctx, "fetch events failed, skipping sport", "sport", result.sport, "error", result.err)
			continue
		}
		for _, event := range result.events {
			if event.ExternalID == "" {
				continue
			}
			if event.CommenceAt.Before(dayStart) || !event.CommenceAt.Before(dayEnd) {
				continue
			}
			candidates = append(candidates, &slateCandidate{event: event})
		}
	}

	return candidates
}

// rankCandidates scores every candidate in place. The sport priority term
// rewards earlier sports in the configured order; prime time is 6pm-10pm
// in the reference timezone.
func rankCandidates(candidates []*slateCandidate, sports []string, loc *time.Location) {
	sportIndex := make(map[string]int, len(sports))
	for i, sport := range sports {
		sportIndex[sport] = i
	}

	numSports := len(sports)
	for _, candidate := range candidates {
		candidate.competitiveness = competitivenessFromOdds(candidate.event.HomeOdds, candidate.event.AwayOdds)

		priority := 0.0
		if idx, ok := sportIndex[candidate.event.Sport]; ok && numSports > 0 {
			priority = sportPriorityWeight * (1 - float64(idx)/float64(numSports))
		}

		candidate.rank = competitivenessWeight*candidate.competitiveness +
			primeTimeBonus(candidate.event.CommenceAt, loc) +
			priority
	}
}

// competitivenessFromOdds converts decimal moneyline odds to normalized
// implied probabilities and measures how close the matchup is. Missing
// odds land in the middle rather than at either extreme.
func competitivenessFromOdds(homeOdds, awayOdds float64) float64 {
	if homeOdds <= 0 || awayOdds <= 0 {
		return defaultCompetitiveness
	}

	probHome := 1 / homeOdds
	probAway := 1 / awayOdds
	total := probHome + probAway
	if total <= 0 {
		return defaultCompetitiveness
	}
	probHome /= total
	probAway /= total

	return 1 - math.Abs(probHome-probAway)
}

func primeTimeBonus(commenceAt time.Time, loc *time.Location) float64 {
	hour := commenceAt.In(loc).Hour()
	if hour >= 18 && hour <= 22 {
		return primeTimeBonusValue
	}
	return 0
}

// selectSlateGames takes the ranked candidates greedily with a per-sport
// cap, backfills past the cap when the board would otherwise run short,
// and orders the final board by start time.
func selectSlateGames(candidates []*slateCandidate) []*slateCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].rank > candidates[j].rank
	})

	selected := make([]*slateCandidate, 0, maxSlateGames)
	skipped := make([]*slateCandidate, 0, len(candidates))
	perSport := make(map[string]int, 8)

	for _, candidate := range candidates {
		if len(selected) >= maxSlateGames {
			break
		}
		if perSport[candidate.event.Sport] >= maxGamesPerSport {
			skipped = append(skipped, candidate)
			continue
		}
		selected = append(selected, candidate)
		perSport[candidate.event.Sport]++
	}

	for _, candidate := range skipped {
		if len(selected) >= maxSlateGames {
			break
		}
		selected = append(selected, candidate)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].event.CommenceAt.Before(selected[j].event.CommenceAt)
	})

	return selected
}

// TodaySlate returns the slate for the current reference date with its games.
func (s *SlateService) TodaySlate(ctx context.Context) (slate.Slate, []slate.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SlateService.TodaySlate")
	defer span.End()

	date := s.now().In(s.loc).Format(dateLayout)
	current, found, err := s.slateRepo.GetByDate(ctx, date)
	if err != nil {
		return slate.Slate{}, nil, fmt.Errorf("get slate by date: %w", err)
	}
	if !found {
		return slate.Slate{}, nil, fmt.Errorf("%w: no slate found for %s", ErrNotFound, date)
	}

	games, err := s.slateRepo.ListGames(ctx, current.ID)
	if err != nil {
		return slate.Slate{}, nil, fmt.Errorf("list slate games: %w", err)
	}

	return current, games, nil
}

// SlateByID returns a slate with its games, final or not.
func (s *SlateService) SlateByID(ctx context.Context, slateID string) (slate.Slate, []slate.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SlateService.SlateByID")
	defer span.End()

	current, found, err := s.slateRepo.GetByID(ctx, slateID)
	if err != nil {
		return slate.Slate{}, nil, fmt.Errorf("get slate: %w", err)
	}
	if !found {
		return slate.Slate{}, nil, fmt.Errorf("%w: no slate found", ErrNotFound)
	}

	games, err := s.slateRepo.ListGames(ctx, current.ID)
	if err != nil {
		return slate.Slate{}, nil, fmt.Errorf("list slate games: %w", err)
	}

	return current, games, nil
}

type SubmitPickInput struct {
	SlateID string
	GameID  string
	UserID  string
	Picked  string
}

// SubmitPick records a user's call on a game. Picks close as soon as the
// slate leaves the open state.
func (s *SlateService) SubmitPick(ctx context.Context, input SubmitPickInput) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SlateService.SubmitPick")
	defer span.End()

	if input.Picked != slate.SideHome && input.Picked != slate.SideAway {
		return pick.Pick{}, fmt.Errorf("%w: picked side must be %q or %q", ErrInvalidInput, slate.SideHome, slate.SideAway)
	}
	if strings.TrimSpace(input.UserID) == "" {
		return pick.Pick{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	current, found, err := s.slateRepo.GetByID(ctx, input.SlateID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get slate: %w", err)
	}
	if !found {
		return pick.Pick{}, fmt.Errorf("%w: no slate found", ErrNotFound)
	}
	if current.Status != slate.StatusOpen {
		return pick.Pick{}, fmt.Errorf("%w: slate is %s, picks are closed", ErrConflict, current.Status)
	}

	games, err := s.slateRepo.ListGames(ctx, current.ID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("list slate games: %w", err)
	}
	gameOnSlate := false
	for _, game := range games {
		if game.ID == input.GameID {
			gameOnSlate = true
			break
		}
	}
	if !gameOnSlate {
		return pick.Pick{}, fmt.Errorf("%w: game does not belong to slate", ErrNotFound)
	}

	pickID, err := s.idGen.NewID()
	if err != nil {
		return pick.Pick{}, fmt.Errorf("generate pick id: %w", err)
	}
	newPick := pick.Pick{
		ID:        pickID,
		SlateID:   current.ID,
		GameID:    input.GameID,
		UserID:    strings.TrimSpace(input.UserID),
		Picked:    input.Picked,
		CreatedAt: s.now().UTC(),
	}
	if err := s.pickRepo.Upsert(ctx, newPick); err != nil {
		return pick.Pick{}, fmt.Errorf("upsert pick: %w", err)
	}

	return newPick, nil
}

type DeletePickInput struct {
	SlateID string
	GameID  string
	UserID  string
}

// DeletePick withdraws a user's call on a game. Like submitting, the
// window closes as soon as the slate leaves the open state.
func (s *SlateService) DeletePick(ctx context.Context, input DeletePickInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SlateService.DeletePick")
	defer span.End()

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	current, found, err := s.slateRepo.GetByID(ctx, input.SlateID)
	if err != nil {
		return fmt.Errorf("get slate: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: no slate found", ErrNotFound)
	}
	if current.Status != slate.StatusOpen {
		return fmt.Errorf("%w: slate is %s, picks are closed", ErrConflict, current.Status)
	}

	games, err := s.slateRepo.ListGames(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("list slate games: %w", err)
	}
	gameOnSlate := false
	for _, game := range games {
		if game.ID == input.GameID {
			gameOnSlate = true
			break
		}
	}
	if !gameOnSlate {
		return fmt.Errorf("%w: game does not belong to slate", ErrNotFound)
	}

	deleted, err := s.pickRepo.Delete(ctx, userID, input.GameID)
	if err != nil {
		return fmt.Errorf("delete pick: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: no pick found for game", ErrNotFound)
	}

	return nil
}

type SlateActivityEntry struct {
	UserID    string
	PickCount int
	LockedIn  bool
}

// SlateActivity reports per-user pick counts for a slate. Users who have
// picked every game sort first, then by pick count descending.
func (s *SlateService) SlateActivity(ctx context.Context, slateID string) ([]SlateActivityEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SlateService.SlateActivity")
	defer span.End()

	current, found, err := s.slateRepo.GetByID(ctx, slateID)
	if err != nil {
		return nil, fmt.Errorf("get slate: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: no slate found", ErrNotFound)
	}

	games, err := s.slateRepo.ListGames(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("list slate games: %w", err)
	}
	picks, err := s.pickRepo.ListBySlate(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("list slate picks: %w", err)
	}

	countByUser := make(map[string]int, len(picks))
	for _, p := range picks {
		countByUser[p.UserID]++
	}

	entries := make([]SlateActivityEntry, 0, len(countByUser))
	for userID, count := range countByUser {
		entries = append(entries, SlateActivityEntry{
			UserID:    userID,
			PickCount: count,
			LockedIn:  len(games) > 0 && count >= len(games),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].LockedIn != entries[j].LockedIn {
			return entries[i].LockedIn
		}
		if entries[i].PickCount != entries[j].PickCount {
			return entries[i].PickCount > entries[j].PickCount
		}
		return entries[i].UserID < entries[j].UserID
	})

	return entries, nil
}

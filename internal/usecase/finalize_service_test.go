package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pickstreak/pickstreak/internal/domain/pick"
	"github.com/pickstreak/pickstreak/internal/domain/scoring"
	"github.com/pickstreak/pickstreak/internal/domain/slate"
	"github.com/pickstreak/pickstreak/internal/infrastructure/repository/memory"
	"github.com/pickstreak/pickstreak/internal/platform/logging"
)

func boolPtr(v bool) *bool {
	return &v
}

func newFinalizeServiceForTest(slateRepo slate.Repository, pickRepo pick.Repository, scoreRepo scoring.Repository) *FinalizeService {
	svc := NewFinalizeService(slateRepo, pickRepo, scoreRepo, time.UTC, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func finalGame(id string) slate.Game {
	home := 2
	away := 1
	return slate.Game{
		ID:         id,
		Sport:      "nba",
		ExternalID: "ev-" + id,
		Status:     slate.GameStatusFinal,
		HomeScore:  &home,
		AwayScore:  &away,
		Winner:     slate.SideHome,
		CommenceAt: commenceAtHour(19),
	}
}

func TestFinalizeService_NoSlateFound(t *testing.T) {
	t.Parallel()

	svc := newFinalizeServiceForTest(memory.NewSlateRepository(), memory.NewPickRepository(), memory.NewScoringRepository())

	_, err := svc.FinalizeSlate(context.Background(), "", false)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.FinalizeSlate(context.Background(), "missing", false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFinalizeService_AlreadyFinalizedIsNoOp(t *testing.T) {
	t.Parallel()

	slateRepo := memory.NewSlateRepository()
	seedSlate(t, slateRepo, slate.StatusFinalized, finalGame("game-1"))
	svc := newFinalizeServiceForTest(slateRepo, memory.NewPickRepository(), memory.NewScoringRepository())

	result, err := svc.FinalizeSlate(context.Background(), "slate-1", false)
	require.NoError(t, err)
	require.Equal(t, "slate already finalized", result.Message)
	require.Empty(t, result.Results)
}

func TestFinalizeService_RejectsUnfinishedSlate(t *testing.T) {
	t.Parallel()

	slateRepo := memory.NewSlateRepository()
	liveGame := slate.Game{ID: "game-2", Sport: "nba", ExternalID: "ev-game-2", Status: slate.GameStatusLive, CommenceAt: commenceAtHour(21)}
	seedSlate(t, slateRepo, slate.StatusLocked, finalGame("game-1"), liveGame)
	svc := newFinalizeServiceForTest(slateRepo, memory.NewPickRepository(), memory.NewScoringRepository())

	_, err := svc.FinalizeSlate(context.Background(), "slate-1", false)
	require.ErrorIs(t, err, ErrConflict)
	require.Contains(t, err.Error(), "(1/2)")
}

func TestFinalizeService_ForceFinalizesUnfinishedSlate(t *testing.T) {
	t.Parallel()

	slateRepo := memory.NewSlateRepository()
	liveGame := slate.Game{ID: "game-2", Sport: "nba", ExternalID: "ev-game-2", Status: slate.GameStatusLive, CommenceAt: commenceAtHour(21)}
	seedSlate(t, slateRepo, slate.StatusLocked, finalGame("game-1"), liveGame)
	svc := newFinalizeServiceForTest(slateRepo, memory.NewPickRepository(), memory.NewScoringRepository())

	result, err := svc.FinalizeSlate(context.Background(), "slate-1", true)
	require.NoError(t, err)
	require.Equal(t, "slate finalized (no picks)", result.Message)

	current, found, err := slateRepo.GetByID(context.Background(), "slate-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, slate.StatusFinalized, current.Status)
}

func TestFinalizeService_ScoresUsersAndAdvancesStreaks(t *testing.T) {
	t.Parallel()

	slateRepo := memory.NewSlateRepository()
	pickRepo := memory.NewPickRepository()
	scoreRepo := memory.NewScoringRepository()
	seedSlate(t, slateRepo, slate.StatusLocked, finalGame("game-1"), finalGame("game-2"))

	// alice went perfect on the day, bob split.
	seedPicks := []pick.Pick{
		{ID: "p1", SlateID: "slate-1", GameID: "game-1", UserID: "alice", Picked: slate.SideHome, IsCorrect: boolPtr(true)},
		{ID: "p2", SlateID: "slate-1", GameID: "game-2", UserID: "alice", Picked: slate.SideHome, IsCorrect: boolPtr(true)},
		{ID: "p3", SlateID: "slate-1", GameID: "game-1", UserID: "bob", Picked: slate.SideHome, IsCorrect: boolPtr(true)},
		{ID: "p4", SlateID: "slate-1", GameID: "game-2", UserID: "bob", Picked: slate.SideAway, IsCorrect: boolPtr(false)},
	}
	for _, p := range seedPicks {
		require.NoError(t, pickRepo.Upsert(context.Background(), p))
	}

	// alice played yesterday so her streak continues; bob's lapsed.
	require.NoError(t, scoreRepo.UpsertStreak(context.Background(), scoring.Streak{
		UserID: "alice", CurrentStreak: 2, LongestStreak: 5, LastPlayedDate: "2026-03-13",
	}))
	require.NoError(t, scoreRepo.UpsertStreak(context.Background(), scoring.Streak{
		UserID: "bob", CurrentStreak: 4, LongestStreak: 4, LastPlayedDate: "2026-03-10",
	}))

	svc := newFinalizeServiceForTest(slateRepo, pickRepo, scoreRepo)

	result, err := svc.FinalizeSlate(context.Background(), "slate-1", false)
	require.NoError(t, err)
	require.Equal(t, "slate finalized! 2 users scored.", result.Message)
	require.Equal(t, []string{
		"alice: 2/2 = +65pts (streak: 3)",
		"bob: 1/2 = +25pts (streak: 1)",
	}, result.Results)

	aliceStreak, found, err := scoreRepo.GetStreak(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 3, aliceStreak.CurrentStreak)
	require.Equal(t, 5, aliceStreak.LongestStreak)
	require.Equal(t, testDate, aliceStreak.LastPlayedDate)

	bobStreak, found, err := scoreRepo.GetStreak(context.Background(), "bob")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, bobStreak.CurrentStreak)
	require.Equal(t, 4, bobStreak.LongestStreak)

	scores, err := scoreRepo.ListDailyScoresBySlate(context.Background(), "slate-1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	require.Equal(t, "alice", scores[0].UserID)
	require.Equal(t, 65, scores[0].TotalPoints)
	require.Equal(t, 25, scores[0].StreakBonus)
	require.Equal(t, "bob", scores[1].UserID)
	require.Equal(t, 25, scores[1].TotalPoints)

	current, found, err := slateRepo.GetByID(context.Background(), "slate-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, slate.StatusFinalized, current.Status)
}

func TestFinalizeService_NewStreakStartsAtOne(t *testing.T) {
	t.Parallel()

	slateRepo := memory.NewSlateRepository()
	pickRepo := memory.NewPickRepository()
	scoreRepo := memory.NewScoringRepository()
	seedSlate(t, slateRepo, slate.StatusLocked, finalGame("game-1"))
	require.NoError(t, pickRepo.Upsert(context.Background(), pick.Pick{
		ID: "p1", SlateID: "slate-1", GameID: "game-1", UserID: "dana", Picked: slate.SideHome, IsCorrect: boolPtr(true),
	}))

	svc := newFinalizeServiceForTest(slateRepo, pickRepo, scoreRepo)

	result, err := svc.FinalizeSlate(context.Background(), "slate-1", false)
	require.NoError(t, err)
	require.Equal(t, []string{"dana: 1/1 = +25pts (streak: 1)"}, result.Results)

	streak, found, err := scoreRepo.GetStreak(context.Background(), "dana")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, streak.CurrentStreak)
	require.Equal(t, 1, streak.LongestStreak)
}

func TestFinalizeService_EmptyIDPicksOldestUnfinalized(t *testing.T) {
	t.Parallel()

	slateRepo := memory.NewSlateRepository()
	require.NoError(t, slateRepo.Create(context.Background(),
		slate.Slate{ID: "slate-new", Date: "2026-03-14", Status: slate.StatusLocked},
		[]slate.Game{finalGame("game-new")},
	))
	require.NoError(t, slateRepo.Create(context.Background(),
		slate.Slate{ID: "slate-old", Date: "2026-03-13", Status: slate.StatusLocked},
		[]slate.Game{finalGame("game-old")},
	))

	svc := newFinalizeServiceForTest(slateRepo, memory.NewPickRepository(), memory.NewScoringRepository())

	result, err := svc.FinalizeSlate(context.Background(), "", false)
	require.NoError(t, err)
	require.Equal(t, "slate-old", result.SlateID)
}

// stolenFlipRepo makes every status flip lose: a competing finalizer
// lands the terminal status just before ours commits.
type stolenFlipRepo struct {
	*memory.SlateRepository
}

func (r *stolenFlipRepo) UpdateStatus(ctx context.Context, slateID, from, _ string) (bool, error) {
	_, err := r.SlateRepository.UpdateStatus(ctx, slateID, from, slate.StatusFinalized)
	if err != nil {
		return false, err
	}
	return false, nil
}

func TestFinalizeService_LosingStatusFlipReportsAlreadyFinalized(t *testing.T) {
	t.Parallel()

	inner := memory.NewSlateRepository()
	seedSlate(t, inner, slate.StatusLocked, finalGame("game-1"))
	svc := newFinalizeServiceForTest(&stolenFlipRepo{SlateRepository: inner}, memory.NewPickRepository(), memory.NewScoringRepository())

	result, err := svc.FinalizeSlate(context.Background(), "slate-1", false)
	require.NoError(t, err)
	require.Equal(t, "slate already finalized", result.Message)
}

func TestPreviousDate(t *testing.T) {
	t.Parallel()

	got, err := previousDate("2026-03-01", time.UTC)
	if err != nil {
		t.Fatalf("previous date: %v", err)
	}
	if got != "2026-02-28" {
		t.Fatalf("unexpected previous date: got=%s want=2026-02-28", got)
	}

	got, err = previousDate("2026-01-01", time.UTC)
	if err != nil {
		t.Fatalf("previous date: %v", err)
	}
	if got != "2025-12-31" {
		t.Fatalf("unexpected previous date: got=%s want=2025-12-31", got)
	}

	if _, err := previousDate("not-a-date", time.UTC); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestFormatResultLine(t *testing.T) {
	t.Parallel()

	got := formatResultLine("alice", 5, 7, 130, 4)
	want := "alice: 5/7 = +130pts (streak: 4)"
	if got != want {
		t.Fatalf("unexpected result line: got=%q want=%q", got, want)
	}
}

func TestFinalizeService_SlateWithNoGamesStillFinalizes(t *testing.T) {
	t.Parallel()

	slateRepo := memory.NewSlateRepository()
	seedSlate(t, slateRepo, slate.StatusOpen)
	svc := newFinalizeServiceForTest(slateRepo, memory.NewPickRepository(), memory.NewScoringRepository())

	result, err := svc.FinalizeSlate(context.Background(), "slate-1", false)
	require.NoError(t, err)
	require.Equal(t, "slate finalized (no picks)", result.Message)

	current, found, err := slateRepo.GetByID(context.Background(), "slate-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, slate.StatusFinalized, current.Status)
}

package usecase

const (
	baseParticipationPoints = 10
	pointsPerCorrectPick    = 15
	fiveCorrectBonus        = 20
	sixCorrectBonus         = 35
	perfectSlateBonus       = 100
	perfectSlateMinPicks    = 7
)

// PointsBreakdown mirrors the daily_scores columns so the finalizer can
// persist each component separately.
type PointsBreakdown struct {
	BasePoints        int
	PerformancePoints int
	PerfectBonus      int
	StreakBonus       int
	TotalPoints       int
}

// calculatePoints scores one user's day. The five and six correct
// bonuses stack but only on a full seven-game slate, the perfect bonus
// also requires a full slate, and only the highest streak tier pays out.
func calculatePoints(correct, total, currentStreak int) PointsBreakdown {
	if total <= 0 {
		return PointsBreakdown{}
	}

	breakdown := PointsBreakdown{
		BasePoints:        baseParticipationPoints,
		PerformancePoints: correct * pointsPerCorrectPick,
	}
	if total >= perfectSlateMinPicks {
		if correct >= 5 {
			breakdown.PerformancePoints += fiveCorrectBonus
		}
		if correct >= 6 {
			breakdown.PerformancePoints += sixCorrectBonus
		}
	}
	if correct == total && total >= perfectSlateMinPicks {
		breakdown.PerfectBonus = perfectSlateBonus
	}
	breakdown.StreakBonus = streakBonus(currentStreak)
	breakdown.TotalPoints = breakdown.BasePoints + breakdown.PerformancePoints + breakdown.PerfectBonus + breakdown.StreakBonus

	return breakdown
}

func streakBonus(currentStreak int) int {
	switch {
	case currentStreak >= 30:
		return 1000
	case currentStreak >= 14:
		return 250
	case currentStreak >= 7:
		return 100
	case currentStreak >= 3:
		return 25
	default:
		return 0
	}
}

package usecase

import "testing"

func TestCalculatePoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		correct int
		total   int
		streak  int
		want    PointsBreakdown
	}{
		{
			name: "no picks scores nothing",
			want: PointsBreakdown{},
		},
		{
			name:    "three of seven",
			correct: 3, total: 7, streak: 1,
			want: PointsBreakdown{
				BasePoints:        10,
				PerformancePoints: 45,
				TotalPoints:       55,
			},
		},
		{
			name:    "five correct earns the five bonus",
			correct: 5, total: 7, streak: 1,
			want: PointsBreakdown{
				BasePoints:        10,
				PerformancePoints: 95,
				TotalPoints:       105,
			},
		},
		{
			name:    "six correct stacks both bonuses",
			correct: 6, total: 7, streak: 1,
			want: PointsBreakdown{
				BasePoints:        10,
				PerformancePoints: 145,
				TotalPoints:       155,
			},
		},
		{
			name:    "perfect seven with week-long streak",
			correct: 7, total: 7, streak: 7,
			want: PointsBreakdown{
				BasePoints:        10,
				PerformancePoints: 160,
				PerfectBonus:      100,
				StreakBonus:       100,
				TotalPoints:       370,
			},
		},
		{
			name:    "short board pays no threshold or perfect bonuses",
			correct: 5, total: 5, streak: 1,
			want: PointsBreakdown{
				BasePoints:        10,
				PerformancePoints: 75,
				TotalPoints:       85,
			},
		},
		{
			name:    "six of six on a short board stays plain",
			correct: 6, total: 6, streak: 1,
			want: PointsBreakdown{
				BasePoints:        10,
				PerformancePoints: 90,
				TotalPoints:       100,
			},
		},
		{
			name:    "streak bonus applies even on a bad day",
			correct: 0, total: 7, streak: 3,
			want: PointsBreakdown{
				BasePoints:  10,
				StreakBonus: 25,
				TotalPoints: 35,
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := calculatePoints(tc.correct, tc.total, tc.streak)
			if got != tc.want {
				t.Fatalf("unexpected breakdown:\nwant: %+v\ngot:  %+v", tc.want, got)
			}
		})
	}
}

func TestStreakBonus_TierBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		streak int
		want   int
	}{
		{streak: 0, want: 0},
		{streak: 2, want: 0},
		{streak: 3, want: 25},
		{streak: 6, want: 25},
		{streak: 7, want: 100},
		{streak: 13, want: 100},
		{streak: 14, want: 250},
		{streak: 29, want: 250},
		{streak: 30, want: 1000},
		{streak: 90, want: 1000},
	}

	for _, tc := range tests {
		if got := streakBonus(tc.streak); got != tc.want {
			t.Fatalf("streakBonus(%d): got=%d want=%d", tc.streak, got, tc.want)
		}
	}
}

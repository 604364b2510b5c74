package engine

import "testing"

func TestRecomputeEstimate(t *testing.T) {
	cases := []struct {
		name          string
		estimated     int
		percent       float64
		wantElapsed   int
		wantRemaining int
	}{
		{"zero progress", 200, 0, 0, 200},
		{"forty percent", 200, 40, 80, 120},
		{"rounds to nearest minute", 90, 33, 30, 60},
		{"complete", 90, 100, 90, 0},
		{"no estimate", 0, 50, 0, 0},
		{"small estimate", 1, 49, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecomputeEstimate(tc.estimated, tc.percent)
			if got.EstimatedMinutes != tc.estimated {
				t.Errorf("estimated = %d, want %d", got.EstimatedMinutes, tc.estimated)
			}
			if got.ElapsedMinutes != tc.wantElapsed {
				t.Errorf("elapsed = %d, want %d", got.ElapsedMinutes, tc.wantElapsed)
			}
			if got.RemainingMinutes != tc.wantRemaining {
				t.Errorf("remaining = %d, want %d", got.RemainingMinutes, tc.wantRemaining)
			}
		})
	}
}

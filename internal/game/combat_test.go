package game

import (
	"math"
	"testing"
)

func TestWinProbabilityBounds(t *testing.T) {
	lengths := []int{-500, -10, 0, 1, 10, 500}
	hardness := []int{0, 1, 50, 100}
	for _, la := range lengths {
		for _, lb := range lengths {
			for _, ha := range hardness {
				for _, hb := range hardness {
					p := winProbability(la, lb, ha, hb, lossStreakBonus, primeDuelBonus)
					if p < winProbFloor || p > winProbCeil {
						t.Fatalf("p=%f out of bounds for len %d/%d hard %d/%d", p, la, lb, ha, hb)
					}
				}
			}
		}
	}
}

func TestWinProbabilitySignCases(t *testing.T) {
	// Both positive: proportional advantage for the longer side.
	p := winProbability(50, 10, 1, 1, 0, 0)
	want := 0.5 + (40.0/50.0)*lengthFactorScale
	if math.Abs(p-want) > 1e-9 {
		t.Fatalf("both-positive p=%f want %f", p, want)
	}

	// Negative versus positive: fixed heavy underdog penalty.
	p = winProbability(-5, 10, 1, 1, 0, 0)
	if math.Abs(p-(0.5-lengthFactorScale)) > 1e-9 {
		t.Fatalf("negative-vs-positive p=%f want %f", p, 0.5-lengthFactorScale)
	}
	p = winProbability(10, -5, 1, 1, 0, 0)
	if math.Abs(p-(0.5+lengthFactorScale)) > 1e-9 {
		t.Fatalf("positive-vs-negative p=%f want %f", p, 0.5+lengthFactorScale)
	}

	// Both non-positive: proportional in absolute terms.
	p = winProbability(-5, -10, 1, 1, 0, 0)
	want = 0.5 + (5.0/10.0)*lengthFactorScale
	if math.Abs(p-want) > 1e-9 {
		t.Fatalf("both-negative p=%f want %f", p, want)
	}
}

func TestWinProbabilityHardnessAndClamp(t *testing.T) {
	p := winProbability(50, 10, 2, 1, 0, 0)
	want := 0.5 + (40.0/50.0)*lengthFactorScale + 1*hardnessFactorScale
	if math.Abs(p-want) > 1e-9 {
		t.Fatalf("p=%f want %f", p, want)
	}

	// Stacked advantages hit the ceiling, never exceed it.
	if p := winProbability(50, 10, 5, 1, winStreakBonus, primeDuelBonus); p != winProbCeil {
		t.Fatalf("stacked p=%f want ceiling %f", p, winProbCeil)
	}
	if p := winProbability(10, 50, 1, 5, 0, 0); p != winProbFloor {
		t.Fatalf("stacked underdog p=%f want floor %f", p, winProbFloor)
	}
}

func TestStreakBonusFor(t *testing.T) {
	tests := []struct {
		win, loss int
		want      float64
	}{
		{0, 0, 0},
		{2, 0, 0},
		{3, 0, winStreakBonus},
		{0, 3, lossStreakBonus},
		{5, 5, lossStreakBonus}, // loss streak takes precedence
	}
	for _, tc := range tests {
		p := &PlayerRecord{WinStreak: tc.win, LossStreak: tc.loss}
		if got := streakBonusFor(p); got != tc.want {
			t.Fatalf("win=%d loss=%d got %f want %f", tc.win, tc.loss, got, tc.want)
		}
	}
}

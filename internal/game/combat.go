package game

const (
	winProbFloor = 0.15
	winProbCeil  = 0.85

	lengthFactorScale   = 0.2
	hardnessFactorScale = 0.08

	winStreakBonus  = 0.05
	lossStreakBonus = 0.10
	streakThreshold = 3
)

// winProbability computes the chance that A beats B. The length factor
// branches on the sign of each side so a negative-length player is
// always a heavy underdog against a positive one, and two negative
// players compare proportionally in absolute terms. The result never
// leaves [0.15, 0.85]: no matchup is deterministic.
func winProbability(lenA, lenB, hardA, hardB int, streakBonus, subBonus float64) float64 {
	var lengthFactor float64
	switch {
	case lenA > 0 && lenB > 0:
		lengthFactor = float64(lenA-lenB) / float64(maxInt(lenA, lenB, 1)) * lengthFactorScale
	case lenA <= 0 && lenB > 0:
		lengthFactor = -lengthFactorScale
	case lenA > 0 && lenB <= 0:
		lengthFactor = lengthFactorScale
	default:
		lengthFactor = float64(lenA-lenB) / float64(maxInt(absInt(lenA), absInt(lenB), 1)) * lengthFactorScale
	}

	hardnessFactor := float64(hardA-hardB) * hardnessFactorScale

	p := 0.5 + lengthFactor + hardnessFactor + streakBonus + subBonus
	if p < winProbFloor {
		return winProbFloor
	}
	if p > winProbCeil {
		return winProbCeil
	}
	return p
}

// streakBonusFor rewards hot streaks mildly and cold streaks strongly,
// so repeat losers climb back faster.
func streakBonusFor(p *PlayerRecord) float64 {
	if p.LossStreak >= streakThreshold {
		return lossStreakBonus
	}
	if p.WinStreak >= streakThreshold {
		return winStreakBonus
	}
	return 0
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

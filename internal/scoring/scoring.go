// Package scoring computes points for answers. It is pure and holds no state.
package scoring

const (
	basePoints   = 100
	maxTimeBonus = 50
)

// ComputePoints maps an answer outcome to points.
//
// Incorrect answers score 0. Correct answers score 100 plus a speed bonus of
// up to 50: the faster the answer relative to the question's time limit, the
// larger the bonus. timeTakenSeconds is clamped to [0, timeLimitSeconds]
// before the ratio is taken, so late or garbage client timings cannot push
// the result outside [100, 150].
func ComputePoints(isCorrect bool, timeTakenSeconds float64, timeLimitSeconds int) int {
	if !isCorrect {
		return 0
	}
	if timeLimitSeconds <= 0 {
		return basePoints
	}

	if timeTakenSeconds < 0 {
		timeTakenSeconds = 0
	}
	limit := float64(timeLimitSeconds)
	if timeTakenSeconds > limit {
		timeTakenSeconds = limit
	}

	ratio := timeTakenSeconds / limit
	bonus := int((1 - ratio) * maxTimeBonus)
	if bonus < 0 {
		bonus = 0
	}
	return basePoints + bonus
}

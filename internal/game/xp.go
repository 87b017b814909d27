package game

// Difficulty levels accepted on session submission.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// XP awarded per correct answer at each difficulty.
var xpPerCorrect = map[string]int{
	DifficultyEasy:   10,
	DifficultyMedium: 15,
	DifficultyHard:   20,
}

// SessionXP values a finished session before the daily cap is applied.
// Unknown difficulties earn at the easy rate.
func SessionXP(difficulty string, correctCount int) int {
	if correctCount <= 0 {
		return 0
	}
	rate, ok := xpPerCorrect[difficulty]
	if !ok {
		rate = xpPerCorrect[DifficultyEasy]
	}
	return rate * correctCount
}

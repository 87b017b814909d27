package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerCheckerExactMatch(t *testing.T) {
	checker := NewAnswerChecker([]string{"Paris", "Lyon", "Marseille"})

	canonical, ok := checker.Match("Paris")
	assert.True(t, ok)
	assert.Equal(t, "Paris", canonical)
}

func TestAnswerCheckerNormalizesCaseAndSpace(t *testing.T) {
	checker := NewAnswerChecker([]string{"Buenos Aires"})

	canonical, ok := checker.Match("  buenos   AIRES ")
	assert.True(t, ok)
	assert.Equal(t, "Buenos Aires", canonical)
}

func TestAnswerCheckerToleratesTypos(t *testing.T) {
	checker := NewAnswerChecker([]string{"Reykjavik", "Copenhagen", "Stockholm"})

	canonical, ok := checker.Match("reykjavic")
	assert.True(t, ok)
	assert.Equal(t, "Reykjavik", canonical)

	canonical, ok = checker.Match("copenhagan")
	assert.True(t, ok)
	assert.Equal(t, "Copenhagen", canonical)
}

func TestAnswerCheckerRejectsWrongAnswer(t *testing.T) {
	checker := NewAnswerChecker([]string{"Paris"})

	_, ok := checker.Match("London")
	assert.False(t, ok)
}

func TestAnswerCheckerRejectsEmptyInput(t *testing.T) {
	checker := NewAnswerChecker([]string{"Paris"})

	_, ok := checker.Match("   ")
	assert.False(t, ok)
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"paris", "paris", 0},
		{"paris", "pariss", 1},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, editDistance(tt.a, tt.b), "editDistance(%q, %q)", tt.a, tt.b)
	}
}

func TestSessionXPByDifficulty(t *testing.T) {
	assert.Equal(t, 100, SessionXP(DifficultyEasy, 10))
	assert.Equal(t, 150, SessionXP(DifficultyMedium, 10))
	assert.Equal(t, 200, SessionXP(DifficultyHard, 10))
	assert.Equal(t, 0, SessionXP(DifficultyHard, 0))
	assert.Equal(t, 50, SessionXP("unknown", 5)) // falls back to easy rate
}

func TestValidType(t *testing.T) {
	for _, gt := range Types {
		assert.True(t, ValidType(gt))
	}
	assert.False(t, ValidType("bowling"))
	assert.False(t, ValidType(""))
}

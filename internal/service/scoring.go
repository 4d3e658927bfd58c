package service

import (
	"strings"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// Solved reports whether a submission fully passed its test set. A zero test
// total never counts as solved.
func Solved(passedTests, totalTests int) bool {
	return totalTests > 0 && passedTests == totalTests
}

// Score maps a judged submission to points. Scoring is deliberately binary:
// a fully accepted submission earns the difficulty weight, anything else
// earns zero. Unrecognized difficulties score as easy.
func Score(passedTests, totalTests int, difficulty string) int {
	if !Solved(passedTests, totalTests) {
		return 0
	}

	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case models.DifficultyHard:
		return 6
	case models.DifficultyMedium:
		return 4
	default:
		return 3
	}
}

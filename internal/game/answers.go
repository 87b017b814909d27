package game

import (
	"strings"

	"github.com/schollz/closestmatch"
)

// AnswerChecker validates free-typed answers (capital names, country names)
// against a set of accepted spellings, tolerating small typos.
type AnswerChecker struct {
	cm       *closestmatch.ClosestMatch
	accepted map[string]string // normalized -> canonical
}

// NewAnswerChecker builds a checker over the accepted answers for one fact.
func NewAnswerChecker(accepted []string) *AnswerChecker {
	normalized := make([]string, 0, len(accepted))
	lookup := make(map[string]string, len(accepted))
	for _, a := range accepted {
		n := normalizeAnswer(a)
		normalized = append(normalized, n)
		lookup[n] = a
	}

	return &AnswerChecker{
		cm:       closestmatch.New(normalized, []int{2, 3}),
		accepted: lookup,
	}
}

// Match returns the canonical accepted answer the typed input corresponds
// to, or false when the input is too far from every accepted spelling.
func (c *AnswerChecker) Match(typed string) (string, bool) {
	n := normalizeAnswer(typed)
	if n == "" {
		return "", false
	}

	if canonical, ok := c.accepted[n]; ok {
		return canonical, true
	}

	closest := c.cm.Closest(n)
	if closest == "" {
		return "", false
	}

	// A bag-of-letters hit can still be a different word entirely, so gate
	// on edit distance relative to the answer's length.
	if editDistance(n, closest) > maxTypos(closest) {
		return "", false
	}

	return c.accepted[closest], true
}

func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func maxTypos(answer string) int {
	switch {
	case len(answer) <= 4:
		return 1
	case len(answer) <= 8:
		return 2
	default:
		return 3
	}
}

func editDistance(a, b string) int {
	if a == b {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

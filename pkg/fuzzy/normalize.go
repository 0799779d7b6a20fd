// Package fuzzy scores how close two resource keys are, for "did you mean"
// suggestions on failed lookups.
package fuzzy

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	separatorRegex  = regexp.MustCompile(`[._\-/:]+`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	camelRegex      = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeKey folds a key so that "welcomeMessage", "welcome_message" and
// "Welcome.Message" compare equal.
func (n *Normalizer) NormalizeKey(key string) string {
	key = camelRegex.ReplaceAllString(key, "$1 $2")
	key = separatorRegex.ReplaceAllString(key, " ")
	return n.basicNormalize(key)
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

func (n *Normalizer) CalculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	return float64(n.longestCommonSubsequence(s1, s2)) / float64(max(len(s1), len(s2)))
}

func (norm *Normalizer) longestCommonSubsequence(s1, s2 string) int {
	m, n := len(s1), len(s2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}

// Match is a candidate key with its similarity score.
type Match struct {
	Key   string
	Score float64
}

// Closest returns up to limit candidates whose normalized similarity to query
// is at least threshold, best first. Ties keep candidate order.
func (n *Normalizer) Closest(query string, candidates []string, threshold float64, limit int) []Match {
	if limit <= 0 {
		return nil
	}

	q := n.NormalizeKey(query)
	var matches []Match
	for _, candidate := range candidates {
		if candidate == query {
			continue
		}
		score := n.CalculateSimilarity(q, n.NormalizeKey(candidate))
		if score >= threshold {
			matches = append(matches, Match{Key: candidate, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

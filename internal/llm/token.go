package llm

import (
	"strings"
	"unicode"
)

// EstimateTokens gives a rough token count. Han characters count one
// token each; other text counts about 1.33 tokens per word.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	han := 0
	var rest strings.Builder
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			han++
			rest.WriteByte(' ')
			continue
		}
		rest.WriteRune(r)
	}
	words := len(strings.Fields(rest.String()))
	tokens := han + int(float64(words)*1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TruncateTokens cuts text to the longest rune prefix within budget.
func TruncateTokens(text string, budget int) string {
	if budget <= 0 || EstimateTokens(text) <= budget {
		return text
	}
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if EstimateTokens(string(runes[:mid])) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}

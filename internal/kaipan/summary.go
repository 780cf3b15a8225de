package kaipan

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// NotFound is the sentence used when no opening information exists.
const NotFound = "未找到开盘信息。"

var (
	sentenceSplitRe = regexp.MustCompile(`[。；;\n]+`)
	terminalSplitRe = regexp.MustCompile(`[。！？!?]+`)
	terminalEndRe   = regexp.MustCompile(`[。！？!?]$`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

var openingKeywords = []string{
	"开盘", "首开", "开盘时间", "开盘价", "加推",
	"批次", "首推", "开盘均价", "认筹", "开盘现场",
}

// HeuristicSummary picks the first sentence mentioning an opening. It is
// used when no LLM is configured or the call fails.
func HeuristicSummary(text string) string {
	if text == "" {
		return NotFound
	}
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		for _, k := range openingKeywords {
			if strings.Contains(s, k) {
				return capRunes(s, 200)
			}
		}
	}
	plain := strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if plain == "" {
		return NotFound
	}
	return capRunes(plain, 120)
}

// EnsureOneSentence reduces s to its first sentence ending in terminal
// punctuation.
func EnsureOneSentence(s string) string {
	if s == "" {
		return NotFound
	}
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(strings.TrimSpace(s))
	first := s
	if parts := terminalSplitRe.Split(s, -1); len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		first = parts[0]
	}
	first = capRunes(strings.TrimSpace(first), 200)
	if first == "" {
		return NotFound
	}
	if !terminalEndRe.MatchString(first) {
		first += "。"
	}
	return first
}

func capRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// Package cric parses housing and land pages exported from CRIC (China
// Real Estate Information Corporation) into structured JSON.
package cric

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gemdale/reportkit/internal/parser"
)

var dateRe = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}`)

// baseIndicators mark a short line as a key rather than a value.
var baseIndicators = []string{":", "：", "数", "率", "比", "费", "址", "期", "色", "型"}

// ReadLines loads a CRIC export and trims every line. Text files fall
// back to GB18030 when not UTF-8; HTML pages are flattened to text lines.
func ReadLines(path string) ([]string, error) {
	var doc *parser.Document
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		doc, err = parser.ReadFile(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		doc, err = (&parser.TextParser{}).Parse(f, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return TrimLines(doc.Lines), nil
}

// TrimLines returns a copy of lines with surrounding whitespace removed.
func TrimLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

// ExtractSection returns the lines after the first line containing start.
// With an end label the section stops before the next line containing it;
// otherwise it stops at the nearest other label from labels, or EOF.
func ExtractSection(lines []string, start, end string, labels []string) []string {
	startIdx := -1
	for i, l := range lines {
		if strings.Contains(l, start) {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil
	}

	if end != "" {
		for i := startIdx + 1; i < len(lines); i++ {
			if strings.Contains(lines[i], end) {
				return lines[startIdx+1 : i]
			}
		}
		return lines[startIdx+1:]
	}

	endIdx := len(lines)
	for _, label := range labels {
		if label == start {
			continue
		}
		for i := startIdx + 1; i < endIdx; i++ {
			if strings.Contains(lines[i], label) {
				endIdx = i
				break
			}
		}
	}
	return lines[startIdx+1 : endIdx]
}

// ParseKeyValuePairs reads "key: value" lines and "key" lines followed by
// value lines. Empty values and "-" are dropped.
func ParseKeyValuePairs(lines, labels, indicators []string) *Fields {
	raw := NewFields()
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || line == "更多" {
			i++
			continue
		}
		if endsWithColon(line) && containsAny(line, labels) {
			i++
			continue
		}

		if pos := colonIndex(line); pos >= 0 {
			key := strings.TrimSpace(line[:pos])
			_, size := utf8.DecodeRuneInString(line[pos:])
			value := strings.TrimSpace(line[pos+size:])
			if key != "" && value != "" {
				raw.Set(key, value)
				i++
				continue
			}
		}

		key := line
		i++
		var parts []string
		for i < len(lines) {
			next := strings.TrimSpace(lines[i])
			if next == "" {
				i++
				continue
			}
			if endsWithColon(next) || (!strings.ContainsAny(next, ":：") && looksLikeKey(next, indicators)) {
				break
			}
			parts = append(parts, next)
			i++
		}
		raw.Set(key, strings.Join(parts, " "))
	}

	cleaned := NewFields()
	for _, k := range raw.Keys() {
		v := strings.TrimSpace(raw.String(k))
		if v == "" || v == "-" {
			continue
		}
		cleaned.Set(k, v)
	}
	return cleaned
}

// ParseKeyedFields extracts the listed keys. A line equal to a key takes
// the next non-empty line that is not itself a key; keys still missing
// are searched for as "key\nvalue" or "key: value" in the joined text.
func ParseKeyedFields(lines, keys []string) *Fields {
	out := NewFields()
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || !isKey[line] {
			i++
			continue
		}
		i++
		for i < len(lines) {
			v := strings.TrimSpace(lines[i])
			i++
			if v != "" && !isKey[v] {
				out.Set(line, v)
				break
			}
		}
	}

	text := strings.Join(lines, "\n")
	for _, k := range keys {
		if strings.TrimSpace(out.String(k)) != "" {
			continue
		}
		nextLine := regexp.MustCompile(regexp.QuoteMeta(k) + `\n\s*([^\n]+?)[ \t]*(?:\n|$)`)
		if m := nextLine.FindStringSubmatch(text); m != nil {
			v := strings.TrimSpace(m[1])
			if v != "" && !containsAny(v, keys) {
				out.Set(k, v)
			}
			continue
		}
		sameLine := regexp.MustCompile(regexp.QuoteMeta(k) + `[:：]\s*([^\n]+?)[ \t]*(?:\n|$)`)
		if m := sameLine.FindStringSubmatch(text); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				out.Set(k, v)
			}
		}
	}
	return out
}

// WriteJSON writes v as indented JSON without HTML escaping.
func WriteJSON(v any, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func looksLikeKey(line string, indicators []string) bool {
	if utf8.RuneCountInString(line) > 15 {
		return false
	}
	return containsAny(line, indicators)
}

func endsWithColon(s string) bool {
	return strings.HasSuffix(s, ":") || strings.HasSuffix(s, "：")
}

// colonIndex prefers an ASCII colon and falls back to a full-width one.
func colonIndex(s string) int {
	if i := strings.Index(s, ":"); i >= 0 {
		return i
	}
	return strings.Index(s, "：")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

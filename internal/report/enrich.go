package report

import "strings"

var takeawayKeywords = []string{"优势", "特点", "重点", "核心", "关键", "主要", "建议"}

var placeholderTakeaways = []string{
	"本节关键要点待补充",
	"请参考详细内容了解相关信息",
	"更多细节请查看完整报告",
}

const (
	maxTakeaways    = 5
	takeawayMaxRune = 100
)

// KeyTakeaways picks the text blocks that mention a keyword, truncated to
// 100 runes. Placeholders are returned when nothing matches.
func KeyTakeaways(s *Section) []string {
	var out []string
	for _, b := range s.Blocks {
		if b.Type != BlockText {
			continue
		}
		for _, kw := range takeawayKeywords {
			if strings.Contains(b.Content, kw) {
				out = append(out, truncateRunes(b.Content, takeawayMaxRune, "..."))
				break
			}
		}
	}
	if len(out) == 0 {
		out = append([]string(nil), placeholderTakeaways...)
	}
	if len(out) > maxTakeaways {
		out = out[:maxTakeaways]
	}
	return out
}

// KPIs returns one indicator card per table in part1 and part6.
func KPIs(p *Part) []KPI {
	if p.PartID != "part1" && p.PartID != "part6" {
		return nil
	}
	var kpis []KPI
	for _, s := range p.Sections {
		for _, b := range s.Blocks {
			if b.Type == BlockTable {
				kpis = append(kpis, KPI{Label: "关键指标", Value: "详见表格", Source: s.Title})
			}
		}
	}
	return kpis
}

// Enrich fills takeaways for every section and copies each part's KPIs
// onto all of its sections.
func Enrich(r *Report) {
	for _, p := range r.Parts {
		for _, s := range p.Sections {
			s.KeyTakeaways = KeyTakeaways(s)
		}
		if kpis := KPIs(p); len(kpis) > 0 {
			for _, s := range p.Sections {
				s.KPIs = append([]KPI(nil), kpis...)
			}
		}
	}
}

func truncateRunes(s string, n int, suffix string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}

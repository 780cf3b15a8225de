package slides

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gemdale/reportkit/internal/pptx"
)

// ErrNoRegions is returned when the customer analysis has no 地域来源
// shares.
var ErrNoRegions = errors.New("slides: no 地域来源 shares found")

// RegionHeading marks the buyer-origin block of the customer analysis.
const RegionHeading = "地域来源"

// Share is one buyer origin and its percentage.
type Share struct {
	Label   string
	Percent float64
}

var (
	shareSep     = regexp.MustCompile(`[，,、；;。]`)
	sharePattern = regexp.MustCompile(`^(.+?)[约占比：:\s]*(\d+(?:\.\d+)?)\s*[%％]`)
	sectionStart = regexp.MustCompile(`^\s*(\d+[.、．]|[一二三四五六七八九十]+、|#+\s)`)
)

// ParseRegionShares reads the percentages listed under the 地域来源
// heading, such as "本地改善35%，5号线沿线40%，外省投资客5%。". The
// shares may sit on the heading line or on the lines below it, up to the
// next numbered block.
func ParseRegionShares(text string) []Share {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, RegionHeading) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var shares []Share
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if i == start {
			_, line, _ = strings.Cut(line, RegionHeading)
		} else if sectionStart.MatchString(line) {
			break
		}
		for _, seg := range shareSep.Split(line, -1) {
			seg = strings.Trim(strings.TrimSpace(seg), "：:*-")
			m := sharePattern.FindStringSubmatch(seg)
			if m == nil {
				continue
			}
			pct, err := strconv.ParseFloat(m[2], 64)
			if err != nil || pct <= 0 {
				continue
			}
			shares = append(shares, Share{Label: strings.TrimSpace(m[1]), Percent: pct})
		}
	}
	return shares
}

// RegionPieRect is the page 5 frame of the region chart: 45% of the
// slide width against a 0.4in right margin, from 1in down.
func RegionPieRect(slideWidth, slideHeight float64) pptx.Rect {
	width := slideWidth * 0.45
	left := max(slideWidth-width-0.4, 0.2)
	height := min(width*0.75, slideHeight-1.0-0.6)
	return pptx.InchRect(left, 1.0, width, height)
}

// AddRegionPie draws the buyer origins as a pie chart on the right of
// page 5.
func AddRegionPie(deck *pptx.Presentation, shares []Share) error {
	if len(shares) == 0 {
		return ErrNoRegions
	}
	pie := pptx.Pie{Title: "客户地域来源"}
	for _, sh := range shares {
		pie.Categories = append(pie.Categories, sh.Label)
		pie.Values = append(pie.Values, sh.Percent)
	}
	s := ensureSlide(deck, 5)
	w, h := deck.SlideSize()
	return s.AddPieChart(RegionPieRect(pptx.ToInches(w), pptx.ToInches(h)), pie)
}

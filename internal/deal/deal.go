// Package deal analyses the closed-deal export (成交明细): monthly deal
// counts and average prices per room type or property type.
package deal

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Header names the nine columns of a deal row once the optional presale
// permit column is removed.
var Header = []string{"成交日期", "项目", "楼栋", "房间", "物业类型", "户型", "面积", "单价", "成交总价"}

// Classifications accepted by Analyze.
const (
	ByRoomType     = "户型"
	ByPropertyType = "物业类型"
)

// MinDeals is the smallest category kept in the result.
const MinDeals = 20

// Other labels deals with no category value.
const Other = "其他"

var (
	ErrNoDeals               = errors.New("deal: no valid deals")
	ErrNonPositiveArea       = errors.New("deal: area must be positive")
	ErrUnknownClassification = errors.New("deal: classification must be 户型 or 物业类型")
)

// Deal is one closed sale.
type Deal struct {
	Date         time.Time
	Project      string
	Building     string
	Room         string
	PropertyType string
	RoomType     string
	Area         float64
	UnitPrice    string
	Total        float64
}

// Month returns the YYYY-MM bucket of the deal.
func (d Deal) Month() string {
	return d.Date.Format("2006-01")
}

var (
	datePattern = regexp.MustCompile(`\b(\d{4}/\d{2}/\d{2})\b`)
	dateNoise   = regexp.MustCompile(`_x000D_|[\[\]"\n\r_\s]`)
)

// ParseDate reads a YYYY/MM/DD date out of a cell that may carry
// brackets, quotes or stray line breaks.
func ParseDate(cell string) (time.Time, bool) {
	s := cell
	if m := datePattern.FindStringSubmatch(cell); m != nil {
		s = m[1]
	} else {
		s = dateNoise.ReplaceAllString(s, "")
	}
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006/01/02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Rows converts headerless sheet rows into deals. When no row carries
// the project name in its second column that column is a presale permit
// number and is dropped. Rows with an unreadable date, area or total are
// skipped; a non-positive area fails the whole table.
func Rows(rows [][]string, project string) ([]Deal, error) {
	dropPermit := !secondColumnNames(rows, project)
	var deals []Deal
	for _, r := range rows {
		if dropPermit && len(r) > 1 {
			r = append(append([]string{}, r[:1]...), r[2:]...)
		}
		if len(r) < len(Header) {
			r = append(r, make([]string, len(Header)-len(r))...)
		}
		date, ok := ParseDate(r[0])
		if !ok {
			continue
		}
		area, ok := parseNumber(r[6])
		if !ok {
			continue
		}
		total, ok := parseNumber(r[8])
		if !ok {
			continue
		}
		if area <= 0 {
			return nil, fmt.Errorf("%w: %s %s", ErrNonPositiveArea, strings.TrimSpace(r[2]), strings.TrimSpace(r[3]))
		}
		deals = append(deals, Deal{
			Date:         date,
			Project:      strings.TrimSpace(r[1]),
			Building:     strings.TrimSpace(r[2]),
			Room:         strings.TrimSpace(r[3]),
			PropertyType: strings.TrimSpace(r[4]),
			RoomType:     strings.TrimSpace(r[5]),
			Area:         area,
			UnitPrice:    strings.TrimSpace(r[7]),
			Total:        total,
		})
	}
	return deals, nil
}

func secondColumnNames(rows [][]string, project string) bool {
	needle := strings.ToLower(strings.TrimSpace(project))
	if needle == "" {
		return true
	}
	for _, r := range rows {
		if len(r) > 1 && strings.Contains(strings.ToLower(r[1]), needle) {
			return true
		}
	}
	return false
}

// Load reads the first sheet of a headerless deal workbook.
func Load(path, project string) ([]Deal, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Rows(rows, project)
}

// Cell is one month of one category.
type Cell struct {
	Count int
	// AvgPrice is total price over total area, in yuan per square metre,
	// rounded to two decimals.
	AvgPrice float64
}

// Result is the monthly breakdown. Months ascend; categories are ordered
// by deal count, ties by first appearance.
type Result struct {
	Classification string
	Categories     []string
	Months         []string
	Cells          map[string]map[string]Cell
}

// Analyze buckets deals by month and category, keeping categories with
// at least minDeals deals.
func Analyze(deals []Deal, classification string, minDeals int) (*Result, error) {
	var label func(Deal) string
	switch classification {
	case ByRoomType:
		label = func(d Deal) string { return d.RoomType }
	case ByPropertyType:
		label = func(d Deal) string { return d.PropertyType }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassification, classification)
	}
	category := func(d Deal) string {
		if l := label(d); l != "" {
			return l
		}
		return Other
	}

	counts := map[string]int{}
	var order []string
	for _, d := range deals {
		c := category(d)
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	var cats []string
	for _, c := range order {
		if counts[c] >= minDeals {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		return nil, ErrNoDeals
	}
	keep := make(map[string]bool, len(cats))
	for _, c := range cats {
		keep[c] = true
	}

	type sums struct {
		n            int
		area, amount float64
	}
	acc := map[string]map[string]*sums{}
	for _, d := range deals {
		c := category(d)
		if !keep[c] {
			continue
		}
		m := d.Month()
		if acc[m] == nil {
			acc[m] = map[string]*sums{}
		}
		s := acc[m][c]
		if s == nil {
			s = &sums{}
			acc[m][c] = s
		}
		s.n++
		s.area += d.Area
		s.amount += d.Total
	}

	res := &Result{Classification: classification, Categories: cats, Cells: map[string]map[string]Cell{}}
	for m, byCat := range acc {
		res.Months = append(res.Months, m)
		res.Cells[m] = map[string]Cell{}
		for c, s := range byCat {
			var avg float64
			if s.area > 0 {
				avg = math.Round(s.amount/s.area*100) / 100
			}
			res.Cells[m][c] = Cell{Count: s.n, AvgPrice: avg}
		}
	}
	sort.Strings(res.Months)
	return res, nil
}

// PriceColumn names the average price column of a category.
func PriceColumn(category string) string {
	return category + "_成交均价 (元/m²)"
}

// Columns returns the result header: 时间, then count and average price
// per category.
func (r *Result) Columns() []string {
	cols := []string{"时间"}
	for _, c := range r.Categories {
		cols = append(cols, c, PriceColumn(c))
	}
	return cols
}

// Get returns the cell for month and category; absent cells are zero.
func (r *Result) Get(month, category string) Cell {
	return r.Cells[month][category]
}

// FullMonths returns every month from the first to the last result
// month, including months without deals.
func (r *Result) FullMonths() []string {
	if len(r.Months) == 0 {
		return nil
	}
	first, err := time.Parse("2006-01", r.Months[0])
	if err != nil {
		return r.Months
	}
	last, err := time.Parse("2006-01", r.Months[len(r.Months)-1])
	if err != nil {
		return r.Months
	}
	var out []string
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, m.Format("2006-01"))
	}
	return out
}

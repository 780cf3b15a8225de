// Package supply analyses the supply detail workbook (供应明细底表) by
// property type, room type and area band.
package supply

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gemdale/reportkit/internal/parser"
)

// Unit is one row of the supply workbook.
type Unit struct {
	SupplyDate   string  `json:"供应时间"`
	PermitNo     string  `json:"预售证编号"`
	Project      string  `json:"项目名称"`
	Address      string  `json:"项目地址"`
	Room         string  `json:"房间号"`
	PropertyType string  `json:"物业类型"`
	RoomType     string  `json:"户型"`
	Area         float64 `json:"面积"`
	Band         string  `json:"面积段"`
}

// Bands are the area bands in ascending order.
var Bands = []string{"90㎡以下", "90-105㎡", "105-120㎡", "120-140㎡", "140㎡以上"}

// AreaBand returns the band of a rounded area.
func AreaBand(area float64) string {
	a := math.RoundToEven(area)
	switch {
	case a < 90:
		return Bands[0]
	case a < 105:
		return Bands[1]
	case a < 120:
		return Bands[2]
	case a < 140:
		return Bands[3]
	default:
		return Bands[4]
	}
}

func bandIndex(b string) int {
	for i, v := range Bands {
		if v == b {
			return i
		}
	}
	return len(Bands)
}

// Load reads a headerless .xlsx (first sheet) or .csv supply table. Rows
// missing a property type, room type or numeric area are dropped; areas
// are rounded half to even.
func Load(path string) ([]Unit, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s has no sheets", path)
		}
		if rows, err = f.GetRows(sheets[0]); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	case ".csv":
		doc, err := parser.ReadFile(path)
		if err != nil {
			return nil, err
		}
		rows = doc.Rows
	default:
		return nil, fmt.Errorf("unsupported supply file %s", path)
	}

	var units []Unit
	for _, r := range rows {
		if len(r) < 8 {
			continue
		}
		for i := range r {
			r[i] = strings.TrimSpace(r[i])
		}
		if r[5] == "" || r[6] == "" {
			continue
		}
		area, err := strconv.ParseFloat(r[7], 64)
		if err != nil || math.IsNaN(area) {
			continue
		}
		area = math.RoundToEven(area)
		units = append(units, Unit{
			SupplyDate:   r[0],
			PermitNo:     r[1],
			Project:      r[2],
			Address:      r[3],
			Room:         r[4],
			PropertyType: r[5],
			RoomType:     r[6],
			Area:         area,
			Band:         AreaBand(area),
		})
	}
	return units, nil
}

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	N     int    `json:"count"`
}

// Combo is a (room type, area band) tally.
type Combo struct {
	RoomType string `json:"户型"`
	Band     string `json:"面积段"`
	N        int    `json:"单元数"`
}

// TypeAnalysis is the breakdown of one property type.
type TypeAnalysis struct {
	PropertyType string  `json:"物业类型"`
	Total        int     `json:"总单元数"`
	Share        string  `json:"占比"`
	RoomTypes    []Count `json:"户型分布"`
	Bands        []Count `json:"面积段分布"`
	Combos       []Combo `json:"户型_面积段组合"`
}

// Analysis is the full result over all units.
type Analysis struct {
	Total      int             `json:"total_units"`
	Types      []*TypeAnalysis `json:"analysis"`
	MinArea    float64         `json:"最小面积"`
	MaxArea    float64         `json:"最大面积"`
	MeanArea   float64         `json:"平均面积"`
	MedianArea float64         `json:"中位数面积"`
	Bands      []Count         `json:"area_distribution"`
}

// Analyze groups units by property type in order of first appearance.
func Analyze(units []Unit) *Analysis {
	a := &Analysis{Total: len(units)}
	if len(units) == 0 {
		return a
	}

	byType := map[string][]Unit{}
	var order []string
	for _, u := range units {
		if _, ok := byType[u.PropertyType]; !ok {
			order = append(order, u.PropertyType)
		}
		byType[u.PropertyType] = append(byType[u.PropertyType], u)
	}

	for _, pt := range order {
		group := byType[pt]
		ta := &TypeAnalysis{
			PropertyType: pt,
			Total:        len(group),
			Share:        percent(len(group), len(units)),
			RoomTypes:    tally(group, func(u Unit) string { return u.RoomType }),
			Bands:        tally(group, func(u Unit) string { return u.Band }),
			Combos:       combos(group),
		}
		a.Types = append(a.Types, ta)
	}

	areas := make([]float64, len(units))
	sum := 0.0
	for i, u := range units {
		areas[i] = u.Area
		sum += u.Area
	}
	sort.Float64s(areas)
	a.MinArea = areas[0]
	a.MaxArea = areas[len(areas)-1]
	a.MeanArea = sum / float64(len(areas))
	if n := len(areas); n%2 == 1 {
		a.MedianArea = areas[n/2]
	} else {
		a.MedianArea = (areas[n/2-1] + areas[n/2]) / 2
	}
	a.Bands = tally(units, func(u Unit) string { return u.Band })
	return a
}

// tally counts labels, most frequent first; ties keep first appearance.
func tally(units []Unit, label func(Unit) string) []Count {
	idx := map[string]int{}
	var out []Count
	for _, u := range units {
		l := label(u)
		if i, ok := idx[l]; ok {
			out[i].N++
			continue
		}
		idx[l] = len(out)
		out = append(out, Count{Label: l, N: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].N > out[j].N })
	return out
}

// combos counts (room type, band) pairs sorted by room type then band.
func combos(units []Unit) []Combo {
	type key struct{ room, band string }
	counts := map[key]int{}
	for _, u := range units {
		counts[key{u.RoomType, u.Band}]++
	}
	out := make([]Combo, 0, len(counts))
	for k, n := range counts {
		out = append(out, Combo{RoomType: k.room, Band: k.band, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomType != out[j].RoomType {
			return out[i].RoomType < out[j].RoomType
		}
		return bandIndex(out[i].Band) < bandIndex(out[j].Band)
	})
	return out
}

func percent(n, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)/float64(total)*100)
}

// Summary renders the analysis as the plain-text report printed by the CLI.
func (a *Analysis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "总单元数: %d\n", a.Total)
	if a.Total == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "最小面积: %.0f㎡\n最大面积: %.0f㎡\n平均面积: %.0f㎡\n中位数面积: %.0f㎡\n",
		a.MinArea, a.MaxArea, a.MeanArea, a.MedianArea)
	b.WriteString("\n整体面积段分布:\n")
	for _, c := range a.Bands {
		fmt.Fprintf(&b, "  %s: %d单元 (%.1f%%)\n", c.Label, c.N, float64(c.N)/float64(a.Total)*100)
	}
	for _, t := range a.Types {
		fmt.Fprintf(&b, "\n【%s】\n总单元数: %d (%s)\n户型种类数: %d\n面积段种类数: %d\n",
			t.PropertyType, t.Total, t.Share, len(t.RoomTypes), len(t.Bands))
		b.WriteString("户型分布:\n")
		for _, c := range t.RoomTypes {
			fmt.Fprintf(&b, "  %s: %d单元 (%.1f%%)\n", c.Label, c.N, float64(c.N)/float64(t.Total)*100)
		}
		b.WriteString("面积段分布:\n")
		for _, c := range t.Bands {
			fmt.Fprintf(&b, "  %s: %d单元 (%.1f%%)\n", c.Label, c.N, float64(c.N)/float64(t.Total)*100)
		}
	}
	return b.String()
}

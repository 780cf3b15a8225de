// Package kaipan extracts opening (开盘) records from a CRIC housing page
// and writes them to a workbook.
package kaipan

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gemdale/reportkit/internal/cric"
)

// ErrNoRecords is returned when a page carries no dated opening record.
var ErrNoRecords = errors.New("no opening records found")

// Columns is the fixed column order of the opening workbook.
var Columns = []string{
	"开盘日期", "批次", "总套数", "小高层套数", "小高层价格最低",
	"小高层价格最高", "小高层均价", "叠加套数",
	"叠加价格最低", "叠加价格最高", "叠加均价", "整体均价",
}

const missing = "-"

// clause keeps a product's price match inside its own clause.
const clause = `[^，,。；;]*?`

var (
	dateLineRe = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)

	batchRe         = regexp.MustCompile(`(第.*?批|住宅,.*?批)`)
	totalRe         = regexp.MustCompile(`共(\d+)套`)
	highRiseSetsRe  = regexp.MustCompile(`(?:多层、小高层|小高层)(\d+)套`)
	stackedSetsRe   = regexp.MustCompile(`叠加(\d+)套`)
	highRiseRangeRe = regexp.MustCompile(`(?:多层、小高层|小高层)` + clause + `价格(?:在)?(\d+)-(\d+)元/㎡`)
	highRiseMeanRe  = regexp.MustCompile(`(?:多层、小高层|小高层)` + clause + `(?:销售)?均价(?:为)?(\d+)元/㎡`)
	stackedRangeRe  = regexp.MustCompile(`(?:叠加|叠加别墅|别墅)` + clause + `价格(?:在)?(\d+)-(\d+)元/㎡`)
	stackedMeanRe   = regexp.MustCompile(`(?:叠加|叠加别墅|别墅)` + clause + `(?:销售)?均价(?:为)?(\d+)元/㎡`)
	overallMeanRe   = regexp.MustCompile(`(?:整盘|本批次整体)均价(?:为)?(\d+)元/㎡`)
)

// Record is one opening batch. Numeric fields hold digits or "-".
type Record struct {
	Date         string `json:"开盘日期"`
	Batch        string `json:"批次"`
	Total        string `json:"总套数"`
	HighRiseSets string `json:"小高层套数"`
	HighRiseMin  string `json:"小高层价格最低"`
	HighRiseMax  string `json:"小高层价格最高"`
	HighRiseMean string `json:"小高层均价"`
	StackedSets  string `json:"叠加套数"`
	StackedMin   string `json:"叠加价格最低"`
	StackedMax   string `json:"叠加价格最高"`
	StackedMean  string `json:"叠加均价"`
	OverallMean  string `json:"整体均价"`
	Description  string `json:"-"`
}

// Values returns the record in Columns order. Numeric fields are ints.
func (r Record) Values() []any {
	vals := []string{
		r.Date, r.Batch, r.Total, r.HighRiseSets, r.HighRiseMin,
		r.HighRiseMax, r.HighRiseMean, r.StackedSets,
		r.StackedMin, r.StackedMax, r.StackedMean, r.OverallMean,
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		if i >= 2 {
			if n, err := strconv.Atoi(v); err == nil {
				out[i] = n
				continue
			}
		}
		out[i] = v
	}
	return out
}

// ExtractRecords scans the 开盘信息: block of a housing page.
func ExtractRecords(lines []string) ([]Record, error) {
	var (
		records    []Record
		inSection  bool
		collecting bool
		date       string
		desc       []string
	)
	emit := func() {
		if date != "" && len(desc) > 0 {
			records = append(records, parseDescription(date, strings.Join(desc, " ")))
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "开盘信息:" {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if line == "更多" {
			break
		}
		if dateLineRe.MatchString(line) {
			emit()
			date = line
			desc = nil
			collecting = false
			continue
		}
		if line == "开盘描述" {
			collecting = true
			continue
		}
		if collecting && (strings.Contains(line, "查看产品信息") || strings.Contains(line, "查看销售报价")) {
			collecting = false
			continue
		}
		if collecting && line != "" {
			desc = append(desc, line)
		}
	}
	emit()

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// ExtractFile reads a housing export and extracts its opening records.
func ExtractFile(path string) ([]Record, error) {
	lines, err := cric.ReadLines(path)
	if err != nil {
		return nil, err
	}
	return ExtractRecords(lines)
}

func parseDescription(date, desc string) Record {
	desc = strings.TrimSpace(desc)
	r := Record{Date: date, Description: desc}

	r.Batch = missing
	if m := batchRe.FindStringSubmatch(desc); m != nil {
		r.Batch = strings.TrimSpace(strings.ReplaceAll(m[1], "住宅,", ""))
	}
	r.Total = group(totalRe, desc, 1)
	r.HighRiseSets = group(highRiseSetsRe, desc, 1)
	r.StackedSets = group(stackedSetsRe, desc, 1)
	r.HighRiseMin = group(highRiseRangeRe, desc, 1)
	r.HighRiseMax = group(highRiseRangeRe, desc, 2)
	r.HighRiseMean = group(highRiseMeanRe, desc, 1)
	r.StackedMin = group(stackedRangeRe, desc, 1)
	r.StackedMax = group(stackedRangeRe, desc, 2)
	r.StackedMean = group(stackedMeanRe, desc, 1)
	r.OverallMean = group(overallMeanRe, desc, 1)
	return r
}

func group(re *regexp.Regexp, s string, n int) string {
	m := re.FindStringSubmatch(s)
	if m == nil || m[n] == "" {
		return missing
	}
	return m[n]
}

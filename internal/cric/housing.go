package cric

import (
	"strconv"
	"strings"
)

// HousingSections are the section labels of a CRIC housing page.
var HousingSections = []string{
	"基本信息:", "企业信息:", "产品综览:", "产品细节:",
	"装修情况:", "预证信息:", "开盘信息:", "营销信息:", "住宅图片：",
}

var housingBasicKeys = []string{
	"所属城市", "区域", "板块", "环线位置", "销售状态",
	"产权类型", "产权年限", "最早开工时间", "最早开盘时间",
	"最晚交房时间", "楼盘地址", "售楼处地址", "项目四至", "售楼处电话",
}

var housingCompanyKeys = []string{"开发商", "项目开发商", "投资商", "销售代理", "物业管理"}

var (
	buildingTypes      = []string{"多层", "小高层", "叠加"}
	buildingAttributes = []string{"楼栋数", "楼层数"}
	decorationRooms    = []string{"卧室", "厨房", "客厅", "卫生间"}
)

// ProductOverview is the 产品综览 section.
type ProductOverview struct {
	Overview      *Fields `json:"overview"`
	BuildingTypes *Fields `json:"building_types"`
	RoomTypes     []any   `json:"room_types"`
}

// Decoration is the 装修情况 section.
type Decoration struct {
	GeneralInfo *Fields `json:"general_info"`
	RoomDetails *Fields `json:"room_details"`
}

// Housing is a parsed CRIC housing page.
type Housing struct {
	Basic      *Fields         `json:"基本信息"`
	Company    *Fields         `json:"企业信息"`
	Overview   ProductOverview `json:"产品综览"`
	Details    *Fields         `json:"产品细节"`
	Decoration Decoration      `json:"装修情况"`
	Permits    []*Fields       `json:"预证信息"`
	Openings   []*Fields       `json:"开盘信息"`
	Marketing  []*Fields       `json:"营销信息"`
	Images     *Fields         `json:"住宅图片"`
}

// HousingFileName is the processed_data file name for a project.
func HousingFileName(project string) string {
	return project + "_房子基本信息.json"
}

// ParseHousingFile reads and parses a housing export.
func ParseHousingFile(path string) (*Housing, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return ParseHousing(lines), nil
}

// ParseHousing parses the trimmed lines of a housing page.
func ParseHousing(lines []string) *Housing {
	section := func(start string) []string {
		return ExtractSection(lines, start, "", HousingSections)
	}

	h := &Housing{
		Basic:   ParseKeyedFields(section("基本信息:"), housingBasicKeys),
		Company: ParseKeyedFields(section("企业信息:"), housingCompanyKeys),
		Details: ParseKeyValuePairs(section("产品细节:"), HousingSections, baseIndicators),
	}

	overviewLines := section("产品综览:")
	overview := ParseKeyValuePairs(overviewLines, HousingSections, baseIndicators)
	for _, b := range buildingTypes {
		overview.Delete(b)
	}
	h.Overview = ProductOverview{
		Overview:      overview,
		BuildingTypes: parseBuildingTypes(overviewLines),
		RoomTypes:     []any{},
	}

	decoration := ParseKeyValuePairs(section("装修情况:"), HousingSections, baseIndicators)
	rooms := NewFields()
	for _, room := range decorationRooms {
		if v, ok := decoration.Get(room); ok {
			rooms.Set(room, v)
			decoration.Delete(room)
		}
	}
	h.Decoration = Decoration{GeneralInfo: decoration, RoomDetails: rooms}

	h.Permits = parsePermits(section("预证信息:"))
	h.Openings = parseOpenings(ExtractSection(lines, "开盘信息:", "营销信息:", HousingSections))
	h.Marketing = parseMarketing(section("营销信息:"))
	h.Images = parseHouseImages(section("住宅图片："))
	return h
}

func parseBuildingTypes(lines []string) *Fields {
	out := NewFields()
	var current *Fields
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if contains(buildingTypes, line) {
			current = NewFields()
			out.Set(line, current)
			continue
		}
		if current == nil {
			continue
		}
		if line == "图片采集中…" {
			current = nil
			continue
		}
		for _, attr := range buildingAttributes {
			if !strings.HasPrefix(line, attr) {
				continue
			}
			v := strings.TrimLeft(strings.TrimSpace(line[len(attr):]), " :：")
			if v = strings.TrimSpace(v); v != "" {
				current.Set(attr, v)
			}
			break
		}
	}
	return out
}

func parsePermits(lines []string) []*Fields {
	permits := []*Fields{}
	var cur *Fields
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case dateRe.MatchString(line):
			if cur != nil && cur.Len() > 0 {
				permits = append(permits, cur)
			}
			cur = NewFields()
			cur.Set("日期", line)
		case strings.Contains(line, "号") && strings.Contains(line, "预字"):
			cur = ensure(cur)
			cur.Set("许可证号", line)
		default:
			kv := strings.Split(line, ":")
			if len(kv) != 2 {
				continue
			}
			cur = ensure(cur)
			key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
			if strings.Contains(key, "三房") || strings.Contains(key, "叠加") {
				rooms := cur.Fields("房型")
				if rooms == nil {
					rooms = NewFields()
					cur.Set("房型", rooms)
				}
				rooms.Set(key, value)
			} else {
				cur.Set(key, value)
			}
		}
	}
	if cur != nil && cur.Len() > 0 {
		permits = append(permits, cur)
	}
	return permits
}

func parseOpenings(lines []string) []*Fields {
	openings := []*Fields{}
	var cur *Fields
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line == "更多" {
			continue
		}
		switch {
		case dateRe.MatchString(line):
			if cur != nil && cur.Len() > 0 {
				openings = append(openings, cur)
			}
			cur = NewFields()
			cur.Set("日期", line)
		case strings.Contains(line, "号") && strings.Contains(line, "预字"):
			cur = ensure(cur)
			cur.Set("许可证号", line)
		case strings.HasPrefix(line, "开盘套数"):
			cur = ensure(cur)
			raw := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(line, "开盘套数", ""), "套", ""))
			if n, err := strconv.Atoi(raw); err == nil {
				cur.Set("开盘套数", n)
			} else {
				cur.Set("开盘套数", line)
			}
		case strings.HasPrefix(line, "开盘面积"):
			cur = ensure(cur)
			cur.Set("开盘面积", strings.TrimSpace(strings.ReplaceAll(line, "开盘面积", "")))
		case strings.Contains(line, ":"):
			cur = ensure(cur)
			k, v, _ := strings.Cut(line, ":")
			cur.Set(strings.TrimSpace(k), strings.TrimSpace(v))
		default:
			cur = ensure(cur)
			desc, _ := cur.Get("开盘描述")
			list, _ := desc.([]string)
			cur.Set("开盘描述", append(list, line))
		}
	}
	if cur != nil && cur.Len() > 0 {
		openings = append(openings, cur)
	}
	return openings
}

func parseMarketing(lines []string) []*Fields {
	items := []*Fields{}
	var cur *Fields
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line == "更多" {
			continue
		}
		switch {
		case dateRe.MatchString(line):
			if cur != nil && cur.Len() > 0 {
				items = append(items, cur)
			}
			cur = NewFields()
			cur.Set("日期", line)
		case strings.HasPrefix(line, "活动描述:"):
			cur = ensure(cur)
			cur.Set("活动描述", strings.TrimSpace(strings.TrimPrefix(line, "活动描述:")))
		case strings.Contains(line, ":"):
			cur = ensure(cur)
			k, v, _ := strings.Cut(line, ":")
			cur.Set(strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}
	if cur != nil && cur.Len() > 0 {
		items = append(items, cur)
	}
	return items
}

func parseHouseImages(lines []string) *Fields {
	out := NewFields()
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line == "更多" {
			continue
		}
		i := strings.LastIndex(line, " ")
		if i < 0 {
			continue
		}
		key, value := line[:i], line[i+1:]
		if n, err := strconv.Atoi(value); err == nil {
			out.Set(key, n)
		} else {
			out.Set(key, value)
		}
	}
	return out
}

// OpeningDescriptions returns the 开盘描述 lines of an opening record,
// whether it was parsed in-process or read back from JSON.
func OpeningDescriptions(opening *Fields) []string {
	v, _ := opening.Get("开盘描述")
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func ensure(f *Fields) *Fields {
	if f == nil {
		return NewFields()
	}
	return f
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package cric

import "strings"

// LandSections are the section labels of a CRIC land page.
var LandSections = []string{"基本信息:", "上市信息：", "成交信息:", "标书文件:"}

// landIndicators extend the key indicators with price and area markers.
var landIndicators = append(append([]string(nil), baseIndicators...), "价", "积", "限", "年")

var landGeneralKeys = []string{
	"土地属性", "成交总价", "楼板价", "出让底价",
	"溢价率", "总建面积", "建设用地（净用地）",
	"受让方", "开发商",
}

var landBasicKeys = []string{
	"所属城市", "所在区域", "板块", "环线位置", "土地属性",
	"土地用途", "土地用途（特殊）", "土地现状", "总建面积",
	"用地面积", "建设用地（净用地）", "绿化率", "容积率",
	"使用年限", "建筑限高", "土地地址", "项目四至",
}

var landListingKeys = []string{
	"公告号/宗地编号", "出让方式", "详细出让方式", "公告时间",
	"报名时间", "挂牌时间", "文件领取时间", "保证金到账时间",
	"出让底价", "出让楼板价", "出让每亩地价", "最小增幅度",
	"竞买保证金", "联系电话", "联系地址", "交易地址", "查询网址",
}

var landTransactionKeys = []string{
	"成交现状", "成交时间", "成交总价", "楼板价", "每亩地价",
	"溢价率", "自持比例", "受让方", "开发商", "项目开发商",
}

var landTenderKeys = []string{"规划意见", "招标/挂牌/拍卖公告"}

// Land is a parsed CRIC land page.
type Land struct {
	General     *Fields `json:"土地概要信息"`
	Basic       *Fields `json:"基本信息"`
	Listing     *Fields `json:"上市信息"`
	Transaction *Fields `json:"成交信息"`
	Tender      *Fields `json:"标书文件"`
}

// LandFileName is the processed_data file name for a project.
func LandFileName(project string) string {
	return project + "_土地基本信息.json"
}

// ParseLandFile reads and parses a land export.
func ParseLandFile(path string) (*Land, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return ParseLand(lines), nil
}

// ParseLand parses the trimmed lines of a land page.
func ParseLand(lines []string) *Land {
	section := func(start string) []string {
		return ExtractSection(lines, start, "", LandSections)
	}
	keyed := func(start string, keys []string) *Fields {
		lines := section(start)
		if f := ParseKeyedFields(lines, keys); f.Len() > 0 {
			return f
		}
		// Pages that lay a section out as "key: value" without the
		// expected keys still yield their pairs.
		return LandKeyValues(lines)
	}
	return &Land{
		General:     parseLandGeneral(lines),
		Basic:       keyed("基本信息:", landBasicKeys),
		Listing:     keyed("上市信息：", landListingKeys),
		Transaction: keyed("成交信息:", landTransactionKeys),
		Tender:      keyed("标书文件:", landTenderKeys),
	}
}

// LandKeyValues parses a free-form land block with the land key indicators.
func LandKeyValues(lines []string) *Fields {
	return ParseKeyValuePairs(lines, LandSections, landIndicators)
}

// parseLandGeneral reads the summary block between 功能导航 and 基本信息:.
func parseLandGeneral(lines []string) *Fields {
	out := NewFields()
	nav, basic := -1, -1
	for i, l := range lines {
		if nav < 0 && strings.Contains(l, "功能导航") {
			nav = i
		}
		if basic < 0 && strings.Contains(l, "基本信息:") {
			basic = i
		}
	}
	if nav < 0 || basic < 0 || basic <= nav {
		return out
	}

	for _, line := range lines[nav+1 : basic] {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "项目详情") {
			continue
		}
		switch {
		case strings.Contains(line, "土地属性") && strings.Contains(line, "成交总价"):
			splitOnKeys(line, landGeneralKeys, out)
		case strings.Contains(line, "受让方") || strings.Contains(line, "开发商"):
			if _, after, ok := strings.Cut(line, "受让方："); ok {
				v, _, _ := strings.Cut(after, "开发商")
				out.Set("受让方", strings.Trim(strings.TrimSpace(v), "; "))
			}
			if _, after, ok := strings.Cut(line, "开发商："); ok {
				out.Set("开发商", strings.Trim(strings.TrimSpace(after), "; "))
			}
		}
	}
	return out
}

// splitOnKeys splits a line such as "土地属性：住宅 成交总价：643,500万元"
// into the values between consecutive known keys.
func splitOnKeys(line string, keys []string, out *Fields) {
	remaining := line
	for _, key := range keys {
		pos := strings.Index(remaining, key)
		if pos < 0 {
			continue
		}
		rest := remaining[pos+len(key):]
		next := len(rest)
		for _, other := range keys {
			if other == key {
				continue
			}
			if p := strings.Index(rest, other); p >= 0 && p < next {
				next = p
			}
		}
		value := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(rest[:next]), ":："))
		out.Set(key, value)
		remaining = rest[next:]
	}
}

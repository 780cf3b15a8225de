package cric

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const noData = "暂无数据"

// ProjectTableKeys are the rows of the project summary table.
var ProjectTableKeys = []string{
	"开发商", "物业管理", "拿地时间", "最早开盘时间",
	"最晚交房时间", "楼板价", "建筑面积", "容积率",
	"物业类型", "主力户型", "总户数", "车位配比",
	"成交均价", "精装成本", "客户特点", "项目卖点",
}

var (
	roomAreaKeyRe = regexp.MustCompile(`^([\d一二三四五六七八九]+房)\s*面积`)
	roomAreaValRe = regexp.MustCompile(`([\d.\-]+)\s*㎡`)
	avgPriceRe    = regexp.MustCompile(`均价[为是]?(\d+(?:,\d+)*(?:\.\d+)?)\s*元/㎡`)
)

// ProjectTable builds the 16x2 summary table. Housing data wins over land
// data; anything missing reads 暂无数据. Either argument may be nil.
func ProjectTable(h *Housing, l *Land) [][]string {
	if h == nil {
		h = &Housing{}
	}
	if l == nil {
		l = &Land{}
	}
	overview := h.Overview.Overview

	rows := make([][]string, 0, len(ProjectTableKeys))
	for _, key := range ProjectTableKeys {
		var v string
		switch key {
		case "开发商":
			v = firstNonEmpty(h.Company.String("开发商"), l.General.String("开发商"))
		case "物业管理":
			v = h.Company.String("物业管理")
		case "拿地时间":
			v = l.Transaction.String("成交时间")
		case "最早开盘时间", "最晚交房时间":
			v = h.Basic.String(key)
		case "楼板价":
			v = l.Transaction.String("楼板价")
		case "建筑面积":
			v = firstNonEmpty(overview.String("总建面积"), l.Basic.String("总建面积"))
		case "容积率":
			v = firstNonEmpty(overview.String("容积率"), l.Basic.String("容积率"))
		case "物业类型", "车位配比":
			v = overview.String(key)
		case "主力户型":
			v = mainRoomTypes(overview)
		case "总户数":
			v = overview.String("规划户数")
		case "成交均价":
			v = averagePrice(h.Openings)
		case "精装成本":
			v = h.Decoration.GeneralInfo.String("装修价格")
		}
		if v == "" {
			v = noData
		}
		rows = append(rows, []string{key, v})
	}
	return rows
}

// mainRoomTypes lists "三房(97.72-142.41㎡)" for every room-area entry.
func mainRoomTypes(overview *Fields) string {
	var parts []string
	for _, k := range overview.Keys() {
		m := roomAreaKeyRe.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		vm := roomAreaValRe.FindStringSubmatch(overview.String(k))
		if vm == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s㎡)", m[1], vm[1]))
	}
	return strings.Join(parts, "; ")
}

func averagePrice(openings []*Fields) string {
	for _, o := range openings {
		for _, desc := range OpeningDescriptions(o) {
			if !strings.Contains(desc, "均价") {
				continue
			}
			if m := avgPriceRe.FindStringSubmatch(desc); m != nil {
				return m[1] + "元/㎡"
			}
		}
	}
	return ""
}

var decorationRoomLabels = []string{"室内装修", "全装修", "卧室", "厨房", "客厅", "卫生间"}
var decorationGeneralKeys = []string{"装修价格", "外立面风格", "园林风格"}

// DecorationHeader is the header row of the room decoration table.
var DecorationHeader = []string{"房间类型", "地面", "墙面", "配置"}

// DecorationTable reads the 装修情况: block of a housing page into rows of
// room type, floor, wall and fittings. General entries such as 装修价格
// become rows with "-" in the other columns.
func DecorationTable(lines []string) [][]string {
	var block []string
	in := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "装修情况:" {
			in = true
			continue
		}
		if !in {
			continue
		}
		if line == "预证信息:" {
			break
		}
		block = append(block, line)
	}

	var rows [][]string
	var room, pending string
	info := map[string]string{}
	flush := func() {
		if room != "" && len(info) > 0 {
			rows = append(rows, []string{room, orDash(info["地面"]), orDash(info["墙面"]), orDash(info["配置"])})
		}
		info = map[string]string{}
	}

	for _, line := range block {
		if line == "" {
			continue
		}
		switch {
		case contains(decorationRoomLabels, line):
			flush()
			room = line
			pending = ""
		case contains(decorationGeneralKeys, line):
			pending = line
		case strings.HasSuffix(line, ":"):
			pending = strings.TrimSuffix(line, ":")
		case pending != "":
			switch {
			case (pending == "地面" || pending == "墙面" || pending == "配置") && room != "":
				info[pending] = line
			case contains(decorationGeneralKeys, pending):
				rows = append(rows, []string{pending, line, "-", "-"})
			}
			pending = ""
		}
	}
	flush()
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ReadHousing loads a housing JSON file written by WriteJSON.
func ReadHousing(path string) (*Housing, error) {
	var h Housing
	if err := readJSON(path, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ReadLand loads a land JSON file written by WriteJSON.
func ReadLand(path string) (*Land, error) {
	var l Land
	if err := readJSON(path, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

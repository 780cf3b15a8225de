package cric

import "testing"

func TestProjectTable(t *testing.T) {
	h := ParseHousing(lines(housingPage))
	l := ParseLand(lines(landPage))
	rows := ProjectTable(h, l)

	if len(rows) != 16 {
		t.Fatalf("expected 16 rows, got %d", len(rows))
	}
	want := map[string]string{
		"开发商":  "华发股份",
		"物业管理": "华发物业",
		"拿地时间": "2023/06/30",
		"楼板价":  "62,000元/㎡",
		"建筑面积": "120000㎡",
		"容积率":  "2.0",
		"物业类型": "住宅",
		"主力户型": "三房(97.72-142.41㎡)",
		"总户数":  "1200户",
		"车位配比": "1:1.2",
		"成交均价": "62962元/㎡",
		"精装成本": "3000元/㎡",
		"客户特点": "暂无数据",
		"最晚交房时间": "暂无数据",
	}
	for _, row := range rows {
		if w, ok := want[row[0]]; ok && row[1] != w {
			t.Errorf("%s: expected %q, got %q", row[0], w, row[1])
		}
	}
	if rows[0][0] != "开发商" || rows[15][0] != "项目卖点" {
		t.Errorf("unexpected row order: first %q, last %q", rows[0][0], rows[15][0])
	}
}

func TestProjectTable_LandFallback(t *testing.T) {
	l := ParseLand(lines(landPage))
	rows := ProjectTable(nil, l)
	if rows[0][1] != "华发股份" {
		t.Errorf("expected 开发商 from land data, got %q", rows[0][1])
	}
	if rows[7][1] != "2.2" {
		t.Errorf("expected 容积率 from land data, got %q", rows[7][1])
	}
}

func TestDecorationTable(t *testing.T) {
	ls := []string{
		"装修情况:",
		"装修价格",
		"3000元/㎡",
		"卧室",
		"地面:",
		"木地板",
		"墙面:",
		"乳胶漆",
		"厨房",
		"配置:",
		"方太",
		"预证信息:",
		"卫生间",
		"地面:",
		"瓷砖",
	}
	rows := DecorationTable(ls)
	want := [][]string{
		{"装修价格", "3000元/㎡", "-", "-"},
		{"卧室", "木地板", "乳胶漆", "-"},
		{"厨房", "-", "-", "方太"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %q", len(want), len(rows), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d: expected %q, got %q", i, j, want[i][j], rows[i][j])
			}
		}
	}
}

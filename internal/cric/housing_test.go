package cric

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const housingPage = `华发四季半岛
基本信息:
所属城市
上海
区域
松江
楼盘地址
松江区泗泾镇
售楼处电话:021-12345678
企业信息:
开发商
华发股份
物业管理
华发物业
产品综览:
物业类型:住宅
容积率:2.0
总建面积:120000㎡
三房 面积:97.72-142.41 ㎡
规划户数:1200户
车位配比:1:1.2
小高层
楼栋数 12
楼层数: 18
叠加
楼栋数 6
图片采集中…
产品细节:
绿化率:35%
外立面
真石漆 玻璃幕墙
交房标准
精装
装修情况:
装修价格:3000元/㎡
卧室
地面:
木地板
墙面:
乳胶漆
厨房
配置:
方太
预证信息:
2024/01/15
沪房管（松江）预字0001号
三房套数:120
总套数:200
开盘信息:
2024/02/01
沪房管（松江）预字0001号
开盘套数 150套
开盘面积 15000㎡
销售均价62962元/㎡，去化八成
成交:120
营销信息:
2024/03/01
活动描述:暖场活动
地点:售楼处
住宅图片：
效果图 12
实景图 多张
更多
`

func lines(s string) []string {
	return TrimLines(strings.Split(s, "\n"))
}

func TestParseHousing_Basic(t *testing.T) {
	h := ParseHousing(lines(housingPage))

	cases := map[string]string{
		"所属城市":  "上海",
		"区域":    "松江",
		"楼盘地址":  "松江区泗泾镇",
		"售楼处电话": "021-12345678",
	}
	for k, want := range cases {
		if got := h.Basic.String(k); got != want {
			t.Errorf("基本信息[%s]: expected %q, got %q", k, want, got)
		}
	}
	if got := h.Basic.Keys()[0]; got != "所属城市" {
		t.Errorf("expected insertion order to start with 所属城市, got %q", got)
	}
	if got := h.Company.String("开发商"); got != "华发股份" {
		t.Errorf("expected 开发商 %q, got %q", "华发股份", got)
	}
}

func TestParseHousing_Overview(t *testing.T) {
	h := ParseHousing(lines(housingPage))
	ov := h.Overview.Overview
	if ov.String("物业类型") != "住宅" {
		t.Errorf("expected 物业类型 住宅, got %q", ov.String("物业类型"))
	}
	if ov.String("容积率") != "2.0" {
		t.Errorf("expected 容积率 2.0, got %q", ov.String("容积率"))
	}
	if ov.Has("小高层") || ov.Has("叠加") {
		t.Error("expected building type keys removed from overview")
	}

	bt := h.Overview.BuildingTypes
	if bt.Len() != 2 {
		t.Fatalf("expected 2 building types, got %d", bt.Len())
	}
	mid := bt.Fields("小高层")
	if mid.String("楼栋数") != "12" || mid.String("楼层数") != "18" {
		t.Errorf("unexpected 小高层 attrs: %v / %v", mid.String("楼栋数"), mid.String("楼层数"))
	}
	if h.Overview.RoomTypes == nil {
		t.Error("expected empty room_types list, got nil")
	}
}

func TestParseHousing_Decoration(t *testing.T) {
	h := ParseHousing(lines(housingPage))
	if h.Decoration.GeneralInfo.String("装修价格") != "3000元/㎡" {
		t.Errorf("expected 装修价格, got %q", h.Decoration.GeneralInfo.String("装修价格"))
	}
}

func TestParseHousing_Records(t *testing.T) {
	h := ParseHousing(lines(housingPage))

	if len(h.Permits) != 1 {
		t.Fatalf("expected 1 permit, got %d", len(h.Permits))
	}
	p := h.Permits[0]
	if p.String("许可证号") != "沪房管（松江）预字0001号" {
		t.Errorf("unexpected 许可证号 %q", p.String("许可证号"))
	}
	if p.Fields("房型").String("三房套数") != "120" {
		t.Errorf("expected 三房套数 under 房型")
	}
	if p.String("总套数") != "200" {
		t.Errorf("expected 总套数 200, got %q", p.String("总套数"))
	}

	if len(h.Openings) != 1 {
		t.Fatalf("expected 1 opening, got %d", len(h.Openings))
	}
	o := h.Openings[0]
	if v, _ := o.Get("开盘套数"); v != 150 {
		t.Errorf("expected 开盘套数 150, got %v", v)
	}
	if o.String("开盘面积") != "15000㎡" {
		t.Errorf("unexpected 开盘面积 %q", o.String("开盘面积"))
	}
	if d := OpeningDescriptions(o); len(d) != 1 || !strings.Contains(d[0], "62962") {
		t.Errorf("unexpected 开盘描述 %q", d)
	}

	if len(h.Marketing) != 1 || h.Marketing[0].String("活动描述") != "暖场活动" {
		t.Errorf("unexpected marketing %+v", h.Marketing)
	}

	if v, _ := h.Images.Get("效果图"); v != 12 {
		t.Errorf("expected 效果图 12, got %v", v)
	}
	if h.Images.String("实景图") != "多张" {
		t.Errorf("expected 实景图 kept as text, got %q", h.Images.String("实景图"))
	}
}

func TestHousingJSONRoundTrip(t *testing.T) {
	h := ParseHousing(lines(housingPage))
	path := filepath.Join(t.TempDir(), HousingFileName("华发四季半岛"))
	if err := WriteJSON(h, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Index(string(data), "\"基本信息\"") > strings.Index(string(data), "\"企业信息\"") {
		t.Error("expected 基本信息 before 企业信息")
	}

	back, err := ReadHousing(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.Company.String("开发商") != "华发股份" {
		t.Errorf("expected 开发商 after reload, got %q", back.Company.String("开发商"))
	}
	if d := OpeningDescriptions(back.Openings[0]); len(d) != 1 {
		t.Errorf("expected 开盘描述 after reload, got %q", d)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
}

func TestHousingFileName(t *testing.T) {
	if got := HousingFileName("泗泾"); got != "泗泾_房子基本信息.json" {
		t.Errorf("expected %q, got %q", "泗泾_房子基本信息.json", got)
	}
}

func TestReadLines_GB18030(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "基本信息.txt")
	// "开发商" in GB2312.
	gb := []byte{0xBF, 0xAA, 0xB7, 0xA2, 0xC9, 0xCC, '\n', ' ', 'x', ' ', '\n'}
	if err := os.WriteFile(path, gb, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadLines(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "开发商" || got[1] != "x" {
		t.Errorf("unexpected lines %q", got)
	}
}

package llm

import "fmt"

const surroundingPrompt = `请基于以下小区周边信息报告，对项目的周边配套进行全面总结。总结包括以下方面：
1. 地段交通：步行便捷度、地铁/公交情况。
2. 附近学校：学前/小学/初中数量和距离。
3. 居住品质：绿化、舒适度、物业等。
4. 生活配套：商业、医疗、餐饮、银行等。
总结要简洁、专业，用中文输出，结构清晰，使用 bullet points 或小标题组织内容。

原报告内容：
%s
`

const kaipanPrompt = "请用一句话（中文）总结下面文本中关于“开盘/开盘信息”的关键信息，" +
	"尽量包含时间、批次、价格或重要节点。如果文本中没有开盘相关内容，请直接返回“未找到开盘信息”。" +
	"输出不要包含多余解释，仅返回一句话。\n\n文本:\n%s"

const customerSystem = "你是 Kimi。"

const customerPrompt = `请检索“%[1]s”，地址：%[2]s。
请生成购房客群分析，要求：
1. 输出结构化板块（如积分段、地域来源、支付力、家庭生命周期、职业特征、购房动机、典型客户画像等），每块内容控制在1-2句话。
2. 在“地域来源”板块中，需明确来源（如区内本地、长三角外溢、外省市等），并给出各来源的占比（必须给出%%），合计100%%。
3. 结论部分需简要概括核心客群特征。
4. 全文简明扼要，避免冗长描述，总长度不超过200字。

输出示例（格式）：
%[1]s（%[2]s）
主要购房客群画像（开盘期）

1. 积分段
   入围积分≈55，低于周边竞品，属“低积分友好盘”。

2. 地域来源
   本地改善35%%，地铁沿线40%%，相邻区外溢20%%，外省投资客5%%。

3. 支付力
   总价段650-1000万，首付比例50-70%%，月供1.3-1.8万。

4. 家庭生命周期
   新婚+首孩家庭为主，少量三代同堂改善。

5. 职业特征
   科技园区+工业区白领为核心，年收40-70万。

6. 购房动机
   通勤便利、价格洼地、学区预期。

结论
以地铁沿线产业白领和本地刚改家庭为主，投资客占比小，总体偏刚需-刚改。
`

func surroundingMessage(report string) string {
	return fmt.Sprintf(surroundingPrompt, report)
}

func kaipanMessage(text string) string {
	return fmt.Sprintf(kaipanPrompt, text)
}

func customerMessage(project, address string) string {
	if address == "" {
		address = "未知"
	}
	return fmt.Sprintf(customerPrompt, project, address)
}

const floorPlanVisionPrompt = `分析提供的户型图，详细描述布局，包括：
- 卧室、卫生间、客厅、厨房及其他功能空间（如阳台、书房）的数量。
- 每个功能空间的分布位置（例如，主卧位于东南角）。
- 朝向（例如，客厅朝南，厨房朝北）。
- 动线路径（例如，入口通向走廊连接客厅和卧室；动线是否高效）。
- 整体结构：是高层住宅还是叠拼别墅？如可辨识，估算大致面积。
- 任何显著特点，如开放式设计、自然采光潜力，或潜在问题如不规则形状。
请以结构化的中文文本描述。`

const floorPlanReviewPrompt = `请根据以下户型图描述，给出总体评价，注意只需要总体评价，其他内容不要包括。
请严格按照以下格式输出：
### 总体评价
（2-3句话，简要总结，直观评价即可）

户型图描述：
%s
`

func floorPlanReviewMessage(description string) string {
	return fmt.Sprintf(floorPlanReviewPrompt, description)
}

package deepseek

import (
	"fmt"
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
)

// GeneralSystemPrompt 通用问答的系统提示词
const GeneralSystemPrompt = "你是一个友好、专业的AI助手，请用简洁准确的语言回答用户的问题。" +
	"对于文档类请求（如合同、报告），提供要点和框架即可，不需要过于详细。"

// DisabledReply 模型功能关闭时通用问答的固定回复
const DisabledReply = `抱歉，通用AI问答功能暂时关闭。

💡 我擅长的功能：
✅ 查询数据库数据（充电、收入、订单等）
✅ 数据统计和分析
✅ 年度对比、毛利/损耗计算

📊 试试这些查询：
• "2025年特来电总收入多少"
• "四方坪去年充电收入多少"
• "2025年对比2024年四方坪充电电量"
• "2025年平均每把枪的充电服务费"`

// BuildSQLPrompt 组装生成SQL的系统提示词：
// 涉及表的字段目录 + 特殊条件 + 方言约束 + 公式算例
func BuildSQLPrompt(tables []string, meta tableresolver.Metadata) string {
	var b strings.Builder

	b.WriteString("你是一个SQL查询助手，专门帮助用户根据自然语言问题生成SQL Server 2008 R2查询语句。\n\n")
	b.WriteString("数据库版本：SQL Server 2008 R2（不支持2012+的新函数）\n")
	b.WriteString("数据库名称：chargingdata\n\n")
	b.WriteString("可用的表和字段信息：")

	for _, name := range tables {
		src, ok := catalog.Get(name)
		if !ok {
			continue
		}
		b.WriteString("\n\n表名：[" + src.Name + "]")
		if src.Time.Composite() {
			fmt.Fprintf(&b, "\n  时间字段：[%s] + [%s]（月粒度账单，没有具体日期）",
				src.Time.YearColumn, src.Time.MonthColumn)
		} else {
			b.WriteString("\n  时间字段：[" + src.Time.Column + "]")
		}
		b.WriteString("\n  字段映射（用户关键词 -> 实际字段名）：")
		for _, alias := range src.AliasesByLength() {
			fmt.Fprintf(&b, "\n    \"%s\" -> %s", alias, src.Fields[alias].Expression)
		}
		if src.StatusFilter != "" {
			b.WriteString("\n  固定WHERE条件：" + src.StatusFilter)
		}
		if src.Site != nil {
			if meta.Gaoling {
				b.WriteString("\n  **重要WHERE条件（高岭筛选）**：" + src.Site.Gaoling)
			} else if meta.Sifangping {
				b.WriteString("\n  **重要WHERE条件（四方坪筛选）**：" + src.Site.Sifangping)
			}
		}
	}

	b.WriteString(dialectRules)
	b.WriteString(formulaCookbook)
	b.WriteString("\n\n请根据用户问题生成准确的SQL查询语句。只返回SQL语句本身，不要有任何解释文字。")
	return b.String()
}

const dialectRules = `

重要规则：
1. **必须使用字段映射中的实际字段名**，不要自己猜测字段名
2. 例如："充电电量" 在特来电表中对应 [充电电量(度)]，在能科表中对应 [充电量]
3. **所有查询必须过滤空值、0值和空字符串**：WHERE column IS NOT NULL AND column > 0
4. 表名和字段名都需要用方括号括起来：[表名]、[字段名]
5. 如果涉及多个表，需要使用UNION ALL合并，再对合并结果做外层聚合
6. **表名必须完全准确**，不要添加"表"字。例如使用 [特来电] 而不是 [特来电表]
7. **只能使用字段映射中列出的字段名**，不要使用任何未列出的字段
8. **禁止使用SQL Server 2012+的函数**，例如：DATEFROMPARTS, EOMONTH, FORMAT等
9. 时间筛选使用显式日期区间，不要在WHERE里用函数取年月：
   - 某一天：CAST([时间字段] AS DATE) = '2024-12-13'
   - 某个月：[时间字段] >= '2024-12-01' AND [时间字段] < '2025-01-01'
   - 某一年：[时间字段] >= '2024-01-01' AND [时间字段] < '2025-01-01'
10. **字符串存储的金额字段**需要转换：CAST(LTRIM(RTRIM([订单金额])) AS FLOAT)，
    并加 ISNUMERIC(LTRIM(RTRIM([订单金额]))) = 1 保护`

const formulaCookbook = `

特殊查询逻辑：
A. **平均值计算**（如"平均每个月收入"）：
   - 不要使用简单的AVG()
   - 应该：总收入 / 实际有数据的月份数
   - 示例SQL：
     SELECT SUM(收入字段) / NULLIF(COUNT(DISTINCT CONVERT(VARCHAR(7), [时间字段], 120)), 0) AS 月平均收入
     FROM [表名] WHERE [时间字段] >= '起始日期' AND [时间字段] < '结束日期'

B. **年度对比**（如"2025年对比2024年"）：
   - 分别求两年合计后相减，返回增减量
   - 示例SQL：
     SELECT a.v - b.v AS 增减量
     FROM (SELECT SUM(字段) AS v FROM [表名] WHERE [时间] >= '2025-01-01' AND [时间] < '2026-01-01') AS a
     CROSS JOIN (SELECT SUM(字段) AS v FROM [表名] WHERE [时间] >= '2024-01-01' AND [时间] < '2025-01-01') AS b

C. **最大/最小年份查询**（如"哪一年收入最多"）：
   SELECT TOP 1 年份, 总收入 FROM (
       SELECT YEAR([时间字段]) AS 年份, SUM(收入字段) AS 总收入
       FROM [表名] WHERE 条件 GROUP BY YEAR([时间字段])
   ) AS 年度汇总 ORDER BY 总收入 DESC

D. **终端/枪维度排名**：
   - 终端唯一标识必须用 [电站名称] + [终端名称] 组合
   - SELECT TOP 1 [电站名称], [终端名称], SUM([充电电量(度)]) AS 总电量
     FROM [特来电]
     WHERE [电站名称] IS NOT NULL AND [终端名称] IS NOT NULL AND [充电电量(度)] > 0
     GROUP BY [电站名称], [终端名称] ORDER BY 总电量 DESC

E. **毛利** = 充电收入合计 − 电力局电费成本；**损耗** = 电力局用电量 − 充电电量合计
   - 电力局表按 ([年份] * 100 + [月份]) BETWEEN 202401 AND 202412 过滤`

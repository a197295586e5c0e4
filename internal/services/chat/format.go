package chat

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// 结果格式化：行集 -> 用户可读文本。
// 单行单列直接给"名称: 数值"；多行输出markdown表格，
// 超过20行截断并注明剩余条数。

// maxTableRows 表格最多展示的行数
const maxTableRows = 20

// integerColumns 语义上是整数的列，不补小数位
var integerColumns = map[string]bool{
	"年份": true,
	"月份": true,
	"次数": true,
	"天数": true,
	"枪数": true,
	"数量": true,
}

// FormatResult 把查询行集格式化成答复文本
func FormatResult(rows []map[string]interface{}, columns []string) string {
	if len(rows) == 0 {
		return "未查询到相关数据。"
	}

	// 单行单列：标量答案
	if len(rows) == 1 && len(columns) == 1 {
		col := columns[0]
		return fmt.Sprintf("%s: %s", col, formatValue(col, rows[0][col]))
	}

	// 单行多列：逐项列出
	if len(rows) == 1 {
		var parts []string
		for _, col := range columns {
			parts = append(parts, fmt.Sprintf("%s: %s", col, formatValue(col, rows[0][col])))
		}
		return strings.Join(parts, "，")
	}

	// 多行：markdown表格
	var b strings.Builder
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")

	shown := rows
	if len(shown) > maxTableRows {
		shown = shown[:maxTableRows]
	}
	for _, row := range shown {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = formatValue(col, row[col])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if len(rows) > maxTableRows {
		fmt.Fprintf(&b, "\n... 还有 %d 条记录", len(rows)-maxTableRows)
	}
	return b.String()
}

// formatValue 格式化单元格：金额类保留两位小数，
// 年份/月份等整数列不带小数位，NULL显示为"-"
func formatValue(col string, v interface{}) string {
	if v == nil {
		return "-"
	}
	switch t := v.(type) {
	case float64:
		return formatNumber(col, t)
	case float32:
		return formatNumber(col, float64(t))
	case int64:
		return fmt.Sprintf("%d", t)
	case int:
		return fmt.Sprintf("%d", t)
	case time.Time:
		return t.Format("2006-01-02")
	case string:
		return t
	case bool:
		if t {
			return "是"
		}
		return "否"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatNumber(col string, f float64) string {
	if integerColumns[col] || f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.2f", f)
}

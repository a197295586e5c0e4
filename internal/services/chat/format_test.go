package chat_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jiangnanwaw/AIdialogue/internal/services/chat"
)

func TestFormatResultEmpty(t *testing.T) {
	out := chat.FormatResult(nil, nil)
	assert.Equal(t, "未查询到相关数据。", out)
}

func TestFormatResultScalar(t *testing.T) {
	rows := []map[string]interface{}{{"总计": 12345.678}}
	out := chat.FormatResult(rows, []string{"总计"})
	assert.Equal(t, "总计: 12345.68", out)
}

func TestFormatResultIntegerColumns(t *testing.T) {
	rows := []map[string]interface{}{{"年份": 2024.0, "总计": 99.5}}
	out := chat.FormatResult(rows, []string{"年份", "总计"})
	assert.Equal(t, "年份: 2024，总计: 99.50", out)
}

func TestFormatResultWholeNumberNoDecimals(t *testing.T) {
	rows := []map[string]interface{}{{"总计": 100.0}}
	out := chat.FormatResult(rows, []string{"总计"})
	assert.Equal(t, "总计: 100", out)
}

func TestFormatResultNullCell(t *testing.T) {
	rows := []map[string]interface{}{{"总计": nil}}
	out := chat.FormatResult(rows, []string{"总计"})
	assert.Equal(t, "总计: -", out)
}

func TestFormatResultTable(t *testing.T) {
	rows := []map[string]interface{}{
		{"月份": "2024-01", "总计": 10.5},
		{"月份": "2024-02", "总计": 20.25},
	}
	out := chat.FormatResult(rows, []string{"月份", "总计"})
	assert.Contains(t, out, "| 月份 | 总计 |")
	assert.Contains(t, out, "| 2024-01 | 10.50 |")
	assert.Contains(t, out, "| 2024-02 | 20.25 |")
	assert.NotContains(t, out, "还有")
}

func TestFormatResultTableCapped(t *testing.T) {
	var rows []map[string]interface{}
	for i := 0; i < 25; i++ {
		rows = append(rows, map[string]interface{}{"日期": fmt.Sprintf("2024-01-%02d", i+1), "总计": 1.0})
	}
	out := chat.FormatResult(rows, []string{"日期", "总计"})
	assert.Contains(t, out, "... 还有 5 条记录")
	assert.Equal(t, 20, strings.Count(out, "| 2024-01-"), "最多展示20行")
}

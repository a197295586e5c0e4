package sqlbuilder_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
)

func TestSanitizeRejectsDestructive(t *testing.T) {
	cases := []string{
		"DROP TABLE [特来电]",
		"DELETE FROM [特来电]",
		"UPDATE [特来电] SET [充电费用(元)] = 0",
		"TRUNCATE TABLE [能科]",
		"EXEC sp_help",
		"SELECT 1; DROP TABLE [特来电]",
	}
	for _, sql := range cases {
		_, err := sqlbuilder.Sanitize(sql, sqlbuilder.SanitizeContext{})
		assert.ErrorIs(t, err, sqlbuilder.ErrUnsafeQuery, sql)
	}
}

func TestSanitizeRejectsNonSelect(t *testing.T) {
	_, err := sqlbuilder.Sanitize("WITH x AS (SELECT 1) SELECT * FROM x",
		sqlbuilder.SanitizeContext{})
	assert.ErrorIs(t, err, sqlbuilder.ErrUnsafeQuery)
}

func TestSanitizePassesCleanSelect(t *testing.T) {
	in := "SELECT ISNULL(SUM([充电费用(元)]), 0) AS 总计 FROM [特来电]"
	out, err := sqlbuilder.Sanitize(in, sqlbuilder.SanitizeContext{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStripCodeFence(t *testing.T) {
	in := "```sql\nSELECT 1 AS 总计\n```"
	out, err := sqlbuilder.Sanitize(in, sqlbuilder.SanitizeContext{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 AS 总计", out)
}

func TestFixTableSuffix(t *testing.T) {
	out, err := sqlbuilder.Sanitize(
		"SELECT SUM([充电费用(元)]) AS 总计 FROM [特来电表]",
		sqlbuilder.SanitizeContext{})
	require.NoError(t, err)
	assert.Contains(t, out, "FROM [特来电]")
	assert.NotContains(t, out, "特来电表")
}

func TestFixConvertMissingColumn(t *testing.T) {
	out, err := sqlbuilder.Sanitize(
		"SELECT CONVERT(VARCHAR(7), 120) AS 月份, SUM([充电费用(元)]) AS 总计 FROM [特来电] GROUP BY CONVERT(VARCHAR(7), 120)",
		sqlbuilder.SanitizeContext{TimeColumn: "充电结束时间"})
	require.NoError(t, err)
	assert.Contains(t, out, "CONVERT(VARCHAR(7), [充电结束时间], 120)")
	assert.NotContains(t, out, "CONVERT(VARCHAR(7), 120)")
}

func TestFixConvertLeavesLegalLengths(t *testing.T) {
	// CONVERT(VARCHAR(10), 100) 里的100可能是合法长度参数，不能乱补列
	in := "SELECT CONVERT(VARCHAR(10), 100) AS x FROM [特来电]"
	out, err := sqlbuilder.Sanitize(in, sqlbuilder.SanitizeContext{TimeColumn: "充电结束时间"})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFixLeakedTimeColumnRemoved(t *testing.T) {
	out, err := sqlbuilder.Sanitize(
		"SELECT [充电结束时间], SUM([充电费用(元)]) AS 总计 FROM [特来电]",
		sqlbuilder.SanitizeContext{Question: "2024年总收入多少"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT SUM([充电费用(元)]) AS 总计 FROM [特来电]", out)
}

func TestFixLeakedTimeColumnMonthlyRewrite(t *testing.T) {
	out, err := sqlbuilder.Sanitize(
		"SELECT [充电结束时间], SUM([充电费用(元)]) AS 总计 FROM [特来电]",
		sqlbuilder.SanitizeContext{Question: "2024年每月充电收入"})
	require.NoError(t, err)
	assert.Contains(t, out, "CONVERT(VARCHAR(7), [充电结束时间], 120) AS 月份")
	assert.Contains(t, out, "GROUP BY CONVERT(VARCHAR(7), [充电结束时间], 120)")
}

func TestFixLeakedTimeColumnMonthlyExistingGroupBy(t *testing.T) {
	// 已有GROUP BY但缺月份键时把月份表达式补到分组最前面
	out, err := sqlbuilder.Sanitize(
		"SELECT [充电结束时间], SUM([充电费用(元)]) AS 总计 FROM [特来电] GROUP BY [电站名称]",
		sqlbuilder.SanitizeContext{Question: "2024年每月各站充电收入"})
	require.NoError(t, err)
	assert.Contains(t, out, "CONVERT(VARCHAR(7), [充电结束时间], 120) AS 月份")
	assert.Contains(t, out,
		"GROUP BY CONVERT(VARCHAR(7), [充电结束时间], 120), [电站名称]")
}

func TestFixLeakedTimeColumnMonthlyKeepsMonthGroupBy(t *testing.T) {
	// GROUP BY里已经是月份表达式时只改写SELECT列，不重复追加分组键
	out, err := sqlbuilder.Sanitize(
		"SELECT [充电结束时间], SUM([充电费用(元)]) AS 总计 FROM [特来电] "+
			"GROUP BY CONVERT(VARCHAR(7), [充电结束时间], 120)",
		sqlbuilder.SanitizeContext{Question: "每月充电收入"})
	require.NoError(t, err)
	assert.Contains(t, out, "AS 月份")
	assert.Equal(t, 2, strings.Count(out, "CONVERT(VARCHAR(7), [充电结束时间], 120)"),
		"SELECT和GROUP BY各一处，不能多")
}

func TestFixLeakedTimeColumnKeepsCorrectGrouping(t *testing.T) {
	in := "SELECT [充电结束时间], SUM([充电费用(元)]) AS 总计 FROM [特来电] GROUP BY [充电结束时间]"
	out, err := sqlbuilder.Sanitize(in, sqlbuilder.SanitizeContext{Question: "按时间统计"})
	require.NoError(t, err)
	assert.Equal(t, in, out, "分组键与SELECT列一致时不改写")
}

func TestRewriteYearPredicate(t *testing.T) {
	out, err := sqlbuilder.Sanitize(
		"SELECT SUM([充电费用(元)]) AS 总计 FROM [特来电] WHERE YEAR([充电结束时间]) = 2024",
		sqlbuilder.SanitizeContext{})
	require.NoError(t, err)
	assert.Contains(t, out,
		"[充电结束时间] >= '2024-01-01' AND [充电结束时间] < '2025-01-01'")
	assert.NotContains(t, out, "YEAR(")
}

func TestSanitizeIdempotent(t *testing.T) {
	in := "```sql\nSELECT SUM([充电费用(元)]) AS 总计 FROM [特来电表] WHERE YEAR([充电结束时间]) = 2024\n```"
	ctx := sqlbuilder.SanitizeContext{Question: "2024年总收入"}
	once, err := sqlbuilder.Sanitize(in, ctx)
	require.NoError(t, err)
	twice, err := sqlbuilder.Sanitize(once, ctx)
	require.NoError(t, err)
	assert.Equal(t, once, twice, "净化必须幂等")
}

package sqlbuilder_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestDetectShape(t *testing.T) {
	cases := []struct {
		text string
		agg  sqlbuilder.Aggregation
		dim  sqlbuilder.GroupDimension
		topN int
		asc  bool
	}{
		{"2024年总收入多少", sqlbuilder.AggSum, sqlbuilder.DimNone, 0, false},
		{"平均充电电量是多少", sqlbuilder.AggAvg, sqlbuilder.DimNone, 0, false},
		{"2024年充电次数", sqlbuilder.AggCount, sqlbuilder.DimNone, 0, false},
		{"单笔最大充电费用", sqlbuilder.AggMax, sqlbuilder.DimNone, 0, false},
		{"哪一天收入最多", sqlbuilder.AggGroupTop, sqlbuilder.DimDate, 1, false},
		{"收入最少的3个月", sqlbuilder.AggGroupTop, sqlbuilder.DimMonth, 3, true},
		{"2024年每个月的充电收入", sqlbuilder.AggGroupTop, sqlbuilder.DimMonth, 0, false},
	}
	for _, c := range cases {
		shape, ok := sqlbuilder.DetectShape(c.text)
		require.True(t, ok, "应识别出聚合形态: %s", c.text)
		assert.Equal(t, c.agg, shape.Agg, c.text)
		assert.Equal(t, c.dim, shape.Dim, c.text)
		assert.Equal(t, c.topN, shape.TopN, c.text)
		assert.Equal(t, c.asc, shape.Ascending, c.text)
	}
}

func TestDetectShapeUnclassified(t *testing.T) {
	_, ok := sqlbuilder.DetectShape("介绍一下特来电的数据")
	assert.False(t, ok)
}

func TestRenderScalarSingleSource(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian},
		Text:      "2024年特来电总收入多少",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT ISNULL(SUM([充电费用(元)]), 0) AS 总计 FROM [特来电] "+
		"WHERE [充电费用(元)] IS NOT NULL AND [充电费用(元)] > 0 AND "+
		"[充电结束时间] >= '2024-01-01' AND [充电结束时间] <= '2024-12-31 23:59:59'", sql)
}

func TestRenderMetricFollowsQuestion(t *testing.T) {
	// 问电量就聚合电量列，绝不能落回默认的收入口径
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian},
		Text:      "2024年特来电充电电量是多少",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "[充电电量(度)]")
	assert.NotContains(t, sql, "充电费用")
}

func TestRenderMetricPerTable(t *testing.T) {
	// 同一个指标在每张表上独立解析成各自的列
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian, catalog.TableNengKe},
		Text:      "2024年充电电量是多少",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "[充电电量(度)]", "特来电的电量列")
	assert.Contains(t, sql, "[充电量]", "能科的电量列")
}

func TestRenderScalarUnionOuterSum(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian, catalog.TableNengKe},
		Text:      "2024年充电总收入",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "SELECT SUM(总计) AS 总计 FROM ("),
		"多表必须外层再聚合: %s", sql)
	assert.Contains(t, sql, " UNION ALL ")
	assert.Contains(t, sql, "[特来电]")
	assert.Contains(t, sql, "[能科]")
	assert.NotContains(t, sql, "JOIN", "多表合并绝不做表间JOIN")
}

func TestRenderScalarSitePredicate(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian},
		Text:      "高岭2024年特来电收入",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
		Meta:      tableresolver.Metadata{Gaoling: true},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "LIKE '%华为飞狐特来电高岭超充站%'")
}

func TestRenderNumericStringGuards(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableDiDi},
		Text:      "2025年12月滴滴收入",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2025年12月", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "CAST(LTRIM(RTRIM([订单总额（元）])) AS FLOAT)")
	assert.Contains(t, sql, "ISNUMERIC(LTRIM(RTRIM([订单总额（元）]))) = 1")
}

func TestRenderCount(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian},
		Text:      "2024年特来电订单数量",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggCount},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "COUNT([订单编号]) AS 次数")
}

func TestRenderCountUnionOuterSum(t *testing.T) {
	// 多表计数的外层是SUM：次数的合计而不是计数的计数
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian, catalog.TableNengKe},
		Text:      "2024年充电订单数量",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggCount},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "SELECT SUM(次数) AS 次数 FROM ("), sql)
}

func TestRenderGroupedMonthly(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian},
		Text:      "2024年每个月的特来电收入",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggGroupTop, Dim: sqlbuilder.DimMonth},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "CONVERT(VARCHAR(7), [充电结束时间], 120)")
	assert.Contains(t, sql, "GROUP BY 月份 ORDER BY 总计 DESC")
}

func TestRenderGroupedTopN(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources: []string{catalog.TableTeLaiDian},
		Text:    "2024年特来电收入最多的5天",
		Shape: sqlbuilder.Shape{
			Agg: sqlbuilder.AggGroupTop, Dim: sqlbuilder.DimDate, TopN: 5,
		},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT TOP 5 日期")
	assert.Contains(t, sql, "CAST([充电结束时间] AS DATE)")
}

func TestRenderTerminalGroup(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources: []string{catalog.TableTeLaiDian},
		Text:    "2024年哪把枪充电电量最多",
		Shape: sqlbuilder.Shape{
			Agg: sqlbuilder.AggGroupTop, Dim: sqlbuilder.DimTerminal, TopN: 1,
		},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "TOP 1 电站名称, 终端名称",
		"终端唯一标识必须是电站+终端两列")
	assert.Contains(t, sql, "GROUP BY 电站名称, 终端名称")
}

func TestRenderTerminalSkipsTableWithoutTerminal(t *testing.T) {
	_, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableNengKe},
		Text:      "2024年哪把枪充电电量最多",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggGroupTop, Dim: sqlbuilder.DimTerminal},
		TimeRange: timeparse.Parse("2024年", now),
	})
	assert.ErrorIs(t, err, sqlbuilder.ErrNoNumericField)
}

func TestRenderCompositeTimePredicate(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableDianLiJu},
		Text:      "2024年电力局电费金额",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "([年份] * 100 + [月份]) BETWEEN 202401 AND 202412")
}

func TestRenderSingleDayPredicate(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian},
		Text:      "2024年12月13日特来电收入",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年12月13日", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "CAST([充电结束时间] AS DATE) = '2024-12-13'")
}

func TestRenderStatusFilter(t *testing.T) {
	sql, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   []string{catalog.TableShouQianBa},
		Text:      "2024年收钱吧收入",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "[交易状态] = '成功'")
}

func TestRenderIdempotent(t *testing.T) {
	plan := sqlbuilder.Plan{
		Sources:   []string{catalog.TableTeLaiDian, catalog.TableNengKe},
		Text:      "2024年充电收入",
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: timeparse.Parse("2024年", now),
	}
	a, err := sqlbuilder.Render(plan)
	require.NoError(t, err)
	b, err := sqlbuilder.Render(plan)
	require.NoError(t, err)
	assert.Equal(t, a, b, "同一个计划两次渲染必须逐字节相同")
}

package formula_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/formula"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// newRequest 按对话服务的流程组装公式输入
func newRequest(text string, meta tableresolver.Metadata) formula.Request {
	tr := timeparse.Parse(text, now)
	resolved := append([]string(nil), catalog.ChargingSources...)
	return formula.Request{
		Text:      text,
		Now:       now,
		TimeRange: tr,
		Sources:   tableresolver.FilterAvailable(resolved, tr, nil),
		Resolved:  resolved,
		Meta:      meta,
	}
}

func TestDetectPriority(t *testing.T) {
	cases := []struct {
		text string
		id   string
	}{
		{"2025年对比2024年充电收入增长率", "growth_rate"},
		{"2025年对比2024年的充电收入", "period_compare"},
		{"2024年的毛利是多少", "gross_margin"},
		{"2024年电损多少", "energy_loss"},
		{"2025年平均每把枪的充电收入", "per_gun_avg"},
		{"2024年每度电的服务费", "per_kwh_avg"},
	}
	for _, c := range cases {
		f, ok := formula.Detect(c.text)
		require.True(t, ok, c.text)
		assert.Equal(t, c.id, f.ID, c.text)
	}

	_, ok := formula.Detect("2024年总收入多少")
	assert.False(t, ok, "普通聚合不应命中公式库")
}

func TestGrowthRateHasTwoColumns(t *testing.T) {
	req := newRequest("2025年对比2024年充电收入增长率", tableresolver.Metadata{})
	f, ok := formula.Detect(req.Text)
	require.True(t, ok)

	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "AS 增减量")
	assert.Contains(t, sql, "AS [增长率(%)]")
	assert.Contains(t, sql, "CASE WHEN b.v > 0", "基数为0时百分比按0处理")
}

func TestPeriodCompareDeltaOnly(t *testing.T) {
	req := newRequest("2025年对比2024年的充电收入", tableresolver.Metadata{})
	f, ok := formula.Detect(req.Text)
	require.True(t, ok)

	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "AS 增减量")
	assert.NotContains(t, sql, "增长率", "普通对比只返回增减量")
	assert.Contains(t, sql, "CROSS JOIN")
}

func TestComparePeriodsFilteredIndependently(t *testing.T) {
	// 2025年侧只有特来电+滴滴，2024年侧只有特来电+能科
	req := newRequest("2025年对比2024年的充电收入", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "[滴滴]")
	assert.Contains(t, sql, "[能科]")
}

func TestCompareNeedsTwoPeriods(t *testing.T) {
	req := newRequest("对比一下充电收入", tableresolver.Metadata{})
	f, ok := formula.Detect(req.Text)
	require.True(t, ok)

	_, err := f.Build(req)
	assert.ErrorIs(t, err, formula.ErrNeedTwoPeriods)
}

func TestPerGunAverageAllSites(t *testing.T) {
	req := newRequest("2025年平均每把枪的充电收入", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	// 2025年365天，全站178把枪
	assert.Contains(t, sql, "/ 365.0 / 178 AS 平均值")
}

func TestPerGunAverageSifangping(t *testing.T) {
	req := newRequest("2025年四方坪平均每把枪的充电收入", tableresolver.Metadata{Sifangping: true})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "/ 365.0 / 142 AS 平均值", "四方坪2025年备案142把枪")
}

func TestPerGunAverageNeedsTimeRange(t *testing.T) {
	req := newRequest("平均每把枪的充电收入", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	_, err := f.Build(req)
	assert.ErrorIs(t, err, formula.ErrNeedTimeRange)
}

func TestPerKwhSingleScan(t *testing.T) {
	req := newRequest("2024年每度电的充电服务费", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "AS 金额")
	assert.Contains(t, sql, "AS 电量")
	assert.Contains(t, sql, "SUM(金额) / NULLIF(SUM(电量), 0)",
		"分子分母同一次扫描，外层相除")
}

func TestMarginTotal(t *testing.T) {
	req := newRequest("2024年的毛利是多少", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "AS 毛利")
	assert.Contains(t, sql, "[电力局]")
	assert.Contains(t, sql, "([年份] * 100 + [月份]) BETWEEN 202401 AND 202412")
}

func TestMarginMonthlyLeftJoin(t *testing.T) {
	req := newRequest("2024年每月的毛利", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "LEFT JOIN")
	assert.Contains(t, sql, "ISNULL(c.电费成本, 0)", "缺失月份的成本按0计")
}

func TestLossTotal(t *testing.T) {
	req := newRequest("2024年的损耗是多少", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "AS 损耗")
	assert.Contains(t, sql, "[用电量]")
}

func TestLossDailyAverageUsesMonthDays(t *testing.T) {
	req := newRequest("2024年日均损耗", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	sql, err := f.Build(req)
	require.NoError(t, err)
	assert.Contains(t, sql, "DATEDIFF(DAY,", "2008方言下月天数用DATEADD/DATEDIFF推")
	assert.Contains(t, sql, "AS 日均损耗")
}

func TestFormulaIdempotent(t *testing.T) {
	req := newRequest("2024年的毛利是多少", tableresolver.Metadata{})
	f, _ := formula.Detect(req.Text)
	a, err := f.Build(req)
	require.NoError(t, err)
	b, err := f.Build(req)
	require.NoError(t, err)
	assert.Equal(t, a, b, "同一个请求两次构建必须逐字节相同")
}

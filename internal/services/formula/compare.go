package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

// 期间对比与增长率：
//   对比只返回增减量（一个标量，省一次除法和两列输出）
//   增长率返回增减量和百分比
// 两个期间各自做有效期过滤——2025年和2024年可用的充电表
// 并不相同，算式形态随之变化

// ErrNeedTwoPeriods 对比类问题必须能解析出两个时间期间
var ErrNeedTwoPeriods = errors.New("对比查询需要两个明确的时间期间，例如\"2025年对比2024年\"")

var compareSplitters = []string{"对比", "相比于", "相比", "比较", "环比", "同比"}

func matchGrowthRate(text string) bool {
	return strings.Contains(text, "增长率") || strings.Contains(text, "增幅") ||
		strings.Contains(text, "增长百分比") || strings.Contains(text, "下降率")
}

func matchPeriodCompare(text string) bool {
	for _, s := range compareSplitters {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// extractPeriods 把问题按对比词切成两半，各自解析时间范围
// "2025年对比2024年" / "今年对比去年" 都走同一条路
func extractPeriods(req Request) (timeparse.TimeRange, timeparse.TimeRange, error) {
	for _, s := range compareSplitters {
		idx := strings.Index(req.Text, s)
		if idx < 0 {
			continue
		}
		left := timeparse.Parse(req.Text[:idx], req.Now)
		right := timeparse.Parse(req.Text[idx+len(s):], req.Now)
		if left.HasTime && right.HasTime {
			return left, right, nil
		}
	}
	return timeparse.TimeRange{}, timeparse.TimeRange{}, ErrNeedTwoPeriods
}

// periodScalarSum 指定期间内解析表集合的合计表达式
// 解析结果逐期间重新过滤有效期
func periodScalarSum(req Request, tr timeparse.TimeRange) (string, error) {
	tables := req.Resolved
	if len(tables) == 0 {
		tables = catalog.ChargingSources
	}
	tables = tableresolver.FilterAvailable(tables, tr, req.Windows)
	if len(tables) == 0 {
		return "", ErrNoChargingSource
	}

	var parts []string
	for _, name := range tables {
		src, ok := catalog.Get(name)
		if !ok {
			continue
		}
		_, fm, err := tableresolver.ResolveField(src, req.Text)
		if err != nil {
			continue
		}
		where := sqlbuilder.SourceWhere(src, fm, tr, req.Meta)
		parts = append(parts, fmt.Sprintf("(SELECT %s FROM %s %s)",
			sqlbuilder.SumExpr(fm), sqlbuilder.Bracket(src.Name), where))
	}
	if len(parts) == 0 {
		return "", ErrNoChargingSource
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " + ") + ")", nil
}

// buildPeriodCompare 增减量 = 前一期间合计 − 后一期间合计
func buildPeriodCompare(req Request) (string, error) {
	first, second, err := extractPeriods(req)
	if err != nil {
		return "", err
	}
	a, err := periodScalarSum(req, first)
	if err != nil {
		return "", err
	}
	b, err := periodScalarSum(req, second)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT a.v - b.v AS 增减量 FROM (SELECT %s AS v) AS a CROSS JOIN (SELECT %s AS v) AS b",
		a, b), nil
}

// buildGrowthRate 在增减量之外多算一个百分比，基数为0时百分比按0处理
func buildGrowthRate(req Request) (string, error) {
	first, second, err := extractPeriods(req)
	if err != nil {
		return "", err
	}
	a, err := periodScalarSum(req, first)
	if err != nil {
		return "", err
	}
	b, err := periodScalarSum(req, second)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT a.v - b.v AS 增减量, "+
			"CASE WHEN b.v > 0 THEN (a.v - b.v) * 100.0 / b.v ELSE 0 END AS [增长率(%%)] "+
			"FROM (SELECT %s AS v) AS a CROSS JOIN (SELECT %s AS v) AS b",
		a, b), nil
}

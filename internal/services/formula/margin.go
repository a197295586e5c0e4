package formula

import (
	"fmt"
	"strings"
)

// 毛利 = 充电收入（存活充电表合计，按时间和站点过滤）
//      − 同期电力局电费成本
// 支持：单期合计、按月明细（可排名）、按年明细、月均、日均

func matchMargin(text string) bool {
	return strings.Contains(text, "毛利")
}

func buildMargin(req Request) (string, error) {
	switch detectBreakdown(req.Text) {
	case shapeMonthly:
		return marginBreakdown(req, true)
	case shapeYearly:
		return marginBreakdown(req, false)
	case shapeAvgMonth:
		return marginAverage(req, "月")
	case shapeAvgDay:
		return marginAverage(req, "日")
	default:
		return marginTotal(req)
	}
}

func marginTotal(req Request) (string, error) {
	revenue, err := chargingScalarSum(req, "收入", req.TimeRange)
	if err != nil {
		return "", err
	}
	cost := utilityScalarSum("电费金额", req.TimeRange)
	return fmt.Sprintf("SELECT %s - %s AS 毛利", revenue, cost), nil
}

// marginBreakdown 按月/按年展开：充电收入分组后与电力局成本
// 按周期键LEFT JOIN，缺失月份的成本按0计
func marginBreakdown(req Request, monthly bool) (string, error) {
	union, err := chargingPeriodUnion(req, "收入", monthly)
	if err != nil {
		return "", err
	}
	alias := "年份"
	if monthly {
		alias = "月份"
	}
	cost := utilityPeriodQuery("电费金额", req.TimeRange, monthly, "电费成本", "")

	top, order := rankClause(req, "毛利")
	if order == "" {
		order = "ORDER BY r." + alias
	}
	return fmt.Sprintf(
		"SELECT %sr.%s, r.充电收入 - ISNULL(c.电费成本, 0) AS 毛利 "+
			"FROM (SELECT %s, SUM(数值) AS 充电收入 FROM (%s) AS m GROUP BY %s) AS r "+
			"LEFT JOIN (%s) AS c ON r.%s = c.%s %s",
		top, alias, alias, union, alias, cost, alias, alias, order), nil
}

// marginAverage 月均/日均毛利：期间总毛利除以期间的月数/天数
// 天数按实际日历计算，闰年2月是29天
func marginAverage(req Request, unit string) (string, error) {
	if !req.TimeRange.HasTime {
		return "", ErrNeedTimeRange
	}
	revenue, err := chargingScalarSum(req, "收入", req.TimeRange)
	if err != nil {
		return "", err
	}
	cost := utilityScalarSum("电费金额", req.TimeRange)

	divisor := req.TimeRange.MonthCount()
	alias := "月平均毛利"
	if unit == "日" {
		divisor = req.TimeRange.Days()
		alias = "日平均毛利"
	}
	if divisor <= 0 {
		return "", ErrNeedTimeRange
	}
	return fmt.Sprintf("SELECT (%s - %s) / %d.0 AS %s", revenue, cost, divisor, alias), nil
}

package formula

import (
	"fmt"
	"strings"
)

// 损耗 = 电力局计量用电量 − 充电表计费电量合计
// 电力局数据只有月粒度，"日均损耗"只能按月总量÷当月天数退化计算，
// 这是数据本身的结构限制而不是算法问题

func matchLoss(text string) bool {
	return strings.Contains(text, "损耗") || strings.Contains(text, "电损")
}

func buildLoss(req Request) (string, error) {
	switch detectBreakdown(req.Text) {
	case shapeMonthly:
		return lossBreakdown(req, true)
	case shapeYearly:
		return lossBreakdown(req, false)
	case shapeAvgMonth:
		return lossAvgMonth(req)
	case shapeAvgDay:
		return lossAvgDay(req)
	default:
		return lossTotal(req)
	}
}

func lossTotal(req Request) (string, error) {
	charged, err := chargingScalarSum(req, "充电电量", req.TimeRange)
	if err != nil {
		return "", err
	}
	metered := utilityScalarSum("用电量", req.TimeRange)
	return fmt.Sprintf("SELECT %s - %s AS 损耗", metered, charged), nil
}

// lossBreakdown 以电力局月度/年度计量为基准，
// LEFT JOIN充电侧合计，充电侧缺失的周期按0计
func lossBreakdown(req Request, monthly bool) (string, error) {
	union, err := chargingPeriodUnion(req, "充电电量", monthly)
	if err != nil {
		return "", err
	}
	alias := "年份"
	if monthly {
		alias = "月份"
	}
	metered := utilityPeriodQuery("用电量", req.TimeRange, monthly, "用电量", "")

	top, order := rankClause(req, "损耗")
	if order == "" {
		order = "ORDER BY c." + alias
	}
	return fmt.Sprintf(
		"SELECT %sc.%s, c.用电量 - ISNULL(r.充电电量, 0) AS 损耗 "+
			"FROM (%s) AS c "+
			"LEFT JOIN (SELECT %s, SUM(数值) AS 充电电量 FROM (%s) AS m GROUP BY %s) AS r ON c.%s = r.%s %s",
		top, alias, metered, alias, union, alias, alias, alias, order), nil
}

func lossAvgMonth(req Request) (string, error) {
	if !req.TimeRange.HasTime {
		return "", ErrNeedTimeRange
	}
	charged, err := chargingScalarSum(req, "充电电量", req.TimeRange)
	if err != nil {
		return "", err
	}
	metered := utilityScalarSum("用电量", req.TimeRange)
	months := req.TimeRange.MonthCount()
	if months <= 0 {
		return "", ErrNeedTimeRange
	}
	return fmt.Sprintf("SELECT (%s - %s) / %d.0 AS 月平均损耗", metered, charged, months), nil
}

// lossAvgDay 日均损耗：逐月输出"当月损耗÷当月天数"
// 不是真实的逐日数字，见文件头的说明
func lossAvgDay(req Request) (string, error) {
	if !req.TimeRange.HasTime {
		return "", ErrNeedTimeRange
	}
	union, err := chargingPeriodUnion(req, "充电电量", true)
	if err != nil {
		return "", err
	}
	metered := utilityPeriodQuery("用电量", req.TimeRange, true, "用电量",
		monthDayCountExpr()+" AS 天数")
	return fmt.Sprintf(
		"SELECT c.月份, (c.用电量 - ISNULL(r.充电电量, 0)) / c.天数 AS 日均损耗 "+
			"FROM (%s) AS c "+
			"LEFT JOIN (SELECT 月份, SUM(数值) AS 充电电量 FROM (%s) AS m GROUP BY 月份) AS r ON c.月份 = r.月份 "+
			"ORDER BY c.月份",
		metered, union), nil
}

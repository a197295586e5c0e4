package formula

import (
	"fmt"
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
)

// 单位均值类公式：
//   平均每把枪 = 合计 ÷ 期间天数(或月数) ÷ 枪数
//   平均每度电 = 合计 ÷ 充电量合计（每表一次扫描同时算分子分母）
// 枪数取自按年备案的固定台账，不做实时COUNT——设备台账
// 与交易流水不同步，实时计数会把测试桩和停用桩都算进去

func matchPerGun(text string) bool {
	return strings.Contains(text, "每把枪") || strings.Contains(text, "每个枪") ||
		strings.Contains(text, "每支枪") || strings.Contains(text, "单枪")
}

func buildPerGun(req Request) (string, error) {
	if !req.TimeRange.HasTime {
		return "", ErrNeedTimeRange
	}

	total, err := chargingScalarSum(req, req.Text, req.TimeRange)
	if err != nil {
		return "", err
	}

	// 默认按天均摊；问题明确"每月"时按月
	divisor := req.TimeRange.Days()
	if strings.Contains(req.Text, "每月") || strings.Contains(req.Text, "每个月") {
		divisor = req.TimeRange.MonthCount()
	}
	if divisor <= 0 {
		return "", ErrNeedTimeRange
	}

	guns := catalog.GunCount(req.Meta.Site(), req.TimeRange.Start.Year())
	if guns <= 0 {
		return "", fmt.Errorf("站点[%s]在%d年没有枪数备案记录",
			req.Meta.Site(), req.TimeRange.Start.Year())
	}

	return fmt.Sprintf("SELECT %s / %d.0 / %d AS 平均值", total, divisor, guns), nil
}

func matchPerKwh(text string) bool {
	return strings.Contains(text, "每度电") || strings.Contains(text, "每一度电")
}

// buildPerKwh 每表一条SELECT同时聚合分子和电量，UNION后在外层相除，
// 避免对同一张大表扫两遍
func buildPerKwh(req Request) (string, error) {
	tables := chargingSourcesFor(req, req.TimeRange)
	if len(tables) == 0 {
		return "", ErrNoChargingSource
	}

	var parts []string
	for _, name := range tables {
		src, ok := catalog.Get(name)
		if !ok {
			continue
		}
		_, metric, err := tableresolver.ResolveField(src, req.Text)
		if err != nil {
			continue
		}
		energy, ok := src.Fields["充电电量"]
		if !ok {
			continue
		}
		guards := append(sqlbuilder.Guards(metric), sqlbuilder.Guards(energy)...)
		where := sqlbuilder.WhereClause(append(guards,
			sqlbuilder.TimePredicate(src.Time, req.TimeRange),
			src.StatusFilter,
			sqlbuilder.SitePredicate(src, req.Meta))...)
		parts = append(parts, fmt.Sprintf("SELECT %s AS 金额, %s AS 电量 FROM %s %s",
			sqlbuilder.SumExpr(metric), sqlbuilder.SumExpr(energy),
			sqlbuilder.Bracket(src.Name), where))
	}
	if len(parts) == 0 {
		return "", ErrNoChargingSource
	}

	union := strings.Join(parts, " UNION ALL ")
	return fmt.Sprintf(
		"SELECT SUM(金额) / NULLIF(SUM(电量), 0) AS 度电平均 FROM (%s) AS combined", union), nil
}

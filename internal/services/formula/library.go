package formula

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

// 公式库：毛利、损耗、单枪均值、度电均值、期间对比等
// 跨表业务计算。每个公式是一个固定算式模板，由词面特征触发，
// 消费的是已经过有效期过滤的表集合——同一个公式在不同时间范围下
// 可能是两表求和也可能是三表求和。

// Request 公式构建的全部输入
// 同样的Request两次构建必须得到逐字节相同的SQL
type Request struct {
	Text      string
	Now       time.Time
	TimeRange timeparse.TimeRange

	// Sources 有效期过滤后的表集合
	Sources []string
	// Resolved 过滤前的解析结果（期间对比按各自期间重新过滤）
	Resolved []string

	Meta      tableresolver.Metadata
	Windows   tableresolver.Windows
	TopN      int
	Ascending bool
}

// Formula 一个命名的跨表计算模板
type Formula struct {
	ID    string
	Build func(req Request) (string, error)
}

// ErrNeedTimeRange 均值类公式必须有明确的时间范围才能确定除数
var ErrNeedTimeRange = errors.New("该查询需要指定时间范围，例如\"2025年\"或\"2025年3月\"")

// ErrNoChargingSource 公式涉及充电数据但过滤后没有剩余充电表
var ErrNoChargingSource = errors.New("所选时间范围内没有可用的充电数据表")

// detectors 触发词检查按优先级排列：
// 增长率要先于"对比"判断，否则会被当成普通期间对比
var detectors = []struct {
	id    string
	match func(text string) bool
	build func(req Request) (string, error)
}{
	{"growth_rate", matchGrowthRate, buildGrowthRate},
	{"period_compare", matchPeriodCompare, buildPeriodCompare},
	{"gross_margin", matchMargin, buildMargin},
	{"energy_loss", matchLoss, buildLoss},
	{"per_gun_avg", matchPerGun, buildPerGun},
	{"per_kwh_avg", matchPerKwh, buildPerKwh},
}

// Detect 判断问题是否命中某个公式
func Detect(text string) (*Formula, bool) {
	for _, d := range detectors {
		if d.match(text) {
			return &Formula{ID: d.id, Build: d.build}, true
		}
	}
	return nil, false
}

// breakdown 公式内部的展开形态
type breakdown int

const (
	shapeTotal breakdown = iota
	shapeMonthly
	shapeYearly
	shapeAvgMonth
	shapeAvgDay
)

// detectBreakdown 识别公式的展开形态
func detectBreakdown(text string) breakdown {
	avg := strings.Contains(text, "平均") || strings.Contains(text, "月均") || strings.Contains(text, "日均")
	switch {
	case avg && (strings.Contains(text, "每月") || strings.Contains(text, "每个月") || strings.Contains(text, "月均")):
		return shapeAvgMonth
	case avg && (strings.Contains(text, "每天") || strings.Contains(text, "每日") || strings.Contains(text, "日均")):
		return shapeAvgDay
	case strings.Contains(text, "每月") || strings.Contains(text, "每个月") ||
		strings.Contains(text, "月度") || strings.Contains(text, "按月") || strings.Contains(text, "哪个月"):
		return shapeMonthly
	case strings.Contains(text, "每年") || strings.Contains(text, "年度") ||
		strings.Contains(text, "按年") || strings.Contains(text, "哪一年") || strings.Contains(text, "哪年"):
		return shapeYearly
	}
	return shapeTotal
}

// chargingSources 求公式实际使用的充电表集合
func chargingSources(req Request) []string {
	var out []string
	for _, name := range req.Sources {
		for _, c := range catalog.ChargingSources {
			if name == c {
				out = append(out, name)
			}
		}
	}
	if len(out) == 0 {
		// 公式触发时问题未必点名充电表，按站点默认全部充电表再过滤
		out = tableresolver.FilterAvailable(
			append([]string(nil), catalog.ChargingSources...), req.TimeRange, req.Windows)
		if req.Meta.Gaoling {
			out = intersect(out, []string{catalog.TableTeLaiDian})
		}
	}
	return out
}

// chargingScalarSum 充电表逐表标量子查询求和表达式：
// ((SELECT ... FROM [特来电] ...) + (SELECT ... FROM [能科] ...))
func chargingScalarSum(req Request, keyword string, tr timeparse.TimeRange) (string, error) {
	tables := chargingSourcesFor(req, tr)
	if len(tables) == 0 {
		return "", ErrNoChargingSource
	}
	var parts []string
	for _, name := range tables {
		src, ok := catalog.Get(name)
		if !ok {
			continue
		}
		_, fm, err := tableresolver.ResolveField(src, keyword)
		if err != nil {
			continue
		}
		where := sqlbuilder.SourceWhere(src, fm, tr, req.Meta)
		parts = append(parts,
			fmt.Sprintf("(SELECT %s FROM %s %s)", sqlbuilder.SumExpr(fm), sqlbuilder.Bracket(src.Name), where))
	}
	if len(parts) == 0 {
		return "", ErrNoChargingSource
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " + ") + ")", nil
}

// chargingSourcesFor 按指定时间范围重新做有效期过滤
// （期间对比的两个期间各自过滤）
func chargingSourcesFor(req Request, tr timeparse.TimeRange) []string {
	base := chargingSources(req)
	return tableresolver.FilterAvailable(base, tr, req.Windows)
}

// utilityScalarSum 电力局账单的标量子查询
func utilityScalarSum(keyword string, tr timeparse.TimeRange) string {
	src := catalog.MustGet(catalog.TableDianLiJu)
	fm := src.Fields[keyword]
	where := sqlbuilder.WhereClause(
		append(sqlbuilder.Guards(fm), sqlbuilder.TimePredicate(src.Time, tr))...)
	return fmt.Sprintf("(SELECT %s FROM %s %s)",
		sqlbuilder.SumExpr(fm), sqlbuilder.Bracket(src.Name), where)
}

// chargingMonthlyUnion 充电表按周期键分组的UNION子查询体
// dim只允许月/年两种键
func chargingPeriodUnion(req Request, keyword string, monthly bool) (string, error) {
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
		_, fm, err := tableresolver.ResolveField(src, keyword)
		if err != nil {
			continue
		}
		key := sqlbuilder.YearExpr(src.Time)
		alias := "年份"
		if monthly {
			key = sqlbuilder.MonthKeyExpr(src.Time)
			alias = "月份"
		}
		where := sqlbuilder.SourceWhere(src, fm, req.TimeRange, req.Meta)
		parts = append(parts, fmt.Sprintf("SELECT %s AS %s, %s AS 数值 FROM %s %s GROUP BY %s",
			key, alias, sqlbuilder.SumExpr(fm), sqlbuilder.Bracket(src.Name), where, key))
	}
	if len(parts) == 0 {
		return "", ErrNoChargingSource
	}
	return strings.Join(parts, " UNION ALL "), nil
}

// utilityPeriodQuery 电力局按周期键分组的子查询
// extraCols 追加的选择列（如天数），必须只引用年份/月份两列
func utilityPeriodQuery(keyword string, tr timeparse.TimeRange, monthly bool, valueAlias string, extraCols string) string {
	src := catalog.MustGet(catalog.TableDianLiJu)
	fm := src.Fields[keyword]
	key := sqlbuilder.YearExpr(src.Time)
	alias := "年份"
	group := sqlbuilder.Bracket(src.Time.YearColumn)
	if monthly {
		key = sqlbuilder.MonthKeyExpr(src.Time)
		alias = "月份"
		group = sqlbuilder.Bracket(src.Time.YearColumn) + ", " + sqlbuilder.Bracket(src.Time.MonthColumn)
	}
	where := sqlbuilder.WhereClause(
		append(sqlbuilder.Guards(fm), sqlbuilder.TimePredicate(src.Time, tr))...)
	cols := fmt.Sprintf("%s AS %s, %s AS %s", key, alias, sqlbuilder.SumExpr(fm), valueAlias)
	if extraCols != "" {
		cols += ", " + extraCols
	}
	return fmt.Sprintf("SELECT %s FROM %s %s GROUP BY %s",
		cols, sqlbuilder.Bracket(src.Name), where, group)
}

// monthDayCountExpr 电力局行对应月份的天数表达式
// 2008方言没有EOMONTH，用DATEADD/DATEDIFF从年月整数推出月界
func monthDayCountExpr() string {
	monthStart := "DATEADD(MONTH, ([年份] - 1900) * 12 + [月份] - 1, 0)"
	nextStart := "DATEADD(MONTH, ([年份] - 1900) * 12 + [月份], 0)"
	return fmt.Sprintf("DATEDIFF(DAY, %s, %s)", monthStart, nextStart)
}

// rankClause 排名修饰：TOP N + 方向
func rankClause(req Request, orderCol string) (string, string) {
	top := ""
	if req.TopN > 0 {
		top = fmt.Sprintf("TOP %d ", req.TopN)
	}
	direction := "DESC"
	if req.Ascending {
		direction = "ASC"
	}
	if req.TopN == 0 {
		// 无排名诉求时按周期正序输出
		return "", ""
	}
	return top, fmt.Sprintf("ORDER BY %s %s", orderCol, direction)
}

func intersect(a, b []string) []string {
	var out []string
	for _, x := range a {
		for _, y := range b {
			if x == y {
				out = append(out, x)
			}
		}
	}
	return out
}

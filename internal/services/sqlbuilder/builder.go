package sqlbuilder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

// Aggregation 聚合形态
type Aggregation string

const (
	AggSum      Aggregation = "sum"
	AggAvg      Aggregation = "avg"
	AggMax      Aggregation = "max"
	AggMin      Aggregation = "min"
	AggCount    Aggregation = "count"
	AggGroupTop Aggregation = "groupTopN"
)

// GroupDimension 分组维度
type GroupDimension string

const (
	DimNone     GroupDimension = ""
	DimDate     GroupDimension = "date"
	DimMonth    GroupDimension = "month"
	DimYear     GroupDimension = "year"
	DimTerminal GroupDimension = "terminal"
)

// Shape 从问题文本中识别出的聚合形态
type Shape struct {
	Agg       Aggregation
	Dim       GroupDimension
	TopN      int
	Ascending bool
}

// Plan 一次查询的完整执行计划：每个请求构建一次、用完即弃
type Plan struct {
	Sources []string
	// Text 问题原文，各表的指标字段从中按关键词解析；
	// 空串或解析不出时退回该表默认口径
	Text      string
	Shape     Shape
	TimeRange timeparse.TimeRange
	Meta      tableresolver.Metadata
}

// ErrUnclassified 表示规则无法确定聚合形态，交给模型兜底
var ErrUnclassified = errors.New("无法识别查询的聚合方式")

// ErrNoNumericField 计划中所有表都解析不出可聚合字段
var ErrNoNumericField = errors.New("所有相关表都无法解析出查询字段")

// DetectShape 从词面线索识别聚合形态
// 分组/排名线索优先于普通聚合词，
// "最少/最低/最小"出现时排名方向为升序
func DetectShape(text string) (Shape, bool) {
	asc := strings.Contains(text, "最少") || strings.Contains(text, "最低") || strings.Contains(text, "最小")

	if dim, ok := detectDimension(text); ok {
		shape := Shape{Agg: AggGroupTop, Dim: dim, Ascending: asc}
		if n, ok := timeparse.ExtractTopN(text); ok {
			shape.TopN = n
		} else if isPickOne(text) {
			shape.TopN = 1
		}
		return shape, true
	}

	switch {
	case strings.Contains(text, "次数") || strings.Contains(text, "个数") || strings.Contains(text, "多少次"):
		return Shape{Agg: AggCount}, true
	case strings.Contains(text, "最大") || strings.Contains(text, "最高"):
		return Shape{Agg: AggMax}, true
	case strings.Contains(text, "最小") || strings.Contains(text, "最低"):
		return Shape{Agg: AggMin}, true
	case strings.Contains(text, "平均"):
		return Shape{Agg: AggAvg}, true
	case strings.Contains(text, "总") || strings.Contains(text, "合计") || strings.Contains(text, "多少"):
		return Shape{Agg: AggSum}, true
	}
	return Shape{}, false
}

// detectDimension 识别分组维度
func detectDimension(text string) (GroupDimension, bool) {
	switch {
	case strings.Contains(text, "哪把枪") || strings.Contains(text, "哪个终端") ||
		strings.Contains(text, "哪个枪") || strings.Contains(text, "每把枪排"):
		return DimTerminal, true
	case strings.Contains(text, "哪一天") || strings.Contains(text, "哪天") ||
		strings.Contains(text, "每天") || strings.Contains(text, "每日"):
		return DimDate, true
	case strings.Contains(text, "哪个月") || strings.Contains(text, "哪一个月") ||
		strings.Contains(text, "哪一月") || strings.Contains(text, "每月") ||
		strings.Contains(text, "每个月"):
		return DimMonth, true
	case strings.Contains(text, "哪一年") || strings.Contains(text, "哪年") ||
		strings.Contains(text, "每年"):
		return DimYear, true
	}
	// "最多的5天"这类排名线索自带维度
	if n, ok := timeparse.ExtractTopN(text); ok && n > 0 {
		switch {
		case strings.Contains(text, "天"):
			return DimDate, true
		case strings.Contains(text, "月"):
			return DimMonth, true
		case strings.Contains(text, "年"):
			return DimYear, true
		case strings.Contains(text, "枪") || strings.Contains(text, "终端"):
			return DimTerminal, true
		}
	}
	return DimNone, false
}

// isPickOne "哪一天/哪个月最多"这类问题取TOP 1
func isPickOne(text string) bool {
	return strings.Contains(text, "哪")
}

// aggAlias 各聚合形态的结果列别名及外层再聚合函数
// 多表合并时先按表独立聚合，再对聚合结果做同型再聚合：
// 和的和、平均的平均、最大中的最大，绝不做表间JOIN
var aggAlias = map[Aggregation]struct {
	alias string
	inner string
	outer string
}{
	AggSum:   {"总计", "SUM", "SUM"},
	AggAvg:   {"平均值", "AVG", "AVG"},
	AggMax:   {"最大值", "MAX", "MAX"},
	AggMin:   {"最小值", "MIN", "MIN"},
	AggCount: {"次数", "COUNT", "SUM"},
}

// Render 把执行计划渲染成一条T-SQL
func Render(p Plan) (string, error) {
	if len(p.Sources) == 0 {
		return "", errors.New("执行计划没有任何数据表")
	}
	if p.Shape.Agg == AggGroupTop {
		return renderGrouped(p)
	}
	return renderScalar(p)
}

// renderScalar 渲染sum/avg/max/min/count：逐表聚合后UNION ALL，
// 多表时外层做同型再聚合
func renderScalar(p Plan) (string, error) {
	meta, ok := aggAlias[p.Shape.Agg]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnclassified, p.Shape.Agg)
	}

	var parts []string
	for _, name := range p.Sources {
		src, okSrc := catalog.Get(name)
		if !okSrc {
			continue
		}
		fm, err := metricFor(src, p.Text)
		if err != nil {
			continue
		}
		where := SourceWhere(src, fm, p.TimeRange, p.Meta)
		sel := fmt.Sprintf("SELECT %s AS %s FROM %s %s",
			AggExpr(meta.inner, fm), meta.alias, Bracket(src.Name), where)
		parts = append(parts, strings.TrimSpace(sel))
	}
	if len(parts) == 0 {
		return "", ErrNoNumericField
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	union := strings.Join(parts, " UNION ALL ")
	return fmt.Sprintf("SELECT %s(%s) AS %s FROM (%s) AS combined",
		meta.outer, meta.alias, meta.alias, union), nil
}

// renderGrouped 渲染分组排名查询
// 终端维度需要电站+终端两列组合成唯一标识
func renderGrouped(p Plan) (string, error) {
	if p.Shape.Dim == DimTerminal {
		return renderTerminalGroup(p)
	}

	dimAlias := map[GroupDimension]string{DimDate: "日期", DimMonth: "月份", DimYear: "年份"}[p.Shape.Dim]

	var parts []string
	for _, name := range p.Sources {
		src, okSrc := catalog.Get(name)
		if !okSrc {
			continue
		}
		fm, err := metricFor(src, p.Text)
		if err != nil {
			continue
		}
		dimExpr := dimensionExpr(src.Time, p.Shape.Dim)
		where := SourceWhere(src, fm, p.TimeRange, p.Meta)
		sel := fmt.Sprintf("SELECT %s AS %s, %s AS 数值 FROM %s %s GROUP BY %s",
			dimExpr, dimAlias, SumExpr(fm), Bracket(src.Name), where, dimExpr)
		parts = append(parts, strings.TrimSpace(sel))
	}
	if len(parts) == 0 {
		return "", ErrNoNumericField
	}

	direction := "DESC"
	if p.Shape.Ascending {
		direction = "ASC"
	}
	top := ""
	if p.Shape.TopN > 0 {
		top = fmt.Sprintf("TOP %d ", p.Shape.TopN)
	}

	union := strings.Join(parts, " UNION ALL ")
	return fmt.Sprintf("SELECT %s%s, SUM(数值) AS 总计 FROM (%s) AS combined GROUP BY %s ORDER BY 总计 %s",
		top, dimAlias, union, dimAlias, direction), nil
}

// renderTerminalGroup 终端/枪维度的分组排名
// 终端名称在不同电站间会重名，结果必须同时带电站和终端两列
func renderTerminalGroup(p Plan) (string, error) {
	var parts []string
	for _, name := range p.Sources {
		src, okSrc := catalog.Get(name)
		if !okSrc || !src.HasTerminal() {
			continue
		}
		fm, err := metricFor(src, p.Text)
		if err != nil {
			continue
		}
		station := Bracket(src.StationColumn)
		terminal := Bracket(src.TerminalColumn)
		where := SourceWhere(src, fm, p.TimeRange, p.Meta,
			station+" IS NOT NULL", terminal+" IS NOT NULL")
		sel := fmt.Sprintf("SELECT %s AS 电站名称, %s AS 终端名称, %s AS 数值 FROM %s %s GROUP BY %s, %s",
			station, terminal, SumExpr(fm), Bracket(src.Name), where, station, terminal)
		parts = append(parts, strings.TrimSpace(sel))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: 所选表不提供终端粒度数据", ErrNoNumericField)
	}

	direction := "DESC"
	if p.Shape.Ascending {
		direction = "ASC"
	}
	top := ""
	if p.Shape.TopN > 0 {
		top = fmt.Sprintf("TOP %d ", p.Shape.TopN)
	}

	union := strings.Join(parts, " UNION ALL ")
	return fmt.Sprintf("SELECT %s电站名称, 终端名称, SUM(数值) AS 总计 FROM (%s) AS combined GROUP BY 电站名称, 终端名称 ORDER BY 总计 %s",
		top, union, direction), nil
}

// dimensionExpr 各维度在单表内的表达式
func dimensionExpr(t catalog.TimeFieldRef, dim GroupDimension) string {
	switch dim {
	case DimDate:
		return DateKeyExpr(t)
	case DimMonth:
		return MonthKeyExpr(t)
	default:
		return YearExpr(t)
	}
}

// metricFor 在单表上解析问题要查的指标字段，
// 长关键词优先；文本里没有任何字段关键词时退回默认口径
func metricFor(src *catalog.SourceDefinition, text string) (catalog.FieldMapping, error) {
	_, fm, err := tableresolver.ResolveField(src, text)
	return fm, err
}

package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

// 本文件是小型表达式构造层：列引用、类型转换、空值保护、
// 时间谓词都在这里统一生成，避免各处手拼CAST/ISNULL样板。
// 目标方言是SQL Server 2008 R2：过滤条件只用显式日期区间，
// 不用DATEFROMPARTS/EOMONTH/FORMAT等新函数。

// Bracket 给列名加方括号
func Bracket(col string) string {
	return "[" + col + "]"
}

// trimmed 返回去两端空白的列表达式
func trimmed(expr string) string {
	return "LTRIM(RTRIM(" + expr + "))"
}

// ValueExpr 返回字段参与算术时的取值表达式
// 字符串存储的数值列先trim再CAST为FLOAT
func ValueExpr(fm catalog.FieldMapping) string {
	switch fm.Kind {
	case catalog.KindNumericString:
		return "CAST(" + trimmed(fm.Expression) + " AS FLOAT)"
	default:
		return fm.Expression
	}
}

// Guards 返回聚合该字段前必须满足的WHERE条件片段
func Guards(fm catalog.FieldMapping) []string {
	switch fm.Kind {
	case catalog.KindNumericString:
		// 字符串数值列：非空、非空串、可转数字，缺一不可
		return []string{
			fm.Expression + " IS NOT NULL",
			trimmed(fm.Expression) + " <> ''",
			"ISNUMERIC(" + trimmed(fm.Expression) + ") = 1",
		}
	case catalog.KindComputed:
		// 计算表达式自带空值保护
		return nil
	case catalog.KindCount:
		return []string{fm.Expression + " IS NOT NULL"}
	default:
		return []string{
			fm.Expression + " IS NOT NULL",
			fm.Expression + " > 0",
		}
	}
}

// SumExpr 返回字段的合计表达式（计数字段用COUNT）
// 外层用ISNULL兜底，空集合计为0而不是NULL
func SumExpr(fm catalog.FieldMapping) string {
	if fm.Kind == catalog.KindCount {
		return "COUNT(" + fm.Expression + ")"
	}
	return "ISNULL(SUM(" + ValueExpr(fm) + "), 0)"
}

// AggExpr 返回指定聚合函数下的表达式
func AggExpr(fn string, fm catalog.FieldMapping) string {
	if fn == "COUNT" {
		if fm.Kind == catalog.KindCount {
			return "COUNT(" + fm.Expression + ")"
		}
		return "COUNT(*)"
	}
	if fn == "SUM" {
		return SumExpr(fm)
	}
	return fn + "(" + ValueExpr(fm) + ")"
}

// TimePredicate 生成时间过滤条件
// 单日用CAST..AS DATE等值比较；区间用显式端点比较以便走索引；
// 年+月组合时间列（电力局）折算成单调整数后比较
func TimePredicate(t catalog.TimeFieldRef, tr timeparse.TimeRange) string {
	if !tr.HasTime {
		return ""
	}
	if t.Composite() {
		start := tr.Start.Year()*100 + int(tr.Start.Month())
		end := tr.End.Year()*100 + int(tr.End.Month())
		return fmt.Sprintf("(%s * 100 + %s) BETWEEN %d AND %d",
			Bracket(t.YearColumn), Bracket(t.MonthColumn), start, end)
	}
	col := Bracket(t.Column)
	if tr.SingleDay() {
		return fmt.Sprintf("CAST(%s AS DATE) = '%s'", col, tr.StartDate())
	}
	return fmt.Sprintf("%s >= '%s' AND %s <= '%s 23:59:59'",
		col, tr.StartDate(), col, tr.EndDate())
}

// MonthKeyExpr 返回'YYYY-MM'形式的月份键表达式
func MonthKeyExpr(t catalog.TimeFieldRef) string {
	if t.Composite() {
		return fmt.Sprintf("CAST(%s AS VARCHAR(4)) + '-' + RIGHT('0' + CAST(%s AS VARCHAR(2)), 2)",
			Bracket(t.YearColumn), Bracket(t.MonthColumn))
	}
	return "CONVERT(VARCHAR(7), " + Bracket(t.Column) + ", 120)"
}

// YearExpr 返回年份表达式（SELECT/GROUP BY中允许函数取年，
// 方言限制只针对WHERE谓词）
func YearExpr(t catalog.TimeFieldRef) string {
	if t.Composite() {
		return Bracket(t.YearColumn)
	}
	return "YEAR(" + Bracket(t.Column) + ")"
}

// DateKeyExpr 返回日期键表达式；月粒度表退化为月份键
func DateKeyExpr(t catalog.TimeFieldRef) string {
	if t.Composite() {
		return MonthKeyExpr(t)
	}
	return "CAST(" + Bracket(t.Column) + " AS DATE)"
}

// SitePredicate 返回站点过滤条件；表不区分站点时为空
func SitePredicate(src *catalog.SourceDefinition, meta tableresolver.Metadata) string {
	if src.Site == nil {
		return ""
	}
	if meta.Gaoling {
		return src.Site.Gaoling
	}
	if meta.Sifangping {
		return src.Site.Sifangping
	}
	return ""
}

// WhereClause 把非空条件片段拼成WHERE子句
func WhereClause(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(kept, " AND ")
}

// SourceWhere 组装单表的完整过滤条件：
// 字段保护 + 时间 + 固定状态过滤 + 站点谓词
func SourceWhere(src *catalog.SourceDefinition, fm catalog.FieldMapping,
	tr timeparse.TimeRange, meta tableresolver.Metadata, extra ...string) string {
	parts := Guards(fm)
	parts = append(parts, TimePredicate(src.Time, tr))
	parts = append(parts, src.StatusFilter)
	parts = append(parts, SitePredicate(src, meta))
	parts = append(parts, extra...)
	return WhereClause(parts...)
}

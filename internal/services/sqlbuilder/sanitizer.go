package sqlbuilder

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
)

// 查询净化层：规则生成和模型生成的SQL都要经过这里。
// 先做破坏性语句的安全兜底，再修复模型已知的几类固定错误。
// 每条修复规则独立命名、独立测试。

// ErrUnsafeQuery 净化后不再是一条SELECT语句
var ErrUnsafeQuery = errors.New("查询语句包含非法操作")

// SanitizeContext 修复规则需要的上下文
type SanitizeContext struct {
	Question   string // 原始问题（判断是否月度明细等）
	TimeColumn string // 首选表的时间列（补CONVERT缺失参数用）
}

// rewriteRule 一条命名的净化/修复规则
type rewriteRule struct {
	name  string
	apply func(sql string, ctx SanitizeContext) string
}

var destructivePattern = regexp.MustCompile(`(?i)\b(DROP|TRUNCATE|DELETE|UPDATE|INSERT|ALTER|CREATE|GRANT|EXEC|EXECUTE|MERGE)\b`)

var sanitizeRules = []rewriteRule{
	{name: "strip-code-fence", apply: stripCodeFence},
	{name: "fix-table-suffix", apply: fixTableSuffix},
	{name: "fix-convert-missing-column", apply: fixConvertMissingColumn},
	{name: "fix-leaked-time-column", apply: fixLeakedTimeColumn},
	{name: "rewrite-year-predicate", apply: rewriteYearPredicate},
}

// Sanitize 净化一条查询语句
// 破坏性语句直接拒绝，不做任何"修复"尝试
func Sanitize(sql string, ctx SanitizeContext) (string, error) {
	out := strings.TrimSpace(sql)
	for _, r := range sanitizeRules {
		out = strings.TrimSpace(r.apply(out, ctx))
	}
	if destructivePattern.MatchString(out) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeQuery, destructivePattern.FindString(out))
	}
	if !strings.HasPrefix(strings.ToUpper(out), "SELECT") {
		return "", ErrUnsafeQuery
	}
	return out, nil
}

// stripCodeFence 去掉模型包裹的markdown代码块标记
func stripCodeFence(sql string, _ SanitizeContext) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimPrefix(sql, "```sql")
	sql = strings.TrimPrefix(sql, "```")
	sql = strings.TrimSuffix(sql, "```")
	sql = strings.ReplaceAll(sql, "```sql", "")
	return strings.ReplaceAll(sql, "```", "")
}

// fixTableSuffix 模型爱给表名加"表"字：[特来电表] -> [特来电]
func fixTableSuffix(sql string, _ SanitizeContext) string {
	for _, name := range catalog.Names() {
		sql = strings.ReplaceAll(sql, "["+name+"表]", "["+name+"]")
		re := regexp.MustCompile(`(?i)FROM\s+` + regexp.QuoteMeta(name) + `表`)
		sql = re.ReplaceAllString(sql, "FROM ["+name+"]")
	}
	return sql
}

var convertMissingColPattern = regexp.MustCompile(`CONVERT\(\s*VARCHAR\(\d+\)\s*,\s*(\d{2,3})\s*\)`)

// fixConvertMissingColumn 修复丢失了源列参数的日期转换：
// CONVERT(VARCHAR(7), 120) -> CONVERT(VARCHAR(7), [时间列], 120)
func fixConvertMissingColumn(sql string, ctx SanitizeContext) string {
	if ctx.TimeColumn == "" {
		return sql
	}
	return convertMissingColPattern.ReplaceAllStringFunc(sql, func(m string) string {
		sub := convertMissingColPattern.FindStringSubmatch(m)
		style := sub[1]
		// 只有120/121/23这类日期样式码才视为缺列，其他数字可能是合法长度
		if style != "120" && style != "121" && style != "23" {
			return m
		}
		open := strings.Index(m, "(")
		head := m[:open+1]
		inner := m[open+1 : len(m)-1]
		args := strings.SplitN(inner, ",", 2)
		return head + strings.TrimSpace(args[0]) + ", " + Bracket(ctx.TimeColumn) + ", " + style + ")"
	})
}

var leakedTimePattern = regexp.MustCompile(`(?i)^SELECT\s+(\[[^\]]*(?:时间|日期)[^\]]*\])\s*,\s*(.*?(?:SUM|AVG|MAX|MIN|COUNT)\()`)

// fixLeakedTimeColumn 聚合SELECT列表里混入了未聚合的时间列会破坏
// 分组语义：默认直接删掉；但若问题本身是按月明细，
// 改写成确定正确的年月字符串表达式并保留
func fixLeakedTimeColumn(sql string, ctx SanitizeContext) string {
	m := leakedTimePattern.FindStringSubmatch(sql)
	if m == nil {
		return sql
	}
	timeCol := m[1]
	if strings.Contains(sql, "GROUP BY "+timeCol) {
		// 分组键与SELECT列一致，语义正确，不动
		return sql
	}
	monthly := strings.Contains(ctx.Question, "每月") || strings.Contains(ctx.Question, "每个月") ||
		strings.Contains(ctx.Question, "月度") || strings.Contains(ctx.Question, "按月")
	if monthly {
		monthExpr := "CONVERT(VARCHAR(7), " + timeCol + ", 120)"
		// 先于SELECT列改写判断，改写后SELECT里必然出现月份表达式
		hasGroupBy := strings.Contains(strings.ToUpper(sql), "GROUP BY")
		groupedByMonth := strings.Contains(sql, "GROUP BY "+monthExpr)
		sql = strings.Replace(sql, timeCol, monthExpr+" AS 月份", 1)
		if !hasGroupBy {
			sql += " GROUP BY " + monthExpr
		} else if !groupedByMonth {
			sql = strings.Replace(sql, "GROUP BY ", "GROUP BY "+monthExpr+", ", 1)
		}
		return sql
	}
	// 非明细查询：把泄漏的时间列连同逗号一起删掉
	idx := strings.Index(sql, timeCol)
	rest := sql[idx+len(timeCol):]
	rest = strings.TrimLeft(rest, " ")
	rest = strings.TrimPrefix(rest, ",")
	return sql[:idx] + strings.TrimLeft(rest, " ")
}

var yearPredicatePattern = regexp.MustCompile(`YEAR\(\s*(\[[^\]]+\])\s*\)\s*=\s*(\d{4})`)

// rewriteYearPredicate 过滤条件里的YEAR()函数谓词无法使用索引，
// 且在部分旧引擎上行为不一致，统一改写成显式日期区间
func rewriteYearPredicate(sql string, _ SanitizeContext) string {
	// 仅改写WHERE/AND/ON上下文中的谓词，GROUP BY/SELECT中的YEAR()合法
	return yearPredicatePattern.ReplaceAllStringFunc(sql, func(m string) string {
		sub := yearPredicatePattern.FindStringSubmatch(m)
		col := sub[1]
		year, _ := strconv.Atoi(sub[2])
		return fmt.Sprintf("%s >= '%d-01-01' AND %s < '%d-01-01'", col, year, col, year+1)
	})
}

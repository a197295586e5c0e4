package tableresolver

import (
	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

// Window 一张表的数据有效期（年月粒度），零值端表示无界
type Window struct {
	From  catalog.YearMonth
	Until catalog.YearMonth
}

// Windows 表名 -> 有效期。由有效期缓存提供；
// 为nil时退回目录中的静态窗口配置
type Windows map[string]Window

// overlaps 判断窗口与[start, end]年月区间是否有交集
func (w Window) overlaps(start, end catalog.YearMonth) bool {
	if !w.From.Zero() && end.Index() < w.From.Index() {
		return false
	}
	if !w.Until.Zero() && start.Index() > w.Until.Index() {
		return false
	}
	return true
}

// FilterAvailable 按有效期窗口过滤表集合
// 没有时间约束时表示"查全部数据"，不做任何过滤；
// 必须在公式/计划组装之前执行，因为多个公式的算式形态
// 取决于过滤后剩余的表数量
func FilterAvailable(tables []string, tr timeparse.TimeRange, win Windows) []string {
	if !tr.HasTime {
		return tables
	}

	sy, sm := tr.StartYM()
	ey, em := tr.EndYM()
	start := catalog.YearMonth{Year: sy, Month: sm}
	end := catalog.YearMonth{Year: ey, Month: em}

	var out []string
	for _, name := range tables {
		if windowFor(name, win).overlaps(start, end) {
			out = append(out, name)
		}
	}
	return out
}

// EnsureTerminalSource 终端/枪查询的补充规则：
// 解析阶段可能因收窄丢掉了滴滴表，但只要时间范围覆盖其有效期
// 且问题涉及终端，就把它加回来
func EnsureTerminalSource(tables []string, tr timeparse.TimeRange, meta Metadata, win Windows) []string {
	if !meta.WantsTerminal || contains(tables, catalog.TableDiDi) {
		return tables
	}
	hasCharging := false
	for _, name := range tables {
		if contains(catalog.ChargingSources, name) {
			hasCharging = true
			break
		}
	}
	if !hasCharging {
		return tables
	}
	if tr.HasTime {
		sy, sm := tr.StartYM()
		ey, em := tr.EndYM()
		w := windowFor(catalog.TableDiDi, win)
		if !w.overlaps(catalog.YearMonth{Year: sy, Month: sm}, catalog.YearMonth{Year: ey, Month: em}) {
			return tables
		}
	}
	return append(tables, catalog.TableDiDi)
}

// windowFor 查窗口：优先用注入的实测窗口，缺省回到静态配置
func windowFor(name string, win Windows) Window {
	if win != nil {
		if w, ok := win[name]; ok {
			return w
		}
	}
	if src, ok := catalog.Get(name); ok {
		return Window{From: src.ValidFrom, Until: src.ValidUntil}
	}
	return Window{}
}

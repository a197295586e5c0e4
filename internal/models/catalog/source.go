package catalog

import "sort"

// YearMonth 表示年月粒度的时间点，用于数据有效期比较
type YearMonth struct {
	Year  int
	Month int
}

// Index 返回可比较的单调整数（年*12+月）
func (ym YearMonth) Index() int {
	return ym.Year*12 + ym.Month
}

// Zero 判断是否为零值（未设置）
func (ym YearMonth) Zero() bool {
	return ym.Year == 0
}

// TimeFieldRef 描述数据表的时间定位方式
// 多数表有单一时间列；电力局表只有年/月两个整数列
type TimeFieldRef struct {
	Column      string // 单一时间列名（不带方括号）
	YearColumn  string // 组合方式：年份列
	MonthColumn string // 组合方式：月份列
}

// Composite 判断是否为年+月组合时间字段
func (t TimeFieldRef) Composite() bool {
	return t.Column == "" && t.YearColumn != ""
}

// SiteFilter 表示按物理站点（四方坪/高岭）划分数据的谓词
// 两个字段都是可直接拼入WHERE的SQL片段
type SiteFilter struct {
	Sifangping string // 四方坪筛选条件
	Gaoling    string // 高岭筛选条件
}

// SourceDefinition 描述一张数据表：时间字段、关键词到字段的映射、
// 各种固定过滤条件以及数据有效期窗口
// 全部定义在进程启动时加载一次，之后只读
type SourceDefinition struct {
	// Name 数据库中的表名
	Name string

	// Time 时间字段定位
	Time TimeFieldRef

	// Fields 业务关键词 -> 字段映射，多个关键词可指向同一字段
	Fields map[string]FieldMapping

	// StationColumn 电站/场站名称列（仅充电类表有）
	StationColumn string

	// TerminalColumn 终端/枪名称列，终端唯一标识需要
	// StationColumn + TerminalColumn 组合
	TerminalColumn string

	// StatusFilter 固定的状态/支付方式过滤条件（SQL片段），可为空
	StatusFilter string

	// Site 站点归属：
	//   - 谓词非空表示该表按电站名称列区分站点
	//   - WholeSifangping 表示整表都属于四方坪
	Site             *SiteFilter
	WholeSifangping  bool

	// ValidFrom/ValidUntil 数据有效期窗口（年月粒度），零值表示无界
	ValidFrom  YearMonth
	ValidUntil YearMonth
}

// HasWindow 判断该表是否配置了有效期窗口
func (s *SourceDefinition) HasWindow() bool {
	return !s.ValidFrom.Zero() || !s.ValidUntil.Zero()
}

// CoversRange 判断有效期窗口是否与给定的年月区间有重叠
// 窗口零值端视为无界
func (s *SourceDefinition) CoversRange(start, end YearMonth) bool {
	if !s.ValidFrom.Zero() && end.Index() < s.ValidFrom.Index() {
		return false
	}
	if !s.ValidUntil.Zero() && start.Index() > s.ValidUntil.Index() {
		return false
	}
	return true
}

// AliasesByLength 返回按长度降序排列的字段关键词列表
// 长关键词优先，保证"充电电费"优先于"电费"被匹配
func (s *SourceDefinition) AliasesByLength() []string {
	aliases := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		aliases = append(aliases, k)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	return aliases
}

// HasTerminal 判断该表是否暴露终端/枪粒度数据
func (s *SourceDefinition) HasTerminal() bool {
	return s.TerminalColumn != ""
}

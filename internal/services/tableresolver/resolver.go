package tableresolver

import (
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
)

// Metadata 记录解析过程中识别出的横切信息，
// 后续的站点谓词和终端处理都依赖这些标记
type Metadata struct {
	Sifangping    bool   // 问题限定了四方坪站点
	Gaoling       bool   // 问题限定了高岭站点
	WantsTerminal bool   // 问题涉及终端/枪粒度
	MatchedRule   string // 命中的规则名（排障用）
}

// Site 返回限定的站点名，未限定时为空
func (m Metadata) Site() string {
	if m.Gaoling {
		return catalog.SiteGaoling
	}
	if m.Sifangping {
		return catalog.SiteSifangping
	}
	return ""
}

// Resolution 表解析结果：有序去重的表名列表加横切标记
type Resolution struct {
	Sources []string
	Meta    Metadata
}

// rule 一条表解析规则：按优先级从上到下匹配，命中即返回
type rule struct {
	name  string
	match func(text string, meta *Metadata) []string
}

// rules 解析规则级联，顺序即优先级：
// 完整表名 > 组合业务短语 > 站点限定 > 业务类别词 > 简称
var rules = []rule{
	{
		// 问题中出现完整表名时以显式指定为准
		name: "exact-name",
		match: func(text string, meta *Metadata) []string {
			var out []string
			for _, name := range orderedNames {
				if strings.Contains(text, name) {
					out = append(out, name)
				}
			}
			return out
		},
	},
	{
		// "综合业务收入"是固定口径：覆盖13张收入表，
		// 限定四方坪时缩减为10张
		name: "comprehensive",
		match: func(text string, meta *Metadata) []string {
			if !strings.Contains(text, "综合业务收入") && !strings.Contains(text, "综合收入") {
				return nil
			}
			if meta.Sifangping {
				return append([]string(nil), catalog.ComprehensiveSifangping...)
			}
			return append([]string(nil), catalog.ComprehensiveSources...)
		},
	},
	{
		// 高岭站点只有特来电设备，类别归属完全由站点决定
		name: "site-gaoling",
		match: func(text string, meta *Metadata) []string {
			if !meta.Gaoling {
				return nil
			}
			return []string{catalog.TableTeLaiDian}
		},
	},
	{
		// 四方坪限定：默认查全部充电表，站点谓词在渲染时注入
		name: "site-sifangping",
		match: func(text string, meta *Metadata) []string {
			if !meta.Sifangping {
				return nil
			}
			return append([]string(nil), catalog.ChargingSources...)
		},
	},
	{
		name: "category-washing",
		match: func(text string, meta *Metadata) []string {
			if !strings.Contains(text, "洗车") {
				return nil
			}
			return append([]string(nil), catalog.WashingSources...)
		},
	},
	{
		name: "category-chehaiyang",
		match: func(text string, meta *Metadata) []string {
			if !strings.Contains(text, "车海洋") ||
				strings.Contains(text, "充值") || strings.Contains(text, "消费") {
				return nil
			}
			return append([]string(nil), catalog.CheHaiYangSources...)
		},
	},
	{
		name: "category-weixin",
		match: func(text string, meta *Metadata) []string {
			if !strings.Contains(text, "微信") ||
				strings.Contains(text, "商户") || strings.Contains(text, "收款") {
				return nil
			}
			return append([]string(nil), catalog.WeixinSources...)
		},
	},
	{
		// 毛利/损耗要拿充电流水对照电力局账单，
		// 这类问题通常不点名任何表
		name: "category-margin-loss",
		match: func(text string, meta *Metadata) []string {
			if !strings.Contains(text, "毛利") &&
				!strings.Contains(text, "损耗") && !strings.Contains(text, "电损") {
				return nil
			}
			out := append([]string(nil), catalog.ChargingSources...)
			return append(out, catalog.TableDianLiJu)
		},
	},
	{
		// 泛指"充电"时查全部充电表，
		// 若问题中的指标只在部分表上存在则收窄到这些表
		name: "category-charging",
		match: func(text string, meta *Metadata) []string {
			if !strings.Contains(text, "充电") {
				return nil
			}
			return narrowByField(append([]string(nil), catalog.ChargingSources...), text)
		},
	},
	{
		name: "alias",
		match: func(text string, meta *Metadata) []string {
			var out []string
			for alias, table := range catalog.Aliases() {
				if strings.Contains(text, alias) && !contains(out, table) {
					out = append(out, table)
				}
			}
			return out
		},
	},
}

// orderedNames 全部表名按长度降序，保证"车海洋洗车充值"
// 不会被"车海洋洗车消费"之类的短前缀抢先
var orderedNames = func() []string {
	names := catalog.Names()
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return names
}()

// Resolve 把问题文本映射到要查询的表集合
// 纯函数，不访问数据库和网络
func Resolve(text string) Resolution {
	meta := Metadata{
		Sifangping:    strings.Contains(text, catalog.SiteSifangping),
		Gaoling:       strings.Contains(text, catalog.SiteGaoling),
		WantsTerminal: strings.Contains(text, "枪") || strings.Contains(text, "终端"),
	}

	var tables []string
	for _, r := range rules {
		if matched := r.match(text, &meta); len(matched) > 0 {
			tables = matched
			meta.MatchedRule = r.name
			break
		}
	}

	// 补充遍历：问题里额外点名的表追加到结果尾部
	for _, name := range orderedNames {
		if strings.Contains(text, name) && !contains(tables, name) {
			tables = append(tables, name)
		}
	}

	// 终端/枪粒度：剔除不暴露终端数据的表
	if meta.WantsTerminal {
		tables = dropWithoutTerminal(tables)
	}

	return Resolution{Sources: dedup(tables), Meta: meta}
}

// narrowByField 类别命中后按指标收窄：
// 取问题中最长的字段关键词，只保留拥有该字段的表
func narrowByField(tables []string, text string) []string {
	best := ""
	for _, name := range tables {
		src, ok := catalog.Get(name)
		if !ok {
			continue
		}
		for _, alias := range src.AliasesByLength() {
			if strings.Contains(text, alias) && len(alias) > len(best) {
				best = alias
			}
		}
	}
	if best == "" {
		return tables
	}
	var narrowed []string
	for _, name := range tables {
		if src, ok := catalog.Get(name); ok {
			if _, has := src.Fields[best]; has {
				narrowed = append(narrowed, name)
			}
		}
	}
	if len(narrowed) == 0 {
		return tables
	}
	return narrowed
}

// dropWithoutTerminal 去掉没有终端粒度的表（能科不导出终端列）
func dropWithoutTerminal(tables []string) []string {
	var out []string
	for _, name := range tables {
		src, ok := catalog.Get(name)
		if !ok || !contains(catalog.ChargingSources, name) {
			out = append(out, name)
			continue
		}
		if src.HasTerminal() {
			out = append(out, name)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func dedup(list []string) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

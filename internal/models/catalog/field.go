package catalog

// FieldKind 表示字段映射的取值方式
type FieldKind string

const (
	// KindRaw 普通数值/文本列，可直接参与聚合
	KindRaw FieldKind = "raw"

	// KindNumericString 以字符串存储的数值列，
	// 聚合前必须做非空/非空串/ISNUMERIC校验并CAST为FLOAT
	KindNumericString FieldKind = "numericString"

	// KindComputed 多列计算表达式，空值保护已内置在表达式中
	KindComputed FieldKind = "computed"

	// KindCount 计数列，聚合时使用COUNT而不是SUM
	KindCount FieldKind = "count"
)

// FieldMapping 表示一个业务关键词到实际数据库字段的映射
// Expression 对raw/numericString/count类型是带方括号的列名，
// 对computed类型是完整的SQL表达式
type FieldMapping struct {
	Expression string
	Kind       FieldKind
}

// Numeric 判断该字段是否可以参与SUM/AVG等数值聚合
func (f FieldMapping) Numeric() bool {
	return f.Kind == KindRaw || f.Kind == KindNumericString || f.Kind == KindComputed
}

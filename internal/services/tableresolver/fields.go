package tableresolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
)

// ErrNoField 表示表已确定但问题中识别不出任何指标字段
var ErrNoField = errors.New("无法识别要查询的字段")

// ResolveField 在指定表上解析问题要查询的指标字段
// 关键词按长度降序匹配，长词优先：问题包含"充电电费"时
// 必须命中"充电电费"的映射而不是其中的子串"电费"
func ResolveField(src *catalog.SourceDefinition, text string) (string, catalog.FieldMapping, error) {
	for _, alias := range src.AliasesByLength() {
		if strings.Contains(text, alias) {
			return alias, src.Fields[alias], nil
		}
	}

	// 没有显式指标时回退到该表的默认口径（收入/金额）
	for _, fallback := range []string{"收入", "金额"} {
		if fm, ok := src.Fields[fallback]; ok {
			return fallback, fm, nil
		}
	}

	return "", catalog.FieldMapping{}, fmt.Errorf("表[%s]: %w", src.Name, ErrNoField)
}

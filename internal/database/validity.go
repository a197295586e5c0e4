package database

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
)

// Queryer 执行只读查询的最小接口
type Queryer interface {
	Query(ctx context.Context, query string) ([]map[string]interface{}, []string, error)
}

// ValidityCache 带TTL的有效期窗口缓存
// 启动和过期时从库里实测各有界表的时间边界，
// 探测失败时退回目录里的静态窗口配置
type ValidityCache struct {
	exec Queryer
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	windows tableresolver.Windows
	expires time.Time
}

// NewValidityCache 创建有效期缓存，ttl为0时默认1小时
func NewValidityCache(exec Queryer, ttl time.Duration, now func() time.Time) *ValidityCache {
	if ttl == 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &ValidityCache{exec: exec, ttl: ttl, now: now}
}

// Windows 返回各有界表的有效期窗口
// 缓存未过期时直接返回；探测失败返回nil，
// 调用方拿到nil会自动退回静态窗口
func (c *ValidityCache) Windows(ctx context.Context) tableresolver.Windows {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.windows != nil && c.now().Before(c.expires) {
		return c.windows
	}

	probed, err := c.probe(ctx)
	if err != nil {
		log.Printf("探测数据有效期失败，使用静态窗口配置: %v", err)
		// 失败时保留旧缓存，没有旧缓存就返回nil
		return c.windows
	}
	c.windows = probed
	c.expires = c.now().Add(c.ttl)
	return c.windows
}

// probe 对每张有界表查一次时间边界
func (c *ValidityCache) probe(ctx context.Context) (tableresolver.Windows, error) {
	out := make(tableresolver.Windows)
	for _, name := range catalog.BoundedSources() {
		src, ok := catalog.Get(name)
		if !ok || src.Time.Composite() {
			continue
		}
		col := sqlbuilder.Bracket(src.Time.Column)
		query := fmt.Sprintf("SELECT MIN(%s) AS 最早, MAX(%s) AS 最晚 FROM %s WHERE %s IS NOT NULL",
			col, col, sqlbuilder.Bracket(src.Name), col)

		rows, _, err := c.exec.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("探测表[%s]时间边界失败: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		from, okFrom := toYearMonth(rows[0]["最早"])
		until, okUntil := toYearMonth(rows[0]["最晚"])
		if !okFrom || !okUntil {
			continue
		}
		out[name] = tableresolver.Window{From: from, Until: until}
	}
	return out, nil
}

// toYearMonth 把驱动返回的时间值降到年月粒度
func toYearMonth(v interface{}) (catalog.YearMonth, bool) {
	switch t := v.(type) {
	case time.Time:
		return catalog.YearMonth{Year: t.Year(), Month: int(t.Month())}, true
	case string:
		if len(t) >= 7 {
			parsed, err := time.Parse("2006-01", t[:7])
			if err == nil {
				return catalog.YearMonth{Year: parsed.Year(), Month: int(parsed.Month())}, true
			}
		}
	}
	return catalog.YearMonth{}, false
}

package main

// 排障工具：不连数据库，展示一条问题的完整解析过程
// 用法: go run ./cmd/ask "四方坪去年充电收入多少"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jiangnanwaw/AIdialogue/internal/services/formula"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

func main() {
	flag.Parse()
	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "用法: ask <问题>")
		os.Exit(1)
	}

	now := time.Now()

	res := tableresolver.Resolve(question)
	fmt.Printf("解析到的表: %v\n", res.Sources)
	fmt.Printf("命中规则: %s  站点: %q  终端: %v\n",
		res.Meta.MatchedRule, res.Meta.Site(), res.Meta.WantsTerminal)
	if len(res.Sources) == 0 {
		log.Fatal("没有解析到任何数据表")
	}

	tr := timeparse.Parse(question, now)
	if tr.HasTime {
		fmt.Printf("时间范围: %s ~ %s (%s)\n", tr.StartDate(), tr.EndDate(), tr.Granularity)
	} else {
		fmt.Println("时间范围: 不限")
	}

	filtered := tableresolver.FilterAvailable(res.Sources, tr, nil)
	filtered = tableresolver.EnsureTerminalSource(filtered, tr, res.Meta, nil)
	fmt.Printf("有效期过滤后: %v\n", filtered)
	if len(filtered) == 0 {
		log.Fatal("所选时间范围内没有可用数据表")
	}

	topN, _ := timeparse.ExtractTopN(question)
	sqlText, method, err := buildSQL(question, now, tr, res, filtered, topN)
	if err != nil {
		log.Fatalf("生成SQL失败 (%s): %v", method, err)
	}

	clean, err := sqlbuilder.Sanitize(sqlText, sqlbuilder.SanitizeContext{Question: question})
	if err != nil {
		log.Fatalf("净化失败: %v", err)
	}
	fmt.Printf("处理方式: %s\nSQL:\n%s\n", method, clean)
}

func buildSQL(question string, now time.Time, tr timeparse.TimeRange,
	res tableresolver.Resolution, filtered []string, topN int) (string, string, error) {

	asc := strings.Contains(question, "最少") ||
		strings.Contains(question, "最低") || strings.Contains(question, "最小")

	if f, ok := formula.Detect(question); ok {
		sqlText, err := f.Build(formula.Request{
			Text:      question,
			Now:       now,
			TimeRange: tr,
			Sources:   filtered,
			Resolved:  res.Sources,
			Meta:      res.Meta,
			TopN:      topN,
			Ascending: asc,
		})
		return sqlText, "formula:" + f.ID, err
	}

	shape, ok := sqlbuilder.DetectShape(question)
	if !ok {
		return "", "rules", sqlbuilder.ErrUnclassified
	}
	sqlText, err := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   filtered,
		Text:      question,
		Shape:     shape,
		TimeRange: tr,
		Meta:      res.Meta,
	})
	return sqlText, "rules", err
}

package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Granularity 表示时间范围的粒度
type Granularity string

const (
	GranNone    Granularity = ""
	GranDay     Granularity = "day"
	GranMonth   Granularity = "month"
	GranQuarter Granularity = "quarter"
	GranYear    Granularity = "year"
	GranRange   Granularity = "range"
)

// TimeRange 表示从问题中解析出的时间范围
// HasTime为false时Start/End无意义，下游按不限时间处理
type TimeRange struct {
	Start       time.Time
	End         time.Time
	HasTime     bool
	Granularity Granularity

	// 解析出的原始年/月/日token，0表示未出现
	Year  int
	Month int
	Day   int

	// 工作日/周末修饰词：只记录不参与范围收窄
	// （原始数据没有星期维度，这是已知的数据限制）
	Weekday bool
	Weekend bool
}

// Days 返回范围覆盖的天数（含两端）
func (t TimeRange) Days() int {
	if !t.HasTime {
		return 0
	}
	start := time.Date(t.Start.Year(), t.Start.Month(), t.Start.Day(), 0, 0, 0, 0, t.Start.Location())
	end := time.Date(t.End.Year(), t.End.Month(), t.End.Day(), 0, 0, 0, 0, t.End.Location())
	return int(end.Sub(start).Hours()/24) + 1
}

// MonthCount 返回范围覆盖的月数（含两端）
func (t TimeRange) MonthCount() int {
	if !t.HasTime {
		return 0
	}
	return (t.End.Year()-t.Start.Year())*12 + int(t.End.Month()) - int(t.Start.Month()) + 1
}

// StartYM / EndYM 返回年月粒度的范围端点（有效期比较用）
func (t TimeRange) StartYM() (int, int) { return t.Start.Year(), int(t.Start.Month()) }
func (t TimeRange) EndYM() (int, int)   { return t.End.Year(), int(t.End.Month()) }

// StartDate / EndDate 返回 YYYY-MM-DD 格式的端点
func (t TimeRange) StartDate() string { return t.Start.Format("2006-01-02") }
func (t TimeRange) EndDate() string   { return t.End.Format("2006-01-02") }

// SingleDay 判断范围是否恰好是一天
func (t TimeRange) SingleDay() bool {
	return t.HasTime && t.StartDate() == t.EndDate()
}

var (
	// 两种字面日期区间格式 + 月份区间格式
	reDashRange  = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})\s*[至到]\s*(\d{4})-(\d{1,2})-(\d{1,2})`)
	reCNRange    = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日\s*[至到]\s*(\d{4})年(\d{1,2})月(\d{1,2})日`)
	reMonthRange = regexp.MustCompile(`(\d{4})年(\d{1,2})月\s*[至到]\s*(\d{4})年(\d{1,2})月`)

	reYear  = regexp.MustCompile(`(\d{4})年`)
	reMonth = regexp.MustCompile(`(\d{1,2})月`)
	reDay   = regexp.MustCompile(`(\d{1,2})[日号]`)

	reQuarter  = regexp.MustCompile(`第([1-4一二三四])季度`)
	reQuarterQ = regexp.MustCompile(`[QqＱ]([1-4])`)

	reRollingDays   = regexp.MustCompile(`(?:最近|近|过去)(\d{1,3})天`)
	reRollingMonths = regexp.MustCompile(`(?:最近|近|过去)(\d{1,2})个?月`)

	reTopN = regexp.MustCompile(`前(\d{1,3})\s*[名个条天月年把]?`)
	reMostN = regexp.MustCompile(`最[多少高低][的]?(\d{1,3})\s*[名个条天月年把]`)
)

var cnDigits = map[string]int{"一": 1, "二": 2, "三": 3, "四": 4}

// Parse 从问题文本解析时间范围
// 纯函数：同样的(text, now)永远得到同样的结果
func Parse(text string, now time.Time) TimeRange {
	loc := now.Location()

	// 1. 字面日期区间优先，命中后不再做任何推断
	if m := reDashRange.FindStringSubmatch(text); m != nil {
		return literalRange(m, loc)
	}
	if m := reCNRange.FindStringSubmatch(text); m != nil {
		return literalRange(m, loc)
	}
	if m := reMonthRange.FindStringSubmatch(text); m != nil {
		y1, _ := strconv.Atoi(m[1])
		mo1, _ := strconv.Atoi(m[2])
		y2, _ := strconv.Atoi(m[3])
		mo2, _ := strconv.Atoi(m[4])
		tr := TimeRange{
			Start:       time.Date(y1, time.Month(mo1), 1, 0, 0, 0, 0, loc),
			End:         endOfMonth(y2, mo2, loc),
			HasTime:     true,
			Granularity: GranRange,
		}
		return withModifiers(tr, text)
	}

	// 2. 年/月/日 token 叠加（字面数字和相对词都算token）
	year, month, day := 0, 0, 0
	if m := reYear.FindStringSubmatch(text); m != nil {
		year, _ = strconv.Atoi(m[1])
	}
	if m := reMonth.FindStringSubmatch(text); m != nil {
		month, _ = strconv.Atoi(m[1])
	}
	if m := reDay.FindStringSubmatch(text); m != nil {
		day, _ = strconv.Atoi(m[1])
	}

	// 3. 相对时间词
	switch {
	case strings.Contains(text, "今年"):
		year = now.Year()
	case strings.Contains(text, "去年"):
		year = now.Year() - 1
	case strings.Contains(text, "前年"):
		year = now.Year() - 2
	}
	if strings.Contains(text, "今天") {
		year, month, day = now.Year(), int(now.Month()), now.Day()
	}
	if strings.Contains(text, "上个月") || strings.Contains(text, "上月") {
		prev := now.AddDate(0, -1, -now.Day()+1)
		year, month = prev.Year(), int(prev.Month())
		day = 0
	} else if strings.Contains(text, "本月") || strings.Contains(text, "这个月") {
		year, month = now.Year(), int(now.Month())
		day = 0
	}

	// 4. 季度：与年份token叠加（"去年第4季度"）
	quarter := 0
	if m := reQuarter.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			quarter = n
		} else {
			quarter = cnDigits[m[1]]
		}
	} else if m := reQuarterQ.FindStringSubmatch(text); m != nil {
		quarter, _ = strconv.Atoi(m[1])
	}
	if quarter > 0 {
		if year == 0 {
			year = now.Year()
		}
		startMonth := quarter*3 - 2
		tr := TimeRange{
			Start:       time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, loc),
			End:         endOfMonth(year, startMonth+2, loc),
			HasTime:     true,
			Granularity: GranQuarter,
			Year:        year,
		}
		return withModifiers(tr, text)
	}

	if year > 0 || month > 0 || day > 0 {
		return withModifiers(assemble(year, month, day, now, loc), text)
	}

	// 5. 周：周一为一周起点
	if strings.Contains(text, "本周") || strings.Contains(text, "这周") {
		return withModifiers(weekRange(now, 0, loc), text)
	}
	if strings.Contains(text, "上周") {
		return withModifiers(weekRange(now, -1, loc), text)
	}

	// 6. 滚动窗口
	if m := reRollingDays.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, loc)
		start := end.AddDate(0, 0, -n+1)
		tr := TimeRange{
			Start:       time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc),
			End:         end,
			HasTime:     true,
			Granularity: GranRange,
		}
		return withModifiers(tr, text)
	}
	if m := reRollingMonths.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		start := first.AddDate(0, -n+1, 0)
		end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, loc)
		tr := TimeRange{
			Start:       start,
			End:         end,
			HasTime:     true,
			Granularity: GranRange,
		}
		return withModifiers(tr, text)
	}

	return withModifiers(TimeRange{}, text)
}

// ExtractTopN 提取排名数量（"前8名"、"最多的5天"）
// 只能在确认没有日期区间匹配后调用，避免把"前8天"当成日期token
func ExtractTopN(text string) (int, bool) {
	if m := reMostN.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := reTopN.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// literalRange 处理两端都是完整日期的区间
func literalRange(m []string, loc *time.Location) TimeRange {
	y1, _ := strconv.Atoi(m[1])
	mo1, _ := strconv.Atoi(m[2])
	d1, _ := strconv.Atoi(m[3])
	y2, _ := strconv.Atoi(m[4])
	mo2, _ := strconv.Atoi(m[5])
	d2, _ := strconv.Atoi(m[6])
	return TimeRange{
		Start:       time.Date(y1, time.Month(mo1), d1, 0, 0, 0, 0, loc),
		End:         time.Date(y2, time.Month(mo2), d2, 23, 59, 59, 0, loc),
		HasTime:     true,
		Granularity: GranRange,
	}
}

// assemble 把年/月/日token组装成范围：
// 只有年 => 全年；年+月 => 整月；年+月+日 => 单日
func assemble(year, month, day int, now time.Time, loc *time.Location) TimeRange {
	if year == 0 {
		year = now.Year()
	}
	tr := TimeRange{HasTime: true, Year: year, Month: month, Day: day}
	switch {
	case month == 0:
		tr.Start = time.Date(year, 1, 1, 0, 0, 0, 0, loc)
		tr.End = time.Date(year, 12, 31, 23, 59, 59, 0, loc)
		tr.Granularity = GranYear
	case day == 0:
		tr.Start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		tr.End = endOfMonth(year, month, loc)
		tr.Granularity = GranMonth
	default:
		tr.Start = time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
		tr.End = time.Date(year, time.Month(month), day, 23, 59, 59, 0, loc)
		tr.Granularity = GranDay
	}
	return tr
}

// weekRange 计算以周一为起点的一周，offset为0表示本周、-1表示上周
func weekRange(now time.Time, offset int, loc *time.Location) TimeRange {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // 周日算一周的第7天
	}
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -(weekday-1)+offset*7)
	sunday := monday.AddDate(0, 0, 6)
	return TimeRange{
		Start:       monday,
		End:         time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, loc),
		HasTime:     true,
		Granularity: GranRange,
	}
}

// withModifiers 记录工作日/周末修饰词
func withModifiers(tr TimeRange, text string) TimeRange {
	if strings.Contains(text, "工作日") {
		tr.Weekday = true
	}
	if strings.Contains(text, "周末") {
		tr.Weekend = true
	}
	return tr
}

func endOfMonth(year, month int, loc *time.Location) time.Time {
	for month > 12 {
		month -= 12
		year++
	}
	firstOfNext := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	last := firstOfNext.AddDate(0, 0, -1)
	return time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, loc)
}

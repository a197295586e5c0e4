package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	chatmodel "github.com/jiangnanwaw/AIdialogue/internal/models/chat"
	"github.com/jiangnanwaw/AIdialogue/internal/services/formula"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
	"github.com/jiangnanwaw/AIdialogue/internal/services/timeparse"
)

// Service 对话服务：把自然语言问题变成答复。
// 处理顺序固定：公式库 > 规则计划 > 模型兜底 > 默认合计。
// 无论哪条路生成的SQL都要过净化层再执行。
type Service struct {
	exec     Executor
	llm      LLM
	recorder Recorder
	windows  WindowProvider
	now      func() time.Time
}

// Executor 执行只读查询
type Executor interface {
	Query(ctx context.Context, query string) ([]map[string]interface{}, []string, error)
}

// LLM 模型兜底能力
type LLM interface {
	GenerateSQL(ctx context.Context, question string, tables []string, meta tableresolver.Metadata) (string, error)
	AnswerGeneral(ctx context.Context, question string) (string, error)
}

// Recorder 对话留痕，可选
type Recorder interface {
	Save(ctx context.Context, record *chatmodel.ConversationLog) error
}

// WindowProvider 提供实测的有效期窗口，可选；
// 缺省时有效期过滤退回目录静态配置
type WindowProvider interface {
	Windows(ctx context.Context) tableresolver.Windows
}

// NewService 创建对话服务
func NewService(exec Executor, llm LLM) *Service {
	return &Service{exec: exec, llm: llm, now: time.Now}
}

// SetRecorder 设置对话留痕存储
func (s *Service) SetRecorder(r Recorder) { s.recorder = r }

// SetWindowProvider 设置有效期窗口来源
func (s *Service) SetWindowProvider(p WindowProvider) { s.windows = p }

// SetClock 注入时钟（测试用）
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Answer 处理一个问题并返回答复
// 任何内部错误都翻译成用户可读的解释，不向外抛
func (s *Service) Answer(ctx context.Context, question, sessionID string) chatmodel.Response {
	start := s.now()
	question = strings.TrimSpace(question)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, sqlText, method, rowCount, err := s.answer(ctx, question)
	if err != nil {
		log.Printf("回答失败 [%s] %s: %v", Classify(err), question, err)
		reply = friendlyMessage(err)
	}

	s.record(ctx, &chatmodel.ConversationLog{
		SessionID:  sessionID,
		Question:   question,
		Method:     method,
		SQL:        sqlText,
		Reply:      reply,
		RowCount:   rowCount,
		DurationMS: s.now().Sub(start).Milliseconds(),
		Error:      errText(err),
	})

	return chatmodel.Response{
		Success:   err == nil,
		Reply:     reply,
		SQL:       sqlText,
		Method:    method,
		SessionID: sessionID,
	}
}

// answer 主流程，返回答复、执行的SQL、处理方式和行数
func (s *Service) answer(ctx context.Context, question string) (string, string, string, int, error) {
	if !IsDatabaseQuestion(question) {
		reply, err := s.llm.AnswerGeneral(ctx, question)
		if err != nil {
			return "", "", "general", 0, err
		}
		return reply, "", "general", 0, nil
	}

	res := tableresolver.Resolve(question)
	if len(res.Sources) == 0 {
		return "", "", "", 0, ErrNoSource
	}

	now := s.now()
	tr := timeparse.Parse(question, now)

	var win tableresolver.Windows
	if s.windows != nil {
		win = s.windows.Windows(ctx)
	}
	filtered := tableresolver.FilterAvailable(res.Sources, tr, win)
	filtered = tableresolver.EnsureTerminalSource(filtered, tr, res.Meta, win)
	if len(filtered) == 0 {
		return "", "", "", 0, ErrNoAvailableSource
	}

	topN, _ := timeparse.ExtractTopN(question)
	ascending := strings.Contains(question, "最少") ||
		strings.Contains(question, "最低") || strings.Contains(question, "最小")

	// 第一层：公式库
	if f, ok := formula.Detect(question); ok {
		sqlText, err := f.Build(formula.Request{
			Text:      question,
			Now:       now,
			TimeRange: tr,
			Sources:   filtered,
			Resolved:  res.Sources,
			Meta:      res.Meta,
			Windows:   win,
			TopN:      topN,
			Ascending: ascending,
		})
		if err != nil {
			return "", "", "formula:" + f.ID, 0, err
		}
		reply, clean, n, err := s.run(ctx, question, sqlText, filtered)
		return reply, clean, "formula:" + f.ID, n, err
	}

	// 第二层：规则计划
	if shape, ok := sqlbuilder.DetectShape(question); ok {
		sqlText, err := sqlbuilder.Render(sqlbuilder.Plan{
			Sources:   filtered,
			Text:      question,
			Shape:     shape,
			TimeRange: tr,
			Meta:      res.Meta,
		})
		if err == nil {
			reply, clean, n, err := s.run(ctx, question, sqlText, filtered)
			return reply, clean, "rules", n, err
		}
		log.Printf("规则计划失败，转模型兜底: %v", err)
	}

	// 第三层：模型兜底
	sqlText, err := s.llm.GenerateSQL(ctx, question, filtered, res.Meta)
	if err == nil {
		reply, clean, n, runErr := s.run(ctx, question, sqlText, filtered)
		return reply, clean, "llm", n, runErr
	}
	log.Printf("模型兜底失败，退回规则合计: %v", err)

	// 最后一层：模型不可用时按问题里的指标做一次合计
	sqlText, fbErr := sqlbuilder.Render(sqlbuilder.Plan{
		Sources:   filtered,
		Text:      question,
		Shape:     sqlbuilder.Shape{Agg: sqlbuilder.AggSum},
		TimeRange: tr,
		Meta:      res.Meta,
	})
	if fbErr != nil {
		// 连合计兜底都组不出来，对外解释为模型不可用
		return "", "", "fallback", 0, err
	}
	reply, clean, n, runErr := s.run(ctx, question, sqlText, filtered)
	return reply, clean, "fallback", n, runErr
}

// run 净化、执行并格式化一条查询
func (s *Service) run(ctx context.Context, question, sqlText string, sources []string) (string, string, int, error) {
	clean, err := sqlbuilder.Sanitize(sqlText, sqlbuilder.SanitizeContext{
		Question:   question,
		TimeColumn: primaryTimeColumn(sources),
	})
	if err != nil {
		return "", sqlText, 0, err
	}

	rows, columns, err := s.exec.Query(ctx, clean)
	if err != nil {
		// 执行失败是终态，不再转模型重试；错误里带上语句便于排障
		return "", clean, 0, fmt.Errorf("%w: %v（语句：%s）", ErrStoreFailed, err, clean)
	}
	return FormatResult(rows, columns), clean, len(rows), nil
}

// record 留痕失败只打日志，不影响答复
func (s *Service) record(ctx context.Context, rec *chatmodel.ConversationLog) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Save(ctx, rec); err != nil {
		log.Printf("保存对话记录失败: %v", err)
	}
}

// primaryTimeColumn 首选表的时间列，修复规则补CONVERT参数用
func primaryTimeColumn(sources []string) string {
	for _, name := range sources {
		if src, ok := catalog.Get(name); ok && !src.Time.Composite() {
			return src.Time.Column
		}
	}
	return ""
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// dbKeywords 判断数据库问题的业务词表
var dbKeywords = []string{
	"收入", "金额", "电量", "电费", "充电", "洗车", "订单", "流水",
	"毛利", "损耗", "电损", "统计", "售货机", "道闸", "停车",
	"服务费", "车海洋", "综合业务", "用电", "优惠券", "交易",
}

// IsDatabaseQuestion 判断问题是否应该走数据查询路径
// 能解析出数据表，或者包含业务关键词，就认为是数据问题
func IsDatabaseQuestion(text string) bool {
	if len(tableresolver.Resolve(text).Sources) > 0 {
		return true
	}
	for _, kw := range dbKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

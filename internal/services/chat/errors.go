package chat

import (
	"errors"

	"github.com/jiangnanwaw/AIdialogue/internal/services/deepseek"
	"github.com/jiangnanwaw/AIdialogue/internal/services/formula"
	"github.com/jiangnanwaw/AIdialogue/internal/services/sqlbuilder"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
)

// 错误分类：同一类错误对用户给同一种解释。
// 数据库执行失败是终态，不再转模型重试——规则生成的SQL
// 被引擎拒绝说明目录配置有问题，重试只会重复失败。

// ErrNoSource 问题无法映射到任何数据表
var ErrNoSource = errors.New("无法识别问题涉及的数据表")

// ErrNoAvailableSource 解析出的表在所查时间范围内都没有数据
var ErrNoAvailableSource = errors.New("所选时间范围内没有可用的数据表")

// ErrStoreFailed 数据库执行失败（终态）
var ErrStoreFailed = errors.New("数据库查询执行失败")

// Kind 错误类别码，留痕和接口层共用
type Kind string

const (
	KindNoSource Kind = "no_source"
	KindNoField  Kind = "no_field"
	KindGuide    Kind = "need_input" // 缺时间范围等可由用户补全的情况
	KindStore    Kind = "store_failed"
	KindModel    Kind = "model_unavailable"
	KindUnsafe   Kind = "unsafe_query"
	KindUnknown  Kind = "unknown"
)

// Classify 判断错误属于哪一类
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoSource), errors.Is(err, ErrNoAvailableSource),
		errors.Is(err, formula.ErrNoChargingSource):
		return KindNoSource
	case errors.Is(err, tableresolver.ErrNoField), errors.Is(err, sqlbuilder.ErrNoNumericField):
		return KindNoField
	case errors.Is(err, formula.ErrNeedTimeRange), errors.Is(err, formula.ErrNeedTwoPeriods):
		return KindGuide
	case errors.Is(err, ErrStoreFailed):
		return KindStore
	case errors.Is(err, deepseek.ErrUnavailable), errors.Is(err, deepseek.ErrDisabled):
		return KindModel
	case errors.Is(err, sqlbuilder.ErrUnsafeQuery):
		return KindUnsafe
	default:
		return KindUnknown
	}
}

// friendlyMessage 把内部错误翻译成给用户的解释
func friendlyMessage(err error) string {
	switch Classify(err) {
	case KindNoSource:
		return "抱歉，没有找到与您的问题相关的数据表。可以试试提到具体业务，例如\"充电收入\"、\"洗车订单\"或者\"综合业务收入\"。"
	case KindNoField:
		return "抱歉，无法确定您要查询的指标字段。可以换个说法，例如\"订单金额\"、\"充电电量\"或\"服务费\"。"
	case KindGuide:
		// 这类错误的文案本身就是操作指引，原样返回
		return err.Error()
	case KindStore:
		return "抱歉，数据库查询执行失败，请稍后再试。如果问题持续出现请联系管理员。"
	case KindModel:
		return "抱歉，智能查询服务暂时不可用，已尝试按默认口径查询仍未成功，请稍后再试。"
	case KindUnsafe:
		return "抱歉，生成的查询语句未通过安全校验，已被拒绝执行。"
	default:
		return "抱歉，处理您的问题时出现了意外错误，请稍后再试。"
	}
}

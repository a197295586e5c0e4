package tableresolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
)

func TestResolveSifangpingCharging(t *testing.T) {
	res := tableresolver.Resolve("四方坪去年充电收入多少？")
	assert.True(t, res.Meta.Sifangping)
	assert.False(t, res.Meta.Gaoling)
	assert.Equal(t, []string{catalog.TableTeLaiDian, catalog.TableNengKe, catalog.TableDiDi},
		res.Sources, "四方坪限定应覆盖全部充电表")
	assert.Equal(t, "site-sifangping", res.Meta.MatchedRule)
}

func TestResolveGaolingOnlyTeLaiDian(t *testing.T) {
	res := tableresolver.Resolve("高岭2025年充电收入")
	assert.True(t, res.Meta.Gaoling)
	assert.Equal(t, []string{catalog.TableTeLaiDian}, res.Sources, "高岭只有特来电设备")
}

func TestResolveComprehensive(t *testing.T) {
	res := tableresolver.Resolve("2024年综合业务收入多少")
	assert.Len(t, res.Sources, 13, "综合业务收入覆盖13张表")

	res = tableresolver.Resolve("四方坪2024年综合业务收入")
	assert.Len(t, res.Sources, 10, "四方坪限定时缩减为10张")
	assert.NotContains(t, res.Sources, catalog.TableHongMen)
	assert.NotContains(t, res.Sources, catalog.TableYueZuChe)
}

func TestResolveExactNameWins(t *testing.T) {
	// 显式点名的表优先于站点限定规则
	res := tableresolver.Resolve("四方坪2024年特来电收入")
	assert.Equal(t, []string{catalog.TableTeLaiDian}, res.Sources)
	assert.Equal(t, "exact-name", res.Meta.MatchedRule)
	assert.True(t, res.Meta.Sifangping, "站点标记仍然保留，渲染时注入谓词")
}

func TestResolveExactNameLongestFirst(t *testing.T) {
	res := tableresolver.Resolve("车海洋洗车充值2024年收入")
	assert.Equal(t, []string{catalog.TableCheHaiYangCZ}, res.Sources)
}

func TestResolveWashingCategory(t *testing.T) {
	res := tableresolver.Resolve("去年洗车收入多少")
	assert.Equal(t, []string{
		catalog.TableCheHaiYangCZ, catalog.TableCheHaiYangXF,
		catalog.TableCheYanZhiJi, catalog.TableKuaiYiJie,
	}, res.Sources)
}

func TestResolveChargingCategory(t *testing.T) {
	res := tableresolver.Resolve("2024年充电服务费多少")
	assert.Equal(t, []string{catalog.TableTeLaiDian, catalog.TableNengKe, catalog.TableDiDi},
		res.Sources)
	assert.Equal(t, "category-charging", res.Meta.MatchedRule)
}

func TestResolveMarginLoss(t *testing.T) {
	// 毛利/损耗问题通常不点名任何表，要映射到充电表加电力局
	for _, text := range []string{"2024年毛利是多少", "2024年损耗是多少", "去年电损多少"} {
		res := tableresolver.Resolve(text)
		assert.Equal(t, []string{
			catalog.TableTeLaiDian, catalog.TableNengKe,
			catalog.TableDiDi, catalog.TableDianLiJu,
		}, res.Sources, text)
		assert.Equal(t, "category-margin-loss", res.Meta.MatchedRule, text)
	}
}

func TestResolveTerminalDropsNengKe(t *testing.T) {
	res := tableresolver.Resolve("2024年哪把枪充电量最多")
	assert.True(t, res.Meta.WantsTerminal)
	assert.NotContains(t, res.Sources, catalog.TableNengKe, "能科不导出终端列")
	assert.Contains(t, res.Sources, catalog.TableTeLaiDian)
}

func TestResolveAlias(t *testing.T) {
	res := tableresolver.Resolve("兴元2024年收入多少")
	assert.Equal(t, []string{catalog.TableXingYuan}, res.Sources)
}

func TestResolveNothing(t *testing.T) {
	res := tableresolver.Resolve("今天天气怎么样")
	assert.Empty(t, res.Sources)
}

func TestResolveIsDeterministic(t *testing.T) {
	a := tableresolver.Resolve("四方坪去年充电收入多少？")
	b := tableresolver.Resolve("四方坪去年充电收入多少？")
	assert.Equal(t, a, b, "同样的问题必须得到同样的解析结果")
}

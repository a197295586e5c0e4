package tableresolver_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
)

func TestResolveFieldLongestAliasWins(t *testing.T) {
	src := catalog.MustGet(catalog.TableTeLaiDian)

	alias, fm, err := tableresolver.ResolveField(src, "2024年充电电费多少")
	require.NoError(t, err)
	assert.Equal(t, "充电电费", alias, "长词必须优先于子串\"电费\"")
	assert.Equal(t, "[充电电费(元)]", fm.Expression)

	alias, fm, err = tableresolver.ResolveField(src, "2024年电费多少")
	require.NoError(t, err)
	assert.Equal(t, "电费", alias)
	assert.Equal(t, "[充电电费(元)]", fm.Expression)
}

func TestResolveFieldPerTableMapping(t *testing.T) {
	// 同一个关键词在不同表里映射到不同的物理列
	teld := catalog.MustGet(catalog.TableTeLaiDian)
	_, fm, err := tableresolver.ResolveField(teld, "充电电量")
	require.NoError(t, err)
	assert.Equal(t, "[充电电量(度)]", fm.Expression)

	nengke := catalog.MustGet(catalog.TableNengKe)
	_, fm, err = tableresolver.ResolveField(nengke, "充电电量")
	require.NoError(t, err)
	assert.Equal(t, "[充电量]", fm.Expression)

	didi := catalog.MustGet(catalog.TableDiDi)
	_, fm, err = tableresolver.ResolveField(didi, "充电电量")
	require.NoError(t, err)
	assert.Equal(t, catalog.KindNumericString, fm.Kind, "滴滴的电量列是字符串存储")
}

func TestResolveFieldFallbackToRevenue(t *testing.T) {
	src := catalog.MustGet(catalog.TableTeLaiDian)
	alias, fm, err := tableresolver.ResolveField(src, "特来电2024年的情况")
	require.NoError(t, err)
	assert.Equal(t, "收入", alias)
	assert.Equal(t, "[充电费用(元)]", fm.Expression)
}

func TestResolveFieldNoMatch(t *testing.T) {
	src := &catalog.SourceDefinition{
		Name: "测试表",
		Fields: map[string]catalog.FieldMapping{
			"电量": {Expression: "[电量]", Kind: catalog.KindRaw},
		},
	}
	_, _, err := tableresolver.ResolveField(src, "这张表的订单怎么样")
	assert.True(t, errors.Is(err, tableresolver.ErrNoField))
}

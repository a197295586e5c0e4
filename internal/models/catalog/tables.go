package catalog

// 本文件集中定义全部数据表的静态配置。
// 这些表来自互不相关的业务系统（充电桩平台、洗车机、道闸、售货机、
// 支付渠道、电力局账单），没有统一的表结构和时间粒度，
// 所有差异都在这里以数据的形式描述，查询逻辑对配置保持通用。

// 表名常量
const (
	TableTeLaiDian     = "特来电"
	TableNengKe        = "能科"
	TableDiDi          = "滴滴"
	TableCheHaiYangCZ  = "车海洋洗车充值"
	TableCheHaiYangXF  = "车海洋洗车消费"
	TableCheYanZhiJi   = "车颜知己洗车"
	TableDianLiJu      = "电力局"
	TableHongMen       = "红门缴费"
	TableKuaiYiJie     = "快易洁洗车"
	TableSaiFeiMu      = "赛菲姆道闸"
	TableShouQianBa    = "收钱吧"
	TableXingYuan      = "兴元售货机"
	TableWeixinXiaDan  = "微信商户下单"
	TableWeixinShouKuan = "微信收款商业版"
	TableYueZuChe      = "月租车充值"
	TableZhiXiaoMeng   = "智小盟"
	TableChaoShi       = "超时占位费"
	TableYouHuiQuan    = "活动优惠券"
)

// 站点名称
const (
	SiteSifangping = "四方坪"
	SiteGaoling    = "高岭"
)

// 高岭站点在特来电表中对应的两个电站
const gaolingStationFilter = "([电站名称] LIKE '%华为飞狐特来电高岭超充站%' OR [电站名称] LIKE '%长沙市开福区高岭香江国际城充电站建设项目%')"
const sifangpingStationFilter = "[电站名称] NOT LIKE '%华为飞狐特来电高岭超充站%' AND [电站名称] NOT LIKE '%长沙市开福区高岭香江国际城充电站建设项目%'"

// sources 全部表定义，进程启动时构建一次，之后只读
var sources = map[string]*SourceDefinition{
	TableTeLaiDian: {
		Name:           TableTeLaiDian,
		Time:           TimeFieldRef{Column: "充电结束时间"},
		StationColumn:  "电站名称",
		TerminalColumn: "终端名称",
		Site: &SiteFilter{
			Sifangping: sifangpingStationFilter,
			Gaoling:    gaolingStationFilter,
		},
		Fields: map[string]FieldMapping{
			"充电电量":  {Expression: "[充电电量(度)]", Kind: KindRaw},
			"电量":    {Expression: "[充电电量(度)]", Kind: KindRaw},
			"充电服务费": {Expression: "[充电服务费(元)]", Kind: KindRaw},
			"服务费":   {Expression: "[充电服务费(元)]", Kind: KindRaw},
			"充电费用":  {Expression: "[充电费用(元)]", Kind: KindRaw},
			"充电电费":  {Expression: "[充电电费(元)]", Kind: KindRaw},
			"电费":    {Expression: "[充电电费(元)]", Kind: KindRaw},
			"费用":    {Expression: "[充电费用(元)]", Kind: KindRaw},
			"金额":    {Expression: "[充电费用(元)]", Kind: KindRaw},
			"收入":    {Expression: "[充电费用(元)]", Kind: KindRaw},
			"充电时长":  {Expression: "[充电时长(分钟)]", Kind: KindNumericString},
			"时长":    {Expression: "[充电时长(分钟)]", Kind: KindNumericString},
			"订单数量":  {Expression: "[订单编号]", Kind: KindCount},
			"订单数":   {Expression: "[订单编号]", Kind: KindCount},
		},
	},
	TableNengKe: {
		Name:            TableNengKe,
		Time:            TimeFieldRef{Column: "结束日期时间"},
		WholeSifangping: true,
		// 能科平台2024年5月之后停止接入，之后的数据不存在
		ValidUntil: YearMonth{Year: 2024, Month: 5},
		Fields: map[string]FieldMapping{
			"充电电量":  {Expression: "[充电量]", Kind: KindRaw},
			"电量":    {Expression: "[充电量]", Kind: KindRaw},
			"充电服务费": {Expression: "[服务费]", Kind: KindRaw},
			"服务费":   {Expression: "[服务费]", Kind: KindRaw},
			"充电费用":  {Expression: "[消费金额]", Kind: KindRaw},
			"充电电费":  {Expression: "[电费]", Kind: KindRaw},
			"电费":    {Expression: "[电费]", Kind: KindRaw},
			"费用":    {Expression: "[消费金额]", Kind: KindRaw},
			"金额":    {Expression: "[消费金额]", Kind: KindRaw},
			"收入":    {Expression: "[消费金额]", Kind: KindRaw},
			"充电时长":  {Expression: "DATEDIFF(MINUTE, 0, CAST([充电时长] AS TIME))", Kind: KindComputed},
			"时长":    {Expression: "DATEDIFF(MINUTE, 0, CAST([充电时长] AS TIME))", Kind: KindComputed},
			"订单数量":  {Expression: "[订单类型]", Kind: KindCount},
			"订单数":   {Expression: "[订单类型]", Kind: KindCount},
		},
	},
	TableDiDi: {
		Name:            TableDiDi,
		Time:            TimeFieldRef{Column: "充电完成时间"},
		StationColumn:   "场站名称",
		TerminalColumn:  "终端编号",
		WholeSifangping: true,
		// 滴滴平台2025年11月才接入，之前的数据不存在
		ValidFrom: YearMonth{Year: 2025, Month: 11},
		Fields: map[string]FieldMapping{
			"充电电量":  {Expression: "[充电量（度）]", Kind: KindNumericString},
			"电量":    {Expression: "[充电量（度）]", Kind: KindNumericString},
			"充电服务费": {Expression: "[充电服务费（元）]", Kind: KindNumericString},
			"服务费":   {Expression: "[充电服务费（元）]", Kind: KindNumericString},
			"充电费用":  {Expression: "[订单总额（元）]", Kind: KindNumericString},
			"充电电费":  {Expression: "[充电电费（元）]", Kind: KindNumericString},
			"电费":    {Expression: "[充电电费（元）]", Kind: KindNumericString},
			"费用":    {Expression: "[订单总额（元）]", Kind: KindNumericString},
			"金额":    {Expression: "[订单总额（元）]", Kind: KindNumericString},
			"收入":    {Expression: "[订单总额（元）]", Kind: KindNumericString},
			"充电时长":  {Expression: "[充电时长（分钟）]", Kind: KindRaw},
			"时长":    {Expression: "[充电时长（分钟）]", Kind: KindRaw},
			"订单数量":  {Expression: "[订单编号]", Kind: KindCount},
			"订单数":   {Expression: "[订单编号]", Kind: KindCount},
		},
	},
	TableCheHaiYangCZ: {
		Name: TableCheHaiYangCZ,
		Time: TimeFieldRef{Column: "时间"},
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[返还金额]", Kind: KindRaw},
			"金额":   {Expression: "[返还金额]", Kind: KindRaw},
			"返还金额": {Expression: "[返还金额]", Kind: KindRaw},
		},
	},
	TableCheHaiYangXF: {
		Name: TableCheHaiYangXF,
		Time: TimeFieldRef{Column: "时间"},
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[返还金额]", Kind: KindRaw},
			"金额":   {Expression: "[返还金额]", Kind: KindRaw},
			"返还金额": {Expression: "[返还金额]", Kind: KindRaw},
		},
	},
	TableCheYanZhiJi: {
		Name: TableCheYanZhiJi,
		Time: TimeFieldRef{Column: "交易时间"},
		Fields: map[string]FieldMapping{
			"收入": {Expression: "[交易金额]", Kind: KindRaw},
			"金额": {Expression: "[交易金额]", Kind: KindRaw},
		},
	},
	TableDianLiJu: {
		Name: TableDianLiJu,
		// 电力局账单按月抄表，只有年/月两个整数列，没有具体日期
		Time: TimeFieldRef{YearColumn: "年份", MonthColumn: "月份"},
		Fields: map[string]FieldMapping{
			"用电量":  {Expression: "[用电量]", Kind: KindRaw},
			"电量":   {Expression: "[用电量]", Kind: KindRaw},
			"电费金额": {Expression: "[电费金额]", Kind: KindRaw},
			"电费":   {Expression: "[电费金额]", Kind: KindRaw},
			"金额":   {Expression: "[电费金额]", Kind: KindRaw},
			"收入":   {Expression: "[电费金额]", Kind: KindRaw},
		},
	},
	TableHongMen: {
		Name: TableHongMen,
		Time: TimeFieldRef{Column: "缴费时间"},
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[交易金额]", Kind: KindRaw},
			"金额":   {Expression: "[交易金额]", Kind: KindRaw},
			"交易金额": {Expression: "[交易金额]", Kind: KindRaw},
		},
	},
	TableKuaiYiJie: {
		Name: TableKuaiYiJie,
		Time: TimeFieldRef{Column: "日期"},
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[返还总额]", Kind: KindRaw},
			"金额":   {Expression: "[返还总额]", Kind: KindRaw},
			"返还总额": {Expression: "[返还总额]", Kind: KindRaw},
		},
	},
	TableSaiFeiMu: {
		Name:         TableSaiFeiMu,
		Time:         TimeFieldRef{Column: "支付时间"},
		StatusFilter: "([支付方式] = '微信支付' OR [支付方式] = '支付宝支付')",
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[支付金额]", Kind: KindRaw},
			"金额":   {Expression: "[支付金额]", Kind: KindRaw},
			"支付金额": {Expression: "[支付金额]", Kind: KindRaw},
		},
	},
	TableShouQianBa: {
		Name:         TableShouQianBa,
		Time:         TimeFieldRef{Column: "交易日期"},
		StatusFilter: "[交易状态] = '成功'",
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[实收金额]", Kind: KindRaw},
			"金额":   {Expression: "[实收金额]", Kind: KindRaw},
			"实收金额": {Expression: "[实收金额]", Kind: KindRaw},
		},
	},
	TableXingYuan: {
		Name: TableXingYuan,
		Time: TimeFieldRef{Column: "支付时间"},
		Fields: map[string]FieldMapping{
			"收入": {Expression: "([支付金额] - ISNULL([退款金额], 0))", Kind: KindComputed},
			"金额": {Expression: "([支付金额] - ISNULL([退款金额], 0))", Kind: KindComputed},
		},
	},
	TableWeixinXiaDan: {
		Name: TableWeixinXiaDan,
		Time: TimeFieldRef{Column: "交易时间"},
		Fields: map[string]FieldMapping{
			"收入": {Expression: "(CAST([订单金额] AS FLOAT) - ISNULL(CAST([退款金额] AS FLOAT), 0))", Kind: KindComputed},
			"金额": {Expression: "(CAST([订单金额] AS FLOAT) - ISNULL(CAST([退款金额] AS FLOAT), 0))", Kind: KindComputed},
		},
	},
	TableWeixinShouKuan: {
		Name: TableWeixinShouKuan,
		Time: TimeFieldRef{Column: "交易时间"},
		Fields: map[string]FieldMapping{
			"收入": {Expression: "(CAST([订单金额] AS FLOAT) - ISNULL(CAST([退款金额] AS FLOAT), 0))", Kind: KindComputed},
			"金额": {Expression: "(CAST([订单金额] AS FLOAT) - ISNULL(CAST([退款金额] AS FLOAT), 0))", Kind: KindComputed},
		},
	},
	TableYueZuChe: {
		Name: TableYueZuChe,
		Time: TimeFieldRef{Column: "交款时间"},
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[交款金额]", Kind: KindRaw},
			"金额":   {Expression: "[交款金额]", Kind: KindRaw},
			"交款金额": {Expression: "[交款金额]", Kind: KindRaw},
		},
	},
	TableZhiXiaoMeng: {
		Name: TableZhiXiaoMeng,
		Time: TimeFieldRef{Column: "支付时间"},
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[实收金额]", Kind: KindRaw},
			"金额":   {Expression: "[实收金额]", Kind: KindRaw},
			"实收金额": {Expression: "[实收金额]", Kind: KindRaw},
		},
	},
	TableChaoShi: {
		Name: TableChaoShi,
		Time: TimeFieldRef{Column: "支付时间"},
		Fields: map[string]FieldMapping{
			"收入":   {Expression: "[应收金额]", Kind: KindRaw},
			"金额":   {Expression: "[应收金额]", Kind: KindRaw},
			"应收金额": {Expression: "[应收金额]", Kind: KindRaw},
		},
	},
	TableYouHuiQuan: {
		Name: TableYouHuiQuan,
		Time: TimeFieldRef{Column: "使用时间"},
		Fields: map[string]FieldMapping{
			"优惠金额": {Expression: "[优惠金额]", Kind: KindRaw},
			"金额":   {Expression: "[优惠金额]", Kind: KindRaw},
			"收入":   {Expression: "[优惠金额]", Kind: KindRaw},
			"张数":   {Expression: "[券编号]", Kind: KindCount},
		},
	},
}

// ChargingSources 充电类表（查询"充电"时的默认集合）
var ChargingSources = []string{TableTeLaiDian, TableNengKe, TableDiDi}

// WashingSources 洗车类表
var WashingSources = []string{TableCheHaiYangCZ, TableCheHaiYangXF, TableCheYanZhiJi, TableKuaiYiJie}

// WeixinSources 微信支付渠道表
var WeixinSources = []string{TableWeixinXiaDan, TableWeixinShouKuan}

// CheHaiYangSources 车海洋充值+消费
var CheHaiYangSources = []string{TableCheHaiYangCZ, TableCheHaiYangXF}

// ComprehensiveSources "综合业务收入"覆盖的13张表
// （不含电力局账单和优惠券等非收入表）
var ComprehensiveSources = []string{
	TableTeLaiDian, TableNengKe, TableDiDi,
	TableCheHaiYangCZ, TableCheHaiYangXF, TableCheYanZhiJi, TableKuaiYiJie,
	TableHongMen, TableSaiFeiMu, TableShouQianBa,
	TableXingYuan, TableYueZuChe, TableChaoShi,
}

// ComprehensiveSifangping 带四方坪限定时的10张表
// （高岭侧的道闸/月租/占位渠道不计入）
var ComprehensiveSifangping = []string{
	TableTeLaiDian, TableNengKe, TableDiDi,
	TableCheHaiYangCZ, TableCheHaiYangXF, TableCheYanZhiJi, TableKuaiYiJie,
	TableShouQianBa, TableXingYuan, TableChaoShi,
}

// sourceAliases 部分表名的简称（模糊匹配用）
var sourceAliases = map[string]string{
	"兴元":   TableXingYuan,
	"车颜知己": TableCheYanZhiJi,
	"快易洁":  TableKuaiYiJie,
	"红门":   TableHongMen,
	"赛菲姆":  TableSaiFeiMu,
	"月租车":  TableYueZuChe,
	"超时":   TableChaoShi,
	"占位":   TableChaoShi,
	"优惠券":  TableYouHuiQuan,
}

// gunCounts 各站点按年份的充电枪数量
// 这是固定台账数据而不是实时统计：设备增减以备案为准
var gunCounts = map[string]map[int]int{
	SiteSifangping: {2022: 72, 2023: 96, 2024: 118, 2025: 142},
	SiteGaoling:    {2024: 24, 2025: 36},
}

// Get 按表名查找表定义
func Get(name string) (*SourceDefinition, bool) {
	s, ok := sources[name]
	return s, ok
}

// MustGet 按表名查找表定义，不存在时panic（仅限配置级常量路径使用）
func MustGet(name string) *SourceDefinition {
	s, ok := sources[name]
	if !ok {
		panic("未配置的数据表: " + name)
	}
	return s
}

// Names 返回全部表名
func Names() []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	return names
}

// Aliases 返回表名简称映射（只读）
func Aliases() map[string]string {
	return sourceAliases
}

// GunCount 返回指定站点、指定年份的充电枪数量
// 站点为空时返回全部站点之和；该年份无备案时取最近一个有记录的年份
func GunCount(site string, year int) int {
	if site == "" {
		return GunCount(SiteSifangping, year) + GunCount(SiteGaoling, year)
	}
	byYear, ok := gunCounts[site]
	if !ok {
		return 0
	}
	if n, ok := byYear[year]; ok {
		return n
	}
	// 回退到不超过目标年份的最近记录
	best := 0
	bestYear := 0
	for y, n := range byYear {
		if y <= year && y > bestYear {
			bestYear = y
			best = n
		}
	}
	return best
}

// BoundedSources 返回配置了有效期窗口的表名
func BoundedSources() []string {
	var out []string
	for name, s := range sources {
		if s.HasWindow() {
			out = append(out, name)
		}
	}
	return out
}

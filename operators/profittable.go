package operators

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
	"github.com/leofalp/sheetflow/providers/sheetio"
)

// profitTemplateColumns is the franchise profit ledger header row. Columns
// the operator cannot derive from the workbook stay empty.
var profitTemplateColumns = []string{
	"年份", "月份", "市场", "办公室", "店长姓名", "erp门店编号", "门店名称（自定义）", "开店时间", "关店时间", "erp门店名称", "是否店中店",
	"所属实体店门店名称", "人数",
	"一、收入", "计业绩产品收入", "不计业绩产品收入", "产品退货", "计业绩团品收入", "不计业绩团品收入", "旅游收入（非赠）", "其他收入",
	"二、成本", "计业绩产品成本", "计业绩产品赠品（主品）", "不计业绩产品成本", "成本优惠", "退货成本", "计业绩团品成本", "不计业绩团品成本",
	"旅游成本（非赠）", "其他成本",
	"三、费用", "一线工资", "高管工资", "二线工资（人事司机）", "一线社保", "高管社保", "二线社保（人事司机）",
	"主品赠送（非主品）", "小单礼品", "绑定上人礼品", "分享会礼品", "维护客户礼品",
	"业务办公费", "旅游", "任务款", "红包", "门店押金", "门店转让费、中介费", "门店房租", "门店装修", "门店资产", "门店暖气费",
	"门店物业费", "门店水、电、液化气", "公司服务费", "代账费", "运费",
	"利息收支、手续费（转账）", "直播间APP手续费（0.6%）", "辅酶手续费（千分之6）", "富友手续费（千分之2.2）",
	"门店税费", "企微年费分摊", "直播流量费分摊", "仓储运费分摊", "其他分摊", "其他费用",
	"四、利润",
	"一代管道", "二代管道", "三代管道", "四代管道", "五代管道", "六代管道", "股东1", "股东2",
	"一代经理级别", "一代提成比例", "一代提成金额",
	"二代经理级别", "二代提成比例", "二代提成金额",
	"三代经理级别", "三代提成比例", "三代提成金额",
	"一级经理姓名", "一级经理提成比例", "一级经理提成金额",
	"特殊一级经理姓名", "特殊一级经理提成比例", "特殊一级经理提成金额",
	"特特殊一级经理姓名", "特特殊一级经理提成比例", "特特殊一级经理提成金额",
	"股东1姓名", "股东1提成比例", "股东1提成金额", "股东2姓名", "股东2提成比例", "股东2提成金额", "品牌、软件公司",
}

var (
	storePrefixFull = regexp.MustCompile(`^（[^）]+）`)
	storePrefixHalf = regexp.MustCompile(`^\([^)]*\)`)
)

// normalizeStoreName trims a store cell and strips a leading parenthesized
// market prefix, in either width.
func normalizeStoreName(cell any) string {
	s := strings.TrimSpace(table.AsString(cell))
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return ""
	}
	s = storePrefixFull.ReplaceAllString(s, "")
	s = storePrefixHalf.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// workbook bundles the source sheets of one profit workbook. Sheets missing
// from the file read as empty tables.
type workbook struct {
	orders  *table.Table
	live    *table.Table
	returns *table.Table
	funds   *table.Table
	alloc   *table.Table
	payroll *table.Table
	finance *table.Table
	fuiou   *table.Table
	rentLiu *table.Table
	rentHu  *table.Table
	quota   *table.Table
}

func loadProfitWorkbook(path string, maxRows int) *workbook {
	read := func(sheet string) *table.Table {
		t, err := sheetio.ReadXLSX(path, sheetio.ReadOptions{Sheet: sheet, HeaderRow: 1, MaxRows: maxRows})
		if err != nil {
			return table.Empty()
		}
		return t
	}
	return &workbook{
		orders:  read("订单明细"),
		live:    read("直播间"),
		returns: read("退货"),
		funds:   read("资金日报"),
		alloc:   read("分摊费用"),
		payroll: read("工资表"),
		finance: read("财务系统"),
		fuiou:   read("富友流水"),
		rentLiu: read("刘洋房租"),
		rentHu:  read("胡兴旺房租"),
		quota:   read("市场定额"),
	}
}

// majorityValue returns the most frequent non-blank trimmed text value of a
// column, first occurrence winning ties.
func majorityValue(t *table.Table, column string) string {
	if t == nil || t.NumRows() == 0 || !t.HasColumn(column) {
		return ""
	}
	counts := make(map[string]int)
	var order []string
	for row := 0; row < t.NumRows(); row++ {
		s := strings.TrimSpace(table.AsString(t.Cell(row, column)))
		if s == "" || s == "nan" || s == "None" {
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	best := ""
	for _, s := range order {
		if best == "" || counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

// majorityYearMonth returns the most frequent (year, month) of a date column.
func majorityYearMonth(t *table.Table, column string) (int, int, bool) {
	if t == nil || t.NumRows() == 0 || !t.HasColumn(column) {
		return 0, 0, false
	}
	type ym struct{ year, month int }
	counts := make(map[ym]int)
	var order []ym
	for row := 0; row < t.NumRows(); row++ {
		when, ok := table.ParseTime(t.Cell(row, column))
		if !ok {
			continue
		}
		key := ym{when.Year(), int(when.Month())}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	var best ym
	found := false
	for _, key := range order {
		if !found || counts[key] > counts[best] {
			best = key
			found = true
		}
	}
	return best.year, best.month, found
}

// sheetView is one source sheet after team and period filtering, with a
// normalized store name per row.
type sheetView struct {
	t      *table.Table
	stores []string
}

func (v *sheetView) empty() bool { return v == nil || v.t == nil || v.t.NumRows() == 0 }

// sumByStore sums a numeric column per store over rows passing the mask.
// Missing column or nil view yields an empty map.
func (v *sheetView) sumByStore(amountColumn string, mask func(row int) bool) map[string]float64 {
	sums := make(map[string]float64)
	if v.empty() || !v.t.HasColumn(amountColumn) {
		return sums
	}
	for row := 0; row < v.t.NumRows(); row++ {
		if mask != nil && !mask(row) {
			continue
		}
		value, _ := table.AsFloat(v.t.Cell(row, amountColumn))
		sums[v.stores[row]] += value
	}
	return sums
}

// textEq builds a row mask matching a column's text rendering.
func (v *sheetView) textEq(column, want string) func(row int) bool {
	if v.empty() || !v.t.HasColumn(column) {
		return func(int) bool { return false }
	}
	return func(row int) bool { return table.AsString(v.t.Cell(row, column)) == want }
}

func (v *sheetView) textNotEq(column, want string) func(row int) bool {
	if v.empty() || !v.t.HasColumn(column) {
		return func(int) bool { return false }
	}
	return func(row int) bool { return table.AsString(v.t.Cell(row, column)) != want }
}

func allRows(int) bool { return true }

func andMask(masks ...func(int) bool) func(int) bool {
	return func(row int) bool {
		for _, mask := range masks {
			if !mask(row) {
				return false
			}
		}
		return true
	}
}

// newSheetView filters a sheet to one team (exact match on teamColumn when
// given) and one calendar month (on dateColumn when given), then normalizes
// the store column.
func newSheetView(t *table.Table, teamColumn, team, dateColumn string, year, month int, storeColumn string) *sheetView {
	if t == nil || t.NumRows() == 0 {
		return &sheetView{t: table.Empty()}
	}
	if team != "" && teamColumn != "" && t.HasColumn(teamColumn) {
		t = t.FilterRows(func(row int) bool {
			return table.AsString(t.Cell(row, teamColumn)) == team
		})
	}
	if dateColumn != "" {
		if !t.HasColumn(dateColumn) {
			return &sheetView{t: table.Empty()}
		}
		filtered := t.FilterRows(func(row int) bool {
			when, ok := table.ParseTime(t.Cell(row, dateColumn))
			return ok && when.Year() == year && int(when.Month()) == month
		})
		t = filtered
	}
	view := &sheetView{t: t, stores: make([]string, t.NumRows())}
	if storeColumn != "" && t.HasColumn(storeColumn) {
		for row := 0; row < t.NumRows(); row++ {
			view.stores[row] = normalizeStoreName(t.Cell(row, storeColumn))
		}
	}
	return view
}

func addSums(into, from map[string]float64) map[string]float64 {
	for store, value := range from {
		into[store] += value
	}
	return into
}

// runProfitTable assembles a per-store profit ledger from a single workbook:
// order detail drives income and cost, the remaining sheets fill whichever
// expense buckets they cover, template columns with no source stay empty.
// Config: file_id (required); team_name, market_name, office_name, year and
// month are inferred from the data when omitted.
func runProfitTable(_ context.Context, env *Env, req *Request) (*Result, error) {
	fileID, err := requireString(req.Config, "profit_table", "file_id")
	if err != nil {
		return nil, err
	}
	path, err := env.Resolver.Resolve(fileID)
	if err != nil {
		return nil, err
	}

	maxRows := -1
	if env.Preview {
		maxRows = env.SourceRowLimit
	}
	book := loadProfitWorkbook(path, maxRows)

	teamName := configString(req.Config, "team_name")
	if teamName == "" {
		for _, candidate := range []struct {
			t      *table.Table
			column string
		}{
			{book.orders, "所属团队"}, {book.live, "所属团队"}, {book.returns, "团队"},
			{book.funds, "团队"}, {book.finance, "市场团队"},
		} {
			if teamName = majorityValue(candidate.t, candidate.column); teamName != "" {
				break
			}
		}
	}
	marketName := configString(req.Config, "market_name")
	if marketName == "" && teamName != "" {
		runes := []rune(teamName)
		if len(runes) > 2 {
			runes = runes[:2]
		}
		marketName = string(runes)
	}
	officeName := configString(req.Config, "office_name")
	if officeName == "" && teamName != "" {
		if marketName != "" && strings.HasPrefix(teamName, marketName) {
			officeName = strings.TrimPrefix(teamName, marketName)
		} else {
			officeName = teamName
		}
	}

	year := configInt(req.Config, "year", 0)
	month := configInt(req.Config, "month", 0)
	if year == 0 || month == 0 {
		for _, candidate := range []struct {
			t      *table.Table
			column string
		}{
			{book.orders, "订单提交时间"}, {book.live, "订单提交时间"}, {book.funds, "日期"},
			{book.returns, "订单时间"}, {book.returns, "申请时间"},
		} {
			if y, m, ok := majorityYearMonth(candidate.t, candidate.column); ok {
				if year == 0 {
					year = y
				}
				if month == 0 {
					month = m
				}
				break
			}
		}
	}
	if year == 0 || month == 0 {
		return nil, fault.New(fault.KindConfigMissing,
			"profit_table cannot infer the accounting period: set year and month in config or provide dated source sheets")
	}
	ymInt := int64(year*100 + month)
	env.Log("profit_table: team=%q market=%q office=%q period=%04d-%02d", teamName, marketName, officeName, year, month)

	orders := newSheetView(book.orders, "所属团队", teamName, "订单提交时间", year, month, "所属门店")
	live := newSheetView(book.live, "所属团队", teamName, "订单提交时间", year, month, "所属门店")

	returnsDate := ""
	if book.returns.HasColumn("订单时间") {
		returnsDate = "订单时间"
	} else if book.returns.HasColumn("申请时间") {
		returnsDate = "申请时间"
	}
	returns := newSheetView(book.returns, "团队", teamName, returnsDate, year, month, "门店")

	// The funds and fuiou sheets keep all rows when their date column is
	// absent.
	fundsDate := ""
	if book.funds.HasColumn("日期") {
		fundsDate = "日期"
	}
	funds := newSheetView(book.funds, "团队", teamName, fundsDate, year, month, "店面名称")
	fuiouDate := ""
	if book.fuiou.HasColumn("交易日期") {
		fuiouDate = "交易日期"
	}
	fuiou := newSheetView(book.fuiou, "", "", fuiouDate, year, month, "门店名称")

	// Payroll and finance carry a numeric 年月/月份 period instead of dates,
	// and payroll matches the team by substring.
	payroll := filterContains(book.payroll, "市场名称", firstNonEmpty(teamName, officeName))
	payroll = filterPeriod(payroll, "年月", ymInt)
	payrollView := storeView(payroll, "门店名称")

	finance := book.finance
	if teamName != "" && finance.HasColumn("市场团队") {
		f := finance
		finance = f.FilterRows(func(row int) bool { return table.AsString(f.Cell(row, "市场团队")) == teamName })
	}
	finance = filterPeriod(finance, "月份", ymInt)
	financeView := storeView(finance, "门店名称")

	alloc := book.alloc
	allocTeamColumn := ""
	if alloc.HasColumn("团队.1") {
		allocTeamColumn = "团队.1"
	} else if alloc.HasColumn("团队") {
		allocTeamColumn = "团队"
	}
	if allocTeamColumn != "" {
		alloc = filterContains(alloc, allocTeamColumn, firstNonEmpty(officeName, teamName))
	}
	allocView := storeView(alloc, "门店")

	// Store roster from filtered orders, payroll as fallback.
	storeSet := make(map[string]bool)
	for _, store := range orders.stores {
		if store != "" {
			storeSet[store] = true
		}
	}
	if len(storeSet) == 0 && book.payroll.HasColumn("门店名称") {
		for row := 0; row < book.payroll.NumRows(); row++ {
			if store := normalizeStoreName(book.payroll.Cell(row, "门店名称")); store != "" {
				storeSet[store] = true
			}
		}
	}
	stores := make([]string, 0, len(storeSet))
	for store := range storeSet {
		stores = append(stores, store)
	}
	sort.Strings(stores)
	if len(stores) == 0 {
		empty := make([]table.Column, len(profitTemplateColumns))
		for i, name := range profitTemplateColumns {
			empty[i] = table.Col(name)
		}
		out, err := table.New(empty...)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "profit_table assembly failed")
		}
		return &Result{Table: out}, nil
	}

	storeIDs := make(map[string]int64)
	if book.quota.HasColumn("店面") && book.quota.HasColumn("店面编号") {
		for row := 0; row < book.quota.NumRows(); row++ {
			store := normalizeStoreName(book.quota.Cell(row, "店面"))
			id, ok := table.AsFloat(book.quota.Cell(row, "店面编号"))
			if store != "" && ok && id != 0 {
				storeIDs[store] = int64(id)
			}
		}
	}

	isMain := orders.textEq("商品类型", "主品")
	isGroup := orders.textEq("商品类型", "团品")
	isPerf := orders.textEq("是否计入业绩", "计入业绩")
	isNonperf := orders.textEq("是否计入业绩", "不计入业绩")
	isNongift := orders.textEq("是否赠品", "非赠品")
	isGift := orders.textNotEq("是否赠品", "非赠品")

	revMainPerf := orders.sumByStore("订单实际支付", andMask(isMain, isPerf))
	revMainNonperf := orders.sumByStore("订单实际支付", andMask(isMain, isNonperf))
	revGroupPerf := orders.sumByStore("订单实际支付", andMask(isGroup, isPerf))
	revGroupNonperf := orders.sumByStore("订单实际支付", andMask(isGroup, isNonperf))

	costMainPerf := orders.sumByStore("成本合计", andMask(isMain, isPerf, isNongift))
	costMainGift := orders.sumByStore("成本合计", andMask(isMain, isPerf, isGift))
	costMainNonperf := orders.sumByStore("成本合计", andMask(isMain, isNonperf, isNongift))
	costGroupPerf := orders.sumByStore("成本合计", andMask(isGroup, isPerf))
	costGroupNonperf := orders.sumByStore("成本合计", andMask(isGroup, isNonperf))

	livePerf := live.textEq("是否计入业绩", "计入业绩")
	liveNonperf := live.textEq("是否计入业绩", "不计入业绩")
	revGroupPerf = addSums(revGroupPerf, live.sumByStore("实际支付金额", livePerf))
	revGroupNonperf = addSums(revGroupNonperf, live.sumByStore("实际支付金额", liveNonperf))
	costGroupPerf = addSums(costGroupPerf, live.sumByStore("成本合计", livePerf))
	costGroupNonperf = addSums(costGroupNonperf, live.sumByStore("成本合计", liveNonperf))

	returnAmountMain := returns.sumByStore("总退货金额", returns.textEq("是否团品", "主品"))
	returnCostAll := returns.sumByStore("成本合计", allRows)

	salaries := payrollView.sumByStore("税前工资", allRows)
	taskFees := financeView.sumByStore("任务款", allRows)
	fuiouFees := fuiou.sumByStore("订单手续费", allRows)

	fundsPivot, hasFunds := fundsSubjectPivot(funds)

	rentLiu, managersLiu := rentSeries(book.rentLiu, month)
	rentHu, managersHu := rentSeries(book.rentHu, month)
	if storeOverlap(rentLiu, stores) >= storeOverlap(rentHu, stores) {
		rentHu, managersHu = rentLiu, managersLiu
	}
	rents, managers := rentHu, managersHu

	storeTaxes := allocView.sumByStore("门店税费", allRows)
	wecomFees := allocView.sumByStore("企信分摊金额", allRows)
	bookkeeping := allocBookkeeping(allocView, month)

	cells := make(map[string][]any, len(profitTemplateColumns))
	for _, name := range profitTemplateColumns {
		cells[name] = make([]any, len(stores))
	}
	set := func(name string, row int, value any) { cells[name][row] = value }

	for i, store := range stores {
		set("年份", i, int64(year))
		set("月份", i, int64(month))
		set("市场", i, marketName)
		set("办公室", i, officeName)
		set("所属实体店门店名称", i, store)
		set("erp门店名称", i, store)
		set("门店名称（自定义）", i, store)
		if id, ok := storeIDs[store]; ok {
			set("erp门店编号", i, id)
		}
		if manager, ok := managers[store]; ok {
			set("店长姓名", i, manager)
		}

		income := revMainPerf[store] + revMainNonperf[store] - returnAmountMain[store] +
			revGroupPerf[store] + revGroupNonperf[store]
		set("计业绩产品收入", i, revMainPerf[store])
		set("不计业绩产品收入", i, revMainNonperf[store])
		set("产品退货", i, -returnAmountMain[store])
		set("计业绩团品收入", i, revGroupPerf[store])
		set("不计业绩团品收入", i, revGroupNonperf[store])
		set("一、收入", i, income)

		cost := costMainPerf[store] + costMainGift[store] + costMainNonperf[store] -
			returnCostAll[store] + costGroupPerf[store] + costGroupNonperf[store]
		set("计业绩产品成本", i, costMainPerf[store])
		set("计业绩产品赠品（主品）", i, costMainGift[store])
		set("不计业绩产品成本", i, costMainNonperf[store])
		set("退货成本", i, -returnCostAll[store])
		set("计业绩团品成本", i, costGroupPerf[store])
		set("不计业绩团品成本", i, costGroupNonperf[store])
		set("二、成本", i, cost)

		set("一线工资", i, salaries[store])
		var socialFront, socialExec, utilities float64
		if hasFunds {
			socialFront = fundsPivot["一线社保"][store]
			socialExec = fundsPivot["高管社保"][store]
			utilities = fundsPivot["门店水、电、液化气"][store]
			set("一线社保", i, socialFront)
			set("高管社保", i, socialExec)
			set("门店水、电、液化气", i, utilities)
		}
		set("任务款", i, taskFees[store])
		set("门店房租", i, rents[store])
		set("代账费", i, bookkeeping[store])
		set("门店税费", i, storeTaxes[store])
		set("企微年费分摊", i, wecomFees[store])
		set("富友手续费（千分之2.2）", i, fuiouFees[store])

		expense := salaries[store] + socialFront + socialExec + utilities +
			taskFees[store] + rents[store] + bookkeeping[store] +
			storeTaxes[store] + wecomFees[store] + fuiouFees[store]
		set("三、费用", i, expense)
		set("四、利润", i, income-cost-expense)
	}

	columns := make([]table.Column, len(profitTemplateColumns))
	for i, name := range profitTemplateColumns {
		columns[i] = table.Col(name, cells[name]...)
	}
	out, err := table.New(columns...)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "profit_table assembly failed")
	}
	env.Log("profit_table: %d stores for %04d-%02d", len(stores), year, month)
	return &Result{Table: out}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// filterContains keeps rows whose column text contains the key. An empty key
// or missing column passes the table through.
func filterContains(t *table.Table, column, key string) *table.Table {
	if t == nil || key == "" || !t.HasColumn(column) {
		return t
	}
	return t.FilterRows(func(row int) bool {
		return strings.Contains(table.AsString(t.Cell(row, column)), key)
	})
}

// filterPeriod keeps rows whose numeric period column equals yyyymm.
func filterPeriod(t *table.Table, column string, yyyymm int64) *table.Table {
	if t == nil || !t.HasColumn(column) {
		return t
	}
	return t.FilterRows(func(row int) bool {
		value, ok := table.AsFloat(t.Cell(row, column))
		return ok && int64(value) == yyyymm
	})
}

func storeView(t *table.Table, storeColumn string) *sheetView {
	if t == nil {
		return &sheetView{t: table.Empty()}
	}
	view := &sheetView{t: t, stores: make([]string, t.NumRows())}
	if t.HasColumn(storeColumn) {
		for row := 0; row < t.NumRows(); row++ {
			view.stores[row] = normalizeStoreName(t.Cell(row, storeColumn))
		}
	}
	return view
}

// fundsSubjectPivot sums the funds daily report per (store, 科目) over the
// first available amount column.
func fundsSubjectPivot(funds *sheetView) (map[string]map[string]float64, bool) {
	if funds.empty() || !funds.t.HasColumn("科目") {
		return nil, false
	}
	amountColumn := ""
	for _, candidate := range []string{"减少", "（市场报销）", "增加"} {
		if funds.t.HasColumn(candidate) {
			amountColumn = candidate
			break
		}
	}
	if amountColumn == "" {
		return nil, false
	}
	pivot := make(map[string]map[string]float64)
	for row := 0; row < funds.t.NumRows(); row++ {
		subject := table.AsString(funds.t.Cell(row, "科目"))
		value, _ := table.AsFloat(funds.t.Cell(row, amountColumn))
		bucket := pivot[subject]
		if bucket == nil {
			bucket = make(map[string]float64)
			pivot[subject] = bucket
		}
		bucket[funds.stores[row]] += value
	}
	return pivot, true
}

// rentSeries sums the month's amortized rent per store and collects the
// first listed manager per store.
func rentSeries(rent *table.Table, month int) (map[string]float64, map[string]string) {
	sums := make(map[string]float64)
	managers := make(map[string]string)
	if rent == nil || rent.NumRows() == 0 || !rent.HasColumn("店面名称") {
		return sums, managers
	}
	monthText := table.AsString(int64(month))
	amountColumn := ""
	for _, candidate := range []string{monthText + "月摊销", monthText + "月摊", "本月下费用"} {
		if rent.HasColumn(candidate) {
			amountColumn = candidate
			break
		}
	}
	if amountColumn == "" {
		return sums, managers
	}
	hasManager := rent.HasColumn("店长")
	for row := 0; row < rent.NumRows(); row++ {
		store := normalizeStoreName(rent.Cell(row, "店面名称"))
		if store == "" {
			continue
		}
		value, _ := table.AsFloat(rent.Cell(row, amountColumn))
		sums[store] += value
		if hasManager {
			if _, seen := managers[store]; !seen {
				if manager := strings.TrimSpace(table.AsString(rent.Cell(row, "店长"))); manager != "" && manager != "nan" {
					managers[store] = manager
				}
			}
		}
	}
	return sums, managers
}

func storeOverlap(sums map[string]float64, stores []string) int {
	overlap := 0
	for _, store := range stores {
		if _, ok := sums[store]; ok {
			overlap++
		}
	}
	return overlap
}

// allocBookkeeping sums the bookkeeping fee column, preferring the current
// month's column name over the legacy fixed one.
func allocBookkeeping(alloc *sheetView, month int) map[string]float64 {
	if alloc.empty() {
		return make(map[string]float64)
	}
	monthText := table.AsString(int64(month))
	for _, candidate := range []string{monthText + "月下费用", "10月下费用"} {
		if alloc.t.HasColumn(candidate) {
			return alloc.sumByStore(candidate, allRows)
		}
	}
	return make(map[string]float64)
}

package operators

import (
	"context"
	"sort"
	"strings"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// The profit operators aggregate an operational detail stream into the
// monthly profit ledger keyed by (年份, 月份, 办公室). profit_income,
// profit_cost and profit_expense each produce one slice; profit_summary
// outer-joins the slices and derives the totals.

const unknownTeam = "未知团队"

var profitKeyColumns = []string{"年份", "月份", "办公室"}

var (
	profitIncomeColumns  = []string{"计业绩产品收入", "不计业绩产品收入", "计业绩团品收入", "不计业绩团品收入"}
	profitCostColumns    = []string{"计业绩产品成本", "不计业绩产品成本", "计业绩团品成本", "不计业绩团品成本"}
	profitExpenseColumns = []string{"一线工资", "红包", "任务款", "门店房租", "门店水、电、液化气", "门店物业费", "其他分摊", "其他费用"}
	profitTotalColumns   = []string{"一、收入", "二、成本", "三、费用", "四、利润"}
)

type ymtKey struct {
	year  int64
	month int64
	team  string
}

// ymtGroups accumulates fixed-width value vectors per (year, month, team).
type ymtGroups struct {
	width int
	order []ymtKey
	sums  map[ymtKey][]float64
}

func newYMTGroups(width int) *ymtGroups {
	return &ymtGroups{width: width, sums: make(map[ymtKey][]float64)}
}

func (g *ymtGroups) add(key ymtKey, values []float64) {
	bucket, seen := g.sums[key]
	if !seen {
		bucket = make([]float64, g.width)
		g.sums[key] = bucket
		g.order = append(g.order, key)
	}
	for i, value := range values {
		bucket[i] += value
	}
}

// toTable emits key columns plus one float column per value name, rows
// sorted ascending by year, month, team.
func (g *ymtGroups) toTable(valueNames []string) (*table.Table, error) {
	keys := append([]ymtKey(nil), g.order...)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].team < keys[j].team
	})

	years := make([]any, len(keys))
	months := make([]any, len(keys))
	teams := make([]any, len(keys))
	valueCells := make([][]any, g.width)
	for i := range valueCells {
		valueCells[i] = make([]any, len(keys))
	}
	for row, key := range keys {
		years[row] = key.year
		months[row] = key.month
		teams[row] = key.team
		for i, value := range g.sums[key] {
			valueCells[i][row] = value
		}
	}

	columns := []table.Column{
		table.Col("年份", years...),
		table.Col("月份", months...),
		table.Col("办公室", teams...),
	}
	for i, name := range valueNames {
		columns = append(columns, table.Col(name, valueCells[i]...))
	}
	return table.New(columns...)
}

// teamName normalizes a team cell: blank and placeholder renderings map to
// the catch-all team.
func teamName(cell any) string {
	s := strings.TrimSpace(table.AsString(cell))
	if s == "" || s == "nan" || s == "None" {
		return unknownTeam
	}
	return s
}

// requireColumn resolves a config key naming a column and verifies the
// column exists.
func requireColumn(t *table.Table, config map[string]any, label, key string) (string, error) {
	name, err := requireString(config, label, key)
	if err != nil {
		return "", err
	}
	if !t.HasColumn(name) {
		return "", columnMissing(label, name, t)
	}
	return name, nil
}

// statusFilter applies the optional status filter shared by the profit slice
// operators: rows whose status column is outside allowed_status_values drop.
func statusFilter(t *table.Table, config map[string]any) *table.Table {
	if !configBool(config, "filter_by_status") {
		return t
	}
	statusColumn := configString(config, "status_col")
	allowed := configStringList(config, "allowed_status_values")
	if statusColumn == "" || !t.HasColumn(statusColumn) || len(allowed) == 0 {
		return t
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, value := range allowed {
		allowedSet[value] = true
	}
	return t.FilterRows(func(row int) bool {
		return allowedSet[strings.TrimSpace(table.AsString(t.Cell(row, statusColumn)))]
	})
}

func valueSet(config map[string]any, key string) map[string]bool {
	values := configStringList(config, key)
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}

// runProfitIncome partitions order rows by product kind and performance flag
// and sums the four income columns per (年份, 月份, 办公室).
func runProfitIncome(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}
	const label = "profit_income"

	teamColumn, err := requireColumn(t, req.Config, label, "team_col")
	if err != nil {
		return nil, err
	}
	dateColumn, err := requireColumn(t, req.Config, label, "date_col")
	if err != nil {
		return nil, err
	}
	productColumn, err := requireColumn(t, req.Config, label, "product_type_col")
	if err != nil {
		return nil, err
	}
	perfColumn, err := requireColumn(t, req.Config, label, "perf_flag_col")
	if err != nil {
		return nil, err
	}
	perfAmountColumn, err := requireColumn(t, req.Config, label, "perf_amount_col")
	if err != nil {
		return nil, err
	}
	nonperfAmountColumn, err := requireColumn(t, req.Config, label, "nonperf_amount_col")
	if err != nil {
		return nil, err
	}

	t = statusFilter(t, req.Config)
	mainValues := valueSet(req.Config, "main_product_values")
	groupValues := valueSet(req.Config, "group_product_values")
	perfValues := valueSet(req.Config, "perf_values")

	groups := newYMTGroups(4)
	for row := 0; row < t.NumRows(); row++ {
		when, ok := table.ParseTime(t.Cell(row, dateColumn))
		if !ok {
			continue
		}
		key := ymtKey{int64(when.Year()), int64(when.Month()), teamName(t.Cell(row, teamColumn))}

		isMain := mainValues[table.AsString(t.Cell(row, productColumn))]
		isGroup := groupValues[table.AsString(t.Cell(row, productColumn))]
		isPerf := perfValues[table.AsString(t.Cell(row, perfColumn))]
		perfAmount, _ := table.AsFloat(t.Cell(row, perfAmountColumn))
		nonperfAmount, _ := table.AsFloat(t.Cell(row, nonperfAmountColumn))

		values := make([]float64, 4)
		if isMain && isPerf {
			values[0] = perfAmount
		}
		if isMain && !isPerf {
			values[1] = nonperfAmount
		}
		if isGroup && isPerf {
			values[2] = perfAmount
		}
		if isGroup && !isPerf {
			values[3] = nonperfAmount
		}
		groups.add(key, values)
	}

	out, err := groups.toTable(profitIncomeColumns)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "profit_income assembly failed")
	}
	return &Result{Table: out}, nil
}

// runProfitCost mirrors runProfitIncome for the cost side: main-product cost
// is signed quantity times a configured unit cost, group-product cost comes
// from optional source columns.
func runProfitCost(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}
	const label = "profit_cost"

	teamColumn, err := requireColumn(t, req.Config, label, "team_col")
	if err != nil {
		return nil, err
	}
	dateColumn, err := requireColumn(t, req.Config, label, "date_col")
	if err != nil {
		return nil, err
	}
	productColumn, err := requireColumn(t, req.Config, label, "product_type_col")
	if err != nil {
		return nil, err
	}
	perfColumn, err := requireColumn(t, req.Config, label, "perf_flag_col")
	if err != nil {
		return nil, err
	}
	qtyColumn, err := requireColumn(t, req.Config, label, "signed_qty_col")
	if err != nil {
		return nil, err
	}

	groupPerfColumn := configString(req.Config, "group_cost_perf_col")
	if groupPerfColumn != "" && !t.HasColumn(groupPerfColumn) {
		return nil, columnMissing(label, groupPerfColumn, t)
	}
	groupNonperfColumn := configString(req.Config, "group_cost_nonperf_col")
	if groupNonperfColumn != "" && !t.HasColumn(groupNonperfColumn) {
		return nil, columnMissing(label, groupNonperfColumn, t)
	}

	t = statusFilter(t, req.Config)
	mainValues := valueSet(req.Config, "main_product_values")
	groupValues := valueSet(req.Config, "group_product_values")
	perfValues := valueSet(req.Config, "perf_values")
	unitCost := configFloat(req.Config, "main_unit_cost", 0)

	groups := newYMTGroups(4)
	for row := 0; row < t.NumRows(); row++ {
		when, ok := table.ParseTime(t.Cell(row, dateColumn))
		if !ok {
			continue
		}
		key := ymtKey{int64(when.Year()), int64(when.Month()), teamName(t.Cell(row, teamColumn))}

		isMain := mainValues[table.AsString(t.Cell(row, productColumn))]
		isGroup := groupValues[table.AsString(t.Cell(row, productColumn))]
		isPerf := perfValues[table.AsString(t.Cell(row, perfColumn))]
		qty, _ := table.AsFloat(t.Cell(row, qtyColumn))

		values := make([]float64, 4)
		if isMain && isPerf {
			values[0] = qty * unitCost
		}
		if isMain && !isPerf {
			values[1] = qty * unitCost
		}
		if isGroup && isPerf && groupPerfColumn != "" {
			values[2], _ = table.AsFloat(t.Cell(row, groupPerfColumn))
		}
		if isGroup && !isPerf && groupNonperfColumn != "" {
			values[3], _ = table.AsFloat(t.Cell(row, groupNonperfColumn))
		}
		groups.add(key, values)
	}

	out, err := groups.toTable(profitCostColumns)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "profit_cost assembly failed")
	}
	return &Result{Table: out}, nil
}

// runProfitExpense sums configured amount columns into the named expense
// buckets. Unconfigured buckets aggregate to zero. An empty input yields the
// empty expense schema, so profit_summary downstream still sees its columns.
func runProfitExpense(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil || t.NumColumns() == 0 {
		columns := make([]table.Column, 0, len(profitKeyColumns)+len(profitExpenseColumns))
		for _, name := range append(append([]string{}, profitKeyColumns...), profitExpenseColumns...) {
			columns = append(columns, table.Col(name))
		}
		empty, err := table.New(columns...)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "profit_expense schema assembly failed")
		}
		return &Result{Table: empty}, nil
	}
	const label = "profit_expense"

	teamColumn, err := requireColumn(t, req.Config, label, "team_col")
	if err != nil {
		return nil, err
	}
	dateColumn, err := requireColumn(t, req.Config, label, "date_col")
	if err != nil {
		return nil, err
	}

	bucketKeys := []string{
		"salary_col", "redpacket_col", "task_col", "rent_col",
		"utilities_col", "property_col", "alloc_col", "other_col",
	}
	bucketColumns := make([]string, len(bucketKeys))
	for i, key := range bucketKeys {
		name := configString(req.Config, key)
		if name != "" && !t.HasColumn(name) {
			return nil, columnMissing(label, name, t)
		}
		bucketColumns[i] = name
	}

	groups := newYMTGroups(len(bucketKeys))
	for row := 0; row < t.NumRows(); row++ {
		when, ok := table.ParseTime(t.Cell(row, dateColumn))
		if !ok {
			continue
		}
		key := ymtKey{int64(when.Year()), int64(when.Month()), teamName(t.Cell(row, teamColumn))}

		values := make([]float64, len(bucketKeys))
		for i, name := range bucketColumns {
			if name != "" {
				values[i], _ = table.AsFloat(t.Cell(row, name))
			}
		}
		groups.add(key, values)
	}

	out, err := groups.toTable(profitExpenseColumns)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "profit_expense assembly failed")
	}
	return &Result{Table: out}, nil
}

// runProfitSummary outer-joins the income, cost and expense slices on the
// profit keys and derives the four totals. Upstreams can be named by node id
// in config (income_node_id, cost_node_id, expense_node_id); unnamed slots
// fall back to positional fan-in order.
func runProfitSummary(_ context.Context, _ *Env, req *Request) (*Result, error) {
	byNodeID := func(key string) *table.Table {
		nodeID := configString(req.Config, key)
		if nodeID == "" || req.Lookup == nil {
			return nil
		}
		if t, ok := req.Lookup(nodeID); ok {
			return t
		}
		return nil
	}

	income := byNodeID("income_node_id")
	cost := byNodeID("cost_node_id")
	expense := byNodeID("expense_node_id")

	if income == nil && len(req.Inputs) >= 1 {
		income = req.Inputs[0]
	}
	if cost == nil && len(req.Inputs) >= 2 {
		cost = req.Inputs[1]
	}
	if expense == nil && len(req.Inputs) >= 3 {
		expense = req.Inputs[2]
	}

	slices := []struct {
		name string
		t    *table.Table
	}{{"income", income}, {"cost", cost}, {"expense", expense}}

	var merged *table.Table
	for _, slice := range slices {
		if slice.t == nil {
			continue
		}
		prepared, err := prepareProfitKeys(slice.t, slice.name)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = prepared
			continue
		}
		merged, err = table.Merge(merged, prepared, profitKeyColumns, profitKeyColumns, table.MergeOuter)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "profit_summary merge failed")
		}
	}
	if merged == nil {
		return nil, fault.New(fault.KindArity,
			"profit_summary has no inputs: connect income/cost/expense nodes or name them in config")
	}

	numericColumns := make([]string, 0, len(profitIncomeColumns)+len(profitCostColumns)+len(profitExpenseColumns))
	numericColumns = append(numericColumns, profitIncomeColumns...)
	numericColumns = append(numericColumns, profitCostColumns...)
	numericColumns = append(numericColumns, profitExpenseColumns...)

	rows := merged.NumRows()
	var err error
	for _, name := range numericColumns {
		cells := make([]any, rows)
		for row := 0; row < rows; row++ {
			value, _ := table.AsFloat(merged.Cell(row, name))
			cells[row] = value
		}
		merged, err = merged.WithColumn(name, cells)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "profit_summary assembly failed")
		}
	}

	sumOf := func(row int, names []string) float64 {
		total := 0.0
		for _, name := range names {
			value, _ := table.AsFloat(merged.Cell(row, name))
			total += value
		}
		return total
	}

	incomeTotals := make([]any, rows)
	costTotals := make([]any, rows)
	expenseTotals := make([]any, rows)
	profits := make([]any, rows)
	for row := 0; row < rows; row++ {
		incomeTotal := sumOf(row, profitIncomeColumns)
		costTotal := sumOf(row, profitCostColumns)
		expenseTotal := sumOf(row, profitExpenseColumns)
		incomeTotals[row] = incomeTotal
		costTotals[row] = costTotal
		expenseTotals[row] = expenseTotal
		profits[row] = incomeTotal - costTotal - expenseTotal
	}
	for i, cells := range [][]any{incomeTotals, costTotals, expenseTotals, profits} {
		merged, err = merged.WithColumn(profitTotalColumns[i], cells)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "profit_summary assembly failed")
		}
	}

	// Stable single-column sorts compose into ascending (年份, 月份, 办公室).
	for _, name := range []string{"办公室", "月份", "年份"} {
		merged, err = merged.SortBy(name, true)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "profit_summary sort failed")
		}
	}

	ordered := make([]string, 0, merged.NumColumns())
	ordered = append(ordered, profitKeyColumns...)
	ordered = append(ordered, numericColumns...)
	ordered = append(ordered, profitTotalColumns...)
	inOrdered := make(map[string]bool, len(ordered))
	for _, name := range ordered {
		inOrdered[name] = true
	}
	for _, name := range merged.ColumnNames() {
		if !inOrdered[name] {
			ordered = append(ordered, name)
		}
	}
	return &Result{Table: merged.Select(ordered)}, nil
}

// prepareProfitKeys validates the profit key columns on one summary input
// and canonicalizes them: numeric year and month, text team with absent
// cells as the empty string.
func prepareProfitKeys(t *table.Table, sourceName string) (*table.Table, error) {
	for _, key := range profitKeyColumns {
		if !t.HasColumn(key) {
			return nil, fault.New(fault.KindColumnMissing,
				"profit_summary: %s input has no key column %q, available columns: %v", sourceName, key, t.ColumnNames())
		}
	}

	out, err := t.Coerce("年份", table.KindFloat)
	if err == nil {
		out, err = out.Coerce("月份", table.KindFloat)
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "profit_summary key conversion failed")
	}

	teams := make([]any, out.NumRows())
	for row := range teams {
		teams[row] = teamText(out.Cell(row, "办公室"))
	}
	out, err = out.WithColumn("办公室", teams)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "profit_summary key conversion failed")
	}
	return out, nil
}

func teamText(cell any) string {
	s := table.AsString(cell)
	if s == "nan" || s == "None" {
		return ""
	}
	return s
}

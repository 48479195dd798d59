package operators

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
	"github.com/leofalp/sheetflow/providers/sheetio"
)

func TestNormalizeStoreName(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"（邯郸）一店", "一店"},
		{"(bj)二店", "二店"},
		{" 三店 ", "三店"},
		{"nan", ""},
		{"None", ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := normalizeStoreName(tc.in); got != tc.want {
			t.Errorf("normalizeStoreName(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMajorityValue(t *testing.T) {
	src := table.MustNew(table.Col("团队", "A", "B", "B", " ", "nan"))
	if got := majorityValue(src, "团队"); got != "B" {
		t.Errorf("majority = %q, want B", got)
	}

	tie := table.MustNew(table.Col("团队", "A", "B"))
	if got := majorityValue(tie, "团队"); got != "A" {
		t.Errorf("tie majority = %q, want first occurrence A", got)
	}

	if got := majorityValue(src, "不存在"); got != "" {
		t.Errorf("missing column majority = %q, want empty", got)
	}
}

func TestMajorityYearMonth(t *testing.T) {
	src := table.MustNew(table.Col("日期", "2025-10-05", "2025-10-20", "2025-09-30", "不是日期"))
	year, month, ok := majorityYearMonth(src, "日期")
	if !ok || year != 2025 || month != 10 {
		t.Errorf("majority period = %d-%d ok=%v, want 2025-10", year, month, ok)
	}

	if _, _, ok := majorityYearMonth(table.MustNew(table.Col("日期", "垃圾")), "日期"); ok {
		t.Error("unparseable column should report no period")
	}
}

func TestFilterPeriod(t *testing.T) {
	src := table.MustNew(
		table.Col("门店名称", "一店", "二店"),
		table.Col("年月", 202510, 202509),
	)
	got := filterPeriod(src, "年月", 202510)
	if got.NumRows() != 1 || got.Cell(0, "门店名称") != "一店" {
		t.Errorf("filtered rows = %d", got.NumRows())
	}
	if filterPeriod(src, "不存在", 202510) != src {
		t.Error("missing period column should pass the table through")
	}
}

func TestRentSeries(t *testing.T) {
	rent := table.MustNew(
		table.Col("店面名称", "（邯郸）一店", "一店", "二店"),
		table.Col("10月摊销", 100, 50, 70),
		table.Col("店长", "张三", "李四", ""),
	)

	sums, managers := rentSeries(rent, 10)
	if sums["一店"] != 150 {
		t.Errorf("一店 rent = %v, want 150 after name normalization merge", sums["一店"])
	}
	if sums["二店"] != 70 {
		t.Errorf("二店 rent = %v, want 70", sums["二店"])
	}
	if managers["一店"] != "张三" {
		t.Errorf("一店 manager = %q, want first listed 张三", managers["一店"])
	}
	if _, ok := managers["二店"]; ok {
		t.Error("blank manager cell should leave the store unmanaged")
	}

	if sums, _ := rentSeries(rent, 11); len(sums) != 0 {
		t.Errorf("month without an amortization column yielded %v", sums)
	}
}

func TestAllocBookkeeping(t *testing.T) {
	alloc := storeView(table.MustNew(
		table.Col("门店", "一店"),
		table.Col("3月下费用", 200),
		table.Col("10月下费用", 999),
	), "门店")

	if got := allocBookkeeping(alloc, 3); got["一店"] != 200 {
		t.Errorf("month column = %v, want the current month preferred", got["一店"])
	}
	if got := allocBookkeeping(alloc, 5); got["一店"] != 999 {
		t.Errorf("fallback column = %v, want the legacy 10月 column", got["一店"])
	}
}

func TestProfitTableConfigAndResolution(t *testing.T) {
	env := testEnv()
	if err := runErr(t, "profit_table", env, map[string]any{}); fault.KindOf(err) != fault.KindConfigMissing {
		t.Errorf("missing file_id kind = %v, want config_missing", fault.KindOf(err))
	}

	env.Resolver = &sheetio.DirResolver{Dir: t.TempDir()}
	err := runErr(t, "profit_table", env, map[string]any{"file_id": "ghost"})
	if fault.KindOf(err) != fault.KindFileNotFound {
		t.Errorf("unresolved file kind = %v, want file_not_found", fault.KindOf(err))
	}
}

func writeProfitWorkbook(t *testing.T, dir string) {
	t.Helper()
	book := excelize.NewFile()
	book.SetSheetName("Sheet1", "订单明细")
	if _, err := book.NewSheet("工资表"); err != nil {
		t.Fatal(err)
	}

	orderRows := [][]any{
		{"所属团队", "订单提交时间", "所属门店", "商品类型", "是否计入业绩", "是否赠品", "订单实际支付", "成本合计"},
		{"邯郸刘洋", "2025-10-05", "（邯郸）一店", "主品", "计入业绩", "非赠品", 100, 40},
		{"邯郸刘洋", "2025-10-06", "（邯郸）一店", "团品", "计入业绩", "非赠品", 50, 20},
		{"其他团队", "2025-10-07", "（别处）九店", "主品", "计入业绩", "非赠品", 999, 1},
	}
	for i, row := range orderRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow("订单明细", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	payrollRows := [][]any{
		{"市场名称", "年月", "门店名称", "税前工资"},
		{"邯郸刘洋市场", 202510, "（邯郸）一店", 30},
		{"邯郸刘洋市场", 202509, "（邯郸）一店", 888},
	}
	for i, row := range payrollRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow("工资表", cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	if err := book.SaveAs(filepath.Join(dir, "book123_profit.xlsx")); err != nil {
		t.Fatal(err)
	}
	book.Close()
}

func TestProfitTableFromWorkbook(t *testing.T) {
	dir := t.TempDir()
	writeProfitWorkbook(t, dir)

	env := testEnv()
	env.Resolver = &sheetio.DirResolver{Dir: dir}
	out := run(t, "profit_table", env, map[string]any{"file_id": "book123"})

	names := out.ColumnNames()
	if len(names) != len(profitTemplateColumns) {
		t.Fatalf("columns = %d, want the full template of %d", len(names), len(profitTemplateColumns))
	}
	if names[0] != "年份" || names[len(names)-1] != "品牌、软件公司" {
		t.Errorf("template column order broken: first %q, last %q", names[0], names[len(names)-1])
	}
	if out.NumRows() != 1 {
		t.Fatalf("rows = %d, want one store after team and period filtering", out.NumRows())
	}

	if out.Cell(0, "年份") != int64(2025) || out.Cell(0, "月份") != int64(10) {
		t.Errorf("inferred period = %v-%v", out.Cell(0, "年份"), out.Cell(0, "月份"))
	}
	if out.Cell(0, "市场") != "邯郸" || out.Cell(0, "办公室") != "刘洋" {
		t.Errorf("market split = %v / %v", out.Cell(0, "市场"), out.Cell(0, "办公室"))
	}
	if out.Cell(0, "所属实体店门店名称") != "一店" {
		t.Errorf("store = %v, want normalized 一店", out.Cell(0, "所属实体店门店名称"))
	}

	checks := []struct {
		column string
		want   float64
	}{
		{"计业绩产品收入", 100},
		{"计业绩团品收入", 50},
		{"一、收入", 150},
		{"计业绩产品成本", 40},
		{"计业绩团品成本", 20},
		{"二、成本", 60},
		{"一线工资", 30},
		{"三、费用", 30},
		{"四、利润", 60},
	}
	for _, tc := range checks {
		if got, ok := table.AsFloat(out.Cell(0, tc.column)); !ok || got != tc.want {
			t.Errorf("%s = %v, want %v", tc.column, out.Cell(0, tc.column), tc.want)
		}
	}
}

func TestProfitTableKeepsUndatedFeeSheets(t *testing.T) {
	dir := t.TempDir()
	book := excelize.NewFile()
	book.SetSheetName("Sheet1", "订单明细")
	for _, sheet := range []string{"资金日报", "富友流水"} {
		if _, err := book.NewSheet(sheet); err != nil {
			t.Fatal(err)
		}
	}
	sheets := map[string][][]any{
		"订单明细": {
			{"所属团队", "订单提交时间", "所属门店", "商品类型", "是否计入业绩", "是否赠品", "订单实际支付", "成本合计"},
			{"邯郸刘洋", "2025-10-05", "（邯郸）一店", "主品", "计入业绩", "非赠品", 100, 40},
		},
		// Neither fee sheet carries its date column.
		"资金日报": {
			{"团队", "店面名称", "科目", "减少"},
			{"邯郸刘洋", "（邯郸）一店", "一线社保", 12},
		},
		"富友流水": {
			{"门店名称", "订单手续费"},
			{"（邯郸）一店", 5},
		},
	}
	for sheet, rows := range sheets {
		for i := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := book.SetSheetRow(sheet, cell, &rows[i]); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := book.SaveAs(filepath.Join(dir, "fees_book.xlsx")); err != nil {
		t.Fatal(err)
	}
	book.Close()

	env := testEnv()
	env.Resolver = &sheetio.DirResolver{Dir: dir}
	out := run(t, "profit_table", env, map[string]any{"file_id": "fees"})

	if out.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", out.NumRows())
	}
	checks := []struct {
		column string
		want   float64
	}{
		{"一线社保", 12},
		{"富友手续费（千分之2.2）", 5},
		{"三、费用", 17},
		{"四、利润", 100 - 40 - 17},
	}
	for _, tc := range checks {
		if got, ok := table.AsFloat(out.Cell(0, tc.column)); !ok || got != tc.want {
			t.Errorf("%s = %v, want %v", tc.column, out.Cell(0, tc.column), tc.want)
		}
	}
}

func TestProfitTableEmptyRosterKeepsTemplate(t *testing.T) {
	// Orders only: with no payroll sheet there is no roster fallback, so an
	// unmatched team leaves the ledger empty but fully shaped.
	dir := t.TempDir()
	book := excelize.NewFile()
	book.SetSheetName("Sheet1", "订单明细")
	header := []any{"所属团队", "订单提交时间", "所属门店"}
	row := []any{"邯郸刘洋", "2025-10-05", "（邯郸）一店"}
	if err := book.SetSheetRow("订单明细", "A1", &header); err != nil {
		t.Fatal(err)
	}
	if err := book.SetSheetRow("订单明细", "A2", &row); err != nil {
		t.Fatal(err)
	}
	if err := book.SaveAs(filepath.Join(dir, "solo_orders.xlsx")); err != nil {
		t.Fatal(err)
	}
	book.Close()

	env := testEnv()
	env.Resolver = &sheetio.DirResolver{Dir: dir}
	out := run(t, "profit_table", env, map[string]any{
		"file_id":   "solo",
		"team_name": "不存在的团队",
		"year":      2025,
		"month":     1,
	})

	if out.NumRows() != 0 {
		t.Errorf("rows = %d, want none for an unmatched team", out.NumRows())
	}
	if out.NumColumns() != len(profitTemplateColumns) {
		t.Errorf("columns = %d, want the full template", out.NumColumns())
	}
}

package sheetio

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

func TestDirResolver(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"abc123_orders.xlsx", "def456_costs.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	resolver := &DirResolver{Dir: dir}

	path, err := resolver.Resolve("abc123")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(path) != "abc123_orders.xlsx" {
		t.Errorf("resolved %q, want prefix match", path)
	}

	if _, err := resolver.Resolve("missing"); fault.KindOf(err) != fault.KindFileNotFound {
		t.Errorf("missing identifier kind = %v, want file_not_found", fault.KindOf(err))
	}
	if _, err := resolver.Resolve(""); fault.KindOf(err) != fault.KindFileNotFound {
		t.Errorf("empty identifier kind = %v, want file_not_found", fault.KindOf(err))
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{"金额", "", "金额", " 备注 "}, 5)
	want := []string{"金额", "Unnamed: 1", "金额.1", "备注", "Unnamed: 4"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("header %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	src := table.MustNew(
		table.Col("店铺", "（北京）一店", "二店"),
		table.Col("金额", 100, 20.5),
	)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	if err := WriteCSV(src, path, ""); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	loaded, err := ReadCSV(path, ReadOptions{MaxRows: -1})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if loaded.NumRows() != 2 || loaded.NumColumns() != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", loaded.NumRows(), loaded.NumColumns())
	}
	if loaded.Cell(0, "店铺") != "（北京）一店" {
		t.Errorf("cell = %v", loaded.Cell(0, "店铺"))
	}
	// Whole numbers render without a decimal point and parse back as integers.
	if loaded.Cell(0, "金额") != int64(100) {
		t.Errorf("whole number came back as %v (%T), want 100", loaded.Cell(0, "金额"), loaded.Cell(0, "金额"))
	}
	if loaded.Cell(1, "金额") != 20.5 {
		t.Errorf("fractional came back as %v", loaded.Cell(1, "金额"))
	}
}

func TestCSVEncodingGBK(t *testing.T) {
	src := table.MustNew(table.Col("办公室", "邯郸刘洋"))
	dir := t.TempDir()
	path := filepath.Join(dir, "gbk.csv")
	if err := WriteCSV(src, path, "gbk"); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "邯郸刘洋") {
		t.Error("file should not contain the UTF-8 form when written as GBK")
	}

	loaded, err := ReadCSV(path, ReadOptions{Encoding: "gbk", MaxRows: -1})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if loaded.Cell(0, "办公室") != "邯郸刘洋" {
		t.Errorf("decoded cell = %v", loaded.Cell(0, "办公室"))
	}
}

func TestCSVReadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opts.csv")
	content := "junk line\na;b\n1;x\n2;y\n3;z\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadCSV(path, ReadOptions{HeaderRow: 2, Delimiter: ";", MaxRows: 2})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if loaded.NumRows() != 2 {
		t.Errorf("rows = %d, want 2 after MaxRows", loaded.NumRows())
	}
	if !loaded.HasColumn("a") || !loaded.HasColumn("b") {
		t.Errorf("columns = %v", loaded.ColumnNames())
	}
	if loaded.Cell(0, "a") != int64(1) {
		t.Errorf("first data cell = %v", loaded.Cell(0, "a"))
	}
}

func TestCSVWriteErrorsClassifySinkIO(t *testing.T) {
	src := table.MustNew(table.Col("a", 1))
	path := filepath.Join(t.TempDir(), "no-such-dir", "out.csv")
	if err := WriteCSV(src, path, ""); fault.KindOf(err) != fault.KindSinkIO {
		t.Errorf("write error kind = %v, want sink_io", fault.KindOf(err))
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	src := table.MustNew(
		table.Col("年份", 2025, 2025),
		table.Col("办公室", "邯郸刘洋", "总部"),
		table.Col("金额", 1.5, 2.0),
	)
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	if err := WriteXLSX(src, path); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	loaded, err := ReadXLSX(path, ReadOptions{MaxRows: -1})
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if loaded.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", loaded.NumRows())
	}
	if loaded.Cell(0, "办公室") != "邯郸刘洋" {
		t.Errorf("text cell = %v", loaded.Cell(0, "办公室"))
	}
	if v, ok := table.AsFloat(loaded.Cell(0, "金额")); !ok || v != 1.5 {
		t.Errorf("numeric cell = %v", loaded.Cell(0, "金额"))
	}
}

func TestReadXLSXSheetSelection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multi.xlsx")

	book := excelize.NewFile()
	book.SetSheetName("Sheet1", "订单明细")
	if _, err := book.NewSheet("工资表"); err != nil {
		t.Fatal(err)
	}
	_ = book.SetSheetRow("订单明细", "A1", &[]any{"a"})
	_ = book.SetSheetRow("订单明细", "A2", &[]any{1})
	_ = book.SetSheetRow("工资表", "A1", &[]any{"b"})
	_ = book.SetSheetRow("工资表", "A2", &[]any{2})
	if err := book.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	book.Close()

	byName, err := ReadXLSX(path, ReadOptions{Sheet: "工资表", MaxRows: -1})
	if err != nil {
		t.Fatalf("ReadXLSX by name: %v", err)
	}
	if !byName.HasColumn("b") {
		t.Errorf("sheet by name loaded columns %v", byName.ColumnNames())
	}

	byIndex, err := ReadXLSX(path, ReadOptions{SheetIndex: 0, MaxRows: -1})
	if err != nil {
		t.Fatalf("ReadXLSX by index: %v", err)
	}
	if !byIndex.HasColumn("a") {
		t.Errorf("sheet by index loaded columns %v", byIndex.ColumnNames())
	}

	if _, err := ReadXLSX(path, ReadOptions{Sheet: "没有的表"}); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestArtifactStoreSave(t *testing.T) {
	src := table.MustNew(table.Col("a", 1))
	dir := t.TempDir()
	store := &ArtifactStore{Dir: dir}

	name, err := store.Save(src, "csv", "report", "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if name != "report.csv" {
		t.Errorf("name = %q, want extension appended", name)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("artifact missing: %v", err)
	}

	generated, err := store.Save(src, "xlsx", "", "")
	if err != nil {
		t.Fatalf("Save generated: %v", err)
	}
	if !regexp.MustCompile(`^output_[0-9a-f]{8}\.xlsx$`).MatchString(generated) {
		t.Errorf("generated name = %q", generated)
	}
	// The renamed artifact must be a workbook the reader accepts.
	loaded, err := ReadXLSX(filepath.Join(dir, generated), ReadOptions{MaxRows: -1})
	if err != nil {
		t.Fatalf("saved workbook does not read back: %v", err)
	}
	if loaded.NumRows() != 1 || loaded.Cell(0, "a") != int64(1) {
		t.Errorf("workbook round trip = %v", loaded.Cell(0, "a"))
	}

	if _, err := store.Save(src, "pdf", "x", ""); fault.KindOf(err) != fault.KindSinkIO {
		t.Errorf("bad format kind = %v, want sink_io", fault.KindOf(err))
	}

	// No half-written temp files linger.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("leftover temp file %q", entry.Name())
		}
	}
}

package sheetio

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// ReadXLSX parses one worksheet of an xlsx file into a table. The sheet is
// selected by name, or by zero-based ordinal when no name is given; a name
// that is itself a digit string is treated as an ordinal, matching how sheet
// selectors arrive from workflow configs.
func ReadXLSX(path string, options ReadOptions) (*table.Table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.KindFileNotFound, err, "cannot open workbook %q", path)
	}
	defer file.Close()

	sheetName, err := pickSheet(file, options)
	if err != nil {
		return nil, err
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "cannot read worksheet %q", sheetName)
	}

	return tableFromRows(rows, options)
}

func pickSheet(file *excelize.File, options ReadOptions) (string, error) {
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return "", fault.New(fault.KindInternal, "workbook has no worksheets")
	}

	selector := strings.TrimSpace(options.Sheet)
	if selector == "" {
		index := options.SheetIndex
		if index < 0 || index >= len(sheets) {
			return "", fault.New(fault.KindInternal, "worksheet ordinal %d out of range, workbook has %d sheets", index, len(sheets))
		}
		return sheets[index], nil
	}

	for _, name := range sheets {
		if name == selector {
			return name, nil
		}
	}
	if ordinal, err := strconv.Atoi(selector); err == nil && ordinal >= 0 && ordinal < len(sheets) {
		return sheets[ordinal], nil
	}
	return "", fault.New(fault.KindInternal, "workbook has no worksheet %q", selector)
}

// tableFromRows converts raw string rows into a typed table, applying the
// header and skip options. Cell text is parsed into numbers where it looks
// numeric; everything else stays text, leaving finer coercion to downstream
// operators.
func tableFromRows(rows [][]string, options ReadOptions) (*table.Table, error) {
	headerRow := options.HeaderRow
	if headerRow <= 0 {
		headerRow = 1
	}
	if headerRow > len(rows) {
		return table.Empty(), nil
	}

	header := rows[headerRow-1]
	body := rows[headerRow+options.SkipRows:]
	if options.MaxRows >= 0 && options.MaxRows < len(body) {
		body = body[:options.MaxRows]
	}

	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return table.Empty(), nil
	}

	names := headerNames(header, width)
	columns := make([]table.Column, width)
	for col := 0; col < width; col++ {
		cells := make([]any, len(body))
		for i, row := range body {
			if col < len(row) {
				cells[i] = parseCellText(row[col])
			}
		}
		columns[col] = table.Col(names[col], cells...)
	}
	return table.New(columns...)
}

// parseCellText converts one raw cell into a typed value. Blank text is an
// absent cell. Digit runs with a leading zero stay text, since codes like
// 00123 lose meaning as numbers.
func parseCellText(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > 1 && trimmed[0] == '0' && allDigits(trimmed[1:]) {
		return trimmed
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return raw
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// WriteXLSX persists a table as a single-sheet workbook.
func WriteXLSX(t *table.Table, path string) error {
	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Sheet1"
	names := t.ColumnNames()
	for col, name := range names {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return fault.Wrap(fault.KindSinkIO, err, "cannot write header cell")
		}
	}
	for row := 0; row < t.NumRows(); row++ {
		for col, name := range names {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			value := t.Cell(row, name)
			if value == nil {
				continue
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fault.Wrap(fault.KindSinkIO, err, "cannot write data cell")
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fault.Wrap(fault.KindSinkIO, err, "cannot save workbook %q", path)
	}
	return nil
}

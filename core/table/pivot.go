package table

import "fmt"

// Pivot reshapes long data to wide: one output row per distinct index key,
// one output column per distinct value of the column field, filled with the
// aggregated values cells. Absent combinations fill with 0, matching the
// spreadsheet-style pivot the engine exposes.
func (t *Table) Pivot(index []string, column, values string, aggfunc AggFunc) (*Table, error) {
	if len(index) == 0 || column == "" || values == "" {
		return nil, fmt.Errorf("pivot requires index, column and values")
	}
	for _, name := range append(append([]string{}, index...), column, values) {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("unknown pivot column %q", name)
		}
	}

	columnSource, _ := t.Column(column)

	// Distinct wide labels in encounter order.
	wideLabels := make([]string, 0)
	seenLabel := make(map[string]bool)
	for row := 0; row < t.rows; row++ {
		label := AsString(columnSource.Cell(row))
		if !seenLabel[label] {
			seenLabel[label] = true
			wideLabels = append(wideLabels, label)
		}
	}

	groupRows, order := t.groupRows(index)

	outColumns := make([]Column, 0, len(index)+len(wideLabels))
	for _, key := range index {
		source, _ := t.Column(key)
		cells := make([]any, len(order))
		for i, group := range order {
			cells[i] = source.Cell(groupRows[group][0])
		}
		outColumns = append(outColumns, Column{Name: key, Kind: inferKind(cells), cells: cells})
	}

	valueSource, _ := t.Column(values)
	for _, label := range wideLabels {
		cells := make([]any, len(order))
		for i, group := range order {
			rows := make([]int, 0)
			for _, row := range groupRows[group] {
				if AsString(columnSource.Cell(row)) == label {
					rows = append(rows, row)
				}
			}
			aggregated, err := aggregate(valueSource, rows, aggfunc)
			if err != nil {
				return nil, err
			}
			if aggregated == nil {
				aggregated = int64(0)
			}
			cells[i] = aggregated
		}
		outColumns = append(outColumns, Column{Name: label, Kind: inferKind(cells), cells: cells})
	}

	return New(outColumns...)
}

// Melt reshapes wide data to long. Each value column contributes one output
// row per input row, labeled under varName with its value under valueName.
// Empty idVars keeps no identity columns; empty valueVars melts every column
// that is not an id.
func (t *Table) Melt(idVars, valueVars []string, varName, valueName string) (*Table, error) {
	if varName == "" {
		varName = "variable"
	}
	if valueName == "" {
		valueName = "value"
	}

	isID := make(map[string]bool, len(idVars))
	for _, name := range idVars {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("unknown melt id column %q", name)
		}
		isID[name] = true
	}

	if len(valueVars) == 0 {
		for _, name := range t.ColumnNames() {
			if !isID[name] {
				valueVars = append(valueVars, name)
			}
		}
	} else {
		for _, name := range valueVars {
			if !t.HasColumn(name) {
				return nil, fmt.Errorf("unknown melt value column %q", name)
			}
		}
	}

	outRows := t.rows * len(valueVars)
	columns := make([]Column, 0, len(idVars)+2)

	for _, name := range idVars {
		source, _ := t.Column(name)
		cells := make([]any, 0, outRows)
		for _, valueVar := range valueVars {
			_ = valueVar
			for row := 0; row < t.rows; row++ {
				cells = append(cells, source.Cell(row))
			}
		}
		columns = append(columns, Column{Name: name, Kind: source.Kind, cells: cells})
	}

	labels := make([]any, 0, outRows)
	values := make([]any, 0, outRows)
	for _, valueVar := range valueVars {
		source, _ := t.Column(valueVar)
		for row := 0; row < t.rows; row++ {
			labels = append(labels, valueVar)
			values = append(values, source.Cell(row))
		}
	}
	columns = append(columns, Column{Name: varName, Kind: KindString, cells: labels})
	columns = append(columns, Column{Name: valueName, Kind: inferKind(values), cells: values})

	return New(columns...)
}

package table

import (
	"math"
	"time"
)

// Records projects the table into a JSON-safe row list. Absent cells and
// non-finite floats render as empty strings, timestamps as ISO-8601 with
// seconds precision, dates as plain days. A negative limit means all rows.
func (t *Table) Records(limit int) []map[string]any {
	rows := t.rows
	if limit >= 0 && limit < rows {
		rows = limit
	}

	records := make([]map[string]any, rows)
	for row := 0; row < rows; row++ {
		record := make(map[string]any, len(t.columns))
		for _, column := range t.columns {
			record[column.Name] = jsonCell(column.Cell(row), column.Kind)
		}
		records[row] = record
	}
	return records
}

func jsonCell(cell any, kind Kind) any {
	switch v := cell.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return v
	case time.Time:
		if kind == KindDate {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02T15:04:05")
	default:
		return v
	}
}

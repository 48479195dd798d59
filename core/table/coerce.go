package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when parsing text into a timestamp.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006年01月02日",
	"2006年1月2日",
	"01/02/2006",
	"20060102",
}

// ParseTime parses a cell into a timestamp. Numeric cells are interpreted as
// spreadsheet serial day numbers when they fall in the plausible range.
// Returns false when no reading succeeds.
func ParseTime(cell any) (time.Time, bool) {
	switch v := cell.(type) {
	case time.Time:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case int64:
		return serialToTime(float64(v))
	case int:
		return serialToTime(float64(v))
	case int32:
		return serialToTime(float64(v))
	case uint:
		return serialToTime(float64(v))
	case float64:
		return serialToTime(v)
	default:
		return time.Time{}, false
	}
}

// serialToTime converts a spreadsheet serial day number (days since
// 1899-12-30) into a timestamp. Values outside 1950..2100 are rejected to
// avoid misreading plain numerics as dates.
func serialToTime(serial float64) (time.Time, bool) {
	if serial < 18264 || serial > 73415 {
		return time.Time{}, false
	}
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(serial)
	seconds := math.Round((serial - days) * 86400)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second), true
}

// Coerce converts every cell of the named column to the target kind.
// Cells that cannot be parsed become absent; the column does not exist is
// reported as an error by the caller via HasColumn.
func (t *Table) Coerce(name string, target Kind) (*Table, error) {
	source, ok := t.Column(name)
	if !ok {
		return t, nil
	}

	cells := make([]any, source.Len())
	for row := range cells {
		cells[row] = coerceCell(source.Cell(row), target)
	}

	columns := make([]Column, len(t.columns))
	copy(columns, t.columns)
	columns[t.index[name]] = Column{Name: name, Kind: target, cells: cells}
	return New(columns...)
}

func coerceCell(cell any, target Kind) any {
	if cell == nil {
		return nil
	}

	switch target {
	case KindInt:
		switch v := cell.(type) {
		case int64:
			return v
		case float64:
			if v != math.Trunc(v) || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil
			}
			return int64(v)
		case bool:
			if v {
				return int64(1)
			}
			return int64(0)
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || parsed != math.Trunc(parsed) {
				return nil
			}
			return int64(parsed)
		default:
			return nil
		}

	case KindFloat:
		if value, ok := AsFloat(cell); ok {
			return value
		}
		return nil

	case KindString:
		return AsString(cell)

	case KindBool:
		switch v := cell.(type) {
		case bool:
			return v
		case int64:
			return v != 0
		case float64:
			return v != 0
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes", "是":
				return true
			case "false", "0", "no", "否", "":
				return false
			default:
				// Any other non-empty text reads as true, matching the
				// permissive truthiness of the source data this engine ingests.
				return true
			}
		default:
			return nil
		}

	case KindTime, KindDate:
		if parsed, ok := ParseTime(cell); ok {
			return parsed
		}
		return nil

	default:
		return cell
	}
}

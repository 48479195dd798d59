package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// normalizeCell collapses the value space to int64, float64, string, bool,
// time.Time or nil. Byte slices become UTF-8 text with replacement of
// invalid sequences; NaN stays a float64 and is handled at render time.
func normalizeCell(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		return v
	case bool:
		return v
	case time.Time:
		return v
	case []byte:
		return strings.ToValidUTF8(string(v), string(utf8.RuneError))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// inferKind derives a column kind from normalized cells. Integer cells mixed
// with float cells widen to KindFloat; any other mixture is KindUnknown.
func inferKind(cells []any) Kind {
	kind := KindUnknown
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		cellKind := scalarKind(cell)
		switch {
		case kind == KindUnknown:
			kind = cellKind
		case kind == cellKind:
		case kind == KindInt && cellKind == KindFloat:
			kind = KindFloat
		case kind == KindFloat && cellKind == KindInt:
		default:
			return KindUnknown
		}
	}
	return kind
}

func scalarKind(cell any) Kind {
	switch cell.(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	default:
		return KindUnknown
	}
}

// AsFloat converts a cell to float64 where a numeric reading exists.
// Booleans and absent cells do not count as numeric; numeric-looking text does.
func AsFloat(cell any) (float64, bool) {
	switch v := cell.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// AsString renders a cell the way join keys and text operators see it.
// Integers render without a decimal point, floats drop a trailing ".0", and
// timestamps use ISO-8601 with seconds precision.
func AsString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// keyString produces the canonical form used for equality of merge and
// group keys. Distinct scalar kinds stay distinct (the typed prefix keeps
// int64(1) apart from "1"); operators that want cross-kind matching
// stringify key columns first.
func keyString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return "\x00"
	case int64:
		return "n:" + strconv.FormatFloat(float64(v), 'g', -1, 64)
	case float64:
		return "n:" + strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return "s:" + v
	case bool:
		return "b:" + strconv.FormatBool(v)
	case time.Time:
		return "t:" + v.Format(time.RFC3339Nano)
	default:
		return "x:" + fmt.Sprintf("%v", v)
	}
}

// compareCells orders two cells for sorting. Absent cells sort after every
// present value; mixed kinds fall back to string ordering.
func compareCells(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}

	if fa, aOK := numericCell(a); aOK {
		if fb, bOK := numericCell(b); bOK {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	if ta, aOK := a.(time.Time); aOK {
		if tb, bOK := b.(time.Time); bOK {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(AsString(a), AsString(b))
}

// numericCell is AsFloat without the text fallback: only genuinely numeric
// cells participate in numeric ordering and aggregation.
func numericCell(cell any) (float64, bool) {
	switch v := cell.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

package operators

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// runTypeConvert applies per-column coercions. Config: conversions, a list of
// {column, dtype} with dtype in {int, float, str, datetime, bool}. Unknown
// columns and dtypes are skipped; unparseable cells become absent.
func runTypeConvert(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	kinds := map[string]table.Kind{
		"int":      table.KindInt,
		"float":    table.KindFloat,
		"str":      table.KindString,
		"datetime": table.KindTime,
		"bool":     table.KindBool,
	}

	for _, conversion := range configMaps(req.Config, "conversions") {
		column := configString(conversion, "column")
		kind, known := kinds[configString(conversion, "dtype")]
		if column == "" || !known || !t.HasColumn(column) {
			continue
		}
		converted, err := t.Coerce(column, kind)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "type_convert failed on %q", column)
		}
		t = converted
	}
	return &Result{Table: t}, nil
}

// runFillNA handles absent cells. Config: strategy in {drop, fill_value,
// ffill, bfill, mean, median}, columns (subset, default all), fill_value.
func runFillNA(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	strategy := configString(req.Config, "strategy")
	if strategy == "" {
		strategy = "drop"
	}
	targets := configStringList(req.Config, "columns")
	if len(targets) == 0 {
		targets = t.ColumnNames()
	}

	switch strategy {
	case "drop":
		return &Result{Table: t.FilterRows(func(row int) bool {
			for _, name := range targets {
				if t.HasColumn(name) && t.Cell(row, name) == nil {
					return false
				}
			}
			return true
		})}, nil

	case "fill_value":
		fill := normalized(req.Config["fill_value"])
		return fillCells(t, targets, func(column table.Column, _ int) any { return fill })

	case "ffill":
		return fillDirectional(t, targets, true)

	case "bfill":
		return fillDirectional(t, targets, false)

	case "mean", "median":
		out := t
		for _, name := range targets {
			kind := out.KindOf(name)
			if kind != table.KindInt && kind != table.KindFloat {
				continue
			}
			column, _ := out.Column(name)
			fill, ok := centralValue(column, strategy == "median")
			if !ok {
				continue
			}
			cells := make([]any, out.NumRows())
			for row := range cells {
				if cell := column.Cell(row); cell != nil {
					cells[row] = cell
				} else {
					cells[row] = fill
				}
			}
			replaced, err := out.WithColumn(name, cells)
			if err != nil {
				return nil, fault.Wrap(fault.KindInternal, err, "fill_na failed on %q", name)
			}
			out = replaced
		}
		return &Result{Table: out}, nil

	default:
		return nil, fault.New(fault.KindConfigMissing, "fill_na: unknown strategy %q", strategy)
	}
}

func fillCells(t *table.Table, targets []string, fill func(column table.Column, row int) any) (*Result, error) {
	out := t
	for _, name := range targets {
		column, ok := out.Column(name)
		if !ok {
			continue
		}
		cells := make([]any, out.NumRows())
		for row := range cells {
			if cell := column.Cell(row); cell != nil {
				cells[row] = cell
			} else {
				cells[row] = fill(column, row)
			}
		}
		replaced, err := out.WithColumn(name, cells)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "fill_na failed on %q", name)
		}
		out = replaced
	}
	return &Result{Table: out}, nil
}

func fillDirectional(t *table.Table, targets []string, forward bool) (*Result, error) {
	out := t
	for _, name := range targets {
		column, ok := out.Column(name)
		if !ok {
			continue
		}
		cells := make([]any, out.NumRows())
		if forward {
			var carry any
			for row := 0; row < out.NumRows(); row++ {
				if cell := column.Cell(row); cell != nil {
					carry = cell
				}
				cells[row] = carry
			}
		} else {
			var carry any
			for row := out.NumRows() - 1; row >= 0; row-- {
				if cell := column.Cell(row); cell != nil {
					carry = cell
				}
				cells[row] = carry
			}
		}
		replaced, err := out.WithColumn(name, cells)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "fill_na failed on %q", name)
		}
		out = replaced
	}
	return &Result{Table: out}, nil
}

// centralValue computes the mean or median of a numeric column's present
// cells.
func centralValue(column table.Column, median bool) (float64, bool) {
	values := make([]float64, 0, column.Len())
	for row := 0; row < column.Len(); row++ {
		if value, ok := table.AsFloat(column.Cell(row)); ok && column.Cell(row) != nil {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	if !median {
		total := 0.0
		for _, value := range values {
			total += value
		}
		return total / float64(len(values)), true
	}
	sort.Float64s(values)
	middle := len(values) / 2
	if len(values)%2 == 1 {
		return values[middle], true
	}
	return (values[middle-1] + values[middle]) / 2, true
}

// runDeduplicate removes duplicate rows over an optional key subset.
// keep is first, last or none; the legacy text value "false" also means
// drop-all, matching configs produced by older clients.
func runDeduplicate(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	subset := configStringList(req.Config, "subset")
	if len(subset) == 0 {
		subset = t.ColumnNames()
	}
	keep := configString(req.Config, "keep")
	if keep == "" {
		keep = "first"
	}
	if keep == "false" {
		keep = "none"
	}

	keys := make([]string, t.NumRows())
	counts := make(map[string]int, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		var builder strings.Builder
		for _, name := range subset {
			builder.WriteString(table.AsString(t.Cell(row, name)))
			builder.WriteByte('\x1f')
		}
		keys[row] = builder.String()
		counts[keys[row]]++
	}

	switch keep {
	case "first":
		seen := make(map[string]bool, len(counts))
		return &Result{Table: t.FilterRows(func(row int) bool {
			if seen[keys[row]] {
				return false
			}
			seen[keys[row]] = true
			return true
		})}, nil
	case "last":
		remaining := make(map[string]int, len(counts))
		for key, count := range counts {
			remaining[key] = count
		}
		return &Result{Table: t.FilterRows(func(row int) bool {
			remaining[keys[row]]--
			return remaining[keys[row]] == 0
		})}, nil
	case "none":
		return &Result{Table: t.FilterRows(func(row int) bool {
			return counts[keys[row]] == 1
		})}, nil
	default:
		return nil, fault.New(fault.KindConfigMissing, "deduplicate: unknown keep mode %q", keep)
	}
}

// runTextProcess applies one text operation to one column: trim, lower,
// upper, regex replace, or regex extract into <column>_extracted. A missing
// column passes the table through unchanged.
func runTextProcess(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	name := configString(req.Config, "column")
	operation := configString(req.Config, "operation")
	if name == "" || !t.HasColumn(name) {
		return &Result{Table: t}, nil
	}
	column, _ := t.Column(name)

	textCells := func(apply func(string) string) []any {
		cells := make([]any, t.NumRows())
		for row := range cells {
			cells[row] = apply(table.AsString(column.Cell(row)))
		}
		return cells
	}

	var out *table.Table
	var err error
	switch operation {
	case "trim":
		out, err = t.WithColumn(name, textCells(strings.TrimSpace))
	case "lower":
		out, err = t.WithColumn(name, textCells(strings.ToLower))
	case "upper":
		out, err = t.WithColumn(name, textCells(strings.ToUpper))
	case "replace":
		pattern, compileErr := regexp.Compile(configString(req.Config, "pattern"))
		if compileErr != nil {
			return nil, fault.Wrap(fault.KindInternal, compileErr, "text_process: invalid pattern")
		}
		replacement := configString(req.Config, "replacement")
		out, err = t.WithColumn(name, textCells(func(s string) string {
			return pattern.ReplaceAllString(s, replacement)
		}))
	case "extract":
		pattern, compileErr := regexp.Compile("(" + configString(req.Config, "pattern") + ")")
		if compileErr != nil {
			return nil, fault.Wrap(fault.KindInternal, compileErr, "text_process: invalid pattern")
		}
		cells := make([]any, t.NumRows())
		for row := range cells {
			if match := pattern.FindStringSubmatch(table.AsString(column.Cell(row))); match != nil {
				cells[row] = match[1]
			}
		}
		out, err = t.WithColumn(name+"_extracted", cells)
	default:
		return &Result{Table: t}, nil
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "text_process failed")
	}
	return &Result{Table: out}, nil
}

var dateOffsetPattern = regexp.MustCompile(`^([+-]?\d+)([dMy])`)

// runDateProcess parses a column to timestamps, optionally emits calendar
// part columns (年 月 日 周几 季度, weekday 1-based from Monday), and applies
// an offset of the form ±N followed by d, M or y.
func runDateProcess(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	name := configString(req.Config, "column")
	if name == "" || !t.HasColumn(name) {
		return &Result{Table: t}, nil
	}

	out, err := t.Coerce(name, table.KindTime)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "date_process failed on %q", name)
	}
	column, _ := out.Column(name)

	part := func(read func(time.Time) int64) []any {
		cells := make([]any, out.NumRows())
		for row := range cells {
			if when, ok := column.Cell(row).(time.Time); ok {
				cells[row] = read(when)
			}
		}
		return cells
	}

	for _, extract := range configStringList(req.Config, "extract") {
		var suffix string
		var read func(time.Time) int64
		switch extract {
		case "year":
			suffix, read = "年", func(when time.Time) int64 { return int64(when.Year()) }
		case "month":
			suffix, read = "月", func(when time.Time) int64 { return int64(when.Month()) }
		case "day":
			suffix, read = "日", func(when time.Time) int64 { return int64(when.Day()) }
		case "weekday":
			suffix, read = "周几", func(when time.Time) int64 {
				return int64((int(when.Weekday())+6)%7) + 1
			}
		case "quarter":
			suffix, read = "季度", func(when time.Time) int64 {
				return int64((int(when.Month())-1)/3) + 1
			}
		default:
			continue
		}
		out, err = out.WithColumn(name+"_"+suffix, part(read))
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "date_process failed on %q", name)
		}
		column, _ = out.Column(name)
	}

	if offset := configString(req.Config, "offset"); offset != "" {
		if match := dateOffsetPattern.FindStringSubmatch(offset); match != nil {
			amount, _ := parseSignedInt(match[1])
			cells := make([]any, out.NumRows())
			for row := range cells {
				if when, ok := column.Cell(row).(time.Time); ok {
					switch match[2] {
					case "d":
						cells[row] = when.AddDate(0, 0, amount)
					case "M":
						cells[row] = when.AddDate(0, amount, 0)
					case "y":
						cells[row] = when.AddDate(amount, 0, 0)
					}
				}
			}
			out, err = out.WithColumn(name, cells)
			if err != nil {
				return nil, fault.Wrap(fault.KindInternal, err, "date_process offset failed")
			}
		}
	}

	return &Result{Table: out}, nil
}

func parseSignedInt(s string) (int, bool) {
	sign := 1
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return sign * n, true
}

package table

import (
	"fmt"
	"strings"
)

// AggFunc names a per-group aggregation.
type AggFunc string

const (
	AggSum   AggFunc = "sum"
	AggMean  AggFunc = "mean"
	AggMax   AggFunc = "max"
	AggMin   AggFunc = "min"
	AggCount AggFunc = "count"
	AggFirst AggFunc = "first"
	AggLast  AggFunc = "last"
)

// Aggregation describes one aggregated output column: the source column, the
// function applied per group, and the output label.
type Aggregation struct {
	Column string
	Func   AggFunc
	Alias  string
}

// GroupBy groups rows by the key columns and applies the aggregations,
// producing one row per distinct key combination. Groups appear in
// first-encounter order. Key cells pass through unchanged.
func (t *Table) GroupBy(keys []string, aggregations []Aggregation) (*Table, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("group requires at least one key column")
	}
	for _, key := range keys {
		if !t.HasColumn(key) {
			return nil, fmt.Errorf("unknown group key %q", key)
		}
	}
	for _, agg := range aggregations {
		if !t.HasColumn(agg.Column) {
			return nil, fmt.Errorf("unknown aggregation column %q", agg.Column)
		}
	}

	groupRows, order := t.groupRows(keys)

	columns := make([]Column, 0, len(keys)+len(aggregations))
	for _, key := range keys {
		source, _ := t.Column(key)
		cells := make([]any, len(order))
		for i, group := range order {
			cells[i] = source.Cell(groupRows[group][0])
		}
		columns = append(columns, Column{Name: key, Kind: inferKind(cells), cells: cells})
	}

	for _, agg := range aggregations {
		source, _ := t.Column(agg.Column)
		alias := agg.Alias
		if alias == "" {
			alias = agg.Column + "_" + string(agg.Func)
		}
		cells := make([]any, len(order))
		for i, group := range order {
			value, err := aggregate(source, groupRows[group], agg.Func)
			if err != nil {
				return nil, err
			}
			cells[i] = value
		}
		columns = append(columns, Column{Name: alias, Kind: inferKind(cells), cells: cells})
	}

	return New(columns...)
}

// groupRows partitions row positions by the composite key, returning the
// partition map and the keys in first-encounter order.
func (t *Table) groupRows(keys []string) (map[string][]int, []string) {
	keyColumns := make([]Column, len(keys))
	for i, key := range keys {
		keyColumns[i], _ = t.Column(key)
	}

	groups := make(map[string][]int)
	order := make([]string, 0)
	var builder strings.Builder
	for row := 0; row < t.rows; row++ {
		builder.Reset()
		for _, column := range keyColumns {
			builder.WriteString(keyString(column.Cell(row)))
			builder.WriteByte('\x1f')
		}
		composite := builder.String()
		if _, seen := groups[composite]; !seen {
			order = append(order, composite)
		}
		groups[composite] = append(groups[composite], row)
	}
	return groups, order
}

// aggregate folds the cells at the given rows. Numeric functions skip absent
// and non-numeric cells; an all-absent group aggregates to absent (count
// aggregates to 0).
func aggregate(column Column, rows []int, fn AggFunc) (any, error) {
	switch fn {
	case AggSum, AggMean:
		total := 0.0
		n := 0
		for _, row := range rows {
			if value, ok := AsFloat(column.Cell(row)); ok {
				total += value
				n++
			}
		}
		if n == 0 {
			return nil, nil
		}
		if fn == AggMean {
			return total / float64(n), nil
		}
		return total, nil

	case AggMax, AggMin:
		var best any
		for _, row := range rows {
			cell := column.Cell(row)
			if cell == nil {
				continue
			}
			if best == nil {
				best = cell
				continue
			}
			ordering := compareCells(cell, best)
			if (fn == AggMax && ordering > 0) || (fn == AggMin && ordering < 0) {
				best = cell
			}
		}
		return best, nil

	case AggCount:
		n := int64(0)
		for _, row := range rows {
			if column.Cell(row) != nil {
				n++
			}
		}
		return n, nil

	case AggFirst:
		for _, row := range rows {
			if cell := column.Cell(row); cell != nil {
				return cell, nil
			}
		}
		return nil, nil

	case AggLast:
		for i := len(rows) - 1; i >= 0; i-- {
			if cell := column.Cell(rows[i]); cell != nil {
				return cell, nil
			}
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown aggregation function %q", fn)
	}
}

package operators

import (
	"context"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// runGroupAggregate groups by the key columns and applies the configured
// aggregations. With no aggregations, every other numeric column is summed
// under its own name.
func runGroupAggregate(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	keys := configStringList(req.Config, "group_by")
	if len(keys) == 0 {
		return &Result{Table: t}, nil
	}
	for _, key := range keys {
		if !t.HasColumn(key) {
			return nil, columnMissing("group_aggregate", key, t)
		}
	}

	var aggregations []table.Aggregation
	for _, agg := range configMaps(req.Config, "aggregations") {
		column := configString(agg, "column")
		if column == "" || !t.HasColumn(column) {
			continue
		}
		fn := configString(agg, "func")
		if fn == "" {
			fn = "sum"
		}
		aggregations = append(aggregations, table.Aggregation{
			Column: column,
			Func:   table.AggFunc(fn),
			Alias:  configString(agg, "alias"),
		})
	}

	if len(aggregations) == 0 {
		isKey := make(map[string]bool, len(keys))
		for _, key := range keys {
			isKey[key] = true
		}
		for _, name := range t.ColumnNames() {
			if isKey[name] {
				continue
			}
			if kind := t.KindOf(name); kind == table.KindInt || kind == table.KindFloat {
				aggregations = append(aggregations, table.Aggregation{Column: name, Func: table.AggSum, Alias: name})
			}
		}
	}

	grouped, err := t.GroupBy(keys, aggregations)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "group_aggregate failed")
	}
	return &Result{Table: grouped}, nil
}

// runPivot reshapes long data to wide. Config: index (list), columns, values,
// aggfunc (default sum). Missing any of the three passes the input through.
func runPivot(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	index := configStringList(req.Config, "index")
	column := configString(req.Config, "columns")
	values := configString(req.Config, "values")
	if len(index) == 0 || column == "" || values == "" {
		return &Result{Table: t}, nil
	}

	aggfunc := configString(req.Config, "aggfunc")
	if aggfunc == "" {
		aggfunc = "sum"
	}

	pivoted, err := t.Pivot(index, column, values, table.AggFunc(aggfunc))
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "pivot failed")
	}
	return &Result{Table: pivoted}, nil
}

// runUnpivot reshapes wide data to long. Config: id_vars, value_vars,
// var_name (default variable), value_name (default value).
func runUnpivot(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	melted, err := t.Melt(
		configStringList(req.Config, "id_vars"),
		configStringList(req.Config, "value_vars"),
		configString(req.Config, "var_name"),
		configString(req.Config, "value_name"),
	)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "unpivot failed")
	}
	return &Result{Table: melted}, nil
}

package operators

import (
	"context"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/rowexpr"
	"github.com/leofalp/sheetflow/core/table"
)

// runTransform is the general row/column shaping operator: optional filter,
// column drops, computed columns, renames, projection and a single-column
// sort, applied in that order. The filter accepts the Excel-style equality
// shortcut on top of the generic expression dialect.
func runTransform(_ context.Context, _ *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}

	if filter := configString(req.Config, "filter_code"); filter != "" {
		filtered, err := applyFilter(t, filter)
		if err != nil {
			return nil, err
		}
		t = filtered
	}

	if drops := configStringList(req.Config, "drop_columns"); len(drops) > 0 {
		t = t.Drop(drops...)
	}

	for _, calc := range configMaps(req.Config, "calculations") {
		target := configString(calc, "target")
		formula := configString(calc, "formula")
		if target == "" || formula == "" {
			continue
		}
		// A calculation that does not compile or evaluate is skipped rather
		// than failing the node, matching the forgiving behavior users rely
		// on while iterating on formulas.
		computed, err := applyCalculation(t, target, formula)
		if err != nil {
			continue
		}
		t = computed
	}

	if renameMap := configStringMap(req.Config, "rename_map"); len(renameMap) > 0 {
		renamed, err := t.Rename(renameMap)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "transform rename failed")
		}
		t = renamed
	}

	if selected := configStringList(req.Config, "selected_columns"); len(selected) > 0 {
		kept := make([]string, 0, len(selected))
		for _, name := range selected {
			if t.HasColumn(name) {
				kept = append(kept, name)
			}
		}
		if len(kept) > 0 {
			t = t.Select(kept)
		}
	}

	if sortBy := configString(req.Config, "sort_by"); sortBy != "" && t.HasColumn(sortBy) {
		ascending := configString(req.Config, "sort_order") != "desc"
		sorted, err := t.SortBy(sortBy, ascending)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "transform sort failed")
		}
		t = sorted
	}

	return &Result{Table: t}, nil
}

func applyFilter(t *table.Table, filter string) (*table.Table, error) {
	program, err := rowexpr.CompilePredicate(filter, t.ColumnNames(), nil)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "transform filter is invalid")
	}

	var evalErr error
	filtered := t.FilterRows(func(row int) bool {
		if evalErr != nil {
			return false
		}
		keep, err := program.EvalBool(t.Row(row))
		if err != nil {
			evalErr = err
			return false
		}
		return keep
	})
	if evalErr != nil {
		return nil, fault.Wrap(fault.KindInternal, evalErr, "transform filter failed")
	}
	return filtered, nil
}

func applyCalculation(t *table.Table, target, formula string) (*table.Table, error) {
	program, err := rowexpr.CompileScalar(formula, nil)
	if err != nil {
		return nil, err
	}

	values := make([]any, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		value, err := program.Eval(t.Row(row))
		if err != nil {
			return nil, err
		}
		values[row] = value
	}
	return t.WithColumn(target, values)
}

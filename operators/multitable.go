package operators

import (
	"context"
	"strings"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// stringifyKeys coerces key columns to text so that an integer key on one
// side matches its text rendering on the other.
func stringifyKeys(t *table.Table, keys []string) (*table.Table, error) {
	out := t
	for _, key := range keys {
		coerced, err := out.Coerce(key, table.KindString)
		if err != nil {
			return nil, err
		}
		out = coerced
	}
	return out, nil
}

// runJoin merges exactly two inputs in (left, right) order. Config: how
// (inner, left, right, outer; full_outer is accepted as outer), left_on /
// right_on or the shared alias on. Keys are stringified before the merge and
// redundant differently-named right keys are dropped afterwards.
func runJoin(_ context.Context, env *Env, req *Request) (*Result, error) {
	if len(req.Inputs) < 2 {
		return nil, fault.New(fault.KindArity, "join requires two inputs, got %d", len(req.Inputs))
	}
	left, right := req.Inputs[0], req.Inputs[1]

	how := configString(req.Config, "how")
	if how == "" {
		how = "inner"
	}
	if how == "full_outer" {
		how = "outer"
	}

	leftKeys := configStringList(req.Config, "left_on", "on")
	rightKeys := configStringList(req.Config, "right_on", "on")
	if len(leftKeys) == 0 || len(rightKeys) == 0 {
		return nil, fault.New(fault.KindConfigMissing, "join requires key columns (left_on/right_on or on)")
	}

	for _, key := range leftKeys {
		if !left.HasColumn(key) {
			return nil, columnMissing("join: left table", key, left)
		}
	}
	for _, key := range rightKeys {
		if !right.HasColumn(key) {
			return nil, columnMissing("join: right table", key, right)
		}
	}

	left, err := stringifyKeys(left, leftKeys)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "join key conversion failed")
	}
	right, err = stringifyKeys(right, rightKeys)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "join key conversion failed")
	}

	env.Log("join: how=%s left=%v right=%v", how, leftKeys, rightKeys)

	merged, err := table.Merge(left, right, leftKeys, rightKeys, table.MergeHow(how))
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "join failed")
	}

	for i := range leftKeys {
		if leftKeys[i] != rightKeys[i] && merged.HasColumn(rightKeys[i]) {
			merged = merged.Drop(rightKeys[i])
		}
	}
	return &Result{Table: merged}, nil
}

// runConcat stacks 1..N inputs. Config: join (outer or inner).
func runConcat(_ context.Context, _ *Env, req *Request) (*Result, error) {
	if len(req.Inputs) == 0 {
		return &Result{}, nil
	}

	join := configString(req.Config, "join")
	if join == "" {
		join = "outer"
	}
	stacked, err := table.Concat(req.Inputs, table.ConcatJoin(join))
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "concat failed")
	}
	return &Result{Table: stacked}, nil
}

// runVlookup enriches the main (first) input with columns from the lookup
// (second) input, joined left on a single key pair. Config: left_key /
// right_key with the shared alias lookup_key, columns_to_get (alias
// return_columns). Missing lookup columns are skipped with a warning; an
// empty column list defaults to every lookup column not already in main.
func runVlookup(_ context.Context, env *Env, req *Request) (*Result, error) {
	if len(req.Inputs) < 2 {
		return nil, fault.New(fault.KindArity, "vlookup requires two inputs, got %d", len(req.Inputs))
	}
	main, lookup := req.Inputs[0], req.Inputs[1]

	leftKey := configString(req.Config, "left_key", "lookup_key")
	rightKey := configString(req.Config, "right_key", "lookup_key")
	if rightKey == "" {
		rightKey = leftKey
	}
	if leftKey == "" {
		return nil, fault.New(fault.KindConfigMissing, "vlookup requires left_key or lookup_key")
	}

	if !main.HasColumn(leftKey) {
		return nil, columnMissing("vlookup: main table", leftKey, main)
	}
	if !lookup.HasColumn(rightKey) {
		return nil, columnMissing("vlookup: lookup table", rightKey, lookup)
	}

	requested := configStringList(req.Config, "columns_to_get", "return_columns")
	var returned []string
	var missing []string
	for _, name := range requested {
		switch {
		case name == rightKey:
		case lookup.HasColumn(name):
			returned = append(returned, name)
		default:
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		env.Log("vlookup: skipping columns missing from lookup table: %v", missing)
	}
	if len(returned) == 0 {
		// Exclude columns already in main so the merge never generates
		// suffixed duplicates downstream nodes would not expect.
		for _, name := range lookup.ColumnNames() {
			if name != rightKey && !main.HasColumn(name) {
				returned = append(returned, name)
			}
		}
	}

	main, err := stringifyKeys(main, []string{leftKey})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "vlookup key conversion failed")
	}
	lookup, err = stringifyKeys(lookup, []string{rightKey})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "vlookup key conversion failed")
	}

	narrowed := lookup.Select(append([]string{rightKey}, returned...))
	merged, err := table.Merge(main, narrowed, []string{leftKey}, []string{rightKey}, table.MergeLeft)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "vlookup failed")
	}
	if leftKey != rightKey && merged.HasColumn(rightKey) {
		merged = merged.Drop(rightKey)
	}

	env.Log("vlookup: added columns %v", returned)
	return &Result{Table: merged}, nil
}

// runDiff reports rows present on only one side of two inputs, compared over
// compare_columns (default: columns present in both, in first-table order).
// The output carries _diff_status naming the side each row came from.
func runDiff(_ context.Context, _ *Env, req *Request) (*Result, error) {
	if len(req.Inputs) < 2 {
		return nil, fault.New(fault.KindArity, "diff requires two inputs, got %d", len(req.Inputs))
	}
	first, second := req.Inputs[0], req.Inputs[1]

	compare := configStringList(req.Config, "compare_columns")
	if len(compare) == 0 {
		for _, name := range first.ColumnNames() {
			if second.HasColumn(name) {
				compare = append(compare, name)
			}
		}
	}
	for _, name := range compare {
		if !first.HasColumn(name) {
			return nil, columnMissing("diff: first table", name, first)
		}
		if !second.HasColumn(name) {
			return nil, columnMissing("diff: second table", name, second)
		}
	}

	rowKey := func(t *table.Table, row int) string {
		var builder strings.Builder
		for _, name := range compare {
			builder.WriteString(table.AsString(t.Cell(row, name)))
			builder.WriteByte('\x1f')
		}
		return builder.String()
	}
	keySet := func(t *table.Table) map[string]bool {
		keys := make(map[string]bool, t.NumRows())
		for row := 0; row < t.NumRows(); row++ {
			keys[rowKey(t, row)] = true
		}
		return keys
	}

	secondKeys := keySet(second)
	onlyFirst := first.FilterRows(func(row int) bool { return !secondKeys[rowKey(first, row)] })
	firstKeys := keySet(first)
	onlySecond := second.FilterRows(func(row int) bool { return !firstKeys[rowKey(second, row)] })

	onlyFirst, err := withConstantColumn(onlyFirst, "_diff_status", "仅在表1")
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "diff failed")
	}
	onlySecond, err = withConstantColumn(onlySecond, "_diff_status", "仅在表2")
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "diff failed")
	}

	combined, err := table.Concat([]*table.Table{onlyFirst, onlySecond}, table.ConcatOuter)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "diff failed")
	}
	return &Result{Table: combined}, nil
}

func withConstantColumn(t *table.Table, name string, value any) (*table.Table, error) {
	cells := make([]any, t.NumRows())
	for row := range cells {
		cells[row] = value
	}
	return t.WithColumn(name, cells)
}

package operators

import (
	"context"
	"sort"

	"github.com/dop251/goja"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// runCode executes a user script in an embedded JavaScript VM. The script
// sees inputs (array of record arrays), df (records of the first input) and
// config, and must assign an array of row objects to result. Script
// execution is off by default and enabled per engine.
func runCode(ctx context.Context, env *Env, req *Request) (*Result, error) {
	if !env.CodeEnabled {
		return nil, fault.New(fault.KindInternal, "script execution is disabled on this engine")
	}
	script := configString(req.Config, "code", "script", "python_code")
	if script == "" {
		return nil, fault.New(fault.KindConfigMissing, "code node has no script")
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	inputs := make([]any, len(req.Inputs))
	for i, t := range req.Inputs {
		inputs[i] = t.Records(-1)
	}
	if err := vm.Set("inputs", inputs); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "script environment setup failed")
	}
	var first any
	if len(req.Inputs) > 0 {
		first = req.Inputs[0].Records(-1)
	}
	if err := vm.Set("df", first); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "script environment setup failed")
	}
	if err := vm.Set("config", req.Config); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "script environment setup failed")
	}

	// A cancelled context interrupts the VM so runaway scripts cannot hang
	// the execution.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if _, err := vm.RunString(script); err != nil {
		return nil, fault.Wrap(fault.KindCodeBadOutput, err, "script failed")
	}

	value := vm.Get("result")
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, fault.New(fault.KindCodeBadOutput, "script must assign an array of row objects to result")
	}
	rows, ok := value.Export().([]any)
	if !ok {
		return nil, fault.New(fault.KindCodeBadOutput, "script result must be an array of row objects, got %T", value.Export())
	}

	out, err := tableFromRecords(rows)
	if err != nil {
		return nil, err
	}
	env.Log("code: script produced %d rows, %d columns", out.NumRows(), out.NumColumns())
	return &Result{Table: out}, nil
}

// tableFromRecords builds a table from row objects, column order following
// first appearance across rows.
func tableFromRecords(rows []any) (*table.Table, error) {
	var names []string
	seen := make(map[string]bool)
	records := make([]map[string]any, len(rows))
	for i, raw := range rows {
		record, ok := raw.(map[string]any)
		if !ok {
			return nil, fault.New(fault.KindCodeBadOutput, "script result row %d is %T, want an object", i, raw)
		}
		records[i] = record
		// Map iteration order is random; sort within each record so the
		// column order is reproducible.
		keys := make([]string, 0, len(record))
		for key := range record {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
	}

	columns := make([]table.Column, len(names))
	for i, name := range names {
		cells := make([]any, len(records))
		for row, record := range records {
			cells[row] = normalized(record[name])
		}
		columns[i] = table.Col(name, cells...)
	}
	out, err := table.New(columns...)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "script output assembly failed")
	}
	return out, nil
}

// Package operators implements the engine's operator library: the closed set
// of node types a workflow can reference. Every operator is a pure function
// from input tables and a config map to an output table; side effects
// (reading sources, remote model calls) go through the capabilities carried
// in Env.
package operators

import (
	"context"
	"sort"

	"github.com/leofalp/sheetflow/core/table"
	"github.com/leofalp/sheetflow/providers/model"
	"github.com/leofalp/sheetflow/providers/sheetio"
)

// Env carries the capabilities an operator may use. The scheduler constructs
// one Env per execution; operators must not retain it.
type Env struct {
	// Resolver maps file identifiers to paths for source operators.
	Resolver sheetio.Resolver

	// Model is the completion backend for the ai_agent operator. May be nil
	// when no model is configured.
	Model model.Provider

	// Log appends a line to the execution's user-visible log buffer.
	Log func(format string, args ...any)

	// Preview marks a sampled preview run. Source reads are row-bounded and
	// the ai_agent operator refuses to run.
	Preview bool

	// SourceRowLimit caps rows read by source operators in preview mode.
	// Negative means unlimited.
	SourceRowLimit int

	// CodeEnabled gates the code operator. Enabling user code is a
	// construction-time decision of the embedding host.
	CodeEnabled bool
}

// Request is one operator invocation.
type Request struct {
	// NodeID is the graph node being executed.
	NodeID string

	// Config holds the node's operator-specific options.
	Config map[string]any

	// Inputs are the upstream tables in stored-edge order.
	Inputs []*table.Table

	// Lookup resolves any already-executed node's table by id. Used by
	// operators that name their upstreams in config.
	Lookup func(nodeID string) (*table.Table, bool)
}

// Result is a successful operator outcome. A nil Table is legal and means
// the node produced no tabular output.
type Result struct {
	Table *table.Table
}

// Func is the implementation shape shared by all operators.
type Func func(ctx context.Context, env *Env, req *Request) (*Result, error)

// Definition is one registry entry.
type Definition struct {
	// Type is the node type string workflows use.
	Type string

	// Category groups operators for documentation and tooling.
	Category string

	// Sink marks terminal operators whose output the scheduler persists as
	// an artifact.
	Sink bool

	// Run executes the operator.
	Run Func
}

// The registry is static: the operator set is closed and known at compile
// time. New operators are added here, nowhere else.
var registry = map[string]*Definition{
	"source":          {Type: "source", Category: "source", Run: runSource},
	"source_csv":      {Type: "source_csv", Category: "source", Run: runSourceCSV},
	"source_optional": {Type: "source_optional", Category: "source", Run: runSourceOptional},

	"transform":    {Type: "transform", Category: "clean", Run: runTransform},
	"type_convert": {Type: "type_convert", Category: "clean", Run: runTypeConvert},
	"fill_na":      {Type: "fill_na", Category: "clean", Run: runFillNA},
	"deduplicate":  {Type: "deduplicate", Category: "clean", Run: runDeduplicate},
	"text_process": {Type: "text_process", Category: "clean", Run: runTextProcess},
	"date_process": {Type: "date_process", Category: "clean", Run: runDateProcess},

	"group_aggregate": {Type: "group_aggregate", Category: "analyze", Run: runGroupAggregate},
	"pivot":           {Type: "pivot", Category: "analyze", Run: runPivot},
	"unpivot":         {Type: "unpivot", Category: "analyze", Run: runUnpivot},

	"join":      {Type: "join", Category: "multitable", Run: runJoin},
	"concat":    {Type: "concat", Category: "multitable", Run: runConcat},
	"vlookup":   {Type: "vlookup", Category: "multitable", Run: runVlookup},
	"diff":      {Type: "diff", Category: "multitable", Run: runDiff},
	"reconcile": {Type: "reconcile", Category: "multitable", Run: runReconcile},

	"profit_income":  {Type: "profit_income", Category: "profit", Run: runProfitIncome},
	"profit_cost":    {Type: "profit_cost", Category: "profit", Run: runProfitCost},
	"profit_expense": {Type: "profit_expense", Category: "profit", Run: runProfitExpense},
	"profit_summary": {Type: "profit_summary", Category: "profit", Run: runProfitSummary},
	"profit_table":   {Type: "profit_table", Category: "profit", Run: runProfitTable},

	"code":     {Type: "code", Category: "custom", Run: runCode},
	"ai_agent": {Type: "ai_agent", Category: "ai", Run: runAIAgent},

	"output":     {Type: "output", Category: "sink", Sink: true, Run: runOutput},
	"output_csv": {Type: "output_csv", Category: "sink", Sink: true, Run: runOutput},
}

// Lookup returns the definition for a node type.
func Lookup(nodeType string) (*Definition, bool) {
	def, ok := registry[nodeType]
	return def, ok
}

// Types returns all registered node types, for validation messages.
func Types() []string {
	types := make([]string, 0, len(registry))
	for nodeType := range registry {
		types = append(types, nodeType)
	}
	sort.Strings(types)
	return types
}

// firstInput returns the first input table, or nil when the node has no
// upstream. Most single-input operators treat a missing upstream as "no
// output" rather than an error, mirroring how workflows are edited
// incrementally.
func firstInput(req *Request) *table.Table {
	if len(req.Inputs) == 0 {
		return nil
	}
	return req.Inputs[0]
}

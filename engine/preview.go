package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
	"github.com/leofalp/sheetflow/operators"
	"github.com/leofalp/sheetflow/providers/observability"
)

const (
	// DefaultSourceRows bounds how many rows source nodes read during a
	// preview.
	DefaultSourceRows = 600
	// DefaultDisplayRows bounds the row window a preview report carries.
	DefaultDisplayRows = 50
)

// PreviewOptions tune a sampled preview. Zero values take the defaults.
type PreviewOptions struct {
	SourceRows  int
	DisplayRows int
}

// PreviewNode executes only the target node's ancestor closure on sampled
// sources and reports the node's output: full column list and row count, a
// bounded display window, and per-operator statistics. Reconcile nodes get a
// difference-biased window sorted by descending absolute delta. Like
// Execute, all failures land in the report.
func (e *Engine) PreviewNode(ctx context.Context, w *Workflow, nodeID string, opts PreviewOptions) *PreviewReport {
	sourceRows := opts.SourceRows
	if sourceRows <= 0 {
		sourceRows = DefaultSourceRows
	}
	displayRows := opts.DisplayRows
	if displayRows <= 0 {
		displayRows = DefaultDisplayRows
	}

	ectx := newExecutionContext()
	report := &PreviewReport{NodeID: nodeID}
	fail := func(err error) *PreviewReport {
		report.Error = err.Error()
		report.ErrorKind = fault.KindOf(err)
		report.Traceback = fault.TraceOf(err)
		report.Logs = ectx.logs
		return report
	}

	ctx, span := e.observer.StartSpan(ctx, "workflow.preview",
		observability.String("node_id", nodeID), observability.Int("source_rows", sourceRows))
	defer span.End()

	g := buildGraph(w, ectx.logf)
	target, ok := g.nodes[nodeID]
	if !ok {
		err := fault.New(fault.KindGraphStructure, "preview target node %q does not exist", nodeID)
		span.RecordError(err)
		return fail(err)
	}
	report.NodeType = target.Type

	required := g.ancestorClosure(nodeID)
	order, err := g.orderSubset(required)
	if err != nil {
		span.RecordError(err)
		return fail(err)
	}

	report.NodeStatus = make(map[string]Status, len(required))
	report.NodeResults = make(map[string]*NodeResult, len(required))
	for id := range required {
		report.NodeStatus[id] = StatusPending
	}

	env := &operators.Env{
		Resolver:       e.resolver,
		Model:          e.modelProv,
		Log:            func(format string, args ...any) { ectx.logf("[preview] "+format, args...) },
		Preview:        true,
		SourceRowLimit: sourceRows,
		CodeEnabled:    e.codeEnable,
	}

	for _, id := range order {
		node := g.nodes[id]
		ectx.logf("[preview] node %s (%s) starting", node.Label, node.ID)

		result, err := e.runNode(ctx, env, g, ectx, node)
		if err != nil {
			span.RecordError(err)
			report.NodeStatus[id] = StatusError
			report.NodeResults[id] = &NodeResult{Error: err.Error(), Traceback: fault.TraceOf(err)}
			ectx.logf("[preview] node %s failed: %v", node.Label, err)
			return fail(err)
		}

		report.NodeStatus[id] = StatusSuccess
		if result != nil {
			ectx.setTable(id, result)
			report.NodeResults[id] = &NodeResult{
				Columns:   result.ColumnNames(),
				TotalRows: result.NumRows(),
			}
		}
		if id == nodeID {
			break
		}
	}

	result, ok := ectx.tableOf(nodeID)
	if !ok {
		err := fault.New(fault.KindGraphStructure, "preview target %q produced no output", nodeID)
		span.RecordError(err)
		return fail(err)
	}

	report.Stats = map[string]any{
		"rows_total":    result.NumRows(),
		"columns_total": result.NumColumns(),
		"source_rows":   sourceRows,
		"display_rows":  displayRows,
		"note":          fmt.Sprintf("preview computed on a sample of at most %d source rows", sourceRows),
	}

	sample, err := e.previewSample(target, result, report.Stats)
	if err != nil {
		span.RecordError(err)
		return fail(err)
	}

	report.Success = true
	report.Preview = tablePreviewOf(result, sample, displayRows)
	report.Logs = ectx.logs
	return report
}

// previewSample selects the rows shown for one node. Most operators show
// the prefix; reconcile sorts by descending absolute delta and, when any
// row exceeds tolerance, narrows to the differing rows. The stats map picks
// up reconcile match/diff counters as a side effect.
func (e *Engine) previewSample(node *Node, result *table.Table, stats map[string]any) (*table.Table, error) {
	if node.Type != "reconcile" {
		return result, nil
	}

	tolerance := 0.0
	if v, ok := node.Config["tolerance"]; ok && v != nil {
		if f, ok := table.AsFloat(v); ok {
			tolerance = f
		}
	}

	if result.HasColumn(operators.ReconcileDelta) {
		rows := result.NumRows()
		absDeltas := make([]any, rows)
		diffCount, matchCount := 0, 0
		sumAbs, maxAbs := 0.0, 0.0
		for row := 0; row < rows; row++ {
			delta, _ := table.AsFloat(result.Cell(row, operators.ReconcileDelta))
			abs := math.Abs(delta)
			absDeltas[row] = abs
			sumAbs += abs
			if abs > maxAbs {
				maxAbs = abs
			}
			if abs > tolerance {
				diffCount++
			} else {
				matchCount++
			}
		}
		stats["tolerance"] = tolerance
		stats["diff_count"] = diffCount
		stats["match_count"] = matchCount
		stats["sum_abs_diff"] = sumAbs
		stats["max_abs_diff"] = maxAbs

		sorted, err := result.WithColumn("_abs_diff", absDeltas)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "reconcile preview sampling failed")
		}
		sorted, err = sorted.SortBy("_abs_diff", false)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "reconcile preview sampling failed")
		}
		diffOnly := sorted.FilterRows(func(row int) bool {
			abs, _ := table.AsFloat(sorted.Cell(row, "_abs_diff"))
			return abs > tolerance
		})
		sorted = sorted.Drop("_abs_diff")
		if diffOnly.NumRows() > 0 {
			return diffOnly.Drop("_abs_diff"), nil
		}
		return sorted, nil
	}

	if result.HasColumn(operators.ReconcileVerdict) {
		mismatch := func(row int) bool {
			return strings.Contains(table.AsString(result.Cell(row, operators.ReconcileVerdict)), "不一致")
		}
		diffCount := 0
		for row := 0; row < result.NumRows(); row++ {
			if mismatch(row) {
				diffCount++
			}
		}
		stats["diff_count"] = diffCount
		stats["match_count"] = result.NumRows() - diffCount
		if diffCount > 0 {
			return result.FilterRows(mismatch), nil
		}
	}
	return result, nil
}

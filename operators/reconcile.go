package operators

import (
	"context"
	"math"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

const (
	// ReconcileDetailSum is the output column holding the grouped detail total.
	ReconcileDetailSum = "明细汇总金额"
	// ReconcileSummarySum is the output column holding the grouped summary total.
	ReconcileSummarySum = "汇总表金额"
	// ReconcileDelta is the output column holding detail minus summary.
	ReconcileDelta = "差额"
	// ReconcileVerdict is the output column holding the per-key verdict.
	ReconcileVerdict = "核算结果"

	reconcileMatch    = "✅ 一致"
	reconcileMismatch = "❌ 不一致"
)

// runReconcile compares a grouped detail stream against a summary stream,
// key by key. Inputs arrive in (detail, summary) order. Config: join_keys,
// or detail_keys plus summary_keys for cross-named keys (legacy singular
// aliases accepted); left_column / right_column with aliases detail_amount /
// summary_amount; tolerance (default 0); output_mode diff_only or all.
func runReconcile(_ context.Context, env *Env, req *Request) (*Result, error) {
	if len(req.Inputs) < 2 {
		return nil, fault.New(fault.KindArity, "reconcile requires two inputs (detail, summary), got %d", len(req.Inputs))
	}
	detail, summary := req.Inputs[0], req.Inputs[1]

	detailKeys := configStringList(req.Config, "detail_keys", "detail_key")
	summaryKeys := configStringList(req.Config, "summary_keys", "summary_key")
	joinKeys := configStringList(req.Config, "join_keys")
	useMapping := len(detailKeys) > 0 && len(summaryKeys) > 0 && len(joinKeys) == 0
	if !useMapping {
		if len(joinKeys) == 0 {
			joinKeys = detailKeys
		}
		if len(joinKeys) == 0 {
			return nil, fault.New(fault.KindConfigMissing, "reconcile requires join_keys, or detail_keys plus summary_keys")
		}
		detailKeys = joinKeys
		summaryKeys = joinKeys
	}
	if len(detailKeys) != len(summaryKeys) {
		return nil, fault.New(fault.KindConfigMissing,
			"reconcile key lists must have equal length: detail %v vs summary %v", detailKeys, summaryKeys)
	}

	leftColumn := configString(req.Config, "left_column", "detail_amount")
	if leftColumn == "" {
		return nil, fault.New(fault.KindConfigMissing, "reconcile requires left_column or detail_amount")
	}
	rightColumn := configString(req.Config, "right_column", "summary_amount")
	if rightColumn == "" {
		return nil, fault.New(fault.KindConfigMissing, "reconcile requires right_column or summary_amount")
	}
	tolerance := configFloat(req.Config, "tolerance", 0)
	outputMode := configString(req.Config, "output_mode")
	if outputMode == "" {
		outputMode = "diff_only"
	}

	for _, key := range detailKeys {
		if !detail.HasColumn(key) {
			return nil, columnMissing("reconcile: detail table", key, detail)
		}
	}
	for _, key := range summaryKeys {
		if !summary.HasColumn(key) {
			return nil, columnMissing("reconcile: summary table", key, summary)
		}
	}
	if !detail.HasColumn(leftColumn) {
		return nil, columnMissing("reconcile: detail table", leftColumn, detail)
	}
	if !summary.HasColumn(rightColumn) {
		return nil, columnMissing("reconcile: summary table", rightColumn, summary)
	}

	env.Log("reconcile: keys %v -> %v, detail amount %q, summary amount %q", detailKeys, summaryKeys, leftColumn, rightColumn)

	detailGrouped, err := detail.GroupBy(detailKeys, []table.Aggregation{
		{Column: leftColumn, Func: table.AggSum, Alias: ReconcileDetailSum},
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "reconcile detail grouping failed")
	}

	// Pre-grouping the summary prevents duplicated summary keys from
	// multiplying rows in the merge.
	summaryView, err := summary.Select(append(append([]string{}, summaryKeys...), rightColumn)).Coerce(rightColumn, table.KindFloat)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "reconcile summary conversion failed")
	}
	summaryGrouped, err := summaryView.GroupBy(summaryKeys, []table.Aggregation{
		{Column: rightColumn, Func: table.AggSum, Alias: ReconcileSummarySum},
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "reconcile summary grouping failed")
	}

	if useMapping {
		renames := make(map[string]string, len(summaryKeys))
		for i := range summaryKeys {
			if summaryKeys[i] != detailKeys[i] {
				renames[summaryKeys[i]] = detailKeys[i]
			}
		}
		if len(renames) > 0 {
			summaryGrouped, err = summaryGrouped.Rename(renames)
			if err != nil {
				return nil, fault.Wrap(fault.KindInternal, err, "reconcile key renaming failed")
			}
		}
	}

	detailGrouped, err = stringifyKeys(detailGrouped, detailKeys)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "reconcile key conversion failed")
	}
	summaryGrouped, err = stringifyKeys(summaryGrouped, detailKeys)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "reconcile key conversion failed")
	}

	merged, err := table.Merge(detailGrouped, summaryGrouped, detailKeys, detailKeys, table.MergeOuter)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "reconcile merge failed")
	}

	rows := merged.NumRows()
	detailSums := make([]any, rows)
	summarySums := make([]any, rows)
	deltas := make([]any, rows)
	verdicts := make([]any, rows)
	absDeltas := make([]float64, rows)
	for row := 0; row < rows; row++ {
		detailSum, _ := table.AsFloat(merged.Cell(row, ReconcileDetailSum))
		summarySum, _ := table.AsFloat(merged.Cell(row, ReconcileSummarySum))
		delta := detailSum - summarySum
		detailSums[row] = detailSum
		summarySums[row] = summarySum
		deltas[row] = delta
		absDeltas[row] = math.Abs(delta)
		if absDeltas[row] <= tolerance {
			verdicts[row] = reconcileMatch
		} else {
			verdicts[row] = reconcileMismatch
		}
	}

	for _, replacement := range []struct {
		name  string
		cells []any
	}{
		{ReconcileDetailSum, detailSums},
		{ReconcileSummarySum, summarySums},
		{ReconcileDelta, deltas},
		{ReconcileVerdict, verdicts},
	} {
		merged, err = merged.WithColumn(replacement.name, replacement.cells)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "reconcile output assembly failed")
		}
	}

	if outputMode == "diff_only" {
		merged = merged.FilterRows(func(row int) bool { return absDeltas[row] > tolerance })
	}

	mismatches := 0
	for row := 0; row < merged.NumRows(); row++ {
		if merged.Cell(row, ReconcileVerdict) == reconcileMismatch {
			mismatches++
		}
	}
	env.Log("reconcile: %d detail rows vs %d summary rows, %d mismatches", detail.NumRows(), summary.NumRows(), mismatches)

	return &Result{Table: merged}, nil
}

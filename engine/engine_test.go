package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leofalp/sheetflow/core/fault"
)

func writeUpload(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func parseWorkflow(t *testing.T, raw string) *Workflow {
	t.Helper()
	w, err := ParseWorkflow([]byte(raw))
	if err != nil {
		t.Fatalf("ParseWorkflow: %v", err)
	}
	return w
}

func TestParseWorkflowNormalization(t *testing.T) {
	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "a", "type": "source_csv", "config": {"file_id": "f"}},
			{"id": "b", "data": {"type": "transform", "label": "清洗", "config": {"filter_code": "x > 1"}}},
			{"id": "c", "type": "output"}
		],
		"edges": [{"source": "a", "target": "b"}]
	}`)

	if len(w.Nodes) != 3 || len(w.Edges) != 1 {
		t.Fatalf("shape = %d nodes %d edges", len(w.Nodes), len(w.Edges))
	}
	if w.Nodes[0].Label != "source_csv" {
		t.Errorf("label should default to type, got %q", w.Nodes[0].Label)
	}
	if w.Nodes[1].Type != "transform" || w.Nodes[1].Label != "清洗" {
		t.Errorf("data-nested node not normalized: %+v", w.Nodes[1])
	}
	if w.Nodes[1].Config["filter_code"] != "x > 1" {
		t.Errorf("nested config lost: %v", w.Nodes[1].Config)
	}
	if w.Nodes[2].Config == nil {
		t.Error("missing config should normalize to an empty map")
	}
}

func TestParseWorkflowRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `nodes: [`},
		{"missing nodes", `{"edges": []}`},
		{"node without id", `{"nodes": [{"type": "output"}]}`},
		{"empty id", `{"nodes": [{"id": ""}]}`},
		{"edge without target", `{"nodes": [{"id": "a"}], "edges": [{"source": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorkflow([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if fault.KindOf(err) != fault.KindGraphStructure {
				t.Errorf("kind = %v, want graph_structure", fault.KindOf(err))
			}
		})
	}
}

func TestExecuteWorkflow(t *testing.T) {
	dir := t.TempDir()
	writeUpload(t, dir, "orders_data.csv", "办公室,金额\n邯郸刘洋,100\n总部,200\n邯郸刘洋,300\n")

	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "src", "type": "source_csv", "config": {"file_id": "orders"}},
			{"id": "clean", "type": "transform", "config": {"filter_code": "办公室 ＝ 邯郸刘洋"}},
			{"id": "out", "type": "output_csv", "config": {"filename": "report"}}
		],
		"edges": [
			{"source": "src", "target": "clean"},
			{"source": "clean", "target": "out"}
		]
	}`)

	report := New(WithUploadDir(dir)).Execute(context.Background(), w)
	if !report.Success {
		t.Fatalf("execution failed: %s (%s)", report.Error, report.ErrorKind)
	}
	for _, id := range []string{"src", "clean", "out"} {
		if report.NodeStatus[id] != StatusSuccess {
			t.Errorf("node %s status = %s", id, report.NodeStatus[id])
		}
		if report.NodeResults[id] == nil {
			t.Errorf("node %s has no result", id)
		}
	}
	if report.NodeResults["clean"].TotalRows != 2 {
		t.Errorf("filtered rows = %d, want 2", report.NodeResults["clean"].TotalRows)
	}
	if len(report.NodeResults["clean"].Data) != 2 {
		t.Error("execution results carry the full row data")
	}
	if report.OutputFile != "report.csv" {
		t.Errorf("output file = %q", report.OutputFile)
	}
	if _, err := os.Stat(filepath.Join(dir, "report.csv")); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
	if report.Preview == nil || report.Preview.TotalRows != 2 {
		t.Errorf("final preview wrong: %+v", report.Preview)
	}
	if len(report.Logs) == 0 {
		t.Error("execution should produce logs")
	}
}

func TestExecuteCyclicGraph(t *testing.T) {
	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "a", "type": "transform"},
			{"id": "b", "type": "transform"},
			{"id": "c", "type": "transform"}
		],
		"edges": [
			{"source": "a", "target": "b"},
			{"source": "b", "target": "c"},
			{"source": "c", "target": "a"}
		]
	}`)

	report := New().Execute(context.Background(), w)
	if report.Success {
		t.Fatal("cyclic workflow must fail")
	}
	if report.ErrorKind != fault.KindGraphCyclic {
		t.Errorf("error kind = %s, want graph_cyclic", report.ErrorKind)
	}
	if report.OutputFile != "" {
		t.Error("no artifact may be written for a failed run")
	}
	for id, status := range report.NodeStatus {
		if status != StatusPending {
			t.Errorf("node %s status = %s, want pending", id, status)
		}
	}
}

func TestExecuteUnknownNodeType(t *testing.T) {
	w := parseWorkflow(t, `{"nodes": [{"id": "a", "type": "does_not_exist"}]}`)
	report := New().Execute(context.Background(), w)
	if report.Success {
		t.Fatal("unknown node type must fail")
	}
	if report.ErrorKind != fault.KindGraphStructure {
		t.Errorf("error kind = %s, want graph_structure", report.ErrorKind)
	}
	if report.NodeStatus["a"] != StatusError {
		t.Errorf("node status = %s, want error", report.NodeStatus["a"])
	}
	if report.NodeResults["a"] == nil || report.NodeResults["a"].Error == "" {
		t.Error("failed node must carry its error")
	}
}

func TestExecuteIgnoresDanglingEdges(t *testing.T) {
	dir := t.TempDir()
	writeUpload(t, dir, "f_data.csv", "a\n1\n")

	w := parseWorkflow(t, `{
		"nodes": [{"id": "src", "type": "source_csv", "config": {"file_id": "f"}}],
		"edges": [{"source": "src", "target": "ghost"}]
	}`)
	report := New(WithUploadDir(dir)).Execute(context.Background(), w)
	if !report.Success {
		t.Fatalf("execution failed: %s", report.Error)
	}
	found := false
	for _, line := range report.Logs {
		if strings.Contains(line, "ignoring edge src -> ghost") {
			found = true
		}
	}
	if !found {
		t.Errorf("dangling edge warning missing from logs: %v", report.Logs)
	}
}

func TestExecuteFailureShortCircuits(t *testing.T) {
	dir := t.TempDir()
	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "src", "type": "source", "config": {"file_id": "nothing_here"}},
			{"id": "out", "type": "output"}
		],
		"edges": [{"source": "src", "target": "out"}]
	}`)

	report := New(WithUploadDir(dir)).Execute(context.Background(), w)
	if report.Success {
		t.Fatal("missing upload must fail the run")
	}
	if report.ErrorKind != fault.KindFileNotFound {
		t.Errorf("error kind = %s, want file_not_found", report.ErrorKind)
	}
	if report.NodeStatus["src"] != StatusError {
		t.Errorf("source status = %s", report.NodeStatus["src"])
	}
	if report.NodeStatus["out"] != StatusPending {
		t.Errorf("downstream status = %s, want pending", report.NodeStatus["out"])
	}
}

func TestPreviewNodeSamplesSources(t *testing.T) {
	dir := t.TempDir()
	var builder strings.Builder
	builder.WriteString("g,v\n")
	for i := 0; i < 700; i++ {
		fmt.Fprintf(&builder, "g%02d,1\n", i%50)
	}
	writeUpload(t, dir, "big_data.csv", builder.String())

	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "src", "type": "source_csv", "config": {"file_id": "big"}},
			{"id": "agg", "type": "group_aggregate", "config": {
				"group_by": ["g"],
				"aggregations": [{"column": "v", "func": "sum", "alias": "total"}]
			}},
			{"id": "out", "type": "output"}
		],
		"edges": [
			{"source": "src", "target": "agg"},
			{"source": "agg", "target": "out"}
		]
	}`)

	report := New(WithUploadDir(dir)).PreviewNode(context.Background(), w, "agg", PreviewOptions{
		SourceRows:  600,
		DisplayRows: 20,
	})
	if !report.Success {
		t.Fatalf("preview failed: %s (%s)", report.Error, report.ErrorKind)
	}
	if report.NodeType != "group_aggregate" {
		t.Errorf("node type = %q", report.NodeType)
	}
	if report.Preview.TotalRows != 50 {
		t.Errorf("total rows = %d, want 50 groups", report.Preview.TotalRows)
	}
	if len(report.Preview.Data) != 20 {
		t.Errorf("display window = %d rows, want 20", len(report.Preview.Data))
	}
	if report.Stats["source_rows"] != 600 || report.Stats["rows_total"] != 50 {
		t.Errorf("stats wrong: %v", report.Stats)
	}
	// The source itself was row-capped by the sample budget.
	if report.NodeResults["src"].TotalRows != 600 {
		t.Errorf("sampled source rows = %d, want 600", report.NodeResults["src"].TotalRows)
	}
	if report.NodeResults["src"].Data != nil {
		t.Error("preview node results carry no row data")
	}
	// Nodes outside the ancestor closure never run.
	if _, ran := report.NodeStatus["out"]; ran {
		t.Error("downstream node must not participate in a preview")
	}
}

func TestPreviewNodeReconcileBias(t *testing.T) {
	dir := t.TempDir()
	writeUpload(t, dir, "detail_data.csv", "k,v\na,100\nb,105\nc,150\n")
	writeUpload(t, dir, "summary_data.csv", "k,v\na,100\nb,100\nc,100\n")

	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "d", "type": "source_csv", "config": {"file_id": "detail"}},
			{"id": "s", "type": "source_csv", "config": {"file_id": "summary"}},
			{"id": "rec", "type": "reconcile", "config": {
				"join_keys": ["k"],
				"left_column": "v",
				"right_column": "v",
				"output_mode": "all"
			}}
		],
		"edges": [
			{"source": "d", "target": "rec"},
			{"source": "s", "target": "rec"}
		]
	}`)

	report := New(WithUploadDir(dir)).PreviewNode(context.Background(), w, "rec", PreviewOptions{})
	if !report.Success {
		t.Fatalf("preview failed: %s (%s)", report.Error, report.ErrorKind)
	}
	if report.Stats["diff_count"] != 2 || report.Stats["match_count"] != 1 {
		t.Errorf("reconcile stats wrong: %v", report.Stats)
	}
	if report.Stats["max_abs_diff"] != 50.0 {
		t.Errorf("max_abs_diff = %v, want 50", report.Stats["max_abs_diff"])
	}
	// Window narrows to the differing rows, largest delta first.
	if len(report.Preview.Data) != 2 {
		t.Fatalf("window rows = %d, want the 2 differing keys", len(report.Preview.Data))
	}
	if report.Preview.Data[0]["k"] != "c" || report.Preview.Data[1]["k"] != "b" {
		t.Errorf("window order wrong: %v", report.Preview.Data)
	}
	// The full result still holds all three keys.
	if report.Preview.TotalRows != 3 {
		t.Errorf("total rows = %d, want 3", report.Preview.TotalRows)
	}
}

func TestPreviewNodeRefusesAIAgent(t *testing.T) {
	dir := t.TempDir()
	writeUpload(t, dir, "f_data.csv", "a\n1\n")

	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "src", "type": "source_csv", "config": {"file_id": "f"}},
			{"id": "ai", "type": "ai_agent", "config": {"prompt": "classify {{a}}"}}
		],
		"edges": [{"source": "src", "target": "ai"}]
	}`)

	report := New(WithUploadDir(dir)).PreviewNode(context.Background(), w, "ai", PreviewOptions{})
	if report.Success {
		t.Fatal("ai_agent preview must be refused")
	}
	if report.ErrorKind != fault.KindPreviewUnsupported {
		t.Errorf("error kind = %s, want preview_unsupported", report.ErrorKind)
	}
	if report.NodeStatus["src"] != StatusSuccess {
		t.Errorf("upstream status = %s, want success", report.NodeStatus["src"])
	}
}

func TestPreviewNodeUnknownTarget(t *testing.T) {
	w := parseWorkflow(t, `{"nodes": [{"id": "a", "type": "output"}]}`)
	report := New().PreviewNode(context.Background(), w, "ghost", PreviewOptions{})
	if report.Success || report.ErrorKind != fault.KindGraphStructure {
		t.Errorf("error kind = %s, want graph_structure", report.ErrorKind)
	}
}

func TestOrderSubsetDeterminism(t *testing.T) {
	// Two independent chains: order must follow node listing, not map order.
	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "b1", "type": "transform"},
			{"id": "a1", "type": "transform"},
			{"id": "b2", "type": "transform"},
			{"id": "a2", "type": "transform"}
		],
		"edges": [
			{"source": "b1", "target": "b2"},
			{"source": "a1", "target": "a2"}
		]
	}`)
	g := buildGraph(w, nil)
	for i := 0; i < 10; i++ {
		order, err := g.topologicalOrder()
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"b1", "a1", "b2", "a2"}
		for j, id := range want {
			if order[j] != id {
				t.Fatalf("run %d order = %v, want %v", i, order, want)
			}
		}
	}
}

func TestAncestorClosure(t *testing.T) {
	w := parseWorkflow(t, `{
		"nodes": [
			{"id": "a", "type": "transform"},
			{"id": "b", "type": "transform"},
			{"id": "c", "type": "transform"},
			{"id": "d", "type": "transform"}
		],
		"edges": [
			{"source": "a", "target": "b"},
			{"source": "b", "target": "c"},
			{"source": "c", "target": "d"}
		]
	}`)
	g := buildGraph(w, nil)
	closure := g.ancestorClosure("c")
	for _, id := range []string{"a", "b", "c"} {
		if !closure[id] {
			t.Errorf("closure missing %s", id)
		}
	}
	if closure["d"] {
		t.Error("closure must not include downstream nodes")
	}
}

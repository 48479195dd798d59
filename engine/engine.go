package engine

import (
	"context"
	"fmt"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
	"github.com/leofalp/sheetflow/operators"
	"github.com/leofalp/sheetflow/providers/model"
	"github.com/leofalp/sheetflow/providers/observability"
	"github.com/leofalp/sheetflow/providers/sheetio"
)

// finalPreviewRows bounds the sink preview embedded in execution reports.
const finalPreviewRows = 100

// Engine executes workflows. Construct one with New and share it freely:
// all per-run state lives in the execution context, so concurrent
// executions never interfere.
type Engine struct {
	resolver   sheetio.Resolver
	artifacts  *sheetio.ArtifactStore
	modelProv  model.Provider
	observer   observability.Provider
	codeEnable bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the input file registry.
func WithResolver(r sheetio.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithArtifactStore sets where sink outputs are written.
func WithArtifactStore(s *sheetio.ArtifactStore) Option {
	return func(e *Engine) { e.artifacts = s }
}

// WithUploadDir points both the file registry and the artifact store at one
// directory, the layout the original deployment uses.
func WithUploadDir(dir string) Option {
	return func(e *Engine) {
		e.resolver = &sheetio.DirResolver{Dir: dir}
		e.artifacts = &sheetio.ArtifactStore{Dir: dir}
	}
}

// WithModel sets the completion backend for ai_agent nodes.
func WithModel(p model.Provider) Option {
	return func(e *Engine) { e.modelProv = p }
}

// WithObserver sets the instrumentation provider.
func WithObserver(p observability.Provider) Option {
	return func(e *Engine) { e.observer = p }
}

// WithCodeEnabled allows code nodes to run scripts. Off by default.
func WithCodeEnabled(enabled bool) Option {
	return func(e *Engine) { e.codeEnable = enabled }
}

// New constructs an Engine. Without options it can execute pure transform
// graphs; source and sink nodes need WithUploadDir or explicit
// resolver/store options.
func New(opts ...Option) *Engine {
	e := &Engine{observer: observability.Noop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the whole workflow in topological order and returns a
// structured report. Execute never returns a Go error: graph problems,
// operator failures and recovered panics all land in the report with
// Success false.
func (e *Engine) Execute(ctx context.Context, w *Workflow) *ExecutionReport {
	ectx := newExecutionContext()
	report := &ExecutionReport{
		NodeStatus:  make(map[string]Status, len(w.Nodes)),
		NodeResults: make(map[string]*NodeResult, len(w.Nodes)),
	}
	for _, node := range w.Nodes {
		report.NodeStatus[node.ID] = StatusPending
	}

	ctx, span := e.observer.StartSpan(ctx, "workflow.execute",
		observability.Int("nodes", len(w.Nodes)), observability.Int("edges", len(w.Edges)))
	defer span.End()

	g := buildGraph(w, ectx.logf)
	order, err := g.topologicalOrder()
	if err != nil {
		span.RecordError(err)
		report.Error = err.Error()
		report.ErrorKind = fault.KindOf(err)
		report.Logs = ectx.logs
		return report
	}

	env := &operators.Env{
		Resolver:       e.resolver,
		Model:          e.modelProv,
		Log:            ectx.logf,
		SourceRowLimit: -1,
		CodeEnabled:    e.codeEnable,
	}

	for _, nodeID := range order {
		node := g.nodes[nodeID]
		ectx.logf("node %s (%s) starting", node.Label, node.ID)

		result, err := e.runNode(ctx, env, g, ectx, node)
		if err != nil {
			span.RecordError(err)
			e.observer.Error(ctx, "node failed",
				observability.String("node_id", node.ID), observability.String("type", node.Type), observability.Err(err))
			report.NodeStatus[node.ID] = StatusError
			report.NodeResults[node.ID] = &NodeResult{Error: err.Error(), Traceback: fault.TraceOf(err)}
			ectx.logf("node %s failed: %v", node.Label, err)
			report.Error = err.Error()
			report.ErrorKind = fault.KindOf(err)
			report.Logs = ectx.logs
			return report
		}

		report.NodeStatus[node.ID] = StatusSuccess
		if result == nil {
			continue
		}
		ectx.setTable(node.ID, result)
		ectx.logf("node %s succeeded with %d rows", node.Label, result.NumRows())
		report.NodeResults[node.ID] = &NodeResult{
			Columns:   result.ColumnNames(),
			Data:      result.Records(-1),
			TotalRows: result.NumRows(),
		}

		if def, ok := operators.Lookup(node.Type); ok && def.Sink {
			filename, err := e.saveArtifact(node, result)
			if err != nil {
				span.RecordError(err)
				report.NodeStatus[node.ID] = StatusError
				report.NodeResults[node.ID] = &NodeResult{Error: err.Error(), Traceback: fault.TraceOf(err)}
				ectx.logf("node %s artifact write failed: %v", node.Label, err)
				report.Error = err.Error()
				report.ErrorKind = fault.KindOf(err)
				report.Logs = ectx.logs
				return report
			}
			ectx.logf("artifact written: %s", filename)
			report.OutputFile = filename
			report.Preview = tablePreviewOf(result, result, finalPreviewRows)
		}
	}

	report.Success = true
	report.Logs = ectx.logs
	return report
}

// runNode gathers the node's inputs in stored-edge order and dispatches to
// its operator, converting panics into internal faults.
func (e *Engine) runNode(ctx context.Context, env *operators.Env, g *graph, ectx *executionContext, node *Node) (result *table.Table, err error) {
	def, ok := operators.Lookup(node.Type)
	if !ok {
		return nil, fault.New(fault.KindGraphStructure, "unknown node type %q, known types: %v", node.Type, operators.Types())
	}
	if env.Preview && node.Type == "ai_agent" {
		return nil, fault.New(fault.KindPreviewUnsupported, "ai_agent nodes do not run in preview, execute the workflow instead")
	}

	var inputs []*table.Table
	for _, edge := range g.workflow.Edges {
		if edge.Target != node.ID {
			continue
		}
		if t, ok := ectx.tableOf(edge.Source); ok {
			inputs = append(inputs, t)
		}
	}

	nodeCtx, span := e.observer.StartSpan(ctx, "node.run",
		observability.String("node_id", node.ID), observability.String("type", node.Type))
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fault.New(fault.KindInternal, "node %s (%s) panicked: %v", node.ID, node.Type, recovered)
			span.RecordError(err)
		}
	}()

	res, err := def.Run(nodeCtx, env, &operators.Request{
		NodeID: node.ID,
		Config: node.Config,
		Inputs: inputs,
		Lookup: ectx.tableOf,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.Table, nil
}

// saveArtifact writes a sink node's table through the artifact store.
func (e *Engine) saveArtifact(node *Node, t *table.Table) (string, error) {
	if e.artifacts == nil {
		return "", fault.New(fault.KindSinkIO, "no artifact store configured for sink node %s", node.ID)
	}
	format := "xlsx"
	if node.Type == "output_csv" {
		format = "csv"
	}
	filename := ""
	if v, ok := node.Config["filename"]; ok && v != nil {
		filename = fmt.Sprint(v)
	}
	encoding := ""
	if v, ok := node.Config["encoding"]; ok && v != nil {
		encoding = fmt.Sprint(v)
	}
	return e.artifacts.Save(t, format, filename, encoding)
}

package engine

import (
	"github.com/leofalp/sheetflow/core/fault"
)

// graph is the validated adjacency view of a workflow. Edges referencing
// unknown nodes are dropped during construction; the workflow's stored edge
// list stays authoritative for fan-in ordering.
type graph struct {
	workflow *Workflow
	nodes    map[string]*Node
	adjacency map[string][]string
	reverse   map[string][]string
}

// buildGraph indexes a workflow and drops dangling edges, reporting each
// through warn.
func buildGraph(w *Workflow, warn func(format string, args ...any)) *graph {
	g := &graph{
		workflow:  w,
		nodes:     make(map[string]*Node, len(w.Nodes)),
		adjacency: make(map[string][]string, len(w.Nodes)),
		reverse:   make(map[string][]string, len(w.Nodes)),
	}
	for i := range w.Nodes {
		node := &w.Nodes[i]
		g.nodes[node.ID] = node
	}
	for _, edge := range w.Edges {
		_, haveSource := g.nodes[edge.Source]
		_, haveTarget := g.nodes[edge.Target]
		if !haveSource || !haveTarget {
			if warn != nil {
				warn("ignoring edge %s -> %s: unknown endpoint", edge.Source, edge.Target)
			}
			continue
		}
		g.adjacency[edge.Source] = append(g.adjacency[edge.Source], edge.Target)
		g.reverse[edge.Target] = append(g.reverse[edge.Target], edge.Source)
	}
	return g
}

// topologicalOrder runs Kahn's algorithm over the whole graph. The queue is
// seeded and drained in node insertion order, so equal-rank nodes always
// execute in the order the workflow lists them.
func (g *graph) topologicalOrder() ([]string, error) {
	return g.orderSubset(nil)
}

// orderSubset topologically orders the given node subset (nil means all
// nodes), counting only edges internal to the subset.
func (g *graph) orderSubset(subset map[string]bool) ([]string, error) {
	include := func(id string) bool { return subset == nil || subset[id] }

	inDegree := make(map[string]int)
	for _, node := range g.workflow.Nodes {
		if include(node.ID) {
			inDegree[node.ID] = 0
		}
	}
	for source, targets := range g.adjacency {
		if !include(source) {
			continue
		}
		for _, target := range targets {
			if include(target) {
				inDegree[target]++
			}
		}
	}

	var queue []string
	for _, node := range g.workflow.Nodes {
		if include(node.ID) && inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	order := make([]string, 0, len(inDegree))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, target := range g.adjacency[id] {
			if !include(target) {
				continue
			}
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if len(order) < len(inDegree) {
		return nil, fault.New(fault.KindGraphCyclic,
			"workflow graph contains a cycle: %d of %d nodes unreachable by topological order", len(inDegree)-len(order), len(inDegree))
	}
	return order, nil
}

// ancestorClosure returns the target node plus every transitive upstream
// node, the subset a preview must execute.
func (g *graph) ancestorClosure(nodeID string) map[string]bool {
	closure := map[string]bool{nodeID: true}
	frontier := []string{nodeID}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, source := range g.reverse[id] {
			if !closure[source] {
				closure[source] = true
				frontier = append(frontier, source)
			}
		}
	}
	return closure
}

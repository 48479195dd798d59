// Package engine executes workflows: directed acyclic graphs of tabular
// operators. It owns graph validation, topological scheduling, sampled node
// previews and the structured reports the caller receives. Operators
// themselves live in the operators package; the engine only wires tables
// between them.
package engine

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"github.com/leofalp/sheetflow/core/fault"
)

// Node is one operator instance in a workflow.
type Node struct {
	ID     string
	Type   string
	Label  string
	Config map[string]any
}

// Edge connects a producing node to a consuming node. Edge order in the
// workflow matters: a node with several incoming edges receives its inputs
// in that stored order.
type Edge struct {
	Source string
	Target string
}

// Workflow is a parsed, normalized workflow description.
type Workflow struct {
	Nodes []Node
	Edges []Edge
}

// workflowSchema validates the raw shape before normalization. It stays
// permissive on purpose: clients attach extra keys freely, only the graph
// skeleton is enforced.
const workflowSchema = `{
	"type": "object",
	"required": ["nodes"],
	"properties": {
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "string", "minLength": 1}}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["source", "target"],
				"properties": {
					"source": {"type": "string"},
					"target": {"type": "string"}
				}
			}
		}
	}
}`

var compiledWorkflowSchema = gojsonschema.NewStringLoader(workflowSchema)

type rawNode struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Label  string         `json:"label"`
	Config map[string]any `json:"config"`
	Data   *rawNodeData   `json:"data"`
}

type rawNodeData struct {
	Type   string         `json:"type"`
	Label  string         `json:"label"`
	Config map[string]any `json:"config"`
}

type rawEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type rawWorkflow struct {
	Nodes []rawNode `json:"nodes"`
	Edges []rawEdge `json:"edges"`
}

// ParseWorkflow validates and normalizes a raw workflow JSON document.
// Clients send nodes either flat or with type/label/config nested under
// data; both normalize to the flat Node form. A node's label defaults to
// its type.
func ParseWorkflow(raw []byte) (*Workflow, error) {
	result, err := gojsonschema.Validate(compiledWorkflowSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fault.Wrap(fault.KindGraphStructure, err, "workflow document is not valid JSON")
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return nil, fault.New(fault.KindGraphStructure, "workflow document is malformed: %s", first.String())
	}

	var doc rawWorkflow
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fault.Wrap(fault.KindGraphStructure, err, "workflow document decoding failed")
	}
	return normalizeWorkflow(&doc), nil
}

func normalizeWorkflow(doc *rawWorkflow) *Workflow {
	w := &Workflow{
		Nodes: make([]Node, 0, len(doc.Nodes)),
		Edges: make([]Edge, 0, len(doc.Edges)),
	}
	for _, raw := range doc.Nodes {
		node := Node{ID: raw.ID, Type: raw.Type, Label: raw.Label, Config: raw.Config}
		if raw.Data != nil {
			if raw.Data.Type != "" {
				node.Type = raw.Data.Type
			}
			if raw.Data.Label != "" {
				node.Label = raw.Data.Label
			}
			if raw.Data.Config != nil {
				node.Config = raw.Data.Config
			}
		}
		if node.Label == "" {
			node.Label = node.Type
		}
		if node.Config == nil {
			node.Config = map[string]any{}
		}
		w.Nodes = append(w.Nodes, node)
	}
	for _, raw := range doc.Edges {
		w.Edges = append(w.Edges, Edge(raw))
	}
	return w
}

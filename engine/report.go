package engine

import (
	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// Status is a node's execution state within one run.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// NodeResult summarizes one node's outcome. Successful nodes carry their
// table projection; failed nodes carry the error and its traceback.
type NodeResult struct {
	Columns   []string         `json:"columns,omitempty"`
	Data      []map[string]any `json:"data,omitempty"`
	TotalRows int              `json:"total_rows,omitempty"`
	Error     string           `json:"error,omitempty"`
	Traceback string           `json:"traceback,omitempty"`
}

// TablePreview is a bounded row window over a table, alongside its full
// column list and true row count.
type TablePreview struct {
	Columns   []string         `json:"columns"`
	Data      []map[string]any `json:"data"`
	TotalRows int              `json:"total_rows"`
}

// ExecutionReport is the outcome of a full workflow run. Failures never
// surface as Go errors from Execute; they arrive here with Success false.
type ExecutionReport struct {
	Success     bool                   `json:"success"`
	Error       string                 `json:"error,omitempty"`
	ErrorKind   fault.Kind             `json:"error_kind,omitempty"`
	OutputFile  string                 `json:"output_file,omitempty"`
	Preview     *TablePreview          `json:"preview,omitempty"`
	Logs        []string               `json:"logs"`
	NodeStatus  map[string]Status      `json:"node_status"`
	NodeResults map[string]*NodeResult `json:"node_results"`
}

// PreviewReport is the outcome of a sampled single-node preview.
type PreviewReport struct {
	Success     bool                   `json:"success"`
	Error       string                 `json:"error,omitempty"`
	ErrorKind   fault.Kind             `json:"error_kind,omitempty"`
	Traceback   string                 `json:"traceback,omitempty"`
	NodeID      string                 `json:"node_id,omitempty"`
	NodeType    string                 `json:"node_type,omitempty"`
	Stats       map[string]any         `json:"stats,omitempty"`
	Preview     *TablePreview          `json:"preview,omitempty"`
	Logs        []string               `json:"logs,omitempty"`
	NodeStatus  map[string]Status      `json:"node_status,omitempty"`
	NodeResults map[string]*NodeResult `json:"node_results,omitempty"`
}

// tablePreviewOf projects at most limit rows of sample while reporting the
// column list and row count of the full table.
func tablePreviewOf(full, sample *table.Table, limit int) *TablePreview {
	return &TablePreview{
		Columns:   full.ColumnNames(),
		Data:      sample.Records(limit),
		TotalRows: full.NumRows(),
	}
}

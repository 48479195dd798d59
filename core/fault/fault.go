package fault

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Kind classifies an engine failure. Kinds are stable strings that surface in
// execution reports, so callers can branch on them without parsing messages.
type Kind string

const (
	// KindGraphStructure indicates a malformed workflow description:
	// unknown node type, schema violation, or an edge referencing only
	// missing nodes.
	KindGraphStructure Kind = "graph_structure"

	// KindGraphCyclic indicates the workflow graph contains a cycle.
	KindGraphCyclic Kind = "graph_cyclic"

	// KindConfigMissing indicates an operator is missing a required config key.
	KindConfigMissing Kind = "operator_config_missing"

	// KindColumnMissing indicates an operator referenced a column that does
	// not exist in its input table.
	KindColumnMissing Kind = "operator_column_missing"

	// KindArity indicates an operator received the wrong number of inputs.
	KindArity Kind = "operator_arity"

	// KindFileNotFound indicates a source file id could not be resolved.
	KindFileNotFound Kind = "file_not_found"

	// KindCodeBadOutput indicates a code operator snippet did not assign a
	// table-shaped value to `result`.
	KindCodeBadOutput Kind = "operator_code_bad_output"

	// KindSinkIO indicates an output artifact could not be written.
	KindSinkIO Kind = "sink_io"

	// KindRemoteUnavailable indicates a remote model call failed.
	KindRemoteUnavailable Kind = "remote_unavailable"

	// KindPreviewUnsupported indicates the node type cannot run in preview mode.
	KindPreviewUnsupported Kind = "preview_unsupported"

	// KindInternal covers unexpected failures, including recovered panics.
	KindInternal Kind = "internal"
)

// Error is the tagged error value used across the engine and operator library.
// It carries a Kind for classification, a human message, an optional wrapped
// cause, and the stack captured at construction time for report tracebacks.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
	Stack string
}

// New creates a tagged error with a formatted message. The call-site stack is
// captured eagerly so the scheduler can surface it in node result tracebacks.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Stack: string(debug.Stack()),
	}
}

// Wrap creates a tagged error around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Cause: cause,
		Stack: string(debug.Stack()),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the Kind from an error chain. Errors that are not tagged
// report KindInternal, matching the scheduler's catch-all behavior.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindInternal
}

// TraceOf extracts the captured stack from an error chain, or "" when the
// error carries none.
func TraceOf(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Stack
	}
	return ""
}

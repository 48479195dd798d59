package fault

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(KindColumnMissing, "column %q does not exist", "金额")
	if got := err.Error(); got != `operator_column_missing: column "金额" does not exist` {
		t.Errorf("Error() = %q", got)
	}
	if err.Stack == "" {
		t.Error("stack should be captured at construction time")
	}
}

func TestWrapChain(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindSinkIO, cause, "cannot write artifact")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause should survive errors.Is")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}

	outer := fmt.Errorf("node output failed: %w", err)
	if KindOf(outer) != KindSinkIO {
		t.Errorf("KindOf through fmt wrap = %v, want sink_io", KindOf(outer))
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"tagged", New(KindGraphCyclic, "cycle"), KindGraphCyclic},
		{"untagged", errors.New("plain"), KindInternal},
		{"wrapped tagged", Wrap(KindFileNotFound, errors.New("enoent"), "no file"), KindFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTraceOf(t *testing.T) {
	if TraceOf(errors.New("plain")) != "" {
		t.Error("untagged errors carry no trace")
	}
	if TraceOf(New(KindInternal, "boom")) == "" {
		t.Error("tagged errors carry the construction stack")
	}
}

package engine

import (
	"fmt"
	"time"

	"github.com/leofalp/sheetflow/core/table"
)

// executionContext holds the state of one run: produced tables by node id,
// append-only, plus the user-visible log buffer that travels in the report.
// One context belongs to exactly one execution; no locking needed.
type executionContext struct {
	tables map[string]*table.Table
	logs   []string
	now    func() time.Time
}

func newExecutionContext() *executionContext {
	return &executionContext{
		tables: make(map[string]*table.Table),
		now:    time.Now,
	}
}

func (c *executionContext) setTable(nodeID string, t *table.Table) {
	c.tables[nodeID] = t
}

func (c *executionContext) tableOf(nodeID string) (*table.Table, bool) {
	t, ok := c.tables[nodeID]
	return t, ok
}

// logf appends a timestamped line, mirroring the log format users see in
// the frontend console.
func (c *executionContext) logf(format string, args ...any) {
	c.logs = append(c.logs, fmt.Sprintf("[%s] %s", c.now().Format("15:04:05"), fmt.Sprintf(format, args...)))
}

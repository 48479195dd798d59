package operators

import (
	"context"
	"strings"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/parse"
	"github.com/leofalp/sheetflow/core/table"
)

// aiAgentRowCap bounds how many rows one ai_agent node sends to the model.
const aiAgentRowCap = 20

// runAIAgent sends each of the first rows to the language model and stores
// the completions in a new column. The prompt substitutes {{column}}
// placeholders; a prompt with no placeholders gets the full row appended.
// Config: prompt (required), target_column (default AI_Result), json_field
// to extract one field from a JSON response.
func runAIAgent(ctx context.Context, env *Env, req *Request) (*Result, error) {
	t := firstInput(req)
	if t == nil {
		return &Result{}, nil
	}
	prompt, err := requireString(req.Config, "ai_agent", "prompt")
	if err != nil {
		return nil, err
	}
	if env.Model == nil {
		return nil, fault.New(fault.KindRemoteUnavailable, "ai_agent needs a configured model provider")
	}

	targetColumn := configString(req.Config, "target_column")
	if targetColumn == "" {
		targetColumn = "AI_Result"
	}
	jsonField := configString(req.Config, "json_field")

	names := t.ColumnNames()
	hasPlaceholder := false
	for _, name := range names {
		if strings.Contains(prompt, "{{"+name+"}}") {
			hasPlaceholder = true
			break
		}
	}

	limit := t.NumRows()
	if limit > aiAgentRowCap {
		limit = aiAgentRowCap
	}
	head := t.FilterRows(func(row int) bool { return row < limit })

	env.Log("ai_agent: completing %d of %d rows into %q", limit, t.NumRows(), targetColumn)

	results := make([]any, limit)
	for row := 0; row < limit; row++ {
		rowPrompt := prompt
		if hasPlaceholder {
			for _, name := range names {
				placeholder := "{{" + name + "}}"
				if strings.Contains(rowPrompt, placeholder) {
					rowPrompt = strings.ReplaceAll(rowPrompt, placeholder, table.AsString(head.Cell(row, name)))
				}
			}
		} else {
			var builder strings.Builder
			builder.WriteString(prompt)
			builder.WriteString("\n\n当前数据行:\n")
			for _, name := range names {
				builder.WriteString("- ")
				builder.WriteString(name)
				builder.WriteString(": ")
				builder.WriteString(table.AsString(head.Cell(row, name)))
				builder.WriteByte('\n')
			}
			rowPrompt = strings.TrimRight(builder.String(), "\n")
		}

		completion, err := env.Model.Complete(ctx, rowPrompt)
		if err != nil {
			// One failed row should not discard the rows already done.
			env.Log("ai_agent: row %d failed: %v", row+1, err)
			results[row] = "Error: " + err.Error()
			continue
		}
		if jsonField != "" {
			if field, err := parse.Field(completion, jsonField); err == nil {
				completion = field
			}
		}
		results[row] = completion
	}

	out, err := head.WithColumn(targetColumn, results)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "ai_agent output assembly failed")
	}
	return &Result{Table: out}, nil
}

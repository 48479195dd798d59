// Package rowexpr compiles the engine's row-level expression dialect into
// executable programs. The dialect supports column references by name,
// numeric and quoted text literals, arithmetic (+ - * / %), comparisons,
// parentheses, & and | for boolean combination, and @name references to
// ambient scalars. Filters additionally accept an Excel-style equality
// shortcut where a lone = means equality.
package rowexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const ambientVar = "__ambient"

// Program is a compiled row expression ready for per-row evaluation.
type Program struct {
	program *vm.Program
	ambient map[string]any
}

// CompilePredicate compiles a filter expression. The Excel shortcut layer
// (full-width ＝, lone =, bare right-hand text operands) is applied before
// compilation; columns lists the input table's column names for the
// auto-quoting decision.
func CompilePredicate(filter string, columns []string, ambient map[string]any) (*Program, error) {
	normalized := NormalizeFilter(filter, columns)
	return compile(normalized, ambient)
}

// CompileScalar compiles a computed-column formula. No Excel shortcut is
// applied; the generic dialect is used as written.
func CompileScalar(formula string, ambient map[string]any) (*Program, error) {
	return compile(formula, ambient)
}

func compile(source string, ambient map[string]any) (*Program, error) {
	rewritten := rewriteBooleanOperators(rewriteAmbientRefs(source))

	program, err := expr.Compile(rewritten, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", source, err)
	}
	if ambient == nil {
		ambient = map[string]any{}
	}
	return &Program{program: program, ambient: ambient}, nil
}

// EvalBool evaluates the program against one row and interprets the result
// as a boolean.
func (p *Program) EvalBool(row map[string]any) (bool, error) {
	value, err := p.Eval(row)
	if err != nil {
		return false, err
	}
	truth, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("expression result is %T, want bool", value)
	}
	return truth, nil
}

// Eval evaluates the program against one row. The row map is used as the
// expression environment, so columns are referenced by bare name.
func (p *Program) Eval(row map[string]any) (any, error) {
	environment := make(map[string]any, len(row)+1)
	for name, value := range row {
		environment[name] = value
	}
	environment[ambientVar] = p.ambient

	result, err := expr.Run(p.program, environment)
	if err != nil {
		return nil, fmt.Errorf("expression evaluation failed: %w", err)
	}
	return result, nil
}

// bareOperand matches the simple right-hand operands eligible for
// auto-quoting after == or !=.
var bareOperand = regexp.MustCompile(`(==|!=)\s*([\p{L}\p{N}_.\-]+)`)

// NormalizeFilter applies the Excel-style shortcut layer to a filter
// expression:
//   - full-width ＝ is treated as =
//   - a lone = (not part of == != <= >= ) becomes ==
//   - bare == / != right-hand operands that are not numbers, column names,
//     or True/False/None are quoted as text literals; leading-zero digit
//     runs such as 00123 count as text, not numbers
func NormalizeFilter(filter string, columns []string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(filter, "＝", "="))
	if normalized == "" {
		return normalized
	}

	normalized = expandSingleEquals(normalized)

	columnSet := make(map[string]bool, len(columns))
	for _, column := range columns {
		columnSet[column] = true
	}

	return bareOperand.ReplaceAllStringFunc(normalized, func(match string) string {
		groups := bareOperand.FindStringSubmatch(match)
		operator, operand := groups[1], groups[2]
		switch {
		case operand == "True" || operand == "False" || operand == "None":
			return match
		case columnSet[operand]:
			return match
		case isNumberToken(operand):
			return match
		default:
			return operator + " '" + operand + "'"
		}
	})
}

// expandSingleEquals rewrites a lone = into ==, leaving == != <= >= intact
// and skipping quoted text. Go regexps lack lookbehind, so this is a scan.
func expandSingleEquals(source string) string {
	var builder strings.Builder
	var quote byte
	for i := 0; i < len(source); i++ {
		ch := source[i]

		if quote != 0 {
			builder.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == '\'' || ch == '"' {
			quote = ch
			builder.WriteByte(ch)
			continue
		}

		if ch == '=' {
			prev := byte(0)
			if i > 0 {
				prev = source[i-1]
			}
			next := byte(0)
			if i+1 < len(source) {
				next = source[i+1]
			}
			if prev != '<' && prev != '>' && prev != '!' && prev != '=' && next != '=' {
				builder.WriteString("==")
				continue
			}
		}
		builder.WriteByte(ch)
	}
	return builder.String()
}

func isNumberToken(token string) bool {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return false
	}
	// 00123 is more likely an identifier-like text value.
	if len(trimmed) > 1 && trimmed[0] == '0' && isAllDigits(trimmed[1:]) {
		return false
	}
	_, err := strconv.ParseFloat(trimmed, 64)
	return err == nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ambientRef matches @name references to ambient scalars.
var ambientRef = regexp.MustCompile(`@([\p{L}_][\p{L}\p{N}_]*)`)

func rewriteAmbientRefs(source string) string {
	return ambientRef.ReplaceAllString(source, ambientVar+`["$1"]`)
}

// rewriteBooleanOperators rewrites the dialect's single & and | combinators
// into the host language's && and ||, outside quoted text.
func rewriteBooleanOperators(source string) string {
	var builder strings.Builder
	var quote byte
	for i := 0; i < len(source); i++ {
		ch := source[i]

		if quote != 0 {
			builder.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
			builder.WriteByte(ch)
		case '&', '|':
			if i+1 < len(source) && source[i+1] == ch {
				i++
			}
			builder.WriteByte(ch)
			builder.WriteByte(ch)
		default:
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

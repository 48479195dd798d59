package rowexpr

import "testing"

func TestNormalizeFilter(t *testing.T) {
	columns := []string{"办公室", "金额", "status"}
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"full-width equals", "办公室 ＝ 邯郸刘洋", "办公室 == '邯郸刘洋'"},
		{"lone equals", "status = active", "status == 'active'"},
		{"double equals untouched", "金额 == 100", "金额 == 100"},
		{"le ge untouched", "金额 >= 10", "金额 >= 10"},
		{"column operand stays bare", "办公室 == status", "办公室 == status"},
		{"boolean literal stays bare", "status == True", "status == True"},
		{"leading zeros are text", "status == 00123", "status == '00123'"},
		{"plain number stays bare", "金额 != 42", "金额 != 42"},
		{"quoted equals untouched", "status == 'a=b'", "status == 'a=b'"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFilter(tt.filter, columns); got != tt.want {
				t.Errorf("NormalizeFilter(%q) = %q, want %q", tt.filter, got, tt.want)
			}
		})
	}
}

func TestCompilePredicate(t *testing.T) {
	columns := []string{"办公室", "金额"}
	tests := []struct {
		name   string
		filter string
		row    map[string]any
		want   bool
	}{
		{"chinese column equality", "办公室 = 邯郸刘洋", map[string]any{"办公室": "邯郸刘洋"}, true},
		{"chinese column mismatch", "办公室 = 邯郸刘洋", map[string]any{"办公室": "总部"}, false},
		{"single ampersand", "金额 > 10 & 金额 < 20", map[string]any{"金额": 15}, true},
		{"single pipe", "金额 < 10 | 金额 > 20", map[string]any{"金额": 15}, false},
		{"comparison", "金额 >= 100", map[string]any{"金额": 100.0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := CompilePredicate(tt.filter, columns, nil)
			if err != nil {
				t.Fatalf("CompilePredicate(%q): %v", tt.filter, err)
			}
			got, err := program.EvalBool(tt.row)
			if err != nil {
				t.Fatalf("EvalBool: %v", err)
			}
			if got != tt.want {
				t.Errorf("EvalBool(%v) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}

func TestCompileScalarWithAmbient(t *testing.T) {
	program, err := CompileScalar("金额 * @rate + 1", map[string]any{"rate": 2})
	if err != nil {
		t.Fatalf("CompileScalar: %v", err)
	}
	got, err := program.Eval(map[string]any{"金额": 10})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if asInt, ok := got.(int); !ok || asInt != 21 {
		t.Errorf("Eval = %v (%T), want 21", got, got)
	}
}

func TestEvalBoolRejectsNonBoolean(t *testing.T) {
	program, err := CompileScalar("金额 + 1", nil)
	if err != nil {
		t.Fatalf("CompileScalar: %v", err)
	}
	if _, err := program.EvalBool(map[string]any{"金额": 1}); err == nil {
		t.Error("expected error for non-boolean result")
	}
}

func TestCompilePredicateInvalidExpression(t *testing.T) {
	if _, err := CompilePredicate("金额 >>> 1", []string{"金额"}, nil); err == nil {
		t.Error("expected compile error")
	}
}

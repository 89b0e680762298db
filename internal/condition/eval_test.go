package condition

import (
	"errors"
	"testing"
)

// ─── Helper ─────────────────────────────────────────────────────────────────

func testContext() Context {
	return Context{
		"selected_model":    String("SUN-6K-SG03LP1-EU"),
		"firmware_version":  Number(1.45),
		"battery_config":    String("lithium"),
		"connection_type":   String("wifi"),
		"string_count":      Number(2),
		"grid_tied":         Bool(true),
		"island_mode":       Bool(false),
		"numeric_as_string": String("42"),
	}
}

func mustEval(t *testing.T, expr string, ctx Context) bool {
	t.Helper()
	got, err := Eval(expr, ctx)
	if err != nil {
		t.Fatalf("Eval(%q) error = %v", expr, err)
	}
	return got
}

// ─── Comparisons ────────────────────────────────────────────────────────────

func TestEval_Comparisons(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"string equality", `selected_model == "SUN-6K-SG03LP1-EU"`, true},
		{"string inequality", `selected_model != "SUN-5K-SG03LP1-EU"`, true},
		{"numeric less than", "firmware_version < 2.0", true},
		{"numeric greater than", "firmware_version > 1.5", false},
		{"numeric gte boundary", "string_count >= 2", true},
		{"numeric lte boundary", "string_count <= 1", false},
		{"bool equals true keyword", "grid_tied == true", true},
		{"bool equals false keyword", "island_mode == false", true},
		{"bool as number", "grid_tied == 1", true},
		{"numeric string coerces", "numeric_as_string == 42", true},
		{"string compare when not numeric", `battery_config == "lithium"`, true},
		{"single quoted literal", `battery_config == 'lithium'`, true},
	}

	ctx := testContext()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustEval(t, tt.expr, ctx); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

// ─── Boolean operators and grouping ─────────────────────────────────────────

func TestEval_BooleanOperators(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"and both true", `battery_config == "lithium" and string_count == 2`, true},
		{"and one false", `battery_config == "lithium" and string_count == 3`, false},
		{"or one true", `battery_config == "agm" or string_count == 2`, true},
		{"or both false", `battery_config == "agm" or string_count == 3`, false},
		{
			"and binds tighter than or",
			`island_mode == true and grid_tied == true or grid_tied == true`,
			true,
		},
		{
			"parens override precedence",
			`island_mode == true and (grid_tied == true or grid_tied == true)`,
			false,
		},
	}

	ctx := testContext()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustEval(t, tt.expr, ctx); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

// ─── Membership ─────────────────────────────────────────────────────────────

func TestEval_Membership(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"in list hit", `battery_config in ["lithium", "agm"]`, true},
		{"in list miss", `battery_config in ["agm", "gel"]`, false},
		{"not in hit", `battery_config not in ["agm", "gel"]`, true},
		{"not in miss", `battery_config not in ["lithium"]`, false},
		{"numeric in list", `string_count in [1, 2, 3]`, true},
		{"mixed list coerces numbers", `string_count in ["2"]`, true},
	}

	ctx := testContext()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustEval(t, tt.expr, ctx); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

// ─── Absent variables ───────────────────────────────────────────────────────

// An identifier missing from the context never errors: every comparison
// against it is false, except "not in" which is vacuously true.
func TestEval_AbsentVariables(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"equality false", `missing == "anything"`, false},
		{"inequality also false", `missing != "anything"`, false},
		{"less than false", "missing < 100", false},
		{"greater than false", "missing > -100", false},
		{"in false", `missing in ["a", "b"]`, false},
		{"not in true", `missing not in ["a", "b"]`, true},
		{"or recovers", `missing == 1 or grid_tied == true`, true},
		{"and poisons", `missing == 1 and grid_tied == true`, false},
	}

	ctx := testContext()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustEval(t, tt.expr, ctx); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

// ─── Errors ─────────────────────────────────────────────────────────────────

func TestEval_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want error
	}{
		{"empty expression", "", ErrEmptyExpression},
		{"whitespace only", "   ", ErrEmptyExpression},
		{"dangling operator", "string_count ==", ErrParse},
		{"unterminated string", `battery_config == "lith`, ErrParse},
		{"unterminated list", `battery_config in ["a", "b"`, ErrParse},
		{"unbalanced paren", "(grid_tied", ErrParse},
		{"trailing tokens", "grid_tied grid_tied", ErrParse},
	}

	ctx := testContext()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.expr, ctx)
			if !errors.Is(err, tt.want) {
				t.Errorf("Eval(%q) error = %v, want %v", tt.expr, err, tt.want)
			}
		})
	}
}

// ─── Value coercion ─────────────────────────────────────────────────────────

func TestValue_AsNumber(t *testing.T) {
	tests := []struct {
		name   string
		v      Value
		want   float64
		wantOK bool
	}{
		{"number", Number(3.5), 3.5, true},
		{"numeric string", String("3.5"), 3.5, true},
		{"non-numeric string", String("abc"), 0, false},
		{"bool true", Bool(true), 1, true},
		{"bool false", Bool(false), 0, true},
		{"absent", Absent, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.AsNumber()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("AsNumber() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFromAny(t *testing.T) {
	if v, ok := FromAny(int64(7)); !ok || v.Kind != KindNumber || v.Num != 7 {
		t.Errorf("FromAny(int64) = %+v, %v", v, ok)
	}
	if v, ok := FromAny("hello"); !ok || v.Kind != KindString || v.Str != "hello" {
		t.Errorf("FromAny(string) = %+v, %v", v, ok)
	}
	if v, ok := FromAny(true); !ok || v.Kind != KindBool || !v.Bool {
		t.Errorf("FromAny(bool) = %+v, %v", v, ok)
	}
	if _, ok := FromAny(struct{}{}); ok {
		t.Error("FromAny(struct{}) should not convert")
	}
}

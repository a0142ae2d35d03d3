package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapAccessor map[string]any

func (m mapAccessor) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func newTestFuncs() *FuncRegistry {
	funcs := NewFuncRegistry()
	RegisterBuiltinFuncs(funcs)
	return funcs
}

type testProfile struct {
	DisplayName string `json:"display_name"`
	Age         int
}

func TestExprEvaluator_Evaluate(t *testing.T) {
	ctx := mapAccessor{
		"props": map[string]any{
			"name":  "Ada",
			"count": 3,
			"price": 2.5,
			"items": []any{"a", "b", "c"},
			"tags":  []string{"x", "y"},
			"user":  map[string]any{"role": "admin"},
			"profile": testProfile{
				DisplayName: "ada_l",
				Age:         36,
			},
			"empty": "",
		},
		"item":  "loop-value",
		"index": 1,
	}
	funcs := newTestFuncs()

	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"identifier", "item", "loop-value"},
		{"member", "props.name", "Ada"},
		{"nested member", "props.user.role", "admin"},
		{"missing member", "props.missing", nil},
		{"member of missing", "props.missing.deeper", nil},
		{"index", "props.items[1]", "b"},
		{"index by variable", "props.items[index]", "b"},
		{"index out of range", "props.items[9]", nil},
		{"string slice index", "props.tags[0]", "x"},
		{"length", "props.items.length", 3.0},
		{"struct json tag", "props.profile.display_name", "ada_l"},
		{"struct field name", "props.profile.Age", 36},
		{"addition", "props.count + 2", 5.0},
		{"concatenation", `"Hi " + props.name`, "Hi Ada"},
		{"number concatenation", `props.count + "x"`, "3x"},
		{"multiplication", "props.count * props.price", 7.5},
		{"modulo", "7 % 4", 3.0},
		{"negation", "-props.count", -3.0},
		{"strict equal", `props.name === "Ada"`, true},
		{"strict type mismatch", `props.count === "3"`, false},
		{"loose equal numeric string", `props.count == "3"`, true},
		{"strict not equal", "props.count !== 4", true},
		{"null strict", "props.missing === null", true},
		{"undefined equal null", "undefined == null", true},
		{"comparison", "props.count >= 3", true},
		{"and yields operand", `props.name && "yes"`, "yes"},
		{"or fallback", `props.empty || "fallback"`, "fallback"},
		{"not", "!props.empty", true},
		{"array literal", `[1, "b"]`, []any{1.0, "b"}},
		{"filter call", "upper(props.name)", "ADA"},
		{"nested call", `join(props.items, "-")`, "a-b-c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EvaluateExpression(tt.input, funcs, ctx)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExprEvaluator_Evaluate_Errors(t *testing.T) {
	funcs := newTestFuncs()
	ctx := mapAccessor{"n": 1, "s": "x"}

	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"division by zero", "n / 0", ErrMsgExprDivisionByZero},
		{"modulo by zero", "n % 0", ErrMsgExprDivisionByZero},
		{"subtract strings", "s - 1", ErrMsgExprTypeMismatch},
		{"compare mismatched", "s < 1", ErrMsgExprTypeMismatch},
		{"unknown function", "nope(n)", ErrMsgFuncNotFound},
		{"too few args", "truncate(s)", ErrMsgFuncTooFewArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateExpression(tt.input, funcs, ctx)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestExprEvaluator_NoContext(t *testing.T) {
	_, err := EvaluateExpression("x", newTestFuncs(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgExprNoContext)
}

func TestEvaluateExpressionBool(t *testing.T) {
	ctx := mapAccessor{"list": []any{}, "flag": true}

	tests := []struct {
		input    string
		expected bool
	}{
		{"flag", true},
		{"list", false},
		{"missing", false},
		{"flag && list.length === 0", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := EvaluateExpressionBool(tt.input, newTestFuncs(), ctx)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, ""},
		{"string", "hi", "hi"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"integral float", 5.0, "5"},
		{"fraction", 2.5, "2.5"},
		{"int", 7, "7"},
		{"list", []any{"a", 1.0}, `["a",1]`},
		{"map", map[string]any{"k": "v"}, `{"k":"v"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stringify(tt.input))
		})
	}
}

package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncRegistry_Register(t *testing.T) {
	r := NewFuncRegistry()

	require.NoError(t, r.Register(&Func{Name: "echo", MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return args[0], nil
	}}))

	assert.True(t, r.Has("echo"))
	assert.Equal(t, 1, r.Count())

	err := r.Register(&Func{Name: "echo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgFuncAlreadyExists)

	err = r.Register(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgFuncNilFunc)

	err = r.Register(&Func{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgFuncEmptyName)
}

func TestFuncRegistry_CloneIsIndependent(t *testing.T) {
	r := NewFuncRegistry()
	RegisterBuiltinFuncs(r)
	clone := r.Clone()

	clone.MustRegister(&Func{Name: "extra", MinArgs: 0, MaxArgs: 0, Fn: func([]any) (any, error) { return nil, nil }})

	assert.True(t, clone.Has("extra"))
	assert.False(t, r.Has("extra"))
	assert.Equal(t, r.Count()+1, clone.Count())
}

func TestFuncRegistry_CallWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	r := NewFuncRegistry()
	r.MustRegister(&Func{Name: "fail", MinArgs: 0, MaxArgs: -1, Fn: func([]any) (any, error) { return nil, boom }})

	_, err := r.Call("fail", []any{1, 2, 3})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = r.Call("fail", nil)
	assert.ErrorIs(t, err, boom)
}

func TestBuiltinFilters(t *testing.T) {
	r := NewFuncRegistry()
	RegisterBuiltinFuncs(r)

	tests := []struct {
		name     string
		fn       string
		args     []any
		expected any
	}{
		{"capitalize", FuncNameCapitalize, []any{"hello world"}, "Hello world"},
		{"capitalize empty", FuncNameCapitalize, []any{""}, ""},
		{"capitalize non-string", FuncNameCapitalize, []any{5}, 5},
		{"upper", FuncNameUpper, []any{"abc"}, "ABC"},
		{"lower", FuncNameLower, []any{"ABC"}, "abc"},
		{"truncate", FuncNameTruncate, []any{"abcdefgh", 3.0}, "abc..."},
		{"truncate short", FuncNameTruncate, []any{"ab", 3.0}, "ab"},
		{"abs", FuncNameAbs, []any{-4.5}, 4.5},
		{"join default", FuncNameJoin, []any{[]any{"a", "b"}}, "a, b"},
		{"join custom", FuncNameJoin, []any{[]string{"a", "b"}, "|"}, "a|b"},
		{"join mixed", FuncNameJoin, []any{[]any{1.0, true, nil}, "-"}, "1-true-"},
		{"round", FuncNameRound, []any{2.5}, 3.0},
		{"round negative half", FuncNameRound, []any{-2.5}, -3.0},
		{"round decimals", FuncNameRound, []any{3.14159, 2.0}, 3.14},
		{"replace", FuncNameReplace, []any{"a-b-c", "-", "+"}, "a+b+c"},
		{"urlencode", FuncNameURLEncode, []any{"a b&c"}, "a%20b%26c"},
		{"dump", FuncNameDump, []any{map[string]any{"k": []any{1.0}}}, `{"k":[1]}`},
		{"len string", FuncNameLen, []any{"abcd"}, 4.0},
		{"len map", FuncNameLen, []any{map[string]any{"a": 1}}, 1.0},
		{"default empty", FuncNameDefault, []any{"", "fallback"}, "fallback"},
		{"default present", FuncNameDefault, []any{"value", "fallback"}, "value"},
		{"coalesce", FuncNameCoalesce, []any{nil, "", "third"}, "third"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Call(tt.fn, tt.args)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBuiltinFilters_TypeErrors(t *testing.T) {
	r := NewFuncRegistry()
	RegisterBuiltinFuncs(r)

	tests := []struct {
		name    string
		fn      string
		args    []any
		message string
	}{
		{"truncate fractional length", FuncNameTruncate, []any{"abc", 1.5}, ErrMsgFuncExpectedInteger},
		{"abs string", FuncNameAbs, []any{"x"}, ErrMsgFuncExpectedNumber},
		{"join separator", FuncNameJoin, []any{[]any{"a"}, 1.0}, ErrMsgFuncExpectedString},
		{"replace search", FuncNameReplace, []any{"abc", 1.0, "x"}, ErrMsgFuncExpectedString},
		{"too many", FuncNameUpper, []any{"a", "b"}, ErrMsgFuncTooManyArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Call(tt.fn, tt.args)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, IsTruthy(nil))
	assert.False(t, IsTruthy(""))
	assert.False(t, IsTruthy(0))
	assert.False(t, IsTruthy([]any{}))
	assert.False(t, IsTruthy(map[string]any{}))
	assert.True(t, IsTruthy("x"))
	assert.True(t, IsTruthy(-1.5))
	assert.True(t, IsTruthy([]int{1}))
	assert.True(t, IsTruthy(struct{}{}))
}

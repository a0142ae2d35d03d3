package internal

import (
	"encoding/json"
	"math"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String filters pass non-string input through unchanged.
func registerStringFilters(r *FuncRegistry) {
	// capitalize(s) uppercases the first character only
	r.MustRegister(&Func{
		Name:    FuncNameCapitalize,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			s, ok := args[ArgIndexFirst].(string)
			if !ok || s == "" {
				return args[ArgIndexFirst], nil
			}
			first, size := utf8.DecodeRuneInString(s)
			return string(unicode.ToUpper(first)) + s[size:], nil
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameUpper,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			s, ok := args[ArgIndexFirst].(string)
			if !ok {
				return args[ArgIndexFirst], nil
			}
			return strings.ToUpper(s), nil
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameLower,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			s, ok := args[ArgIndexFirst].(string)
			if !ok {
				return args[ArgIndexFirst], nil
			}
			return strings.ToLower(s), nil
		},
	})

	// truncate(s, n) keeps n characters and appends an ellipsis
	r.MustRegister(&Func{
		Name:    FuncNameTruncate,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			s, ok := args[ArgIndexFirst].(string)
			if !ok {
				return args[ArgIndexFirst], nil
			}
			n, err := integerArg(args[ArgIndexSecond], FuncNameTruncate, ArgIndexSecond)
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			if len(runes) <= n {
				return s, nil
			}
			if n < 0 {
				n = 0
			}
			return string(runes[:n]) + TruncateEllipsis, nil
		},
	})

	// join(list, sep?) joins list items with sep (default ", ")
	r.MustRegister(&Func{
		Name:    FuncNameJoin,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			items, ok := toSlice(args[ArgIndexFirst])
			if !ok {
				return args[ArgIndexFirst], nil
			}
			sep := DefaultJoinSeparator
			if len(args) > ArgIndexSecond {
				s, ok := args[ArgIndexSecond].(string)
				if !ok {
					return nil, NewFuncTypeError(ErrMsgFuncExpectedString, FuncNameJoin, ArgIndexSecond)
				}
				sep = s
			}
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = Stringify(item)
			}
			return strings.Join(parts, sep), nil
		},
	})

	// replace(s, search, replacement) replaces all occurrences
	r.MustRegister(&Func{
		Name:    FuncNameReplace,
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			s, ok := args[ArgIndexFirst].(string)
			if !ok {
				return args[ArgIndexFirst], nil
			}
			search, ok := args[ArgIndexSecond].(string)
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedString, FuncNameReplace, ArgIndexSecond)
			}
			replacement, ok := args[ArgIndexThird].(string)
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedString, FuncNameReplace, ArgIndexThird)
			}
			return strings.ReplaceAll(s, search, replacement), nil
		},
	})

	// urlencode(s) percent-encodes every reserved character, spaces as %20
	r.MustRegister(&Func{
		Name:    FuncNameURLEncode,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			s, ok := args[ArgIndexFirst].(string)
			if !ok {
				return args[ArgIndexFirst], nil
			}
			return strings.ReplaceAll(url.QueryEscape(s), "+", "%20"), nil
		},
	})

	// dump(v) renders any value as JSON
	r.MustRegister(&Func{
		Name:    FuncNameDump,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			data, err := json.Marshal(args[ArgIndexFirst])
			if err != nil {
				return nil, err
			}
			return string(data), nil
		},
	})
}

func registerNumberFilters(r *FuncRegistry) {
	r.MustRegister(&Func{
		Name:    FuncNameAbs,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			n, ok := toNumber(args[ArgIndexFirst])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedNumber, FuncNameAbs, ArgIndexFirst)
			}
			return math.Abs(n), nil
		},
	})

	// round(n, decimals?) rounds half away from zero
	r.MustRegister(&Func{
		Name:    FuncNameRound,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			n, ok := toNumber(args[ArgIndexFirst])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedNumber, FuncNameRound, ArgIndexFirst)
			}
			decimals := 0
			if len(args) > ArgIndexSecond {
				d, err := integerArg(args[ArgIndexSecond], FuncNameRound, ArgIndexSecond)
				if err != nil {
					return nil, err
				}
				decimals = d
			}
			multiplier := math.Pow(10, float64(decimals))
			return math.Round(n*multiplier) / multiplier, nil
		},
	})
}

func registerUtilFuncs(r *FuncRegistry) {
	// len(x) returns the length of a string, list, or map
	r.MustRegister(&Func{
		Name:    FuncNameLen,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			if m, ok := args[ArgIndexFirst].(map[string]any); ok {
				return float64(len(m)), nil
			}
			n, ok := lengthOf(args[ArgIndexFirst])
			if !ok {
				return float64(0), nil
			}
			return float64(n), nil
		},
	})

	// default(x, fallback) returns fallback if x is null or empty
	r.MustRegister(&Func{
		Name:    FuncNameDefault,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			if isEmpty(args[ArgIndexFirst]) {
				return args[ArgIndexSecond], nil
			}
			return args[ArgIndexFirst], nil
		},
	})

	// coalesce(args...) returns the first non-empty value
	r.MustRegister(&Func{
		Name:    FuncNameCoalesce,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(args []any) (any, error) {
			for _, arg := range args {
				if !isEmpty(arg) {
					return arg, nil
				}
			}
			return nil, nil
		},
	})
}

func integerArg(v any, funcName string, argIndex int) (int, error) {
	n, ok := toNumber(v)
	if !ok || n != math.Trunc(n) {
		return 0, NewFuncTypeError(ErrMsgFuncExpectedInteger, funcName, argIndex)
	}
	return int(n), nil
}

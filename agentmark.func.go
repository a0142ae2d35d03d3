package agentmark

import (
	"github.com/agentmark-ai/agentmark-sub003/internal"
)

// Func is a filter function callable from template expressions. The first
// argument is the filtered value.
type Func struct {
	// Name is the identifier used in expressions (e.g. "double" for double(x))
	Name string
	// MinArgs is the minimum number of arguments required
	MinArgs int
	// MaxArgs is the maximum number of arguments allowed (-1 for variadic)
	MaxArgs int
	// Fn is the function implementation
	Fn func(args []any) (any, error)
}

// RegisterFunc registers a filter function for use in expressions.
//
// Example:
//
//	engine.RegisterFunc(&agentmark.Func{
//	    Name:    "double",
//	    MinArgs: 1,
//	    MaxArgs: 1,
//	    Fn: func(args []any) (any, error) {
//	        n, _ := args[0].(float64)
//	        return n * 2, nil
//	    },
//	})
//
// The function can then be used in templates:
//
//	<User>{double(props.count)}</User>
func (e *Engine) RegisterFunc(f *Func) error {
	if f == nil {
		return NewTemplateError(internal.ErrMsgFuncNilFunc, nil)
	}
	return e.funcs.Register(&internal.Func{
		Name:    f.Name,
		MinArgs: f.MinArgs,
		MaxArgs: f.MaxArgs,
		Fn:      f.Fn,
	})
}

// MustRegisterFunc registers a filter function and panics on error.
func (e *Engine) MustRegisterFunc(f *Func) {
	if err := e.RegisterFunc(f); err != nil {
		panic(err)
	}
}

// HasFunc checks if a function is registered with the given name.
func (e *Engine) HasFunc(name string) bool {
	return e.funcs.Has(name)
}

// ListFuncs returns all registered function names.
func (e *Engine) ListFuncs() []string {
	return e.funcs.List()
}

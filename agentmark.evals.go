package agentmark

import (
	"context"
	"sort"
	"sync"

	"github.com/itsatony/go-cuserr"
	"go.uber.org/zap"
)

// EvalParams are the inputs of one evaluation
type EvalParams struct {
	Input          any    `json:"input"`
	Output         any    `json:"output"`
	ExpectedOutput string `json:"expectedOutput,omitempty"`
}

// EvalResult is the verdict of one evaluation. Score is on a 0-1 scale.
type EvalResult struct {
	Score  float64 `json:"score"`
	Label  string  `json:"label,omitempty"`
	Reason string  `json:"reason,omitempty"`
	Passed bool    `json:"passed"`
}

// EvalFunc scores a model output
type EvalFunc func(ctx context.Context, params EvalParams) (EvalResult, error)

// EvalRegistry holds named evaluation functions.
// Registering an existing name replaces it.
type EvalRegistry struct {
	mu     sync.RWMutex
	evals  map[string]EvalFunc
	logger *zap.Logger
}

// NewEvalRegistry creates an empty registry
func NewEvalRegistry(logger *zap.Logger) *EvalRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvalRegistry{
		evals:  make(map[string]EvalFunc),
		logger: logger,
	}
}

// Register stores fn under each of names.
func (r *EvalRegistry) Register(fn EvalFunc, names ...string) error {
	if fn == nil {
		return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgNilEval)
	}
	if len(names) == 0 {
		return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgInvalidEvalName)
	}
	for _, name := range names {
		if name == "" {
			return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgInvalidEvalName)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.evals[name] = fn
		r.logger.Debug(LogMsgEvalRegistered, zap.String(LogFieldName, name))
	}
	return nil
}

// MustRegister registers fn and panics on error.
func (r *EvalRegistry) MustRegister(fn EvalFunc, names ...string) {
	if err := r.Register(fn, names...); err != nil {
		panic(err)
	}
}

// Get returns the eval registered under name
func (r *EvalRegistry) Get(name string) (EvalFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.evals[name]
	return fn, ok
}

// Has reports whether name is registered
func (r *EvalRegistry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Remove deletes name and reports whether it was registered
func (r *EvalRegistry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.evals[name]; !ok {
		return false
	}
	delete(r.evals, name)
	return true
}

// Clear removes every eval
func (r *EvalRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evals = make(map[string]EvalFunc)
}

// Names returns the registered names in sorted order
func (r *EvalRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.evals))
	for name := range r.evals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run evaluates params with every named eval in order. It stops at the
// first unknown name or failing eval.
func (r *EvalRegistry) Run(ctx context.Context, names []string, params EvalParams) (map[string]EvalResult, error) {
	results := make(map[string]EvalResult, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fn, ok := r.Get(name)
		if !ok {
			return nil, NewNotFoundError(ErrMsgEvalNotFound, name)
		}
		result, err := fn(ctx, params)
		if err != nil {
			return nil, err
		}
		results[name] = result
	}
	return results, nil
}

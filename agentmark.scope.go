package agentmark

import "sync"

// Scope is a hierarchical variable store. Lookups walk from the current
// level through its parents; writes always land on the current level.
type Scope struct {
	vars   map[string]any
	parent *Scope
	mu     sync.RWMutex
}

// NewScope creates a root scope with the given variables.
// If vars is nil, an empty map is used.
func NewScope(vars map[string]any) *Scope {
	if vars == nil {
		vars = make(map[string]any)
	}
	return &Scope{vars: vars}
}

// NewPropsScope creates the root scope of a compilation, binding props under "props"
func NewPropsScope(props map[string]any) *Scope {
	if props == nil {
		props = make(map[string]any)
	}
	return NewScope(map[string]any{KeyProps: props})
}

// Get resolves a name through the scope chain
func (s *Scope) Get(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		val, ok := cur.vars[name]
		cur.mu.RUnlock()
		if ok {
			return val, true
		}
	}
	return nil, false
}

// GetLocal resolves a name on the current level only
func (s *Scope) GetLocal(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.vars[name]
	return val, ok
}

// SetLocal writes a variable on the current level
func (s *Scope) SetLocal(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars[name] = value
}

// Child creates a scope whose lookups fall back to s
func (s *Scope) Child(vars map[string]any) *Scope {
	child := NewScope(vars)
	child.parent = s
	return child
}

// Parent returns the parent scope, or nil for a root scope
func (s *Scope) Parent() *Scope {
	return s.parent
}

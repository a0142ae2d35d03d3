package agentmark

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// TagPlugin handles one or more tag names during the transform. It receives
// the evaluated attributes and the untransformed children and returns the
// replacement nodes.
type TagPlugin interface {
	Transform(ctx context.Context, props map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error)
}

// TagPluginFunc adapts a function to the TagPlugin interface
type TagPluginFunc func(ctx context.Context, props map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error)

// Transform calls f
func (f TagPluginFunc) Transform(ctx context.Context, props map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error) {
	return f(ctx, props, children, pctx)
}

// PluginContext is what a plugin sees of the transform that invoked it
type PluginContext struct {
	Scope       *Scope
	TagName     string
	Compilation *CompilationContext // nil when transforming outside a compilation
	Message     *MessageContext     // nil outside a User message

	transformer *Transformer
}

// NewTransformer returns a transformer bound to scope that shares the
// invoking transformer's registries, compilation and message state
func (p *PluginContext) NewTransformer(scope *Scope) *Transformer {
	return p.transformer.WithScope(scope)
}

// ToMarkdown serializes nodes back to template text
func (p *PluginContext) ToMarkdown(nodes []*Node) string {
	return ToMarkdown(nodes)
}

// Role returns the enclosing role tag, or "" outside any role
func (p *PluginContext) Role() string {
	return p.transformer.role
}

// Transformer returns the invoking transformer
func (p *PluginContext) Transformer() *Transformer {
	return p.transformer
}

// PluginRegistry maps tag names to plugins. It is safe for concurrent use;
// compilations only read from it.
type PluginRegistry struct {
	plugins map[string]TagPlugin
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewPluginRegistry creates an empty registry
func NewPluginRegistry(logger *zap.Logger) *PluginRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginRegistry{
		plugins: make(map[string]TagPlugin),
		logger:  logger,
	}
}

// Register binds a plugin to one or more tag names. Registration stops at
// the first name that is already taken.
func (r *PluginRegistry) Register(plugin TagPlugin, names ...string) error {
	if plugin == nil {
		return NewTemplateError(ErrMsgNilPlugin, nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if _, exists := r.plugins[name]; exists {
			return NewPluginExistsError(name)
		}
		r.plugins[name] = plugin
		r.logger.Debug(LogMsgPluginRegistered, zap.String(LogFieldTag, name))
	}
	return nil
}

// MustRegister registers a plugin and panics on failure
func (r *PluginRegistry) MustRegister(plugin TagPlugin, names ...string) {
	if err := r.Register(plugin, names...); err != nil {
		panic(err)
	}
}

// Get returns the plugin for a tag name
func (r *PluginRegistry) Get(name string) (TagPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.plugins[name]
	return plugin, ok
}

// Has reports whether a tag name has a plugin
func (r *PluginRegistry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Remove unbinds a tag name
func (r *PluginRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plugins, name)
}

// List returns the registered tag names in sorted order
func (r *PluginRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry
func (r *PluginRegistry) Clone() *PluginRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewPluginRegistry(r.logger)
	for name, plugin := range r.plugins {
		out.plugins[name] = plugin
	}
	return out
}

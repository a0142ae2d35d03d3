package agentmark

import (
	"context"
	"fmt"

	"github.com/agentmark-ai/agentmark-sub003/internal"
)

// Transformer walks a node tree depth first, evaluating expressions and
// dispatching tags to plugins. A Transformer is immutable; the With*
// methods return modified copies so concurrent tasks never share one.
type Transformer struct {
	plugins     *PluginRegistry
	funcs       *internal.FuncRegistry
	scope       *Scope
	compilation *CompilationContext
	message     *MessageContext
	role        string
	depth       int
	maxDepth    int
}

// NewTransformer creates a transformer over scope. A maxDepth of 0 disables
// the nesting guard.
func NewTransformer(plugins *PluginRegistry, funcs *internal.FuncRegistry, scope *Scope, maxDepth int) *Transformer {
	if funcs == nil {
		funcs = internal.NewFuncRegistry()
		internal.RegisterBuiltinFuncs(funcs)
	}
	if plugins == nil {
		plugins = NewPluginRegistry(nil)
	}
	if scope == nil {
		scope = NewScope(nil)
	}
	return &Transformer{
		plugins:  plugins,
		funcs:    funcs,
		scope:    scope,
		maxDepth: maxDepth,
	}
}

// Scope returns the transformer's scope
func (t *Transformer) Scope() *Scope {
	return t.scope
}

// WithScope returns a copy bound to scope
func (t *Transformer) WithScope(scope *Scope) *Transformer {
	out := *t
	out.scope = scope
	return &out
}

// WithCompilation returns a copy that registers extraction tasks on c
func (t *Transformer) WithCompilation(c *CompilationContext) *Transformer {
	out := *t
	out.compilation = c
	return &out
}

// WithMessage returns a copy whose attachments append to msg
func (t *Transformer) WithMessage(msg *MessageContext) *Transformer {
	out := *t
	out.message = msg
	return &out
}

// WithRole returns a copy that records the enclosing role tag
func (t *Transformer) WithRole(role string) *Transformer {
	out := *t
	out.role = role
	return &out
}

// TransformTree transforms a root node and returns a new root
func (t *Transformer) TransformTree(ctx context.Context, root *Node) (*Node, error) {
	children, err := t.TransformChildren(ctx, root.Children)
	if err != nil {
		return nil, err
	}
	out := *root
	out.Children = children
	return &out, nil
}

// TransformChildren transforms each node and concatenates the results
func (t *Transformer) TransformChildren(ctx context.Context, nodes []*Node) ([]*Node, error) {
	results := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		out, err := t.TransformNode(ctx, node)
		if err != nil {
			return nil, err
		}
		results = append(results, out...)
	}
	return results, nil
}

// TransformNode transforms a single node into zero or more nodes
func (t *Transformer) TransformNode(ctx context.Context, node *Node) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.maxDepth > 0 && t.depth >= t.maxDepth {
		return nil, NewMaxDepthError(t.maxDepth)
	}
	deeper := *t
	deeper.depth++

	switch {
	case node.IsExpression():
		text, err := deeper.evaluateText(node.Value)
		if err != nil {
			return nil, err
		}
		return []*Node{NewText(text)}, nil

	case node.IsFragment():
		return deeper.TransformChildren(ctx, node.Children)

	case node.IsElement():
		return deeper.transformElement(ctx, node)

	case len(node.Children) > 0:
		children, err := deeper.TransformChildren(ctx, node.Children)
		if err != nil {
			return nil, err
		}
		out := *node
		out.Children = children
		return []*Node{&out}, nil

	default:
		return []*Node{node}, nil
	}
}

func (t *Transformer) transformElement(ctx context.Context, node *Node) ([]*Node, error) {
	plugin, ok := t.plugins.Get(node.Name)
	if !ok {
		children, err := t.TransformChildren(ctx, node.Children)
		if err != nil {
			return nil, err
		}
		out := *node
		out.Children = children
		return []*Node{&out}, nil
	}

	props, err := t.EvaluateProps(node)
	if err != nil {
		return nil, err
	}
	pctx := &PluginContext{
		Scope:       t.scope,
		TagName:     node.Name,
		Compilation: t.compilation,
		Message:     t.message,
		transformer: t,
	}
	return plugin.Transform(ctx, props, node.Children, pctx)
}

// EvaluateProps turns element attributes into plugin props. Boolean
// shorthand attributes become true.
func (t *Transformer) EvaluateProps(node *Node) (map[string]any, error) {
	props := make(map[string]any, len(node.Attributes))
	for _, attr := range node.Attributes {
		if attr.Type == AttrTypeJSXExpressionAttr {
			return nil, NewTemplateTagError(fmt.Sprintf(ErrMsgUnsupportedAttrFmt, node.Name), node.Name)
		}
		switch {
		case attr.Value == nil:
			props[attr.Name] = true
		case attr.Value.Expression:
			val, err := t.Evaluate(attr.Value.Literal)
			if err != nil {
				return nil, err
			}
			props[attr.Name] = val
		default:
			props[attr.Name] = attr.Value.Literal
		}
	}
	return props, nil
}

// Evaluate evaluates an expression against the transformer's scope
func (t *Transformer) Evaluate(expr string) (any, error) {
	val, err := internal.EvaluateExpression(expr, t.funcs, t.scope)
	if err != nil {
		return nil, NewTemplateError(fmt.Sprintf(ErrMsgExpressionFmt, expr), err)
	}
	return val, nil
}

func (t *Transformer) evaluateText(expr string) (string, error) {
	val, err := t.Evaluate(expr)
	if err != nil {
		return "", err
	}
	return internal.Stringify(val), nil
}

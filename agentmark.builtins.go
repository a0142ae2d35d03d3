package agentmark

import (
	"context"
	"fmt"

	"github.com/agentmark-ai/agentmark-sub003/internal"
)

// RegisterBuiltinPlugins registers the control tags If, ElseIf, Else,
// ForEach and Raw
func RegisterBuiltinPlugins(r *PluginRegistry) {
	r.MustRegister(TagPluginFunc(transformIf), TagIf)
	r.MustRegister(TagPluginFunc(transformElseIf), TagElseIf)
	r.MustRegister(TagPluginFunc(transformElse), TagElse)
	r.MustRegister(TagPluginFunc(transformForEach), TagForEach)
	r.MustRegister(TagPluginFunc(transformRaw), TagRaw)
}

// The If chain shares one marker on the current scope. If resets it,
// ElseIf and Else only run while it is unset.

func transformIf(ctx context.Context, props map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error) {
	met := internal.IsTruthy(props[AttrCondition])
	pctx.Scope.SetLocal(ScopeKeyConditionMet, met)
	if !met {
		return nil, nil
	}
	return pctx.NewTransformer(pctx.Scope).TransformChildren(ctx, children)
}

func transformElseIf(ctx context.Context, props map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error) {
	if conditionMet(pctx.Scope) {
		return nil, nil
	}
	if !internal.IsTruthy(props[AttrCondition]) {
		return nil, nil
	}
	pctx.Scope.SetLocal(ScopeKeyConditionMet, true)
	return pctx.NewTransformer(pctx.Scope).TransformChildren(ctx, children)
}

func transformElse(ctx context.Context, _ map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error) {
	if conditionMet(pctx.Scope) {
		return nil, nil
	}
	return pctx.NewTransformer(pctx.Scope).TransformChildren(ctx, children)
}

func conditionMet(scope *Scope) bool {
	val, ok := scope.GetLocal(ScopeKeyConditionMet)
	if !ok {
		return false
	}
	met, _ := val.(bool)
	return met
}

// transformForEach renders its single function child once per element of
// arr, binding the item and index parameters in a child scope. A non-list
// arr renders nothing. When every rendered node is a list or list item the
// results merge into one list.
func transformForEach(ctx context.Context, props map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error) {
	items, ok := internal.ToSlice(props[AttrArr])
	if !ok {
		return nil, nil
	}

	fn := functionChild(children)
	if fn == nil {
		return nil, NewTemplateTagError(ErrMsgForEachChild, TagForEach)
	}
	params, body := fn.FunctionBody()
	if len(params) > 2 {
		return nil, NewTemplateTagError(fmt.Sprintf(ErrMsgForEachParamsFmt, len(params)), TagForEach)
	}

	var results []*Node
	for index, item := range items {
		vars := make(map[string]any, len(params))
		if len(params) > 0 {
			vars[params[0]] = item
		}
		if len(params) > 1 {
			vars[params[1]] = index
		}
		rendered, err := pctx.NewTransformer(pctx.Scope.Child(vars)).TransformChildren(ctx, body)
		if err != nil {
			return nil, err
		}
		results = append(results, rendered...)
	}

	if len(results) > 0 && allListNodes(results) {
		return []*Node{mergeLists(results)}, nil
	}
	return results, nil
}

// functionChild returns the only function body among children, ignoring
// whitespace-only text around it
func functionChild(children []*Node) *Node {
	var fn *Node
	for _, child := range children {
		if child.Type == NodeTypeText && isBlank(child.Value) {
			continue
		}
		if fn != nil || !child.IsFunctionBody() {
			return nil
		}
		fn = child
	}
	return fn
}

func allListNodes(nodes []*Node) bool {
	for _, node := range nodes {
		if node.Type != NodeTypeList && node.Type != NodeTypeListItem {
			return false
		}
	}
	return true
}

func mergeLists(nodes []*Node) *Node {
	list := &Node{Type: NodeTypeList}
	for _, node := range nodes {
		if node.Type == NodeTypeList {
			list.Children = append(list.Children, node.Children...)
			continue
		}
		list.Children = append(list.Children, node)
	}
	return list
}

func transformRaw(_ context.Context, _ map[string]any, children []*Node, _ *PluginContext) ([]*Node, error) {
	return []*Node{NewText(ToMarkdown(children))}, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

package agentmark

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Node is one node of an mdast document tree. Element nodes carry Name and
// Attributes; text and expression nodes carry Value. Transforms never mutate
// the nodes they receive.
type Node struct {
	Type       string      `json:"type"`
	Name       string      `json:"name,omitempty"`
	Value      string      `json:"value,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Children   []*Node     `json:"children,omitempty"`

	Depth   int    `json:"depth,omitempty"`   // heading level
	Ordered bool   `json:"ordered,omitempty"` // list
	Lang    string `json:"lang,omitempty"`    // fenced code
}

// Attribute is a JSX attribute. A nil Value is the boolean shorthand.
type Attribute struct {
	Type  string          `json:"type"`
	Name  string          `json:"name,omitempty"`
	Value *AttributeValue `json:"value,omitempty"`
}

// AttributeValue is either a string literal or an expression source
type AttributeValue struct {
	Expression bool
	Literal    string
}

type attributeExpression struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// MarshalJSON writes literals as strings and expressions in mdast form
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.Expression {
		return json.Marshal(attributeExpression{Type: AttrTypeJSXValueExpression, Value: v.Literal})
	}
	return json.Marshal(v.Literal)
}

// UnmarshalJSON accepts a string literal or an expression object
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		v.Expression = false
		return json.Unmarshal(data, &v.Literal)
	}
	var expr attributeExpression
	if err := json.Unmarshal(data, &expr); err != nil {
		return err
	}
	v.Expression = true
	v.Literal = expr.Value
	return nil
}

// NewText creates a text node
func NewText(value string) *Node {
	return &Node{Type: NodeTypeText, Value: value}
}

// NewElement creates a flow JSX element
func NewElement(name string, attrs []Attribute, children ...*Node) *Node {
	return &Node{Type: NodeTypeJSXFlowElement, Name: name, Attributes: attrs, Children: children}
}

// NewExpression creates a text expression node
func NewExpression(source string) *Node {
	return &Node{Type: NodeTypeTextExpression, Value: source}
}

// NewFunctionBody creates an arrow-function expression whose body is children
func NewFunctionBody(params []string, children ...*Node) *Node {
	return &Node{
		Type:     NodeTypeFlowExpression,
		Value:    "(" + strings.Join(params, ", ") + ") " + ArrowToken,
		Children: children,
	}
}

// StringAttr creates a string literal attribute
func StringAttr(name, value string) Attribute {
	return Attribute{Type: AttrTypeJSXAttribute, Name: name, Value: &AttributeValue{Literal: value}}
}

// ExprAttr creates an expression attribute
func ExprAttr(name, source string) Attribute {
	return Attribute{Type: AttrTypeJSXAttribute, Name: name, Value: &AttributeValue{Expression: true, Literal: source}}
}

// BoolAttr creates a boolean shorthand attribute
func BoolAttr(name string) Attribute {
	return Attribute{Type: AttrTypeJSXAttribute, Name: name}
}

// IsElement reports whether the node is a JSX element
func (n *Node) IsElement() bool {
	return n.Type == NodeTypeJSXFlowElement || n.Type == NodeTypeJSXTextElement
}

// IsExpression reports whether the node is an mdx expression
func (n *Node) IsExpression() bool {
	return n.Type == NodeTypeFlowExpression || n.Type == NodeTypeTextExpression
}

// IsFragment reports whether the node is a JSX fragment
func (n *Node) IsFragment() bool {
	if !n.IsElement() {
		return false
	}
	return n.Name == "" || n.Name == FragmentName || n.Name == ReactFragmentName
}

// IsFunctionBody reports whether the node is an arrow-function expression
func (n *Node) IsFunctionBody() bool {
	return n.IsExpression() && strings.Contains(n.Value, ArrowToken)
}

// FunctionBody splits an arrow-function node into parameter names and body.
// When the node has no children the text after the arrow becomes a single
// expression node.
func (n *Node) FunctionBody() ([]string, []*Node) {
	arrow := strings.Index(n.Value, ArrowToken)
	if arrow < 0 {
		return nil, nil
	}

	head := strings.TrimSpace(n.Value[:arrow])
	head = strings.TrimSuffix(strings.TrimPrefix(head, "("), ")")
	var params []string
	for _, p := range strings.Split(head, ",") {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}

	if len(n.Children) > 0 {
		return params, n.Children
	}
	body := strings.TrimSpace(n.Value[arrow+len(ArrowToken):])
	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(body, "{"), "}"))
	if body == "" {
		return params, nil
	}
	return params, []*Node{NewExpression(body)}
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Attributes != nil {
		out.Attributes = make([]Attribute, len(n.Attributes))
		for i, attr := range n.Attributes {
			out.Attributes[i] = attr
			if attr.Value != nil {
				v := *attr.Value
				out.Attributes[i].Value = &v
			}
		}
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.Clone()
		}
	}
	return &out
}

// FrontMatterSource returns the value of the first yaml child of the root
func (n *Node) FrontMatterSource() (string, bool) {
	for _, child := range n.Children {
		if child.Type == NodeTypeYAML {
			return child.Value, true
		}
	}
	return "", false
}

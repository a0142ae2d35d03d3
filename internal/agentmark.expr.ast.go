package internal

import (
	"fmt"
	"strings"
)

// ExprNodeType identifies the type of expression AST node
type ExprNodeType int

// Expression node type constants
const (
	ExprNodeTypeLiteral ExprNodeType = iota
	ExprNodeTypeIdentifier
	ExprNodeTypeMember
	ExprNodeTypeArray
	ExprNodeTypeUnary
	ExprNodeTypeBinary
	ExprNodeTypeCall
)

// Expression node type names for debugging
const (
	ExprNodeTypeNameLiteral    = "LITERAL"
	ExprNodeTypeNameIdentifier = "IDENTIFIER"
	ExprNodeTypeNameMember     = "MEMBER"
	ExprNodeTypeNameArray      = "ARRAY"
	ExprNodeTypeNameUnary      = "UNARY"
	ExprNodeTypeNameBinary     = "BINARY"
	ExprNodeTypeNameCall       = "CALL"
)

// String returns the string representation of the node type
func (t ExprNodeType) String() string {
	switch t {
	case ExprNodeTypeIdentifier:
		return ExprNodeTypeNameIdentifier
	case ExprNodeTypeMember:
		return ExprNodeTypeNameMember
	case ExprNodeTypeArray:
		return ExprNodeTypeNameArray
	case ExprNodeTypeUnary:
		return ExprNodeTypeNameUnary
	case ExprNodeTypeBinary:
		return ExprNodeTypeNameBinary
	case ExprNodeTypeCall:
		return ExprNodeTypeNameCall
	default:
		return ExprNodeTypeNameLiteral
	}
}

// ExprNode is the interface for all expression AST nodes
type ExprNode interface {
	Type() ExprNodeType
	String() string
	exprNode()
}

// LiteralKind identifies the kind of literal value
type LiteralKind int

// Literal kind constants
const (
	LiteralKindString LiteralKind = iota
	LiteralKindNumber
	LiteralKindBool
	LiteralKindNull
)

// LiteralNode represents a literal value (string, number, bool, null)
type LiteralNode struct {
	Value any
	Kind  LiteralKind
}

func (n *LiteralNode) Type() ExprNodeType { return ExprNodeTypeLiteral }
func (n *LiteralNode) exprNode()          {}

func (n *LiteralNode) String() string {
	switch n.Kind {
	case LiteralKindString:
		return fmt.Sprintf("%q", n.Value)
	case LiteralKindNull:
		return ExprKeywordNull
	default:
		return fmt.Sprintf("%v", n.Value)
	}
}

// IdentifierNode represents a variable reference
type IdentifierNode struct {
	Name string
}

func (n *IdentifierNode) Type() ExprNodeType { return ExprNodeTypeIdentifier }
func (n *IdentifierNode) exprNode()          {}
func (n *IdentifierNode) String() string     { return n.Name }

// MemberNode represents property access: obj.name or obj[expr]
type MemberNode struct {
	Object   ExprNode
	Property ExprNode
	Computed bool
}

func (n *MemberNode) Type() ExprNodeType { return ExprNodeTypeMember }
func (n *MemberNode) exprNode()          {}

func (n *MemberNode) String() string {
	if n.Computed {
		return fmt.Sprintf("%s[%s]", n.Object.String(), n.Property.String())
	}
	return fmt.Sprintf("%s.%s", n.Object.String(), n.Property.String())
}

// ArrayNode represents an array literal
type ArrayNode struct {
	Elements []ExprNode
}

func (n *ArrayNode) Type() ExprNodeType { return ExprNodeTypeArray }
func (n *ArrayNode) exprNode()          {}

func (n *ArrayNode) String() string {
	parts := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnaryNode represents a unary operation (!x, -x)
type UnaryNode struct {
	Op    ExprTokenType
	Right ExprNode
}

func (n *UnaryNode) Type() ExprNodeType { return ExprNodeTypeUnary }
func (n *UnaryNode) exprNode()          {}

func (n *UnaryNode) String() string {
	return fmt.Sprintf("(%s%s)", n.Op, n.Right.String())
}

// BinaryNode represents a binary operation
type BinaryNode struct {
	Left  ExprNode
	Op    ExprTokenType
	Right ExprNode
}

func (n *BinaryNode) Type() ExprNodeType { return ExprNodeTypeBinary }
func (n *BinaryNode) exprNode()          {}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// CallNode represents a call to a registered function (e.g., upper(name))
type CallNode struct {
	Name string
	Args []ExprNode
}

func (n *CallNode) Type() ExprNodeType { return ExprNodeTypeCall }
func (n *CallNode) exprNode()          {}

func (n *CallNode) String() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
}

// NewLiteralString creates a string literal node
func NewLiteralString(value string) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindString}
}

// NewLiteralNumber creates a number literal node
func NewLiteralNumber(value float64) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindNumber}
}

// NewLiteralBool creates a boolean literal node
func NewLiteralBool(value bool) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindBool}
}

// NewLiteralNull creates a null literal node
func NewLiteralNull() *LiteralNode {
	return &LiteralNode{Value: nil, Kind: LiteralKindNull}
}

// NewIdentifier creates an identifier node
func NewIdentifier(name string) *IdentifierNode {
	return &IdentifierNode{Name: name}
}

// NewMember creates a member access node
func NewMember(object, property ExprNode, computed bool) *MemberNode {
	return &MemberNode{Object: object, Property: property, Computed: computed}
}

// NewArray creates an array literal node
func NewArray(elements []ExprNode) *ArrayNode {
	return &ArrayNode{Elements: elements}
}

// NewUnary creates a unary operation node
func NewUnary(op ExprTokenType, right ExprNode) *UnaryNode {
	return &UnaryNode{Op: op, Right: right}
}

// NewBinary creates a binary operation node
func NewBinary(left ExprNode, op ExprTokenType, right ExprNode) *BinaryNode {
	return &BinaryNode{Left: left, Op: op, Right: right}
}

// NewCall creates a function call node
func NewCall(name string, args []ExprNode) *CallNode {
	return &CallNode{Name: name, Args: args}
}

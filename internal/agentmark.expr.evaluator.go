package internal

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// ContextAccessor resolves top-level identifiers during evaluation
type ContextAccessor interface {
	Get(name string) (any, bool)
}

// ExprEvaluator evaluates expression AST nodes
type ExprEvaluator struct {
	funcs *FuncRegistry
	ctx   ContextAccessor
}

// NewExprEvaluator creates a new expression evaluator
func NewExprEvaluator(funcs *FuncRegistry, ctx ContextAccessor) *ExprEvaluator {
	return &ExprEvaluator{
		funcs: funcs,
		ctx:   ctx,
	}
}

// Evaluate evaluates an expression and returns the result
func (e *ExprEvaluator) Evaluate(node ExprNode) (any, error) {
	if node == nil {
		return nil, NewExprEvalError(ErrMsgExprNilNode, "")
	}

	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil

	case *IdentifierNode:
		return e.evaluateIdentifier(n)

	case *MemberNode:
		return e.evaluateMember(n)

	case *ArrayNode:
		out := make([]any, 0, len(n.Elements))
		for _, el := range n.Elements {
			val, err := e.Evaluate(el)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil

	case *UnaryNode:
		return e.evaluateUnary(n)

	case *BinaryNode:
		return e.evaluateBinary(n)

	case *CallNode:
		return e.evaluateCall(n)

	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownNodeType, fmt.Sprintf("%T", node))
	}
}

// EvaluateBool evaluates an expression and coerces the result to a boolean
func (e *ExprEvaluator) EvaluateBool(node ExprNode) (bool, error) {
	result, err := e.Evaluate(node)
	if err != nil {
		return false, err
	}
	return IsTruthy(result), nil
}

func (e *ExprEvaluator) evaluateIdentifier(node *IdentifierNode) (any, error) {
	if e.ctx == nil {
		return nil, NewExprEvalError(ErrMsgExprNoContext, node.Name)
	}

	val, found := e.ctx.Get(node.Name)
	if !found {
		return nil, nil // missing variables evaluate to null
	}
	return val, nil
}

func (e *ExprEvaluator) evaluateMember(node *MemberNode) (any, error) {
	obj, err := e.Evaluate(node.Object)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}

	var key any
	if node.Computed {
		key, err = e.Evaluate(node.Property)
		if err != nil {
			return nil, err
		}
	} else {
		key = node.Property.(*IdentifierNode).Name
	}

	val, _ := LookupMember(obj, key)
	return val, nil
}

func (e *ExprEvaluator) evaluateUnary(node *UnaryNode) (any, error) {
	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case ExprTokenTypeNot:
		return !IsTruthy(right), nil
	case ExprTokenTypeMinus:
		n, ok := toNumber(right)
		if !ok {
			return nil, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot negate %T", right))
		}
		return -n, nil
	case ExprTokenTypePlus:
		n, ok := toNumber(right)
		if !ok {
			return nil, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot convert %T to number", right))
		}
		return n, nil
	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownOperator, string(node.Op))
	}
}

func (e *ExprEvaluator) evaluateBinary(node *BinaryNode) (any, error) {
	left, err := e.Evaluate(node.Left)
	if err != nil {
		return nil, err
	}

	// Logical operators short-circuit and yield an operand, not a bool
	switch node.Op {
	case ExprTokenTypeAnd:
		if !IsTruthy(left) {
			return left, nil
		}
		return e.Evaluate(node.Right)
	case ExprTokenTypeOr:
		if IsTruthy(left) {
			return left, nil
		}
		return e.Evaluate(node.Right)
	}

	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case ExprTokenTypeEq:
		return compareEqual(left, right), nil
	case ExprTokenTypeNeq:
		return !compareEqual(left, right), nil
	case ExprTokenTypeStrictEq:
		return compareStrict(left, right), nil
	case ExprTokenTypeStrictNeq:
		return !compareStrict(left, right), nil
	case ExprTokenTypeLt:
		return compareLess(left, right)
	case ExprTokenTypeGt:
		return compareLess(right, left)
	case ExprTokenTypeLte:
		result, err := compareLess(right, left)
		if err != nil {
			return nil, err
		}
		return !result, nil
	case ExprTokenTypeGte:
		result, err := compareLess(left, right)
		if err != nil {
			return nil, err
		}
		return !result, nil
	case ExprTokenTypePlus:
		return add(left, right)
	case ExprTokenTypeMinus, ExprTokenTypeStar, ExprTokenTypeSlash, ExprTokenTypePercent:
		return arithmetic(node.Op, left, right)
	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownOperator, string(node.Op))
	}
}

func (e *ExprEvaluator) evaluateCall(node *CallNode) (any, error) {
	if e.funcs == nil {
		return nil, NewExprEvalError(ErrMsgExprNoFuncRegistry, node.Name)
	}

	args := make([]any, len(node.Args))
	for i, argNode := range node.Args {
		val, err := e.Evaluate(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	return e.funcs.Call(node.Name, args)
}

// LookupMember reads a property or index from a value.
// Supports string-keyed maps, slices, strings (index and length) and exported struct fields.
func LookupMember(obj any, key any) (any, bool) {
	if name, ok := key.(string); ok && name == PropertyLength {
		if n, ok := lengthOf(obj); ok {
			return float64(n), true
		}
	}

	switch o := obj.(type) {
	case map[string]any:
		name, ok := key.(string)
		if !ok {
			name = Stringify(key)
		}
		val, found := o[name]
		return val, found
	case map[string]string:
		val, found := o[Stringify(key)]
		return val, found
	case []any:
		idx, ok := toIndex(key, len(o))
		if !ok {
			return nil, false
		}
		return o[idx], true
	case []string:
		idx, ok := toIndex(key, len(o))
		if !ok {
			return nil, false
		}
		return o[idx], true
	case string:
		idx, ok := toIndex(key, len(o))
		if !ok {
			return nil, false
		}
		return string(o[idx]), true
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(Stringify(key)).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, ok := toIndex(key, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Struct:
		return lookupStructField(rv, Stringify(key))
	}

	return nil, false
}

func lookupStructField(rv reflect.Value, name string) (any, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := strings.Split(field.Tag.Get(StructTagJSON), ",")[0]
		if field.Name == name || (tag != "" && tag == name) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

func toIndex(key any, length int) (int, bool) {
	n, ok := toNumber(key)
	if !ok || n != math.Trunc(n) {
		return 0, false
	}
	idx := int(n)
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

func lengthOf(v any) (int, bool) {
	switch val := v.(type) {
	case string:
		return len(val), true
	case []any:
		return len(val), true
	case []string:
		return len(val), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

// Comparison and arithmetic helpers

func compareEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}

	aStr, aIsStr := toString(a)
	bStr, bIsStr := toString(b)
	if aIsStr && bIsStr {
		return aStr == bStr
	}

	// Loose equality: a number and a numeric string compare by value
	if aIsNum && bIsStr {
		return Stringify(aNum) == bStr
	}
	if aIsStr && bIsNum {
		return aStr == Stringify(bNum)
	}

	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return aBool == bBool
	}

	return reflect.DeepEqual(a, b)
}

func compareStrict(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum || bIsNum {
		return aIsNum && bIsNum && aNum == bNum
	}

	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr || bIsStr {
		return aIsStr && bIsStr && aStr == bStr
	}

	return reflect.DeepEqual(a, b)
}

func compareLess(a, b any) (bool, error) {
	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum < bNum, nil
	}

	aStr, aIsStr := toString(a)
	bStr, bIsStr := toString(b)
	if aIsStr && bIsStr {
		return aStr < bStr, nil
	}

	return false, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot compare %T and %T", a, b))
}

func add(a, b any) (any, error) {
	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum + bNum, nil
	}

	_, aIsStr := a.(string)
	_, bIsStr := b.(string)
	if aIsStr || bIsStr {
		return Stringify(a) + Stringify(b), nil
	}

	return nil, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot add %T and %T", a, b))
}

func arithmetic(op ExprTokenType, a, b any) (any, error) {
	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if !aIsNum || !bIsNum {
		return nil, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot apply %s to %T and %T", op, a, b))
	}

	switch op {
	case ExprTokenTypeMinus:
		return aNum - bNum, nil
	case ExprTokenTypeStar:
		return aNum * bNum, nil
	case ExprTokenTypeSlash:
		if bNum == 0 {
			return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
		}
		return aNum / bNum, nil
	default:
		if bNum == 0 {
			return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
		}
		return math.Mod(aNum, bNum), nil
	}
}

// ExprEvalError represents an expression evaluation error
type ExprEvalError struct {
	Message string
	Detail  string
}

// NewExprEvalError creates a new expression evaluation error
func NewExprEvalError(message, detail string) *ExprEvalError {
	return &ExprEvalError{
		Message: message,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprEvalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Expression evaluator error messages
const (
	ErrMsgExprNilNode         = "nil expression node"
	ErrMsgExprUnknownNodeType = "unknown expression node type"
	ErrMsgExprNoContext       = "no context available for variable lookup"
	ErrMsgExprUnknownOperator = "unknown operator"
	ErrMsgExprNoFuncRegistry  = "no function registry available"
	ErrMsgExprTypeMismatch    = "type mismatch"
	ErrMsgExprDivisionByZero  = "division by zero"
)

// Property and tag names used during member lookup
const (
	PropertyLength = "length"
	StructTagJSON  = "json"
)

// EvaluateExpression parses and evaluates an expression string
func EvaluateExpression(expr string, funcs *FuncRegistry, ctx ContextAccessor) (any, error) {
	node, err := ParseExpression(expr)
	if err != nil {
		return nil, err
	}

	evaluator := NewExprEvaluator(funcs, ctx)
	return evaluator.Evaluate(node)
}

// EvaluateExpressionBool parses and evaluates an expression as a boolean
func EvaluateExpressionBool(expr string, funcs *FuncRegistry, ctx ContextAccessor) (bool, error) {
	node, err := ParseExpression(expr)
	if err != nil {
		return false, err
	}

	evaluator := NewExprEvaluator(funcs, ctx)
	return evaluator.EvaluateBool(node)
}

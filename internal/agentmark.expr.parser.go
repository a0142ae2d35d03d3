package internal

import "fmt"

// ExprParser parses expression tokens into an AST.
//
// Precedence, lowest first: ||, &&, equality, comparison, additive,
// multiplicative, unary, postfix (member, index, call), primary.
type ExprParser struct {
	tokens []ExprToken
	pos    int
}

// NewExprParser creates a new expression parser
func NewExprParser(tokens []ExprToken) *ExprParser {
	return &ExprParser{
		tokens: tokens,
		pos:    0,
	}
}

// Parse parses the expression and returns the root AST node
func (p *ExprParser) Parse() (ExprNode, error) {
	if len(p.tokens) == 0 || (len(p.tokens) == 1 && p.tokens[0].Type == ExprTokenTypeEOF) {
		return nil, NewExprParseError(ErrMsgExprEmptyExpression, 0, "")
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.isAtEnd() {
		return nil, NewExprParseError(ErrMsgExprUnexpectedToken, p.peek().Pos, p.peek().Value)
	}

	return node, nil
}

func (p *ExprParser) parseOr() (ExprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.match(ExprTokenTypeOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, ExprTokenTypeOr, right)
	}

	return left, nil
}

func (p *ExprParser) parseAnd() (ExprNode, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}

	for p.match(ExprTokenTypeAnd) {
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, ExprTokenTypeAnd, right)
	}

	return left, nil
}

func (p *ExprParser) parseEquality() (ExprNode, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ExprTokenTypeEq, ExprTokenTypeNeq, ExprTokenTypeStrictEq, ExprTokenTypeStrictNeq) {
		op := p.previous().Type
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}

	return left, nil
}

func (p *ExprParser) parseComparison() (ExprNode, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ExprTokenTypeLt, ExprTokenTypeGt, ExprTokenTypeLte, ExprTokenTypeGte) {
		op := p.previous().Type
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}

	return left, nil
}

func (p *ExprParser) parseAdditive() (ExprNode, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ExprTokenTypePlus, ExprTokenTypeMinus) {
		op := p.previous().Type
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}

	return left, nil
}

func (p *ExprParser) parseMultiplicative() (ExprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ExprTokenTypeStar, ExprTokenTypeSlash, ExprTokenTypePercent) {
		op := p.previous().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}

	return left, nil
}

func (p *ExprParser) parseUnary() (ExprNode, error) {
	if p.matchAny(ExprTokenTypeNot, ExprTokenTypeMinus, ExprTokenTypePlus) {
		op := p.previous().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnary(op, right), nil
	}

	return p.parsePostfix()
}

// parsePostfix parses member access, index access, and calls
func (p *ExprParser) parsePostfix() (ExprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(ExprTokenTypeDot):
			if !p.match(ExprTokenTypeIdentifier) {
				return nil, NewExprParseError(ErrMsgExprExpectedProperty, p.currentPos(), p.peek().Value)
			}
			node = NewMember(node, NewIdentifier(p.previous().Value), false)

		case p.match(ExprTokenTypeLBracket):
			index, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if !p.match(ExprTokenTypeRBracket) {
				return nil, NewExprParseError(ErrMsgExprExpectedRBracket, p.currentPos(), "")
			}
			node = NewMember(node, index, true)

		case p.check(ExprTokenTypeLParen):
			ident, ok := node.(*IdentifierNode)
			if !ok {
				return nil, NewExprParseError(ErrMsgExprCallTarget, p.currentPos(), node.String())
			}
			p.advance()
			call, err := p.finishCall(ident.Name)
			if err != nil {
				return nil, err
			}
			node = call

		default:
			return node, nil
		}
	}
}

// finishCall finishes parsing a function call after the opening paren
func (p *ExprParser) finishCall(name string) (ExprNode, error) {
	args, err := p.parseList(ExprTokenTypeRParen)
	if err != nil {
		return nil, err
	}
	if !p.match(ExprTokenTypeRParen) {
		return nil, NewExprParseError(ErrMsgExprExpectedRParen, p.currentPos(), "")
	}
	return NewCall(name, args), nil
}

// parseList parses comma separated expressions up to (not including) the closing token
func (p *ExprParser) parseList(closing ExprTokenType) ([]ExprNode, error) {
	var items []ExprNode
	if p.check(closing) {
		return items, nil
	}
	for {
		item, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if !p.match(ExprTokenTypeComma) {
			break
		}
		// trailing comma
		if p.check(closing) {
			break
		}
	}
	return items, nil
}

func (p *ExprParser) parsePrimary() (ExprNode, error) {
	if p.match(ExprTokenTypeString) {
		return NewLiteralString(p.previous().Literal.(string)), nil
	}

	if p.match(ExprTokenTypeNumber) {
		return NewLiteralNumber(p.previous().Literal.(float64)), nil
	}

	if p.match(ExprTokenTypeBool) {
		return NewLiteralBool(p.previous().Literal.(bool)), nil
	}

	if p.match(ExprTokenTypeNull) {
		return NewLiteralNull(), nil
	}

	if p.match(ExprTokenTypeIdentifier) {
		return NewIdentifier(p.previous().Value), nil
	}

	if p.match(ExprTokenTypeLBracket) {
		elements, err := p.parseList(ExprTokenTypeRBracket)
		if err != nil {
			return nil, err
		}
		if !p.match(ExprTokenTypeRBracket) {
			return nil, NewExprParseError(ErrMsgExprExpectedRBracket, p.currentPos(), "")
		}
		return NewArray(elements), nil
	}

	if p.match(ExprTokenTypeLParen) {
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if !p.match(ExprTokenTypeRParen) {
			return nil, NewExprParseError(ErrMsgExprExpectedRParen, p.currentPos(), "")
		}

		return expr, nil
	}

	if p.isAtEnd() {
		return nil, NewExprParseError(ErrMsgExprUnexpectedEOF, p.currentPos(), "")
	}

	return nil, NewExprParseError(ErrMsgExprUnexpectedToken, p.peek().Pos, p.peek().Value)
}

// Helper methods

func (p *ExprParser) match(tokenType ExprTokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

func (p *ExprParser) matchAny(types ...ExprTokenType) bool {
	for _, t := range types {
		if p.match(t) {
			return true
		}
	}
	return false
}

func (p *ExprParser) check(tokenType ExprTokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

func (p *ExprParser) advance() ExprToken {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *ExprParser) peek() ExprToken {
	if p.pos >= len(p.tokens) {
		return ExprToken{Type: ExprTokenTypeEOF, Pos: p.currentPos()}
	}
	return p.tokens[p.pos]
}

func (p *ExprParser) previous() ExprToken {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *ExprParser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == ExprTokenTypeEOF
}

func (p *ExprParser) currentPos() int {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1].Pos
		}
		return 0
	}
	return p.tokens[p.pos].Pos
}

// ExprParseError represents an error during expression parsing
type ExprParseError struct {
	Message string
	Pos     int
	Detail  string
}

// NewExprParseError creates a new expression parse error
func NewExprParseError(message string, pos int, detail string) *ExprParseError {
	return &ExprParseError{
		Message: message,
		Pos:     pos,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Message, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Expression parser error messages
const (
	ErrMsgExprEmptyExpression  = "empty expression"
	ErrMsgExprUnexpectedToken  = "unexpected token"
	ErrMsgExprExpectedRParen   = "expected closing parenthesis"
	ErrMsgExprExpectedRBracket = "expected closing bracket"
	ErrMsgExprExpectedProperty = "expected property name after '.'"
	ErrMsgExprCallTarget       = "only registered functions can be called"
	ErrMsgExprUnexpectedEOF    = "unexpected end of expression"
)

// ParseExpression tokenizes and parses an expression string
func ParseExpression(expr string) (ExprNode, error) {
	tokenizer := NewExprTokenizer(expr)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		return nil, err
	}

	parser := NewExprParser(tokens)
	return parser.Parse()
}

package internal

import "go.uber.org/zap"

// SourceNode is one node of a parsed template body
type SourceNode struct {
	Kind     SourceNodeKind
	Name     string       // element name; empty for fragments
	Value    string       // text content or expression source
	Attrs    []SourceAttr // element attributes
	Params   []string     // function parameters
	Children []*SourceNode
	Inline   bool
	Position Position
}

// Parser builds a SourceNode tree from lexer tokens
type Parser struct {
	tokens []SourceToken
	pos    int
	logger *zap.Logger
}

// NewParser creates a new parser for the given tokens
func NewParser(tokens []SourceToken, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		tokens: tokens,
		logger: logger,
	}
}

// Parse returns the top-level nodes of the template body
func (p *Parser) Parse() ([]*SourceNode, error) {
	p.logger.Debug(LogMsgParserStart)

	root := &SourceNode{Kind: SourceNodeElement}
	stack := []*SourceNode{root}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		parent := stack[len(stack)-1]

		switch tok.Type {
		case SourceTokenText:
			appendText(parent, tok)

		case SourceTokenExpression:
			parent.Children = append(parent.Children, &SourceNode{
				Kind:     SourceNodeExpression,
				Value:    tok.Value,
				Inline:   tok.Inline,
				Position: tok.Position,
			})

		case SourceTokenOpenTag:
			node := &SourceNode{
				Kind:     SourceNodeElement,
				Name:     tok.Value,
				Attrs:    tok.Attrs,
				Inline:   tok.Inline,
				Position: tok.Position,
			}
			parent.Children = append(parent.Children, node)
			if !tok.SelfClosing {
				stack = append(stack, node)
			}

		case SourceTokenCloseTag:
			if parent == root || parent.Kind != SourceNodeElement {
				return nil, NewSourceError(ErrMsgSourceUnexpectedClose, displayName(tok.Value), tok.Position)
			}
			if parent.Name != tok.Value {
				return nil, NewSourceError(ErrMsgSourceMismatchedClose,
					"expected "+displayName(parent.Name)+", found "+displayName(tok.Value), tok.Position)
			}
			stack = stack[:len(stack)-1]

		case SourceTokenFunction:
			node := &SourceNode{
				Kind:     SourceNodeFunction,
				Params:   tok.Params,
				Inline:   tok.Inline,
				Position: tok.Position,
			}
			parent.Children = append(parent.Children, node)
			stack = append(stack, node)

		case SourceTokenFuncEnd:
			if parent.Kind != SourceNodeFunction {
				return nil, NewSourceError(ErrMsgSourceUnclosedElement, displayName(parent.Name), parent.Position)
			}
			stack = stack[:len(stack)-1]

		case SourceTokenEOF:
			if len(stack) > 1 {
				open := stack[len(stack)-1]
				return nil, NewSourceError(ErrMsgSourceUnclosedElement, displayName(open.Name), open.Position)
			}
			p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(root.Children)))
			return root.Children, nil
		}
	}

	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(root.Children)))
	return root.Children, nil
}

// appendText merges adjacent text, which occurs when a comment separates two runs
func appendText(parent *SourceNode, tok SourceToken) {
	if n := len(parent.Children); n > 0 && parent.Children[n-1].Kind == SourceNodeText {
		parent.Children[n-1].Value += tok.Value
		return
	}
	parent.Children = append(parent.Children, &SourceNode{
		Kind:     SourceNodeText,
		Value:    tok.Value,
		Position: tok.Position,
	})
}

func displayName(name string) string {
	if name == StrEmpty {
		return StrFragment
	}
	return "<" + name + ">"
}

// ParseSource tokenizes and parses a template body in one call
func ParseSource(source string, logger *zap.Logger) ([]*SourceNode, error) {
	tokens, err := NewLexer(source, logger).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, logger).Parse()
}

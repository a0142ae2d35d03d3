package internal

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// arrowHeadPattern matches `(item, index) =>` or `item =>` at the start of an expression
var arrowHeadPattern = regexp.MustCompile(`^\s*(?:\(\s*([A-Za-z_$][\w$]*(?:\s*,\s*[A-Za-z_$][\w$]*)*)?\s*\)|([A-Za-z_$][\w$]*))\s*=>\s*`)

// funcFrame tracks an open arrow-function body
type funcFrame struct {
	depth int  // elements opened inside the body and not yet closed
	paren bool // body is wrapped in parentheses: `=> ( ... )`
}

// Lexer tokenizes the body of a template into a SourceToken stream.
// Text is kept verbatim; only braces and capitalized tags are structural.
type Lexer struct {
	source string
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	frames []funcFrame
	tokens []SourceToken
	logger *zap.Logger
}

// NewLexer creates a new source lexer
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Tokenize processes the source and returns a token stream
func (l *Lexer) Tokenize() ([]SourceToken, error) {
	l.logger.Debug(LogMsgTokenizerStart)
	l.tokens = nil

	for {
		if frame := l.topFrame(); frame != nil && frame.depth == 0 {
			closed, err := l.scanFrameEnd(frame)
			if err != nil {
				return nil, err
			}
			if closed {
				continue
			}
		}
		if l.isAtEnd() {
			break
		}

		var err error
		switch {
		case l.peek() == CharOpenBrace:
			err = l.scanBrace()
		case l.atTagStart():
			err = l.scanTag()
		default:
			l.scanText()
		}
		if err != nil {
			return nil, err
		}
	}

	if len(l.frames) > 0 {
		return nil, NewSourceError(ErrMsgSourceUnterminatedFunc, "", l.currentPosition())
	}

	l.tokens = append(l.tokens, SourceToken{Type: SourceTokenEOF, Position: l.currentPosition()})
	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(l.tokens)))
	return l.tokens, nil
}

// scanFrameEnd drops top-level whitespace inside a function body and closes
// the body when its terminator is reached.
func (l *Lexer) scanFrameEnd(frame *funcFrame) (bool, error) {
	l.skipWhitespace()
	if l.isAtEnd() {
		return false, NewSourceError(ErrMsgSourceUnterminatedFunc, "", l.currentPosition())
	}

	pos := l.currentPosition()
	if frame.paren {
		if l.peek() != CharCloseParen {
			return false, nil
		}
		l.advance()
		l.skipWhitespace()
		if l.peek() != CharCloseBrace {
			return false, NewSourceError(ErrMsgSourceUnterminatedFunc, "", l.currentPosition())
		}
	} else if l.peek() != CharCloseBrace {
		return false, nil
	}
	l.advance()

	l.frames = l.frames[:len(l.frames)-1]
	l.tokens = append(l.tokens, SourceToken{Type: SourceTokenFuncEnd, Position: pos})
	return true, nil
}

// scanText scans verbatim text up to the next structural character.
// `\{` and `\}` produce literal braces.
func (l *Lexer) scanText() {
	startPos := l.currentPosition()
	var sb strings.Builder

	frame := l.topFrame()
	for !l.isAtEnd() {
		ch := l.peek()
		if ch == CharBackslash && l.pos+1 < len(l.source) {
			next := l.source[l.pos+1]
			if next == CharOpenBrace || next == CharCloseBrace {
				l.advance()
				sb.WriteByte(l.advance())
				continue
			}
		}
		if ch == CharOpenBrace || l.atTagStart() {
			break
		}
		if frame != nil && frame.depth == 0 {
			if (frame.paren && ch == CharCloseParen) || (!frame.paren && ch == CharCloseBrace) {
				break
			}
		}
		sb.WriteByte(l.advance())
	}

	if sb.Len() > 0 {
		l.tokens = append(l.tokens, SourceToken{
			Type:     SourceTokenText,
			Value:    sb.String(),
			Position: startPos,
		})
	}
}

// scanBrace handles `{expr}`, `{/* comment */}` and `{(a, b) => ...}`
func (l *Lexer) scanBrace() error {
	startPos := l.currentPosition()
	inline := !l.atLineStart()
	l.advance() // consume {

	l.skipWhitespace()
	if l.matchStr(StrCommentOpen) {
		return l.skipComment(startPos)
	}

	if match := arrowHeadPattern.FindStringSubmatchIndex(l.source[l.pos:]); match != nil {
		return l.scanFunction(startPos, inline, match)
	}

	content, err := l.readBalanced(startPos)
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	l.tokens = append(l.tokens, SourceToken{
		Type:     SourceTokenExpression,
		Value:    content,
		Inline:   inline,
		Position: startPos,
	})
	return nil
}

func (l *Lexer) skipComment(startPos Position) error {
	end := strings.Index(l.source[l.pos:], StrCommentClose)
	if end < 0 {
		return NewSourceError(ErrMsgSourceUnterminatedCmt, "", startPos)
	}
	l.advanceN(end + len(StrCommentClose))
	l.skipWhitespace()
	if l.peek() != CharCloseBrace {
		return NewSourceError(ErrMsgSourceUnterminatedCmt, "", startPos)
	}
	l.advance()
	return nil
}

// scanFunction emits a FUNCTION token for an arrow head. JSX bodies are
// tokenized in place and closed by scanFrameEnd; any other body is a single
// expression.
func (l *Lexer) scanFunction(startPos Position, inline bool, match []int) error {
	params := parseArrowParams(l.source[l.pos:], match)
	l.advanceN(match[1])

	l.tokens = append(l.tokens, SourceToken{
		Type:     SourceTokenFunction,
		Params:   params,
		Inline:   inline,
		Position: startPos,
	})

	rest := l.source[l.pos:]
	if strings.HasPrefix(rest, string(CharOpenParen)) &&
		strings.HasPrefix(strings.TrimLeft(rest[1:], " \t\r\n"), string(CharOpenAngle)) {
		l.advance()
		l.frames = append(l.frames, funcFrame{paren: true})
		return nil
	}
	if strings.HasPrefix(rest, string(CharOpenAngle)) {
		l.frames = append(l.frames, funcFrame{})
		return nil
	}

	bodyPos := l.currentPosition()
	body, err := l.readBalanced(startPos)
	if err != nil {
		return err
	}
	if body = strings.TrimSpace(body); body != "" {
		l.tokens = append(l.tokens, SourceToken{
			Type:     SourceTokenExpression,
			Value:    body,
			Inline:   true,
			Position: bodyPos,
		})
	}
	l.tokens = append(l.tokens, SourceToken{Type: SourceTokenFuncEnd, Position: l.currentPosition()})
	return nil
}

func parseArrowParams(src string, match []int) []string {
	var list string
	switch {
	case match[2] >= 0:
		list = src[match[2]:match[3]]
	case match[4] >= 0:
		list = src[match[4]:match[5]]
	}
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	params := make([]string, 0, len(parts))
	for _, p := range parts {
		params = append(params, strings.TrimSpace(p))
	}
	return params
}

// readBalanced reads up to the brace matching an already consumed `{`,
// skipping over string literals. The closing brace is consumed.
func (l *Lexer) readBalanced(startPos Position) (string, error) {
	var sb strings.Builder
	depth := 1

	for !l.isAtEnd() {
		ch := l.peek()
		switch ch {
		case CharDoubleQuote, CharSingleQuote, CharBacktick:
			lit, err := l.readQuoted()
			if err != nil {
				return "", err
			}
			sb.WriteString(lit)
			continue
		case CharOpenBrace:
			depth++
		case CharCloseBrace:
			depth--
			if depth == 0 {
				l.advance()
				return sb.String(), nil
			}
		}
		sb.WriteByte(l.advance())
	}

	return "", NewSourceError(ErrMsgSourceUnterminatedExpr, "", startPos)
}

// readQuoted returns a quoted literal including its quotes
func (l *Lexer) readQuoted() (string, error) {
	startPos := l.currentPosition()
	quote := l.advance()
	var sb strings.Builder
	sb.WriteByte(quote)

	for !l.isAtEnd() {
		ch := l.advance()
		sb.WriteByte(ch)
		if ch == CharBackslash && !l.isAtEnd() {
			sb.WriteByte(l.advance())
			continue
		}
		if ch == quote {
			return sb.String(), nil
		}
	}
	return "", NewSourceError(ErrMsgSourceUnterminatedStr, "", startPos)
}

// scanTag scans `<Name attrs>`, `<Name />`, `</Name>`, `<>` and `</>`
func (l *Lexer) scanTag() error {
	startPos := l.currentPosition()
	inline := !l.atLineStart()
	l.advance() // consume <

	if l.peek() == CharSlash {
		l.advance()
		l.skipWhitespace()
		name := ""
		if l.peek() != CharCloseAngle {
			var err error
			if name, err = l.scanName(true); err != nil {
				return err
			}
			l.skipWhitespace()
		}
		if l.peek() != CharCloseAngle {
			return NewSourceError(ErrMsgSourceUnterminatedTag, name, startPos)
		}
		l.advance()
		if frame := l.topFrame(); frame != nil {
			if frame.depth == 0 {
				return NewSourceError(ErrMsgSourceUnexpectedClose, displayName(name), startPos)
			}
			frame.depth--
		}
		l.tokens = append(l.tokens, SourceToken{
			Type:     SourceTokenCloseTag,
			Value:    name,
			Inline:   inline,
			Position: startPos,
		})
		return nil
	}

	tok := SourceToken{Type: SourceTokenOpenTag, Inline: inline, Position: startPos}
	if l.peek() != CharCloseAngle {
		name, err := l.scanName(true)
		if err != nil {
			return err
		}
		tok.Value = name
	}

	for {
		l.skipWhitespace()
		if l.isAtEnd() {
			return NewSourceError(ErrMsgSourceUnterminatedTag, tok.Value, startPos)
		}
		if l.matchStr(StrSelfClose) {
			l.advanceN(len(StrSelfClose))
			tok.SelfClosing = true
			break
		}
		if l.peek() == CharCloseAngle {
			l.advance()
			break
		}
		if l.peek() == CharOpenBrace {
			return NewSourceError(ErrMsgSourceSpreadAttr, tok.Value, l.currentPosition())
		}

		attr, err := l.scanAttribute()
		if err != nil {
			return err
		}
		tok.Attrs = append(tok.Attrs, attr)
	}

	if !tok.SelfClosing {
		if frame := l.topFrame(); frame != nil {
			frame.depth++
		}
	}
	l.tokens = append(l.tokens, tok)
	return nil
}

// scanName scans a tag name (letters, digits, _ - . :) or an attribute name
func (l *Lexer) scanName(isTag bool) (string, error) {
	start := l.pos
	if l.isAtEnd() || !(isLetter(l.peek()) || (!isTag && l.peek() == CharUnderscore)) {
		if isTag {
			return "", NewSourceError(ErrMsgSourceInvalidTagName, "", l.currentPosition())
		}
		return "", NewSourceError(ErrMsgSourceInvalidAttrName, "", l.currentPosition())
	}
	l.advance()

	for !l.isAtEnd() {
		ch := l.peek()
		if isLetter(ch) || isDigit(ch) || ch == CharUnderscore || ch == CharHyphen || ch == CharColon || (isTag && ch == CharDot) {
			l.advance()
			continue
		}
		break
	}
	return l.source[start:l.pos], nil
}

// scanAttribute scans `name`, `name="value"`, `name='value'` or `name={expr}`
func (l *Lexer) scanAttribute() (SourceAttr, error) {
	name, err := l.scanName(false)
	if err != nil {
		return SourceAttr{}, err
	}
	attr := SourceAttr{Name: name, Kind: SourceAttrBoolean}

	l.skipWhitespace()
	if l.peek() != CharEquals {
		return attr, nil
	}
	l.advance()
	l.skipWhitespace()

	switch l.peek() {
	case CharDoubleQuote, CharSingleQuote:
		lit, err := l.readQuoted()
		if err != nil {
			return SourceAttr{}, err
		}
		attr.Kind = SourceAttrString
		attr.Value = lit[1 : len(lit)-1]
	case CharOpenBrace:
		pos := l.currentPosition()
		l.advance()
		expr, err := l.readBalanced(pos)
		if err != nil {
			return SourceAttr{}, err
		}
		attr.Kind = SourceAttrExpression
		attr.Value = strings.TrimSpace(expr)
	default:
		return SourceAttr{}, NewSourceError(ErrMsgSourceUnexpectedChar, string(l.peek()), l.currentPosition())
	}
	return attr, nil
}

// Helper methods

func (l *Lexer) topFrame() *funcFrame {
	if len(l.frames) == 0 {
		return nil
	}
	return &l.frames[len(l.frames)-1]
}

// atTagStart reports whether `<` opens a component tag, a closing tag or a fragment.
// Lowercase tags and comparisons stay text.
func (l *Lexer) atTagStart() bool {
	if l.peek() != CharOpenAngle || l.pos+1 >= len(l.source) {
		return false
	}
	next := l.source[l.pos+1]
	switch {
	case isUpper(next), next == CharCloseAngle:
		return true
	case next == CharSlash && l.pos+2 < len(l.source):
		after := l.source[l.pos+2]
		return isUpper(after) || after == CharCloseAngle
	}
	return false
}

// atLineStart reports whether only whitespace precedes the current position on its line
func (l *Lexer) atLineStart() bool {
	for i := l.pos - 1; i >= 0; i-- {
		switch l.source[i] {
		case CharNewline:
			return true
		case CharSpace, CharTab, CharCarriageRet:
			continue
		default:
			return false
		}
	}
	return true
}

func (l *Lexer) currentPosition() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == CharNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && !l.isAtEnd(); i++ {
		l.advance()
	}
}

func (l *Lexer) matchStr(s string) bool {
	return strings.HasPrefix(l.source[l.pos:], s)
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		ch := l.peek()
		if ch == CharSpace || ch == CharTab || ch == CharNewline || ch == CharCarriageRet {
			l.advance()
		} else {
			break
		}
	}
}

// Character classification helpers

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

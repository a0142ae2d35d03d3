package internal

import "fmt"

// Position represents a location in the template source
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// SourceAttrKind distinguishes how an attribute value was written
type SourceAttrKind int

// Attribute kinds
const (
	SourceAttrBoolean    SourceAttrKind = iota // <Tag flag />
	SourceAttrString                           // <Tag a="v" />
	SourceAttrExpression                       // <Tag a={expr} />
)

// SourceAttr is one attribute of an opening tag
type SourceAttr struct {
	Name  string
	Kind  SourceAttrKind
	Value string
}

// SourceToken is a lexical token of the template body.
//
//   - TEXT: Value holds verbatim text
//   - EXPRESSION: Value holds the expression between braces
//   - FUNCTION: Params hold the arrow parameters; body tokens follow until FUNCTION_END
//   - OPEN_TAG: Value holds the tag name (empty for fragments), Attrs and SelfClosing are set
//   - CLOSE_TAG: Value holds the tag name (empty for fragments)
type SourceToken struct {
	Type        SourceTokenType
	Value       string
	Attrs       []SourceAttr
	Params      []string
	SelfClosing bool
	Inline      bool // token does not start its line
	Position    Position
}

// String returns a human-readable representation of the token
func (t SourceToken) String() string {
	if t.Value == "" {
		return fmt.Sprintf("SourceToken{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("SourceToken{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an end-of-file token
func (t SourceToken) IsEOF() bool {
	return t.Type == SourceTokenEOF
}

// SourceError is a template source error with position
type SourceError struct {
	Message  string
	Detail   string
	Position Position
}

// NewSourceError creates a source error at the given position
func NewSourceError(message, detail string, pos Position) *SourceError {
	return &SourceError{
		Message:  message,
		Detail:   detail,
		Position: pos,
	}
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s) at %s", e.Message, e.Detail, e.Position)
	}
	return e.Message + " at " + e.Position.String()
}

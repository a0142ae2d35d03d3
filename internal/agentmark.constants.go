package internal

// SourceTokenType represents the type of a template source token
type SourceTokenType string

// Source token type constants
const (
	SourceTokenText       SourceTokenType = "TEXT"
	SourceTokenExpression SourceTokenType = "EXPRESSION"
	SourceTokenFunction   SourceTokenType = "FUNCTION"
	SourceTokenFuncEnd    SourceTokenType = "FUNCTION_END"
	SourceTokenOpenTag    SourceTokenType = "OPEN_TAG"
	SourceTokenCloseTag   SourceTokenType = "CLOSE_TAG"
	SourceTokenEOF        SourceTokenType = "EOF"
)

// SourceNodeKind identifies source tree node kinds
type SourceNodeKind int

// Source node kind constants
const (
	SourceNodeText SourceNodeKind = iota
	SourceNodeExpression
	SourceNodeElement
	SourceNodeFunction
)

// Source node kind names for debugging
const (
	SourceNodeNameText       = "TEXT"
	SourceNodeNameExpression = "EXPRESSION"
	SourceNodeNameElement    = "ELEMENT"
	SourceNodeNameFunction   = "FUNCTION"
)

// String returns the string representation of the node kind
func (k SourceNodeKind) String() string {
	switch k {
	case SourceNodeExpression:
		return SourceNodeNameExpression
	case SourceNodeElement:
		return SourceNodeNameElement
	case SourceNodeFunction:
		return SourceNodeNameFunction
	default:
		return SourceNodeNameText
	}
}

// Character constants
const (
	CharOpenBrace   = '{'
	CharCloseBrace  = '}'
	CharOpenAngle   = '<'
	CharCloseAngle  = '>'
	CharSlash       = '/'
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBacktick    = '`'
	CharBackslash   = '\\'
	CharOpenParen   = '('
	CharCloseParen  = ')'
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
	CharStar        = '*'
	CharUnderscore  = '_'
	CharDot         = '.'
	CharHyphen      = '-'
	CharColon       = ':'
)

// String constants used by the source reader
const (
	StrArrow        = "=>"
	StrCommentOpen  = "/*"
	StrCommentClose = "*/"
	StrCloseTagOpen = "</"
	StrSelfClose    = "/>"
	StrEmpty        = ""
	StrFragment     = "<>"
	StrFragmentEnd  = "</>"
)

// Source reader error messages
const (
	ErrMsgSourceUnterminatedTag  = "unterminated tag"
	ErrMsgSourceUnterminatedStr  = "unterminated string literal"
	ErrMsgSourceUnterminatedExpr = "unterminated expression"
	ErrMsgSourceUnterminatedCmt  = "unterminated comment"
	ErrMsgSourceUnterminatedFunc = "unterminated function body"
	ErrMsgSourceInvalidTagName   = "invalid tag name"
	ErrMsgSourceInvalidAttrName  = "invalid attribute name"
	ErrMsgSourceUnexpectedChar   = "unexpected character"
	ErrMsgSourceSpreadAttr       = "spread attributes are not supported"
	ErrMsgSourceUnclosedElement  = "unclosed element"
	ErrMsgSourceMismatchedClose  = "mismatched closing tag"
	ErrMsgSourceUnexpectedClose  = "unexpected closing tag"
	ErrMsgSourceInvalidParams    = "invalid function parameters"
)

// Log messages
const (
	LogMsgLexerCreated   = "source lexer created"
	LogMsgTokenizerStart = "starting tokenization"
	LogMsgTokenizerEnd   = "tokenization complete"
	LogMsgParserStart    = "starting source parse"
	LogMsgParserEnd      = "source parse complete"
)

// Log field names
const (
	LogFieldSource = "source_length"
	LogFieldTokens = "token_count"
	LogFieldNodes  = "node_count"
)

// Argument index constants
const (
	ArgIndexFirst  = 0
	ArgIndexSecond = 1
	ArgIndexThird  = 2
)

package agentmark

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/agentmark-ai/agentmark-sub003/internal"
)

// ParseDocument reads a prompt template into a document tree. YAML front
// matter between --- fences becomes the first yaml child of the root; the
// body becomes text, expression and JSX element nodes. Markdown in the body
// is kept verbatim as text.
func ParseDocument(source string) (*Node, error) {
	content := strings.TrimPrefix(source, "\xef\xbb\xbf")
	root := &Node{Type: NodeTypeRoot}

	frontMatter, body, lineOffset, hasFront, err := splitFrontMatter(content)
	if err != nil {
		return nil, err
	}
	if hasFront {
		root.Children = append(root.Children, &Node{Type: NodeTypeYAML, Value: frontMatter})
	}

	nodes, err := internal.ParseSource(body, nil)
	if err != nil {
		var srcErr *internal.SourceError
		if errors.As(err, &srcErr) {
			return nil, NewSourceError(srcErr.Position.Line+lineOffset, srcErr.Position.Column, err)
		}
		return nil, NewTemplateError(ErrMsgTemplateParse, err)
	}
	root.Children = append(root.Children, convertSourceNodes(nodes)...)
	return root, nil
}

// MustParseDocument parses a template and panics on error
func MustParseDocument(source string) *Node {
	doc, err := ParseDocument(source)
	if err != nil {
		panic(err)
	}
	return doc
}

// DecodeDocument reads a document tree from mdast JSON
func DecodeDocument(data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, NewTemplateError(ErrMsgDocumentDecode, err)
	}
	if root.Type != NodeTypeRoot {
		return nil, NewTemplateError(ErrMsgInvalidDocument, nil)
	}
	return &root, nil
}

// splitFrontMatter separates the YAML between the opening and closing ---
// lines from the body. lineOffset is the number of lines before the body.
func splitFrontMatter(content string) (frontMatter, body string, lineOffset int, ok bool, err error) {
	if !strings.HasPrefix(content, FrontMatterDelimiter) {
		return "", content, 0, false, nil
	}

	afterOpening := content[len(FrontMatterDelimiter):]
	switch {
	case strings.HasPrefix(afterOpening, "\r\n"):
		afterOpening = afterOpening[2:]
	case strings.HasPrefix(afterOpening, "\n"):
		afterOpening = afterOpening[1:]
	default:
		// "---x" is body text, not a fence
		return "", content, 0, false, nil
	}

	closeIdx := -1
	if strings.HasPrefix(afterOpening, FrontMatterDelimiter) {
		closeIdx = 0
	} else if idx := strings.Index(afterOpening, "\n"+FrontMatterDelimiter); idx >= 0 {
		closeIdx = idx + 1
	}
	if closeIdx < 0 {
		return "", "", 0, false, NewTemplateError(ErrMsgUnterminatedFront, nil)
	}

	frontMatter = afterOpening[:closeIdx]
	rest := afterOpening[closeIdx+len(FrontMatterDelimiter):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		rest = ""
	}

	consumed := len(content) - len(rest)
	lineOffset = strings.Count(content[:consumed], "\n")
	return frontMatter, rest, lineOffset, true, nil
}

func convertSourceNodes(nodes []*internal.SourceNode) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, convertSourceNode(n))
	}
	return out
}

func convertSourceNode(n *internal.SourceNode) *Node {
	switch n.Kind {
	case internal.SourceNodeExpression:
		node := NewExpression(n.Value)
		if !n.Inline {
			node.Type = NodeTypeFlowExpression
		}
		return node

	case internal.SourceNodeElement:
		node := NewElement(n.Name, convertSourceAttrs(n.Attrs), convertSourceNodes(n.Children)...)
		if n.Inline {
			node.Type = NodeTypeJSXTextElement
		}
		return node

	case internal.SourceNodeFunction:
		return NewFunctionBody(n.Params, convertSourceNodes(n.Children)...)

	default:
		return NewText(n.Value)
	}
}

func convertSourceAttrs(attrs []internal.SourceAttr) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attribute, 0, len(attrs))
	for _, attr := range attrs {
		switch attr.Kind {
		case internal.SourceAttrBoolean:
			out = append(out, BoolAttr(attr.Name))
		case internal.SourceAttrExpression:
			out = append(out, ExprAttr(attr.Name, attr.Value))
		default:
			out = append(out, StringAttr(attr.Name, attr.Value))
		}
	}
	return out
}

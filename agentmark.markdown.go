package agentmark

import (
	"strconv"
	"strings"
)

// ToMarkdown serializes nodes back to template text. Text is written
// verbatim, unconsumed elements and expressions are written in JSX form, and
// consecutive block nodes are separated by a blank line.
func ToMarkdown(nodes []*Node) string {
	var sb strings.Builder
	writeMarkdown(&sb, nodes)
	return sb.String()
}

func writeMarkdown(sb *strings.Builder, nodes []*Node) {
	var prev *Node
	for _, node := range nodes {
		if prev != nil && isBlockNode(prev) && isBlockNode(node) {
			sb.WriteString(MarkdownBlockSeparator)
		}
		writeNode(sb, node)
		prev = node
	}
}

func writeNode(sb *strings.Builder, node *Node) {
	switch node.Type {
	case NodeTypeText:
		sb.WriteString(node.Value)

	case NodeTypeYAML:
		// front matter is not part of the body

	case NodeTypeFlowExpression, NodeTypeTextExpression:
		sb.WriteByte('{')
		sb.WriteString(node.Value)
		if len(node.Children) > 0 {
			sb.WriteByte(' ')
			writeMarkdown(sb, node.Children)
		}
		sb.WriteByte('}')

	case NodeTypeJSXFlowElement, NodeTypeJSXTextElement:
		writeElement(sb, node)

	case NodeTypeHeading:
		depth := node.Depth
		if depth < 1 {
			depth = 1
		}
		sb.WriteString(strings.Repeat(MarkdownHeadingMark, depth))
		sb.WriteByte(' ')
		writeMarkdown(sb, node.Children)

	case NodeTypeList:
		for i, item := range node.Children {
			if i > 0 {
				sb.WriteString(MarkdownLineBreak)
			}
			if node.Ordered {
				sb.WriteString(strconv.Itoa(i + 1))
				sb.WriteString(". ")
			} else {
				sb.WriteString(MarkdownListBullet)
			}
			writeMarkdown(sb, item.Children)
		}

	case NodeTypeCode:
		sb.WriteString(MarkdownCodeFence)
		sb.WriteString(node.Lang)
		sb.WriteString(MarkdownLineBreak)
		sb.WriteString(node.Value)
		sb.WriteString(MarkdownLineBreak)
		sb.WriteString(MarkdownCodeFence)

	case NodeTypeInlineCode:
		sb.WriteString(MarkdownInlineCode)
		sb.WriteString(node.Value)
		sb.WriteString(MarkdownInlineCode)

	case NodeTypeEmphasis:
		sb.WriteString(MarkdownEmphasis)
		writeMarkdown(sb, node.Children)
		sb.WriteString(MarkdownEmphasis)

	case NodeTypeStrong:
		sb.WriteString(MarkdownStrong)
		writeMarkdown(sb, node.Children)
		sb.WriteString(MarkdownStrong)

	case NodeTypeBreak:
		sb.WriteString(MarkdownLineBreak)

	case NodeTypeThematicBreak:
		sb.WriteString(MarkdownThematicBreak)

	case NodeTypeBlockquote:
		var inner strings.Builder
		writeMarkdown(&inner, node.Children)
		lines := strings.Split(inner.String(), MarkdownLineBreak)
		for i, line := range lines {
			lines[i] = MarkdownQuotePrefix + line
		}
		sb.WriteString(strings.Join(lines, MarkdownLineBreak))

	default:
		writeMarkdown(sb, node.Children)
	}
}

func writeElement(sb *strings.Builder, node *Node) {
	sb.WriteByte('<')
	sb.WriteString(node.Name)
	for _, attr := range node.Attributes {
		sb.WriteByte(' ')
		switch {
		case attr.Type == AttrTypeJSXExpressionAttr:
			sb.WriteByte('{')
			if attr.Value != nil {
				sb.WriteString(attr.Value.Literal)
			}
			sb.WriteByte('}')
		case attr.Value == nil:
			sb.WriteString(attr.Name)
		case attr.Value.Expression:
			sb.WriteString(attr.Name)
			sb.WriteString("={")
			sb.WriteString(attr.Value.Literal)
			sb.WriteByte('}')
		default:
			sb.WriteString(attr.Name)
			sb.WriteString(`="`)
			sb.WriteString(attr.Value.Literal)
			sb.WriteByte('"')
		}
	}

	if len(node.Children) == 0 {
		sb.WriteString(" />")
		return
	}
	sb.WriteByte('>')
	writeMarkdown(sb, node.Children)
	sb.WriteString("</")
	sb.WriteString(node.Name)
	sb.WriteByte('>')
}

func isBlockNode(node *Node) bool {
	switch node.Type {
	case NodeTypeParagraph, NodeTypeHeading, NodeTypeList, NodeTypeCode,
		NodeTypeBlockquote, NodeTypeThematicBreak:
		return true
	}
	return false
}

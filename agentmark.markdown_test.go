package agentmark

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*Node
		want  string
	}{
		{
			name:  "text and expression",
			nodes: []*Node{NewText("Hi "), NewExpression("props.name")},
			want:  "Hi {props.name}",
		},
		{
			name: "element with attributes",
			nodes: []*Node{NewElement("Card",
				[]Attribute{StringAttr("title", "x"), ExprAttr("count", "props.n"), BoolAttr("open")},
				NewText("body"))},
			want: `<Card title="x" count={props.n} open>body</Card>`,
		},
		{
			name:  "self closing",
			nodes: []*Node{NewElement("Divider", nil)},
			want:  "<Divider />",
		},
		{
			name: "blocks",
			nodes: []*Node{
				{Type: NodeTypeHeading, Depth: 2, Children: []*Node{NewText("Title")}},
				{Type: NodeTypeParagraph, Children: []*Node{
					NewText("a "),
					{Type: NodeTypeStrong, Children: []*Node{NewText("bold")}},
					NewText(" "),
					{Type: NodeTypeInlineCode, Value: "x"},
				}},
				{Type: NodeTypeList, Ordered: true, Children: []*Node{
					{Type: NodeTypeListItem, Children: []*Node{NewText("one")}},
					{Type: NodeTypeListItem, Children: []*Node{NewText("two")}},
				}},
				{Type: NodeTypeCode, Lang: "go", Value: "x := 1"},
			},
			want: "## Title\n\na **bold** `x`\n\n1. one\n2. two\n\n```go\nx := 1\n```",
		},
		{
			name: "blockquote",
			nodes: []*Node{{Type: NodeTypeBlockquote, Children: []*Node{
				NewText("line one\nline two"),
			}}},
			want: "> line one\n> line two",
		},
		{
			name:  "front matter is skipped",
			nodes: []*Node{{Type: NodeTypeYAML, Value: "name: x"}, NewText("body")},
			want:  "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMarkdown(tt.nodes))
		})
	}
}

func TestNode_JSONRoundTrip(t *testing.T) {
	doc := &Node{Type: NodeTypeRoot, Children: []*Node{
		{Type: NodeTypeYAML, Value: "name: x\ntext_config:\n  model_name: m"},
		NewElement(TagUser, nil,
			NewText("Hello "),
			NewExpression("props.name"),
			NewElement(TagImageAttachment, []Attribute{ExprAttr(AttrImage, "props.url"), StringAttr(AttrMimeType, "image/png")}),
		),
	}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"mdxJsxAttributeValueExpression","value":"props.url"`)
	assert.Contains(t, string(data), `"value":"image/png"`)

	decoded, err := DecodeDocument(data)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDocument_Errors(t *testing.T) {
	_, err := DecodeDocument([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrTemplate)

	_, err = DecodeDocument([]byte(`{"type":"paragraph"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgInvalidDocument)
}

func TestNode_Clone(t *testing.T) {
	orig := NewElement("Card", []Attribute{StringAttr("title", "x")}, NewText("body"))
	clone := orig.Clone()

	clone.Attributes[0].Value.Literal = "changed"
	clone.Children[0].Value = "changed"

	assert.Equal(t, "x", orig.Attributes[0].Value.Literal)
	assert.Equal(t, "body", orig.Children[0].Value)
	assert.Nil(t, (*Node)(nil).Clone())
}

func TestNode_FunctionBody(t *testing.T) {
	fn := NewFunctionBody([]string{"item", "index"}, NewText("x"))
	assert.True(t, fn.IsFunctionBody())

	params, body := fn.FunctionBody()
	assert.Equal(t, []string{"item", "index"}, params)
	require.Len(t, body, 1)

	inline := &Node{Type: NodeTypeFlowExpression, Value: "(item) => {item.name}"}
	params, body = inline.FunctionBody()
	assert.Equal(t, []string{"item"}, params)
	require.Len(t, body, 1)
	assert.Equal(t, "item.name", body[0].Value)
}

func TestNode_Fragments(t *testing.T) {
	assert.True(t, NewElement("", nil).IsFragment())
	assert.True(t, NewElement(FragmentName, nil).IsFragment())
	assert.True(t, NewElement(ReactFragmentName, nil).IsFragment())
	assert.False(t, NewElement(TagUser, nil).IsFragment())
	assert.False(t, NewText("x").IsFragment())
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument("\xef\xbb\xbf---\nname: x\n---\n<User>Hi {props.name}</User>\n")
	require.NoError(t, err)

	source, ok := doc.FrontMatterSource()
	require.True(t, ok)
	assert.Equal(t, "name: x\n", source)

	var user *Node
	for _, child := range doc.Children {
		if child.IsElement() && child.Name == TagUser {
			user = child
		}
	}
	require.NotNil(t, user)
	assert.Equal(t, "Hi {props.name}", ToMarkdown(user.Children))
}

func TestParseDocument_NoFrontMatter(t *testing.T) {
	doc, err := ParseDocument("---x is not a fence")
	require.NoError(t, err)

	_, ok := doc.FrontMatterSource()
	assert.False(t, ok)
}

func TestParseDocument_Errors(t *testing.T) {
	_, err := ParseDocument("---\nname: x\n<User>hi</User>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgUnterminatedFront)

	_, err = ParseDocument("---\nname: x\n---\n\n<User>hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplate)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	line, ok := customErr.GetMetadata(MetaKeyLine)
	assert.True(t, ok)
	assert.NotEqual(t, "0", line)
}

package agentmark

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/agentmark-ai/agentmark-sub003/internal"
)

// ContentPart is one element of a multi-part user message
type ContentPart struct {
	Type     string
	Text     string
	Image    string
	Data     string
	MimeType string
}

// TextPart creates a text content part
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

// ImagePart creates an image content part; an empty mimeType is omitted
func ImagePart(image, mimeType string) ContentPart {
	return ContentPart{Type: PartTypeImage, Image: image, MimeType: mimeType}
}

// FilePart creates a file content part
func FilePart(data, mimeType string) ContentPart {
	return ContentPart{Type: PartTypeFile, Data: data, MimeType: mimeType}
}

type contentPartJSON struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	Image    *string `json:"image,omitempty"`
	Data     *string `json:"data,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
}

// MarshalJSON writes only the fields that belong to the part type
func (p ContentPart) MarshalJSON() ([]byte, error) {
	out := contentPartJSON{Type: p.Type}
	switch p.Type {
	case PartTypeText:
		out.Text = &p.Text
	case PartTypeImage:
		out.Image = &p.Image
		if p.MimeType != "" {
			out.MimeType = &p.MimeType
		}
	case PartTypeFile:
		out.Data = &p.Data
		out.MimeType = &p.MimeType
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a part written by MarshalJSON
func (p *ContentPart) UnmarshalJSON(data []byte) error {
	var in contentPartJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = ContentPart{Type: in.Type}
	if in.Text != nil {
		p.Text = *in.Text
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Data != nil {
		p.Data = *in.Data
	}
	if in.MimeType != nil {
		p.MimeType = *in.MimeType
	}
	return nil
}

// MessageContent is either plain text or an ordered list of parts. Text
// always holds the message text; Parts is non-nil only for multi-part
// content, whose first part repeats Text.
type MessageContent struct {
	Text  string
	Parts []ContentPart
}

// PlainContent creates single-string content
func PlainContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// MultipartContent creates content that starts with a text part followed by media
func MultipartContent(text string, media ...ContentPart) MessageContent {
	parts := make([]ContentPart, 0, len(media)+1)
	parts = append(parts, TextPart(text))
	parts = append(parts, media...)
	return MessageContent{Text: text, Parts: parts}
}

// IsMultipart reports whether the content is a part list
func (c MessageContent) IsMultipart() bool {
	return c.Parts != nil
}

// MarshalJSON writes a string or an array of parts
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsMultipart() {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON reads a string or an array of parts
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = MessageContent{Parts: parts}
		if len(parts) > 0 && parts[0].Type == PartTypeText {
			c.Text = parts[0].Text
		}
		return nil
	}
	*c = MessageContent{}
	return json.Unmarshal(data, &c.Text)
}

// ExtractedField is the content produced by one role tag
type ExtractedField struct {
	Name    string         `json:"name"`
	Content MessageContent `json:"content"`
}

// RichChatMessage is one chat message of a text or object prompt
type RichChatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// RegisterExtractionPlugins registers the role tags and attachment tags
func RegisterExtractionPlugins(r *PluginRegistry) {
	r.MustRegister(TagPluginFunc(extractRole), TagSystem, TagAssistant, TagImagePrompt, TagSpeechPrompt, TagUser)
	r.MustRegister(TagPluginFunc(extractImageAttachment), TagImageAttachment)
	r.MustRegister(TagPluginFunc(extractFileAttachment), TagFileAttachment)
}

// extractRole registers an extraction task for a role tag and consumes the
// tag. The task renders the children in a child scope; for User it also
// collects the attachments found while rendering.
func extractRole(_ context.Context, _ map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error) {
	tag := pctx.TagName
	if parent := pctx.Role(); parent != "" {
		return nil, NewNestedRoleTagError(tag, parent)
	}
	if pctx.Compilation == nil {
		return nil, NewTemplateTagError(ErrMsgNoCompilation, tag)
	}

	tr := pctx.NewTransformer(pctx.Scope.Child(nil)).WithRole(tag)
	var msg *MessageContext
	if tag == TagUser {
		msg = NewMessageContext()
		tr = tr.WithMessage(msg)
	}

	pctx.Compilation.Spawn(tag, func(ctx context.Context) (ExtractedField, error) {
		nodes, err := tr.TransformChildren(ctx, children)
		if err != nil {
			return ExtractedField{}, err
		}
		text := strings.TrimSpace(ToMarkdown(nodes))

		field := ExtractedField{Name: tag, Content: PlainContent(text)}
		if msg != nil {
			if media := msg.Parts(); len(media) > 0 {
				field.Content = MultipartContent(text, media...)
			}
		}
		return field, nil
	})
	return nil, nil
}

func extractImageAttachment(_ context.Context, props map[string]any, _ []*Node, pctx *PluginContext) ([]*Node, error) {
	if pctx.Message == nil {
		return nil, NewPlacementError(TagImageAttachment)
	}
	image, ok := requiredProp(props, AttrImage)
	if !ok {
		return nil, NewMissingRequiredFieldError(ErrMsgImageAttachmentProp, TagImageAttachment, AttrImage)
	}

	mimeType := ""
	if v := props[AttrMimeType]; internal.IsTruthy(v) {
		mimeType = internal.Stringify(v)
	}
	pctx.Message.Append(ImagePart(image, mimeType))
	return nil, nil
}

func extractFileAttachment(_ context.Context, props map[string]any, _ []*Node, pctx *PluginContext) ([]*Node, error) {
	if pctx.Message == nil {
		return nil, NewPlacementError(TagFileAttachment)
	}
	data, ok := requiredProp(props, AttrData)
	if !ok {
		return nil, NewMissingRequiredFieldError(ErrMsgFileAttachmentProps, TagFileAttachment, AttrData)
	}
	mimeType, ok := requiredProp(props, AttrMimeType)
	if !ok {
		return nil, NewMissingRequiredFieldError(ErrMsgFileAttachmentProps, TagFileAttachment, AttrMimeType)
	}

	pctx.Message.Append(FilePart(data, mimeType))
	return nil, nil
}

// requiredProp accepts any present, non-null value, including ""
func requiredProp(props map[string]any, name string) (string, bool) {
	v, ok := props[name]
	if !ok || v == nil {
		return "", false
	}
	return internal.Stringify(v), true
}

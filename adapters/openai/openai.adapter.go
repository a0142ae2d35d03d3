// Package openai adapts compiled AgentMark configurations into
// github.com/sashabaranov/go-openai request values. It never calls the API;
// callers send the requests with their own client.
package openai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/itsatony/go-cuserr"
	sdk "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	agentmark "github.com/agentmark-ai/agentmark-sub003"
)

// ErrUnsupported is matched by errors.Is for content the API cannot take
var ErrUnsupported = errors.New("unsupported by openai adapter")

// SpeechRequest pairs a speech request with the instructions compiled from
// a System tag, which the request type has no field for.
type SpeechRequest struct {
	sdk.CreateSpeechRequest
	Instructions string `json:"instructions,omitempty"`
}

// Adapter implements agentmark.Adapter for the OpenAI API.
type Adapter struct {
	logger     *zap.Logger
	skipMCP    bool
	imageStyle string
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the adapter logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithSkipMCPTools drops MCP tool references instead of failing on them.
func WithSkipMCPTools() Option {
	return func(a *Adapter) {
		a.skipMCP = true
	}
}

// WithImageStyle sets the style of image requests (vivid or natural)
func WithImageStyle(style string) Option {
	return func(a *Adapter) {
		a.imageStyle = style
	}
}

// New creates an adapter
func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

var _ agentmark.Adapter = (*Adapter)(nil)

// Name implements agentmark.Adapter
func (a *Adapter) Name() string {
	return AdapterName
}

// ClientConfig returns a client configuration honoring the API key and
// base URL of opts.
func ClientConfig(opts agentmark.AdaptOptions) sdk.ClientConfig {
	cfg := sdk.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return cfg
}

// AdaptText builds a chat completion request.
func (a *Adapter) AdaptText(cfg *agentmark.TextConfig, opts agentmark.AdaptOptions, _ agentmark.PromptMetadata) (any, error) {
	if cfg == nil {
		return nil, cuserr.NewValidationError(ErrCodeAdapter, ErrMsgNilConfig)
	}
	messages, err := convertMessages(cfg.Messages)
	if err != nil {
		return nil, err
	}

	s := cfg.Settings
	req := sdk.ChatCompletionRequest{
		Model:    s.ModelName,
		Messages: messages,
		Stop:     s.StopSequences,
		Seed:     s.Seed,
	}
	applySampling(&req, s.MaxTokens, s.Temperature, s.TopP, s.PresencePenalty, s.FrequencyPenalty)

	tools, err := a.convertTools(s.Tools)
	if err != nil {
		return nil, err
	}
	req.Tools = tools
	if s.ToolChoice != nil && len(tools) > 0 {
		req.ToolChoice = convertToolChoice(*s.ToolChoice)
	}
	if opts.Telemetry != nil && opts.Telemetry.IsEnabled && opts.Telemetry.FunctionID != "" {
		req.User = opts.Telemetry.FunctionID
	}
	return req, nil
}

// AdaptObject builds a chat completion request with a JSON schema
// response format.
func (a *Adapter) AdaptObject(cfg *agentmark.ObjectConfig, opts agentmark.AdaptOptions, _ agentmark.PromptMetadata) (any, error) {
	if cfg == nil {
		return nil, cuserr.NewValidationError(ErrCodeAdapter, ErrMsgNilConfig)
	}
	messages, err := convertMessages(cfg.Messages)
	if err != nil {
		return nil, err
	}

	s := cfg.Settings
	name := s.SchemaName
	if name == "" {
		name = DefaultSchemaName
	}
	req := sdk.ChatCompletionRequest{
		Model:    s.ModelName,
		Messages: messages,
		Stop:     s.StopSequences,
		Seed:     s.Seed,
		ResponseFormat: &sdk.ChatCompletionResponseFormat{
			Type: sdk.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &sdk.ChatCompletionResponseFormatJSONSchema{
				Name:        name,
				Description: s.SchemaDescription,
				Schema:      jsonSchema(s.Schema),
			},
		},
	}
	applySampling(&req, s.MaxTokens, s.Temperature, s.TopP, s.PresencePenalty, s.FrequencyPenalty)
	if opts.Telemetry != nil && opts.Telemetry.IsEnabled && opts.Telemetry.FunctionID != "" {
		req.User = opts.Telemetry.FunctionID
	}
	return req, nil
}

// AdaptImage builds an image generation request.
func (a *Adapter) AdaptImage(cfg *agentmark.ImageConfig, _ agentmark.AdaptOptions) (any, error) {
	if cfg == nil {
		return nil, cuserr.NewValidationError(ErrCodeAdapter, ErrMsgNilConfig)
	}
	s := cfg.Settings
	req := sdk.ImageRequest{
		Prompt: s.Prompt,
		Model:  s.ModelName,
		Size:   s.Size,
		Style:  a.imageStyle,
	}
	if s.NumImages != nil {
		req.N = *s.NumImages
	}
	return req, nil
}

// AdaptSpeech builds a text-to-speech request.
func (a *Adapter) AdaptSpeech(cfg *agentmark.SpeechConfig, _ agentmark.AdaptOptions) (any, error) {
	if cfg == nil {
		return nil, cuserr.NewValidationError(ErrCodeAdapter, ErrMsgNilConfig)
	}
	s := cfg.Settings
	req := SpeechRequest{
		CreateSpeechRequest: sdk.CreateSpeechRequest{
			Model:          sdk.SpeechModel(s.ModelName),
			Input:          s.Text,
			Voice:          sdk.SpeechVoice(s.Voice),
			ResponseFormat: sdk.SpeechResponseFormat(s.OutputFormat),
		},
		Instructions: s.Instructions,
	}
	if s.Speed != nil {
		req.Speed = *s.Speed
	}
	return req, nil
}

func applySampling(req *sdk.ChatCompletionRequest, maxTokens *int, temperature, topP, presence, frequency *float64) {
	if maxTokens != nil {
		req.MaxTokens = *maxTokens
	}
	if temperature != nil {
		req.Temperature = float32(*temperature)
	}
	if topP != nil {
		req.TopP = float32(*topP)
	}
	if presence != nil {
		req.PresencePenalty = float32(*presence)
	}
	if frequency != nil {
		req.FrequencyPenalty = float32(*frequency)
	}
}

// convertMessages maps rich messages onto chat messages. Multi-part user
// content becomes MultiContent with media as image URLs.
func convertMessages(messages []agentmark.RichChatMessage) ([]sdk.ChatCompletionMessage, error) {
	out := make([]sdk.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := sdk.ChatCompletionMessage{Role: m.Role}
		if !m.Content.IsMultipart() {
			msg.Content = m.Content.Text
			out = append(out, msg)
			continue
		}

		parts := make([]sdk.ChatMessagePart, 0, len(m.Content.Parts))
		for _, p := range m.Content.Parts {
			part, err := convertPart(p)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		msg.MultiContent = parts
		out = append(out, msg)
	}
	return out, nil
}

func convertPart(p agentmark.ContentPart) (sdk.ChatMessagePart, error) {
	switch p.Type {
	case agentmark.PartTypeImage:
		return imagePart(p.Image, p.MimeType), nil
	case agentmark.PartTypeFile:
		if !strings.HasPrefix(p.MimeType, ImageMimePrefix) {
			return sdk.ChatMessagePart{}, cuserr.WrapStdError(ErrUnsupported, ErrCodeAdapter, ErrMsgUnsupportedAttachment).
				WithMetadata(MetaKeyMimeType, p.MimeType)
		}
		return imagePart(p.Data, p.MimeType), nil
	default:
		return sdk.ChatMessagePart{Type: sdk.ChatMessagePartTypeText, Text: p.Text}, nil
	}
}

// imagePart passes URLs through and wraps raw base64 in a data URL
func imagePart(image, mimeType string) sdk.ChatMessagePart {
	url := image
	if !strings.HasPrefix(image, SchemeHTTP) && !strings.HasPrefix(image, SchemeHTTPS) &&
		!strings.HasPrefix(image, DataURLPrefix) {
		if mimeType == "" {
			mimeType = DefaultImageMime
		}
		url = DataURLPrefix + mimeType + DataURLBase64 + image
	}
	return sdk.ChatMessagePart{
		Type: sdk.ChatMessagePartTypeImageURL,
		ImageURL: &sdk.ChatMessageImageURL{
			URL:    url,
			Detail: sdk.ImageURLDetailAuto,
		},
	}
}

// convertTools emits inline tools as functions in alias order
func (a *Adapter) convertTools(tools map[string]agentmark.ToolDefinition) ([]sdk.Tool, error) {
	normalized, err := agentmark.NormalizeTools(tools)
	if err != nil {
		return nil, err
	}

	out := make([]sdk.Tool, 0, len(normalized))
	for _, t := range normalized {
		if t.Kind == agentmark.ToolKindMCP {
			if !a.skipMCP {
				return nil, cuserr.WrapStdError(ErrUnsupported, ErrCodeAdapter, ErrMsgUnsupportedMCPTool).
					WithMetadata(MetaKeyTool, t.Alias)
			}
			a.logger.Debug(LogMsgToolSkipped, zap.String(LogFieldAlias, t.Alias), zap.String(LogFieldURI, t.URI))
			continue
		}
		out = append(out, sdk.Tool{
			Type: sdk.ToolTypeFunction,
			Function: &sdk.FunctionDefinition{
				Name:        t.Alias,
				Description: t.Inline.Description,
				Parameters:  t.Inline.Parameters,
			},
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func convertToolChoice(choice agentmark.ToolChoice) any {
	if choice.ToolName != "" {
		return sdk.ToolChoice{
			Type:     sdk.ToolTypeFunction,
			Function: sdk.ToolFunction{Name: choice.ToolName},
		}
	}
	return choice.Mode
}

// jsonSchema satisfies the json.Marshaler the response format expects
type jsonSchema map[string]any

func (s jsonSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(s))
}

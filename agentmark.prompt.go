package agentmark

import (
	"context"

	"go.uber.org/zap"
)

// Prompt is implemented by every prompt kind
type Prompt interface {
	Kind() PromptKind
	Template() *Node
	Path() string
	TestSettings() *TestSettings
	Format(ctx context.Context, props map[string]any, opts AdaptOptions) (any, error)
	FormatWithTestProps(ctx context.Context, opts AdaptOptions) (any, error)
	FormatWithDataset(ctx context.Context, opts AdaptOptions) (*DatasetStream, error)
}

var (
	_ Prompt = (*TextPrompt)(nil)
	_ Prompt = (*ObjectPrompt)(nil)
	_ Prompt = (*ImagePrompt)(nil)
	_ Prompt = (*SpeechPrompt)(nil)
)

// prompt holds what every prompt kind shares: the document, where it was
// loaded from, and the client that compiles and adapts it.
type prompt struct {
	client       *Client
	kind         PromptKind
	template     *Node
	path         string
	testSettings *TestSettings
}

func (p *prompt) compile(ctx context.Context, props map[string]any) (*Config, error) {
	if props == nil {
		props = map[string]any{}
	}
	return p.client.engine.CompileKind(ctx, p.template, p.kind, props)
}

func (p *prompt) metadata(props map[string]any) PromptMetadata {
	return PromptMetadata{Props: props, Path: p.path, Template: p.template}
}

func (p *prompt) dispatched() {
	p.client.logger.Debug(LogMsgAdapterDispatched,
		zap.String(LogFieldKind, string(p.kind)),
		zap.String(LogFieldPath, p.path),
		zap.String(LogFieldName, p.client.adapter.Name()))
}

// run formats props between the format hooks. A before_format hook may
// replace the props adapt receives.
func (p *prompt) run(ctx context.Context, props map[string]any, adapt func(map[string]any) (any, error)) (any, error) {
	data := NewHookData(p.path, p.kind)
	data.Template = p.template
	data.Props = props
	if err := p.client.hooks.Run(ctx, HookBeforeFormat, data); err != nil {
		return nil, err
	}
	data.Result, data.Error = adapt(data.Props)
	_ = p.client.hooks.Run(ctx, HookAfterFormat, data)
	return data.Result, data.Error
}

func (p *prompt) testProps() map[string]any {
	if p.testSettings == nil || p.testSettings.Props == nil {
		return map[string]any{}
	}
	return p.testSettings.Props
}

func (p *prompt) evals() []string {
	if p.testSettings == nil {
		return nil
	}
	return p.testSettings.Evals
}

// formatDataset checks the loader and dataset path before opening the
// dataset so misconfiguration fails before any row is produced.
func (p *prompt) formatDataset(ctx context.Context, opts AdaptOptions, format formatFunc) (*DatasetStream, error) {
	if p.client.loader == nil {
		return nil, NewConfigurationError(ErrMsgNoLoader)
	}
	path := opts.DatasetPath
	if path == "" && p.testSettings != nil {
		path = p.testSettings.Dataset
	}
	if path == "" {
		return nil, NewConfigurationError(ErrMsgNoDataset)
	}

	reader, err := p.client.loader.LoadDataset(ctx, path)
	if err != nil {
		return nil, err
	}
	return newDatasetStream(ctx, reader, format, opts, p.evals(), path, p.client.logger), nil
}

// Template returns the prompt document
func (p *prompt) Template() *Node {
	return p.template
}

// Path returns the loader path, or "" for prompts built from a document
func (p *prompt) Path() string {
	return p.path
}

// TestSettings returns the front matter test settings, or nil
func (p *prompt) TestSettings() *TestSettings {
	return p.testSettings
}

// Kind returns the prompt kind
func (p *prompt) Kind() PromptKind {
	return p.kind
}

// TextPrompt formats text prompts through the client adapter
type TextPrompt struct {
	prompt
}

// Compile returns the text configuration for props without adapting it
func (p *TextPrompt) Compile(ctx context.Context, props map[string]any) (*TextConfig, error) {
	cfg, err := p.compile(ctx, props)
	if err != nil {
		return nil, err
	}
	return cfg.Text, nil
}

// Format compiles the prompt with props and adapts the result.
func (p *TextPrompt) Format(ctx context.Context, props map[string]any, opts AdaptOptions) (any, error) {
	return p.run(ctx, props, func(props map[string]any) (any, error) {
		cfg, err := p.Compile(ctx, props)
		if err != nil {
			return nil, err
		}
		p.dispatched()
		return p.client.adapter.AdaptText(cfg, opts, p.metadata(props))
	})
}

// FormatWithTestProps formats with test_settings.props
func (p *TextPrompt) FormatWithTestProps(ctx context.Context, opts AdaptOptions) (any, error) {
	return p.Format(ctx, p.testProps(), opts)
}

// FormatWithDataset formats every row of the prompt's dataset
func (p *TextPrompt) FormatWithDataset(ctx context.Context, opts AdaptOptions) (*DatasetStream, error) {
	return p.formatDataset(ctx, opts, p.Format)
}

// ObjectPrompt formats structured-output prompts through the client adapter
type ObjectPrompt struct {
	prompt
}

// Compile returns the object configuration for props without adapting it
func (p *ObjectPrompt) Compile(ctx context.Context, props map[string]any) (*ObjectConfig, error) {
	cfg, err := p.compile(ctx, props)
	if err != nil {
		return nil, err
	}
	return cfg.Object, nil
}

// Format compiles the prompt with props and adapts the result.
func (p *ObjectPrompt) Format(ctx context.Context, props map[string]any, opts AdaptOptions) (any, error) {
	return p.run(ctx, props, func(props map[string]any) (any, error) {
		cfg, err := p.Compile(ctx, props)
		if err != nil {
			return nil, err
		}
		p.dispatched()
		return p.client.adapter.AdaptObject(cfg, opts, p.metadata(props))
	})
}

// FormatWithTestProps formats with test_settings.props
func (p *ObjectPrompt) FormatWithTestProps(ctx context.Context, opts AdaptOptions) (any, error) {
	return p.Format(ctx, p.testProps(), opts)
}

// FormatWithDataset formats every row of the prompt's dataset
func (p *ObjectPrompt) FormatWithDataset(ctx context.Context, opts AdaptOptions) (*DatasetStream, error) {
	return p.formatDataset(ctx, opts, p.Format)
}

// ImagePrompt formats image prompts through the client adapter
type ImagePrompt struct {
	prompt
}

// Compile returns the image configuration for props without adapting it
func (p *ImagePrompt) Compile(ctx context.Context, props map[string]any) (*ImageConfig, error) {
	cfg, err := p.compile(ctx, props)
	if err != nil {
		return nil, err
	}
	return cfg.Image, nil
}

// Format compiles the prompt with props and adapts the result.
func (p *ImagePrompt) Format(ctx context.Context, props map[string]any, opts AdaptOptions) (any, error) {
	return p.run(ctx, props, func(props map[string]any) (any, error) {
		cfg, err := p.Compile(ctx, props)
		if err != nil {
			return nil, err
		}
		p.dispatched()
		return p.client.adapter.AdaptImage(cfg, opts)
	})
}

// FormatWithTestProps formats with test_settings.props
func (p *ImagePrompt) FormatWithTestProps(ctx context.Context, opts AdaptOptions) (any, error) {
	return p.Format(ctx, p.testProps(), opts)
}

// FormatWithDataset formats every row of the prompt's dataset
func (p *ImagePrompt) FormatWithDataset(ctx context.Context, opts AdaptOptions) (*DatasetStream, error) {
	return p.formatDataset(ctx, opts, p.Format)
}

// SpeechPrompt formats speech prompts through the client adapter
type SpeechPrompt struct {
	prompt
}

// Compile returns the speech configuration for props without adapting it
func (p *SpeechPrompt) Compile(ctx context.Context, props map[string]any) (*SpeechConfig, error) {
	cfg, err := p.compile(ctx, props)
	if err != nil {
		return nil, err
	}
	return cfg.Speech, nil
}

// Format compiles the prompt with props and adapts the result.
func (p *SpeechPrompt) Format(ctx context.Context, props map[string]any, opts AdaptOptions) (any, error) {
	return p.run(ctx, props, func(props map[string]any) (any, error) {
		cfg, err := p.Compile(ctx, props)
		if err != nil {
			return nil, err
		}
		p.dispatched()
		return p.client.adapter.AdaptSpeech(cfg, opts)
	})
}

// FormatWithTestProps formats with test_settings.props
func (p *SpeechPrompt) FormatWithTestProps(ctx context.Context, opts AdaptOptions) (any, error) {
	return p.Format(ctx, p.testProps(), opts)
}

// FormatWithDataset formats every row of the prompt's dataset
func (p *SpeechPrompt) FormatWithDataset(ctx context.Context, opts AdaptOptions) (*DatasetStream, error) {
	return p.formatDataset(ctx, opts, p.Format)
}

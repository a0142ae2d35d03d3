package agentmark

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Client loads prompts and formats them through an adapter.
type Client struct {
	loader  Loader
	adapter Adapter
	engine  *Engine
	evals   *EvalRegistry
	hooks   *HookRegistry
	logger  *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLoader sets the loader prompts and datasets are read from
func WithLoader(loader Loader) ClientOption {
	return func(c *Client) {
		c.loader = loader
	}
}

// WithAdapter sets the adapter. The default passes configurations through.
func WithAdapter(adapter Adapter) ClientOption {
	return func(c *Client) {
		c.adapter = adapter
	}
}

// WithEngine sets the compilation engine
func WithEngine(engine *Engine) ClientOption {
	return func(c *Client) {
		c.engine = engine
	}
}

// WithEvalRegistry sets the eval registry
func WithEvalRegistry(evals *EvalRegistry) ClientOption {
	return func(c *Client) {
		c.evals = evals
	}
}

// WithHooks sets the hook registry run around loading and formatting
func WithHooks(hooks *HookRegistry) ClientOption {
	return func(c *Client) {
		c.hooks = hooks
	}
}

// WithClientLogger sets the client logger
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client. Without WithEngine it builds an engine that
// shares the client logger.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.adapter == nil {
		c.adapter = DefaultAdapter{}
	}
	if c.engine == nil {
		engine, err := New(WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.engine = engine
	}
	if c.evals == nil {
		c.evals = NewEvalRegistry(c.logger)
	}
	if c.hooks == nil {
		c.hooks = NewHookRegistry(c.logger)
	}
	return c, nil
}

// Loader returns the configured loader, or nil
func (c *Client) Loader() Loader { return c.loader }

// Adapter returns the configured adapter
func (c *Client) Adapter() Adapter { return c.adapter }

// Engine returns the compilation engine
func (c *Client) Engine() *Engine { return c.engine }

// Evals returns the eval registry
func (c *Client) Evals() *EvalRegistry { return c.evals }

// Hooks returns the hook registry
func (c *Client) Hooks() *HookRegistry { return c.hooks }

// LoadTextPrompt loads the text prompt at path.
func (c *Client) LoadTextPrompt(ctx context.Context, path string) (*TextPrompt, error) {
	p, err := c.load(ctx, path, KindText)
	if err != nil {
		return nil, err
	}
	return &TextPrompt{prompt: *p}, nil
}

// LoadObjectPrompt loads the object prompt at path.
func (c *Client) LoadObjectPrompt(ctx context.Context, path string) (*ObjectPrompt, error) {
	p, err := c.load(ctx, path, KindObject)
	if err != nil {
		return nil, err
	}
	return &ObjectPrompt{prompt: *p}, nil
}

// LoadImagePrompt loads the image prompt at path.
func (c *Client) LoadImagePrompt(ctx context.Context, path string) (*ImagePrompt, error) {
	p, err := c.load(ctx, path, KindImage)
	if err != nil {
		return nil, err
	}
	return &ImagePrompt{prompt: *p}, nil
}

// LoadSpeechPrompt loads the speech prompt at path.
func (c *Client) LoadSpeechPrompt(ctx context.Context, path string) (*SpeechPrompt, error) {
	p, err := c.load(ctx, path, KindSpeech)
	if err != nil {
		return nil, err
	}
	return &SpeechPrompt{prompt: *p}, nil
}

// LoadTextPromptFromDocument wraps an already parsed document.
func (c *Client) LoadTextPromptFromDocument(doc *Node) (*TextPrompt, error) {
	p, err := c.fromDocument(doc, "", KindText)
	if err != nil {
		return nil, err
	}
	return &TextPrompt{prompt: *p}, nil
}

// LoadObjectPromptFromDocument wraps an already parsed document.
func (c *Client) LoadObjectPromptFromDocument(doc *Node) (*ObjectPrompt, error) {
	p, err := c.fromDocument(doc, "", KindObject)
	if err != nil {
		return nil, err
	}
	return &ObjectPrompt{prompt: *p}, nil
}

// LoadImagePromptFromDocument wraps an already parsed document.
func (c *Client) LoadImagePromptFromDocument(doc *Node) (*ImagePrompt, error) {
	p, err := c.fromDocument(doc, "", KindImage)
	if err != nil {
		return nil, err
	}
	return &ImagePrompt{prompt: *p}, nil
}

// LoadSpeechPromptFromDocument wraps an already parsed document.
func (c *Client) LoadSpeechPromptFromDocument(doc *Node) (*SpeechPrompt, error) {
	p, err := c.fromDocument(doc, "", KindSpeech)
	if err != nil {
		return nil, err
	}
	return &SpeechPrompt{prompt: *p}, nil
}

func (c *Client) load(ctx context.Context, path string, kind PromptKind) (*prompt, error) {
	doc, err := c.loadDocument(ctx, path, kind)
	if err != nil {
		return nil, err
	}
	return c.fromDocument(doc, path, kind)
}

// loadDocument reads path from the loader between the load hooks.
func (c *Client) loadDocument(ctx context.Context, path string, kind PromptKind) (*Node, error) {
	if c.loader == nil {
		return nil, NewConfigurationError(ErrMsgNoLoader)
	}
	data := NewHookData(path, kind)
	if err := c.hooks.Run(ctx, HookBeforeLoad, data); err != nil {
		return nil, err
	}
	doc, err := c.loader.Load(ctx, path)
	data.Template = doc
	data.Error = err
	_ = c.hooks.Run(ctx, HookAfterLoad, data)
	return doc, err
}

// fromDocument validates the front matter and kind; the body is not
// compiled until the prompt is formatted.
func (c *Client) fromDocument(doc *Node, path string, kind PromptKind) (*prompt, error) {
	if doc == nil || doc.Type != NodeTypeRoot {
		return nil, NewTemplateError(ErrMsgInvalidDocument, nil)
	}
	fm, err := ReadFrontMatter(doc)
	if err != nil {
		return nil, err
	}
	if fm.Kind != kind {
		return nil, NewValidationError(kind.ConfigKey(), fmt.Sprintf(ErrMsgKindMismatchFmt, fm.Kind, kind))
	}

	c.logger.Debug(LogMsgPromptLoaded,
		zap.String(LogFieldPath, path),
		zap.String(LogFieldKind, string(kind)),
		zap.String(LogFieldName, fm.Name))

	return &prompt{
		client:       c,
		kind:         kind,
		template:     doc,
		path:         path,
		testSettings: fm.TestSettings,
	}, nil
}

// LoadPrompt loads the prompt at path as whatever kind its front matter
// declares.
func (c *Client) LoadPrompt(ctx context.Context, path string) (Prompt, error) {
	doc, err := c.loadDocument(ctx, path, "")
	if err != nil {
		return nil, err
	}
	return c.promptFor(doc, path)
}

// LoadPromptFromDocument wraps a parsed document as whatever kind its front
// matter declares.
func (c *Client) LoadPromptFromDocument(doc *Node) (Prompt, error) {
	return c.promptFor(doc, "")
}

func (c *Client) promptFor(doc *Node, path string) (Prompt, error) {
	if doc == nil || doc.Type != NodeTypeRoot {
		return nil, NewTemplateError(ErrMsgInvalidDocument, nil)
	}
	fm, err := ReadFrontMatter(doc)
	if err != nil {
		return nil, err
	}
	p, err := c.fromDocument(doc, path, fm.Kind)
	if err != nil {
		return nil, err
	}

	switch fm.Kind {
	case KindObject:
		return &ObjectPrompt{prompt: *p}, nil
	case KindImage:
		return &ImagePrompt{prompt: *p}, nil
	case KindSpeech:
		return &SpeechPrompt{prompt: *p}, nil
	default:
		return &TextPrompt{prompt: *p}, nil
	}
}

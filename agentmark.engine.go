package agentmark

import (
	"context"
	"fmt"
	"sort"

	"github.com/agentmark-ai/agentmark-sub003/internal"
	"go.uber.org/zap"
)

// Compilation states, logged at debug level as a compilation progresses
const (
	StateIdle                = "idle"
	StateTransforming        = "transforming"
	StateAwaitingExtractions = "awaiting_extractions"
	StateValidating          = "validating"
	StateDone                = "done"
	StateFailed              = "failed"
)

// Engine compiles prompt documents into configurations. An Engine is safe
// for concurrent use; every compilation gets its own state and shares only
// the read-only plugin and function registries.
type Engine struct {
	plugins *PluginRegistry
	funcs   *internal.FuncRegistry
	config  *engineConfig
	logger  *zap.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	plugins := NewPluginRegistry(logger)
	RegisterBuiltinPlugins(plugins)
	RegisterExtractionPlugins(plugins)

	names := make([]string, 0, len(config.plugins))
	for name := range config.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := plugins.Register(config.plugins[name], name); err != nil {
			return nil, err
		}
	}

	funcs := internal.NewFuncRegistry()
	internal.RegisterBuiltinFuncs(funcs)

	logger.Debug(LogMsgEngineCreated,
		zap.Int(LogFieldMaxDepth, config.maxDepth),
		zap.Int(LogFieldConcurrency, config.maxConcurrency))

	return &Engine{
		plugins: plugins,
		funcs:   funcs,
		config:  config,
		logger:  logger,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Logger returns the engine logger
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Plugins returns the engine's tag plugin registry
func (e *Engine) Plugins() *PluginRegistry {
	return e.plugins
}

// NewTransformer returns a transformer over scope using the engine's
// registries. It carries no compilation, so role tags fail under it.
func (e *Engine) NewTransformer(scope *Scope) *Transformer {
	return NewTransformer(e.plugins, e.funcs, scope, e.config.maxDepth)
}

// Compile compiles doc with props into the configuration its front matter
// declares. Compilation is all or nothing.
func (e *Engine) Compile(ctx context.Context, doc *Node, props map[string]any) (*Config, error) {
	return e.compile(ctx, doc, "", props)
}

// CompileKind compiles doc and fails with a validation error when its front
// matter declares a kind other than kind.
func (e *Engine) CompileKind(ctx context.Context, doc *Node, kind PromptKind, props map[string]any) (*Config, error) {
	return e.compile(ctx, doc, kind, props)
}

func (e *Engine) compile(ctx context.Context, doc *Node, want PromptKind, props map[string]any) (cfg *Config, err error) {
	e.logState(StateIdle)
	defer func() {
		if err != nil {
			e.logger.Debug(LogMsgCompileFailed, zap.Error(err))
			e.logState(StateFailed)
		}
	}()

	if doc == nil || doc.Type != NodeTypeRoot {
		return nil, NewTemplateError(ErrMsgInvalidDocument, nil)
	}
	fm, err := ReadFrontMatter(doc)
	if err != nil {
		return nil, err
	}
	if want != "" && fm.Kind != want {
		return nil, NewValidationError(want.ConfigKey(), fmt.Sprintf(ErrMsgKindMismatchFmt, fm.Kind, want))
	}

	e.logState(StateTransforming)
	comp := NewCompilationContext(ctx, e.config.maxConcurrency, e.logger)
	tr := e.NewTransformer(NewPropsScope(props)).WithCompilation(comp)
	_, transformErr := tr.TransformTree(ctx, doc)

	// tasks registered before a failure point come first in document order
	e.logState(StateAwaitingExtractions)
	fields, err := comp.Join()
	if err != nil {
		return nil, err
	}
	if transformErr != nil {
		return nil, transformErr
	}

	e.logState(StateValidating)
	cfg, err = assembleConfig(fm, fields)
	if err != nil {
		return nil, err
	}

	e.logState(StateDone)
	return cfg, nil
}

func (e *Engine) logState(state string) {
	e.logger.Debug(LogMsgCompileState, zap.String(LogFieldState, state))
}

// assembleConfig merges the extracted fields with the front matter settings
func assembleConfig(fm *FrontMatter, fields []ExtractedField) (*Config, error) {
	cfg := &Config{Kind: fm.Kind}

	switch fm.Kind {
	case KindImage:
		prompt, err := assemblePromptText(fields, KindImage, TagImagePrompt, "")
		if err != nil {
			return nil, err
		}
		var settings ImageSettings
		if err := fm.DecodeSettings(&settings); err != nil {
			return nil, err
		}
		settings.Prompt = prompt[TagImagePrompt]
		cfg.Image = &ImageConfig{
			Name:          fm.Name,
			Settings:      settings,
			TestSettings:  fm.TestSettings,
			AgentmarkMeta: fm.AgentmarkMeta,
		}

	case KindSpeech:
		texts, err := assemblePromptText(fields, KindSpeech, TagSpeechPrompt, TagSystem)
		if err != nil {
			return nil, err
		}
		var settings SpeechSettings
		if err := fm.DecodeSettings(&settings); err != nil {
			return nil, err
		}
		settings.Text = texts[TagSpeechPrompt]
		if instructions := texts[TagSystem]; instructions != "" {
			settings.Instructions = instructions
		}
		cfg.Speech = &SpeechConfig{
			Name:          fm.Name,
			Settings:      settings,
			TestSettings:  fm.TestSettings,
			AgentmarkMeta: fm.AgentmarkMeta,
		}

	case KindText, KindObject:
		messages, err := assembleMessages(fields, fm.Kind)
		if err != nil {
			return nil, err
		}
		if fm.Kind == KindText {
			var settings TextSettings
			if err := fm.DecodeSettings(&settings); err != nil {
				return nil, err
			}
			cfg.Text = &TextConfig{
				Name:          fm.Name,
				Messages:      messages,
				Settings:      settings,
				TestSettings:  fm.TestSettings,
				AgentmarkMeta: fm.AgentmarkMeta,
			}
			break
		}
		var settings ObjectSettings
		if err := fm.DecodeSettings(&settings); err != nil {
			return nil, err
		}
		cfg.Object = &ObjectConfig{
			Name:          fm.Name,
			Messages:      messages,
			Settings:      settings,
			TestSettings:  fm.TestSettings,
			AgentmarkMeta: fm.AgentmarkMeta,
		}
	}
	return cfg, nil
}

// assemblePromptText collects the primary tag, which must occur exactly
// once, and an optional secondary tag, which may occur at most once. Any
// other tag is invalid for the kind.
func assemblePromptText(fields []ExtractedField, kind PromptKind, primary, optional string) (map[string]string, error) {
	texts := make(map[string]string, 2)
	for _, field := range fields {
		if field.Name != primary && (optional == "" || field.Name != optional) {
			return nil, NewInvalidTagError(field.Name, kind)
		}
		if _, seen := texts[field.Name]; seen {
			return nil, NewDuplicateTagError(field.Name, kind)
		}
		texts[field.Name] = field.Content.Text
	}
	if _, ok := texts[primary]; !ok {
		return nil, NewMissingRequiredFieldError(
			fmt.Sprintf(ErrMsgMissingPromptTagFmt, primary, kind), primary, primary)
	}
	return texts, nil
}

var roleByTag = map[string]string{
	TagSystem:    RoleSystem,
	TagUser:      RoleUser,
	TagAssistant: RoleAssistant,
}

// assembleMessages turns fields into chat messages in registration order
func assembleMessages(fields []ExtractedField, kind PromptKind) ([]RichChatMessage, error) {
	messages := make([]RichChatMessage, 0, len(fields))
	for i, field := range fields {
		role, ok := roleByTag[field.Name]
		if !ok {
			return nil, NewInvalidTagError(field.Name, kind)
		}
		if role == RoleSystem && i > 0 {
			return nil, NewOrderingError(field.Content.Text)
		}
		messages = append(messages, RichChatMessage{Role: role, Content: field.Content})
	}
	if err := ValidateMessages(messages); err != nil {
		return nil, err
	}
	return messages, nil
}

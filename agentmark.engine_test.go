package agentmark

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const tutorTemplate = `---
name: math-tutor
text_config:
  model_name: gpt-4o
  temperature: 0.7
---
<System>You are a helpful math tutor.</System>
<User>{props.userMessage}</User>
<Assistant>Here's your answer!</Assistant>
`

const attachmentsTemplate = `---
name: attachments
text_config:
  model_name: gpt-4o
---
<User>
hello!!!! {props.userMessage}
<ImageAttachment image={props.imageLink} />
<FileAttachment data="https://example.com/document.pdf" mimeType={props.fileMimeType} />
<ForEach arr={props.loopTypes}>
{(mime) => (
<ImageAttachment image="https://example.com/loop.png" mimeType={mime} />
)}
</ForEach>
</User>
`

func compileSource(t *testing.T, engine *Engine, source string, props map[string]any) (*Config, error) {
	t.Helper()
	doc, err := ParseDocument(source)
	require.NoError(t, err)
	return engine.Compile(context.Background(), doc, props)
}

func TestCompile_BasicText(t *testing.T) {
	cfg, err := compileSource(t, MustNew(), tutorTemplate, map[string]any{
		"userMessage": "What is the sum of 5 and 3?",
	})
	require.NoError(t, err)
	require.Equal(t, KindText, cfg.Kind)

	want := []RichChatMessage{
		{Role: RoleSystem, Content: PlainContent("You are a helpful math tutor.")},
		{Role: RoleUser, Content: PlainContent("What is the sum of 5 and 3?")},
		{Role: RoleAssistant, Content: PlainContent("Here's your answer!")},
	}
	assert.Equal(t, want, cfg.Text.Messages)
	assert.Equal(t, "math-tutor", cfg.Text.Name)
	assert.Equal(t, "gpt-4o", cfg.Text.Settings.ModelName)
	require.NotNil(t, cfg.Text.Settings.Temperature)
	assert.InDelta(t, 0.7, *cfg.Text.Settings.Temperature, 1e-9)
}

func TestCompile_AttachmentOrdering(t *testing.T) {
	cfg, err := compileSource(t, MustNew(), attachmentsTemplate, map[string]any{
		"userMessage":  "Take a look at those attachments.",
		"fileMimeType": "application/pdf",
		"imageLink":    "https://example.com/image.png",
		"loopTypes":    []any{"image/jpeg", "image/png"},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Text.Messages, 1)

	content := cfg.Text.Messages[0].Content
	require.True(t, content.IsMultipart())
	want := []ContentPart{
		TextPart("hello!!!! Take a look at those attachments."),
		ImagePart("https://example.com/image.png", ""),
		FilePart("https://example.com/document.pdf", "application/pdf"),
		ImagePart("https://example.com/loop.png", "image/jpeg"),
		ImagePart("https://example.com/loop.png", "image/png"),
	}
	assert.Equal(t, want, content.Parts)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		props   map[string]any
		wantErr error
		message string
	}{
		{
			name: "attachment outside user",
			source: `---
name: bad
text_config:
  model_name: gpt-4o
---
<ImageAttachment image="a.png" />
<User>hi</User>
`,
			wantErr: ErrPlacement,
			message: ErrMsgAttachmentPlacement,
		},
		{
			name: "image attachment without image",
			source: `---
name: bad
text_config:
  model_name: gpt-4o
---
<User>hi <ImageAttachment mimeType="image/png" /></User>
`,
			wantErr: ErrMissingRequiredField,
			message: ErrMsgImageAttachmentProp,
		},
		{
			name: "file attachment without mime type",
			source: `---
name: bad
text_config:
  model_name: gpt-4o
---
<User>hi <FileAttachment data="x.pdf" /></User>
`,
			wantErr: ErrMissingRequiredField,
			message: ErrMsgFileAttachmentProps,
		},
		{
			name: "system after user",
			source: `---
name: bad
text_config:
  model_name: gpt-4o
---
<User>hi</User>
<System>late</System>
`,
			wantErr: ErrOrdering,
			message: "System message may only be the first message: late",
		},
		{
			name: "nested role tags",
			source: `---
name: bad
text_config:
  model_name: gpt-4o
---
<User>outer <Assistant>inner</Assistant></User>
`,
			wantErr: ErrInvalidTag,
			message: "Role tag <Assistant> cannot be nested inside <User>.",
		},
		{
			name: "no messages",
			source: `---
name: bad
text_config:
  model_name: gpt-4o
---
Just some text.
`,
			wantErr: ErrValidation,
			message: ErrMsgNoMessages,
		},
		{
			name: "image prompt in text config",
			source: `---
name: bad
text_config:
  model_name: gpt-4o
---
<ImagePrompt>a cat</ImagePrompt>
`,
			wantErr: ErrInvalidTag,
			message: `Invalid role tag: "ImagePrompt" in config type: text_config.`,
		},
		{
			name: "missing image prompt",
			source: `---
name: bad
image_config:
  model_name: dall-e-3
---
Nothing here.
`,
			wantErr: ErrMissingRequiredField,
			message: "ImagePrompt tag not found in image prompt.",
		},
		{
			name: "image with speech prompt",
			source: `---
name: bad
image_config:
  model_name: dall-e-3
---
<ImagePrompt>a cat</ImagePrompt>
<SpeechPrompt>meow</SpeechPrompt>
`,
			wantErr: ErrInvalidTag,
			message: "SpeechPrompt",
		},
		{
			name: "image with system",
			source: `---
name: bad
image_config:
  model_name: dall-e-3
---
<System>be artsy</System>
<ImagePrompt>a cat</ImagePrompt>
`,
			wantErr: ErrInvalidTag,
			message: "System",
		},
		{
			name: "duplicate speech prompt",
			source: `---
name: bad
speech_config:
  model_name: tts-1
---
<SpeechPrompt>one</SpeechPrompt>
<SpeechPrompt>two</SpeechPrompt>
`,
			wantErr: ErrInvalidTag,
			message: "Only one SpeechPrompt tag is allowed in speech prompt.",
		},
		{
			name: "missing front matter config",
			source: `---
name: bad
---
<User>hi</User>
`,
			wantErr: ErrValidation,
			message: ErrMsgMissingKindConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, MustNew(), tt.source, tt.props)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCompile_AttachmentPlacement(t *testing.T) {
	const header = "---\nname: bad\ntext_config:\n  model_name: gpt-4o\n---\n"

	tests := []struct {
		name string
		body string
	}{
		{name: "nested in unknown elements", body: `<Foo><Bar><ImageAttachment image="a.png" /></Bar></Foo>
<User>hi</User>`},
		{name: "inside assistant", body: `<User>hi</User>
<Assistant>ok <ImageAttachment image="a.png" /></Assistant>`},
		{name: "inside system", body: `<System>sys <FileAttachment data="a.pdf" mimeType="application/pdf" /></System>
<User>hi</User>`},
		{name: "file attachment at top level", body: `<FileAttachment data="a.pdf" mimeType="application/pdf" />
<User>hi</User>`},
		{name: "inside control flow", body: `<If condition={true}><Foo><ImageAttachment image="a.png" /></Foo></If>
<User>hi</User>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, MustNew(), header+tt.body+"\n", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPlacement)
			assert.Contains(t, err.Error(), TagImageAttachment)
			assert.Contains(t, err.Error(), TagFileAttachment)
			assert.Contains(t, err.Error(), TagUser)
		})
	}
}

func TestCompile_AttachmentPlaceholders(t *testing.T) {
	const header = "---\nname: placeholders\ntext_config:\n  model_name: gpt-4o\n---\n"

	t.Run("empty strings are kept", func(t *testing.T) {
		source := header + `<User>hi<ImageAttachment image="" /><FileAttachment data="" mimeType="" /></User>` + "\n"
		cfg, err := compileSource(t, MustNew(), source, nil)
		require.NoError(t, err)

		content := cfg.Text.Messages[0].Content
		require.True(t, content.IsMultipart())
		assert.Equal(t, []ContentPart{
			TextPart("hi"),
			ImagePart("", ""),
			FilePart("", ""),
		}, content.Parts)
	})

	t.Run("empty string from props is kept", func(t *testing.T) {
		source := header + `<User>hi<ImageAttachment image={props.link} /></User>` + "\n"
		cfg, err := compileSource(t, MustNew(), source, map[string]any{"link": ""})
		require.NoError(t, err)
		assert.Equal(t, ImagePart("", ""), cfg.Text.Messages[0].Content.Parts[1])
	})

	missing := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "undefined image",
			body:    `<User>hi<ImageAttachment image={props.nope} /></User>`,
			message: ErrMsgImageAttachmentProp,
		},
		{
			name:    "null image",
			body:    `<User>hi<ImageAttachment image={null} /></User>`,
			message: ErrMsgImageAttachmentProp,
		},
		{
			name:    "undefined file data",
			body:    `<User>hi<FileAttachment data={props.nope} mimeType="application/pdf" /></User>`,
			message: ErrMsgFileAttachmentProps,
		},
		{
			name:    "undefined file mime type",
			body:    `<User>hi<FileAttachment data="a.pdf" mimeType={props.nope} /></User>`,
			message: ErrMsgFileAttachmentProps,
		},
	}
	for _, tt := range missing {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, MustNew(), header+tt.body+"\n", map[string]any{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingRequiredField)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCompile_ImagePrompt(t *testing.T) {
	source := `---
name: cat-picture
image_config:
  model_name: dall-e-3
  num_images: 2
  size: 1024x1024
---
<ImagePrompt>A {props.color} cat on a sofa</ImagePrompt>
`
	cfg, err := compileSource(t, MustNew(), source, map[string]any{"color": "ginger"})
	require.NoError(t, err)
	require.Equal(t, KindImage, cfg.Kind)

	assert.Equal(t, "A ginger cat on a sofa", cfg.Image.Settings.Prompt)
	assert.Equal(t, "1024x1024", cfg.Image.Settings.Size)
	require.NotNil(t, cfg.Image.Settings.NumImages)
	assert.Equal(t, 2, *cfg.Image.Settings.NumImages)
}

func TestCompile_SpeechPrompt(t *testing.T) {
	source := `---
name: narrator
speech_config:
  model_name: tts-1
  voice: alloy
---
<System>Speak slowly.</System>
<SpeechPrompt>Once upon a time.</SpeechPrompt>
`
	cfg, err := compileSource(t, MustNew(), source, nil)
	require.NoError(t, err)
	require.Equal(t, KindSpeech, cfg.Kind)

	assert.Equal(t, "Once upon a time.", cfg.Speech.Settings.Text)
	assert.Equal(t, "Speak slowly.", cfg.Speech.Settings.Instructions)
	assert.Equal(t, "alloy", cfg.Speech.Settings.Voice)
}

func TestCompile_ObjectPrompt(t *testing.T) {
	source := `---
name: extractor
object_config:
  model_name: gpt-4o
  schema:
    type: object
    properties:
      answer:
        type: string
---
<System>Extract the answer.</System>
<User>{props.question}</User>
`
	cfg, err := compileSource(t, MustNew(), source, map[string]any{"question": "2+2?"})
	require.NoError(t, err)
	require.Equal(t, KindObject, cfg.Kind)

	assert.Equal(t, "object", cfg.Object.Settings.Schema["type"])
	require.Len(t, cfg.Object.Messages, 2)
	assert.Equal(t, "2+2?", cfg.Object.Messages[1].Content.Text)
}

func TestCompileKind_Mismatch(t *testing.T) {
	doc := MustParseDocument(tutorTemplate)

	_, err := MustNew().CompileKind(context.Background(), doc, KindObject, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "prompt declares text config but object was requested")
}

func TestCompile_InvalidDocument(t *testing.T) {
	_, err := MustNew().Compile(context.Background(), NewText("loose"), nil)
	assert.ErrorIs(t, err, ErrTemplate)

	_, err = MustNew().Compile(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrTemplate)
}

func TestCompile_ControlFlow(t *testing.T) {
	source := `---
name: flow
text_config:
  model_name: gpt-4o
---
<User>
<If condition={props.level == "beginner"}>Keep it simple.</If>
<ElseIf condition={props.level == "expert"}>Go deep.</ElseIf>
<Else>Be balanced.</Else>
<ForEach arr={props.topics}>
{(topic, i) => (
<Raw>[{i}] {topic}</Raw>
)}
</ForEach>
</User>
`
	tests := []struct {
		level string
		want  string
	}{
		{"beginner", "Keep it simple."},
		{"expert", "Go deep."},
		{"other", "Be balanced."},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg, err := compileSource(t, MustNew(), source, map[string]any{
				"level":  tt.level,
				"topics": []any{"sums"},
			})
			require.NoError(t, err)
			text := cfg.Text.Messages[0].Content.Text
			assert.Contains(t, text, tt.want)
			assert.Contains(t, text, "[{i}] {topic}")
		})
	}
}

func TestCompile_UndefinedMemberRendersEmpty(t *testing.T) {
	source := `---
name: missing
text_config:
  model_name: gpt-4o
---
<User>Hello {props.user.name}!</User>
`
	cfg, err := compileSource(t, MustNew(), source, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Hello !", cfg.Text.Messages[0].Content.Text)
}

// delayPlugin sleeps for its ms attribute before rendering its children
func delayPlugin() TagPlugin {
	return TagPluginFunc(func(ctx context.Context, props map[string]any, children []*Node, pctx *PluginContext) ([]*Node, error) {
		ms, _ := strconv.Atoi(props["ms"].(string))
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return pctx.NewTransformer(pctx.Scope).TransformChildren(ctx, children)
	})
}

func TestCompile_ResultsKeepDocumentOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := `---
name: ordering
text_config:
  model_name: gpt-4o
---
<System><Delay ms="40">first</Delay></System>
<User><Delay ms="25">second</Delay></User>
<Assistant><Delay ms="10">third</Delay></Assistant>
<User><Delay ms="0">fourth</Delay></User>
`
	for _, limit := range []int{0, 1, 2} {
		t.Run("limit "+strconv.Itoa(limit), func(t *testing.T) {
			engine := MustNew(WithTagPlugin("Delay", delayPlugin()), WithMaxConcurrency(limit))
			cfg, err := compileSource(t, engine, source, nil)
			require.NoError(t, err)

			var got []string
			for _, msg := range cfg.Text.Messages {
				got = append(got, msg.Content.Text)
			}
			assert.Equal(t, []string{"first", "second", "third", "fourth"}, got)
		})
	}
}

func TestCompile_TaskErrorWinsOverLaterTransformError(t *testing.T) {
	fail := TagPluginFunc(func(context.Context, map[string]any, []*Node, *PluginContext) ([]*Node, error) {
		return nil, errors.New("boom")
	})
	source := `---
name: precedence
text_config:
  model_name: gpt-4o
---
<User>hi <ImageAttachment /></User>
<Fail />
`
	engine := MustNew(WithTagPlugin("Fail", fail))
	_, err := compileSource(t, engine, source, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestCompile_TransformErrorWithoutTaskErrors(t *testing.T) {
	boom := errors.New("boom")
	fail := TagPluginFunc(func(context.Context, map[string]any, []*Node, *PluginContext) ([]*Node, error) {
		return nil, boom
	})
	source := `---
name: precedence
text_config:
  model_name: gpt-4o
---
<User>hi</User>
<Fail />
`
	engine := MustNew(WithTagPlugin("Fail", fail))
	_, err := compileSource(t, engine, source, nil)
	assert.ErrorIs(t, err, boom)
}

func TestCompile_Idempotent(t *testing.T) {
	engine := MustNew()
	props := map[string]any{
		"userMessage":  "Take a look at those attachments.",
		"fileMimeType": "application/pdf",
		"imageLink":    "https://example.com/image.png",
		"loopTypes":    []any{"image/jpeg", "image/png"},
	}

	first, err := compileSource(t, engine, attachmentsTemplate, props)
	require.NoError(t, err)
	second, err := compileSource(t, engine, attachmentsTemplate, props)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("compilations differ (-first +second):\n%s", diff)
	}
}

func TestCompile_ConcurrentCallsShareEngine(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := MustNew()
	doc := MustParseDocument(tutorTemplate)

	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func(i int) {
			msg := "question " + strconv.Itoa(i)
			cfg, err := engine.Compile(context.Background(), doc, map[string]any{"userMessage": msg})
			if err == nil && cfg.Text.Messages[1].Content.Text != msg {
				err = errors.New("props leaked between compilations")
			}
			errs <- err
		}(i)
	}
	for i := 0; i < 16; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestCompile_MaxDepth(t *testing.T) {
	source := `---
name: deep
text_config:
  model_name: gpt-4o
---
<User><Box><Box><Box>deep</Box></Box></Box></User>
`
	_, err := compileSource(t, MustNew(WithMaxDepth(3)), source, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgMaxDepthExceeded)
}

func TestCompile_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MustNew().Compile(ctx, MustParseDocument(tutorTemplate), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompile_LogsStateTransitions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := MustNew(WithLogger(zap.New(core)))

	_, err := compileSource(t, engine, tutorTemplate, map[string]any{"userMessage": "hi"})
	require.NoError(t, err)

	var states []string
	for _, entry := range logs.FilterMessage(LogMsgCompileState).All() {
		states = append(states, entry.ContextMap()[LogFieldState].(string))
	}
	assert.Equal(t, []string{StateIdle, StateTransforming, StateAwaitingExtractions, StateValidating, StateDone}, states)
	assert.Equal(t, 3, logs.FilterMessage(LogMsgTaskRegistered).Len())
}

func TestCompile_LogsFailedState(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := MustNew(WithLogger(zap.New(core)))

	_, err := compileSource(t, engine, `---
name: bad
text_config:
  model_name: gpt-4o
---
<User>hi</User>
<System>late</System>
`, nil)
	require.Error(t, err)

	entries := logs.FilterMessage(LogMsgCompileState).All()
	require.NotEmpty(t, entries)
	assert.Equal(t, StateFailed, entries[len(entries)-1].ContextMap()[LogFieldState])
	assert.Equal(t, 1, logs.FilterMessage(LogMsgCompileFailed).Len())
}

func TestNew_DuplicatePluginName(t *testing.T) {
	_, err := New(WithTagPlugin(TagUser, delayPlugin()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgPluginExists)
}

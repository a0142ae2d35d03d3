package agentmark

// Version is the library version reported by the CLI
const Version = "0.4.0"

// Node type constants (mdast / mdx vocabulary)
const (
	NodeTypeRoot               = "root"
	NodeTypeYAML               = "yaml"
	NodeTypeText               = "text"
	NodeTypeParagraph          = "paragraph"
	NodeTypeHeading            = "heading"
	NodeTypeList               = "list"
	NodeTypeListItem           = "listItem"
	NodeTypeBreak              = "break"
	NodeTypeThematicBreak      = "thematicBreak"
	NodeTypeCode               = "code"
	NodeTypeInlineCode         = "inlineCode"
	NodeTypeEmphasis           = "emphasis"
	NodeTypeStrong             = "strong"
	NodeTypeBlockquote         = "blockquote"
	NodeTypeJSXFlowElement     = "mdxJsxFlowElement"
	NodeTypeJSXTextElement     = "mdxJsxTextElement"
	NodeTypeFlowExpression     = "mdxFlowExpression"
	NodeTypeTextExpression     = "mdxTextExpression"
	AttrTypeJSXAttribute       = "mdxJsxAttribute"
	AttrTypeJSXExpressionAttr  = "mdxJsxExpressionAttribute"
	AttrTypeJSXValueExpression = "mdxJsxAttributeValueExpression"
)

// Fragment element names treated like an empty name
const (
	FragmentName      = "Fragment"
	ReactFragmentName = "React.Fragment"
)

// Extraction tag names
const (
	TagSystem          = "System"
	TagUser            = "User"
	TagAssistant       = "Assistant"
	TagImagePrompt     = "ImagePrompt"
	TagSpeechPrompt    = "SpeechPrompt"
	TagImageAttachment = "ImageAttachment"
	TagFileAttachment  = "FileAttachment"
)

// Control tag names
const (
	TagIf      = "If"
	TagElseIf  = "ElseIf"
	TagElse    = "Else"
	TagForEach = "ForEach"
	TagRaw     = "Raw"
)

// Tag attribute names
const (
	AttrCondition = "condition"
	AttrArr       = "arr"
	AttrImage     = "image"
	AttrData      = "data"
	AttrMimeType  = "mimeType"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content part types
const (
	PartTypeText  = "text"
	PartTypeImage = "image"
	PartTypeFile  = "file"
)

// Front matter and configuration keys
const (
	KeyName          = "name"
	KeyMessages      = "messages"
	KeyTextConfig    = "text_config"
	KeyObjectConfig  = "object_config"
	KeyImageConfig   = "image_config"
	KeySpeechConfig  = "speech_config"
	KeyTestSettings  = "test_settings"
	KeyAgentmarkMeta = "agentmark_meta"
	KeyModelName     = "model_name"
	KeyProps         = "props"
	KeyDataset       = "dataset"
	KeyEvals         = "evals"
	KeyPrompt        = "prompt"
	KeyText          = "text"
	KeyInstructions  = "instructions"
	KeySchema        = "schema"
	KeyTools         = "tools"
	KeyToolChoice    = "tool_choice"
	KeyFrontMatter   = "front_matter"
)

// Scope keys
const (
	// ScopeKeyConditionMet records whether an If/ElseIf branch in the current scope matched
	ScopeKeyConditionMet = "__condition_met"
)

// Source format constants
const (
	FrontMatterDelimiter = "---"
	ArrowToken           = "=>"
	JSONExtension        = ".json"
	JSONLExtension       = ".jsonl"
)

// Markdown serialization constants
const (
	MarkdownBlockSeparator = "\n\n"
	MarkdownLineBreak      = "\n"
	MarkdownListBullet     = "- "
	MarkdownHeadingMark    = "#"
	MarkdownCodeFence      = "```"
	MarkdownInlineCode     = "`"
	MarkdownEmphasis       = "*"
	MarkdownStrong         = "**"
	MarkdownThematicBreak  = "---"
	MarkdownQuotePrefix    = "> "
)

// Engine defaults
const (
	DefaultMaxDepth       = 100
	DefaultMaxConcurrency = 0 // unlimited
)

// Log messages
const (
	LogMsgEngineCreated     = "agentmark engine created"
	LogMsgCompileState      = "compilation state"
	LogMsgTaskRegistered    = "extraction task registered"
	LogMsgTasksJoined       = "extraction tasks joined"
	LogMsgCompileFailed     = "compilation failed"
	LogMsgPromptLoaded      = "prompt loaded"
	LogMsgDatasetRowFailed  = "dataset row formatting failed"
	LogMsgDatasetStarted    = "dataset stream started"
	LogMsgDatasetFinished   = "dataset stream finished"
	LogMsgLoaderOpened      = "loader opened"
	LogMsgLoaderClosed      = "loader closed"
	LogMsgMigrationApplied  = "loader migration applied"
	LogMsgWatcherStarted    = "watcher started"
	LogMsgWatcherEvent      = "template changed"
	LogMsgWatcherError      = "watcher error"
	LogMsgEvalRegistered    = "eval registered"
	LogMsgTemplateParsed    = "template parsed"
	LogMsgEnvInterpolated   = "environment value interpolated"
	LogMsgEnvMissing        = "environment variable not set"
	LogMsgAdapterDispatched = "prompt dispatched to adapter"
	LogMsgPluginRegistered  = "tag plugin registered"
	LogMsgHookFailed        = "hook failed"
	LogMsgHookPoint         = "hook point reached"
)

// Log field keys
const (
	LogFieldState       = "state"
	LogFieldKind        = "kind"
	LogFieldTag         = "tag"
	LogFieldIndex       = "index"
	LogFieldTasks       = "task_count"
	LogFieldPath        = "path"
	LogFieldName        = "name"
	LogFieldRow         = "row"
	LogFieldRunID       = "run_id"
	LogFieldDriver      = "driver"
	LogFieldEvent       = "event"
	LogFieldVariable    = "variable"
	LogFieldVersion     = "version"
	LogFieldMessages    = "message_count"
	LogFieldMaxDepth    = "max_depth"
	LogFieldConcurrency = "max_concurrency"
	LogFieldHook        = "hook"
)

// Metadata keys attached to errors
const (
	MetaKeyTag      = "tag"
	MetaKeyField    = "field"
	MetaKeyKind     = "kind"
	MetaKeyPath     = "path"
	MetaKeyLine     = "line"
	MetaKeyColumn   = "column"
	MetaKeyDriver   = "driver"
	MetaKeyExpected = "expected"
	MetaKeyActual   = "actual"
	MetaKeyVariable = "variable"
	MetaKeyURI      = "uri"
	MetaKeyDepth    = "max_depth"
	MetaKeyHook     = "hook"
)

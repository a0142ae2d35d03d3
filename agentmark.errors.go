package agentmark

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
)

// Sentinel errors for matching error categories with errors.Is
var (
	ErrPlacement            = errors.New("placement error")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrOrdering             = errors.New("ordering error")
	ErrInvalidTag           = errors.New("invalid tag")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrTemplate             = errors.New("template error")
	ErrNotFound             = errors.New("not found")
	ErrLoaderClosed         = errors.New("loader closed")
	ErrHook                 = errors.New("hook error")
)

// Error message constants
const (
	// Extraction errors
	ErrMsgAttachmentPlacement   = "ImageAttachment and FileAttachment tags must be inside User tag."
	ErrMsgImageAttachmentProp   = "ImageAttachment must contain an image prop"
	ErrMsgFileAttachmentProps   = "FileAttachment must contain data and mimeType props"
	ErrMsgSystemNotFirstFmt     = "System message may only be the first message: %s"
	ErrMsgInvalidRoleTagFmt     = "Invalid role tag: %q in config type: %s."
	ErrMsgNestedRoleTagFmt      = "Role tag <%s> cannot be nested inside <%s>."
	ErrMsgMissingPromptTagFmt   = "%s tag not found in %s prompt."
	ErrMsgDuplicatePromptTagFmt = "Only one %s tag is allowed in %s prompt."
	ErrMsgNoMessages            = "Prompt must contain at least one message."

	// Template errors
	ErrMsgTemplateParse       = "template parsing failed"
	ErrMsgExpressionFmt       = "Error evaluating expression %q"
	ErrMsgUnsupportedAttrFmt  = "Unsupported attribute type in component <%s>."
	ErrMsgForEachChild        = "ForEach expects exactly one child function."
	ErrMsgForEachParamsFmt    = "ForEach function accepts at most two parameters, got %d."
	ErrMsgMaxDepthExceeded    = "maximum transform depth exceeded"
	ErrMsgPluginExists        = "tag plugin already registered"
	ErrMsgNilPlugin           = "tag plugin cannot be nil"
	ErrMsgInvalidDocument     = "document root must be a root node"
	ErrMsgDocumentDecode      = "failed to decode document JSON"
	ErrMsgUnterminatedFront   = "front matter is missing its closing delimiter"
	ErrMsgFrontMatterDecode   = "failed to decode front matter YAML"
	ErrMsgFrontMatterNotAMap  = "front matter must be a mapping"
	ErrMsgNoCompilation       = "role tags can only be used while compiling a prompt"

	// Validation errors
	ErrMsgMissingKindConfig   = "front matter must declare one of text_config, object_config, image_config or speech_config"
	ErrMsgMultipleKindConfigs = "front matter declares more than one prompt config"
	ErrMsgKindMismatchFmt     = "prompt declares %s config but %s was requested"
	ErrMsgUnknownField        = "unknown field"
	ErrMsgRequiredField       = "field is required"
	ErrMsgFieldTypeFmt        = "expected %s"
	ErrMsgFieldPatternFmt     = "must match %s"
	ErrMsgFieldEnumFmt        = "must be one of %s"
	ErrMsgFieldEmpty          = "must not be empty"
	ErrMsgValidationFmt       = "invalid %s: %s"

	// Configuration errors
	ErrMsgNoLoader           = "a loader is required to read datasets"
	ErrMsgNoDataset          = "no dataset path in options or test_settings"
	ErrMsgNoAdapter          = "adapter is not configured"
	ErrMsgUnknownKind        = "unknown prompt kind"
	ErrMsgDatasetRowFmt      = "dataset row %d is not a JSON object with input"
	ErrMsgEnvVarMissing      = "environment variable is not set"
	ErrMsgInvalidMCPURI      = "invalid MCP URI"
	ErrMsgNilEval            = "eval function is nil"
	ErrMsgEvalNotFound       = "eval not found"
	ErrMsgInvalidEvalName    = "eval name cannot be empty"
	ErrMsgLoaderDriverFmt    = "unknown loader driver %q"
	ErrMsgLoaderOpen         = "failed to open loader"
	ErrMsgLoaderRead         = "failed to read from loader"
	ErrMsgLoaderWrite        = "failed to write to loader"
	ErrMsgPathEscapesBase    = "path escapes the loader base directory"
	ErrMsgPromptNotFound     = "prompt not found"
	ErrMsgDatasetNotFound    = "dataset not found"
	ErrMsgLoaderIsClosed     = "loader is closed"
	ErrMsgMigrationFailed    = "loader migration failed"
	ErrMsgWatcherFailed      = "failed to start watcher"
	ErrMsgEmptyPromptPath    = "prompt path cannot be empty"
	ErrMsgInvalidPromptValue = "prompt value is not a valid document"
	ErrMsgHookFailed         = "hook execution failed"
	ErrMsgNilHook            = "hook cannot be nil"
)

// Error code constants for categorization
const (
	ErrCodePlacement     = "AGENTMARK_PLACEMENT"
	ErrCodeMissingField  = "AGENTMARK_MISSING_FIELD"
	ErrCodeOrdering      = "AGENTMARK_ORDERING"
	ErrCodeInvalidTag    = "AGENTMARK_INVALID_TAG"
	ErrCodeValidation    = "AGENTMARK_VALIDATION"
	ErrCodeConfiguration = "AGENTMARK_CONFIGURATION"
	ErrCodeTemplate      = "AGENTMARK_TEMPLATE"
	ErrCodeLoader        = "AGENTMARK_LOADER"
	ErrCodeRegistry      = "AGENTMARK_REGISTRY"
	ErrCodeHook          = "AGENTMARK_HOOK"
)

// NewPlacementError reports an attachment tag used outside a User message
func NewPlacementError(tagName string) error {
	return cuserr.WrapStdError(ErrPlacement, ErrCodePlacement, ErrMsgAttachmentPlacement).
		WithMetadata(MetaKeyTag, tagName)
}

// NewMissingRequiredFieldError reports a required tag, prop or field that is absent
func NewMissingRequiredFieldError(message, tagName, field string) error {
	return cuserr.WrapStdError(ErrMissingRequiredField, ErrCodeMissingField, message).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyField, field)
}

// NewOrderingError reports a System message that is not the first message
func NewOrderingError(content string) error {
	return cuserr.WrapStdError(ErrOrdering, ErrCodeOrdering, fmt.Sprintf(ErrMsgSystemNotFirstFmt, content)).
		WithMetadata(MetaKeyTag, TagSystem)
}

// NewInvalidTagError reports a tag that is not allowed for the prompt kind
func NewInvalidTagError(tagName string, kind PromptKind) error {
	return cuserr.WrapStdError(ErrInvalidTag, ErrCodeInvalidTag, fmt.Sprintf(ErrMsgInvalidRoleTagFmt, tagName, kind.ConfigKey())).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyKind, string(kind))
}

// NewDuplicateTagError reports a prompt tag that may occur only once
func NewDuplicateTagError(tagName string, kind PromptKind) error {
	return cuserr.WrapStdError(ErrInvalidTag, ErrCodeInvalidTag, fmt.Sprintf(ErrMsgDuplicatePromptTagFmt, tagName, kind)).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyKind, string(kind))
}

// NewNestedRoleTagError reports a role tag placed inside another role tag
func NewNestedRoleTagError(tagName, parent string) error {
	return cuserr.WrapStdError(ErrInvalidTag, ErrCodeInvalidTag, fmt.Sprintf(ErrMsgNestedRoleTagFmt, tagName, parent)).
		WithMetadata(MetaKeyTag, tagName)
}

// NewValidationError reports a malformed configuration field by dotted path
func NewValidationError(field, reason string) error {
	return cuserr.WrapStdError(ErrValidation, ErrCodeValidation, fmt.Sprintf(ErrMsgValidationFmt, field, reason)).
		WithMetadata(MetaKeyField, field)
}

// NewConfigurationError reports a missing collaborator or setting outside the template
func NewConfigurationError(message string) error {
	return cuserr.WrapStdError(ErrConfiguration, ErrCodeConfiguration, message)
}

// NewTemplateError wraps a failure raised while parsing or transforming a template
func NewTemplateError(message string, cause error) error {
	wrapped := ErrTemplate
	text := message
	if cause != nil {
		wrapped = errors.Join(ErrTemplate, cause)
		text = message + ": " + cause.Error()
	}
	return cuserr.WrapStdError(wrapped, ErrCodeTemplate, text)
}

// NewTemplateTagError wraps a template failure attributed to a tag
func NewTemplateTagError(message, tagName string) error {
	return cuserr.WrapStdError(ErrTemplate, ErrCodeTemplate, message).
		WithMetadata(MetaKeyTag, tagName)
}

// NewSourceError wraps a positioned template source error
func NewSourceError(line, column int, cause error) error {
	return cuserr.WrapStdError(errors.Join(ErrTemplate, cause), ErrCodeTemplate, ErrMsgTemplateParse+": "+cause.Error()).
		WithMetadata(MetaKeyLine, strconv.Itoa(line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(column))
}

// NewMaxDepthError reports a transform that nested deeper than allowed
func NewMaxDepthError(maxDepth int) error {
	return cuserr.WrapStdError(ErrTemplate, ErrCodeTemplate, ErrMsgMaxDepthExceeded).
		WithMetadata(MetaKeyDepth, strconv.Itoa(maxDepth))
}

// NewPluginExistsError reports a duplicate tag plugin registration
func NewPluginExistsError(tagName string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgPluginExists).
		WithMetadata(MetaKeyTag, tagName)
}

// NewNotFoundError reports a prompt or dataset missing from a loader
func NewNotFoundError(message, path string) error {
	return cuserr.WrapStdError(ErrNotFound, ErrCodeLoader, message).
		WithMetadata(MetaKeyPath, path)
}

// NewLoaderClosedError reports an operation on a closed loader
func NewLoaderClosedError(driver string) error {
	return cuserr.WrapStdError(ErrLoaderClosed, ErrCodeLoader, ErrMsgLoaderIsClosed).
		WithMetadata(MetaKeyDriver, driver)
}

// NewLoaderError wraps a storage failure inside a loader
func NewLoaderError(message, path string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeLoader, message).
		WithMetadata(MetaKeyPath, path)
}

// NewHookError wraps the error a before hook aborted an operation with
func NewHookError(point HookPoint, cause error) error {
	return cuserr.WrapStdError(errors.Join(ErrHook, cause), ErrCodeHook, ErrMsgHookFailed+": "+cause.Error()).
		WithMetadata(MetaKeyHook, string(point))
}

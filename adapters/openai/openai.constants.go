package openai

// AdapterName identifies this adapter in logs
const AdapterName = "openai"

// Response format and schema defaults
const (
	DefaultSchemaName = "response"
	DefaultImageMime  = "image/png"
	ImageMimePrefix   = "image/"
	DataURLPrefix     = "data:"
	DataURLBase64     = ";base64,"
	SchemeHTTP        = "http://"
	SchemeHTTPS       = "https://"
)

// Error messages
const (
	ErrMsgUnsupportedAttachment = "file attachments other than images are not supported by chat completions"
	ErrMsgUnsupportedMCPTool    = "MCP tools must be resolved before adapting"
	ErrMsgNilConfig             = "configuration is nil"
)

// Error codes
const (
	ErrCodeAdapter = "AGENTMARK_OPENAI_ADAPTER"
)

// Metadata keys
const (
	MetaKeyMimeType = "mime_type"
	MetaKeyTool     = "tool"
)

// Log messages and fields
const (
	LogMsgToolSkipped = "skipping MCP tool"
	LogFieldAlias     = "alias"
	LogFieldURI       = "uri"
)

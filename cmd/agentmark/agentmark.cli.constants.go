package main

// Command names
const (
	CmdNameCompile  = "compile"
	CmdNameDataset  = "dataset"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
)

// Flag names - long form
const (
	FlagTemplate  = "template"
	FlagData      = "data"
	FlagDataFile  = "data-file"
	FlagOutput    = "output"
	FlagFormat    = "format"
	FlagAdapter   = "adapter"
	FlagTestProps = "test-props"
	FlagWatch     = "watch"
	FlagLoader    = "loader"
	FlagConn      = "conn"
	FlagDataset   = "dataset"
	FlagLogLevel  = "log-level"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput   = "-"
	FlagDefaultFormat   = "text"
	FlagDefaultAdapter  = "default"
	FlagDefaultLoader   = "file"
	FlagDefaultConn     = "."
	FlagDefaultLogLevel = "warn"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Adapter names
const (
	AdapterDefault = "default"
	AdapterOpenAI  = "openai"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages
const (
	ErrMsgMissingTemplate    = "template source required"
	ErrMsgInvalidJSON        = "invalid JSON data"
	ErrMsgReadFileFailed     = "failed to read file"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgParseFailed        = "template parsing failed"
	ErrMsgCompileFailed      = "compilation failed"
	ErrMsgInvalidFormat      = "invalid output format"
	ErrMsgUnknownAdapter     = "unknown adapter"
	ErrMsgInvalidLogLevel    = "invalid log level"
	ErrMsgWatchNeedsFile     = "--watch requires a template file, not stdin"
	ErrMsgLoaderFailed       = "failed to open loader"
	ErrMsgDatasetFailed      = "dataset formatting failed"
	ErrMsgMissingPromptPath  = "prompt path required"
	ErrMsgValidationFailed   = "template is invalid"
	ErrMsgJSONMarshalFailed  = "failed to marshal JSON"
	ErrMsgClientCreateFailed = "failed to create client"
)

// Validation output
const (
	ValidationTextSuccessFmt = "Template is valid (kind: %s, name: %s)"
	ValidationTextFailureFmt = "Template is invalid: %v"
)

// Version output
const (
	VersionTextTemplate = "agentmark version %s\nCommit: %s\nBranch: %s\nGo: %s"
	VersionUnknown      = "unknown"
	VersionsFile        = "versions.yaml"
)

// CLI metadata
const (
	CLIName        = "agentmark"
	CLIDescription = "Compile AgentMark prompt templates into model configurations"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithCause = "%s: %v\n"
	FmtNewline        = "\n"
	JSONIndent        = "  "
)

// Log messages
const (
	LogMsgRecompiled = "template recompiled"
	LogMsgWatching   = "watching template"
)

package agentmark

// TextSettings are the model settings of a text prompt
type TextSettings struct {
	ModelName        string                    `json:"model_name"`
	MaxTokens        *int                      `json:"max_tokens,omitempty"`
	Temperature      *float64                  `json:"temperature,omitempty"`
	MaxCalls         *int                      `json:"max_calls,omitempty"`
	TopP             *float64                  `json:"top_p,omitempty"`
	TopK             *int                      `json:"top_k,omitempty"`
	PresencePenalty  *float64                  `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64                  `json:"frequency_penalty,omitempty"`
	StopSequences    []string                  `json:"stop_sequences,omitempty"`
	Seed             *int                      `json:"seed,omitempty"`
	MaxRetries       *int                      `json:"max_retries,omitempty"`
	ToolChoice       *ToolChoice               `json:"tool_choice,omitempty"`
	Tools            map[string]ToolDefinition `json:"tools,omitempty"`
}

// ObjectSettings are the model settings of a structured-output prompt
type ObjectSettings struct {
	ModelName         string         `json:"model_name"`
	MaxTokens         *int           `json:"max_tokens,omitempty"`
	Temperature       *float64       `json:"temperature,omitempty"`
	MaxCalls          *int           `json:"max_calls,omitempty"`
	TopP              *float64       `json:"top_p,omitempty"`
	TopK              *int           `json:"top_k,omitempty"`
	PresencePenalty   *float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty  *float64       `json:"frequency_penalty,omitempty"`
	StopSequences     []string       `json:"stop_sequences,omitempty"`
	Seed              *int           `json:"seed,omitempty"`
	MaxRetries        *int           `json:"max_retries,omitempty"`
	Schema            map[string]any `json:"schema"`
	SchemaName        string         `json:"schema_name,omitempty"`
	SchemaDescription string         `json:"schema_description,omitempty"`
}

// ImageSettings are the settings of an image prompt. Prompt is filled from
// the ImagePrompt tag.
type ImageSettings struct {
	ModelName   string `json:"model_name"`
	Prompt      string `json:"prompt"`
	NumImages   *int   `json:"num_images,omitempty"`
	Size        string `json:"size,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Seed        *int   `json:"seed,omitempty"`
}

// SpeechSettings are the settings of a speech prompt. Text is filled from
// the SpeechPrompt tag and Instructions from an optional System tag.
type SpeechSettings struct {
	ModelName    string   `json:"model_name"`
	Text         string   `json:"text"`
	Voice        string   `json:"voice,omitempty"`
	OutputFormat string   `json:"output_format,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`
}

// TestSettings carry the props, dataset and evals used to exercise a prompt
type TestSettings struct {
	Props   map[string]any `json:"props,omitempty"`
	Dataset string         `json:"dataset,omitempty"`
	Evals   []string       `json:"evals,omitempty"`
}

package agentmark

// Adapter turns compiled configurations into the call shape of a backend.
// Implementations must not mutate the configurations they receive.
type Adapter interface {
	Name() string
	AdaptText(cfg *TextConfig, opts AdaptOptions, meta PromptMetadata) (any, error)
	AdaptObject(cfg *ObjectConfig, opts AdaptOptions, meta PromptMetadata) (any, error)
	AdaptImage(cfg *ImageConfig, opts AdaptOptions) (any, error)
	AdaptSpeech(cfg *SpeechConfig, opts AdaptOptions) (any, error)
}

// TelemetryOptions configure tracing of an adapted call
type TelemetryOptions struct {
	IsEnabled  bool           `json:"isEnabled,omitempty"`
	FunctionID string         `json:"functionId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AdaptOptions are passed through to the adapter on every Format call
type AdaptOptions struct {
	Telemetry   *TelemetryOptions `json:"telemetry,omitempty"`
	APIKey      string            `json:"apiKey,omitempty"`
	BaseURL     string            `json:"baseURL,omitempty"`
	ToolContext map[string]any    `json:"toolContext,omitempty"`

	// DatasetPath overrides test_settings.dataset in FormatWithDataset
	DatasetPath string `json:"-"`
}

// PromptMetadata describes the prompt a configuration was compiled from
type PromptMetadata struct {
	Props    map[string]any `json:"props"`
	Path     string         `json:"path,omitempty"`
	Template *Node          `json:"template,omitempty"`
}

// DefaultAdapterName is the name of the passthrough adapter
const DefaultAdapterName = "default"

// DefaultAdapter returns configurations unchanged
type DefaultAdapter struct{}

// Name implements Adapter
func (DefaultAdapter) Name() string { return DefaultAdapterName }

// AdaptText implements Adapter
func (DefaultAdapter) AdaptText(cfg *TextConfig, _ AdaptOptions, _ PromptMetadata) (any, error) {
	return cfg, nil
}

// AdaptObject implements Adapter
func (DefaultAdapter) AdaptObject(cfg *ObjectConfig, _ AdaptOptions, _ PromptMetadata) (any, error) {
	return cfg, nil
}

// AdaptImage implements Adapter
func (DefaultAdapter) AdaptImage(cfg *ImageConfig, _ AdaptOptions) (any, error) {
	return cfg, nil
}

// AdaptSpeech implements Adapter
func (DefaultAdapter) AdaptSpeech(cfg *SpeechConfig, _ AdaptOptions) (any, error) {
	return cfg, nil
}

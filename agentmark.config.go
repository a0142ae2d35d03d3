package agentmark

import (
	"encoding/json"
	"fmt"
)

// PromptKind identifies which configuration a prompt compiles to
type PromptKind string

// Prompt kinds
const (
	KindText   PromptKind = "text"
	KindObject PromptKind = "object"
	KindImage  PromptKind = "image"
	KindSpeech PromptKind = "speech"
)

// kindPriority is the order in which front matter keys decide the kind
var kindPriority = []PromptKind{KindImage, KindSpeech, KindObject, KindText}

// ConfigKey returns the front matter key holding the kind's settings
func (k PromptKind) ConfigKey() string {
	switch k {
	case KindText:
		return KeyTextConfig
	case KindObject:
		return KeyObjectConfig
	case KindImage:
		return KeyImageConfig
	case KindSpeech:
		return KeySpeechConfig
	default:
		return string(k)
	}
}

// Valid reports whether k is a known kind
func (k PromptKind) Valid() bool {
	switch k {
	case KindText, KindObject, KindImage, KindSpeech:
		return true
	}
	return false
}

// ParsePromptKind converts a kind name
func ParsePromptKind(s string) (PromptKind, error) {
	k := PromptKind(s)
	if !k.Valid() {
		return "", NewConfigurationError(fmt.Sprintf("%s: %q", ErrMsgUnknownKind, s))
	}
	return k, nil
}

// TextConfig is a compiled text prompt
type TextConfig struct {
	Name          string            `json:"name"`
	Messages      []RichChatMessage `json:"messages"`
	Settings      TextSettings      `json:"text_config"`
	TestSettings  *TestSettings     `json:"test_settings,omitempty"`
	AgentmarkMeta map[string]any    `json:"agentmark_meta,omitempty"`
}

// ObjectConfig is a compiled structured-output prompt
type ObjectConfig struct {
	Name          string            `json:"name"`
	Messages      []RichChatMessage `json:"messages"`
	Settings      ObjectSettings    `json:"object_config"`
	TestSettings  *TestSettings     `json:"test_settings,omitempty"`
	AgentmarkMeta map[string]any    `json:"agentmark_meta,omitempty"`
}

// ImageConfig is a compiled image prompt
type ImageConfig struct {
	Name          string         `json:"name"`
	Settings      ImageSettings  `json:"image_config"`
	TestSettings  *TestSettings  `json:"test_settings,omitempty"`
	AgentmarkMeta map[string]any `json:"agentmark_meta,omitempty"`
}

// SpeechConfig is a compiled speech prompt
type SpeechConfig struct {
	Name          string         `json:"name"`
	Settings      SpeechSettings `json:"speech_config"`
	TestSettings  *TestSettings  `json:"test_settings,omitempty"`
	AgentmarkMeta map[string]any `json:"agentmark_meta,omitempty"`
}

// Config is the result of a compilation. Exactly one variant is set,
// matching Kind.
type Config struct {
	Kind   PromptKind
	Text   *TextConfig
	Object *ObjectConfig
	Image  *ImageConfig
	Speech *SpeechConfig
}

// Name returns the prompt name of the set variant
func (c *Config) Name() string {
	switch c.Kind {
	case KindText:
		return c.Text.Name
	case KindObject:
		return c.Object.Name
	case KindImage:
		return c.Image.Name
	case KindSpeech:
		return c.Speech.Name
	}
	return ""
}

// Value returns the set variant
func (c *Config) Value() any {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindObject:
		return c.Object
	case KindImage:
		return c.Image
	case KindSpeech:
		return c.Speech
	}
	return nil
}

// MarshalJSON writes the set variant
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

package agentmark

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the validated front matter of a prompt document
type FrontMatter struct {
	Kind          PromptKind
	Name          string
	TestSettings  *TestSettings
	AgentmarkMeta map[string]any

	raw map[string]any
}

// ParseFrontMatter decodes the YAML front matter of doc without validating it.
// A document without front matter yields an empty map.
func ParseFrontMatter(doc *Node) (map[string]any, error) {
	source, ok := doc.FrontMatterSource()
	if !ok {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := yaml.Unmarshal([]byte(source), &out); err != nil {
		return nil, NewTemplateError(ErrMsgFrontMatterDecode, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// ReadFrontMatter parses and validates the front matter of doc
func ReadFrontMatter(doc *Node) (*FrontMatter, error) {
	raw, err := ParseFrontMatter(doc)
	if err != nil {
		return nil, err
	}
	kind, err := ValidateFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	fm := &FrontMatter{
		Kind: kind,
		raw:  raw,
	}
	fm.Name, _ = raw[KeyName].(string)
	if meta, ok := raw[KeyAgentmarkMeta].(map[string]any); ok {
		fm.AgentmarkMeta = meta
	}
	if _, ok := raw[KeyTestSettings]; ok {
		var ts TestSettings
		if err := decodeVia(raw[KeyTestSettings], &ts); err != nil {
			return nil, NewValidationError(KeyTestSettings, err.Error())
		}
		fm.TestSettings = &ts
	}
	return fm, nil
}

// Raw returns the decoded front matter map
func (fm *FrontMatter) Raw() map[string]any {
	return fm.raw
}

// DecodeSettings decodes the kind settings into target, one of
// *TextSettings, *ObjectSettings, *ImageSettings or *SpeechSettings
func (fm *FrontMatter) DecodeSettings(target any) error {
	key := fm.Kind.ConfigKey()
	if err := decodeVia(fm.raw[key], target); err != nil {
		return NewValidationError(key, err.Error())
	}
	return nil
}

// decodeVia converts a generic YAML value into a typed struct through its
// JSON form, so the JSON field names are the only mapping
func decodeVia(value any, target any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

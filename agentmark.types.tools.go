package agentmark

import (
	"bytes"
	"encoding/json"
)

// Tool choice modes
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
	ToolChoiceTypeTool = "tool"
)

// ToolChoice selects how the model may call tools: one of the modes, or a
// specific tool by name.
type ToolChoice struct {
	Mode     string
	ToolName string
}

type toolChoiceJSON struct {
	Type     string `json:"type"`
	ToolName string `json:"tool_name"`
}

// MarshalJSON writes a mode string or {type: "tool", tool_name}
func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if c.ToolName != "" {
		return json.Marshal(toolChoiceJSON{Type: ToolChoiceTypeTool, ToolName: c.ToolName})
	}
	return json.Marshal(c.Mode)
}

// UnmarshalJSON reads a mode string or a named tool object
func (c *ToolChoice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*c = ToolChoice{}
		return json.Unmarshal(data, &c.Mode)
	}
	var named toolChoiceJSON
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	*c = ToolChoice{Mode: named.Type, ToolName: named.ToolName}
	return nil
}

// ToolDefinition is a tool entry of text_config.tools: either an MCP URI
// or an inline definition.
type ToolDefinition struct {
	MCPURI      string
	Description string
	Parameters  map[string]any
}

type inlineToolJSON struct {
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// IsMCP reports whether the tool references an MCP server
func (d ToolDefinition) IsMCP() bool {
	return d.MCPURI != ""
}

// MarshalJSON writes the URI string or the inline object
func (d ToolDefinition) MarshalJSON() ([]byte, error) {
	if d.IsMCP() {
		return json.Marshal(d.MCPURI)
	}
	return json.Marshal(inlineToolJSON{Description: d.Description, Parameters: d.Parameters})
}

// UnmarshalJSON reads a URI string or an inline object
func (d *ToolDefinition) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*d = ToolDefinition{}
		return json.Unmarshal(data, &d.MCPURI)
	}
	var inline inlineToolJSON
	if err := json.Unmarshal(data, &inline); err != nil {
		return err
	}
	*d = ToolDefinition{Description: inline.Description, Parameters: inline.Parameters}
	return nil
}

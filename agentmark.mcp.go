package agentmark

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/itsatony/go-cuserr"
)

// MCPScheme prefixes tool references served by an MCP server
const MCPScheme = "mcp://"

// Normalized tool kinds
const (
	ToolKindMCP    = "mcp"
	ToolKindInline = "inline"
)

// envPattern matches a whole-string env('VAR') reference
var envPattern = regexp.MustCompile(`^env\(['"]([A-Z0-9_]+)['"]\)$`)

// MCPToolRef names a tool on an MCP server
type MCPToolRef struct {
	Server string `json:"server"`
	Tool   string `json:"tool"`
}

// ParseMCPURI splits "mcp://server/tool". The tool part may contain
// further slashes.
func ParseMCPURI(uri string) (MCPToolRef, error) {
	if !strings.HasPrefix(uri, MCPScheme) {
		return MCPToolRef{}, newMCPURIError(uri, "must start with "+MCPScheme)
	}
	server, tool, ok := strings.Cut(uri[len(MCPScheme):], "/")
	if !ok {
		return MCPToolRef{}, newMCPURIError(uri, "expected mcp://{server}/{tool}")
	}
	server = strings.TrimSpace(server)
	tool = strings.TrimSpace(tool)
	if server == "" {
		return MCPToolRef{}, newMCPURIError(uri, "server part is empty")
	}
	if tool == "" {
		return MCPToolRef{}, newMCPURIError(uri, "tool part is empty")
	}
	return MCPToolRef{Server: server, Tool: tool}, nil
}

func newMCPURIError(uri, reason string) error {
	return cuserr.WrapStdError(ErrConfiguration, ErrCodeConfiguration, ErrMsgInvalidMCPURI+": "+reason).
		WithMetadata(MetaKeyURI, uri)
}

// InterpolateEnv replaces every string of the form env('VAR') inside value
// with the variable's contents, walking maps and slices. Strings that only
// contain such a reference are replaced; others are left alone. A missing
// variable is an error when strict and left unchanged otherwise.
func InterpolateEnv(value any, strict bool) (any, error) {
	switch v := value.(type) {
	case string:
		m := envPattern.FindStringSubmatch(v)
		if m == nil {
			return v, nil
		}
		if env, ok := os.LookupEnv(m[1]); ok {
			return env, nil
		}
		if strict {
			return nil, cuserr.WrapStdError(ErrConfiguration, ErrCodeConfiguration, ErrMsgEnvVarMissing).
				WithMetadata(MetaKeyVariable, m[1])
		}
		return v, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := InterpolateEnv(item, strict)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			resolved, err := InterpolateEnv(item, strict)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case map[string]string:
		out := make(map[string]string, len(v))
		for k, item := range v {
			resolved, err := InterpolateEnv(item, strict)
			if err != nil {
				return nil, err
			}
			out[k] = resolved.(string)
		}
		return out, nil
	}
	return value, nil
}

// NormalizedTool is one entry of a tools map with its alias
type NormalizedTool struct {
	Alias  string          `json:"alias"`
	Kind   string          `json:"kind"`
	URI    string          `json:"uri,omitempty"`
	Inline *ToolDefinition `json:"inline,omitempty"`
}

// NormalizeTools flattens a tools map into entries sorted by alias.
// Inline definitions need a description and parameters.
func NormalizeTools(tools map[string]ToolDefinition) ([]NormalizedTool, error) {
	aliases := make([]string, 0, len(tools))
	for alias := range tools {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	out := make([]NormalizedTool, 0, len(tools))
	for _, alias := range aliases {
		def := tools[alias]
		if def.IsMCP() {
			out = append(out, NormalizedTool{Alias: alias, Kind: ToolKindMCP, URI: def.MCPURI})
			continue
		}
		if def.Description == "" || def.Parameters == nil {
			return nil, NewValidationError(joinPath(KeyTools, alias),
				"expected MCP URI string or inline tool definition")
		}
		inline := def
		out = append(out, NormalizedTool{Alias: alias, Kind: ToolKindInline, Inline: &inline})
	}
	return out, nil
}

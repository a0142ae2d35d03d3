package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	agentmark "github.com/agentmark-ai/agentmark-sub003"
	openaiadapter "github.com/agentmark-ai/agentmark-sub003/adapters/openai"
	"go.uber.org/zap"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, FilePermissions)
}

// loadData reads props from a JSON file or string; neither yields nil
func loadData(jsonStr, filePath string) (map[string]any, error) {
	var jsonData []byte
	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		jsonData = data
	case jsonStr != "":
		jsonData = []byte(jsonStr)
	default:
		return nil, nil
	}

	var result map[string]any
	if err := json.Unmarshal(jsonData, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// parseTemplate reads a document from mdast JSON or template source,
// chosen by the file extension
func parseTemplate(path string, data []byte) (*agentmark.Node, error) {
	if strings.EqualFold(filepath.Ext(path), agentmark.JSONExtension) {
		return agentmark.DecodeDocument(data)
	}
	return agentmark.ParseDocument(string(data))
}

// newAdapter resolves an adapter name
func newAdapter(name string, logger *zap.Logger) (agentmark.Adapter, error) {
	switch name {
	case AdapterDefault, "":
		return agentmark.DefaultAdapter{}, nil
	case AdapterOpenAI:
		return openaiadapter.New(openaiadapter.WithLogger(logger), openaiadapter.WithSkipMCPTools()), nil
	default:
		return nil, newCLIError(ExitCodeUsageError, ErrMsgUnknownAdapter+": "+name, nil)
	}
}

// marshalOutput renders v as indented JSON with a trailing newline
func marshalOutput(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", JSONIndent)
	if err != nil {
		return nil, newCLIError(ExitCodeError, ErrMsgJSONMarshalFailed, err)
	}
	return append(data, '\n'), nil
}

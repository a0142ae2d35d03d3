package agentmark

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// fieldKind is the value shape a field accepts
type fieldKind int

const (
	fieldString fieldKind = iota
	fieldNumber
	fieldInteger
	fieldObject
	fieldStringList
	fieldToolChoice
	fieldTools
	fieldAny
)

var fieldKindNames = map[fieldKind]string{
	fieldString:     "string",
	fieldNumber:     "number",
	fieldInteger:    "integer",
	fieldObject:     "object",
	fieldStringList: "list of strings",
	fieldToolChoice: `"auto", "none", "required" or {type: "tool", tool_name}`,
	fieldTools:      "map of tool name to MCP URI or {description, parameters}",
	fieldAny:        "any value",
}

// fieldRule describes one field. Nested rules apply to object fields; a
// nil fields slice leaves the object free form.
type fieldRule struct {
	name     string
	kind     fieldKind
	required bool
	pattern  *regexp.Regexp
	fields   []fieldRule
}

var (
	sizePattern        = regexp.MustCompile(`^\d+x\d+$`)
	aspectRatioPattern = regexp.MustCompile(`^\d+:\d+$`)
)

// samplingRules are shared by text_config and object_config
var samplingRules = []fieldRule{
	{name: KeyModelName, kind: fieldString, required: true},
	{name: "max_tokens", kind: fieldInteger},
	{name: "temperature", kind: fieldNumber},
	{name: "max_calls", kind: fieldInteger},
	{name: "top_p", kind: fieldNumber},
	{name: "top_k", kind: fieldInteger},
	{name: "presence_penalty", kind: fieldNumber},
	{name: "frequency_penalty", kind: fieldNumber},
	{name: "stop_sequences", kind: fieldStringList},
	{name: "seed", kind: fieldInteger},
	{name: "max_retries", kind: fieldInteger},
}

func withRules(base []fieldRule, extra ...fieldRule) []fieldRule {
	out := make([]fieldRule, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

var textSettingsRules = withRules(samplingRules,
	fieldRule{name: KeyToolChoice, kind: fieldToolChoice},
	fieldRule{name: KeyTools, kind: fieldTools},
)

var objectSettingsRules = withRules(samplingRules,
	fieldRule{name: KeySchema, kind: fieldObject, required: true},
	fieldRule{name: "schema_name", kind: fieldString},
	fieldRule{name: "schema_description", kind: fieldString},
)

var imageSettingsRules = []fieldRule{
	{name: KeyModelName, kind: fieldString, required: true},
	{name: KeyPrompt, kind: fieldString},
	{name: "num_images", kind: fieldInteger},
	{name: "size", kind: fieldString, pattern: sizePattern},
	{name: "aspect_ratio", kind: fieldString, pattern: aspectRatioPattern},
	{name: "seed", kind: fieldInteger},
}

var speechSettingsRules = []fieldRule{
	{name: KeyModelName, kind: fieldString, required: true},
	{name: KeyText, kind: fieldString},
	{name: "voice", kind: fieldString},
	{name: "output_format", kind: fieldString},
	{name: KeyInstructions, kind: fieldString},
	{name: "speed", kind: fieldNumber},
}

var testSettingsRules = []fieldRule{
	{name: KeyProps, kind: fieldObject},
	{name: KeyDataset, kind: fieldString},
	{name: KeyEvals, kind: fieldStringList},
}

var kindSettingsRules = map[PromptKind][]fieldRule{
	KindText:   textSettingsRules,
	KindObject: objectSettingsRules,
	KindImage:  imageSettingsRules,
	KindSpeech: speechSettingsRules,
}

// frontMatterRules returns the top-level rules for a prompt of kind
func frontMatterRules(kind PromptKind) []fieldRule {
	return []fieldRule{
		{name: KeyName, kind: fieldString, required: true},
		{name: kind.ConfigKey(), kind: fieldObject, required: true, fields: kindSettingsRules[kind]},
		{name: KeyTestSettings, kind: fieldObject, fields: testSettingsRules},
		{name: KeyAgentmarkMeta, kind: fieldObject},
	}
}

// InferKind determines the prompt kind from the config keys present in
// front matter. Declaring none or more than one is a validation error.
func InferKind(fm map[string]any) (PromptKind, error) {
	var found []PromptKind
	for _, kind := range kindPriority {
		if _, ok := fm[kind.ConfigKey()]; ok {
			found = append(found, kind)
		}
	}
	switch len(found) {
	case 0:
		return "", NewValidationError(KeyFrontMatter, ErrMsgMissingKindConfig)
	case 1:
		return found[0], nil
	default:
		return "", NewValidationError(KeyFrontMatter, ErrMsgMultipleKindConfigs)
	}
}

// ValidateFrontMatter infers the prompt kind and validates every field
// against the kind's schema. The first failing field is reported by its
// dotted path.
func ValidateFrontMatter(fm map[string]any) (PromptKind, error) {
	kind, err := InferKind(fm)
	if err != nil {
		return "", err
	}
	if err := validateFields("", fm, frontMatterRules(kind)); err != nil {
		return "", err
	}
	return kind, nil
}

func validateFields(path string, obj map[string]any, rules []fieldRule) error {
	known := make(map[string]bool, len(rules))
	for _, rule := range rules {
		known[rule.name] = true
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !known[key] {
			return NewValidationError(joinPath(path, key), ErrMsgUnknownField)
		}
	}

	for _, rule := range rules {
		fieldPath := joinPath(path, rule.name)
		val, ok := obj[rule.name]
		if !ok || val == nil {
			if rule.required {
				return NewValidationError(fieldPath, ErrMsgRequiredField)
			}
			continue
		}
		if err := validateValue(fieldPath, val, rule); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, val any, rule fieldRule) error {
	mismatch := NewValidationError(path, fmt.Sprintf(ErrMsgFieldTypeFmt, fieldKindNames[rule.kind]))

	switch rule.kind {
	case fieldString:
		s, ok := val.(string)
		if !ok {
			return mismatch
		}
		if rule.pattern != nil && !rule.pattern.MatchString(s) {
			return NewValidationError(path, fmt.Sprintf(ErrMsgFieldPatternFmt, rule.pattern.String()))
		}

	case fieldNumber:
		if _, ok := numberValue(val); !ok {
			return mismatch
		}

	case fieldInteger:
		n, ok := numberValue(val)
		if !ok || n != math.Trunc(n) {
			return mismatch
		}

	case fieldObject:
		obj, ok := val.(map[string]any)
		if !ok {
			return mismatch
		}
		if rule.fields != nil {
			return validateFields(path, obj, rule.fields)
		}

	case fieldStringList:
		list, ok := val.([]any)
		if !ok {
			if _, isStrings := val.([]string); isStrings {
				return nil
			}
			return mismatch
		}
		for i, item := range list {
			if _, ok := item.(string); !ok {
				return NewValidationError(indexPath(path, i), fmt.Sprintf(ErrMsgFieldTypeFmt, fieldKindNames[fieldString]))
			}
		}

	case fieldToolChoice:
		return validateToolChoice(path, val, mismatch)

	case fieldTools:
		return validateTools(path, val, mismatch)
	}
	return nil
}

func validateToolChoice(path string, val any, mismatch error) error {
	switch v := val.(type) {
	case string:
		switch v {
		case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
			return nil
		}
		return NewValidationError(path, fmt.Sprintf(ErrMsgFieldEnumFmt,
			strings.Join([]string{ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired}, ", ")))
	case map[string]any:
		if err := validateFields(path, v, []fieldRule{
			{name: "type", kind: fieldString, required: true},
			{name: "tool_name", kind: fieldString, required: true},
		}); err != nil {
			return err
		}
		if v["type"] != ToolChoiceTypeTool {
			return NewValidationError(joinPath(path, "type"), fmt.Sprintf(ErrMsgFieldEnumFmt, ToolChoiceTypeTool))
		}
		return nil
	}
	return mismatch
}

func validateTools(path string, val any, mismatch error) error {
	tools, ok := val.(map[string]any)
	if !ok {
		return mismatch
	}
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		toolPath := joinPath(path, name)
		switch def := tools[name].(type) {
		case string:
		case map[string]any:
			if desc, ok := def["description"]; ok && desc != nil {
				if _, isString := desc.(string); !isString {
					return NewValidationError(joinPath(toolPath, "description"), fmt.Sprintf(ErrMsgFieldTypeFmt, fieldKindNames[fieldString]))
				}
			}
			if params, ok := def["parameters"]; ok && params != nil {
				if _, isObject := params.(map[string]any); !isObject {
					return NewValidationError(joinPath(toolPath, "parameters"), fmt.Sprintf(ErrMsgFieldTypeFmt, fieldKindNames[fieldObject]))
				}
			}
		default:
			return NewValidationError(toolPath, fmt.Sprintf(ErrMsgFieldTypeFmt, "MCP URI or tool definition"))
		}
	}
	return nil
}

// ValidateMessages checks the assembled chat messages of a text or object prompt
func ValidateMessages(messages []RichChatMessage) error {
	if len(messages) == 0 {
		return NewValidationError(KeyMessages, ErrMsgNoMessages)
	}
	for i, msg := range messages {
		path := indexPath(KeyMessages, i)
		switch msg.Role {
		case RoleUser:
			for j, part := range msg.Content.Parts {
				if part.Type != PartTypeText && part.Type != PartTypeImage && part.Type != PartTypeFile {
					return NewValidationError(indexPath(joinPath(path, "content"), j), fmt.Sprintf(ErrMsgFieldEnumFmt, "text, image, file"))
				}
			}
		case RoleSystem, RoleAssistant:
			if msg.Content.IsMultipart() {
				return NewValidationError(joinPath(path, "content"), fmt.Sprintf(ErrMsgFieldTypeFmt, fieldKindNames[fieldString]))
			}
		default:
			return NewValidationError(joinPath(path, "role"), fmt.Sprintf(ErrMsgFieldEnumFmt, "system, user, assistant"))
		}
	}
	return nil
}

func numberValue(val any) (float64, bool) {
	switch n := val.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

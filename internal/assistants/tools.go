package assistants

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ToolType is the discriminator of Tool. The values match ToolCallType.
type ToolType string

const (
	ToolTypeCodeInterpreter ToolType = "code_interpreter"
	ToolTypeFileSearch      ToolType = "file_search"
	ToolTypeFunction        ToolType = "function"
)

// Tool is a tool definition enabled on an assistant.
// Implemented by *CodeInterpreterTool, *FileSearchTool and *FunctionTool.
type Tool interface {
	Type() ToolType
	isTool()
}

var (
	_ Tool = (*CodeInterpreterTool)(nil)
	_ Tool = (*FileSearchTool)(nil)
	_ Tool = (*FunctionTool)(nil)
)

// CodeInterpreterTool enables the code interpreter. It has no options.
type CodeInterpreterTool struct{}

func (*CodeInterpreterTool) Type() ToolType { return ToolTypeCodeInterpreter }
func (*CodeInterpreterTool) isTool()        {}

func (*CodeInterpreterTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type ToolType `json:"type"`
	}{Type: ToolTypeCodeInterpreter})
}

// FileSearchTool enables file search. FileSearch is nil when the service
// defaults apply.
type FileSearchTool struct {
	FileSearch *FileSearchOptions
}

// FileSearchOptions overrides file search defaults.
type FileSearchOptions struct {
	MaxNumResults *int `json:"max_num_results,omitempty"`
}

func (*FileSearchTool) Type() ToolType { return ToolTypeFileSearch }
func (*FileSearchTool) isTool()        {}

func (t *FileSearchTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       ToolType           `json:"type"`
		FileSearch *FileSearchOptions `json:"file_search,omitempty"`
	}{
		Type:       ToolTypeFileSearch,
		FileSearch: t.FileSearch,
	})
}

// FunctionTool exposes a user-defined function to the model.
type FunctionTool struct {
	Function FunctionDefinition
}

// FunctionDefinition describes a callable function. Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Strict      *bool          `json:"strict,omitempty"`
}

func (*FunctionTool) Type() ToolType { return ToolTypeFunction }
func (*FunctionTool) isTool()        {}

func (t *FunctionTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     ToolType           `json:"type"`
		Function FunctionDefinition `json:"function"`
	}{
		Type:     ToolTypeFunction,
		Function: t.Function,
	})
}

// UnmarshalTool decodes a single tool definition into its variant.
func UnmarshalTool(data []byte) (Tool, error) {
	return decodeTool("tool", data)
}

// decodeTool differs from the tool call decoder in that code_interpreter and
// file_search definitions may omit their nested object entirely.
func decodeTool(path string, data []byte) (Tool, error) {
	obj, err := parseObject(path, data)
	if err != nil {
		return nil, err
	}

	tag, err := discriminator(obj, path)
	if err != nil {
		return nil, err
	}

	switch ToolType(tag) {
	case ToolTypeCodeInterpreter:
		return &CodeInterpreterTool{}, nil

	case ToolTypeFileSearch:
		tool := &FileSearchTool{}
		if nested := obj.Get(tag); nested.Exists() && nested.Type != gjson.Null {
			payload, err := variantObject(obj, path, tag)
			if err != nil {
				return nil, err
			}
			var opts FileSearchOptions
			if err := json.Unmarshal([]byte(payload.Raw), &opts); err != nil {
				return nil, &MalformedPayloadError{Path: joinPath(path, tag), Err: err}
			}
			tool.FileSearch = &opts
		}
		return tool, nil

	case ToolTypeFunction:
		payload, err := variantObject(obj, path, tag)
		if err != nil {
			return nil, err
		}
		payloadPath := joinPath(path, tag)
		if err := requireFields(payload, payloadPath, "name"); err != nil {
			return nil, err
		}
		var fn FunctionDefinition
		if err := json.Unmarshal([]byte(payload.Raw), &fn); err != nil {
			return nil, &MalformedPayloadError{Path: payloadPath, Err: err}
		}
		return &FunctionTool{Function: fn}, nil

	default:
		return nil, &UnknownDiscriminatorError{Path: path, Tag: tag}
	}
}

// MarshalTool encodes a tool definition variant.
func MarshalTool(tool Tool) ([]byte, error) {
	if tool == nil {
		return nil, fmt.Errorf("tool: nil variant")
	}
	return json.Marshal(tool)
}

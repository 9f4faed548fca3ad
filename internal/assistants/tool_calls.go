package assistants

import (
	"encoding/json"
	"fmt"
)

// ToolCallType is the discriminator of ToolCall.
type ToolCallType string

const (
	ToolCallTypeCodeInterpreter ToolCallType = "code_interpreter"
	ToolCallTypeFileSearch      ToolCallType = "file_search"
	ToolCallTypeFunction        ToolCallType = "function"
)

// ToolCall is the sealed union of tool invocations inside a tool_calls step.
// Implemented by *CodeInterpreterToolCall, *FileSearchToolCall and *FunctionToolCall.
type ToolCall interface {
	Type() ToolCallType
	// CallID returns the tool call id used when submitting tool outputs.
	CallID() string
	isToolCall()
}

// Compile-time checks that all variants implement ToolCall
var (
	_ ToolCall = (*CodeInterpreterToolCall)(nil)
	_ ToolCall = (*FileSearchToolCall)(nil)
	_ ToolCall = (*FunctionToolCall)(nil)
)

// CodeInterpreterToolCall is a code interpreter invocation.
type CodeInterpreterToolCall struct {
	ID              string
	CodeInterpreter CodeInterpreterCall
}

// CodeInterpreterCall holds the submitted code and what it produced.
type CodeInterpreterCall struct {
	Input   string
	Outputs []CodeInterpreterOutput
}

func (*CodeInterpreterToolCall) Type() ToolCallType { return ToolCallTypeCodeInterpreter }
func (c *CodeInterpreterToolCall) CallID() string   { return c.ID }
func (*CodeInterpreterToolCall) isToolCall()        {}

type codeInterpreterPayload struct {
	Input   string                  `json:"input"`
	Outputs []CodeInterpreterOutput `json:"outputs"`
}

func (c *CodeInterpreterToolCall) MarshalJSON() ([]byte, error) {
	outputs := c.CodeInterpreter.Outputs
	if outputs == nil {
		outputs = []CodeInterpreterOutput{}
	}
	return json.Marshal(struct {
		ID              string                 `json:"id"`
		Type            ToolCallType           `json:"type"`
		CodeInterpreter codeInterpreterPayload `json:"code_interpreter"`
	}{
		ID:              c.ID,
		Type:            ToolCallTypeCodeInterpreter,
		CodeInterpreter: codeInterpreterPayload{Input: c.CodeInterpreter.Input, Outputs: outputs},
	})
}

// FileSearchToolCall is a file search invocation. The payload carries no
// fields yet; it is kept as a type so new fields have a home.
type FileSearchToolCall struct {
	ID         string
	FileSearch FileSearchCall
}

// FileSearchCall is currently always an empty object.
type FileSearchCall struct{}

func (*FileSearchToolCall) Type() ToolCallType { return ToolCallTypeFileSearch }
func (c *FileSearchToolCall) CallID() string   { return c.ID }
func (*FileSearchToolCall) isToolCall()        {}

func (c *FileSearchToolCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string         `json:"id"`
		Type       ToolCallType   `json:"type"`
		FileSearch FileSearchCall `json:"file_search"`
	}{
		ID:         c.ID,
		Type:       ToolCallTypeFileSearch,
		FileSearch: c.FileSearch,
	})
}

// FunctionToolCall is an invocation of a user-defined function.
type FunctionToolCall struct {
	ID       string
	Function FunctionCall
}

// FunctionCall describes the called function. Output stays nil until the tool
// result has been submitted.
type FunctionCall struct {
	Name string `json:"name"`
	// Arguments is a JSON-encoded object, passed through verbatim.
	Arguments string  `json:"arguments"`
	Output    *string `json:"output"`
}

func (*FunctionToolCall) Type() ToolCallType { return ToolCallTypeFunction }
func (c *FunctionToolCall) CallID() string   { return c.ID }
func (*FunctionToolCall) isToolCall()        {}

func (c *FunctionToolCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string       `json:"id"`
		Type     ToolCallType `json:"type"`
		Function FunctionCall `json:"function"`
	}{
		ID:       c.ID,
		Type:     ToolCallTypeFunction,
		Function: c.Function,
	})
}

// UnmarshalToolCall decodes a single tool call object into its variant.
func UnmarshalToolCall(data []byte) (ToolCall, error) {
	return decodeToolCall("tool_call", data)
}

// MarshalToolCall encodes a tool call variant.
func MarshalToolCall(call ToolCall) ([]byte, error) {
	if call == nil {
		return nil, fmt.Errorf("tool call: nil variant")
	}
	return json.Marshal(call)
}

func decodeToolCall(path string, data []byte) (ToolCall, error) {
	obj, err := parseObject(path, data)
	if err != nil {
		return nil, err
	}

	tag, err := discriminator(obj, path)
	if err != nil {
		return nil, err
	}

	// Unknown tags are reported before any shape checks.
	switch ToolCallType(tag) {
	case ToolCallTypeCodeInterpreter, ToolCallTypeFileSearch, ToolCallTypeFunction:
	default:
		return nil, &UnknownDiscriminatorError{Path: path, Tag: tag}
	}

	payload, err := variantObject(obj, path, tag)
	if err != nil {
		return nil, err
	}
	payloadPath := joinPath(path, tag)

	if err := requireFields(obj, path, "id"); err != nil {
		return nil, err
	}
	id, err := stringField(obj, path, "id")
	if err != nil {
		return nil, err
	}

	switch ToolCallType(tag) {
	case ToolCallTypeCodeInterpreter:
		if err := requireFields(payload, payloadPath, "input", "outputs"); err != nil {
			return nil, err
		}
		input, err := stringField(payload, payloadPath, "input")
		if err != nil {
			return nil, err
		}
		items, err := arrayField(payload, payloadPath, "outputs")
		if err != nil {
			return nil, err
		}
		var outputs []CodeInterpreterOutput
		for i, item := range items {
			output, err := decodeCodeInterpreterOutput(indexPath(joinPath(payloadPath, "outputs"), i), []byte(item.Raw))
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, output)
		}
		return &CodeInterpreterToolCall{
			ID:              id,
			CodeInterpreter: CodeInterpreterCall{Input: input, Outputs: outputs},
		}, nil

	case ToolCallTypeFileSearch:
		return &FileSearchToolCall{ID: id}, nil

	default: // ToolCallTypeFunction
		if err := requireFields(payload, payloadPath, "name", "arguments"); err != nil {
			return nil, err
		}
		var fn FunctionCall
		if err := json.Unmarshal([]byte(payload.Raw), &fn); err != nil {
			return nil, &MalformedPayloadError{Path: payloadPath, Err: err}
		}
		return &FunctionToolCall{ID: id, Function: fn}, nil
	}
}

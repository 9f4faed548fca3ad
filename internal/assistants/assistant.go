package assistants

import (
	"encoding/json"
	"fmt"
)

// Assistant is a configured model with instructions and tools.
// It is read-only on the client; updates go through separate API calls.
type Assistant struct {
	ID          string  `json:"id" validate:"required"`
	Object      string  `json:"object,omitempty"`
	CreatedAt   int64   `json:"created_at" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=256"`
	Description *string `json:"description" validate:"omitempty,max=512"`
	Model       string  `json:"model" validate:"required"`
	// Instructions is the system prompt.
	Instructions  *string        `json:"instructions" validate:"omitempty,max=32768"`
	Tools         []Tool         `json:"tools" validate:"max=128"`
	ToolResources *ToolResources `json:"tool_resources,omitempty"`
	Metadata      Metadata       `json:"metadata" validate:"omitempty,max=16,dive,keys,max=64,endkeys,max=512"`
	Temperature   *float64       `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	TopP          *float64       `json:"top_p,omitempty" validate:"omitempty,min=0,max=1"`
	// ResponseFormat is either the string "auto" or a format object; kept raw.
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

// ToolResources binds resources to the tools that use them.
type ToolResources struct {
	CodeInterpreter *CodeInterpreterResources `json:"code_interpreter,omitempty"`
	FileSearch      *FileSearchResources      `json:"file_search,omitempty"`
}

// CodeInterpreterResources lists files available to the code interpreter.
type CodeInterpreterResources struct {
	FileIDs []string `json:"file_ids,omitempty" validate:"max=20"`
}

// FileSearchResources lists vector stores searched by file search.
type FileSearchResources struct {
	VectorStoreIDs []string `json:"vector_store_ids,omitempty" validate:"max=1"`
}

// Cursor returns the assistant id, used as pagination cursor.
func (a Assistant) Cursor() string {
	return a.ID
}

var assistantRequired = []string{"id", "created_at", "model"}

type assistantFields Assistant

// UnmarshalJSON decodes an assistant, resolving each tool into its variant.
func (a *Assistant) UnmarshalJSON(data []byte) error {
	obj, err := parseObject("assistant", data)
	if err != nil {
		return err
	}
	if err := requireFields(obj, "", assistantRequired...); err != nil {
		return err
	}

	var wire struct {
		assistantFields
		Tools []json.RawMessage `json:"tools"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode assistant: %w", err)
	}
	decoded := Assistant(wire.assistantFields)

	decoded.Tools = nil
	for i, raw := range wire.Tools {
		tool, err := decodeTool(indexPath("tools", i), raw)
		if err != nil {
			return err
		}
		decoded.Tools = append(decoded.Tools, tool)
	}

	*a = decoded
	return nil
}

// Validate checks the documented field limits, including function tool names.
func (a *Assistant) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid assistant %s: %w", a.ID, err)
	}
	for i, tool := range a.Tools {
		fn, ok := tool.(*FunctionTool)
		if !ok {
			continue
		}
		if err := validate.Var(fn.Function.Name, "function_name"); err != nil {
			return fmt.Errorf("invalid assistant %s: tools[%d].function.name %q: %w", a.ID, i, fn.Function.Name, err)
		}
	}
	return nil
}

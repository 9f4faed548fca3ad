package assistants

import (
	"encoding/json"
	"fmt"
)

// RunStepType is the kind of a run step and the discriminator of StepDetails.
type RunStepType string

const (
	RunStepTypeMessageCreation RunStepType = "message_creation"
	RunStepTypeToolCalls       RunStepType = "tool_calls"
)

// StepDetails is the sealed union stored in RunStep.StepDetails.
// Implemented by *MessageCreationDetails and *ToolCallsDetails.
type StepDetails interface {
	Type() RunStepType
	isStepDetails()
}

// MessageCreationDetails is the step detail of a step that created a message.
type MessageCreationDetails struct {
	MessageID string
}

// Compile-time checks that both variants implement StepDetails
var (
	_ StepDetails = (*MessageCreationDetails)(nil)
	_ StepDetails = (*ToolCallsDetails)(nil)
)

func (*MessageCreationDetails) Type() RunStepType { return RunStepTypeMessageCreation }
func (*MessageCreationDetails) isStepDetails()    {}

type messageCreationPayload struct {
	MessageID string `json:"message_id"`
}

// MarshalJSON emits {"type":"message_creation","message_creation":{"message_id":...}}.
func (d *MessageCreationDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type            RunStepType            `json:"type"`
		MessageCreation messageCreationPayload `json:"message_creation"`
	}{
		Type:            RunStepTypeMessageCreation,
		MessageCreation: messageCreationPayload{MessageID: d.MessageID},
	})
}

// ToolCallsDetails is the step detail of a step that invoked tools.
type ToolCallsDetails struct {
	ToolCalls []ToolCall
}

func (*ToolCallsDetails) Type() RunStepType { return RunStepTypeToolCalls }
func (*ToolCallsDetails) isStepDetails()    {}

// MarshalJSON emits {"type":"tool_calls","tool_calls":[...]}. A nil slice is
// written as an empty array because the field is not nullable on the wire.
func (d *ToolCallsDetails) MarshalJSON() ([]byte, error) {
	calls := d.ToolCalls
	if calls == nil {
		calls = []ToolCall{}
	}
	return json.Marshal(struct {
		Type      RunStepType `json:"type"`
		ToolCalls []ToolCall  `json:"tool_calls"`
	}{
		Type:      RunStepTypeToolCalls,
		ToolCalls: calls,
	})
}

// UnmarshalStepDetails decodes a step_details object into its variant.
func UnmarshalStepDetails(data []byte) (StepDetails, error) {
	return decodeStepDetails("step_details", data)
}

// MarshalStepDetails encodes a step_details variant.
func MarshalStepDetails(details StepDetails) ([]byte, error) {
	if details == nil {
		return nil, fmt.Errorf("step details: nil variant")
	}
	return json.Marshal(details)
}

func decodeStepDetails(path string, data []byte) (StepDetails, error) {
	obj, err := parseObject(path, data)
	if err != nil {
		return nil, err
	}

	tag, err := discriminator(obj, path)
	if err != nil {
		return nil, err
	}

	switch RunStepType(tag) {
	case RunStepTypeMessageCreation:
		payload, err := variantObject(obj, path, tag)
		if err != nil {
			return nil, err
		}
		payloadPath := joinPath(path, tag)
		if err := requireFields(payload, payloadPath, "message_id"); err != nil {
			return nil, err
		}
		messageID, err := stringField(payload, payloadPath, "message_id")
		if err != nil {
			return nil, err
		}
		return &MessageCreationDetails{MessageID: messageID}, nil

	case RunStepTypeToolCalls:
		items, err := arrayField(obj, path, tag)
		if err != nil {
			return nil, err
		}
		var calls []ToolCall
		for i, item := range items {
			call, err := decodeToolCall(indexPath(joinPath(path, tag), i), []byte(item.Raw))
			if err != nil {
				return nil, err
			}
			calls = append(calls, call)
		}
		return &ToolCallsDetails{ToolCalls: calls}, nil

	default:
		return nil, &UnknownDiscriminatorError{Path: path, Tag: tag}
	}
}

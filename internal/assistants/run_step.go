package assistants

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RunStepStatus is the lifecycle state of a run step.
type RunStepStatus string

const (
	RunStepStatusInProgress RunStepStatus = "in_progress"
	RunStepStatusCancelled  RunStepStatus = "cancelled"
	RunStepStatusFailed     RunStepStatus = "failed"
	RunStepStatusCompleted  RunStepStatus = "completed"
	RunStepStatusExpired    RunStepStatus = "expired"
	RunStepStatusIncomplete RunStepStatus = "incomplete"
)

// IsTerminal reports whether the step will not change anymore.
func (s RunStepStatus) IsTerminal() bool {
	return s != RunStepStatusInProgress
}

// ErrInconsistentLifecycle is returned by RunStep.Validate when the status and
// the lifecycle timestamps disagree.
var ErrInconsistentLifecycle = errors.New("inconsistent run step lifecycle")

// RunStep is one step of a run: either a message creation or a batch of tool calls.
type RunStep struct {
	ID          string        `json:"id" validate:"required"`
	Object      string        `json:"object,omitempty"`
	CreatedAt   int64         `json:"created_at" validate:"required"`
	AssistantID string        `json:"assistant_id" validate:"required"`
	ThreadID    string        `json:"thread_id" validate:"required"`
	RunID       string        `json:"run_id" validate:"required"`
	Type        RunStepType   `json:"type" validate:"oneof=message_creation tool_calls"`
	Status      RunStepStatus `json:"status" validate:"oneof=in_progress cancelled failed completed expired incomplete"`
	StepDetails StepDetails   `json:"step_details"`
	// LastError is nil unless the step failed.
	LastError   *LastError `json:"last_error"`
	ExpiredAt   *int64     `json:"expired_at"`
	CancelledAt *int64     `json:"cancelled_at"`
	FailedAt    *int64     `json:"failed_at"`
	CompletedAt *int64     `json:"completed_at"`
	Metadata    Metadata   `json:"metadata" validate:"omitempty,max=16,dive,keys,max=64,endkeys,max=512"`
	// Usage is nil while the step is in progress.
	Usage *Usage `json:"usage"`
}

// LastError describes why a run step failed.
type LastError struct {
	Code    string `json:"code" validate:"oneof=server_error rate_limit_exceeded"`
	Message string `json:"message"`
}

// Usage holds token counts for a finished run step.
type Usage struct {
	CompletionTokens int64 `json:"completion_tokens"`
	PromptTokens     int64 `json:"prompt_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Cursor returns the step id, used as pagination cursor.
func (s RunStep) Cursor() string {
	return s.ID
}

var runStepRequired = []string{
	"id", "created_at", "assistant_id", "thread_id", "run_id", "type", "status", "step_details",
}

// runStepFields has RunStep's fields without its UnmarshalJSON.
type runStepFields RunStep

// UnmarshalJSON decodes a run step, resolving step_details into its variant.
func (s *RunStep) UnmarshalJSON(data []byte) error {
	obj, err := parseObject("run_step", data)
	if err != nil {
		return err
	}
	if err := requireFields(obj, "", runStepRequired...); err != nil {
		return err
	}

	var wire struct {
		runStepFields
		StepDetails json.RawMessage `json:"step_details"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode run step: %w", err)
	}
	decoded := RunStep(wire.runStepFields)

	details, err := decodeStepDetails("step_details", wire.StepDetails)
	if err != nil {
		return err
	}
	decoded.StepDetails = details

	*s = decoded
	return nil
}

// Validate checks field limits and that status, lifecycle timestamps, usage
// and step type agree with each other. Decoding never validates.
func (s *RunStep) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid run step %s: %w", s.ID, err)
	}

	if s.StepDetails == nil {
		return &MissingRequiredFieldError{Field: "step_details"}
	}
	if s.StepDetails.Type() != s.Type {
		return fmt.Errorf("%w: type %s but step_details.type %s", ErrInconsistentLifecycle, s.Type, s.StepDetails.Type())
	}

	stamps := []struct {
		status RunStepStatus
		field  string
		value  *int64
	}{
		{RunStepStatusExpired, "expired_at", s.ExpiredAt},
		{RunStepStatusCancelled, "cancelled_at", s.CancelledAt},
		{RunStepStatusFailed, "failed_at", s.FailedAt},
		{RunStepStatusCompleted, "completed_at", s.CompletedAt},
	}
	for _, stamp := range stamps {
		switch {
		case stamp.status == s.Status && stamp.value == nil:
			return fmt.Errorf("%w: status %s without %s", ErrInconsistentLifecycle, s.Status, stamp.field)
		case stamp.status != s.Status && stamp.value != nil:
			return fmt.Errorf("%w: %s set while status is %s", ErrInconsistentLifecycle, stamp.field, s.Status)
		}
	}

	if s.Status == RunStepStatusInProgress && s.Usage != nil {
		return fmt.Errorf("%w: usage reported while in progress", ErrInconsistentLifecycle)
	}

	return nil
}

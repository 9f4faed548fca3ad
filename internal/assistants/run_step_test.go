package assistants

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadFixture reads a JSON fixture from testdata.
func loadFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return data
}

// newRunStep returns a completed message creation step that passes Validate.
func newRunStep() RunStep {
	return RunStep{
		ID:          "step_1",
		Object:      "thread.run.step",
		CreatedAt:   1700000000,
		AssistantID: "asst_1",
		ThreadID:    "thread_1",
		RunID:       "run_1",
		Type:        RunStepTypeMessageCreation,
		Status:      RunStepStatusCompleted,
		StepDetails: &MessageCreationDetails{MessageID: "msg_1"},
		CompletedAt: ptr(int64(1700000010)),
		Metadata:    Metadata{},
		Usage:       &Usage{CompletionTokens: 1, PromptTokens: 2, TotalTokens: 3},
	}
}

func TestRunStep_UnmarshalToolCalls(t *testing.T) {
	var step RunStep
	require.NoError(t, json.Unmarshal(loadFixture(t, "run_step_tool_calls.json"), &step))

	assert.Equal(t, "step_1", step.ID)
	assert.Equal(t, int64(1700000000), step.CreatedAt)
	assert.Equal(t, RunStepStatusCompleted, step.Status)
	assert.Equal(t, RunStepTypeToolCalls, step.Type)
	assert.Nil(t, step.LastError)
	assert.Nil(t, step.FailedAt)
	require.NotNil(t, step.CompletedAt)
	assert.Equal(t, int64(1700000005), *step.CompletedAt)
	assert.Equal(t, &Usage{CompletionTokens: 12, PromptTokens: 30, TotalTokens: 42}, step.Usage)

	details, ok := step.StepDetails.(*ToolCallsDetails)
	require.True(t, ok, "expected *ToolCallsDetails, got %T", step.StepDetails)
	require.Len(t, details.ToolCalls, 1)

	fn, ok := details.ToolCalls[0].(*FunctionToolCall)
	require.True(t, ok, "expected *FunctionToolCall, got %T", details.ToolCalls[0])
	require.NotNil(t, fn.Function.Output)
	assert.Equal(t, "42", *fn.Function.Output)

	assert.NoError(t, step.Validate())
}

func TestRunStep_RoundTrip(t *testing.T) {
	fixture := loadFixture(t, "run_step_tool_calls.json")

	var step RunStep
	require.NoError(t, json.Unmarshal(fixture, &step))

	encoded, err := json.Marshal(step)
	require.NoError(t, err)
	assert.JSONEq(t, string(fixture), string(encoded))

	var again RunStep
	require.NoError(t, json.Unmarshal(encoded, &again))
	assert.Equal(t, step, again)
}

func TestRunStep_OptionalFieldsDefaultToAbsent(t *testing.T) {
	input := `{
		"id": "step_2", "created_at": 1, "assistant_id": "a", "thread_id": "t", "run_id": "r",
		"type": "message_creation", "status": "in_progress",
		"step_details": {"type": "message_creation", "message_creation": {"message_id": "msg_2"}}
	}`

	var step RunStep
	require.NoError(t, json.Unmarshal([]byte(input), &step))

	assert.Nil(t, step.LastError)
	assert.Nil(t, step.ExpiredAt)
	assert.Nil(t, step.CancelledAt)
	assert.Nil(t, step.FailedAt)
	assert.Nil(t, step.CompletedAt)
	assert.Nil(t, step.Metadata)
	assert.Nil(t, step.Usage)
	assert.Empty(t, step.Object)
	assert.NoError(t, step.Validate())
}

func TestRunStep_MissingRequiredField(t *testing.T) {
	for _, field := range runStepRequired {
		t.Run(field, func(t *testing.T) {
			var raw map[string]any
			require.NoError(t, json.Unmarshal(loadFixture(t, "run_step_tool_calls.json"), &raw))
			delete(raw, field)
			data, err := json.Marshal(raw)
			require.NoError(t, err)

			var step RunStep
			err = json.Unmarshal(data, &step)

			var missingErr *MissingRequiredFieldError
			require.ErrorAs(t, err, &missingErr)
			assert.Equal(t, field, missingErr.Field)
		})
	}

	t.Run("null counts as missing", func(t *testing.T) {
		var raw map[string]any
		require.NoError(t, json.Unmarshal(loadFixture(t, "run_step_tool_calls.json"), &raw))
		raw["thread_id"] = nil
		data, err := json.Marshal(raw)
		require.NoError(t, err)

		var missingErr *MissingRequiredFieldError
		require.ErrorAs(t, json.Unmarshal(data, &RunStep{}), &missingErr)
		assert.Equal(t, "thread_id", missingErr.Field)
	})
}

func TestRunStep_UnknownStepDetails(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal(loadFixture(t, "run_step_tool_calls.json"), &raw))
	raw["step_details"] = map[string]any{"type": "reasoning", "reasoning": map[string]any{}}
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var unknownErr *UnknownDiscriminatorError
	require.ErrorAs(t, json.Unmarshal(data, &RunStep{}), &unknownErr)
	assert.Equal(t, "reasoning", unknownErr.Tag)
}

func TestRunStep_WrongFieldType(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal(loadFixture(t, "run_step_tool_calls.json"), &raw))
	raw["created_at"] = "yesterday"
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	err = json.Unmarshal(data, &RunStep{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode run step")
}

func TestRunStep_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *RunStep)
		wantErr   bool
		lifecycle bool
	}{
		{
			name:   "valid completed",
			mutate: func(s *RunStep) {},
		},
		{
			name: "valid in progress",
			mutate: func(s *RunStep) {
				s.Status = RunStepStatusInProgress
				s.CompletedAt = nil
				s.Usage = nil
			},
		},
		{
			name: "valid incomplete",
			mutate: func(s *RunStep) {
				s.Status = RunStepStatusIncomplete
				s.CompletedAt = nil
			},
		},
		{
			name: "valid failed",
			mutate: func(s *RunStep) {
				s.Status = RunStepStatusFailed
				s.CompletedAt = nil
				s.FailedAt = ptr(int64(1700000020))
				s.LastError = &LastError{Code: "server_error", Message: "boom"}
			},
		},
		{
			name:      "completed without completed_at",
			mutate:    func(s *RunStep) { s.CompletedAt = nil },
			wantErr:   true,
			lifecycle: true,
		},
		{
			name: "cancelled with completed_at",
			mutate: func(s *RunStep) {
				s.Status = RunStepStatusCancelled
				s.CancelledAt = ptr(int64(1700000030))
			},
			wantErr:   true,
			lifecycle: true,
		},
		{
			name: "in progress with usage",
			mutate: func(s *RunStep) {
				s.Status = RunStepStatusInProgress
				s.CompletedAt = nil
			},
			wantErr:   true,
			lifecycle: true,
		},
		{
			name:      "type disagrees with step details",
			mutate:    func(s *RunStep) { s.Type = RunStepTypeToolCalls },
			wantErr:   true,
			lifecycle: true,
		},
		{
			name:    "unknown status",
			mutate:  func(s *RunStep) { s.Status = "queued" },
			wantErr: true,
		},
		{
			name:    "missing step details",
			mutate:  func(s *RunStep) { s.StepDetails = nil },
			wantErr: true,
		},
		{
			name:    "unknown error code",
			mutate:  func(s *RunStep) { s.LastError = &LastError{Code: "oops"} },
			wantErr: true,
		},
		{
			name: "too many metadata entries",
			mutate: func(s *RunStep) {
				for i := range 17 {
					s.Metadata[fmt.Sprintf("k%d", i)] = "v"
				}
			},
			wantErr: true,
		},
		{
			name:    "metadata key too long",
			mutate:  func(s *RunStep) { s.Metadata[strings.Repeat("k", 65)] = "v" },
			wantErr: true,
		},
		{
			name:    "metadata value too long",
			mutate:  func(s *RunStep) { s.Metadata["k"] = strings.Repeat("v", 513) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := newRunStep()
			tt.mutate(&step)

			err := step.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.lifecycle {
				assert.ErrorIs(t, err, ErrInconsistentLifecycle)
			}
		})
	}
}

func TestRunStep_ValidateReportsWireNames(t *testing.T) {
	step := newRunStep()
	step.ThreadID = ""

	err := step.Validate()

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	require.Len(t, validationErrs, 1)
	assert.Equal(t, "thread_id", validationErrs[0].Field())
}

func TestRunStepStatus_IsTerminal(t *testing.T) {
	assert.False(t, RunStepStatusInProgress.IsTerminal())
	for _, status := range []RunStepStatus{
		RunStepStatusCancelled, RunStepStatusFailed, RunStepStatusCompleted,
		RunStepStatusExpired, RunStepStatusIncomplete,
	} {
		assert.True(t, status.IsTerminal(), status)
	}
}

func TestMetadata_Validate(t *testing.T) {
	assert.NoError(t, Metadata(nil).Validate())
	assert.NoError(t, Metadata{"team": "search"}.Validate())
	assert.Error(t, Metadata{"team": strings.Repeat("x", 513)}.Validate())
}

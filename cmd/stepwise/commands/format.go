package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/florianilch/stepwise/internal/assistants"
)

// printRunStep writes a one-line summary of step.
func printRunStep(w io.Writer, step assistants.RunStep) error {
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", step.ID, step.Type, step.Status, describeStepDetails(step.StepDetails))
	return err
}

// printAssistant writes a one-line summary of a.
func printAssistant(w io.Writer, a assistants.Assistant) error {
	name := "-"
	if a.Name != nil {
		name = *a.Name
	}
	tools := make([]string, 0, len(a.Tools))
	for _, tool := range a.Tools {
		if fn, ok := tool.(*assistants.FunctionTool); ok {
			tools = append(tools, "function:"+fn.Function.Name)
			continue
		}
		tools = append(tools, string(tool.Type()))
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Model, name, strings.Join(tools, ","))
	return err
}

func describeStepDetails(details assistants.StepDetails) string {
	switch d := details.(type) {
	case *assistants.MessageCreationDetails:
		return "message:" + d.MessageID
	case *assistants.ToolCallsDetails:
		calls := make([]string, 0, len(d.ToolCalls))
		for _, call := range d.ToolCalls {
			calls = append(calls, describeToolCall(call))
		}
		return strings.Join(calls, ",")
	default:
		return "-"
	}
}

func describeToolCall(call assistants.ToolCall) string {
	switch c := call.(type) {
	case *assistants.FunctionToolCall:
		return fmt.Sprintf("function:%s(%s)", c.Function.Name, c.ID)
	case *assistants.CodeInterpreterToolCall:
		return fmt.Sprintf("code_interpreter(%s):%d outputs", c.ID, len(c.CodeInterpreter.Outputs))
	case *assistants.FileSearchToolCall:
		return fmt.Sprintf("file_search(%s)", c.ID)
	default:
		return string(call.Type())
	}
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/stepwise/internal/assistants"
)

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a payload from a file or stdin and print a summary",
		ArgsUsage: "[file|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "payload kind (run-step|run-steps|assistant|assistants)",
				Value: "run-step",
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "also check field limits and lifecycle consistency",
			},
		},
		Action: decodeAction,
	}
}

func decodeAction(ctx context.Context, cmd *cli.Command) error {
	data, err := readInput(cmd)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	validate := cmd.Bool("validate")

	switch kind := cmd.String("kind"); kind {
	case "run-step":
		var step assistants.RunStep
		if err := json.Unmarshal(data, &step); err != nil {
			return fmt.Errorf("failed to decode run step: %w", err)
		}
		if validate {
			if err := step.Validate(); err != nil {
				return err
			}
		}
		return printRunStep(w, step)

	case "assistant":
		var assistant assistants.Assistant
		if err := json.Unmarshal(data, &assistant); err != nil {
			return fmt.Errorf("failed to decode assistant: %w", err)
		}
		if validate {
			if err := assistant.Validate(); err != nil {
				return err
			}
		}
		return printAssistant(w, assistant)

	case "run-steps":
		return decodeList(w, data, validatorFor(validate, (*assistants.RunStep).Validate), printRunStep)

	case "assistants":
		return decodeList(w, data, validatorFor(validate, (*assistants.Assistant).Validate), printAssistant)

	default:
		return fmt.Errorf("unsupported kind %q (expected: run-step, run-steps, assistant, assistants)", kind)
	}
}

// validatorFor returns fn when enabled, nil otherwise.
func validatorFor[T any](enabled bool, fn func(*T) error) func(*T) error {
	if !enabled {
		return nil
	}
	return fn
}

// decodeList prints every item of a list envelope followed by its paging state.
func decodeList[T assistants.Item](w io.Writer, data []byte, validate func(*T) error, printItem func(io.Writer, T) error) error {
	var page assistants.List[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return fmt.Errorf("failed to decode list: %w", err)
	}

	for i := range page.Data {
		if validate != nil {
			if err := validate(&page.Data[i]); err != nil {
				return err
			}
		}
		if err := printItem(w, page.Data[i]); err != nil {
			return err
		}
	}

	lastID := "-"
	if page.LastID != nil {
		lastID = *page.LastID
	}
	_, err := fmt.Fprintf(w, "has_more=%t last_id=%s\n", page.HasMore, lastID)
	return err
}

// readInput reads the file named by the first argument, or stdin for none or "-".
func readInput(cmd *cli.Command) ([]byte, error) {
	if path := cmd.Args().First(); path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(cmd.Root().Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

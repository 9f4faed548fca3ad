package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/stepwise/internal/assistants"
	"github.com/florianilch/stepwise/internal/client"
	"github.com/florianilch/stepwise/internal/keystore"
)

func assistantsCommand() *cli.Command {
	return &cli.Command{
		Name:  "assistants",
		Usage: "Read assistants",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List assistants, following pagination",
				Flags:  append(clientFlags(), listFlags()...),
				Action: listAssistantsAction,
			},
			{
				Name:      "get",
				Usage:     "Print one assistant as JSON",
				ArgsUsage: "<assistant_id>",
				Flags:     clientFlags(),
				Action:    getAssistantAction,
			},
		},
	}
}

func stepsCommand() *cli.Command {
	runFlags := []cli.Flag{
		&cli.StringFlag{Name: "thread", Usage: "thread id", Required: true},
		&cli.StringFlag{Name: "run", Usage: "run id", Required: true},
	}

	return &cli.Command{
		Name:  "steps",
		Usage: "Read run steps",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the steps of a run, following pagination",
				Flags:  append(append(clientFlags(), runFlags...), listFlags()...),
				Action: listStepsAction,
			},
			{
				Name:      "get",
				Usage:     "Print one run step as JSON",
				ArgsUsage: "<step_id>",
				Flags:     append(clientFlags(), runFlags...),
				Action:    getStepAction,
			},
		},
	}
}

func clientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "service base URL, e.g. http://127.0.0.1:4100/v1",
		},
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "page size (1-100)"},
		&cli.StringFlag{Name: "order", Usage: "sort order by created_at (asc|desc)"},
		&cli.StringFlag{Name: "after", Usage: "start after this id"},
		&cli.StringFlag{Name: "before", Usage: "end before this id; alone, walks toward the start of the listing"},
		&cli.IntFlag{Name: "max", Usage: "stop after this many items (0 for all)"},
	}
}

func listAssistantsAction(ctx context.Context, cmd *cli.Command) error {
	c, params, done, err := listSetup(ctx, cmd)
	if err != nil {
		return err
	}
	defer done()

	return printAll(ctx, cmd, c.AssistantsFetcher(), params, printAssistant)
}

func listStepsAction(ctx context.Context, cmd *cli.Command) error {
	c, params, done, err := listSetup(ctx, cmd)
	if err != nil {
		return err
	}
	defer done()

	return printAll(ctx, cmd, c.RunStepsFetcher(cmd.String("thread"), cmd.String("run")), params, printRunStep)
}

func getAssistantAction(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("missing assistant id")
	}

	c, done, err := newClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer done()

	assistant, err := c.GetAssistant(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(cmd.Root().Writer, assistant)
}

func getStepAction(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("missing step id")
	}

	c, done, err := newClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer done()

	step, err := c.GetRunStep(ctx, cmd.String("thread"), cmd.String("run"), id)
	if err != nil {
		return err
	}
	return printJSON(cmd.Root().Writer, step)
}

// newClient builds a client from the configuration, authenticating with the
// stored API key when there is one.
func newClient(ctx context.Context, cmd *cli.Command) (*client.Client, func(), error) {
	cfg, shutdown, err := setup(ctx, cmd, os.Environ)
	if err != nil {
		return nil, nil, err
	}
	done := func() { flushLogs(ctx, shutdown) }

	store, err := cfg.Auth.NewKeyStore()
	if err != nil {
		done()
		return nil, nil, fmt.Errorf("failed to create key store: %w", err)
	}
	key, err := store.Read(ctx)
	switch {
	case errors.Is(err, keystore.ErrNotFound):
		slog.DebugContext(ctx, "no API key stored, sending unauthenticated requests")
	case err != nil:
		done()
		return nil, nil, fmt.Errorf("failed to read API key: %w", err)
	}

	c, err := client.New(cfg.Client.BaseURL, client.WithAPIKey(key), client.WithTimeout(cfg.Client.Timeout))
	if err != nil {
		done()
		return nil, nil, err
	}
	return c, done, nil
}

func listSetup(ctx context.Context, cmd *cli.Command) (*client.Client, assistants.ListParams, func(), error) {
	params, err := listParamsFromFlags(cmd)
	if err != nil {
		return nil, assistants.ListParams{}, nil, err
	}
	c, done, err := newClient(ctx, cmd)
	if err != nil {
		return nil, assistants.ListParams{}, nil, err
	}
	return c, params, done, nil
}

func listParamsFromFlags(cmd *cli.Command) (assistants.ListParams, error) {
	var params assistants.ListParams
	if cmd.IsSet("limit") {
		limit := cmd.Int("limit")
		params.Limit = &limit
	}
	if cmd.IsSet("order") {
		order := assistants.Order(cmd.String("order"))
		params.Order = &order
	}
	if cmd.IsSet("after") {
		after := cmd.String("after")
		params.After = &after
	}
	if cmd.IsSet("before") {
		before := cmd.String("before")
		params.Before = &before
	}
	return params, params.Validate()
}

// printAll walks every page and prints each item, stopping after --max items.
func printAll[T assistants.Item](ctx context.Context, cmd *cli.Command, fetch assistants.PageFetcher[T], params assistants.ListParams, printItem func(io.Writer, T) error) error {
	limit := cmd.Int("max")
	count := 0
	for item, err := range assistants.All(ctx, fetch, params) {
		if err != nil {
			return err
		}
		if err := printItem(cmd.Root().Writer, item); err != nil {
			return err
		}
		count++
		if limit > 0 && count >= limit {
			break
		}
	}
	slog.DebugContext(ctx, "listing finished", "items", count)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

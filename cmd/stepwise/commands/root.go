package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return newRootCommand(version, commit).Run(ctx, args)
}

func newRootCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:    "stepwise",
		Usage:   "Inspect assistants and run steps",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file merged below the process environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "exporter for the otel log format (stdout|otlp-http|otlp-grpc)",
				Value: "stdout",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			decodeCommand(),
			assistantsCommand(),
			stepsCommand(),
			authCommand(),
		},
	}
}

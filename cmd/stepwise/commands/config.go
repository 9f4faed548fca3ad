package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/stepwise/internal/config"
	"github.com/florianilch/stepwise/internal/observability"
)

// flagKeys maps command line flags onto config keys. Only flags the user set
// override other sources.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-exporter": "log.exporter",
	"host":         "server.host",
	"port":         "server.port",
	"fixtures":     "server.fixtures",
	"api-key":      "server.api_key",
	"base-url":     "client.base_url",
}

// loadConfig loads the configuration for cmd, with set flags taking precedence.
func loadConfig(cmd *cli.Command, environ func() []string) (*config.Config, error) {
	overrides := map[string]any{}
	for flag, key := range flagKeys {
		if !cmd.IsSet(flag) {
			continue
		}
		if flag == "port" {
			overrides[key] = cmd.Int(flag)
			continue
		}
		value := cmd.String(flag)
		if strings.HasPrefix(key, "log.") {
			value = strings.ToLower(value)
		}
		overrides[key] = value
	}

	return config.Load(config.LoadOptions{
		Path:      cmd.String("config"),
		EnvFile:   cmd.String("env-file"),
		Environ:   environ,
		Overrides: overrides,
	})
}

// setup loads the configuration and installs logging. The returned function
// flushes logs and must be called before exiting.
func setup(ctx context.Context, cmd *cli.Command, environ func() []string) (*config.Config, observability.ShutdownFunc, error) {
	cfg, err := loadConfig(cmd, environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Log.Level))); err != nil {
		return nil, nil, err
	}

	shutdown, err := observability.Instrument(ctx, level, cfg.Log.Format, cfg.Log.Exporter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	return cfg, shutdown, nil
}

// flushLogs runs shutdown, logging failures.
func flushLogs(ctx context.Context, shutdown observability.ShutdownFunc) {
	if err := shutdown(context.WithoutCancel(ctx)); err != nil {
		slog.ErrorContext(ctx, "failed to flush logs", "error", err)
	}
}

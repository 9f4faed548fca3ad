package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/stepwise/internal/config"
	"github.com/florianilch/stepwise/internal/keystore"
)

// authCommand returns the 'auth' subcommand for managing the stored API key.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the API key used by the list commands",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Read an API key and save it to the configured storage",
				Action: authLoginAction,
			},
			{
				Name:   "logout",
				Usage:  "Clear the API key from the configured storage",
				Action: authLogoutAction,
			},
		},
	}
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableKeyStore(cmd, "login")
	if err != nil {
		return err
	}

	key, err := readAPIKey(ctx, cmd)
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("empty API key")
	}

	if err := store.Write(ctx, key); err != nil {
		return fmt.Errorf("failed to write API key: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, "API key saved to configured storage")
	return err
}

func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableKeyStore(cmd, "logout")
	if err != nil {
		return err
	}

	if err := store.Write(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, "API key cleared from configured storage")
	return err
}

func writableKeyStore(cmd *cli.Command, action string) (keystore.Store, error) {
	cfg, err := loadConfig(cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Auth.Storage == config.KeyStorageEnv {
		return nil, fmt.Errorf("cannot %s with env storage (read-only). Configure file or keyring storage", action)
	}

	store, err := cfg.Auth.NewKeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create key store: %w", err)
	}
	return store, nil
}

// readAPIKey prompts without echo on a terminal and reads one line otherwise.
func readAPIKey(ctx context.Context, cmd *cli.Command) (string, error) {
	in := cmd.Root().Reader
	if in == nil {
		in = os.Stdin
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return readSecureInput(ctx, cmd.Root().ErrWriter, f, "API key: ")
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// term.ReadPassword has no context support, so it runs in its own goroutine.
func readSecureInput(ctx context.Context, w io.Writer, f *os.File, prompt string) (string, error) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprint(w, prompt)
	defer fmt.Fprintln(w)

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(f.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return strings.TrimSpace(res.value), nil
	}
}

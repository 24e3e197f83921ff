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

	"github.com/florianilch/prompt-relay/internal/app"
	"github.com/florianilch/prompt-relay/internal/credential"
)

// authCommand returns the 'auth' subcommand for managing the Gemini API key.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Gemini API key",
		Commands: []*cli.Command{
			authSetCommand(),
			authClearCommand(),
		},
	}
}

// authSetCommand returns the 'auth set' subcommand.
func authSetCommand() *cli.Command {
	return &cli.Command{
		Name:   "set",
		Usage:  "Save a Gemini API key to the configured storage",
		Action: authSetAction,
	}
}

// authClearCommand returns the 'auth clear' subcommand.
func authClearCommand() *cli.Command {
	return &cli.Command{
		Name:   "clear",
		Usage:  "Remove the Gemini API key from the configured storage",
		Action: authClearAction,
	}
}

func authSetAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	var key string
	if f, ok := cmd.Root().Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		key, err = readSecureInput(ctx, f, "Enter Gemini API key: ")
	} else {
		key, err = readLine(cmd.Root().Reader)
	}
	if err != nil {
		return err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := store.Write(ctx, key); err != nil {
		return fmt.Errorf("failed to write API key: %w", err)
	}

	fmt.Fprintln(cmd.Root().Writer, "API key saved to configured storage")
	return nil
}

func authClearAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	// Clear via empty write to keep the storage abstraction
	if err := store.Write(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}

	fmt.Fprintln(cmd.Root().Writer, "API key cleared from configured storage")
	return nil
}

// writableStore loads the config and rejects read-only storage.
func writableStore(cmd *cli.Command) (credential.Store, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Auth.Storage == app.CredentialStorageTypeEnv {
		return nil, fmt.Errorf("cannot modify env storage (read-only). Configure file or keyring storage: %w", credential.ErrReadOnly)
	}

	store, err := cfg.Auth.NewCredentialStore(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}
	return store, nil
}

// readLine reads the first line of r, for piped input.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return line, nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, tty *os.File, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(tty.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}

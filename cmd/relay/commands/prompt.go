package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/prompt-relay/internal/app"
	"github.com/florianilch/prompt-relay/internal/relay"
)

// promptCommand returns the 'prompt' subcommand for one-shot calls.
func promptCommand() *cli.Command {
	return &cli.Command{
		Name:      "prompt",
		Usage:     "Sends a single prompt through the relay and prints the response body",
		ArgsUsage: "[text] (reads stdin when omitted or \"-\")",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "request structured suggestions output",
			},
		},
		Action: promptAction,
	}
}

func promptAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	// stdout is reserved for the response body
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level})))

	text, err := promptText(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.Auth.NewCredentialStore(os.LookupEnv)
	if err != nil {
		return fmt.Errorf("failed to create credential store: %w", err)
	}

	handler, err := app.NewRelayHandler(ctx, cfg, store)
	if err != nil {
		return err
	}

	body, err := json.Marshal(struct {
		Prompt string `json:"prompt"`
		IsJSON bool   `json:"isJson"`
	}{Prompt: text, IsJSON: cmd.Bool("json")})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp := handler.Handle(ctx, relay.Request{Method: http.MethodPost, Body: body})

	fmt.Fprintln(cmd.Root().Writer, string(resp.Body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}
	return nil
}

// promptText joins the positional arguments or reads the prompt from stdin.
func promptText(cmd *cli.Command) (string, error) {
	args := cmd.Args().Slice()
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}

	reader := cmd.Root().Reader
	if reader == nil {
		reader = os.Stdin
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	return text, nil
}

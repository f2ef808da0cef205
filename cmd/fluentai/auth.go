package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/at-ishikawa/fluentai/internal/config"
)

func newAuthCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Gemini API key stored in the OS keyring",
	}
	command.AddCommand(newAuthSetKeyCommand(), newAuthStatusCommand(), newAuthDeleteCommand())
	return command
}

func newAuthSetKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store a Gemini API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Gemini API key: ")
			if err != nil {
				return err
			}
			if err := (config.Keyring{}).SaveGeminiAPIKey(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", config.MaskSecret(key))
			return nil
		},
	}
}

// readSecret reads without echo from a terminal and one line otherwise.
func readSecret(in io.Reader, prompt io.Writer, label string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, label)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("term.ReadPassword() > %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret > %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the Gemini API key comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			stored, err := (config.Keyring{}).GeminiAPIKey()
			switch {
			case errors.Is(err, config.ErrSecretNotFound):
				fmt.Fprintln(out, "Keyring: no key stored")
			case err != nil:
				fmt.Fprintf(out, "Keyring: unavailable (%v)\n", err)
			default:
				fmt.Fprintf(out, "Keyring: %s\n", config.MaskSecret(stored))
			}
			if env := os.Getenv("GEMINI_API_KEY"); env != "" {
				fmt.Fprintf(out, "GEMINI_API_KEY: %s (takes precedence)\n", config.MaskSecret(env))
			}
			return nil
		},
	}
}

func newAuthDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored Gemini API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (config.Keyring{}).DeleteGeminiAPIKey(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted the stored Gemini API key")
			return nil
		},
	}
}

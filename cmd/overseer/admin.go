package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "set-key":
		return runAdminSetKey(args[1:])
	case "show-key-path":
		return runAdminShowKeyPath(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: overseer admin <command> [options]

Commands:
  set-key          Store a provider API key (prompted, never echoed)
  show-key-path    Print the key file path for a provider
  help             Show this help message

Examples:
  overseer admin set-key --provider anthropic
  overseer admin set-key --provider openai
  overseer admin show-key-path --provider anthropic
`)
}

// keyPath returns the per-provider key file location under the user's
// home directory.
func keyPath(provider string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".overseer", provider+".key"), nil
}

func validProvider(provider string) error {
	switch provider {
	case "anthropic", "openai":
		return nil
	default:
		return fmt.Errorf("unknown provider %q (expected anthropic or openai)", provider)
	}
}

func runAdminSetKey(args []string) error {
	fs := flag.NewFlagSet("set-key", flag.ContinueOnError)
	provider := fs.String("provider", "", "provider id (anthropic or openai)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validProvider(*provider); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "API key for %s: ", *provider)
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	trimmed := strings.TrimSpace(string(key))
	if trimmed == "" {
		return fmt.Errorf("empty key")
	}

	path, err := keyPath(*provider)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(trimmed+"\n"), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "stored key for %s at %s\n", *provider, path)
	fmt.Fprintf(os.Stderr, "export it at startup, e.g. %s_API_KEY=$(cat %s)\n",
		strings.ToUpper(*provider), path)
	return nil
}

func runAdminShowKeyPath(args []string) error {
	fs := flag.NewFlagSet("show-key-path", flag.ContinueOnError)
	provider := fs.String("provider", "", "provider id (anthropic or openai)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validProvider(*provider); err != nil {
		return err
	}

	path, err := keyPath(*provider)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

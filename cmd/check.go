package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

// CheckCommand returns the check command
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Run a single polling cycle and exit",
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.HasCredentials() {
		return fmt.Errorf("missing Figma token or Anthropic API key")
	}
	if len(a.cfg.Documents()) == 0 {
		return fmt.Errorf("no documents configured to monitor")
	}

	a.runner.RunCycle(context.Background())

	status := a.status.Snapshot()
	fmt.Printf("Checked %d document(s), %d comment(s) answered\n",
		status.DocumentsMonitored, status.CommentsProcessed)
	if status.LastError != "" {
		fmt.Printf("Last error: %s\n", status.LastError)
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/figsync/internal/config"
	"github.com/figsync/internal/ledger"
)

// StatusCommand returns the status command
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the effective configuration and ledger state",
		Action: runStatus,
	}
}

func runStatus(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Printf("Trigger phrase:    %q\n", cfg.Trigger())
	fmt.Printf("Polling interval:  %s\n", cfg.PollingInterval())
	fmt.Printf("Model:             %s\n", cfg.Model())
	fmt.Printf("Figma token:       %s\n", presence(cfg.FigmaToken()))
	fmt.Printf("Anthropic key:     %s\n", presence(cfg.AnthropicKey()))

	docs := cfg.Documents()
	fmt.Printf("Documents (%d):\n", len(docs))
	for _, doc := range docs {
		fmt.Printf("  - %s\n", doc)
	}

	led, err := ledger.Open(cfg.Ledger.Path, cfg.Ledger.Retention)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer led.Close()

	size, err := led.Size()
	if err != nil {
		return err
	}
	fmt.Printf("Ledger:            %s (%d processed comment(s) retained)\n", cfg.Ledger.Path, size)

	return nil
}

func presence(secret string) string {
	if secret == "" {
		return "missing"
	}
	return "configured"
}

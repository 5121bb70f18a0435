package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/figsync/internal/ai"
	"github.com/figsync/internal/config"
	"github.com/figsync/internal/engine"
	"github.com/figsync/internal/figma"
	"github.com/figsync/internal/ledger"
	"github.com/figsync/internal/resolver"
)

// app bundles the wired engine for one command invocation.
type app struct {
	cfg       *config.Config
	ledger    *ledger.Ledger
	status    *engine.StatusBoard
	runner    *engine.Runner
	scheduler *engine.Scheduler
}

// buildApp loads the configuration and wires the synchronization engine.
func buildApp(c *cli.Context) (*app, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	led, err := ledger.Open(cfg.Ledger.Path, cfg.Ledger.Retention)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	client := figma.NewClient(cfg.FigmaToken())
	regions := resolver.New(client)
	generator := ai.NewGenerator(cfg.AnthropicKey(), cfg.Model())

	status := engine.NewStatusBoard()
	processor := engine.NewProcessor(client, regions, generator, led, status,
		cfg.Trigger(), cfg.SystemPrompt())
	runner := engine.NewRunner(client, processor, led, status,
		cfg.Trigger(), cfg.Documents())
	scheduler := engine.NewScheduler(runner, status, cfg.PollingInterval(),
		len(cfg.Documents()), cfg.HasCredentials())

	return &app{
		cfg:       cfg,
		ledger:    led,
		status:    status,
		runner:    runner,
		scheduler: scheduler,
	}, nil
}

func (a *app) Close() {
	if err := a.ledger.Close(); err != nil {
		fmt.Printf("Warning: failed to close ledger: %v\n", err)
	}
}

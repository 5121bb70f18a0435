package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/figsync/pkg/models"
)

// WatchCommand returns the watch command
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Watch configured Figma files and reply to triggering comments",
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := a.scheduler.Subscribe(func(st models.EngineStatus) {
		log.Debug().
			Bool("active", st.Active).
			Int("documents", st.DocumentsMonitored).
			Int("processed", st.CommentsProcessed).
			Str("last_error", st.LastError).
			Msg("Status updated")
	})
	defer unsubscribe()

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	log.Info().
		Str("trigger", a.cfg.Trigger()).
		Strs("documents", a.cfg.Documents()).
		Msg("Watching for comments, press Ctrl-C to stop")

	<-ctx.Done()
	a.scheduler.Stop()

	final := a.scheduler.Status()
	log.Info().Int("processed", final.CommentsProcessed).Msg("Shut down")
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/stepflow/stepflow/pkg/cmd"
	"github.com/stepflow/stepflow/pkg/log"
	"github.com/stepflow/stepflow/pkg/trigger"
)

// ScheduleCommand runs the cron trigger loop for schedule-triggered
// templates until an interrupt arrives.
func ScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:    "schedule",
		Aliases: []string{"s"},
		Usage:   "Run schedule-triggered templates on their cron expressions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "templates-path",
				Usage:   "Directory holding workflow template JSON files",
				Value:   "./templates",
				Sources: cli.EnvVars("TEMPLATES_PATH"),
			},
			&cli.StringFlag{
				Name:    "store-url",
				Usage:   "Execution store URL (redis://... or empty for in-memory)",
				Sources: cli.EnvVars("STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("scheduler")

			templates, err := cmd.NewTemplateRepository(command.String("templates-path"))
			if err != nil {
				return err
			}

			defer func() {
				if err := templates.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close template repository", "error", err)
				}
			}()

			store, err := cmd.NewExecutionStore(command.String("store-url"))
			if err != nil {
				return err
			}

			eng := cmd.NewEngine(logger, store)

			scheduler := trigger.NewScheduler(logger, eng, templates)
			if err := scheduler.Start(ctx); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			scheduler.Stop()

			return nil
		},
	}
}

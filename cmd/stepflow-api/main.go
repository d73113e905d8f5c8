package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/stepflow/stepflow/pkg/cmd"
	"github.com/stepflow/stepflow/pkg/log"
	"github.com/stepflow/stepflow/pkg/otelhelper"
	"github.com/stepflow/stepflow/pkg/trigger"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "stepflow-api",
		Usage:                 "Create workflow templates and run executions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
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
			&cli.BoolFlag{
				Name:    "schedule",
				Usage:   "Also run the cron trigger loop for schedule templates",
				Sources: cli.EnvVars("SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for executions and steps",
				Sources: cli.EnvVars("TRACING"),
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

			logger.InfoContext(ctx, "Initializing Stepflow API")

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

			eventBus := cmd.NewEventBus()
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			eng := cmd.NewEngine(logger, store).WithEventBus(eventBus)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "stepflow-api")
				if err != nil {
					return err
				}

				eng = eng.WithTracer(tracer)
			}

			if command.Bool("schedule") {
				scheduler := trigger.NewScheduler(logger, eng, templates)
				if err := scheduler.Start(ctx); err != nil {
					return err
				}

				defer scheduler.Stop()
			}

			api := NewAPI(logger, eng, templates)

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

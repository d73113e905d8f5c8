package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/stepflow/stepflow/pkg/log"
)

// ValidateCommand checks template files without running them.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate workflow template files",
		ArgsUsage: "<template.json> [more...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("cli")

			if command.Args().Len() == 0 {
				return fmt.Errorf("expected at least one template file argument")
			}

			failed := 0

			for _, path := range command.Args().Slice() {
				template, err := loadTemplate(path)
				if err == nil {
					err = template.Validate()
				}

				if err != nil {
					failed++

					logger.ErrorContext(ctx, "Template invalid", "file", path, "error", err)

					continue
				}

				logger.InfoContext(ctx, "Template valid",
					"file", path, "workflow_id", template.ID, "steps", len(template.Steps))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d templates failed validation", failed, command.Args().Len())
			}

			return nil
		},
	}
}

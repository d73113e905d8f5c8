package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/stepflow/stepflow/pkg/cmd"
	"github.com/stepflow/stepflow/pkg/log"
	"github.com/stepflow/stepflow/pkg/models"
)

// RunCommand executes a template file to a terminal state and prints the
// result as JSON on stdout.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Run a workflow template file",
		ArgsUsage: "<template.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "context",
				Aliases: []string{"c"},
				Usage:   "Initial execution context as a JSON object",
				Value:   "{}",
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

			logger := log.WithModule("cli")

			if command.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one template file argument")
			}

			template, err := loadTemplate(command.Args().First())
			if err != nil {
				return err
			}

			initial := models.Context{}
			if err := json.Unmarshal([]byte(command.String("context")), &initial); err != nil {
				return fmt.Errorf("invalid --context payload: %w", err)
			}

			store, err := cmd.NewExecutionStore(command.String("store-url"))
			if err != nil {
				return err
			}

			eng := cmd.NewEngine(logger, store)

			result := eng.ExecuteWorkflow(ctx, template, initial)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, string(out))

			if !result.Success {
				return fmt.Errorf("execution %s failed: %s", result.ExecutionID, result.Error)
			}

			return nil
		},
	}
}

func loadTemplate(path string) (*models.WorkflowTemplate, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	template := &models.WorkflowTemplate{}
	if err := json.Unmarshal(payload, template); err != nil {
		return nil, fmt.Errorf("failed to decode template file %s: %w", path, err)
	}

	return template, nil
}

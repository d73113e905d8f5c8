package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/stepflow/stepflow/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "stepflow",
		Usage:                 "Run and validate workflow templates",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunCommand(),
			ValidateCommand(),
			ScheduleCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.Setup("info")
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/deepnoodle-ai/lmnodes/internal/credstore"
	"github.com/deepnoodle-ai/lmnodes/log"
	_ "github.com/deepnoodle-ai/lmnodes/vendors/openai"
	"github.com/deepnoodle-ai/wonton/cli"
)

var logJSON bool

func main() {
	app := cli.New("lmnodes").
		Description("Inspect and run language model nodes outside the workflow host").
		Version("0.1.0").
		GlobalFlags(
			cli.String("log-level", "").
				Default("warn").
				Env("LMNODES_LOG_LEVEL").
				Help("Log level to use (debug, info, warn, error)"),
			cli.Bool("log-json", "").
				Default(false).
				Help("Write logs as JSON"),
			cli.String("env-file", "").
				Default("").
				Env("LMNODES_ENV_FILE").
				Help("Load environment variables from this file (defaults to ./.env when present)"),
		)

	registerNodesCommand(app)
	registerDescribeCommand(app)
	registerOptionsCommand(app)
	registerSupplyCommand(app)
	registerCredentialsCommand(app)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// parseGlobalFlags reads the global flags and loads the env file.
func parseGlobalFlags(ctx *cli.Context) error {
	log.SetDefaultLevel(log.LevelFromString(ctx.String("log-level")))
	logJSON = ctx.Bool("log-json")

	var paths []string
	if envFile := ctx.String("env-file"); envFile != "" {
		paths = append(paths, envFile)
	}
	if err := credstore.LoadDotEnv(paths...); err != nil {
		return cli.Errorf("failed to load env file: %v", err)
	}
	return nil
}

// newContext returns a background context carrying the CLI's logger.
func newContext() context.Context {
	logger := log.NewWithOptions(log.Options{
		Level: log.GetDefaultLevel(),
		JSON:  logJSON,
	})
	return log.WithLogger(context.Background(), logger)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	acceptor "github.com/geo-infra/geo-acceptor"
	"github.com/geo-infra/geo-acceptor/exitcodes"
	"github.com/geo-infra/geo-acceptor/flags"
)

var (
	Version   = "v0.2.0"
	GitCommit = ""
	GitDate   = ""
)

// task adapts a pipeline method expression into a cli action, mapping
// typed runtime errors to exit code 2.
func task(run func(p *acceptor.Pipeline, ctx context.Context) error) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		log := newLogger(cliCtx.String(flags.LogLevel.Name))
		slog.SetDefault(log)

		cfg, err := acceptor.NewConfig(cliCtx, log)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to load config: %v", err), exitcodes.RuntimeErr)
		}
		p, err := acceptor.New(cfg)
		if err != nil {
			return cli.Exit(err.Error(), exitcodes.RuntimeErr)
		}

		if err := run(p, cliCtx.Context); err != nil {
			if acceptor.IsRuntimeError(err) {
				return cli.Exit(err.Error(), exitcodes.RuntimeErr)
			}
			return cli.Exit(err.Error(), exitcodes.UsageErr)
		}
		return nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	app := cli.NewApp()
	app.Name = "geo-acceptor"
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Usage = "Geocoder import and acceptance test pipeline"
	app.Description = "geo-acceptor imports datasets into a geocoder stack and runs the geocoder-tester suite against it"
	app.Flags = flags.Flags

	composeFlags := []cli.Flag{flags.Files}
	testFlags := []cli.Flag{flags.Files, flags.URL, flags.Name, flags.Regions}

	app.Commands = []*cli.Command{
		{
			Name:   "load-all",
			Usage:  "Import every configured dataset (default task)",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).LoadAll),
		},
		{
			Name:   "generate-cosmogony",
			Usage:  "Generate the cosmogony file from the OSM extract",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).GenerateCosmogony),
		},
		{
			Name:   "load-cosmogony",
			Usage:  "Import the cosmogony file",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).LoadCosmogony),
		},
		{
			Name:   "load-osm",
			Usage:  "Import streets (and admins when not using cosmogony) from OSM",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).LoadOSM),
		},
		{
			Name:   "load-addresses",
			Usage:  "Import the configured address sources",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).LoadAddresses),
		},
		{
			Name:   "load-pois",
			Usage:  "Import points of interest",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).LoadPOIs),
		},
		{
			Name:   "compose-up",
			Usage:  "Start the geocoder stack and wait for its search backend",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).ComposeUp),
		},
		{
			Name:   "compose-down",
			Usage:  "Stop the geocoder stack",
			Flags:  composeFlags,
			Action: task((*acceptor.Pipeline).ComposeDown),
		},
		{
			Name:   "test",
			Usage:  "Run the geocoder-tester suite for every region and category",
			Flags:  testFlags,
			Action: task((*acceptor.Pipeline).Test),
		},
		{
			Name:   "check",
			Usage:  "Full sequence: compose-up, load-all, test, compose-down",
			Flags:  testFlags,
			Action: task((*acceptor.Pipeline).Check),
		},
	}

	// Running without a subcommand imports everything, mirroring the
	// historical default task.
	app.Flags = append(app.Flags, flags.Files)
	app.Action = task((*acceptor.Pipeline).LoadAll)

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(exitcodes.UsageErr)
	}
}

package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "GEO_ACCEPTOR"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	RunConfig = &cli.StringFlag{
		Name:    "config",
		Value:   "geo-acceptor.yaml",
		EnvVars: prefixEnvVars("CONFIG"),
		Usage:   "Path to the run configuration file",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level (debug, info, warn, error)",
	}
	DockerCompose = &cli.BoolFlag{
		Name:    "docker-compose",
		EnvVars: prefixEnvVars("DOCKER_COMPOSE"),
		Usage:   "Run importer binaries through docker compose instead of the host",
	}
	Files = &cli.StringSliceFlag{
		Name:    "files",
		EnvVars: prefixEnvVars("FILES"),
		Usage:   "Additional docker compose files layered on top of docker-compose.yml",
	}
	URL = &cli.StringFlag{
		Name:    "url",
		EnvVars: prefixEnvVars("URL"),
		Usage:   "Geocoder endpoint to test (overrides the run config)",
	}
	Name = &cli.StringFlag{
		Name:    "name",
		Value:   "geocoder-tester",
		EnvVars: prefixEnvVars("NAME"),
		Usage:   "Name of the run, used in report files and the output directory",
	}
	Regions = &cli.StringFlag{
		Name:    "regions",
		EnvVars: prefixEnvVars("REGIONS"),
		Usage:   "Comma-separated region list overriding the run config",
	}
	PytestBinary = &cli.StringFlag{
		Name:    "pytest-binary",
		Value:   "pytest",
		EnvVars: prefixEnvVars("PYTEST_BINARY"),
		Usage:   "Path to the pytest binary running the geocoder-tester suite",
	}
	MetricsPushURL = &cli.StringFlag{
		Name:    "metrics-push-url",
		EnvVars: prefixEnvVars("METRICS_PUSH_URL"),
		Usage:   "Prometheus push gateway to publish run metrics to (optional)",
	}
)

var requiredFlags = []cli.Flag{
	RunConfig,
}

var optionalFlags = []cli.Flag{
	LogLevel,
	DockerCompose,
	PytestBinary,
	MetricsPushURL,
}

// Flags are the global flags of the application. Per-command flags (such
// as --files or --url) are attached to their commands.
var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) && ctx.String(f.Names()[0]) == "" {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
